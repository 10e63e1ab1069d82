package cache

import (
	"net/url"
	"strings"
)

// Keyer derives fetch keys for API queries.
type Keyer interface {
	// QueryKey returns the key for a GET of path with the given parameters.
	QueryKey(path string, params url.Values) string
}

// DefaultKeyer builds keys of the form "/path?a=1&b=2".
type DefaultKeyer struct{}

// NewDefaultKeyer creates the default keyer.
func NewDefaultKeyer() Keyer {
	return DefaultKeyer{}
}

// QueryKey normalises path (leading slash, no trailing slash) and appends the
// encoded parameters. [url.Values.Encode] sorts by name, so parameter order
// at the call site does not change the key, while any difference in path or
// values does.
func (DefaultKeyer) QueryKey(path string, params url.Values) string {
	path = "/" + strings.Trim(path, "/")
	if len(params) == 0 {
		return path
	}
	return path + "?" + params.Encode()
}

// Ensure DefaultKeyer implements Keyer.
var _ Keyer = DefaultKeyer{}
