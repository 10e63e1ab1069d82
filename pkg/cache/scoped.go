package cache

import "net/url"

// ScopedKeyer wraps a Keyer with a prefix for isolation between API
// deployments. The CLI scopes keys by base URL so that a staging and a
// production panel sharing one Redis never read each other's entries.
//
// Example usage:
//
//	keyer := NewScopedKeyer(NewDefaultKeyer(), "https://cms.example.com|")
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer creates a keyer with a prefix.
// The prefix is prepended to all generated keys.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{
		inner:  inner,
		prefix: prefix,
	}
}

// QueryKey generates a prefixed fetch key.
func (k *ScopedKeyer) QueryKey(path string, params url.Values) string {
	return k.prefix + k.inner.QueryKey(path, params)
}
