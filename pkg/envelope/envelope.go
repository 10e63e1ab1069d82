// Package envelope classifies and unwraps the JSON envelopes returned by the
// admin API.
//
// Endpoints are inconsistent about how they wrap their payloads. Some return
// a bare array, some nest the value under "data", the display-card endpoint
// splits its result into "available" and "linked" groups and the stats
// endpoints occasionally nest under "stats". [Decode] maps every raw body to
// exactly one [Kind]; [As] and [Groups] turn a classified envelope into the
// typed value a caller expects.
//
// Decoding is pure: the raw bytes passed in are never modified, so the same
// cached body can be read by callers expecting different shapes.
package envelope

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"slices"

	apperrors "github.com/matzehuels/adminpanel/pkg/errors"
)

// ErrUnexpectedShape is returned when a body is not valid JSON or its
// envelope kind is not accepted by the caller.
var ErrUnexpectedShape = errors.New("unexpected response shape")

// Kind identifies an envelope variant.
type Kind int

const (
	// KindEmpty is an empty body or JSON null.
	KindEmpty Kind = iota
	// KindBare is an array, scalar or object without a recognised wrapper key.
	KindBare
	// KindData is an object with a "data" key.
	KindData
	// KindGrouped is an object with "available" and/or "linked" keys.
	KindGrouped
	// KindStats is an object with a "stats" key.
	KindStats
)

func (k Kind) String() string {
	switch k {
	case KindEmpty:
		return "empty"
	case KindBare:
		return "bare"
	case KindData:
		return "data"
	case KindGrouped:
		return "grouped"
	case KindStats:
		return "stats"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Envelope is a classified response body.
type Envelope struct {
	Kind Kind

	// Payload is the meaningful value: the nested value for Data and Stats,
	// the whole body for Bare and Grouped, nil for Empty.
	Payload json.RawMessage

	// Available and Linked are set for Grouped envelopes. A group missing
	// from the body is nil here.
	Available json.RawMessage
	Linked    json.RawMessage
}

// Decode classifies raw. Keys are checked in a fixed order: "data" wins over
// "available"/"linked", which win over "stats". Objects carrying none of
// them are Bare.
func Decode(raw []byte) (Envelope, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return Envelope{Kind: KindEmpty}, nil
	}
	if !json.Valid(trimmed) {
		return Envelope{}, shapeError("body is not valid JSON")
	}
	if trimmed[0] != '{' {
		return Envelope{Kind: KindBare, Payload: trimmed}, nil
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &fields); err != nil {
		return Envelope{}, shapeError("decode object: %v", err)
	}

	if data, ok := fields["data"]; ok {
		return Envelope{Kind: KindData, Payload: data}, nil
	}
	available, hasAvailable := fields["available"]
	linked, hasLinked := fields["linked"]
	if hasAvailable || hasLinked {
		return Envelope{
			Kind:      KindGrouped,
			Payload:   trimmed,
			Available: available,
			Linked:    linked,
		}, nil
	}
	if stats, ok := fields["stats"]; ok {
		return Envelope{Kind: KindStats, Payload: stats}, nil
	}
	return Envelope{Kind: KindBare, Payload: trimmed}, nil
}

// As decodes the payload of raw into a T. Only the listed kinds are
// accepted; an Empty envelope is always accepted and yields the zero T.
// With no kinds listed, Data and Bare are accepted.
func As[T any](raw []byte, accept ...Kind) (T, error) {
	var out T
	env, err := Decode(raw)
	if err != nil {
		return out, err
	}
	if env.Kind == KindEmpty {
		return out, nil
	}
	if len(accept) == 0 {
		accept = []Kind{KindData, KindBare}
	}
	if !slices.Contains(accept, env.Kind) {
		return out, shapeError("%s envelope not accepted (want %v)", env.Kind, accept)
	}
	if err := unmarshal(env.Payload, &out); err != nil {
		return out, err
	}
	return out, nil
}

// Grouped holds the two display-card groups. Both slices are non-nil after
// [Groups] returns without error.
type Grouped[T any] struct {
	Available []T `json:"available"`
	Linked    []T `json:"linked"`
}

// Groups decodes a grouped envelope, unwrapping a Data envelope first.
// Missing or null groups become empty slices.
func Groups[T any](raw []byte) (Grouped[T], error) {
	out := Grouped[T]{Available: []T{}, Linked: []T{}}

	env, err := Decode(raw)
	if err != nil {
		return out, err
	}
	if env.Kind == KindData {
		if env, err = Decode(env.Payload); err != nil {
			return out, err
		}
	}

	switch env.Kind {
	case KindEmpty:
		return out, nil
	case KindGrouped:
	default:
		return out, shapeError("%s envelope has no available/linked groups", env.Kind)
	}

	if err := unmarshalGroup(env.Available, &out.Available); err != nil {
		return out, err
	}
	if err := unmarshalGroup(env.Linked, &out.Linked); err != nil {
		return out, err
	}
	return out, nil
}

func unmarshalGroup[T any](raw json.RawMessage, dst *[]T) error {
	if len(raw) == 0 {
		return nil
	}
	var items []T
	if err := unmarshal(raw, &items); err != nil {
		return err
	}
	if items != nil {
		*dst = items
	}
	return nil
}

func unmarshal(raw json.RawMessage, v any) error {
	if err := json.Unmarshal(raw, v); err != nil {
		return apperrors.Wrap(apperrors.ErrCodeUnexpectedShape, fmt.Errorf("%w: %v", ErrUnexpectedShape, err), "decode payload")
	}
	return nil
}

func shapeError(format string, args ...any) error {
	return apperrors.Wrap(apperrors.ErrCodeUnexpectedShape, ErrUnexpectedShape, format, args...)
}
