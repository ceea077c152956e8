// Package codec converts surveys, submissions, responses and live answers to
// and from their JSON wire form. Items, responses, answers and reminders are
// discriminated by a "type" field ("kind" is accepted as an alias on input).
//
// All functions are stateless and safe for concurrent use.
package codec

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

var (
	// ErrMissingDiscriminator is returned when an element has neither "type" nor "kind".
	ErrMissingDiscriminator = errors.New("missing type discriminator")
	// ErrInvalidField is returned when a field is missing, malformed or out of range.
	ErrInvalidField = errors.New("invalid field")
)

// DecodeError reports where decoding failed. Path locates the offending
// element (for example "items[2]"); Kind is the discriminator seen there, if any.
type DecodeError struct {
	Path string
	Kind string
	Err  error
}

func (e *DecodeError) Error() string {
	var b strings.Builder
	b.WriteString("decode")
	if e.Path != "" {
		b.WriteString(" ")
		b.WriteString(e.Path)
	}
	if e.Kind != "" {
		fmt.Fprintf(&b, " (type %q)", e.Kind)
	}
	b.WriteString(": ")
	b.WriteString(e.Err.Error())
	return b.String()
}

func (e *DecodeError) Unwrap() error { return e.Err }

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// report JSON names instead of Go field names
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// discriminator is the phase-one view of an element: only the kind is read.
type discriminator struct {
	Type *string `json:"type"`
	Kind *string `json:"kind"`
}

// peekKind reads the discriminator of a raw element without decoding the rest.
func peekKind(raw json.RawMessage) (string, error) {
	var d discriminator
	if err := json.Unmarshal(raw, &d); err != nil {
		return "", invalid(err)
	}
	switch {
	case d.Type != nil && *d.Type != "":
		return *d.Type, nil
	case d.Kind != nil && *d.Kind != "":
		return *d.Kind, nil
	}
	return "", ErrMissingDiscriminator
}

// decodeInto is phase two: decode raw into the kind-specific wire shape and
// run its validate tags.
func decodeInto(raw json.RawMessage, dst any) error {
	if err := json.Unmarshal(raw, dst); err != nil {
		return invalid(err)
	}
	if err := validate.Struct(dst); err != nil {
		return invalid(err)
	}
	return nil
}

func invalid(err error) error {
	return fmt.Errorf("%w: %w", ErrInvalidField, err)
}

func invalidf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidField, fmt.Sprintf(format, args...))
}

// wrap attaches a path to err unless it already is a DecodeError.
func wrap(path, kind string, err error) error {
	var de *DecodeError
	if errors.As(err, &de) {
		if path != "" && de.Path != "" {
			de.Path = path + "." + de.Path
		} else if path != "" {
			de.Path = path
		}
		return de
	}
	return &DecodeError{Path: path, Kind: kind, Err: err}
}

func indexPath(field string, i int) string {
	return fmt.Sprintf("%s[%d]", field, i)
}
