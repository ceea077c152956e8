package models

import (
	"errors"
	"fmt"
)

// ItemKind identifies one member of the closed set of question types. The string
// value doubles as the wire discriminator for items and responses.
type ItemKind string

const (
	KindSlider         ItemKind = "slider"
	KindMultipleChoice ItemKind = "multipleChoice"
	KindText           ItemKind = "text"
	KindLocationPicker ItemKind = "locationPicker"
	KindNumber         ItemKind = "number"
)

// ErrUnknownKind is returned when a discriminator is not one of the known kinds.
var ErrUnknownKind = errors.New("unknown item kind")

var itemKinds = []ItemKind{
	KindSlider,
	KindMultipleChoice,
	KindText,
	KindLocationPicker,
	KindNumber,
}

// ItemKinds returns the known kinds in registry order.
func ItemKinds() []ItemKind {
	out := make([]ItemKind, len(itemKinds))
	copy(out, itemKinds)
	return out
}

func (k ItemKind) Valid() bool {
	for _, known := range itemKinds {
		if k == known {
			return true
		}
	}
	return false
}

func (k ItemKind) String() string { return string(k) }

// ParseItemKind resolves a discriminator string.
func ParseItemKind(s string) (ItemKind, error) {
	k := ItemKind(s)
	if !k.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownKind, s)
	}
	return k, nil
}
