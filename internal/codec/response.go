package codec

import (
	"encoding/json"
	"fmt"

	"github.com/coffee-research/coffee/internal/models"
)

type responseHeader struct {
	Type           models.ItemKind `json:"type"`
	ItemIdentifier string          `json:"itemIdentifier" validate:"required"`
}

type numericResponseWire struct {
	responseHeader
	Value *float64 `json:"value" validate:"required"`
}

type choiceResponseWire struct {
	responseHeader
	Value []int `json:"value" validate:"required"`
}

type textResponseWire struct {
	responseHeader
	Value *string `json:"value" validate:"required"`
}

type locationResponseWire struct {
	responseHeader
	Value map[models.Coordinate]float64 `json:"value" validate:"required"`
}

// DecodeResponse decodes a single response element.
func DecodeResponse(data []byte) (models.Response, error) {
	r, err := decodeResponse(data)
	if err != nil {
		return nil, wrap("", "", err)
	}
	return r, nil
}

func decodeResponse(raw json.RawMessage) (models.Response, error) {
	kind, err := peekKind(raw)
	if err != nil {
		return nil, &DecodeError{Err: err}
	}
	k, err := models.ParseItemKind(kind)
	if err != nil {
		return nil, &DecodeError{Kind: kind, Err: err}
	}
	r, err := decodeResponseOfKind(k, raw)
	if err != nil {
		return nil, &DecodeError{Kind: kind, Err: err}
	}
	return r, nil
}

func decodeResponseOfKind(k models.ItemKind, raw json.RawMessage) (models.Response, error) {
	switch k {
	case models.KindSlider, models.KindNumber:
		var w numericResponseWire
		if err := decodeInto(raw, &w); err != nil {
			return nil, err
		}
		if k == models.KindSlider {
			return models.SliderResponse{ItemIdentifier: w.ItemIdentifier, Value: *w.Value}, nil
		}
		return models.NumberResponse{ItemIdentifier: w.ItemIdentifier, Value: *w.Value}, nil

	case models.KindMultipleChoice:
		var w choiceResponseWire
		if err := decodeInto(raw, &w); err != nil {
			return nil, err
		}
		return models.MultipleChoiceResponse{ItemIdentifier: w.ItemIdentifier, Value: w.Value}, nil

	case models.KindText:
		var w textResponseWire
		if err := decodeInto(raw, &w); err != nil {
			return nil, err
		}
		return models.TextResponse{ItemIdentifier: w.ItemIdentifier, Value: *w.Value}, nil

	case models.KindLocationPicker:
		var w locationResponseWire
		if err := decodeInto(raw, &w); err != nil {
			return nil, err
		}
		if err := checkCoordinates(w.Value); err != nil {
			return nil, err
		}
		return models.LocationPickerResponse{ItemIdentifier: w.ItemIdentifier, Value: w.Value}, nil
	}
	return nil, fmt.Errorf("%w: %q", models.ErrUnknownKind, k)
}

func checkCoordinates(m map[models.Coordinate]float64) error {
	for c := range m {
		if !c.Valid() {
			return invalidf("unknown coordinate %q", c)
		}
	}
	return nil
}

// EncodeResponse encodes a single response.
func EncodeResponse(r models.Response) ([]byte, error) {
	w, err := responseWire(r)
	if err != nil {
		return nil, err
	}
	return json.Marshal(w)
}

func responseWire(r models.Response) (any, error) {
	switch v := r.(type) {
	case models.SliderResponse:
		return numericResponseWire{responseHeader{v.Kind(), v.ItemIdentifier}, models.Float(v.Value)}, nil
	case models.NumberResponse:
		return numericResponseWire{responseHeader{v.Kind(), v.ItemIdentifier}, models.Float(v.Value)}, nil
	case models.MultipleChoiceResponse:
		sel := v.Value
		if sel == nil {
			sel = []int{}
		}
		return choiceResponseWire{responseHeader{v.Kind(), v.ItemIdentifier}, sel}, nil
	case models.TextResponse:
		text := v.Value
		return textResponseWire{responseHeader{v.Kind(), v.ItemIdentifier}, &text}, nil
	case models.LocationPickerResponse:
		loc := v.Value
		if loc == nil {
			loc = map[models.Coordinate]float64{}
		}
		return locationResponseWire{responseHeader{v.Kind(), v.ItemIdentifier}, loc}, nil
	}
	return nil, fmt.Errorf("encode response: %w: %T", models.ErrUnknownKind, r)
}
