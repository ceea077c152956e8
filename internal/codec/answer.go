package codec

import (
	"encoding/json"
	"fmt"

	"github.com/coffee-research/coffee/internal/models"
)

// Answer discriminators. Slider and number items share the numeric shape.
const (
	AnswerNumeric   = "numeric"
	AnswerSelection = "selection"
	AnswerText      = "text"
	AnswerLocation  = "location"
)

type numericAnswerWire struct {
	Type  string   `json:"type"`
	Value *float64 `json:"value"`
}

type selectionAnswerWire struct {
	Type  string `json:"type"`
	Value []int  `json:"value"`
}

type textAnswerWire struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

type locationAnswerWire struct {
	Type  string                        `json:"type"`
	Value map[models.Coordinate]float64 `json:"value"`
}

// AnswerKindFor names the answer shape an item kind works with.
func AnswerKindFor(k models.ItemKind) string {
	switch k {
	case models.KindSlider, models.KindNumber:
		return AnswerNumeric
	case models.KindMultipleChoice:
		return AnswerSelection
	case models.KindText:
		return AnswerText
	case models.KindLocationPicker:
		return AnswerLocation
	}
	return ""
}

// DecodeAnswer decodes a live answer such as {"type":"numeric","value":3}.
func DecodeAnswer(data []byte) (models.Answer, error) {
	kind, err := peekKind(data)
	if err != nil {
		return nil, &DecodeError{Err: err}
	}
	a, err := decodeAnswerOfKind(kind, data)
	if err != nil {
		return nil, &DecodeError{Kind: kind, Err: err}
	}
	return a, nil
}

func decodeAnswerOfKind(kind string, raw json.RawMessage) (models.Answer, error) {
	switch kind {
	case AnswerNumeric:
		var w numericAnswerWire
		if err := decodeInto(raw, &w); err != nil {
			return nil, err
		}
		return models.NumericAnswer{Value: w.Value}, nil
	case AnswerSelection:
		var w selectionAnswerWire
		if err := decodeInto(raw, &w); err != nil {
			return nil, err
		}
		if w.Value == nil {
			w.Value = []int{}
		}
		return models.SelectionAnswer{Selected: w.Value}, nil
	case AnswerText:
		var w textAnswerWire
		if err := decodeInto(raw, &w); err != nil {
			return nil, err
		}
		return models.TextAnswer{Text: w.Value}, nil
	case AnswerLocation:
		var w locationAnswerWire
		if err := decodeInto(raw, &w); err != nil {
			return nil, err
		}
		if err := checkCoordinates(w.Value); err != nil {
			return nil, err
		}
		if w.Value == nil {
			w.Value = map[models.Coordinate]float64{}
		}
		return models.LocationAnswer{Coordinates: w.Value}, nil
	}
	return nil, fmt.Errorf("%w: answer type %q", models.ErrUnknownKind, kind)
}

// EncodeAnswer encodes a live answer.
func EncodeAnswer(a models.Answer) ([]byte, error) {
	switch v := a.(type) {
	case models.NumericAnswer:
		return json.Marshal(numericAnswerWire{AnswerNumeric, v.Value})
	case models.SelectionAnswer:
		sel := v.Selected
		if sel == nil {
			sel = []int{}
		}
		return json.Marshal(selectionAnswerWire{AnswerSelection, sel})
	case models.TextAnswer:
		return json.Marshal(textAnswerWire{AnswerText, v.Text})
	case models.LocationAnswer:
		loc := v.Coordinates
		if loc == nil {
			loc = map[models.Coordinate]float64{}
		}
		return json.Marshal(locationAnswerWire{AnswerLocation, loc})
	}
	return nil, fmt.Errorf("encode answer: %w: %T", models.ErrUnknownKind, a)
}
