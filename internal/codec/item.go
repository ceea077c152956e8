package codec

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/coffee-research/coffee/internal/models"
)

type itemHeader struct {
	Type        models.ItemKind `json:"type"`
	Identifier  string          `json:"identifier"`
	Question    string          `json:"question" validate:"required"`
	Description string          `json:"description,omitempty"`
	IsMandatory *bool           `json:"isMandatory"`
}

type stepWire struct {
	Value *float64 `json:"value" validate:"required"`
	Label string   `json:"label"`
	Color string   `json:"color,omitempty"`
}

type sliderWire struct {
	itemHeader
	Steps           []stepWire `json:"steps" validate:"min=2,dive"`
	IsContinuous    *bool      `json:"isContinuous"`
	ShowSliderValue *bool      `json:"showSliderValue"`
}

type optionWire struct {
	Identifier *int   `json:"identifier" validate:"required"`
	Label      string `json:"label" validate:"required"`
	Color      string `json:"color,omitempty"`
}

type multipleChoiceWire struct {
	itemHeader
	Options               []optionWire `json:"options" validate:"min=1,dive"`
	MinNumberOfSelections *int         `json:"minNumberOfSelections" validate:"omitempty,min=0"`
	MaxNumberOfSelections *int         `json:"maxNumberOfSelections,omitempty" validate:"omitempty,min=1"`
	IsAscendingOrder      bool         `json:"isAscendingOrder"`
}

type textWire struct {
	itemHeader
	MinNumberOfCharacters *int  `json:"minNumberOfCharacters" validate:"omitempty,min=0"`
	IsInputNumerical      *bool `json:"isInputNumerical"`
}

type plainItemWire struct {
	itemHeader
}

// DecodeItem decodes a single item element.
func DecodeItem(data []byte) (models.Item, error) {
	it, err := decodeItem(data)
	if err != nil {
		return nil, wrap("", "", err)
	}
	return it, nil
}

func decodeItem(raw json.RawMessage) (models.Item, error) {
	kind, err := peekKind(raw)
	if err != nil {
		return nil, &DecodeError{Err: err}
	}
	k, err := models.ParseItemKind(kind)
	if err != nil {
		return nil, &DecodeError{Kind: kind, Err: err}
	}
	it, err := decodeItemOfKind(k, raw)
	if err != nil {
		return nil, &DecodeError{Kind: kind, Err: err}
	}
	return it, nil
}

func decodeItemOfKind(k models.ItemKind, raw json.RawMessage) (models.Item, error) {
	switch k {
	case models.KindSlider:
		var w sliderWire
		if err := decodeInto(raw, &w); err != nil {
			return nil, err
		}
		it := &models.SliderItem{
			ItemBase:        w.base(),
			IsContinuous:    boolOr(w.IsContinuous, true),
			ShowSliderValue: boolOr(w.ShowSliderValue, true),
		}
		for i, s := range w.Steps {
			c, err := parseOptionalColor(s.Color)
			if err != nil {
				return nil, fmt.Errorf("steps[%d]: %w", i, err)
			}
			it.Steps = append(it.Steps, models.SliderStep{Value: *s.Value, Label: s.Label, Color: c})
		}
		return it, nil

	case models.KindMultipleChoice:
		var w multipleChoiceWire
		if err := decodeInto(raw, &w); err != nil {
			return nil, err
		}
		it := &models.MultipleChoiceItem{
			ItemBase:              w.base(),
			MinNumberOfSelections: intOr(w.MinNumberOfSelections, models.DefaultMinNumberOfSelections),
			MaxNumberOfSelections: intOr(w.MaxNumberOfSelections, models.UnboundedSelections),
			IsAscendingOrder:      w.IsAscendingOrder,
		}
		if it.MaxNumberOfSelections < it.MinNumberOfSelections {
			return nil, invalidf("maxNumberOfSelections %d is below minNumberOfSelections %d", it.MaxNumberOfSelections, it.MinNumberOfSelections)
		}
		seen := make(map[int]struct{}, len(w.Options))
		for i, o := range w.Options {
			if _, dup := seen[*o.Identifier]; dup {
				return nil, invalidf("options[%d]: duplicate option identifier %d", i, *o.Identifier)
			}
			seen[*o.Identifier] = struct{}{}
			c, err := parseOptionalColor(o.Color)
			if err != nil {
				return nil, fmt.Errorf("options[%d]: %w", i, err)
			}
			it.Options = append(it.Options, models.ChoiceOption{Identifier: *o.Identifier, Label: o.Label, Color: c})
		}
		return it, nil

	case models.KindText:
		var w textWire
		if err := decodeInto(raw, &w); err != nil {
			return nil, err
		}
		return &models.TextItem{
			ItemBase:              w.base(),
			MinNumberOfCharacters: intOr(w.MinNumberOfCharacters, models.DefaultMinNumberOfCharacters),
			IsInputNumerical:      boolOr(w.IsInputNumerical, false),
		}, nil

	case models.KindLocationPicker:
		var w plainItemWire
		if err := decodeInto(raw, &w); err != nil {
			return nil, err
		}
		return &models.LocationPickerItem{ItemBase: w.base()}, nil

	case models.KindNumber:
		var w plainItemWire
		if err := decodeInto(raw, &w); err != nil {
			return nil, err
		}
		return &models.NumberItem{ItemBase: w.base()}, nil
	}
	return nil, fmt.Errorf("%w: %q", models.ErrUnknownKind, k)
}

func (h itemHeader) base() models.ItemBase {
	id := h.Identifier
	if id == "" {
		id = uuid.NewString()
	}
	return models.ItemBase{
		Identifier:  id,
		Question:    h.Question,
		Description: h.Description,
		IsMandatory: boolOr(h.IsMandatory, true),
	}
}

// EncodeItem encodes a single item.
func EncodeItem(it models.Item) ([]byte, error) {
	w, err := itemWire(it)
	if err != nil {
		return nil, err
	}
	return json.Marshal(w)
}

func itemWire(it models.Item) (any, error) {
	switch v := it.(type) {
	case *models.SliderItem:
		if v == nil {
			break
		}
		w := sliderWire{
			itemHeader:      header(v.Kind(), v.ItemBase),
			Steps:           make([]stepWire, 0, len(v.Steps)),
			IsContinuous:    &v.IsContinuous,
			ShowSliderValue: &v.ShowSliderValue,
		}
		for _, s := range v.Steps {
			w.Steps = append(w.Steps, stepWire{Value: models.Float(s.Value), Label: s.Label, Color: colorString(s.Color)})
		}
		return w, nil

	case *models.MultipleChoiceItem:
		if v == nil {
			break
		}
		w := multipleChoiceWire{
			itemHeader:            header(v.Kind(), v.ItemBase),
			Options:               make([]optionWire, 0, len(v.Options)),
			MinNumberOfSelections: intPtr(v.MinNumberOfSelections),
			IsAscendingOrder:      v.IsAscendingOrder,
		}
		if v.MaxNumberOfSelections != models.UnboundedSelections {
			w.MaxNumberOfSelections = intPtr(v.MaxNumberOfSelections)
		}
		for _, o := range v.Options {
			w.Options = append(w.Options, optionWire{Identifier: intPtr(o.Identifier), Label: o.Label, Color: colorString(o.Color)})
		}
		return w, nil

	case *models.TextItem:
		if v == nil {
			break
		}
		return textWire{
			itemHeader:            header(v.Kind(), v.ItemBase),
			MinNumberOfCharacters: intPtr(v.MinNumberOfCharacters),
			IsInputNumerical:      &v.IsInputNumerical,
		}, nil

	case *models.LocationPickerItem:
		if v == nil {
			break
		}
		return plainItemWire{itemHeader: header(v.Kind(), v.ItemBase)}, nil

	case *models.NumberItem:
		if v == nil {
			break
		}
		return plainItemWire{itemHeader: header(v.Kind(), v.ItemBase)}, nil
	}
	return nil, fmt.Errorf("encode item: %w: %T", models.ErrUnknownKind, it)
}

func header(k models.ItemKind, b models.ItemBase) itemHeader {
	mandatory := b.IsMandatory
	return itemHeader{
		Type:        k,
		Identifier:  b.Identifier,
		Question:    b.Question,
		Description: b.Description,
		IsMandatory: &mandatory,
	}
}

func parseOptionalColor(s string) (*models.Color, error) {
	if s == "" {
		return nil, nil
	}
	c, err := models.ParseColor(s)
	if err != nil {
		return nil, invalid(err)
	}
	return &c, nil
}

func colorString(c *models.Color) string {
	if c == nil {
		return ""
	}
	return c.Hex()
}

func boolOr(p *bool, def bool) bool {
	if p == nil {
		return def
	}
	return *p
}

func intOr(p *int, def int) int {
	if p == nil {
		return def
	}
	return *p
}

func intPtr(v int) *int { return &v }
