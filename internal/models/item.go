package models

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
)

// UnboundedSelections is the MaxNumberOfSelections of a multiple choice item
// that accepts any number of selections.
const UnboundedSelections = math.MaxInt

// ErrInvalidItem wraps every structural problem Validate reports.
var ErrInvalidItem = errors.New("invalid item")

const (
	DefaultMinNumberOfSelections = 1
	DefaultMinNumberOfCharacters = 5
)

// Item is one question of a survey. Implementations are limited to the five
// variants in this file; switch on the concrete type to handle each kind.
type Item interface {
	Kind() ItemKind
	Base() ItemBase
	// DefaultAnswer is the live answer installed when the item becomes current.
	DefaultAnswer() Answer
	// Accepts reports whether a has the answer shape this kind works with.
	Accepts(a Answer) bool
	// Validate reports structural problems that would keep the item from
	// surviving an encode and decode round trip.
	Validate() error
	// IsAnswerValid is the kind's validity predicate. It never panics.
	IsAnswerValid(a Answer) bool
	// ResponseFor turns a valid answer into a response; ok is false otherwise.
	ResponseFor(a Answer) (r Response, ok bool)
	isItem()
}

// ItemBase holds the fields every item kind shares.
type ItemBase struct {
	Identifier  string
	Question    string
	Description string
	IsMandatory bool
}

func (b ItemBase) Base() ItemBase { return b }
func (b ItemBase) ID() string     { return b.Identifier }

func (b ItemBase) validate() error {
	if b.Question == "" {
		return invalidItem("question is required")
	}
	return nil
}

func invalidItem(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidItem, fmt.Sprintf(format, args...))
}

// NewItemBase returns a mandatory item base, generating an identifier when id is empty.
func NewItemBase(id, question string) ItemBase {
	if strings.TrimSpace(id) == "" {
		id = uuid.NewString()
	}
	return ItemBase{Identifier: id, Question: question, IsMandatory: true}
}

// SliderStep is one labelled position on a slider.
type SliderStep struct {
	Value float64
	Label string
	Color *Color
}

type SliderItem struct {
	ItemBase
	Steps           []SliderStep
	IsContinuous    bool
	ShowSliderValue bool
}

// NewSliderItem builds a continuous slider that shows its value.
func NewSliderItem(id, question string, steps []SliderStep) *SliderItem {
	return &SliderItem{
		ItemBase:        NewItemBase(id, question),
		Steps:           steps,
		IsContinuous:    true,
		ShowSliderValue: true,
	}
}

// NewDiscreteSliderItem builds a discrete slider with one step per integer in
// [from, to], each labelled with its value.
func NewDiscreteSliderItem(id, question string, from, to int) *SliderItem {
	steps := make([]SliderStep, 0, to-from+1)
	for v := from; v <= to; v++ {
		steps = append(steps, SliderStep{Value: float64(v), Label: strconv.Itoa(v)})
	}
	it := NewSliderItem(id, question, steps)
	it.IsContinuous = false
	it.ShowSliderValue = false
	return it
}

// Range returns the smallest and largest step values.
func (it *SliderItem) Range() (lo, hi float64) {
	if len(it.Steps) == 0 {
		return 0, 0
	}
	lo, hi = it.Steps[0].Value, it.Steps[0].Value
	for _, s := range it.Steps[1:] {
		lo = math.Min(lo, s.Value)
		hi = math.Max(hi, s.Value)
	}
	return lo, hi
}

// IsColored reports whether every step carries a color.
func (it *SliderItem) IsColored() bool {
	if len(it.Steps) == 0 {
		return false
	}
	for _, s := range it.Steps {
		if s.Color == nil {
			return false
		}
	}
	return true
}

func (it *SliderItem) Kind() ItemKind { return KindSlider }

func (it *SliderItem) Validate() error {
	if err := it.validate(); err != nil {
		return err
	}
	if len(it.Steps) < 2 {
		return invalidItem("slider needs at least 2 steps, has %d", len(it.Steps))
	}
	return nil
}

// DefaultAnswer centers continuous sliders and picks the middle step of
// discrete ones.
func (it *SliderItem) DefaultAnswer() Answer {
	if len(it.Steps) == 0 {
		return NumericAnswer{}
	}
	if it.IsContinuous {
		lo, hi := it.Range()
		return NumericAnswer{Value: Float((lo + hi) / 2)}
	}
	return NumericAnswer{Value: Float(it.Steps[(len(it.Steps)-1)/2].Value)}
}

func (it *SliderItem) Accepts(a Answer) bool {
	_, ok := a.(NumericAnswer)
	return ok
}

func (it *SliderItem) IsAnswerValid(a Answer) bool {
	n, ok := a.(NumericAnswer)
	return ok && n.Value != nil
}

func (it *SliderItem) ResponseFor(a Answer) (Response, bool) {
	if !it.IsAnswerValid(a) {
		return nil, false
	}
	return SliderResponse{ItemIdentifier: it.Identifier, Value: *a.(NumericAnswer).Value}, true
}

// ChoiceOption is one selectable option of a multiple choice item.
type ChoiceOption struct {
	Identifier int
	Label      string
	Color      *Color
}

type MultipleChoiceItem struct {
	ItemBase
	Options               []ChoiceOption
	MinNumberOfSelections int
	MaxNumberOfSelections int
	IsAscendingOrder      bool
}

// NewMultipleChoiceItem requires at least one selection and allows any number.
func NewMultipleChoiceItem(id, question string, options []ChoiceOption) *MultipleChoiceItem {
	return &MultipleChoiceItem{
		ItemBase:              NewItemBase(id, question),
		Options:               options,
		MinNumberOfSelections: DefaultMinNumberOfSelections,
		MaxNumberOfSelections: UnboundedSelections,
	}
}

// IsSingleChoice reports whether exactly one option must be picked.
func (it *MultipleChoiceItem) IsSingleChoice() bool {
	return it.MinNumberOfSelections == 1 && it.MaxNumberOfSelections == 1
}

// HasOption reports whether id names one of the item's options.
func (it *MultipleChoiceItem) HasOption(id int) bool {
	for _, o := range it.Options {
		if o.Identifier == id {
			return true
		}
	}
	return false
}

func (it *MultipleChoiceItem) Kind() ItemKind { return KindMultipleChoice }

func (it *MultipleChoiceItem) Validate() error {
	if err := it.validate(); err != nil {
		return err
	}
	if len(it.Options) == 0 {
		return invalidItem("multiple choice needs at least one option")
	}
	if it.MinNumberOfSelections < 0 {
		return invalidItem("minNumberOfSelections %d is negative", it.MinNumberOfSelections)
	}
	if it.MaxNumberOfSelections < 1 {
		return invalidItem("maxNumberOfSelections %d is below 1", it.MaxNumberOfSelections)
	}
	if it.MaxNumberOfSelections < it.MinNumberOfSelections {
		return invalidItem("maxNumberOfSelections %d is below minNumberOfSelections %d", it.MaxNumberOfSelections, it.MinNumberOfSelections)
	}
	seen := make(map[int]struct{}, len(it.Options))
	for i, o := range it.Options {
		if o.Label == "" {
			return invalidItem("options[%d]: label is required", i)
		}
		if _, dup := seen[o.Identifier]; dup {
			return invalidItem("options[%d]: duplicate option identifier %d", i, o.Identifier)
		}
		seen[o.Identifier] = struct{}{}
	}
	return nil
}

func (it *MultipleChoiceItem) DefaultAnswer() Answer {
	return SelectionAnswer{Selected: []int{}}
}

// Accepts requires every selected identifier to name a distinct option.
func (it *MultipleChoiceItem) Accepts(a Answer) bool {
	s, ok := a.(SelectionAnswer)
	if !ok {
		return false
	}
	seen := make(map[int]struct{}, len(s.Selected))
	for _, id := range s.Selected {
		if _, dup := seen[id]; dup || !it.HasOption(id) {
			return false
		}
		seen[id] = struct{}{}
	}
	return true
}

func (it *MultipleChoiceItem) IsAnswerValid(a Answer) bool {
	if !it.Accepts(a) {
		return false
	}
	n := len(a.(SelectionAnswer).Selected)
	return n >= it.MinNumberOfSelections && n <= it.MaxNumberOfSelections
}

func (it *MultipleChoiceItem) ResponseFor(a Answer) (Response, bool) {
	if !it.IsAnswerValid(a) {
		return nil, false
	}
	return MultipleChoiceResponse{ItemIdentifier: it.Identifier, Value: cloneInts(a.(SelectionAnswer).Selected)}, true
}

type TextItem struct {
	ItemBase
	MinNumberOfCharacters int
	IsInputNumerical      bool
}

func NewTextItem(id, question string) *TextItem {
	return &TextItem{
		ItemBase:              NewItemBase(id, question),
		MinNumberOfCharacters: DefaultMinNumberOfCharacters,
	}
}

func (it *TextItem) Kind() ItemKind { return KindText }

func (it *TextItem) Validate() error {
	if err := it.validate(); err != nil {
		return err
	}
	if it.MinNumberOfCharacters < 0 {
		return invalidItem("minNumberOfCharacters %d is negative", it.MinNumberOfCharacters)
	}
	return nil
}

func (it *TextItem) DefaultAnswer() Answer { return TextAnswer{} }

func (it *TextItem) Accepts(a Answer) bool {
	_, ok := a.(TextAnswer)
	return ok
}

// IsAnswerValid requires strictly more than MinNumberOfCharacters characters
// after trimming surrounding whitespace.
func (it *TextItem) IsAnswerValid(a Answer) bool {
	t, ok := a.(TextAnswer)
	if !ok {
		return false
	}
	return utf8.RuneCountInString(strings.TrimSpace(t.Text)) > it.MinNumberOfCharacters
}

func (it *TextItem) ResponseFor(a Answer) (Response, bool) {
	if !it.IsAnswerValid(a) {
		return nil, false
	}
	return TextResponse{ItemIdentifier: it.Identifier, Value: a.(TextAnswer).Text}, true
}

type NumberItem struct {
	ItemBase
}

func NewNumberItem(id, question string) *NumberItem {
	return &NumberItem{ItemBase: NewItemBase(id, question)}
}

func (it *NumberItem) Kind() ItemKind { return KindNumber }

func (it *NumberItem) Validate() error { return it.validate() }

// DefaultAnswer starts without a value; the respondent has to enter one.
func (it *NumberItem) DefaultAnswer() Answer { return NumericAnswer{} }

func (it *NumberItem) Accepts(a Answer) bool {
	_, ok := a.(NumericAnswer)
	return ok
}

func (it *NumberItem) IsAnswerValid(a Answer) bool {
	n, ok := a.(NumericAnswer)
	return ok && n.Value != nil
}

func (it *NumberItem) ResponseFor(a Answer) (Response, bool) {
	if !it.IsAnswerValid(a) {
		return nil, false
	}
	return NumberResponse{ItemIdentifier: it.Identifier, Value: *a.(NumericAnswer).Value}, true
}

type LocationPickerItem struct {
	ItemBase
}

func NewLocationPickerItem(id, question string) *LocationPickerItem {
	return &LocationPickerItem{ItemBase: NewItemBase(id, question)}
}

func (it *LocationPickerItem) Kind() ItemKind { return KindLocationPicker }

func (it *LocationPickerItem) Validate() error { return it.validate() }

func (it *LocationPickerItem) DefaultAnswer() Answer {
	return LocationAnswer{Coordinates: map[Coordinate]float64{}}
}

func (it *LocationPickerItem) Accepts(a Answer) bool {
	_, ok := a.(LocationAnswer)
	return ok
}

func (it *LocationPickerItem) IsAnswerValid(a Answer) bool {
	l, ok := a.(LocationAnswer)
	return ok && hasLatLong(l.Coordinates)
}

func (it *LocationPickerItem) ResponseFor(a Answer) (Response, bool) {
	if !it.IsAnswerValid(a) {
		return nil, false
	}
	return LocationPickerResponse{ItemIdentifier: it.Identifier, Value: cloneCoordinates(a.(LocationAnswer).Coordinates)}, true
}

func (*SliderItem) isItem()         {}
func (*MultipleChoiceItem) isItem() {}
func (*TextItem) isItem()           {}
func (*NumberItem) isItem()         {}
func (*LocationPickerItem) isItem() {}
