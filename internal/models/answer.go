package models

// Answer is the in-progress value for the item a session is currently showing.
// The set of answer shapes is closed: NumericAnswer, SelectionAnswer, TextAnswer
// and LocationAnswer.
type Answer interface {
	isAnswer()
}

// NumericAnswer backs slider and number items. A nil Value means no value yet.
type NumericAnswer struct {
	Value *float64
}

// SelectionAnswer backs multiple choice items; Selected holds option identifiers
// in selection order.
type SelectionAnswer struct {
	Selected []int
}

type TextAnswer struct {
	Text string
}

// LocationAnswer backs location picker items.
type LocationAnswer struct {
	Coordinates map[Coordinate]float64
}

func (NumericAnswer) isAnswer()   {}
func (SelectionAnswer) isAnswer() {}
func (TextAnswer) isAnswer()      {}
func (LocationAnswer) isAnswer()  {}

// Coordinate names one entry of a location value.
type Coordinate string

const (
	Latitude  Coordinate = "latitude"
	Longitude Coordinate = "longitude"
)

func (c Coordinate) Valid() bool {
	return c == Latitude || c == Longitude
}

// Float returns a pointer to v, for building NumericAnswer literals.
func Float(v float64) *float64 { return &v }

// hasLatLong reports whether m holds exactly a latitude and a longitude.
func hasLatLong(m map[Coordinate]float64) bool {
	if len(m) != 2 {
		return false
	}
	_, lat := m[Latitude]
	_, lon := m[Longitude]
	return lat && lon
}

func cloneInts(in []int) []int {
	if in == nil {
		return nil
	}
	out := make([]int, len(in))
	copy(out, in)
	return out
}

func cloneCoordinates(in map[Coordinate]float64) map[Coordinate]float64 {
	out := make(map[Coordinate]float64, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

// CloneAnswer returns a copy of a that shares no slices or maps with it.
func CloneAnswer(a Answer) Answer {
	switch v := a.(type) {
	case NumericAnswer:
		if v.Value == nil {
			return NumericAnswer{}
		}
		return NumericAnswer{Value: Float(*v.Value)}
	case SelectionAnswer:
		return SelectionAnswer{Selected: cloneInts(v.Selected)}
	case LocationAnswer:
		return LocationAnswer{Coordinates: cloneCoordinates(v.Coordinates)}
	}
	return a
}
