package models

import (
	"fmt"
	"strconv"
	"strings"
)

// Response is a captured answer to one item. The set is closed: one variant per
// item kind, carrying only the fields that are persisted.
type Response interface {
	Kind() ItemKind
	ItemID() string
	// ValueDescription renders the value for humans; it is never persisted.
	ValueDescription() string
	isResponse()
}

type SliderResponse struct {
	ItemIdentifier string
	Value          float64
}

type NumberResponse struct {
	ItemIdentifier string
	Value          float64
}

type MultipleChoiceResponse struct {
	ItemIdentifier string
	Value          []int
}

type TextResponse struct {
	ItemIdentifier string
	Value          string
}

type LocationPickerResponse struct {
	ItemIdentifier string
	Value          map[Coordinate]float64
}

func (SliderResponse) Kind() ItemKind         { return KindSlider }
func (NumberResponse) Kind() ItemKind         { return KindNumber }
func (MultipleChoiceResponse) Kind() ItemKind { return KindMultipleChoice }
func (TextResponse) Kind() ItemKind           { return KindText }
func (LocationPickerResponse) Kind() ItemKind { return KindLocationPicker }

func (r SliderResponse) ItemID() string         { return r.ItemIdentifier }
func (r NumberResponse) ItemID() string         { return r.ItemIdentifier }
func (r MultipleChoiceResponse) ItemID() string { return r.ItemIdentifier }
func (r TextResponse) ItemID() string           { return r.ItemIdentifier }
func (r LocationPickerResponse) ItemID() string { return r.ItemIdentifier }

func (r SliderResponse) ValueDescription() string { return formatFloat(r.Value) }
func (r NumberResponse) ValueDescription() string { return formatFloat(r.Value) }

func (r MultipleChoiceResponse) ValueDescription() string {
	parts := make([]string, len(r.Value))
	for i, v := range r.Value {
		parts[i] = strconv.Itoa(v)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

func (r TextResponse) ValueDescription() string { return r.Value }

func (r LocationPickerResponse) ValueDescription() string {
	lon, okLon := r.Value[Longitude]
	lat, okLat := r.Value[Latitude]
	if !okLon || !okLat {
		return "No value"
	}
	return fmt.Sprintf("Longitude: %s; Latitude: %s", formatFloat(lon), formatFloat(lat))
}

func (SliderResponse) isResponse()         {}
func (NumberResponse) isResponse()         {}
func (MultipleChoiceResponse) isResponse() {}
func (TextResponse) isResponse()           {}
func (LocationPickerResponse) isResponse() {}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
