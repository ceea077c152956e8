package models

import (
	"errors"
	"testing"
	"time"
)

func TestSurveyValidate(t *testing.T) {
	if err := (&Survey{}).Validate(); !errors.Is(err, ErrNoItems) {
		t.Fatalf("empty survey err=%v, want ErrNoItems", err)
	}
	dup := &Survey{Items: []Item{NewTextItem("a", "q"), NewNumberItem("a", "q")}}
	if err := dup.Validate(); !errors.Is(err, ErrDuplicateIdentifier) {
		t.Fatalf("duplicate err=%v, want ErrDuplicateIdentifier", err)
	}
	start := time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC)
	end := start.Add(-time.Hour)
	window := &Survey{Items: []Item{NewTextItem("a", "q")}, StartDate: &start, EndDate: &end}
	if err := window.Validate(); !errors.Is(err, ErrInvalidWindow) {
		t.Fatalf("window err=%v, want ErrInvalidWindow", err)
	}
	slider := &Survey{Items: []Item{NewDiscreteSliderItem("s", "q", 1, 1)}}
	if err := slider.Validate(); !errors.Is(err, ErrInvalidItem) {
		t.Fatalf("single step slider err=%v, want ErrInvalidItem", err)
	}
}

func TestSurveyIsOpen(t *testing.T) {
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	end := start.Add(48 * time.Hour)
	s := &Survey{StartDate: &start, EndDate: &end}
	cases := []struct {
		at   time.Time
		want bool
	}{
		{start.Add(-time.Second), false},
		{start, true},
		{start.Add(24 * time.Hour), true},
		{end.Add(time.Second), false},
	}
	for _, c := range cases {
		if got := s.IsOpen(c.at); got != c.want {
			t.Fatalf("IsOpen(%v)=%v, want %v", c.at, got, c.want)
		}
	}
	if !(&Survey{}).IsOpen(start) {
		t.Fatalf("survey without window should always be open")
	}
}

func TestSurveyItemLookup(t *testing.T) {
	s := &Survey{Items: []Item{NewTextItem("a", "q"), NewNumberItem("b", "q")}}
	it, ok := s.Item("b")
	if !ok || it.Kind() != KindNumber {
		t.Fatalf("Item(b)=%v,%v", it, ok)
	}
	if s.Index("b") != 1 || s.Index("zzz") != -1 {
		t.Fatalf("Index mismatch")
	}
}

func TestParseItemKind(t *testing.T) {
	for _, k := range ItemKinds() {
		got, err := ParseItemKind(string(k))
		if err != nil || got != k {
			t.Fatalf("ParseItemKind(%q)=%v,%v", k, got, err)
		}
	}
	if _, err := ParseItemKind("numericScale"); !errors.Is(err, ErrUnknownKind) {
		t.Fatalf("legacy kind err=%v, want ErrUnknownKind", err)
	}
}

func TestParseColor(t *testing.T) {
	for _, in := range []string{"#1A2b3C", "1a2b3c"} {
		c, err := ParseColor(in)
		if err != nil {
			t.Fatalf("ParseColor(%q): %v", in, err)
		}
		if c.Hex() != "#1A2B3C" {
			t.Fatalf("Hex()=%q", c.Hex())
		}
	}
	if _, err := ParseColor("#12345"); err == nil {
		t.Fatalf("expected error for short color")
	}
}
