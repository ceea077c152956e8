package models

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrNoItems             = errors.New("survey has no items")
	ErrDuplicateIdentifier = errors.New("duplicate item identifier")
	ErrInvalidWindow       = errors.New("survey ends before it starts")
)

// Researcher is the contact person shown to respondents.
type Researcher struct {
	Name string
	Mail string
}

type ReminderKind string

const (
	ReminderDateTime       ReminderKind = "dateTime"
	ReminderInterval       ReminderKind = "interval"
	ReminderLocationChange ReminderKind = "locationChange"
)

func (k ReminderKind) Valid() bool {
	switch k {
	case ReminderDateTime, ReminderInterval, ReminderLocationChange:
		return true
	}
	return false
}

// Reminder is a notification hint attached to a survey. Which of the optional
// fields apply depends on Kind: Date for dateTime, StartTime/EndTime/Interval
// (minutes) for interval, Threshold (meters) for locationChange.
type Reminder struct {
	Kind        ReminderKind
	Description string
	Date        *time.Time
	StartTime   *time.Time
	EndTime     *time.Time
	Interval    *int
	Threshold   *int
}

// Survey is an ordered list of items plus presentation metadata.
type Survey struct {
	Title                     string
	Description               string
	Researcher                *Researcher
	AllowsMultipleSubmissions bool
	StartDate                 *time.Time
	EndDate                   *time.Time
	Color                     Color
	Reminders                 []Reminder
	Items                     []Item
}

// Validate checks the invariants a session relies on.
func (s *Survey) Validate() error {
	if len(s.Items) == 0 {
		return ErrNoItems
	}
	seen := make(map[string]struct{}, len(s.Items))
	for i, it := range s.Items {
		if it == nil {
			return fmt.Errorf("item %d is nil", i)
		}
		id := it.Base().Identifier
		if _, dup := seen[id]; dup {
			return fmt.Errorf("%w: %q", ErrDuplicateIdentifier, id)
		}
		seen[id] = struct{}{}
		if err := it.Validate(); err != nil {
			return fmt.Errorf("item %q: %w", id, err)
		}
	}
	if s.StartDate != nil && s.EndDate != nil && s.EndDate.Before(*s.StartDate) {
		return ErrInvalidWindow
	}
	return nil
}

// IsOpen reports whether t falls inside the survey's optional date window.
func (s *Survey) IsOpen(t time.Time) bool {
	if s.StartDate != nil && t.Before(*s.StartDate) {
		return false
	}
	if s.EndDate != nil && t.After(*s.EndDate) {
		return false
	}
	return true
}

// Item returns the item with the given identifier.
func (s *Survey) Item(id string) (Item, bool) {
	for _, it := range s.Items {
		if it != nil && it.Base().Identifier == id {
			return it, true
		}
	}
	return nil, false
}

// Index returns the position of the item with the given identifier, or -1.
func (s *Survey) Index(id string) int {
	for i, it := range s.Items {
		if it != nil && it.Base().Identifier == id {
			return i
		}
	}
	return -1
}
