package codec

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/coffee-research/coffee/internal/models"
)

type researcherWire struct {
	Name string `json:"name" validate:"required"`
	Mail string `json:"mail" validate:"omitempty,email"`
}

type surveyWire struct {
	Title                     string            `json:"title" validate:"required"`
	Description               string            `json:"description"`
	Researcher                *researcherWire   `json:"researcher,omitempty"`
	AllowsMultipleSubmissions bool              `json:"allowsMultipleSubmissions"`
	StartDate                 *time.Time        `json:"startDate,omitempty"`
	EndDate                   *time.Time        `json:"endDate,omitempty"`
	Color                     string            `json:"color"`
	Reminders                 []json.RawMessage `json:"reminders,omitempty" validate:"-"`
	Items                     []json.RawMessage `json:"items" validate:"-"`
}

type reminderWire struct {
	Type        models.ReminderKind `json:"type"`
	Description string              `json:"description"`
	Date        *time.Time          `json:"date,omitempty" validate:"required_if=Type dateTime"`
	StartTime   *time.Time          `json:"startTime,omitempty"`
	EndTime     *time.Time          `json:"endTime,omitempty"`
	Interval    *int                `json:"interval,omitempty" validate:"required_if=Type interval"`
	Threshold   *int                `json:"threshold,omitempty" validate:"required_if=Type locationChange"`
}

type submissionWire struct {
	Identifier     string            `json:"identifier,omitempty"`
	SubmissionDate *time.Time        `json:"submissionDate" validate:"required"`
	Responses      []json.RawMessage `json:"responses" validate:"-"`
}

// DecodeSurvey decodes a survey document. Any failing element aborts the
// whole decode.
func DecodeSurvey(data []byte) (*models.Survey, error) {
	var w surveyWire
	if err := decodeInto(data, &w); err != nil {
		return nil, &DecodeError{Err: err}
	}
	s := &models.Survey{
		Title:                     w.Title,
		Description:               w.Description,
		AllowsMultipleSubmissions: w.AllowsMultipleSubmissions,
		StartDate:                 w.StartDate,
		EndDate:                   w.EndDate,
		Items:                     make([]models.Item, 0, len(w.Items)),
	}
	if w.Researcher != nil {
		s.Researcher = &models.Researcher{Name: w.Researcher.Name, Mail: w.Researcher.Mail}
	}
	if w.Color != "" {
		c, err := models.ParseColor(w.Color)
		if err != nil {
			return nil, &DecodeError{Path: "color", Err: invalid(err)}
		}
		s.Color = c
	}
	for i, raw := range w.Reminders {
		r, err := decodeReminder(raw)
		if err != nil {
			return nil, wrap(indexPath("reminders", i), "", err)
		}
		s.Reminders = append(s.Reminders, r)
	}
	for i, raw := range w.Items {
		it, err := decodeItem(raw)
		if err != nil {
			return nil, wrap(indexPath("items", i), "", err)
		}
		s.Items = append(s.Items, it)
	}
	return s, nil
}

func decodeReminder(raw json.RawMessage) (models.Reminder, error) {
	kind, err := peekKind(raw)
	if err != nil {
		return models.Reminder{}, &DecodeError{Err: err}
	}
	rk := models.ReminderKind(kind)
	if !rk.Valid() {
		return models.Reminder{}, &DecodeError{Kind: kind, Err: fmt.Errorf("unknown reminder type %q: %w", kind, ErrInvalidField)}
	}
	var w reminderWire
	if err := json.Unmarshal(raw, &w); err != nil {
		return models.Reminder{}, &DecodeError{Kind: kind, Err: invalid(err)}
	}
	w.Type = rk
	if err := validate.Struct(&w); err != nil {
		return models.Reminder{}, &DecodeError{Kind: kind, Err: invalid(err)}
	}
	if w.Interval != nil && *w.Interval < 1 {
		return models.Reminder{}, &DecodeError{Kind: kind, Err: invalidf("interval must be at least one minute")}
	}
	if w.Threshold != nil && *w.Threshold < 0 {
		return models.Reminder{}, &DecodeError{Kind: kind, Err: invalidf("threshold must not be negative")}
	}
	return models.Reminder{
		Kind:        rk,
		Description: w.Description,
		Date:        w.Date,
		StartTime:   w.StartTime,
		EndTime:     w.EndTime,
		Interval:    w.Interval,
		Threshold:   w.Threshold,
	}, nil
}

// EncodeSurvey encodes a survey document, preserving item order.
func EncodeSurvey(s *models.Survey) ([]byte, error) {
	if s == nil {
		return nil, fmt.Errorf("encode survey: nil survey")
	}
	w := surveyWire{
		Title:                     s.Title,
		Description:               s.Description,
		AllowsMultipleSubmissions: s.AllowsMultipleSubmissions,
		StartDate:                 s.StartDate,
		EndDate:                   s.EndDate,
		Color:                     s.Color.Hex(),
		Items:                     make([]json.RawMessage, 0, len(s.Items)),
	}
	if s.Researcher != nil {
		w.Researcher = &researcherWire{Name: s.Researcher.Name, Mail: s.Researcher.Mail}
	}
	for _, r := range s.Reminders {
		b, err := json.Marshal(reminderWire{
			Type:        r.Kind,
			Description: r.Description,
			Date:        r.Date,
			StartTime:   r.StartTime,
			EndTime:     r.EndTime,
			Interval:    r.Interval,
			Threshold:   r.Threshold,
		})
		if err != nil {
			return nil, err
		}
		w.Reminders = append(w.Reminders, b)
	}
	for i, it := range s.Items {
		b, err := EncodeItem(it)
		if err != nil {
			return nil, fmt.Errorf("items[%d]: %w", i, err)
		}
		w.Items = append(w.Items, b)
	}
	return json.Marshal(w)
}

// DecodeSubmission decodes a submission document.
func DecodeSubmission(data []byte) (*models.Submission, error) {
	var w submissionWire
	if err := decodeInto(data, &w); err != nil {
		return nil, &DecodeError{Err: err}
	}
	sub := &models.Submission{
		Identifier:     w.Identifier,
		SubmissionDate: *w.SubmissionDate,
		Responses:      make([]models.Response, 0, len(w.Responses)),
	}
	for i, raw := range w.Responses {
		r, err := decodeResponse(raw)
		if err != nil {
			return nil, wrap(indexPath("responses", i), "", err)
		}
		sub.Responses = append(sub.Responses, r)
	}
	return sub, nil
}

// EncodeSubmission encodes a submission document, preserving response order.
func EncodeSubmission(s *models.Submission) ([]byte, error) {
	if s == nil {
		return nil, fmt.Errorf("encode submission: nil submission")
	}
	date := s.SubmissionDate
	w := submissionWire{
		Identifier:     s.Identifier,
		SubmissionDate: &date,
		Responses:      make([]json.RawMessage, 0, len(s.Responses)),
	}
	for i, r := range s.Responses {
		b, err := EncodeResponse(r)
		if err != nil {
			return nil, fmt.Errorf("responses[%d]: %w", i, err)
		}
		w.Responses = append(w.Responses, b)
	}
	return json.Marshal(w)
}
