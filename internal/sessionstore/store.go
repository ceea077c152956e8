// Package sessionstore persists live survey sessions between requests.
package sessionstore

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/coffee-research/coffee/internal/codec"
	"github.com/coffee-research/coffee/internal/models"
	"github.com/coffee-research/coffee/internal/services"
)

const DefaultTTL = 24 * time.Hour

// Record is the persisted state of one live session.
type Record struct {
	SessionID string
	SurveyID  string
	Snapshot  services.SessionSnapshot
	UpdatedAt time.Time

	// Set once the completed submission has been recorded.
	SubmissionID string
	Receipt      string
}

type Store interface {
	Get(ctx context.Context, sessionID string) (Record, bool, error)
	Set(ctx context.Context, rec Record) error
	Delete(ctx context.Context, sessionID string) error
}

type recordWire struct {
	SessionID  string                     `json:"session_id"`
	SurveyID   string                     `json:"survey_id"`
	Index      int                        `json:"index"`
	Completed  bool                       `json:"completed"`
	Respondent string                     `json:"respondent,omitempty"`
	Answers    map[string]json.RawMessage `json:"answers"`
	Submission json.RawMessage            `json:"submission,omitempty"`
	UpdatedAt  time.Time                  `json:"updated_at"`

	SubmissionID string `json:"submission_id,omitempty"`
	Receipt      string `json:"receipt,omitempty"`
}

// MarshalRecord encodes rec with answers and submission in their wire form.
func MarshalRecord(rec Record) ([]byte, error) {
	w := recordWire{
		SessionID:  rec.SessionID,
		SurveyID:   rec.SurveyID,
		Index:      rec.Snapshot.Index,
		Completed:  rec.Snapshot.Completed,
		Respondent: rec.Snapshot.Respondent,
		Answers:    make(map[string]json.RawMessage, len(rec.Snapshot.Answers)),
		UpdatedAt:  rec.UpdatedAt,

		SubmissionID: rec.SubmissionID,
		Receipt:      rec.Receipt,
	}
	for id, a := range rec.Snapshot.Answers {
		b, err := codec.EncodeAnswer(a)
		if err != nil {
			return nil, fmt.Errorf("answer %q: %w", id, err)
		}
		w.Answers[id] = b
	}
	if rec.Snapshot.Submission != nil {
		b, err := codec.EncodeSubmission(rec.Snapshot.Submission)
		if err != nil {
			return nil, err
		}
		w.Submission = b
	}
	return json.Marshal(w)
}

func UnmarshalRecord(data []byte) (Record, error) {
	var w recordWire
	if err := json.Unmarshal(data, &w); err != nil {
		return Record{}, err
	}
	rec := Record{
		SessionID: w.SessionID,
		SurveyID:  w.SurveyID,
		UpdatedAt: w.UpdatedAt,

		SubmissionID: w.SubmissionID,
		Receipt:      w.Receipt,
		Snapshot: services.SessionSnapshot{
			Index:      w.Index,
			Completed:  w.Completed,
			Respondent: w.Respondent,
			Answers:    make(map[string]models.Answer, len(w.Answers)),
		},
	}
	for id, raw := range w.Answers {
		a, err := codec.DecodeAnswer(raw)
		if err != nil {
			return Record{}, fmt.Errorf("answer %q: %w", id, err)
		}
		rec.Snapshot.Answers[id] = a
	}
	if len(w.Submission) > 0 {
		sub, err := codec.DecodeSubmission(w.Submission)
		if err != nil {
			return Record{}, err
		}
		rec.Snapshot.Submission = sub
	}
	return rec, nil
}
