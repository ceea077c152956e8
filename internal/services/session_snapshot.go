package services

import (
	"fmt"

	"github.com/coffee-research/coffee/internal/models"
)

// SessionSnapshot is the persistable state of a session. The survey itself is
// not part of it; restoring needs the same survey.
type SessionSnapshot struct {
	Index      int
	Completed  bool
	Respondent string
	Answers    map[string]models.Answer
	Submission *models.Submission
}

func (s *Session) Snapshot() SessionSnapshot {
	snap := SessionSnapshot{
		Index:      s.index,
		Completed:  s.completed,
		Respondent: s.respondent,
		Answers:    make(map[string]models.Answer, len(s.answers)),
	}
	for id, a := range s.answers {
		snap.Answers[id] = models.CloneAnswer(a)
	}
	if s.submission != nil {
		sub := *s.submission
		snap.Submission = &sub
	}
	return snap
}

// RestoreSession rebuilds a session from a snapshot taken on survey. Options
// are applied after the snapshot, so WithRespondent overrides the stored one.
// A restored completed session does not call onComplete again.
func RestoreSession(survey *models.Survey, snap SessionSnapshot, onComplete func(models.Submission), opts ...SessionOption) (*Session, error) {
	if err := checkSurvey(survey); err != nil {
		return nil, err
	}
	if snap.Index < 0 || snap.Index >= len(survey.Items) {
		return nil, fmt.Errorf("%w: snapshot index %d out of range", ErrInvalidState, snap.Index)
	}
	if snap.Completed && snap.Submission == nil {
		return nil, fmt.Errorf("%w: completed snapshot without submission", ErrInvalidState)
	}
	s := newSession(survey, onComplete, append([]SessionOption{WithRespondent(snap.Respondent)}, opts...))
	for id, a := range snap.Answers {
		it, ok := survey.Item(id)
		if !ok {
			return nil, fmt.Errorf("%w: answer for unknown item %q", ErrInvalidState, id)
		}
		if !it.Accepts(a) {
			return nil, fmt.Errorf("%w: item %q", ErrAnswerMismatch, id)
		}
		s.answers[id] = models.CloneAnswer(a)
	}
	s.index = snap.Index
	s.completed = snap.Completed
	if snap.Submission != nil {
		sub := *snap.Submission
		s.submission = &sub
	}
	current := survey.Items[s.index]
	if _, ok := s.answers[current.Base().Identifier]; !ok && !s.completed {
		s.answers[current.Base().Identifier] = current.DefaultAnswer()
	}
	return s, nil
}
