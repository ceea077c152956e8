package services

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/coffee-research/coffee/internal/models"
)

type SessionState int

const (
	StateActive SessionState = iota
	StateCompleted
)

func (s SessionState) String() string {
	if s == StateCompleted {
		return "completed"
	}
	return "active"
}

type EventType string

const (
	EventAnswerChanged EventType = "answer_changed"
	EventAdvanced      EventType = "advanced"
	EventCompleted     EventType = "completed"
)

// Event is delivered synchronously to the session listener after each change.
type Event struct {
	Type       EventType
	Index      int
	ItemID     string
	Submission *models.Submission
}

// Session walks a respondent through a survey one item at a time. It is
// forward-only and not safe for concurrent use.
type Session struct {
	survey     *models.Survey
	index      int
	completed  bool
	answers    map[string]models.Answer
	submission *models.Submission
	respondent string

	onComplete func(models.Submission)
	listener   func(Event)
	now        func() time.Time
	logger     *slog.Logger
}

type SessionOption func(*Session)

func WithClock(now func() time.Time) SessionOption {
	return func(s *Session) { s.now = now }
}

func WithListener(fn func(Event)) SessionOption {
	return func(s *Session) { s.listener = fn }
}

// WithRespondent sets the identifier recorded on the submission.
func WithRespondent(id string) SessionOption {
	return func(s *Session) { s.respondent = id }
}

func WithLogger(l *slog.Logger) SessionOption {
	return func(s *Session) { s.logger = l }
}

// NewSession starts a session on the first item of survey. onComplete, if not
// nil, is called exactly once with the submission when the last item is passed.
func NewSession(survey *models.Survey, onComplete func(models.Submission), opts ...SessionOption) (*Session, error) {
	if err := checkSurvey(survey); err != nil {
		return nil, err
	}
	s := newSession(survey, onComplete, opts)
	s.answers[survey.Items[0].Base().Identifier] = survey.Items[0].DefaultAnswer()
	return s, nil
}

func newSession(survey *models.Survey, onComplete func(models.Submission), opts []SessionOption) *Session {
	s := &Session{
		survey:     survey,
		answers:    make(map[string]models.Answer, len(survey.Items)),
		onComplete: onComplete,
		now:        func() time.Time { return time.Now().UTC() },
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func checkSurvey(survey *models.Survey) error {
	if survey == nil {
		return fmt.Errorf("%w: nil survey", ErrInvalidSurvey)
	}
	if err := survey.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidSurvey, err)
	}
	return nil
}

func (s *Session) Survey() *models.Survey { return s.survey }

// Index is the position of the current item. After completion it stays on the
// last item.
func (s *Session) Index() int { return s.index }

func (s *Session) Len() int { return len(s.survey.Items) }

func (s *Session) Respondent() string { return s.respondent }

func (s *Session) State() SessionState {
	if s.completed {
		return StateCompleted
	}
	return StateActive
}

func (s *Session) IsLastItem() bool {
	return !s.completed && s.index == len(s.survey.Items)-1
}

func (s *Session) CurrentItem() (models.Item, error) {
	if s.completed {
		return nil, ErrInvalidState
	}
	return s.survey.Items[s.index], nil
}

// Answer returns a copy of the live answer for the current item.
func (s *Session) Answer() (models.Answer, error) {
	it, err := s.CurrentItem()
	if err != nil {
		return nil, err
	}
	return models.CloneAnswer(s.answers[it.Base().Identifier]), nil
}

// SetAnswer replaces the live answer for the current item.
func (s *Session) SetAnswer(a models.Answer) error {
	it, err := s.CurrentItem()
	if err != nil {
		return err
	}
	if a == nil || !it.Accepts(a) {
		return fmt.Errorf("%w: %T for %s item", ErrAnswerMismatch, a, it.Kind())
	}
	id := it.Base().Identifier
	s.answers[id] = models.CloneAnswer(a)
	s.emit(Event{Type: EventAnswerChanged, Index: s.index, ItemID: id})
	return nil
}

// IsAdvanceAllowed reports whether Advance would move on: optional items can
// always be passed, mandatory ones only with a valid answer.
func (s *Session) IsAdvanceAllowed() bool {
	if s.completed {
		return false
	}
	it := s.survey.Items[s.index]
	if !it.Base().IsMandatory {
		return true
	}
	return it.IsAnswerValid(s.answers[it.Base().Identifier])
}

// Advance moves to the next item, or completes the session on the last one.
// It does nothing when IsAdvanceAllowed is false.
func (s *Session) Advance() error {
	if s.completed {
		return ErrInvalidState
	}
	if !s.IsAdvanceAllowed() {
		return nil
	}
	if s.index < len(s.survey.Items)-1 {
		s.index++
		next := s.survey.Items[s.index]
		s.answers[next.Base().Identifier] = next.DefaultAnswer()
		s.emit(Event{Type: EventAdvanced, Index: s.index, ItemID: next.Base().Identifier})
		return nil
	}
	s.complete()
	return nil
}

func (s *Session) complete() {
	sub := models.Submission{
		Identifier:     s.respondent,
		SubmissionDate: s.now(),
		Responses:      make([]models.Response, 0, len(s.survey.Items)),
	}
	for _, it := range s.survey.Items {
		a, ok := s.answers[it.Base().Identifier]
		if !ok {
			continue
		}
		if r, ok := it.ResponseFor(a); ok {
			sub.Responses = append(sub.Responses, r)
		}
	}
	s.completed = true
	s.submission = &sub
	s.logger.Debug("session completed",
		slog.String("survey", s.survey.Title),
		slog.Int("items", len(s.survey.Items)),
		slog.Int("responses", len(sub.Responses)))
	if s.onComplete != nil {
		s.onComplete(sub)
	}
	s.emit(Event{Type: EventCompleted, Index: s.index, Submission: &sub})
}

// ProgressFraction is (index+1)/N while active and 1 once completed.
func (s *Session) ProgressFraction() float64 {
	if s.completed {
		return 1
	}
	return float64(s.index+1) / float64(len(s.survey.Items))
}

// Submission returns the record built on completion.
func (s *Session) Submission() (models.Submission, bool) {
	if s.submission == nil {
		return models.Submission{}, false
	}
	return *s.submission, true
}

func (s *Session) emit(e Event) {
	if s.listener != nil {
		s.listener(e)
	}
}
