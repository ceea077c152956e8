package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/coffee-research/coffee/internal/codec"
	"github.com/coffee-research/coffee/internal/models"
	"github.com/coffee-research/coffee/internal/services"
	"github.com/coffee-research/coffee/internal/sessionstore"
)

// SessionView is the JSON shape of a live session returned to respondents.
type SessionView struct {
	SessionID      string          `json:"session_id"`
	SurveyID       string          `json:"survey_id"`
	State          string          `json:"state"`
	Index          int             `json:"index"`
	Total          int             `json:"total"`
	Progress       float64         `json:"progress"`
	Kind           string          `json:"kind,omitempty"`
	Item           json.RawMessage `json:"item,omitempty"`
	Answer         json.RawMessage `json:"answer,omitempty"`
	AdvanceAllowed bool            `json:"advance_allowed"`
	LastItem       bool            `json:"last_item"`
	Completed      bool            `json:"completed"`
	SubmissionID   string          `json:"submission_id,omitempty"`
	Receipt        string          `json:"receipt,omitempty"`
}

type liveSession struct {
	mu       sync.Mutex
	id       string
	surveyID string
	session  *services.Session

	// written by the completion callback
	result    *services.RecordResult
	recordErr error

	// guarded by SessionManager.mu
	lastUsed time.Time
}

// SessionManager owns the live sessions behind the HTTP API. Each session is
// guarded by its own mutex and written to the session store after every
// change, so any instance sharing the store can pick it up again. Sessions
// leave memory once completed or after idleTTL without a request.
type SessionManager struct {
	surveys     *services.SurveyService
	submissions *services.SubmissionService
	store       sessionstore.Store
	now         func() time.Time
	idGenerator func() string
	idleTTL     time.Duration
	logger      *slog.Logger

	mu   sync.Mutex
	live map[string]*liveSession
}

func NewSessionManager(surveys *services.SurveyService, submissions *services.SubmissionService, store sessionstore.Store) *SessionManager {
	return &SessionManager{
		surveys:     surveys,
		submissions: submissions,
		store:       store,
		now:         func() time.Time { return time.Now().UTC() },
		idGenerator: func() string { return "ses" + shortID(16) },
		idleTTL:     sessionstore.DefaultTTL,
		logger:      slog.Default(),
		live:        map[string]*liveSession{},
	}
}

// SetIdleTTL sets how long a session stays in memory without requests. It
// should match the session store's TTL.
func (m *SessionManager) SetIdleTTL(ttl time.Duration) {
	if ttl <= 0 {
		return
	}
	m.mu.Lock()
	m.idleTTL = ttl
	m.mu.Unlock()
}

// Sweep drops sessions idle for longer than the idle TTL and returns how many
// were dropped. Their persisted state stays with the session store.
func (m *SessionManager) Sweep() int {
	now := m.now()
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for id, ls := range m.live {
		if now.Sub(ls.lastUsed) > m.idleTTL {
			delete(m.live, id)
			n++
		}
	}
	return n
}

// Run sweeps idle sessions every interval until ctx is done.
func (m *SessionManager) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := m.Sweep(); n > 0 {
				m.logger.Debug("idle sessions evicted", slog.Int("count", n))
			}
		}
	}
}

// onComplete records the submission as soon as the session produces it.
func (m *SessionManager) onComplete(ls *liveSession) func(models.Submission) {
	return func(sub models.Submission) {
		ls.result, ls.recordErr = m.submissions.Record(ls.surveyID, sub)
	}
}

// Start opens a new session on an open survey.
func (m *SessionManager) Start(ctx context.Context, surveyID, respondent string) (*SessionView, error) {
	ss, err := m.surveys.Open(surveyID)
	if err != nil {
		return nil, err
	}
	ls := &liveSession{id: m.idGenerator(), surveyID: ss.ID}
	sess, err := services.NewSession(ss.Survey, m.onComplete(ls),
		services.WithRespondent(respondent),
		services.WithLogger(m.logger),
		services.WithClock(m.now),
	)
	if err != nil {
		return nil, err
	}
	ls.session = sess
	if err := m.persist(ctx, ls); err != nil {
		return nil, err
	}
	m.mu.Lock()
	ls.lastUsed = m.now()
	m.live[ls.id] = ls
	m.mu.Unlock()
	m.logger.Info("session started", slog.String("session_id", ls.id), slog.String("survey_id", ss.ID))
	return m.view(ls)
}

func (m *SessionManager) View(ctx context.Context, sessionID string) (*SessionView, error) {
	ls, err := m.lookup(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	ls.mu.Lock()
	defer ls.mu.Unlock()
	return m.view(ls)
}

// SetAnswer replaces the answer for the session's current item.
func (m *SessionManager) SetAnswer(ctx context.Context, sessionID string, a models.Answer) (*SessionView, error) {
	ls, err := m.lookup(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	ls.mu.Lock()
	defer ls.mu.Unlock()
	if err := ls.session.SetAnswer(a); err != nil {
		return nil, err
	}
	if err := m.persist(ctx, ls); err != nil {
		return nil, err
	}
	return m.view(ls)
}

// Advance moves the session on. Passing the last item records the submission;
// if recording fails the session is dropped from memory so the next request
// restores it from the last persisted state, still on the last item. A
// completed session is persisted and then dropped from memory too.
func (m *SessionManager) Advance(ctx context.Context, sessionID string) (*SessionView, error) {
	ls, err := m.lookup(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	ls.mu.Lock()
	defer ls.mu.Unlock()
	if err := ls.session.Advance(); err != nil {
		return nil, err
	}
	if ls.recordErr != nil {
		err := ls.recordErr
		m.forget(ls.id)
		m.logger.Warn("submission not recorded", slog.String("session_id", ls.id), slog.String("error", err.Error()))
		return nil, err
	}
	if err := m.persist(ctx, ls); err != nil {
		return nil, err
	}
	if ls.session.State() == services.StateCompleted {
		m.forget(ls.id)
	}
	return m.view(ls)
}

// Discard removes a session from memory and from the store.
func (m *SessionManager) Discard(ctx context.Context, sessionID string) error {
	m.forget(sessionID)
	return m.store.Delete(ctx, sessionID)
}

func (m *SessionManager) forget(sessionID string) {
	m.mu.Lock()
	delete(m.live, sessionID)
	m.mu.Unlock()
}

// lookup returns the live session, restoring it from the store on a miss or
// when the in-memory copy has been idle past the TTL. Store and survey reads
// happen without holding m.mu.
func (m *SessionManager) lookup(ctx context.Context, sessionID string) (*liveSession, error) {
	now := m.now()
	m.mu.Lock()
	if ls, ok := m.live[sessionID]; ok {
		if now.Sub(ls.lastUsed) <= m.idleTTL {
			ls.lastUsed = now
			m.mu.Unlock()
			return ls, nil
		}
		delete(m.live, sessionID)
	}
	m.mu.Unlock()

	restored, err := m.restore(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	// another request may have restored it meanwhile
	if ls, ok := m.live[sessionID]; ok {
		ls.lastUsed = now
		return ls, nil
	}
	restored.lastUsed = now
	m.live[sessionID] = restored
	return restored, nil
}

func (m *SessionManager) restore(ctx context.Context, sessionID string) (*liveSession, error) {
	rec, ok, err := m.store.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, services.NewNotFoundError("session not found")
	}
	ss, err := m.surveys.Get(rec.SurveyID)
	if err != nil {
		return nil, err
	}
	ls := &liveSession{id: rec.SessionID, surveyID: rec.SurveyID}
	if rec.SubmissionID != "" {
		ls.result = &services.RecordResult{SubmissionID: rec.SubmissionID, Receipt: rec.Receipt}
		if rec.Snapshot.Submission != nil {
			ls.result.ResponsesCount = len(rec.Snapshot.Submission.Responses)
		}
	}
	sess, err := services.RestoreSession(ss.Survey, rec.Snapshot, m.onComplete(ls),
		services.WithLogger(m.logger),
		services.WithClock(m.now),
	)
	if err != nil {
		return nil, err
	}
	ls.session = sess
	m.logger.Debug("session restored", slog.String("session_id", sessionID), slog.Int("index", rec.Snapshot.Index))
	return ls, nil
}

func (m *SessionManager) persist(ctx context.Context, ls *liveSession) error {
	rec := sessionstore.Record{
		SessionID: ls.id,
		SurveyID:  ls.surveyID,
		Snapshot:  ls.session.Snapshot(),
		UpdatedAt: m.now(),
	}
	if ls.result != nil {
		rec.SubmissionID = ls.result.SubmissionID
		rec.Receipt = ls.result.Receipt
	}
	return m.store.Set(ctx, rec)
}

func (m *SessionManager) view(ls *liveSession) (*SessionView, error) {
	s := ls.session
	v := &SessionView{
		SessionID:      ls.id,
		SurveyID:       ls.surveyID,
		State:          s.State().String(),
		Index:          s.Index(),
		Total:          s.Len(),
		Progress:       s.ProgressFraction(),
		AdvanceAllowed: s.IsAdvanceAllowed(),
		LastItem:       s.IsLastItem(),
		Completed:      s.State() == services.StateCompleted,
	}
	if v.Completed {
		if ls.result != nil {
			v.SubmissionID = ls.result.SubmissionID
			v.Receipt = ls.result.Receipt
		}
		return v, nil
	}
	it, err := s.CurrentItem()
	if err != nil {
		return nil, err
	}
	if v.Item, err = codec.EncodeItem(it); err != nil {
		return nil, err
	}
	a, err := s.Answer()
	if err != nil {
		return nil, err
	}
	if v.Answer, err = codec.EncodeAnswer(a); err != nil {
		return nil, err
	}
	v.Kind = it.Kind().String()
	return v, nil
}
