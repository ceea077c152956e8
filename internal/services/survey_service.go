package services

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/coffee-research/coffee/internal/models"
)

// ErrSurveyClosed is returned when a survey is opened outside its date window.
var ErrSurveyClosed = &ServiceError{Code: ErrorForbidden, Message: "survey is not open"}

type SurveyStore interface {
	SurveyReader
	AddSurvey(s *StoredSurvey) error
	ListSurveysByOwner(ownerID string) ([]*StoredSurvey, error)
}

type SurveyService struct {
	store       SurveyStore
	now         func() time.Time
	idGenerator func() string
	logger      *slog.Logger
}

func NewSurveyService(store SurveyStore) *SurveyService {
	return &SurveyService{
		store:       store,
		now:         func() time.Time { return time.Now().UTC() },
		idGenerator: func() string { return "s" + shortID(10) },
		logger:      slog.Default(),
	}
}

// Publish validates survey and stores it under ownerID.
func (s *SurveyService) Publish(ownerID string, survey *models.Survey) (*StoredSurvey, error) {
	if survey == nil {
		return nil, NewInvalidError("survey required")
	}
	if strings.TrimSpace(survey.Title) == "" {
		return nil, NewInvalidError("title required")
	}
	if err := survey.Validate(); err != nil {
		return nil, wrapInvalid(fmt.Errorf("%w: %w", ErrInvalidSurvey, err))
	}
	ss := &StoredSurvey{
		ID:        s.idGenerator(),
		OwnerID:   ownerID,
		Survey:    survey,
		CreatedAt: s.now(),
	}
	if err := s.store.AddSurvey(ss); err != nil {
		return nil, err
	}
	s.logger.Info("survey published", slog.String("survey_id", ss.ID), slog.String("owner", ownerID), slog.Int("items", len(survey.Items)))
	return ss, nil
}

func (s *SurveyService) Get(id string) (*StoredSurvey, error) {
	if id == "" {
		return nil, NewInvalidError("survey id required")
	}
	ss, err := s.store.GetSurvey(id)
	if err != nil {
		return nil, err
	}
	if ss == nil {
		return nil, NewNotFoundError("survey not found")
	}
	return ss, nil
}

// Open returns the survey if respondents may currently take it.
func (s *SurveyService) Open(id string) (*StoredSurvey, error) {
	ss, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	if !ss.Survey.IsOpen(s.now()) {
		return nil, ErrSurveyClosed
	}
	return ss, nil
}

func (s *SurveyService) ListByOwner(ownerID string) ([]*StoredSurvey, error) {
	if ownerID == "" {
		return nil, NewUnauthorizedError("unauthorized")
	}
	return s.store.ListSurveysByOwner(ownerID)
}

func shortID(n int) string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:n]
}
