package services

import (
	"time"

	"github.com/coffee-research/coffee/internal/models"
)

// StoredSurvey is a published survey together with its owner.
type StoredSurvey struct {
	ID        string
	OwnerID   string
	Survey    *models.Survey
	CreatedAt time.Time
}

// StoredSubmission is a completed submission recorded against a survey.
type StoredSubmission struct {
	ID         string
	SurveyID   string
	Submission models.Submission
	CreatedAt  time.Time

	// Exclusive marks a submission whose respondent may submit to the
	// survey only once.
	Exclusive bool
}

// User is a researcher account that owns surveys.
type User struct {
	ID        string
	Name      string
	Email     string
	PassHash  []byte
	CreatedAt time.Time
}

// SurveyReader is the read side shared by every service working on a survey.
type SurveyReader interface {
	GetSurvey(id string) (*StoredSurvey, error)
}

// SubmissionReader lists what has been recorded for a survey.
type SubmissionReader interface {
	SurveyReader
	ListSubmissions(surveyID string) ([]*StoredSubmission, error)
}

// ownedSurvey loads a survey and checks that ownerID may read its results.
func ownedSurvey(store SurveyReader, ownerID, surveyID string) (*StoredSurvey, error) {
	if surveyID == "" {
		return nil, NewInvalidError("survey id required")
	}
	ss, err := store.GetSurvey(surveyID)
	if err != nil {
		return nil, err
	}
	if ss == nil {
		return nil, NewNotFoundError("survey not found")
	}
	if ss.OwnerID != ownerID {
		return nil, NewForbiddenError("forbidden")
	}
	return ss, nil
}
