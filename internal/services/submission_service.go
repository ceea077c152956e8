package services

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/coffee-research/coffee/internal/models"
)

type SubmissionStore interface {
	SubmissionReader
	// AddSubmission stores s. When s.Exclusive is set it must fail with a
	// conflict error if the respondent already has an exclusive submission
	// for the survey, atomically with the insert.
	AddSubmission(s *StoredSubmission) error
	// HasSubmission reports whether respondent already submitted to surveyID.
	HasSubmission(surveyID, respondent string) (bool, error)
}

// ReceiptSigner issues a token proving that a submission was recorded.
type ReceiptSigner func(submissionID, surveyID string, ttl time.Duration) (string, error)

type SubmissionService struct {
	store       SubmissionStore
	signReceipt ReceiptSigner
	receiptTTL  time.Duration
	now         func() time.Time
	idGenerator func() string
	logger      *slog.Logger
}

// RecordResult is what a respondent gets back for a recorded submission.
type RecordResult struct {
	SubmissionID   string `json:"submission_id"`
	ResponsesCount int    `json:"responses_count"`
	Receipt        string `json:"receipt,omitempty"`
}

func NewSubmissionService(store SubmissionStore, signer ReceiptSigner) *SubmissionService {
	return &SubmissionService{
		store:       store,
		signReceipt: signer,
		receiptTTL:  90 * 24 * time.Hour,
		now:         func() time.Time { return time.Now().UTC() },
		idGenerator: func() string { return "sub" + shortID(12) },
		logger:      slog.Default(),
	}
}

// Record stores a completed submission for surveyID. Submissions carrying a
// respondent identifier are refused when that respondent already submitted
// and the survey does not allow multiple submissions.
func (s *SubmissionService) Record(surveyID string, sub models.Submission) (*RecordResult, error) {
	ss, err := s.store.GetSurvey(surveyID)
	if err != nil {
		return nil, err
	}
	if ss == nil {
		return nil, NewNotFoundError("survey not found")
	}
	if err := checkResponses(ss.Survey, sub.Responses); err != nil {
		return nil, err
	}
	exclusive := sub.Identifier != "" && !ss.Survey.AllowsMultipleSubmissions
	if exclusive {
		dup, err := s.store.HasSubmission(surveyID, sub.Identifier)
		if err != nil {
			return nil, err
		}
		if dup {
			return nil, NewConflictError("respondent already submitted")
		}
	}
	if sub.SubmissionDate.IsZero() {
		sub.SubmissionDate = s.now()
	}
	stored := &StoredSubmission{
		ID:         s.idGenerator(),
		SurveyID:   surveyID,
		Submission: sub,
		Exclusive:  exclusive,
		CreatedAt:  s.now(),
	}
	res := &RecordResult{SubmissionID: stored.ID, ResponsesCount: len(sub.Responses)}
	// the receipt is signed first so a signing failure leaves nothing stored
	if s.signReceipt != nil {
		tok, err := s.signReceipt(stored.ID, surveyID, s.receiptTTL)
		if err != nil {
			return nil, fmt.Errorf("sign receipt: %w", err)
		}
		res.Receipt = tok
	}
	if err := s.store.AddSubmission(stored); err != nil {
		return nil, err
	}
	s.logger.Info("submission recorded",
		slog.String("survey_id", surveyID),
		slog.String("submission_id", stored.ID),
		slog.Int("responses", len(sub.Responses)))
	return res, nil
}

// List returns the submissions of a survey owned by ownerID.
func (s *SubmissionService) List(ownerID, surveyID string) ([]*StoredSubmission, error) {
	if _, err := ownedSurvey(s.store, ownerID, surveyID); err != nil {
		return nil, err
	}
	return s.store.ListSubmissions(surveyID)
}

// checkResponses rejects responses for unknown items, of the wrong kind,
// selecting options the item does not have, or repeated for the same item.
func checkResponses(survey *models.Survey, rs []models.Response) error {
	seen := make(map[string]struct{}, len(rs))
	for _, r := range rs {
		if r == nil {
			return NewInvalidError("nil response")
		}
		it, ok := survey.Item(r.ItemID())
		if !ok {
			return NewInvalidError(fmt.Sprintf("response for unknown item %q", r.ItemID()))
		}
		if it.Kind() != r.Kind() {
			return NewInvalidError(fmt.Sprintf("item %q expects %s, got %s", r.ItemID(), it.Kind(), r.Kind()))
		}
		if mc, ok := r.(models.MultipleChoiceResponse); ok {
			if !it.Accepts(models.SelectionAnswer{Selected: mc.Value}) {
				return NewInvalidError(fmt.Sprintf("item %q: selection %v names unknown or repeated options", r.ItemID(), mc.Value))
			}
		}
		if _, dup := seen[r.ItemID()]; dup {
			return NewInvalidError(fmt.Sprintf("duplicate response for item %q", r.ItemID()))
		}
		seen[r.ItemID()] = struct{}{}
	}
	return nil
}
