package services

import (
	"time"

	"github.com/coffee-research/coffee/internal/models"
)

type stubStore struct {
	surveys     map[string]*StoredSurvey
	submissions []*StoredSubmission
}

func newStubStore() *stubStore {
	return &stubStore{surveys: map[string]*StoredSurvey{}}
}

func (s *stubStore) AddSurvey(ss *StoredSurvey) error {
	copy := *ss
	s.surveys[ss.ID] = &copy
	return nil
}

func (s *stubStore) GetSurvey(id string) (*StoredSurvey, error) {
	if ss, ok := s.surveys[id]; ok {
		copy := *ss
		return &copy, nil
	}
	return nil, nil
}

func (s *stubStore) ListSurveysByOwner(ownerID string) ([]*StoredSurvey, error) {
	out := []*StoredSurvey{}
	for _, ss := range s.surveys {
		if ss.OwnerID == ownerID {
			out = append(out, ss)
		}
	}
	return out, nil
}

func (s *stubStore) AddSubmission(sub *StoredSubmission) error {
	for _, prev := range s.submissions {
		if sub.Exclusive && prev.Exclusive && prev.SurveyID == sub.SurveyID && prev.Submission.Identifier == sub.Submission.Identifier {
			return NewConflictError("respondent already submitted")
		}
	}
	copy := *sub
	s.submissions = append(s.submissions, &copy)
	return nil
}

func (s *stubStore) HasSubmission(surveyID, respondent string) (bool, error) {
	for _, sub := range s.submissions {
		if sub.SurveyID == surveyID && sub.Submission.Identifier == respondent {
			return true, nil
		}
	}
	return false, nil
}

func (s *stubStore) ListSubmissions(surveyID string) ([]*StoredSubmission, error) {
	out := []*StoredSubmission{}
	for _, sub := range s.submissions {
		if sub.SurveyID == surveyID {
			out = append(out, sub)
		}
	}
	return out, nil
}

// seededStore holds survey "S1" owned by "u1" with two submissions.
func seededStore() *stubStore {
	store := newStubStore()
	mc := models.NewMultipleChoiceItem("meal", "Meal", []models.ChoiceOption{{Identifier: 1, Label: "Breakfast"}, {Identifier: 2, Label: "Lunch"}})
	store.surveys["S1"] = &StoredSurvey{ID: "S1", OwnerID: "u1", Survey: &models.Survey{
		Title: "Daily",
		Items: []models.Item{
			models.NewDiscreteSliderItem("mood", "Mood", 1, 5),
			mc,
			models.NewNumberItem("energy", "Energy level"),
			models.NewTextItem("notes", "Notes"),
		},
	}}
	day1 := time.Date(2025, 9, 1, 9, 0, 0, 0, time.UTC)
	day2 := day1.Add(24 * time.Hour)
	store.submissions = []*StoredSubmission{
		{ID: "sub1", SurveyID: "S1", Submission: models.Submission{Identifier: "r1", SubmissionDate: day1, Responses: []models.Response{
			models.SliderResponse{ItemIdentifier: "mood", Value: 2},
			models.MultipleChoiceResponse{ItemIdentifier: "meal", Value: []int{1, 2}},
			models.NumberResponse{ItemIdentifier: "energy", Value: 2},
			models.TextResponse{ItemIdentifier: "notes", Value: "tired, but, fine"},
		}}},
		{ID: "sub2", SurveyID: "S1", Submission: models.Submission{SubmissionDate: day2, Responses: []models.Response{
			models.SliderResponse{ItemIdentifier: "mood", Value: 4},
			models.MultipleChoiceResponse{ItemIdentifier: "meal", Value: []int{2}},
			models.NumberResponse{ItemIdentifier: "energy", Value: 4},
		}}},
	}
	return store
}
