package fixtures

import (
	"testing"

	"github.com/coffee-research/coffee/internal/models"
	"github.com/coffee-research/coffee/internal/services"
)

type surveyStore struct {
	surveys []*services.StoredSurvey
}

func (s *surveyStore) GetSurvey(id string) (*services.StoredSurvey, error) {
	for _, ss := range s.surveys {
		if ss.ID == id {
			return ss, nil
		}
	}
	return nil, nil
}

func (s *surveyStore) AddSurvey(ss *services.StoredSurvey) error {
	s.surveys = append(s.surveys, ss)
	return nil
}

func (s *surveyStore) ListSurveysByOwner(ownerID string) ([]*services.StoredSurvey, error) {
	var out []*services.StoredSurvey
	for _, ss := range s.surveys {
		if ss.OwnerID == ownerID {
			out = append(out, ss)
		}
	}
	return out, nil
}

func TestLoad(t *testing.T) {
	fx, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(fx) != 2 || fx[0].Name != "commute.json" || fx[1].Name != "daily_checkin.json" {
		t.Fatalf("unexpected fixtures %+v", fx)
	}
	for _, f := range fx {
		if err := f.Survey.Validate(); err != nil {
			t.Fatalf("%s: %v", f.Name, err)
		}
	}
	mood, ok := fx[1].Survey.Item("mood")
	if !ok {
		t.Fatalf("mood item missing")
	}
	slider := mood.(*models.SliderItem)
	if slider.IsContinuous || len(slider.Steps) != 5 || !slider.IsColored() {
		t.Fatalf("mood slider %+v", slider)
	}
	mode, _ := fx[0].Survey.Item("mode")
	if !mode.(*models.MultipleChoiceItem).IsSingleChoice() {
		t.Fatalf("mode should be single choice")
	}
}

func TestSeedIsIdempotent(t *testing.T) {
	store := &surveyStore{}
	svc := services.NewSurveyService(store)
	first, err := Seed(svc)
	if err != nil {
		t.Fatalf("Seed: %v", err)
	}
	if len(first) != 2 {
		t.Fatalf("seeded %d, want 2", len(first))
	}
	again, err := Seed(svc)
	if err != nil {
		t.Fatalf("Seed again: %v", err)
	}
	if len(again) != 0 || len(store.surveys) != 2 {
		t.Fatalf("second seed published %d, store has %d", len(again), len(store.surveys))
	}
}
