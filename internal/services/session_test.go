package services

import (
	"errors"
	"testing"
	"time"

	"github.com/coffee-research/coffee/internal/models"
)

var fixedNow = time.Date(2025, 9, 17, 10, 0, 0, 0, time.UTC)

func threeItemSurvey() *models.Survey {
	return &models.Survey{
		Title: "Three",
		Items: []models.Item{
			models.NewSliderItem("A", "Mood", []models.SliderStep{{Value: 0}, {Value: 10}}),
			models.NewMultipleChoiceItem("B", "Meal", []models.ChoiceOption{{Identifier: 1, Label: "x"}, {Identifier: 2, Label: "y"}}),
			models.NewTextItem("C", "Notes"),
		},
	}
}

func TestNewSessionRejectsEmptySurvey(t *testing.T) {
	if _, err := NewSession(&models.Survey{}, nil); !errors.Is(err, ErrInvalidSurvey) {
		t.Fatalf("err=%v, want ErrInvalidSurvey", err)
	}
	if _, err := NewSession(nil, nil); !errors.Is(err, ErrInvalidSurvey) {
		t.Fatalf("nil survey err=%v, want ErrInvalidSurvey", err)
	}
	dup := &models.Survey{Items: []models.Item{models.NewNumberItem("x", "q"), models.NewTextItem("x", "q")}}
	if _, err := NewSession(dup, nil); !errors.Is(err, ErrInvalidSurvey) || !errors.Is(err, models.ErrDuplicateIdentifier) {
		t.Fatalf("duplicate err=%v", err)
	}
}

func TestSessionCompletesWithAllResponses(t *testing.T) {
	var got []models.Submission
	var events []EventType
	s, err := NewSession(threeItemSurvey(), func(sub models.Submission) { got = append(got, sub) },
		WithClock(func() time.Time { return fixedNow }),
		WithRespondent("r-1"),
		WithListener(func(e Event) { events = append(events, e.Type) }))
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}

	// slider default (5) is valid
	if err := s.Advance(); err != nil || s.Index() != 1 {
		t.Fatalf("advance from slider: idx=%d err=%v", s.Index(), err)
	}
	if err := s.SetAnswer(models.SelectionAnswer{Selected: []int{2}}); err != nil {
		t.Fatalf("SetAnswer: %v", err)
	}
	if err := s.Advance(); err != nil || s.Index() != 2 {
		t.Fatalf("advance from choice: idx=%d err=%v", s.Index(), err)
	}
	if !s.IsLastItem() {
		t.Fatalf("expected last item")
	}
	if err := s.SetAnswer(models.TextAnswer{Text: "slept well"}); err != nil {
		t.Fatalf("SetAnswer: %v", err)
	}
	if err := s.Advance(); err != nil {
		t.Fatalf("final advance: %v", err)
	}

	if s.State() != StateCompleted || s.ProgressFraction() != 1 {
		t.Fatalf("state=%v progress=%v", s.State(), s.ProgressFraction())
	}
	if len(got) != 1 {
		t.Fatalf("onComplete called %d times, want 1", len(got))
	}
	sub := got[0]
	if !sub.SubmissionDate.Equal(fixedNow) || sub.Identifier != "r-1" {
		t.Fatalf("submission=%+v", sub)
	}
	wantIDs := []string{"A", "B", "C"}
	if len(sub.Responses) != 3 {
		t.Fatalf("responses=%d, want 3", len(sub.Responses))
	}
	for i, id := range wantIDs {
		if sub.Responses[i].ItemID() != id {
			t.Fatalf("responses[%d]=%s, want %s", i, sub.Responses[i].ItemID(), id)
		}
	}
	if v := sub.Responses[0].(models.SliderResponse).Value; v != 5 {
		t.Fatalf("slider value=%v, want 5", v)
	}
	if stored, ok := s.Submission(); !ok || len(stored.Responses) != 3 {
		t.Fatalf("Submission()=%+v,%v", stored, ok)
	}
	wantEvents := []EventType{EventAdvanced, EventAnswerChanged, EventAdvanced, EventAnswerChanged, EventCompleted}
	if len(events) != len(wantEvents) {
		t.Fatalf("events=%v, want %v", events, wantEvents)
	}
	for i := range wantEvents {
		if events[i] != wantEvents[i] {
			t.Fatalf("events=%v, want %v", events, wantEvents)
		}
	}
}

func TestSessionAfterCompletion(t *testing.T) {
	calls := 0
	s, err := NewSession(&models.Survey{Items: []models.Item{models.NewNumberItem("n", "q")}}, func(models.Submission) { calls++ })
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}
	if err := s.SetAnswer(models.NumericAnswer{Value: models.Float(3)}); err != nil {
		t.Fatalf("SetAnswer: %v", err)
	}
	if err := s.Advance(); err != nil {
		t.Fatalf("Advance: %v", err)
	}
	if err := s.Advance(); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("second Advance err=%v, want ErrInvalidState", err)
	}
	if _, err := s.CurrentItem(); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("CurrentItem err=%v, want ErrInvalidState", err)
	}
	if err := s.SetAnswer(models.NumericAnswer{}); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("SetAnswer err=%v, want ErrInvalidState", err)
	}
	if s.IsAdvanceAllowed() {
		t.Fatalf("advance must not be allowed once completed")
	}
	if calls != 1 {
		t.Fatalf("onComplete calls=%d, want 1", calls)
	}
}

func TestSingleChoiceGating(t *testing.T) {
	mc := models.NewMultipleChoiceItem("mc", "Pick one", []models.ChoiceOption{{Identifier: 1, Label: "a"}, {Identifier: 2, Label: "b"}})
	mc.MaxNumberOfSelections = 1
	s, err := NewSession(&models.Survey{Items: []models.Item{mc, models.NewNumberItem("n", "q")}}, nil)
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}
	cases := []struct {
		sel  []int
		want bool
	}{
		{[]int{}, false},
		{[]int{1}, true},
		{[]int{1, 2}, false},
	}
	for _, c := range cases {
		if err := s.SetAnswer(models.SelectionAnswer{Selected: c.sel}); err != nil {
			t.Fatalf("SetAnswer: %v", err)
		}
		if got := s.IsAdvanceAllowed(); got != c.want {
			t.Fatalf("IsAdvanceAllowed with %v = %v, want %v", c.sel, got, c.want)
		}
	}
}

func TestAdvanceIsNoOpWhenBlocked(t *testing.T) {
	var events int
	s, err := NewSession(threeItemSurvey(), nil, WithListener(func(Event) { events++ }))
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}
	_ = s.Advance()
	before := s.Snapshot()
	// multiple choice starts with no selection
	if s.IsAdvanceAllowed() {
		t.Fatalf("empty selection should block")
	}
	if err := s.Advance(); err != nil {
		t.Fatalf("blocked Advance returned %v", err)
	}
	if s.Index() != before.Index || events != 1 {
		t.Fatalf("blocked Advance changed state: idx=%d events=%d", s.Index(), events)
	}
}

func TestOptionalItemCanBeSkipped(t *testing.T) {
	text := models.NewTextItem("t", "Anything?")
	text.IsMandatory = false
	var sub models.Submission
	s, err := NewSession(&models.Survey{Items: []models.Item{text}}, func(x models.Submission) { sub = x })
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}
	if !s.IsAdvanceAllowed() {
		t.Fatalf("optional item should allow advance")
	}
	if err := s.Advance(); err != nil {
		t.Fatalf("Advance: %v", err)
	}
	if len(sub.Responses) != 0 {
		t.Fatalf("invalid optional answer must be omitted, got %+v", sub.Responses)
	}
}

func TestProgressIsMonotonic(t *testing.T) {
	survey := &models.Survey{Items: []models.Item{
		models.NewNumberItem("a", "q"),
		models.NewNumberItem("b", "q"),
		models.NewNumberItem("c", "q"),
		models.NewNumberItem("d", "q"),
	}}
	s, err := NewSession(survey, nil)
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}
	last := s.ProgressFraction()
	if last != 0.25 {
		t.Fatalf("initial progress=%v, want 0.25", last)
	}
	for i := 0; i < 8; i++ {
		if i%2 == 0 {
			_ = s.SetAnswer(models.NumericAnswer{Value: models.Float(float64(i))})
		}
		prev := s.Index()
		_ = s.Advance()
		if s.State() == StateActive && s.Index() < prev {
			t.Fatalf("index decreased: %d -> %d", prev, s.Index())
		}
		p := s.ProgressFraction()
		if p < last {
			t.Fatalf("progress decreased: %v -> %v", last, p)
		}
		last = p
	}
	if s.State() != StateCompleted {
		t.Fatalf("expected completion")
	}
}

func TestSetAnswerMismatch(t *testing.T) {
	s, err := NewSession(threeItemSurvey(), nil)
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}
	if err := s.SetAnswer(models.TextAnswer{Text: "nope"}); !errors.Is(err, ErrAnswerMismatch) {
		t.Fatalf("err=%v, want ErrAnswerMismatch", err)
	}
	if err := s.SetAnswer(nil); !errors.Is(err, ErrAnswerMismatch) {
		t.Fatalf("nil err=%v, want ErrAnswerMismatch", err)
	}
}

func TestSetAnswerRejectsForeignSelections(t *testing.T) {
	s, err := NewSession(threeItemSurvey(), nil)
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}
	if err := s.Advance(); err != nil {
		t.Fatalf("Advance: %v", err)
	}
	for _, sel := range [][]int{{99}, {1, 99}, {1, 1}} {
		if err := s.SetAnswer(models.SelectionAnswer{Selected: sel}); !errors.Is(err, ErrAnswerMismatch) {
			t.Fatalf("SetAnswer(%v) err=%v, want ErrAnswerMismatch", sel, err)
		}
	}
	if s.IsAdvanceAllowed() {
		t.Fatalf("rejected selections must leave the default answer in place")
	}
	if err := s.SetAnswer(models.SelectionAnswer{Selected: []int{2, 1}}); err != nil {
		t.Fatalf("SetAnswer: %v", err)
	}
	if !s.IsAdvanceAllowed() {
		t.Fatalf("two known options must allow advancing")
	}
}

func TestAdvanceResetsNextAnswer(t *testing.T) {
	s, err := NewSession(threeItemSurvey(), nil)
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}
	_ = s.Advance()
	a, err := s.Answer()
	if err != nil {
		t.Fatalf("Answer: %v", err)
	}
	if sel := a.(models.SelectionAnswer).Selected; len(sel) != 0 {
		t.Fatalf("expected default empty selection, got %v", sel)
	}
}

func TestSnapshotRestore(t *testing.T) {
	survey := threeItemSurvey()
	s, err := NewSession(survey, nil, WithRespondent("r-9"))
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}
	_ = s.Advance()
	_ = s.SetAnswer(models.SelectionAnswer{Selected: []int{1}})
	snap := s.Snapshot()

	calls := 0
	restored, err := RestoreSession(survey, snap, func(models.Submission) { calls++ }, WithClock(func() time.Time { return fixedNow }))
	if err != nil {
		t.Fatalf("RestoreSession: %v", err)
	}
	if restored.Index() != 1 || restored.Respondent() != "r-9" || !restored.IsAdvanceAllowed() {
		t.Fatalf("restored idx=%d respondent=%q", restored.Index(), restored.Respondent())
	}
	_ = restored.Advance()
	_ = restored.SetAnswer(models.TextAnswer{Text: "restored fine"})
	_ = restored.Advance()
	sub, ok := restored.Submission()
	if !ok || calls != 1 || len(sub.Responses) != 3 || sub.Identifier != "r-9" {
		t.Fatalf("submission=%+v ok=%v calls=%d", sub, ok, calls)
	}

	again, err := RestoreSession(survey, restored.Snapshot(), func(models.Submission) { calls++ })
	if err != nil {
		t.Fatalf("restore completed: %v", err)
	}
	if again.State() != StateCompleted || calls != 1 {
		t.Fatalf("restored completed session state=%v calls=%d", again.State(), calls)
	}

	bad := snap
	bad.Index = 7
	if _, err := RestoreSession(survey, bad, nil); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("out of range err=%v, want ErrInvalidState", err)
	}
}
