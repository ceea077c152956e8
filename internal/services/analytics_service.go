package services

import (
	"math"
	"sort"

	"github.com/coffee-research/coffee/internal/models"
)

type AnalyticsService struct {
	store SubmissionReader
}

type OptionCount struct {
	Option int    `json:"option"`
	Label  string `json:"label"`
	Count  int    `json:"count"`
}

type AnalyticsItem struct {
	ID       string          `json:"id"`
	Kind     models.ItemKind `json:"type"`
	Question string          `json:"question"`
	Total    int             `json:"total"`
	Mean     *float64        `json:"mean,omitempty"`
	Min      *float64        `json:"min,omitempty"`
	Max      *float64        `json:"max,omitempty"`
	Options  []OptionCount   `json:"options,omitempty"`
}

type AnalyticsTimeseries struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}

type AnalyticsSummary struct {
	SurveyID         string                `json:"survey_id"`
	TotalSubmissions int                   `json:"total_submissions"`
	Items            []AnalyticsItem       `json:"items"`
	Timeseries       []AnalyticsTimeseries `json:"timeseries"`
	Alpha            float64               `json:"alpha"`
	N                int                   `json:"n"`
}

func NewAnalyticsService(store SubmissionReader) *AnalyticsService {
	return &AnalyticsService{store: store}
}

func (s *AnalyticsService) Summary(ownerID, surveyID string) (*AnalyticsSummary, error) {
	ss, err := ownedSurvey(s.store, ownerID, surveyID)
	if err != nil {
		return nil, err
	}
	subs, err := s.store.ListSubmissions(surveyID)
	if err != nil {
		return nil, err
	}
	items, countsByDay := buildAnalyticsItems(ss.Survey.Items, subs)
	matrix, n := buildAlphaMatrix(numericItems(ss.Survey.Items), subs)
	return &AnalyticsSummary{
		SurveyID:         surveyID,
		TotalSubmissions: len(subs),
		Items:            items,
		Timeseries:       buildTimeseries(countsByDay),
		Alpha:            CronbachAlpha(matrix),
		N:                n,
	}, nil
}

// Alpha computes Cronbach's alpha over the survey's slider and number items.
func (s *AnalyticsService) Alpha(ownerID, surveyID string) (float64, int, error) {
	ss, err := ownedSurvey(s.store, ownerID, surveyID)
	if err != nil {
		return 0, 0, err
	}
	subs, err := s.store.ListSubmissions(surveyID)
	if err != nil {
		return 0, 0, err
	}
	matrix, n := buildAlphaMatrix(numericItems(ss.Survey.Items), subs)
	return CronbachAlpha(matrix), n, nil
}

func numericItems(items []models.Item) []string {
	ids := make([]string, 0, len(items))
	for _, it := range items {
		switch it.Kind() {
		case models.KindSlider, models.KindNumber:
			ids = append(ids, it.Base().Identifier)
		}
	}
	return ids
}

func buildAnalyticsItems(items []models.Item, subs []*StoredSubmission) ([]AnalyticsItem, map[string]int) {
	itemIndex := make(map[string]int, len(items))
	out := make([]AnalyticsItem, 0, len(items))
	optionIndex := make([]map[int]int, len(items))
	for i, it := range items {
		ai := AnalyticsItem{ID: it.Base().Identifier, Kind: it.Kind(), Question: it.Base().Question}
		if mc, ok := it.(*models.MultipleChoiceItem); ok {
			optionIndex[i] = make(map[int]int, len(mc.Options))
			for j, o := range mc.Options {
				ai.Options = append(ai.Options, OptionCount{Option: o.Identifier, Label: o.Label})
				optionIndex[i][o.Identifier] = j
			}
		}
		out = append(out, ai)
		itemIndex[ai.ID] = i
	}
	sums := make([]float64, len(items))
	countsByDay := map[string]int{}
	for _, sub := range subs {
		countsByDay[sub.Submission.SubmissionDate.UTC().Format("2006-01-02")]++
		for _, r := range sub.Submission.Responses {
			idx, ok := itemIndex[r.ItemID()]
			if !ok {
				continue
			}
			ai := &out[idx]
			ai.Total++
			switch v := r.(type) {
			case models.SliderResponse:
				addNumeric(ai, &sums[idx], v.Value)
			case models.NumberResponse:
				addNumeric(ai, &sums[idx], v.Value)
			case models.MultipleChoiceResponse:
				for _, sel := range v.Value {
					if j, ok := optionIndex[idx][sel]; ok {
						ai.Options[j].Count++
					}
				}
			}
		}
	}
	for i := range out {
		if out[i].Min != nil && out[i].Total > 0 {
			mean := sums[i] / float64(out[i].Total)
			out[i].Mean = &mean
		}
	}
	return out, countsByDay
}

func addNumeric(ai *AnalyticsItem, sum *float64, v float64) {
	*sum += v
	if ai.Min == nil {
		lo, hi := v, v
		ai.Min, ai.Max = &lo, &hi
		return
	}
	*ai.Min = math.Min(*ai.Min, v)
	*ai.Max = math.Max(*ai.Max, v)
}

// buildAlphaMatrix keeps submissions that answered every item in ids.
func buildAlphaMatrix(ids []string, subs []*StoredSubmission) ([][]float64, int) {
	matrix := make([][]float64, 0, len(subs))
	for _, sub := range subs {
		values := map[string]float64{}
		for _, r := range sub.Submission.Responses {
			switch v := r.(type) {
			case models.SliderResponse:
				values[v.ItemIdentifier] = v.Value
			case models.NumberResponse:
				values[v.ItemIdentifier] = v.Value
			}
		}
		row := make([]float64, 0, len(ids))
		complete := true
		for _, id := range ids {
			v, ok := values[id]
			if !ok {
				complete = false
				break
			}
			row = append(row, v)
		}
		if complete {
			matrix = append(matrix, row)
		}
	}
	return matrix, len(matrix)
}

func buildTimeseries(counts map[string]int) []AnalyticsTimeseries {
	days := make([]string, 0, len(counts))
	for d := range counts {
		days = append(days, d)
	}
	sort.Strings(days)
	out := make([]AnalyticsTimeseries, 0, len(days))
	for _, d := range days {
		out = append(out, AnalyticsTimeseries{Date: d, Count: counts[d]})
	}
	return out
}
