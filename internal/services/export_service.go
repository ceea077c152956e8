package services

import (
	"time"
)

type ExportParams struct {
	OwnerID  string
	SurveyID string
	Format   string
}

type ExportResult struct {
	Filename    string
	ContentType string
	Data        []byte
}

type ExportService struct {
	store SubmissionReader
}

func NewExportService(store SubmissionReader) *ExportService {
	return &ExportService{store: store}
}

// ExportCSV renders a survey's submissions as "long" (default), "wide" or
// the survey's item definitions as "items".
func (s *ExportService) ExportCSV(params ExportParams) (*ExportResult, error) {
	format := params.Format
	if format == "" {
		format = "long"
	}
	ss, err := ownedSurvey(s.store, params.OwnerID, params.SurveyID)
	if err != nil {
		return nil, err
	}
	if format == "items" {
		b, err := ExportItemsCSV(ss.Survey.Items)
		if err != nil {
			return nil, err
		}
		return &ExportResult{Filename: "items.csv", ContentType: "text/csv; charset=utf-8", Data: b}, nil
	}
	subs, err := s.store.ListSubmissions(params.SurveyID)
	if err != nil {
		return nil, err
	}

	switch format {
	case "long":
		b, err := ExportLongCSV(buildLongRows(subs))
		if err != nil {
			return nil, err
		}
		return &ExportResult{Filename: "long.csv", ContentType: "text/csv; charset=utf-8", Data: b}, nil
	case "wide":
		ids := make([]string, 0, len(ss.Survey.Items))
		for _, it := range ss.Survey.Items {
			ids = append(ids, it.Base().Identifier)
		}
		b, err := ExportWideCSV(ids, buildWideRows(subs))
		if err != nil {
			return nil, err
		}
		return &ExportResult{Filename: "wide.csv", ContentType: "text/csv; charset=utf-8", Data: b}, nil
	default:
		return nil, NewInvalidError("unsupported format")
	}
}

func buildLongRows(subs []*StoredSubmission) []LongRow {
	var out []LongRow
	for _, s := range subs {
		at := s.Submission.SubmissionDate.UTC().Format(time.RFC3339)
		for _, r := range s.Submission.Responses {
			out = append(out, LongRow{SubmissionID: s.ID, ItemID: r.ItemID(), Kind: r.Kind(), Value: csvValue(r), SubmittedAt: at})
		}
	}
	return out
}

func buildWideRows(subs []*StoredSubmission) []WideRow {
	out := make([]WideRow, 0, len(subs))
	for _, s := range subs {
		row := WideRow{
			SubmissionID: s.ID,
			Respondent:   s.Submission.Identifier,
			SubmittedAt:  s.Submission.SubmissionDate.UTC().Format(time.RFC3339),
			Values:       make(map[string]string, len(s.Submission.Responses)),
		}
		for _, r := range s.Submission.Responses {
			row.Values[r.ItemID()] = csvValue(r)
		}
		out = append(out, row)
	}
	return out
}
