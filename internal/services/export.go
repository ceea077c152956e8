package services

import (
	"bytes"
	"encoding/csv"
	"strconv"
	"strings"

	"github.com/coffee-research/coffee/internal/models"
)

type LongRow struct {
	SubmissionID string
	ItemID       string
	Kind         models.ItemKind
	Value        string
	SubmittedAt  string // RFC3339
}

// WideRow is one submission with its cell values keyed by item identifier.
type WideRow struct {
	SubmissionID string
	Respondent   string
	SubmittedAt  string
	Values       map[string]string
}

// ExportLongCSV renders one row per response.
func ExportLongCSV(rows []LongRow) ([]byte, error) {
	buf := &bytes.Buffer{}
	w := csv.NewWriter(buf)
	_ = w.Write([]string{"submission_id", "item_id", "type", "value", "submitted_at"})
	for _, r := range rows {
		rec := []string{r.SubmissionID, r.ItemID, string(r.Kind), r.Value, r.SubmittedAt}
		if err := w.Write(rec); err != nil {
			return nil, err
		}
	}
	w.Flush()
	return buf.Bytes(), w.Error()
}

// ExportWideCSV renders one row per submission and one column per item, in
// the order of itemIDs. Missing responses are left empty.
func ExportWideCSV(itemIDs []string, rows []WideRow) ([]byte, error) {
	buf := &bytes.Buffer{}
	w := csv.NewWriter(buf)
	header := append([]string{"submission_id", "respondent", "submitted_at"}, itemIDs...)
	_ = w.Write(header)
	for _, r := range rows {
		rec := make([]string, 0, len(header))
		rec = append(rec, r.SubmissionID, r.Respondent, r.SubmittedAt)
		for _, id := range itemIDs {
			rec = append(rec, r.Values[id])
		}
		if err := w.Write(rec); err != nil {
			return nil, err
		}
	}
	w.Flush()
	return buf.Bytes(), w.Error()
}

// ExportItemsCSV renders the survey's item definitions to aid analysis.
func ExportItemsCSV(items []models.Item) ([]byte, error) {
	buf := &bytes.Buffer{}
	w := csv.NewWriter(buf)
	_ = w.Write([]string{"item_id", "position", "type", "mandatory", "question", "description", "details"})
	for i, it := range items {
		b := it.Base()
		rec := []string{
			b.Identifier,
			strconv.Itoa(i + 1),
			string(it.Kind()),
			strconv.FormatBool(b.IsMandatory),
			b.Question,
			b.Description,
			itemDetails(it),
		}
		if err := w.Write(rec); err != nil {
			return nil, err
		}
	}
	w.Flush()
	return buf.Bytes(), w.Error()
}

func itemDetails(it models.Item) string {
	switch v := it.(type) {
	case *models.SliderItem:
		parts := make([]string, 0, len(v.Steps))
		for _, s := range v.Steps {
			p := formatValue(s.Value)
			if s.Label != "" {
				p += "=" + s.Label
			}
			parts = append(parts, p)
		}
		return join(parts)
	case *models.MultipleChoiceItem:
		parts := make([]string, 0, len(v.Options))
		for _, o := range v.Options {
			parts = append(parts, strconv.Itoa(o.Identifier)+"="+o.Label)
		}
		return join(parts)
	case *models.TextItem:
		return "min_characters=" + strconv.Itoa(v.MinNumberOfCharacters)
	}
	return ""
}

// csvValue renders a response value for a single CSV cell.
func csvValue(r models.Response) string {
	switch v := r.(type) {
	case models.SliderResponse:
		return formatValue(v.Value)
	case models.NumberResponse:
		return formatValue(v.Value)
	case models.MultipleChoiceResponse:
		parts := make([]string, len(v.Value))
		for i, id := range v.Value {
			parts[i] = strconv.Itoa(id)
		}
		return strings.Join(parts, "|")
	case models.TextResponse:
		return v.Value
	case models.LocationPickerResponse:
		lat, okLat := v.Value[models.Latitude]
		lon, okLon := v.Value[models.Longitude]
		if !okLat || !okLon {
			return ""
		}
		return formatValue(lat) + ";" + formatValue(lon)
	}
	return ""
}

func formatValue(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// join uses a pipe as a human-friendly separator; csv.Writer quotes if needed.
func join(ss []string) string {
	return strings.Join(ss, " | ")
}
