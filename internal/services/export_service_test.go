package services

import (
	"encoding/csv"
	"strings"
	"testing"
)

func readCSV(t *testing.T, data []byte) [][]string {
	t.Helper()
	records, err := csv.NewReader(strings.NewReader(string(data))).ReadAll()
	if err != nil {
		t.Fatalf("parse csv: %v", err)
	}
	return records
}

func TestExportLong(t *testing.T) {
	svc := NewExportService(seededStore())
	res, err := svc.ExportCSV(ExportParams{OwnerID: "u1", SurveyID: "S1"})
	if err != nil {
		t.Fatalf("ExportCSV: %v", err)
	}
	if res.Filename != "long.csv" {
		t.Fatalf("filename=%s", res.Filename)
	}
	records := readCSV(t, res.Data)
	if got := strings.Join(records[0], ","); got != "submission_id,item_id,type,value,submitted_at" {
		t.Fatalf("header=%s", got)
	}
	if len(records) != 1+4+3 {
		t.Fatalf("rows=%d, want 8", len(records))
	}
	want := []string{"sub1", "meal", "multipleChoice", "1|2", "2025-09-01T09:00:00Z"}
	if strings.Join(records[2], ",") != strings.Join(want, ",") {
		t.Fatalf("row=%v, want %v", records[2], want)
	}
	if records[4][3] != "tired, but, fine" {
		t.Fatalf("text cell=%q", records[4][3])
	}
}

func TestExportWide(t *testing.T) {
	svc := NewExportService(seededStore())
	res, err := svc.ExportCSV(ExportParams{OwnerID: "u1", SurveyID: "S1", Format: "wide"})
	if err != nil {
		t.Fatalf("ExportCSV: %v", err)
	}
	records := readCSV(t, res.Data)
	if got := strings.Join(records[0], ","); got != "submission_id,respondent,submitted_at,mood,meal,energy,notes" {
		t.Fatalf("header=%s", got)
	}
	if len(records) != 3 {
		t.Fatalf("rows=%d, want 3", len(records))
	}
	if records[2][0] != "sub2" || records[2][3] != "4" || records[2][6] != "" {
		t.Fatalf("second row=%v", records[2])
	}
}

func TestExportItems(t *testing.T) {
	svc := NewExportService(seededStore())
	res, err := svc.ExportCSV(ExportParams{OwnerID: "u1", SurveyID: "S1", Format: "items"})
	if err != nil {
		t.Fatalf("ExportCSV: %v", err)
	}
	records := readCSV(t, res.Data)
	if len(records) != 5 {
		t.Fatalf("rows=%d, want 5", len(records))
	}
	if records[2][0] != "meal" || records[2][6] != "1=Breakfast | 2=Lunch" {
		t.Fatalf("meal row=%v", records[2])
	}
}

func TestExportErrors(t *testing.T) {
	svc := NewExportService(seededStore())
	_, err := svc.ExportCSV(ExportParams{OwnerID: "u1", SurveyID: "S1", Format: "xml"})
	if se, ok := AsServiceError(err); !ok || se.Code != ErrorInvalid {
		t.Fatalf("err=%v, want invalid", err)
	}
	_, err = svc.ExportCSV(ExportParams{OwnerID: "u2", SurveyID: "S1"})
	if se, ok := AsServiceError(err); !ok || se.Code != ErrorForbidden {
		t.Fatalf("err=%v, want forbidden", err)
	}
}
