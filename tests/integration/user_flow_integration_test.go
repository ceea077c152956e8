//go:build integration

package integration_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"testing"
	"time"
)

func baseURL() string {
	if v := os.Getenv("COFFEE_TEST_BASE_URL"); strings.TrimSpace(v) != "" {
		return strings.TrimRight(v, "/")
	}
	return "http://127.0.0.1:18080"
}

const journeySurvey = `{
  "title": "Integration check-in",
  "allowsMultipleSubmissions": true,
  "items": [
    {"type": "slider", "identifier": "mood", "question": "Mood?", "isContinuous": false,
     "steps": [{"value": 1, "label": "low"}, {"value": 2, "label": "mid"}, {"value": 3, "label": "high"}]},
    {"type": "multipleChoice", "identifier": "drink", "question": "Drink?", "maxNumberOfSelections": 1,
     "options": [{"identifier": 1, "label": "Coffee"}, {"identifier": 2, "label": "Tea"}]},
    {"type": "text", "identifier": "why", "question": "Why?"}
  ]
}`

type sessionView struct {
	SessionID      string `json:"session_id"`
	Index          int    `json:"index"`
	AdvanceAllowed bool   `json:"advance_allowed"`
	Completed      bool   `json:"completed"`
	SubmissionID   string `json:"submission_id"`
	Receipt        string `json:"receipt"`
}

func TestSurveyJourneyIntegration(t *testing.T) {
	client := &http.Client{Timeout: 5 * time.Second}
	base := baseURL()

	email := fmt.Sprintf("integration_%d@example.com", time.Now().UnixNano())
	password := "Secret123!"

	var registerResp struct {
		Token  string `json:"token"`
		UserID string `json:"user_id"`
	}
	do(t, client, http.MethodPost, base+"/api/auth/register", "", map[string]string{
		"email": email, "password": password, "name": "Integration",
	}, &registerResp)
	if registerResp.Token == "" || registerResp.UserID == "" {
		t.Fatalf("unexpected register response: %+v", registerResp)
	}

	var loginResp struct {
		Token string `json:"token"`
	}
	do(t, client, http.MethodPost, base+"/api/auth/login", "", map[string]string{
		"email": email, "password": password,
	}, &loginResp)
	token := loginResp.Token
	if token == "" {
		t.Fatalf("login did not return token")
	}

	var published struct {
		ID string `json:"id"`
	}
	do(t, client, http.MethodPost, base+"/api/surveys", token, json.RawMessage(journeySurvey), &published)
	if published.ID == "" {
		t.Fatalf("expected survey id in response")
	}

	var v sessionView
	do(t, client, http.MethodPost, base+"/api/surveys/"+published.ID+"/sessions", "", map[string]string{"respondent": "integration"}, &v)
	sid := v.SessionID
	if sid == "" || v.Index != 0 {
		t.Fatalf("unexpected session: %+v", v)
	}

	do(t, client, http.MethodPost, base+"/api/sessions/"+sid+"/advance", "", nil, &v)
	if v.Index != 1 || v.AdvanceAllowed {
		t.Fatalf("multiple choice should block until answered: %+v", v)
	}
	do(t, client, http.MethodPut, base+"/api/sessions/"+sid+"/answer", "", map[string]any{"type": "selection", "value": []int{1}}, &v)
	do(t, client, http.MethodPost, base+"/api/sessions/"+sid+"/advance", "", nil, &v)
	do(t, client, http.MethodPut, base+"/api/sessions/"+sid+"/answer", "", map[string]any{"type": "text", "value": "it is morning"}, &v)
	do(t, client, http.MethodPost, base+"/api/sessions/"+sid+"/advance", "", nil, &v)
	if !v.Completed || v.SubmissionID == "" || v.Receipt == "" {
		t.Fatalf("expected completed session with receipt: %+v", v)
	}

	var receipt struct {
		SurveyID string `json:"survey_id"`
	}
	do(t, client, http.MethodGet, base+"/api/receipts/"+v.Receipt, "", nil, &receipt)
	if receipt.SurveyID != published.ID {
		t.Fatalf("receipt for wrong survey: %+v", receipt)
	}

	var summary struct {
		TotalSubmissions int `json:"total_submissions"`
	}
	do(t, client, http.MethodGet, base+"/api/surveys/"+published.ID+"/analytics", token, nil, &summary)
	if summary.TotalSubmissions != 1 {
		t.Fatalf("expected 1 submission, got %d", summary.TotalSubmissions)
	}
}

func do(t *testing.T, client *http.Client, method, url, token string, body any, out any) {
	t.Helper()
	var payload []byte
	if body != nil {
		var err error
		if payload, err = json.Marshal(body); err != nil {
			t.Fatalf("marshal body: %v", err)
		}
	}
	req, err := http.NewRequest(method, url, bytes.NewReader(payload))
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if strings.TrimSpace(token) != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("http %s %s failed: %v", method, url, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		bodyBytes, _ := io.ReadAll(resp.Body)
		t.Fatalf("unexpected status %d for %s: %s", resp.StatusCode, url, string(bodyBytes))
	}
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil && err != io.EOF {
			t.Fatalf("decode response from %s: %v", url, err)
		}
	}
}
