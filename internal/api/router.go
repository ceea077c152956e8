package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/coffee-research/coffee/internal/codec"
	"github.com/coffee-research/coffee/internal/middleware"
	"github.com/coffee-research/coffee/internal/services"
	"github.com/coffee-research/coffee/internal/sessionstore"
)

type Router struct {
	store       Store
	surveys     *services.SurveyService
	submissions *services.SubmissionService
	exports     *services.ExportService
	analytics   *services.AnalyticsService
	auth        *services.AuthService
	sessions    *SessionManager
}

// NewRouter wires the services over store. Live sessions are kept in
// sessions; nil selects an in-process store.
func NewRouter(store Store, sessions sessionstore.Store) *Router {
	if sessions == nil {
		sessions = sessionstore.NewMemoryStore(sessionstore.DefaultTTL)
	}
	rt := &Router{
		store:       store,
		surveys:     services.NewSurveyService(store),
		submissions: services.NewSubmissionService(store, middleware.SignReceipt),
		exports:     services.NewExportService(store),
		analytics:   services.NewAnalyticsService(store),
		auth:        services.NewAuthService(store, middleware.SignToken),
	}
	rt.sessions = NewSessionManager(rt.surveys, rt.submissions, sessions)
	return rt
}

func (rt *Router) Surveys() *services.SurveyService { return rt.surveys }

func (rt *Router) Sessions() *SessionManager { return rt.sessions }

func (rt *Router) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/auth/register", rt.handleRegister)
	mux.HandleFunc("POST /api/auth/login", rt.handleLogin)

	mux.Handle("POST /api/surveys", middleware.RequireAuth(http.HandlerFunc(rt.handlePublish)))
	mux.Handle("GET /api/surveys", middleware.RequireAuth(http.HandlerFunc(rt.handleListSurveys)))
	mux.HandleFunc("GET /api/surveys/{id}", rt.handleGetSurvey)
	mux.HandleFunc("POST /api/surveys/{id}/sessions", rt.handleStartSession)
	mux.Handle("GET /api/surveys/{id}/submissions", middleware.RequireAuth(http.HandlerFunc(rt.handleSubmissions)))
	mux.Handle("GET /api/surveys/{id}/export", middleware.RequireAuth(http.HandlerFunc(rt.handleExport)))
	mux.Handle("GET /api/surveys/{id}/analytics", middleware.RequireAuth(http.HandlerFunc(rt.handleAnalytics)))

	mux.HandleFunc("GET /api/sessions/{sid}", rt.handleGetSession)
	mux.HandleFunc("DELETE /api/sessions/{sid}", rt.handleDiscardSession)
	mux.HandleFunc("PUT /api/sessions/{sid}/answer", rt.handleSetAnswer)
	mux.HandleFunc("POST /api/sessions/{sid}/advance", rt.handleAdvance)

	mux.HandleFunc("GET /api/receipts/{token}", rt.handleVerifyReceipt)
}

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

// POST /api/auth/register
func (rt *Router) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req credentials
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	res, err := rt.auth.Register(req.Email, req.Password, req.Name)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

// POST /api/auth/login
func (rt *Router) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req credentials
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	res, err := rt.auth.Login(req.Email, req.Password)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

type surveySummary struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Items     int       `json:"items"`
	CreatedAt time.Time `json:"created_at"`
}

func summarize(ss *services.StoredSurvey) surveySummary {
	return surveySummary{ID: ss.ID, Title: ss.Survey.Title, Items: len(ss.Survey.Items), CreatedAt: ss.CreatedAt}
}

// POST /api/surveys: body is a survey document
func (rt *Router) handlePublish(w http.ResponseWriter, r *http.Request) {
	uid, _ := middleware.UserIDFromContext(r.Context())
	b, err := readBody(w, r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	survey, err := codec.DecodeSurvey(b)
	if err != nil {
		writeError(w, r, err)
		return
	}
	ss, err := rt.surveys.Publish(uid, survey)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, summarize(ss))
}

// GET /api/surveys: surveys owned by the caller
func (rt *Router) handleListSurveys(w http.ResponseWriter, r *http.Request) {
	uid, _ := middleware.UserIDFromContext(r.Context())
	list, err := rt.surveys.ListByOwner(uid)
	if err != nil {
		writeError(w, r, err)
		return
	}
	out := make([]surveySummary, 0, len(list))
	for _, ss := range list {
		out = append(out, summarize(ss))
	}
	writeJSON(w, http.StatusOK, map[string]any{"surveys": out})
}

// GET /api/surveys/{id}
func (rt *Router) handleGetSurvey(w http.ResponseWriter, r *http.Request) {
	ss, err := rt.surveys.Get(r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	b, err := codec.EncodeSurvey(ss.Survey)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeRaw(w, http.StatusOK, b)
}

// POST /api/surveys/{id}/sessions with optional {"respondent": "..."}
func (rt *Router) handleStartSession(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Respondent string `json:"respondent"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	v, err := rt.sessions.Start(r.Context(), r.PathValue("id"), req.Respondent)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, v)
}

// GET /api/sessions/{sid}
func (rt *Router) handleGetSession(w http.ResponseWriter, r *http.Request) {
	v, err := rt.sessions.View(r.Context(), r.PathValue("sid"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

// DELETE /api/sessions/{sid}
func (rt *Router) handleDiscardSession(w http.ResponseWriter, r *http.Request) {
	if err := rt.sessions.Discard(r.Context(), r.PathValue("sid")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// PUT /api/sessions/{sid}/answer with an answer such as {"type": "numeric", "value": 3}
func (rt *Router) handleSetAnswer(w http.ResponseWriter, r *http.Request) {
	b, err := readBody(w, r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	a, err := codec.DecodeAnswer(b)
	if err != nil {
		writeError(w, r, err)
		return
	}
	v, err := rt.sessions.SetAnswer(r.Context(), r.PathValue("sid"), a)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

// POST /api/sessions/{sid}/advance
func (rt *Router) handleAdvance(w http.ResponseWriter, r *http.Request) {
	v, err := rt.sessions.Advance(r.Context(), r.PathValue("sid"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

type storedSubmission struct {
	ID         string          `json:"id"`
	CreatedAt  time.Time       `json:"created_at"`
	Submission json.RawMessage `json:"submission"`
}

// GET /api/surveys/{id}/submissions
func (rt *Router) handleSubmissions(w http.ResponseWriter, r *http.Request) {
	uid, _ := middleware.UserIDFromContext(r.Context())
	subs, err := rt.submissions.List(uid, r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	out := make([]storedSubmission, 0, len(subs))
	for _, s := range subs {
		b, err := codec.EncodeSubmission(&s.Submission)
		if err != nil {
			writeError(w, r, err)
			return
		}
		out = append(out, storedSubmission{ID: s.ID, CreatedAt: s.CreatedAt, Submission: b})
	}
	writeJSON(w, http.StatusOK, map[string]any{"submissions": out})
}

// GET /api/surveys/{id}/export?format=long|wide|items
func (rt *Router) handleExport(w http.ResponseWriter, r *http.Request) {
	uid, _ := middleware.UserIDFromContext(r.Context())
	res, err := rt.exports.ExportCSV(services.ExportParams{
		OwnerID:  uid,
		SurveyID: r.PathValue("id"),
		Format:   r.URL.Query().Get("format"),
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", res.ContentType)
	w.Header().Set("Content-Disposition", "attachment; filename="+res.Filename)
	_, _ = w.Write(res.Data)
}

// GET /api/surveys/{id}/analytics
func (rt *Router) handleAnalytics(w http.ResponseWriter, r *http.Request) {
	uid, _ := middleware.UserIDFromContext(r.Context())
	summary, err := rt.analytics.Summary(uid, r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

// GET /api/receipts/{token}
func (rt *Router) handleVerifyReceipt(w http.ResponseWriter, r *http.Request) {
	subID, surveyID, err := middleware.ParseReceipt(r.PathValue("token"))
	if err != nil {
		slog.Debug("receipt rejected", slog.String("error", err.Error()))
		writeError(w, r, services.NewNotFoundError("unknown receipt"))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"valid": true, "submission_id": subID, "survey_id": surveyID})
}
