package api

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/coffee-research/coffee/internal/codec"
	"github.com/coffee-research/coffee/internal/middleware"
	"github.com/coffee-research/coffee/internal/services"
	"github.com/coffee-research/coffee/internal/utils"
)

const maxBodyBytes = 1 << 20

type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Path    string `json:"path,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeRaw sends an already encoded JSON document.
func writeRaw(w http.ResponseWriter, status int, b []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(b)
}

func statusFor(code services.ErrorCode) int {
	switch code {
	case services.ErrorInvalid:
		return http.StatusBadRequest
	case services.ErrorUnauthorized:
		return http.StatusUnauthorized
	case services.ErrorForbidden:
		return http.StatusForbidden
	case services.ErrorNotFound:
		return http.StatusNotFound
	case services.ErrorConflict:
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

// writeError maps service, codec and session errors onto HTTP responses.
// Anything unrecognised is logged and reported as an internal error.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	locale := middleware.LocaleFromContext(r.Context())
	var de *codec.DecodeError
	switch {
	case errors.Is(err, services.ErrSurveyClosed):
		writeJSON(w, http.StatusForbidden, errorBody{Error: string(services.ErrorForbidden), Message: utils.T(locale, "survey.closed")})
	case errors.As(err, &de):
		writeJSON(w, http.StatusBadRequest, errorBody{Error: string(services.ErrorInvalid), Message: de.Error(), Path: de.Path})
	case errors.Is(err, services.ErrAnswerMismatch):
		writeJSON(w, http.StatusUnprocessableEntity, errorBody{Error: string(services.ErrorInvalid), Message: err.Error()})
	case errors.Is(err, services.ErrInvalidState):
		writeJSON(w, http.StatusConflict, errorBody{Error: string(services.ErrorConflict), Message: err.Error()})
	default:
		if se, ok := services.AsServiceError(err); ok {
			msg := se.Message
			if msg == "" {
				msg = utils.T(locale, "error."+string(se.Code))
			}
			writeJSON(w, statusFor(se.Code), errorBody{Error: string(se.Code), Message: msg})
			return
		}
		slog.Error("request failed", slog.String("path", r.URL.Path), slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: "internal", Message: utils.T(locale, "error.internal")})
	}
}

// readBody reads a bounded request body. An empty body yields nil.
func readBody(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	b, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		return nil, services.NewInvalidError("request body: " + err.Error())
	}
	return b, nil
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	b, err := readBody(w, r)
	if err != nil {
		return err
	}
	if len(strings.TrimSpace(string(b))) == 0 {
		return nil
	}
	if err := json.Unmarshal(b, dst); err != nil {
		return services.NewInvalidError("invalid json: " + err.Error())
	}
	return nil
}

func shortID(n int) string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:n]
}
