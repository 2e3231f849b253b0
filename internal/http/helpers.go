package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"saldo/internal/core"
	"saldo/internal/log"
	"saldo/internal/store"
)

// maxBodyBytes bounds JSON request bodies.
const maxBodyBytes = 1 << 20

type errorResponse struct {
	Error string `json:"error"`
}

func respondWithJSON(w http.ResponseWriter, code int, payload any) {
	body, err := json.Marshal(payload)
	if err != nil {
		slog.Error("Failed to encode response", "error", err)
		code = http.StatusInternalServerError
		body = []byte(`{"error":"internal error"}`)
	}
	writeJSON(w, code, body)
}

func writeJSON(w http.ResponseWriter, code int, body []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_, _ = w.Write(body)
}

func respondWithError(w http.ResponseWriter, code int, msg string) {
	respondWithJSON(w, code, errorResponse{Error: msg})
}

// respondWithStoreError maps domain and store errors to a status. Internal
// details are logged, never returned.
func respondWithStoreError(w http.ResponseWriter, r *http.Request, err error) {
	code := statusFor(err)
	if code == http.StatusInternalServerError {
		ctx := r.Context()
		fields := log.NewFields().WithHTTPRequest(r.Method, r.URL.Path, r.URL.RawQuery, r.UserAgent())
		log.NewStructuredLogger(log.FromContext(ctx)).LogError(ctx, "Request failed", err, log.ComponentHTTP, operationFor(r.Method), fields)
		respondWithError(w, code, "internal error")
		return
	}
	respondWithError(w, code, err.Error())
}

func operationFor(method string) string {
	switch method {
	case http.MethodPost:
		return log.OpCreate
	case http.MethodDelete:
		return log.OpDelete
	default:
		return log.OpList
	}
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, store.ErrUnknownAccount), core.IsValidation(err):
		return http.StatusUnprocessableEntity
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// sanitizeInput removes control characters except tab, newline and carriage return.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}
