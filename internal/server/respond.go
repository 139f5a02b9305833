package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/desertthunder/huddle/internal/shared"
)

func writeJSON(w http.ResponseWriter, code int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(data)
}

func errorBody(msg string) map[string]string {
	return map[string]string{"error": msg}
}

// statusFor maps an error onto its HTTP status.
func statusFor(err error) int {
	switch {
	case errors.Is(err, shared.ErrValidation):
		return http.StatusUnprocessableEntity
	case errors.Is(err, shared.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, shared.ErrAlreadySynced),
		errors.Is(err, shared.ErrMissingArgument),
		errors.Is(err, shared.ErrInvalidArgument):
		return http.StatusBadRequest
	case errors.Is(err, shared.ErrUnauthorized):
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

// writeError renders err. Validation failures become a field map; server errors are
// prefixed with action and passed through so clients see the provider's message.
func (a *API) writeError(w http.ResponseWriter, r *http.Request, action string, err error) {
	var verr *shared.ValidationError
	if errors.As(err, &verr) {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{"errors": verr.Fields})
		return
	}

	status := statusFor(err)
	msg := err.Error()
	if status >= http.StatusInternalServerError {
		a.logger.Error(action, "method", r.Method, "path", r.URL.Path, "err", err)
		if action != "" {
			msg = fmt.Sprintf("%s: %v", action, err)
		}
	}
	writeJSON(w, status, errorBody(msg))
}
