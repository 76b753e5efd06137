package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/FilmThanapol/caloriemate-go/internal/model"
)

// validationResponse is the 400 body for failed field checks. Fields
// maps field name to reason.
type validationResponse struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields"`
}

// handleError maps domain errors onto HTTP status codes in one place.
func handleError(w http.ResponseWriter, err error) {
	var verr *model.ValidationError
	if errors.As(err, &verr) {
		writeJSON(w, http.StatusBadRequest, validationResponse{
			Error:  "validation failed",
			Fields: verr.Fields,
		})
		return
	}

	switch {
	case errors.Is(err, model.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorResponse("not found"))
	case errors.Is(err, model.ErrEmailTaken):
		writeJSON(w, http.StatusConflict, errorResponse("email already registered"))
	case errors.Is(err, model.ErrInvalidCredentials):
		writeJSON(w, http.StatusUnauthorized, errorResponse("invalid credentials"))
	case errors.Is(err, model.ErrTokenInvalid),
		errors.Is(err, model.ErrTokenRevoked),
		errors.Is(err, model.ErrTokenExpired),
		errors.Is(err, model.ErrTokenMismatch):
		writeJSON(w, http.StatusUnauthorized, errorResponse("invalid refresh token"))
	default:
		writeJSON(w, http.StatusInternalServerError, errorResponse("internal server error"))
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func errorResponse(msg string) map[string]string {
	return map[string]string{"error": msg}
}
