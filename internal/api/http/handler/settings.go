package handler

import (
	"encoding/json"
	"net/http"

	"github.com/FilmThanapol/caloriemate-go/internal/api/http/middleware"
	"github.com/FilmThanapol/caloriemate-go/internal/logger"
	"github.com/FilmThanapol/caloriemate-go/internal/model"
	"github.com/FilmThanapol/caloriemate-go/internal/service"
)

// Settings handles the daily-goal endpoints.
type Settings struct {
	service *service.Settings
	logger  *logger.Logger
}

func NewSettings(service *service.Settings, logger *logger.Logger) *Settings {
	return &Settings{service: service, logger: logger}
}

// HandleGet handles GET /api/settings requests.
func (h *Settings) HandleGet(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, errorResponse("unauthorized"))
		return
	}

	settings, err := h.service.GetSettings(r.Context(), userID)
	if err != nil {
		handleError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, settings)
}

// HandleUpdate handles PATCH /api/settings requests.
func (h *Settings) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, errorResponse("unauthorized"))
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, mealBodyLimit)

	var patch model.SettingsPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse("invalid request body"))
		return
	}

	settings, err := h.service.UpdateSettings(r.Context(), userID, patch)
	if err != nil {
		handleError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, settings)
}
