package handler

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/FilmThanapol/caloriemate-go/internal/api/http/middleware"
	"github.com/FilmThanapol/caloriemate-go/internal/logger"
	"github.com/FilmThanapol/caloriemate-go/internal/model"
	"github.com/FilmThanapol/caloriemate-go/internal/service"
)

const (
	mealBodyLimit  = 1 << 20  // 1MB
	photoBodyLimit = 10 << 20 // 10MB
)

// Meal handles the meal CRUD and photo endpoints.
type Meal struct {
	service *service.Meal
	logger  *logger.Logger
}

func NewMeal(service *service.Meal, logger *logger.Logger) *Meal {
	return &Meal{service: service, logger: logger}
}

// HandleCreate handles POST /api/meals requests.
func (h *Meal) HandleCreate(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, errorResponse("unauthorized"))
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, mealBodyLimit)

	var draft model.MealDraft
	if err := json.NewDecoder(r.Body).Decode(&draft); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse("invalid request body"))
		return
	}

	meal, err := h.service.CreateMeal(r.Context(), userID, draft)
	if err != nil {
		handleError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, meal)
}

// HandleList handles GET /api/meals requests. The date query parameter
// narrows the list to one day; from and to narrow it to a range.
func (h *Meal) HandleList(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, errorResponse("unauthorized"))
		return
	}

	var (
		meals []model.Meal
		err   error
	)

	q := r.URL.Query()
	switch {
	case q.Get("date") != "":
		meals, err = h.service.ListMealsByDate(r.Context(), userID, q.Get("date"))
	case q.Get("from") != "" || q.Get("to") != "":
		meals, err = h.service.ListMealsByDateRange(r.Context(), userID, q.Get("from"), q.Get("to"))
	default:
		meals, err = h.service.ListMeals(r.Context(), userID)
	}
	if err != nil {
		handleError(w, err)
		return
	}

	if meals == nil {
		meals = []model.Meal{}
	}
	writeJSON(w, http.StatusOK, meals)
}

// HandleGet handles GET /api/meals/{meal_id} requests.
func (h *Meal) HandleGet(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, errorResponse("unauthorized"))
		return
	}

	mealID := chi.URLParam(r, "meal_id")
	if mealID == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse("invalid meal id"))
		return
	}

	meal, err := h.service.GetMeal(r.Context(), userID, mealID)
	if err != nil {
		handleError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, meal)
}

// HandleUpdate handles PATCH /api/meals/{meal_id} requests.
func (h *Meal) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, errorResponse("unauthorized"))
		return
	}

	mealID := chi.URLParam(r, "meal_id")
	if mealID == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse("invalid meal id"))
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, mealBodyLimit)

	var patch model.MealPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse("invalid request body"))
		return
	}

	meal, err := h.service.UpdateMeal(r.Context(), userID, mealID, patch)
	if err != nil {
		handleError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, meal)
}

// HandleDelete handles DELETE /api/meals/{meal_id} requests.
func (h *Meal) HandleDelete(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, errorResponse("unauthorized"))
		return
	}

	mealID := chi.URLParam(r, "meal_id")
	if mealID == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse("invalid meal id"))
		return
	}

	if err := h.service.DeleteMeal(r.Context(), userID, mealID); err != nil {
		handleError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// HandleAttachPhoto handles PUT /api/meals/{meal_id}/photo requests.
// The photo arrives as the photo field of a multipart form.
func (h *Meal) HandleAttachPhoto(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, errorResponse("unauthorized"))
		return
	}

	mealID := chi.URLParam(r, "meal_id")
	if mealID == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse("invalid meal id"))
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, photoBodyLimit)

	file, _, err := r.FormFile("photo")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse("missing photo form field"))
		return
	}
	defer file.Close()

	meal, err := h.service.AttachPhoto(r.Context(), userID, mealID, file)
	if err != nil {
		handleError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, meal)
}

// HandlePhoto handles GET /api/meals/{meal_id}/photo requests, streaming
// the stored photo bytes.
func (h *Meal) HandlePhoto(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, errorResponse("unauthorized"))
		return
	}

	mealID := chi.URLParam(r, "meal_id")
	if mealID == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse("invalid meal id"))
		return
	}

	reader, err := h.service.PhotoStream(r.Context(), userID, mealID)
	if err != nil {
		handleError(w, err)
		return
	}
	defer reader.Close()

	w.Header().Set("Content-Type", "application/octet-stream")
	if _, err := io.Copy(w, reader); err != nil {
		h.logger.Error("Meal handler: failed to stream photo",
			"meal_id", mealID,
			"error", err.Error())
	}
}
