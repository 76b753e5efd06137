package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/FilmThanapol/caloriemate-go/internal/logger"
	"github.com/FilmThanapol/caloriemate-go/internal/model"
	"github.com/FilmThanapol/caloriemate-go/internal/service"
)

const authBodyLimit = 1 << 20 // 1MB

// Auth handles registration, login and the refresh-token endpoints.
type Auth struct {
	service *service.Auth
	logger  *logger.Logger
}

func NewAuth(service *service.Auth, logger *logger.Logger) *Auth {
	return &Auth{service: service, logger: logger}
}

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// HandleRegister handles POST /api/auth/register requests.
func (h *Auth) HandleRegister(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, authBodyLimit)

	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse("invalid request body"))
		return
	}

	pair, err := h.service.Register(r.Context(), req.Email, req.Password)
	if err != nil {
		handleError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, pair)
}

// HandleLogin handles POST /api/auth/login requests.
func (h *Auth) HandleLogin(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, authBodyLimit)

	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse("invalid request body"))
		return
	}

	pair, err := h.service.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		handleError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, pair)
}

// HandleRefresh handles POST /api/auth/refresh requests. It rotates the
// presented refresh token.
func (h *Auth) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, authBodyLimit)

	var req refreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.RefreshToken == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse("invalid request body"))
		return
	}

	pair, err := h.service.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		// An unknown JTI means the token is bogus, not that a
		// resource is missing.
		if errors.Is(err, model.ErrNotFound) {
			writeJSON(w, http.StatusUnauthorized, errorResponse("invalid refresh token"))
			return
		}
		handleError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, pair)
}

// HandleLogout handles POST /api/auth/logout requests. It revokes the
// presented refresh token.
func (h *Auth) HandleLogout(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, authBodyLimit)

	var req refreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.RefreshToken == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse("invalid request body"))
		return
	}

	if err := h.service.Logout(r.Context(), req.RefreshToken); err != nil {
		if errors.Is(err, model.ErrNotFound) || errors.Is(err, model.ErrTokenInvalid) {
			// Logging out with a dead token is not an error worth
			// reporting to the client.
			w.WriteHeader(http.StatusNoContent)
			return
		}
		handleError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
