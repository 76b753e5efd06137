package handler

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	servermocks "github.com/FilmThanapol/caloriemate-go/internal/mocks"
	"github.com/FilmThanapol/caloriemate-go/internal/model"
	"github.com/FilmThanapol/caloriemate-go/internal/service"
	"github.com/FilmThanapol/caloriemate-go/internal/testutil"
)

type authHandlerMocks struct {
	userStore    *servermocks.UserStore
	refreshStore *servermocks.RefreshTokenStore
	manager      *servermocks.TokenManager
}

func newAuthHandler() (*Auth, *authHandlerMocks) {
	m := &authHandlerMocks{
		userStore:    &servermocks.UserStore{},
		refreshStore: &servermocks.RefreshTokenStore{},
		manager:      &servermocks.TokenManager{},
	}
	log := testutil.MakeNoopLogger()
	return NewAuth(service.NewAuth(m.userStore, m.refreshStore, m.manager, log), log), m
}

func TestAuth_HandleRegister_BadBody(t *testing.T) {
	h, m := newAuthHandler()

	req := httptest.NewRequest(http.MethodPost, "/api/auth/register", strings.NewReader("{"))
	rec := httptest.NewRecorder()
	h.HandleRegister(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	m.userStore.AssertNotCalled(t, "GetByEmail", mock.Anything, mock.Anything)
}

func TestAuth_HandleRefresh_EmptyToken(t *testing.T) {
	h, _ := newAuthHandler()

	req := httptest.NewRequest(http.MethodPost, "/api/auth/refresh", strings.NewReader(`{}`))
	rec := httptest.NewRecorder()
	h.HandleRefresh(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAuth_HandleRefresh_UnknownToken(t *testing.T) {
	h, m := newAuthHandler()

	m.manager.On("ParseRefreshToken", "stale").Return(uuid.New(), "jti-1", nil).Once()
	m.refreshStore.On("GetByJTI", mock.Anything, "jti-1").
		Return(model.RefreshToken{}, model.ErrNotFound).Once()

	req := httptest.NewRequest(http.MethodPost, "/api/auth/refresh", strings.NewReader(`{"refresh_token":"stale"}`))
	rec := httptest.NewRecorder()
	h.HandleRefresh(rec, req)

	// An unknown token reads as unauthorized, never as a missing resource.
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuth_HandleRefresh_Revoked(t *testing.T) {
	h, m := newAuthHandler()
	now := time.Now()

	m.manager.On("ParseRefreshToken", "revoked").Return(uuid.New(), "jti-1", nil).Once()
	m.refreshStore.On("GetByJTI", mock.Anything, "jti-1").
		Return(model.RefreshToken{JTI: "jti-1", RevokedAt: &now}, nil).Once()

	req := httptest.NewRequest(http.MethodPost, "/api/auth/refresh", strings.NewReader(`{"refresh_token":"revoked"}`))
	rec := httptest.NewRecorder()
	h.HandleRefresh(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	m.refreshStore.AssertNotCalled(t, "RevokeByJTI", mock.Anything, mock.Anything)
}

func TestAuth_HandleLogout_Success(t *testing.T) {
	h, m := newAuthHandler()

	m.manager.On("ParseRefreshToken", "live").Return(uuid.New(), "jti-1", nil).Once()
	m.refreshStore.On("RevokeByJTI", mock.Anything, "jti-1").Return(nil).Once()

	req := httptest.NewRequest(http.MethodPost, "/api/auth/logout", strings.NewReader(`{"refresh_token":"live"}`))
	rec := httptest.NewRecorder()
	h.HandleLogout(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	m.refreshStore.AssertExpectations(t)
}

func TestAuth_HandleLogout_DeadToken(t *testing.T) {
	h, m := newAuthHandler()

	m.manager.On("ParseRefreshToken", "dead").
		Return(uuid.Nil, "", fmt.Errorf("refresh token: %w", model.ErrTokenInvalid)).Once()

	req := httptest.NewRequest(http.MethodPost, "/api/auth/logout", strings.NewReader(`{"refresh_token":"dead"}`))
	rec := httptest.NewRecorder()
	h.HandleLogout(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
}
