// Package mocks holds testify mocks for the model interfaces, shared by
// the service and transport tests.
package mocks

import (
	"context"
	"io"
	"net"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/FilmThanapol/caloriemate-go/internal/model"
)

type UserStore struct {
	mock.Mock
}

func (m *UserStore) GetByEmail(ctx context.Context, email string) (model.User, error) {
	args := m.Called(ctx, email)
	return args.Get(0).(model.User), args.Error(1)
}

func (m *UserStore) GetByID(ctx context.Context, id uuid.UUID) (model.User, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(model.User), args.Error(1)
}

func (m *UserStore) Create(ctx context.Context, user model.User) (model.User, error) {
	args := m.Called(ctx, user)
	return args.Get(0).(model.User), args.Error(1)
}

type MealStore struct {
	mock.Mock
}

func (m *MealStore) Create(ctx context.Context, userID uuid.UUID, meal model.Meal) (model.Meal, error) {
	args := m.Called(ctx, userID, meal)
	return args.Get(0).(model.Meal), args.Error(1)
}

func (m *MealStore) GetByID(ctx context.Context, userID uuid.UUID, id string) (model.Meal, error) {
	args := m.Called(ctx, userID, id)
	return args.Get(0).(model.Meal), args.Error(1)
}

func (m *MealStore) GetByUserID(ctx context.Context, userID uuid.UUID) ([]model.Meal, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Meal), args.Error(1)
}

func (m *MealStore) GetByUserIDAndDate(ctx context.Context, userID uuid.UUID, date string) ([]model.Meal, error) {
	args := m.Called(ctx, userID, date)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Meal), args.Error(1)
}

func (m *MealStore) GetByUserIDAndDateRange(ctx context.Context, userID uuid.UUID, from, to string) ([]model.Meal, error) {
	args := m.Called(ctx, userID, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Meal), args.Error(1)
}

func (m *MealStore) Update(ctx context.Context, userID uuid.UUID, id string, patch model.MealPatch) (model.Meal, error) {
	args := m.Called(ctx, userID, id, patch)
	return args.Get(0).(model.Meal), args.Error(1)
}

func (m *MealStore) Delete(ctx context.Context, userID uuid.UUID, id string) error {
	args := m.Called(ctx, userID, id)
	return args.Error(0)
}

type SettingsStore struct {
	mock.Mock
}

func (m *SettingsStore) GetByUserID(ctx context.Context, userID uuid.UUID) (model.Settings, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(model.Settings), args.Error(1)
}

func (m *SettingsStore) Save(ctx context.Context, userID uuid.UUID, settings model.Settings) (model.Settings, error) {
	args := m.Called(ctx, userID, settings)
	return args.Get(0).(model.Settings), args.Error(1)
}

type RefreshTokenStore struct {
	mock.Mock
}

func (m *RefreshTokenStore) Create(ctx context.Context, token model.RefreshToken) error {
	args := m.Called(ctx, token)
	return args.Error(0)
}

func (m *RefreshTokenStore) GetByJTI(ctx context.Context, jti string) (model.RefreshToken, error) {
	args := m.Called(ctx, jti)
	return args.Get(0).(model.RefreshToken), args.Error(1)
}

func (m *RefreshTokenStore) RevokeByJTI(ctx context.Context, jti string) error {
	args := m.Called(ctx, jti)
	return args.Error(0)
}

func (m *RefreshTokenStore) RevokeAllByUser(ctx context.Context, userID uuid.UUID) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

type TokenManager struct {
	mock.Mock
}

func (m *TokenManager) GenerateAccessToken(userID uuid.UUID) (string, error) {
	args := m.Called(userID)
	return args.String(0), args.Error(1)
}

func (m *TokenManager) GenerateRefreshToken(userID uuid.UUID) (string, string, error) {
	args := m.Called(userID)
	return args.String(0), args.String(1), args.Error(2)
}

func (m *TokenManager) ParseAccessToken(token string) (uuid.UUID, error) {
	args := m.Called(token)
	return args.Get(0).(uuid.UUID), args.Error(1)
}

func (m *TokenManager) ParseRefreshToken(token string) (uuid.UUID, string, error) {
	args := m.Called(token)
	return args.Get(0).(uuid.UUID), args.String(1), args.Error(2)
}

type Storage struct {
	mock.Mock
}

func (m *Storage) Upload(ctx context.Context, key string, data io.Reader) error {
	args := m.Called(ctx, key, data)
	return args.Error(0)
}

func (m *Storage) Download(ctx context.Context, key string) (io.ReadCloser, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(io.ReadCloser), args.Error(1)
}

func (m *Storage) Delete(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

func (m *Storage) Exists(ctx context.Context, key string) (bool, error) {
	args := m.Called(ctx, key)
	return args.Bool(0), args.Error(1)
}

type Broadcaster struct {
	mock.Mock
}

func (m *Broadcaster) Broadcast(userID uuid.UUID, event model.Event) {
	m.Called(userID, event)
}

type SecurityLayer struct {
	mock.Mock
}

func (m *SecurityLayer) Listen(protocol, addr string) (net.Listener, error) {
	args := m.Called(protocol, addr)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(net.Listener), args.Error(1)
}
