package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/FilmThanapol/caloriemate-go/internal/logger"
	"github.com/FilmThanapol/caloriemate-go/internal/model"
)

const passwordMinLen = 8

// Auth registers users and checks their credentials. Passwords are
// stored as bcrypt hashes, never in the clear.
type Auth struct {
	userStore    model.UserStore
	tokenService *TokenService
	logger       *logger.Logger
}

func NewAuth(
	userStore model.UserStore,
	refreshTokenStore model.RefreshTokenStore,
	tokenManager model.TokenManager,
	logger *logger.Logger,
) *Auth {
	return &Auth{
		userStore:    userStore,
		tokenService: NewTokenService(tokenManager, refreshTokenStore, logger),
		logger:       logger,
	}
}

func validateCredentials(email, password string) error {
	verr := &model.ValidationError{}
	if email == "" || !strings.Contains(email, "@") {
		verr.Add("email", "must be a valid email address")
	}
	if len(password) < passwordMinLen {
		verr.Add("password", fmt.Sprintf("must be at least %d characters", passwordMinLen))
	}
	if !verr.Empty() {
		return verr
	}
	return nil
}

func (a *Auth) Register(ctx context.Context, email, password string) (model.TokenPair, error) {
	a.logger.Debug("Auth service: registering user",
		"email", email)

	if err := validateCredentials(email, password); err != nil {
		return model.TokenPair{}, err
	}

	existing, err := a.userStore.GetByEmail(ctx, email)
	if err != nil && !errors.Is(err, model.ErrNotFound) {
		a.logger.Error("Auth service: failed to get user by email",
			"email", email,
			"error", err.Error())
		return model.TokenPair{}, fmt.Errorf("failed to get user by email: %w", err)
	}
	if existing.ID != uuid.Nil {
		a.logger.Info("Auth service: user already exists",
			"email", email)
		return model.TokenPair{}, model.ErrEmailTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return model.TokenPair{}, fmt.Errorf("failed to hash password: %w", err)
	}

	// The unique index on email catches the race where two registrations
	// pass the existence check together.
	user, err := a.userStore.Create(ctx, model.User{
		ID:           uuid.New(),
		Email:        email,
		PasswordHash: hash,
	})
	if err != nil {
		a.logger.Error("Auth service: failed to create user",
			"email", email,
			"error", err.Error())
		if errors.Is(err, model.ErrEmailTaken) {
			return model.TokenPair{}, model.ErrEmailTaken
		}
		return model.TokenPair{}, fmt.Errorf("failed to create user: %w", err)
	}

	pair, err := a.tokenService.Issue(ctx, user.ID)
	if err != nil {
		return model.TokenPair{}, fmt.Errorf("failed to issue tokens: %w", err)
	}

	a.logger.Info("Auth service: user registered",
		"email", email,
		"user_id", user.ID)

	return pair, nil
}

func (a *Auth) Login(ctx context.Context, email, password string) (model.TokenPair, error) {
	a.logger.Debug("Auth service: logging user in",
		"email", email)

	user, err := a.userStore.GetByEmail(ctx, email)
	if errors.Is(err, model.ErrNotFound) {
		return model.TokenPair{}, model.ErrInvalidCredentials
	}
	if err != nil {
		return model.TokenPair{}, fmt.Errorf("failed to get user by email: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword(user.PasswordHash, []byte(password)); err != nil {
		a.logger.Info("Auth service: password mismatch",
			"email", email)
		return model.TokenPair{}, model.ErrInvalidCredentials
	}

	pair, err := a.tokenService.Issue(ctx, user.ID)
	if err != nil {
		return model.TokenPair{}, fmt.Errorf("failed to issue tokens: %w", err)
	}

	a.logger.Info("Auth service: user logged in",
		"email", email,
		"user_id", user.ID)

	return pair, nil
}

// Refresh rotates the presented refresh token and returns a new pair.
func (a *Auth) Refresh(ctx context.Context, refreshToken string) (model.TokenPair, error) {
	return a.tokenService.Refresh(ctx, refreshToken)
}

// Logout revokes the presented refresh token. The access token simply
// runs out; it is short-lived.
func (a *Auth) Logout(ctx context.Context, refreshToken string) error {
	return a.tokenService.RevokeByToken(ctx, refreshToken)
}
