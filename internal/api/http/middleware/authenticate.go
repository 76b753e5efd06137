package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/FilmThanapol/caloriemate-go/internal/logger"
)

// TokenService resolves user ID from bearer tokens.
type TokenService interface {
	GetUserID(ctx context.Context, token string) (uuid.UUID, error)
}

type contextKey string

const userIDKey contextKey = "user_id"

// Authenticate validates bearer tokens and injects the user ID into the
// request context.
type Authenticate struct {
	tokenService TokenService
	logger       *logger.Logger
}

func NewAuthenticate(tokenService TokenService, logger *logger.Logger) *Authenticate {
	return &Authenticate{tokenService: tokenService, logger: logger}
}

// Handle rejects the request with 401 unless a valid access token is
// presented.
func (m *Authenticate) Handle(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tokenString := bearerToken(r)
		if tokenString == "" {
			unauthorized(w, "missing authorization token")
			return
		}

		userID, err := m.tokenService.GetUserID(r.Context(), tokenString)
		if err != nil || userID == uuid.Nil {
			m.logger.Debug("Authenticate middleware: rejected token",
				"path", r.URL.Path)
			unauthorized(w, "invalid authorization token")
			return
		}

		ctx := context.WithValue(r.Context(), userIDKey, userID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// bearerToken reads the Authorization header, falling back to the token
// query parameter for websocket dials that cannot set headers.
func bearerToken(r *http.Request) string {
	if h := r.Header.Get("Authorization"); h != "" {
		return strings.TrimPrefix(h, "Bearer ")
	}
	return r.URL.Query().Get("token")
}

// UserIDFromContext extracts the authenticated user ID from the request
// context.
func UserIDFromContext(ctx context.Context) (uuid.UUID, bool) {
	id, ok := ctx.Value(userIDKey).(uuid.UUID)
	return id, ok
}

func unauthorized(w http.ResponseWriter, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
