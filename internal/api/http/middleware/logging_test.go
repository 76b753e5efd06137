package middleware

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/FilmThanapol/caloriemate-go/internal/logger"
)

func TestLogging_RecordsStatusAndMethod(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogging(logger.NewTo(&buf, 0))

	h := l.Handle(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/meals", nil))

	assert.Equal(t, http.StatusTeapot, rec.Code)
	out := buf.String()
	assert.Contains(t, out, "HTTP request completed")
	assert.Contains(t, out, "method=GET")
	assert.Contains(t, out, "path=/api/meals")
	assert.Contains(t, out, "status=418")
}

func TestLogging_DefaultsToOK(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogging(logger.NewTo(&buf, 0))

	// Handler writes the body without an explicit WriteHeader call.
	h := l.Handle(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("ok"))
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Contains(t, buf.String(), "status=200")
}

func TestStatusRecorder_HijackUnsupported(t *testing.T) {
	rec := &statusRecorder{ResponseWriter: httptest.NewRecorder(), status: http.StatusOK}

	_, _, err := rec.Hijack()
	assert.Error(t, err)
}
