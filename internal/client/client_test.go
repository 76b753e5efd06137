package client

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FilmThanapol/caloriemate-go/internal/model"
	"github.com/FilmThanapol/caloriemate-go/internal/testutil"
)

func newTestClient(t *testing.T, token string, handler http.HandlerFunc) *Client {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c, err := New(srv.URL, token, testutil.MakeNoopLogger())
	require.NoError(t, err)
	return c
}

func writeJSON(t *testing.T, w http.ResponseWriter, status int, v any) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	require.NoError(t, json.NewEncoder(w).Encode(v))
}

func TestNew_BaseURL(t *testing.T) {
	log := testutil.MakeNoopLogger()

	c, err := New("localhost:8080", "", log)
	require.NoError(t, err)
	assert.Equal(t, "http", c.baseURL.Scheme)
	assert.Equal(t, "localhost:8080", c.baseURL.Host)

	c, err = New("https://food.example.com/", "", log)
	require.NoError(t, err)
	assert.Equal(t, "https", c.baseURL.Scheme)
	assert.Equal(t, "", c.baseURL.Path)

	_, err = New("  ", "", log)
	require.Error(t, err)
}

func TestClient_Login_Success(t *testing.T) {
	c := newTestClient(t, "", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/auth/login", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Empty(t, r.Header.Get("Authorization"))

		var req credentialsRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "user@example.com", req.Email)
		assert.Equal(t, "hunter2hunter2", req.Password)

		writeJSON(t, w, http.StatusOK, model.TokenPair{AccessToken: "acc", RefreshToken: "ref"})
	})

	pair, err := c.Login(context.Background(), "user@example.com", "hunter2hunter2")

	require.NoError(t, err)
	assert.Equal(t, model.TokenPair{AccessToken: "acc", RefreshToken: "ref"}, pair)
}

func TestClient_Login_WrongPassword(t *testing.T) {
	c := newTestClient(t, "", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, http.StatusUnauthorized, map[string]string{"error": "invalid credentials"})
	})

	_, err := c.Login(context.Background(), "user@example.com", "wrong")

	require.ErrorIs(t, err, model.ErrInvalidCredentials)
}

func TestClient_Register_EmailTaken(t *testing.T) {
	c := newTestClient(t, "", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/auth/register", r.URL.Path)
		writeJSON(t, w, http.StatusConflict, map[string]string{"error": "email already registered"})
	})

	_, err := c.Register(context.Background(), "user@example.com", "hunter2hunter2")

	require.ErrorIs(t, err, model.ErrEmailTaken)
}

func TestClient_Refresh_Rotates(t *testing.T) {
	c := newTestClient(t, "", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/auth/refresh", r.URL.Path)

		var req refreshRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "old-refresh", req.RefreshToken)

		writeJSON(t, w, http.StatusOK, model.TokenPair{AccessToken: "acc-2", RefreshToken: "ref-2"})
	})

	pair, err := c.Refresh(context.Background(), "old-refresh")

	require.NoError(t, err)
	assert.Equal(t, "ref-2", pair.RefreshToken)
}

func TestClient_Refresh_Revoked(t *testing.T) {
	c := newTestClient(t, "", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, http.StatusUnauthorized, map[string]string{"error": "invalid refresh token"})
	})

	_, err := c.Refresh(context.Background(), "revoked")

	require.ErrorIs(t, err, model.ErrUnauthorized)
}

func TestClient_Logout(t *testing.T) {
	called := false
	c := newTestClient(t, "", func(w http.ResponseWriter, r *http.Request) {
		called = true
		assert.Equal(t, "/api/auth/logout", r.URL.Path)
		w.WriteHeader(http.StatusNoContent)
	})

	require.NoError(t, c.Logout(context.Background(), "ref"))
	assert.True(t, called)
}

func TestClient_CreateMeal(t *testing.T) {
	c := newTestClient(t, "token-1", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/meals", r.URL.Path)
		assert.Equal(t, "Bearer token-1", r.Header.Get("Authorization"))

		var draft model.MealDraft
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&draft))
		assert.Equal(t, "oatmeal", draft.FoodName)

		meal := draft.Meal()
		meal.ID = "m1"
		writeJSON(t, w, http.StatusCreated, meal)
	})

	meal, err := c.CreateMeal(context.Background(), model.MealDraft{
		Date:     "2025-06-01",
		Time:     "08:30",
		FoodName: "oatmeal",
		Amount:   "1 bowl",
		Calories: 350,
		Protein:  12,
	})

	require.NoError(t, err)
	assert.Equal(t, "m1", meal.ID)
	assert.Equal(t, "oatmeal", meal.FoodName)
}

func TestClient_CreateMeal_Validation(t *testing.T) {
	c := newTestClient(t, "token-1", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, http.StatusBadRequest, map[string]any{
			"error":  "validation failed",
			"fields": map[string]string{"food_name": "must not be empty"},
		})
	})

	_, err := c.CreateMeal(context.Background(), model.MealDraft{})

	var verr *model.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "must not be empty", verr.Fields["food_name"])
}

func TestClient_UpdateMeal(t *testing.T) {
	calories := 420
	c := newTestClient(t, "token-1", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPatch, r.Method)
		assert.Equal(t, "/api/meals/m1", r.URL.Path)

		// Unset fields must stay off the wire.
		body, err := io.ReadAll(r.Body)
		assert.NoError(t, err)
		assert.JSONEq(t, `{"calories": 420}`, string(body))

		writeJSON(t, w, http.StatusOK, model.Meal{ID: "m1", Calories: 420})
	})

	meal, err := c.UpdateMeal(context.Background(), "m1", model.MealPatch{Calories: &calories})

	require.NoError(t, err)
	assert.Equal(t, 420, meal.Calories)
}

func TestClient_UpdateMeal_NotFound(t *testing.T) {
	c := newTestClient(t, "token-1", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, http.StatusNotFound, map[string]string{"error": "not found"})
	})

	calories := 420
	_, err := c.UpdateMeal(context.Background(), "missing", model.MealPatch{Calories: &calories})

	require.ErrorIs(t, err, model.ErrNotFound)
}

func TestClient_DeleteMeal(t *testing.T) {
	c := newTestClient(t, "token-1", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		assert.Equal(t, "/api/meals/m1", r.URL.Path)
		w.WriteHeader(http.StatusNoContent)
	})

	require.NoError(t, c.DeleteMeal(context.Background(), "m1"))
}

func TestClient_ListMeals(t *testing.T) {
	c := newTestClient(t, "token-1", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/api/meals", r.URL.Path)
		writeJSON(t, w, http.StatusOK, []model.Meal{{ID: "m1"}, {ID: "m2"}})
	})

	meals, err := c.ListMeals(context.Background())

	require.NoError(t, err)
	require.Len(t, meals, 2)
	assert.Equal(t, "m2", meals[1].ID)
}

func TestClient_Settings(t *testing.T) {
	c := newTestClient(t, "token-1", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/settings", r.URL.Path)
		switch r.Method {
		case http.MethodGet:
			writeJSON(t, w, http.StatusOK, model.Settings{DailyCalories: 2000, DailyProtein: 150})
		case http.MethodPatch:
			var patch model.SettingsPatch
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&patch))
			writeJSON(t, w, http.StatusOK, patch.Apply(model.Settings{DailyCalories: 2000, DailyProtein: 150}))
		default:
			t.Errorf("unexpected method %s", r.Method)
		}
	})

	settings, err := c.GetSettings(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2000, settings.DailyCalories)

	calories := 2500
	settings, err = c.UpdateSettings(context.Background(), model.SettingsPatch{DailyCalories: &calories})
	require.NoError(t, err)
	assert.Equal(t, 2500, settings.DailyCalories)
	assert.Equal(t, 150.0, settings.DailyProtein)
}

func TestClient_ExpiredToken(t *testing.T) {
	c := newTestClient(t, "stale", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, http.StatusUnauthorized, map[string]string{"error": "invalid token"})
	})

	_, err := c.ListMeals(context.Background())

	require.ErrorIs(t, err, model.ErrUnauthorized)
}

func TestClient_ServerError(t *testing.T) {
	c := newTestClient(t, "token-1", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
	})

	_, err := c.ListMeals(context.Background())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 500")
	assert.Contains(t, err.Error(), "internal server error")
}

func TestClient_AttachPhoto(t *testing.T) {
	c := newTestClient(t, "token-1", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "/api/meals/m1/photo", r.URL.Path)

		file, header, err := r.FormFile("photo")
		if !assert.NoError(t, err) {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		defer file.Close()
		assert.Equal(t, "lunch.jpg", header.Filename)

		data, err := io.ReadAll(file)
		assert.NoError(t, err)
		assert.Equal(t, "jpeg bytes", string(data))

		writeJSON(t, w, http.StatusOK, model.Meal{ID: "m1", PhotoURL: "user-1/meal-m1/photo-1"})
	})

	meal, err := c.AttachPhoto(context.Background(), "m1", "lunch.jpg", strings.NewReader("jpeg bytes"))

	require.NoError(t, err)
	assert.Equal(t, "user-1/meal-m1/photo-1", meal.PhotoURL)
}

func TestClient_Photo(t *testing.T) {
	c := newTestClient(t, "token-1", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/meals/m1/photo", r.URL.Path)
		w.Header().Set("Content-Type", "application/octet-stream")
		_, _ = w.Write([]byte("jpeg bytes"))
	})

	photo, err := c.Photo(context.Background(), "m1")
	require.NoError(t, err)
	defer photo.Close()

	data, err := io.ReadAll(photo)
	require.NoError(t, err)
	assert.Equal(t, "jpeg bytes", string(data))
}

func TestClient_Photo_NotFound(t *testing.T) {
	c := newTestClient(t, "token-1", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, http.StatusNotFound, map[string]string{"error": "not found"})
	})

	_, err := c.Photo(context.Background(), "m1")

	require.ErrorIs(t, err, model.ErrNotFound)
}

// subscribeServer upgrades the events endpoint and hands the server
// side of the connection to serve.
func subscribeServer(t *testing.T, serve func(conn *websocket.Conn)) *Client {
	t.Helper()

	upgrader := websocket.Upgrader{}
	return newTestClient(t, "token-1", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/events", r.URL.Path)
		assert.Equal(t, "Bearer token-1", r.Header.Get("Authorization"))

		conn, err := upgrader.Upgrade(w, r, nil)
		if !assert.NoError(t, err) {
			return
		}
		defer conn.Close()
		serve(conn)
	})
}

func receiveEvent(t *testing.T, events <-chan model.Event) model.Event {
	t.Helper()
	select {
	case event, ok := <-events:
		require.True(t, ok, "events channel closed early")
		return event
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for event")
		return model.Event{}
	}
}

func requireClosed(t *testing.T, events <-chan model.Event) {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case _, ok := <-events:
			if !ok {
				return
			}
		case <-deadline:
			t.Fatal("events channel still open")
		}
	}
}

func TestClient_Subscribe_ReceivesEvents(t *testing.T) {
	meal := model.Meal{ID: "m1", FoodName: "oatmeal", Calories: 350}
	c := subscribeServer(t, func(conn *websocket.Conn) {
		assert.NoError(t, conn.WriteJSON(model.MealInserted(meal)))
		assert.NoError(t, conn.WriteJSON(model.MealDeleted("m2")))
		// Hold the connection until the client hangs up.
		for {
			if _, _, err := conn.NextReader(); err != nil {
				return
			}
		}
	})

	events, stop, err := c.Subscribe(context.Background())
	require.NoError(t, err)
	defer stop()

	first := receiveEvent(t, events)
	assert.Equal(t, model.EventInsert, first.Op)
	require.NotNil(t, first.Meal)
	assert.Equal(t, "m1", first.Meal.ID)

	second := receiveEvent(t, events)
	assert.Equal(t, model.EventDelete, second.Op)
	assert.Equal(t, "m2", second.MealID)

	stop()
	stop() // safe to call again
	requireClosed(t, events)
}

func TestClient_Subscribe_ContextCancel(t *testing.T) {
	c := subscribeServer(t, func(conn *websocket.Conn) {
		for {
			if _, _, err := conn.NextReader(); err != nil {
				return
			}
		}
	})

	ctx, cancel := context.WithCancel(context.Background())
	events, stop, err := c.Subscribe(ctx)
	require.NoError(t, err)
	defer stop()

	cancel()
	requireClosed(t, events)
}

func TestClient_Subscribe_ServerClose(t *testing.T) {
	c := subscribeServer(t, func(conn *websocket.Conn) {
		assert.NoError(t, conn.WriteJSON(model.MealDeleted("m1")))
	})

	events, stop, err := c.Subscribe(context.Background())
	require.NoError(t, err)
	defer stop()

	receiveEvent(t, events)
	requireClosed(t, events)
}

func TestClient_Subscribe_Unauthorized(t *testing.T) {
	c := newTestClient(t, "stale", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, http.StatusUnauthorized, map[string]string{"error": "invalid token"})
	})

	_, _, err := c.Subscribe(context.Background())

	require.ErrorIs(t, err, model.ErrUnauthorized)
}
