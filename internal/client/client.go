// Package client implements the remote backend contract over the
// server's JSON API. CRUD goes over HTTP with a bearer token; pushed
// changes arrive on a websocket.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/FilmThanapol/caloriemate-go/internal/logger"
	"github.com/FilmThanapol/caloriemate-go/internal/model"
)

const (
	requestTimeout  = 30 * time.Second
	errorBodyLimit  = 1 << 16
	subscribeBuffer = 16
	closeGrace      = time.Second
)

// Client talks to a caloriemate server.
type Client struct {
	baseURL *url.URL
	token   string
	http    *http.Client
	logger  *logger.Logger
}

var _ model.Remote = (*Client)(nil)

// New builds a client for the server at baseURL. A scheme-less URL is
// taken as plain HTTP. The token may be empty for clients that only
// call the auth endpoints.
func New(baseURL, token string, logger *logger.Logger) (*Client, error) {
	base, err := parseBaseURL(baseURL)
	if err != nil {
		return nil, err
	}
	return &Client{
		baseURL: base,
		token:   token,
		http:    &http.Client{Timeout: requestTimeout},
		logger:  logger,
	}, nil
}

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// Register creates an account and returns its first token pair.
func (c *Client) Register(ctx context.Context, email, password string) (model.TokenPair, error) {
	var pair model.TokenPair
	if err := c.do(ctx, http.MethodPost, "/api/auth/register", credentialsRequest{Email: email, Password: password}, &pair); err != nil {
		return model.TokenPair{}, err
	}
	return pair, nil
}

// Login exchanges credentials for a token pair.
func (c *Client) Login(ctx context.Context, email, password string) (model.TokenPair, error) {
	var pair model.TokenPair
	if err := c.do(ctx, http.MethodPost, "/api/auth/login", credentialsRequest{Email: email, Password: password}, &pair); err != nil {
		// The login endpoint answers 401 only for bad credentials.
		if errors.Is(err, model.ErrUnauthorized) {
			return model.TokenPair{}, model.ErrInvalidCredentials
		}
		return model.TokenPair{}, err
	}
	return pair, nil
}

// Refresh rotates a refresh token for a new pair.
func (c *Client) Refresh(ctx context.Context, refreshToken string) (model.TokenPair, error) {
	var pair model.TokenPair
	if err := c.do(ctx, http.MethodPost, "/api/auth/refresh", refreshRequest{RefreshToken: refreshToken}, &pair); err != nil {
		return model.TokenPair{}, err
	}
	return pair, nil
}

// Logout revokes a refresh token.
func (c *Client) Logout(ctx context.Context, refreshToken string) error {
	return c.do(ctx, http.MethodPost, "/api/auth/logout", refreshRequest{RefreshToken: refreshToken}, nil)
}

// CreateMeal sends the draft to the server, which assigns identifier
// and timestamps.
func (c *Client) CreateMeal(ctx context.Context, draft model.MealDraft) (model.Meal, error) {
	var meal model.Meal
	if err := c.do(ctx, http.MethodPost, "/api/meals", draft, &meal); err != nil {
		return model.Meal{}, err
	}
	return meal, nil
}

// UpdateMeal applies the patch to a meal and returns the stored result.
func (c *Client) UpdateMeal(ctx context.Context, id string, patch model.MealPatch) (model.Meal, error) {
	var meal model.Meal
	if err := c.do(ctx, http.MethodPatch, "/api/meals/"+id, patch, &meal); err != nil {
		return model.Meal{}, err
	}
	return meal, nil
}

// DeleteMeal removes a meal.
func (c *Client) DeleteMeal(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/meals/"+id, nil, nil)
}

// ListMeals returns every meal of the authenticated user.
func (c *Client) ListMeals(ctx context.Context) ([]model.Meal, error) {
	var meals []model.Meal
	if err := c.do(ctx, http.MethodGet, "/api/meals", nil, &meals); err != nil {
		return nil, err
	}
	return meals, nil
}

// GetSettings returns the user's daily goals. The server creates the
// record with defaults on first use.
func (c *Client) GetSettings(ctx context.Context) (model.Settings, error) {
	var settings model.Settings
	if err := c.do(ctx, http.MethodGet, "/api/settings", nil, &settings); err != nil {
		return model.Settings{}, err
	}
	return settings, nil
}

// UpdateSettings applies the patch to the user's daily goals.
func (c *Client) UpdateSettings(ctx context.Context, patch model.SettingsPatch) (model.Settings, error) {
	var settings model.Settings
	if err := c.do(ctx, http.MethodPatch, "/api/settings", patch, &settings); err != nil {
		return model.Settings{}, err
	}
	return settings, nil
}

// AttachPhoto uploads a photo for a meal and returns the updated
// record. Photos are not part of the remote contract; callers that
// need them type-assert for this method.
func (c *Client) AttachPhoto(ctx context.Context, id, filename string, photo io.Reader) (model.Meal, error) {
	var buf bytes.Buffer
	form := multipart.NewWriter(&buf)
	part, err := form.CreateFormFile("photo", filename)
	if err != nil {
		return model.Meal{}, fmt.Errorf("failed to build photo form: %w", err)
	}
	if _, err := io.Copy(part, photo); err != nil {
		return model.Meal{}, fmt.Errorf("failed to read photo: %w", err)
	}
	if err := form.Close(); err != nil {
		return model.Meal{}, fmt.Errorf("failed to build photo form: %w", err)
	}

	req, err := c.newRequest(ctx, http.MethodPut, "/api/meals/"+id+"/photo", &buf)
	if err != nil {
		return model.Meal{}, err
	}
	req.Header.Set("Content-Type", form.FormDataContentType())

	var meal model.Meal
	if err := c.send(req, &meal); err != nil {
		return model.Meal{}, err
	}
	return meal, nil
}

// Photo streams the stored photo bytes for a meal. The caller closes
// the reader.
func (c *Client) Photo(ctx context.Context, id string) (io.ReadCloser, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "/api/meals/"+id+"/photo", nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	if resp.StatusCode >= 400 {
		defer resp.Body.Close()
		return nil, apiError(resp)
	}
	return resp.Body, nil
}

// Subscribe dials the events endpoint and pumps pushed changes into the
// returned channel. The channel is closed once stop is called, ctx is
// done, or the server goes away; stop is safe to call more than once.
func (c *Client) Subscribe(ctx context.Context) (<-chan model.Event, func(), error) {
	header := http.Header{}
	header.Set("Authorization", "Bearer "+c.token)

	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, c.eventsURL(), header)
	if err != nil {
		if resp != nil && resp.StatusCode == http.StatusUnauthorized {
			return nil, nil, fmt.Errorf("failed to subscribe: %w", model.ErrUnauthorized)
		}
		return nil, nil, fmt.Errorf("failed to dial events endpoint: %w", err)
	}

	events := make(chan model.Event, subscribeBuffer)
	readerDone := make(chan struct{})

	var once sync.Once
	stop := func() {
		once.Do(func() {
			// Closing the connection unblocks the read loop, which
			// closes the events channel on its way out.
			deadline := time.Now().Add(closeGrace)
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), deadline)
			_ = conn.Close()
		})
	}

	go func() {
		select {
		case <-ctx.Done():
			stop()
		case <-readerDone:
		}
	}()

	go func() {
		defer close(events)
		defer close(readerDone)
		for {
			var event model.Event
			if err := conn.ReadJSON(&event); err != nil {
				c.logger.Debug("Client: events stream closed", "reason", err.Error())
				return
			}
			select {
			case events <- event:
			default:
				c.logger.Debug("Client: dropping event for slow consumer", "op", string(event.Op))
			}
		}
	}()

	return events, stop, nil
}

func (c *Client) eventsURL() string {
	u := *c.baseURL
	if u.Scheme == "https" {
		u.Scheme = "wss"
	} else {
		u.Scheme = "ws"
	}
	u.Path = "/api/events"
	return u.String()
}

func (c *Client) do(ctx context.Context, method, path string, body, dest any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := c.newRequest(ctx, method, path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	return c.send(req, dest)
}

func (c *Client) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	reqURL := c.baseURL.ResolveReference(&url.URL{Path: path})
	req, err := http.NewRequestWithContext(ctx, method, reqURL.String(), body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	return req, nil
}

func (c *Client) send(req *http.Request, dest any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return apiError(resp)
	}
	if dest == nil {
		// Drain so the connection can be reused.
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// apiError converts an error response back into the domain error the
// server mapped it from. The body is best effort; the status code
// alone is enough to classify.
func apiError(resp *http.Response) error {
	var body struct {
		Error  string            `json:"error"`
		Fields map[string]string `json:"fields"`
	}
	_ = json.NewDecoder(io.LimitReader(resp.Body, errorBodyLimit)).Decode(&body)

	switch resp.StatusCode {
	case http.StatusBadRequest:
		if len(body.Fields) > 0 {
			return &model.ValidationError{Fields: body.Fields}
		}
	case http.StatusUnauthorized:
		return model.ErrUnauthorized
	case http.StatusNotFound:
		return model.ErrNotFound
	case http.StatusConflict:
		return model.ErrEmailTaken
	}

	if body.Error != "" {
		return fmt.Errorf("server returned status %d: %s", resp.StatusCode, body.Error)
	}
	return fmt.Errorf("server returned status %d", resp.StatusCode)
}

func parseBaseURL(raw string) (*url.URL, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil, fmt.Errorf("server URL is empty")
	}
	if !strings.Contains(trimmed, "://") {
		trimmed = "http://" + trimmed
	}
	u, err := url.Parse(trimmed)
	if err != nil {
		return nil, fmt.Errorf("failed to parse server URL %q: %w", raw, err)
	}
	u.Path = ""
	u.RawQuery = ""
	u.Fragment = ""
	return u, nil
}
