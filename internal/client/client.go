package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/BuzzLyutic/taskboard/internal/model"
)

const fallbackMessage = "request failed"

var (
	// ErrSessionExpired is returned after a protected request came back 401.
	// The session has already been cleared when callers see it.
	ErrSessionExpired = errors.New("session expired, please sign in again")
	ErrNoSession      = errors.New("not signed in")
)

// APIError is a failed response. Message is the server's envelope message
// verbatim, or a generic fallback when the body carried none.
type APIError struct {
	Status  int
	Message string
	// Code is the server's machine-readable reason, if any.
	Code string
}

func (e *APIError) Error() string {
	return e.Message
}

type envelope struct {
	Success bool             `json:"success"`
	Message string           `json:"message"`
	Code    string           `json:"code"`
	Token   string           `json:"token"`
	User    model.PublicUser `json:"user"`
	Task    model.Task       `json:"task"`
	Tasks   []model.Task     `json:"tasks"`
}

type Client struct {
	baseURL string
	http    *http.Client
	session *Session
}

func New(baseURL string, session *Session, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	if session == nil {
		session = NewSession()
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    httpClient,
		session: session,
	}
}

func (c *Client) Session() *Session {
	return c.session
}

func (c *Client) Register(ctx context.Context, req model.RegisterRequest) (model.PublicUser, error) {
	env, err := c.do(ctx, http.MethodPost, "/api/user/register", req, public)
	if err != nil {
		return model.PublicUser{}, err
	}
	c.session.Set(env.Token, env.User)
	return env.User, nil
}

// Login treats 401 as wrong credentials, not as an expired session.
func (c *Client) Login(ctx context.Context, req model.LoginRequest) (model.PublicUser, error) {
	env, err := c.do(ctx, http.MethodPost, "/api/user/login", req, public)
	if err != nil {
		return model.PublicUser{}, err
	}
	c.session.Set(env.Token, env.User)
	return env.User, nil
}

func (c *Client) Logout() {
	c.session.Clear()
}

func (c *Client) Me(ctx context.Context) (model.PublicUser, error) {
	env, err := c.do(ctx, http.MethodGet, "/api/user/me", nil, protected)
	if err != nil {
		return model.PublicUser{}, err
	}
	return env.User, nil
}

func (c *Client) UpdateProfile(ctx context.Context, req model.ProfileRequest) (model.PublicUser, error) {
	env, err := c.do(ctx, http.MethodPut, "/api/user/profile", req, protected)
	if err != nil {
		return model.PublicUser{}, err
	}
	c.session.updateUser(env.User)
	return env.User, nil
}

// UpdatePassword reports a wrong current password as an APIError with status 401
// and keeps the session. A rejected token still ends the session.
func (c *Client) UpdatePassword(ctx context.Context, req model.PasswordRequest) error {
	_, err := c.do(ctx, http.MethodPut, "/api/user/password", req, protected)
	return err
}

func (c *Client) ListTasks(ctx context.Context) ([]model.Task, error) {
	env, err := c.do(ctx, http.MethodGet, "/api/tasks", nil, protected)
	if err != nil {
		return nil, err
	}
	if env.Tasks == nil {
		return []model.Task{}, nil
	}
	return env.Tasks, nil
}

func (c *Client) GetTask(ctx context.Context, id string) (model.Task, error) {
	env, err := c.do(ctx, http.MethodGet, taskPath(id), nil, protected)
	if err != nil {
		return model.Task{}, err
	}
	return env.Task, nil
}

func (c *Client) CreateTask(ctx context.Context, in model.TaskInput) (model.Task, error) {
	env, err := c.do(ctx, http.MethodPost, "/api/tasks", in, protected)
	if err != nil {
		return model.Task{}, err
	}
	return env.Task, nil
}

func (c *Client) UpdateTask(ctx context.Context, id string, patch model.TaskPatch) (model.Task, error) {
	env, err := c.do(ctx, http.MethodPut, taskPath(id), patch, protected)
	if err != nil {
		return model.Task{}, err
	}
	return env.Task, nil
}

func (c *Client) SetCompletion(ctx context.Context, id string, completed bool) (model.Task, error) {
	body := map[string]bool{"completed": completed}
	env, err := c.do(ctx, http.MethodPatch, taskPath(id)+"/completion", body, protected)
	if err != nil {
		return model.Task{}, err
	}
	return env.Task, nil
}

func (c *Client) DeleteTask(ctx context.Context, id string) error {
	_, err := c.do(ctx, http.MethodDelete, taskPath(id), nil, protected)
	return err
}

func taskPath(id string) string {
	return "/api/tasks/" + url.PathEscape(id)
}

type callFlags int

const (
	public callFlags = iota
	// protected requests carry the session token.
	protected
)

func (c *Client) do(ctx context.Context, method, path string, body any, flags callFlags) (envelope, error) {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return envelope{}, fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return envelope{}, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	if flags&protected != 0 {
		token := c.session.Token()
		if token == "" {
			return envelope{}, ErrNoSession
		}
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return envelope{}, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	var env envelope
	decodeErr := json.NewDecoder(resp.Body).Decode(&env)

	if resp.StatusCode == http.StatusUnauthorized && flags == protected && env.Code != model.CodeBadCredentials {
		c.session.Clear()
		return envelope{}, ErrSessionExpired
	}

	if resp.StatusCode >= http.StatusBadRequest || decodeErr != nil || !env.Success {
		message := env.Message
		if decodeErr != nil || message == "" {
			message = fallbackMessage
		}
		return envelope{}, &APIError{Status: resp.StatusCode, Message: message, Code: env.Code}
	}
	return env, nil
}
