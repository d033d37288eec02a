package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/BuzzLyutic/taskboard/internal/auth"
	"github.com/BuzzLyutic/taskboard/internal/model"
	"github.com/BuzzLyutic/taskboard/internal/repo"
	"github.com/BuzzLyutic/taskboard/internal/service"
	"github.com/BuzzLyutic/taskboard/internal/worker"
)

const testSecret = "test-secret"

func setupServer(t *testing.T, store repo.Store) *httptest.Server {
	t.Helper()
	logger := zap.NewNop()

	hasher := worker.NewPool(logger, 4, bcrypt.MinCost)
	hasher.Start(context.Background())

	tokens := auth.NewTokenManager(testSecret, time.Hour)
	router := NewRouter(RouterDeps{
		Users:  NewUserHandler(service.NewUserService(store.Users(), hasher, tokens), logger),
		Tasks:  NewTaskHandler(service.NewTaskService(store.Tasks()), logger),
		Tokens: tokens,
		Logger: logger,
	})

	server := httptest.NewServer(router)
	t.Cleanup(func() {
		server.Close()
		hasher.Stop()
	})
	return server
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

// call sends body as JSON and decodes the envelope.
func call(t *testing.T, server *httptest.Server, method, path, token string, body any) (int, envelope) {
	t.Helper()

	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequest(method, server.URL+path, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var env envelope
	_ = json.NewDecoder(resp.Body).Decode(&env)
	return resp.StatusCode, env
}

func register(t *testing.T, server *httptest.Server, name, email, password string) string {
	t.Helper()
	code, env := call(t, server, http.MethodPost, "/api/user/register", "", map[string]string{
		"name": name, "email": email, "password": password,
	})
	require.Equal(t, http.StatusCreated, code, env.Message)
	require.NotEmpty(t, env.Token)
	return env.Token
}
