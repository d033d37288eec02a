package handler

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BuzzLyutic/taskboard/internal/model"
	"github.com/BuzzLyutic/taskboard/internal/repo"
)

func TestTaskHandler_Create(t *testing.T) {
	server := setupServer(t, repo.NewMemoryStore())
	token := register(t, server, "Ann", "a@x.com", "password1")
	tomorrow := time.Now().UTC().AddDate(0, 0, 1).Format("2006-01-02")

	tests := []struct {
		name         string
		body         any
		wantCode     int
		wantMsg      string
		wantPriority model.Priority
	}{
		{
			name:         "defaults to low priority",
			body:         map[string]any{"title": "Buy milk"},
			wantCode:     http.StatusCreated,
			wantPriority: model.PriorityLow,
		},
		{
			name:         "explicit priority and due date",
			body:         map[string]any{"title": "Ship", "priority": "high", "dueDate": tomorrow},
			wantCode:     http.StatusCreated,
			wantPriority: model.PriorityHigh,
		},
		{
			name:     "missing title",
			body:     map[string]any{"description": "no title"},
			wantCode: http.StatusBadRequest,
			wantMsg:  "title is required",
		},
		{
			name:     "blank title",
			body:     map[string]any{"title": "   "},
			wantCode: http.StatusBadRequest,
			wantMsg:  "title is required",
		},
		{
			name:     "unknown priority",
			body:     map[string]any{"title": "x", "priority": "Urgent"},
			wantCode: http.StatusBadRequest,
			wantMsg:  "priority must be Low, Medium or High",
		},
		{
			name:     "past due date",
			body:     map[string]any{"title": "x", "dueDate": "2001-01-01"},
			wantCode: http.StatusBadRequest,
			wantMsg:  "due date cannot be in the past",
		},
		{
			name:     "invalid json",
			body:     `{"title":`,
			wantCode: http.StatusBadRequest,
			wantMsg:  "invalid json",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, env := call(t, server, http.MethodPost, "/api/tasks", token, tt.body)

			require.Equal(t, tt.wantCode, code, env.Message)
			if tt.wantCode != http.StatusCreated {
				assert.False(t, env.Success)
				assert.Equal(t, tt.wantMsg, env.Message)
				return
			}
			assert.True(t, env.Success)
			assert.NotEmpty(t, env.Task.ID)
			assert.Equal(t, tt.wantPriority, env.Task.Priority)
			assert.False(t, bool(env.Task.Completed))
		})
	}
}

func TestTaskHandler_DueDateIsCalendarDate(t *testing.T) {
	server := setupServer(t, repo.NewMemoryStore())
	token := register(t, server, "Ann", "a@x.com", "password1")
	tomorrow := time.Now().UTC().AddDate(0, 0, 1).Format("2006-01-02")

	body, err := json.Marshal(map[string]any{"title": "x", "dueDate": tomorrow})
	require.NoError(t, err)
	req, err := http.NewRequest(http.MethodPost, server.URL+"/api/tasks", bytes.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var raw struct {
		Task map[string]any `json:"task"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&raw))
	assert.Equal(t, tomorrow, raw.Task["dueDate"])
}

func TestTaskHandler_RequiresToken(t *testing.T) {
	server := setupServer(t, repo.NewMemoryStore())

	tests := []struct {
		method string
		path   string
		token  string
	}{
		{http.MethodGet, "/api/tasks", ""},
		{http.MethodPost, "/api/tasks", ""},
		{http.MethodGet, "/api/tasks/whatever", "not-a-jwt"},
		{http.MethodDelete, "/api/tasks/whatever", ""},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			code, env := call(t, server, tt.method, tt.path, tt.token, nil)
			assert.Equal(t, http.StatusUnauthorized, code)
			assert.Equal(t, "unauthorized", env.Message)
		})
	}
}

func TestTaskHandler_Workflow(t *testing.T) {
	server := setupServer(t, repo.NewMemoryStore())

	// Step 1: регистрация и неверный логин
	ann := register(t, server, "Ann", "a@x.com", "password1")
	code, env := call(t, server, http.MethodPost, "/api/user/login", "", map[string]string{"email": "a@x.com", "password": "wrong"})
	require.Equal(t, http.StatusUnauthorized, code)
	assert.Equal(t, "invalid credentials", env.Message)

	// Step 2: создание
	code, env = call(t, server, http.MethodPost, "/api/tasks", ann, map[string]any{
		"title": "Buy milk", "description": "2 liters", "priority": "Low",
	})
	require.Equal(t, http.StatusCreated, code)
	task := env.Task
	assert.Equal(t, "Buy milk", task.Title)
	assert.False(t, bool(task.Completed))

	// Step 3: переключение выполнения
	code, env = call(t, server, http.MethodPatch, "/api/tasks/"+task.ID+"/completion", ann, map[string]any{"completed": true})
	require.Equal(t, http.StatusOK, code)
	assert.True(t, bool(env.Task.Completed))

	// Step 4: частичное обновление сохраняет остальные поля
	code, env = call(t, server, http.MethodPatch, "/api/tasks/"+task.ID, ann, map[string]any{"title": "Buy oat milk"})
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "Buy oat milk", env.Task.Title)
	assert.Equal(t, "2 liters", env.Task.Description)
	assert.Equal(t, model.PriorityLow, env.Task.Priority)
	assert.True(t, bool(env.Task.Completed))

	// Step 5: чужой пользователь не видит задачу
	bob := register(t, server, "Bob", "b@x.com", "password1")
	code, env = call(t, server, http.MethodGet, "/api/tasks/"+task.ID, bob, nil)
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "task not found", env.Message)
	code, _ = call(t, server, http.MethodPut, "/api/tasks/"+task.ID, bob, map[string]any{"title": "mine now"})
	assert.Equal(t, http.StatusNotFound, code)
	code, _ = call(t, server, http.MethodPatch, "/api/tasks/"+task.ID+"/completion", bob, map[string]any{"completed": false})
	assert.Equal(t, http.StatusNotFound, code)
	code, _ = call(t, server, http.MethodDelete, "/api/tasks/"+task.ID, bob, nil)
	assert.Equal(t, http.StatusNotFound, code)

	code, env = call(t, server, http.MethodGet, "/api/tasks", bob, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Empty(t, env.Tasks)

	code, env = call(t, server, http.MethodGet, "/api/tasks/"+task.ID, ann, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "Buy oat milk", env.Task.Title, "foreign attempts must not change the task")

	// Step 6: удаление дважды
	code, env = call(t, server, http.MethodDelete, "/api/tasks/"+task.ID, ann, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "task deleted", env.Message)
	code, _ = call(t, server, http.MethodDelete, "/api/tasks/"+task.ID, ann, nil)
	assert.Equal(t, http.StatusNotFound, code)

	code, env = call(t, server, http.MethodGet, "/api/tasks", ann, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Empty(t, env.Tasks)
}

func TestTaskHandler_CompletionInputs(t *testing.T) {
	server := setupServer(t, repo.NewMemoryStore())
	token := register(t, server, "Ann", "a@x.com", "password1")

	_, env := call(t, server, http.MethodPost, "/api/tasks", token, map[string]any{"title": "toggle me"})
	path := "/api/tasks/" + env.Task.ID + "/completion"

	tests := []struct {
		name     string
		body     string
		wantCode int
		want     bool
	}{
		{"bool true", `{"completed":true}`, http.StatusOK, true},
		{"bool false", `{"completed":false}`, http.StatusOK, false},
		{"numeric one", `{"completed":1}`, http.StatusOK, true},
		{"yes in caps", `{"completed":"YES"}`, http.StatusOK, true},
		{"other string", `{"completed":"true"}`, http.StatusOK, false},
		{"missing field", `{}`, http.StatusBadRequest, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, env := call(t, server, http.MethodPatch, path, token, tt.body)
			require.Equal(t, tt.wantCode, code, env.Message)
			if tt.wantCode == http.StatusOK {
				assert.Equal(t, tt.want, bool(env.Task.Completed))
			}
		})
	}
}

func TestTaskHandler_UpdateValidation(t *testing.T) {
	server := setupServer(t, repo.NewMemoryStore())
	token := register(t, server, "Ann", "a@x.com", "password1")
	_, env := call(t, server, http.MethodPost, "/api/tasks", token, map[string]any{"title": "t", "priority": "Medium"})
	path := "/api/tasks/" + env.Task.ID

	code, env := call(t, server, http.MethodPut, path, token, map[string]any{"title": ""})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "title cannot be empty", env.Message)

	code, _ = call(t, server, http.MethodPut, path, token, map[string]any{"priority": "Critical"})
	assert.Equal(t, http.StatusBadRequest, code)

	code, env = call(t, server, http.MethodPut, path, token, map[string]any{})
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "t", env.Task.Title)
	assert.Equal(t, model.PriorityMedium, env.Task.Priority)

	code, _ = call(t, server, http.MethodGet, "/api/tasks/not-a-uuid", token, nil)
	assert.Equal(t, http.StatusNotFound, code)
}

func TestTaskHandler_ListNewestFirst(t *testing.T) {
	server := setupServer(t, repo.NewMemoryStore())
	token := register(t, server, "Ann", "a@x.com", "password1")

	for i := 0; i < 3; i++ {
		code, _ := call(t, server, http.MethodPost, "/api/tasks", token, map[string]any{"title": fmt.Sprintf("task %d", i)})
		require.Equal(t, http.StatusCreated, code)
		time.Sleep(2 * time.Millisecond)
	}

	code, env := call(t, server, http.MethodGet, "/api/tasks", token, nil)
	require.Equal(t, http.StatusOK, code)
	require.Len(t, env.Tasks, 3)
	assert.Equal(t, "task 2", env.Tasks[0].Title)
	assert.Equal(t, "task 0", env.Tasks[2].Title)
}

func TestTaskHandler_ConcurrentToggles(t *testing.T) {
	server := setupServer(t, repo.NewMemoryStore())
	token := register(t, server, "Ann", "a@x.com", "password1")
	_, env := call(t, server, http.MethodPost, "/api/tasks", token, map[string]any{"title": "race"})
	path := "/api/tasks/" + env.Task.ID + "/completion"

	const goroutines = 20
	var wg sync.WaitGroup
	codes := make([]int, goroutines)
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			codes[idx], _ = call(t, server, http.MethodPatch, path, token, map[string]any{"completed": idx%2 == 0})
		}(i)
	}
	wg.Wait()

	for i, code := range codes {
		assert.Equal(t, http.StatusOK, code, "request %d", i)
	}

	code, env := call(t, server, http.MethodGet, "/api/tasks", token, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Len(t, env.Tasks, 1)
}

func TestRouter_HealthAndNotFound(t *testing.T) {
	server := setupServer(t, repo.NewMemoryStore())

	resp, err := http.Get(server.URL + "/health")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	code, env := call(t, server, http.MethodGet, "/api/nope", "", nil)
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "route not found", env.Message)
}
