package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gritto/gritto/internal/agent"
	"github.com/gritto/gritto/internal/app"
	"github.com/gritto/gritto/internal/apperror"
	"github.com/gritto/gritto/internal/config"
	"github.com/gritto/gritto/internal/db/dbtest"
	"github.com/gritto/gritto/internal/model"
)

type scriptedEngine struct {
	decision *agent.Decision
	err      error
}

func (e *scriptedEngine) Bootstrap(ctx context.Context, userID, sessionID string) error {
	return nil
}

func (e *scriptedEngine) Run(ctx context.Context, in agent.RunInput) (*agent.Decision, error) {
	return e.decision, e.err
}

type testServer struct {
	handler http.Handler
	token   string
	engine  *scriptedEngine
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	cfg := &config.Config{
		AppEnv:                "test",
		JWTSecret:             "test-secret",
		JWTExpiry:             time.Hour,
		DefaultAvailableHours: 20,
		CORSAllowedOrigins:    []string{"http://localhost:5173"},
		MessageRateLimit:      100,
		MessageRateWindow:     time.Minute,
		MetricsEnabled:        true,
	}
	engine := &scriptedEngine{}
	a := app.NewWithEngine(cfg, dbtest.New(t), engine)

	token, err := a.AuthService.GenerateJWT(&model.User{ID: "user-1", Email: "ada@example.com"})
	require.NoError(t, err)

	return &testServer{handler: SetupRoutes(a), token: token, engine: engine}
}

func (s *testServer) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Authorization", "Bearer "+s.token)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestHealthAndAuth(t *testing.T) {
	s := newTestServer(t)

	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))

	rec = httptest.NewRecorder()
	s.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/goals", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = s.do(t, http.MethodGet, "/api/v1/me", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 20.0, decode(t, rec)["availableHoursPerWeek"])
}

func TestGoalCapacityConflictIs409(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodPost, "/api/v1/goals", map[string]any{"title": "Run", "minHoursPerWeek": 18})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = s.do(t, http.MethodPost, "/api/v1/goals", map[string]any{"title": "Swim", "minHoursPerWeek": 5})
	require.Equal(t, http.StatusConflict, rec.Code)

	errBody := decode(t, rec)["error"].(map[string]any)
	assert.Equal(t, apperror.CodeCapacityConflict, errBody["code"])
	details := errBody["details"].(map[string]any)
	assert.Equal(t, 23.0, details["requiredHoursPerWeek"])
	assert.Len(t, details["conflictingGoals"], 2)

	rec = s.do(t, http.MethodPost, "/api/v1/goals", "not an object")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestScheduleConflictIs409(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodPost, "/api/v1/goals", map[string]any{"title": "Piano", "minHoursPerWeek": 2})
	require.Equal(t, http.StatusCreated, rec.Code)
	goalID := decode(t, rec)["id"].(string)

	rec = s.do(t, http.MethodPost, "/api/v1/goals/"+goalID+"/milestones", map[string]any{"title": "Basics"})
	require.Equal(t, http.StatusCreated, rec.Code)
	milestoneID := decode(t, rec)["id"].(string)

	task := map[string]any{"title": "Posture", "date": "2025-11-10", "estimatedHours": 1}
	rec = s.do(t, http.MethodPost, "/api/v1/milestones/"+milestoneID+"/tasks", task)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = s.do(t, http.MethodPost, "/api/v1/milestones/"+milestoneID+"/tasks", task)
	require.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, apperror.CodeScheduleConflict, decode(t, rec)["error"].(map[string]any)["code"])

	rec = s.do(t, http.MethodGet, "/api/v1/tasks/upcoming", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode(t, rec)["upcomingTasks"], 1)
}

func TestSessionMessageFlow(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodPost, "/api/v1/sessions", nil)
	require.Equal(t, http.StatusCreated, rec.Code)
	session := decode(t, rec)
	sessionID := session["id"].(string)
	chatID := session["chatId"].(string)

	rec = s.do(t, http.MethodPost, "/api/v1/sessions", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	s.engine.decision = &agent.Decision{
		Reply:  "Here is a draft",
		Action: agent.Action{Type: agent.ActionSavePreview, Payload: map[string]any{"goalPreview": map[string]any{"goal": map[string]any{"title": "Piano"}}}},
	}
	rec = s.do(t, http.MethodPost, "/api/v1/sessions/"+sessionID+"/messages", map[string]any{"message": "I want to learn piano"})
	require.Equal(t, http.StatusOK, rec.Code)

	body := decode(t, rec)
	assert.Equal(t, "Here is a draft", body["reply"])
	action := body["action"].(map[string]any)
	assert.Equal(t, "save_preview", action["type"])
	previewID := action["payload"].(map[string]any)["goalPreviewId"].(string)
	state := body["state"].(map[string]any)
	assert.Equal(t, previewID, state["goalPreviewId"])
	assert.Equal(t, 1.0, state["iteration"])
	assert.Equal(t, true, state["sessionActive"])
	assert.Contains(t, body, "context")

	rec = s.do(t, http.MethodGet, "/api/v1/goal-previews/"+previewID, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(t, http.MethodGet, "/api/v1/chats/"+chatID+"/messages", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var history []map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &history))
	require.Len(t, history, 2)
	assert.Equal(t, "user", history[0]["sender"])

	s.engine.err = apperror.Unavailable("reasoning engine unreachable", true, errors.New("dial tcp"))
	rec = s.do(t, http.MethodPost, "/api/v1/sessions/"+sessionID+"/messages", map[string]any{"message": "still there?"})
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	errBody := decode(t, rec)["error"].(map[string]any)
	assert.Equal(t, true, errBody["details"].(map[string]any)["retryable"])
}
