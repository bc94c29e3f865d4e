package agent

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gritto/gritto/internal/apperror"
	"github.com/gritto/gritto/internal/model"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL+"/", "goal_planning_agent", "de", 5*time.Second)
}

func TestBootstrap_SendsLanguageAndTolerates409(t *testing.T) {
	var calls int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt32(&calls, 1)
		assert.Equal(t, "/apps/goal_planning_agent/users/u1/sessions/s1", r.URL.Path)

		var body map[string]map[string]string
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "de", body["state"]["preferred_language"])

		if n > 1 {
			w.WriteHeader(http.StatusConflict)
			return
		}
		w.WriteHeader(http.StatusOK)
	})

	require.NoError(t, c.Bootstrap(context.Background(), "u1", "s1"))
	require.NoError(t, c.Bootstrap(context.Background(), "u1", "s1"))
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestBootstrap_ServerErrorIsUnavailable(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	err := c.Bootstrap(context.Background(), "u1", "s1")
	require.Error(t, err)
	appErr, ok := apperror.As(err)
	require.True(t, ok)
	assert.Equal(t, apperror.KindUnavailable, appErr.Kind)
	assert.True(t, appErr.Retryable)
}

func TestRun_SendsStructuredParts(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/run", r.URL.Path)

		var req runRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "goal_planning_agent", req.AppName)
		assert.Equal(t, "u1", req.UserID)
		assert.Equal(t, "s1", req.SessionID)
		assert.Equal(t, "user", req.NewMessage.Role)
		if !assert.Len(t, req.NewMessage.Parts, 4) {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		assert.Equal(t, "learn piano", req.NewMessage.Parts[0].Text)
		assert.Equal(t, "goal_preview_context", req.NewMessage.Parts[1].FunctionCall.Name)
		assert.Equal(t, "time_context", req.NewMessage.Parts[2].FunctionCall.Name)
		assert.Equal(t, 12.5, req.NewMessage.Parts[2].FunctionCall.Args["availableHoursLeft"])
		assert.Equal(t, "task_context", req.NewMessage.Parts[3].FunctionCall.Name)

		_, _ = w.Write([]byte(`{"reply":"ok","action":{"type":"none","payload":{}},"state":{"step":"plan_generated","iteration":1,"sessionActive":true}}`))
	})

	d, err := c.Run(context.Background(), RunInput{
		UserID:      "u1",
		SessionID:   "s1",
		Message:     "learn piano",
		GoalPreview: map[string]any{"goal": map[string]any{"title": "Piano"}},
		Context: model.PlanningContext{
			AvailableHoursLeft: 12.5,
			UpcomingTasks:      []model.UpcomingTask{{ID: "t1", Date: "2025-11-10"}},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "ok", d.Reply)
	assert.Equal(t, ActionNone, d.Action.Type)
	require.NotNil(t, d.State.State)
	assert.Equal(t, "plan_generated", *d.State.State)
	require.NotNil(t, d.State.Iteration)
	assert.Equal(t, 1, *d.State.Iteration)
}

func TestBuildParts_OmitsEmptyPreview(t *testing.T) {
	parts := BuildParts(RunInput{Message: "hi"})
	require.Len(t, parts, 3)
	assert.Equal(t, "time_context", parts[1].FunctionCall.Name)
	assert.Equal(t, []model.UpcomingTask{}, parts[2].FunctionCall.Args["upcomingTasks"])
}

func TestRun_TransportFailure(t *testing.T) {
	c := NewClient("http://127.0.0.1:1", "app", "en", time.Second)
	_, err := c.Run(context.Background(), RunInput{UserID: "u", SessionID: "s", Message: "x"})
	require.Error(t, err)
	assert.Equal(t, apperror.KindUnavailable, apperror.KindOf(err))
}

func TestRun_BadRequestNotRetryable(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad", http.StatusBadRequest)
	})
	_, err := c.Run(context.Background(), RunInput{UserID: "u", SessionID: "s", Message: "x"})
	appErr, ok := apperror.As(err)
	require.True(t, ok)
	assert.Equal(t, apperror.KindUnavailable, appErr.Kind)
	assert.False(t, appErr.Retryable)
}

func TestParseDecision_EventList(t *testing.T) {
	body := `[
		{"author":"CheckApprovalAgent","content":{"parts":[{"text":"{\"routing\":\"needs_planning\"}"}]}},
		{"author":"PlanAgent","content":{"parts":[{"text":"{\"goal\":{\"title\":\"x\"}}"}]}},
		{"author":"FinalizeAgent","content":{"parts":[{"text":"` + "```json\\n{\\\"reply\\\":\\\"Here is a plan\\\",\\\"action\\\":{\\\"type\\\":\\\"save_preview\\\",\\\"payload\\\":{\\\"iteration\\\":1,}},\\\"state\\\":{\\\"step\\\":\\\"plan_generated\\\",\\\"iteration\\\":\\\"1\\\",\\\"sessionActive\\\":true}}\\n```" + `"}]}}
	]`

	d, err := ParseDecision([]byte(body))
	require.NoError(t, err)
	assert.Equal(t, "Here is a plan", d.Reply)
	assert.Equal(t, ActionSavePreview, d.Action.Type)
	assert.Equal(t, float64(1), d.Action.Payload["iteration"])
	require.NotNil(t, d.State.Iteration)
	assert.Equal(t, 1, *d.State.Iteration)
	require.NotNil(t, d.State.SessionActive)
	assert.True(t, *d.State.SessionActive)
}

func TestParseDecision_Defaults(t *testing.T) {
	d, err := ParseDecision([]byte(`{"reply":"hello"}`))
	require.NoError(t, err)
	assert.Equal(t, ActionNone, d.Action.Type)
	assert.NotNil(t, d.Action.Payload)
	assert.Nil(t, d.State.State)
	assert.Nil(t, d.State.Iteration)
	assert.Nil(t, d.State.SessionActive)
}

func TestParseDecision_StateKeyPreferredOverStep(t *testing.T) {
	d, err := ParseDecision([]byte(`{"reply":"r","state":{"state":"finalized","step":"plan_iteration","goalPreviewId":"p9"}}`))
	require.NoError(t, err)
	assert.Equal(t, "finalized", *d.State.State)
	assert.Equal(t, "p9", *d.State.GoalPreviewID)
}

func TestParseDecision_Garbage(t *testing.T) {
	_, err := ParseDecision([]byte(`[{"author":"x","content":{"parts":[{"text":"no json here"}]}}]`))
	assert.Error(t, err)
	_, err = ParseDecision([]byte(``))
	assert.Error(t, err)
	_, err = ParseDecision([]byte(`plain text`))
	assert.Error(t, err)
}

func TestActionType_Known(t *testing.T) {
	assert.True(t, ActionFinalizeGoal.Known())
	assert.False(t, ActionType("delete_everything").Known())
}

func TestParseDecision_KeepsCommasInsideStrings(t *testing.T) {
	body := `[{"author":"FinalizeAgent","content":{"parts":[{"text":"{\"reply\":\"Pick: [run, swim, ] or {a, }\",\"action\":{\"type\":\"none\",\"payload\":{}}}"}]}}]`

	d, err := ParseDecision([]byte(body))
	require.NoError(t, err)
	assert.Equal(t, "Pick: [run, swim, ] or {a, }", d.Reply)
}

func TestExtractJSON_RepairsOnlyInvalid(t *testing.T) {
	assert.Equal(t, `{"a":"x, }"}`, extractJSON("```json\n{\"a\":\"x, }\"}\n```"))
	assert.Equal(t, `{"a":[1,2]}`, extractJSON(`note {"a":[1,2,],}`))
	assert.Equal(t, "", extractJSON("no object"))
}
