// Package agent talks to the goal-planning reasoning engine over its
// ADK-style HTTP API.
package agent

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/gritto/gritto/internal/apperror"
	"github.com/gritto/gritto/internal/metrics"
	"github.com/gritto/gritto/internal/model"
)

const (
	maxResponseBytes = 4 << 20

	partGoalPreview = "goal_preview_context"
	partTime        = "time_context"
	partTasks       = "task_context"
)

// Engine is the reasoning engine as seen by the planner.
type Engine interface {
	// Bootstrap initialises the remote conversation. Already-initialised
	// conversations are not an error.
	Bootstrap(ctx context.Context, userID, sessionID string) error
	Run(ctx context.Context, in RunInput) (*Decision, error)
}

// RunInput is the structured context submitted with one user message.
type RunInput struct {
	UserID      string
	SessionID   string
	Message     string
	GoalPreview map[string]any
	Context     model.PlanningContext
}

type Client struct {
	baseURL    string
	appName    string
	language   string
	httpClient *http.Client
}

func NewClient(baseURL, appName, language string, timeout time.Duration) *Client {
	return &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		appName:    appName,
		language:   language,
		httpClient: &http.Client{Timeout: timeout},
	}
}

func (c *Client) Bootstrap(ctx context.Context, userID, sessionID string) error {
	endpoint := fmt.Sprintf("%s/apps/%s/users/%s/sessions/%s",
		c.baseURL, url.PathEscape(c.appName), url.PathEscape(userID), url.PathEscape(sessionID))
	body := map[string]any{
		"state": map[string]any{"preferred_language": c.language},
	}

	status, _, err := c.post(ctx, "bootstrap", endpoint, body)
	if err != nil {
		return err
	}
	if status == http.StatusConflict {
		slog.Debug("agent session already initialised", "session_id", sessionID)
		return nil
	}
	return statusError("bootstrap", status)
}

func (c *Client) Run(ctx context.Context, in RunInput) (*Decision, error) {
	req := runRequest{
		AppName:   c.appName,
		UserID:    in.UserID,
		SessionID: in.SessionID,
		NewMessage: Content{
			Role:  "user",
			Parts: BuildParts(in),
		},
	}

	status, respBody, err := c.post(ctx, "run", c.baseURL+"/run", req)
	if err != nil {
		return nil, err
	}
	if err := statusError("run", status); err != nil {
		return nil, err
	}

	decision, err := ParseDecision(respBody)
	if err != nil {
		metrics.EngineCalls.WithLabelValues("run", "malformed").Inc()
		return nil, apperror.Unavailable("reasoning engine returned an unreadable decision", false, err)
	}
	return decision, nil
}

// BuildParts renders the message text followed by the named context entries.
func BuildParts(in RunInput) []Part {
	parts := []Part{{Text: in.Message}}

	if len(in.GoalPreview) > 0 {
		parts = append(parts, Part{FunctionCall: &FunctionCall{
			Name: partGoalPreview,
			Args: map[string]any{"goalPreview": in.GoalPreview},
		}})
	}

	tasks := in.Context.UpcomingTasks
	if tasks == nil {
		tasks = []model.UpcomingTask{}
	}
	parts = append(parts,
		Part{FunctionCall: &FunctionCall{
			Name: partTime,
			Args: map[string]any{"availableHoursLeft": in.Context.AvailableHoursLeft},
		}},
		Part{FunctionCall: &FunctionCall{
			Name: partTasks,
			Args: map[string]any{"upcomingTasks": tasks},
		}},
	)
	return parts
}

func (c *Client) post(ctx context.Context, op, endpoint string, payload any) (int, []byte, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return 0, nil, apperror.Internal("failed to encode agent request", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return 0, nil, apperror.Internal("failed to build agent request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	metrics.EngineLatency.WithLabelValues(op).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.EngineCalls.WithLabelValues(op, "unreachable").Inc()
		return 0, nil, apperror.Unavailable("reasoning engine unreachable", true, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		metrics.EngineCalls.WithLabelValues(op, "unreachable").Inc()
		return 0, nil, apperror.Unavailable("failed to read reasoning engine response", true, err)
	}

	metrics.EngineCalls.WithLabelValues(op, strconv.Itoa(resp.StatusCode)).Inc()
	if resp.StatusCode >= 300 && resp.StatusCode != http.StatusConflict {
		slog.Warn("agent call failed", "op", op, "status", resp.StatusCode, "body", truncate(string(respBody), 512))
	}
	return resp.StatusCode, respBody, nil
}

func statusError(op string, status int) error {
	if status >= 200 && status < 300 {
		return nil
	}
	retryable := status == http.StatusServiceUnavailable ||
		status == http.StatusBadGateway ||
		status == http.StatusGatewayTimeout ||
		status == http.StatusTooManyRequests
	return apperror.Unavailable(
		fmt.Sprintf("reasoning engine %s failed with status %d", op, status),
		retryable,
		fmt.Errorf("agent %s: http %d", op, status),
	)
}

// ParseDecision reads either a bare decision object or an ADK event list, in
// which case the last event whose text holds a decision wins.
func ParseDecision(body []byte) (*Decision, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return nil, errors.New("empty response")
	}

	var events []event
	switch trimmed[0] {
	case '{':
		if d, ok := decodeDecision(trimmed); ok {
			return d, nil
		}
		var single event
		if err := json.Unmarshal(trimmed, &single); err != nil {
			return nil, fmt.Errorf("decode response object: %w", err)
		}
		events = []event{single}
	case '[':
		if err := json.Unmarshal(trimmed, &events); err != nil {
			return nil, fmt.Errorf("decode event list: %w", err)
		}
	default:
		if d, ok := decodeDecision([]byte(extractJSON(string(trimmed)))); ok {
			return d, nil
		}
		return nil, errors.New("response is neither a decision nor an event list")
	}

	for i := len(events) - 1; i >= 0; i-- {
		if events[i].Content == nil {
			continue
		}
		var sb strings.Builder
		for _, p := range events[i].Content.Parts {
			sb.WriteString(p.Text)
		}
		raw := extractJSON(sb.String())
		if raw == "" {
			continue
		}
		if d, ok := decodeDecision([]byte(raw)); ok {
			return d, nil
		}
	}
	return nil, errors.New("no event carried a decision")
}

func decodeDecision(data []byte) (*Decision, bool) {
	var probe map[string]json.RawMessage
	if err := json.Unmarshal(data, &probe); err != nil {
		return nil, false
	}
	_, hasReply := probe["reply"]
	_, hasAction := probe["action"]
	if !hasReply && !hasAction {
		return nil, false
	}

	d := &Decision{}
	if v, ok := rawString(probe["reply"]); ok {
		d.Reply = v
	}
	if v, ok := probe["action"]; ok {
		d.Action = decodeAction(v)
	}
	if d.Action.Type == "" {
		d.Action.Type = ActionNone
	}
	if d.Action.Payload == nil {
		d.Action.Payload = map[string]any{}
	}
	if v, ok := probe["state"]; ok {
		// A malformed state object leaves every field to the local fallback.
		_ = json.Unmarshal(v, &d.State)
	}
	return d, true
}

func decodeAction(data json.RawMessage) Action {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return Action{}
	}
	var a Action
	if t, ok := rawString(raw["type"]); ok {
		a.Type = ActionType(t)
	}
	var payload map[string]any
	if err := json.Unmarshal(raw["payload"], &payload); err == nil {
		a.Payload = payload
	}
	return a
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
