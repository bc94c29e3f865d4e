package agent

import (
	"encoding/json"
	"strconv"
	"strings"
)

type ActionType string

const (
	ActionSavePreview  ActionType = "save_preview"
	ActionFinalizeGoal ActionType = "finalize_goal"
	ActionNone         ActionType = "none"
)

func (a ActionType) Known() bool {
	switch a {
	case ActionSavePreview, ActionFinalizeGoal, ActionNone:
		return true
	}
	return false
}

// Action is the persistence step the engine asks the backend to take.
type Action struct {
	Type    ActionType     `json:"type"`
	Payload map[string]any `json:"payload"`
}

// StateUpdate carries the engine's view of the session. Nil fields were not
// supplied and fall back to locally computed values.
type StateUpdate struct {
	State         *string `json:"state,omitempty"`
	Iteration     *int    `json:"iteration,omitempty"`
	SessionActive *bool   `json:"sessionActive,omitempty"`
	GoalPreviewID *string `json:"goalPreviewId,omitempty"`
}

// UnmarshalJSON accepts the tag under "state" or "step" and tolerates
// iterations encoded as floats or strings.
func (s *StateUpdate) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	*s = StateUpdate{}
	for _, key := range []string{"state", "step"} {
		if tag, ok := rawString(raw[key]); ok && tag != "" {
			s.State = &tag
			break
		}
	}
	if n, ok := rawInt(raw["iteration"]); ok {
		s.Iteration = &n
	}
	var active bool
	if v, ok := raw["sessionActive"]; ok && json.Unmarshal(v, &active) == nil {
		s.SessionActive = &active
	}
	if id, ok := rawString(raw["goalPreviewId"]); ok && id != "" {
		s.GoalPreviewID = &id
	}
	return nil
}

// Decision is the structured response of a run call.
type Decision struct {
	Reply  string      `json:"reply"`
	Action Action      `json:"action"`
	State  StateUpdate `json:"state"`
}

func rawString(v json.RawMessage) (string, bool) {
	if len(v) == 0 {
		return "", false
	}
	var s string
	if err := json.Unmarshal(v, &s); err != nil {
		return "", false
	}
	return strings.TrimSpace(s), true
}

func rawInt(v json.RawMessage) (int, bool) {
	if len(v) == 0 {
		return 0, false
	}
	var f float64
	if err := json.Unmarshal(v, &f); err == nil {
		return int(f), true
	}
	if s, ok := rawString(v); ok {
		if n, err := strconv.Atoi(s); err == nil {
			return n, true
		}
	}
	return 0, false
}

// Part is one element of an ADK message: free text or a named structured
// context entry.
type Part struct {
	Text         string        `json:"text,omitempty"`
	FunctionCall *FunctionCall `json:"function_call,omitempty"`
}

type FunctionCall struct {
	Name string         `json:"name"`
	Args map[string]any `json:"args"`
}

type Content struct {
	Role  string `json:"role"`
	Parts []Part `json:"parts"`
}

type runRequest struct {
	AppName    string  `json:"app_name"`
	UserID     string  `json:"user_id"`
	SessionID  string  `json:"session_id"`
	NewMessage Content `json:"new_message"`
}

// event is the subset of an ADK event the client reads.
type event struct {
	Author  string `json:"author"`
	Content *struct {
		Parts []Part `json:"parts"`
	} `json:"content"`
}
