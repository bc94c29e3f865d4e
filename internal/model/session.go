package model

import (
	"time"
)

// SessionStateTag is the phase of a planning conversation. Values outside the
// known set are carried through unchanged.
type SessionStateTag string

const (
	SessionStateDraft         SessionStateTag = "draft"
	SessionStateInProgress    SessionStateTag = "in_progress"
	SessionStatePlanGenerated SessionStateTag = "plan_generated"
	SessionStatePlanIteration SessionStateTag = "plan_iteration"
	SessionStateFinalized     SessionStateTag = "finalized"
)

// Known reports whether the tag is one of the recognised phases.
func (t SessionStateTag) Known() bool {
	switch t {
	case SessionStateDraft, SessionStateInProgress, SessionStatePlanGenerated,
		SessionStatePlanIteration, SessionStateFinalized:
		return true
	}
	return false
}

func (t SessionStateTag) IsTerminal() bool {
	return t == SessionStateFinalized
}

type Session struct {
	ID            string          `db:"id" json:"id"`
	UserID        string          `db:"user_id" json:"userId"`
	ChatID        string          `db:"chat_id" json:"chatId"`
	State         SessionStateTag `db:"state" json:"state"`
	Iteration     int             `db:"iteration" json:"iteration"`
	GoalPreviewID *string         `db:"goal_preview_id" json:"goalPreviewId"`
	SessionActive bool            `db:"session_active" json:"sessionActive"`
	Context       PlanningContext `db:"context" json:"context"`
	CreatedAt     time.Time       `db:"created_at" json:"createdAt"`
	UpdatedAt     time.Time       `db:"updated_at" json:"updatedAt"`
}

type GoalPreview struct {
	ID        string    `db:"id" json:"id"`
	UserID    string    `db:"user_id" json:"userId"`
	SessionID string    `db:"session_id" json:"sessionId"`
	Iteration int       `db:"iteration" json:"iteration"`
	Payload   JSONMap   `db:"payload" json:"payload"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}
