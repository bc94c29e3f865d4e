package model

import (
	"time"
)

const (
	MilestoneStatusBlocked    = "blocked"
	MilestoneStatusInProgress = "in_progress"
	MilestoneStatusFinished   = "finished"
)

func IsValidMilestoneStatus(status string) bool {
	switch status {
	case MilestoneStatusBlocked, MilestoneStatusInProgress, MilestoneStatusFinished:
		return true
	}
	return false
}

type Milestone struct {
	ID          string    `db:"id" json:"id"`
	UserID      string    `db:"user_id" json:"userId"`
	GoalID      string    `db:"goal_id" json:"goalId"`
	ParentID    *string   `db:"parent_id" json:"parentId,omitempty"`
	Title       string    `db:"title" json:"title"`
	Description string    `db:"description" json:"description,omitempty"`
	Status      string    `db:"status" json:"status"`
	CreatedAt   time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt   time.Time `db:"updated_at" json:"updatedAt"`
}
