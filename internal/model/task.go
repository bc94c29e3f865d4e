package model

import (
	"time"
)

// DateLayout is the calendar-day format tasks are stored and compared in.
const DateLayout = "2006-01-02"

type Task struct {
	ID             string    `db:"id" json:"id"`
	UserID         string    `db:"user_id" json:"userId"`
	GoalID         string    `db:"goal_id" json:"goalId"`
	MilestoneID    string    `db:"milestone_id" json:"milestoneId"`
	Title          string    `db:"title" json:"title"`
	Description    string    `db:"description" json:"description,omitempty"`
	Date           string    `db:"date" json:"date"`
	EstimatedHours float64   `db:"estimated_hours" json:"estimatedHours"`
	Done           bool      `db:"done" json:"done"`
	CreatedAt      time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt      time.Time `db:"updated_at" json:"updatedAt"`
}
