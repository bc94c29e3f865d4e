package model

import (
	"time"
)

const (
	GoalStatusActive    = "active"
	GoalStatusCompleted = "completed"
	GoalStatusPaused    = "paused"
	GoalStatusArchived  = "archived"
)

var goalStatuses = map[string]bool{
	GoalStatusActive:    true,
	GoalStatusCompleted: true,
	GoalStatusPaused:    true,
	GoalStatusArchived:  true,
}

func IsValidGoalStatus(status string) bool {
	return goalStatuses[status]
}

type Goal struct {
	ID              string    `db:"id" json:"id"`
	UserID          string    `db:"user_id" json:"userId"`
	Title           string    `db:"title" json:"title"`
	Description     string    `db:"description" json:"description,omitempty"`
	Status          string    `db:"status" json:"status"`
	MinHoursPerWeek float64   `db:"min_hours_per_week" json:"minHoursPerWeek"`
	Priority        int       `db:"priority" json:"priority"`
	Color           *string   `db:"color" json:"color,omitempty"`
	CreatedAt       time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt       time.Time `db:"updated_at" json:"updatedAt"`
}

func (g *Goal) IsActive() bool {
	return g.Status == GoalStatusActive
}
