package model

import (
	"time"
)

const (
	MaxHoursPerWeek = 168
)

type User struct {
	ID                    string    `db:"id" json:"id"`
	Email                 string    `db:"email" json:"email"`
	DisplayName           string    `db:"display_name" json:"displayName"`
	AvailableHoursPerWeek float64   `db:"available_hours_per_week" json:"availableHoursPerWeek"`
	CreatedAt             time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt             time.Time `db:"updated_at" json:"updatedAt"`
}
