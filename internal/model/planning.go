package model

import (
	"database/sql/driver"
	"encoding/json"
)

// UpcomingTask is the reduced task shape forwarded to the reasoning engine.
type UpcomingTask struct {
	ID             string  `json:"id"`
	Title          string  `json:"title"`
	GoalID         string  `json:"goalId"`
	MilestoneID    string  `json:"milestoneId"`
	Date           string  `json:"date"`
	EstimatedHours float64 `json:"estimatedHours"`
	Done           bool    `json:"done"`
}

// PlanningContext is the point-in-time snapshot of a user's capacity and workload.
type PlanningContext struct {
	AvailableHoursLeft float64        `json:"availableHoursLeft"`
	UpcomingTasks      []UpcomingTask `json:"upcomingTasks"`
}

func (c PlanningContext) Value() (driver.Value, error) {
	if c.UpcomingTasks == nil {
		c.UpcomingTasks = []UpcomingTask{}
	}
	b, err := json.Marshal(c)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (c *PlanningContext) Scan(src any) error {
	return scanJSON(src, c)
}
