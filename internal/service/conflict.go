package service

import (
	"context"
	"fmt"

	"github.com/gritto/gritto/internal/apperror"
	"github.com/gritto/gritto/internal/repository"
)

// ConflictChecker enforces at most one task per milestone per calendar day.
type ConflictChecker struct {
	tasks repository.TaskRepository
}

func NewConflictChecker(tasks repository.TaskRepository) *ConflictChecker {
	return &ConflictChecker{tasks: tasks}
}

// Conflicts returns the ids of tasks already scheduled on date under the
// milestone. excludeTaskID lets an update ignore the task being moved.
func (c *ConflictChecker) Conflicts(ctx context.Context, milestoneID, userID, date, excludeTaskID string) ([]string, error) {
	ids, err := c.tasks.SameDay(ctx, milestoneID, userID, date, excludeTaskID)
	if err != nil {
		return nil, fmt.Errorf("check schedule: %w", err)
	}
	return ids, nil
}

// Ensure returns a schedule conflict when date is already taken.
func (c *ConflictChecker) Ensure(ctx context.Context, milestoneID, userID, date, excludeTaskID string) error {
	ids, err := c.Conflicts(ctx, milestoneID, userID, date, excludeTaskID)
	if err != nil {
		return err
	}
	if len(ids) > 0 {
		return apperror.ScheduleConflict(milestoneID, date, ids)
	}
	return nil
}
