package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/gritto/gritto/internal/apperror"
	"github.com/gritto/gritto/internal/model"
	"github.com/gritto/gritto/internal/repository"
)

// FinalizeResult identifies the records created by a committed plan.
type FinalizeResult struct {
	Goal          *model.Goal
	MilestoneIDs  []string
	TaskIDs       []string
	GoalPreviewID string
	Source        string
}

// FinalizationCommitter turns an approved plan into goal, milestone and task
// records after checking the user's weekly capacity.
type FinalizationCommitter struct {
	ledger     *CapacityLedger
	goals      repository.GoalRepository
	milestones repository.MilestoneRepository
	tasks      repository.TaskRepository
	previews   repository.GoalPreviewRepository
	now        func() time.Time
}

func NewFinalizationCommitter(
	ledger *CapacityLedger,
	goals repository.GoalRepository,
	milestones repository.MilestoneRepository,
	tasks repository.TaskRepository,
	previews repository.GoalPreviewRepository,
) *FinalizationCommitter {
	return &FinalizationCommitter{
		ledger:     ledger,
		goals:      goals,
		milestones: milestones,
		tasks:      tasks,
		previews:   previews,
		now:        time.Now,
	}
}

// Commit persists the plan carried by payload. Nothing is written when the
// new goal would exceed the user's available hours. Same-day schedule
// conflicts are not checked for engine plans.
func (c *FinalizationCommitter) Commit(ctx context.Context, user *model.User, payload map[string]any, previewID string) (*FinalizeResult, error) {
	doc, source, err := c.resolvePlan(ctx, planRequest{userID: user.ID, payload: payload, previewID: previewID})
	if err != nil {
		return nil, err
	}

	now := c.now().UTC()
	p := coercePlan(doc, now)

	err = c.ledger.Reserve(ctx, user, apperror.GoalHours{
		GoalID:      PendingGoalID,
		Title:       p.Goal.Title,
		WeeklyHours: p.Goal.Hours,
	}, "")
	if err != nil {
		return nil, err
	}

	goal := &model.Goal{
		ID:              uuid.New().String(),
		UserID:          user.ID,
		Title:           p.Goal.Title,
		Description:     p.Goal.Description,
		Status:          model.GoalStatusActive,
		MinHoursPerWeek: p.Goal.Hours,
		Priority:        p.Goal.Priority,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if p.Goal.Color != "" {
		color := p.Goal.Color
		goal.Color = &color
	}

	if err := c.goals.Create(ctx, goal); err != nil {
		return nil, fmt.Errorf("failed to create goal: %w", err)
	}

	result := &FinalizeResult{
		Goal:          goal,
		MilestoneIDs:  []string{},
		TaskIDs:       []string{},
		GoalPreviewID: previewID,
		Source:        source,
	}
	if id, ok := payload["goalPreviewId"].(string); ok && id != "" {
		result.GoalPreviewID = id
	}

	if err := c.createChildren(ctx, goal, p.Milestones, result, now); err != nil {
		// Rollback: milestones and tasks cascade with the goal
		if delErr := c.goals.Delete(ctx, user.ID, goal.ID); delErr != nil {
			slog.Error("failed to delete goal during rollback", "error", delErr, "goal_id", goal.ID)
		}
		return nil, err
	}

	slog.Info("plan finalized",
		"user_id", user.ID,
		"goal_id", goal.ID,
		"source", source,
		"milestones", len(result.MilestoneIDs),
		"tasks", len(result.TaskIDs),
	)
	return result, nil
}

// createChildren stamps each record a microsecond apart so listings ordered
// by created_at follow plan order.
func (c *FinalizationCommitter) createChildren(ctx context.Context, goal *model.Goal, milestones []planMilestone, result *FinalizeResult, now time.Time) error {
	seq := 0
	stamp := func() time.Time {
		seq++
		return now.Add(time.Duration(seq) * time.Microsecond)
	}

	for _, pm := range milestones {
		createdAt := stamp()
		milestone := &model.Milestone{
			ID:          uuid.New().String(),
			UserID:      goal.UserID,
			GoalID:      goal.ID,
			Title:       pm.Title,
			Description: pm.Description,
			Status:      pm.Status,
			CreatedAt:   createdAt,
			UpdatedAt:   createdAt,
		}
		if err := c.milestones.Create(ctx, milestone); err != nil {
			return fmt.Errorf("failed to create milestone: %w", err)
		}
		result.MilestoneIDs = append(result.MilestoneIDs, milestone.ID)

		for _, pt := range pm.Tasks {
			createdAt := stamp()
			task := &model.Task{
				ID:             uuid.New().String(),
				UserID:         goal.UserID,
				GoalID:         goal.ID,
				MilestoneID:    milestone.ID,
				Title:          pt.Title,
				Description:    pt.Description,
				Date:           pt.Date,
				EstimatedHours: pt.EstimatedHours,
				CreatedAt:      createdAt,
				UpdatedAt:      createdAt,
			}
			if err := c.tasks.Create(ctx, task); err != nil {
				return fmt.Errorf("failed to create task: %w", err)
			}
			if pt.Done {
				if err := c.tasks.SetDone(ctx, task.ID, true); err != nil {
					return fmt.Errorf("failed to complete task: %w", err)
				}
			}
			result.TaskIDs = append(result.TaskIDs, task.ID)
		}
	}
	return nil
}
