package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/gritto/gritto/internal/apperror"
	"github.com/gritto/gritto/internal/model"
	"github.com/gritto/gritto/internal/repository"
	"github.com/gritto/gritto/internal/validation"
)

type TaskInput struct {
	Title          string
	Description    string
	Date           string
	EstimatedHours float64
}

type TaskPatch struct {
	Title          *string
	Description    *string
	Date           *string
	EstimatedHours *float64
	Done           *bool
}

type TaskService struct {
	repo       repository.TaskRepository
	users      repository.UserRepository
	milestones *MilestoneService
	conflicts  *ConflictChecker
	snapshots  *SnapshotBuilder
}

func NewTaskService(
	repo repository.TaskRepository,
	users repository.UserRepository,
	milestones *MilestoneService,
	conflicts *ConflictChecker,
	snapshots *SnapshotBuilder,
) *TaskService {
	return &TaskService{
		repo:       repo,
		users:      users,
		milestones: milestones,
		conflicts:  conflicts,
		snapshots:  snapshots,
	}
}

// Create schedules a task under a milestone. The milestone may hold at most
// one task per calendar day.
func (s *TaskService) Create(ctx context.Context, userID, milestoneID string, in TaskInput) (*model.Task, error) {
	milestone, err := s.milestones.ByID(ctx, userID, milestoneID)
	if err != nil {
		return nil, err
	}

	if err := validation.ValidateTitle(in.Title); err != nil {
		return nil, apperror.Validation(err.Error())
	}
	if err := validation.ValidateEstimate(in.EstimatedHours); err != nil {
		return nil, apperror.Validation(err.Error())
	}
	date, err := validation.NormalizeDate(in.Date)
	if err != nil {
		return nil, apperror.Validation(err.Error())
	}

	if err := s.conflicts.Ensure(ctx, milestone.ID, userID, date, ""); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	task := &model.Task{
		ID:             uuid.New().String(),
		UserID:         userID,
		GoalID:         milestone.GoalID,
		MilestoneID:    milestone.ID,
		Title:          strings.TrimSpace(in.Title),
		Description:    in.Description,
		Date:           date,
		EstimatedHours: in.EstimatedHours,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := s.repo.Create(ctx, task); err != nil {
		return nil, fmt.Errorf("failed to create task: %w", err)
	}
	return task, nil
}

// ByID returns a task the user owns.
func (s *TaskService) ByID(ctx context.Context, userID, taskID string) (*model.Task, error) {
	task, err := s.repo.ByID(ctx, taskID)
	if err != nil {
		return nil, lookupErr(err, repository.ErrTaskNotFound, "task")
	}
	if err := ensureOwner("task", task.UserID, userID); err != nil {
		return nil, err
	}
	return task, nil
}

func (s *TaskService) ByMilestone(ctx context.Context, userID, milestoneID string) ([]*model.Task, error) {
	if _, err := s.milestones.ByID(ctx, userID, milestoneID); err != nil {
		return nil, err
	}

	tasks, err := s.repo.ByMilestone(ctx, milestoneID)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	return tasks, nil
}

// Update applies patch. Moving a task to another day re-runs the same-day
// check, ignoring the task itself.
func (s *TaskService) Update(ctx context.Context, userID, taskID string, patch TaskPatch) (*model.Task, error) {
	task, err := s.ByID(ctx, userID, taskID)
	if err != nil {
		return nil, err
	}

	if patch.Title != nil {
		if err := validation.ValidateTitle(*patch.Title); err != nil {
			return nil, apperror.Validation(err.Error())
		}
		task.Title = strings.TrimSpace(*patch.Title)
	}
	if patch.Description != nil {
		task.Description = *patch.Description
	}
	if patch.EstimatedHours != nil {
		if err := validation.ValidateEstimate(*patch.EstimatedHours); err != nil {
			return nil, apperror.Validation(err.Error())
		}
		task.EstimatedHours = *patch.EstimatedHours
	}
	if patch.Done != nil {
		task.Done = *patch.Done
	}
	if patch.Date != nil {
		date, err := validation.NormalizeDate(*patch.Date)
		if err != nil {
			return nil, apperror.Validation(err.Error())
		}
		if date != task.Date {
			if err := s.conflicts.Ensure(ctx, task.MilestoneID, userID, date, task.ID); err != nil {
				return nil, err
			}
			task.Date = date
		}
	}

	task.UpdatedAt = time.Now().UTC()
	if err := s.repo.Update(ctx, task); err != nil {
		return nil, fmt.Errorf("failed to update task: %w", err)
	}
	return task, nil
}

func (s *TaskService) Delete(ctx context.Context, userID, taskID string) error {
	// Verify ownership
	if _, err := s.ByID(ctx, userID, taskID); err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, taskID); err != nil {
		return lookupErr(err, repository.ErrTaskNotFound, "task")
	}
	return nil
}

// Upcoming returns the user's incomplete tasks by date, with remaining hours.
func (s *TaskService) Upcoming(ctx context.Context, userID string) (model.PlanningContext, error) {
	user, err := s.users.ByID(ctx, userID)
	if err != nil {
		return model.PlanningContext{}, lookupErr(err, repository.ErrUserNotFound, "user")
	}
	return s.snapshots.Build(ctx, user)
}
