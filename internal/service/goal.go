package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/gritto/gritto/internal/apperror"
	"github.com/gritto/gritto/internal/model"
	"github.com/gritto/gritto/internal/repository"
	"github.com/gritto/gritto/internal/validation"
)

// GoalInput carries the fields of a new goal.
type GoalInput struct {
	Title           string
	Description     string
	Status          string
	MinHoursPerWeek float64
	Priority        int
	Color           *string
}

// GoalPatch carries optional goal changes; nil fields are left as they are.
type GoalPatch struct {
	Title           *string
	Description     *string
	Status          *string
	MinHoursPerWeek *float64
	Priority        *int
	Color           *string
}

type GoalService struct {
	repo   repository.GoalRepository
	users  repository.UserRepository
	ledger *CapacityLedger
}

func NewGoalService(
	repo repository.GoalRepository,
	users repository.UserRepository,
	ledger *CapacityLedger,
) *GoalService {
	return &GoalService{
		repo:   repo,
		users:  users,
		ledger: ledger,
	}
}

func (s *GoalService) Create(ctx context.Context, userID string, in GoalInput) (*model.Goal, error) {
	if err := validation.ValidateTitle(in.Title); err != nil {
		return nil, apperror.Validation(err.Error())
	}
	if err := validation.ValidateWeeklyHours(in.MinHoursPerWeek); err != nil {
		return nil, apperror.Validation(err.Error())
	}
	if in.Status == "" {
		in.Status = model.GoalStatusActive
	}
	if !model.IsValidGoalStatus(in.Status) {
		return nil, apperror.Validationf("invalid goal status %q", in.Status)
	}

	now := time.Now().UTC()
	goal := &model.Goal{
		ID:              uuid.New().String(),
		UserID:          userID,
		Title:           strings.TrimSpace(in.Title),
		Description:     in.Description,
		Status:          in.Status,
		MinHoursPerWeek: in.MinHoursPerWeek,
		Priority:        in.Priority,
		Color:           in.Color,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	if goal.IsActive() {
		if err := s.reserve(ctx, goal, PendingGoalID); err != nil {
			return nil, err
		}
	}

	if err := s.repo.Create(ctx, goal); err != nil {
		return nil, fmt.Errorf("failed to create goal: %w", err)
	}

	slog.Info("goal created", "goal_id", goal.ID, "user_id", userID, "hours", goal.MinHoursPerWeek)
	return goal, nil
}

// ByID returns a goal the user owns.
func (s *GoalService) ByID(ctx context.Context, userID, goalID string) (*model.Goal, error) {
	goal, err := s.repo.ByID(ctx, goalID)
	if err != nil {
		return nil, lookupErr(err, repository.ErrGoalNotFound, "goal")
	}
	if err := ensureOwner("goal", goal.UserID, userID); err != nil {
		return nil, err
	}
	return goal, nil
}

func (s *GoalService) Goals(ctx context.Context, userID, sortBy string) ([]*model.Goal, error) {
	goals, err := s.repo.Goals(ctx, userID, sortBy)
	if err != nil {
		return nil, fmt.Errorf("failed to list goals: %w", err)
	}
	return goals, nil
}

// Update applies patch. A goal that is or becomes active is re-checked
// against the user's capacity whenever its status or hours change.
func (s *GoalService) Update(ctx context.Context, userID, goalID string, patch GoalPatch) (*model.Goal, error) {
	// Verify ownership
	goal, err := s.ByID(ctx, userID, goalID)
	if err != nil {
		return nil, err
	}

	wasActive := goal.IsActive()
	oldHours := goal.MinHoursPerWeek

	if patch.Title != nil {
		if err := validation.ValidateTitle(*patch.Title); err != nil {
			return nil, apperror.Validation(err.Error())
		}
		goal.Title = strings.TrimSpace(*patch.Title)
	}
	if patch.Description != nil {
		goal.Description = *patch.Description
	}
	if patch.Status != nil {
		if !model.IsValidGoalStatus(*patch.Status) {
			return nil, apperror.Validationf("invalid goal status %q", *patch.Status)
		}
		goal.Status = *patch.Status
	}
	if patch.MinHoursPerWeek != nil {
		if err := validation.ValidateWeeklyHours(*patch.MinHoursPerWeek); err != nil {
			return nil, apperror.Validation(err.Error())
		}
		goal.MinHoursPerWeek = *patch.MinHoursPerWeek
	}
	if patch.Priority != nil {
		goal.Priority = *patch.Priority
	}
	if patch.Color != nil {
		goal.Color = patch.Color
	}

	if goal.IsActive() && (!wasActive || goal.MinHoursPerWeek != oldHours) {
		if err := s.reserve(ctx, goal, goal.ID); err != nil {
			return nil, err
		}
	}

	goal.UpdatedAt = time.Now().UTC()
	if err := s.repo.Update(ctx, goal); err != nil {
		return nil, fmt.Errorf("failed to update goal: %w", err)
	}
	return goal, nil
}

func (s *GoalService) Delete(ctx context.Context, userID, goalID string) error {
	// Verify ownership
	if _, err := s.ByID(ctx, userID, goalID); err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, userID, goalID); err != nil {
		return lookupErr(err, repository.ErrGoalNotFound, "goal")
	}
	return nil
}

// reserve checks goal's hours against its owner's other active goals.
// label names the goal in the conflict diagnostic.
func (s *GoalService) reserve(ctx context.Context, goal *model.Goal, label string) error {
	user, err := s.users.ByID(ctx, goal.UserID)
	if err != nil {
		return lookupErr(err, repository.ErrUserNotFound, "user")
	}
	return s.ledger.Reserve(ctx, user, apperror.GoalHours{
		GoalID:      label,
		Title:       goal.Title,
		WeeklyHours: goal.MinHoursPerWeek,
	}, goal.ID)
}
