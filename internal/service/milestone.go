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

type MilestoneInput struct {
	Title       string
	Description string
	Status      string
	ParentID    *string
}

type MilestonePatch struct {
	Title       *string
	Description *string
	Status      *string
}

type MilestoneService struct {
	repo  repository.MilestoneRepository
	goals *GoalService
}

func NewMilestoneService(repo repository.MilestoneRepository, goals *GoalService) *MilestoneService {
	return &MilestoneService{repo: repo, goals: goals}
}

func (s *MilestoneService) Create(ctx context.Context, userID, goalID string, in MilestoneInput) (*model.Milestone, error) {
	// Verify ownership
	goal, err := s.goals.ByID(ctx, userID, goalID)
	if err != nil {
		return nil, err
	}

	if err := validation.ValidateTitle(in.Title); err != nil {
		return nil, apperror.Validation(err.Error())
	}
	if in.Status == "" {
		in.Status = model.MilestoneStatusInProgress
	}
	if !model.IsValidMilestoneStatus(in.Status) {
		return nil, apperror.Validationf("invalid milestone status %q", in.Status)
	}

	if in.ParentID != nil {
		parent, err := s.ByID(ctx, userID, *in.ParentID)
		if err != nil {
			return nil, err
		}
		if parent.GoalID != goal.ID {
			return nil, apperror.Validation("parent milestone belongs to a different goal")
		}
	}

	now := time.Now().UTC()
	milestone := &model.Milestone{
		ID:          uuid.New().String(),
		UserID:      userID,
		GoalID:      goal.ID,
		ParentID:    in.ParentID,
		Title:       strings.TrimSpace(in.Title),
		Description: in.Description,
		Status:      in.Status,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.repo.Create(ctx, milestone); err != nil {
		return nil, fmt.Errorf("failed to create milestone: %w", err)
	}
	return milestone, nil
}

// ByID returns a milestone the user owns.
func (s *MilestoneService) ByID(ctx context.Context, userID, milestoneID string) (*model.Milestone, error) {
	milestone, err := s.repo.ByID(ctx, milestoneID)
	if err != nil {
		return nil, lookupErr(err, repository.ErrMilestoneNotFound, "milestone")
	}
	if err := ensureOwner("milestone", milestone.UserID, userID); err != nil {
		return nil, err
	}
	return milestone, nil
}

func (s *MilestoneService) ByGoal(ctx context.Context, userID, goalID string) ([]*model.Milestone, error) {
	if _, err := s.goals.ByID(ctx, userID, goalID); err != nil {
		return nil, err
	}

	milestones, err := s.repo.ByGoal(ctx, goalID)
	if err != nil {
		return nil, fmt.Errorf("failed to list milestones: %w", err)
	}
	return milestones, nil
}

func (s *MilestoneService) Update(ctx context.Context, userID, milestoneID string, patch MilestonePatch) (*model.Milestone, error) {
	milestone, err := s.ByID(ctx, userID, milestoneID)
	if err != nil {
		return nil, err
	}

	if patch.Title != nil {
		if err := validation.ValidateTitle(*patch.Title); err != nil {
			return nil, apperror.Validation(err.Error())
		}
		milestone.Title = strings.TrimSpace(*patch.Title)
	}
	if patch.Description != nil {
		milestone.Description = *patch.Description
	}
	if patch.Status != nil {
		if !model.IsValidMilestoneStatus(*patch.Status) {
			return nil, apperror.Validationf("invalid milestone status %q", *patch.Status)
		}
		milestone.Status = *patch.Status
	}

	milestone.UpdatedAt = time.Now().UTC()
	if err := s.repo.Update(ctx, milestone); err != nil {
		return nil, fmt.Errorf("failed to update milestone: %w", err)
	}
	return milestone, nil
}
