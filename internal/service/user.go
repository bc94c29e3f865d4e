package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/gritto/gritto/internal/apperror"
	"github.com/gritto/gritto/internal/model"
	"github.com/gritto/gritto/internal/repository"
	"github.com/gritto/gritto/internal/validation"
)

type UserService struct {
	userRepository repository.UserRepository
	ledger         *CapacityLedger
	defaultHours   float64
}

func NewUserService(
	userRepository repository.UserRepository,
	ledger *CapacityLedger,
	defaultHours float64,
) *UserService {
	return &UserService{
		userRepository: userRepository,
		ledger:         ledger,
		defaultHours:   defaultHours,
	}
}

func (s *UserService) ByID(ctx context.Context, id string) (*model.User, error) {
	user, err := s.userRepository.ByID(ctx, id)
	if err != nil {
		return nil, lookupErr(err, repository.ErrUserNotFound, "user")
	}
	return user, nil
}

// EnsureUser returns the user behind an authenticated identity, creating the
// record with the default weekly hours on first sight.
func (s *UserService) EnsureUser(ctx context.Context, id, email string) (*model.User, error) {
	user, err := s.userRepository.ByID(ctx, id)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, repository.ErrUserNotFound) {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	email = strings.TrimSpace(strings.ToLower(email))
	if err := validation.ValidateEmail(email); err != nil {
		return nil, apperror.Validation(err.Error())
	}

	now := time.Now().UTC()
	user = &model.User{
		ID:                    id,
		Email:                 email,
		AvailableHoursPerWeek: s.defaultHours,
		CreatedAt:             now,
		UpdatedAt:             now,
	}
	if err := s.userRepository.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return nil, apperror.Validation("email already belongs to another account")
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	slog.Info("user provisioned", "user_id", id)
	return user, nil
}

// ProfilePatch carries optional profile changes.
type ProfilePatch struct {
	DisplayName           *string
	AvailableHoursPerWeek *float64
}

// UpdateProfile applies patch. Available hours may not drop below the hours
// already committed to active goals.
func (s *UserService) UpdateProfile(ctx context.Context, userID string, patch ProfilePatch) (*model.User, error) {
	user, err := s.ByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if patch.DisplayName != nil {
		if err := validation.ValidateName(*patch.DisplayName); err != nil {
			return nil, apperror.Validation(err.Error())
		}
		user.DisplayName = strings.TrimSpace(*patch.DisplayName)
	}

	if patch.AvailableHoursPerWeek != nil {
		hours := *patch.AvailableHoursPerWeek
		if err := validation.ValidateWeeklyHours(hours); err != nil {
			return nil, apperror.Validation(err.Error())
		}

		reduced := *user
		reduced.AvailableHoursPerWeek = hours
		exceeded, err := s.ledger.WouldExceed(ctx, &reduced, 0, "")
		if err != nil {
			return nil, err
		}
		if exceeded {
			summaries, err := s.ledger.ActiveGoalSummaries(ctx, userID, "")
			if err != nil {
				return nil, err
			}
			return nil, apperror.CapacityConflict(apperror.CapacityConflictDetails{
				AvailableHoursPerWeek: hours,
				RequiredHoursPerWeek:  sumHours(summaries),
				ConflictingGoals:      summaries,
			})
		}
		user.AvailableHoursPerWeek = hours
	}

	user.UpdatedAt = time.Now().UTC()
	if err := s.userRepository.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to update user: %w", err)
	}
	return user, nil
}
