package service

import (
	"context"
	"fmt"

	"github.com/gritto/gritto/internal/apperror"
	"github.com/gritto/gritto/internal/model"
	"github.com/gritto/gritto/internal/repository"
)

// PendingGoalID labels a not-yet-persisted goal in capacity diagnostics.
const PendingGoalID = "pending"

// hoursEpsilon absorbs float drift when summing fractional weekly hours.
const hoursEpsilon = 1e-9

// CapacityLedger keeps the sum of active goals' weekly hours within the
// user's available hours.
type CapacityLedger struct {
	goals repository.GoalRepository
}

func NewCapacityLedger(goals repository.GoalRepository) *CapacityLedger {
	return &CapacityLedger{goals: goals}
}

// ActiveGoalSummaries lists the user's active goals, skipping excludeGoalID.
func (l *CapacityLedger) ActiveGoalSummaries(ctx context.Context, userID, excludeGoalID string) ([]apperror.GoalHours, error) {
	goals, err := l.goals.ActiveGoals(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load active goals: %w", err)
	}

	summaries := make([]apperror.GoalHours, 0, len(goals))
	for _, g := range goals {
		if g.ID == excludeGoalID {
			continue
		}
		summaries = append(summaries, apperror.GoalHours{GoalID: g.ID, Title: g.Title, WeeklyHours: g.MinHoursPerWeek})
	}
	return summaries, nil
}

// CommittedHours sums the weekly hours of the user's active goals.
func (l *CapacityLedger) CommittedHours(ctx context.Context, userID, excludeGoalID string) (float64, error) {
	summaries, err := l.ActiveGoalSummaries(ctx, userID, excludeGoalID)
	if err != nil {
		return 0, err
	}
	return sumHours(summaries), nil
}

// RemainingHours is available minus committed, clamped at zero.
func (l *CapacityLedger) RemainingHours(ctx context.Context, user *model.User, excludeGoalID string) (float64, error) {
	committed, err := l.CommittedHours(ctx, user.ID, excludeGoalID)
	if err != nil {
		return 0, err
	}
	return max(user.AvailableHoursPerWeek-committed, 0), nil
}

// WouldExceed reports whether adding candidateHours breaks the budget.
func (l *CapacityLedger) WouldExceed(ctx context.Context, user *model.User, candidateHours float64, excludeGoalID string) (bool, error) {
	committed, err := l.CommittedHours(ctx, user.ID, excludeGoalID)
	if err != nil {
		return false, err
	}
	return committed+candidateHours > user.AvailableHoursPerWeek+hoursEpsilon, nil
}

// Reserve checks that candidate fits next to the user's other active goals
// and returns a capacity conflict describing the overrun when it does not.
func (l *CapacityLedger) Reserve(ctx context.Context, user *model.User, candidate apperror.GoalHours, excludeGoalID string) error {
	summaries, err := l.ActiveGoalSummaries(ctx, user.ID, excludeGoalID)
	if err != nil {
		return err
	}

	required := sumHours(summaries) + candidate.WeeklyHours
	if required <= user.AvailableHoursPerWeek+hoursEpsilon {
		return nil
	}

	if candidate.GoalID == "" {
		candidate.GoalID = PendingGoalID
	}
	return apperror.CapacityConflict(apperror.CapacityConflictDetails{
		AvailableHoursPerWeek: user.AvailableHoursPerWeek,
		RequiredHoursPerWeek:  required,
		ConflictingGoals:      append(summaries, candidate),
	})
}

func sumHours(goals []apperror.GoalHours) float64 {
	var total float64
	for _, g := range goals {
		total += g.WeeklyHours
	}
	return total
}
