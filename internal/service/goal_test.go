package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gritto/gritto/internal/apperror"
	"github.com/gritto/gritto/internal/model"
)

func TestGoalService_CreateRejectsOverCapacity(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u := f.user(t, 20)
	existing := f.activeGoal(t, u.ID, 18)

	_, err := f.goals.Create(ctx, u.ID, GoalInput{Title: "Spanish", MinHoursPerWeek: 5})
	require.Error(t, err)
	require.True(t, apperror.HasCode(err, apperror.CodeCapacityConflict))

	appErr, _ := apperror.As(err)
	details := appErr.Details.(apperror.CapacityConflictDetails)
	assert.Equal(t, 20.0, details.AvailableHoursPerWeek)
	assert.Equal(t, 23.0, details.RequiredHoursPerWeek)
	require.Len(t, details.ConflictingGoals, 2)
	assert.Equal(t, existing.ID, details.ConflictingGoals[0].GoalID)
	assert.Equal(t, PendingGoalID, details.ConflictingGoals[1].GoalID)
	assert.Equal(t, "Spanish", details.ConflictingGoals[1].Title)

	assert.Equal(t, 1, f.countGoals(t, u.ID))
}

func TestGoalService_CreateInactiveSkipsCapacity(t *testing.T) {
	f := newFixture(t)
	u := f.user(t, 10)
	f.activeGoal(t, u.ID, 10)

	g, err := f.goals.Create(context.Background(), u.ID, GoalInput{Title: "Someday", Status: model.GoalStatusPaused, MinHoursPerWeek: 8})
	require.NoError(t, err)
	assert.Equal(t, model.GoalStatusPaused, g.Status)
}

func TestGoalService_UpdateRevalidatesCapacity(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u := f.user(t, 20)
	active := f.activeGoal(t, u.ID, 12)
	paused, err := f.goals.Create(ctx, u.ID, GoalInput{Title: "Later", Status: model.GoalStatusPaused, MinHoursPerWeek: 10})
	require.NoError(t, err)

	_, err = f.goals.Update(ctx, u.ID, paused.ID, GoalPatch{Status: ptr(model.GoalStatusActive)})
	assert.True(t, apperror.HasCode(err, apperror.CodeCapacityConflict))

	// The goal's own hours are not double counted.
	updated, err := f.goals.Update(ctx, u.ID, active.ID, GoalPatch{MinHoursPerWeek: ptr(20.0)})
	require.NoError(t, err)
	assert.Equal(t, 20.0, updated.MinHoursPerWeek)

	_, err = f.goals.Update(ctx, u.ID, active.ID, GoalPatch{MinHoursPerWeek: ptr(21.0)})
	assert.True(t, apperror.HasCode(err, apperror.CodeCapacityConflict))

	_, err = f.goals.Update(ctx, u.ID, active.ID, GoalPatch{Title: ptr("Renamed")})
	assert.NoError(t, err)
}

func TestGoalService_Ownership(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.user(t, 20)
	other := f.user(t, 20)
	g := f.activeGoal(t, owner.ID, 2)

	_, err := f.goals.ByID(ctx, other.ID, g.ID)
	assert.Equal(t, apperror.KindForbidden, apperror.KindOf(err))

	_, err = f.goals.ByID(ctx, owner.ID, "missing")
	assert.Equal(t, apperror.KindNotFound, apperror.KindOf(err))

	assert.Equal(t, apperror.KindForbidden, apperror.KindOf(f.goals.Delete(ctx, other.ID, g.ID)))
	require.NoError(t, f.goals.Delete(ctx, owner.ID, g.ID))
}

func TestGoalService_CreateValidates(t *testing.T) {
	f := newFixture(t)
	u := f.user(t, 20)

	_, err := f.goals.Create(context.Background(), u.ID, GoalInput{Title: " ", MinHoursPerWeek: 1})
	assert.Equal(t, apperror.KindValidation, apperror.KindOf(err))

	_, err = f.goals.Create(context.Background(), u.ID, GoalInput{Title: "x", MinHoursPerWeek: -1})
	assert.Equal(t, apperror.KindValidation, apperror.KindOf(err))

	_, err = f.goals.Create(context.Background(), u.ID, GoalInput{Title: "x", Status: "dreaming"})
	assert.Equal(t, apperror.KindValidation, apperror.KindOf(err))
}

func TestUserService_AvailableHoursCannotDropBelowCommitted(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u := f.user(t, 30)
	f.activeGoal(t, u.ID, 18)

	_, err := f.userSvc.UpdateProfile(ctx, u.ID, ProfilePatch{AvailableHoursPerWeek: ptr(10.0)})
	assert.True(t, apperror.HasCode(err, apperror.CodeCapacityConflict))

	updated, err := f.userSvc.UpdateProfile(ctx, u.ID, ProfilePatch{AvailableHoursPerWeek: ptr(18.0), DisplayName: ptr("Ada")})
	require.NoError(t, err)
	assert.Equal(t, 18.0, updated.AvailableHoursPerWeek)
	assert.Equal(t, "Ada", updated.DisplayName)
}

func TestUserService_EnsureUserProvisionsOnce(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	u, err := f.userSvc.EnsureUser(ctx, "u-1", "Ada@Example.com")
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", u.Email)
	assert.Equal(t, 40.0, u.AvailableHoursPerWeek)

	again, err := f.userSvc.EnsureUser(ctx, "u-1", "ignored@example.com")
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", again.Email)

	_, err = f.userSvc.EnsureUser(ctx, "u-2", "not-an-email")
	assert.Equal(t, apperror.KindValidation, apperror.KindOf(err))
}

func TestCapacityLedger_WouldExceed(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u := f.user(t, 20)
	existing := f.activeGoal(t, u.ID, 12)

	exceeded, err := f.ledger.WouldExceed(ctx, u, 8, "")
	require.NoError(t, err)
	assert.False(t, exceeded)

	exceeded, err = f.ledger.WouldExceed(ctx, u, 8.5, "")
	require.NoError(t, err)
	assert.True(t, exceeded)

	// Excluding the goal being edited frees its hours.
	exceeded, err = f.ledger.WouldExceed(ctx, u, 20, existing.ID)
	require.NoError(t, err)
	assert.False(t, exceeded)
}
