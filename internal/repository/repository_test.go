package repository

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gritto/gritto/internal/db/dbtest"
	"github.com/gritto/gritto/internal/model"
)

func seedUser(t *testing.T, database *sqlx.DB, hours float64) *model.User {
	t.Helper()
	now := time.Now().UTC()
	u := &model.User{ID: uuid.NewString(), Email: uuid.NewString() + "@example.com", AvailableHoursPerWeek: hours, CreatedAt: now, UpdatedAt: now}
	require.NoError(t, NewUserRepository(database).Create(context.Background(), u))
	return u
}

func seedGoal(t *testing.T, database *sqlx.DB, userID, status string, hours float64) *model.Goal {
	t.Helper()
	now := time.Now().UTC()
	g := &model.Goal{ID: uuid.NewString(), UserID: userID, Title: "Goal", Status: status, MinHoursPerWeek: hours, CreatedAt: now, UpdatedAt: now}
	require.NoError(t, NewGoalRepository(database).Create(context.Background(), g))
	return g
}

func seedMilestone(t *testing.T, database *sqlx.DB, goal *model.Goal) *model.Milestone {
	t.Helper()
	now := time.Now().UTC()
	m := &model.Milestone{ID: uuid.NewString(), UserID: goal.UserID, GoalID: goal.ID, Title: "M", Status: model.MilestoneStatusInProgress, CreatedAt: now, UpdatedAt: now}
	require.NoError(t, NewMilestoneRepository(database).Create(context.Background(), m))
	return m
}

func seedTask(t *testing.T, database *sqlx.DB, m *model.Milestone, date string, done bool) *model.Task {
	t.Helper()
	now := time.Now().UTC()
	task := &model.Task{ID: uuid.NewString(), UserID: m.UserID, GoalID: m.GoalID, MilestoneID: m.ID, Title: "T", Date: date, EstimatedHours: 1, Done: done, CreatedAt: now, UpdatedAt: now}
	require.NoError(t, NewTaskRepository(database).Create(context.Background(), task))
	return task
}

func TestUserRepository_DuplicateEmail(t *testing.T) {
	database := dbtest.New(t)
	ctx := context.Background()
	repo := NewUserRepository(database)

	u := seedUser(t, database, 10)
	dup := *u
	dup.ID = uuid.NewString()
	assert.ErrorIs(t, repo.Create(ctx, &dup), ErrDuplicateEmail)

	got, err := repo.ByEmail(ctx, u.Email)
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)

	_, err = repo.ByID(ctx, "missing")
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestGoalRepository_ActiveGoalsAndSort(t *testing.T) {
	database := dbtest.New(t)
	ctx := context.Background()
	repo := NewGoalRepository(database)
	u := seedUser(t, database, 40)

	active := seedGoal(t, database, u.ID, model.GoalStatusActive, 5)
	seedGoal(t, database, u.ID, model.GoalStatusPaused, 8)

	goals, err := repo.ActiveGoals(ctx, u.ID)
	require.NoError(t, err)
	require.Len(t, goals, 1)
	assert.Equal(t, active.ID, goals[0].ID)

	active.Priority = 9
	require.NoError(t, repo.Update(ctx, active))
	sorted, err := repo.Goals(ctx, u.ID, GoalSortPriority)
	require.NoError(t, err)
	require.Len(t, sorted, 2)
	assert.Equal(t, active.ID, sorted[0].ID)

	assert.ErrorIs(t, repo.Delete(ctx, "someone-else", active.ID), ErrGoalNotFound)
	require.NoError(t, repo.Delete(ctx, u.ID, active.ID))
	_, err = repo.ByID(ctx, active.ID)
	assert.ErrorIs(t, err, ErrGoalNotFound)
}

func TestTaskRepository_SameDayScopedToMilestone(t *testing.T) {
	database := dbtest.New(t)
	ctx := context.Background()
	repo := NewTaskRepository(database)
	u := seedUser(t, database, 40)
	g := seedGoal(t, database, u.ID, model.GoalStatusActive, 1)
	m1 := seedMilestone(t, database, g)
	m2 := seedMilestone(t, database, g)

	first := seedTask(t, database, m1, "2025-11-10", false)
	seedTask(t, database, m2, "2025-11-10", false)

	ids, err := repo.SameDay(ctx, m1.ID, u.ID, "2025-11-10", "")
	require.NoError(t, err)
	assert.Equal(t, []string{first.ID}, ids)

	ids, err = repo.SameDay(ctx, m1.ID, u.ID, "2025-11-10", first.ID)
	require.NoError(t, err)
	assert.Empty(t, ids)

	ids, err = repo.SameDay(ctx, m1.ID, u.ID, "2025-11-11", "")
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestTaskRepository_IncompleteAndSetDone(t *testing.T) {
	database := dbtest.New(t)
	ctx := context.Background()
	repo := NewTaskRepository(database)
	u := seedUser(t, database, 40)
	m := seedMilestone(t, database, seedGoal(t, database, u.ID, model.GoalStatusActive, 1))

	open := seedTask(t, database, m, "2025-11-12", false)
	seedTask(t, database, m, "2025-11-13", true)

	tasks, err := repo.Incomplete(ctx, u.ID)
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, open.ID, tasks[0].ID)

	require.NoError(t, repo.SetDone(ctx, open.ID, true))
	tasks, err = repo.Incomplete(ctx, u.ID)
	require.NoError(t, err)
	assert.Empty(t, tasks)

	assert.ErrorIs(t, repo.SetDone(ctx, "missing", true), ErrTaskNotFound)
}

func TestSessionRepository_LatestActive(t *testing.T) {
	database := dbtest.New(t)
	ctx := context.Background()
	repo := NewSessionRepository(database)
	u := seedUser(t, database, 40)

	_, err := repo.LatestActive(ctx, u.ID)
	assert.ErrorIs(t, err, ErrSessionNotFound)

	now := time.Now().UTC()
	older := &model.Session{ID: "a", UserID: u.ID, ChatID: "a", State: model.SessionStatePlanGenerated, SessionActive: true, CreatedAt: now, UpdatedAt: now.Add(-time.Hour)}
	newer := &model.Session{ID: "b", UserID: u.ID, ChatID: "b", State: model.SessionStatePlanGenerated, SessionActive: true, CreatedAt: now, UpdatedAt: now}
	closed := &model.Session{ID: "c", UserID: u.ID, ChatID: "c", State: model.SessionStateFinalized, SessionActive: false, CreatedAt: now, UpdatedAt: now.Add(time.Hour)}
	for _, s := range []*model.Session{older, newer, closed} {
		require.NoError(t, repo.Create(ctx, s))
	}

	got, err := repo.LatestActive(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "b", got.ID)

	// Touching the older session makes it the latest.
	older.Iteration = 3
	older.Context = model.PlanningContext{AvailableHoursLeft: 7}
	require.NoError(t, repo.Update(ctx, older))
	got, err = repo.LatestActive(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "a", got.ID)
	assert.Equal(t, 3, got.Iteration)
	assert.Equal(t, 7.0, got.Context.AvailableHoursLeft)
}

func TestGoalPreviewRepository_UpsertOverwrites(t *testing.T) {
	database := dbtest.New(t)
	ctx := context.Background()
	repo := NewGoalPreviewRepository(database)
	u := seedUser(t, database, 40)

	p := &model.GoalPreview{ID: "p1", UserID: u.ID, SessionID: "s1", Payload: model.JSONMap{"goal": map[string]any{"title": "First"}}}
	require.NoError(t, repo.Upsert(ctx, p))

	p2 := &model.GoalPreview{ID: "p1", UserID: u.ID, SessionID: "s1", Iteration: 2, Payload: model.JSONMap{"goal": map[string]any{"title": "Second"}}}
	require.NoError(t, repo.Upsert(ctx, p2))

	got, err := repo.ByID(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, 2, got.Iteration)
	assert.Equal(t, "Second", got.Payload["goal"].(map[string]any)["title"])

	_, err = repo.ByID(ctx, "nope")
	assert.ErrorIs(t, err, ErrGoalPreviewNotFound)
}

func TestChatRepository_AppendOrder(t *testing.T) {
	database := dbtest.New(t)
	ctx := context.Background()
	repo := NewChatRepository(database)
	u := seedUser(t, database, 40)

	for _, text := range []string{"hi", "hello", "plan please"} {
		require.NoError(t, repo.Append(ctx, &model.ChatMessage{ChatID: "chat-1", UserID: u.ID, Sender: model.SenderUser, Message: text}))
	}
	require.NoError(t, repo.Append(ctx, &model.ChatMessage{ChatID: "chat-2", UserID: u.ID, Sender: model.SenderUser, Message: "other"}))

	msgs, err := repo.Messages(ctx, "chat-1", 0)
	require.NoError(t, err)
	require.Len(t, msgs, 3)
	assert.Equal(t, "hi", msgs[0].Message)
	assert.Equal(t, "plan please", msgs[2].Message)
}
