package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/gritto/gritto/internal/agent"
	"github.com/gritto/gritto/internal/db/dbtest"
	"github.com/gritto/gritto/internal/model"
	"github.com/gritto/gritto/internal/repository"
)

// fakeEngine replays scripted decisions and records what it was sent.
type fakeEngine struct {
	mu         sync.Mutex
	bootstraps int
	runs       []agent.RunInput
	decisions  []*agent.Decision
	err        error
	delay      time.Duration
	inFlight   int
	maxFlight  int
}

func (f *fakeEngine) Bootstrap(ctx context.Context, userID, sessionID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.bootstraps++
	return nil
}

func (f *fakeEngine) Run(ctx context.Context, in agent.RunInput) (*agent.Decision, error) {
	f.mu.Lock()
	f.inFlight++
	f.maxFlight = max(f.maxFlight, f.inFlight)
	f.runs = append(f.runs, in)
	f.mu.Unlock()

	time.Sleep(f.delay)

	f.mu.Lock()
	defer f.mu.Unlock()
	f.inFlight--
	if f.err != nil {
		return nil, f.err
	}
	if len(f.decisions) == 0 {
		return &agent.Decision{Reply: "ok", Action: agent.Action{Type: agent.ActionNone, Payload: map[string]any{}}}, nil
	}
	d := f.decisions[0]
	f.decisions = f.decisions[1:]
	return d, nil
}

func (f *fakeEngine) script(d ...*agent.Decision) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.decisions = append(f.decisions, d...)
}

type fixture struct {
	db         *sqlx.DB
	users      repository.UserRepository
	goalRepo   repository.GoalRepository
	taskRepo   repository.TaskRepository
	previews   repository.GoalPreviewRepository
	chats      repository.ChatRepository
	ledger     *CapacityLedger
	snapshots  *SnapshotBuilder
	goals      *GoalService
	milestones *MilestoneService
	tasks      *TaskService
	sessions   *SessionService
	committer  *FinalizationCommitter
	planner    *PlannerService
	userSvc    *UserService
	engine     *fakeEngine
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	database := dbtest.New(t)

	f := &fixture{
		db:       database,
		users:    repository.NewUserRepository(database),
		goalRepo: repository.NewGoalRepository(database),
		taskRepo: repository.NewTaskRepository(database),
		previews: repository.NewGoalPreviewRepository(database),
		chats:    repository.NewChatRepository(database),
		engine:   &fakeEngine{},
	}
	milestoneRepo := repository.NewMilestoneRepository(database)

	f.ledger = NewCapacityLedger(f.goalRepo)
	f.snapshots = NewSnapshotBuilder(f.ledger, f.taskRepo)
	f.goals = NewGoalService(f.goalRepo, f.users, f.ledger)
	f.milestones = NewMilestoneService(milestoneRepo, f.goals)
	f.tasks = NewTaskService(f.taskRepo, f.users, f.milestones, NewConflictChecker(f.taskRepo), f.snapshots)
	f.sessions = NewSessionService(repository.NewSessionRepository(database), f.users, f.snapshots)
	f.committer = NewFinalizationCommitter(f.ledger, f.goalRepo, milestoneRepo, f.taskRepo, f.previews)
	f.planner = NewPlannerService(f.sessions, f.snapshots, f.committer, f.users, f.previews, f.chats, f.engine)
	f.userSvc = NewUserService(f.users, f.ledger, 40)
	return f
}

func (f *fixture) user(t *testing.T, hours float64) *model.User {
	t.Helper()
	now := time.Now().UTC()
	u := &model.User{ID: uuid.NewString(), Email: uuid.NewString() + "@example.com", AvailableHoursPerWeek: hours, CreatedAt: now, UpdatedAt: now}
	require.NoError(t, f.users.Create(context.Background(), u))
	return u
}

func (f *fixture) activeGoal(t *testing.T, userID string, hours float64) *model.Goal {
	t.Helper()
	g, err := f.goals.Create(context.Background(), userID, GoalInput{Title: "Existing", MinHoursPerWeek: hours})
	require.NoError(t, err)
	return g
}

func (f *fixture) countGoals(t *testing.T, userID string) int {
	t.Helper()
	goals, err := f.goalRepo.Goals(context.Background(), userID, repository.GoalSortRecent)
	require.NoError(t, err)
	return len(goals)
}

func decision(reply string, action agent.ActionType, payload map[string]any) *agent.Decision {
	if payload == nil {
		payload = map[string]any{}
	}
	return &agent.Decision{Reply: reply, Action: agent.Action{Type: action, Payload: payload}}
}

func ptr[T any](v T) *T {
	return &v
}
