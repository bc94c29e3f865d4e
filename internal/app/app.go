package app

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/gritto/gritto/internal/agent"
	"github.com/gritto/gritto/internal/config"
	"github.com/gritto/gritto/internal/db"
	"github.com/gritto/gritto/internal/repository"
	"github.com/gritto/gritto/internal/service"
)

type App struct {
	Cfg              *config.Config
	DB               *sqlx.DB
	AuthService      *service.AuthService
	UserService      *service.UserService
	GoalService      *service.GoalService
	MilestoneService *service.MilestoneService
	TaskService      *service.TaskService
	SessionService   *service.SessionService
	PlannerService   *service.PlannerService
	ChatService      *service.ChatService
}

func New(ctx context.Context, cfg *config.Config) (*App, error) {
	// Initialize database
	database, err := db.Init(cfg.DBDriver, cfg.DBConnection)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	// Run database migrations
	err = db.RunMigrations(ctx, database.DB, cfg.DBDriver)
	if err != nil {
		_ = db.Close(database)
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	engine := agent.NewClient(cfg.AgentBaseURL, cfg.AgentAppName, cfg.AgentPreferredLanguage, cfg.AgentTimeout)

	return NewWithEngine(cfg, database, engine), nil
}

// NewWithEngine wires repositories and services around an open database.
func NewWithEngine(cfg *config.Config, database *sqlx.DB, engine agent.Engine) *App {
	// Repositories
	userRepository := repository.NewUserRepository(database)
	goalRepository := repository.NewGoalRepository(database)
	milestoneRepository := repository.NewMilestoneRepository(database)
	taskRepository := repository.NewTaskRepository(database)
	sessionRepository := repository.NewSessionRepository(database)
	goalPreviewRepository := repository.NewGoalPreviewRepository(database)
	chatRepository := repository.NewChatRepository(database)

	// Planning core
	ledger := service.NewCapacityLedger(goalRepository)
	snapshots := service.NewSnapshotBuilder(ledger, taskRepository)
	conflicts := service.NewConflictChecker(taskRepository)
	committer := service.NewFinalizationCommitter(ledger, goalRepository, milestoneRepository, taskRepository, goalPreviewRepository)

	// Services
	authService := service.NewAuthService(cfg.JWTSecret, cfg.JWTExpiry)
	userService := service.NewUserService(userRepository, ledger, cfg.DefaultAvailableHours)
	goalService := service.NewGoalService(goalRepository, userRepository, ledger)
	milestoneService := service.NewMilestoneService(milestoneRepository, goalService)
	taskService := service.NewTaskService(taskRepository, userRepository, milestoneService, conflicts, snapshots)
	sessionService := service.NewSessionService(sessionRepository, userRepository, snapshots)
	plannerService := service.NewPlannerService(
		sessionService,
		snapshots,
		committer,
		userRepository,
		goalPreviewRepository,
		chatRepository,
		engine,
	)
	chatService := service.NewChatService(chatRepository)

	return &App{
		Cfg:              cfg,
		DB:               database,
		AuthService:      authService,
		UserService:      userService,
		GoalService:      goalService,
		MilestoneService: milestoneService,
		TaskService:      taskService,
		SessionService:   sessionService,
		PlannerService:   plannerService,
		ChatService:      chatService,
	}
}

func (a *App) Close() error {
	if a.DB != nil {
		return db.Close(a.DB)
	}
	return nil
}
