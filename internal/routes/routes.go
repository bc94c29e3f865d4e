package routes

import (
	"net/http"

	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/gritto/gritto/internal/app"
	"github.com/gritto/gritto/internal/handler"
	"github.com/gritto/gritto/internal/metrics"
	"github.com/gritto/gritto/internal/middleware"
)

func SetupRoutes(app *app.App) http.Handler {
	// Handlers
	health := handler.NewHealthHandler(app.DB)
	user := handler.NewUserHandler(app.UserService)
	goal := handler.NewGoalHandler(app.GoalService, app.MilestoneService)
	task := handler.NewTaskHandler(app.MilestoneService, app.TaskService)
	session := handler.NewSessionHandler(app.SessionService, app.PlannerService, app.ChatService)

	// ============================================================================
	// PROTECTED ROUTES (/api/v1/*)
	// ============================================================================

	api := http.NewServeMux()

	// Profile
	api.HandleFunc("GET /api/v1/me", user.Me)
	api.HandleFunc("PATCH /api/v1/me", user.UpdateMe)

	// Goals
	api.HandleFunc("GET /api/v1/goals", goal.List)
	api.HandleFunc("POST /api/v1/goals", goal.Create)
	api.HandleFunc("GET /api/v1/goals/{id}", goal.Get)
	api.HandleFunc("PATCH /api/v1/goals/{id}", goal.Update)
	api.HandleFunc("DELETE /api/v1/goals/{id}", goal.Delete)
	api.HandleFunc("GET /api/v1/goals/{id}/milestones", goal.ListMilestones)
	api.HandleFunc("POST /api/v1/goals/{id}/milestones", goal.CreateMilestone)

	// Milestones & tasks
	api.HandleFunc("PATCH /api/v1/milestones/{id}", task.UpdateMilestone)
	api.HandleFunc("GET /api/v1/milestones/{id}/tasks", task.List)
	api.HandleFunc("POST /api/v1/milestones/{id}/tasks", task.Create)
	api.HandleFunc("GET /api/v1/tasks/upcoming", task.Upcoming)
	api.HandleFunc("PATCH /api/v1/tasks/{id}", task.Update)
	api.HandleFunc("DELETE /api/v1/tasks/{id}", task.Delete)

	// Planning sessions (message posting is rate limited)
	rateLimiter := middleware.RateLimitMessages(app.Cfg.MessageRateLimit, app.Cfg.MessageRateWindow)

	api.HandleFunc("POST /api/v1/sessions", session.Open)
	api.HandleFunc("GET /api/v1/sessions/{id}", session.Get)
	api.HandleFunc("POST /api/v1/sessions/{id}/messages", rateLimiter(session.SendMessage))
	api.HandleFunc("GET /api/v1/chats/{chatId}/messages", session.ChatHistory)
	api.HandleFunc("GET /api/v1/goal-previews/{id}", session.Preview)

	// ============================================================================
	// PUBLIC ROUTES
	// ============================================================================

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", health.Healthz)
	if app.Cfg.MetricsEnabled {
		mux.Handle("GET /metrics", metrics.Handler())
	}
	mux.Handle("/api/", middleware.AuthMiddleware(app.AuthService, app.UserService)(api))

	// Global middleware - executed in order (top to bottom)
	handler := middleware.Chain(
		mux,
		chimw.RequestID,
		chimw.RealIP,
		middleware.RequestLogging,
		chimw.Recoverer,
		cors.Handler(cors.Options{
			AllowedOrigins:   app.Cfg.CORSAllowedOrigins,
			AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
			AllowCredentials: true,
		}),
		middleware.SecurityHeaders(app.Cfg.IsProduction()),
	)

	return handler
}
