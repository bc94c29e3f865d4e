package handler

import (
	"net/http"

	"github.com/gritto/gritto/internal/ctxkeys"
	"github.com/gritto/gritto/internal/repository"
	"github.com/gritto/gritto/internal/service"
)

type GoalHandler struct {
	goalService      *service.GoalService
	milestoneService *service.MilestoneService
}

func NewGoalHandler(goalService *service.GoalService, milestoneService *service.MilestoneService) *GoalHandler {
	return &GoalHandler{
		goalService:      goalService,
		milestoneService: milestoneService,
	}
}

func (h *GoalHandler) List(w http.ResponseWriter, r *http.Request) {
	sortBy := r.URL.Query().Get("sort")
	if sortBy == "" {
		sortBy = repository.GoalSortRecent
	}

	goals, err := h.goalService.Goals(r.Context(), ctxkeys.UserID(r.Context()), sortBy)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, goals)
}

type createGoalRequest struct {
	Title           string  `json:"title"`
	Description     string  `json:"description"`
	Status          string  `json:"status"`
	MinHoursPerWeek float64 `json:"minHoursPerWeek"`
	Priority        int     `json:"priority"`
	Color           *string `json:"color"`
}

func (h *GoalHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createGoalRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	goal, err := h.goalService.Create(r.Context(), ctxkeys.UserID(r.Context()), service.GoalInput{
		Title:           req.Title,
		Description:     req.Description,
		Status:          req.Status,
		MinHoursPerWeek: req.MinHoursPerWeek,
		Priority:        req.Priority,
		Color:           req.Color,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, goal)
}

func (h *GoalHandler) Get(w http.ResponseWriter, r *http.Request) {
	goal, err := h.goalService.ByID(r.Context(), ctxkeys.UserID(r.Context()), r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, goal)
}

type updateGoalRequest struct {
	Title           *string  `json:"title"`
	Description     *string  `json:"description"`
	Status          *string  `json:"status"`
	MinHoursPerWeek *float64 `json:"minHoursPerWeek"`
	Priority        *int     `json:"priority"`
	Color           *string  `json:"color"`
}

func (h *GoalHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req updateGoalRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	goal, err := h.goalService.Update(r.Context(), ctxkeys.UserID(r.Context()), r.PathValue("id"), service.GoalPatch{
		Title:           req.Title,
		Description:     req.Description,
		Status:          req.Status,
		MinHoursPerWeek: req.MinHoursPerWeek,
		Priority:        req.Priority,
		Color:           req.Color,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, goal)
}

func (h *GoalHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.goalService.Delete(r.Context(), ctxkeys.UserID(r.Context()), r.PathValue("id")); err != nil {
		writeError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *GoalHandler) ListMilestones(w http.ResponseWriter, r *http.Request) {
	milestones, err := h.milestoneService.ByGoal(r.Context(), ctxkeys.UserID(r.Context()), r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, milestones)
}

type createMilestoneRequest struct {
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Status      string  `json:"status"`
	ParentID    *string `json:"parentId"`
}

func (h *GoalHandler) CreateMilestone(w http.ResponseWriter, r *http.Request) {
	var req createMilestoneRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	milestone, err := h.milestoneService.Create(r.Context(), ctxkeys.UserID(r.Context()), r.PathValue("id"), service.MilestoneInput{
		Title:       req.Title,
		Description: req.Description,
		Status:      req.Status,
		ParentID:    req.ParentID,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, milestone)
}
