package handler

import (
	"net/http"

	"github.com/gritto/gritto/internal/ctxkeys"
	"github.com/gritto/gritto/internal/service"
)

type TaskHandler struct {
	milestoneService *service.MilestoneService
	taskService      *service.TaskService
}

func NewTaskHandler(milestoneService *service.MilestoneService, taskService *service.TaskService) *TaskHandler {
	return &TaskHandler{
		milestoneService: milestoneService,
		taskService:      taskService,
	}
}

type updateMilestoneRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Status      *string `json:"status"`
}

func (h *TaskHandler) UpdateMilestone(w http.ResponseWriter, r *http.Request) {
	var req updateMilestoneRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	milestone, err := h.milestoneService.Update(r.Context(), ctxkeys.UserID(r.Context()), r.PathValue("id"), service.MilestonePatch{
		Title:       req.Title,
		Description: req.Description,
		Status:      req.Status,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, milestone)
}

func (h *TaskHandler) List(w http.ResponseWriter, r *http.Request) {
	tasks, err := h.taskService.ByMilestone(r.Context(), ctxkeys.UserID(r.Context()), r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, tasks)
}

type createTaskRequest struct {
	Title          string  `json:"title"`
	Description    string  `json:"description"`
	Date           string  `json:"date"`
	EstimatedHours float64 `json:"estimatedHours"`
}

func (h *TaskHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createTaskRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	task, err := h.taskService.Create(r.Context(), ctxkeys.UserID(r.Context()), r.PathValue("id"), service.TaskInput{
		Title:          req.Title,
		Description:    req.Description,
		Date:           req.Date,
		EstimatedHours: req.EstimatedHours,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, task)
}

type updateTaskRequest struct {
	Title          *string  `json:"title"`
	Description    *string  `json:"description"`
	Date           *string  `json:"date"`
	EstimatedHours *float64 `json:"estimatedHours"`
	Done           *bool    `json:"done"`
}

func (h *TaskHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req updateTaskRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	task, err := h.taskService.Update(r.Context(), ctxkeys.UserID(r.Context()), r.PathValue("id"), service.TaskPatch{
		Title:          req.Title,
		Description:    req.Description,
		Date:           req.Date,
		EstimatedHours: req.EstimatedHours,
		Done:           req.Done,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, task)
}

func (h *TaskHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.taskService.Delete(r.Context(), ctxkeys.UserID(r.Context()), r.PathValue("id")); err != nil {
		writeError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *TaskHandler) Upcoming(w http.ResponseWriter, r *http.Request) {
	snapshot, err := h.taskService.Upcoming(r.Context(), ctxkeys.UserID(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, snapshot)
}
