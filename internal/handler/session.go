package handler

import (
	"net/http"
	"strconv"

	"github.com/gritto/gritto/internal/agent"
	"github.com/gritto/gritto/internal/ctxkeys"
	"github.com/gritto/gritto/internal/model"
	"github.com/gritto/gritto/internal/service"
)

type SessionHandler struct {
	sessionService *service.SessionService
	plannerService *service.PlannerService
	chatService    *service.ChatService
}

func NewSessionHandler(
	sessionService *service.SessionService,
	plannerService *service.PlannerService,
	chatService *service.ChatService,
) *SessionHandler {
	return &SessionHandler{
		sessionService: sessionService,
		plannerService: plannerService,
		chatService:    chatService,
	}
}

// stateView is the session state block of a message response.
type stateView struct {
	State         model.SessionStateTag `json:"state"`
	Iteration     int                   `json:"iteration"`
	SessionActive bool                  `json:"sessionActive"`
	GoalPreviewID *string               `json:"goalPreviewId"`
}

type messageResponse struct {
	Reply   string                `json:"reply"`
	Action  agent.Action          `json:"action"`
	State   stateView             `json:"state"`
	Context model.PlanningContext `json:"context"`
}

// Open returns the user's active session, creating one when needed.
func (h *SessionHandler) Open(w http.ResponseWriter, r *http.Request) {
	session, created, err := h.sessionService.GetOrCreate(r.Context(), ctxkeys.UserID(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	writeJSON(w, status, session)
}

func (h *SessionHandler) Get(w http.ResponseWriter, r *http.Request) {
	session, err := h.sessionService.Get(r.Context(), ctxkeys.UserID(r.Context()), r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, session)
}

type sendMessageRequest struct {
	Message     string         `json:"message"`
	GoalPreview map[string]any `json:"goalPreview"`
}

func (h *SessionHandler) SendMessage(w http.ResponseWriter, r *http.Request) {
	var req sendMessageRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	result, err := h.plannerService.SendMessage(r.Context(), service.MessageInput{
		UserID:      ctxkeys.UserID(r.Context()),
		SessionID:   r.PathValue("id"),
		Message:     req.Message,
		GoalPreview: req.GoalPreview,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, messageResponse{
		Reply:  result.Reply,
		Action: result.Action,
		State: stateView{
			State:         result.Session.State,
			Iteration:     result.Session.Iteration,
			SessionActive: result.Session.SessionActive,
			GoalPreviewID: result.Session.GoalPreviewID,
		},
		Context: result.Session.Context,
	})
}

func (h *SessionHandler) ChatHistory(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	messages, err := h.chatService.History(r.Context(), ctxkeys.UserID(r.Context()), r.PathValue("chatId"), limit)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, messages)
}

func (h *SessionHandler) Preview(w http.ResponseWriter, r *http.Request) {
	preview, err := h.plannerService.Preview(r.Context(), ctxkeys.UserID(r.Context()), r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, preview)
}
