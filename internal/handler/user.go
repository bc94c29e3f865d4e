package handler

import (
	"net/http"

	"github.com/gritto/gritto/internal/ctxkeys"
	"github.com/gritto/gritto/internal/service"
)

type UserHandler struct {
	userService *service.UserService
}

func NewUserHandler(userService *service.UserService) *UserHandler {
	return &UserHandler{
		userService: userService,
	}
}

func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, ctxkeys.User(r.Context()))
}

type updateProfileRequest struct {
	DisplayName           *string  `json:"displayName"`
	AvailableHoursPerWeek *float64 `json:"availableHoursPerWeek"`
}

func (h *UserHandler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	var req updateProfileRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	user, err := h.userService.UpdateProfile(r.Context(), ctxkeys.UserID(r.Context()), service.ProfilePatch{
		DisplayName:           req.DisplayName,
		AvailableHoursPerWeek: req.AvailableHoursPerWeek,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, user)
}
