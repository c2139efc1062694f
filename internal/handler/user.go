package handler

import (
	"net/http"
	"strconv"

	"github.com/devrayanco/task-manager-api/internal/service"
	"github.com/go-chi/chi/v5"
)

// UserHandler serves the read-only user directory.
type UserHandler struct {
	users *service.UserService
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(users *service.UserService) *UserHandler {
	return &UserHandler{users: users}
}

// HandleList returns every registered user.
// GET /api/users
func (h *UserHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	users, err := h.users.List(r.Context())
	if err != nil {
		writeServiceError(w, r, "list users", err)
		return
	}
	writeJSON(w, http.StatusOK, toUserDTOs(users))
}

// HandleGet returns one user.
// GET /api/users/{id}
func (h *UserHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusNotFound, codeNotFound, "Not found.")
		return
	}

	user, err := h.users.GetByID(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, "get user", err)
		return
	}
	writeJSON(w, http.StatusOK, toUserDTO(user))
}
