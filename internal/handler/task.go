package handler

import (
	"net/http"
	"strconv"

	"github.com/devrayanco/task-manager-api/internal/service"
	"github.com/go-chi/chi/v5"
)

// TaskHandler serves the owner-scoped task endpoints. Every handler reads
// the caller from the context set by RequireAuth and passes its ID to the
// service explicitly.
type TaskHandler struct {
	tasks *service.TaskService
}

// NewTaskHandler creates a new TaskHandler.
func NewTaskHandler(tasks *service.TaskService) *TaskHandler {
	return &TaskHandler{tasks: tasks}
}

// taskID parses the {id} path parameter. A malformed id cannot name an
// existing task, so callers answer 404.
func taskID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

func writeTaskNotFound(w http.ResponseWriter) {
	writeError(w, http.StatusNotFound, codeNotFound, "Not found.")
}

// HandleList returns the caller's tasks.
// GET /api/tasks
func (h *TaskHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r.Context())
	if user == nil {
		writeUnauthorized(w)
		return
	}

	tasks, err := h.tasks.List(r.Context(), user.ID)
	if err != nil {
		writeServiceError(w, r, "list tasks", err)
		return
	}
	writeJSON(w, http.StatusOK, toTaskDTOs(tasks))
}

// HandleGet returns one task.
// GET /api/tasks/{id}
func (h *TaskHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r.Context())
	if user == nil {
		writeUnauthorized(w)
		return
	}
	id, ok := taskID(r)
	if !ok {
		writeTaskNotFound(w)
		return
	}

	task, err := h.tasks.Get(r.Context(), user.ID, id)
	if err != nil {
		writeServiceError(w, r, "get task", err)
		return
	}
	writeJSON(w, http.StatusOK, toTaskDTO(task))
}

// HandleCreate adds a task in the ToDo state.
// POST /api/tasks
// Request:  {"title":"..."}
// Response: 201 {"id":..,"title":"..","status":"ToDo","createdAt":".."}
func (h *TaskHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r.Context())
	if user == nil {
		writeUnauthorized(w)
		return
	}

	var req CreateTaskRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, codeInvalidInput, "Invalid request body.")
		return
	}
	req.normalize()
	if err := validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, codeInvalidInput, validationMessage(err))
		return
	}

	task, err := h.tasks.Create(r.Context(), user.ID, req.Title)
	if err != nil {
		writeServiceError(w, r, "create task", err)
		return
	}
	w.Header().Set("Location", "/api/tasks/"+strconv.FormatInt(task.ID, 10))
	writeJSON(w, http.StatusCreated, toTaskDTO(task))
}

// HandleUpdateStatus replaces the status of a task.
// PUT /api/tasks/{id}/status
// Request: a status name, either a JSON string ("Done") or plain text.
func (h *TaskHandler) HandleUpdateStatus(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r.Context())
	if user == nil {
		writeUnauthorized(w)
		return
	}
	id, ok := taskID(r)
	if !ok {
		writeTaskNotFound(w)
		return
	}

	status, err := readRawString(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, codeInvalidInput, "Invalid request body.")
		return
	}

	if err := h.tasks.UpdateStatus(r.Context(), user.ID, id, status); err != nil {
		writeServiceError(w, r, "update task status", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleUpdateTitle replaces the title of a task.
// PUT /api/tasks/{id}/title
// Request: the new title, either a JSON string or plain text.
func (h *TaskHandler) HandleUpdateTitle(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r.Context())
	if user == nil {
		writeUnauthorized(w)
		return
	}
	id, ok := taskID(r)
	if !ok {
		writeTaskNotFound(w)
		return
	}

	title, err := readRawString(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, codeInvalidInput, "Invalid request body.")
		return
	}

	if err := h.tasks.UpdateTitle(r.Context(), user.ID, id, title); err != nil {
		writeServiceError(w, r, "update task title", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleDelete removes a task.
// DELETE /api/tasks/{id}
func (h *TaskHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r.Context())
	if user == nil {
		writeUnauthorized(w)
		return
	}
	id, ok := taskID(r)
	if !ok {
		writeTaskNotFound(w)
		return
	}

	if err := h.tasks.Delete(r.Context(), user.ID, id); err != nil {
		writeServiceError(w, r, "delete task", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
