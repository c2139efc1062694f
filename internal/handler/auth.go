package handler

import (
	"net/http"

	"github.com/devrayanco/task-manager-api/internal/service"
)

// AuthHandler handles authentication-related HTTP requests.
type AuthHandler struct {
	auth *service.AuthService
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(auth *service.AuthService) *AuthHandler {
	return &AuthHandler{auth: auth}
}

// HandleRegister processes a JSON registration request.
// POST /api/auth/register
// Request:  {"username":"...","email":"...","password":"..."}
// Response: 201 {"message":"..."}
func (h *AuthHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, codeInvalidInput, "Invalid request body.")
		return
	}
	req.normalize()
	if err := validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, codeInvalidInput, validationMessage(err))
		return
	}

	if _, err := h.auth.Register(r.Context(), req.Username, req.Email, req.Password); err != nil {
		writeServiceError(w, r, "register user", err)
		return
	}

	writeJSON(w, http.StatusCreated, MessageResponse{Message: "User registered successfully."})
}

// HandleLogin processes a JSON login request.
// POST /api/auth/login
// Request:  {"email":"...","password":"..."}
// Response: {"token":"...","username":"...","email":"..."}
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, codeInvalidInput, "Invalid request body.")
		return
	}
	if err := validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, codeInvalidInput, validationMessage(err))
		return
	}

	res, err := h.auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeServiceError(w, r, "login user", err)
		return
	}

	writeJSON(w, http.StatusOK, LoginResponse{
		Token:    res.Token,
		Username: res.User.Username,
		Email:    res.User.Email,
	})
}
