package handler

import (
	"net/http"

	"github.com/devrayanco/task-manager-api/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
)

// Deps holds everything NewRouter wires into the API.
type Deps struct {
	Auth  *service.AuthService
	Tasks *service.TaskService
	Users *service.UserService
	Store Pinger
	// LoginLimiter throttles POST /api/auth/login. Nil disables throttling.
	LoginLimiter   *service.TokenBucket
	AllowedOrigins []string
}

// NewRouter sets up all HTTP routes.
func NewRouter(d Deps) http.Handler {
	authHandler := NewAuthHandler(d.Auth)
	taskHandler := NewTaskHandler(d.Tasks)
	userHandler := NewUserHandler(d.Users)
	healthHandler := NewHealthHandler(d.Store)

	r := chi.NewRouter()
	r.Use(RequestLogger)
	r.Use(SecurityHeaders)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   d.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID", "Location"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, codeNotFound, "Not found.")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "Method not allowed.")
	})

	r.Get("/healthz", healthHandler.HandleHealthz)

	r.Route("/api", func(r chi.Router) {
		r.Post("/auth/register", authHandler.HandleRegister)
		if d.LoginLimiter != nil {
			r.With(func(next http.Handler) http.Handler {
				return RateLimit(d.LoginLimiter, next)
			}).Post("/auth/login", authHandler.HandleLogin)
		} else {
			r.Post("/auth/login", authHandler.HandleLogin)
		}

		r.Group(func(r chi.Router) {
			r.Use(func(next http.Handler) http.Handler {
				return RequireAuth(d.Auth, next)
			})

			r.Get("/tasks", taskHandler.HandleList)
			r.Post("/tasks", taskHandler.HandleCreate)
			r.Get("/tasks/{id}", taskHandler.HandleGet)
			r.Put("/tasks/{id}/status", taskHandler.HandleUpdateStatus)
			r.Put("/tasks/{id}/title", taskHandler.HandleUpdateTitle)
			r.Delete("/tasks/{id}", taskHandler.HandleDelete)

			r.Get("/users", userHandler.HandleList)
			r.Get("/users/{id}", userHandler.HandleGet)
		})
	})

	return r
}
