package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/BuzzLyutic/taskboard/internal/auth"
	"github.com/BuzzLyutic/taskboard/pkg/respond"
)

type RouterDeps struct {
	Users  *UserHandler
	Tasks  *TaskHandler
	Tokens *auth.TokenManager
	Logger *zap.Logger
	// RequestLog enables chi's access log; tests leave it off.
	RequestLog bool
}

func NewRouter(d RouterDeps) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	if d.RequestLog {
		r.Use(middleware.Logger)
	}
	r.Use(middleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		respond.JSON(w, r, http.StatusOK, map[string]string{"status": "ok"})
	})

	guard := auth.Middleware(d.Tokens, d.Logger)

	r.Route("/api", func(r chi.Router) {
		r.Route("/user", func(r chi.Router) {
			r.Post("/register", d.Users.Register)
			r.Post("/login", d.Users.Login)

			r.Group(func(r chi.Router) {
				r.Use(guard)
				r.Get("/me", d.Users.Me)
				r.Put("/profile", d.Users.UpdateProfile)
				r.Put("/password", d.Users.UpdatePassword)
			})
		})

		r.Route("/tasks", func(r chi.Router) {
			r.Use(guard)
			r.Get("/", d.Tasks.List)
			r.Post("/", d.Tasks.Create)
			r.Get("/{id}", d.Tasks.Get)
			r.Put("/{id}", d.Tasks.Update)
			r.Patch("/{id}", d.Tasks.Update)
			r.Patch("/{id}/completion", d.Tasks.SetCompletion)
			r.Delete("/{id}", d.Tasks.Delete)
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		respond.Error(w, r, http.StatusNotFound, "route not found")
	})

	return r
}
