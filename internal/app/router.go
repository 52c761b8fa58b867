package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/coursemart/coursemart/internal/auth"
	"github.com/coursemart/coursemart/internal/courses"
	"github.com/coursemart/coursemart/internal/observability"
	"github.com/coursemart/coursemart/internal/platform/httpx"
	"github.com/coursemart/coursemart/internal/rbac"
	"github.com/coursemart/coursemart/internal/users"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger             *slog.Logger
	Config             *Config
	AuthHandler        *auth.Handler
	CoursesHandler     *courses.Handler
	UsersHandler       *users.Handler
	PermissionsHandler *rbac.PermissionsHandler
	Metrics            *observability.Metrics
}

// NewRouter constructs the chi.Router with the service defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:  params.Logger,
		Config:  params.Config,
		Metrics: params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		httpx.Reject(w, http.StatusNotFound, "Route not found", "")
	})

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	r.Route("/api", func(r chi.Router) {
		r.Use(CSRFMiddleware(params.Logger, params.Config))

		if params.AuthHandler != nil {
			r.Route("/auth", params.AuthHandler.MountRoutes)
		}
		if params.CoursesHandler != nil {
			r.Route("/courses", params.CoursesHandler.MountRoutes)
			r.Route("/student", params.CoursesHandler.MountStudentRoutes)
			r.Route("/enrollments", params.CoursesHandler.MountEnrollmentRoutes)
		}
		if params.UsersHandler != nil {
			r.Route("/admin/users", params.UsersHandler.MountRoutes)
		}
		if params.PermissionsHandler != nil {
			r.Route("/permissions", params.PermissionsHandler.MountRoutes)
		}
	})

	return r
}
