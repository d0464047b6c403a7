package http

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/viralforge/mesh/services/monetization/M60-stream-access-service/internal/application"
)

// ReadinessCheck reports whether a backing store is reachable.
type ReadinessCheck func(ctx context.Context) error

type HandlerOptions struct {
	// Checks are run by /readyz, keyed by dependency name.
	Checks map[string]ReadinessCheck
	// UploadsDir, when set, is served read-only under /uploads/.
	UploadsDir string
}

// Handler is the HTTP adapter over the stream access use-cases.
type Handler struct {
	service    *application.Service
	checks     map[string]ReadinessCheck
	uploadsDir string
}

func NewHandler(service *application.Service, opts HandlerOptions) *Handler {
	checks := opts.Checks
	if checks == nil {
		checks = map[string]ReadinessCheck{}
	}
	return &Handler{service: service, checks: checks, uploadsDir: opts.UploadsDir}
}

// NewRouter registers the public, attempt and admin routes. The admin group
// sits behind adminMiddleware; every handler in it also passes the caller's
// AuthContext to the service, which checks it again.
func NewRouter(handler *Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(requestIDMiddleware)
	r.Use(recoverMiddleware)
	r.Use(loggingMiddleware)

	r.Get("/healthz", handler.healthz)
	r.Get("/readyz", handler.readyz)
	if handler.uploadsDir != "" {
		r.Handle("/uploads/*", http.StripPrefix("/uploads/", http.FileServer(http.Dir(handler.uploadsDir))))
	}

	r.Route("/v1", func(r chi.Router) {
		r.Get("/offerings", handler.listOfferings)
		r.Post("/offerings/{offering_id}/access", handler.requestAccess)
		r.Get("/offerings/{offering_id}/watch", handler.watch)

		r.Get("/attempts/{attempt_id}", handler.attemptStatus)
		r.Get("/attempts/{attempt_id}/events", handler.attemptEvents)
		r.Post("/attempts/{attempt_id}/confirm", handler.confirmAttempt)
		r.Delete("/attempts/{attempt_id}", handler.abandonAttempt)

		r.Get("/surfaces/{name}", handler.surface)

		r.Post("/admin/login", handler.adminLogin)
		r.Post("/admin/logout", handler.adminLogout)

		r.Group(func(r chi.Router) {
			r.Use(handler.adminMiddleware)
			r.Get("/admin/offerings", handler.adminListOfferings)
			r.Post("/admin/offerings", handler.adminCreateOffering)
			r.Patch("/admin/offerings/{offering_id}", handler.adminUpdateOffering)
			r.Delete("/admin/offerings/{offering_id}", handler.adminDeleteOffering)
			r.Post("/admin/uploads", handler.adminUpload)
			r.Post("/admin/settlements/{attempt_id}", handler.adminMarkSettled)
		})
	})

	return r
}
