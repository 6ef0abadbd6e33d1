package httpx

import (
	"log/slog"
	"net/http"

	"github.com/draftline/draftline-go/internal/core"
	"github.com/draftline/draftline-go/internal/service"
)

// RouterServices holds all the services needed by the HTTP router.
type RouterServices struct {
	Posts     *service.PostService
	Scheduler core.PublicationScheduler

	// Optional: manual run triggers for the ops endpoints. Routes are
	// omitted when nil (for instances running the http service alone).
	TickRunner TickRunner
	Reconciler core.Reconciler

	Logger *slog.Logger
}

// NewRouter creates and configures the HTTP router. Middleware (logging,
// panic recovery) is applied by the caller.
func NewRouter(services RouterServices) http.Handler {
	mux := http.NewServeMux()

	postHandlers := &PostHandlers{Svc: services.Posts}
	mux.HandleFunc("POST /api/posts", postHandlers.CreatePost)
	mux.HandleFunc("GET /api/posts", postHandlers.ListPosts)
	mux.HandleFunc("GET /api/posts/{id}", postHandlers.GetPost)
	mux.HandleFunc("PATCH /api/posts/{id}", postHandlers.UpdatePost)
	mux.HandleFunc("DELETE /api/posts/{id}", postHandlers.DeletePost)
	mux.HandleFunc("POST /api/posts/{id}/reschedule", postHandlers.ReschedulePost)

	if services.Scheduler != nil {
		schedulerHandlers := &SchedulerHandlers{
			Scheduler:  services.Scheduler,
			Runner:     services.TickRunner,
			Reconciler: services.Reconciler,
		}
		mux.HandleFunc("GET /api/scheduler/status", schedulerHandlers.Status)
		if services.TickRunner != nil {
			mux.HandleFunc("POST /api/scheduler/run", schedulerHandlers.RunNow)
		}
		if services.Reconciler != nil {
			mux.HandleFunc("POST /api/scheduler/reconcile", schedulerHandlers.Reconcile)
		}
	}

	mux.Handle("GET /healthz", http.HandlerFunc(healthHandler))
	mux.Handle("HEAD /healthz", http.HandlerFunc(healthHandler))

	return mux
}
