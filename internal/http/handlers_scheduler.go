package httpx

import (
	"context"
	"net/http"

	"github.com/draftline/draftline-go/internal/core"
)

// TickRunner triggers a single scheduler pass outside the loop.
type TickRunner interface {
	RunNow(ctx context.Context) (int, error)
}

// SchedulerHandlers provides HTTP handlers for scheduler operations.
type SchedulerHandlers struct {
	Scheduler  core.PublicationScheduler
	Runner     TickRunner
	Reconciler core.Reconciler
}

// Status handles HTTP requests for the scheduler's operational snapshot.
func (h *SchedulerHandlers) Status(w http.ResponseWriter, r *http.Request) {
	status, err := h.Scheduler.Status(r.Context())
	if err != nil {
		WriteServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, status)
}

// RunNow handles HTTP requests to trigger an immediate scheduler pass.
func (h *SchedulerHandlers) RunNow(w http.ResponseWriter, r *http.Request) {
	processed, err := h.Runner.RunNow(r.Context())
	if err != nil {
		WriteServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]int{"processed": processed})
}

// Reconcile handles HTTP requests to trigger an immediate reconcile pass.
func (h *SchedulerHandlers) Reconcile(w http.ResponseWriter, r *http.Request) {
	restored, err := h.Reconciler.Reconcile(r.Context())
	if err != nil {
		WriteServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]int{"restored": restored})
}
