package httpx

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/draftline/draftline-go/internal/data"
	"github.com/draftline/draftline-go/internal/domain/model"
	"github.com/draftline/draftline-go/internal/service"
	"github.com/draftline/draftline-go/internal/testutil"
)

type stubScheduler struct {
	status model.SchedulerStatus
	err    error
}

func (s *stubScheduler) Tick(context.Context, time.Time) (int, error) { return 0, nil }
func (s *stubScheduler) SetActive(bool)                               {}

func (s *stubScheduler) Status(context.Context) (model.SchedulerStatus, error) {
	return s.status, s.err
}

type stubRunner struct {
	processed int
	err       error
}

func (r *stubRunner) RunNow(context.Context) (int, error) { return r.processed, r.err }

type stubReconciler struct {
	restored int
	err      error
}

func (r *stubReconciler) Reconcile(context.Context) (int, error) { return r.restored, r.err }

func newOpsRouter(sched *stubScheduler, runner *stubRunner, rec *stubReconciler) http.Handler {
	logger := slog.New(slog.DiscardHandler)
	services := RouterServices{
		Posts: service.NewPostService(service.PostServiceOptions{
			Posts:  testutil.NewInMemoryPostRepo(),
			Queue:  data.NewMemoryQueueRepo(),
			Logger: logger,
		}),
		Scheduler: sched,
		Logger:    logger,
	}
	if runner != nil {
		services.TickRunner = runner
	}
	if rec != nil {
		services.Reconciler = rec
	}
	return NewRouter(services)
}

func TestSchedulerStatusEndpoint(t *testing.T) {
	handler := newOpsRouter(&stubScheduler{
		status: model.SchedulerStatus{
			Active: true,
			Queue:  model.QueueStats{Pending: 4, Ready: 1, Dead: 2},
		},
	}, nil, nil)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/scheduler/status", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t,
		`{"active":true,"processing":false,"queue":{"pending":4,"ready":1,"dead":2}}`,
		rec.Body.String())
}

func TestSchedulerStatusEndpoint_Error(t *testing.T) {
	handler := newOpsRouter(&stubScheduler{err: errors.New("queue store unreachable")}, nil, nil)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/scheduler/status", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	// Internal detail stays out of the response.
	assert.NotContains(t, rec.Body.String(), "unreachable")
}

func TestSchedulerRunEndpoint(t *testing.T) {
	handler := newOpsRouter(&stubScheduler{}, &stubRunner{processed: 3}, nil)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/scheduler/run", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"processed":3}`, rec.Body.String())
}

func TestSchedulerReconcileEndpoint(t *testing.T) {
	handler := newOpsRouter(&stubScheduler{}, nil, &stubReconciler{restored: 2})

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/scheduler/reconcile", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"restored":2}`, rec.Body.String())
}

func TestOpsRoutesOmittedWhenNotWired(t *testing.T) {
	handler := newOpsRouter(&stubScheduler{}, nil, nil)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/scheduler/run", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/scheduler/reconcile", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
