package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/customeros/dmarc-summaries/dto"
	er "github.com/customeros/dmarc-summaries/internal/errors"
	"github.com/customeros/dmarc-summaries/internal/logger"
)

const testAPIKey = "secret"

type stubJob struct {
	running  atomic.Bool
	executed atomic.Int32
	last     *dto.RunResult
	hold     chan struct{}
}

func (j *stubJob) Execute(context.Context) (*dto.RunResult, error) {
	j.executed.Add(1)
	return &dto.RunResult{RunID: "run_test"}, nil
}

// Start claims the job and keeps it until hold is closed.
func (j *stubJob) Start(ctx context.Context) error {
	if !j.running.CompareAndSwap(false, true) {
		return er.ErrRunInProgress
	}
	go func() {
		if j.hold != nil {
			<-j.hold
		}
		_, _ = j.Execute(ctx)
		j.running.Store(false)
	}()
	return nil
}

func (j *stubJob) Running() bool {
	return j.running.Load()
}

func (j *stubJob) LastResult() *dto.RunResult {
	return j.last
}

func newRouter(job *stubJob, apiKey string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	log := logger.NewAppLogger(&logger.Config{LogLevel: "error"})
	log.InitLogger()

	r := gin.New()
	RegisterRoutes(r, job, apiKey, log)
	return r
}

func serve(r *gin.Engine, method, path, apiKey string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if apiKey != "" {
		req.Header.Set(APIKeyHeader, apiKey)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestHealth(t *testing.T) {
	w := serve(newRouter(&stubJob{}, testAPIKey), http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestMetrics(t *testing.T) {
	w := serve(newRouter(&stubJob{}, testAPIKey), http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "go_goroutines")
}

func TestReconcile(t *testing.T) {
	t.Run("rejects missing key", func(t *testing.T) {
		w := serve(newRouter(&stubJob{}, testAPIKey), http.MethodPost, "/v1/reconcile", "")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("rejects wrong key", func(t *testing.T) {
		w := serve(newRouter(&stubJob{}, testAPIKey), http.MethodPost, "/v1/reconcile", "nope")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("starts a run", func(t *testing.T) {
		job := &stubJob{}
		w := serve(newRouter(job, testAPIKey), http.MethodPost, "/v1/reconcile", testAPIKey)
		assert.Equal(t, http.StatusAccepted, w.Code)
		assert.Eventually(t, func() bool {
			return job.executed.Load() == 1
		}, time.Second, 10*time.Millisecond)
	})

	t.Run("conflicts with an active run", func(t *testing.T) {
		job := &stubJob{}
		job.running.Store(true)
		w := serve(newRouter(job, testAPIKey), http.MethodPost, "/v1/reconcile", testAPIKey)
		assert.Equal(t, http.StatusConflict, w.Code)
		assert.Equal(t, int32(0), job.executed.Load())
	})

	t.Run("back to back requests start one run", func(t *testing.T) {
		job := &stubJob{hold: make(chan struct{})}
		r := newRouter(job, testAPIKey)

		first := serve(r, http.MethodPost, "/v1/reconcile", testAPIKey)
		second := serve(r, http.MethodPost, "/v1/reconcile", testAPIKey)
		assert.Equal(t, http.StatusAccepted, first.Code)
		assert.Equal(t, http.StatusConflict, second.Code)

		close(job.hold)
		assert.Eventually(t, func() bool {
			return job.executed.Load() == 1 && !job.Running()
		}, time.Second, 10*time.Millisecond)
	})

	t.Run("disabled without a key", func(t *testing.T) {
		w := serve(newRouter(&stubJob{}, ""), http.MethodPost, "/v1/reconcile", testAPIKey)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestLastRun(t *testing.T) {
	t.Run("no run yet", func(t *testing.T) {
		w := serve(newRouter(&stubJob{}, testAPIKey), http.MethodGet, "/v1/runs/last", testAPIKey)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("returns the last result", func(t *testing.T) {
		job := &stubJob{last: &dto.RunResult{
			RunID:            "run_abc",
			DomainsProcessed: 3,
			Failed:           []dto.DomainFailure{{Organization: "acme", Domain: "acme.com", Error: "boom"}},
		}}
		w := serve(newRouter(job, testAPIKey), http.MethodGet, "/v1/runs/last", testAPIKey)
		require.Equal(t, http.StatusOK, w.Code)

		var got dto.RunResult
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
		assert.Equal(t, "run_abc", got.RunID)
		assert.Equal(t, 3, got.DomainsProcessed)
		assert.Equal(t, 1, got.DomainsFailed())
	})
}
