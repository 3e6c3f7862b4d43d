package metrics

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/hibiken/asynq"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTaskOutcome(t *testing.T) {
	assert.Equal(t, TaskSucceeded, TaskOutcome(nil))
	assert.Equal(t, TaskDropped, TaskOutcome(fmt.Errorf("bad payload: %w", asynq.SkipRetry)))
	assert.Equal(t, TaskRetried, TaskOutcome(errors.New("timeout")))
}

func TestAsynqMetricsMiddleware(t *testing.T) {
	handler := AsynqMetricsMiddleware()(asynq.HandlerFunc(func(context.Context, *asynq.Task) error {
		assert.Equal(t, 1.0, testutil.ToFloat64(taskInProgress.WithLabelValues("test:task")))
		return nil
	}))

	require.NoError(t, handler.ProcessTask(context.Background(), asynq.NewTask("test:task", nil)))
	assert.Equal(t, 0.0, testutil.ToFloat64(taskInProgress.WithLabelValues("test:task")))
}

func TestGinMiddleware_UnmatchedRoutesShareOneLabel(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(GinMiddleware())
	r.GET("/ok", func(c *gin.Context) { c.Status(http.StatusOK) })

	before := testutil.CollectAndCount(requestDuration)
	for _, p := range []string{"/nope/1", "/nope/2", "/nope/3"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, p, nil))
	}
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/ok", nil))

	assert.Equal(t, before+2, testutil.CollectAndCount(requestDuration))
}

func TestExportMetrics(t *testing.T) {
	ObserveExport("fake", "png", "ok", 0)
	assert.Equal(t, 1, testutil.CollectAndCount(exportDuration))

	BrowserAcquired("fake")
	assert.Equal(t, 1.0, testutil.ToFloat64(browsersInFlight.WithLabelValues("fake")))
	BrowserReleased("fake")
	assert.Equal(t, 0.0, testutil.ToFloat64(browsersInFlight.WithLabelValues("fake")))
}
