package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/JonMunkholm/ploidy/internal/core"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRecorder() *PrometheusRecorder {
	return newRecorder(prometheus.NewRegistry())
}

func TestObserveValidation(t *testing.T) {
	p := newTestRecorder()

	p.ObserveValidation(&core.Result{
		Stage:   core.StageRowsChecked,
		Records: make([]core.Record, 3),
	})
	p.ObserveValidation(&core.Result{
		Stage: core.StageRowsChecked,
		Defects: []core.Defect{
			{Kind: core.DefectCellType},
			{Kind: core.DefectCellType},
			{Kind: core.DefectBlankCell},
		},
	})
	p.ObserveValidation(&core.Result{
		Stage:   core.StageHeaderChecked,
		Defects: []core.Defect{{Kind: core.DefectStructural}},
	})
	p.ObserveValidation(nil)

	assert.Equal(t, 1.0, testutil.ToFloat64(p.validationsTotal.WithLabelValues("accepted", "rows_checked")))
	assert.Equal(t, 1.0, testutil.ToFloat64(p.validationsTotal.WithLabelValues("rejected", "rows_checked")))
	assert.Equal(t, 1.0, testutil.ToFloat64(p.validationsTotal.WithLabelValues("rejected", "header_checked")))
	assert.Equal(t, 2.0, testutil.ToFloat64(p.defectsTotal.WithLabelValues("cell_type")))
	assert.Equal(t, 1.0, testutil.ToFloat64(p.defectsTotal.WithLabelValues("structural")))
}

func TestObservePrediction(t *testing.T) {
	p := newTestRecorder()

	p.ObservePrediction("success", 2*time.Second)
	p.ObservePrediction("success", time.Second)
	p.ObservePrediction("error", 10*time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(p.predictionsTotal.WithLabelValues("success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(p.predictionsTotal.WithLabelValues("error")))
	assert.Equal(t, 2, testutil.CollectAndCount(p.predictionDuration))
}

func TestActiveSubmissionsFollowsLimiter(t *testing.T) {
	p := newTestRecorder()
	limiter := core.NewSubmissionLimiter(2, time.Second)
	limiter.OnActiveChange(p.SetActiveSubmissions)

	require.True(t, limiter.TryAcquire())
	require.True(t, limiter.TryAcquire())
	assert.Equal(t, 2.0, testutil.ToFloat64(p.activeSubmissions))

	limiter.Release()
	assert.Equal(t, 1.0, testutil.ToFloat64(p.activeSubmissions))
	limiter.Release()
	assert.Equal(t, 0.0, testutil.ToFloat64(p.activeSubmissions))
}

func TestHandler(t *testing.T) {
	p := NewPrometheusRecorder()
	p.ObserveHTTP("/upload", http.MethodPost, http.StatusOK, 5*time.Millisecond)
	p.ObserveHTTP("", http.MethodGet, http.StatusNotFound, time.Millisecond)

	rec := httptest.NewRecorder()
	p.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body, _ := io.ReadAll(rec.Body)
	text := string(body)
	assert.True(t, strings.Contains(text, `ploidy_http_requests_total{code="200",method="POST",route="/upload"} 1`), text)
	assert.Contains(t, text, `route="unmatched"`)
	assert.Contains(t, text, "go_goroutines")
}
