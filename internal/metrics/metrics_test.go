package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func value(t *testing.T, c prometheus.Counter) float64 {
	t.Helper()
	var m dto.Metric
	require.NoError(t, c.Write(&m))
	return m.GetCounter().GetValue()
}

func TestRecordAbsenceWrite(t *testing.T) {
	before := value(t, absenceWrites.WithLabelValues("merged"))
	mergedBefore := value(t, absenceMergedIntervals)

	RecordAbsenceWrite("merged", 2)

	assert.Equal(t, before+1, value(t, absenceWrites.WithLabelValues("merged")))
	assert.Equal(t, mergedBefore+2, value(t, absenceMergedIntervals))
}

func TestRecordConsolidation(t *testing.T) {
	merged := value(t, consolidationRuns.WithLabelValues("merged"))
	clean := value(t, consolidationRuns.WithLabelValues("clean"))
	failed := value(t, consolidationRuns.WithLabelValues("error"))
	removed := value(t, consolidationRemoved)

	RecordConsolidation(4, 1, nil)
	RecordConsolidation(2, 2, nil)
	RecordConsolidation(0, 0, errors.New("boom"))

	assert.Equal(t, merged+1, value(t, consolidationRuns.WithLabelValues("merged")))
	assert.Equal(t, clean+1, value(t, consolidationRuns.WithLabelValues("clean")))
	assert.Equal(t, failed+1, value(t, consolidationRuns.WithLabelValues("error")))
	assert.Equal(t, removed+3, value(t, consolidationRemoved))
}

func TestCacheCounters(t *testing.T) {
	hits := value(t, cacheRequests.WithLabelValues("hit"))
	manual := value(t, cacheInvalidations.WithLabelValues("manual"))

	RecordCacheRequest(true)
	RecordCacheInvalidate("")

	assert.Equal(t, hits+1, value(t, cacheRequests.WithLabelValues("hit")))
	assert.Equal(t, manual+1, value(t, cacheInvalidations.WithLabelValues("manual")))
}

func TestHandlerExposesCollectors(t *testing.T) {
	RecordGenerated(3)
	ObserveSchedule(0.01, 7)

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.True(t, strings.Contains(body, "planning_assignments_generated_total"))
	assert.True(t, strings.Contains(body, "planning_schedule_compute_seconds"))
}
