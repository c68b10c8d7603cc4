package metrics_test

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/motu-crew/crewboard/pkg/metrics"
)

func TestJobMetrics_ObserveStoreCall(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.NewJobMetrics(reg)

	m.ObserveStoreCall("memory", "list", time.Now(), nil)
	m.ObserveStoreCall("memory", "list", time.Now(), errors.New("down"))
	m.StatusTransitions.WithLabelValues("Pending", "In Progress").Inc()

	assert.Equal(t, 1.0, testutil.ToFloat64(m.StoreErrors.WithLabelValues("memory", "list")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.StatusTransitions.WithLabelValues("Pending", "In Progress")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.StoreCalls))
}

func TestJobMetrics_StoreCallHistogramCountsEveryCall(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.NewJobMetrics(reg)

	for i := 0; i < 3; i++ {
		m.ObserveStoreCall("airtable", "update_status", time.Now(), nil)
	}

	families, err := reg.Gather()
	require.NoError(t, err)
	var hist *dto.Histogram
	for _, mf := range families {
		if mf.GetName() == "crewboard_job_store_call_duration_seconds" {
			require.Len(t, mf.GetMetric(), 1)
			hist = mf.GetMetric()[0].GetHistogram()
		}
	}
	require.NotNil(t, hist)
	assert.Equal(t, uint64(3), hist.GetSampleCount())
}

func TestPrometheusController_ServesRegistry(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.NewJobMetrics(reg)
	m.ImportedRecords.Add(3)

	r := mux.NewRouter()
	metrics.NewPrometheusController("", reg).Register(r)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/debug/prometheus", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "crewboard_job_imported_records_total 3")
}
