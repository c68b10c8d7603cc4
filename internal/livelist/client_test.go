package livelist

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/motu-crew/crewboard/modules/jobs/domain/aggregates/job"
)

func TestClient_ListJobsSendsFilter(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/base/api/jobs", r.URL.Path)
		assert.Equal(t, "Ryan", r.URL.Query().Get("crew"))
		assert.Equal(t, "2026-03-15", r.URL.Query().Get("date"))
		assert.False(t, r.URL.Query().Has("feeder"))
		assert.NotEmpty(t, r.Header.Get("X-Request-ID"))
		_, _ = w.Write([]byte(`[{"id":"rec1"}]`))
	}))
	defer srv.Close()

	c, err := NewClient(ClientOptions{
		BaseURL:         srv.URL + "/base/",
		Filter:          job.FindParams{Crew: "Ryan", Date: "2026-03-15"},
		RequestIDHeader: "X-Request-ID",
	})
	require.NoError(t, err)

	payload, err := c.ListJobs(context.Background())
	require.NoError(t, err)
	assert.JSONEq(t, `[{"id":"rec1"}]`, string(payload))
}

func TestClient_UpdateStatus(t *testing.T) {
	var got map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPatch, r.Method)
		assert.Equal(t, "/api/jobs/rec1", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		got = map[string]string{}
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		if got["status"] == "Done" {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"code":"JOB_INVALID_STATUS","message":"invalid status"}`))
			return
		}
		_, _ = w.Write([]byte(`{"id":"rec1"}`))
	}))
	defer srv.Close()

	c, err := NewClient(ClientOptions{BaseURL: srv.URL, Timeout: time.Second})
	require.NoError(t, err)

	require.NoError(t, c.UpdateStatus(context.Background(), "rec1", job.StatusCompleted, "Jade"))
	assert.Equal(t, map[string]string{"status": "Completed", "completedBy": "Jade"}, got)

	require.NoError(t, c.UpdateStatus(context.Background(), "rec1", job.StatusPending, ""))
	assert.Equal(t, map[string]string{"status": "Pending"}, got)

	err = c.UpdateStatus(context.Background(), "rec1", job.Status("Done"), "")
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
	assert.Equal(t, "JOB_INVALID_STATUS", apiErr.Code)
}

func TestNewClient_RejectsBadURL(t *testing.T) {
	_, err := NewClient(ClientOptions{BaseURL: "localhost:3200"})
	require.Error(t, err)
}
