package airtable

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/motu-crew/crewboard/modules/jobs/domain/aggregates/job"
)

func newTestRepository(t *testing.T, h http.HandlerFunc) *JobRepository {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	client, err := NewClient(Options{APIURL: srv.URL + "/v0", APIKey: "key", BaseID: "app1", Table: "Jobs"}, logrus.New())
	require.NoError(t, err)
	return NewJobRepository(client)
}

func TestFilterFormula(t *testing.T) {
	cases := []struct {
		name   string
		params job.FindParams
		want   string
	}{
		{"empty", job.FindParams{}, ""},
		{"date", job.FindParams{Date: "2026-03-15"}, `IS_SAME({date}, "2026-03-15", 'day')`},
		{"crew", job.FindParams{Crew: `Jade "J"`}, `{crew_name} = "Jade \"J\""`},
		{
			"combined",
			job.FindParams{Date: "2026-03-15", Feeder: job.FeederMotu112, Status: job.StatusPending},
			`AND(IS_SAME({date}, "2026-03-15", 'day'), {feeder} = "MOTU 112", {status} = "Pending")`,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, filterFormula(tc.params))
		})
	}
}

func TestJobRepository_ListFollowsOffsetAndAppliesDefaults(t *testing.T) {
	calls := 0
	repo := newTestRepository(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		assert.Equal(t, "/v0/app1/Jobs", r.URL.Path)
		assert.Equal(t, "Bearer key", r.Header.Get("Authorization"))
		q := r.URL.Query()
		assert.Equal(t, `IS_SAME({date}, "2026-03-15", 'day')`, q.Get("filterByFormula"))
		assert.Equal(t, "date", q.Get("sort[0][field]"))
		assert.Equal(t, "start_time", q.Get("sort[1][field]"))

		if q.Get("offset") == "" {
			_, _ = io.WriteString(w, `{"records":[{"id":"rec1","fields":{"date":"2026-03-15","full_address":"12 Tui St"}}],"offset":"itr1"}`)
			return
		}
		assert.Equal(t, "itr1", q.Get("offset"))
		_, _ = io.WriteString(w, `{"records":[{"id":"rec2","fields":{"date":"2026-03-15","crew_name":"Ryan","status":"Completed","completion_date":"2026-03-15","job_duration_hours":2.5}}]}`)
	})

	jobs, err := repo.List(context.Background(), job.FindParams{Date: "2026-03-15"})
	require.NoError(t, err)
	require.Len(t, jobs, 2)
	assert.Equal(t, 2, calls)

	assert.Equal(t, job.CrewJade, jobs[0].CrewName)
	assert.Equal(t, job.FeederMotu111, jobs[0].Feeder)
	assert.Equal(t, job.StatusPending, jobs[0].Status)
	assert.Equal(t, job.StatusCompleted, jobs[1].Status)
	assert.Equal(t, "2026-03-15", jobs[1].CompletionDate)
	assert.InDelta(t, 2.5, jobs[1].JobDurationHours, 0.0001)
}

func TestJobRepository_GetByIDNotFound(t *testing.T) {
	repo := newTestRepository(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = io.WriteString(w, `{"error":"NOT_FOUND"}`)
	})
	_, err := repo.GetByID(context.Background(), "recmissing")
	require.ErrorIs(t, err, job.ErrNotFound)
}

func TestJobRepository_UpdateStatusClearsWithNull(t *testing.T) {
	var body map[string]map[string]any
	repo := newTestRepository(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPatch, r.Method)
		assert.Equal(t, "/v0/app1/Jobs/rec1", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		_, _ = io.WriteString(w, `{"id":"rec1","fields":{"status":"In Progress"}}`)
	})

	empty := ""
	got, err := repo.UpdateStatus(context.Background(), "rec1", job.StatusPatch{
		Status:         job.StatusInProgress,
		CompletionDate: &empty,
		CompletedBy:    &empty,
	})
	require.NoError(t, err)
	assert.Equal(t, job.StatusInProgress, got.Status)

	fields := body["fields"]
	assert.Equal(t, "In Progress", fields["status"])
	assert.Contains(t, fields, "completion_date")
	assert.Nil(t, fields["completion_date"])
	assert.Contains(t, fields, "completed_by")
	assert.Nil(t, fields["completed_by"])
}

func TestJobRepository_UpdateStatusLeavesUnsetFieldsOut(t *testing.T) {
	var body map[string]map[string]any
	repo := newTestRepository(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		_, _ = io.WriteString(w, `{"id":"rec1","fields":{"status":"Completed","completion_date":"2026-03-15"}}`)
	})

	today := "2026-03-15"
	_, err := repo.UpdateStatus(context.Background(), "rec1", job.StatusPatch{Status: job.StatusCompleted, CompletionDate: &today})
	require.NoError(t, err)
	assert.Equal(t, "2026-03-15", body["fields"]["completion_date"])
	assert.NotContains(t, body["fields"], "completed_by")
}

func TestJobRepository_CreateBatch(t *testing.T) {
	var got createRequest
	repo := newTestRepository(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = io.WriteString(w, `{"records":[{"id":"rec1","fields":{}},{"id":"rec2","fields":{}}]}`)
	})

	n, err := repo.CreateBatch(context.Background(), []job.Fields{
		{Date: "2026-03-15", Status: job.StatusPending},
		{Date: "2026-03-16", Status: job.StatusPending, JobDurationHours: 1.5},
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	require.Len(t, got.Records, 2)
	assert.InDelta(t, 1.5, got.Records[1].Fields.JobDurationHours, 0.0001)
}

func TestJobRepository_CreateBatchUpserts(t *testing.T) {
	var got upsertRequest
	repo := newTestRepository(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPatch, r.Method)
		assert.Equal(t, "/v0/app1/Jobs", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = io.WriteString(w, `{"records":[{"id":"rec1","fields":{}}]}`)
	})

	_, err := repo.CreateBatch(context.Background(), []job.Fields{{Date: "2026-03-15", Status: job.StatusPending}}, []string{"date", "full_address"})
	require.NoError(t, err)
	assert.Equal(t, []string{"date", "full_address"}, got.PerformUpsert.FieldsToMergeOn)
}

func TestJobRepository_CreateBatchRejectsOversizedBatch(t *testing.T) {
	repo := newTestRepository(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected")
	})
	_, err := repo.CreateBatch(context.Background(), make([]job.Fields, MaxRecordsPerRequest+1), nil)
	require.Error(t, err)
}

func TestJobRepository_APIErrorIsParsed(t *testing.T) {
	repo := newTestRepository(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = io.WriteString(w, `{"error":{"type":"INVALID_VALUE_FOR_COLUMN","message":"Field \"feeder\" cannot accept the provided value"}}`)
	})

	_, err := repo.CreateBatch(context.Background(), []job.Fields{{Status: job.StatusPending}}, nil)
	require.Error(t, err)
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnprocessableEntity, apiErr.StatusCode)
	assert.Equal(t, "INVALID_VALUE_FOR_COLUMN", apiErr.Type)
	assert.Contains(t, apiErr.Message, "feeder")
}

func TestNewClient_RequiresCredentials(t *testing.T) {
	_, err := NewClient(Options{APIURL: "https://api.airtable.com/v0"}, nil)
	require.Error(t, err)
	_, err = NewClient(Options{APIURL: "not a url", APIKey: "k", BaseID: "b"}, nil)
	require.Error(t, err)
}
