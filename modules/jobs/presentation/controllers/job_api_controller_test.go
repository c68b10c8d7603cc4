package controllers_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/motu-crew/crewboard/modules/jobs"
	"github.com/motu-crew/crewboard/modules/jobs/domain/aggregates/job"
	"github.com/motu-crew/crewboard/modules/jobs/infrastructure/persistence"
	"github.com/motu-crew/crewboard/modules/jobs/presentation/viewmodels"
	"github.com/motu-crew/crewboard/pkg/application"
	"github.com/motu-crew/crewboard/pkg/httpapi"
)

var fixedNow = time.Date(2026, 3, 15, 9, 0, 0, 0, time.UTC)

type failingRepository struct{ job.Repository }

func (failingRepository) List(context.Context, job.FindParams) ([]job.Job, error) {
	return nil, assert.AnError
}

func newRouter(t *testing.T, repo job.Repository) *mux.Router {
	t.Helper()
	app := application.New(&application.ApplicationOptions{Logger: logrus.New()})
	require.NoError(t, application.Load(app, jobs.NewModule(jobs.ModuleOptions{
		Repository: repo,
		Location:   time.UTC,
		Clock:      func() time.Time { return fixedNow },
	})))
	r := mux.NewRouter()
	for _, c := range app.Controllers() {
		c.Register(r)
	}
	return r
}

func seeded() *persistence.InmemJobRepository {
	return persistence.NewInmemJobRepository(
		job.Hydrate("rec1", job.Fields{Date: "2026-03-15", StartTime: "08:00", CrewName: job.CrewRyan, Feeder: job.FeederMotu112, JobDurationHours: 2, Status: job.StatusPending}, "", ""),
		job.Hydrate("rec2", job.Fields{Date: "2026-03-15", StartTime: "07:00", CrewName: job.CrewHedgeShelter, JobDurationHours: 1.5, Status: job.StatusCompleted}, "2026-03-15", "Jamie"),
		job.Hydrate("rec3", job.Fields{Date: "2026-03-16", CrewName: job.CrewRyan, Status: job.StatusInProgress}, "", ""),
	)
}

func do(r http.Handler, method, target, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestJobAPI_ListWithFilters(t *testing.T) {
	r := newRouter(t, seeded())

	rec := do(r, http.MethodGet, "/api/jobs?date=2026-03-15", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var got []viewmodels.Job
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Len(t, got, 2)
	assert.Equal(t, "rec2", got[0].ID, "ordered by start time")
	assert.Equal(t, job.CrewHedgeShelter, got[0].CrewName)
	assert.Equal(t, "Jamie", got[0].CompletedBy)

	rec = do(r, http.MethodGet, "/api/jobs?crew=Ryan&status="+url.QueryEscape("In Progress"), "")
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Len(t, got, 1)
	assert.Equal(t, "rec3", got[0].ID)

	rec = do(r, http.MethodGet, "/api/jobs?feeder=MOTU+114", "")
	assert.JSONEq(t, "[]", rec.Body.String())
}

func TestJobAPI_GetNotFound(t *testing.T) {
	r := newRouter(t, seeded())

	rec := do(r, http.MethodGet, "/api/jobs/missing", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	var env httpapi.ErrorEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	assert.Equal(t, "JOB_NOT_FOUND", env.Code)

	rec = do(r, http.MethodGet, "/api/jobs/rec1", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"crewName":"Ryan"`)
}

func TestJobAPI_PatchStatus(t *testing.T) {
	r := newRouter(t, seeded())

	rec := do(r, http.MethodPatch, "/api/jobs/rec1", `{"status":"Completed","completedBy":"Ryan"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	var got viewmodels.Job
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "Completed", got.Status)
	assert.Equal(t, "2026-03-15", got.CompletionDate)
	assert.Equal(t, "Ryan", got.CompletedBy)

	rec = do(r, http.MethodPatch, "/api/jobs/rec1", `{"status":"Pending"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Empty(t, got.CompletionDate)
	assert.Empty(t, got.CompletedBy)
}

func TestJobAPI_PatchAcceptsAnyCompletedBy(t *testing.T) {
	r := newRouter(t, seeded())
	name := strings.Repeat("Ryan ", 60)

	rec := do(r, http.MethodPatch, "/api/jobs/rec1", `{"status":"Completed","completedBy":"`+name+`"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	var got viewmodels.Job
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, strings.TrimSpace(name), got.CompletedBy)
}

func TestJobAPI_PatchRejectsBadInput(t *testing.T) {
	r := newRouter(t, seeded())

	cases := []struct {
		name, body, code string
		status           int
	}{
		{"unknown status", `{"status":"Done"}`, "JOB_INVALID_STATUS", http.StatusBadRequest},
		{"missing status", `{}`, "JOB_INVALID_STATUS", http.StatusBadRequest},
		{"bad json", `{"status":`, "JOB_INVALID_JSON", http.StatusBadRequest},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := do(r, http.MethodPatch, "/api/jobs/rec1", tc.body)
			assert.Equal(t, tc.status, rec.Code)
			assert.Contains(t, rec.Body.String(), tc.code)
		})
	}

	rec := do(r, http.MethodPatch, "/api/jobs/missing", `{"status":"Pending"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestJobAPI_Stats(t *testing.T) {
	r := newRouter(t, seeded())

	rec := do(r, http.MethodGet, "/api/stats", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var got viewmodels.DashboardStats
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, 3, got.TotalJobs)
	assert.Equal(t, 1, got.CompletedJobs)
	assert.Equal(t, 1, got.InProgressJobs)
	assert.Equal(t, 1, got.PendingJobs)
	assert.Equal(t, 3.5, got.TotalHours)
	assert.Equal(t, 33, got.CompletionPercentage)
	assert.Equal(t, viewmodels.Breakdown{Total: 2, Completed: 0, Hours: 2}, got.ByCrew[job.CrewRyan])
	assert.Equal(t, viewmodels.Breakdown{Total: 2, Completed: 1, Hours: 1.5}, got.ByFeeder[job.FeederMotu111])
}

func TestJobAPI_ScheduleDailyAndCrew(t *testing.T) {
	r := newRouter(t, seeded())

	rec := do(r, http.MethodGet, "/api/schedule", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var days []viewmodels.DaySummary
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &days))
	require.Len(t, days, 2)

	rec = do(r, http.MethodGet, "/api/schedule/daily", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var sheet viewmodels.DailySheet
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &sheet))
	assert.Equal(t, "2026-03-15", sheet.Date)
	require.Len(t, sheet.Crews, 2)
	assert.Equal(t, job.CrewRyan, sheet.Crews[0].Crew)
	assert.Equal(t, job.CrewHedgeShelter, sheet.Crews[1].Crew)

	rec = do(r, http.MethodGet, "/api/crews/"+url.PathEscape(job.CrewHedgeShelter), "")
	require.Equal(t, http.StatusOK, rec.Code)
	var crew viewmodels.CrewDetail
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &crew))
	assert.Equal(t, 1, crew.Total)
	assert.Equal(t, 100, crew.Percentage)
}

func TestJobAPI_StoreFailureIsGeneric(t *testing.T) {
	r := newRouter(t, failingRepository{})

	rec := do(r, http.MethodGet, "/api/jobs", "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "JOB_INTERNAL")
	assert.NotContains(t, rec.Body.String(), assert.AnError.Error())
}

func TestHealth(t *testing.T) {
	rec := do(newRouter(t, seeded()), http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}
