package controllers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/motu-crew/crewboard/modules/jobs/domain/aggregates/job"
	"github.com/motu-crew/crewboard/modules/jobs/presentation/mappers"
	"github.com/motu-crew/crewboard/modules/jobs/services"
	"github.com/motu-crew/crewboard/pkg/application"
)

type JobAPIController struct {
	jobs     *services.JobService
	logger   *logrus.Logger
	basePath string
}

func NewJobAPIController(app application.Application) application.Controller {
	return &JobAPIController{
		jobs:     app.Service(services.JobService{}).(*services.JobService),
		logger:   app.Logger(),
		basePath: "/api",
	}
}

func (c *JobAPIController) Key() string {
	return c.basePath
}

func (c *JobAPIController) Register(r *mux.Router) {
	router := r.PathPrefix(c.basePath).Subrouter()
	router.HandleFunc("/jobs", c.List).Methods(http.MethodGet)
	router.HandleFunc("/jobs/{id}", c.Get).Methods(http.MethodGet)
	router.HandleFunc("/jobs/{id}", c.UpdateStatus).Methods(http.MethodPatch)
	router.HandleFunc("/stats", c.Stats).Methods(http.MethodGet)
	router.HandleFunc("/schedule", c.Schedule).Methods(http.MethodGet)
	router.HandleFunc("/schedule/daily", c.Daily).Methods(http.MethodGet)
	router.HandleFunc("/crews/{name}", c.Crew).Methods(http.MethodGet)

	r.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}).Methods(http.MethodGet)
}

func (c *JobAPIController) internalError(w http.ResponseWriter, r *http.Request, err error, message string) {
	c.logger.WithError(err).WithField("path", r.URL.Path).Error(message)
	writeAPIError(w, r, http.StatusInternalServerError, "JOB_INTERNAL", message)
}

func (c *JobAPIController) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	params := job.FindParams{
		Date:   q.Get("date"),
		Crew:   q.Get("crew"),
		Feeder: q.Get("feeder"),
		Status: job.Status(strings.TrimSpace(q.Get("status"))),
	}
	jobs, err := c.jobs.List(r.Context(), params)
	if err != nil {
		c.internalError(w, r, err, "failed to fetch jobs")
		return
	}
	writeJSON(w, http.StatusOK, mappers.JobsToViewModels(jobs))
}

func (c *JobAPIController) Get(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	j, err := c.jobs.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, job.ErrNotFound) {
			writeAPIError(w, r, http.StatusNotFound, "JOB_NOT_FOUND", "job not found")
			return
		}
		c.internalError(w, r, err, "failed to fetch job")
		return
	}
	writeJSON(w, http.StatusOK, mappers.JobToViewModel(j))
}

func (c *JobAPIController) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	var dto job.StatusUpdateDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		writeAPIError(w, r, http.StatusBadRequest, "JOB_INVALID_JSON", "invalid json")
		return
	}
	if errs, ok := dto.Ok(); !ok {
		message := "invalid status"
		if v := strings.TrimSpace(errs["Status"]); v != "" {
			message = v
		}
		writeAPIError(w, r, http.StatusBadRequest, "JOB_INVALID_STATUS", message)
		return
	}

	id := mux.Vars(r)["id"]
	updated, err := c.jobs.SetStatus(r.Context(), id, job.Status(dto.Status), dto.CompletedBy)
	if err != nil {
		switch {
		case errors.Is(err, job.ErrNotFound):
			writeAPIError(w, r, http.StatusNotFound, "JOB_NOT_FOUND", "job not found")
		case errors.Is(err, job.ErrInvalidStatus):
			writeAPIError(w, r, http.StatusBadRequest, "JOB_INVALID_STATUS", "invalid status")
		default:
			c.internalError(w, r, err, "failed to update job")
		}
		return
	}
	writeJSON(w, http.StatusOK, mappers.JobToViewModel(updated))
}

func (c *JobAPIController) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := c.jobs.Stats(r.Context())
	if err != nil {
		c.internalError(w, r, err, "failed to fetch stats")
		return
	}
	writeJSON(w, http.StatusOK, mappers.StatsToViewModel(stats))
}

func (c *JobAPIController) Schedule(w http.ResponseWriter, r *http.Request) {
	days, err := c.jobs.Schedule(r.Context())
	if err != nil {
		c.internalError(w, r, err, "failed to fetch schedule")
		return
	}
	writeJSON(w, http.StatusOK, mappers.ScheduleToViewModel(days))
}

func (c *JobAPIController) Daily(w http.ResponseWriter, r *http.Request) {
	sheet, err := c.jobs.Daily(r.Context(), strings.TrimSpace(r.URL.Query().Get("date")))
	if err != nil {
		c.internalError(w, r, err, "failed to fetch daily sheet")
		return
	}
	writeJSON(w, http.StatusOK, mappers.DailyToViewModel(sheet))
}

func (c *JobAPIController) Crew(w http.ResponseWriter, r *http.Request) {
	detail, err := c.jobs.Crew(r.Context(), mux.Vars(r)["name"])
	if err != nil {
		c.internalError(w, r, err, "failed to fetch crew jobs")
		return
	}
	writeJSON(w, http.StatusOK, mappers.CrewToViewModel(detail))
}
