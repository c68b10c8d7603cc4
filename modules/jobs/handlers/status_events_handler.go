package handlers

import (
	"github.com/sirupsen/logrus"

	"github.com/motu-crew/crewboard/modules/jobs/domain/events"
	"github.com/motu-crew/crewboard/pkg/application"
	"github.com/motu-crew/crewboard/pkg/metrics"
)

type StatusEventsHandler struct {
	metrics *metrics.JobMetrics
	logger  *logrus.Logger
}

func RegisterStatusEventHandlers(app application.Application, m *metrics.JobMetrics) *StatusEventsHandler {
	handler := &StatusEventsHandler{
		metrics: m,
		logger:  app.Logger(),
	}
	app.EventPublisher().Subscribe(handler.onStatusChanged)
	return handler
}

func (h *StatusEventsHandler) onStatusChanged(event *events.StatusChangedEvent) {
	if h.metrics != nil {
		h.metrics.StatusTransitions.WithLabelValues(string(event.From), string(event.To)).Inc()
	}
	h.logger.WithFields(logrus.Fields{
		"job_id":       event.JobID,
		"from":         event.From,
		"to":           event.To,
		"completed_by": event.CompletedBy,
	}).Info("job status changed")
}
