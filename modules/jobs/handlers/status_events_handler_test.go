package handlers_test

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/motu-crew/crewboard/modules/jobs/domain/aggregates/job"
	"github.com/motu-crew/crewboard/modules/jobs/domain/events"
	"github.com/motu-crew/crewboard/modules/jobs/handlers"
	"github.com/motu-crew/crewboard/pkg/application"
	"github.com/motu-crew/crewboard/pkg/metrics"
)

func TestStatusEventsHandler_CountsTransitions(t *testing.T) {
	logger, hook := test.NewNullLogger()
	app := application.New(&application.ApplicationOptions{Logger: logger})
	m := metrics.NewJobMetrics(prometheus.NewRegistry())
	handlers.RegisterStatusEventHandlers(app, m)

	before := job.Hydrate("rec1", job.Fields{}, "", "")
	after := before
	after.Status = job.StatusInProgress
	app.EventPublisher().Publish(events.NewStatusChangedEvent(before, after, time.Now()))

	assert.Equal(t, 1.0, testutil.ToFloat64(m.StatusTransitions.WithLabelValues("Pending", "In Progress")))
	require.NotNil(t, hook.LastEntry())
	assert.Equal(t, "rec1", hook.LastEntry().Data["job_id"])
}
