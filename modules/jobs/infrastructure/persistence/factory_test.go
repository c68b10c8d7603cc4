package persistence_test

import (
	"context"
	"testing"

	"github.com/caarlos0/env/v11"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/motu-crew/crewboard/modules/jobs/domain/aggregates/job"
	"github.com/motu-crew/crewboard/modules/jobs/infrastructure/airtable"
	"github.com/motu-crew/crewboard/modules/jobs/infrastructure/persistence"
	"github.com/motu-crew/crewboard/pkg/configuration"
	"github.com/motu-crew/crewboard/pkg/metrics"
)

func parseConf(t *testing.T, vars map[string]string) *configuration.Configuration {
	t.Helper()
	conf, err := configuration.Parse(env.Options{Environment: vars})
	require.NoError(t, err)
	return conf
}

func TestNewRepository_SelectsBackend(t *testing.T) {
	ctx := context.Background()

	repo, closer, err := persistence.NewRepository(ctx, parseConf(t, map[string]string{"STORE_BACKEND": "memory"}), logrus.New())
	require.NoError(t, err)
	defer closer()
	assert.IsType(t, &persistence.InmemJobRepository{}, repo)

	repo, closer, err = persistence.NewRepository(ctx, parseConf(t, map[string]string{
		"STORE_BACKEND":    "airtable",
		"AIRTABLE_API_KEY": "key",
		"AIRTABLE_BASE_ID": "app1",
	}), logrus.New())
	require.NoError(t, err)
	defer closer()
	assert.IsType(t, &airtable.JobRepository{}, repo)
}

func TestNewRepository_MissingCredentials(t *testing.T) {
	_, _, err := persistence.NewRepository(context.Background(), parseConf(t, map[string]string{"STORE_BACKEND": "airtable"}), logrus.New())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "AIRTABLE_API_KEY")
}

func TestInstrumentedRepository_CountsFailuresButNotMisses(t *testing.T) {
	m := metrics.NewJobMetrics(prometheus.NewRegistry())
	repo := persistence.NewInstrumentedRepository(persistence.NewInmemJobRepository(), "memory", m)
	ctx := context.Background()

	_, err := repo.GetByID(ctx, "missing")
	require.ErrorIs(t, err, job.ErrNotFound)
	assert.Equal(t, 0.0, testutil.ToFloat64(m.StoreErrors.WithLabelValues("memory", "get")))

	n, err := repo.CreateBatch(ctx, []job.Fields{{Status: job.StatusPending}, {Status: job.StatusPending}}, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, 2.0, testutil.ToFloat64(m.ImportedRecords))
}
