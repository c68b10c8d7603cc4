package persistence

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"

	"github.com/motu-crew/crewboard/modules/jobs/domain/aggregates/job"
	"github.com/motu-crew/crewboard/modules/jobs/infrastructure/airtable"
	"github.com/motu-crew/crewboard/pkg/configuration"
)

// NewRepository builds the store selected by STORE_BACKEND. The returned closer
// releases backend resources and is never nil.
func NewRepository(ctx context.Context, conf *configuration.Configuration, log *logrus.Logger) (job.Repository, func(), error) {
	if err := conf.ValidateStore(); err != nil {
		return nil, nil, err
	}
	switch conf.Store.Backend {
	case configuration.BackendAirtable:
		client, err := airtable.NewClient(airtable.Options{
			APIURL:   conf.Airtable.APIURL,
			APIKey:   conf.Airtable.APIKey,
			BaseID:   conf.Airtable.BaseID,
			Table:    conf.Airtable.Table,
			Timeout:  conf.Airtable.Timeout,
			Typecast: conf.Airtable.Typecast,
		}, log)
		if err != nil {
			return nil, nil, err
		}
		return airtable.NewJobRepository(client), func() {}, nil
	case configuration.BackendPostgres:
		pool, err := pgxpool.New(ctx, conf.Database.Opts)
		if err != nil {
			return nil, nil, errors.Wrap(err, "connect postgres")
		}
		repo := NewJobRepository(pool)
		if err := repo.EnsureSchema(ctx); err != nil {
			pool.Close()
			return nil, nil, err
		}
		return repo, pool.Close, nil
	default:
		log.Warn("using in-memory job store; data is lost on exit")
		return NewInmemJobRepository(), func() {}, nil
	}
}
