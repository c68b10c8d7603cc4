package persistence

import (
	"context"
	"time"

	"github.com/go-faster/errors"

	"github.com/motu-crew/crewboard/modules/jobs/domain/aggregates/job"
	"github.com/motu-crew/crewboard/pkg/metrics"
)

// InstrumentedRepository records latency and failures of every call to the wrapped store.
type InstrumentedRepository struct {
	next    job.Repository
	backend string
	metrics *metrics.JobMetrics
}

func NewInstrumentedRepository(next job.Repository, backend string, m *metrics.JobMetrics) *InstrumentedRepository {
	return &InstrumentedRepository{next: next, backend: backend, metrics: m}
}

func (r *InstrumentedRepository) List(ctx context.Context, params job.FindParams) (jobs []job.Job, err error) {
	defer r.observe("list", time.Now(), &err)
	return r.next.List(ctx, params)
}

func (r *InstrumentedRepository) GetByID(ctx context.Context, id string) (j job.Job, err error) {
	defer r.observe("get", time.Now(), &err)
	return r.next.GetByID(ctx, id)
}

func (r *InstrumentedRepository) UpdateStatus(ctx context.Context, id string, patch job.StatusPatch) (j job.Job, err error) {
	defer r.observe("update_status", time.Now(), &err)
	return r.next.UpdateStatus(ctx, id, patch)
}

func (r *InstrumentedRepository) CreateBatch(ctx context.Context, records []job.Fields, mergeOn []string) (n int, err error) {
	defer r.observe("create_batch", time.Now(), &err)
	n, err = r.next.CreateBatch(ctx, records, mergeOn)
	if err == nil {
		r.metrics.ImportedRecords.Add(float64(n))
	}
	return n, err
}

// Not-found is an answer, not a store failure.
func (r *InstrumentedRepository) observe(op string, start time.Time, err *error) {
	e := *err
	if errors.Is(e, job.ErrNotFound) {
		e = nil
	}
	r.metrics.ObserveStoreCall(r.backend, op, start, e)
}
