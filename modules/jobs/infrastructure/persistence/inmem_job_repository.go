package persistence

import (
	"context"
	"maps"
	"slices"
	"sync"

	"github.com/google/uuid"

	"github.com/motu-crew/crewboard/modules/jobs/domain/aggregates/job"
)

type SafeMap[K comparable, V any] struct {
	mu sync.RWMutex
	m  map[K]V
}

func NewSafeMap[K comparable, V any]() *SafeMap[K, V] {
	return &SafeMap[K, V]{
		m: make(map[K]V),
	}
}

func (s *SafeMap[K, V]) Set(key K, value V) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.m[key] = value
}

func (s *SafeMap[K, V]) Get(key K) (V, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	val, found := s.m[key]
	return val, found
}

func (s *SafeMap[K, V]) Values() []V {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Collect(maps.Values(s.m))
}

// Update runs fn under the write lock so read-modify-write sequences are atomic.
func (s *SafeMap[K, V]) Update(fn func(m map[K]V)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(s.m)
}

// InmemJobRepository keeps jobs in process memory. It backs STORE_BACKEND=memory
// and the service and controller tests.
type InmemJobRepository struct {
	storage *SafeMap[string, job.Job]
}

func NewInmemJobRepository(seed ...job.Job) *InmemJobRepository {
	r := &InmemJobRepository{storage: NewSafeMap[string, job.Job]()}
	for _, j := range seed {
		if j.ID == "" {
			j.ID = newRecordID()
		}
		r.storage.Set(j.ID, j)
	}
	return r
}

func newRecordID() string {
	return "rec" + uuid.NewString()
}

func (r *InmemJobRepository) List(_ context.Context, params job.FindParams) ([]job.Job, error) {
	out := make([]job.Job, 0)
	for _, j := range r.storage.Values() {
		if params.Matches(j) {
			out = append(out, j)
		}
	}
	job.SortByDateAndStart(out)
	return out, nil
}

func (r *InmemJobRepository) GetByID(_ context.Context, id string) (job.Job, error) {
	j, ok := r.storage.Get(id)
	if !ok {
		return job.Job{}, job.ErrNotFound
	}
	return j, nil
}

func (r *InmemJobRepository) UpdateStatus(_ context.Context, id string, patch job.StatusPatch) (job.Job, error) {
	var (
		updated job.Job
		found   bool
	)
	r.storage.Update(func(m map[string]job.Job) {
		current, ok := m[id]
		if !ok {
			return
		}
		found = true
		updated = patch.Apply(current)
		m[id] = updated
	})
	if !found {
		return job.Job{}, job.ErrNotFound
	}
	return updated, nil
}

func (r *InmemJobRepository) CreateBatch(_ context.Context, records []job.Fields, mergeOn []string) (int, error) {
	written := 0
	r.storage.Update(func(m map[string]job.Job) {
		for _, rec := range records {
			if id, ok := findMergeTarget(m, rec, mergeOn); ok {
				existing := m[id]
				existing.Fields = rec
				m[id] = job.Hydrate(id, existing.Fields, existing.CompletionDate, existing.CompletedBy)
			} else {
				id := newRecordID()
				m[id] = job.Hydrate(id, rec, "", "")
			}
			written++
		}
	})
	return written, nil
}

func findMergeTarget(m map[string]job.Job, rec job.Fields, mergeOn []string) (string, bool) {
	if len(mergeOn) == 0 {
		return "", false
	}
	for id, existing := range m {
		if sameOn(existing.Fields, rec, mergeOn) {
			return id, true
		}
	}
	return "", false
}

func sameOn(a, b job.Fields, fields []string) bool {
	for _, name := range fields {
		av, ok := a.Value(name)
		if !ok {
			return false
		}
		bv, _ := b.Value(name)
		if av != bv {
			return false
		}
	}
	return true
}
