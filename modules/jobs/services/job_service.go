package services

import (
	"context"
	"strings"
	"time"

	"github.com/motu-crew/crewboard/modules/jobs/domain/aggregates/job"
	"github.com/motu-crew/crewboard/modules/jobs/domain/events"
	"github.com/motu-crew/crewboard/pkg/eventbus"
)

type Option func(*JobService)

// WithClock replaces time.Now, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(s *JobService) { s.now = now }
}

// WithLocation sets the zone that decides which calendar day "today" is.
func WithLocation(loc *time.Location) Option {
	return func(s *JobService) {
		if loc != nil {
			s.loc = loc
		}
	}
}

type JobService struct {
	repo      job.Repository
	publisher eventbus.EventBus
	now       func() time.Time
	loc       *time.Location
}

func NewJobService(repo job.Repository, publisher eventbus.EventBus, opts ...Option) *JobService {
	s := &JobService{
		repo:      repo,
		publisher: publisher,
		now:       time.Now,
		loc:       time.UTC,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *JobService) Today() string {
	return s.now().In(s.loc).Format(job.DateLayout)
}

func (s *JobService) List(ctx context.Context, params job.FindParams) ([]job.Job, error) {
	params.Date = strings.TrimSpace(params.Date)
	params.Crew = strings.TrimSpace(params.Crew)
	params.Feeder = strings.TrimSpace(params.Feeder)
	return s.repo.List(ctx, params)
}

func (s *JobService) GetByID(ctx context.Context, id string) (job.Job, error) {
	return s.repo.GetByID(ctx, id)
}

// SetStatus moves a job to status. Completed stamps today's date and, when given,
// the actor; any other status clears both. Concurrent writers race: the last write wins.
func (s *JobService) SetStatus(ctx context.Context, id string, status job.Status, completedBy string) (job.Job, error) {
	now := s.now().In(s.loc)
	patch, err := job.TransitionPatch(status, completedBy, now)
	if err != nil {
		return job.Job{}, err
	}
	before, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return job.Job{}, err
	}
	after, err := s.repo.UpdateStatus(ctx, id, patch)
	if err != nil {
		return job.Job{}, err
	}
	if s.publisher != nil {
		s.publisher.Publish(events.NewStatusChangedEvent(before, after, now))
	}
	return after, nil
}
