package job

import (
	"context"
	"errors"
	"sort"
)

var (
	ErrNotFound      = errors.New("job not found")
	ErrInvalidStatus = errors.New("invalid job status")
)

// FindParams are combined with logical AND; empty values do not filter.
type FindParams struct {
	Date   string
	Crew   string
	Feeder string
	Status Status
}

func (p FindParams) Matches(j Job) bool {
	if p.Date != "" && j.Date != p.Date {
		return false
	}
	if p.Crew != "" && j.CrewName != p.Crew {
		return false
	}
	if p.Feeder != "" && j.Feeder != p.Feeder {
		return false
	}
	if p.Status != "" && j.Status != p.Status {
		return false
	}
	return true
}

// SortByDateAndStart orders jobs by date then start time, both ascending.
func SortByDateAndStart(jobs []Job) {
	sort.SliceStable(jobs, func(i, k int) bool {
		if jobs[i].Date != jobs[k].Date {
			return jobs[i].Date < jobs[k].Date
		}
		return jobs[i].StartTime < jobs[k].StartTime
	})
}

type Repository interface {
	// List returns matching jobs ordered by date then start time, both ascending.
	List(ctx context.Context, params FindParams) ([]Job, error)
	GetByID(ctx context.Context, id string) (Job, error)
	// UpdateStatus patches one record. There is no version check: the last write wins.
	UpdateStatus(ctx context.Context, id string, patch StatusPatch) (Job, error)
	// CreateBatch writes records in one call. With mergeOn set, records whose
	// mergeOn fields equal an existing record update it instead of creating one.
	CreateBatch(ctx context.Context, records []Fields, mergeOn []string) (int, error)
}
