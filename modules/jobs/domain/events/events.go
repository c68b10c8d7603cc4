package events

import (
	"time"

	"github.com/motu-crew/crewboard/modules/jobs/domain/aggregates/job"
)

// StatusChangedEvent is published after a status patch has been written to the store.
type StatusChangedEvent struct {
	JobID       string
	From        job.Status
	To          job.Status
	CompletedBy string
	At          time.Time
}

func NewStatusChangedEvent(before, after job.Job, at time.Time) *StatusChangedEvent {
	return &StatusChangedEvent{
		JobID:       after.ID,
		From:        before.Status,
		To:          after.Status,
		CompletedBy: after.CompletedBy,
		At:          at,
	}
}
