package job

import (
	"strconv"
	"strings"
	"time"
)

type Status string

const (
	StatusPending    Status = "Pending"
	StatusInProgress Status = "In Progress"
	StatusCompleted  Status = "Completed"
)

// Statuses lists the valid statuses in tap-cycle order.
var Statuses = []Status{StatusPending, StatusInProgress, StatusCompleted}

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusInProgress, StatusCompleted:
		return true
	}
	return false
}

// Next returns the status a single tap advances to. Unknown values restart the cycle.
func (s Status) Next() Status {
	switch s {
	case StatusPending:
		return StatusInProgress
	case StatusInProgress:
		return StatusCompleted
	default:
		return StatusPending
	}
}

const (
	CrewJade         = "Jade"
	CrewRyan         = "Ryan"
	CrewJamie        = "Jamie"
	CrewHedgeShelter = "Hedge & Shelter Trimmer"
	DefaultCrew      = CrewJade
)

const (
	FeederMotu111 = "MOTU 111"
	FeederMotu112 = "MOTU 112"
	FeederMotu113 = "MOTU 113"
	FeederMotu114 = "MOTU 114"
	DefaultFeeder = FeederMotu111
)

// DateLayout is the day-granularity format used for job and completion dates.
const DateLayout = "2006-01-02"

var (
	Crews   = []string{CrewJade, CrewRyan, CrewJamie, CrewHedgeShelter}
	Feeders = []string{FeederMotu111, FeederMotu112, FeederMotu113, FeederMotu114}
)

func IsKnownCrew(name string) bool   { return contains(Crews, name) }
func IsKnownFeeder(code string) bool { return contains(Feeders, code) }

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}

// Fields is the canonical job field set as stored in the jobs collection.
// Zero values are omitted on the wire.
type Fields struct {
	Date                    string  `json:"date,omitempty" yaml:"date,omitempty"`
	CrewName                string  `json:"crew_name,omitempty" yaml:"crew_name,omitempty"`
	FullAddress             string  `json:"full_address,omitempty" yaml:"full_address,omitempty"`
	AddressNumber           string  `json:"address_number,omitempty" yaml:"address_number,omitempty"`
	Feeder                  string  `json:"feeder,omitempty" yaml:"feeder,omitempty"`
	JobDurationHours        float64 `json:"job_duration_hours,omitempty" yaml:"job_duration_hours,omitempty"`
	Spans                   int     `json:"spans,omitempty" yaml:"spans,omitempty"`
	StartTime               string  `json:"start_time,omitempty" yaml:"start_time,omitempty"`
	EndTime                 string  `json:"end_time,omitempty" yaml:"end_time,omitempty"`
	Status                  Status  `json:"status" yaml:"status"`
	Notes                   string  `json:"notes,omitempty" yaml:"notes,omitempty"`
	AdditionalCrewsRequired bool    `json:"additional_crews_required,omitempty" yaml:"additional_crews_required,omitempty"`
}

// Value returns the field by its canonical store name, formatted as text.
func (f Fields) Value(name string) (string, bool) {
	switch name {
	case "date":
		return f.Date, true
	case "crew_name":
		return f.CrewName, true
	case "full_address":
		return f.FullAddress, true
	case "address_number":
		return f.AddressNumber, true
	case "feeder":
		return f.Feeder, true
	case "start_time":
		return f.StartTime, true
	case "end_time":
		return f.EndTime, true
	case "status":
		return string(f.Status), true
	case "notes":
		return f.Notes, true
	case "job_duration_hours":
		return strconv.FormatFloat(f.JobDurationHours, 'f', -1, 64), true
	case "spans":
		return strconv.Itoa(f.Spans), true
	case "additional_crews_required":
		return strconv.FormatBool(f.AdditionalCrewsRequired), true
	}
	return "", false
}

type Job struct {
	ID string
	Fields
	CompletionDate string
	CompletedBy    string
}

// Hydrate builds a Job from stored values, filling the defaults the dashboard
// assumes for records created outside the importer.
func Hydrate(id string, f Fields, completionDate, completedBy string) Job {
	if strings.TrimSpace(f.CrewName) == "" {
		f.CrewName = DefaultCrew
	}
	if strings.TrimSpace(f.Feeder) == "" {
		f.Feeder = DefaultFeeder
	}
	if f.Status == "" {
		f.Status = StatusPending
	}
	if len(f.Date) > len(DateLayout) {
		f.Date = f.Date[:len(DateLayout)]
	}
	return Job{
		ID:             id,
		Fields:         f,
		CompletionDate: completionDate,
		CompletedBy:    completedBy,
	}
}

func (j Job) IsCompleted() bool { return j.Status == StatusCompleted }

// StatusPatch is the single-record field patch written by a status transition.
// Nil pointers leave the stored value untouched; empty strings clear it.
type StatusPatch struct {
	Status         Status
	CompletionDate *string
	CompletedBy    *string
}

// TransitionPatch computes the patch for moving a job into status. Completed
// stamps today's date and, when given, the actor; any other status clears both.
func TransitionPatch(status Status, completedBy string, now time.Time) (StatusPatch, error) {
	if !status.Valid() {
		return StatusPatch{}, ErrInvalidStatus
	}
	patch := StatusPatch{Status: status}
	if status == StatusCompleted {
		today := now.Format(DateLayout)
		patch.CompletionDate = &today
		if by := strings.TrimSpace(completedBy); by != "" {
			patch.CompletedBy = &by
		}
		return patch, nil
	}
	empty := ""
	patch.CompletionDate = &empty
	patch.CompletedBy = &empty
	return patch, nil
}

// Apply returns a copy of j with the patch applied.
func (p StatusPatch) Apply(j Job) Job {
	j.Status = p.Status
	if p.CompletionDate != nil {
		j.CompletionDate = *p.CompletionDate
	}
	if p.CompletedBy != nil {
		j.CompletedBy = *p.CompletedBy
	}
	return j
}
