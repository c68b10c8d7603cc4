package importer

import (
	"fmt"

	"github.com/motu-crew/crewboard/modules/jobs/domain/aggregates/job"
)

// Issue is one validation finding. Rows are 1-based and count data rows only.
type Issue struct {
	Row      int
	Message  string
	Blocking bool
}

func (i Issue) String() string { return fmt.Sprintf("Row %d: %s", i.Row, i.Message) }

// Report collects validation findings; Errors counts the blocking ones.
type Report struct {
	Issues []Issue
	Errors int
}

func (r Report) Blocking() bool { return r.Errors > 0 }

func (r *Report) add(row int, blocking bool, format string, args ...any) {
	r.Issues = append(r.Issues, Issue{Row: row, Message: fmt.Sprintf(format, args...), Blocking: blocking})
	if blocking {
		r.Errors++
	}
}

// Validate checks normalized records. Missing dates, missing addresses and
// unknown crews are warnings; an unknown feeder blocks the import.
func Validate(records []job.Fields) Report {
	var r Report
	for i, f := range records {
		row := i + 1
		if f.Date == "" {
			r.add(row, false, "Missing date")
		}
		if f.FullAddress == "" {
			r.add(row, false, "Missing address")
		}
		if f.CrewName != "" && !job.IsKnownCrew(f.CrewName) {
			r.add(row, false, "Unknown crew %q, it will be created as-is in the store", f.CrewName)
		}
		if f.Feeder != "" && !job.IsKnownFeeder(f.Feeder) {
			r.add(row, true, "Unknown feeder %q", f.Feeder)
		}
	}
	return r
}

// CrewCount is the number of records assigned to one crew.
type CrewCount struct {
	Crew  string
	Count int
}

// Summary describes a mapped import before anything is written.
type Summary struct {
	Total       int
	WithDate    int
	WithAddress int
	// ByCrew is in order of first appearance.
	ByCrew []CrewCount
}

func Summarize(records []job.Fields) Summary {
	s := Summary{Total: len(records)}
	idx := map[string]int{}
	for _, f := range records {
		if f.Date != "" {
			s.WithDate++
		}
		if f.FullAddress != "" {
			s.WithAddress++
		}
		crew := f.CrewName
		if crew == "" {
			crew = "(none)"
		}
		i, ok := idx[crew]
		if !ok {
			i = len(s.ByCrew)
			idx[crew] = i
			s.ByCrew = append(s.ByCrew, CrewCount{Crew: crew})
		}
		s.ByCrew[i].Count++
	}
	return s
}
