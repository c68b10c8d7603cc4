package services

import (
	"context"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/motu-crew/crewboard/modules/jobs/domain/aggregates/job"
)

type Breakdown struct {
	Total     int
	Completed int
	Hours     float64
}

type DashboardStats struct {
	TotalJobs            int
	CompletedJobs        int
	InProgressJobs       int
	PendingJobs          int
	TotalHours           float64
	CompletedHours       float64
	CompletionPercentage int
	ByCrew               map[string]Breakdown
	ByFeeder             map[string]Breakdown
}

type DaySummary struct {
	Date      string
	Total     int
	Completed int
	Hours     float64
	Crews     map[string]int
}

type CrewSheet struct {
	Crew      string
	Jobs      []job.Job
	Completed int
	Hours     float64
}

type DailySheet struct {
	Date      string
	Total     int
	Completed int
	Hours     float64
	Crews     []CrewSheet
}

type DayJobs struct {
	Date string
	Jobs []job.Job
}

type CrewDetail struct {
	Crew           string
	Total          int
	Completed      int
	InProgress     int
	Hours          float64
	CompletedHours float64
	Percentage     int
	Days           []DayJobs
}

// tally sums hours in decimal so that repeated quarter-hour durations do not drift.
type tally struct {
	total, completed, inProgress int
	hours, completedHours        decimal.Decimal
}

func (t *tally) add(j job.Job) {
	h := decimal.NewFromFloat(j.JobDurationHours)
	t.total++
	t.hours = t.hours.Add(h)
	switch j.Status {
	case job.StatusCompleted:
		t.completed++
		t.completedHours = t.completedHours.Add(h)
	case job.StatusInProgress:
		t.inProgress++
	}
}

func (t tally) breakdown() Breakdown {
	return Breakdown{Total: t.total, Completed: t.completed, Hours: t.hours.InexactFloat64()}
}

func percentage(part, whole int) int {
	if whole == 0 {
		return 0
	}
	return int(decimal.NewFromInt(int64(part)).
		Mul(decimal.NewFromInt(100)).
		Div(decimal.NewFromInt(int64(whole))).
		Round(0).
		IntPart())
}

// ComputeStats aggregates jobs. Any status other than Completed or In Progress counts as pending.
func ComputeStats(jobs []job.Job) DashboardStats {
	var all tally
	byCrew := map[string]*tally{}
	byFeeder := map[string]*tally{}
	for _, j := range jobs {
		all.add(j)
		bucket(byCrew, j.CrewName).add(j)
		bucket(byFeeder, j.Feeder).add(j)
	}
	return DashboardStats{
		TotalJobs:            all.total,
		CompletedJobs:        all.completed,
		InProgressJobs:       all.inProgress,
		PendingJobs:          all.total - all.completed - all.inProgress,
		TotalHours:           all.hours.InexactFloat64(),
		CompletedHours:       all.completedHours.InexactFloat64(),
		CompletionPercentage: percentage(all.completed, all.total),
		ByCrew:               breakdowns(byCrew),
		ByFeeder:             breakdowns(byFeeder),
	}
}

func bucket(m map[string]*tally, key string) *tally {
	t, ok := m[key]
	if !ok {
		t = &tally{}
		m[key] = t
	}
	return t
}

func breakdowns(m map[string]*tally) map[string]Breakdown {
	out := make(map[string]Breakdown, len(m))
	for k, t := range m {
		out[k] = t.breakdown()
	}
	return out
}

// crewOrder returns the known crews first, in roster order, then any others alphabetically.
func crewOrder(present map[string]bool) []string {
	out := make([]string, 0, len(present))
	for _, c := range job.Crews {
		if present[c] {
			out = append(out, c)
		}
	}
	var extra []string
	for c := range present {
		if !job.IsKnownCrew(c) {
			extra = append(extra, c)
		}
	}
	sort.Strings(extra)
	return append(out, extra...)
}

func groupByDate(jobs []job.Job) []DayJobs {
	index := map[string]int{}
	var days []DayJobs
	for _, j := range jobs {
		i, ok := index[j.Date]
		if !ok {
			i = len(days)
			index[j.Date] = i
			days = append(days, DayJobs{Date: j.Date})
		}
		days[i].Jobs = append(days[i].Jobs, j)
	}
	sort.SliceStable(days, func(a, b int) bool { return days[a].Date < days[b].Date })
	return days
}

func (s *JobService) Stats(ctx context.Context) (DashboardStats, error) {
	jobs, err := s.repo.List(ctx, job.FindParams{})
	if err != nil {
		return DashboardStats{}, err
	}
	return ComputeStats(jobs), nil
}

// Schedule summarizes every scheduled day in date order.
func (s *JobService) Schedule(ctx context.Context) ([]DaySummary, error) {
	jobs, err := s.repo.List(ctx, job.FindParams{})
	if err != nil {
		return nil, err
	}
	days := groupByDate(jobs)
	out := make([]DaySummary, 0, len(days))
	for _, d := range days {
		var t tally
		crews := map[string]int{}
		for _, j := range d.Jobs {
			t.add(j)
			crews[j.CrewName]++
		}
		out = append(out, DaySummary{
			Date:      d.Date,
			Total:     t.total,
			Completed: t.completed,
			Hours:     t.hours.InexactFloat64(),
			Crews:     crews,
		})
	}
	return out, nil
}

// Daily returns the crew sheet for date, or for today when date is empty.
func (s *JobService) Daily(ctx context.Context, date string) (DailySheet, error) {
	if date == "" {
		date = s.Today()
	}
	jobs, err := s.repo.List(ctx, job.FindParams{Date: date})
	if err != nil {
		return DailySheet{}, err
	}

	var day tally
	byCrew := map[string][]job.Job{}
	present := map[string]bool{}
	for _, j := range jobs {
		day.add(j)
		byCrew[j.CrewName] = append(byCrew[j.CrewName], j)
		present[j.CrewName] = true
	}

	sheet := DailySheet{
		Date:      date,
		Total:     day.total,
		Completed: day.completed,
		Hours:     day.hours.InexactFloat64(),
		Crews:     make([]CrewSheet, 0, len(present)),
	}
	for _, crew := range crewOrder(present) {
		var t tally
		for _, j := range byCrew[crew] {
			t.add(j)
		}
		sheet.Crews = append(sheet.Crews, CrewSheet{
			Crew:      crew,
			Jobs:      byCrew[crew],
			Completed: t.completed,
			Hours:     t.hours.InexactFloat64(),
		})
	}
	return sheet, nil
}

func (s *JobService) Crew(ctx context.Context, name string) (CrewDetail, error) {
	jobs, err := s.repo.List(ctx, job.FindParams{Crew: name})
	if err != nil {
		return CrewDetail{}, err
	}
	var t tally
	for _, j := range jobs {
		t.add(j)
	}
	return CrewDetail{
		Crew:           name,
		Total:          t.total,
		Completed:      t.completed,
		InProgress:     t.inProgress,
		Hours:          t.hours.InexactFloat64(),
		CompletedHours: t.completedHours.InexactFloat64(),
		Percentage:     percentage(t.completed, t.total),
		Days:           groupByDate(jobs),
	}, nil
}
