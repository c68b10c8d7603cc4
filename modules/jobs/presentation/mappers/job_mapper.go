package mappers

import (
	"github.com/motu-crew/crewboard/modules/jobs/domain/aggregates/job"
	"github.com/motu-crew/crewboard/modules/jobs/presentation/viewmodels"
	"github.com/motu-crew/crewboard/modules/jobs/services"
)

func JobToViewModel(j job.Job) viewmodels.Job {
	return viewmodels.Job{
		ID:                      j.ID,
		Date:                    j.Date,
		CrewName:                j.CrewName,
		FullAddress:             j.FullAddress,
		AddressNumber:           j.AddressNumber,
		Feeder:                  j.Feeder,
		JobDurationHours:        j.JobDurationHours,
		Spans:                   j.Spans,
		StartTime:               j.StartTime,
		EndTime:                 j.EndTime,
		Status:                  string(j.Status),
		CompletionDate:          j.CompletionDate,
		CompletedBy:             j.CompletedBy,
		Notes:                   j.Notes,
		AdditionalCrewsRequired: j.AdditionalCrewsRequired,
	}
}

// JobsToViewModels never returns nil so that empty lists encode as [].
func JobsToViewModels(jobs []job.Job) []viewmodels.Job {
	out := make([]viewmodels.Job, 0, len(jobs))
	for _, j := range jobs {
		out = append(out, JobToViewModel(j))
	}
	return out
}

func breakdowns(in map[string]services.Breakdown) map[string]viewmodels.Breakdown {
	out := make(map[string]viewmodels.Breakdown, len(in))
	for k, b := range in {
		out[k] = viewmodels.Breakdown{Total: b.Total, Completed: b.Completed, Hours: b.Hours}
	}
	return out
}

func StatsToViewModel(s services.DashboardStats) viewmodels.DashboardStats {
	return viewmodels.DashboardStats{
		TotalJobs:            s.TotalJobs,
		CompletedJobs:        s.CompletedJobs,
		InProgressJobs:       s.InProgressJobs,
		PendingJobs:          s.PendingJobs,
		TotalHours:           s.TotalHours,
		CompletedHours:       s.CompletedHours,
		CompletionPercentage: s.CompletionPercentage,
		ByCrew:               breakdowns(s.ByCrew),
		ByFeeder:             breakdowns(s.ByFeeder),
	}
}

func ScheduleToViewModel(days []services.DaySummary) []viewmodels.DaySummary {
	out := make([]viewmodels.DaySummary, 0, len(days))
	for _, d := range days {
		out = append(out, viewmodels.DaySummary{
			Date:      d.Date,
			Total:     d.Total,
			Completed: d.Completed,
			Hours:     d.Hours,
			Crews:     d.Crews,
		})
	}
	return out
}

func DailyToViewModel(d services.DailySheet) viewmodels.DailySheet {
	crews := make([]viewmodels.CrewSheet, 0, len(d.Crews))
	for _, c := range d.Crews {
		crews = append(crews, viewmodels.CrewSheet{
			Crew:      c.Crew,
			Completed: c.Completed,
			Hours:     c.Hours,
			Jobs:      JobsToViewModels(c.Jobs),
		})
	}
	return viewmodels.DailySheet{
		Date:      d.Date,
		Total:     d.Total,
		Completed: d.Completed,
		Hours:     d.Hours,
		Crews:     crews,
	}
}

func CrewToViewModel(c services.CrewDetail) viewmodels.CrewDetail {
	days := make([]viewmodels.DayJobs, 0, len(c.Days))
	for _, d := range c.Days {
		days = append(days, viewmodels.DayJobs{Date: d.Date, Jobs: JobsToViewModels(d.Jobs)})
	}
	return viewmodels.CrewDetail{
		Crew:           c.Crew,
		Total:          c.Total,
		Completed:      c.Completed,
		InProgress:     c.InProgress,
		Hours:          c.Hours,
		CompletedHours: c.CompletedHours,
		Percentage:     c.Percentage,
		Days:           days,
	}
}
