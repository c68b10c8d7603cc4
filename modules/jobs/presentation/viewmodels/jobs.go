package viewmodels

// Job is the dashboard's view of one job record.
type Job struct {
	ID                      string  `json:"id"`
	Date                    string  `json:"date"`
	CrewName                string  `json:"crewName"`
	FullAddress             string  `json:"fullAddress"`
	AddressNumber           string  `json:"addressNumber"`
	Feeder                  string  `json:"feeder"`
	JobDurationHours        float64 `json:"jobDurationHours"`
	Spans                   int     `json:"spans"`
	StartTime               string  `json:"startTime"`
	EndTime                 string  `json:"endTime"`
	Status                  string  `json:"status"`
	CompletionDate          string  `json:"completionDate,omitempty"`
	CompletedBy             string  `json:"completedBy,omitempty"`
	Notes                   string  `json:"notes,omitempty"`
	AdditionalCrewsRequired bool    `json:"additionalCrewsRequired"`
}

type Breakdown struct {
	Total     int     `json:"total"`
	Completed int     `json:"completed"`
	Hours     float64 `json:"hours"`
}

type DashboardStats struct {
	TotalJobs            int                  `json:"totalJobs"`
	CompletedJobs        int                  `json:"completedJobs"`
	InProgressJobs       int                  `json:"inProgressJobs"`
	PendingJobs          int                  `json:"pendingJobs"`
	TotalHours           float64              `json:"totalHours"`
	CompletedHours       float64              `json:"completedHours"`
	CompletionPercentage int                  `json:"completionPercentage"`
	ByCrew               map[string]Breakdown `json:"byCrew"`
	ByFeeder             map[string]Breakdown `json:"byFeeder"`
}

type DaySummary struct {
	Date      string         `json:"date"`
	Total     int            `json:"total"`
	Completed int            `json:"completed"`
	Hours     float64        `json:"hours"`
	Crews     map[string]int `json:"crews"`
}

type CrewSheet struct {
	Crew      string  `json:"crew"`
	Completed int     `json:"completed"`
	Hours     float64 `json:"hours"`
	Jobs      []Job   `json:"jobs"`
}

type DailySheet struct {
	Date      string      `json:"date"`
	Total     int         `json:"total"`
	Completed int         `json:"completed"`
	Hours     float64     `json:"hours"`
	Crews     []CrewSheet `json:"crews"`
}

type DayJobs struct {
	Date string `json:"date"`
	Jobs []Job  `json:"jobs"`
}

type CrewDetail struct {
	Crew           string    `json:"crew"`
	Total          int       `json:"total"`
	Completed      int       `json:"completed"`
	InProgress     int       `json:"inProgress"`
	Hours          float64   `json:"hours"`
	CompletedHours float64   `json:"completedHours"`
	Percentage     int       `json:"percentage"`
	Days           []DayJobs `json:"days"`
}
