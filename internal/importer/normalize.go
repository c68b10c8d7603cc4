package importer

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/motu-crew/crewboard/modules/jobs/domain/aggregates/job"
)

// Spreadsheet serials count days from 1899-12-30. Serials before 60 predate the
// phantom 1900-02-29 that spreadsheets insert, so they are shifted by one day.
var serialEpoch = time.Date(1899, time.December, 30, 0, 0, 0, 0, time.UTC)

const phantomLeapDay = 60

// Serial of 9999-12-31, the last date spreadsheets can represent.
const maxSerialDays = 2958465

var (
	isoDatePrefix = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}`)
	dayFirstDate  = regexp.MustCompile(`^(\d{1,2})[/\-.](\d{1,2})[/\-.](\d{4})$`)
	threeDigits   = regexp.MustCompile(`\d{3}`)
	leadingFloat  = regexp.MustCompile(`^[-+]?(\d+\.?\d*|\.\d+)([eE][-+]?\d+)?`)
	leadingInt    = regexp.MustCompile(`^[-+]?\d+`)
)

// Layouts tried when a date is neither ISO nor day-first numeric.
var looseDateLayouts = []string{
	"2006/01/02",
	"2006/1/2",
	"2 Jan 2006",
	"02 Jan 2006",
	"2 January 2006",
	"Jan 2 2006",
	"Jan 2, 2006",
	"January 2, 2006",
	"January 2 2006",
	"Mon, 2 Jan 2006",
	"Monday, 2 January 2006",
	time.RFC1123,
	time.RFC1123Z,
	time.UnixDate,
}

// NormalizeDate converts a cell to YYYY-MM-DD on a best-effort basis. Unparseable
// text is returned trimmed and unchanged; an empty cell yields "".
func NormalizeDate(c Cell) string {
	if c.IsNumber {
		if c.Number == 0 || math.IsNaN(c.Number) || math.IsInf(c.Number, 0) {
			return ""
		}
		days := c.Number
		if days < phantomLeapDay {
			days++
		}
		if days > maxSerialDays || days < -maxSerialDays {
			return strconv.FormatFloat(c.Number, 'f', -1, 64)
		}
		whole, frac := math.Modf(days)
		t := serialEpoch.AddDate(0, 0, int(whole)).Add(time.Duration(frac * float64(24*time.Hour)))
		return t.Format(job.DateLayout)
	}
	s := strings.TrimSpace(c.Text)
	if s == "" {
		return ""
	}
	if isoDatePrefix.MatchString(s) {
		return s[:len(job.DateLayout)]
	}
	if m := dayFirstDate.FindStringSubmatch(s); m != nil {
		return m[3] + "-" + pad2(m[2]) + "-" + pad2(m[1])
	}
	for _, layout := range looseDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format(job.DateLayout)
		}
	}
	return s
}

func pad2(s string) string {
	if len(s) == 1 {
		return "0" + s
	}
	return s
}

// A textRule maps lower-cased input to a canonical value when match holds.
// Rule tables are evaluated in order; the first match wins.
type textRule struct {
	match  func(lower string) bool
	result string
}

func containsAny(subs ...string) func(string) bool {
	return func(s string) bool {
		for _, sub := range subs {
			if strings.Contains(s, sub) {
				return true
			}
		}
		return false
	}
}

func oneOf(values ...string) func(string) bool {
	return func(s string) bool { return indexOf(values, s) >= 0 }
}

var crewRules = []textRule{
	{containsAny("jade"), job.CrewJade},
	{containsAny("ryan"), job.CrewRyan},
	{containsAny("jamie"), job.CrewJamie},
	{containsAny("hedge", "shelter", "h&s", "h & s"), job.CrewHedgeShelter},
}

var statusRules = []textRule{
	{oneOf("completed", "done", "finished"), string(job.StatusCompleted)},
	{oneOf("in progress", "active", "started", "in_progress"), string(job.StatusInProgress)},
}

func matchKnown(known []string, lower string) (string, bool) {
	for _, k := range known {
		if strings.ToLower(k) == lower {
			return k, true
		}
	}
	return "", false
}

// NormalizeCrew maps free text onto the roster. Empty input means the default
// crew; unrecognised names pass through trimmed.
func NormalizeCrew(raw string) string {
	s := strings.TrimSpace(raw)
	if s == "" {
		return job.DefaultCrew
	}
	lower := strings.ToLower(s)
	if k, ok := matchKnown(job.Crews, lower); ok {
		return k
	}
	for _, r := range crewRules {
		if r.match(lower) {
			return r.result
		}
	}
	return s
}

// NormalizeFeeder accepts exact feeder codes or any text whose first three-digit
// run is 111 through 114.
func NormalizeFeeder(raw string) string {
	s := strings.TrimSpace(raw)
	if s == "" {
		return ""
	}
	if k, ok := matchKnown(job.Feeders, strings.ToLower(s)); ok {
		return k
	}
	if m := threeDigits.FindString(s); m != "" {
		if n, _ := strconv.Atoi(m); n >= 111 && n <= 114 {
			return "MOTU " + m
		}
	}
	return s
}

// NormalizeStatus never fails: anything unrecognised is Pending.
func NormalizeStatus(raw string) job.Status {
	lower := strings.ToLower(strings.TrimSpace(raw))
	for _, r := range statusRules {
		if r.match(lower) {
			return job.Status(r.result)
		}
	}
	return job.StatusPending
}

// NormalizeDuration reads the leading number of the cell rounded to two decimals; 0 when absent.
func NormalizeDuration(c Cell) float64 {
	n := c.Number
	if !c.IsNumber {
		m := leadingFloat.FindString(strings.TrimSpace(c.Text))
		if m == "" {
			return 0
		}
		var err error
		if n, err = strconv.ParseFloat(m, 64); err != nil {
			return 0
		}
	}
	if math.IsNaN(n) || math.IsInf(n, 0) {
		return 0
	}
	f, _ := decimal.NewFromFloat(n).Round(2).Float64()
	return f
}

// NormalizeSpans reads the leading integer; 0 when absent.
func NormalizeSpans(c Cell) int {
	s := strings.TrimSpace(c.Text)
	m := leadingInt.FindString(s)
	if m == "" {
		return 0
	}
	n, err := strconv.Atoi(m)
	if err != nil {
		return 0
	}
	return n
}

func NormalizeBool(raw string) bool {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "true", "yes", "1", "y", "x":
		return true
	}
	return false
}

// normalizeClock renders a numeric time-of-day cell (a day fraction) as HH:MM.
// Text is kept as written.
func normalizeClock(c Cell) string {
	if c.IsNumber && c.Number > 0 && c.Number < 1 {
		minutes := int(math.Round(c.Number * 24 * 60))
		return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
	}
	return strings.TrimSpace(c.Text)
}

// MapRow converts one source row into canonical fields. Fields whose column is
// missing or whose value is empty are left at their zero value, except status
// which is always set.
func MapRow(row Row, columns ColumnMap) job.Fields {
	get := func(field string) Cell {
		header, ok := columns[field]
		if !ok {
			return Cell{}
		}
		return row[header]
	}
	text := func(field string) string { return strings.TrimSpace(get(field).Text) }

	f := job.Fields{
		Date:          NormalizeDate(get(FieldDate)),
		CrewName:      NormalizeCrew(text(FieldCrewName)),
		FullAddress:   text(FieldFullAddress),
		AddressNumber: text(FieldAddressNumber),
		Feeder:        NormalizeFeeder(text(FieldFeeder)),
		StartTime:     normalizeClock(get(FieldStartTime)),
		EndTime:       normalizeClock(get(FieldEndTime)),
		Status:        NormalizeStatus(text(FieldStatus)),
		Notes:         text(FieldNotes),
	}
	if d := NormalizeDuration(get(FieldJobDurationHours)); d > 0 {
		f.JobDurationHours = d
	}
	if n := NormalizeSpans(get(FieldSpans)); n > 0 {
		f.Spans = n
	}
	f.AdditionalCrewsRequired = NormalizeBool(text(FieldAdditionalCrewsRequired))
	return f
}

// MapRows applies MapRow to every row of t.
func MapRows(t *Table, columns ColumnMap) []job.Fields {
	out := make([]job.Fields, 0, len(t.Rows))
	for _, r := range t.Rows {
		out = append(out, MapRow(r, columns))
	}
	return out
}
