package importer

import (
	"os"
	"strings"

	"github.com/go-faster/errors"
	"golang.org/x/text/unicode/norm"
	"gopkg.in/yaml.v3"
)

// Canonical field names in declared order.
const (
	FieldDate                    = "date"
	FieldCrewName                = "crew_name"
	FieldFullAddress             = "full_address"
	FieldAddressNumber           = "address_number"
	FieldFeeder                  = "feeder"
	FieldJobDurationHours        = "job_duration_hours"
	FieldSpans                   = "spans"
	FieldStartTime               = "start_time"
	FieldEndTime                 = "end_time"
	FieldStatus                  = "status"
	FieldNotes                   = "notes"
	FieldAdditionalCrewsRequired = "additional_crews_required"
)

var CanonicalFields = []string{
	FieldDate,
	FieldCrewName,
	FieldFullAddress,
	FieldAddressNumber,
	FieldFeeder,
	FieldJobDurationHours,
	FieldSpans,
	FieldStartTime,
	FieldEndTime,
	FieldStatus,
	FieldNotes,
	FieldAdditionalCrewsRequired,
}

// AliasTable maps a canonical field to header spellings in priority order.
type AliasTable map[string][]string

var DefaultAliases = AliasTable{
	FieldDate: {"date", "scheduled_date", "scheduled date", "job_date", "job date", "work_date", "work date"},
	FieldCrewName: {
		"crew_name", "crew name", "crew", "assigned_crew", "assigned crew",
		"crew_assigned", "crew assigned", "team", "team_name", "team name",
	},
	FieldFullAddress: {
		"full_address", "full address", "address", "site_address", "site address",
		"location", "job_address", "job address", "street_address", "street address",
	},
	FieldAddressNumber: {
		"address_number", "address number", "street_number", "street number",
		"number", "house_number", "house number", "no", "no.",
	},
	FieldFeeder: {"feeder", "feeder_name", "feeder name", "motu", "circuit", "line"},
	FieldJobDurationHours: {
		"job_duration_hours", "job duration hours", "duration_hours", "duration hours",
		"duration", "hours", "estimated_hours", "estimated hours", "time",
		"job_duration", "job duration",
	},
	FieldSpans:     {"spans", "span", "span_count", "span count", "number_of_spans", "number of spans"},
	FieldStartTime: {"start_time", "start time", "start", "time_start", "time start", "begin"},
	FieldEndTime:   {"end_time", "end time", "end", "time_end", "time end", "finish"},
	FieldStatus:    {"status", "job_status", "job status", "state"},
	FieldNotes:     {"notes", "note", "comments", "comment", "description", "details", "remarks"},
	FieldAdditionalCrewsRequired: {
		"additional_crews_required", "additional crews required", "extra_crew",
		"extra crew", "additional_crew", "additional crew", "extra",
	},
}

// IsCanonicalField reports whether name is one of CanonicalFields.
func IsCanonicalField(field string) bool {
	for _, f := range CanonicalFields {
		if f == field {
			return true
		}
	}
	return false
}

// Extend returns a copy of t with extra aliases appended after the built-in ones,
// so built-in spellings keep their priority.
func (t AliasTable) Extend(extra map[string][]string) (AliasTable, error) {
	out := make(AliasTable, len(t))
	for field, aliases := range t {
		out[field] = append([]string(nil), aliases...)
	}
	for field, aliases := range extra {
		if !IsCanonicalField(field) {
			return nil, errors.Errorf("unknown field %q in alias file", field)
		}
		for _, a := range aliases {
			if a = foldHeader(a); a != "" {
				out[field] = append(out[field], a)
			}
		}
	}
	return out, nil
}

// LoadAliases reads a YAML document of the form `field: [alias, ...]`.
func LoadAliases(path string) (map[string][]string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read alias file")
	}
	extra := map[string][]string{}
	if err := yaml.Unmarshal(b, &extra); err != nil {
		return nil, errors.Wrapf(err, "parse alias file %s", path)
	}
	return extra, nil
}

func foldHeader(h string) string {
	return strings.ToLower(strings.TrimSpace(norm.NFC.String(h)))
}

// ColumnMap records, per canonical field, the original header it was matched to.
// Fields without a matching header are absent.
type ColumnMap map[string]string

// BuildColumnMap picks, for every field, the first alias in priority order that equals
// a header after lower-casing and trimming. Matching is exact; nothing fuzzy.
func BuildColumnMap(headers []string, aliases AliasTable) ColumnMap {
	folded := make([]string, len(headers))
	for i, h := range headers {
		folded[i] = foldHeader(h)
	}
	m := ColumnMap{}
	for _, field := range CanonicalFields {
		for _, alias := range aliases[field] {
			if idx := indexOf(folded, alias); idx >= 0 {
				m[field] = headers[idx]
				break
			}
		}
	}
	return m
}

func indexOf(list []string, v string) int {
	for i, item := range list {
		if item == v {
			return i
		}
	}
	return -1
}
