package airtable

import (
	"fmt"
	"strings"

	"github.com/motu-crew/crewboard/modules/jobs/domain/aggregates/job"
)

type recordFields struct {
	job.Fields
	CompletionDate string `json:"completion_date,omitempty"`
	CompletedBy    string `json:"completed_by,omitempty"`
}

type record struct {
	ID     string       `json:"id"`
	Fields recordFields `json:"fields"`
}

type listResponse struct {
	Records []record `json:"records"`
	Offset  string   `json:"offset,omitempty"`
}

type writeRecord struct {
	Fields job.Fields `json:"fields"`
}

type createRequest struct {
	Records  []writeRecord `json:"records"`
	Typecast bool          `json:"typecast,omitempty"`
}

type performUpsert struct {
	FieldsToMergeOn []string `json:"fieldsToMergeOn"`
}

type upsertRequest struct {
	PerformUpsert performUpsert `json:"performUpsert"`
	Records       []writeRecord `json:"records"`
	Typecast      bool          `json:"typecast,omitempty"`
}

type writeResponse struct {
	Records []record `json:"records"`
}

type patchRequest struct {
	Fields   map[string]any `json:"fields"`
	Typecast bool           `json:"typecast,omitempty"`
}

func (r record) toJob() job.Job {
	return job.Hydrate(r.ID, r.Fields.Fields, r.Fields.CompletionDate, r.Fields.CompletedBy)
}

// statusFields renders a patch as a field map; an empty string clears the field.
func statusFields(p job.StatusPatch) map[string]any {
	fields := map[string]any{"status": string(p.Status)}
	setOrClear := func(name string, v *string) {
		if v == nil {
			return
		}
		if *v == "" {
			fields[name] = nil
			return
		}
		fields[name] = *v
	}
	setOrClear("completion_date", p.CompletionDate)
	setOrClear("completed_by", p.CompletedBy)
	return fields
}

func quote(v string) string {
	v = strings.ReplaceAll(v, `\`, `\\`)
	return `"` + strings.ReplaceAll(v, `"`, `\"`) + `"`
}

// filterFormula builds the filterByFormula expression for params. Dates match with
// day granularity; other predicates are equality. Empty params return "".
func filterFormula(params job.FindParams) string {
	var conds []string
	if params.Date != "" {
		conds = append(conds, fmt.Sprintf("IS_SAME({date}, %s, 'day')", quote(params.Date)))
	}
	if params.Crew != "" {
		conds = append(conds, fmt.Sprintf("{crew_name} = %s", quote(params.Crew)))
	}
	if params.Feeder != "" {
		conds = append(conds, fmt.Sprintf("{feeder} = %s", quote(params.Feeder)))
	}
	if params.Status != "" {
		conds = append(conds, fmt.Sprintf("{status} = %s", quote(string(params.Status))))
	}
	switch len(conds) {
	case 0:
		return ""
	case 1:
		return conds[0]
	}
	return "AND(" + strings.Join(conds, ", ") + ")"
}
