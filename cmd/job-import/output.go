package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/motu-crew/crewboard/internal/importer"
	"github.com/motu-crew/crewboard/modules/jobs/domain/aggregates/job"
)

const (
	maxPrintedIssues = 20
	previewRecords   = 3
)

type printer struct {
	w io.Writer
}

func (p printer) line(format string, args ...any) {
	_, _ = fmt.Fprintf(p.w, format+"\n", args...)
}

func (p printer) columns(tbl *importer.Table, columns importer.ColumnMap) {
	p.line("Detected columns: %s", strings.Join(tbl.Headers, ", "))
	p.line("")
	p.line("Column mapping:")
	for _, field := range importer.CanonicalFields {
		if header, ok := columns[field]; ok {
			p.line("  %-30s -> %q", field, header)
		} else {
			p.line("  %-30s    (not found)", field)
		}
	}
}

func (p printer) issues(report importer.Report) {
	if len(report.Issues) == 0 {
		return
	}
	p.line("")
	p.line("Warnings (%d):", len(report.Issues))
	for i, issue := range report.Issues {
		if i == maxPrintedIssues {
			p.line("  ... and %d more", len(report.Issues)-maxPrintedIssues)
			break
		}
		p.line("  %s", issue)
	}
}

func (p printer) summary(s importer.Summary) {
	p.line("")
	p.line("Import summary:")
	p.line("  Total records:  %d", s.Total)
	p.line("  With date:      %d", s.WithDate)
	p.line("  With address:   %d", s.WithAddress)
	p.line("  By crew:")
	for _, c := range s.ByCrew {
		p.line("    %s: %d", c.Crew, c.Count)
	}
}

func (p printer) preview(records []job.Fields) {
	n := min(previewRecords, len(records))
	p.line("")
	p.line("Preview (first %d):", n)
	for i := 0; i < n; i++ {
		r := records[i]
		p.line("  [%d] %s | %s | %s | %s | %sh", i+1,
			orUnknown(r.Date), orUnknown(r.CrewName), orUnknown(r.FullAddress), orUnknown(r.Feeder),
			formatHours(r.JobDurationHours))
	}
}

func orUnknown(s string) string {
	if s == "" {
		return "?"
	}
	return s
}

func formatHours(h float64) string {
	return strings.TrimRight(strings.TrimRight(fmt.Sprintf("%.2f", h), "0"), ".")
}
