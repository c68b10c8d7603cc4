package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-faster/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/motu-crew/crewboard/internal/importer"
	"github.com/motu-crew/crewboard/modules/jobs/infrastructure/persistence"
	"github.com/motu-crew/crewboard/pkg/configuration"
	"github.com/motu-crew/crewboard/pkg/metrics"
)

const invalidValueHint = "Check that your jobs table has the correct field types and select options."

type importOptions struct {
	file    string
	dryRun  bool
	sheet   string
	mergeOn []string
	aliases string
	verbose bool
}

func newImportCmd(deps *commandDeps) *cobra.Command {
	var opts importOptions

	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import scheduled jobs from a spreadsheet or CSV file into the job store",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImport(cmd.Context(), deps, opts)
		},
	}

	cmd.Flags().StringVar(&opts.file, "file", "", "Input file: .xlsx, .xlsm, .csv or .tsv (required)")
	cmd.Flags().BoolVar(&opts.dryRun, "dry-run", false, "Parse, validate and summarize without writing")
	cmd.Flags().StringVar(&opts.sheet, "sheet", "", "Workbook sheet to read (default: first sheet)")
	cmd.Flags().StringSliceVar(&opts.mergeOn, "merge-on", nil, "Upsert on these canonical fields instead of always creating")
	cmd.Flags().StringVar(&opts.aliases, "aliases", "", "YAML file with extra header aliases per field")
	cmd.Flags().BoolVarP(&opts.verbose, "verbose", "v", false, "Debug logging")

	_ = cmd.MarkFlagRequired("file")

	return cmd
}

func runImport(ctx context.Context, deps *commandDeps, opts importOptions) error {
	if strings.TrimSpace(opts.file) == "" {
		return withCode(exitFailure, fmt.Errorf("--file is required"))
	}
	for _, f := range opts.mergeOn {
		if !importer.IsCanonicalField(f) {
			return withCode(exitFailure, fmt.Errorf("invalid --merge-on field %q", f))
		}
	}

	conf, err := deps.loadConfig()
	if err != nil {
		return withCode(exitFailure, fmt.Errorf("configuration: %w", err))
	}
	if err := conf.ValidateStore(); err != nil {
		return withCode(exitFailure, fmt.Errorf("configuration: %w", err))
	}
	logger, closeLog, err := conf.Logger()
	if err != nil {
		return withCode(exitFailure, err)
	}
	defer closeLog()
	if opts.verbose {
		logger.SetLevel(logrus.DebugLevel)
	}

	aliases := importer.DefaultAliases
	if opts.aliases != "" {
		extra, err := importer.LoadAliases(opts.aliases)
		if err != nil {
			return withCode(exitFailure, err)
		}
		if aliases, err = aliases.Extend(extra); err != nil {
			return withCode(exitFailure, err)
		}
	}

	p := printer{w: deps.out}
	target := storeName(conf)
	p.line("Job import")
	p.line("  File:    %s", opts.file)
	p.line("  Store:   %s", target)
	p.line("  Dry run: %t", opts.dryRun)
	p.line("")

	tbl, err := importer.ReadFile(opts.file, opts.sheet)
	if err != nil {
		return withCode(exitFailure, err)
	}
	if tbl.Sheet != "" {
		p.line("Sheet: %s", tbl.Sheet)
	}
	p.line("Rows read: %d", len(tbl.Rows))

	columns := importer.BuildColumnMap(tbl.Headers, aliases)
	p.columns(tbl, columns)

	records := importer.MapRows(tbl, columns)
	report := importer.Validate(records)
	p.issues(report)
	p.summary(importer.Summarize(records))
	p.preview(records)
	logger.WithFields(logrus.Fields{
		"rows":     len(records),
		"warnings": len(report.Issues),
		"errors":   report.Errors,
	}).Debug("import validated")

	if opts.dryRun {
		p.line("")
		p.line("Dry run complete, no data was written.")
		return nil
	}
	if report.Blocking() {
		return withCode(exitFailure, fmt.Errorf("aborting: %d error(s) found. Fix them and retry", report.Errors))
	}

	repo, closeStore, err := deps.openStore(ctx, conf, logger)
	if err != nil {
		return withCode(exitFailure, err)
	}
	defer closeStore()

	registry := prometheus.NewRegistry()
	writer := persistence.NewInstrumentedRepository(repo, conf.Store.Backend, metrics.NewJobMetrics(registry))
	if deps.pushMetrics != nil {
		defer func() {
			if err := deps.pushMetrics(ctx, conf, registry); err != nil {
				logger.WithError(err).Warn("push import metrics")
			}
		}()
	}

	uploader, err := importer.NewUploader(writer, importer.UploadOptions{
		BatchSize: conf.Import.BatchSize,
		Delay:     conf.Import.BatchDelay,
		MergeOn:   opts.mergeOn,
		Sleep:     deps.sleep,
		Progress: func(imported, total int) {
			p.line("  Imported %d/%d records...", imported, total)
		},
	})
	if err != nil {
		return withCode(exitFailure, err)
	}

	p.line("")
	p.line("Importing %d records...", len(records))
	imported, err := uploader.Upload(ctx, records)
	if err != nil {
		var be *importer.BatchError
		if errors.As(err, &be) {
			p.line("")
			p.line("Error at batch starting row %d: %v", be.FromRow, be.Err)
			if strings.Contains(be.Err.Error(), "INVALID_VALUE_FOR_COLUMN") {
				p.line("Hint: %s", invalidValueHint)
			}
		}
		return withCode(exitFailure, errors.Wrapf(err, "import stopped after %d records", imported))
	}

	p.line("")
	p.line("Done! %d records imported to %s.", imported, target)
	return nil
}

func storeName(conf *configuration.Configuration) string {
	if conf.Store.Backend == configuration.BackendAirtable {
		return fmt.Sprintf("%q", conf.Airtable.Table)
	}
	return conf.Store.Backend
}
