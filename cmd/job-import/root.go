package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/motu-crew/crewboard/modules/jobs/domain/aggregates/job"
	"github.com/motu-crew/crewboard/modules/jobs/infrastructure/persistence"
	"github.com/motu-crew/crewboard/pkg/configuration"
)

const pushJobName = "crewboard_job_import"

// commandDeps are the seams tests replace.
type commandDeps struct {
	out        io.Writer
	loadConfig func() (*configuration.Configuration, error)
	openStore  func(ctx context.Context, conf *configuration.Configuration, log *logrus.Logger) (job.Repository, func(), error)
	sleep      func(ctx context.Context, d time.Duration) error
	// pushMetrics runs once the upload ends, whether it succeeded or not.
	pushMetrics func(ctx context.Context, conf *configuration.Configuration, g prometheus.Gatherer) error
}

func defaultDeps() *commandDeps {
	return &commandDeps{
		out:        os.Stdout,
		loadConfig: func() (*configuration.Configuration, error) { return configuration.Load() },
		openStore: func(ctx context.Context, conf *configuration.Configuration, log *logrus.Logger) (job.Repository, func(), error) {
			return persistence.NewRepository(ctx, conf, log)
		},
		pushMetrics: pushToGateway,
	}
}

func pushToGateway(ctx context.Context, conf *configuration.Configuration, g prometheus.Gatherer) error {
	if conf.Prometheus.PushgatewayURL == "" {
		return nil
	}
	return push.New(conf.Prometheus.PushgatewayURL, pushJobName).
		Grouping("backend", conf.Store.Backend).
		Gatherer(g).
		PushContext(ctx)
}

func newRootCmd(deps *commandDeps) *cobra.Command {
	cmd := newImportCmd(deps)
	cmd.Use = "job-import"
	cmd.SilenceUsage = true
	cmd.SilenceErrors = true
	return cmd
}

func Execute() {
	if err := newRootCmd(defaultDeps()).Execute(); err != nil {
		code := exitCode(err)
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(code)
	}
}
