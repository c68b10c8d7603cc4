package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/go-faster/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/motu-crew/crewboard/internal/livelist"
	"github.com/motu-crew/crewboard/modules/jobs/domain/aggregates/job"
	"github.com/motu-crew/crewboard/modules/jobs/presentation/viewmodels"
	"github.com/motu-crew/crewboard/pkg/configuration"
)

type watchOptions struct {
	url         string
	interval    time.Duration
	filter      job.FindParams
	status      string
	completedBy string
	verbose     bool
}

func newRootCmd() *cobra.Command {
	var opts watchOptions

	cmd := &cobra.Command{
		Use:   "crew-watch",
		Short: "Follow a live job list and advance job status from the terminal",
		Long: "Polls the dashboard job list and prints it whenever it changes.\n" +
			"Type a row number or job id and press enter to advance that job's status.\n" +
			"SIGUSR1 pauses polling (background), SIGUSR2 resumes it (foreground).",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			conf, err := configuration.Load()
			if err != nil {
				return err
			}
			logger, closeLog, err := conf.Logger()
			if err != nil {
				return err
			}
			defer closeLog()
			if opts.verbose {
				logger.SetLevel(logrus.DebugLevel)
			}
			if !cmd.Flags().Changed("url") {
				opts.url = conf.Watch.DashboardURL
			}
			if !cmd.Flags().Changed("interval") {
				opts.interval = conf.Watch.PollInterval
			}
			opts.filter.Status = job.Status(opts.status)

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runWatch(ctx, conf, logger, opts, os.Stdin, cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVar(&opts.url, "url", "", "Dashboard base URL (default DASHBOARD_URL)")
	cmd.Flags().DurationVar(&opts.interval, "interval", livelist.DefaultInterval, "Poll interval (default POLL_INTERVAL)")
	cmd.Flags().StringVar(&opts.filter.Date, "date", "", "Only jobs on this date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&opts.filter.Crew, "crew", "", "Only jobs for this crew")
	cmd.Flags().StringVar(&opts.filter.Feeder, "feeder", "", "Only jobs on this feeder")
	cmd.Flags().StringVar(&opts.status, "status", "", "Only jobs with this status")
	cmd.Flags().StringVar(&opts.completedBy, "completed-by", "", "Name recorded when a job is completed")
	cmd.Flags().BoolVarP(&opts.verbose, "verbose", "v", false, "Debug logging, including list diffs")
	return cmd
}

func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}
}

func runWatch(ctx context.Context, conf *configuration.Configuration, logger *logrus.Logger, opts watchOptions, in io.Reader, out io.Writer) error {
	client, err := livelist.NewClient(livelist.ClientOptions{
		BaseURL:         opts.url,
		Filter:          opts.filter,
		RequestIDHeader: conf.RequestIDHeader,
	})
	if err != nil {
		return err
	}

	payload, err := client.ListJobs(ctx)
	if err != nil {
		return errors.Wrap(err, "initial job list")
	}
	var initial []viewmodels.Job
	if err := json.Unmarshal(payload, &initial); err != nil {
		return errors.Wrap(err, "decode initial job list")
	}

	r := livelist.New(client, livelist.Options{
		Interval:       opts.interval,
		Initial:        initial,
		InitialPayload: payload,
		CompletedBy:    opts.completedBy,
		Location:       conf.Location(),
		Logger:         logger,
		OnChange:       func(s livelist.Snapshot) { render(out, s, time.Now()) },
	})
	render(out, livelist.Snapshot{Jobs: initial, Visible: true}, time.Now())

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGUSR1, syscall.SIGUSR2)
	defer signal.Stop(sig)
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case s := <-sig:
				r.SetVisible(s == syscall.SIGUSR2)
			}
		}
	}()

	go readCommands(in, r, cancel)

	if err := r.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// readCommands turns input lines into taps: a 1-based row number or a job id.
// "q" stops the watcher; end of input only stops reading.
func readCommands(in io.Reader, r *livelist.Reconciler, quit func()) {
	sc := bufio.NewScanner(in)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		switch {
		case line == "":
			continue
		case line == "q" || line == "quit":
			quit()
			return
		}
		id := line
		if n, err := strconv.Atoi(line); err == nil {
			s, ok := r.Snapshot()
			if !ok {
				return
			}
			if n < 1 || n > len(s.Jobs) {
				continue
			}
			id = s.Jobs[n-1].ID
		}
		r.Tap(id)
	}
}
