package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/motu-crew/crewboard/internal/server"
	"github.com/motu-crew/crewboard/modules/jobs"
	"github.com/motu-crew/crewboard/modules/jobs/infrastructure/persistence"
	"github.com/motu-crew/crewboard/pkg/application"
	"github.com/motu-crew/crewboard/pkg/configuration"
	"github.com/motu-crew/crewboard/pkg/eventbus"
	"github.com/motu-crew/crewboard/pkg/logging"
	"github.com/motu-crew/crewboard/pkg/metrics"
)

func main() {
	defer func() {
		if r := recover(); r != nil {
			log.Println(r)
			debug.PrintStack()
			os.Exit(1)
		}
	}()

	conf, err := configuration.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}
	logger, closeLog, err := conf.Logger()
	if err != nil {
		log.Fatalf("failed to create logger: %v", err)
	}
	defer closeLog()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if conf.OpenTelemetry.Enabled {
		tracingCleanup := logging.SetupTracing(ctx, conf.OpenTelemetry.ServiceName, conf.OpenTelemetry.TempoURL)
		defer tracingCleanup()
		logger.Info("OpenTelemetry tracing enabled, exporting to Tempo at " + conf.OpenTelemetry.TempoURL)
	}

	storeCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	repo, closeStore, err := persistence.NewRepository(storeCtx, conf, logger)
	cancel()
	if err != nil {
		log.Fatalf("failed to open job store: %v", err)
	}
	defer closeStore()

	app := application.New(&application.ApplicationOptions{
		EventBus: eventbus.NewEventPublisher(logger),
		Logger:   logger,
	})

	var jobMetrics *metrics.JobMetrics
	if conf.Prometheus.Enabled {
		registry := prometheus.NewRegistry()
		registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		jobMetrics = metrics.NewJobMetrics(registry)
		app.RegisterControllers(metrics.NewPrometheusController(conf.Prometheus.Path, registry))
	}

	if err := application.Load(app, jobs.NewModule(jobs.ModuleOptions{
		Repository: repo,
		Backend:    conf.Store.Backend,
		Metrics:    jobMetrics,
		Location:   conf.Location(),
	})); err != nil {
		log.Fatalf("failed to load modules: %v", err)
	}

	serverInstance, err := server.Default(&server.DefaultOptions{
		Logger:        logger,
		Configuration: conf,
		Application:   app,
	})
	if err != nil {
		log.Fatalf("failed to create server: %v", err)
	}
	logger.WithField("store", conf.Store.Backend).Infof("Listening on: %s", conf.SocketAddress)
	if err := serverInstance.Start(ctx, conf.SocketAddress); err != nil {
		log.Fatalf("failed to start server: %v", err)
	}
}
