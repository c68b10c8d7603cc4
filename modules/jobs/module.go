package jobs

import (
	"time"

	"github.com/motu-crew/crewboard/modules/jobs/domain/aggregates/job"
	"github.com/motu-crew/crewboard/modules/jobs/handlers"
	"github.com/motu-crew/crewboard/modules/jobs/infrastructure/persistence"
	"github.com/motu-crew/crewboard/modules/jobs/presentation/controllers"
	"github.com/motu-crew/crewboard/modules/jobs/services"
	"github.com/motu-crew/crewboard/pkg/application"
	"github.com/motu-crew/crewboard/pkg/metrics"
)

type ModuleOptions struct {
	Repository job.Repository
	Backend    string
	Metrics    *metrics.JobMetrics
	Location   *time.Location
	Clock      func() time.Time
}

func NewModule(opts ModuleOptions) application.Module {
	return &Module{opts: opts}
}

type Module struct {
	opts ModuleOptions
}

func (m *Module) Register(app application.Application) error {
	repo := m.opts.Repository
	if m.opts.Metrics != nil {
		repo = persistence.NewInstrumentedRepository(repo, m.opts.Backend, m.opts.Metrics)
	}

	serviceOpts := []services.Option{services.WithLocation(m.opts.Location)}
	if m.opts.Clock != nil {
		serviceOpts = append(serviceOpts, services.WithClock(m.opts.Clock))
	}
	app.RegisterServices(
		services.NewJobService(repo, app.EventPublisher(), serviceOpts...),
	)

	handlers.RegisterStatusEventHandlers(app, m.opts.Metrics)

	app.RegisterControllers(
		controllers.NewJobAPIController(app),
	)
	return nil
}

func (m *Module) Name() string {
	return "jobs"
}
