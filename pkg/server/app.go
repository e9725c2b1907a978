package server

import (
	"context"
	"errors"

	domrepo "FolioPull/internal/domain/repository"
	"FolioPull/internal/handler/api"
	"FolioPull/internal/scheduler"
	"FolioPull/internal/usecase"
	"FolioPull/pkg/cache"
	"FolioPull/pkg/config"
	xhttp "FolioPull/pkg/http"
	pkgkafka "FolioPull/pkg/kafka"
	applogger "FolioPull/pkg/logger"
)

// App encapsulates the entire application lifecycle.
type App struct {
	cfg        *config.Config
	logger     *applogger.Logger
	httpServer *xhttp.Server
	scheduler  *scheduler.Scheduler
	coord      *usecase.Coordinator
	hub        *api.Hub
	consumer   *pkgkafka.Consumer
	commands   pkgkafka.MessageHandler
	publisher  domrepo.EventPublisher
	cache      cache.Service
}

// New creates a new App instance with all dependencies. consumer may be nil.
func New(
	cfg *config.Config,
	l *applogger.Logger,
	httpServer *xhttp.Server,
	sched *scheduler.Scheduler,
	coord *usecase.Coordinator,
	hub *api.Hub,
	consumer *pkgkafka.Consumer,
	commands pkgkafka.MessageHandler,
	publisher domrepo.EventPublisher,
	c cache.Service,
) *App {
	return &App{
		cfg:        cfg,
		logger:     l,
		httpServer: httpServer,
		scheduler:  sched,
		coord:      coord,
		hub:        hub,
		consumer:   consumer,
		commands:   commands,
		publisher:  publisher,
		cache:      c,
	}
}

// Run starts every component and blocks until ctx is cancelled.
func (a *App) Run(ctx context.Context) error {
	a.coord.Subscribe(a.hub.Broadcast)

	refresh := scheduler.NewRefreshJob(a.coord)
	if err := a.scheduler.AddJob(scheduler.Every(a.cfg.UpdateInterval()), refresh); err != nil {
		return err
	}

	// refresh once before the API starts
	if err := a.scheduler.RunNow(refresh); err != nil {
		a.logger.Warn("initial refresh failed", applogger.Error(err))
	}
	a.scheduler.Start()

	if a.consumer != nil {
		a.consumer.RegisterHandler(a.commands)
		if err := a.consumer.Start(); err != nil {
			return err
		}
	}

	if err := a.httpServer.Start(); err != nil {
		a.logger.Error("http server start error", applogger.Error(err))
		return err
	}

	a.logger.Info("foliopull started",
		applogger.String("env", a.cfg.Environment),
		applogger.String("ghostfolio", a.cfg.Ghostfolio.BaseURL),
		applogger.Duration("interval", a.cfg.UpdateInterval()),
		applogger.Strings("providers", a.cfg.Ghostfolio.Providers))

	<-ctx.Done()
	a.logger.Info("shutdown signal received")
	return a.shutdown()
}

// shutdown gracefully stops all services.
func (a *App) shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), a.httpServer.ShutdownTimeout())
	defer cancel()

	var errs []error
	if err := a.httpServer.Stop(ctx); err != nil {
		errs = append(errs, err)
	}
	a.hub.Close()

	if err := a.scheduler.Stop(ctx); err != nil {
		errs = append(errs, err)
	}

	if a.consumer != nil {
		if err := a.consumer.Stop(ctx); err != nil {
			errs = append(errs, err)
		}
	}

	if err := a.publisher.Close(); err != nil {
		a.logger.Warn("event publisher close error", applogger.Error(err))
	}
	if err := a.cache.Close(); err != nil {
		a.logger.Warn("cache close error", applogger.Error(err))
	}

	a.logger.Info("shutdown complete")
	return errors.Join(errs...)
}
