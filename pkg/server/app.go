package server

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"FinSignal/internal/domain/models"
	"FinSignal/pkg/config"
	xhttp "FinSignal/pkg/http"
	applogger "FinSignal/pkg/logger"
)

// Runner drives pipeline runs.
type Runner interface {
	RunOnce(ctx context.Context, opts models.RunOptions) (models.RunReport, error)
	Schedule(ctx context.Context)
	Wait()
}

// App encapsulates the entire application lifecycle.
type App struct {
	cfg         *config.Config
	logger      *applogger.Logger
	runner      Runner
	httpHandler xhttp.Handler
	httpServer  *xhttp.Server
}

// New creates a new App instance with all dependencies.
func New(cfg *config.Config, l *applogger.Logger, runner Runner, h xhttp.Handler) *App {
	return &App{
		cfg:         cfg,
		logger:      l,
		runner:      runner,
		httpHandler: h,
	}
}

// Run starts the application and blocks until it finishes or is interrupted.
func (a *App) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return a.run(ctx)
}

func (a *App) run(ctx context.Context) error {
	switch a.cfg.Mode {
	case "once":
		return a.runOnce(ctx)
	case "serve":
		return a.serve(ctx)
	default:
		return fmt.Errorf("unknown mode %q", a.cfg.Mode)
	}
}

func (a *App) runOnce(ctx context.Context) error {
	report, err := a.runner.RunOnce(ctx, models.RunOptions{Manual: a.cfg.Pipeline.ManualRun})
	switch {
	case errors.Is(err, models.ErrEmptyUniverse):
		a.logger.Warn("run ended: empty instrument universe", applogger.String("run_id", report.ID))
		return err
	case err != nil:
		a.logger.Error("run failed", applogger.String("run_id", report.ID), applogger.Error(err))
		return err
	}
	a.logger.Info("run finished",
		applogger.String("run_id", report.ID),
		applogger.Int("delivered", report.Delivered),
		applogger.Int("dropped", report.Dropped),
		applogger.Duration("took", report.Duration),
	)
	return nil
}

func (a *App) serve(ctx context.Context) error {
	a.httpServer = xhttp.NewServer(a.httpHandler, a.logger,
		xhttp.WithPort(a.cfg.Server.Port),
		xhttp.WithTimeouts(a.cfg.Server.ReadTimeout, a.cfg.Server.WriteTimeout, a.cfg.Server.ShutdownTimeout),
	)
	errCh := a.httpServer.Start()

	schedCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	done := make(chan struct{})
	go func() {
		defer close(done)
		a.runner.Schedule(schedCtx)
	}()
	a.logger.Info("scheduler started", applogger.Strings("intervals", a.cfg.Pipeline.Intervals))

	var runErr error
	select {
	case <-ctx.Done():
		a.logger.Info("shutdown signal received")
	case err, ok := <-errCh:
		if ok {
			runErr = err
			a.logger.Error("http server error", applogger.Error(err))
		}
	}

	return errors.Join(runErr, a.shutdown(cancel, done))
}

// shutdown stops intake first, then waits for in-flight runs to drain.
func (a *App) shutdown(stopScheduler context.CancelFunc, schedulerDone <-chan struct{}) error {
	a.logger.Info("shutting down...")

	var err error
	if stopErr := a.httpServer.Stop(context.Background()); stopErr != nil {
		a.logger.Error("http shutdown error", applogger.Error(stopErr))
		err = stopErr
	}

	stopScheduler()
	<-schedulerDone
	a.runner.Wait()

	a.logger.Info("shutdown complete")
	return err
}
