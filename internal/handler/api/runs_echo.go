package api

import (
	"context"
	"errors"

	"FinSignal/internal/domain/models"
	"FinSignal/internal/service/ratelimit"
	xhttp "FinSignal/pkg/http"
	xlogger "FinSignal/pkg/logger"

	"github.com/labstack/echo/v4"
)

// RunController is the part of usecase.Runner the API drives.
type RunController interface {
	Start(ctx context.Context, opts models.RunOptions) error
	Last() (models.RunReport, bool)
	Running() bool
}

// RunsEchoHandler exposes run status and manual triggers.
type RunsEchoHandler struct {
	logger   *xlogger.Logger
	runs     RunController
	throttle *ratelimit.Limiter
}

func NewRunsEchoHandler(logger *xlogger.Logger, runs RunController, throttle *ratelimit.Limiter) *RunsEchoHandler {
	return &RunsEchoHandler{logger: logger, runs: runs, throttle: throttle}
}

func (h *RunsEchoHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", h.Health)

	g := e.Group("/api")
	g.GET("/runs/last", h.LastRun)
	g.POST("/runs", h.TriggerRun)
}

func (h *RunsEchoHandler) Health(c echo.Context) error {
	return xhttp.SuccessResponse(c, map[string]interface{}{
		"status":  "ok",
		"running": h.runs.Running(),
	})
}

func (h *RunsEchoHandler) LastRun(c echo.Context) error {
	report, ok := h.runs.Last()
	if !ok {
		return xhttp.AppErrorResponse(c, xhttp.NotFoundError("no run has finished yet"))
	}
	return xhttp.SuccessResponse(c, report)
}

func (h *RunsEchoHandler) TriggerRun(c echo.Context) error {
	if h.throttle != nil && !h.throttle.Allow(c.RealIP()) {
		return xhttp.AppErrorResponse(c, xhttp.TooManyRequestsError("too many run triggers, slow down"))
	}

	req := &models.RunRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	opts := models.RunOptions{
		Manual:    req.Manual == nil || *req.Manual,
		Intervals: req.Intervals,
		Symbols:   req.Symbols,
	}
	// the run outlives this request
	if err := h.runs.Start(context.WithoutCancel(c.Request().Context()), opts); err != nil {
		if errors.Is(err, models.ErrRunInProgress) {
			return xhttp.AppErrorResponse(c, xhttp.ConflictError("a run is already in progress"))
		}
		h.logger.Error("trigger run failed", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, xhttp.InternalError("could not start run").WithError(err))
	}

	h.logger.Info("manual run triggered",
		xlogger.String("remote", c.RealIP()),
		xlogger.Strings("intervals", opts.Intervals),
		xlogger.Int("symbols", len(opts.Symbols)),
	)
	return xhttp.AcceptedResponse(c, map[string]interface{}{
		"manual":    opts.Manual,
		"intervals": opts.Intervals,
		"symbols":   opts.Symbols,
	})
}
