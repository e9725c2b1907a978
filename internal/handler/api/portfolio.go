package api

import (
	"context"
	"errors"
	"math"
	"net/http"
	"strconv"
	"time"

	"FolioPull/internal/domain/models"
	domrepo "FolioPull/internal/domain/repository"
	"FolioPull/internal/service/ratelimit"
	"FolioPull/internal/usecase"
	xhttp "FolioPull/pkg/http"
	xlogger "FolioPull/pkg/logger"

	"github.com/labstack/echo/v4"
)

// Portfolio is the part of usecase.Coordinator the API serves.
type Portfolio interface {
	Snapshot() models.Snapshot
	Entities(ctx context.Context) ([]models.Entity, error)
	States(ctx context.Context) ([]models.EntityState, error)
	State(ctx context.Context, uniqueID string) (models.Entity, models.EntityState, error)
	SetLimit(ctx context.Context, uniqueID string, v float64) (models.EntityState, error)
	Refresh(ctx context.Context) (models.Snapshot, error)
	Prune(ctx context.Context) (usecase.PruneResult, error)
}

var _ Portfolio = (*usecase.Coordinator)(nil)

// PortfolioHandler exposes the snapshot, entities, limits and maintenance
// actions over HTTP and streams entity states on /ws.
type PortfolioHandler struct {
	logger    *xlogger.Logger
	portfolio Portfolio
	hub       *Hub
	prune     *ratelimit.Limiter
}

func NewPortfolioHandler(logger *xlogger.Logger, portfolio Portfolio, hub *Hub, prune *ratelimit.Limiter) *PortfolioHandler {
	return &PortfolioHandler{logger: logger, portfolio: portfolio, hub: hub, prune: prune}
}

func (h *PortfolioHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", h.Health)
	e.GET("/ws", h.Stream)

	g := e.Group("/api")
	g.GET("/snapshot", h.Snapshot)
	g.GET("/entities", h.Entities)
	g.GET("/entities/:id", h.Entity)
	g.PUT("/limits/:id", h.SetLimit)
	g.POST("/refresh", h.Refresh)
	g.POST("/maintenance/prune", h.Prune)
}

func (h *PortfolioHandler) Health(c echo.Context) error {
	s := h.portfolio.Snapshot()
	res := models.HealthResponse{Status: "ok", ServerOnline: s.ServerOnline, Clients: h.hub.Clients()}
	if !s.UpdatedAt.IsZero() {
		res.UpdatedAt = s.UpdatedAt.UTC().Format(time.RFC3339)
	}
	return c.JSON(http.StatusOK, res)
}

func (h *PortfolioHandler) Snapshot(c echo.Context) error {
	return xhttp.SuccessResponse(c, h.portfolio.Snapshot())
}

func (h *PortfolioHandler) Entities(c echo.Context) error {
	ctx := c.Request().Context()
	entities, err := h.portfolio.Entities(ctx)
	if err != nil {
		h.logger.Error("list entities", xlogger.Error(err))
		return xhttp.InternalServerErrorResponse(c)
	}
	states, err := h.portfolio.States(ctx)
	if err != nil {
		h.logger.Error("render states", xlogger.Error(err))
		return xhttp.InternalServerErrorResponse(c)
	}

	byID := make(map[string]models.EntityState, len(states))
	for _, st := range states {
		byID[st.UniqueID] = st
	}
	rows := make([]models.EntityView, 0, len(entities))
	for _, e := range entities {
		rows = append(rows, models.EntityView{Entity: e, State: byID[e.UniqueID]})
	}
	return xhttp.ListResponse(c, rows, int64(len(rows)))
}

func (h *PortfolioHandler) Entity(c echo.Context) error {
	id := c.Param("id")
	e, st, err := h.portfolio.State(c.Request().Context(), id)
	if err != nil {
		return h.appError(c, "get entity", id, err)
	}
	return xhttp.SuccessResponse(c, models.EntityView{Entity: e, State: st})
}

func (h *PortfolioHandler) SetLimit(c echo.Context) error {
	req := &models.SetLimitRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	st, err := h.portfolio.SetLimit(c.Request().Context(), req.ID, *req.Value)
	if err != nil {
		return h.appError(c, "set limit", req.ID, err)
	}
	h.logger.Info("limit updated", xlogger.String("unique_id", req.ID), xlogger.Float64("value", *req.Value))
	return xhttp.SuccessResponse(c, st)
}

// Refresh and Prune outlive a dropped client connection; Ghostfolio calls are
// bounded by the client's request timeout.
func (h *PortfolioHandler) Refresh(c echo.Context) error {
	s, err := h.portfolio.Refresh(context.WithoutCancel(c.Request().Context()))
	if err != nil {
		return h.appError(c, "refresh", "", err)
	}
	return xhttp.SuccessResponse(c, s)
}

func (h *PortfolioHandler) Prune(c echo.Context) error {
	if ok, wait := h.prune.Reserve("prune"); !ok {
		c.Response().Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(wait.Seconds()))))
		h.logger.Warn("prune rate limited", xlogger.String("remote", c.RealIP()))
		return xhttp.AppErrorResponse(c, xhttp.TooManyRequestsError("prune is rate limited"))
	}

	res, err := h.portfolio.Prune(context.WithoutCancel(c.Request().Context()))
	if err != nil {
		return h.appError(c, "prune", "", err)
	}
	return xhttp.SuccessResponse(c, res)
}

// Stream upgrades to a websocket that receives the full state set first and
// then every update.
func (h *PortfolioHandler) Stream(c echo.Context) error {
	states, err := h.portfolio.States(c.Request().Context())
	if err != nil {
		h.logger.Warn("render initial states", xlogger.Error(err))
	}
	if err := h.hub.Serve(c.Response(), c.Request(), states); err != nil {
		h.logger.Warn("ws upgrade failed", xlogger.Error(err))
	}
	return nil
}

func (h *PortfolioHandler) appError(c echo.Context, op, id string, err error) error {
	switch {
	case errors.Is(err, domrepo.ErrEntityNotFound):
		return xhttp.AppErrorResponse(c, xhttp.NotFoundErrorf("entity %q not found", id))
	case errors.Is(err, usecase.ErrNotLimitEntity), errors.Is(err, usecase.ErrInvalidLimit):
		return xhttp.AppErrorResponse(c, xhttp.BadRequestErrorf("%s", err.Error()).WithError(err))
	case errors.Is(err, usecase.ErrRefreshInProgress):
		return xhttp.AppErrorResponse(c, xhttp.ConflictErrorf("%s", err.Error()))
	}
	h.logger.Error(op+" failed", xlogger.String("unique_id", id), xlogger.Error(err))
	return xhttp.InternalServerErrorResponse(c)
}
