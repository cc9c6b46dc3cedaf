package api

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/caresignal/recovery-engine/internal/learning"
	"github.com/caresignal/recovery-engine/internal/models"
	"github.com/caresignal/recovery-engine/internal/services"
)

type handlers struct {
	svc    *services.LearningService
	logger *slog.Logger
}

// HealthResponse is the body for GET /healthz.
type HealthResponse struct {
	Status string `json:"status"`
}

// ClustersResponse is the body for GET /api/v1/clusters.
type ClustersResponse struct {
	Clusters []*models.PatternCluster `json:"clusters"`
	Count    int                      `json:"count"`
}

// StrategiesResponse is the body for GET /api/v1/strategies.
type StrategiesResponse struct {
	Strategies []*models.RecoveryStrategy `json:"strategies"`
	Count      int                        `json:"count"`
}

// InsightsResponse is the body for GET /api/v1/insights.
type InsightsResponse struct {
	Insights []models.Insight `json:"insights"`
	Count    int              `json:"count"`
}

// SweepRequest optionally overrides the configured retention horizon.
type SweepRequest struct {
	HorizonHours float64 `json:"horizon_hours"`
}

// SyncRequest optionally narrows the platform feed pull.
type SyncRequest struct {
	Since time.Time `json:"since"`
	Limit int       `json:"limit"`
}

// ImportResponse summarises what an accepted snapshot contained.
type ImportResponse struct {
	Patterns    int `json:"patterns"`
	Clusters    int `json:"clusters"`
	Strategies  int `json:"strategies"`
	Performance int `json:"performance_records"`
}

func (h *handlers) health(c echo.Context) error {
	return c.JSON(http.StatusOK, HealthResponse{Status: "ok"})
}

func (h *handlers) observePattern(c echo.Context) error {
	var p models.ErrorPattern
	if err := c.Bind(&p); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	res, err := h.svc.ObservePattern(c.Request().Context(), p)
	if err != nil {
		return h.httpError(err)
	}
	return c.JSON(http.StatusCreated, res)
}

func (h *handlers) getPattern(c echo.Context) error {
	p, err := h.svc.Pattern(c.Request().Context(), c.Param("id"))
	if err != nil {
		return h.httpError(err)
	}
	return c.JSON(http.StatusOK, p)
}

func (h *handlers) recommend(c echo.Context) error {
	rec, err := h.svc.Recommend(c.Request().Context(), c.Param("id"))
	if err != nil {
		return h.httpError(err)
	}
	return c.JSON(http.StatusOK, rec)
}

func (h *handlers) recordOutcome(c echo.Context) error {
	var req models.OutcomeRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	record, err := h.svc.RecordOutcome(c.Request().Context(), req)
	if err != nil {
		return h.httpError(err)
	}
	return c.JSON(http.StatusOK, record)
}

func (h *handlers) listClusters(c echo.Context) error {
	clusters := h.svc.Clusters(c.Request().Context(), c.QueryParam("category"))
	return c.JSON(http.StatusOK, ClustersResponse{Clusters: clusters, Count: len(clusters)})
}

func (h *handlers) getCluster(c echo.Context) error {
	cluster, err := h.svc.Cluster(c.Request().Context(), c.Param("id"))
	if err != nil {
		return h.httpError(err)
	}
	return c.JSON(http.StatusOK, cluster)
}

func (h *handlers) listStrategies(c echo.Context) error {
	strategies := h.svc.Strategies(c.Request().Context())
	return c.JSON(http.StatusOK, StrategiesResponse{Strategies: strategies, Count: len(strategies)})
}

func (h *handlers) insights(c echo.Context) error {
	out := h.svc.Insights(c.Request().Context())
	return c.JSON(http.StatusOK, InsightsResponse{Insights: out, Count: len(out)})
}

func (h *handlers) exportState(c echo.Context) error {
	persist := strings.EqualFold(c.QueryParam("persist"), "true")
	return c.JSON(http.StatusOK, h.svc.Export(c.Request().Context(), persist))
}

func (h *handlers) importState(c echo.Context) error {
	var snap models.Snapshot
	if err := c.Bind(&snap); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid snapshot body")
	}
	if err := h.svc.Import(c.Request().Context(), snap); err != nil {
		return h.httpError(err)
	}
	return c.JSON(http.StatusOK, ImportResponse{
		Patterns:    len(snap.Patterns),
		Clusters:    len(snap.Clusters),
		Strategies:  len(snap.Strategies),
		Performance: len(snap.Performance),
	})
}

func (h *handlers) sweep(c echo.Context) error {
	var req SweepRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	horizon := time.Duration(req.HorizonHours * float64(time.Hour))
	return c.JSON(http.StatusOK, h.svc.Sweep(c.Request().Context(), horizon))
}

func (h *handlers) syncPlatform(c echo.Context) error {
	var req SyncRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	summary, err := h.svc.SyncFromPlatform(c.Request().Context(), req.Since, req.Limit)
	if err != nil {
		return h.httpError(err)
	}
	return c.JSON(http.StatusOK, summary)
}

// httpError maps domain errors onto status codes: validation failures are
// 400, duplicates 409, unknown IDs and empty recommendations 404, anything
// else an opaque 500.
func (h *handlers) httpError(err error) error {
	switch {
	case errors.Is(err, models.ErrInvalid):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, learning.ErrDuplicatePattern):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	case errors.Is(err, learning.ErrPatternNotFound),
		errors.Is(err, learning.ErrClusterNotFound),
		errors.Is(err, learning.ErrStrategyNotFound),
		errors.Is(err, learning.ErrNoApplicableStrategy):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	default:
		h.logger.Error("request failed", slog.Any("error", err))
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
}
