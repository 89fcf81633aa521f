package metrics

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/calliq/insights-backend/internal/auth"
	"github.com/calliq/insights-backend/internal/shared"
	"github.com/labstack/echo/v4"
)

type Handler struct {
	aggregator *Aggregator
	logger     *slog.Logger
}

func NewHandler(aggregator *Aggregator, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{aggregator: aggregator, logger: logger}
}

func (h *Handler) RegisterRoutes(g *echo.Group) {
	g.POST("/:id/metrics/refresh", h.Refresh)
	g.POST("/metrics/refresh", h.RefreshAll)
}

func window(c echo.Context) (Window, error) {
	start, err := shared.TimeQueryParam(c, "start")
	if err != nil {
		return Window{}, err
	}
	end, err := shared.TimeQueryParam(c, "end")
	if err != nil {
		return Window{}, err
	}
	return Window{Start: start, End: end}, nil
}

// Refresh godoc
// @Summary      Recompute one agent's performance metrics
// @Tags         agents
// @Produce      json
// @Param        id    path  string true  "Agent ID"
// @Param        start query string false "Window start (RFC 3339)"
// @Param        end   query string false "Window end (RFC 3339)"
// @Success      200 {object} agent.PeriodMetrics
// @Failure      404 {object} shared.APIError
// @Failure      422 {object} shared.APIError
// @Router       /agents/{id}/metrics/refresh [post]
func (h *Handler) Refresh(c echo.Context) error {
	orgID, err := auth.GetOrgID(c)
	if err != nil {
		return err
	}
	w, err := window(c)
	if err != nil {
		return err
	}

	current, err := h.aggregator.Run(c.Request().Context(), orgID, c.Param("id"), w)
	if err != nil {
		switch {
		case errors.Is(err, shared.ErrNoData):
			return shared.NewAPIError("no_transcripts", "no transcripts in the requested window").
				ToHTTP(http.StatusUnprocessableEntity)
		case errors.Is(err, shared.ErrNotFound):
			return shared.NotFound("agent_not_found", "agent not found")
		default:
			h.logger.Error("metrics refresh failed", "error", err, "org_id", orgID, "agent_id", c.Param("id"))
			return shared.InternalError("metrics_refresh_failed", "failed to refresh metrics")
		}
	}

	return c.JSON(http.StatusOK, current)
}

// RefreshAll godoc
// @Summary      Recompute metrics for every agent in the organization
// @Tags         agents
// @Produce      json
// @Param        start query string false "Window start (RFC 3339)"
// @Param        end   query string false "Window end (RFC 3339)"
// @Success      200 {object} BatchResult
// @Router       /agents/metrics/refresh [post]
func (h *Handler) RefreshAll(c echo.Context) error {
	orgID, err := auth.GetOrgID(c)
	if err != nil {
		return err
	}
	w, err := window(c)
	if err != nil {
		return err
	}

	result, err := h.aggregator.RunAll(c.Request().Context(), orgID, w)
	if err != nil {
		h.logger.Error("batch metrics refresh failed", "error", err, "org_id", orgID)
		return shared.InternalError("metrics_refresh_failed", "failed to refresh metrics")
	}

	return c.JSON(http.StatusOK, result)
}
