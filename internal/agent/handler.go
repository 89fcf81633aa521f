package agent

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/calliq/insights-backend/internal/auth"
	"github.com/calliq/insights-backend/internal/shared"
	"github.com/labstack/echo/v4"
)

type Handler struct {
	store  *Store
	logger *slog.Logger
}

func NewHandler(store *Store, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{store: store, logger: logger}
}

func (h *Handler) RegisterRoutes(g *echo.Group) {
	g.GET("", h.List)
	g.POST("", h.Create)
	g.GET("/:id", h.Get)
	g.PUT("/:id", h.Update)
	g.DELETE("/:id", h.Delete)
	g.GET("/:id/metrics", h.Metrics)
}

type CreateAgentRequest struct {
	ExternalID string `json:"external_id,omitempty"`
	FirstName  string `json:"first_name"`
	LastName   string `json:"last_name"`
	Email      string `json:"email,omitempty"`
	Phone      string `json:"phone,omitempty"`
}

// Create godoc
// @Summary      Register an agent
// @Tags         agents
// @Accept       json
// @Produce      json
// @Param        request body CreateAgentRequest true "Agent profile"
// @Success      201 {object} Agent
// @Failure      400 {object} shared.APIError
// @Router       /agents [post]
func (h *Handler) Create(c echo.Context) error {
	orgID, err := auth.GetOrgID(c)
	if err != nil {
		return err
	}

	var req CreateAgentRequest
	if err := c.Bind(&req); err != nil {
		return shared.BadRequest("invalid_request", "invalid request body")
	}
	if req.FirstName == "" && req.LastName == "" {
		return shared.BadRequest("missing_name", "agent name is required")
	}

	a := &Agent{
		ExternalID:     req.ExternalID,
		FirstName:      req.FirstName,
		LastName:       req.LastName,
		Email:          req.Email,
		Phone:          req.Phone,
		OrganizationID: orgID,
		Status:         StatusActive,
	}
	if err := h.store.Create(c.Request().Context(), a); err != nil {
		h.logger.Error("agent creation failed", "error", err, "org_id", orgID)
		return shared.InternalError("agent_create_failed", "failed to create agent")
	}

	return c.JSON(http.StatusCreated, a)
}

// List godoc
// @Summary      List the acting organization's agents
// @Tags         agents
// @Produce      json
// @Success      200 {array} Agent
// @Router       /agents [get]
func (h *Handler) List(c echo.Context) error {
	orgID, err := auth.GetOrgID(c)
	if err != nil {
		return err
	}

	agents, err := h.store.ListByOrganization(c.Request().Context(), orgID)
	if err != nil {
		return shared.InternalError("agent_list_failed", "failed to list agents")
	}
	return c.JSON(http.StatusOK, agents)
}

func (h *Handler) load(c echo.Context) (*Agent, error) {
	orgID, err := auth.GetOrgID(c)
	if err != nil {
		return nil, err
	}

	a, err := h.store.GetByID(c.Request().Context(), orgID, c.Param("id"))
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NotFound("agent_not_found", "agent not found")
		}
		return nil, shared.InternalError("agent_get_failed", "failed to load agent")
	}
	return a, nil
}

// Get godoc
// @Summary      Get an agent
// @Tags         agents
// @Produce      json
// @Param        id path string true "Agent ID"
// @Success      200 {object} Agent
// @Failure      404 {object} shared.APIError
// @Router       /agents/{id} [get]
func (h *Handler) Get(c echo.Context) error {
	a, err := h.load(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, a)
}

// Metrics godoc
// @Summary      Get an agent's performance metrics
// @Description  Returns the current aggregation period and the historical snapshots.
// @Tags         agents
// @Produce      json
// @Param        id path string true "Agent ID"
// @Success      200 {object} PerformanceMetrics
// @Failure      404 {object} shared.APIError
// @Router       /agents/{id}/metrics [get]
func (h *Handler) Metrics(c echo.Context) error {
	a, err := h.load(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, a.PerformanceMetrics)
}

type UpdateAgentRequest struct {
	ExternalID *string `json:"external_id,omitempty"`
	FirstName  *string `json:"first_name,omitempty"`
	LastName   *string `json:"last_name,omitempty"`
	Email      *string `json:"email,omitempty"`
	Phone      *string `json:"phone,omitempty"`
	Status     *Status `json:"status,omitempty"`
}

// Update godoc
// @Summary      Update an agent
// @Tags         agents
// @Accept       json
// @Produce      json
// @Param        id      path string             true "Agent ID"
// @Param        request body UpdateAgentRequest true "Fields to change"
// @Success      200 {object} Agent
// @Failure      404 {object} shared.APIError
// @Router       /agents/{id} [put]
func (h *Handler) Update(c echo.Context) error {
	a, err := h.load(c)
	if err != nil {
		return err
	}

	var req UpdateAgentRequest
	if err := c.Bind(&req); err != nil {
		return shared.BadRequest("invalid_request", "invalid request body")
	}

	if req.ExternalID != nil {
		a.ExternalID = *req.ExternalID
	}
	if req.FirstName != nil {
		a.FirstName = *req.FirstName
	}
	if req.LastName != nil {
		a.LastName = *req.LastName
	}
	if req.Email != nil {
		a.Email = *req.Email
	}
	if req.Phone != nil {
		a.Phone = *req.Phone
	}
	if req.Status != nil {
		if *req.Status != StatusActive && *req.Status != StatusInactive {
			return shared.BadRequest("invalid_status", "status must be active or inactive")
		}
		a.Status = *req.Status
	}

	if err := h.store.Update(c.Request().Context(), a); err != nil {
		return shared.InternalError("agent_update_failed", "failed to update agent")
	}
	return c.JSON(http.StatusOK, a)
}

// Delete godoc
// @Summary      Delete an agent
// @Tags         agents
// @Param        id path string true "Agent ID"
// @Success      204
// @Failure      404 {object} shared.APIError
// @Router       /agents/{id} [delete]
func (h *Handler) Delete(c echo.Context) error {
	orgID, err := auth.GetOrgID(c)
	if err != nil {
		return err
	}

	if err := h.store.Delete(c.Request().Context(), orgID, c.Param("id")); err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return shared.NotFound("agent_not_found", "agent not found")
		}
		return shared.InternalError("agent_delete_failed", "failed to delete agent")
	}
	return c.NoContent(http.StatusNoContent)
}
