package organization

import (
	"errors"
	"log/slog"
	"net/http"

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

// RegisterRoutes mounts organization management. The group is expected to be
// wrapped in the master admin guard; tenants never manage organizations.
func (h *Handler) RegisterRoutes(g *echo.Group) {
	g.GET("", h.List)
	g.POST("", h.Create)
	g.GET("/:id", h.Get)
	g.PUT("/:id", h.Update)
	g.DELETE("/:id", h.Delete)
}

type CreateOrganizationRequest struct {
	Name         string `json:"name"`
	ContactEmail string `json:"contact_email,omitempty"`
}

// Create godoc
// @Summary      Create an organization
// @Tags         organizations
// @Accept       json
// @Produce      json
// @Param        request body CreateOrganizationRequest true "Organization attributes"
// @Success      201 {object} Organization
// @Failure      400 {object} shared.APIError
// @Failure      409 {object} shared.APIError
// @Router       /organizations [post]
func (h *Handler) Create(c echo.Context) error {
	var req CreateOrganizationRequest
	if err := c.Bind(&req); err != nil {
		return shared.BadRequest("invalid_request", "invalid request body")
	}
	if req.Name == "" {
		return shared.BadRequest("missing_name", "name is required")
	}

	org := &Organization{
		Name:         req.Name,
		ContactEmail: req.ContactEmail,
		Status:       StatusActive,
	}
	if err := h.store.Create(c.Request().Context(), org); err != nil {
		if errors.Is(err, shared.ErrConflict) {
			return shared.Conflict("organization_exists", "an organization with that name already exists")
		}
		h.logger.Error("organization creation failed", "error", err)
		return shared.InternalError("organization_create_failed", "failed to create organization")
	}

	h.logger.Info("organization created", "org_id", org.ID, "name", org.Name)
	return c.JSON(http.StatusCreated, org)
}

// List godoc
// @Summary      List organizations
// @Tags         organizations
// @Produce      json
// @Success      200 {array} Organization
// @Router       /organizations [get]
func (h *Handler) List(c echo.Context) error {
	limit, offset := shared.Pagination(c)
	orgs, err := h.store.List(c.Request().Context(), limit, offset)
	if err != nil {
		return shared.InternalError("organization_list_failed", "failed to list organizations")
	}
	return c.JSON(http.StatusOK, orgs)
}

// Get godoc
// @Summary      Get an organization
// @Tags         organizations
// @Produce      json
// @Param        id path string true "Organization ID"
// @Success      200 {object} Organization
// @Failure      404 {object} shared.APIError
// @Router       /organizations/{id} [get]
func (h *Handler) Get(c echo.Context) error {
	org, err := h.store.GetByID(c.Request().Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return shared.NotFound("organization_not_found", "organization not found")
		}
		return shared.InternalError("organization_get_failed", "failed to load organization")
	}
	return c.JSON(http.StatusOK, org)
}

type UpdateOrganizationRequest struct {
	Name         *string `json:"name,omitempty"`
	ContactEmail *string `json:"contact_email,omitempty"`
	Status       *Status `json:"status,omitempty"`
}

// Update godoc
// @Summary      Update an organization
// @Tags         organizations
// @Accept       json
// @Produce      json
// @Param        id      path string                    true "Organization ID"
// @Param        request body UpdateOrganizationRequest true "Fields to change"
// @Success      200 {object} Organization
// @Failure      404 {object} shared.APIError
// @Router       /organizations/{id} [put]
func (h *Handler) Update(c echo.Context) error {
	ctx := c.Request().Context()

	org, err := h.store.GetByID(ctx, c.Param("id"))
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return shared.NotFound("organization_not_found", "organization not found")
		}
		return shared.InternalError("organization_get_failed", "failed to load organization")
	}

	var req UpdateOrganizationRequest
	if err := c.Bind(&req); err != nil {
		return shared.BadRequest("invalid_request", "invalid request body")
	}

	if req.Name != nil {
		org.Name = *req.Name
	}
	if req.ContactEmail != nil {
		org.ContactEmail = *req.ContactEmail
	}
	if req.Status != nil {
		if *req.Status != StatusActive && *req.Status != StatusSuspended {
			return shared.BadRequest("invalid_status", "status must be active or suspended")
		}
		org.Status = *req.Status
	}

	if err := h.store.Update(ctx, org); err != nil {
		return shared.InternalError("organization_update_failed", "failed to update organization")
	}
	return c.JSON(http.StatusOK, org)
}

// Delete godoc
// @Summary      Delete an organization
// @Tags         organizations
// @Param        id path string true "Organization ID"
// @Success      204
// @Failure      404 {object} shared.APIError
// @Router       /organizations/{id} [delete]
func (h *Handler) Delete(c echo.Context) error {
	if err := h.store.Delete(c.Request().Context(), c.Param("id")); err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return shared.NotFound("organization_not_found", "organization not found")
		}
		return shared.InternalError("organization_delete_failed", "failed to delete organization")
	}
	return c.NoContent(http.StatusNoContent)
}
