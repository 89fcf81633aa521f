package calltype

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

func (h *Handler) RegisterRoutes(g *echo.Group) {
	g.GET("", h.List)
	g.POST("", h.Create)
	g.GET("/:id", h.Get)
	g.PUT("/:id", h.Update)
	g.DELETE("/:id", h.Delete)
}

type CreateCallTypeRequest struct {
	Code           string    `json:"code"`
	Name           string    `json:"name"`
	PromptTemplate string    `json:"prompt_template"`
	JSONStructure  Structure `json:"json_structure"`
	Active         *bool     `json:"active,omitempty"`
}

// Create godoc
// @Summary      Create a call type
// @Description  Registers a prompt template that analysis uses for calls tagged with this code.
// @Tags         call-types
// @Accept       json
// @Produce      json
// @Param        request body CreateCallTypeRequest true "Call type definition"
// @Success      201 {object} CallType
// @Failure      400 {object} shared.APIError
// @Failure      409 {object} shared.APIError
// @Router       /call-types [post]
func (h *Handler) Create(c echo.Context) error {
	var req CreateCallTypeRequest
	if err := c.Bind(&req); err != nil {
		return shared.BadRequest("invalid_request", "invalid request body")
	}
	if req.Code == "" || req.Name == "" || req.PromptTemplate == "" {
		return shared.BadRequest("missing_fields", "code, name and prompt_template are required")
	}

	active := true
	if req.Active != nil {
		active = *req.Active
	}

	ct := &CallType{
		Code:           req.Code,
		Name:           req.Name,
		PromptTemplate: req.PromptTemplate,
		JSONStructure:  req.JSONStructure,
		Active:         active,
	}
	if err := h.store.Create(c.Request().Context(), ct); err != nil {
		if errors.Is(err, shared.ErrConflict) {
			return shared.Conflict("call_type_exists", "a call type with that code already exists")
		}
		h.logger.Error("call type creation failed", "error", err, "code", req.Code)
		return shared.InternalError("call_type_create_failed", "failed to create call type")
	}

	return c.JSON(http.StatusCreated, ct)
}

// List godoc
// @Summary      List call types
// @Tags         call-types
// @Produce      json
// @Param        active query bool false "Only active call types"
// @Success      200 {array} CallType
// @Router       /call-types [get]
func (h *Handler) List(c echo.Context) error {
	limit, offset := shared.Pagination(c)
	activeOnly := c.QueryParam("active") == "true"

	cts, err := h.store.List(c.Request().Context(), activeOnly, limit, offset)
	if err != nil {
		return shared.InternalError("call_type_list_failed", "failed to list call types")
	}
	return c.JSON(http.StatusOK, cts)
}

// Get godoc
// @Summary      Get a call type
// @Tags         call-types
// @Produce      json
// @Param        id path string true "Call type ID"
// @Success      200 {object} CallType
// @Failure      404 {object} shared.APIError
// @Router       /call-types/{id} [get]
func (h *Handler) Get(c echo.Context) error {
	ct, err := h.store.GetByID(c.Request().Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return shared.NotFound("call_type_not_found", "call type not found")
		}
		return shared.InternalError("call_type_get_failed", "failed to load call type")
	}
	return c.JSON(http.StatusOK, ct)
}

type UpdateCallTypeRequest struct {
	Name           *string    `json:"name,omitempty"`
	PromptTemplate *string    `json:"prompt_template,omitempty"`
	JSONStructure  *Structure `json:"json_structure,omitempty"`
	Active         *bool      `json:"active,omitempty"`
}

// Update godoc
// @Summary      Update a call type
// @Tags         call-types
// @Accept       json
// @Produce      json
// @Param        id      path string                true "Call type ID"
// @Param        request body UpdateCallTypeRequest true "Fields to change"
// @Success      200 {object} CallType
// @Failure      404 {object} shared.APIError
// @Router       /call-types/{id} [put]
func (h *Handler) Update(c echo.Context) error {
	ctx := c.Request().Context()

	ct, err := h.store.GetByID(ctx, c.Param("id"))
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return shared.NotFound("call_type_not_found", "call type not found")
		}
		return shared.InternalError("call_type_get_failed", "failed to load call type")
	}

	var req UpdateCallTypeRequest
	if err := c.Bind(&req); err != nil {
		return shared.BadRequest("invalid_request", "invalid request body")
	}

	if req.Name != nil {
		ct.Name = *req.Name
	}
	if req.PromptTemplate != nil {
		ct.PromptTemplate = *req.PromptTemplate
	}
	if req.JSONStructure != nil {
		ct.JSONStructure = *req.JSONStructure
	}
	if req.Active != nil {
		ct.Active = *req.Active
	}

	if err := h.store.Update(ctx, ct); err != nil {
		return shared.InternalError("call_type_update_failed", "failed to update call type")
	}
	return c.JSON(http.StatusOK, ct)
}

// Delete godoc
// @Summary      Delete a call type
// @Tags         call-types
// @Param        id path string true "Call type ID"
// @Success      204
// @Failure      404 {object} shared.APIError
// @Router       /call-types/{id} [delete]
func (h *Handler) Delete(c echo.Context) error {
	if err := h.store.Delete(c.Request().Context(), c.Param("id")); err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return shared.NotFound("call_type_not_found", "call type not found")
		}
		return shared.InternalError("call_type_delete_failed", "failed to delete call type")
	}
	return c.NoContent(http.StatusNoContent)
}
