package apikey

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

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
	g.DELETE("/:id", h.Delete)
}

type CreateKeyRequest struct {
	Name      string     `json:"name"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

type CreatedKeyResponse struct {
	Key    *APIKey `json:"key"`
	Secret string  `json:"secret"`
}

// Create godoc
// @Summary      Create an API key
// @Description  Issues a key for the acting organization. The secret is returned once and never again.
// @Tags         api-keys
// @Accept       json
// @Produce      json
// @Param        request body CreateKeyRequest true "Key attributes"
// @Success      201 {object} CreatedKeyResponse
// @Failure      400 {object} shared.APIError
// @Router       /api-keys [post]
func (h *Handler) Create(c echo.Context) error {
	orgID, err := auth.GetOrgID(c)
	if err != nil {
		return err
	}

	var req CreateKeyRequest
	if err := c.Bind(&req); err != nil {
		return shared.BadRequest("invalid_request", "invalid request body")
	}
	if req.Name == "" {
		return shared.BadRequest("missing_name", "name is required")
	}

	key := &APIKey{
		OrganizationID: orgID,
		Name:           req.Name,
		ExpiresAt:      req.ExpiresAt,
	}

	secret, err := h.store.Create(c.Request().Context(), key)
	if err != nil {
		h.logger.Error("api key creation failed", "error", err, "org_id", orgID)
		return shared.InternalError("key_create_failed", "failed to create API key")
	}

	h.logger.Info("api key created", "key_id", key.ID, "org_id", orgID)
	return c.JSON(http.StatusCreated, CreatedKeyResponse{Key: key, Secret: secret})
}

// List godoc
// @Summary      List the acting organization's API keys
// @Tags         api-keys
// @Produce      json
// @Success      200 {array} APIKey
// @Router       /api-keys [get]
func (h *Handler) List(c echo.Context) error {
	orgID, err := auth.GetOrgID(c)
	if err != nil {
		return err
	}

	keys, err := h.store.ListByOrganization(c.Request().Context(), orgID)
	if err != nil {
		return shared.InternalError("key_list_failed", "failed to list API keys")
	}
	return c.JSON(http.StatusOK, keys)
}

// Delete godoc
// @Summary      Revoke an API key
// @Tags         api-keys
// @Param        id path string true "Key ID"
// @Success      204
// @Failure      404 {object} shared.APIError
// @Router       /api-keys/{id} [delete]
func (h *Handler) Delete(c echo.Context) error {
	orgID, err := auth.GetOrgID(c)
	if err != nil {
		return err
	}

	if err := h.store.Delete(c.Request().Context(), orgID, c.Param("id")); err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return shared.NotFound("key_not_found", "API key not found")
		}
		return shared.InternalError("key_delete_failed", "failed to delete API key")
	}

	return c.NoContent(http.StatusNoContent)
}
