package events

import (
	"log/slog"

	"github.com/calliq/insights-backend/internal/auth"
	"github.com/labstack/echo/v4"
)

type Handler struct {
	hub    *Hub
	logger *slog.Logger
}

func NewHandler(hub *Hub, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{hub: hub, logger: logger}
}

func (h *Handler) RegisterRoutes(g *echo.Group) {
	g.GET("/ws", h.Subscribe)
}

// Subscribe godoc
// @Summary      Live dashboard event feed
// @Description  Upgrades to a websocket delivering transcript and metrics events for the acting organization.
// @Tags         events
// @Success      101
// @Router       /events/ws [get]
func (h *Handler) Subscribe(c echo.Context) error {
	orgID, err := auth.GetOrgID(c)
	if err != nil {
		return err
	}

	ws, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return err
	}

	sub := newSubscriber(ws, orgID, h.logger)
	h.hub.add(sub)
	h.logger.Info("dashboard subscribed", "org_id", orgID)

	go sub.writePump()
	sub.readPump()

	h.hub.remove(sub)
	h.logger.Info("dashboard unsubscribed", "org_id", orgID)
	return nil
}
