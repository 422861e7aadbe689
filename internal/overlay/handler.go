package overlay

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

type Handler struct {
	hub    *Hub
	logger *slog.Logger
}

func NewHandler(hub *Hub, logger *slog.Logger) *Handler {
	return &Handler{
		hub:    hub,
		logger: logger.With("handler", "overlay"),
	}
}

func (h *Handler) RegisterRoutes(g *echo.Group) {
	g.GET("/ws", h.HandleWebSocket)
}

// HandleWebSocket godoc
// @Summary      Subscribe to detection updates
// @Description  Upgrades to a websocket that streams status, result, overlay and history messages. Clients may send a display message with the rendered video size.
// @Tags         overlay
// @Success      101
// @Router       /v1/ws [get]
func (h *Handler) HandleWebSocket(c echo.Context) error {
	ws, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		h.logger.Error("websocket upgrade failed", "error", err)
		return err
	}

	client := newClient(ws, h.hub, h.logger)
	h.hub.register(client)

	ctx := c.Request().Context()
	go client.writePump(ctx)
	client.readPump(ctx)

	h.hub.unregister(client)
	return nil
}
