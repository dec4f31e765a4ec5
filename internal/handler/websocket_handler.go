package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/UniM0cha/gilton-system/internal/service"
)

// RelayWSHandler handles WebSocket connections for the shared worship room.
type RelayWSHandler struct {
	hub    *service.RoomHub
	logger *zap.Logger
}

// NewRelayWSHandler creates the relay WebSocket handler.
func NewRelayWSHandler(hub *service.RoomHub, logger *zap.Logger) *RelayWSHandler {
	return &RelayWSHandler{hub: hub, logger: logger}
}

// ServeWS upgrades the request and runs the connection's read loop. Every
// decoded frame is handed to the hub; the write pump drains the peer's send
// buffer until the hub closes it on detach.
func (h *RelayWSHandler) ServeWS(c *gin.Context) {
	conn, err := h.hub.Upgrader().Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	peer := h.hub.Attach(conn)
	defer h.hub.Detach(peer)

	go h.writePump(peer)
	h.readPump(peer)
}

func (h *RelayWSHandler) readPump(p *service.Peer) {
	for {
		_, data, err := p.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				h.logger.Debug("read error", zap.String("conn_id", p.ID), zap.Error(err))
			}
			return
		}
		h.hub.HandleMessage(p, data)
	}
}

func (h *RelayWSHandler) writePump(p *service.Peer) {
	defer func() {
		_ = p.Conn.Close()
	}()
	for data := range p.Send {
		if err := p.Conn.WriteMessage(websocket.TextMessage, data); err != nil {
			return
		}
	}
}
