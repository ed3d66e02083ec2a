package server

import (
	"context"
	"log"

	"banterbus/internal/notifications"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
)

// WebSocketUpgrade rejects non-websocket requests to the /ws endpoint.
func (s *Server) WebSocketUpgrade(c *fiber.Ctx) error {
	if websocket.IsWebSocketUpgrade(c) {
		return c.Next()
	}
	return fiber.ErrUpgradeRequired
}

// WebSocketHandler attaches a connection to the hub and feeds its frames to
// the dispatcher. Each connection gets a fresh session id.
func (s *Server) WebSocketHandler() fiber.Handler {
	return websocket.New(func(conn *websocket.Conn) {
		sid := uuid.NewString()
		ctx := context.Background()

		client, err := s.hub.Register(sid, conn)
		if err != nil {
			log.Printf("WebSocket: failed to register session %s: %v", sid, err)
			_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"error":"`+err.Error()+`"}`))
			_ = conn.Close()
			return
		}

		client.IncomingHandler = func(c *notifications.Client, message []byte) {
			s.dispatcher.Dispatch(ctx, c.SID, message)
		}
		client.OnDisconnect = func(c *notifications.Client) {
			s.dispatcher.HandleDisconnect(ctx, c.SID)
		}

		s.dispatcher.HandleConnect(ctx, sid)

		go client.WritePump()
		client.ReadPump()
	})
}
