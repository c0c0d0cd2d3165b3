package server

import (
	"context"
	"encoding/json"
	"log"

	"pharmalink/internal/middleware"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

// WebsocketHandler returns a websocket handler that registers connections with
// the Hub. Authentication is handled by route middleware and userID is read
// from connection locals.
func (s *Server) WebsocketHandler() fiber.Handler {
	return websocket.New(func(conn *websocket.Conn) {
		middleware.ActiveWebSockets.Inc()
		defer middleware.ActiveWebSockets.Dec()

		ctx := context.Background()

		userIDVal := conn.Locals("userID")
		if userIDVal == nil {
			_ = conn.Close()
			return
		}
		uid, ok := userIDVal.(uint)
		if !ok {
			_ = conn.Close()
			return
		}

		if s.hub == nil {
			_ = conn.Close()
			return
		}

		// Register connection with scaling guardrails
		client, err := s.hub.Register(uid, conn)
		if err != nil {
			log.Printf("WebSocket: Failed to register user %d: %v", uid, err)
			_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"error":"`+err.Error()+`"}`))
			_ = conn.Close()
			return
		}

		// Handshake is complete; the single-use ticket has served its purpose.
		s.consumeWSTicket(ctx, conn.Locals("wsTicket"))

		defer s.hub.UnregisterClient(client)

		// Keep Redis presence fresh while the peer shows signs of life.
		if s.connections != nil {
			client.OnActivity = func(userID uint) {
				s.connections.Touch(ctx, userID)
			}
		}

		s.sendUnreadSnapshot(ctx, conn, uid)

		// Start pumps
		go client.WritePump()
		client.ReadPump()
	})
}

// sendUnreadSnapshot pushes the current unread total right after connect so
// the widget renders without waiting for its first poll.
func (s *Server) sendUnreadSnapshot(ctx context.Context, conn *websocket.Conn, userID uint) {
	count, err := s.messagingService.UnreadCount(ctx, userID)
	if err != nil {
		log.Printf("failed to load unread count for snapshot: %v", err)
		return
	}
	msg, err := json.Marshal(map[string]interface{}{
		"type": "unread_snapshot",
		"payload": map[string]interface{}{
			"unread_count": count,
		},
	})
	if err != nil {
		log.Printf("failed to marshal unread snapshot: %v", err)
		return
	}
	if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
		log.Printf("failed to write unread snapshot: %v", err)
	}
}
