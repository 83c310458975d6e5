package main

import (
	"net/http"
	"slices"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

const (
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512 // clients only send control frames
)

func (s *Server) upgrader() *websocket.Upgrader {
	return &websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			return origin == "" || s.allowAllOrigins() || slices.Contains(s.origins, origin)
		},
	}
}

// chatSocket streams new messages of one delivery to a party of it until
// the client goes away.
func (s *Server) chatSocket(c *gin.Context) {
	deliveryID := c.Param("deliveryId")
	caller := userID(c)
	if err := s.svc.Chat.CanSubscribe(c.Request.Context(), caller, deliveryID); err != nil {
		s.abort(c, err)
		return
	}

	conn, err := s.upgrader().Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade already wrote the HTTP error
		s.logger.Warn("websocket upgrade failed", "delivery_id", deliveryID, "error", err)
		return
	}
	defer conn.Close()

	sender := &wsSender{conn: conn}
	id := s.hub.Register(deliveryID, sender)
	defer s.hub.Unregister(deliveryID, id)
	s.logger.Info("chat subscriber connected", "delivery_id", deliveryID, "user_id", caller)

	done := make(chan struct{})
	defer close(done)
	go func() {
		ticker := time.NewTicker(pingPeriod)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if err := sender.ping(); err != nil {
					return
				}
			case <-done:
				return
			}
		}
	}()

	conn.SetReadLimit(maxMessageSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	// read until the client closes; incoming frames are ignored
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.logger.Debug("chat subscriber closed", "delivery_id", deliveryID, "error", err)
			}
			break
		}
	}
	s.logger.Info("chat subscriber disconnected", "delivery_id", deliveryID, "user_id", caller)
}
