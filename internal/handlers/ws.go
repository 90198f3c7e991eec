// internal/handlers/ws.go
package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/coder/websocket"
)

// NotificationWSHandler upgrades the connection and registers it as the
// calling player's notification channel. The read loop only services pings;
// all game mutations go through the HTTP surface.
func (s *Server) NotificationWSHandler(w http.ResponseWriter, r *http.Request) {
	playerID, err := s.authenticate(r)
	if err != nil {
		writeError(w, err)
		return
	}

	c, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"}, // Adjust for production security.
	})
	if err != nil {
		s.Log.WithError(err).Warn("websocket accept error")
		return
	}
	defer c.Close(websocket.StatusInternalError, "handler exit")

	s.Dispatcher.Register(playerID, c)
	defer s.Dispatcher.Unregister(playerID, c)
	s.Log.WithField("player", playerID).Info("notification channel connected")

	ctx := r.Context()
	for {
		msgType, data, err := c.Read(ctx)
		if err != nil {
			status := websocket.CloseStatus(err)
			if status == websocket.StatusNormalClosure || status == websocket.StatusGoingAway ||
				strings.Contains(err.Error(), "context canceled") {
				s.Log.WithField("player", playerID).Info("notification channel closed")
			} else {
				s.Log.WithField("player", playerID).WithError(err).Warn("notification channel read error")
			}
			return
		}
		if msgType != websocket.MessageText {
			continue
		}

		var msg struct {
			Type string `json:"type"`
		}
		if err := json.Unmarshal(data, &msg); err != nil {
			continue
		}
		if msg.Type == "ping" {
			s.writePong(ctx, c)
		}
	}
}

func (s *Server) writePong(ctx context.Context, c *websocket.Conn) {
	data, _ := json.Marshal(map[string]string{"type": "pong"})
	if err := c.Write(ctx, websocket.MessageText, data); err != nil {
		s.Log.WithError(err).Debug("failed to write pong")
	}
}
