// internal/notify/dispatcher.go
package notify

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/botanybattle/server/internal/models"
)

// writeTimeout bounds each push so a stuck client never blocks delivery to
// anyone else.
const writeTimeout = 3 * time.Second

// Dispatcher maps connected players to their websocket and pushes game
// messages to them. Delivery is best-effort: a failed write is logged and
// the player's transient channel mapping is invalidated, and the game-state
// mutation that triggered the send is never affected.
type Dispatcher struct {
	mu    sync.Mutex
	conns map[uuid.UUID]*websocket.Conn
	log   *logrus.Logger
}

func NewDispatcher(logger *logrus.Logger) *Dispatcher {
	return &Dispatcher{
		conns: make(map[uuid.UUID]*websocket.Conn),
		log:   logger,
	}
}

// Register binds a player to a connection, replacing any previous one.
func (d *Dispatcher) Register(playerID uuid.UUID, conn *websocket.Conn) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.conns[playerID] = conn
	d.log.WithField("player", playerID).Debug("notification channel registered")
}

// Unregister drops the player's channel mapping if it still points at conn.
func (d *Dispatcher) Unregister(playerID uuid.UUID, conn *websocket.Conn) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.conns[playerID] == conn {
		delete(d.conns, playerID)
	}
}

// Send pushes one message to a player asynchronously. Disconnected players
// are skipped silently; write failures invalidate the mapping.
func (d *Dispatcher) Send(playerID uuid.UUID, msg models.Message) {
	d.mu.Lock()
	conn := d.conns[playerID]
	d.mu.Unlock()
	if conn == nil {
		return
	}

	data, err := json.Marshal(msg)
	if err != nil {
		d.log.WithError(err).WithField("type", msg.Type).Error("failed to marshal notification")
		return
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
		defer cancel()
		if err := conn.Write(ctx, websocket.MessageText, data); err != nil {
			d.log.WithFields(logrus.Fields{
				"player": playerID,
				"type":   msg.Type,
			}).WithError(err).Warn("notification write failed, invalidating channel")
			d.Unregister(playerID, conn)
		}
	}()
}
