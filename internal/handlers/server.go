// internal/handlers/server.go
package handlers

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/botanybattle/server/internal/auth"
	"github.com/botanybattle/server/internal/errs"
	"github.com/botanybattle/server/internal/game"
	"github.com/botanybattle/server/internal/matchmaking"
	"github.com/botanybattle/server/internal/models"
	"github.com/botanybattle/server/internal/notify"
)

// PlayerStore is the account-facing slice of the durable store.
type PlayerStore interface {
	CreatePlayer(ctx context.Context, player *models.Player) error
	GetPlayer(ctx context.Context, id uuid.UUID) (*models.Player, error)
	GetPlayerByEmail(ctx context.Context, email string) (*models.Player, error)
}

// Server wires the request surface to the queue, session manager, and
// notification dispatcher.
type Server struct {
	Queue      *matchmaking.Queue
	Manager    *game.Manager
	Players    PlayerStore
	Tokens     *auth.Tokens
	Dispatcher *notify.Dispatcher
	Log        *logrus.Logger
}

// Routes registers all endpoints on mux.
func (s *Server) Routes(mux *http.ServeMux) {
	mux.HandleFunc("POST /player/create", s.CreatePlayerHandler)
	mux.HandleFunc("POST /player/login", s.LoginHandler)
	mux.HandleFunc("POST /match/find", s.FindMatchHandler)
	mux.HandleFunc("POST /game/{id}/join", s.JoinGameHandler)
	mux.HandleFunc("POST /game/{id}/answer", s.SubmitAnswerHandler)
	mux.HandleFunc("GET /game/{id}", s.GetGameStateHandler)
	mux.HandleFunc("GET /game/ws", s.NotificationWSHandler)
}

// getPlayerRetry fetches a player, retrying the read once on a transient
// store failure. Reads are idempotent; mutations are never blindly retried.
func (s *Server) getPlayerRetry(ctx context.Context, id uuid.UUID) (*models.Player, error) {
	p, err := s.Players.GetPlayer(ctx, id)
	if err != nil && errs.KindOf(err) == errs.KindTransientStore {
		s.Log.WithError(err).Warn("transient store error reading player, retrying once")
		p, err = s.Players.GetPlayer(ctx, id)
	}
	return p, err
}
