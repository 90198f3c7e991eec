// internal/handlers/match.go
package handlers

import (
	"net/http"

	"github.com/botanybattle/server/internal/rating"
)

type findMatchResponse struct {
	Status           string       `json:"status"` // "matched" or "waiting"
	Session          *sessionView `json:"session,omitempty"`
	OpponentRating   int          `json:"opponent_rating,omitempty"`
	EstimatedWaitSec int          `json:"estimated_wait_sec,omitempty"`
	Rank             string       `json:"rank"`
}

// FindMatchHandler runs one matchmaking attempt for the calling player:
// either a session is formed with a claimed opponent, or the player joins
// the wait pool.
func (s *Server) FindMatchHandler(w http.ResponseWriter, r *http.Request) {
	playerID, err := s.authenticate(r)
	if err != nil {
		writeError(w, err)
		return
	}

	player, err := s.getPlayerRetry(r.Context(), playerID)
	if err != nil {
		writeError(w, err)
		return
	}

	result, err := s.Queue.FindMatch(r.Context(), player.ID, player.Rating)
	if err != nil {
		s.Log.WithError(err).Error("matchmaking failed")
		writeError(w, err)
		return
	}

	if !result.Matched {
		writeJSON(w, http.StatusOK, findMatchResponse{
			Status:           "waiting",
			EstimatedWaitSec: result.EstimatedWaitSec,
			Rank:             rating.RankFromRating(player.Rating),
		})
		return
	}

	sess, err := s.Manager.CreateSession(r.Context(), player.ID, result.Opponent.PlayerID)
	if err != nil {
		// The claimed opponent must not be lost: put them back in the pool
		// before surfacing the failure.
		s.Log.WithError(err).Error("session creation failed, re-enqueueing claimed opponent")
		if reErr := s.Queue.Enqueue(r.Context(), result.Opponent.PlayerID, result.Opponent.Rating); reErr != nil {
			s.Log.WithError(reErr).Error("failed to re-enqueue claimed opponent")
		}
		writeError(w, err)
		return
	}

	view := viewOf(sess)
	writeJSON(w, http.StatusOK, findMatchResponse{
		Status:         "matched",
		Session:        &view,
		OpponentRating: result.Opponent.Rating,
		Rank:           rating.RankFromRating(player.Rating),
	})
}
