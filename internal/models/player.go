package models

import "github.com/google/uuid"

// DefaultRating seeds a fresh account.
const DefaultRating = 1200

// Player is the authoritative account and rating record, persisted in the
// durable store. The rank tier is never stored; it is always derived from
// Rating by the rating package.
type Player struct {
	ID       uuid.UUID `json:"id"`
	Email    string    `json:"email"`
	Password string    `json:"password,omitempty"`
	Username string    `json:"username"`

	Rating      int `json:"rating"`
	GamesPlayed int `json:"games_played"`
}
