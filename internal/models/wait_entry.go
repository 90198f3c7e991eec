package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// WaitEntry is one player's place in the matchmaking wait pool. It lives in
// a cache hash keyed by player id, so a player holds at most one entry at a
// time. Rating is a snapshot taken at enqueue time.
type WaitEntry struct {
	PlayerID   uuid.UUID `json:"player_id"`
	Rating     int       `json:"rating"`
	EnqueuedAt int64     `json:"enqueued_at"` // unix milliseconds
}

// WaitedMs returns how long the entry has been waiting as of now.
func (e WaitEntry) WaitedMs(now time.Time) int64 {
	return now.UnixMilli() - e.EnqueuedAt
}

// MarshalBinary lets go-redis store the entry as a hash field value.
func (e WaitEntry) MarshalBinary() ([]byte, error) {
	return json.Marshal(e)
}

// UnmarshalBinary is the inverse of MarshalBinary.
func (e *WaitEntry) UnmarshalBinary(data []byte) error {
	return json.Unmarshal(data, e)
}
