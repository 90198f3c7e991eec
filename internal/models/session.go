package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/botanybattle/server/internal/rating"
)

// SessionStatus is the lifecycle state of a GameSession. Transitions are
// monotonic: waiting -> active -> completed, never backward.
type SessionStatus string

const (
	StatusWaiting   SessionStatus = "waiting"
	StatusActive    SessionStatus = "active"
	StatusCompleted SessionStatus = "completed"
)

// PlayerStats is one participant's mutable per-session record.
type PlayerStats struct {
	CorrectAnswers     int     `json:"correct_answers"`
	TotalAnswers       int     `json:"total_answers"`
	AverageResponseMs  float64 `json:"average_response_ms"`
	RatingAtStart      int     `json:"rating_at_start"`
	GamesPlayedAtStart int     `json:"games_played_at_start"`
}

// RoundQuestion is the open round's question context. It exists only while
// a round is awaiting answers.
type RoundQuestion struct {
	QuestionID    string    `json:"question_id"`
	Options       []string  `json:"options"`
	CorrectOption string    `json:"correct_option"`
	StartedAt     time.Time `json:"started_at"`
}

// GameSession is one duel between two players, bounded by a fixed round
// count. Stats and Scores are keyed by the two participant ids for the
// session's entire lifetime.
type GameSession struct {
	ID      uuid.UUID   `json:"id"`
	Players []uuid.UUID `json:"players"`

	Status       SessionStatus `json:"status"`
	CurrentRound int           `json:"current_round"` // 1-indexed
	MaxRounds    int           `json:"max_rounds"`

	// Version counts durable writes. The store compares it on every
	// conditional update, so two read-modify-write cycles racing on the same
	// session can never overwrite each other's answers.
	Version int64 `json:"version"`

	Stats  map[uuid.UUID]*PlayerStats `json:"stats"`
	Scores map[uuid.UUID]int          `json:"scores"`

	Question *RoundQuestion `json:"question,omitempty"`

	WinnerID      uuid.UUID                  `json:"winner_id,omitempty"`
	RatingChanges map[uuid.UUID]rating.Delta `json:"rating_changes,omitempty"`

	CreatedAt   time.Time `json:"created_at"`
	CompletedAt time.Time `json:"completed_at,omitempty"`
}

// HasPlayer reports whether id is a participant of the session.
func (s *GameSession) HasPlayer(id uuid.UUID) bool {
	for _, p := range s.Players {
		if p == id {
			return true
		}
	}
	return false
}

// Opponents returns the participants other than id.
func (s *GameSession) Opponents(id uuid.UUID) []uuid.UUID {
	var out []uuid.UUID
	for _, p := range s.Players {
		if p != id {
			out = append(out, p)
		}
	}
	return out
}
