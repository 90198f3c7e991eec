package models

import (
	"github.com/google/uuid"

	"github.com/botanybattle/server/internal/rating"
)

// MessageType discriminates the closed set of client notifications.
type MessageType string

const (
	MsgGameStarted  MessageType = "game_started"
	MsgAnswerResult MessageType = "answer_result"
	MsgGameEnded    MessageType = "game_ended"
)

// Message is the tagged union pushed to connected clients. Exactly one of
// the variant payloads is set, matching Type.
type Message struct {
	Type      MessageType `json:"type"`
	SessionID uuid.UUID   `json:"session_id"`

	GameStarted  *GameStartedPayload  `json:"game_started,omitempty"`
	AnswerResult *AnswerResultPayload `json:"answer_result,omitempty"`
	GameEnded    *GameEndedPayload    `json:"game_ended,omitempty"`
}

// GameStartedPayload announces a freshly formed session.
type GameStartedPayload struct {
	Players   []uuid.UUID `json:"players"`
	Round     int         `json:"round"`
	MaxRounds int         `json:"max_rounds"`
	Options   []string    `json:"options,omitempty"`
}

// AnswerResultPayload reports the outcome of one answer submission.
type AnswerResultPayload struct {
	PlayerID     uuid.UUID         `json:"player_id"`
	Round        int               `json:"round"`
	Correct      bool              `json:"correct"`
	ScoreAwarded int               `json:"score_awarded"`
	ResponseMs   int64             `json:"response_ms"`
	Scores       map[uuid.UUID]int `json:"scores"`
}

// GameEndedPayload carries the final result and rating movements.
type GameEndedPayload struct {
	WinnerID      uuid.UUID                  `json:"winner_id"`
	Scores        map[uuid.UUID]int          `json:"scores"`
	RatingChanges map[uuid.UUID]rating.Delta `json:"rating_changes"`
}
