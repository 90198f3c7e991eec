// internal/handlers/game.go
package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/botanybattle/server/internal/errs"
	"github.com/botanybattle/server/internal/models"
)

// sessionView hides the open round's correct option from clients.
type sessionView struct {
	*models.GameSession
	Question *questionView `json:"question,omitempty"`
}

type questionView struct {
	QuestionID string   `json:"question_id"`
	Options    []string `json:"options"`
}

func viewOf(sess *models.GameSession) sessionView {
	v := sessionView{GameSession: sess}
	if sess.Question != nil {
		v.Question = &questionView{
			QuestionID: sess.Question.QuestionID,
			Options:    sess.Question.Options,
		}
	}
	return v
}

// JoinGameHandler acknowledges a participant's entry into a session and
// returns its current state.
func (s *Server) JoinGameHandler(w http.ResponseWriter, r *http.Request) {
	playerID, err := s.authenticate(r)
	if err != nil {
		writeError(w, err)
		return
	}
	sessionID, err := pathSessionID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	sess, err := s.Manager.JoinGame(r.Context(), sessionID, playerID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, viewOf(sess))
}

type submitAnswerRequest struct {
	Answer string `json:"answer"`
}

type submitAnswerResponse struct {
	Correct      bool        `json:"correct"`
	ScoreAwarded int         `json:"score_awarded"`
	ResponseMs   int64       `json:"response_ms"`
	Session      sessionView `json:"session"`
}

// SubmitAnswerHandler scores one answer for the calling player.
func (s *Server) SubmitAnswerHandler(w http.ResponseWriter, r *http.Request) {
	playerID, err := s.authenticate(r)
	if err != nil {
		writeError(w, err)
		return
	}
	sessionID, err := pathSessionID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	var req submitAnswerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, errs.Validation("invalid payload"))
		return
	}

	result, err := s.Manager.SubmitAnswer(r.Context(), sessionID, playerID, req.Answer)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, submitAnswerResponse{
		Correct:      result.Correct,
		ScoreAwarded: result.ScoreAwarded,
		ResponseMs:   result.ResponseMs,
		Session:      viewOf(result.Session),
	})
}

// GetGameStateHandler returns the session as currently persisted.
func (s *Server) GetGameStateHandler(w http.ResponseWriter, r *http.Request) {
	sessionID, err := pathSessionID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	sess, err := s.Manager.GetState(r.Context(), sessionID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, viewOf(sess))
}
