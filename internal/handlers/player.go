// internal/handlers/player.go
package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/botanybattle/server/internal/auth"
	"github.com/botanybattle/server/internal/errs"
	"github.com/botanybattle/server/internal/models"
	"github.com/botanybattle/server/internal/rating"
)

type createPlayerRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Username string `json:"username"`
}

type playerResponse struct {
	models.Player
	Rank string `json:"rank"`
}

// CreatePlayerHandler registers a new account with the default rating.
func (s *Server) CreatePlayerHandler(w http.ResponseWriter, r *http.Request) {
	var req createPlayerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, errs.Validation("invalid payload"))
		return
	}
	if req.Email == "" || req.Password == "" || req.Username == "" {
		writeError(w, errs.Validation("email, password and username are required"))
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		s.Log.WithError(err).Error("failed to hash password")
		writeError(w, errs.TransientStore("failed to create player", err))
		return
	}

	player := models.Player{
		Email:    req.Email,
		Password: hash,
		Username: req.Username,
		Rating:   models.DefaultRating,
	}
	if err := s.Players.CreatePlayer(r.Context(), &player); err != nil {
		s.Log.WithError(err).Error("failed to create player")
		writeError(w, err)
		return
	}

	player.Password = ""
	writeJSON(w, http.StatusCreated, playerResponse{
		Player: player,
		Rank:   rating.RankFromRating(player.Rating),
	})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token string `json:"token"`
}

// LoginHandler verifies credentials and issues a session token, also set
// as an HTTP-only cookie.
func (s *Server) LoginHandler(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, errs.Validation("invalid payload"))
		return
	}

	player, err := s.Players.GetPlayerByEmail(r.Context(), req.Email)
	if err != nil {
		writeError(w, errs.Authorization("authentication failed"))
		return
	}

	match, err := auth.VerifyPassword(req.Password, player.Password)
	if err != nil || !match {
		writeError(w, errs.Authorization("authentication failed"))
		return
	}

	token, err := s.Tokens.Issue(player.ID.String())
	if err != nil {
		s.Log.WithError(err).Error("failed to issue token")
		writeError(w, errs.TransientStore("failed to issue token", err))
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     "auth_token",
		Value:    token,
		HttpOnly: true,
		Path:     "/",
		MaxAge:   s.Tokens.ExpirySeconds(),
	})
	writeJSON(w, http.StatusOK, loginResponse{Token: token})
}
