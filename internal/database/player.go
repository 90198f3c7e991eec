// internal/database/player.go
package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/botanybattle/server/internal/errs"
	"github.com/botanybattle/server/internal/models"
)

// CreatePlayer inserts a new account. The password must already be hashed
// by the auth package.
func (s *Store) CreatePlayer(ctx context.Context, player *models.Player) error {
	if player.ID == uuid.Nil {
		id, err := uuid.NewRandom()
		if err != nil {
			return fmt.Errorf("failed to generate player id: %w", err)
		}
		player.ID = id
	}
	if player.Rating == 0 {
		player.Rating = models.DefaultRating
	}

	q := `INSERT INTO players (id, email, password, username, rating, games_played)
	      VALUES ($1, $2, $3, $4, $5, $6)`

	err := pgx.BeginTxFunc(ctx, s.pool, pgx.TxOptions{}, func(tx pgx.Tx) error {
		_, execErr := tx.Exec(ctx, q,
			player.ID, player.Email, player.Password, player.Username,
			player.Rating, player.GamesPlayed,
		)
		return execErr
	})
	if err != nil {
		return fmt.Errorf("failed to insert player: %w", err)
	}
	return nil
}

// GetPlayer fetches a player by id, returning a not-found error when the
// row is absent.
func (s *Store) GetPlayer(ctx context.Context, id uuid.UUID) (*models.Player, error) {
	var p models.Player
	q := `SELECT id, email, password, username, rating, games_played
	      FROM players WHERE id=$1`
	err := s.pool.QueryRow(ctx, q, id).Scan(
		&p.ID, &p.Email, &p.Password, &p.Username, &p.Rating, &p.GamesPlayed,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, errs.NotFound("player %s not found", id)
	}
	if err != nil {
		return nil, errs.TransientStore("query player", err)
	}
	return &p, nil
}

// GetPlayerByEmail fetches a player by account email.
func (s *Store) GetPlayerByEmail(ctx context.Context, email string) (*models.Player, error) {
	var p models.Player
	q := `SELECT id, email, password, username, rating, games_played
	      FROM players WHERE email=$1`
	err := s.pool.QueryRow(ctx, q, email).Scan(
		&p.ID, &p.Email, &p.Password, &p.Username, &p.Rating, &p.GamesPlayed,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, errs.NotFound("no player with email %s", email)
	}
	if err != nil {
		return nil, errs.TransientStore("query player by email", err)
	}
	return &p, nil
}
