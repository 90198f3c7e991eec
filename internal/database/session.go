// internal/database/session.go
package database

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/botanybattle/server/internal/errs"
	"github.com/botanybattle/server/internal/models"
	"github.com/botanybattle/server/internal/rating"
)

// CreateSession persists a freshly formed session document.
func (s *Store) CreateSession(ctx context.Context, sess *models.GameSession) error {
	state, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("failed to marshal session %s: %w", sess.ID, err)
	}
	q := `INSERT INTO game_sessions (id, status, state, version, created_at)
	      VALUES ($1, $2, $3, $4, $5)
	      ON CONFLICT (id) DO UPDATE SET status = EXCLUDED.status, state = EXCLUDED.state, version = EXCLUDED.version`
	err = pgx.BeginTxFunc(ctx, s.pool, pgx.TxOptions{}, func(tx pgx.Tx) error {
		_, e := tx.Exec(ctx, q, sess.ID, string(sess.Status), state, sess.Version, sess.CreatedAt)
		return e
	})
	if err != nil {
		return errs.TransientStore("insert session", err)
	}
	return nil
}

// GetSession loads a session document by id.
func (s *Store) GetSession(ctx context.Context, id uuid.UUID) (*models.GameSession, error) {
	var state []byte
	err := s.pool.QueryRow(ctx, `SELECT state FROM game_sessions WHERE id=$1`, id).Scan(&state)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, errs.NotFound("session %s not found", id)
	}
	if err != nil {
		return nil, errs.TransientStore("query session", err)
	}
	var sess models.GameSession
	if err := json.Unmarshal(state, &sess); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session %s: %w", id, err)
	}
	return &sess, nil
}

// SaveActive write-throughs a mutated session, but only while the stored
// row is still active and at the version the caller read. On success the
// session's version is advanced to match the row. Returns false when another
// request already moved the session on, in which case the caller must reload
// and reapply its change.
func (s *Store) SaveActive(ctx context.Context, sess *models.GameSession) (bool, error) {
	expected := sess.Version
	sess.Version++
	state, err := json.Marshal(sess)
	if err != nil {
		sess.Version = expected
		return false, fmt.Errorf("failed to marshal session %s: %w", sess.ID, err)
	}
	q := `UPDATE game_sessions SET state=$1, version=version+1 WHERE id=$2 AND status=$3 AND version=$4`
	var saved bool
	err = pgx.BeginTxFunc(ctx, s.pool, pgx.TxOptions{}, func(tx pgx.Tx) error {
		tag, e := tx.Exec(ctx, q, state, sess.ID, string(models.StatusActive), expected)
		saved = tag.RowsAffected() > 0
		return e
	})
	if err != nil || !saved {
		sess.Version = expected
	}
	if err != nil {
		return false, errs.TransientStore("save session", err)
	}
	return saved, nil
}

// CompleteSession performs the finalize-once commit: a compare-and-set of
// the status column from active to completed at the version the caller read,
// and, only when that CAS wins, the authoritative rating updates plus
// history rows in the same transaction. Returns false when another request
// finalized first or wrote the session after the caller read it.
func (s *Store) CompleteSession(ctx context.Context, sess *models.GameSession, deltas map[uuid.UUID]rating.Delta) (bool, error) {
	state, err := json.Marshal(sess)
	if err != nil {
		return false, fmt.Errorf("failed to marshal session %s: %w", sess.ID, err)
	}

	var won bool
	err = pgx.BeginTxFunc(ctx, s.pool, pgx.TxOptions{}, func(tx pgx.Tx) error {
		cas := `UPDATE game_sessions
		        SET status=$1, state=$2, completed_at=NOW()
		        WHERE id=$3 AND status=$4 AND version=$5`
		tag, e := tx.Exec(ctx, cas,
			string(models.StatusCompleted), state, sess.ID, string(models.StatusActive), sess.Version)
		if e != nil {
			return e
		}
		won = tag.RowsAffected() > 0
		if !won {
			return nil
		}

		for playerID, d := range deltas {
			oldRating := sess.Stats[playerID].RatingAtStart
			upd := `UPDATE players SET rating=$1, games_played=games_played+1 WHERE id=$2`
			if _, e := tx.Exec(ctx, upd, d.NewRating, playerID); e != nil {
				return e
			}
			ins := `INSERT INTO rating_history (player_id, session_id, old_rating, new_rating)
			        VALUES ($1, $2, $3, $4)`
			if _, e := tx.Exec(ctx, ins, playerID, sess.ID, oldRating, d.NewRating); e != nil {
				return e
			}
		}
		return nil
	})
	if err != nil {
		return false, errs.TransientStore("complete session", err)
	}
	return won, nil
}
