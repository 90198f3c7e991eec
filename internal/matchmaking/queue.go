// internal/matchmaking/queue.go
package matchmaking

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/botanybattle/server/internal/cache"
	"github.com/botanybattle/server/internal/errs"
	"github.com/botanybattle/server/internal/models"
	"github.com/botanybattle/server/internal/rating"
)

// poolKey is the cache hash holding the wait pool, one field per player.
const poolKey = "matchmaking:pool"

// Config tunes the queue.
type Config struct {
	// PoolTTL bounds how long an unmatched entry survives.
	PoolTTL time.Duration
	// ClaimRetries bounds how many times a requester re-scans after losing
	// a claim race before giving up and enqueueing itself.
	ClaimRetries int
}

// DefaultConfig matches production settings.
func DefaultConfig() Config {
	return Config{
		PoolTTL:      10 * time.Minute,
		ClaimRetries: 3,
	}
}

// Queue manages the wait pool. All state lives in the cache, so any number
// of stateless request handlers can share one pool.
type Queue struct {
	cache  cache.Cache
	log    *logrus.Logger
	config Config
}

func NewQueue(c cache.Cache, logger *logrus.Logger, config Config) *Queue {
	if config.PoolTTL <= 0 {
		config.PoolTTL = DefaultConfig().PoolTTL
	}
	if config.ClaimRetries <= 0 {
		config.ClaimRetries = DefaultConfig().ClaimRetries
	}
	return &Queue{cache: c, log: logger, config: config}
}

// Enqueue puts the player into the wait pool with a fresh timestamp. A
// player already waiting is overwritten, so re-enqueue is idempotent and
// resets the wait clock.
func (q *Queue) Enqueue(ctx context.Context, playerID uuid.UUID, playerRating int) error {
	entry := models.WaitEntry{
		PlayerID:   playerID,
		Rating:     playerRating,
		EnqueuedAt: time.Now().UnixMilli(),
	}
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal wait entry: %w", err)
	}
	if err := q.cache.HSet(ctx, poolKey, playerID.String(), string(data)); err != nil {
		return errs.TransientStore("enqueue wait entry", err)
	}
	// Refresh the pool TTL on every write so the hash never outlives its
	// newest entry by more than the configured bound.
	if err := q.cache.Expire(ctx, poolKey, q.config.PoolTTL); err != nil {
		q.log.WithError(err).Warn("failed to refresh wait pool TTL")
	}
	return nil
}

// Remove deletes the player's wait entry, if any.
func (q *Queue) Remove(ctx context.Context, playerID uuid.UUID) error {
	if _, err := q.cache.HDel(ctx, poolKey, playerID.String()); err != nil {
		return errs.TransientStore("remove wait entry", err)
	}
	return nil
}

// Claim atomically takes ownership of an opponent's wait entry. Exactly one
// of any number of concurrent claimants sees true: the conditional delete
// reports how many fields it removed, and only the remover of the field wins.
func (q *Queue) Claim(ctx context.Context, playerID uuid.UUID) (bool, error) {
	n, err := q.cache.HDel(ctx, poolKey, playerID.String())
	if err != nil {
		return false, errs.TransientStore("claim wait entry", err)
	}
	return n == 1, nil
}

// snapshot reads and decodes the current pool, dropping the requester's own
// entry and anything past the TTL. Entries are returned in deterministic
// (sorted field) order so candidate selection is reproducible for a given
// pool state.
func (q *Queue) snapshot(ctx context.Context, requesterID uuid.UUID, now time.Time) ([]models.WaitEntry, error) {
	raw, err := q.cache.HGetAll(ctx, poolKey)
	if err != nil {
		return nil, errs.TransientStore("scan wait pool", err)
	}

	fields := make([]string, 0, len(raw))
	for f := range raw {
		fields = append(fields, f)
	}
	sort.Strings(fields)

	entries := make([]models.WaitEntry, 0, len(fields))
	for _, f := range fields {
		if f == requesterID.String() {
			continue
		}
		var entry models.WaitEntry
		if err := json.Unmarshal([]byte(raw[f]), &entry); err != nil {
			q.log.WithField("field", f).WithError(err).Warn("dropping undecodable wait entry")
			continue
		}
		if entry.WaitedMs(now) > q.config.PoolTTL.Milliseconds() {
			continue
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// FindOpponent scans the pool for the best qualifying candidate. A
// candidate qualifies if its rating falls inside the admission range the
// requester's rating allows for the candidate's wait time; among qualifiers
// the one minimizing ratingDiff - waitSeconds wins, so a long-waiting,
// farther-rated player can beat a fresher, closer one. Returns nil when
// nobody qualifies.
func (q *Queue) FindOpponent(ctx context.Context, requesterID uuid.UUID, requesterRating int) (*models.WaitEntry, error) {
	now := time.Now()
	entries, err := q.snapshot(ctx, requesterID, now)
	if err != nil {
		return nil, err
	}

	var best *models.WaitEntry
	var bestScore float64
	for i := range entries {
		candidate := entries[i]
		waited := candidate.WaitedMs(now)
		min, max := rating.MatchmakingRange(requesterRating, waited)
		if candidate.Rating < min || candidate.Rating > max {
			continue
		}

		diff := candidate.Rating - requesterRating
		if diff < 0 {
			diff = -diff
		}
		score := float64(diff) - float64(waited)/1000.0
		if best == nil || score < bestScore {
			entry := candidate
			best = &entry
			bestScore = score
		}
	}
	return best, nil
}

// Result is the outcome of a FindMatch call. When Matched is false the
// requester has been enqueued and EstimatedWaitSec is an advisory guess.
type Result struct {
	Matched          bool
	Opponent         *models.WaitEntry
	EstimatedWaitSec int
}

// FindMatch runs the full pairing attempt: scan, claim, and on a lost claim
// race re-scan up to ClaimRetries times before falling back to waiting in
// the pool. The requester's own stale entry is cleared once a match forms.
func (q *Queue) FindMatch(ctx context.Context, playerID uuid.UUID, playerRating int) (Result, error) {
	for attempt := 0; attempt < q.config.ClaimRetries; attempt++ {
		opponent, err := q.FindOpponent(ctx, playerID, playerRating)
		if err != nil {
			return Result{}, err
		}
		if opponent == nil {
			break
		}

		claimed, err := q.Claim(ctx, opponent.PlayerID)
		if err != nil {
			return Result{}, err
		}
		if !claimed {
			q.log.WithFields(logrus.Fields{
				"player":   playerID,
				"opponent": opponent.PlayerID,
				"attempt":  attempt + 1,
			}).Debug("lost claim race, rescanning pool")
			continue
		}

		if err := q.Remove(ctx, playerID); err != nil {
			q.log.WithError(err).Warn("failed to clear requester's stale wait entry")
		}
		return Result{Matched: true, Opponent: opponent}, nil
	}

	if err := q.Enqueue(ctx, playerID, playerRating); err != nil {
		return Result{}, err
	}
	return Result{Matched: false, EstimatedWaitSec: q.estimateWaitSec(ctx)}, nil
}

// estimateWaitSec is advisory only: an empty pool suggests a longer wait.
func (q *Queue) estimateWaitSec(ctx context.Context) int {
	raw, err := q.cache.HGetAll(ctx, poolKey)
	if err != nil || len(raw) <= 1 {
		return 60
	}
	return 15
}
