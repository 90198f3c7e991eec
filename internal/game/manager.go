// internal/game/manager.go
package game

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/botanybattle/server/internal/cache"
	"github.com/botanybattle/server/internal/errs"
	"github.com/botanybattle/server/internal/models"
	"github.com/botanybattle/server/internal/rating"
)

// SessionStore is the durable-store contract the manager needs. A
// successful durable write is the commit point for every mutation; the
// cache layered on top is an optimization only.
type SessionStore interface {
	CreateSession(ctx context.Context, sess *models.GameSession) error
	GetSession(ctx context.Context, id uuid.UUID) (*models.GameSession, error)
	// SaveActive persists a mutated session only while the stored row is
	// still active and at the version the caller read, advancing the
	// session's version on success. Reports false on a lost write race; the
	// caller reloads and reapplies.
	SaveActive(ctx context.Context, sess *models.GameSession) (bool, error)
	// CompleteSession is the finalize-once commit: a status+version
	// compare-and-set plus the authoritative rating updates in one
	// transaction. Reports false when another request finalized first or
	// wrote the session after the caller read it.
	CompleteSession(ctx context.Context, sess *models.GameSession, deltas map[uuid.UUID]rating.Delta) (bool, error)
}

// PlayerStore supplies authoritative player records.
type PlayerStore interface {
	GetPlayer(ctx context.Context, id uuid.UUID) (*models.Player, error)
}

// Notifier pushes messages to connected clients. Implementations must be
// best-effort and must never block or fail the game-state mutation that
// triggered them.
type Notifier interface {
	Send(playerID uuid.UUID, msg models.Message)
}

// QuestionProvider supplies the next round's question. Question content is
// a collaborator concern; the manager only stores and scores against it.
type QuestionProvider interface {
	NextQuestion(ctx context.Context, sessionID uuid.UUID, round int) (*models.RoundQuestion, error)
}

// AdvancePolicy decides when an answered round moves the session forward.
// Kept behind an interface so a wait-for-both-players gate can replace the
// current policy without touching persistence or rating code.
type AdvancePolicy interface {
	ShouldAdvance(sess *models.GameSession, answeredBy uuid.UUID) bool
}

// AnyAnswerPolicy advances the round on any single answer. This mirrors the
// observed production behavior; it is a known sharp edge in dual-player
// synchronization.
type AnyAnswerPolicy struct{}

func (AnyAnswerPolicy) ShouldAdvance(*models.GameSession, uuid.UUID) bool { return true }

// Config tunes the session manager.
type Config struct {
	MaxRounds       int
	SessionCacheTTL time.Duration
}

func DefaultConfig() Config {
	return Config{
		MaxRounds:       10,
		SessionCacheTTL: time.Hour,
	}
}

// Manager owns the session state machine. Each call is a stateless
// invocation over the shared stores; concurrent callers are coordinated
// through the store's conditional writes, not in-process locks.
type Manager struct {
	store     SessionStore
	players   PlayerStore
	cache     cache.Cache
	questions QuestionProvider
	notifier  Notifier
	policy    AdvancePolicy
	log       *logrus.Logger
	config    Config
}

func NewManager(store SessionStore, players PlayerStore, c cache.Cache, questions QuestionProvider, notifier Notifier, logger *logrus.Logger, config Config) *Manager {
	if config.MaxRounds <= 0 {
		config.MaxRounds = DefaultConfig().MaxRounds
	}
	if config.SessionCacheTTL <= 0 {
		config.SessionCacheTTL = DefaultConfig().SessionCacheTTL
	}
	return &Manager{
		store:     store,
		players:   players,
		cache:     c,
		questions: questions,
		notifier:  notifier,
		policy:    AnyAnswerPolicy{},
		log:       logger,
		config:    config,
	}
}

// SetAdvancePolicy swaps the round-advancement policy.
func (m *Manager) SetAdvancePolicy(p AdvancePolicy) {
	m.policy = p
}

func sessionCacheKey(id uuid.UUID) string {
	return "session:" + id.String()
}

// cacheSession refreshes the read cache after a successful durable write.
// Cache failures are logged and ignored: correctness rests on the store.
func (m *Manager) cacheSession(ctx context.Context, sess *models.GameSession) {
	data, err := json.Marshal(sess)
	if err != nil {
		m.log.WithError(err).Error("failed to marshal session for cache")
		return
	}
	if err := m.cache.Set(ctx, sessionCacheKey(sess.ID), string(data), m.config.SessionCacheTTL); err != nil {
		m.log.WithError(err).Warn("failed to refresh session cache")
	}
}

// loadSession is the read-through path: cache first, durable store on miss
// or on a stale/undecodable cache value, repopulating the cache afterwards.
func (m *Manager) loadSession(ctx context.Context, id uuid.UUID) (*models.GameSession, error) {
	if data, ok, err := m.cache.Get(ctx, sessionCacheKey(id)); err == nil && ok {
		var sess models.GameSession
		if err := json.Unmarshal([]byte(data), &sess); err == nil {
			return &sess, nil
		}
		m.log.WithField("session", id).Warn("undecodable cached session, falling back to store")
	} else if err != nil {
		m.log.WithError(err).Warn("session cache read failed, falling back to store")
	}

	sess, err := m.store.GetSession(ctx, id)
	if err != nil {
		return nil, err
	}
	m.cacheSession(ctx, sess)
	return sess, nil
}

// CreateSession forms a session for two freshly matched players. Sessions
// are born active: the queue handoff already established both sides.
func (m *Manager) CreateSession(ctx context.Context, p1, p2 uuid.UUID) (*models.GameSession, error) {
	playerA, err := m.players.GetPlayer(ctx, p1)
	if err != nil {
		return nil, err
	}
	playerB, err := m.players.GetPlayer(ctx, p2)
	if err != nil {
		return nil, err
	}

	id, err := uuid.NewRandom()
	if err != nil {
		return nil, errs.TransientStore("failed to generate session id", err)
	}

	sess := &models.GameSession{
		ID:           id,
		Players:      []uuid.UUID{p1, p2},
		Status:       models.StatusActive,
		CurrentRound: 1,
		MaxRounds:    m.config.MaxRounds,
		Stats: map[uuid.UUID]*models.PlayerStats{
			p1: {RatingAtStart: playerA.Rating, GamesPlayedAtStart: playerA.GamesPlayed},
			p2: {RatingAtStart: playerB.Rating, GamesPlayedAtStart: playerB.GamesPlayed},
		},
		Scores:    map[uuid.UUID]int{p1: 0, p2: 0},
		CreatedAt: time.Now(),
	}

	question, err := m.questions.NextQuestion(ctx, id, 1)
	if err != nil {
		m.log.WithError(err).Warn("question provider failed for opening round")
	} else {
		sess.Question = question
	}

	if err := m.store.CreateSession(ctx, sess); err != nil {
		return nil, err
	}
	m.cacheSession(ctx, sess)

	started := models.Message{
		Type:      models.MsgGameStarted,
		SessionID: sess.ID,
		GameStarted: &models.GameStartedPayload{
			Players:   sess.Players,
			Round:     sess.CurrentRound,
			MaxRounds: sess.MaxRounds,
		},
	}
	if sess.Question != nil {
		started.GameStarted.Options = sess.Question.Options
	}
	for _, pid := range sess.Players {
		m.notifier.Send(pid, started)
	}

	m.log.WithFields(logrus.Fields{
		"session": sess.ID,
		"players": sess.Players,
	}).Info("session created")
	return sess, nil
}

// JoinGame validates the caller's membership and returns the current state.
func (m *Manager) JoinGame(ctx context.Context, sessionID, playerID uuid.UUID) (*models.GameSession, error) {
	sess, err := m.loadSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if !sess.HasPlayer(playerID) {
		return nil, errs.Authorization("player %s is not a participant of session %s", playerID, sessionID)
	}
	return sess, nil
}

// GetState returns the session as currently persisted.
func (m *Manager) GetState(ctx context.Context, sessionID uuid.UUID) (*models.GameSession, error) {
	return m.loadSession(ctx, sessionID)
}

// SubmitResult reports the outcome of one answer submission.
type SubmitResult struct {
	Correct      bool
	ScoreAwarded int
	ResponseMs   int64
	Session      *models.GameSession
}

// writeRetries bounds how many times SubmitAnswer reloads and reapplies
// after losing a session write race.
const writeRetries = 3

// SubmitAnswer scores one player's answer against the open round, updates
// that player's running stats, and drives the round/completion transition.
// Valid only while the session is active. A lost write race against the
// other player's concurrent answer reloads fresh state and reapplies, so no
// answer is ever silently dropped.
func (m *Manager) SubmitAnswer(ctx context.Context, sessionID, playerID uuid.UUID, answer string) (*SubmitResult, error) {
	if strings.TrimSpace(answer) == "" {
		return nil, errs.Validation("answer must not be empty")
	}

	for attempt := 0; attempt < writeRetries; attempt++ {
		res, retry, err := m.trySubmit(ctx, sessionID, playerID, answer)
		if err != nil {
			return nil, err
		}
		if !retry {
			return res, nil
		}
		// The cached copy is what went stale; drop it so the reload reads
		// the durable store.
		m.log.WithFields(logrus.Fields{
			"session": sessionID,
			"player":  playerID,
			"attempt": attempt + 1,
		}).Debug("lost session write race, reloading")
		if err := m.cache.Delete(ctx, sessionCacheKey(sessionID)); err != nil {
			m.log.WithError(err).Warn("failed to drop stale session cache entry")
		}
	}
	return nil, errs.TransientStore(fmt.Sprintf("session %s write contention", sessionID), nil)
}

// trySubmit runs one read-modify-write attempt. retry reports a lost write
// race, in which case nothing was persisted or announced.
func (m *Manager) trySubmit(ctx context.Context, sessionID, playerID uuid.UUID, answer string) (*SubmitResult, bool, error) {
	sess, err := m.loadSession(ctx, sessionID)
	if err != nil {
		return nil, false, err
	}
	if !sess.HasPlayer(playerID) {
		return nil, false, errs.Authorization("player %s is not a participant of session %s", playerID, sessionID)
	}
	if sess.Status != models.StatusActive {
		return nil, false, errs.Conflict("session %s is not active", sessionID)
	}

	now := time.Now()

	// No open question is a recoverable edge, not an error: the answer is
	// still recorded, with zero response time and no score.
	var responseMs int64
	correct := false
	if sess.Question != nil {
		responseMs = now.Sub(sess.Question.StartedAt).Milliseconds()
		if responseMs < 0 {
			responseMs = 0
		}
		correct = strings.EqualFold(strings.TrimSpace(answer), sess.Question.CorrectOption)
	}

	stats := sess.Stats[playerID]
	stats.TotalAnswers++
	n := float64(stats.TotalAnswers)
	stats.AverageResponseMs = (stats.AverageResponseMs*(n-1) + float64(responseMs)) / n

	awarded := 0
	if correct {
		stats.CorrectAnswers++
		awarded = 100
		sess.Scores[playerID] += awarded
	}

	round := sess.CurrentRound
	finalRound := sess.CurrentRound >= sess.MaxRounds
	advance := m.policy.ShouldAdvance(sess, playerID)

	var ended *models.Message
	if advance && finalRound {
		endedMsg, won, err := m.finalize(ctx, sess)
		if err != nil {
			return nil, false, err
		}
		if !won {
			return nil, true, nil
		}
		ended = endedMsg
	} else {
		if advance {
			sess.CurrentRound++
			question, qerr := m.questions.NextQuestion(ctx, sess.ID, sess.CurrentRound)
			if qerr != nil {
				m.log.WithError(qerr).WithField("session", sess.ID).Warn("question provider failed, round opens without question")
				sess.Question = nil
			} else {
				sess.Question = question
			}
		}
		saved, err := m.store.SaveActive(ctx, sess)
		if err != nil {
			return nil, false, err
		}
		if !saved {
			return nil, true, nil
		}
		m.cacheSession(ctx, sess)
	}

	result := models.Message{
		Type:      models.MsgAnswerResult,
		SessionID: sess.ID,
		AnswerResult: &models.AnswerResultPayload{
			PlayerID:     playerID,
			Round:        round,
			Correct:      correct,
			ScoreAwarded: awarded,
			ResponseMs:   responseMs,
			Scores:       sess.Scores,
		},
	}
	for _, pid := range sess.Players {
		m.notifier.Send(pid, result)
		if ended != nil {
			m.notifier.Send(pid, *ended)
		}
	}

	return &SubmitResult{
		Correct:      correct,
		ScoreAwarded: awarded,
		ResponseMs:   responseMs,
		Session:      sess,
	}, false, nil
}

// finalize determines the winner, computes both rating deltas from the
// session-start snapshots, and commits everything through the store's
// finalize-once transaction. It returns the game-ended message for the
// caller to deliver after the answer result; nothing is announced unless
// the durable commit succeeded. won is false when another request finalized
// or wrote the session first.
func (m *Manager) finalize(ctx context.Context, sess *models.GameSession) (*models.Message, bool, error) {
	winnerID := determineWinner(sess)
	loserID := sess.Opponents(winnerID)[0]

	wStats := sess.Stats[winnerID]
	lStats := sess.Stats[loserID]

	wDelta, lDelta := rating.ApplyMatch(
		rating.Snapshot{Rating: wStats.RatingAtStart, GamesPlayed: wStats.GamesPlayedAtStart},
		rating.Snapshot{Rating: lStats.RatingAtStart, GamesPlayed: lStats.GamesPlayedAtStart},
		resultFor(sess, winnerID, loserID),
		resultFor(sess, loserID, winnerID),
	)
	deltas := map[uuid.UUID]rating.Delta{
		winnerID: wDelta,
		loserID:  lDelta,
	}

	sess.Status = models.StatusCompleted
	sess.CompletedAt = time.Now()
	sess.WinnerID = winnerID
	sess.RatingChanges = deltas
	sess.Question = nil

	won, err := m.store.CompleteSession(ctx, sess, deltas)
	if err != nil {
		return nil, false, err
	}
	if !won {
		return nil, false, nil
	}
	m.cacheSession(ctx, sess)

	m.log.WithFields(logrus.Fields{
		"session": sess.ID,
		"winner":  winnerID,
	}).Info("session completed")

	return &models.Message{
		Type:      models.MsgGameEnded,
		SessionID: sess.ID,
		GameEnded: &models.GameEndedPayload{
			WinnerID:      winnerID,
			Scores:        sess.Scores,
			RatingChanges: deltas,
		},
	}, true, nil
}

// determineWinner resolves the final standings. Higher score wins; ties
// fall through higher accuracy, then lower average response time, then
// session player order, so the comparison always produces a winner.
func determineWinner(sess *models.GameSession) uuid.UUID {
	a, b := sess.Players[0], sess.Players[1]
	if sess.Scores[a] != sess.Scores[b] {
		if sess.Scores[a] > sess.Scores[b] {
			return a
		}
		return b
	}

	accA := accuracy(sess.Stats[a])
	accB := accuracy(sess.Stats[b])
	if accA != accB {
		if accA > accB {
			return a
		}
		return b
	}

	if sess.Stats[a].AverageResponseMs != sess.Stats[b].AverageResponseMs {
		if sess.Stats[a].AverageResponseMs < sess.Stats[b].AverageResponseMs {
			return a
		}
		return b
	}

	return a
}

func accuracy(stats *models.PlayerStats) float64 {
	if stats.TotalAnswers == 0 {
		return 0
	}
	return float64(stats.CorrectAnswers) / float64(stats.TotalAnswers)
}

// resultFor packages one side's session performance for the rating engine.
func resultFor(sess *models.GameSession, playerID, opponentID uuid.UUID) rating.Result {
	stats := sess.Stats[playerID]
	return rating.Result{
		Score:             sess.Scores[playerID],
		OpponentScore:     sess.Scores[opponentID],
		CorrectAnswers:    stats.CorrectAnswers,
		TotalAnswers:      stats.TotalAnswers,
		AverageResponseMs: stats.AverageResponseMs,
	}
}
