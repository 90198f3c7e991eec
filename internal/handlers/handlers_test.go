// internal/handlers/handlers_test.go
package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/botanybattle/server/internal/auth"
	"github.com/botanybattle/server/internal/cache"
	"github.com/botanybattle/server/internal/errs"
	"github.com/botanybattle/server/internal/game"
	"github.com/botanybattle/server/internal/matchmaking"
	"github.com/botanybattle/server/internal/models"
	"github.com/botanybattle/server/internal/notify"
	"github.com/botanybattle/server/internal/rating"
)

// fakeStore backs the whole request surface in memory with the same
// conditional-write semantics as the Postgres store.
type fakeStore struct {
	mu       sync.Mutex
	players  map[uuid.UUID]*models.Player
	byEmail  map[string]uuid.UUID
	sessions map[uuid.UUID]*models.GameSession
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		players:  make(map[uuid.UUID]*models.Player),
		byEmail:  make(map[string]uuid.UUID),
		sessions: make(map[uuid.UUID]*models.GameSession),
	}
}

func cloneSession(s *models.GameSession) *models.GameSession {
	data, _ := json.Marshal(s)
	var out models.GameSession
	_ = json.Unmarshal(data, &out)
	return &out
}

func (fs *fakeStore) CreatePlayer(_ context.Context, player *models.Player) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	if player.ID == uuid.Nil {
		player.ID = uuid.New()
	}
	if _, exists := fs.byEmail[player.Email]; exists {
		return errs.Conflict("email already registered")
	}
	cp := *player
	fs.players[player.ID] = &cp
	fs.byEmail[player.Email] = player.ID
	return nil
}

func (fs *fakeStore) GetPlayer(_ context.Context, id uuid.UUID) (*models.Player, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	p, ok := fs.players[id]
	if !ok {
		return nil, errs.NotFound("player %s not found", id)
	}
	cp := *p
	return &cp, nil
}

func (fs *fakeStore) GetPlayerByEmail(_ context.Context, email string) (*models.Player, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	id, ok := fs.byEmail[email]
	if !ok {
		return nil, errs.NotFound("no player with email %s", email)
	}
	cp := *fs.players[id]
	return &cp, nil
}

func (fs *fakeStore) CreateSession(_ context.Context, sess *models.GameSession) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	fs.sessions[sess.ID] = cloneSession(sess)
	return nil
}

func (fs *fakeStore) GetSession(_ context.Context, id uuid.UUID) (*models.GameSession, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	s, ok := fs.sessions[id]
	if !ok {
		return nil, errs.NotFound("session %s not found", id)
	}
	return cloneSession(s), nil
}

func (fs *fakeStore) SaveActive(_ context.Context, sess *models.GameSession) (bool, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	cur, ok := fs.sessions[sess.ID]
	if !ok {
		return false, errs.NotFound("session %s not found", sess.ID)
	}
	if cur.Status != models.StatusActive || cur.Version != sess.Version {
		return false, nil
	}
	sess.Version++
	fs.sessions[sess.ID] = cloneSession(sess)
	return true, nil
}

func (fs *fakeStore) CompleteSession(_ context.Context, sess *models.GameSession, deltas map[uuid.UUID]rating.Delta) (bool, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	cur, ok := fs.sessions[sess.ID]
	if !ok {
		return false, errs.NotFound("session %s not found", sess.ID)
	}
	if cur.Status != models.StatusActive || cur.Version != sess.Version {
		return false, nil
	}
	fs.sessions[sess.ID] = cloneSession(sess)
	for playerID, d := range deltas {
		if p, ok := fs.players[playerID]; ok {
			p.Rating = d.NewRating
			p.GamesPlayed++
		}
	}
	return true, nil
}

// fixedQuestions makes answers deterministic.
type fixedQuestions struct{}

func (fixedQuestions) NextQuestion(_ context.Context, sessionID uuid.UUID, round int) (*models.RoundQuestion, error) {
	return &models.RoundQuestion{
		QuestionID:    fmt.Sprintf("%s-r%d", sessionID, round),
		Options:       []string{"Aloe vera", "Ficus lyrata"},
		CorrectOption: "Aloe vera",
		StartedAt:     time.Now(),
	}, nil
}

func newTestServer(t *testing.T) (*Server, *fakeStore) {
	t.Helper()
	logger := logrus.New()
	logger.SetLevel(logrus.ErrorLevel)

	tokens, err := auth.NewTokens(time.Hour)
	require.NoError(t, err)

	fs := newFakeStore()
	mem := cache.NewMemory()
	dispatcher := notify.NewDispatcher(logger)
	queue := matchmaking.NewQueue(mem, logger, matchmaking.DefaultConfig())
	config := game.DefaultConfig()
	config.MaxRounds = 2
	manager := game.NewManager(fs, fs, mem, fixedQuestions{}, dispatcher, logger, config)

	return &Server{
		Queue:      queue,
		Manager:    manager,
		Players:    fs,
		Tokens:     tokens,
		Dispatcher: dispatcher,
		Log:        logger,
	}, fs
}

func doRequest(t *testing.T, srv *Server, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if token != "" {
		req.Header.Set("Cookie", "auth_token="+token)
	}
	w := httptest.NewRecorder()

	mux := http.NewServeMux()
	srv.Routes(mux)
	mux.ServeHTTP(w, req)
	return w
}

func registerPlayer(t *testing.T, srv *Server, fs *fakeStore, playerRating int) (uuid.UUID, string) {
	t.Helper()
	id := uuid.New()
	fs.players[id] = &models.Player{
		ID:       id,
		Username: "tester",
		Rating:   playerRating,
	}
	token, err := srv.Tokens.Issue(id.String())
	require.NoError(t, err)
	return id, token
}

func TestCreatePlayerAndLogin(t *testing.T) {
	srv, _ := newTestServer(t)

	w := doRequest(t, srv, "POST", "/player/create", "", map[string]string{
		"email":    "fern@example.com",
		"password": "hunter2hunter2",
		"username": "fernfan",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var created struct {
		ID     uuid.UUID `json:"id"`
		Rating int       `json:"rating"`
		Rank   string    `json:"rank"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	assert.Equal(t, models.DefaultRating, created.Rating)
	assert.Equal(t, "Green Thumb", created.Rank)
	assert.NotContains(t, w.Body.String(), "argon2id", "password hash must never be echoed")

	w = doRequest(t, srv, "POST", "/player/login", "", map[string]string{
		"email":    "fern@example.com",
		"password": "hunter2hunter2",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var login loginResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &login))
	assert.NotEmpty(t, login.Token)

	w = doRequest(t, srv, "POST", "/player/login", "", map[string]string{
		"email":    "fern@example.com",
		"password": "wrong",
	})
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestFindMatchWaitsThenMatches(t *testing.T) {
	srv, fs := newTestServer(t)
	p1, token1 := registerPlayer(t, srv, fs, 1200)
	_, token2 := registerPlayer(t, srv, fs, 1230)

	// First player finds an empty pool and waits.
	w := doRequest(t, srv, "POST", "/match/find", token1, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var res findMatchResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	assert.Equal(t, "waiting", res.Status)
	assert.Greater(t, res.EstimatedWaitSec, 0)

	// Second player claims the first and a session forms.
	w = doRequest(t, srv, "POST", "/match/find", token2, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	assert.Equal(t, "matched", res.Status)
	require.NotNil(t, res.Session)
	assert.Equal(t, models.StatusActive, res.Session.Status)
	assert.Contains(t, res.Session.Players, p1)
	assert.Equal(t, 1200, res.OpponentRating)
}

func TestFindMatchRequiresAuth(t *testing.T) {
	srv, _ := newTestServer(t)
	w := doRequest(t, srv, "POST", "/match/find", "", nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestAnswerFlowToCompletion(t *testing.T) {
	srv, fs := newTestServer(t)
	_, token1 := registerPlayer(t, srv, fs, 1200)
	p2, token2 := registerPlayer(t, srv, fs, 1210)

	doRequest(t, srv, "POST", "/match/find", token1, nil)
	w := doRequest(t, srv, "POST", "/match/find", token2, nil)
	var res findMatchResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	require.Equal(t, "matched", res.Status)
	sessionID := res.Session.ID

	// Join validates participation; outsiders are rejected.
	w = doRequest(t, srv, "POST", "/game/"+sessionID.String()+"/join", token1, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	_, outsiderToken := registerPlayer(t, srv, fs, 1200)
	w = doRequest(t, srv, "POST", "/game/"+sessionID.String()+"/join", outsiderToken, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	// The public state never leaks the correct option.
	w = doRequest(t, srv, "GET", "/game/"+sessionID.String(), token1, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotContains(t, w.Body.String(), "correct_option")

	// MaxRounds is 2 in the test config: two answers finish the game.
	w = doRequest(t, srv, "POST", "/game/"+sessionID.String()+"/answer", token2, map[string]string{"answer": "Aloe vera"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var ans submitAnswerResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &ans))
	assert.True(t, ans.Correct)
	assert.Equal(t, 100, ans.ScoreAwarded)

	w = doRequest(t, srv, "POST", "/game/"+sessionID.String()+"/answer", token2, map[string]string{"answer": "Aloe vera"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &ans))
	assert.Equal(t, models.StatusCompleted, ans.Session.Status)
	assert.Equal(t, p2, ans.Session.WinnerID)

	// Completed sessions reject further answers with a conflict.
	w = doRequest(t, srv, "POST", "/game/"+sessionID.String()+"/answer", token1, map[string]string{"answer": "Aloe vera"})
	assert.Equal(t, http.StatusConflict, w.Code)

	// Winner's authoritative record reflects the commit.
	winner, err := fs.GetPlayer(context.Background(), p2)
	require.NoError(t, err)
	assert.Greater(t, winner.Rating, 1210)
	assert.Equal(t, 1, winner.GamesPlayed)
}

func TestSubmitAnswerValidationErrors(t *testing.T) {
	srv, fs := newTestServer(t)
	_, token := registerPlayer(t, srv, fs, 1200)

	w := doRequest(t, srv, "POST", "/game/not-a-uuid/answer", token, map[string]string{"answer": "x"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doRequest(t, srv, "POST", "/game/"+uuid.NewString()+"/answer", token, map[string]string{"answer": "x"})
	assert.Equal(t, http.StatusNotFound, w.Code)
}
