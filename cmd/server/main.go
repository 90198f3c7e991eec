// cmd/server/main.go
package main

import (
	"context"
	"log"
	"net/http"

	_ "github.com/joho/godotenv/autoload"
	"github.com/sirupsen/logrus"

	"github.com/botanybattle/server/internal/auth"
	"github.com/botanybattle/server/internal/cache"
	"github.com/botanybattle/server/internal/config"
	"github.com/botanybattle/server/internal/database"
	"github.com/botanybattle/server/internal/game"
	"github.com/botanybattle/server/internal/handlers"
	"github.com/botanybattle/server/internal/matchmaking"
	"github.com/botanybattle/server/internal/middleware"
	"github.com/botanybattle/server/internal/notify"
)

func main() {
	cfg := config.Load()

	logger := logrus.New()
	logger.SetLevel(logrus.DebugLevel)

	ctx := context.Background()

	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL is required")
	}
	store, err := database.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("database connect: %v", err)
	}
	defer store.Close()
	if err := store.EnsureSchema(ctx); err != nil {
		log.Fatalf("ensure schema: %v", err)
	}

	var c cache.Cache
	if cfg.RedisAddr != "" {
		redisCache, err := cache.ConnectRedis(cfg.RedisAddr, cfg.RedisDB)
		if err != nil {
			log.Fatalf("redis connect: %v", err)
		}
		c = redisCache
	} else {
		logger.Warn("REDIS_ADDR not set, using in-process cache (single instance only)")
		c = cache.NewMemory()
	}

	tokens, err := auth.NewTokens(cfg.TokenExpiry)
	if err != nil {
		log.Fatalf("token setup: %v", err)
	}

	dispatcher := notify.NewDispatcher(logger)
	queue := matchmaking.NewQueue(c, logger, matchmaking.Config{
		PoolTTL:      cfg.PoolTTL,
		ClaimRetries: matchmaking.DefaultConfig().ClaimRetries,
	})
	manager := game.NewManager(store, store, c, game.NewStaticQuestionProvider(), dispatcher, logger, game.Config{
		MaxRounds:       cfg.MaxRounds,
		SessionCacheTTL: game.DefaultConfig().SessionCacheTTL,
	})

	srv := &handlers.Server{
		Queue:      queue,
		Manager:    manager,
		Players:    store,
		Tokens:     tokens,
		Dispatcher: dispatcher,
		Log:        logger,
	}

	mux := http.NewServeMux()
	srv.Routes(mux)

	addr := ":" + cfg.Port
	logger.Infof("Running on %s", addr)
	if err := http.ListenAndServe(addr, middleware.LogMiddleware(logger)(mux)); err != nil {
		log.Fatalf("server exited: %v", err)
	}
}
