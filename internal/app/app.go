// Package app wires the runtime from configuration. Both front ends build on it.
package app

import (
	"context"
	"time"

	"abricot/internal/api"
	"abricot/internal/query"
	"abricot/internal/service"
	"abricot/internal/session"
	"abricot/internal/token"
	"abricot/pkg/config"
	redisclient "abricot/pkg/redis"
	"abricot/pkg/util"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// applyDedupTTL bounds how long an applied AI draft id is remembered.
const applyDedupTTL = 24 * time.Hour

type App struct {
	Config  *config.Config
	Redis   *redis.Client
	Service *service.Service
	Session *session.Session
}

// New builds the runtime. A configured but unreachable Redis falls back to the
// in-memory cache with a warning.
func New(ctx context.Context, cfg *config.Config, tokens token.Store, nav session.Navigator, logger *zap.Logger) *App {
	// Init Redis
	rdb := redisclient.NewRedisClient(cfg.Redis)
	if rdb != nil {
		if err := redisclient.Ping(ctx, rdb); err != nil {
			logger.Warn("Redis unreachable, using in-memory cache", zap.String("addr", cfg.Redis.Addr), zap.Error(err))
			_ = rdb.Close()
			rdb = nil
		}
	}

	// Init API client and session
	client := api.NewClient(cfg.API.BaseURL, tokens, logger)
	sess := session.New(client, tokens, session.WithNavigator(nav), session.WithLogger(logger))

	// Init query cache
	var store query.Store = query.NewMemoryStore(cfg.Cache.GCTime)
	if cfg.Cache.Backend == "redis" && rdb != nil {
		store = query.NewRedisStore(rdb, cfg.Cache.GCTime, sessionScope(sess))
	}
	queries := query.NewClient(store, query.Options{StaleTime: cfg.Cache.StaleTime, Logger: logger})

	svc := service.New(client, queries, sess, util.NewDeduperWithLogger(rdb, applyDedupTTL, logger), logger)

	return &App{Config: cfg, Redis: rdb, Service: svc, Session: sess}
}

// sessionScope names the shared cache namespace after the signed-in user.
func sessionScope(sess *session.Session) func() string {
	return func() string {
		if u := sess.Snapshot().User; u != nil {
			return u.ID.String()
		}
		return ""
	}
}

// Close releases the Redis connection.
func (a *App) Close() error {
	if a.Redis == nil {
		return nil
	}
	return a.Redis.Close()
}
