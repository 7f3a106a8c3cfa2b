package main

import (
	"context"

	"abricot/internal/app"
	"abricot/internal/handler"
	"abricot/internal/httpserver"
	"abricot/internal/token"
	"abricot/pkg/config"
	"abricot/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {
	// Load config
	cfg, err := config.LoadConfig(config.GetConfigEnv(), config.GetEnv("CONFIG_DIR", "config"))
	if err != nil {
		panic(err)
	}

	log := logger.NewLogger(cfg.Log.Level)
	defer log.Sync()

	gin.SetMode(cfg.Server.Mode)

	// Init runtime. The gateway serves one user; the token lives with the process.
	redirects := &handler.Redirects{}
	rt := app.New(context.Background(), cfg, token.NewMemoryStore(""), redirects, log)
	defer rt.Close()

	// Init Handlers
	sessionHandler := handler.NewSessionHandler(rt.Service, redirects, log)
	projectHandler := handler.NewProjectHandler(rt.Service, log)
	taskHandler := handler.NewTaskHandler(rt.Service, log)

	// Router
	router := httpserver.NewRouter(sessionHandler, projectHandler, taskHandler, rt.Session, rt.Redis, log)

	// Start gateway
	log.Info("Starting Abricot gateway",
		zap.String("port", cfg.Server.Port),
		zap.String("backend", cfg.API.BaseURL),
		zap.String("cache", cfg.Cache.Backend),
	)
	if err := router.Run(cfg.Server.Port); err != nil {
		log.Fatal("server start failed", zap.Error(err))
	}
}
