package main

import (
	"log"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/arnavshah/skillmatch-api-go/pkg/auth"
	"github.com/arnavshah/skillmatch-api-go/pkg/config"
	"github.com/arnavshah/skillmatch-api-go/pkg/database"
	"github.com/arnavshah/skillmatch-api-go/pkg/handlers"
	"github.com/arnavshah/skillmatch-api-go/pkg/logger"
	"github.com/arnavshah/skillmatch-api-go/pkg/metrics"
)

func main() {
	config.LoadDotEnv()

	cfg, cfgErr := config.Load()

	zlog, err := logger.New(cfg.LogJSON, cfg.LogDebug)
	if err != nil {
		log.Fatalf("could not build logger: %v", err)
	}
	defer zlog.Sync()

	if cfgErr != nil {
		zlog.Warn("using defaults for invalid settings", zap.Error(cfgErr))
	}

	if cfg.GinMode == "" {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.InitDB(cfg)
	if err != nil {
		zlog.Fatal("database init failed", zap.Error(err))
	}

	created, err := auth.EnsureAdminExists(db, cfg.AdminUsername, cfg.AdminPassword)
	if err != nil {
		zlog.Error("could not ensure admin user", zap.Error(err))
	} else if created {
		zlog.Info("admin user created", zap.String("username", cfg.AdminUsername))
	}

	h := handlers.New(db, cfg, zlog, metrics.New())
	r := h.Router()

	zlog.Info("server starting", zap.String("port", cfg.Port), zap.String("version", handlers.Version))
	if err := r.Run(":" + cfg.Port); err != nil {
		zlog.Fatal("could not run server", zap.Error(err))
	}
}
