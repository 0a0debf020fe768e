package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/arnavshah/skillmatch-api-go/pkg/auth"
	"github.com/arnavshah/skillmatch-api-go/pkg/config"
	"github.com/arnavshah/skillmatch-api-go/pkg/database"
	"github.com/arnavshah/skillmatch-api-go/pkg/handlers"
	"github.com/arnavshah/skillmatch-api-go/pkg/logger"
	"github.com/arnavshah/skillmatch-api-go/pkg/metrics"
)

var r http.Handler

func init() {
	// Load .env if it exists (for local testing with vercel dev)
	config.LoadDotEnv()
	cfg, cfgErr := config.Load()

	zlog, err := logger.New(true, cfg.LogDebug)
	if err != nil {
		zlog = zap.NewNop()
	}
	if cfgErr != nil {
		zlog.Warn("using defaults for invalid settings", zap.Error(cfgErr))
	}

	gin.SetMode(gin.ReleaseMode)

	db, err := database.InitDB(cfg)
	if err != nil {
		zlog.Error("database init failed", zap.Error(err))
		r = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			http.Error(w, `{"error":"database unavailable"}`, http.StatusServiceUnavailable)
		})
		return
	}
	if _, err := auth.EnsureAdminExists(db, cfg.AdminUsername, cfg.AdminPassword); err != nil {
		zlog.Error("could not ensure admin user", zap.Error(err))
	}

	r = handlers.New(db, cfg, zlog, metrics.New()).Router()
}

// Handler is the entry point for Vercel Go Runtime
func Handler(w http.ResponseWriter, req *http.Request) {
	r.ServeHTTP(w, req)
}
