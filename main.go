package main

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/patrickmn/go-cache"
	"github.com/username/tradereport/backend/src/config"
	"github.com/username/tradereport/backend/src/handlers"
	"github.com/username/tradereport/backend/src/logger"
	"github.com/username/tradereport/backend/src/processors"
	"github.com/username/tradereport/backend/src/services"
	"golang.org/x/time/rate"
)

func main() {
	config.LoadConfig()
	logger.InitLogger(config.Cfg.LogLevel)
	logger.L.Info("Tradereport backend server starting...")

	logger.L.Info("Initializing report cache...")
	reportCache := cache.New(config.Cfg.ReportCacheExpiry, config.Cfg.ReportCacheCleanup)

	logger.L.Info("Initializing services and handlers...")
	reportService := services.NewReportService(
		processors.NewDeduplicator(),
		processors.NewPositionProcessor(),
		processors.NewStatisticsProcessor(),
		reportCache,
	)
	uploadHandler := handlers.NewUploadHandler(reportService)

	limiter := rate.NewLimiter(rate.Limit(config.Cfg.RateLimitPerSecond), config.Cfg.RateLimitBurst)

	logger.L.Info("Configuring routes...")
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(handlers.RequestLoggerMiddleware)
	r.Use(handlers.CORSMiddleware(config.Cfg.AllowedOrigin))
	r.Use(handlers.RateLimitMiddleware(limiter))

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"message": "Tradereport backend is running"})
	})

	r.Route("/api", func(r chi.Router) {
		r.Post("/upload", uploadHandler.HandleUpload)
		r.Get("/sources", uploadHandler.HandleGetSources)
	})

	logger.L.Info("Server listening", "port", config.Cfg.Port)
	if err := http.ListenAndServe(":"+config.Cfg.Port, r); err != nil {
		logger.L.Error("Server failed", "error", err)
	}
}
