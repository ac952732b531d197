package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"crm-platform/internal/activity"
	"crm-platform/internal/agents"
	"crm-platform/internal/assignment"
	"crm-platform/internal/auth"
	"crm-platform/internal/callsession"
	"crm-platform/internal/config"
	"crm-platform/internal/feedback"
	"crm-platform/internal/httpapi"
	"crm-platform/internal/importer"
	"crm-platform/internal/leads"
	"crm-platform/internal/reporting"
	"crm-platform/internal/storage"
	"crm-platform/internal/store"
	"crm-platform/internal/timeline"
	"crm-platform/pkg/logger"
	"crm-platform/pkg/utils"

	"github.com/gin-gonic/gin"
	_ "github.com/jackc/pgx/v5/stdlib"
)

func main() {
	// Root context that cancels on shutdown
	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("config load failed", "err", err)
		os.Exit(1)
	}

	log := logger.New(cfg.App.Env)
	slog.SetDefault(log)

	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	authManager, err := auth.NewManager(cfg.Auth)
	if err != nil {
		log.Error("auth init failed", "err", err)
		os.Exit(1)
	}

	db, err := utils.OpenPostgres(rootCtx, "pgx", cfg.PostgresDSN(), utils.PostgresPoolConfig{})
	if err != nil {
		log.Error("postgres init failed", "err", err)
		os.Exit(1)
	}
	defer db.Close()

	rdb, err := utils.OpenRedis(rootCtx, utils.RedisConfig{Addr: cfg.RedisAddr()})
	if err != nil {
		log.Error("redis init failed", "err", err)
		os.Exit(1)
	}
	defer rdb.Close()

	recordings, err := storage.NewRecordings(cfg.Uploads.Dir)
	if err != nil {
		log.Error("recordings dir init failed", "err", err)
		os.Exit(1)
	}

	pg := store.NewPostgres(db)

	leadService := leads.NewService(pg)
	agentService := agents.NewService(pg)
	assignService := assignment.NewService(pg)
	callService := callsession.NewService(pg)
	feedbackService := feedback.NewService(pg)

	h := httpapi.Handlers{
		Auth:       authManager,
		Activity:   activity.NewService(pg),
		Agents:     agentService,
		Leads:      leadService,
		Assignment: assignService,
		Calls:      callService,
		Feedback:   feedbackService,
		Timeline:   timeline.NewGrouper(pg),
		Reporting:  reporting.NewService(pg),
		Importer:   importer.NewService(leadService),
		Recordings: recordings,

		Redis:              rdb,
		MaxConcurrentCalls: cfg.Uploads.MaxConcurrentCalls,
	}

	// Gin router
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(logger.Middleware(log))

	registerRoutes(r, h, auth.RequireAccessToken(authManager))

	srv := &http.Server{
		Addr:              cfg.HTTPAddr(),
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Info("api listening", "addr", srv.Addr, "env", cfg.App.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http server failed", "err", err)
			stop()
		}
	}()

	<-rootCtx.Done()
	log.Info("shutdown initiated")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("http shutdown failed", "err", err)
	}

	_ = logger.ShutdownFlush(shutdownCtx, 2*time.Second)
}
