package main

import (
	// Standard library
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	// External dependencies
	"github.com/gin-gonic/gin"

	// Internal packages
	"github.com/houzhh15/studybuddy/cmd/server/internal/audit"
	"github.com/houzhh15/studybuddy/cmd/server/internal/config"
	"github.com/houzhh15/studybuddy/cmd/server/internal/history"
	"github.com/houzhh15/studybuddy/cmd/server/internal/services"
	"github.com/houzhh15/studybuddy/cmd/server/internal/transcriber"
	"github.com/houzhh15/studybuddy/cmd/server/internal/transcriber/degradation"
	"github.com/houzhh15/studybuddy/cmd/server/internal/transcriber/health"
	"github.com/houzhh15/studybuddy/cmd/server/internal/users"
	"github.com/houzhh15/studybuddy/pkg/commskills"
	"github.com/houzhh15/studybuddy/pkg/logger"
)

// generateRandomPassword generates a cryptographically secure random password
func generateRandomPassword(length int) string {
	bytes := make([]byte, length)
	if _, err := rand.Read(bytes); err != nil {
		panic(fmt.Sprintf("failed to generate random password: %v", err))
	}
	return base64.URLEncoding.EncodeToString(bytes)[:length]
}

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logInstance, err := logger.Init(logger.Config{
		Level:       cfg.Log.Level,
		Environment: cfg.Server.Env,
		Format:      cfg.Log.Format,
		File:        cfg.Log.File,
		WithSource:  !cfg.IsProduction(),
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger init failed: %v\n", err)
		os.Exit(1)
	}
	appLogger := logInstance.With("component", "web-server")

	if cfg.IsDevelopment() {
		if cfg.Security.JWTSecret == "" {
			cfg.Security.JWTSecret = generateRandomPassword(48)
			appLogger.Warn("USER_JWT_SECRET not set, using a random secret; tokens will not survive restarts")
		}
		if cfg.Security.DefaultStudentPassword == "" {
			cfg.Security.DefaultStudentPassword = generateRandomPassword(16)
			appLogger.Warn("generated random student password", "password", cfg.Security.DefaultStudentPassword)
		}
		if cfg.Security.DefaultTeacherPassword == "" {
			cfg.Security.DefaultTeacherPassword = generateRandomPassword(16)
			appLogger.Warn("generated random teacher password", "password", cfg.Security.DefaultTeacherPassword)
		}
	}

	// Validate configuration
	if err := config.ValidateConfig(cfg); err != nil {
		appLogger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	appLogger.Info("configuration loaded", "env", cfg.Server.Env, "port", cfg.Server.Port)
	appLogger.Debug(cfg.PrintConfig())

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	// Initialize user manager
	userManager, err := users.NewManager(cfg.Data.UsersDir, []byte(cfg.Security.JWTSecret), cfg.Security.TokenTTL)
	if err != nil {
		appLogger.Error("user manager init failed", "error", err)
		os.Exit(1)
	}
	if err := userManager.EnsureDefaultUsers(cfg.Security.DefaultStudentPassword, cfg.Security.DefaultTeacherPassword); err != nil {
		appLogger.Warn("failed to ensure default users", "error", err)
	}

	// Initialize audit logger
	auditLogger, err := audit.NewFileAuditLogger(cfg.Data.AuditLogsDir)
	if err != nil {
		appLogger.Error("audit logger init failed", "error", err)
		os.Exit(1)
	}
	defer auditLogger.Close()

	// Initialize analyzer
	mode, err := commskills.ParseMode(cfg.Analyzer.Mode)
	if err != nil {
		appLogger.Error("analyzer init failed", "error", err)
		os.Exit(1)
	}
	match, err := commskills.ParseMatchMode(cfg.Analyzer.Match)
	if err != nil {
		appLogger.Error("analyzer init failed", "error", err)
		os.Exit(1)
	}
	analyzer := commskills.New(commskills.Options{
		Mode:          mode,
		Match:         match,
		MinLength:     cfg.Analyzer.MinLength,
		DisableJitter: !cfg.Analyzer.Jitter,
		Logger:        logInstance.With("component", "commskills"),
	})
	appLogger.Info("communication analyzer ready", "mode", mode, "match", match, "jitter", cfg.Analyzer.Jitter)

	// Initialize transcription with health checking and degradation
	rootCtx, stopBackground := context.WithCancel(context.Background())
	defer stopBackground()

	transcriberLogger := logInstance.With("component", "transcriber")
	var (
		source     services.TranscriberSource
		statusProv *degradation.DegradationController
		checker    *health.HealthChecker
	)
	fallback := transcriber.NewMock(transcriberLogger)
	switch cfg.Transcriber.Mode {
	case "whisper":
		primary := transcriber.NewWhisperClient(cfg.Transcriber.URL, cfg.Transcriber.Model, cfg.Transcriber.Language, cfg.Transcriber.Timeout, transcriberLogger)
		checker = health.NewHealthChecker(primary, cfg.Transcriber.HealthInterval, cfg.Transcriber.FailThreshold).WithLogger(transcriberLogger)
		statusProv = degradation.NewDegradationController(primary, fallback, checker).WithLogger(transcriberLogger)
		source = statusProv
		initial := checker.CheckNow(rootCtx)
		appLogger.Info("initial transcriber health", "healthy", initial.IsHealthy, "error", initial.ErrorMessage)
		go checker.Start(rootCtx)
		appLogger.Info("whisper transcriber configured", "url", cfg.Transcriber.URL, "model", cfg.Transcriber.Model)
	default:
		source = services.StaticTranscriber(fallback)
		appLogger.Warn("transcriber running in mock mode; audio evaluations return fallback results")
	}

	if err := os.MkdirAll(cfg.Data.HistoryDir, 0755); err != nil {
		appLogger.Error("history dir init failed", "error", err)
		os.Exit(1)
	}
	historyStore := history.NewStore(cfg.Data.HistoryDir, logInstance.With("component", "history"))
	commService := services.NewCommunicationService(analyzer, source, historyStore, auditLogger,
		logInstance.With("component", "communication"),
		services.CommunicationConfig{
			MaxConcurrent: cfg.Transcriber.MaxConcurrent,
			MinAudioBytes: cfg.Transcriber.MinAudioBytes,
			Language:      cfg.Transcriber.Language,
		})

	deps := routerDeps{
		cfg:         cfg,
		users:       userManager,
		comm:        commService,
		audit:       auditLogger,
		authLogger:  logInstance.With("component", "auth-middleware"),
		startTime:   time.Now(),
		transcriber: cfg.Transcriber.Mode,
	}
	if statusProv != nil {
		deps.status = statusProv
	}
	r := setupRouter(deps)

	// Create HTTP server with graceful shutdown
	serverAddr := cfg.GetServerAddr()
	srv := &http.Server{
		Addr:    serverAddr,
		Handler: r,
	}

	go func() {
		appLogger.Info("server starting", "addr", serverAddr, "env", cfg.Server.Env)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			appLogger.Error("server failed", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	<-quit
	appLogger.Info("shutdown signal received, shutting down server...")

	if checker != nil {
		checker.Stop()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		appLogger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}
	appLogger.Info("server shutdown complete")
}
