package main

import (
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/houzhh15/studybuddy/cmd/server/internal/api"
	"github.com/houzhh15/studybuddy/cmd/server/internal/audit"
	"github.com/houzhh15/studybuddy/cmd/server/internal/config"
	"github.com/houzhh15/studybuddy/cmd/server/internal/middleware"
	"github.com/houzhh15/studybuddy/cmd/server/internal/services"
	"github.com/houzhh15/studybuddy/cmd/server/internal/users"
)

// routerDeps 路由所需的全部依赖
type routerDeps struct {
	cfg         *config.Config
	users       *users.Manager
	comm        *services.CommunicationService
	status      api.TranscriberStatusProvider // 未配置 whisper 时为 nil
	audit       audit.AuditLogger
	authLogger  *slog.Logger
	startTime   time.Time
	transcriber string
}

// publicPaths 无需认证的 API 路径
var publicPaths = []string{
	"/api/v1/auth/register",
	"/api/v1/auth/login",
	"/api/v1/health",
}

// routeScopes 路由所需权限（满足其一即可）
func routeScopes() map[string][]string {
	return map[string][]string{
		"POST /api/v1/transcription/evaluate":        {users.ScopeEvaluate},
		"POST /api/v1/transcription/evaluate-text":   {users.ScopeEvaluate},
		"POST /api/v1/communication/history":         {users.ScopeHistoryWrite},
		"GET /api/v1/communication/history/:student": {users.ScopeHistoryRead, users.ScopeHistoryReadAll},
		"DELETE /api/v1/communication/history/:id":   {users.ScopeHistoryWrite},
	}
}

func setupRouter(d routerDeps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger())

	// Health and metrics endpoints (no authentication required)
	r.GET("/health", healthCheckHandler(d.cfg, d.startTime))
	r.GET("/api/v1/health", healthCheckHandler(d.cfg, d.startTime))
	r.GET("/readiness", readinessCheckHandler(d.cfg, d.status))
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	r.Use(middleware.Auth(d.users, routeScopes(), publicPaths, d.authLogger))

	v1 := r.Group("/api/v1")
	v1.POST("/auth/register", api.HandleRegister(d.users, d.audit, d.cfg.Security.AllowTeacherSignup))
	v1.POST("/auth/login", api.HandleLogin(d.users, d.audit))

	v1.POST("/transcription/evaluate", api.HandleEvaluateAudio(d.comm))
	v1.POST("/transcription/evaluate-text", api.HandleEvaluateText(d.comm))

	v1.POST("/communication/history", api.HandleSaveHistory(d.comm))
	v1.GET("/communication/history/:student", api.HandleListHistory(d.comm))
	v1.DELETE("/communication/history/:id", api.HandleDeleteHistory(d.comm))

	v1.GET("/services/transcriber", api.HandleTranscriberStatus(d.status, d.transcriber))

	return r
}

// HealthCheckResponse represents the response from the health check endpoint
type HealthCheckResponse struct {
	Status    string    `json:"status"`
	Service   string    `json:"service"`
	Version   string    `json:"version"`
	Uptime    string    `json:"uptime"`
	Timestamp time.Time `json:"timestamp"`
	Env       string    `json:"env"`
}

// ReadinessCheckResponse represents the response from the readiness check endpoint
type ReadinessCheckResponse struct {
	Ready     bool             `json:"ready"`
	Checks    []ReadinessCheck `json:"checks"`
	Timestamp time.Time        `json:"timestamp"`
}

// ReadinessCheck represents a single readiness check
type ReadinessCheck struct {
	Name   string `json:"name"`
	Status string `json:"status"` // ok, fail, degraded
	Error  string `json:"error,omitempty"`
}

// healthCheckHandler returns the liveness probe handler
func healthCheckHandler(cfg *config.Config, startTime time.Time) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, HealthCheckResponse{
			Status:    "healthy",
			Service:   "studybuddy-server",
			Version:   "1.0.0",
			Uptime:    time.Since(startTime).String(),
			Timestamp: time.Now(),
			Env:       cfg.Server.Env,
		})
	}
}

// readinessCheckHandler returns the readiness probe handler.
// A degraded transcriber is reported but does not fail readiness: text
// evaluation and audio fallbacks keep working.
func readinessCheckHandler(cfg *config.Config, status api.TranscriberStatusProvider) gin.HandlerFunc {
	return func(c *gin.Context) {
		checks := []ReadinessCheck{}
		allReady := true

		dirs := []struct{ name, path string }{
			{"users_dir", cfg.Data.UsersDir},
			{"history_dir", cfg.Data.HistoryDir},
		}
		for _, d := range dirs {
			check := ReadinessCheck{Name: d.name, Status: "ok"}
			if !checkDataDirAccessible(d.path) {
				check.Status = "fail"
				check.Error = d.name + " not accessible"
				allReady = false
			}
			checks = append(checks, check)
		}

		if status != nil {
			st := status.Snapshot()
			check := ReadinessCheck{Name: "transcriber", Status: "ok"}
			if st.Degraded {
				check.Status = "degraded"
				check.Error = st.Health.ErrorMessage
			}
			checks = append(checks, check)
		}

		httpStatus := http.StatusOK
		if !allReady {
			httpStatus = http.StatusServiceUnavailable
		}
		c.JSON(httpStatus, ReadinessCheckResponse{
			Ready:     allReady,
			Checks:    checks,
			Timestamp: time.Now(),
		})
	}
}

// checkDataDirAccessible checks if a directory is accessible
func checkDataDirAccessible(dir string) bool {
	info, err := os.Stat(dir)
	if err != nil {
		return false
	}
	return info.IsDir()
}
