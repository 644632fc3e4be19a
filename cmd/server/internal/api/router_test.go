package api

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/houzhh15/studybuddy/cmd/server/internal/audit"
	"github.com/houzhh15/studybuddy/cmd/server/internal/history"
	"github.com/houzhh15/studybuddy/cmd/server/internal/middleware"
	"github.com/houzhh15/studybuddy/cmd/server/internal/services"
	"github.com/houzhh15/studybuddy/cmd/server/internal/transcriber"
	"github.com/houzhh15/studybuddy/cmd/server/internal/users"
	"github.com/houzhh15/studybuddy/pkg/commskills"
)

const intro = "Hello my name is John and I like programming. I am confident and excited about this opportunity."

type testEnv struct {
	router *gin.Engine
	users  *users.Manager
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	um, err := users.NewManager(t.TempDir(), []byte("0123456789abcdef0123456789abcdef"), time.Hour)
	require.NoError(t, err)
	require.NoError(t, um.EnsureDefaultUsers("student-pass", "teacher-pass"))

	svc := services.NewCommunicationService(
		commskills.New(commskills.Options{DisableJitter: true}),
		services.StaticTranscriber(transcriber.NewMock(nil)),
		history.NewStore(t.TempDir(), nil),
		audit.NopAuditLogger{},
		nil,
		services.CommunicationConfig{MaxConcurrent: 1, MinAudioBytes: 100},
	)

	scopes := map[string][]string{
		"POST /api/v1/transcription/evaluate":        {users.ScopeEvaluate},
		"POST /api/v1/transcription/evaluate-text":   {users.ScopeEvaluate},
		"POST /api/v1/communication/history":         {users.ScopeHistoryWrite},
		"GET /api/v1/communication/history/:student": {users.ScopeHistoryRead},
		"DELETE /api/v1/communication/history/:id":   {users.ScopeHistoryWrite},
	}

	r := gin.New()
	r.Use(middleware.Auth(um, scopes, []string{"/api/v1/auth/register", "/api/v1/auth/login"}, nil))
	v1 := r.Group("/api/v1")
	v1.POST("/auth/register", HandleRegister(um, audit.NopAuditLogger{}, false))
	v1.POST("/auth/login", HandleLogin(um, audit.NopAuditLogger{}))
	v1.POST("/transcription/evaluate", HandleEvaluateAudio(svc))
	v1.POST("/transcription/evaluate-text", HandleEvaluateText(svc))
	v1.POST("/communication/history", HandleSaveHistory(svc))
	v1.GET("/communication/history/:student", HandleListHistory(svc))
	v1.DELETE("/communication/history/:id", HandleDeleteHistory(svc))

	return &testEnv{router: r, users: um}
}

func (e *testEnv) token(t *testing.T, username string) string {
	t.Helper()
	tok, err := e.users.GenerateToken(username)
	require.NoError(t, err)
	return tok
}

func (e *testEnv) do(t *testing.T, method, path, token string, body any) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if s, ok := body.(string); ok {
			buf.WriteString(s)
		} else {
			require.NoError(t, json.NewEncoder(&buf).Encode(body))
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)

	var out map[string]any
	_ = json.Unmarshal(w.Body.Bytes(), &out)
	return w, out
}
