package users

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testSecret = []byte("0123456789abcdef0123456789abcdef")

func newTestManager(t *testing.T) (*Manager, string) {
	t.Helper()
	dir := t.TempDir()
	m, err := NewManager(dir, testSecret, time.Hour)
	require.NoError(t, err)
	return m, dir
}

func TestNewManager_RequiresSecret(t *testing.T) {
	_, err := NewManager(t.TempDir(), nil, time.Hour)
	assert.Error(t, err)
}

func TestRegisterAndAuthenticate(t *testing.T) {
	m, dir := newTestManager(t)

	u, err := m.Register(RegisterInput{Username: "21CS001", Password: "s3cret-pass", UserType: TypeStudent, FullName: "Asha"})
	require.NoError(t, err)
	assert.NotEmpty(t, u.UserID)
	assert.Empty(t, u.Password, "hash must not leak")
	assert.Equal(t, []string{ScopeEvaluate, ScopeHistoryRead, ScopeHistoryWrite}, u.Scopes)

	_, err = m.Register(RegisterInput{Username: "21CS001", Password: "x", UserType: TypeStudent})
	assert.ErrorIs(t, err, ErrUserExists)

	got, err := m.Authenticate("21CS001", "s3cret-pass", TypeStudent)
	require.NoError(t, err)
	assert.Equal(t, u.UserID, got.UserID)

	_, err = m.Authenticate("21CS001", "wrong", TypeStudent)
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = m.Authenticate("21CS001", "s3cret-pass", TypeTeacher)
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = m.Authenticate("nobody", "s3cret-pass", "")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	data, err := os.ReadFile(filepath.Join(dir, "users.json"))
	require.NoError(t, err)
	assert.NotContains(t, string(data), "s3cret-pass")
	assert.True(t, strings.Contains(string(data), "$2a$"), "bcrypt hash stored")
}

func TestRegister_Validation(t *testing.T) {
	m, _ := newTestManager(t)

	_, err := m.Register(RegisterInput{Username: " ", Password: "p", UserType: TypeStudent})
	assert.Error(t, err)
	_, err = m.Register(RegisterInput{Username: "u", Password: "", UserType: TypeStudent})
	assert.Error(t, err)
	_, err = m.Register(RegisterInput{Username: "u", Password: "p", UserType: "admin"})
	assert.ErrorIs(t, err, ErrInvalidUserType)
}

func TestManager_ReloadsFromDisk(t *testing.T) {
	m, dir := newTestManager(t)
	_, err := m.Register(RegisterInput{Username: "t1", Password: "teach-pass", UserType: TypeTeacher})
	require.NoError(t, err)

	reloaded, err := NewManager(dir, testSecret, time.Hour)
	require.NoError(t, err)
	u, ok := reloaded.GetUser("t1")
	require.True(t, ok)
	assert.True(t, HasScope(u.Scopes, ScopeHistoryReadAll))
	_, err = reloaded.Authenticate("t1", "teach-pass", TypeTeacher)
	assert.NoError(t, err)
}

func TestEnsureDefaultUsers(t *testing.T) {
	m, _ := newTestManager(t)

	require.NoError(t, m.EnsureDefaultUsers("student-pass", "teacher-pass"))
	_, ok := m.GetUser("student")
	assert.True(t, ok)
	_, ok = m.GetUser("teacher")
	assert.True(t, ok)

	// second call is a no-op even with different passwords
	require.NoError(t, m.EnsureDefaultUsers("other", "other"))
	_, err := m.Authenticate("student", "student-pass", TypeStudent)
	assert.NoError(t, err)
}

func TestTokenRoundTrip(t *testing.T) {
	m, _ := newTestManager(t)
	u, err := m.Register(RegisterInput{Username: "t1", Password: "p", UserType: TypeTeacher})
	require.NoError(t, err)

	tok, err := m.GenerateToken("t1")
	require.NoError(t, err)

	claims, err := m.ParseToken(tok)
	require.NoError(t, err)
	assert.Equal(t, "t1", claims.Username)
	assert.Equal(t, u.UserID, claims.UserID)
	assert.Equal(t, TypeTeacher, claims.UserType)
	assert.True(t, HasScope(claims.Scopes, ScopeHistoryReadAll))
	require.NotNil(t, claims.ExpiresAt)

	_, err = m.GenerateToken("missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestParseToken_Rejects(t *testing.T) {
	m, _ := newTestManager(t)
	_, err := m.Register(RegisterInput{Username: "s", Password: "p", UserType: TypeStudent})
	require.NoError(t, err)

	other, err := NewManager(t.TempDir(), []byte("another-secret-another-secret-xx"), time.Hour)
	require.NoError(t, err)
	_, err = other.Register(RegisterInput{Username: "s", Password: "p", UserType: TypeStudent})
	require.NoError(t, err)
	foreign, err := other.GenerateToken("s")
	require.NoError(t, err)

	_, err = m.ParseToken(foreign)
	assert.Error(t, err, "signature from another secret")

	m.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	expired, err := m.GenerateToken("s")
	require.NoError(t, err)
	_, err = m.ParseToken(expired)
	assert.Error(t, err, "expired token")

	_, err = m.ParseToken("not-a-jwt")
	assert.Error(t, err)
}
