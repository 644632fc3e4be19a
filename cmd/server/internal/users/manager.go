package users

import (
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/houzhh15/studybuddy/cmd/server/internal/utils"
)

// Scope definitions
const (
	ScopeEvaluate       = "communication.evaluate" // 提交文本/音频评估
	ScopeHistoryRead    = "history.read"           // 读取本人历史
	ScopeHistoryWrite   = "history.write"          // 保存/删除本人历史
	ScopeHistoryReadAll = "history.read.all"       // 读取任意学生历史（教师）
)

// 用户类型
const (
	TypeStudent = "student"
	TypeTeacher = "teacher"
)

var (
	ErrUserExists         = errors.New("user already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrNotFound           = errors.New("user not found")
	ErrInvalidUserType    = errors.New("user_type must be student or teacher")
)

// scopesFor 按用户类型分配权限
func scopesFor(userType string) []string {
	scopes := []string{ScopeEvaluate, ScopeHistoryRead, ScopeHistoryWrite}
	if userType == TypeTeacher {
		scopes = append(scopes, ScopeHistoryReadAll)
	}
	return scopes
}

// User 数据模型
// Username 对学生而言即学号（register number）；Password 存储 bcrypt 哈希
type User struct {
	UserID    string    `json:"user_id"`
	Username  string    `json:"username"`
	Password  string    `json:"password_hash,omitempty"`
	UserType  string    `json:"user_type"`
	FullName  string    `json:"full_name"`
	Email     string    `json:"email,omitempty"`
	Scopes    []string  `json:"scopes"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// RegisterInput 注册参数
type RegisterInput struct {
	Username string
	Password string
	UserType string
	FullName string
	Email    string
}

// Claims 自定义 JWT claims
type Claims struct {
	UserID   string   `json:"user_id"`
	Username string   `json:"username"`
	UserType string   `json:"user_type"`
	Scopes   []string `json:"scopes"`
	jwt.RegisteredClaims
}

// Manager 管理用户及 JWT
// 简易文件存储 <dir>/users.json
type Manager struct {
	mu        sync.RWMutex
	users     map[string]*User
	secretKey []byte
	tokenTTL  time.Duration
	storePath string
	now       func() time.Time
}

// NewManager 创建管理器，secret 用于 JWT 签名，ttl<=0 表示签发的令牌不过期
func NewManager(storeDir string, secret []byte, ttl time.Duration) (*Manager, error) {
	if len(secret) == 0 {
		return nil, errors.New("secret key required")
	}
	m := &Manager{
		users:     map[string]*User{},
		secretKey: secret,
		tokenTTL:  ttl,
		storePath: filepath.Join(storeDir, "users.json"),
		now:       time.Now,
	}
	if err := m.load(); err != nil {
		return nil, err
	}
	return m, nil
}

func hashPassword(pw string) (string, error) {
	h, err := bcrypt.GenerateFromPassword([]byte(pw), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(h), nil
}

// load 从文件读取，文件不存在视为首次启动
func (m *Manager) load() error {
	var arr []*User
	if _, err := utils.ReadJSON(m.storePath, &arr); err != nil {
		return err
	}
	for _, u := range arr {
		m.users[u.Username] = u
	}
	return nil
}

// save 写入文件（全量，原子替换）
func (m *Manager) save() error {
	arr := make([]*User, 0, len(m.users))
	for _, u := range m.users {
		arr = append(arr, u)
	}
	sort.Slice(arr, func(i, j int) bool { return arr[i].Username < arr[j].Username })
	return utils.WriteJSONAtomic(m.storePath, arr, 0600)
}

// EnsureDefaultUsers 如果没有用户则创建一个学生与一个教师默认账号
func (m *Manager) EnsureDefaultUsers(studentPassword, teacherPassword string) error {
	m.mu.Lock()
	empty := len(m.users) == 0
	m.mu.Unlock()
	if !empty {
		return nil
	}
	if _, err := m.Register(RegisterInput{Username: "student", Password: studentPassword, UserType: TypeStudent, FullName: "Demo Student"}); err != nil {
		return err
	}
	_, err := m.Register(RegisterInput{Username: "teacher", Password: teacherPassword, UserType: TypeTeacher, FullName: "Demo Teacher"})
	return err
}

// Register 注册用户（用户名唯一）
func (m *Manager) Register(in RegisterInput) (*User, error) {
	in.Username = strings.TrimSpace(in.Username)
	if in.Username == "" {
		return nil, errors.New("username required")
	}
	if in.Password == "" {
		return nil, errors.New("password required")
	}
	if in.UserType != TypeStudent && in.UserType != TypeTeacher {
		return nil, ErrInvalidUserType
	}
	hash, err := hashPassword(in.Password)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.users[in.Username]; exists {
		return nil, ErrUserExists
	}
	now := m.now()
	u := &User{
		UserID:    uuid.NewString(),
		Username:  in.Username,
		Password:  hash,
		UserType:  in.UserType,
		FullName:  in.FullName,
		Email:     in.Email,
		Scopes:    scopesFor(in.UserType),
		CreatedAt: now,
		UpdatedAt: now,
	}
	m.users[in.Username] = u
	if err := m.save(); err != nil {
		delete(m.users, in.Username)
		return nil, err
	}
	cpy := *u
	cpy.Password = ""
	return &cpy, nil
}

// GetUser 获取单个（隐藏密码）
func (m *Manager) GetUser(username string) (*User, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.users[username]
	if !ok {
		return nil, false
	}
	cpy := *u
	cpy.Password = ""
	return &cpy, true
}

// Authenticate 验证用户名密码；userType 非空时必须匹配
func (m *Manager) Authenticate(username, password, userType string) (*User, error) {
	m.mu.RLock()
	u, ok := m.users[username]
	m.mu.RUnlock()
	if !ok {
		return nil, ErrInvalidCredentials
	}
	if userType != "" && u.UserType != userType {
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	cpy := *u
	cpy.Password = ""
	return &cpy, nil
}

// GenerateToken 签发令牌，过期时间由 tokenTTL 决定
func (m *Manager) GenerateToken(username string) (string, error) {
	m.mu.RLock()
	u, ok := m.users[username]
	m.mu.RUnlock()
	if !ok {
		return "", ErrNotFound
	}
	now := m.now()
	registered := jwt.RegisteredClaims{IssuedAt: jwt.NewNumericDate(now), Subject: u.UserID}
	if m.tokenTTL > 0 {
		registered.ExpiresAt = jwt.NewNumericDate(now.Add(m.tokenTTL))
	}
	claims := Claims{UserID: u.UserID, Username: u.Username, UserType: u.UserType, Scopes: u.Scopes, RegisteredClaims: registered}
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return tok.SignedString(m.secretKey)
}

// ParseToken 验证并返回 claims
func (m *Manager) ParseToken(tokenStr string) (*Claims, error) {
	parsed, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		return m.secretKey, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, err
	}
	if !parsed.Valid {
		return nil, errors.New("invalid token")
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok {
		return nil, errors.New("invalid claims")
	}
	return claims, nil
}

// HasScope 判断用户是否具有 scope
func HasScope(scopes []string, required string) bool {
	for _, s := range scopes {
		if s == required {
			return true
		}
	}
	return false
}
