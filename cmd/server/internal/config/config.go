package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config 统一配置结构
type Config struct {
	Server      ServerConfig      `yaml:"server"`
	Data        DataConfig        `yaml:"data"`
	Log         LogConfig         `yaml:"log"`
	Security    SecurityConfig    `yaml:"security"`
	Analyzer    AnalyzerConfig    `yaml:"analyzer"`
	Transcriber TranscriberConfig `yaml:"transcriber"`
}

// ServerConfig 服务器配置
type ServerConfig struct {
	Env  string `yaml:"env"` // dev, staging, production
	Port string `yaml:"port"`
}

// DataConfig 数据目录配置
type DataConfig struct {
	UsersDir     string `yaml:"users_dir"`
	HistoryDir   string `yaml:"history_dir"`
	AuditLogsDir string `yaml:"audit_logs_dir"`
}

// LogConfig 日志配置
type LogConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // console, json
	File   string `yaml:"file"`   // 为空则只输出到 stdout
}

// SecurityConfig 安全配置
type SecurityConfig struct {
	JWTSecret              string        `yaml:"-"`
	TokenTTL               time.Duration `yaml:"token_ttl"`
	DefaultStudentPassword string        `yaml:"-"`
	DefaultTeacherPassword string        `yaml:"-"`

	// AllowTeacherSignup 允许匿名注册教师账号；关闭时只有已登录的教师可以创建
	AllowTeacherSignup bool `yaml:"allow_teacher_signup"`
}

// AnalyzerConfig 沟通能力分析器配置
type AnalyzerConfig struct {
	Mode      string `yaml:"mode"`       // enhanced, simple
	Match     string `yaml:"match"`      // substring, token
	MinLength int    `yaml:"min_length"` // 低于该长度走兜底结果
	Jitter    bool   `yaml:"jitter"`
}

// TranscriberConfig 语音转写服务配置
type TranscriberConfig struct {
	Mode           string        `yaml:"mode"` // whisper, mock
	URL            string        `yaml:"url"`
	Model          string        `yaml:"model"`
	Language       string        `yaml:"language"`
	Timeout        time.Duration `yaml:"timeout"`
	HealthInterval time.Duration `yaml:"health_interval"`
	FailThreshold  int           `yaml:"fail_threshold"`
	MaxConcurrent  int           `yaml:"max_concurrent"`
	MinAudioBytes  int           `yaml:"min_audio_bytes"`
}

// Default 返回默认配置
func Default() *Config {
	return &Config{
		Server: ServerConfig{Env: "dev", Port: "8000"},
		Data: DataConfig{
			UsersDir:     "./data/users",
			HistoryDir:   "./data",
			AuditLogsDir: "./data/audit_logs",
		},
		Log:      LogConfig{Level: "info", Format: "console"},
		Security: SecurityConfig{TokenTTL: 24 * time.Hour},
		Analyzer: AnalyzerConfig{Mode: "enhanced", Match: "substring", MinLength: 10, Jitter: true},
		Transcriber: TranscriberConfig{
			Mode:           "whisper",
			URL:            "http://localhost:8082",
			Model:          "ggml-base",
			Language:       "en",
			Timeout:        2 * time.Minute,
			HealthInterval: 5 * time.Minute,
			FailThreshold:  3,
			MaxConcurrent:  4,
			MinAudioBytes:  100,
		},
	}
}

// LoadConfig 加载配置，优先级：环境变量 > CONFIG_FILE 指定的 YAML > 默认值
// 启动目录下的 .env 会先被载入环境变量（不覆盖已有值）
func LoadConfig() (*Config, error) {
	_ = godotenv.Load()

	cfg := Default()
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := loadFile(path, cfg); err != nil {
			return nil, err
		}
	}

	cfg.Server.Env = getEnv("ENV", cfg.Server.Env)
	cfg.Server.Port = getEnv("PORT", cfg.Server.Port)

	cfg.Data.UsersDir = getEnv("USERS_DIR", cfg.Data.UsersDir)
	cfg.Data.HistoryDir = getEnv("HISTORY_DIR", cfg.Data.HistoryDir)
	cfg.Data.AuditLogsDir = getEnv("AUDIT_LOGS_DIR", cfg.Data.AuditLogsDir)

	cfg.Log.Level = getEnv("LOG_LEVEL", cfg.Log.Level)
	cfg.Log.Format = getEnv("LOG_FORMAT", cfg.Log.Format)
	cfg.Log.File = getEnv("LOG_FILE", cfg.Log.File)

	cfg.Security.JWTSecret = getEnv("USER_JWT_SECRET", cfg.Security.JWTSecret)
	cfg.Security.DefaultStudentPassword = getEnv("DEFAULT_STUDENT_PASSWORD", cfg.Security.DefaultStudentPassword)
	cfg.Security.DefaultTeacherPassword = getEnv("DEFAULT_TEACHER_PASSWORD", cfg.Security.DefaultTeacherPassword)

	cfg.Analyzer.Mode = getEnv("ANALYZER_MODE", cfg.Analyzer.Mode)
	cfg.Analyzer.Match = getEnv("ANALYZER_MATCH", cfg.Analyzer.Match)
	cfg.Transcriber.Mode = getEnv("TRANSCRIBER_MODE", cfg.Transcriber.Mode)
	cfg.Transcriber.URL = getEnv("WHISPER_API_URL", cfg.Transcriber.URL)
	cfg.Transcriber.Model = getEnv("WHISPER_MODEL", cfg.Transcriber.Model)
	cfg.Transcriber.Language = getEnv("WHISPER_LANGUAGE", cfg.Transcriber.Language)

	var errs []string
	if v := os.Getenv("ANALYZER_MIN_LENGTH"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			errs = append(errs, fmt.Sprintf("invalid ANALYZER_MIN_LENGTH: %s", v))
		}
		cfg.Analyzer.MinLength = n
	}
	if v := os.Getenv("ANALYZER_JITTER"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			errs = append(errs, fmt.Sprintf("invalid ANALYZER_JITTER: %s", v))
		}
		cfg.Analyzer.Jitter = b
	}
	if v := os.Getenv("ALLOW_TEACHER_SIGNUP"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			errs = append(errs, fmt.Sprintf("invalid ALLOW_TEACHER_SIGNUP: %s", v))
		}
		cfg.Security.AllowTeacherSignup = b
	}
	if v := os.Getenv("TRANSCRIBER_MAX_CONCURRENT"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			errs = append(errs, fmt.Sprintf("invalid TRANSCRIBER_MAX_CONCURRENT: %s", v))
		}
		cfg.Transcriber.MaxConcurrent = n
	}
	for key, dst := range map[string]*time.Duration{
		"TOKEN_TTL":                   &cfg.Security.TokenTTL,
		"TRANSCRIBER_TIMEOUT":         &cfg.Transcriber.Timeout,
		"TRANSCRIBER_HEALTH_INTERVAL": &cfg.Transcriber.HealthInterval,
	} {
		if v := os.Getenv(key); v != "" {
			d, err := time.ParseDuration(v)
			if err != nil {
				errs = append(errs, fmt.Sprintf("invalid %s: %s", key, v))
				continue
			}
			*dst = d
		}
	}
	if len(errs) > 0 {
		return nil, fmt.Errorf("configuration parse failed:\n  - %s", strings.Join(errs, "\n  - "))
	}

	return cfg, nil
}

// loadFile 读取 YAML 配置文件覆盖默认值
func loadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

// ValidateConfig 验证配置的有效性
func ValidateConfig(cfg *Config) error {
	var errors []string

	// 1. JWT Secret 验证
	if cfg.Security.JWTSecret == "" {
		errors = append(errors, "USER_JWT_SECRET is required")
	} else if len(cfg.Security.JWTSecret) < 32 {
		errors = append(errors, "USER_JWT_SECRET must be at least 32 characters long")
	}

	// 2. 生产环境必须配置默认账号密码
	if cfg.IsProduction() {
		for name, pw := range map[string]string{
			"DEFAULT_STUDENT_PASSWORD": cfg.Security.DefaultStudentPassword,
			"DEFAULT_TEACHER_PASSWORD": cfg.Security.DefaultTeacherPassword,
		} {
			if len(pw) < 8 {
				errors = append(errors, fmt.Sprintf("%s must be at least 8 characters long in production", name))
			}
		}
	}

	// 3. 端口验证
	if port, err := strconv.Atoi(cfg.Server.Port); err != nil || port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid PORT value: %s (must be 1-65535)", cfg.Server.Port))
	}

	// 4. 日志级别与格式
	validLogLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLogLevels[cfg.Log.Level] {
		errors = append(errors, fmt.Sprintf("invalid LOG_LEVEL: %s (must be: debug, info, warn, error)", cfg.Log.Level))
	}
	validLogFormats := map[string]bool{"console": true, "json": true}
	if !validLogFormats[cfg.Log.Format] {
		errors = append(errors, fmt.Sprintf("invalid LOG_FORMAT: %s (must be: console, json)", cfg.Log.Format))
	}

	// 5. 环境验证
	validEnvs := map[string]bool{"dev": true, "development": true, "staging": true, "production": true}
	if !validEnvs[cfg.Server.Env] {
		errors = append(errors, fmt.Sprintf("invalid ENV: %s (must be: dev, development, staging, production)", cfg.Server.Env))
	}

	// 6. 分析器
	if m := cfg.Analyzer.Mode; m != "enhanced" && m != "simple" {
		errors = append(errors, fmt.Sprintf("invalid ANALYZER_MODE: %s (must be: enhanced, simple)", m))
	}
	if m := cfg.Analyzer.Match; m != "substring" && m != "token" {
		errors = append(errors, fmt.Sprintf("invalid ANALYZER_MATCH: %s (must be: substring, token)", m))
	}
	if cfg.Analyzer.MinLength < 1 {
		errors = append(errors, "ANALYZER_MIN_LENGTH must be positive")
	}

	// 7. 转写服务
	switch cfg.Transcriber.Mode {
	case "whisper":
		if cfg.Transcriber.URL == "" {
			errors = append(errors, "WHISPER_API_URL is required when TRANSCRIBER_MODE=whisper")
		}
	case "mock":
	default:
		errors = append(errors, fmt.Sprintf("invalid TRANSCRIBER_MODE: %s (must be: whisper, mock)", cfg.Transcriber.Mode))
	}
	if cfg.Transcriber.MaxConcurrent < 1 {
		errors = append(errors, "TRANSCRIBER_MAX_CONCURRENT must be positive")
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n  - %s", strings.Join(errors, "\n  - "))
	}

	return nil
}

// IsProduction 判断是否为生产环境
func (c *Config) IsProduction() bool {
	return c.Server.Env == "production"
}

// IsDevelopment 判断是否为开发环境
func (c *Config) IsDevelopment() bool {
	return c.Server.Env == "dev" || c.Server.Env == "development"
}

// GetServerAddr 获取服务器监听地址
func (c *Config) GetServerAddr() string {
	return ":" + c.Server.Port
}

// PrintConfig 打印配置（脱敏）
func (c *Config) PrintConfig() string {
	return fmt.Sprintf(`Configuration Loaded:
  Environment: %s
  Server Port: %s
  Data Directories:
    - Users: %s
    - History: %s
    - Audit Logs: %s
  Logging:
    - Level: %s
    - Format: %s
    - File: %s
  Security:
    - JWT Secret: %s
    - Token TTL: %s
    - Student Password: %s
    - Teacher Password: %s
    - Teacher Signup: %t
  Analyzer:
    - Mode: %s
    - Match: %s
    - Min Length: %d
    - Jitter: %t
  Transcriber:
    - Mode: %s
    - URL: %s
    - Model: %s
    - Max Concurrent: %d`,
		c.Server.Env,
		c.Server.Port,
		c.Data.UsersDir,
		c.Data.HistoryDir,
		c.Data.AuditLogsDir,
		c.Log.Level,
		c.Log.Format,
		c.Log.File,
		maskSecret(c.Security.JWTSecret),
		c.Security.TokenTTL,
		maskSecret(c.Security.DefaultStudentPassword),
		maskSecret(c.Security.DefaultTeacherPassword),
		c.Security.AllowTeacherSignup,
		c.Analyzer.Mode,
		c.Analyzer.Match,
		c.Analyzer.MinLength,
		c.Analyzer.Jitter,
		c.Transcriber.Mode,
		c.Transcriber.URL,
		c.Transcriber.Model,
		c.Transcriber.MaxConcurrent,
	)
}

// 辅助函数

// getEnv 获取环境变量，如果不存在则返回默认值
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// maskSecret 对敏感信息进行脱敏
func maskSecret(secret string) string {
	if secret == "" {
		return "<not set>"
	}
	if len(secret) <= 8 {
		return "***"
	}
	return secret[:4] + "***" + secret[len(secret)-4:]
}
