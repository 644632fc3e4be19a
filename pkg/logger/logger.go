package logger

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Config 定义日志初始化配置
// Level 支持 debug/info/warn/error，Environment 为 prod 或 Format 为 json 时输出 JSON
// File 非空时同时写入滚动日志文件
type Config struct {
	Level       string
	Environment string
	Format      string
	WithSource  bool
	File        string
	MaxSizeMB   int
	MaxBackups  int
	MaxAgeDays  int
}

var (
	global *slog.Logger
	once   sync.Once
)

func levelFromString(level string) (slog.Level, error) {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, errors.New("invalid log level: " + level)
	}
}

// output 返回日志输出目标，配置了文件时 stdout 与文件双写
func output(cfg Config) io.Writer {
	if cfg.File == "" {
		return os.Stdout
	}
	rotator := &lumberjack.Logger{
		Filename:   cfg.File,
		MaxSize:    orDefault(cfg.MaxSizeMB, 100),
		MaxBackups: orDefault(cfg.MaxBackups, 10),
		MaxAge:     orDefault(cfg.MaxAgeDays, 30),
		Compress:   true,
	}
	return io.MultiWriter(os.Stdout, rotator)
}

func orDefault(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}

// New 根据配置创建新的 slog.Logger，不设置全局实例
func New(cfg Config) (*slog.Logger, error) {
	return newWithWriter(cfg, output(cfg))
}

func newWithWriter(cfg Config, w io.Writer) (*slog.Logger, error) {
	lvl, err := levelFromString(cfg.Level)
	if err != nil {
		return nil, err
	}

	handlerOpts := &slog.HandlerOptions{Level: lvl, AddSource: cfg.WithSource}
	var handler slog.Handler
	env := strings.ToLower(cfg.Environment)
	if env == "prod" || env == "production" || strings.EqualFold(cfg.Format, "json") {
		handler = slog.NewJSONHandler(w, handlerOpts)
	} else {
		handler = slog.NewTextHandler(w, handlerOpts)
	}

	return slog.New(handler), nil
}

// Init 初始化全局日志实例，重复调用将返回首次创建的 logger
func Init(cfg Config) (*slog.Logger, error) {
	var initErr error
	once.Do(func() {
		global, initErr = New(cfg)
	})
	return global, initErr
}

// L 返回已初始化的全局 logger，未初始化时 panic
func L() *slog.Logger {
	if global == nil {
		panic("logger.Init must be called before logger.L")
	}
	return global
}

// EvaluationEvent 描述一次沟通能力评估
type EvaluationEvent struct {
	Source       string // text / audio
	Mode         string // enhanced / simple
	Student      string
	WordCount    int
	Clarity      int
	Confidence   int
	Articulation int
	Fallback     bool
	DurationMs   int64
	ErrorCode    string
}

// LogEvaluation 记录评估事件的结构化日志
// ErrorCode 非空时以 WARN 级别输出
func LogEvaluation(logger *slog.Logger, ev EvaluationEvent) {
	attrs := []slog.Attr{
		slog.String("source", ev.Source),
		slog.String("mode", ev.Mode),
		slog.String("student", ev.Student),
		slog.Int("word_count", ev.WordCount),
		slog.Int("clarity", ev.Clarity),
		slog.Int("confidence", ev.Confidence),
		slog.Int("articulation", ev.Articulation),
		slog.Bool("fallback", ev.Fallback),
		slog.Int64("duration_ms", ev.DurationMs),
	}

	if ev.ErrorCode != "" {
		attrs = append(attrs, slog.String("error_code", ev.ErrorCode))
		logger.LogAttrs(context.Background(), slog.LevelWarn, "communication evaluation degraded", attrs...)
	} else {
		logger.LogAttrs(context.Background(), slog.LevelInfo, "communication evaluation", attrs...)
	}
}
