package audit

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"gopkg.in/natefinch/lumberjack.v2"
)

// AuditAction 审计日志操作类型
type AuditAction string

const (
	ActionRegister      AuditAction = "register"
	ActionLogin         AuditAction = "login"
	ActionLoginFailed   AuditAction = "login_failed"
	ActionEvaluate      AuditAction = "evaluate"
	ActionSaveHistory   AuditAction = "save_history"
	ActionDeleteHistory AuditAction = "delete_history"
)

// FileName 审计日志文件名（轮转后的旧文件由 lumberjack 重命名）
const FileName = "audit.log"

// AuditEntry 审计日志条目
type AuditEntry struct {
	Timestamp  time.Time   `json:"timestamp"`
	Operator   string      `json:"operator"`          // 操作者用户名
	Action     AuditAction `json:"action"`            // 操作类型
	ResourceID string      `json:"resource_id"`       // 资源标识 (history id, 学号等)
	Result     string      `json:"result"`            // success / failed / rejected
	Details    string      `json:"details,omitempty"` // 额外详情
}

// AuditLogger 审计日志记录器接口
type AuditLogger interface {
	// LogAction 记录一条审计日志
	LogAction(operator string, action AuditAction, resourceID, result, details string) error
}

// FileAuditLogger 基于 lumberjack 轮转文件的 JSONL 审计日志
type FileAuditLogger struct {
	writer *lumberjack.Logger
	mu     sync.Mutex
	now    func() time.Time
}

// NewFileAuditLogger 创建文件审计日志记录器
// 单文件 100MB 轮转，保留 10 个备份 / 30 天，旧文件压缩
func NewFileAuditLogger(baseDir string) (*FileAuditLogger, error) {
	if err := os.MkdirAll(baseDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create audit logs directory: %w", err)
	}
	return &FileAuditLogger{
		writer: &lumberjack.Logger{
			Filename:   filepath.Join(baseDir, FileName),
			MaxSize:    100,
			MaxBackups: 10,
			MaxAge:     30,
			Compress:   true,
		},
		now: time.Now,
	}, nil
}

// Path 返回当前审计日志文件路径
func (f *FileAuditLogger) Path() string { return f.writer.Filename }

// LogAction 追加一行 JSON
func (f *FileAuditLogger) LogAction(operator string, action AuditAction, resourceID, result, details string) error {
	if operator == "" {
		operator = "anonymous"
	}
	entry := AuditEntry{
		Timestamp:  f.now().UTC(),
		Operator:   operator,
		Action:     action,
		ResourceID: resourceID,
		Result:     result,
		Details:    details,
	}
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal audit entry: %w", err)
	}
	data = append(data, '\n')

	f.mu.Lock()
	defer f.mu.Unlock()
	if _, err := f.writer.Write(data); err != nil {
		return fmt.Errorf("failed to write audit entry: %w", err)
	}
	return nil
}

// Close 关闭底层文件
func (f *FileAuditLogger) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.writer.Close()
}

// NopAuditLogger 丢弃所有审计日志，用于测试或未配置目录时
type NopAuditLogger struct{}

func (NopAuditLogger) LogAction(string, AuditAction, string, string, string) error { return nil }
