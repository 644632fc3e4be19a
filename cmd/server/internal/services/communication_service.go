package services

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/houzhh15/studybuddy/cmd/server/internal/audit"
	"github.com/houzhh15/studybuddy/cmd/server/internal/history"
	"github.com/houzhh15/studybuddy/cmd/server/internal/metrics"
	"github.com/houzhh15/studybuddy/cmd/server/internal/transcriber"
	"github.com/houzhh15/studybuddy/cmd/server/internal/users"
	"github.com/houzhh15/studybuddy/pkg/commskills"
	"github.com/houzhh15/studybuddy/pkg/logger"
	pkgmetrics "github.com/houzhh15/studybuddy/pkg/metrics"
)

var (
	// ErrBusy 转写并发已满且在等待时限内未获得名额
	ErrBusy = errors.New("transcription capacity exhausted, try again later")
	// ErrForbidden 当前用户无权访问该学生的历史记录
	ErrForbidden = errors.New("access to this student's history is not allowed")
)

// TranscriberSource 提供当前可用的转写实现（通常是降级控制器）
type TranscriberSource interface {
	GetTranscriber() transcriber.Transcriber
}

// staticSource 固定返回同一个转写实现
type staticSource struct{ t transcriber.Transcriber }

func (s staticSource) GetTranscriber() transcriber.Transcriber { return s.t }

// StaticTranscriber 将单个实现包装为 TranscriberSource
func StaticTranscriber(t transcriber.Transcriber) TranscriberSource { return staticSource{t: t} }

// Actor 发起请求的用户
type Actor struct {
	Username string
	UserType string
	Scopes   []string
}

// CanAccessStudent 学生只能访问自己的记录；拥有 history.read_all 的教师可访问任意学生
func (a Actor) CanAccessStudent(student string) bool {
	if users.HasScope(a.Scopes, users.ScopeHistoryReadAll) {
		return true
	}
	return a.Username != "" && a.Username == student
}

// CommunicationConfig 服务参数
type CommunicationConfig struct {
	MaxConcurrent  int           // 同时进行的转写上限
	AcquireTimeout time.Duration // 等待转写名额的时限，默认 30s
	MinAudioBytes  int           // 小于该长度的音频直接判定为无语音
	Language       string        // 转写语言
}

// CommunicationService 串联转写、评估、历史记录与审计
type CommunicationService struct {
	analyzer       *commskills.Analyzer
	transcribers   TranscriberSource
	history        *history.Store
	audit          audit.AuditLogger
	logger         *slog.Logger
	limiter        *semaphore.Weighted
	acquireTimeout time.Duration
	minAudioBytes  int
	language       string
}

// NewCommunicationService 创建服务；transcribers 为 nil 时仅支持文本评估
func NewCommunicationService(
	analyzer *commskills.Analyzer,
	transcribers TranscriberSource,
	store *history.Store,
	auditLogger audit.AuditLogger,
	log *slog.Logger,
	cfg CommunicationConfig,
) *CommunicationService {
	if cfg.MaxConcurrent <= 0 {
		cfg.MaxConcurrent = 1
	}
	if cfg.AcquireTimeout <= 0 {
		cfg.AcquireTimeout = 30 * time.Second
	}
	if auditLogger == nil {
		auditLogger = audit.NopAuditLogger{}
	}
	if log == nil {
		log = slog.Default()
	}
	return &CommunicationService{
		analyzer:       analyzer,
		transcribers:   transcribers,
		history:        store,
		audit:          auditLogger,
		logger:         log,
		limiter:        semaphore.NewWeighted(int64(cfg.MaxConcurrent)),
		acquireTimeout: cfg.AcquireTimeout,
		minAudioBytes:  cfg.MinAudioBytes,
		language:       cfg.Language,
	}
}

// EvaluateText 直接评估一段文本
func (s *CommunicationService) EvaluateText(ctx context.Context, actor Actor, transcript string) commskills.EvaluationResult {
	start := time.Now()
	res := s.analyzer.Evaluate(transcript)
	s.observe(actor, "text", res, start, "")
	return res
}

// EvaluateAudio 解码 base64 音频、转写后评估
// 解码失败、音频过短、转写失败都返回兜底结果而非错误；
// 仅当转写名额等待超时或请求被取消时返回 error
func (s *CommunicationService) EvaluateAudio(ctx context.Context, actor Actor, audioData, format string) (commskills.EvaluationResult, error) {
	start := time.Now()

	audio, err := decodeAudio(audioData)
	if err != nil {
		s.logger.Warn("audio payload could not be decoded", "user", actor.Username, "error", err)
		res := s.analyzer.Fallback(commskills.ReasonTranscriptionError, "")
		s.observe(actor, "audio", res, start, "decode_failed")
		return res, nil
	}
	if len(audio) < s.minAudioBytes {
		s.logger.Warn("audio payload too small", "user", actor.Username, "bytes", len(audio), "min_bytes", s.minAudioBytes)
		res := s.analyzer.Fallback(commskills.ReasonTooShort, "")
		s.observe(actor, "audio", res, start, "audio_too_small")
		return res, nil
	}

	text, code, err := s.transcribe(ctx, audio, format)
	if err != nil {
		return commskills.EvaluationResult{}, err
	}
	if code != "" {
		res := s.analyzer.Fallback(commskills.ReasonTranscriptionError, "")
		s.observe(actor, "audio", res, start, code)
		return res, nil
	}

	res := s.analyzer.Evaluate(text)
	s.observe(actor, "audio", res, start, "")
	return res, nil
}

// transcribe 在并发上限内执行一次转写
// 返回的 code 非空表示转写未产出可用文本（failed / sentinel）
func (s *CommunicationService) transcribe(ctx context.Context, audio []byte, format string) (string, string, error) {
	if s.transcribers == nil {
		return "", "transcriber_unavailable", nil
	}

	acquireCtx, cancel := context.WithTimeout(ctx, s.acquireTimeout)
	defer cancel()
	if err := s.limiter.Acquire(acquireCtx, 1); err != nil {
		if ctx.Err() != nil {
			return "", "", ctx.Err()
		}
		return "", "", ErrBusy
	}
	defer s.limiter.Release(1)

	t := s.transcribers.GetTranscriber()
	began := time.Now()
	result, err := t.Transcribe(ctx, audio, format, &transcriber.Options{Language: s.language})
	elapsed := time.Since(began).Seconds()

	if err != nil {
		pkgmetrics.RecordTranscription(t.Name(), "failed", elapsed)
		s.logger.Error("transcription failed", "transcriber", t.Name(), "error", err)
		return "", "transcription_failed", nil
	}

	text := transcriber.Normalize(result.Text)
	switch {
	case transcriber.IsFailureSentinel(text):
		pkgmetrics.RecordTranscription(t.Name(), "sentinel", elapsed)
		s.logger.Warn("transcriber returned a failure message", "transcriber", t.Name(), "text", text)
		return "", "transcription_sentinel", nil
	case text == "":
		pkgmetrics.RecordTranscription(t.Name(), "empty", elapsed)
	default:
		pkgmetrics.RecordTranscription(t.Name(), "success", elapsed)
	}
	return text, "", nil
}

// decodeAudio 接受标准或 URL 安全 base64，允许 data URL 前缀
func decodeAudio(data string) ([]byte, error) {
	data = strings.TrimSpace(data)
	if i := strings.Index(data, ";base64,"); i >= 0 && strings.HasPrefix(data, "data:") {
		data = data[i+len(";base64,"):]
	}
	if data == "" {
		return nil, errors.New("empty audio data")
	}
	if b, err := base64.StdEncoding.DecodeString(data); err == nil {
		return b, nil
	}
	b, err := base64.RawURLEncoding.DecodeString(strings.TrimRight(data, "="))
	if err != nil {
		return nil, fmt.Errorf("invalid base64 audio: %w", err)
	}
	return b, nil
}

// observe 记录评估的日志、指标与审计
func (s *CommunicationService) observe(actor Actor, source string, res commskills.EvaluationResult, start time.Time, errCode string) {
	elapsed := time.Since(start)
	outcome := "scored"
	switch {
	case res.Analysis.Error != "":
		outcome = "degraded"
		if errCode == "" {
			errCode = "analyzer_panic"
		}
	case res.Analysis.Fallback:
		outcome = "fallback"
	}
	mode := string(s.analyzer.Mode())

	metrics.RecordEvaluation(source, mode, outcome, res.Clarity, res.Confidence, res.Articulation, elapsed.Seconds())
	logger.LogEvaluation(s.logger, logger.EvaluationEvent{
		Source:       source,
		Mode:         mode,
		Student:      actor.Username,
		WordCount:    res.Analysis.WordCount,
		Clarity:      res.Clarity,
		Confidence:   res.Confidence,
		Articulation: res.Articulation,
		Fallback:     res.Analysis.Fallback,
		DurationMs:   elapsed.Milliseconds(),
		ErrorCode:    errCode,
	})

	result := "success"
	if errCode != "" {
		result = "failed"
	}
	details := fmt.Sprintf("source=%s outcome=%s words=%d", source, outcome, res.Analysis.WordCount)
	if err := s.audit.LogAction(actor.Username, audit.ActionEvaluate, actor.Username, result, details); err != nil {
		s.logger.Warn("audit write failed", "error", err)
	}
}

// SaveHistory 保存一次练习记录
func (s *CommunicationService) SaveHistory(actor Actor, rec history.Record) (history.Record, error) {
	student := strings.TrimSpace(rec.StudentRegisterNumber)
	if student == "" {
		return history.Record{}, errors.New("student_register_number required")
	}
	if !actor.CanAccessStudent(student) {
		s.auditHistory(actor, audit.ActionSaveHistory, student, "rejected", ErrForbidden.Error())
		return history.Record{}, ErrForbidden
	}

	saved, err := s.history.Save(rec)
	metrics.RecordHistoryOp("save", err == nil)
	if err != nil {
		s.logger.Error("save communication history failed", "student", student, "error", err)
		return history.Record{}, err
	}
	details := ""
	if saved.RepeatOf != "" {
		details = "repeat_of=" + saved.RepeatOf
	}
	s.auditHistory(actor, audit.ActionSaveHistory, saved.ID, "success", details)
	return saved, nil
}

// ListHistory 按时间倒序列出某学生的记录
func (s *CommunicationService) ListHistory(actor Actor, student string) ([]history.Record, error) {
	if !actor.CanAccessStudent(student) {
		return nil, ErrForbidden
	}
	records := s.history.ListByStudent(student)
	metrics.RecordHistoryOp("list", true)
	return records, nil
}

// DeleteHistory 删除一条记录；学生只能删除自己的记录
func (s *CommunicationService) DeleteHistory(actor Actor, id string) error {
	rec, err := s.history.Get(id)
	if err != nil {
		metrics.RecordHistoryOp("delete", false)
		return err
	}
	if !actor.CanAccessStudent(rec.StudentRegisterNumber) {
		s.auditHistory(actor, audit.ActionDeleteHistory, id, "rejected", ErrForbidden.Error())
		return ErrForbidden
	}
	err = s.history.Delete(id)
	metrics.RecordHistoryOp("delete", err == nil)
	if err != nil {
		return err
	}
	s.auditHistory(actor, audit.ActionDeleteHistory, id, "success", "student="+rec.StudentRegisterNumber)
	return nil
}

func (s *CommunicationService) auditHistory(actor Actor, action audit.AuditAction, resource, result, details string) {
	if err := s.audit.LogAction(actor.Username, action, resource, result, details); err != nil {
		s.logger.Warn("audit write failed", "error", err)
	}
}
