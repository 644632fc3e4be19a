// Package history 以单个 JSON 文档保存学生的沟通能力练习记录
// 每次写入都整体替换文件
package history

import (
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/houzhh15/studybuddy/cmd/server/internal/simhash"
	"github.com/houzhh15/studybuddy/cmd/server/internal/utils"
	"github.com/houzhh15/studybuddy/pkg/commskills"
)

// FileName 历史记录文件名
const FileName = "communication_history.json"

// DefaultType 记录类型默认值
const DefaultType = "communication_skills"

var (
	ErrNotFound  = errors.New("item not found")
	ErrNoHistory = errors.New("no communication history found")
)

// Record 一次练习的完整记录
type Record struct {
	ID                    string              `json:"id"`
	StudentRegisterNumber string              `json:"student_register_number"`
	Transcription         string              `json:"transcription"`
	Clarity               int                 `json:"clarity"`
	Confidence            int                 `json:"confidence"`
	Articulation          int                 `json:"articulation"`
	Feedback              string              `json:"feedback"`
	Suggestions           string              `json:"suggestions"`
	Analysis              commskills.Analysis `json:"analysis"`
	Timestamp             string              `json:"timestamp"`
	Type                  string              `json:"type"`
	Fingerprint           uint64              `json:"fingerprint,string,omitempty"`
	RepeatOf              string              `json:"repeat_of,omitempty"`
}

// FromResult 由评估结果构造待保存的记录
func FromResult(student string, res commskills.EvaluationResult) Record {
	return Record{
		StudentRegisterNumber: student,
		Transcription:         res.Transcription,
		Clarity:               res.Clarity,
		Confidence:            res.Confidence,
		Articulation:          res.Articulation,
		Feedback:              res.Feedback,
		Suggestions:           res.Suggestions,
		Analysis:              res.Analysis,
	}
}

// Store 基于文件的历史记录存储，进程内串行化读写
type Store struct {
	mu     sync.Mutex
	path   string
	logger *slog.Logger
	now    func() time.Time
}

// NewStore 创建存储，dir 不存在时在首次写入时创建
func NewStore(dir string, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{path: filepath.Join(dir, FileName), logger: logger, now: time.Now}
}

// Path 返回文件路径
func (s *Store) Path() string { return s.path }

// load 读取全部记录；文件缺失或损坏时视为空列表，ok 表示文件存在
func (s *Store) load() ([]Record, bool) {
	var records []Record
	found, err := utils.ReadJSON(s.path, &records)
	if err != nil {
		if found {
			s.logger.Warn("communication history unreadable, treating as empty", "path", s.path, "error", err)
		}
		return nil, found
	}
	return records, found
}

// save 整体写入
func (s *Store) save(records []Record) error {
	if records == nil {
		records = []Record{}
	}
	if err := utils.WriteJSONAtomic(s.path, records, 0644); err != nil {
		return fmt.Errorf("save history: %w", err)
	}
	return nil
}

// Save 追加一条记录，补全 id / timestamp / type，并标记同一学生的近似重复练习
func (s *Store) Save(rec Record) (Record, error) {
	rec.StudentRegisterNumber = strings.TrimSpace(rec.StudentRegisterNumber)
	if rec.StudentRegisterNumber == "" {
		return Record{}, errors.New("student_register_number required")
	}
	rec.ID = uuid.NewString()
	if rec.Timestamp == "" {
		rec.Timestamp = s.now().UTC().Format(time.RFC3339Nano)
	}
	if rec.Type == "" {
		rec.Type = DefaultType
	}
	rec.RepeatOf = ""
	rec.Fingerprint = 0
	if strings.TrimSpace(rec.Transcription) != "" {
		rec.Fingerprint = simhash.CalculateSimHash(rec.Transcription)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	records, _ := s.load()
	if rec.Fingerprint != 0 {
		var ids []string
		var hashes []uint64
		for _, r := range records {
			if r.StudentRegisterNumber == rec.StudentRegisterNumber && r.Fingerprint != 0 {
				ids = append(ids, r.ID)
				hashes = append(hashes, r.Fingerprint)
			}
		}
		if idx, _ := simhash.Nearest(rec.Fingerprint, hashes); idx >= 0 {
			rec.RepeatOf = ids[idx]
		}
	}

	records = append(records, rec)
	if err := s.save(records); err != nil {
		return Record{}, err
	}
	return rec, nil
}

// ListByStudent 返回某学生的全部记录，按 timestamp 倒序
func (s *Store) ListByStudent(student string) []Record {
	s.mu.Lock()
	records, _ := s.load()
	s.mu.Unlock()

	out := []Record{}
	for _, r := range records {
		if r.StudentRegisterNumber == student {
			out = append(out, r)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Timestamp > out[j].Timestamp })
	return out
}

// Get 按 id 查找
func (s *Store) Get(id string) (Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	records, ok := s.load()
	if !ok {
		return Record{}, ErrNoHistory
	}
	for _, r := range records {
		if r.ID == id {
			return r, nil
		}
	}
	return Record{}, ErrNotFound
}

// Delete 按 id 删除
func (s *Store) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, ok := s.load()
	if !ok {
		return ErrNoHistory
	}
	kept := records[:0]
	found := false
	for _, r := range records {
		if r.ID == id {
			found = true
			continue
		}
		kept = append(kept, r)
	}
	if !found {
		return ErrNotFound
	}
	return s.save(kept)
}
