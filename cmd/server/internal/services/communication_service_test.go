package services

import (
	"context"
	"encoding/base64"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/houzhh15/studybuddy/cmd/server/internal/audit"
	"github.com/houzhh15/studybuddy/cmd/server/internal/history"
	"github.com/houzhh15/studybuddy/cmd/server/internal/transcriber"
	"github.com/houzhh15/studybuddy/cmd/server/internal/users"
	"github.com/houzhh15/studybuddy/pkg/commskills"
)

const intro = "Hello my name is John and I like programming. I am confident and excited about this opportunity."

type fakeTranscriber struct {
	text    string
	err     error
	block   chan struct{}
	started chan struct{}
	once    sync.Once
	calls   int
	mu      sync.Mutex
}

func (f *fakeTranscriber) Transcribe(ctx context.Context, audio []byte, format string, opts *transcriber.Options) (*transcriber.Result, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	if f.started != nil {
		f.once.Do(func() { close(f.started) })
	}
	if f.block != nil {
		<-f.block
	}
	if f.err != nil {
		return nil, f.err
	}
	return &transcriber.Result{Text: f.text}, nil
}

func (f *fakeTranscriber) HealthCheck(ctx context.Context) (bool, error) { return true, nil }
func (f *fakeTranscriber) Name() string                                  { return "fake" }

var (
	student = Actor{Username: "21CS001", UserType: users.TypeStudent, Scopes: []string{users.ScopeEvaluate, users.ScopeHistoryRead, users.ScopeHistoryWrite}}
	teacher = Actor{Username: "teacher", UserType: users.TypeTeacher, Scopes: []string{users.ScopeEvaluate, users.ScopeHistoryRead, users.ScopeHistoryWrite, users.ScopeHistoryReadAll}}
)

func newService(t *testing.T, tr transcriber.Transcriber, cfg CommunicationConfig) *CommunicationService {
	t.Helper()
	analyzer := commskills.New(commskills.Options{DisableJitter: true})
	var src TranscriberSource
	if tr != nil {
		src = StaticTranscriber(tr)
	}
	if cfg.MinAudioBytes == 0 {
		cfg.MinAudioBytes = 100
	}
	return NewCommunicationService(analyzer, src, history.NewStore(t.TempDir(), nil), audit.NopAuditLogger{}, nil, cfg)
}

func audioPayload(n int) string {
	return base64.StdEncoding.EncodeToString([]byte(strings.Repeat("A", n)))
}

func TestEvaluateText(t *testing.T) {
	svc := newService(t, nil, CommunicationConfig{})

	res := svc.EvaluateText(context.Background(), student, "  "+intro+"\n")
	assert.Equal(t, commskills.ScoreTriple{Clarity: 81, Confidence: 64, Articulation: 94}, res.Scores())
	assert.Equal(t, "  "+intro+"\n", res.Transcription, "typed text is scored as given")
	assert.False(t, res.Analysis.Fallback)

	// same input, same result as the in-process analyzer used by the CLI
	typed := "So, you\nknow, I  think this   plan could work for our team."
	local := commskills.New(commskills.Options{DisableJitter: true}).Evaluate(typed)
	got := svc.EvaluateText(context.Background(), student, typed)
	assert.Equal(t, local.Scores(), got.Scores())
	assert.Equal(t, local.Analysis, got.Analysis)
	assert.Equal(t, typed, got.Transcription)

	short := svc.EvaluateText(context.Background(), student, "hi")
	assert.True(t, short.Analysis.Fallback)
	assert.True(t, strings.HasPrefix(short.Feedback, commskills.ReasonTooShort))
}

func TestEvaluateAudio(t *testing.T) {
	ctx := context.Background()

	t.Run("transcribed speech is scored", func(t *testing.T) {
		svc := newService(t, &fakeTranscriber{text: "  " + intro}, CommunicationConfig{})
		res, err := svc.EvaluateAudio(ctx, student, audioPayload(200), "wav")
		require.NoError(t, err)
		assert.Equal(t, 81, res.Clarity)
		assert.Equal(t, 17, res.Analysis.WordCount)
	})

	t.Run("data url prefix accepted", func(t *testing.T) {
		svc := newService(t, &fakeTranscriber{text: intro}, CommunicationConfig{})
		res, err := svc.EvaluateAudio(ctx, student, "data:audio/webm;base64,"+audioPayload(200), "webm")
		require.NoError(t, err)
		assert.False(t, res.Analysis.Fallback)
	})

	t.Run("invalid base64 falls back", func(t *testing.T) {
		fake := &fakeTranscriber{text: intro}
		svc := newService(t, fake, CommunicationConfig{})
		res, err := svc.EvaluateAudio(ctx, student, "%%%not-base64%%%", "wav")
		require.NoError(t, err)
		assert.True(t, res.Analysis.Fallback)
		assert.True(t, strings.HasPrefix(res.Feedback, commskills.ReasonTranscriptionError))
		assert.Zero(t, fake.calls)
	})

	t.Run("tiny audio never reaches transcriber", func(t *testing.T) {
		fake := &fakeTranscriber{text: intro}
		svc := newService(t, fake, CommunicationConfig{})
		res, err := svc.EvaluateAudio(ctx, student, audioPayload(50), "wav")
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(res.Feedback, commskills.ReasonTooShort))
		assert.Zero(t, fake.calls)
	})

	t.Run("transcriber error falls back", func(t *testing.T) {
		svc := newService(t, &fakeTranscriber{err: errors.New("connection refused")}, CommunicationConfig{})
		res, err := svc.EvaluateAudio(ctx, student, audioPayload(200), "wav")
		require.NoError(t, err)
		assert.True(t, res.Analysis.Fallback)
		assert.Empty(t, res.Transcription)
		assert.True(t, strings.HasPrefix(res.Feedback, commskills.ReasonTranscriptionError))
	})

	t.Run("failure sentinel is not scored", func(t *testing.T) {
		svc := newService(t, &fakeTranscriber{text: "I couldn't understand what you said. Please try again with these tips."}, CommunicationConfig{})
		res, err := svc.EvaluateAudio(ctx, student, audioPayload(200), "wav")
		require.NoError(t, err)
		assert.True(t, res.Analysis.Fallback)
		assert.Empty(t, res.Transcription)
	})

	t.Run("degraded mock yields too-short fallback", func(t *testing.T) {
		svc := newService(t, transcriber.NewMock(nil), CommunicationConfig{})
		res, err := svc.EvaluateAudio(ctx, student, audioPayload(200), "wav")
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(res.Feedback, commskills.ReasonTooShort))
	})

	t.Run("no transcriber configured", func(t *testing.T) {
		svc := newService(t, nil, CommunicationConfig{})
		res, err := svc.EvaluateAudio(ctx, student, audioPayload(200), "wav")
		require.NoError(t, err)
		assert.True(t, res.Analysis.Fallback)
	})
}

func TestEvaluateAudio_Busy(t *testing.T) {
	fake := &fakeTranscriber{text: intro, block: make(chan struct{}), started: make(chan struct{})}
	svc := newService(t, fake, CommunicationConfig{MaxConcurrent: 1, AcquireTimeout: 50 * time.Millisecond})

	done := make(chan struct{})
	go func() {
		defer close(done)
		svc.EvaluateAudio(context.Background(), student, audioPayload(200), "wav")
	}()
	<-fake.started

	_, err := svc.EvaluateAudio(context.Background(), student, audioPayload(200), "wav")
	assert.ErrorIs(t, err, ErrBusy)

	close(fake.block)
	<-done
}

func TestActor_CanAccessStudent(t *testing.T) {
	assert.True(t, student.CanAccessStudent("21CS001"))
	assert.False(t, student.CanAccessStudent("21CS002"))
	assert.True(t, teacher.CanAccessStudent("21CS002"))
	assert.False(t, Actor{}.CanAccessStudent(""))
}

func TestHistoryAccess(t *testing.T) {
	svc := newService(t, nil, CommunicationConfig{})
	res := svc.EvaluateText(context.Background(), student, intro)

	saved, err := svc.SaveHistory(student, history.FromResult("21CS001", res))
	require.NoError(t, err)
	assert.NotEmpty(t, saved.ID)

	_, err = svc.SaveHistory(student, history.FromResult("21CS002", res))
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = svc.SaveHistory(student, history.Record{})
	assert.Error(t, err)

	list, err := svc.ListHistory(student, "21CS001")
	require.NoError(t, err)
	assert.Len(t, list, 1)

	_, err = svc.ListHistory(student, "21CS002")
	assert.ErrorIs(t, err, ErrForbidden)

	list, err = svc.ListHistory(teacher, "21CS001")
	require.NoError(t, err)
	assert.Len(t, list, 1)

	other := Actor{Username: "21CS002", UserType: users.TypeStudent, Scopes: student.Scopes}
	assert.ErrorIs(t, svc.DeleteHistory(other, saved.ID), ErrForbidden)
	assert.ErrorIs(t, svc.DeleteHistory(student, "missing"), history.ErrNotFound)
	require.NoError(t, svc.DeleteHistory(student, saved.ID))

	list, _ = svc.ListHistory(student, "21CS001")
	assert.Empty(t, list)
}
