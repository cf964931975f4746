package domain

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voxlog/voxlog/internal/engine"
	"github.com/voxlog/voxlog/internal/ports"
	"github.com/voxlog/voxlog/internal/store"
)

// === фейковые движки ===

type fakeTTS struct {
	id  string
	err error
}

func (f *fakeTTS) ID() string { return f.id }

func (f *fakeTTS) Synthesize(_ context.Context, text, _, wavPath string) error {
	if f.err != nil {
		return f.err
	}
	return os.WriteFile(wavPath, []byte("WAV:"+text), 0o644)
}

type fakeSTT struct {
	id         string
	transcript ports.Transcript
	err        error

	gotAudioPath string
}

func (f *fakeSTT) ID() string { return f.id }

func (f *fakeSTT) Transcribe(_ context.Context, audioPath, _ string) (ports.Transcript, error) {
	f.gotAudioPath = audioPath
	if f.err != nil {
		return ports.Transcript{}, f.err
	}
	return f.transcript, nil
}

type fakeBridge struct {
	encodeErr error
	// настоящий ffmpeg при отказе оставляет обрывок выходного файла
	partialOnFail bool
}

func (f *fakeBridge) EncodeMP3(_ context.Context, wavPath, mp3Path string) error {
	if f.encodeErr != nil {
		if f.partialOnFail {
			_ = os.WriteFile(mp3Path, []byte("MP3:trunc"), 0o644)
		}
		return f.encodeErr
	}
	data, err := os.ReadFile(wavPath)
	if err != nil {
		return err
	}
	return os.WriteFile(mp3Path, append([]byte("MP3:"), data...), 0o644)
}

func (f *fakeBridge) ResamplePCM(_ context.Context, srcPath, wavPath string) error {
	data, err := os.ReadFile(srcPath)
	if err != nil {
		return err
	}
	return os.WriteFile(wavPath, data, 0o644)
}

func (f *fakeBridge) Duration(_ context.Context, _ string) (float64, error) {
	return 1.5, nil
}

type fakeRepo struct {
	mu        sync.Mutex
	nextID    int64
	rows      map[int64]ports.ConversionLog
	createErr error
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{rows: make(map[int64]ports.ConversionLog)}
}

func (r *fakeRepo) Create(_ context.Context, log ports.ConversionLog) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.createErr != nil {
		return 0, r.createErr
	}
	r.nextID++
	log.ID = r.nextID
	r.rows[log.ID] = log
	return log.ID, nil
}

func (r *fakeRepo) GetByID(_ context.Context, id int64) (ports.ConversionLog, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	row, ok := r.rows[id]
	if !ok {
		return ports.ConversionLog{}, sql.ErrNoRows
	}
	return row, nil
}

func (r *fakeRepo) ListByUser(_ context.Context, userID int64) ([]ports.ConversionLog, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []ports.ConversionLog
	for _, row := range r.rows {
		if row.UserID == userID {
			out = append(out, row)
		}
	}
	return out, nil
}

func (r *fakeRepo) Delete(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.rows, id)
	return nil
}

type fakeNotifier struct {
	calls []string
}

func (n *fakeNotifier) Notify(_ context.Context, source string, _ error, _ string) error {
	n.calls = append(n.calls, source)
	return nil
}

type fixture struct {
	svc      ports.ConversionService
	store    *store.Store
	repo     *fakeRepo
	notifier *fakeNotifier
	root     string
}

func newFixture(t *testing.T, engines ...any) *fixture {
	t.Helper()
	root := t.TempDir()
	st := store.New(root, nil)
	repo := newFakeRepo()
	notifier := &fakeNotifier{}

	return &fixture{
		svc:      NewConversionService(registryWith(t, engines...), &fakeBridge{}, st, repo, notifier, nil),
		store:    st,
		repo:     repo,
		notifier: notifier,
		root:     root,
	}
}

func listFiles(t *testing.T, dir string) []string {
	t.Helper()
	var names []string
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil
	}
	require.NoError(t, err)
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}

// === Synthesize ===

func TestSynthesizeSuccess(t *testing.T) {
	fx := newFixture(t, &fakeTTS{id: "espeak"})

	res, err := fx.svc.Synthesize(context.Background(), ports.SynthesisRequest{
		UserID: 7, Engine: "espeak", Language: "en", Text: "  hello world  ",
	})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(res.Filename, "tts_espeak_en_"))
	assert.True(t, strings.HasSuffix(res.Filename, ".mp3"))

	audioDir := filepath.Join(fx.root, "audio", "7")
	files := listFiles(t, audioDir)
	require.Len(t, files, 1, "exactly one artifact, intermediate WAV removed")
	assert.Equal(t, res.Filename, files[0])

	data, err := os.ReadFile(filepath.Join(audioDir, files[0]))
	require.NoError(t, err)
	assert.Equal(t, "MP3:WAV:hello world", string(data), "text is trimmed before synthesis")

	require.Len(t, fx.repo.rows, 1)
	row := fx.repo.rows[1]
	assert.Equal(t, ports.TypeTTS, row.Type)
	assert.Equal(t, "espeak:en", row.Language)
	require.NotNil(t, row.InputText)
	assert.Equal(t, "hello world", *row.InputText)
	assert.Equal(t, res.Filename, row.OutputFilename)
}

func TestSynthesizeEmptyText(t *testing.T) {
	fx := newFixture(t, &fakeTTS{id: "espeak"})

	_, err := fx.svc.Synthesize(context.Background(), ports.SynthesisRequest{
		UserID: 7, Engine: "espeak", Language: "en", Text: "   ",
	})
	assert.True(t, ports.IsKind(err, ports.InputRejected), "got %v", err)
	assert.Empty(t, fx.repo.rows)
}

func TestSynthesizeTextTooLong(t *testing.T) {
	fx := newFixture(t, &fakeTTS{id: "espeak"})

	_, err := fx.svc.Synthesize(context.Background(), ports.SynthesisRequest{
		UserID: 7, Engine: "espeak", Language: "en", Text: strings.Repeat("я", maxTTSTextLen+1),
	})
	assert.True(t, ports.IsKind(err, ports.InputRejected), "limit counts runes, got %v", err)
}

func TestSynthesizeUnknownEngine(t *testing.T) {
	fx := newFixture(t, &fakeTTS{id: "espeak"})

	_, err := fx.svc.Synthesize(context.Background(), ports.SynthesisRequest{
		UserID: 7, Engine: "sirenvox", Language: "en", Text: "hello",
	})
	assert.True(t, ports.IsKind(err, ports.InputRejected), "got %v", err)
	assert.Empty(t, listFiles(t, filepath.Join(fx.root, "audio", "7")), "rejection happens before any side effects")
}

func TestSynthesizeEngineUnavailableLeavesNothing(t *testing.T) {
	fx := newFixture(t, &fakeTTS{id: "espeak", err: ports.Fail(ports.EngineUnavailable, "espeak not found")})

	_, err := fx.svc.Synthesize(context.Background(), ports.SynthesisRequest{
		UserID: 7, Engine: "espeak", Language: "en", Text: "hello",
	})
	assert.True(t, ports.IsKind(err, ports.EngineUnavailable), "got %v", err)
	assert.Empty(t, listFiles(t, filepath.Join(fx.root, "audio", "7")))
	assert.Empty(t, fx.repo.rows)
	assert.Empty(t, fx.notifier.calls, "unavailable engine is not an execution failure")
}

func TestSynthesizeExecutionErrorNotifiesAdmin(t *testing.T) {
	fx := newFixture(t, &fakeTTS{id: "espeak", err: ports.Fail(ports.EngineExecutionError, "espeak: boom")})

	_, err := fx.svc.Synthesize(context.Background(), ports.SynthesisRequest{
		UserID: 7, Engine: "espeak", Language: "en", Text: "hello",
	})
	assert.True(t, ports.IsKind(err, ports.EngineExecutionError), "got %v", err)
	assert.Equal(t, []string{"espeak"}, fx.notifier.calls)
}

func TestSynthesizeEncodeFailureIsHard(t *testing.T) {
	fx := newFixture(t, &fakeTTS{id: "espeak"})
	fx.svc = NewConversionService(
		registryWith(t, &fakeTTS{id: "espeak"}),
		&fakeBridge{
			encodeErr:     ports.Fail(ports.TranscodeFailure, "ffmpeg: boom"),
			partialOnFail: true,
		},
		fx.store, fx.repo, fx.notifier, nil,
	)

	_, err := fx.svc.Synthesize(context.Background(), ports.SynthesisRequest{
		UserID: 7, Engine: "espeak", Language: "en", Text: "hello",
	})
	assert.True(t, ports.IsKind(err, ports.TranscodeFailure), "got %v", err)
	assert.Empty(t, listFiles(t, filepath.Join(fx.root, "audio", "7")),
		"no WAV fallback and no truncated MP3: nothing is kept")
	assert.Empty(t, fx.repo.rows)
}

func TestSynthesizePersistFailureRemovesArtifact(t *testing.T) {
	fx := newFixture(t, &fakeTTS{id: "espeak"})
	fx.repo.createErr = errors.New("connection refused")

	_, err := fx.svc.Synthesize(context.Background(), ports.SynthesisRequest{
		UserID: 7, Engine: "espeak", Language: "en", Text: "hello",
	})
	assert.True(t, ports.IsKind(err, ports.PersistFailure), "got %v", err)
	assert.Empty(t, listFiles(t, filepath.Join(fx.root, "audio", "7")), "orphan artifact must not survive a failed log insert")
}

func registryWith(t *testing.T, engines ...any) *engine.Registry {
	t.Helper()
	reg := engine.NewRegistry()
	for _, e := range engines {
		switch e := e.(type) {
		case ports.TTSEngine:
			reg.RegisterTTS(e)
		case ports.STTEngine:
			reg.RegisterSTT(e)
		default:
			t.Fatalf("unexpected engine type %T", e)
		}
	}
	return reg
}

// === Transcribe ===

func TestTranscribeSuccess(t *testing.T) {
	stt := &fakeSTT{id: "vosk", transcript: ports.Transcript{Text: "привет мир", Language: "ru"}}
	fx := newFixture(t, stt)

	res, err := fx.svc.Transcribe(context.Background(), ports.TranscriptionRequest{
		UserID: 7, Engine: "vosk", Language: "ru",
		UploadName: "voice memo.MP3",
		Audio:      strings.NewReader("fake-audio-bytes"),
	})
	require.NoError(t, err)
	assert.Equal(t, "привет мир", res.Text)
	assert.Equal(t, "ru", res.Language)
	assert.True(t, strings.HasSuffix(res.Filename, ".txt"))

	textDir := filepath.Join(fx.root, "text", "7")
	data, err := os.ReadFile(filepath.Join(textDir, res.Filename))
	require.NoError(t, err)
	assert.Equal(t, "привет мир", string(data))

	assert.Empty(t, listFiles(t, filepath.Join(fx.root, "uploads", "7")), "upload tmp is removed after transcription")

	require.Len(t, fx.repo.rows, 1)
	row := fx.repo.rows[1]
	assert.Equal(t, ports.TypeSTT, row.Type)
	assert.Equal(t, "vosk: ru", row.Language)
	assert.Nil(t, row.InputText)
}

func TestTranscribeDisallowedExtension(t *testing.T) {
	fx := newFixture(t, &fakeSTT{id: "vosk"})

	_, err := fx.svc.Transcribe(context.Background(), ports.TranscriptionRequest{
		UserID: 7, Engine: "vosk", UploadName: "report.exe",
		Audio: strings.NewReader("x"),
	})
	assert.True(t, ports.IsKind(err, ports.InputRejected), "got %v", err)
	assert.Empty(t, listFiles(t, filepath.Join(fx.root, "uploads", "7")))
}

func TestTranscribeEngineFailureCleansUpload(t *testing.T) {
	stt := &fakeSTT{id: "vosk", err: ports.Fail(ports.ModelNotFound, "no model for kl")}
	fx := newFixture(t, stt)

	_, err := fx.svc.Transcribe(context.Background(), ports.TranscriptionRequest{
		UserID: 7, Engine: "vosk", Language: "kl",
		UploadName: "a.wav", Audio: strings.NewReader("x"),
	})
	assert.True(t, ports.IsKind(err, ports.ModelNotFound), "got %v", err)
	assert.NotEmpty(t, stt.gotAudioPath, "upload reached the engine")
	assert.Empty(t, listFiles(t, filepath.Join(fx.root, "uploads", "7")), "tmp removed on failure too")
	assert.Empty(t, listFiles(t, filepath.Join(fx.root, "text", "7")))
	assert.Empty(t, fx.repo.rows)
}

func TestTranscribePersistFailureRemovesTranscript(t *testing.T) {
	fx := newFixture(t, &fakeSTT{id: "vosk", transcript: ports.Transcript{Text: "hi", Language: "en-us"}})
	fx.repo.createErr = errors.New("deadlock detected")

	_, err := fx.svc.Transcribe(context.Background(), ports.TranscriptionRequest{
		UserID: 7, Engine: "vosk", Language: "en-us",
		UploadName: "a.wav", Audio: strings.NewReader("x"),
	})
	assert.True(t, ports.IsKind(err, ports.PersistFailure), "got %v", err)
	assert.Empty(t, listFiles(t, filepath.Join(fx.root, "text", "7")))
}

// === DeleteLog ===

func seedSTTLog(t *testing.T, fx *fixture, userID int64) ports.ConversionLog {
	t.Helper()
	dir, err := fx.store.EnsureDir(userID, ports.CategoryText)
	require.NoError(t, err)
	name := "stt_vosk_ru_deadbeef.txt"
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("текст"), 0o644))

	id, err := fx.repo.Create(context.Background(), ports.ConversionLog{
		UserID: userID, Type: ports.TypeSTT, Language: "vosk: ru", OutputFilename: name,
	})
	require.NoError(t, err)
	row := fx.repo.rows[id]
	return row
}

func TestDeleteLogRemovesArtifactsAndRow(t *testing.T) {
	fx := newFixture(t)
	row := seedSTTLog(t, fx, 7)

	// производный PDF тоже должен исчезнуть
	pdfName := strings.TrimSuffix(row.OutputFilename, ".txt") + ".pdf"
	textDir := filepath.Join(fx.root, "text", "7")
	require.NoError(t, os.WriteFile(filepath.Join(textDir, pdfName), []byte("%PDF"), 0o644))

	require.NoError(t, fx.svc.DeleteLog(context.Background(), 7, row.ID))

	assert.Empty(t, listFiles(t, textDir))
	assert.Empty(t, fx.repo.rows)
}

func TestDeleteLogMissingFileIsNotAnError(t *testing.T) {
	fx := newFixture(t)
	row := seedSTTLog(t, fx, 7)
	require.NoError(t, os.Remove(filepath.Join(fx.root, "text", "7", row.OutputFilename)))

	require.NoError(t, fx.svc.DeleteLog(context.Background(), 7, row.ID))
	assert.Empty(t, fx.repo.rows, "row is deleted even when the artifact was already gone")
}

func TestDeleteLogForeignRow(t *testing.T) {
	fx := newFixture(t)
	row := seedSTTLog(t, fx, 7)

	err := fx.svc.DeleteLog(context.Background(), 8, row.ID)
	assert.True(t, ports.IsKind(err, ports.PermissionDenied), "got %v", err)
	assert.Len(t, fx.repo.rows, 1, "foreign delete must not touch the row")
	assert.Len(t, listFiles(t, filepath.Join(fx.root, "text", "7")), 1, "nor the artifact")
}

func TestDeleteLogUnknownID(t *testing.T) {
	fx := newFixture(t)

	err := fx.svc.DeleteLog(context.Background(), 7, 42)
	assert.True(t, ports.IsKind(err, ports.NotFound), "got %v", err)
}

// === ListLogs ===

func TestListLogsIsScopedToUser(t *testing.T) {
	fx := newFixture(t)
	seedSTTLog(t, fx, 7)
	seedSTTLog(t, fx, 8)

	logs, err := fx.svc.ListLogs(context.Background(), 7)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, int64(7), logs[0].UserID)
}
