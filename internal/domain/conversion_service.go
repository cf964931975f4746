package domain

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/Vovarama1992/go-utils/logger"

	"github.com/voxlog/voxlog/internal/engine"
	"github.com/voxlog/voxlog/internal/notify"
	"github.com/voxlog/voxlog/internal/ports"
)

const maxTTSTextLen = 5000

var allowedUploadExt = map[string]bool{
	".wav":  true,
	".mp3":  true,
	".m4a":  true,
	".ogg":  true,
	".flac": true,
	".aac":  true,
}

// conversionService — оркестратор конвейера:
// Validated → EngineInvoked → BridgeOk → Persisted → Logged.
// Отказ на любой стадии обрывает остальные; строка журнала пишется
// только в терминальном Logged. Автоматического фолбэка на другой
// движок нет — клиент повторяет сам.
type conversionService struct {
	registry *engine.Registry
	bridge   ports.FormatBridge
	store    ports.ArtifactStore
	repo     ports.LogRepo
	notifier notify.Notificator
	log      *logger.ZapLogger
}

func NewConversionService(
	registry *engine.Registry,
	bridge ports.FormatBridge,
	store ports.ArtifactStore,
	repo ports.LogRepo,
	notifier notify.Notificator,
	log *logger.ZapLogger,
) ports.ConversionService {
	return &conversionService{
		registry: registry,
		bridge:   bridge,
		store:    store,
		repo:     repo,
		notifier: notifier,
		log:      log,
	}
}

func (s *conversionService) Synthesize(ctx context.Context, req ports.SynthesisRequest) (ports.SynthesisResult, error) {
	var zero ports.SynthesisResult

	text := strings.TrimSpace(req.Text)
	if text == "" {
		return zero, ports.Fail(ports.InputRejected, "text is empty")
	}
	if len([]rune(text)) > maxTTSTextLen {
		return zero, ports.Failf(ports.InputRejected, "text exceeds %d characters", maxTTSTextLen)
	}

	// выбор адаптера — чистый lookup, до любых побочных эффектов
	eng, ok := s.registry.TTS(req.Engine)
	if !ok {
		return zero, ports.Failf(ports.InputRejected, "unknown TTS engine %q", req.Engine)
	}

	dir, err := s.store.EnsureDir(req.UserID, ports.CategoryAudio)
	if err != nil {
		return zero, s.fail(ctx, req.Engine, err)
	}

	wavName := s.store.GeneratedName("tts", req.Engine, req.Language, "wav")
	wavPath := filepath.Join(dir, wavName)
	mp3Name := strings.TrimSuffix(wavName, ".wav") + ".mp3"
	mp3Path := filepath.Join(dir, mp3Name)

	// промежуточный WAV убирается на любом исходе
	defer os.Remove(wavPath)

	if err := eng.Synthesize(ctx, text, req.Language, wavPath); err != nil {
		return zero, s.fail(ctx, req.Engine, err)
	}

	if err := s.bridge.EncodeMP3(ctx, wavPath, mp3Path); err != nil {
		// политика: неудачный encode — жёсткий отказ, WAV не отдаём;
		// ffmpeg мог оставить обрывок MP3 — его тоже убираем
		_, _ = s.store.Remove(mp3Path)
		return zero, s.fail(ctx, req.Engine, err)
	}

	// артефакт надёжно сохранён — только теперь журнал
	if _, err := s.repo.Create(ctx, ports.ConversionLog{
		UserID:         req.UserID,
		Type:           ports.TypeTTS,
		Language:       req.Engine + ":" + req.Language,
		InputText:      &text,
		OutputFilename: mp3Name,
	}); err != nil {
		_, _ = s.store.Remove(mp3Path)
		return zero, s.fail(ctx, req.Engine, ports.WrapFailure(ports.PersistFailure, "write conversion log", err))
	}

	return ports.SynthesisResult{Filename: mp3Name, Language: req.Language}, nil
}

func (s *conversionService) Transcribe(ctx context.Context, req ports.TranscriptionRequest) (ports.TranscriptionResult, error) {
	var zero ports.TranscriptionResult

	ext := strings.ToLower(filepath.Ext(req.UploadName))
	if !allowedUploadExt[ext] {
		return zero, ports.Failf(ports.InputRejected, "file type %q not allowed", ext)
	}

	eng, ok := s.registry.STT(req.Engine)
	if !ok {
		return zero, ports.Failf(ports.InputRejected, "unknown STT engine %q", req.Engine)
	}

	uploadDir, err := s.store.EnsureDir(req.UserID, ports.CategoryUploads)
	if err != nil {
		return zero, s.fail(ctx, req.Engine, err)
	}

	tmpName := s.store.GeneratedName("upload", req.Engine, req.Language, strings.TrimPrefix(ext, "."))
	tmpPath := filepath.Join(uploadDir, tmpName)

	if err := saveUpload(tmpPath, req.Audio); err != nil {
		return zero, s.fail(ctx, req.Engine, err)
	}
	// времянка удаляется на каждом терминальном пути
	defer os.Remove(tmpPath)

	tr, err := eng.Transcribe(ctx, tmpPath, req.Language)
	if err != nil {
		return zero, s.fail(ctx, req.Engine, err)
	}

	textDir, err := s.store.EnsureDir(req.UserID, ports.CategoryText)
	if err != nil {
		return zero, s.fail(ctx, req.Engine, err)
	}

	txtName := s.store.GeneratedName("stt", req.Engine, tr.Language, "txt")
	txtPath := filepath.Join(textDir, txtName)

	// транскрипт пишется как есть, UTF-8, без нормализации
	if err := os.WriteFile(txtPath, []byte(tr.Text), 0o644); err != nil {
		return zero, s.fail(ctx, req.Engine, ports.WrapFailure(ports.PersistFailure, "write transcript", err))
	}

	if _, err := s.repo.Create(ctx, ports.ConversionLog{
		UserID:         req.UserID,
		Type:           ports.TypeSTT,
		Language:       req.Engine + ": " + tr.Language,
		OutputFilename: txtName,
	}); err != nil {
		_, _ = s.store.Remove(txtPath)
		return zero, s.fail(ctx, req.Engine, ports.WrapFailure(ports.PersistFailure, "write conversion log", err))
	}

	return ports.TranscriptionResult{
		Filename: txtName,
		Language: tr.Language,
		Text:     tr.Text,
	}, nil
}

func (s *conversionService) ListLogs(ctx context.Context, userID int64) ([]ports.ConversionLog, error) {
	return s.repo.ListByUser(ctx, userID)
}

func (s *conversionService) DeleteLog(ctx context.Context, userID, logID int64) error {
	row, err := s.repo.GetByID(ctx, logID)
	if errors.Is(err, sql.ErrNoRows) {
		return ports.Failf(ports.NotFound, "log %d not found", logID)
	}
	if err != nil {
		return ports.WrapFailure(ports.PersistFailure, "load log", err)
	}
	if row.UserID != userID {
		return ports.Fail(ports.PermissionDenied, "log belongs to another user")
	}

	// файлы убираются до строки журнала; отсутствие файла — warning,
	// реальная ошибка I/O оставляет строку на месте
	switch row.Type {
	case ports.TypeTTS:
		if err := s.removeArtifact(ctx, userID, ports.CategoryAudio, row.OutputFilename); err != nil {
			return err
		}
	case ports.TypeSTT:
		if err := s.removeArtifact(ctx, userID, ports.CategoryText, row.OutputFilename); err != nil {
			return err
		}
		// производный PDF-сосед, если его успели сгенерировать
		pdfName := strings.TrimSuffix(row.OutputFilename, ".txt") + ".pdf"
		if err := s.removeArtifact(ctx, userID, ports.CategoryText, pdfName); err != nil {
			return err
		}
	}

	if err := s.repo.Delete(ctx, logID); err != nil {
		return ports.WrapFailure(ports.PersistFailure, "delete log row", err)
	}
	return nil
}

// removeArtifact — убирает файл при удалении записи журнала; реальная
// ошибка I/O оставляет строку на месте и уходит админу.
func (s *conversionService) removeArtifact(ctx context.Context, userID int64, cat ports.Category, filename string) error {
	path, err := s.store.Path(userID, cat, filename)
	if err != nil {
		return err
	}
	if _, err := s.store.Remove(path); err != nil {
		if s.notifier != nil {
			_ = s.notifier.Notify(ctx, "store", err, "artifact removal failed during log delete")
		}
		return err
	}
	return nil
}

// fail — серверная диагностика для каждого отказа конвейера; сбои
// исполнения движков дополнительно уходят админу.
func (s *conversionService) fail(ctx context.Context, engineID string, err error) error {
	if s.log != nil {
		s.log.Log(logger.LogEntry{
			Level:   "error",
			Message: "conversion failed: engine=" + engineID,
			Service: "conversion",
			Error:   err,
		})
	}
	if s.notifier != nil && ports.IsKind(err, ports.EngineExecutionError) {
		_ = s.notifier.Notify(ctx, engineID, err, fmt.Sprintf("engine %s execution failure", engineID))
	}
	return err
}

func saveUpload(path string, src io.Reader) error {
	dst, err := os.Create(path)
	if err != nil {
		return ports.WrapFailure(ports.PersistFailure, "create upload tmp", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		os.Remove(path)
		return ports.WrapFailure(ports.PersistFailure, "save upload tmp", err)
	}
	return nil
}
