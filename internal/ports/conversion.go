package ports

import (
	"context"
	"io"
	"time"
)

const (
	TypeTTS = "TTS"
	TypeSTT = "STT"
)

// Категории артефактов внутри static/.
type Category string

const (
	CategoryAudio   Category = "audio"
	CategoryText    Category = "text"
	CategoryUploads Category = "uploads"
)

// ConversionLog — строка журнала конвертаций. Пишется только после
// успешного сохранения артефакта, in-place не обновляется.
type ConversionLog struct {
	ID             int64     `json:"id"`
	UserID         int64     `json:"user_id"`
	Type           string    `json:"type"`
	Language       string    `json:"language"` // "engine:lang"
	InputText      *string   `json:"input_text,omitempty"`
	OutputFilename string    `json:"output_filename"`
	Timestamp      time.Time `json:"timestamp"`
}

// Репозиторий Postgres
type LogRepo interface {
	Create(ctx context.Context, log ConversionLog) (int64, error)
	GetByID(ctx context.Context, id int64) (ConversionLog, error)
	ListByUser(ctx context.Context, userID int64) ([]ConversionLog, error)
	Delete(ctx context.Context, id int64) error
}

// ArtifactStore — файлы пользователей под static/<category>/<user_id>/.
type ArtifactStore interface {
	// EnsureDir создаёт каталог категории (идемпотентно) и возвращает его путь.
	EnsureDir(userID int64, cat Category) (string, error)
	// Path — путь к файлу внутри каталога пользователя; имя санитизируется.
	Path(userID int64, cat Category, filename string) (string, error)
	// GeneratedName — "{prefix}_{engine}_{lang}_{uuid}.{ext}".
	GeneratedName(prefix, engine, lang, ext string) string
	// Remove — best-effort удаление: (false, nil) если файла уже нет.
	Remove(path string) (bool, error)
}

type SynthesisRequest struct {
	UserID   int64
	Engine   string
	Language string
	Text     string
}

type SynthesisResult struct {
	Filename string `json:"filename"`
	Language string `json:"language"`
}

type TranscriptionRequest struct {
	UserID     int64
	Engine     string
	Language   string // для vosk — код модели; whisper игнорирует
	UploadName string
	Audio      io.Reader
}

type TranscriptionResult struct {
	Filename string `json:"filename"`
	Language string `json:"language"`
	Text     string `json:"text"`
}

type ConversionService interface {
	Synthesize(ctx context.Context, req SynthesisRequest) (SynthesisResult, error)
	Transcribe(ctx context.Context, req TranscriptionRequest) (TranscriptionResult, error)
	ListLogs(ctx context.Context, userID int64) ([]ConversionLog, error)
	// DeleteLog — удаляет запись и её артефакты; чужие записи — PermissionDenied.
	DeleteLog(ctx context.Context, userID, logID int64) error
}
