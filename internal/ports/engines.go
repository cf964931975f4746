package ports

import "context"

// === Контракт движков ===

// Transcript — результат распознавания: текст + язык (выбранный или автоопределённый).
type Transcript struct {
	Text     string
	Language string
}

// TTSEngine — текст → WAV по указанному пути. Блокирует до полной записи файла.
type TTSEngine interface {
	ID() string
	Synthesize(ctx context.Context, text, lang, wavPath string) error
}

// STTEngine — аудиофайл → текст. Адаптер сам приводит вход к нужному формату.
type STTEngine interface {
	ID() string
	Transcribe(ctx context.Context, audioPath, lang string) (Transcript, error)
}

// FormatBridge — нормализация форматов через ffmpeg.
type FormatBridge interface {
	// EncodeMP3 — WAV → канонический MP3.
	EncodeMP3(ctx context.Context, wavPath, mp3Path string) error
	// ResamplePCM — произвольный аудиофайл → WAV 16kHz mono s16 (прекондиция vosk).
	ResamplePCM(ctx context.Context, srcPath, wavPath string) error
	// Duration — длительность аудиофайла в секундах.
	Duration(ctx context.Context, path string) (float64, error)
}
