package engine

import (
	"context"

	openai "github.com/sashabaranov/go-openai"
	"github.com/voxlog/voxlog/internal/ports"
)

// WhisperAPI — облачный Whisper через OpenAI. Без API-ключа движок
// регистрируется, но недоступен.
type WhisperAPI struct {
	client *openai.Client
}

func NewWhisperAPI(apiKey string) *WhisperAPI {
	if apiKey == "" {
		return &WhisperAPI{}
	}
	return &WhisperAPI{client: openai.NewClient(apiKey)}
}

func (w *WhisperAPI) ID() string { return "whisper-api" }

func (w *WhisperAPI) Transcribe(ctx context.Context, audioPath, lang string) (ports.Transcript, error) {
	if w.client == nil {
		return ports.Transcript{}, ports.Fail(ports.EngineUnavailable, "OPENAI_API_KEY not set")
	}

	resp, err := w.client.CreateTranscription(ctx, openai.AudioRequest{
		Model:    openai.Whisper1,
		FilePath: audioPath,
		Language: lang,
	})
	if err != nil {
		return ports.Transcript{}, ports.WrapFailure(ports.EngineExecutionError, "openai transcription", err)
	}

	detected := resp.Language
	if detected == "" {
		detected = lang
	}
	if detected == "" {
		detected = "unknown"
	}

	return ports.Transcript{Text: resp.Text, Language: detected}, nil
}
