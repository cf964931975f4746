package engine

import (
	"context"
	"io"
	"os"
	"strings"

	whisper "github.com/ggerganov/whisper.cpp/bindings/go/pkg/whisper"
	"github.com/voxlog/voxlog/internal/ports"
)

// Whisper — батчевый мультиязычный распознаватель. Одна общая модель
// грузится на старте процесса; после загрузки хэндл read-only и безопасно
// разделяется между конкурентными вызовами (контекст создаётся на вызов).
type Whisper struct {
	model  whisper.Model
	bridge ports.FormatBridge
}

// NewWhisper — ошибка загрузки не фатальна для процесса: адаптер всё равно
// регистрируется, но каждый вызов сразу вернёт EngineUnavailable.
func NewWhisper(modelPath string, bridge ports.FormatBridge) (*Whisper, error) {
	if _, err := os.Stat(modelPath); err != nil {
		return &Whisper{bridge: bridge}, err
	}
	model, err := whisper.New(modelPath)
	if err != nil {
		return &Whisper{bridge: bridge}, err
	}
	return &Whisper{model: model, bridge: bridge}, nil
}

func (w *Whisper) ID() string { return "whisper" }

func (w *Whisper) Close() error {
	if w.model != nil {
		return w.model.Close()
	}
	return nil
}

func (w *Whisper) Transcribe(ctx context.Context, audioPath, _ string) (ports.Transcript, error) {
	if w.model == nil {
		return ports.Transcript{}, ports.Fail(ports.EngineUnavailable, "whisper model is not loaded")
	}

	monoPath := audioPath + "_whisper_mono.wav"
	if err := w.bridge.ResamplePCM(ctx, audioPath, monoPath); err != nil {
		return ports.Transcript{}, err
	}
	defer os.Remove(monoPath)

	samples, err := readFloat32(monoPath)
	if err != nil {
		return ports.Transcript{}, ports.WrapFailure(ports.EngineExecutionError, "whisper: read samples", err)
	}

	wctx, err := w.model.NewContext()
	if err != nil {
		return ports.Transcript{}, ports.WrapFailure(ports.EngineExecutionError, "whisper: create context", err)
	}
	if err := wctx.SetLanguage("auto"); err != nil {
		return ports.Transcript{}, ports.WrapFailure(ports.EngineExecutionError, "whisper: set language", err)
	}

	if err := wctx.Process(samples, nil, nil, nil); err != nil {
		return ports.Transcript{}, ports.WrapFailure(ports.EngineExecutionError, "whisper: process", err)
	}

	var segments []string
	for {
		seg, err := wctx.NextSegment()
		if err == io.EOF {
			break
		}
		if err != nil {
			return ports.Transcript{}, ports.WrapFailure(ports.EngineExecutionError, "whisper: next segment", err)
		}
		segments = append(segments, seg.Text)
	}

	lang := wctx.DetectedLanguage()
	if lang == "" {
		lang = "unknown"
	}

	return ports.Transcript{
		Text:     strings.TrimSpace(strings.Join(segments, " ")),
		Language: lang,
	}, nil
}
