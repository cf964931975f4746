package engine

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	vosk "github.com/alphacep/vosk-api/go"
	"github.com/voxlog/voxlog/internal/ports"
)

// Крупность порций PCM, скармливаемых распознавателю.
const voskChunkSize = 4000

// Vosk — потоковый распознаватель с моделью на язык. Модели лежат в
// modelDir/<lang>; загруженные экземпляры кэшируются на весь процесс.
type Vosk struct {
	modelDir string
	bridge   ports.FormatBridge
	cache    *ModelCache
}

func NewVosk(modelDir string, bridge ports.FormatBridge) *Vosk {
	vosk.SetLogLevel(-1)
	return &Vosk{
		modelDir: modelDir,
		bridge:   bridge,
		cache: NewModelCache(func(lang string) (any, error) {
			return vosk.NewModel(filepath.Join(modelDir, lang))
		}),
	}
}

func (v *Vosk) ID() string { return "vosk" }

// Languages — коды языков по подкаталогам modelDir (так же оригинал
// наполнял выпадающий список).
func (v *Vosk) Languages() []string {
	entries, err := os.ReadDir(v.modelDir)
	if err != nil {
		return nil
	}
	var langs []string
	for _, e := range entries {
		if e.IsDir() {
			langs = append(langs, e.Name())
		}
	}
	return langs
}

func (v *Vosk) Transcribe(ctx context.Context, audioPath, lang string) (ports.Transcript, error) {
	if lang == "" {
		return ports.Transcript{}, ports.Fail(ports.InputRejected, "vosk requires a language model code")
	}
	if st, err := os.Stat(filepath.Join(v.modelDir, lang)); err != nil || !st.IsDir() {
		return ports.Transcript{}, ports.Failf(ports.ModelNotFound, "vosk model for %q not found in %s", lang, v.modelDir)
	}

	handle, err := v.cache.Get(lang)
	if err != nil {
		return ports.Transcript{}, ports.WrapFailure(ports.ModelNotFound, "vosk model load failed for "+lang, err)
	}
	model := handle.(*vosk.VoskModel)

	// прекондиция: 16kHz mono s16, иначе распознаватель молчит
	monoPath := audioPath + "_vosk_mono.wav"
	if err := v.bridge.ResamplePCM(ctx, audioPath, monoPath); err != nil {
		return ports.Transcript{}, err
	}
	defer os.Remove(monoPath)

	pcm, err := readPCM16(monoPath)
	if err != nil {
		return ports.Transcript{}, ports.WrapFailure(ports.EngineExecutionError, "vosk: read pcm", err)
	}

	rec, err := vosk.NewRecognizer(model, 16000.0)
	if err != nil {
		return ports.Transcript{}, ports.WrapFailure(ports.EngineExecutionError, "vosk: create recognizer", err)
	}
	defer rec.Free()
	rec.SetWords(1)

	var parts []string
	for off := 0; off < len(pcm); off += voskChunkSize {
		end := off + voskChunkSize
		if end > len(pcm) {
			end = len(pcm)
		}
		if rec.AcceptWaveform(pcm[off:end]) != 0 {
			parts = append(parts, resultText(rec.Result()))
		}
	}
	parts = append(parts, resultText(rec.FinalResult()))

	text := strings.TrimSpace(strings.Join(nonEmpty(parts), " "))
	return ports.Transcript{Text: text, Language: lang}, nil
}

func resultText(raw string) string {
	var r struct {
		Text string `json:"text"`
	}
	if err := json.Unmarshal([]byte(raw), &r); err != nil {
		return ""
	}
	return r.Text
}

func nonEmpty(parts []string) []string {
	out := parts[:0]
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
