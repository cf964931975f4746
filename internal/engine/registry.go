package engine

import (
	"sort"

	"github.com/voxlog/voxlog/internal/ports"
)

// Registry — закрытый набор движков. Выбор строго по идентификатору,
// неизвестный id отклоняется до любых побочных эффектов.
type Registry struct {
	tts map[string]ports.TTSEngine
	stt map[string]ports.STTEngine
}

func NewRegistry() *Registry {
	return &Registry{
		tts: make(map[string]ports.TTSEngine),
		stt: make(map[string]ports.STTEngine),
	}
}

func (r *Registry) RegisterTTS(e ports.TTSEngine) {
	r.tts[e.ID()] = e
}

func (r *Registry) RegisterSTT(e ports.STTEngine) {
	r.stt[e.ID()] = e
}

func (r *Registry) TTS(id string) (ports.TTSEngine, bool) {
	e, ok := r.tts[id]
	return e, ok
}

func (r *Registry) STT(id string) (ports.STTEngine, bool) {
	e, ok := r.stt[id]
	return e, ok
}

func (r *Registry) TTSEngines() []string {
	return sortedKeys(r.tts)
}

func (r *Registry) STTEngines() []string {
	return sortedKeys(r.stt)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
