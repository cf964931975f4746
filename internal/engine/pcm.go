package engine

import (
	"encoding/binary"
	"fmt"
	"os"

	"github.com/go-audio/wav"
)

// readPCM16 — сырые s16le-байты из WAV (вход уже нормализован мостом
// до 16kHz mono s16).
func readPCM16(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open wav: %w", err)
	}
	defer f.Close()

	dec := wav.NewDecoder(f)
	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("decode wav: %w", err)
	}

	out := make([]byte, len(buf.Data)*2)
	for i, s := range buf.Data {
		binary.LittleEndian.PutUint16(out[i*2:], uint16(int16(s)))
	}
	return out, nil
}

// readFloat32 — моно-сэмплы float32 в [-1.0, 1.0] для whisper.
func readFloat32(path string) ([]float32, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open wav: %w", err)
	}
	defer f.Close()

	dec := wav.NewDecoder(f)
	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("decode wav: %w", err)
	}

	samples := make([]float32, len(buf.Data))
	for i, s := range buf.Data {
		samples[i] = float32(s) / 32768.0
	}
	return samples, nil
}
