package engine

import (
	"bytes"
	"context"
	"os/exec"
	"strings"
	"time"

	"github.com/voxlog/voxlog/internal/ports"
)

// Espeak — процессный синтезатор. Перед каждым вызовом дешёвая проверка
// живости бинарника; WAV пишется напрямую по пути, который даёт оркестратор.
type Espeak struct {
	bin     string
	timeout time.Duration
}

func NewEspeak(bin string, timeout time.Duration) *Espeak {
	return &Espeak{bin: bin, timeout: timeout}
}

func (e *Espeak) ID() string { return "espeak" }

func (e *Espeak) Synthesize(ctx context.Context, text, lang, wavPath string) error {
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	// зависший бинарник на пробе не должен держать запрос
	if err := exec.CommandContext(ctx, e.bin, "--version").Run(); err != nil {
		return ports.Failf(ports.EngineUnavailable, "espeak not found or not working: %v", err)
	}

	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, e.bin, "-v", lang, "-w", wavPath, text)
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		diag := strings.TrimSpace(stderr.String())
		if diag == "" {
			diag = err.Error()
		}
		return ports.WrapFailure(ports.EngineExecutionError, "espeak: "+diag, err)
	}
	return nil
}
