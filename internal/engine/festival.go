package engine

import (
	"bytes"
	"context"
	"os/exec"
	"strings"
	"time"

	"github.com/voxlog/voxlog/internal/ports"
)

// Festival — обёртка над text2wave. Та же форма, что у espeak, но текст
// подаётся через stdin, а не аргументом. Язык выбирает сам festival
// (голос настраивается на стороне установки).
type Festival struct {
	bin     string
	timeout time.Duration
}

func NewFestival(bin string, timeout time.Duration) *Festival {
	return &Festival{bin: bin, timeout: timeout}
}

func (f *Festival) ID() string { return "festival" }

func (f *Festival) Synthesize(ctx context.Context, text, _ string, wavPath string) error {
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	if err := exec.CommandContext(ctx, f.bin, "-h").Run(); err != nil {
		return ports.Failf(ports.EngineUnavailable, "text2wave not found or not working: %v", err)
	}

	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, f.bin, "-o", wavPath)
	cmd.Stdin = strings.NewReader(text)
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		diag := strings.TrimSpace(stderr.String())
		if diag == "" {
			diag = err.Error()
		}
		return ports.WrapFailure(ports.EngineExecutionError, "text2wave: "+diag, err)
	}
	return nil
}
