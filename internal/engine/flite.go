package engine

import (
	"bytes"
	"context"
	"os/exec"
	"strings"
	"time"

	"github.com/Vovarama1992/go-utils/logger"
	"github.com/voxlog/voxlog/internal/ports"
)

// Flite — синтезатор с перечислением установленных голосов. Голос подбирается
// по подстроке/суффиксу идентификатора; если совпадения нет — дефолтный голос
// движка (это не ошибка, только информационная запись в лог).
type Flite struct {
	bin     string
	timeout time.Duration
	log     *logger.ZapLogger
}

func NewFlite(bin string, timeout time.Duration, log *logger.ZapLogger) *Flite {
	return &Flite{bin: bin, timeout: timeout, log: log}
}

func (f *Flite) ID() string { return "flite" }

func (f *Flite) Synthesize(ctx context.Context, text, lang, wavPath string) error {
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	voicesOut, err := exec.CommandContext(ctx, f.bin, "-lv").Output()
	if err != nil {
		return ports.Failf(ports.EngineUnavailable, "flite not found or not working: %v", err)
	}

	args := []string{"-t", text, "-o", wavPath}
	if voice := matchVoice(parseVoices(string(voicesOut)), lang); voice != "" {
		args = append([]string{"-voice", voice}, args...)
	} else if f.log != nil {
		f.log.Log(logger.LogEntry{
			Level:   "info",
			Message: "flite: no voice for '" + lang + "', using default",
			Service: "engine",
		})
	}

	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, f.bin, args...)
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		diag := strings.TrimSpace(stderr.String())
		if diag == "" {
			diag = err.Error()
		}
		return ports.WrapFailure(ports.EngineExecutionError, "flite: "+diag, err)
	}
	return nil
}

// parseVoices — разбирает вывод `flite -lv`: "Voices available: kal awb rms slt".
func parseVoices(out string) []string {
	_, list, ok := strings.Cut(out, ":")
	if !ok {
		return nil
	}
	return strings.Fields(list)
}

// matchVoice — точное совпадение, потом суффикс, потом подстрока.
func matchVoice(voices []string, lang string) string {
	if lang == "" {
		return ""
	}
	lang = strings.ToLower(lang)
	for _, v := range voices {
		if strings.ToLower(v) == lang {
			return v
		}
	}
	for _, v := range voices {
		if strings.HasSuffix(strings.ToLower(v), lang) {
			return v
		}
	}
	for _, v := range voices {
		if strings.Contains(strings.ToLower(v), lang) {
			return v
		}
	}
	return ""
}
