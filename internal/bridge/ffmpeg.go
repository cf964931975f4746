package bridge

import (
	"bytes"
	"context"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/voxlog/voxlog/internal/ports"
)

// FFmpegBridge — нормализация аудио через ffmpeg: движки отдают WAV,
// хранится MP3; вход потоковых распознавателей приводится к 16kHz mono s16.
type FFmpegBridge struct {
	ffmpegBin  string
	ffprobeBin string
	timeout    time.Duration
}

func NewFFmpegBridge(ffmpegBin, ffprobeBin string, timeout time.Duration) *FFmpegBridge {
	return &FFmpegBridge{
		ffmpegBin:  ffmpegBin,
		ffprobeBin: ffprobeBin,
		timeout:    timeout,
	}
}

// EncodeMP3 — decode→encode проход WAV → канонический MP3.
func (b *FFmpegBridge) EncodeMP3(ctx context.Context, wavPath, mp3Path string) error {
	return b.run(ctx, ports.TranscodeFailure, "-y", "-i", wavPath, "-codec:a", "libmp3lame", "-qscale:a", "4", mp3Path)
}

// ResamplePCM — произвольный загруженный формат → WAV 16kHz mono s16.
func (b *FFmpegBridge) ResamplePCM(ctx context.Context, srcPath, wavPath string) error {
	return b.run(ctx, ports.TranscodeFailure, "-y", "-i", srcPath, "-ar", "16000", "-ac", "1", "-sample_fmt", "s16", wavPath)
}

func (b *FFmpegBridge) run(ctx context.Context, kind ports.FailureKind, args ...string) error {
	ctx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, b.ffmpegBin, args...)
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		diag := strings.TrimSpace(stderr.String())
		if diag == "" {
			diag = err.Error()
		}
		// хвоста диагностики достаточно, ffmpeg многословен
		if len(diag) > 500 {
			diag = diag[len(diag)-500:]
		}
		return ports.WrapFailure(kind, "ffmpeg: "+diag, err)
	}
	return nil
}

// Duration — длительность файла в секундах через ffprobe.
func (b *FFmpegBridge) Duration(ctx context.Context, path string) (float64, error) {
	ctx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

	out, err := exec.CommandContext(ctx, b.ffprobeBin,
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		path,
	).Output()
	if err != nil {
		return 0, err
	}

	return strconv.ParseFloat(strings.TrimSpace(string(out)), 64)
}
