package config

import (
	"os"
	"strconv"
	"time"

	"github.com/go-ini/ini"
)

// Config — все настройки процесса. Источники: ENV, поверх — опциональный
// voxlog.ini (путь в VOXLOG_INI).
type Config struct {
	Port        string
	DatabaseURL string
	AuthSecret  string

	// каталоги артефактов и моделей
	StaticDir        string
	VoskModelDir     string
	WhisperModelPath string

	// бинарники внешних движков
	EspeakBin    string
	Text2WaveBin string
	FliteBin     string
	FFmpegBin    string
	FFprobeBin   string

	// таймаут на один вызов процессного движка
	EngineTimeout time.Duration

	OpenAIKey string

	TelegramToken string
	AdminChatID   int64
}

func Load() *Config {
	cfg := &Config{
		Port:             envOr("PORT", "8080"),
		DatabaseURL:      os.Getenv("DATABASE_URL"),
		AuthSecret:       os.Getenv("AUTH_SECRET"),
		StaticDir:        envOr("STATIC_DIR", "static"),
		VoskModelDir:     envOr("VOSK_MODEL_DIR", "models/vosk"),
		WhisperModelPath: envOr("WHISPER_MODEL_PATH", "models/whisper/ggml-tiny.bin"),
		EspeakBin:        envOr("ESPEAK_BIN", "espeak"),
		Text2WaveBin:     envOr("TEXT2WAVE_BIN", "text2wave"),
		FliteBin:         envOr("FLITE_BIN", "flite"),
		FFmpegBin:        envOr("FFMPEG_BIN", "ffmpeg"),
		FFprobeBin:       envOr("FFPROBE_BIN", "ffprobe"),
		EngineTimeout:    durationOr("ENGINE_TIMEOUT_SECONDS", 60*time.Second),
		OpenAIKey:        os.Getenv("OPENAI_API_KEY"),
		TelegramToken:    os.Getenv("ERROR_BOT_TOKEN"),
		AdminChatID:      int64Or("ERROR_ADMIN_CHAT_ID", 0),
	}

	if path := os.Getenv("VOXLOG_INI"); path != "" {
		cfg.applyINI(path)
	}

	return cfg
}

// applyINI — ini перекрывает env, пустые ключи игнорируются.
func (c *Config) applyINI(path string) {
	f, err := ini.Load(path)
	if err != nil {
		return
	}

	srv := f.Section("server")
	iniSet(srv, "port", &c.Port)
	iniSet(srv, "static_dir", &c.StaticDir)

	eng := f.Section("engines")
	iniSet(eng, "espeak_bin", &c.EspeakBin)
	iniSet(eng, "text2wave_bin", &c.Text2WaveBin)
	iniSet(eng, "flite_bin", &c.FliteBin)
	iniSet(eng, "ffmpeg_bin", &c.FFmpegBin)
	iniSet(eng, "ffprobe_bin", &c.FFprobeBin)
	if v, err := eng.Key("timeout_seconds").Int(); err == nil && v > 0 {
		c.EngineTimeout = time.Duration(v) * time.Second
	}

	mdl := f.Section("models")
	iniSet(mdl, "vosk_dir", &c.VoskModelDir)
	iniSet(mdl, "whisper_path", &c.WhisperModelPath)
}

func iniSet(s *ini.Section, key string, dst *string) {
	if v := s.Key(key).String(); v != "" {
		*dst = v
	}
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func durationOr(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return def
	}
	return time.Duration(n) * time.Second
}

func int64Or(key string, def int64) int64 {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return def
	}
	return n
}
