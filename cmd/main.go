package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"time"

	"github.com/Vovarama1992/go-utils/httputil"
	"github.com/Vovarama1992/go-utils/logger"

	"github.com/voxlog/voxlog/internal/bridge"
	"github.com/voxlog/voxlog/internal/config"
	"github.com/voxlog/voxlog/internal/delivery"
	"github.com/voxlog/voxlog/internal/domain"
	"github.com/voxlog/voxlog/internal/engine"
	"github.com/voxlog/voxlog/internal/infra"
	"github.com/voxlog/voxlog/internal/notify"
	"github.com/voxlog/voxlog/internal/pdf"
	"github.com/voxlog/voxlog/internal/store"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"go.uber.org/zap"
)

func main() {

	// =========================================================================
	// ENV / DB INIT
	// =========================================================================

	_ = godotenv.Load()

	cfg := config.Load()

	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL is not set")
	}
	if cfg.AuthSecret == "" {
		log.Fatal("AUTH_SECRET is not set")
	}

	db, err := sql.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to connect to postgres: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		log.Fatalf("db ping failed: %v", err)
	}
	defer db.Close()

	baseLogger, _ := zap.NewProduction()
	defer baseLogger.Sync()
	zl := logger.NewZapLogger(baseLogger.Sugar())

	// =========================================================================
	// INFRASTRUCTURE
	// =========================================================================

	artifactStore := store.New(cfg.StaticDir, zl)
	audioBridge := bridge.NewFFmpegBridge(cfg.FFmpegBin, cfg.FFprobeBin, cfg.EngineTimeout)
	pdfService := pdf.NewService(pdf.NewGofpdfRenderer())

	// =========================================================================
	// REPOSITORIES
	// =========================================================================

	logRepo := infra.NewLogRepo(db)
	userRepo := infra.NewUserRepo(db)

	// =========================================================================
	// ERROR NOTIFICATION
	// =========================================================================

	errInfra := notify.NewInfra(cfg.TelegramToken, cfg.AdminChatID)
	errService := notify.NewService(errInfra)

	// =========================================================================
	// ENGINES
	// =========================================================================

	registry := engine.NewRegistry()
	registry.RegisterTTS(engine.NewEspeak(cfg.EspeakBin, cfg.EngineTimeout))
	registry.RegisterTTS(engine.NewFestival(cfg.Text2WaveBin, cfg.EngineTimeout))
	registry.RegisterTTS(engine.NewFlite(cfg.FliteBin, cfg.EngineTimeout, zl))

	// общая whisper-модель грузится один раз на старте; неудача не валит
	// процесс — движок остаётся зарегистрированным как недоступный
	whisperEngine, err := engine.NewWhisper(cfg.WhisperModelPath, audioBridge)
	if err != nil {
		log.Printf("whisper model load failed (engine will report unavailable): %v", err)
	}
	registry.RegisterSTT(whisperEngine)

	voskEngine := engine.NewVosk(cfg.VoskModelDir, audioBridge)
	registry.RegisterSTT(voskEngine)
	registry.RegisterSTT(engine.NewWhisperAPI(cfg.OpenAIKey))

	// =========================================================================
	// DOMAIN SERVICES
	// =========================================================================

	authService := domain.NewAuthService(userRepo, cfg.AuthSecret)

	conversionService := domain.NewConversionService(
		registry,
		audioBridge,
		artifactStore,
		logRepo,
		errService,
		zl,
	)

	// =========================================================================
	// HTTP ROUTER
	// =========================================================================

	r := chi.NewRouter()
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
	}))

	// HANDLERS
	convHandler := delivery.NewConversionHandler(
		conversionService,
		artifactStore,
		audioBridge,
		pdfService,
		registry,
		voskEngine.Languages,
		zl,
	)
	authHandler := delivery.NewAuthHandler(authService)

	// ROUTES
	delivery.RegisterRoutes(r, convHandler, authHandler, authService)

	r.With(httputil.RecoverMiddleware).Get("/ping", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(200)
		w.Write([]byte("pong"))
	})

	// =========================================================================
	// START SERVER
	// =========================================================================

	addr := ":" + cfg.Port
	zl.Log(logger.LogEntry{
		Level:   "info",
		Message: "listening at " + addr,
		Service: "voxlog",
	})

	if err := http.ListenAndServe(addr, r); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
