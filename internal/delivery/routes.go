package delivery

import (
	"time"

	"github.com/Vovarama1992/go-utils/httputil"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"

	"github.com/voxlog/voxlog/internal/ports"
)

func RegisterRoutes(
	r chi.Router,
	hConv *ConversionHandler,
	hAuth *AuthHandler,
	authSvc ports.AuthService,
) {
	// --- auth ---
	r.With(httputil.RecoverMiddleware).Post("/auth/register", hAuth.Register)
	r.With(httputil.RecoverMiddleware).Post("/auth/login", hAuth.Login)

	// --- protected ---
	r.Route("/", func(pr chi.Router) {
		pr.Use(
			httputil.RecoverMiddleware,
			AuthMiddleware(authSvc),
		)

		// --- конвертация (ограничиваем: движки тяжёлые) ---
		pr.With(httprate.LimitByIP(30, time.Minute)).Post("/tts/convert", hConv.Synthesize)
		pr.With(httprate.LimitByIP(30, time.Minute)).Post("/stt/transcribe", hConv.Transcribe)

		// --- выдача артефактов ---
		pr.Get("/tts/download/{filename}", hConv.DownloadAudio)
		pr.Get("/stt/download/{kind}/{filename}", hConv.DownloadText)

		// --- журнал конвертаций ---
		pr.Get("/logs", hConv.ListLogs)
		pr.Delete("/logs/{id}", hConv.DeleteLog)

		// --- движки ---
		pr.Get("/engines", hConv.Engines)
	})
}
