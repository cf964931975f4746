package delivery

import (
	"encoding/json"
	"net/http"
	"os"
	"strconv"
	"strings"

	"github.com/Vovarama1992/go-utils/logger"
	"github.com/dustin/go-humanize"
	"github.com/go-chi/chi/v5"

	"github.com/voxlog/voxlog/internal/engine"
	"github.com/voxlog/voxlog/internal/pdf"
	"github.com/voxlog/voxlog/internal/ports"
)

type ConversionHandler struct {
	svc      ports.ConversionService
	store    ports.ArtifactStore
	bridge   ports.FormatBridge
	pdf      *pdf.Service
	registry *engine.Registry
	// языки потокового распознавателя, найденные на диске
	voskLanguages func() []string
	log           *logger.ZapLogger
}

func NewConversionHandler(
	svc ports.ConversionService,
	store ports.ArtifactStore,
	bridge ports.FormatBridge,
	pdfService *pdf.Service,
	registry *engine.Registry,
	voskLanguages func() []string,
	log *logger.ZapLogger,
) *ConversionHandler {
	return &ConversionHandler{
		svc:           svc,
		store:         store,
		bridge:        bridge,
		pdf:           pdfService,
		registry:      registry,
		voskLanguages: voskLanguages,
		log:           log,
	}
}

func (h *ConversionHandler) Synthesize(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Text     string `json:"text"`
		Language string `json:"language"`
		Engine   string `json:"engine"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json: "+err.Error(), http.StatusBadRequest)
		return
	}

	res, err := h.svc.Synthesize(r.Context(), ports.SynthesisRequest{
		UserID:   UserID(r),
		Engine:   req.Engine,
		Language: req.Language,
		Text:     req.Text,
	})
	if err != nil {
		h.writeFailure(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(res)
}

func (h *ConversionHandler) Transcribe(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(50 << 20); err != nil {
		h.log.Log(logger.LogEntry{Level: "warn", Message: "invalid multipart", Error: err})
		http.Error(w, "invalid multipart: "+err.Error(), http.StatusBadRequest)
		return
	}

	file, header, err := r.FormFile("audio_file")
	if err != nil {
		h.log.Log(logger.LogEntry{Level: "warn", Message: "missing audio_file", Error: err})
		http.Error(w, "missing audio_file: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer file.Close()

	res, err := h.svc.Transcribe(r.Context(), ports.TranscriptionRequest{
		UserID:     UserID(r),
		Engine:     r.FormValue("engine"),
		Language:   r.FormValue("language"),
		UploadName: header.Filename,
		Audio:      file,
	})
	if err != nil {
		h.writeFailure(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(res)
}

func (h *ConversionHandler) DownloadAudio(w http.ResponseWriter, r *http.Request) {
	filename := chi.URLParam(r, "filename")

	path, err := h.store.Path(UserID(r), ports.CategoryAudio, filename)
	if err != nil {
		h.writeFailure(w, err)
		return
	}
	if _, err := os.Stat(path); err != nil {
		http.Error(w, "file not found or access denied", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Disposition", "attachment; filename=\""+filename+"\"")
	http.ServeFile(w, r, path)
}

// DownloadText — kind=txt отдаёт транскрипт; kind=pdf рендерит PDF по
// требованию. Неудача рендера не трогает уже сохранённый .txt.
func (h *ConversionHandler) DownloadText(w http.ResponseWriter, r *http.Request) {
	kind := chi.URLParam(r, "kind")
	filename := chi.URLParam(r, "filename")

	if !strings.HasSuffix(filename, ".txt") {
		http.Error(w, "invalid filename", http.StatusBadRequest)
		return
	}

	txtPath, err := h.store.Path(UserID(r), ports.CategoryText, filename)
	if err != nil {
		h.writeFailure(w, err)
		return
	}
	if _, err := os.Stat(txtPath); err != nil {
		http.Error(w, "file not found or access denied", http.StatusNotFound)
		return
	}

	switch kind {
	case "txt":
		w.Header().Set("Content-Disposition", "attachment; filename=\""+filename+"\"")
		http.ServeFile(w, r, txtPath)

	case "pdf":
		pdfName := strings.TrimSuffix(filename, ".txt") + ".pdf"
		pdfPath, err := h.store.Path(UserID(r), ports.CategoryText, pdfName)
		if err != nil {
			h.writeFailure(w, err)
			return
		}
		if _, err := os.Stat(pdfPath); err != nil {
			if err := h.pdf.Render(r.Context(), txtPath, pdfPath); err != nil {
				h.log.Log(logger.LogEntry{Level: "error", Message: "pdf render failed", Error: err})
				http.Error(w, "could not generate pdf", http.StatusInternalServerError)
				return
			}
		}
		w.Header().Set("Content-Disposition", "attachment; filename=\""+pdfName+"\"")
		http.ServeFile(w, r, pdfPath)

	default:
		http.Error(w, "invalid download type", http.StatusBadRequest)
	}
}

func (h *ConversionHandler) ListLogs(w http.ResponseWriter, r *http.Request) {
	userID := UserID(r)

	logs, err := h.svc.ListLogs(r.Context(), userID)
	if err != nil {
		h.log.Log(logger.LogEntry{Level: "error", Message: "db error", Error: err})
		http.Error(w, "db error: "+err.Error(), http.StatusInternalServerError)
		return
	}

	type logItem struct {
		ports.ConversionLog
		ArtifactSize    string  `json:"artifact_size,omitempty"`
		DurationSeconds float64 `json:"duration_seconds,omitempty"`
	}

	items := make([]logItem, 0, len(logs))
	for _, l := range logs {
		item := logItem{ConversionLog: l}
		cat := ports.CategoryAudio
		if l.Type == ports.TypeSTT {
			cat = ports.CategoryText
		}
		if path, err := h.store.Path(userID, cat, l.OutputFilename); err == nil {
			if st, err := os.Stat(path); err == nil {
				item.ArtifactSize = humanize.Bytes(uint64(st.Size()))
				// для аудио дополнительно длительность; сбой ffprobe
				// просто оставляет поле пустым
				if l.Type == ports.TypeTTS {
					if d, err := h.bridge.Duration(r.Context(), path); err == nil {
						item.DurationSeconds = d
					}
				}
			}
		}
		items = append(items, item)
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(items)
}

func (h *ConversionHandler) DeleteLog(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.Error(w, "invalid log id", http.StatusBadRequest)
		return
	}

	if err := h.svc.DeleteLog(r.Context(), UserID(r), id); err != nil {
		h.writeFailure(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{"deleted": id})
}

func (h *ConversionHandler) Engines(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"tts":            h.registry.TTSEngines(),
		"stt":            h.registry.STTEngines(),
		"vosk_languages": h.voskLanguages(),
	})
}

// writeFailure — типизированный отказ → HTTP-статус + сообщение пользователю.
func (h *ConversionHandler) writeFailure(w http.ResponseWriter, err error) {
	kind, ok := ports.KindOf(err)
	if !ok {
		h.log.Log(logger.LogEntry{Level: "error", Message: "unclassified error", Error: err})
		http.Error(w, "internal error: "+err.Error(), http.StatusInternalServerError)
		return
	}

	status := http.StatusInternalServerError
	switch kind {
	case ports.InputRejected:
		status = http.StatusBadRequest
	case ports.NotFound:
		status = http.StatusNotFound
	case ports.PermissionDenied:
		status = http.StatusForbidden
	case ports.EngineUnavailable:
		status = http.StatusServiceUnavailable
	case ports.ModelNotFound:
		status = http.StatusUnprocessableEntity
	}

	http.Error(w, err.Error(), status)
}
