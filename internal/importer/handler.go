package importer

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"

	"github.com/kampfth/partner-center/internal/platform/httpx"
)

// maxUploadBytes bounds one upload. Annual exports run a few megabytes;
// anything past this is not an earnings file.
const maxUploadBytes = 64 << 20

// Handler exposes the import pipeline over HTTP.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler constructs the import HTTP handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers import endpoints onto the router. Uploads are
// throttled hard; a human uploads a handful of files, not dozens a minute.
func (h *Handler) MountRoutes(r chi.Router) {
	if h == nil {
		return
	}
	r.Get("/import/history", h.handleHistory)
	r.Group(func(gr chi.Router) {
		gr.Use(httprate.Limit(10, time.Minute, httprate.WithKeyFuncs(httprate.KeyByIP)))
		gr.Post("/import", h.handleUpload)
	})
}

func (h *Handler) handleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid upload", "multipart form with a file field is required")
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid upload", "file field is required")
		return
	}
	defer file.Close()

	summary, err := h.service.ProcessUpload(r.Context(), header.Filename, file)
	if err != nil {
		h.logger.Error("import upload", slog.String("filename", header.Filename), slog.Any("error", err))
		httpx.JSON(w, http.StatusUnprocessableEntity, summary)
		return
	}
	httpx.JSON(w, http.StatusOK, summary)
}

func (h *Handler) handleHistory(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 || n > 500 {
			httpx.Problem(w, http.StatusBadRequest, "Invalid limit", "limit must be between 1 and 500")
			return
		}
		limit = n
	}
	records, err := h.service.History(r.Context(), limit)
	if err != nil {
		h.logger.Error("import history", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal error", "import history could not be loaded")
		return
	}
	if records == nil {
		records = []Record{}
	}
	httpx.JSON(w, http.StatusOK, map[string][]Record{"imports": records})
}
