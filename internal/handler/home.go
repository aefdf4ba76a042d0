package handler

import (
	"log/slog"
	"net/http"

	"github.com/msomdec/userdata-api/internal/service"
	"github.com/msomdec/userdata-api/internal/view"
)

// HomeHandler renders the status page.
type HomeHandler struct {
	records *service.RecordService
}

// NewHomeHandler creates a new HomeHandler.
func NewHomeHandler(records *service.RecordService) *HomeHandler {
	return &HomeHandler{records: records}
}

// HandleHome renders the home page with the current record count.
func (h *HomeHandler) HandleHome(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	count, err := h.records.Count(r.Context())
	if err != nil {
		slog.Error("count records", "error", err)
		http.Error(w, "Failed to load status", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := view.HomePage(count).Render(r.Context(), w); err != nil {
		slog.Error("render home page", "error", err)
	}
}
