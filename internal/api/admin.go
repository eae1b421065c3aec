package api

import (
	"context"
	"net/http"

	"github.com/MikeSquared-Agency/Assay/internal/store"
	"github.com/MikeSquared-Agency/Assay/internal/tracker"
)

// Syncer runs an on-demand spawn list sync.
type Syncer interface {
	SyncNow(ctx context.Context) ([]tracker.SyncResult, error)
}

type AdminHandler struct {
	store  store.Store
	syncer Syncer
}

func NewAdminHandler(s store.Store, sy Syncer) *AdminHandler {
	return &AdminHandler{store: s, syncer: sy}
}

func (h *AdminHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.store.GetStats(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (h *AdminHandler) Sync(w http.ResponseWriter, r *http.Request) {
	results, err := h.syncer.SyncNow(r.Context())
	if err != nil {
		writeJSON(w, http.StatusBadGateway, map[string]interface{}{"error": err.Error(), "results": results})
		return
	}
	if results == nil {
		results = []tracker.SyncResult{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"results": results})
}
