package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// PublishHandler triggers scheduler sweeps.
type PublishHandler struct {
	Deps Dependencies
}

// HandlePublishDue runs one sweep with now = current time and reports the
// processed count. Individual post failures are recorded on the posts and
// never fail this endpoint; only a broken due-post query does.
func (h *PublishHandler) HandlePublishDue(w http.ResponseWriter, r *http.Request) {
	processed, err := h.Deps.Publisher.RunSweep(r.Context(), time.Now().UTC())
	if err != nil {
		h.Deps.Logger.Error("sweep failed", zap.Error(err))

		http.Error(w, "failed to run sweep: "+err.Error(), http.StatusInternalServerError)

		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]int{"processed": processed})
}
