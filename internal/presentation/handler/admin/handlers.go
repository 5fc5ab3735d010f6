package admin

import (
	"net/http"

	"github.com/lingopods/roomsync/internal/infrastructure/json"
	"github.com/lingopods/roomsync/internal/sweeper"
)

type Handler struct {
	sweeper *sweeper.Sweeper
}

func NewHandler(s *sweeper.Sweeper) *Handler {
	return &Handler{sweeper: s}
}

// TriggerSweepHandler runs one sweep immediately and reports the summary.
// Running it concurrently with the scheduled sweep is safe, just wasteful.
func (h *Handler) TriggerSweepHandler(w http.ResponseWriter, r *http.Request) {
	summary := h.sweeper.Sweep(r.Context())
	json.Write(w, http.StatusOK, summary)
}
