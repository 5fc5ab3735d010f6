package health

import (
	"context"
	"net/http"
	"time"

	"github.com/lingopods/roomsync/internal/infrastructure/json"
)

var startTime = time.Now()

// Pinger reports whether a backing dependency is reachable.
type Pinger func(ctx context.Context) error

type Handler struct {
	store Pinger
}

func NewHandler(store Pinger) *Handler {
	return &Handler{store: store}
}

func (h *Handler) GetHealth(w http.ResponseWriter, r *http.Request) {
	json.Write(w, http.StatusOK, healthResponse{
		Status:    "ok",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Uptime:    time.Since(startTime).Round(time.Second).String(),
	})
}

// GetReady also checks the room store; a service that cannot reach it can
// accept neither webhooks nor sweeps.
func (h *Handler) GetReady(w http.ResponseWriter, r *http.Request) {
	if h.store != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := h.store(ctx); err != nil {
			json.Write(w, http.StatusServiceUnavailable, healthResponse{
				Status:    "unhealthy",
				Timestamp: time.Now().UTC().Format(time.RFC3339),
				Uptime:    time.Since(startTime).Round(time.Second).String(),
			})
			return
		}
	}

	h.GetHealth(w, r)
}
