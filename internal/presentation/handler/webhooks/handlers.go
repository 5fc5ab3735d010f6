package webhooks

import (
	"net/http"
	"time"

	"github.com/livekit/protocol/auth"
	"github.com/livekit/protocol/webhook"

	"github.com/lingopods/roomsync/internal/domain"
	"github.com/lingopods/roomsync/internal/infrastructure/json"
	"github.com/lingopods/roomsync/internal/infrastructure/logging"
	"github.com/lingopods/roomsync/internal/infrastructure/metrics"
	"github.com/lingopods/roomsync/internal/reconcile"
)

type Handler struct {
	rooms  domain.RoomRepository
	keys   auth.KeyProvider
	logger logging.Logger
}

func NewHandler(rooms domain.RoomRepository, keys auth.KeyProvider, logger logging.Logger) *Handler {
	return &Handler{
		rooms:  rooms,
		keys:   keys,
		logger: logger,
	}
}

// HandleLiveKitWebhook ingests one signed LiveKit event and applies the
// resulting state transition to the room store.
//
// Delivery is at-least-once and may be reordered, so every write derived
// here is idempotent: membership events carry the absolute participant
// count, and events older than what the store has already applied fall
// through as no-ops. A store failure is surfaced as 500 so LiveKit's own
// redelivery retries the event.
func (h *Handler) HandleLiveKitWebhook(w http.ResponseWriter, r *http.Request) {
	// ReceiveWebhookEvent verifies the Authorization JWT against the raw
	// request bytes before any parsing, so a tampered payload never
	// reaches the store.
	event, err := webhook.ReceiveWebhookEvent(r, h.keys)
	if err != nil {
		metrics.WebhookVerificationFailures.Inc()
		h.logger.Warn(logging.Webhook, logging.Verification, "webhook rejected", map[logging.ExtraKey]any{
			logging.ErrorMessage: err.Error(),
		})
		json.WriteUnauthorizedError(w, "Invalid webhook signature")
		return
	}

	snapshot := reconcile.Snapshot{
		RoomID:      event.GetRoom().GetName(),
		MemberCount: int(event.GetRoom().GetNumParticipants()),
		EventAt:     event.GetCreatedAt(),
	}

	decision := reconcile.ForEvent(event.GetEvent(), snapshot, time.Now().UTC())

	switch decision.Action {
	case reconcile.ActionUpsert:
		err = h.rooms.UpsertSnapshot(r.Context(), snapshot.RoomID, decision.Patch)
	case reconcile.ActionMerge:
		err = h.rooms.Merge(r.Context(), snapshot.RoomID, decision.Patch)
	default:
		metrics.WebhookEventsTotal.WithLabelValues(event.GetEvent(), "ignored").Inc()
		json.Write(w, http.StatusOK, statusResponse{Status: "ignored"})
		return
	}

	if err != nil {
		metrics.WebhookEventsTotal.WithLabelValues(event.GetEvent(), "error").Inc()
		h.logger.Error(logging.Webhook, logging.Reconcile, "failed to apply event", map[logging.ExtraKey]any{
			logging.RoomID:       snapshot.RoomID,
			logging.EventKind:    event.GetEvent(),
			logging.EventID:      event.GetId(),
			logging.ErrorMessage: err.Error(),
		})
		json.WriteInternalError(w)
		return
	}

	metrics.WebhookEventsTotal.WithLabelValues(event.GetEvent(), "applied").Inc()
	h.logger.Info(logging.Webhook, logging.Reconcile, "event applied", map[logging.ExtraKey]any{
		logging.RoomID:      snapshot.RoomID,
		logging.EventKind:   event.GetEvent(),
		logging.MemberCount: snapshot.MemberCount,
	})

	json.Write(w, http.StatusOK, statusResponse{Status: "ok"})
}
