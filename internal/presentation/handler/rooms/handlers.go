package rooms

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/lingopods/roomsync/internal/domain"
	"github.com/lingopods/roomsync/internal/infrastructure/json"
	"github.com/lingopods/roomsync/internal/infrastructure/logging"
)

const (
	defaultListLimit  = 100
	defaultAuditLimit = 50
)

type Handler struct {
	rooms  domain.RoomRepository
	audit  domain.RoomAuditRepository
	logger logging.Logger
}

func NewHandler(rooms domain.RoomRepository, audit domain.RoomAuditRepository, logger logging.Logger) *Handler {
	return &Handler{
		rooms:  rooms,
		audit:  audit,
		logger: logger,
	}
}

// ListRoomsHandler returns the rooms clients should offer to join: active
// records only. Archived rooms are retained in the store but hidden here.
func (h *Handler) ListRoomsHandler(w http.ResponseWriter, r *http.Request) {
	rooms, err := h.rooms.ListActive(r.Context(), defaultListLimit)
	if err != nil {
		h.logger.Error(logging.Mongo, logging.ExternalService, "failed to list rooms", map[logging.ExtraKey]any{
			logging.ErrorMessage: err.Error(),
		})
		json.WriteInternalError(w)
		return
	}

	resp := listRoomsResponse{Rooms: make([]roomResponse, 0, len(rooms))}
	for _, room := range rooms {
		resp.Rooms = append(resp.Rooms, toRoomResponse(room))
	}

	json.Write(w, http.StatusOK, resp)
}

func (h *Handler) GetRoomHandler(w http.ResponseWriter, r *http.Request) {
	roomID := chi.URLParam(r, "roomId")
	if roomID == "" {
		json.WriteError(w, http.StatusBadRequest, "room ID is missing")
		return
	}

	room, err := h.rooms.GetByID(r.Context(), roomID)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrRoomNotFound):
			json.WriteNotFoundError(w, "Room not found")
		default:
			h.logger.Error(logging.Mongo, logging.ExternalService, "failed to load room", map[logging.ExtraKey]any{
				logging.RoomID:       roomID,
				logging.ErrorMessage: err.Error(),
			})
			json.WriteInternalError(w)
		}
		return
	}

	json.Write(w, http.StatusOK, toRoomResponse(*room))
}

// GetRoomAuditHandler returns the reconciliation trail for a room. It
// works for reaped rooms too; the audit trail outlives the record.
func (h *Handler) GetRoomAuditHandler(w http.ResponseWriter, r *http.Request) {
	roomID := chi.URLParam(r, "roomId")
	if roomID == "" {
		json.WriteError(w, http.StatusBadRequest, "room ID is missing")
		return
	}

	logs, err := h.audit.GetByRoomID(r.Context(), roomID, defaultAuditLimit)
	if err != nil {
		h.logger.Error(logging.Mongo, logging.ExternalService, "failed to load audit trail", map[logging.ExtraKey]any{
			logging.RoomID:       roomID,
			logging.ErrorMessage: err.Error(),
		})
		json.WriteInternalError(w)
		return
	}

	json.Write(w, http.StatusOK, auditResponse{RoomID: roomID, Events: logs})
}
