package rooms

import (
	"time"

	"github.com/lingopods/roomsync/internal/domain"
)

// roomResponse is the client-facing shape of a room record
type roomResponse struct {
	RoomID        string     `json:"roomId" example:"lesson-7f3a"`
	MemberCount   int        `json:"memberCount" example:"3"`
	IsActive      bool       `json:"isActive" example:"true"`
	CreatedAt     time.Time  `json:"createdAt" example:"2024-01-01T12:00:00Z"`
	LastUpdatedAt time.Time  `json:"lastUpdatedAt" example:"2024-01-01T12:05:00Z"`
	EndedAt       *time.Time `json:"endedAt,omitempty"`
}

type listRoomsResponse struct {
	Rooms []roomResponse `json:"rooms"`
}

type auditResponse struct {
	RoomID string                `json:"roomId"`
	Events []domain.RoomAuditLog `json:"events"`
}

func toRoomResponse(room domain.Room) roomResponse {
	return roomResponse{
		RoomID:        room.ID,
		MemberCount:   room.MemberCount,
		IsActive:      room.IsActive,
		CreatedAt:     room.CreatedAt,
		LastUpdatedAt: room.LastUpdatedAt,
		EndedAt:       room.EndedAt,
	}
}
