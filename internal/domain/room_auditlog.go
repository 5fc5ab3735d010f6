package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type RoomEventType string

const (
	EventRoomCreated  RoomEventType = "room_created"
	EventRoomUpdated  RoomEventType = "room_updated"
	EventRoomArchived RoomEventType = "room_archived"
	EventRoomReaped   RoomEventType = "room_reaped"
)

// RoomAuditLog is an append-only trail of reconciliation outcomes, kept
// separately from the live room records so a reaped room still leaves a
// trace behind.
type RoomAuditLog struct {
	ID        string         `bson:"_id" json:"id"`
	RoomID    string         `bson:"room_id" json:"roomId"`
	EventType RoomEventType  `bson:"event_type" json:"eventType"`
	Timestamp time.Time      `bson:"timestamp" json:"timestamp"`
	Metadata  map[string]any `bson:"metadata,omitempty" json:"metadata,omitempty"`
}

type RoomAuditRepository interface {
	Log(ctx context.Context, log *RoomAuditLog) error
	GetByRoomID(ctx context.Context, roomID string, limit int) ([]RoomAuditLog, error)
	DeleteOlderThan(ctx context.Context, before time.Time) error
	EnsureIndexes(ctx context.Context) error
}

func NewRoomReapedLog(roomID string, reason string, age time.Duration) *RoomAuditLog {
	return &RoomAuditLog{
		ID:        uuid.NewString(),
		RoomID:    roomID,
		EventType: EventRoomReaped,
		Timestamp: time.Now().UTC(),
		Metadata: map[string]any{
			"reason":      reason,
			"age_seconds": age.Seconds(),
		},
	}
}

func NewRoomArchivedLog(roomID string, memberCount int) *RoomAuditLog {
	return &RoomAuditLog{
		ID:        uuid.NewString(),
		RoomID:    roomID,
		EventType: EventRoomArchived,
		Timestamp: time.Now().UTC(),
		Metadata: map[string]any{
			"member_count": memberCount,
		},
	}
}
