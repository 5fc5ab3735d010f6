package events

import (
	"testing"
	"time"

	"github.com/lingopods/roomsync/internal/domain"
	"github.com/lingopods/roomsync/internal/infrastructure/contracts"
	"github.com/lingopods/roomsync/internal/infrastructure/logging"
	"github.com/lingopods/roomsync/internal/infrastructure/messaging"
)

func TestAuditEntryMapping(t *testing.T) {
	c := NewAuditConsumer(nil, nil, logging.NopLogger{})

	created := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	swept := created.Add(2 * time.Hour)

	reaped := c.auditEntry(contracts.EventRoomReaped, messaging.RoomEventData{
		Room:    domain.Room{ID: "lesson-1", CreatedAt: created},
		Reason:  "grace window elapsed",
		SweptAt: swept,
	})
	if reaped == nil {
		t.Fatal("reaped event produced no audit entry")
	}
	if reaped.EventType != domain.EventRoomReaped || reaped.RoomID != "lesson-1" {
		t.Errorf("entry = %+v", reaped)
	}
	if got := reaped.Metadata["age_seconds"]; got != (2 * time.Hour).Seconds() {
		t.Errorf("age_seconds = %v, want %v", got, (2 * time.Hour).Seconds())
	}

	archived := c.auditEntry(contracts.EventRoomArchived, messaging.RoomEventData{
		Room: domain.Room{ID: "lesson-2", MemberCount: 5},
	})
	if archived == nil || archived.EventType != domain.EventRoomArchived {
		t.Fatalf("entry = %+v", archived)
	}
	if got := archived.Metadata["member_count"]; got != 5 {
		t.Errorf("member_count = %v, want 5", got)
	}

	if c.auditEntry("room.renamed", messaging.RoomEventData{}) != nil {
		t.Error("unknown kind must map to no entry")
	}
}
