package messaging

import (
	"time"

	"github.com/lingopods/roomsync/internal/domain"
)

const (
	RoomsQueue      = "rooms"
	DeadLetterQueue = "dead_letter_queue"
)

// RoomEventData is the payload carried by room lifecycle notifications.
type RoomEventData struct {
	Room    domain.Room `json:"room"`
	Reason  string      `json:"reason,omitempty"`
	SweptAt time.Time   `json:"sweptAt,omitempty"`
}
