package contracts

import "encoding/json"

// Routing keys for room lifecycle notifications.
const (
	EventRoomArchived = "room.archived"
	EventRoomReaped   = "room.reaped"
)

type AmqpMessage struct {
	RoomID string          `json:"roomId"`
	Kind   string          `json:"kind"`
	Data   json.RawMessage `json:"data"`
}
