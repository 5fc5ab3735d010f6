package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/lingopods/roomsync/internal/domain"
	"github.com/lingopods/roomsync/internal/infrastructure/contracts"
	"github.com/lingopods/roomsync/internal/infrastructure/messaging"
)

// RoomPublisher emits room lifecycle notifications from the sweeper path.
// The webhook handler never publishes: its contract is store writes only,
// so upstream redelivery stays side-effect free.
type RoomPublisher struct {
	rabbitmq *messaging.RabbitMQ
}

func NewRoomPublisher(rabbitmq *messaging.RabbitMQ) *RoomPublisher {
	return &RoomPublisher{
		rabbitmq: rabbitmq,
	}
}

// PublishRoomReaped announces that the sweeper deleted a room. A nil
// publisher is a no-op so the broker stays optional in development.
func (p *RoomPublisher) PublishRoomReaped(ctx context.Context, room domain.Room, reason string) error {
	if p == nil || p.rabbitmq == nil {
		return nil
	}

	payload := messaging.RoomEventData{
		Room:    room,
		Reason:  reason,
		SweptAt: time.Now().UTC(),
	}

	roomEventJSON, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	return p.rabbitmq.PublishMessage(ctx, contracts.EventRoomReaped, contracts.AmqpMessage{
		RoomID: room.ID,
		Kind:   contracts.EventRoomReaped,
		Data:   roomEventJSON,
	})
}
