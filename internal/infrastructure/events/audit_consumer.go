package events

import (
	"context"
	"encoding/json"

	"github.com/rabbitmq/amqp091-go"

	"github.com/lingopods/roomsync/internal/domain"
	"github.com/lingopods/roomsync/internal/infrastructure/contracts"
	"github.com/lingopods/roomsync/internal/infrastructure/logging"
	"github.com/lingopods/roomsync/internal/infrastructure/messaging"
)

// AuditConsumer turns room lifecycle notifications into audit log records,
// so a reaped room still leaves a queryable trace.
type AuditConsumer struct {
	rabbitmq *messaging.RabbitMQ
	audit    domain.RoomAuditRepository
	logger   logging.Logger
}

func NewAuditConsumer(rabbitmq *messaging.RabbitMQ, audit domain.RoomAuditRepository, logger logging.Logger) *AuditConsumer {
	return &AuditConsumer{
		rabbitmq: rabbitmq,
		audit:    audit,
		logger:   logger,
	}
}

func (c *AuditConsumer) Listen(ctx context.Context) error {
	return c.rabbitmq.ConsumeMessages(ctx, messaging.RoomsQueue, func(ctx context.Context, msg amqp091.Delivery) error {
		var message contracts.AmqpMessage
		if err := json.Unmarshal(msg.Body, &message); err != nil {
			c.logger.Error(logging.RabbitMQ, logging.Consume, "failed to unmarshal message", map[logging.ExtraKey]any{
				logging.ErrorMessage: err.Error(),
			})
			return err
		}

		var payload messaging.RoomEventData
		if err := json.Unmarshal(message.Data, &payload); err != nil {
			c.logger.Error(logging.RabbitMQ, logging.Consume, "failed to unmarshal room event", map[logging.ExtraKey]any{
				logging.RoomID:       message.RoomID,
				logging.ErrorMessage: err.Error(),
			})
			return err
		}

		entry := c.auditEntry(message.Kind, payload)
		if entry == nil {
			c.logger.Warn(logging.RabbitMQ, logging.Consume, "unknown room event kind", map[logging.ExtraKey]any{
				logging.RoomID:    message.RoomID,
				logging.EventKind: message.Kind,
			})
			return nil
		}

		if err := c.audit.Log(ctx, entry); err != nil {
			c.logger.Error(logging.Mongo, logging.Consume, "failed to write audit log", map[logging.ExtraKey]any{
				logging.RoomID:       message.RoomID,
				logging.ErrorMessage: err.Error(),
			})
			return err
		}

		return nil
	})
}

func (c *AuditConsumer) auditEntry(kind string, payload messaging.RoomEventData) *domain.RoomAuditLog {
	switch kind {
	case contracts.EventRoomReaped:
		age := payload.SweptAt.Sub(payload.Room.CreatedAt)
		return domain.NewRoomReapedLog(payload.Room.ID, payload.Reason, age)
	case contracts.EventRoomArchived:
		return domain.NewRoomArchivedLog(payload.Room.ID, payload.Room.MemberCount)
	}
	return nil
}
