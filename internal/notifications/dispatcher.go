package notifications

import (
	"context"
	"fmt"

	"tablebook/pkg/kafka"
	"tablebook/pkg/logger"
)

// Sender hands a decoded event to the outside world (email, SMS).
type Sender interface {
	Send(ctx context.Context, event ReservationEvent) error
}

// LogSender records the message that would be delivered.
type LogSender struct {
	log *logger.Logger
}

func NewLogSender(log *logger.Logger) *LogSender {
	return &LogSender{log: log}
}

func (s *LogSender) Send(_ context.Context, event ReservationEvent) error {
	s.log.Info("Reservation notification",
		"kind", event.Kind,
		"tenant_id", event.TenantID,
		"confirmation_code", event.ConfirmationCode,
		"date", event.Date,
		"time_slot", event.TimeSlot,
		"contact_info_set", event.ContactInfo != "",
	)
	return nil
}

// Dispatcher is the consumer-side handler for the reservation events topic.
type Dispatcher struct {
	sender Sender
	log    *logger.Logger
}

func NewDispatcher(sender Sender, log *logger.Logger) *Dispatcher {
	return &Dispatcher{sender: sender, log: log}
}

// Handle is a kafka.MessageHandler. Undecodable events are permanent failures;
// sender failures are transient and retried by the consumer.
func (d *Dispatcher) Handle(ctx context.Context, msg kafka.Message) error {
	var event ReservationEvent
	if err := msg.DecodeValue(&event); err != nil {
		return kafka.NewPermanentError("decode reservation event", err)
	}
	if !event.Kind.Valid() {
		return kafka.NewPermanentError(fmt.Sprintf("unknown event kind %q", event.Kind), nil)
	}
	if v := msg.Headers[kafka.HeaderSchemaVersion]; v != "" && v != SchemaVersion {
		return kafka.NewPermanentError(fmt.Sprintf("unsupported schema version %q", v), nil)
	}

	if err := d.sender.Send(ctx, event); err != nil {
		return kafka.NewTransientError("send reservation notification", err)
	}

	d.log.Debug("Reservation event dispatched", "event_id", msg.GetEventID(), "kind", event.Kind)
	return nil
}
