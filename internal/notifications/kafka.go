package notifications

import (
	"context"
	"fmt"

	"tablebook/pkg/kafka"
	"tablebook/pkg/model"
)

type publisher interface {
	Publish(ctx context.Context, msg kafka.Message) error
}

// KafkaNotifier publishes reservation events keyed by tenant, so events for
// one tenant stay ordered within a partition.
type KafkaNotifier struct {
	producer publisher
	source   string
}

func NewKafkaNotifier(producer *kafka.Producer, source string) *KafkaNotifier {
	return &KafkaNotifier{producer: producer, source: source}
}

func (n *KafkaNotifier) Notify(ctx context.Context, kind Kind, reservation *model.Reservation) error {
	msg, err := kafka.NewMessage().
		WithKey(reservation.TenantID).
		WithValue(NewEvent(kind, reservation)).
		WithEventType(string(kind)).
		WithSchemaVersion(SchemaVersion).
		WithSource(n.source).
		Build()
	if err != nil {
		return fmt.Errorf("build reservation event: %w", err)
	}
	return n.producer.Publish(ctx, msg)
}
