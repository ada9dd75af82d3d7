package notifications

import (
	"context"
	"time"

	"tablebook/pkg/model"
)

type Kind string

const (
	KindCreated  Kind = "reservation.created"
	KindChanged  Kind = "reservation.changed"
	KindCanceled Kind = "reservation.canceled"
)

const SchemaVersion = "1"

func (k Kind) Valid() bool {
	switch k {
	case KindCreated, KindChanged, KindCanceled:
		return true
	}
	return false
}

// ReservationEvent is the payload shared by every notifier and by the
// consumer on the other side of the topic.
type ReservationEvent struct {
	Kind             Kind      `json:"kind"`
	TenantID         string    `json:"tenant_id"`
	ConfirmationCode string    `json:"confirmation_code"`
	Date             string    `json:"date"`
	TimeSlot         string    `json:"time_slot"`
	Status           string    `json:"status"`
	Name             string    `json:"name,omitempty"`
	PartySize        int       `json:"party_size,omitempty"`
	ContactInfo      string    `json:"contact_info,omitempty"`
	OccurredAt       time.Time `json:"occurred_at"`
}

func NewEvent(kind Kind, r *model.Reservation) ReservationEvent {
	return ReservationEvent{
		Kind:             kind,
		TenantID:         r.TenantID,
		ConfirmationCode: r.ConfirmationCode,
		Date:             r.Date,
		TimeSlot:         r.TimeSlot,
		Status:           r.Status,
		Name:             r.Name,
		PartySize:        r.PartySize,
		ContactInfo:      r.ContactInfo,
		OccurredAt:       time.Now().UTC(),
	}
}

// Notifier delivers a side effect for a committed reservation change.
// Failures never roll back the change.
type Notifier interface {
	Notify(ctx context.Context, kind Kind, reservation *model.Reservation) error
}

type NotifierFunc func(ctx context.Context, kind Kind, reservation *model.Reservation) error

func (f NotifierFunc) Notify(ctx context.Context, kind Kind, reservation *model.Reservation) error {
	return f(ctx, kind, reservation)
}
