package model

import "time"

const (
	StatusConfirmed = "CONFIRMED"
	StatusCanceled  = "CANCELED"
	StatusBlocked   = "BLOCKED"
)

// Reservation is one slot record. BLOCKED rows are operator-imposed
// unavailability and carry no guest fields.
type Reservation struct {
	ID               string     `json:"id,omitempty" bson:"_id,omitempty"`
	TenantID         string     `json:"tenant_id" bson:"tenant_id"`
	Date             string     `json:"date" bson:"date"`
	TimeSlot         string     `json:"time_slot" bson:"time_slot"`
	Status           string     `json:"status" bson:"status"`
	ConfirmationCode string     `json:"confirmation_code,omitempty" bson:"confirmation_code,omitempty"`
	Name             string     `json:"name,omitempty" bson:"name,omitempty"`
	PartySize        int        `json:"party_size,omitempty" bson:"party_size,omitempty"`
	ContactInfo      string     `json:"contact_info,omitempty" bson:"contact_info,omitempty"`
	CreatedAt        time.Time  `json:"created_at" bson:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at" bson:"updated_at"`
	CanceledAt       *time.Time `json:"canceled_at,omitempty" bson:"canceled_at,omitempty"`
}

// CreateReservationRequest carries the guest-supplied fields of a booking.
// Presence is checked by the workflow so every missing field can be reported.
type CreateReservationRequest struct {
	TenantID    string `json:"-"`
	Name        string `json:"name" validate:"omitempty,min=1,max=100"`
	PartySize   int    `json:"party_size" validate:"omitempty,min=1,max=100"`
	ContactInfo string `json:"contact_info" validate:"omitempty,max=254,contact"`
	Date        string `json:"date"`
	TimeSlot    string `json:"time_slot"`
}

type ChangeReservationRequest struct {
	TenantID         string `json:"-"`
	ConfirmationCode string `json:"-"`
	Date             string `json:"date"`
	TimeSlot         string `json:"time_slot"`
}

type CancelReservationRequest struct {
	TenantID         string `json:"-"`
	ConfirmationCode string `json:"-"`
}

type AvailabilityRequest struct {
	TenantID string `json:"tenant_id"`
	Date     string `json:"date"`
	TimeSlot string `json:"time_slot"`
}

// SlotLock is an advisory lock document serialising writers on one slot.
type SlotLock struct {
	ID        string    `bson:"_id" json:"id"`
	Owner     string    `bson:"owner" json:"owner"`
	ExpiresAt time.Time `bson:"expires_at" json:"expires_at"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}
