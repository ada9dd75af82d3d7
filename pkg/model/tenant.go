package model

import "time"

type Weekday string

const (
	Sunday    Weekday = "sunday"
	Monday    Weekday = "monday"
	Tuesday   Weekday = "tuesday"
	Wednesday Weekday = "wednesday"
	Thursday  Weekday = "thursday"
	Friday    Weekday = "friday"
	Saturday  Weekday = "saturday"
)

// WeekdayOf maps a time.Weekday onto the policy key.
func WeekdayOf(w time.Weekday) Weekday {
	switch w {
	case time.Monday:
		return Monday
	case time.Tuesday:
		return Tuesday
	case time.Wednesday:
		return Wednesday
	case time.Thursday:
		return Thursday
	case time.Friday:
		return Friday
	case time.Saturday:
		return Saturday
	default:
		return Sunday
	}
}

type OpeningHours struct {
	Open  string `json:"open" bson:"open" validate:"required,hhmm"`
	Close string `json:"close" bson:"close" validate:"required,hhmm"`
}

// Tenant is the per-restaurant booking policy. WeeklyHours is descriptive
// metadata for clients and is not consulted when deciding availability.
type Tenant struct {
	ID                 string                   `json:"id" bson:"_id" validate:"required,min=1,max=64"`
	Name               string                   `json:"name,omitempty" bson:"name,omitempty" validate:"omitempty,min=2,max=100"`
	TimeZone           string                   `json:"time_zone" bson:"time_zone" validate:"required,timezone"`
	CapacityPerSlot    int                      `json:"capacity_per_slot" bson:"capacity_per_slot" validate:"min=1,max=1000"`
	BookingHorizonDays int                      `json:"booking_horizon_days" bson:"booking_horizon_days" validate:"min=0,max=3650"`
	WeeklyHours        map[Weekday]OpeningHours `json:"weekly_hours,omitempty" bson:"weekly_hours,omitempty" validate:"omitempty,dive,keys,oneof=sunday monday tuesday wednesday thursday friday saturday,endkeys"`
	CreatedAt          time.Time                `json:"created_at" bson:"created_at"`
	UpdatedAt          time.Time                `json:"updated_at" bson:"updated_at"`
}

// HoursOn returns the declared opening hours for the given weekday.
func (t *Tenant) HoursOn(w time.Weekday) (OpeningHours, bool) {
	h, ok := t.WeeklyHours[WeekdayOf(w)]
	return h, ok
}
