package availability

import (
	"errors"
	"fmt"
	"regexp"
	"sync"
	"time"
)

const (
	DateLayout = "2006-01-02"
	TimeLayout = "15:04"
)

var (
	ErrInvalidDate     = errors.New("date must be formatted as YYYY-MM-DD")
	ErrInvalidTimeSlot = errors.New("time slot must be formatted as HH:mm (24-hour)")
	ErrUnknownTimeZone = errors.New("unknown time zone")
)

var (
	reDate = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
	reTime = regexp.MustCompile(`^([01]\d|2[0-3]):[0-5]\d$`)
)

type Clock interface {
	Now() time.Time
}

type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

// FixedClock always reports the same instant.
type FixedClock struct {
	At time.Time
}

func (c FixedClock) Now() time.Time { return c.At }

// TimeContext owns all calendar and zone arithmetic. Every comparison happens
// in the tenant's zone; offsets are never computed by hand.
type TimeContext struct {
	clock     Clock
	locations sync.Map
}

func NewTimeContext(clock Clock) *TimeContext {
	if clock == nil {
		clock = SystemClock{}
	}
	return &TimeContext{clock: clock}
}

func (tc *TimeContext) Location(tz string) (*time.Location, error) {
	// time.LoadLocation("") yields UTC, which would silently coerce.
	if tz == "" || tz == "Local" {
		return nil, fmt.Errorf("%w: %q", ErrUnknownTimeZone, tz)
	}
	if loc, ok := tc.locations.Load(tz); ok {
		return loc.(*time.Location), nil
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrUnknownTimeZone, tz)
	}
	tc.locations.Store(tz, loc)
	return loc, nil
}

func (tc *TimeContext) Now(tz string) (time.Time, error) {
	loc, err := tc.Location(tz)
	if err != nil {
		return time.Time{}, err
	}
	return tc.clock.Now().In(loc), nil
}

func (tc *TimeContext) Parse(date, timeSlot, tz string) (time.Time, error) {
	loc, err := tc.Location(tz)
	if err != nil {
		return time.Time{}, err
	}
	return parseIn(date, timeSlot, loc)
}

// IsPast is true iff the slot instant is strictly before now.
func (tc *TimeContext) IsPast(date, timeSlot, tz string) (bool, error) {
	instant, err := tc.Parse(date, timeSlot, tz)
	if err != nil {
		return false, err
	}
	now, err := tc.Now(tz)
	if err != nil {
		return false, err
	}
	return pastAt(instant, now), nil
}

// HorizonEnd is the last instant of the day horizonDays after today.
func (tc *TimeContext) HorizonEnd(tz string, horizonDays int) (time.Time, error) {
	now, err := tc.Now(tz)
	if err != nil {
		return time.Time{}, err
	}
	return horizonEndAt(now, horizonDays), nil
}

func parseIn(date, timeSlot string, loc *time.Location) (time.Time, error) {
	if !reDate.MatchString(date) {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, date)
	}
	if !reTime.MatchString(timeSlot) {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidTimeSlot, timeSlot)
	}
	t, err := time.ParseInLocation(DateLayout+" "+TimeLayout, date+" "+timeSlot, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, date)
	}
	return t, nil
}

func pastAt(instant, now time.Time) bool {
	return instant.Before(now)
}

func horizonEndAt(now time.Time, horizonDays int) time.Time {
	y, m, d := now.Date()
	return time.Date(y, m, d+horizonDays, 23, 59, 59, int(time.Second-time.Nanosecond), now.Location())
}

// ValidDate reports whether s is a well-formed calendar date.
func ValidDate(s string) bool {
	if !reDate.MatchString(s) {
		return false
	}
	_, err := time.Parse(DateLayout, s)
	return err == nil
}

// ValidTimeSlot reports whether s is a well-formed 24-hour HH:mm value.
func ValidTimeSlot(s string) bool {
	return reTime.MatchString(s)
}
