package availability

import (
	"time"

	"tablebook/pkg/model"
)

const (
	DefaultStepMinutes = 15
	DefaultMaxSteps    = 96
)

type Options struct {
	StepMinutes int
	MaxSteps    int
}

// Engine decides whether a single slot can be booked. It is pure: all inputs
// arrive as arguments and the only ambient read is the clock.
type Engine struct {
	tc       *TimeContext
	step     time.Duration
	maxSteps int
}

func NewEngine(tc *TimeContext, opts Options) *Engine {
	if opts.StepMinutes <= 0 {
		opts.StepMinutes = DefaultStepMinutes
	}
	if opts.MaxSteps < 0 {
		opts.MaxSteps = DefaultMaxSteps
	}
	return &Engine{
		tc:       tc,
		step:     time.Duration(opts.StepMinutes) * time.Minute,
		maxSteps: opts.MaxSteps,
	}
}

// Screen runs the checks that need no ledger: invalid input, past and beyond
// the horizon. ok is false when the returned decision already rejects the
// slot; otherwise the decision is empty and instant is the parsed slot.
func (e *Engine) Screen(date, timeSlot string, policy *model.Tenant) (instant time.Time, d Decision, ok bool) {
	if policy == nil {
		return time.Time{}, rejected(OutcomeInvalid), false
	}
	instant, err := e.tc.Parse(date, timeSlot, policy.TimeZone)
	if err != nil {
		return time.Time{}, rejected(OutcomeInvalid), false
	}

	// One reading of the clock serves both the past and horizon checks.
	now, err := e.tc.Now(policy.TimeZone)
	if err != nil {
		return time.Time{}, rejected(OutcomeInvalid), false
	}
	if pastAt(instant, now) {
		return instant, rejected(OutcomePast), false
	}
	if instant.After(horizonEndAt(now, policy.BookingHorizonDays)) {
		return instant, rejected(OutcomeOutOfWindow), false
	}
	return instant, Decision{}, true
}

// Evaluate applies the checks in a fixed order and returns on the first hit:
// invalid input, past, beyond the horizon, blocked, full, available.
func (e *Engine) Evaluate(date, timeSlot string, policy *model.Tenant, ledger Ledger) Decision {
	instant, d, ok := e.Screen(date, timeSlot, policy)
	if !ok {
		return d
	}

	if ledger.Blocked(timeSlot) {
		return unavailable(OutcomeBlocked, e.FindAlternatives(instant, policy, ledger))
	}

	confirmed := ledger.Confirmed(timeSlot)
	if confirmed >= policy.CapacityPerSlot {
		return unavailable(OutcomeFull, e.FindAlternatives(instant, policy, ledger))
	}

	return available(policy.CapacityPerSlot - confirmed)
}

// FindAlternatives scans outward from center in both directions and returns
// the nearest slot on each side that is neither blocked nor full. Scanning
// stops at the edge of center's calendar date. Candidates are generated by
// adding whole steps to the instant, so DST transitions are resolved by the
// zone database rather than by wall-clock arithmetic.
func (e *Engine) FindAlternatives(center time.Time, policy *model.Tenant, ledger Ledger) Alternatives {
	if policy == nil {
		return Alternatives{}
	}
	date := center.Format(DateLayout)
	return Alternatives{
		Before: e.scan(center, date, -e.step, policy.CapacityPerSlot, ledger),
		After:  e.scan(center, date, e.step, policy.CapacityPerSlot, ledger),
	}
}

func (e *Engine) scan(center time.Time, date string, step time.Duration, capacity int, ledger Ledger) *string {
	for i := 1; i <= e.maxSteps; i++ {
		candidate := center.Add(time.Duration(i) * step)
		if candidate.Format(DateLayout) != date {
			return nil
		}
		slot := candidate.Format(TimeLayout)
		if ledger.hasRoom(slot, capacity) {
			return &slot
		}
	}
	return nil
}
