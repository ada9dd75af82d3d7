package service

import (
	"tablebook/internal/availability"
	"tablebook/pkg/model"
)

// Stage is the furthest point a workflow run reached.
type Stage string

const (
	StageReceived              Stage = "RECEIVED"
	StageValidated             Stage = "VALIDATED"
	StageEvaluated             Stage = "EVALUATED"
	StageCommitted             Stage = "COMMITTED"
	StageRejected              Stage = "REJECTED"
	StageSideEffectsDispatched Stage = "SIDE_EFFECTS_DISPATCHED"
)

// OutcomeCanceled reports a successful cancellation. The remaining outcomes
// come from the availability engine.
const OutcomeCanceled availability.Outcome = "CANCELED"

// Result is returned for every request that got past input validation.
// Rejections by the engine are results, not errors.
type Result struct {
	Outcome           availability.Outcome       `json:"outcome"`
	RemainingCapacity *int                       `json:"remaining_capacity,omitempty"`
	Alternatives      *availability.Alternatives `json:"alternatives,omitempty"`
	ConfirmationCode  string                     `json:"confirmation_code,omitempty"`
	Reservation       *model.Reservation         `json:"reservation,omitempty"`
	// OpeningHours echoes the tenant's declared hours for the requested day.
	// Informational only; availability never depends on it.
	OpeningHours *model.OpeningHours `json:"opening_hours,omitempty"`

	Stage     Stage `json:"-"`
	Committed bool  `json:"-"`
}

func decisionResult(d availability.Decision, stage Stage) *Result {
	res := &Result{
		Outcome:      d.Outcome,
		Alternatives: d.Alternatives,
		Stage:        stage,
	}
	switch d.Outcome {
	case availability.OutcomeAvailable, availability.OutcomeFull, availability.OutcomeBlocked:
		remaining := d.RemainingCapacity
		res.RemainingCapacity = &remaining
	}
	return res
}

func committedResult(outcome availability.Outcome, remaining *int, r *model.Reservation) *Result {
	return &Result{
		Outcome:           outcome,
		RemainingCapacity: remaining,
		ConfirmationCode:  r.ConfirmationCode,
		Reservation:       r,
		Stage:             StageCommitted,
		Committed:         true,
	}
}
