package availability

type Outcome string

const (
	OutcomeAvailable   Outcome = "AVAILABLE"
	OutcomeFull        Outcome = "FULL"
	OutcomeBlocked     Outcome = "BLOCKED"
	OutcomeOutOfWindow Outcome = "OUT_OF_WINDOW"
	OutcomePast        Outcome = "PAST"
	OutcomeInvalid     Outcome = "INVALID"
)

// Alternatives holds the nearest bookable times on the same date.
// A nil side means nothing was found in that direction.
type Alternatives struct {
	Before *string `json:"before"`
	After  *string `json:"after"`
}

// Decision is the engine's verdict for one exact slot.
// RemainingCapacity is only meaningful for AVAILABLE and Alternatives is only
// set for FULL and BLOCKED.
type Decision struct {
	Outcome           Outcome       `json:"outcome"`
	RemainingCapacity int           `json:"remaining_capacity"`
	Alternatives      *Alternatives `json:"alternatives,omitempty"`
}

func (d Decision) Available() bool {
	return d.Outcome == OutcomeAvailable
}

func available(remaining int) Decision {
	return Decision{Outcome: OutcomeAvailable, RemainingCapacity: remaining}
}

func rejected(outcome Outcome) Decision {
	return Decision{Outcome: outcome}
}

func unavailable(outcome Outcome, alts Alternatives) Decision {
	return Decision{Outcome: outcome, Alternatives: &alts}
}
