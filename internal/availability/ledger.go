package availability

import (
	"strings"

	"tablebook/pkg/model"
)

// Ledger is a read-only snapshot of one tenant's records for one date.
// Records with an unreadable status or time slot never match anything.
type Ledger struct {
	tenantID string
	date     string
	records  []*model.Reservation
}

func NewLedger(tenantID, date string, records []*model.Reservation) Ledger {
	kept := make([]*model.Reservation, 0, len(records))
	for _, r := range records {
		if r == nil || r.TenantID != tenantID || r.Date != date {
			continue
		}
		if !reTime.MatchString(r.TimeSlot) {
			continue
		}
		kept = append(kept, r)
	}
	return Ledger{tenantID: tenantID, date: date, records: kept}
}

func (l Ledger) Date() string { return l.date }

func (l Ledger) Len() int { return len(l.records) }

// Without drops the record with the given id, so a reservation being moved
// does not count against its own slot.
func (l Ledger) Without(id string) Ledger {
	if id == "" {
		return l
	}
	kept := make([]*model.Reservation, 0, len(l.records))
	for _, r := range l.records {
		if r.ID != id {
			kept = append(kept, r)
		}
	}
	return Ledger{tenantID: l.tenantID, date: l.date, records: kept}
}

func (l Ledger) Blocked(timeSlot string) bool {
	for _, r := range l.records {
		if r.TimeSlot == timeSlot && normalizeStatus(r.Status) == model.StatusBlocked {
			return true
		}
	}
	return false
}

func (l Ledger) Confirmed(timeSlot string) int {
	n := 0
	for _, r := range l.records {
		if r.TimeSlot == timeSlot && normalizeStatus(r.Status) == model.StatusConfirmed {
			n++
		}
	}
	return n
}

func (l Ledger) hasRoom(timeSlot string, capacity int) bool {
	return !l.Blocked(timeSlot) && l.Confirmed(timeSlot) < capacity
}

func normalizeStatus(s string) string {
	switch up := strings.ToUpper(strings.TrimSpace(s)); up {
	case model.StatusConfirmed, model.StatusCanceled, model.StatusBlocked:
		return up
	default:
		return ""
	}
}
