package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	reservationserrors "tablebook/internal/reservations/errors"
	"tablebook/pkg/model"
)

type memoryReservationRepository struct {
	mu     sync.RWMutex
	byID   map[string]*model.Reservation
	byCode map[string]string
}

// NewMemoryReservationRepository keeps records in process memory. It enforces
// the same per-tenant confirmation code uniqueness as the Mongo index.
func NewMemoryReservationRepository() ReservationRepository {
	return &memoryReservationRepository{
		byID:   make(map[string]*model.Reservation),
		byCode: make(map[string]string),
	}
}

func codeKey(tenantID, code string) string {
	return tenantID + "\x00" + code
}

func (r *memoryReservationRepository) Create(_ context.Context, reservation *model.Reservation) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if reservation.ConfirmationCode != "" {
		if _, taken := r.byCode[codeKey(reservation.TenantID, reservation.ConfirmationCode)]; taken {
			return fmt.Errorf("%w: %s", reservationserrors.ErrDuplicateCode, reservation.ConfirmationCode)
		}
	}
	if reservation.ID == "" {
		reservation.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	reservation.CreatedAt = now
	reservation.UpdatedAt = now

	stored := *reservation
	r.byID[stored.ID] = &stored
	if stored.ConfirmationCode != "" {
		r.byCode[codeKey(stored.TenantID, stored.ConfirmationCode)] = stored.ID
	}
	return nil
}

func (r *memoryReservationRepository) FindByDate(_ context.Context, tenantID, date string) ([]*model.Reservation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*model.Reservation
	for _, rec := range r.byID {
		if rec.TenantID == tenantID && rec.Date == date {
			c := *rec
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].TimeSlot != out[j].TimeSlot {
			return out[i].TimeSlot < out[j].TimeSlot
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (r *memoryReservationRepository) FindByConfirmationCode(_ context.Context, tenantID, code string) (*model.Reservation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byCode[codeKey(tenantID, code)]
	if !ok {
		return nil, reservationserrors.ErrNotFound
	}
	c := *r.byID[id]
	return &c, nil
}

func (r *memoryReservationRepository) UpdateSlot(_ context.Context, tenantID, id, date, timeSlot string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.byID[id]
	if !ok || rec.TenantID != tenantID {
		return reservationserrors.ErrNotFound
	}
	if rec.Status != model.StatusConfirmed {
		return reservationserrors.ErrNotConfirmed
	}
	rec.Date = date
	rec.TimeSlot = timeSlot
	rec.UpdatedAt = time.Now().UTC()
	return nil
}

func (r *memoryReservationRepository) UpdateStatus(_ context.Context, tenantID, id, status string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.byID[id]
	if !ok || rec.TenantID != tenantID {
		return reservationserrors.ErrNotFound
	}
	if rec.Status != model.StatusConfirmed {
		return reservationserrors.ErrNotConfirmed
	}
	now := time.Now().UTC()
	rec.Status = status
	rec.UpdatedAt = now
	if status == model.StatusCanceled {
		rec.CanceledAt = &now
	}
	return nil
}
