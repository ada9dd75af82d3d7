package repository

import (
	"context"
	"sync"
	"time"

	tenantserrors "tablebook/internal/tenants/errors"
	"tablebook/pkg/model"
)

type memoryTenantRepository struct {
	mu      sync.RWMutex
	tenants map[string]model.Tenant
}

func NewMemoryTenantRepository() TenantRepository {
	return &memoryTenantRepository{tenants: make(map[string]model.Tenant)}
}

func (r *memoryTenantRepository) FindByID(_ context.Context, id string) (*model.Tenant, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	tenant, ok := r.tenants[id]
	if !ok {
		return nil, tenantserrors.ErrNotFound
	}
	return cloneTenant(tenant), nil
}

func (r *memoryTenantRepository) Upsert(_ context.Context, tenant *model.Tenant) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now().UTC()
	tenant.UpdatedAt = now
	if existing, ok := r.tenants[tenant.ID]; ok {
		tenant.CreatedAt = existing.CreatedAt
	} else {
		tenant.CreatedAt = now
	}
	r.tenants[tenant.ID] = *cloneTenant(*tenant)
	return nil
}

func cloneTenant(t model.Tenant) *model.Tenant {
	if t.WeeklyHours != nil {
		hours := make(map[model.Weekday]model.OpeningHours, len(t.WeeklyHours))
		for day, h := range t.WeeklyHours {
			hours[day] = h
		}
		t.WeeklyHours = hours
	}
	return &t
}
