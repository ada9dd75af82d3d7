package service

import (
	"context"
	"errors"

	tenantserrors "tablebook/internal/tenants/errors"
	"tablebook/internal/tenants/repository"
	"tablebook/internal/tenants/validator"
	"tablebook/pkg/config"
	apperrors "tablebook/pkg/errors"
	"tablebook/pkg/model"
	"tablebook/pkg/sanitizer"
	"tablebook/pkg/validation"
)

type TenantService interface {
	Get(ctx context.Context, id string) (*model.Tenant, error)
	Upsert(ctx context.Context, tenant *model.Tenant) error
}

type tenantService struct {
	repo      repository.TenantRepository
	validator *validator.TenantValidator
	cfg       *config.Config
}

func NewTenantService(
	repo repository.TenantRepository,
	validator *validator.TenantValidator,
	cfg *config.Config,
) TenantService {
	return &tenantService{
		repo:      repo,
		validator: validator,
		cfg:       cfg,
	}
}

func (s *tenantService) Get(ctx context.Context, id string) (*model.Tenant, error) {
	id = sanitizer.TrimAndNormalize(id)
	if id == "" {
		return nil, apperrors.InvalidInput("Tenant ID cannot be empty")
	}

	tenant, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, tenantserrors.ErrNotFound) {
			return nil, apperrors.NotFoundWithID("Tenant", id)
		}
		s.cfg.Log.Error("Failed to get tenant policy",
			"tenant_id", id,
			"error", err,
		)
		return nil, apperrors.Storage("Failed to retrieve tenant policy", err)
	}

	return tenant, nil
}

func (s *tenantService) Upsert(ctx context.Context, tenant *model.Tenant) error {
	if tenant == nil {
		return apperrors.InvalidInput("Tenant policy cannot be empty")
	}
	s.sanitize(tenant)

	if err := s.validator.Validate(tenant); err != nil {
		s.cfg.Log.Warn("Tenant policy validation failed",
			"tenant_id", tenant.ID,
			"error", err,
		)
		var verrs validation.ValidationErrors
		if errors.As(err, &verrs) {
			return apperrors.Validation("Tenant policy validation failed", verrs.Details())
		}
		return apperrors.Validation("Tenant policy validation failed", map[string]any{
			"error": err.Error(),
		})
	}

	if err := s.repo.Upsert(ctx, tenant); err != nil {
		s.cfg.Log.Error("Failed to save tenant policy",
			"tenant_id", tenant.ID,
			"error", err,
		)
		return apperrors.Storage("Failed to save tenant policy", err)
	}

	s.cfg.Log.Info("Tenant policy saved",
		"tenant_id", tenant.ID,
		"time_zone", tenant.TimeZone,
		"capacity_per_slot", tenant.CapacityPerSlot,
		"booking_horizon_days", tenant.BookingHorizonDays,
	)

	return nil
}

func (s *tenantService) sanitize(tenant *model.Tenant) {
	tenant.ID = sanitizer.TrimAndNormalize(tenant.ID)
	tenant.Name = sanitizer.NormalizeName(tenant.Name)
	tenant.TimeZone = sanitizer.TrimAndNormalize(tenant.TimeZone)
	for day, hours := range tenant.WeeklyHours {
		hours.Open = sanitizer.TrimAndNormalize(hours.Open)
		hours.Close = sanitizer.TrimAndNormalize(hours.Close)
		tenant.WeeklyHours[day] = hours
	}
}
