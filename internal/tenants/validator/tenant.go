package validator

import (
	"github.com/go-playground/validator/v10"

	"tablebook/pkg/logger"
	"tablebook/pkg/model"
	"tablebook/pkg/validation"
)

type TenantValidator struct {
	validate *validator.Validate
	logger   *logger.Logger
}

func NewTenantValidator(log *logger.Logger) *TenantValidator {
	v, err := validation.New()
	if err != nil {
		log.Fatal("Failed to initialize tenant validator", "error", err)
	}

	log.Debug("Tenant validator initialized successfully")

	return &TenantValidator{
		validate: v,
		logger:   log,
	}
}

// Validate relies on the "timezone" rule, which already rejects "" and
// "Local" so a policy never depends on the host's zone.
func (v *TenantValidator) Validate(tenant *model.Tenant) error {
	return validation.Struct(v.validate, tenant)
}
