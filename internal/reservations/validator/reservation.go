package validator

import (
	"github.com/go-playground/validator/v10"

	"tablebook/pkg/logger"
	"tablebook/pkg/model"
	"tablebook/pkg/validation"
)

// ReservationValidator checks the shape of guest-supplied fields. Presence,
// date and time slot format are decided by the workflow and the engine.
type ReservationValidator struct {
	validate *validator.Validate
	logger   *logger.Logger
}

func NewReservationValidator(log *logger.Logger) *ReservationValidator {
	v, err := validation.New()
	if err != nil {
		log.Fatal("Failed to initialize reservation validator", "error", err)
	}

	log.Debug("Reservation validator initialized successfully")

	return &ReservationValidator{
		validate: v,
		logger:   log,
	}
}

func (v *ReservationValidator) ValidateCreate(req *model.CreateReservationRequest) error {
	return validation.Struct(v.validate, req)
}
