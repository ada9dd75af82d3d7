package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"tablebook/internal/availability"
	"tablebook/internal/notifications"
	reservationserrors "tablebook/internal/reservations/errors"
	"tablebook/internal/reservations/repository"
	"tablebook/internal/reservations/validator"
	"tablebook/pkg/config"
	apperrors "tablebook/pkg/errors"
	"tablebook/pkg/locale"
	"tablebook/pkg/logger"
	"tablebook/pkg/model"
	"tablebook/pkg/sanitizer"
	"tablebook/pkg/validation"
)

// PolicyProvider resolves a tenant's booking policy. Errors are expected to be
// AppErrors already (NOT_FOUND, INVALID_INPUT, STORAGE_ERROR).
type PolicyProvider interface {
	Get(ctx context.Context, tenantID string) (*model.Tenant, error)
}

// BookingService runs the reservation workflow. Returned errors are AppErrors;
// a slot the engine turns down is reported through Result, not as an error.
type BookingService interface {
	Create(ctx context.Context, req *model.CreateReservationRequest) (*Result, error)
	Change(ctx context.Context, req *model.ChangeReservationRequest) (*Result, error)
	Cancel(ctx context.Context, req *model.CancelReservationRequest) (*Result, error)
	CheckAvailability(ctx context.Context, req *model.AvailabilityRequest) (*Result, error)
	GetByConfirmationCode(ctx context.Context, tenantID, code string) (*model.Reservation, error)

	// Close waits for in-flight notifications.
	Close()
}

type bookingService struct {
	repo      repository.ReservationRepository
	locker    repository.SlotLocker
	policies  PolicyProvider
	engine    *availability.Engine
	validator *validator.ReservationValidator
	notifier  notifications.Notifier
	cfg       *config.Config

	notifyTimeout time.Duration
	newCode       func() (string, error)
	inflight      sync.WaitGroup
}

func NewBookingService(
	repo repository.ReservationRepository,
	locker repository.SlotLocker,
	policies PolicyProvider,
	engine *availability.Engine,
	validator *validator.ReservationValidator,
	notifier notifications.Notifier,
	cfg *config.Config,
) BookingService {
	notifyTimeout := cfg.NotifyTimeout
	if notifyTimeout <= 0 {
		notifyTimeout = config.DefaultNotifyTimeout
	}
	return &bookingService{
		repo:          repo,
		locker:        locker,
		policies:      policies,
		engine:        engine,
		validator:     validator,
		notifier:      notifier,
		cfg:           cfg,
		notifyTimeout: notifyTimeout,
		newCode:       newConfirmationCode,
	}
}

type workflowRun struct {
	stage Stage
	log   *logger.Logger
}

func (s *bookingService) start(operation, tenantID string) *workflowRun {
	r := &workflowRun{log: s.cfg.Log.With("operation", operation, "tenant_id", tenantID)}
	r.advance(StageReceived)
	return r
}

func (r *workflowRun) advance(stage Stage, args ...any) {
	r.stage = stage
	r.log.Debug("Booking workflow stage", append([]any{"stage", stage}, args...)...)
}

func (s *bookingService) Create(ctx context.Context, req *model.CreateReservationRequest) (*Result, error) {
	if req == nil {
		return nil, apperrors.InvalidInput("Request body cannot be empty")
	}
	sanitizeCreate(req)
	run := s.start("create", req.TenantID)

	if req.TenantID == "" {
		return nil, apperrors.InvalidInput("Tenant ID is required")
	}
	if missing := missingCreateFields(req); len(missing) > 0 {
		run.log.Warn("Reservation request is missing fields", "missing_fields", missing)
		return nil, apperrors.MissingFields(missing)
	}

	policy, err := s.policy(ctx, run, req.TenantID)
	if err != nil {
		return nil, err
	}
	// National-format phone numbers are read in the restaurant's country.
	req.ContactInfo = sanitizer.NormalizeContactIn(req.ContactInfo, locale.RegionForTimeZone(policy.TimeZone))
	if err := s.validator.ValidateCreate(req); err != nil {
		run.log.Warn("Reservation request validation failed", "error", err)
		return nil, invalidFields(err)
	}
	run.advance(StageValidated)

	if _, d, ok := s.engine.Screen(req.Date, req.TimeSlot, policy); !ok {
		return s.reject(run, d), nil
	}

	release, err := s.lock(ctx, run, repository.SlotKey{TenantID: req.TenantID, Date: req.Date, TimeSlot: req.TimeSlot})
	if err != nil {
		return nil, err
	}
	defer release()

	ledger, err := s.ledger(ctx, run, req.TenantID, req.Date)
	if err != nil {
		return nil, err
	}

	decision := s.engine.Evaluate(req.Date, req.TimeSlot, policy, ledger)
	run.advance(StageEvaluated, "outcome", decision.Outcome)
	if !decision.Available() {
		return s.reject(run, decision), nil
	}

	reservation := &model.Reservation{
		TenantID:    req.TenantID,
		Date:        req.Date,
		TimeSlot:    req.TimeSlot,
		Status:      model.StatusConfirmed,
		Name:        req.Name,
		PartySize:   req.PartySize,
		ContactInfo: req.ContactInfo,
	}
	if err := s.insert(ctx, run, reservation); err != nil {
		return nil, err
	}
	release()

	remaining := decision.RemainingCapacity - 1
	res := committedResult(availability.OutcomeAvailable, &remaining, reservation)
	run.advance(StageCommitted, "confirmation_code", reservation.ConfirmationCode)
	run.log.Info("Reservation created",
		"confirmation_code", reservation.ConfirmationCode,
		"date", reservation.Date,
		"time_slot", reservation.TimeSlot,
		"party_size", reservation.PartySize,
		"remaining_capacity", remaining,
	)

	s.dispatch(run, res, notifications.KindCreated)
	return res, nil
}

// Change moves a reservation to another slot, keeping its id and code. The
// record never counts against its own capacity, so moving within a full slot
// succeeds.
func (s *bookingService) Change(ctx context.Context, req *model.ChangeReservationRequest) (*Result, error) {
	if req == nil {
		return nil, apperrors.InvalidInput("Request body cannot be empty")
	}
	req.TenantID = strings.TrimSpace(req.TenantID)
	req.ConfirmationCode = normalizeCode(req.ConfirmationCode)
	req.Date = strings.TrimSpace(req.Date)
	req.TimeSlot = strings.TrimSpace(req.TimeSlot)
	run := s.start("change", req.TenantID)

	if req.TenantID == "" {
		return nil, apperrors.InvalidInput("Tenant ID is required")
	}
	var missing []string
	if req.ConfirmationCode == "" {
		missing = append(missing, "confirmation_code")
	}
	if req.Date == "" {
		missing = append(missing, "date")
	}
	if req.TimeSlot == "" {
		missing = append(missing, "time_slot")
	}
	if len(missing) > 0 {
		run.log.Warn("Change request is missing fields", "missing_fields", missing)
		return nil, apperrors.MissingFields(missing)
	}
	run.advance(StageValidated)

	policy, err := s.policy(ctx, run, req.TenantID)
	if err != nil {
		return nil, err
	}
	if _, err := s.mutable(ctx, run, req.TenantID, req.ConfirmationCode); err != nil {
		return nil, err
	}

	if _, d, ok := s.engine.Screen(req.Date, req.TimeSlot, policy); !ok {
		return s.reject(run, d), nil
	}

	release, err := s.lock(ctx, run, repository.SlotKey{TenantID: req.TenantID, Date: req.Date, TimeSlot: req.TimeSlot})
	if err != nil {
		return nil, err
	}
	defer release()

	// Re-read under the lock; a concurrent writer may have canceled it.
	current, err := s.mutable(ctx, run, req.TenantID, req.ConfirmationCode)
	if err != nil {
		return nil, err
	}

	ledger, err := s.ledger(ctx, run, req.TenantID, req.Date)
	if err != nil {
		return nil, err
	}

	decision := s.engine.Evaluate(req.Date, req.TimeSlot, policy, ledger.Without(current.ID))
	run.advance(StageEvaluated, "outcome", decision.Outcome)
	if !decision.Available() {
		return s.reject(run, decision), nil
	}

	if err := s.repo.UpdateSlot(ctx, req.TenantID, current.ID, req.Date, req.TimeSlot); err != nil {
		return nil, s.updateError(ctx, run, current, "Failed to update reservation", err)
	}
	release()

	previousDate, previousSlot := current.Date, current.TimeSlot
	updated := *current
	updated.Date = req.Date
	updated.TimeSlot = req.TimeSlot
	updated.UpdatedAt = time.Now().UTC()

	remaining := decision.RemainingCapacity - 1
	res := committedResult(availability.OutcomeAvailable, &remaining, &updated)
	run.advance(StageCommitted, "confirmation_code", updated.ConfirmationCode)
	run.log.Info("Reservation changed",
		"confirmation_code", updated.ConfirmationCode,
		"from_date", previousDate,
		"from_time_slot", previousSlot,
		"date", updated.Date,
		"time_slot", updated.TimeSlot,
	)

	s.dispatch(run, res, notifications.KindChanged)
	return res, nil
}

// Cancel soft-deletes a reservation; the record is kept with status CANCELED.
func (s *bookingService) Cancel(ctx context.Context, req *model.CancelReservationRequest) (*Result, error) {
	if req == nil {
		return nil, apperrors.InvalidInput("Request body cannot be empty")
	}
	req.TenantID = strings.TrimSpace(req.TenantID)
	req.ConfirmationCode = normalizeCode(req.ConfirmationCode)
	run := s.start("cancel", req.TenantID)

	if req.TenantID == "" {
		return nil, apperrors.InvalidInput("Tenant ID is required")
	}
	if req.ConfirmationCode == "" {
		return nil, apperrors.MissingFields([]string{"confirmation_code"})
	}
	run.advance(StageValidated)

	current, err := s.mutable(ctx, run, req.TenantID, req.ConfirmationCode)
	if err != nil {
		return nil, err
	}
	run.advance(StageEvaluated)

	release, err := s.lock(ctx, run, repository.SlotKey{TenantID: current.TenantID, Date: current.Date, TimeSlot: current.TimeSlot})
	if err != nil {
		return nil, err
	}
	defer release()

	if current, err = s.mutable(ctx, run, req.TenantID, req.ConfirmationCode); err != nil {
		return nil, err
	}

	if err := s.repo.UpdateStatus(ctx, req.TenantID, current.ID, model.StatusCanceled); err != nil {
		return nil, s.updateError(ctx, run, current, "Failed to cancel reservation", err)
	}
	release()

	now := time.Now().UTC()
	canceled := *current
	canceled.Status = model.StatusCanceled
	canceled.UpdatedAt = now
	canceled.CanceledAt = &now

	res := committedResult(OutcomeCanceled, nil, &canceled)
	run.advance(StageCommitted, "confirmation_code", canceled.ConfirmationCode)
	run.log.Info("Reservation canceled",
		"confirmation_code", canceled.ConfirmationCode,
		"date", canceled.Date,
		"time_slot", canceled.TimeSlot,
	)

	s.dispatch(run, res, notifications.KindCanceled)
	return res, nil
}

// CheckAvailability evaluates one slot without writing anything.
func (s *bookingService) CheckAvailability(ctx context.Context, req *model.AvailabilityRequest) (*Result, error) {
	if req == nil {
		return nil, apperrors.InvalidInput("Request cannot be empty")
	}
	req.TenantID = strings.TrimSpace(req.TenantID)
	req.Date = strings.TrimSpace(req.Date)
	req.TimeSlot = strings.TrimSpace(req.TimeSlot)
	run := s.start("check_availability", req.TenantID)

	if req.TenantID == "" {
		return nil, apperrors.InvalidInput("Tenant ID is required")
	}
	run.advance(StageValidated)

	policy, err := s.policy(ctx, run, req.TenantID)
	if err != nil {
		return nil, err
	}
	instant, d, ok := s.engine.Screen(req.Date, req.TimeSlot, policy)
	if !ok {
		run.advance(StageEvaluated, "outcome", d.Outcome)
		return decisionResult(d, StageEvaluated), nil
	}

	ledger, err := s.ledger(ctx, run, req.TenantID, req.Date)
	if err != nil {
		return nil, err
	}

	decision := s.engine.Evaluate(req.Date, req.TimeSlot, policy, ledger)
	run.advance(StageEvaluated, "outcome", decision.Outcome)
	res := decisionResult(decision, StageEvaluated)
	if hours, ok := policy.HoursOn(instant.Weekday()); ok {
		res.OpeningHours = &hours
	}
	return res, nil
}

func (s *bookingService) GetByConfirmationCode(ctx context.Context, tenantID, code string) (*model.Reservation, error) {
	tenantID = strings.TrimSpace(tenantID)
	code = normalizeCode(code)
	if tenantID == "" {
		return nil, apperrors.InvalidInput("Tenant ID is required")
	}
	if code == "" {
		return nil, apperrors.MissingFields([]string{"confirmation_code"})
	}
	return s.find(ctx, s.start("get", tenantID), tenantID, code)
}

func (s *bookingService) Close() {
	s.inflight.Wait()
}

func (s *bookingService) policy(ctx context.Context, run *workflowRun, tenantID string) (*model.Tenant, error) {
	policy, err := s.policies.Get(ctx, tenantID)
	if err != nil {
		if apperrors.IsAppError(err) {
			return nil, err
		}
		run.log.Error("Failed to load tenant policy", "error", err)
		return nil, apperrors.Storage("Failed to load tenant policy", err)
	}
	return policy, nil
}

func (s *bookingService) find(ctx context.Context, run *workflowRun, tenantID, code string) (*model.Reservation, error) {
	reservation, err := s.repo.FindByConfirmationCode(ctx, tenantID, code)
	if err != nil {
		if errors.Is(err, reservationserrors.ErrNotFound) {
			return nil, apperrors.NotFoundWithID("Reservation", code)
		}
		run.log.Error("Failed to look up reservation", "confirmation_code", code, "error", err)
		return nil, apperrors.Storage("Failed to retrieve reservation", err)
	}
	return reservation, nil
}

// mutable loads a reservation and fails unless it is still CONFIRMED.
func (s *bookingService) mutable(ctx context.Context, run *workflowRun, tenantID, code string) (*model.Reservation, error) {
	reservation, err := s.find(ctx, run, tenantID, code)
	if err != nil {
		return nil, err
	}
	if err := guardMutable(reservation); err != nil {
		run.log.Warn("Reservation is not mutable", "confirmation_code", reservation.ConfirmationCode, "status", reservation.Status)
		return nil, err
	}
	return reservation, nil
}

// updateError maps a failed conditional write. ErrNotConfirmed means another
// writer got there first, so the record is re-read to report its new state.
func (s *bookingService) updateError(ctx context.Context, run *workflowRun, current *model.Reservation, msg string, err error) error {
	switch {
	case errors.Is(err, reservationserrors.ErrNotFound):
		return apperrors.NotFoundWithID("Reservation", current.ConfirmationCode)
	case errors.Is(err, reservationserrors.ErrNotConfirmed):
		if _, guardErr := s.mutable(ctx, run, current.TenantID, current.ConfirmationCode); guardErr != nil {
			return guardErr
		}
		return apperrors.Conflict("Reservation was modified concurrently")
	}
	run.log.Error(msg, "confirmation_code", current.ConfirmationCode, "error", err)
	return apperrors.Storage(msg, err)
}

func (s *bookingService) ledger(ctx context.Context, run *workflowRun, tenantID, date string) (availability.Ledger, error) {
	records, err := s.repo.FindByDate(ctx, tenantID, date)
	if err != nil {
		run.log.Error("Failed to fetch slot records", "date", date, "error", err)
		return availability.Ledger{}, apperrors.Storage("Failed to retrieve reservations", err)
	}
	return availability.NewLedger(tenantID, date, records), nil
}

func (s *bookingService) lock(ctx context.Context, run *workflowRun, key repository.SlotKey) (func(), error) {
	release, err := s.locker.Acquire(ctx, key)
	if err == nil {
		return release, nil
	}

	switch {
	case errors.Is(err, reservationserrors.ErrLockTimeout):
		run.log.Warn("Slot is busy", "slot", key.String(), "error", err)
		return nil, apperrors.Conflict("Another booking for this slot is in progress, please retry")
	case ctx.Err() != nil:
		return nil, apperrors.Timeout("Request was canceled while waiting for the slot")
	default:
		run.log.Error("Failed to acquire slot lock", "slot", key.String(), "error", err)
		return nil, apperrors.Storage("Failed to acquire slot lock", err)
	}
}

// insert writes a new record, drawing a fresh code whenever the storage layer
// reports a collision.
func (s *bookingService) insert(ctx context.Context, run *workflowRun, reservation *model.Reservation) error {
	for attempt := 1; ; attempt++ {
		code, err := s.newCode()
		if err != nil {
			return apperrors.Internal("Failed to generate confirmation code", err)
		}
		reservation.ID = ""
		reservation.ConfirmationCode = code

		err = s.repo.Create(ctx, reservation)
		if err == nil {
			return nil
		}
		if errors.Is(err, reservationserrors.ErrDuplicateCode) && attempt < maxCodeAttempts {
			run.log.Warn("Confirmation code collision, regenerating", "attempt", attempt)
			continue
		}
		run.log.Error("Failed to create reservation", "attempt", attempt, "error", err)
		return apperrors.Storage("Failed to save reservation", err)
	}
}

func (s *bookingService) reject(run *workflowRun, d availability.Decision) *Result {
	if run.stage != StageEvaluated {
		run.advance(StageEvaluated, "outcome", d.Outcome)
	}
	run.advance(StageRejected, "outcome", d.Outcome)
	run.log.Info("Reservation request rejected", "outcome", d.Outcome)
	return decisionResult(d, StageRejected)
}

// dispatch notifies in the background. The request context is detached so a
// finished HTTP request does not cancel delivery.
func (s *bookingService) dispatch(run *workflowRun, res *Result, kind notifications.Kind) {
	if s.notifier == nil {
		return
	}
	snapshot := *res.Reservation

	s.inflight.Add(1)
	go func() {
		defer s.inflight.Done()

		ctx, cancel := context.WithTimeout(context.Background(), s.notifyTimeout)
		defer cancel()

		if err := s.notifier.Notify(ctx, kind, &snapshot); err != nil {
			run.log.Warn("Failed to dispatch reservation notification",
				"kind", kind,
				"confirmation_code", snapshot.ConfirmationCode,
				"error", err,
			)
		}
	}()

	res.Stage = StageSideEffectsDispatched
	run.advance(StageSideEffectsDispatched, "kind", kind)
}

func guardMutable(r *model.Reservation) error {
	switch strings.ToUpper(strings.TrimSpace(r.Status)) {
	case model.StatusCanceled:
		return apperrors.AlreadyCanceled(r.ConfirmationCode)
	case model.StatusBlocked:
		return apperrors.CannotCancelBlocked(r.ConfirmationCode)
	}
	return nil
}

func sanitizeCreate(req *model.CreateReservationRequest) {
	req.TenantID = strings.TrimSpace(req.TenantID)
	req.Name = sanitizer.NormalizeName(req.Name)
	req.ContactInfo = sanitizer.TrimAndNormalize(req.ContactInfo)
	req.Date = strings.TrimSpace(req.Date)
	req.TimeSlot = strings.TrimSpace(req.TimeSlot)
}

func missingCreateFields(req *model.CreateReservationRequest) []string {
	var missing []string
	if req.Name == "" {
		missing = append(missing, "name")
	}
	if req.PartySize == 0 {
		missing = append(missing, "party_size")
	}
	if req.ContactInfo == "" {
		missing = append(missing, "contact_info")
	}
	if req.Date == "" {
		missing = append(missing, "date")
	}
	if req.TimeSlot == "" {
		missing = append(missing, "time_slot")
	}
	return missing
}

func normalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

func invalidFields(err error) *apperrors.AppError {
	var verrs validation.ValidationErrors
	if errors.As(err, &verrs) {
		return apperrors.InvalidInput("Invalid reservation fields").WithDetails(verrs.Details())
	}
	return apperrors.InvalidInput(err.Error())
}
