package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"tablebook/internal/availability"
	"tablebook/internal/notifications"
	reservationserrors "tablebook/internal/reservations/errors"
	"tablebook/internal/reservations/repository"
	"tablebook/internal/reservations/validator"
	"tablebook/pkg/config"
	apperrors "tablebook/pkg/errors"
	"tablebook/pkg/logger"
	"tablebook/pkg/model"
)

const (
	tenantID = "bistro"
	laZone   = "America/Los_Angeles"
	slotDate = "2025-07-06"
)

type policyFunc func(ctx context.Context, id string) (*model.Tenant, error)

func (f policyFunc) Get(ctx context.Context, id string) (*model.Tenant, error) { return f(ctx, id) }

func staticPolicy(tenants ...*model.Tenant) PolicyProvider {
	return policyFunc(func(_ context.Context, id string) (*model.Tenant, error) {
		for _, t := range tenants {
			if t.ID == id {
				return t, nil
			}
		}
		return nil, apperrors.NotFoundWithID("Tenant", id)
	})
}

type recordingNotifier struct {
	mu    sync.Mutex
	kinds []notifications.Kind
	codes []string
	err   error
}

func (n *recordingNotifier) Notify(_ context.Context, kind notifications.Kind, r *model.Reservation) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.kinds = append(n.kinds, kind)
	n.codes = append(n.codes, r.ConfirmationCode)
	return n.err
}

type lockerFunc func(ctx context.Context, key repository.SlotKey) (func(), error)

func (f lockerFunc) Acquire(ctx context.Context, key repository.SlotKey) (func(), error) {
	return f(ctx, key)
}

type mockReservationRepository struct {
	repository.ReservationRepository
	findByDateFunc func(ctx context.Context, tenantID, date string) ([]*model.Reservation, error)
}

func (m *mockReservationRepository) FindByDate(ctx context.Context, tenantID, date string) ([]*model.Reservation, error) {
	return m.findByDateFunc(ctx, tenantID, date)
}

// interceptedRepository passes reads through findHook so tests can stall or
// rewrite what the service sees.
type interceptedRepository struct {
	repository.ReservationRepository
	mu       sync.Mutex
	calls    int
	findHook func(call int, r *model.Reservation) *model.Reservation
}

func (r *interceptedRepository) FindByConfirmationCode(ctx context.Context, tenantID, code string) (*model.Reservation, error) {
	rec, err := r.ReservationRepository.FindByConfirmationCode(ctx, tenantID, code)
	if err != nil {
		return nil, err
	}
	r.mu.Lock()
	r.calls++
	call := r.calls
	r.mu.Unlock()
	return r.findHook(call, rec), nil
}

type harness struct {
	svc      *bookingService
	repo     repository.ReservationRepository
	notifier *recordingNotifier
}

func laPolicy(capacity int) *model.Tenant {
	return &model.Tenant{ID: tenantID, TimeZone: laZone, CapacityPerSlot: capacity, BookingHorizonDays: 30}
}

func newHarness(t *testing.T, policy *model.Tenant) *harness {
	t.Helper()

	la, err := time.LoadLocation(laZone)
	if err != nil {
		t.Fatalf("load zone: %v", err)
	}
	clock := availability.FixedClock{At: time.Date(2025, time.July, 1, 12, 0, 0, 0, la)}
	engine := availability.NewEngine(availability.NewTimeContext(clock), availability.Options{StepMinutes: 15, MaxSteps: 96})

	log := logger.Discard()
	repo := repository.NewMemoryReservationRepository()
	notifier := &recordingNotifier{}
	svc := NewBookingService(
		repo,
		repository.NewMemorySlotLocker(time.Second),
		staticPolicy(policy),
		engine,
		validator.NewReservationValidator(log),
		notifier,
		&config.Config{Log: log, NotifyTimeout: time.Second},
	).(*bookingService)

	return &harness{svc: svc, repo: repo, notifier: notifier}
}

func createReq(slot string) *model.CreateReservationRequest {
	return &model.CreateReservationRequest{
		TenantID:    tenantID,
		Name:        "Ada Lovelace",
		PartySize:   2,
		ContactInfo: "ada@example.com",
		Date:        slotDate,
		TimeSlot:    slot,
	}
}

func (h *harness) seed(t *testing.T, status, slot, code string) *model.Reservation {
	t.Helper()
	r := &model.Reservation{TenantID: tenantID, Date: slotDate, TimeSlot: slot, Status: status, ConfirmationCode: code}
	if err := h.repo.Create(context.Background(), r); err != nil {
		t.Fatalf("seed: %v", err)
	}
	return r
}

func remaining(t *testing.T, res *Result) int {
	t.Helper()
	if res.RemainingCapacity == nil {
		t.Fatalf("remaining capacity missing for outcome %s", res.Outcome)
	}
	return *res.RemainingCapacity
}

func TestCreate_CapacityTwoEndToEnd(t *testing.T) {
	h := newHarness(t, laPolicy(2))
	ctx := context.Background()

	for i, want := range []int{1, 0} {
		res, err := h.svc.Create(ctx, createReq("18:00"))
		if err != nil {
			t.Fatalf("create #%d error = %v", i+1, err)
		}
		if res.Outcome != availability.OutcomeAvailable || !res.Committed {
			t.Fatalf("create #%d outcome = %s committed = %v", i+1, res.Outcome, res.Committed)
		}
		if got := remaining(t, res); got != want {
			t.Errorf("create #%d remaining = %d, want %d", i+1, got, want)
		}
		if res.ConfirmationCode == "" || res.Reservation.ConfirmationCode != res.ConfirmationCode {
			t.Errorf("create #%d confirmation code = %q", i+1, res.ConfirmationCode)
		}
		if res.Stage != StageSideEffectsDispatched {
			t.Errorf("create #%d stage = %s", i+1, res.Stage)
		}
	}

	res, err := h.svc.Create(ctx, createReq("18:00"))
	if err != nil {
		t.Fatalf("third create error = %v", err)
	}
	if res.Outcome != availability.OutcomeFull || res.Committed || res.Stage != StageRejected {
		t.Fatalf("third create = %+v, want rejected FULL", res)
	}
	if got := remaining(t, res); got != 0 {
		t.Errorf("third create remaining = %d, want 0", got)
	}
	if res.Alternatives == nil || res.Alternatives.Before == nil || res.Alternatives.After == nil {
		t.Fatalf("third create alternatives = %+v", res.Alternatives)
	}
	if *res.Alternatives.Before != "17:45" || *res.Alternatives.After != "18:15" {
		t.Errorf("alternatives = %s / %s, want 17:45 / 18:15", *res.Alternatives.Before, *res.Alternatives.After)
	}

	records, _ := h.repo.FindByDate(ctx, tenantID, slotDate)
	if len(records) != 2 {
		t.Errorf("stored records = %d, want 2 (a FULL create must not write)", len(records))
	}

	h.svc.Close()
	if len(h.notifier.kinds) != 2 || h.notifier.kinds[0] != notifications.KindCreated {
		t.Errorf("notifications = %v, want two created", h.notifier.kinds)
	}
}

func TestCreate_InputErrors(t *testing.T) {
	h := newHarness(t, laPolicy(2))

	tests := []struct {
		name        string
		req         *model.CreateReservationRequest
		wantCode    string
		wantMissing []string
	}{
		{
			name:     "missing tenant wins over missing fields",
			req:      &model.CreateReservationRequest{},
			wantCode: apperrors.CodeInvalidInput,
		},
		{
			name:        "missing fields are all reported",
			req:         &model.CreateReservationRequest{TenantID: tenantID, Name: "  ", Date: slotDate},
			wantCode:    apperrors.CodeInvalidInput,
			wantMissing: []string{"name", "party_size", "contact_info", "time_slot"},
		},
		{
			name: "malformed contact",
			req: func() *model.CreateReservationRequest {
				r := createReq("18:00")
				r.ContactInfo = "not a contact"
				return r
			}(),
			wantCode: apperrors.CodeInvalidInput,
		},
		{
			name: "unknown tenant",
			req: func() *model.CreateReservationRequest {
				r := createReq("18:00")
				r.TenantID = "elsewhere"
				return r
			}(),
			wantCode: apperrors.CodeNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := h.svc.Create(context.Background(), tt.req)
			if res != nil {
				t.Errorf("Create() result = %+v, want nil", res)
			}
			if !apperrors.HasCode(err, tt.wantCode) {
				t.Fatalf("Create() error = %v, want %s", err, tt.wantCode)
			}
			if tt.wantMissing != nil {
				got, _ := apperrors.AsAppError(err).Details["missing_fields"].([]string)
				if len(got) != len(tt.wantMissing) {
					t.Fatalf("missing_fields = %v, want %v", got, tt.wantMissing)
				}
				for i := range got {
					if got[i] != tt.wantMissing[i] {
						t.Errorf("missing_fields = %v, want %v", got, tt.wantMissing)
					}
				}
			}
		})
	}
}

func TestCreate_TimeRejectionsSkipStorage(t *testing.T) {
	h := newHarness(t, laPolicy(2))
	h.svc.locker = lockerFunc(func(context.Context, repository.SlotKey) (func(), error) {
		t.Error("slot lock must not be taken for a rejected time")
		return func() {}, nil
	})

	tests := []struct {
		date, slot string
		want       availability.Outcome
	}{
		{"2025-06-30", "18:00", availability.OutcomePast},
		{"2025-07-01", "11:45", availability.OutcomePast},
		{"2025-08-01", "18:00", availability.OutcomeOutOfWindow},
		{"2025-07-06", "25:00", availability.OutcomeInvalid},
		{"06/07/2025", "18:00", availability.OutcomeInvalid},
	}

	for _, tt := range tests {
		req := createReq(tt.slot)
		req.Date = tt.date

		res, err := h.svc.Create(context.Background(), req)
		if err != nil {
			t.Fatalf("Create(%s %s) error = %v", tt.date, tt.slot, err)
		}
		if res.Outcome != tt.want || res.Committed {
			t.Errorf("Create(%s %s) = %s, want %s", tt.date, tt.slot, res.Outcome, tt.want)
		}
		if res.RemainingCapacity != nil || res.Alternatives != nil {
			t.Errorf("Create(%s %s) carried capacity or alternatives: %+v", tt.date, tt.slot, res)
		}
	}
}

func TestCreate_BlockedSlot(t *testing.T) {
	h := newHarness(t, laPolicy(4))
	h.seed(t, model.StatusBlocked, "18:00", "")
	h.seed(t, model.StatusBlocked, "18:15", "")

	res, err := h.svc.Create(context.Background(), createReq("18:00"))
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if res.Outcome != availability.OutcomeBlocked {
		t.Fatalf("outcome = %s, want BLOCKED", res.Outcome)
	}
	if res.Alternatives == nil || res.Alternatives.After == nil || *res.Alternatives.After != "18:30" {
		t.Errorf("alternatives = %+v, want after 18:30", res.Alternatives)
	}
}

func TestCreate_ReadsNationalPhoneInTenantCountry(t *testing.T) {
	policy := &model.Tenant{ID: tenantID, TimeZone: "Europe/London", CapacityPerSlot: 2, BookingHorizonDays: 30}
	h := newHarness(t, policy)

	req := createReq("18:00")
	req.ContactInfo = " 020 7123 4567 "
	res, err := h.svc.Create(context.Background(), req)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if !res.Committed {
		t.Fatalf("outcome = %s, want a committed reservation", res.Outcome)
	}
	if got := res.Reservation.ContactInfo; got != "+442071234567" {
		t.Errorf("contact = %q, want +442071234567", got)
	}
}

func TestCreate_RegeneratesCollidingCodes(t *testing.T) {
	h := newHarness(t, laPolicy(4))
	h.seed(t, model.StatusConfirmed, "19:00", "TAKEN000")

	codes := []string{"TAKEN000", "TAKEN000", "FRESH000"}
	calls := 0
	h.svc.newCode = func() (string, error) {
		code := codes[calls]
		calls++
		return code, nil
	}

	res, err := h.svc.Create(context.Background(), createReq("18:00"))
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if res.ConfirmationCode != "FRESH000" || calls != 3 {
		t.Errorf("code = %s after %d draws, want FRESH000 after 3", res.ConfirmationCode, calls)
	}
}

func TestCreate_GivesUpAfterRepeatedCollisions(t *testing.T) {
	h := newHarness(t, laPolicy(4))
	h.seed(t, model.StatusConfirmed, "19:00", "TAKEN000")
	h.svc.newCode = func() (string, error) { return "TAKEN000", nil }

	_, err := h.svc.Create(context.Background(), createReq("18:00"))
	if !apperrors.HasCode(err, apperrors.CodeStorage) {
		t.Fatalf("Create() error = %v, want STORAGE_ERROR", err)
	}
	if !errors.Is(err, reservationserrors.ErrDuplicateCode) {
		t.Errorf("cause should be ErrDuplicateCode, got %v", err)
	}
}

func TestCreate_StorageFailureIsRetryable(t *testing.T) {
	h := newHarness(t, laPolicy(2))
	h.svc.repo = &mockReservationRepository{
		findByDateFunc: func(context.Context, string, string) ([]*model.Reservation, error) {
			return nil, errors.New("server selection timeout")
		},
	}

	res, err := h.svc.Create(context.Background(), createReq("18:00"))
	if res != nil || !apperrors.IsRetryable(err) {
		t.Errorf("Create() = (%v, %v), want retryable STORAGE_ERROR", res, err)
	}

	_, err = h.svc.CheckAvailability(context.Background(), &model.AvailabilityRequest{TenantID: tenantID, Date: slotDate, TimeSlot: "18:00"})
	if !apperrors.IsRetryable(err) {
		t.Errorf("CheckAvailability() error = %v, want retryable STORAGE_ERROR", err)
	}
}

func TestCreate_LockTimeoutIsConflict(t *testing.T) {
	h := newHarness(t, laPolicy(2))
	h.svc.locker = lockerFunc(func(context.Context, repository.SlotKey) (func(), error) {
		return nil, reservationserrors.ErrLockTimeout
	})

	_, err := h.svc.Create(context.Background(), createReq("18:00"))
	if !apperrors.HasCode(err, apperrors.CodeConflict) {
		t.Errorf("Create() error = %v, want CONFLICT", err)
	}
}

func TestCreate_ConcurrentRequestsNeverOverbook(t *testing.T) {
	h := newHarness(t, laPolicy(3))

	var wg sync.WaitGroup
	var mu sync.Mutex
	committed := 0
	for i := 0; i < 12; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := h.svc.Create(context.Background(), createReq("18:00"))
			if err != nil {
				t.Errorf("Create() error = %v", err)
				return
			}
			if res.Committed {
				mu.Lock()
				committed++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if committed != 3 {
		t.Errorf("committed = %d, want exactly capacity 3", committed)
	}
	records, _ := h.repo.FindByDate(context.Background(), tenantID, slotDate)
	if len(records) != 3 {
		t.Errorf("stored records = %d, want 3", len(records))
	}
}

func TestCreate_NotificationFailureDoesNotRollBack(t *testing.T) {
	h := newHarness(t, laPolicy(2))
	h.notifier.err = errors.New("broker down")

	res, err := h.svc.Create(context.Background(), createReq("18:00"))
	if err != nil || !res.Committed {
		t.Fatalf("Create() = (%+v, %v), want committed", res, err)
	}
	h.svc.Close()

	if _, err := h.svc.GetByConfirmationCode(context.Background(), tenantID, res.ConfirmationCode); err != nil {
		t.Errorf("reservation should persist after a failed notification, got %v", err)
	}
}

func TestCancel(t *testing.T) {
	h := newHarness(t, laPolicy(2))
	ctx := context.Background()

	first, _ := h.svc.Create(ctx, createReq("18:00"))
	if _, err := h.svc.Create(ctx, createReq("18:00")); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	check := &model.AvailabilityRequest{TenantID: tenantID, Date: slotDate, TimeSlot: "18:00"}
	before, _ := h.svc.CheckAvailability(ctx, check)
	if before.Outcome != availability.OutcomeFull {
		t.Fatalf("before cancel outcome = %s, want FULL", before.Outcome)
	}

	res, err := h.svc.Cancel(ctx, &model.CancelReservationRequest{TenantID: tenantID, ConfirmationCode: " " + first.ConfirmationCode + " "})
	if err != nil {
		t.Fatalf("Cancel() error = %v", err)
	}
	if res.Outcome != OutcomeCanceled || res.Reservation.Status != model.StatusCanceled || res.Reservation.CanceledAt == nil {
		t.Errorf("Cancel() result = %+v", res)
	}

	after, _ := h.svc.CheckAvailability(ctx, check)
	if after.Outcome != availability.OutcomeAvailable || remaining(t, after) != 1 {
		t.Errorf("after cancel = %s remaining %v, want AVAILABLE 1", after.Outcome, after.RemainingCapacity)
	}

	stored, _ := h.svc.GetByConfirmationCode(ctx, tenantID, first.ConfirmationCode)
	updatedAt := stored.UpdatedAt

	_, err = h.svc.Cancel(ctx, &model.CancelReservationRequest{TenantID: tenantID, ConfirmationCode: first.ConfirmationCode})
	if !apperrors.HasCode(err, apperrors.CodeAlreadyCanceled) {
		t.Errorf("second Cancel() error = %v, want ALREADY_CANCELED", err)
	}
	again, _ := h.svc.GetByConfirmationCode(ctx, tenantID, first.ConfirmationCode)
	if !again.UpdatedAt.Equal(updatedAt) || again.Status != model.StatusCanceled {
		t.Error("rejected cancel must not change the record")
	}

	h.svc.Close()
	if got := h.notifier.kinds; len(got) != 3 || got[2] != notifications.KindCanceled {
		t.Errorf("notifications = %v", got)
	}
}

func TestCancel_Guards(t *testing.T) {
	h := newHarness(t, laPolicy(2))
	h.seed(t, model.StatusBlocked, "18:00", "BLOCK000")

	tests := []struct {
		name string
		req  *model.CancelReservationRequest
		want string
	}{
		{"missing tenant", &model.CancelReservationRequest{ConfirmationCode: "BLOCK000"}, apperrors.CodeInvalidInput},
		{"missing code", &model.CancelReservationRequest{TenantID: tenantID}, apperrors.CodeInvalidInput},
		{"unknown code", &model.CancelReservationRequest{TenantID: tenantID, ConfirmationCode: "NOPE0000"}, apperrors.CodeNotFound},
		{"other tenant", &model.CancelReservationRequest{TenantID: "elsewhere", ConfirmationCode: "BLOCK000"}, apperrors.CodeNotFound},
		{"blocked row", &model.CancelReservationRequest{TenantID: tenantID, ConfirmationCode: "block000"}, apperrors.CodeCannotCancelBlocked},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := h.svc.Cancel(context.Background(), tt.req); !apperrors.HasCode(err, tt.want) {
				t.Errorf("Cancel() error = %v, want %s", err, tt.want)
			}
		})
	}
}

func TestCancel_ConcurrentRequestsCancelOnce(t *testing.T) {
	h := newHarness(t, laPolicy(2))
	h.seed(t, model.StatusConfirmed, "18:00", "RACE2345")

	// Both requests read the record before either one takes the slot lock.
	var arrived sync.WaitGroup
	arrived.Add(2)
	h.svc.repo = &interceptedRepository{
		ReservationRepository: h.repo,
		findHook: func(call int, r *model.Reservation) *model.Reservation {
			if call <= 2 {
				arrived.Done()
				arrived.Wait()
			}
			return r
		},
	}

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = h.svc.Cancel(context.Background(), &model.CancelReservationRequest{TenantID: tenantID, ConfirmationCode: "RACE2345"})
		}(i)
	}
	wg.Wait()

	succeeded, alreadyCanceled := 0, 0
	for _, err := range errs {
		switch {
		case err == nil:
			succeeded++
		case apperrors.HasCode(err, apperrors.CodeAlreadyCanceled):
			alreadyCanceled++
		default:
			t.Errorf("Cancel() unexpected error = %v", err)
		}
	}
	if succeeded != 1 || alreadyCanceled != 1 {
		t.Errorf("succeeded = %d already canceled = %d, want 1 and 1", succeeded, alreadyCanceled)
	}

	h.svc.Close()
	if got := h.notifier.kinds; len(got) != 1 || got[0] != notifications.KindCanceled {
		t.Errorf("notifications = %v, want a single canceled event", got)
	}
}

func TestChange_CanceledWhileWaitingForLock(t *testing.T) {
	h := newHarness(t, laPolicy(2))
	ctx := context.Background()
	live, err := h.svc.Create(ctx, createReq("18:00"))
	if err != nil || !live.Committed {
		t.Fatalf("Create() = (%+v, %v)", live, err)
	}

	inner := h.svc.locker
	h.svc.locker = lockerFunc(func(ctx context.Context, key repository.SlotKey) (func(), error) {
		if err := h.repo.UpdateStatus(ctx, tenantID, live.Reservation.ID, model.StatusCanceled); err != nil {
			t.Errorf("UpdateStatus() error = %v", err)
		}
		return inner.Acquire(ctx, key)
	})

	_, err = h.svc.Change(ctx, &model.ChangeReservationRequest{
		TenantID: tenantID, ConfirmationCode: live.ConfirmationCode, Date: slotDate, TimeSlot: "20:00",
	})
	if !apperrors.HasCode(err, apperrors.CodeAlreadyCanceled) {
		t.Fatalf("Change() error = %v, want ALREADY_CANCELED", err)
	}

	stored, _ := h.repo.FindByConfirmationCode(ctx, tenantID, live.ConfirmationCode)
	if stored.TimeSlot != "18:00" || stored.Status != model.StatusCanceled {
		t.Errorf("stored = %s %s, want canceled record left at 18:00", stored.Status, stored.TimeSlot)
	}

	h.svc.Close()
	if got := h.notifier.kinds; len(got) != 1 || got[0] != notifications.KindCreated {
		t.Errorf("notifications = %v, want only the create event", got)
	}
}

func TestMutations_StaleReadsLoseTheConditionalWrite(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(svc *bookingService, code string) error
	}{
		{
			name: "cancel",
			mutate: func(svc *bookingService, code string) error {
				_, err := svc.Cancel(context.Background(), &model.CancelReservationRequest{TenantID: tenantID, ConfirmationCode: code})
				return err
			},
		},
		{
			name: "change",
			mutate: func(svc *bookingService, code string) error {
				_, err := svc.Change(context.Background(), &model.ChangeReservationRequest{
					TenantID: tenantID, ConfirmationCode: code, Date: slotDate, TimeSlot: "20:00",
				})
				return err
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, laPolicy(2))
			h.seed(t, model.StatusCanceled, "18:00", "STALE234")

			// The first two reads still see the record as CONFIRMED.
			h.svc.repo = &interceptedRepository{
				ReservationRepository: h.repo,
				findHook: func(call int, r *model.Reservation) *model.Reservation {
					if call > 2 {
						return r
					}
					stale := *r
					stale.Status = model.StatusConfirmed
					stale.CanceledAt = nil
					return &stale
				},
			}

			if err := tt.mutate(h.svc, "STALE234"); !apperrors.HasCode(err, apperrors.CodeAlreadyCanceled) {
				t.Fatalf("error = %v, want ALREADY_CANCELED", err)
			}
			stored, _ := h.repo.FindByConfirmationCode(context.Background(), tenantID, "STALE234")
			if stored.TimeSlot != "18:00" || stored.Status != model.StatusCanceled {
				t.Errorf("stored = %s %s, want untouched canceled record", stored.Status, stored.TimeSlot)
			}

			h.svc.Close()
			if got := h.notifier.kinds; len(got) != 0 {
				t.Errorf("notifications = %v, want none", got)
			}
		})
	}
}

func TestChange_WithinOwnFullSlot(t *testing.T) {
	h := newHarness(t, laPolicy(2))
	ctx := context.Background()

	first, _ := h.svc.Create(ctx, createReq("18:00"))
	if _, err := h.svc.Create(ctx, createReq("18:00")); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	res, err := h.svc.Change(ctx, &model.ChangeReservationRequest{
		TenantID:         tenantID,
		ConfirmationCode: first.ConfirmationCode,
		Date:             slotDate,
		TimeSlot:         "18:00",
	})
	if err != nil {
		t.Fatalf("Change() error = %v", err)
	}
	if res.Outcome != availability.OutcomeAvailable || !res.Committed {
		t.Fatalf("Change() = %+v, want committed AVAILABLE", res)
	}
	if res.ConfirmationCode != first.ConfirmationCode || res.Reservation.ID != first.Reservation.ID {
		t.Error("change must keep the record id and confirmation code")
	}
	if got := remaining(t, res); got != 0 {
		t.Errorf("remaining = %d, want 0", got)
	}
}

func TestChange_MovesRecord(t *testing.T) {
	h := newHarness(t, laPolicy(1))
	ctx := context.Background()

	mine, _ := h.svc.Create(ctx, createReq("18:00"))
	if _, err := h.svc.Create(ctx, createReq("19:00")); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	full, err := h.svc.Change(ctx, &model.ChangeReservationRequest{
		TenantID: tenantID, ConfirmationCode: mine.ConfirmationCode, Date: slotDate, TimeSlot: "19:00",
	})
	if err != nil {
		t.Fatalf("Change() error = %v", err)
	}
	if full.Outcome != availability.OutcomeFull || full.Committed {
		t.Fatalf("Change() into a full slot = %s, want FULL", full.Outcome)
	}
	if full.Alternatives == nil || full.Alternatives.Before == nil || *full.Alternatives.Before != "18:45" {
		t.Errorf("alternatives = %+v", full.Alternatives)
	}

	moved, err := h.svc.Change(ctx, &model.ChangeReservationRequest{
		TenantID: tenantID, ConfirmationCode: mine.ConfirmationCode, Date: "2025-07-07", TimeSlot: "20:30",
	})
	if err != nil || !moved.Committed {
		t.Fatalf("Change() = (%+v, %v)", moved, err)
	}

	stored, _ := h.svc.GetByConfirmationCode(ctx, tenantID, mine.ConfirmationCode)
	if stored.Date != "2025-07-07" || stored.TimeSlot != "20:30" || stored.ID != mine.Reservation.ID {
		t.Errorf("stored = %+v", stored)
	}

	freed, _ := h.svc.CheckAvailability(ctx, &model.AvailabilityRequest{TenantID: tenantID, Date: slotDate, TimeSlot: "18:00"})
	if freed.Outcome != availability.OutcomeAvailable {
		t.Errorf("old slot = %s, want AVAILABLE", freed.Outcome)
	}

	h.svc.Close()
	if got := h.notifier.kinds; len(got) != 3 || got[2] != notifications.KindChanged {
		t.Errorf("notifications = %v", got)
	}
}

func TestChange_Guards(t *testing.T) {
	h := newHarness(t, laPolicy(2))
	ctx := context.Background()
	h.seed(t, model.StatusCanceled, "18:00", "GONE0000")
	h.seed(t, model.StatusBlocked, "17:00", "BLOCK000")
	live, err := h.svc.Create(ctx, createReq("18:00"))
	if err != nil || !live.Committed {
		t.Fatalf("Create() = (%+v, %v)", live, err)
	}

	tests := []struct {
		name        string
		req         *model.ChangeReservationRequest
		wantCode    string
		wantOutcome availability.Outcome
	}{
		{name: "missing fields", req: &model.ChangeReservationRequest{TenantID: tenantID}, wantCode: apperrors.CodeInvalidInput},
		{name: "unknown code", req: &model.ChangeReservationRequest{TenantID: tenantID, ConfirmationCode: "NOPE0000", Date: slotDate, TimeSlot: "19:00"}, wantCode: apperrors.CodeNotFound},
		{name: "canceled", req: &model.ChangeReservationRequest{TenantID: tenantID, ConfirmationCode: "GONE0000", Date: slotDate, TimeSlot: "19:00"}, wantCode: apperrors.CodeAlreadyCanceled},
		{name: "blocked", req: &model.ChangeReservationRequest{TenantID: tenantID, ConfirmationCode: "BLOCK000", Date: slotDate, TimeSlot: "19:00"}, wantCode: apperrors.CodeCannotCancelBlocked},
		{name: "past", req: &model.ChangeReservationRequest{TenantID: tenantID, ConfirmationCode: live.ConfirmationCode, Date: "2025-06-01", TimeSlot: "19:00"}, wantOutcome: availability.OutcomePast},
		{name: "beyond horizon", req: &model.ChangeReservationRequest{TenantID: tenantID, ConfirmationCode: live.ConfirmationCode, Date: "2025-08-01", TimeSlot: "19:00"}, wantOutcome: availability.OutcomeOutOfWindow},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := h.svc.Change(ctx, tt.req)
			if tt.wantCode != "" {
				if !apperrors.HasCode(err, tt.wantCode) {
					t.Errorf("Change() error = %v, want %s", err, tt.wantCode)
				}
				return
			}
			if err != nil {
				t.Fatalf("Change() error = %v", err)
			}
			if res.Outcome != tt.wantOutcome || res.Committed {
				t.Errorf("Change() outcome = %s, want %s", res.Outcome, tt.wantOutcome)
			}
		})
	}
}

func TestCheckAvailability(t *testing.T) {
	h := newHarness(t, laPolicy(2))
	ctx := context.Background()
	h.seed(t, model.StatusConfirmed, "18:00", "")
	h.seed(t, model.StatusCanceled, "18:00", "")

	tests := []struct {
		name          string
		req           *model.AvailabilityRequest
		wantOutcome   availability.Outcome
		wantRemaining int
	}{
		{"canceled rows free capacity", &model.AvailabilityRequest{TenantID: tenantID, Date: slotDate, TimeSlot: "18:00"}, availability.OutcomeAvailable, 1},
		{"empty slot", &model.AvailabilityRequest{TenantID: tenantID, Date: slotDate, TimeSlot: "20:00"}, availability.OutcomeAvailable, 2},
		{"missing time is invalid", &model.AvailabilityRequest{TenantID: tenantID, Date: slotDate}, availability.OutcomeInvalid, -1},
		{"thirty-first day out", &model.AvailabilityRequest{TenantID: tenantID, Date: "2025-08-01", TimeSlot: "18:00"}, availability.OutcomeOutOfWindow, -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := h.svc.CheckAvailability(ctx, tt.req)
			if err != nil {
				t.Fatalf("CheckAvailability() error = %v", err)
			}
			if res.Outcome != tt.wantOutcome || res.Committed || res.Stage != StageEvaluated {
				t.Fatalf("CheckAvailability() = %+v", res)
			}
			if tt.wantRemaining >= 0 && remaining(t, res) != tt.wantRemaining {
				t.Errorf("remaining = %d, want %d", *res.RemainingCapacity, tt.wantRemaining)
			}
		})
	}

	records, _ := h.repo.FindByDate(ctx, tenantID, slotDate)
	if len(records) != 2 {
		t.Errorf("CheckAvailability must not write, records = %d", len(records))
	}

	if _, err := h.svc.CheckAvailability(ctx, &model.AvailabilityRequest{Date: slotDate, TimeSlot: "18:00"}); !apperrors.HasCode(err, apperrors.CodeInvalidInput) {
		t.Errorf("missing tenant error = %v, want INVALID_INPUT", err)
	}
}

func TestCheckAvailability_EchoesOpeningHours(t *testing.T) {
	policy := laPolicy(2)
	policy.WeeklyHours = map[model.Weekday]model.OpeningHours{model.Sunday: {Open: "17:00", Close: "22:00"}}
	h := newHarness(t, policy)
	ctx := context.Background()

	// slotDate is a Sunday in the tenant's zone.
	res, err := h.svc.CheckAvailability(ctx, &model.AvailabilityRequest{TenantID: tenantID, Date: slotDate, TimeSlot: "23:30"})
	if err != nil {
		t.Fatalf("CheckAvailability() error = %v", err)
	}
	if res.OpeningHours == nil || res.OpeningHours.Open != "17:00" || res.OpeningHours.Close != "22:00" {
		t.Errorf("opening hours = %+v, want 17:00-22:00", res.OpeningHours)
	}
	if res.Outcome != availability.OutcomeAvailable {
		t.Errorf("outcome = %s, declared hours must not affect availability", res.Outcome)
	}

	monday, err := h.svc.CheckAvailability(ctx, &model.AvailabilityRequest{TenantID: tenantID, Date: "2025-07-07", TimeSlot: "18:00"})
	if err != nil {
		t.Fatalf("CheckAvailability() error = %v", err)
	}
	if monday.OpeningHours != nil {
		t.Errorf("undeclared day opening hours = %+v, want none", monday.OpeningHours)
	}
}

func TestGetByConfirmationCode(t *testing.T) {
	h := newHarness(t, laPolicy(2))
	seeded := h.seed(t, model.StatusConfirmed, "18:00", "ABCD2345")

	got, err := h.svc.GetByConfirmationCode(context.Background(), " "+tenantID+" ", " abcd2345 ")
	if err != nil {
		t.Fatalf("GetByConfirmationCode() error = %v", err)
	}
	if got.ID != seeded.ID {
		t.Errorf("ID = %s, want %s", got.ID, seeded.ID)
	}

	tests := []struct {
		name, tenant, code, want string
	}{
		{"unknown code", tenantID, "ZZZZ2345", apperrors.CodeNotFound},
		{"other tenant", "elsewhere", "ABCD2345", apperrors.CodeNotFound},
		{"missing code", tenantID, " ", apperrors.CodeInvalidInput},
		{"missing tenant", "", "ABCD2345", apperrors.CodeInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := h.svc.GetByConfirmationCode(context.Background(), tt.tenant, tt.code); !apperrors.HasCode(err, tt.want) {
				t.Errorf("error = %v, want %s", err, tt.want)
			}
		})
	}
}

func TestNewConfirmationCode(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		code, err := newConfirmationCode()
		if err != nil {
			t.Fatalf("newConfirmationCode() error = %v", err)
		}
		if len(code) != confirmationCodeLength {
			t.Fatalf("code %q has length %d", code, len(code))
		}
		for _, c := range code {
			if !containsRune(confirmationAlphabet, c) {
				t.Fatalf("code %q uses %q outside the alphabet", code, c)
			}
		}
		seen[code] = true
	}
	if len(seen) < 990 {
		t.Errorf("only %d distinct codes in 1000 draws", len(seen))
	}
}

func containsRune(s string, r rune) bool {
	for _, c := range s {
		if c == r {
			return true
		}
	}
	return false
}
