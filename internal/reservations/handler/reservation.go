package handler

import (
	"net/http"

	"github.com/julienschmidt/httprouter"

	"tablebook/internal/availability"
	"tablebook/internal/reservations/service"
	httputil "tablebook/pkg/http"
	"tablebook/pkg/logger"
	"tablebook/pkg/model"
)

type ReservationHandler struct {
	service service.BookingService
	log     *logger.Logger
}

func NewReservationHandler(service service.BookingService, log *logger.Logger) *ReservationHandler {
	return &ReservationHandler{
		service: service,
		log:     log,
	}
}

func (h *ReservationHandler) Create(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var req model.CreateReservationRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		h.writeError(w, "Create", err)
		return
	}
	req.TenantID = ps.ByName("tenant_id")

	res, err := h.service.Create(r.Context(), &req)
	if err != nil {
		h.writeError(w, "Create", err)
		return
	}
	h.writeResult(w, "Create", res, http.StatusCreated)
}

func (h *ReservationHandler) Get(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	reservation, err := h.service.GetByConfirmationCode(r.Context(), ps.ByName("tenant_id"), ps.ByName("code"))
	if err != nil {
		h.writeError(w, "Get", err)
		return
	}

	if err := httputil.WriteSuccess(w, reservation); err != nil {
		h.log.Error("failed to write success response", "handler", "Get", "operation", "WriteSuccess", "error", err)
	}
}

func (h *ReservationHandler) Change(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var req model.ChangeReservationRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		h.writeError(w, "Change", err)
		return
	}
	req.TenantID = ps.ByName("tenant_id")
	req.ConfirmationCode = ps.ByName("code")

	res, err := h.service.Change(r.Context(), &req)
	if err != nil {
		h.writeError(w, "Change", err)
		return
	}
	h.writeResult(w, "Change", res, http.StatusOK)
}

func (h *ReservationHandler) Cancel(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	res, err := h.service.Cancel(r.Context(), &model.CancelReservationRequest{
		TenantID:         ps.ByName("tenant_id"),
		ConfirmationCode: ps.ByName("code"),
	})
	if err != nil {
		h.writeError(w, "Cancel", err)
		return
	}
	h.writeResult(w, "Cancel", res, http.StatusOK)
}

func (h *ReservationHandler) Availability(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	query := r.URL.Query()
	res, err := h.service.CheckAvailability(r.Context(), &model.AvailabilityRequest{
		TenantID: ps.ByName("tenant_id"),
		Date:     query.Get("date"),
		TimeSlot: query.Get("time_slot"),
	})
	if err != nil {
		h.writeError(w, "Availability", err)
		return
	}

	// A read-only check succeeded whatever the verdict; only malformed input
	// is a client error.
	status := http.StatusOK
	if res.Outcome == availability.OutcomeInvalid {
		status = http.StatusBadRequest
	}
	if err := httputil.WriteJSON(w, status, httputil.SuccessResponse{Data: res}); err != nil {
		h.log.Error("failed to write JSON response", "handler", "Availability", "operation", "WriteJSON", "error", err)
	}
}

func (h *ReservationHandler) RegisterRoutes(router *httprouter.Router) {
	router.POST("/api/v1/tenants/:tenant_id/reservations", h.Create)
	router.GET("/api/v1/tenants/:tenant_id/reservations/:code", h.Get)
	router.PATCH("/api/v1/tenants/:tenant_id/reservations/:code", h.Change)
	router.DELETE("/api/v1/tenants/:tenant_id/reservations/:code", h.Cancel)
	router.GET("/api/v1/tenants/:tenant_id/availability", h.Availability)
}

// writeResult maps a workflow result to a status: committed writes get
// committedStatus, an unavailable slot is a conflict and a time outside the
// bookable range is unprocessable.
func (h *ReservationHandler) writeResult(w http.ResponseWriter, handler string, res *service.Result, committedStatus int) {
	status := http.StatusOK
	switch res.Outcome {
	case availability.OutcomeFull, availability.OutcomeBlocked:
		status = http.StatusConflict
	case availability.OutcomePast, availability.OutcomeOutOfWindow:
		status = http.StatusUnprocessableEntity
	case availability.OutcomeInvalid:
		status = http.StatusBadRequest
	default:
		if res.Committed {
			status = committedStatus
		}
	}

	if err := httputil.WriteJSON(w, status, httputil.SuccessResponse{Data: res}); err != nil {
		h.log.Error("failed to write JSON response", "handler", handler, "operation", "WriteJSON", "error", err)
	}
}

func (h *ReservationHandler) writeError(w http.ResponseWriter, handler string, err error) {
	if writeErr := httputil.WriteError(w, err); writeErr != nil {
		h.log.Error("failed to write error response", "handler", handler, "operation", "WriteError", "error", writeErr)
	}
}
