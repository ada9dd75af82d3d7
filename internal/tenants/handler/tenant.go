package handler

import (
	"net/http"

	"github.com/julienschmidt/httprouter"

	"tablebook/internal/tenants/service"
	httputil "tablebook/pkg/http"
	"tablebook/pkg/logger"
	"tablebook/pkg/model"
)

type TenantHandler struct {
	service service.TenantService
	log     *logger.Logger
}

func NewTenantHandler(service service.TenantService, log *logger.Logger) *TenantHandler {
	return &TenantHandler{
		service: service,
		log:     log,
	}
}

func (h *TenantHandler) Get(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	tenant, err := h.service.Get(r.Context(), ps.ByName("tenant_id"))
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "Get", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	if err := httputil.WriteSuccess(w, tenant); err != nil {
		h.log.Error("failed to write success response", "handler", "Get", "operation", "WriteSuccess", "error", err)
	}
}

// Put creates or replaces the policy of the tenant named in the path.
func (h *TenantHandler) Put(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var tenant model.Tenant
	if err := httputil.DecodeJSON(r, &tenant); err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "Put", "operation", "WriteError", "error", writeErr)
		}
		return
	}
	tenant.ID = ps.ByName("tenant_id")

	if err := h.service.Upsert(r.Context(), &tenant); err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "Put", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	if err := httputil.WriteSuccess(w, tenant); err != nil {
		h.log.Error("failed to write success response", "handler", "Put", "operation", "WriteSuccess", "error", err)
	}
}

func (h *TenantHandler) RegisterRoutes(router *httprouter.Router) {
	router.GET("/api/v1/tenants/:tenant_id", h.Get)
	router.PUT("/api/v1/tenants/:tenant_id", h.Put)
}
