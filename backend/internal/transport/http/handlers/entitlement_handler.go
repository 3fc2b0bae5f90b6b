package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	entsvc "github.com/Maliot100X/CastLaunchEarn/backend/internal/services/entitlements"
	"github.com/Maliot100X/CastLaunchEarn/backend/internal/transport/http/dto"
	httperrors "github.com/Maliot100X/CastLaunchEarn/backend/internal/transport/http/errors"
)

type EntitlementHandler struct {
	service *entsvc.Service
	log     *zap.Logger
	now     func() time.Time
}

func NewEntitlementHandler(service *entsvc.Service, log *zap.Logger) *EntitlementHandler {
	return &EntitlementHandler{service: service, log: log, now: time.Now}
}

// ByPayment lists every grant recorded against a transaction hash,
// expired ones included.
func (h *EntitlementHandler) ByPayment(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		writeInternal(w, "ENTITLEMENT_SERVICE_UNAVAILABLE", "entitlement service is unavailable")
		return
	}

	ref := entsvc.NormalizePaymentRef(chi.URLParam(r, "tx_hash"))
	items, err := h.service.FindByPaymentReference(r.Context(), ref)
	if err != nil {
		if errors.Is(err, entsvc.ErrValidation) {
			writeBadRequest(w, "VALIDATION_ERROR", "tx_hash is required")
			return
		}
		writeServerError(w, r, h.log, err)
		return
	}

	now := h.now()
	resp := dto.PaymentEntitlementsResponse{
		PaymentReference: ref,
		Entitlements:     make([]dto.EntitlementResponse, 0, len(items)),
	}
	for _, e := range items {
		resp.Entitlements = append(resp.Entitlements, toEntitlementResponse(e, now))
	}
	httperrors.Write(w, http.StatusOK, resp)
}
