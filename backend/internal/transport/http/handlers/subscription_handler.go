package handlers

import (
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/Maliot100X/CastLaunchEarn/backend/internal/domain/enums"
	authsvc "github.com/Maliot100X/CastLaunchEarn/backend/internal/services/auth"
	entsvc "github.com/Maliot100X/CastLaunchEarn/backend/internal/services/entitlements"
	paymentsvc "github.com/Maliot100X/CastLaunchEarn/backend/internal/services/payments"
	"github.com/Maliot100X/CastLaunchEarn/backend/internal/transport/http/dto"
	httperrors "github.com/Maliot100X/CastLaunchEarn/backend/internal/transport/http/errors"
)

type SubscriptionHandler struct {
	entitlements *entsvc.Service
	payments     *paymentsvc.Service
	log          *zap.Logger
	now          func() time.Time
}

func NewSubscriptionHandler(entitlements *entsvc.Service, payments *paymentsvc.Service, log *zap.Logger) *SubscriptionHandler {
	return &SubscriptionHandler{entitlements: entitlements, payments: payments, log: log, now: time.Now}
}

func (h *SubscriptionHandler) Plans(w http.ResponseWriter, r *http.Request) {
	writePackages(w, r, h.log, h.payments, enums.ScopeSubscription)
}

func (h *SubscriptionHandler) Purchase(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}
	if h.payments == nil {
		writeInternal(w, "PAYMENT_SERVICE_UNAVAILABLE", "payment service is unavailable")
		return
	}

	var req dto.PurchaseSubscriptionRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "INVALID_REQUEST", "invalid request body")
		return
	}
	plan, ok := enums.ParseEntitlementKind(req.Plan)
	if !ok || !plan.IsSubscription() {
		writeBadRequest(w, "VALIDATION_ERROR", "unknown subscription plan")
		return
	}

	res, err := h.payments.PurchaseSubscription(r.Context(), identity.FID, plan, req.TxHash)
	if err != nil {
		handlePurchaseError(w, r, h.log, err)
		return
	}
	writePurchase(w, res, h.now())
}

func (h *SubscriptionHandler) Me(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}
	if h.entitlements == nil {
		writeInternal(w, "ENTITLEMENT_SERVICE_UNAVAILABLE", "entitlement service is unavailable")
		return
	}

	now := h.now()
	status, err := h.entitlements.SubscriptionStatus(r.Context(), identity.FID, now)
	if err != nil {
		writeServerError(w, r, h.log, err)
		return
	}

	resp := dto.SubscriptionStatusResponse{Active: status.Active}
	if status.Subscription != nil {
		sub := toEntitlementResponse(*status.Subscription, now)
		resp.Subscription = &sub
	}
	httperrors.Write(w, http.StatusOK, resp)
}
