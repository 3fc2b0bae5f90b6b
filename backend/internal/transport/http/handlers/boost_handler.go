package handlers

import (
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/Maliot100X/CastLaunchEarn/backend/internal/domain/enums"
	"github.com/Maliot100X/CastLaunchEarn/backend/internal/domain/rules"
	authsvc "github.com/Maliot100X/CastLaunchEarn/backend/internal/services/auth"
	entsvc "github.com/Maliot100X/CastLaunchEarn/backend/internal/services/entitlements"
	paymentsvc "github.com/Maliot100X/CastLaunchEarn/backend/internal/services/payments"
	"github.com/Maliot100X/CastLaunchEarn/backend/internal/transport/http/dto"
	httperrors "github.com/Maliot100X/CastLaunchEarn/backend/internal/transport/http/errors"
)

type BoostHandler struct {
	entitlements *entsvc.Service
	payments     *paymentsvc.Service
	log          *zap.Logger
	now          func() time.Time
}

func NewBoostHandler(entitlements *entsvc.Service, payments *paymentsvc.Service, log *zap.Logger) *BoostHandler {
	return &BoostHandler{entitlements: entitlements, payments: payments, log: log, now: time.Now}
}

func (h *BoostHandler) List(w http.ResponseWriter, r *http.Request) {
	if h.entitlements == nil {
		writeInternal(w, "BOOST_SERVICE_UNAVAILABLE", "boost service is unavailable")
		return
	}
	limit, ok := queryInt(r, "limit")
	if !ok {
		writeBadRequest(w, "VALIDATION_ERROR", "limit must be a non-negative integer")
		return
	}

	now := h.now()
	boosts, err := h.entitlements.ActiveBoosts(r.Context(), now, int(limit))
	if err != nil {
		writeServerError(w, r, h.log, err)
		return
	}

	resp := dto.BoostsResponse{Boosts: make([]dto.BoostResponse, 0, len(boosts))}
	for _, b := range boosts {
		resp.Boosts = append(resp.Boosts, toBoostResponse(b, now))
	}
	httperrors.Write(w, http.StatusOK, resp)
}

// King returns the boost with the latest expiry.
func (h *BoostHandler) King(w http.ResponseWriter, r *http.Request) {
	if h.entitlements == nil {
		writeInternal(w, "BOOST_SERVICE_UNAVAILABLE", "boost service is unavailable")
		return
	}

	now := h.now()
	king, err := h.entitlements.CurrentKing(r.Context(), now)
	if err != nil {
		if errors.Is(err, entsvc.ErrNoActiveBoost) {
			writeNotFound(w, "NO_ACTIVE_BOOST", "no active boost")
			return
		}
		writeServerError(w, r, h.log, err)
		return
	}
	httperrors.Write(w, http.StatusOK, dto.KingResponse{King: toBoostResponse(king, now)})
}

func (h *BoostHandler) Packages(w http.ResponseWriter, r *http.Request) {
	writePackages(w, r, h.log, h.payments, enums.ScopeBoost)
}

func (h *BoostHandler) Purchase(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}
	if h.payments == nil {
		writeInternal(w, "PAYMENT_SERVICE_UNAVAILABLE", "payment service is unavailable")
		return
	}

	var req dto.PurchaseBoostRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "INVALID_REQUEST", "invalid request body")
		return
	}
	kind, ok := enums.ParseEntitlementKind(req.BoostType)
	if !ok || !kind.IsBoost() {
		writeBadRequest(w, "VALIDATION_ERROR", "unknown boost type")
		return
	}

	res, err := h.payments.PurchaseBoost(r.Context(), identity.FID, req.CoinID, kind, req.TxHash)
	if err != nil {
		handlePurchaseError(w, r, h.log, err)
		return
	}
	writePurchase(w, res, h.now())
}

func writePackages(w http.ResponseWriter, r *http.Request, log *zap.Logger, payments *paymentsvc.Service, scope enums.Scope) {
	if payments == nil {
		writeInternal(w, "PAYMENT_SERVICE_UNAVAILABLE", "payment service is unavailable")
		return
	}

	quotes, err := payments.Quotes(scope)
	if err != nil {
		writeServerError(w, r, log, err)
		return
	}

	resp := dto.PackagesResponse{Packages: make([]dto.PackageResponse, 0, len(quotes))}
	for _, q := range quotes {
		resp.Packages = append(resp.Packages, dto.PackageResponse{
			Kind:        string(q.Kind),
			Label:       q.Label,
			PriceCents:  q.PriceCents,
			PriceUSD:    rules.FormatUSD(q.PriceCents),
			PriceWei:    q.PriceWei.String(),
			DurationSec: int64(q.Duration / time.Second),
			Recipient:   q.Recipient,
		})
	}
	httperrors.Write(w, http.StatusOK, resp)
}

// writePurchase answers 201 for a fresh grant and 200 for a replayed one.
func writePurchase(w http.ResponseWriter, res paymentsvc.PurchaseResult, now time.Time) {
	resp := dto.PurchaseResponse{
		Entitlement: toEntitlementResponse(res.Entitlement, now),
		Created:     res.Created,
	}
	if res.Coin != nil {
		coin := toCoinResponse(*res.Coin)
		resp.Coin = &coin
	}
	if res.Payment != nil {
		if res.Payment.ValueWei != nil {
			resp.ValueWei = res.Payment.ValueWei.String()
		}
		resp.BlockNumber = res.Payment.BlockNumber
	}

	status := http.StatusOK
	if res.Created {
		status = http.StatusCreated
	}
	httperrors.Write(w, status, resp)
}

func handlePurchaseError(w http.ResponseWriter, r *http.Request, log *zap.Logger, err error) {
	var rateErr *paymentsvc.RateLimitError
	switch {
	case errors.As(err, &rateErr):
		w.Header().Set("Retry-After", itoa(rateErr.RetryAfterSec))
		httperrors.Write(w, http.StatusTooManyRequests, httperrors.RateLimitError{
			Code:          "RATE_LIMITED",
			Message:       "too many purchase attempts",
			RetryAfterSec: rateErr.RetryAfterSec,
		})
	case errors.Is(err, paymentsvc.ErrValidation), errors.Is(err, paymentsvc.ErrInvalidTxHash),
		errors.Is(err, entsvc.ErrValidation):
		writeBadRequest(w, "VALIDATION_ERROR", "request validation failed")
	case errors.Is(err, paymentsvc.ErrCoinNotFound):
		writeNotFound(w, "COIN_NOT_FOUND", "coin not found")
	case errors.Is(err, paymentsvc.ErrPaymentReferenceReused):
		writeConflict(w, "PAYMENT_REFERENCE_REUSED", "transaction already used for another purchase")
	case errors.Is(err, paymentsvc.ErrInsufficientAmount):
		writePaymentRequired(w, "INSUFFICIENT_AMOUNT", "payment amount is below the package price")
	case errors.Is(err, paymentsvc.ErrWrongRecipient):
		writePaymentRequired(w, "WRONG_RECIPIENT", "payment was not sent to the platform wallet")
	case errors.Is(err, paymentsvc.ErrTransactionFailed):
		writePaymentRequired(w, "TRANSACTION_FAILED", "payment transaction reverted")
	case errors.Is(err, paymentsvc.ErrConfirmationTimeout):
		httperrors.Write(w, http.StatusGatewayTimeout, httperrors.APIError{
			Code:    "CONFIRMATION_TIMEOUT",
			Message: "payment not confirmed yet, retry with the same transaction hash",
		})
	default:
		writeServerError(w, r, log, err)
	}
}

func writePaymentRequired(w http.ResponseWriter, code, message string) {
	httperrors.Write(w, http.StatusPaymentRequired, httperrors.APIError{Code: code, Message: message})
}
