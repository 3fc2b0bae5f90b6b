package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	coinssvc "github.com/Maliot100X/CastLaunchEarn/backend/internal/services/coins"
	paymentsvc "github.com/Maliot100X/CastLaunchEarn/backend/internal/services/payments"
	"github.com/Maliot100X/CastLaunchEarn/backend/internal/transport/http/dto"
)

func TestBoostPurchaseCreatesThenReplays(t *testing.T) {
	fx := newHandlerFixture(t)
	handler := NewBoostHandler(fx.entitlements, fx.payments, zap.NewNop())
	body := dto.PurchaseBoostRequest{CoinID: fx.coin.ID, BoostType: "super", TxHash: testHashA}

	rr := httptest.NewRecorder()
	handler.Purchase(rr, authedRequest(http.MethodPost, "/v1/boosts", body, testFID))
	if rr.Code != http.StatusCreated {
		t.Fatalf("unexpected status: got %d want %d (%s)", rr.Code, http.StatusCreated, rr.Body.String())
	}
	var first dto.PurchaseResponse
	decodeBody(t, rr, &first)
	if !first.Created || first.Entitlement.Kind != "super" || first.Entitlement.PricePaidCents != 300 {
		t.Fatalf("unexpected purchase: %+v", first)
	}
	if first.Coin == nil || first.Coin.ID != fx.coin.ID || first.ValueWei == "" {
		t.Fatalf("purchase must echo coin and payment: %+v", first)
	}
	if got := first.Entitlement.ExpiresAt.Sub(first.Entitlement.StartedAt); got != 25*time.Minute {
		t.Fatalf("unexpected duration: %v", got)
	}

	rr = httptest.NewRecorder()
	handler.Purchase(rr, authedRequest(http.MethodPost, "/v1/boosts", body, testFID))
	if rr.Code != http.StatusOK {
		t.Fatalf("replay status: got %d want %d", rr.Code, http.StatusOK)
	}
	var replay dto.PurchaseResponse
	decodeBody(t, rr, &replay)
	if replay.Created || replay.Entitlement.ID != first.Entitlement.ID {
		t.Fatalf("replay must return the original grant: %+v", replay)
	}
}

func TestBoostPurchaseErrorStatuses(t *testing.T) {
	tests := []struct {
		name      string
		body      dto.PurchaseBoostRequest
		verifyErr error
		seed      bool
		want      int
		wantCode  string
	}{
		{
			name:     "unknown boost type",
			body:     dto.PurchaseBoostRequest{BoostType: "mega", TxHash: testHashA},
			want:     http.StatusBadRequest,
			wantCode: "VALIDATION_ERROR",
		},
		{
			name:     "malformed tx hash",
			body:     dto.PurchaseBoostRequest{BoostType: "basic", TxHash: "0x123"},
			want:     http.StatusBadRequest,
			wantCode: "VALIDATION_ERROR",
		},
		{
			name:     "unknown coin",
			body:     dto.PurchaseBoostRequest{CoinID: "7d0c4cc6-3a52-4a44-9d0f-2a3a3c1d4e5f", BoostType: "basic", TxHash: testHashA},
			want:     http.StatusNotFound,
			wantCode: "COIN_NOT_FOUND",
		},
		{
			name:      "underpaid",
			body:      dto.PurchaseBoostRequest{BoostType: "hyper", TxHash: testHashA},
			verifyErr: paymentsvc.ErrInsufficientAmount,
			want:      http.StatusPaymentRequired,
			wantCode:  "INSUFFICIENT_AMOUNT",
		},
		{
			name:      "wrong recipient",
			body:      dto.PurchaseBoostRequest{BoostType: "basic", TxHash: testHashA},
			verifyErr: paymentsvc.ErrWrongRecipient,
			want:      http.StatusPaymentRequired,
			wantCode:  "WRONG_RECIPIENT",
		},
		{
			name:      "not mined in time",
			body:      dto.PurchaseBoostRequest{BoostType: "basic", TxHash: testHashA},
			verifyErr: paymentsvc.ErrConfirmationTimeout,
			want:      http.StatusGatewayTimeout,
			wantCode:  "CONFIRMATION_TIMEOUT",
		},
		{
			name:     "reference used by a subscription",
			body:     dto.PurchaseBoostRequest{BoostType: "basic", TxHash: testHashB},
			seed:     true,
			want:     http.StatusConflict,
			wantCode: "PAYMENT_REFERENCE_REUSED",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			fx := newHandlerFixture(t)
			if tc.seed {
				if _, err := fx.payments.PurchaseSubscription(context.Background(), testFID, "trial", testHashB); err != nil {
					t.Fatalf("seed subscription: %v", err)
				}
			}
			fx.verifier.fail(tc.verifyErr)
			if tc.body.CoinID == "" {
				tc.body.CoinID = fx.coin.ID
			}

			handler := NewBoostHandler(fx.entitlements, fx.payments, zap.NewNop())
			rr := httptest.NewRecorder()
			handler.Purchase(rr, authedRequest(http.MethodPost, "/v1/boosts", tc.body, testFID))
			if rr.Code != tc.want {
				t.Fatalf("unexpected status: got %d want %d (%s)", rr.Code, tc.want, rr.Body.String())
			}

			var raw map[string]any
			decodeBody(t, rr, &raw)
			if raw["code"] != tc.wantCode {
				t.Fatalf("unexpected code: got %v want %s", raw["code"], tc.wantCode)
			}

			active, err := fx.entitlements.ActiveBoosts(context.Background(), time.Now(), 0)
			if err != nil {
				t.Fatalf("list boosts: %v", err)
			}
			if len(active) != 0 {
				t.Fatalf("failed purchase must not write a boost, got %d", len(active))
			}
		})
	}
}

func TestBoostKingFollowsLatestExpiry(t *testing.T) {
	fx := newHandlerFixture(t)
	handler := NewBoostHandler(fx.entitlements, fx.payments, zap.NewNop())

	rr := httptest.NewRecorder()
	handler.King(rr, httptest.NewRequest(http.MethodGet, "/v1/boosts/king", nil))
	if rr.Code != http.StatusNotFound {
		t.Fatalf("empty ledger: got %d want %d", rr.Code, http.StatusNotFound)
	}

	other, err := fx.coins.Create(context.Background(), testFID, coinssvc.CreateInput{
		CoinAddress: "0x2222222222222222222222222222222222222222",
		Name:        "Sun",
		Symbol:      "SUN",
	})
	if err != nil {
		t.Fatalf("create coin: %v", err)
	}
	if _, err := fx.payments.PurchaseBoost(context.Background(), testFID, other.Coin.ID, "hyper", testHashA); err != nil {
		t.Fatalf("hyper boost: %v", err)
	}
	if _, err := fx.payments.PurchaseBoost(context.Background(), testFID, fx.coin.ID, "basic", testHashB); err != nil {
		t.Fatalf("basic boost: %v", err)
	}

	rr = httptest.NewRecorder()
	handler.King(rr, httptest.NewRequest(http.MethodGet, "/v1/boosts/king", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("unexpected status: got %d want %d", rr.Code, http.StatusOK)
	}
	var king dto.KingResponse
	decodeBody(t, rr, &king)
	if king.King.Coin == nil || king.King.Coin.ID != other.Coin.ID {
		t.Fatalf("hyper boost must hold the crown: %+v", king.King)
	}

	rr = httptest.NewRecorder()
	handler.List(rr, httptest.NewRequest(http.MethodGet, "/v1/boosts?limit=1", nil))
	var list dto.BoostsResponse
	decodeBody(t, rr, &list)
	if len(list.Boosts) != 1 || list.Boosts[0].ID != king.King.ID {
		t.Fatalf("limit=1 must return only the king: %+v", list.Boosts)
	}
}

func TestBoostListRejectsBadLimit(t *testing.T) {
	fx := newHandlerFixture(t)
	handler := NewBoostHandler(fx.entitlements, fx.payments, zap.NewNop())

	rr := httptest.NewRecorder()
	handler.List(rr, httptest.NewRequest(http.MethodGet, "/v1/boosts?limit=-4", nil))
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("unexpected status: got %d want %d", rr.Code, http.StatusBadRequest)
	}
}

func TestPackagesQuoteWei(t *testing.T) {
	fx := newHandlerFixture(t)
	handler := NewBoostHandler(fx.entitlements, fx.payments, zap.NewNop())

	rr := httptest.NewRecorder()
	handler.Packages(rr, httptest.NewRequest(http.MethodGet, "/v1/boosts/packages", nil))
	var resp dto.PackagesResponse
	decodeBody(t, rr, &resp)
	if len(resp.Packages) != 3 {
		t.Fatalf("expected three boost packages, got %d", len(resp.Packages))
	}
	basic := resp.Packages[0]
	if basic.Kind != "basic" || basic.PriceWei != "400000000000000" || basic.DurationSec != 600 || basic.PriceUSD != "1.00" {
		t.Fatalf("unexpected basic package: %+v", basic)
	}
}

func TestSubscriptionPurchaseAndStatus(t *testing.T) {
	fx := newHandlerFixture(t)
	handler := NewSubscriptionHandler(fx.entitlements, fx.payments, zap.NewNop())

	rr := httptest.NewRecorder()
	handler.Purchase(rr, authedRequest(http.MethodPost, "/v1/subscriptions",
		dto.PurchaseSubscriptionRequest{Plan: "basic", TxHash: testHashA}, testFID))
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("boost tier as plan: got %d want %d", rr.Code, http.StatusBadRequest)
	}

	rr = httptest.NewRecorder()
	handler.Purchase(rr, authedRequest(http.MethodPost, "/v1/subscriptions",
		dto.PurchaseSubscriptionRequest{Plan: "trial", TxHash: testHashA}, testFID))
	if rr.Code != http.StatusCreated {
		t.Fatalf("unexpected status: got %d want %d (%s)", rr.Code, http.StatusCreated, rr.Body.String())
	}

	rr = httptest.NewRecorder()
	handler.Me(rr, authedRequest(http.MethodGet, "/v1/subscriptions/me", nil, testFID))
	var status dto.SubscriptionStatusResponse
	decodeBody(t, rr, &status)
	if !status.Active || status.Subscription == nil || status.Subscription.SubjectID != "42" {
		t.Fatalf("unexpected status: %+v", status)
	}
	if status.Subscription.RemainingSec <= 0 {
		t.Fatalf("remaining time must be positive: %+v", status.Subscription)
	}
}

func TestEntitlementsByPayment(t *testing.T) {
	fx := newHandlerFixture(t)
	if _, err := fx.payments.PurchaseBoost(context.Background(), testFID, fx.coin.ID, "basic", testHashA); err != nil {
		t.Fatalf("purchase: %v", err)
	}

	r := chi.NewRouter()
	r.Get("/v1/entitlements/payments/{tx_hash}", NewEntitlementHandler(fx.entitlements, zap.NewNop()).ByPayment)

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/v1/entitlements/payments/0xAAAAaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("unexpected status: got %d want %d", rr.Code, http.StatusOK)
	}
	var resp dto.PaymentEntitlementsResponse
	decodeBody(t, rr, &resp)
	if resp.PaymentReference != testHashA || len(resp.Entitlements) != 1 {
		t.Fatalf("unexpected reconciliation payload: %+v", resp)
	}

	rr = httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/v1/entitlements/payments/"+testHashB, nil))
	decodeBody(t, rr, &resp)
	if len(resp.Entitlements) != 0 {
		t.Fatalf("unknown reference must be empty, got %d", len(resp.Entitlements))
	}
}
