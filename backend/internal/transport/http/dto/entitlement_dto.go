package dto

import "time"

type EntitlementResponse struct {
	ID               string    `json:"id"`
	SubjectType      string    `json:"subject_type"`
	SubjectID        string    `json:"subject_id"`
	Kind             string    `json:"kind"`
	PricePaidCents   int64     `json:"price_paid_cents"`
	StartedAt        time.Time `json:"started_at"`
	ExpiresAt        time.Time `json:"expires_at"`
	PaymentReference string    `json:"payment_reference,omitempty"`
	RemainingSec     int64     `json:"remaining_sec"`
	Remaining        string    `json:"remaining"`
}

type BoostResponse struct {
	EntitlementResponse
	Coin *CoinResponse `json:"coin,omitempty"`
}

type BoostsResponse struct {
	Boosts []BoostResponse `json:"boosts"`
}

type KingResponse struct {
	King BoostResponse `json:"king"`
}

type PurchaseBoostRequest struct {
	CoinID    string `json:"coin_id"`
	BoostType string `json:"boost_type"`
	TxHash    string `json:"tx_hash"`
}

type PurchaseSubscriptionRequest struct {
	Plan   string `json:"plan"`
	TxHash string `json:"tx_hash"`
}

type PurchaseResponse struct {
	Entitlement EntitlementResponse `json:"entitlement"`
	Created     bool                `json:"created"`
	Coin        *CoinResponse       `json:"coin,omitempty"`
	ValueWei    string              `json:"value_wei,omitempty"`
	BlockNumber uint64              `json:"block_number,omitempty"`
}

type PackageResponse struct {
	Kind        string `json:"kind"`
	Label       string `json:"label"`
	PriceCents  int64  `json:"price_cents"`
	PriceUSD    string `json:"price_usd"`
	PriceWei    string `json:"price_wei"`
	DurationSec int64  `json:"duration_sec"`
	Recipient   string `json:"recipient"`
}

type PackagesResponse struct {
	Packages []PackageResponse `json:"packages"`
}

type SubscriptionStatusResponse struct {
	Active       bool                 `json:"active"`
	Subscription *EntitlementResponse `json:"subscription,omitempty"`
}

type PaymentEntitlementsResponse struct {
	PaymentReference string                `json:"payment_reference"`
	Entitlements     []EntitlementResponse `json:"entitlements"`
}
