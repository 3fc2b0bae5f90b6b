package model

import (
	"time"

	"github.com/Maliot100X/CastLaunchEarn/backend/internal/domain/enums"
)

// Entitlement is one paid, time-boxed grant. Rows are append-only.
type Entitlement struct {
	ID             string                `json:"id"`
	Seq            int64                 `json:"-"`
	SubjectType    enums.SubjectType     `json:"subject_type"`
	SubjectID      string                `json:"subject_id"`
	Kind           enums.EntitlementKind `json:"kind"`
	PricePaidCents int64                 `json:"price_paid_cents"`
	StartedAt      time.Time             `json:"started_at"`
	ExpiresAt      time.Time             `json:"expires_at"`
	PaymentRef     string                `json:"payment_reference,omitempty"`
}

// ActiveAt reports whether the entitlement is still running. A row that
// expires exactly at now is no longer active.
func (e Entitlement) ActiveAt(now time.Time) bool {
	return e.ExpiresAt.After(now)
}

func (e Entitlement) Remaining(now time.Time) time.Duration {
	return e.ExpiresAt.Sub(now)
}
