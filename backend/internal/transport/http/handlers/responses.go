package handlers

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/Maliot100X/CastLaunchEarn/backend/internal/domain/model"
	"github.com/Maliot100X/CastLaunchEarn/backend/internal/domain/rules"
	"github.com/Maliot100X/CastLaunchEarn/backend/internal/transport/http/dto"
)

func toUserResponse(u model.User) dto.UserResponse {
	return dto.UserResponse{
		FID:                  u.FID,
		Username:             u.Username,
		DisplayName:          u.DisplayName,
		PfpURL:               u.PfpURL,
		WalletAddress:        u.WalletAddress,
		Score:                u.Score,
		NotificationsEnabled: u.NotificationsEnabled,
		CreatedAt:            u.CreatedAt,
	}
}

func toCoinResponse(c model.Coin) dto.CoinResponse {
	return dto.CoinResponse{
		ID:          c.ID,
		CreatorFID:  c.CreatorFID,
		CoinAddress: c.CoinAddress,
		Name:        c.Name,
		Symbol:      c.Symbol,
		Description: c.Description,
		ImageURL:    c.ImageURL,
		MetadataURI: c.MetadataURI,
		ChainID:     c.ChainID,
		TxHash:      c.TxHash,
		CreatedAt:   c.CreatedAt,
	}
}

func toEntitlementResponse(e model.Entitlement, now time.Time) dto.EntitlementResponse {
	remaining := e.Remaining(now)
	if remaining < 0 {
		remaining = 0
	}
	return dto.EntitlementResponse{
		ID:               e.ID,
		SubjectType:      string(e.SubjectType),
		SubjectID:        e.SubjectID,
		Kind:             string(e.Kind),
		PricePaidCents:   e.PricePaidCents,
		StartedAt:        e.StartedAt,
		ExpiresAt:        e.ExpiresAt,
		PaymentReference: e.PaymentRef,
		RemainingSec:     int64(remaining / time.Second),
		Remaining:        rules.FormatRemaining(remaining),
	}
}

func toBoostResponse(b model.Boost, now time.Time) dto.BoostResponse {
	out := dto.BoostResponse{EntitlementResponse: toEntitlementResponse(b.Entitlement, now)}
	if b.Coin != nil {
		coin := toCoinResponse(*b.Coin)
		out.Coin = &coin
	}
	return out
}

// queryInt returns 0 when the parameter is absent and false when it is not a
// non-negative integer.
func queryInt(r *http.Request, name string) (int64, bool) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return 0, true
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || v < 0 {
		return 0, false
	}
	return v, true
}

func itoa(v int64) string {
	return strconv.FormatInt(v, 10)
}
