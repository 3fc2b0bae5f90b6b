package handlers

import (
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"

	authsvc "github.com/Maliot100X/CastLaunchEarn/backend/internal/services/auth"
	entsvc "github.com/Maliot100X/CastLaunchEarn/backend/internal/services/entitlements"
	userssvc "github.com/Maliot100X/CastLaunchEarn/backend/internal/services/users"
	"github.com/Maliot100X/CastLaunchEarn/backend/internal/transport/http/dto"
	httperrors "github.com/Maliot100X/CastLaunchEarn/backend/internal/transport/http/errors"
)

type MeHandler struct {
	users        *userssvc.Service
	entitlements *entsvc.Service
	log          *zap.Logger
	now          func() time.Time
}

func NewMeHandler(users *userssvc.Service, entitlements *entsvc.Service, log *zap.Logger) *MeHandler {
	return &MeHandler{users: users, entitlements: entitlements, log: log, now: time.Now}
}

// Handle returns the caller's profile. Subscriber state is read from the
// ledger on every request and never cached on the user row.
func (h *MeHandler) Handle(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}
	if h.users == nil || h.entitlements == nil {
		writeInternal(w, "ME_SERVICE_UNAVAILABLE", "me service is unavailable")
		return
	}

	user, err := h.users.Get(r.Context(), identity.FID)
	if err != nil {
		if errors.Is(err, userssvc.ErrNotFound) {
			writeNotFound(w, "USER_NOT_FOUND", "user not found")
			return
		}
		writeServerError(w, r, h.log, err)
		return
	}

	rank, err := h.users.Rank(r.Context(), identity.FID)
	if err != nil {
		writeServerError(w, r, h.log, err)
		return
	}

	status, err := h.entitlements.SubscriptionStatus(r.Context(), identity.FID, h.now())
	if err != nil {
		writeServerError(w, r, h.log, err)
		return
	}

	resp := dto.MeResponse{
		User:         toUserResponse(user),
		Rank:         rank,
		IsSubscriber: status.Active,
	}
	if status.Subscription != nil {
		expires := status.Subscription.ExpiresAt
		resp.SubscriptionKind = string(status.Subscription.Kind)
		resp.SubscriptionExpiresAt = &expires
	}

	httperrors.Write(w, http.StatusOK, resp)
}
