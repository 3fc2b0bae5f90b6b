package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/Maliot100X/CastLaunchEarn/backend/internal/domain/enums"
	"github.com/Maliot100X/CastLaunchEarn/backend/internal/domain/model"
	userssvc "github.com/Maliot100X/CastLaunchEarn/backend/internal/services/users"
	"github.com/Maliot100X/CastLaunchEarn/backend/internal/transport/http/dto"
	httperrors "github.com/Maliot100X/CastLaunchEarn/backend/internal/transport/http/errors"
)

const appName = "CastLaunchEarn"

type WebhookHandler struct {
	users *userssvc.Service
	log   *zap.Logger
}

func NewWebhookHandler(users *userssvc.Service, log *zap.Logger) *WebhookHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &WebhookHandler{users: users, log: log}
}

func (h *WebhookHandler) Status(w http.ResponseWriter, _ *http.Request) {
	httperrors.Write(w, http.StatusOK, dto.WebhookStatus{Status: "ok", App: appName})
}

// Receive handles Mini App lifecycle events. Every well-formed event is
// acknowledged so the client does not retry; store failures are logged.
func (h *WebhookHandler) Receive(w http.ResponseWriter, r *http.Request) {
	var evt dto.WebhookEvent
	if err := decodeJSON(r, &evt); err != nil {
		writeBadRequest(w, "INVALID_REQUEST", "invalid request body")
		return
	}

	log := h.log.With(zap.String("event", evt.Event), zap.Int64("fid", evt.Data.FID))
	switch enums.WebhookEvent(evt.Event) {
	case enums.WebhookFrameAdded:
		if h.users != nil && evt.Data.FID > 0 {
			if _, err := h.users.SignIn(r.Context(), model.UserProfile{FID: evt.Data.FID}); err != nil {
				log.Error("webhook user upsert failed", zap.Error(err))
			}
		}
		log.Info("mini app added")
	case enums.WebhookFrameRemoved:
		log.Info("mini app removed")
	case enums.WebhookNotificationsEnabled, enums.WebhookNotificationsDisabled:
		enabled := enums.WebhookEvent(evt.Event) == enums.WebhookNotificationsEnabled
		if h.users != nil && evt.Data.FID > 0 {
			if err := h.users.SetNotifications(r.Context(), evt.Data.FID, enabled); err != nil {
				log.Error("webhook notification toggle failed", zap.Error(err))
			}
		}
		log.Info("notifications toggled", zap.Bool("enabled", enabled))
	default:
		log.Info("unhandled webhook event")
	}

	httperrors.Write(w, http.StatusOK, dto.WebhookAck{Success: true})
}
