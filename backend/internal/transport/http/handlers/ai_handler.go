package handlers

import (
	"net/http"
	"strings"

	"github.com/Maliot100X/CastLaunchEarn/backend/internal/domain/enums"
	aisvc "github.com/Maliot100X/CastLaunchEarn/backend/internal/services/ai"
	"github.com/Maliot100X/CastLaunchEarn/backend/internal/transport/http/dto"
	httperrors "github.com/Maliot100X/CastLaunchEarn/backend/internal/transport/http/errors"
)

type AIHandler struct {
	service *aisvc.Service
}

func NewAIHandler(service *aisvc.Service) *AIHandler {
	return &AIHandler{service: service}
}

// Handle never surfaces provider failures: generate falls back to a static
// idea and chat to an apology.
func (h *AIHandler) Handle(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		writeInternal(w, "AI_SERVICE_UNAVAILABLE", "ai service is unavailable")
		return
	}

	var req dto.AIRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "INVALID_REQUEST", "invalid request body")
		return
	}

	switch enums.AIAction(strings.TrimSpace(req.Action)) {
	case enums.AIActionGenerate:
		idea := h.service.GenerateIdea(r.Context())
		httperrors.Write(w, http.StatusOK, dto.AIIdeaResponse{Idea: idea})
	case enums.AIActionChat:
		if strings.TrimSpace(req.Message) == "" {
			writeBadRequest(w, "VALIDATION_ERROR", "Message required")
			return
		}
		reply := h.service.Chat(r.Context(), req.Message, req.Context)
		httperrors.Write(w, http.StatusOK, dto.AIChatResponse{Response: reply})
	default:
		writeBadRequest(w, "VALIDATION_ERROR", "Invalid action")
	}
}
