package handlers

import (
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/Maliot100X/CastLaunchEarn/backend/internal/domain/enums"
	"github.com/Maliot100X/CastLaunchEarn/backend/internal/domain/rules"
	authsvc "github.com/Maliot100X/CastLaunchEarn/backend/internal/services/auth"
	coinssvc "github.com/Maliot100X/CastLaunchEarn/backend/internal/services/coins"
	ratesvc "github.com/Maliot100X/CastLaunchEarn/backend/internal/services/rate"
	scoringsvc "github.com/Maliot100X/CastLaunchEarn/backend/internal/services/scoring"
	userssvc "github.com/Maliot100X/CastLaunchEarn/backend/internal/services/users"
	"github.com/Maliot100X/CastLaunchEarn/backend/internal/transport/http/dto"
	httperrors "github.com/Maliot100X/CastLaunchEarn/backend/internal/transport/http/errors"
)

type LeaderboardHandler struct {
	users      *userssvc.Service
	scoring    *scoringsvc.Service
	coins      *coinssvc.Service
	shareLimit *ratesvc.Limiter
	log        *zap.Logger
}

func NewLeaderboardHandler(
	users *userssvc.Service,
	scoring *scoringsvc.Service,
	coins *coinssvc.Service,
	shareLimit *ratesvc.Limiter,
	log *zap.Logger,
) *LeaderboardHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &LeaderboardHandler{
		users:      users,
		scoring:    scoring,
		coins:      coins,
		shareLimit: shareLimit,
		log:        log,
	}
}

func (h *LeaderboardHandler) List(w http.ResponseWriter, r *http.Request) {
	if h.users == nil {
		writeInternal(w, "LEADERBOARD_UNAVAILABLE", "leaderboard is unavailable")
		return
	}
	limit, ok := queryInt(r, "limit")
	if !ok {
		writeBadRequest(w, "VALIDATION_ERROR", "limit must be a non-negative integer")
		return
	}

	board, err := h.users.Leaderboard(r.Context(), r.URL.Query().Get("period"), int(limit))
	if err != nil {
		writeServerError(w, r, h.log, err)
		return
	}

	resp := dto.LeaderboardResponse{
		Leaderboard: make([]dto.LeaderboardEntryResponse, 0, len(board.Entries)),
		Period:      board.Period,
		Timestamp:   board.GeneratedAt,
	}
	for _, e := range board.Entries {
		resp.Leaderboard = append(resp.Leaderboard, dto.LeaderboardEntryResponse{
			Rank:         e.Rank,
			UserResponse: toUserResponse(e.User),
		})
	}
	httperrors.Write(w, http.StatusOK, resp)
}

// Score applies a trusted score change. Either a raw delta or a scoring
// event with a quantity is accepted.
func (h *LeaderboardHandler) Score(w http.ResponseWriter, r *http.Request) {
	if h.scoring == nil {
		writeInternal(w, "SCORING_UNAVAILABLE", "scoring is unavailable")
		return
	}

	var req dto.ScoreRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "INVALID_REQUEST", "invalid request body")
		return
	}
	if req.FID <= 0 {
		writeBadRequest(w, "VALIDATION_ERROR", "fid is required")
		return
	}

	var (
		res scoringsvc.AwardResult
		err error
	)
	event := enums.ScoreEvent(strings.TrimSpace(req.Event))
	switch {
	case event != "":
		quantity := req.Quantity
		if quantity == 0 {
			quantity = 1
		}
		res, err = h.scoring.Award(r.Context(), req.FID, event, quantity)
	case req.ScoreDelta != 0:
		res.Delta = req.ScoreDelta
		res.Score, err = h.scoring.Adjust(r.Context(), req.FID, req.ScoreDelta)
	default:
		writeBadRequest(w, "VALIDATION_ERROR", "score_delta or event is required")
		return
	}
	if err != nil {
		if errors.Is(err, scoringsvc.ErrValidation) {
			writeBadRequest(w, "VALIDATION_ERROR", "request validation failed")
			return
		}
		writeServerError(w, r, h.log, err)
		return
	}

	reason := strings.TrimSpace(req.Reason)
	if reason == "" {
		reason = string(event)
	}
	h.log.Info("score updated",
		zap.Int64("fid", req.FID),
		zap.Int64("delta", res.Delta),
		zap.String("reason", reason),
	)
	httperrors.Write(w, http.StatusOK, dto.ScoreResponse{
		Success: true,
		Reason:  reason,
		Delta:   res.Delta,
		Score:   res.Score,
	})
}

// Share credits the caller for sharing their stats and returns the cast text.
func (h *LeaderboardHandler) Share(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}
	if h.users == nil || h.scoring == nil {
		writeInternal(w, "SCORING_UNAVAILABLE", "scoring is unavailable")
		return
	}

	if h.shareLimit != nil {
		retryAfter, allowed, err := h.shareLimit.Allow(r.Context(), identity.FID)
		if err != nil {
			h.log.Warn("share rate limiter failed", zap.Int64("fid", identity.FID), zap.Error(err))
		} else if !allowed {
			w.Header().Set("Retry-After", itoa(retryAfter))
			httperrors.Write(w, http.StatusTooManyRequests, httperrors.RateLimitError{
				Code:          "RATE_LIMITED",
				Message:       "too many shares",
				RetryAfterSec: retryAfter,
			})
			return
		}
	}

	award, err := h.scoring.Award(r.Context(), identity.FID, enums.ScoreEventShare, 1)
	if err != nil {
		writeServerError(w, r, h.log, err)
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

	var created int64
	if h.coins != nil {
		created, err = h.coins.CountByCreator(r.Context(), identity.FID)
		if err != nil {
			h.log.Warn("count coins for share failed", zap.Int64("fid", identity.FID), zap.Error(err))
		}
	}

	name := user.Username
	if name == "" {
		name = user.DisplayName
	}
	httperrors.Write(w, http.StatusOK, dto.ShareResponse{
		Delta: award.Delta,
		Score: award.Score,
		Rank:  rank,
		Text:  rules.StatsSummary(name, award.Score, rank, created, 0),
	})
}
