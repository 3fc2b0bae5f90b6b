package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/Maliot100X/CastLaunchEarn/backend/internal/domain/model"
	authsvc "github.com/Maliot100X/CastLaunchEarn/backend/internal/services/auth"
	coinssvc "github.com/Maliot100X/CastLaunchEarn/backend/internal/services/coins"
	userssvc "github.com/Maliot100X/CastLaunchEarn/backend/internal/services/users"
	"github.com/Maliot100X/CastLaunchEarn/backend/internal/transport/http/dto"
	httperrors "github.com/Maliot100X/CastLaunchEarn/backend/internal/transport/http/errors"
)

type CoinsHandler struct {
	coins *coinssvc.Service
	users *userssvc.Service
	log   *zap.Logger
}

func NewCoinsHandler(coins *coinssvc.Service, users *userssvc.Service, log *zap.Logger) *CoinsHandler {
	return &CoinsHandler{coins: coins, users: users, log: log}
}

func (h *CoinsHandler) List(w http.ResponseWriter, r *http.Request) {
	if h.coins == nil {
		writeInternal(w, "COINS_SERVICE_UNAVAILABLE", "coins service is unavailable")
		return
	}
	limit, ok := queryInt(r, "limit")
	if !ok {
		writeBadRequest(w, "VALIDATION_ERROR", "limit must be a non-negative integer")
		return
	}
	creatorFID, ok := queryInt(r, "creator_fid")
	if !ok {
		writeBadRequest(w, "VALIDATION_ERROR", "creator_fid must be a non-negative integer")
		return
	}

	items, err := h.coins.List(r.Context(), model.CoinFilter{CreatorFID: creatorFID, Limit: int(limit)})
	if err != nil {
		handleCoinsError(w, r, h.log, err)
		return
	}

	resp := dto.CoinsResponse{Coins: make([]dto.CoinResponse, 0, len(items))}
	for _, c := range items {
		resp.Coins = append(resp.Coins, toCoinResponse(c))
	}
	httperrors.Write(w, http.StatusOK, resp)
}

func (h *CoinsHandler) Get(w http.ResponseWriter, r *http.Request) {
	if h.coins == nil {
		writeInternal(w, "COINS_SERVICE_UNAVAILABLE", "coins service is unavailable")
		return
	}

	coin, err := h.coins.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handleCoinsError(w, r, h.log, err)
		return
	}
	httperrors.Write(w, http.StatusOK, toCoinResponse(coin))
}

func (h *CoinsHandler) Create(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}
	if h.coins == nil {
		writeInternal(w, "COINS_SERVICE_UNAVAILABLE", "coins service is unavailable")
		return
	}

	var req dto.CreateCoinRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "INVALID_REQUEST", "invalid request body")
		return
	}

	res, err := h.coins.Create(r.Context(), identity.FID, coinssvc.CreateInput{
		CoinAddress: req.CoinAddress,
		Name:        req.Name,
		Symbol:      req.Symbol,
		Description: req.Description,
		ImageURL:    req.ImageURL,
		MetadataURI: req.MetadataURI,
		ChainID:     req.ChainID,
		TxHash:      req.TxHash,
	})
	if err != nil {
		handleCoinsError(w, r, h.log, err)
		return
	}

	httperrors.Write(w, http.StatusCreated, dto.CreateCoinResponse{
		Coin:         toCoinResponse(res.Coin),
		ScoreAwarded: res.ScoreAwarded,
	})
}

// Prepare pins the token metadata. The payout recipient defaults to the
// caller's verified wallet.
func (h *CoinsHandler) Prepare(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}
	if h.coins == nil {
		writeInternal(w, "COINS_SERVICE_UNAVAILABLE", "coins service is unavailable")
		return
	}

	var req dto.PrepareCoinRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "INVALID_REQUEST", "invalid request body")
		return
	}

	recipient := strings.TrimSpace(req.PayoutRecipient)
	if recipient == "" && h.users != nil {
		user, err := h.users.Get(r.Context(), identity.FID)
		if err != nil && !errors.Is(err, userssvc.ErrNotFound) {
			writeServerError(w, r, h.log, err)
			return
		}
		recipient = user.WalletAddress
	}

	params, err := h.coins.PrepareLaunch(r.Context(), coinssvc.PrepareInput{
		Name:            req.Name,
		Symbol:          req.Symbol,
		Description:     req.Description,
		ImageURL:        req.ImageURL,
		ChainID:         req.ChainID,
		PayoutRecipient: recipient,
	})
	if err != nil {
		handleCoinsError(w, r, h.log, err)
		return
	}

	httperrors.Write(w, http.StatusOK, dto.PrepareCoinResponse{
		Name:             params.Name,
		Symbol:           params.Symbol,
		MetadataURI:      params.MetadataURI,
		Metadata:         params.Metadata,
		PayoutRecipient:  params.PayoutRecipient,
		PlatformReferrer: params.PlatformReferrer,
		ChainID:          params.ChainID,
	})
}

func handleCoinsError(w http.ResponseWriter, r *http.Request, log *zap.Logger, err error) {
	switch {
	case errors.Is(err, coinssvc.ErrValidation):
		writeBadRequest(w, "VALIDATION_ERROR", "request validation failed")
	case errors.Is(err, coinssvc.ErrNotFound):
		writeNotFound(w, "COIN_NOT_FOUND", "coin not found")
	case errors.Is(err, coinssvc.ErrAlreadyExist):
		writeConflict(w, "COIN_ALREADY_EXISTS", "coin already registered")
	case errors.Is(err, coinssvc.ErrPinning):
		httperrors.Write(w, http.StatusBadGateway, httperrors.APIError{
			Code:    "PINNING_FAILED",
			Message: "failed to pin metadata",
		})
	default:
		writeServerError(w, r, log, err)
	}
}
