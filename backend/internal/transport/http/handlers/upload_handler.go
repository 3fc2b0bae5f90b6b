package handlers

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	authsvc "github.com/Maliot100X/CastLaunchEarn/backend/internal/services/auth"
	mediasvc "github.com/Maliot100X/CastLaunchEarn/backend/internal/services/media"
	"github.com/Maliot100X/CastLaunchEarn/backend/internal/transport/http/dto"
	httperrors "github.com/Maliot100X/CastLaunchEarn/backend/internal/transport/http/errors"
)

const (
	uploadTypeMetadata = "metadata"

	maxImageUploadSize = mediasvc.DefaultMaxImageSize + 1<<20
	maxMetadataSize    = 256 << 10
)

type UploadHandler struct {
	service *mediasvc.Service
	log     *zap.Logger
}

func NewUploadHandler(service *mediasvc.Service, log *zap.Logger) *UploadHandler {
	return &UploadHandler{service: service, log: log}
}

// Metadata pins a token metadata document and returns its ipfs:// URI.
func (h *UploadHandler) Metadata(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		writeInternal(w, "MEDIA_SERVICE_UNAVAILABLE", "media service is unavailable")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxMetadataSize)
	var req dto.UploadRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "INVALID_REQUEST", "invalid request body")
		return
	}
	if req.Type != uploadTypeMetadata {
		writeBadRequest(w, "VALIDATION_ERROR", "Invalid upload type")
		return
	}

	uri, err := h.service.PinMetadata(r.Context(), req.Data)
	if err != nil {
		handleMediaError(w, r, h.log, err)
		return
	}
	httperrors.Write(w, http.StatusOK, dto.UploadResponse{URI: uri})
}

func (h *UploadHandler) Image(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}
	if h.service == nil {
		writeInternal(w, "MEDIA_SERVICE_UNAVAILABLE", "media service is unavailable")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxImageUploadSize)
	if err := r.ParseMultipartForm(maxImageUploadSize); err != nil {
		writeBadRequest(w, "VALIDATION_ERROR", "invalid multipart form")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeBadRequest(w, "VALIDATION_ERROR", "file is required")
		return
	}
	defer file.Close()

	if header == nil || header.Size <= 0 {
		writeBadRequest(w, "VALIDATION_ERROR", "file is empty")
		return
	}

	img, err := h.service.UploadImage(r.Context(), identity.FID, file, header.Size)
	if err != nil {
		handleMediaError(w, r, h.log, err)
		return
	}

	httperrors.Write(w, http.StatusOK, dto.ImageUploadResponse{
		URL:         img.URL,
		Key:         img.Key,
		ContentType: img.ContentType,
		Size:        img.Size,
	})
}

func handleMediaError(w http.ResponseWriter, r *http.Request, log *zap.Logger, err error) {
	switch {
	case errors.Is(err, mediasvc.ErrValidation):
		writeBadRequest(w, "VALIDATION_ERROR", "request validation failed")
	case errors.Is(err, mediasvc.ErrUnsupportedImage):
		writeBadRequest(w, "UNSUPPORTED_IMAGE", "image must be png, jpeg, gif or webp")
	case errors.Is(err, mediasvc.ErrImageTooLarge):
		httperrors.Write(w, http.StatusRequestEntityTooLarge, httperrors.APIError{
			Code:    "IMAGE_TOO_LARGE",
			Message: "image is too large",
		})
	case errors.Is(err, mediasvc.ErrNotConfigured):
		httperrors.Write(w, http.StatusServiceUnavailable, httperrors.APIError{
			Code:    "STORAGE_NOT_CONFIGURED",
			Message: "upload storage is not configured",
		})
	default:
		logRequestError(r, log, "upload failed", err)
		httperrors.Write(w, http.StatusBadGateway, httperrors.APIError{
			Code:    "UPLOAD_FAILED",
			Message: "upload failed",
		})
	}
}
