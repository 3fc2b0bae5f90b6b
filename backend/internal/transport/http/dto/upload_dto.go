package dto

import "encoding/json"

type UploadRequest struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

type UploadResponse struct {
	URI string `json:"uri"`
}

type ImageUploadResponse struct {
	URL         string `json:"url"`
	Key         string `json:"key"`
	ContentType string `json:"content_type"`
	Size        int64  `json:"size"`
}
