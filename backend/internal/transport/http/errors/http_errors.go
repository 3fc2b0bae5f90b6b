package errors

import (
	"encoding/json"
	"net/http"
)

// APIError is the error body every endpoint returns.
type APIError struct {
	Message string `json:"error"`
	Code    string `json:"code"`
}

type RateLimitError struct {
	Message       string `json:"error"`
	Code          string `json:"code"`
	RetryAfterSec int64  `json:"retry_after_sec"`
}

func Write(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
