package auth

import (
	"errors"
	"time"

	"github.com/Maliot100X/CastLaunchEarn/backend/internal/domain/model"
)

var (
	ErrInvalidInput    = errors.New("invalid input")
	ErrUnauthorized    = errors.New("unauthorized")
	ErrSessionNotFound = errors.New("session not found")
	ErrRefreshNotFound = errors.New("refresh token not found")
)

type SessionRecord struct {
	SID       string
	FID       int64
	ExpiresAt time.Time
}

type AccessClaims struct {
	FID       int64
	SID       string
	ExpiresAt time.Time
}

type AuthResult struct {
	AccessToken   string
	RefreshToken  string
	AccessExpires time.Time
	User          model.User
	NewActiveDay  bool
}
