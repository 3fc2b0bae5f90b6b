package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/Maliot100X/CastLaunchEarn/backend/internal/domain/model"
)

const (
	MinRefreshTTL = 7 * 24 * time.Hour
	MaxRefreshTTL = 90 * 24 * time.Hour
)

type SessionStore interface {
	Create(ctx context.Context, session SessionRecord, refreshToken string) error
	GetSession(ctx context.Context, sid string) (SessionRecord, error)
	GetByRefreshToken(ctx context.Context, refreshToken string) (SessionRecord, error)
	RotateRefresh(ctx context.Context, sid, oldRefreshToken, newRefreshToken string, expiresAt time.Time) error
	DeleteSession(ctx context.Context, sid string) error
}

// IdentityVerifier exchanges a provider credential for a verified profile.
type IdentityVerifier interface {
	Verify(ctx context.Context, token string) (model.UserProfile, error)
}

type UserRegistrar interface {
	SignIn(ctx context.Context, profile model.UserProfile) (model.User, error)
}

type ActivityRecorder interface {
	RecordActiveDay(ctx context.Context, fid int64) (bool, error)
}

type Dependencies struct {
	JWT      *JWTManager
	Sessions SessionStore
	Identity IdentityVerifier
	Users    UserRegistrar
	Activity ActivityRecorder
	Logger   *zap.Logger
}

type Service struct {
	jwt        *JWTManager
	sessions   SessionStore
	identity   IdentityVerifier
	users      UserRegistrar
	activity   ActivityRecorder
	log        *zap.Logger
	refreshTTL time.Duration
	now        func() time.Time
}

func NewService(deps Dependencies, refreshTTL time.Duration) *Service {
	if refreshTTL < MinRefreshTTL {
		refreshTTL = MinRefreshTTL
	}
	if refreshTTL > MaxRefreshTTL {
		refreshTTL = MaxRefreshTTL
	}
	log := deps.Logger
	if log == nil {
		log = zap.NewNop()
	}

	return &Service{
		jwt:        deps.JWT,
		sessions:   deps.Sessions,
		identity:   deps.Identity,
		users:      deps.Users,
		activity:   deps.Activity,
		log:        log,
		refreshTTL: refreshTTL,
		now:        time.Now,
	}
}

// LoginFarcaster verifies a Quick Auth token, upserts the user and opens a
// session. Display fields missing from the token are taken from hint, which
// comes from the client SDK context and is never trusted for the fid.
func (s *Service) LoginFarcaster(ctx context.Context, token string, hint model.UserProfile) (AuthResult, error) {
	if strings.TrimSpace(token) == "" {
		return AuthResult{}, ErrInvalidInput
	}
	if s.identity == nil || s.users == nil {
		return AuthResult{}, fmt.Errorf("auth dependencies are not configured")
	}

	profile, err := s.identity.Verify(ctx, token)
	if err != nil {
		if errors.Is(err, ErrUnauthorized) {
			return AuthResult{}, ErrUnauthorized
		}
		return AuthResult{}, fmt.Errorf("verify identity token: %w", err)
	}
	if profile.Username == "" {
		profile.Username = hint.Username
	}
	if profile.DisplayName == "" {
		profile.DisplayName = hint.DisplayName
	}
	if profile.PfpURL == "" {
		profile.PfpURL = hint.PfpURL
	}
	if profile.WalletAddress == "" {
		profile.WalletAddress = hint.WalletAddress
	}

	user, err := s.users.SignIn(ctx, profile)
	if err != nil {
		return AuthResult{}, fmt.Errorf("sign in user: %w", err)
	}

	newDay := false
	if s.activity != nil {
		newDay, err = s.activity.RecordActiveDay(ctx, user.FID)
		if err != nil {
			s.log.Warn("record active day failed", zap.Int64("fid", user.FID), zap.Error(err))
			newDay = false
		}
		if newDay {
			user.Score++
		}
	}

	res, err := s.issueForUser(ctx, user.FID)
	if err != nil {
		return AuthResult{}, err
	}
	res.User = user
	res.NewActiveDay = newDay
	return res, nil
}

func (s *Service) Refresh(ctx context.Context, refreshToken string) (AuthResult, error) {
	if strings.TrimSpace(refreshToken) == "" {
		return AuthResult{}, ErrInvalidInput
	}

	session, err := s.sessions.GetByRefreshToken(ctx, refreshToken)
	if err != nil {
		if errors.Is(err, ErrRefreshNotFound) {
			return AuthResult{}, ErrUnauthorized
		}
		return AuthResult{}, fmt.Errorf("get refresh token session: %w", err)
	}
	if s.now().After(session.ExpiresAt) {
		return AuthResult{}, ErrUnauthorized
	}

	newRefreshToken, err := newOpaqueToken(32)
	if err != nil {
		return AuthResult{}, fmt.Errorf("generate refresh token: %w", err)
	}

	newExpiresAt := s.now().Add(s.refreshTTL)
	if err := s.sessions.RotateRefresh(ctx, session.SID, refreshToken, newRefreshToken, newExpiresAt); err != nil {
		if errors.Is(err, ErrRefreshNotFound) {
			return AuthResult{}, ErrUnauthorized
		}
		return AuthResult{}, fmt.Errorf("rotate refresh token: %w", err)
	}

	accessToken, accessExpires, err := s.jwt.GenerateAccessToken(session.FID, session.SID)
	if err != nil {
		return AuthResult{}, fmt.Errorf("generate access token: %w", err)
	}

	return AuthResult{
		AccessToken:   accessToken,
		RefreshToken:  newRefreshToken,
		AccessExpires: accessExpires,
		User:          model.User{FID: session.FID},
	}, nil
}

func (s *Service) Logout(ctx context.Context, sid string) error {
	if strings.TrimSpace(sid) == "" {
		return ErrInvalidInput
	}
	if err := s.sessions.DeleteSession(ctx, sid); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

func (s *Service) ValidateAccessToken(ctx context.Context, accessToken string) (AccessClaims, error) {
	claims, err := s.jwt.ParseAccessToken(accessToken)
	if err != nil {
		return AccessClaims{}, ErrUnauthorized
	}

	session, err := s.sessions.GetSession(ctx, claims.SID)
	if err != nil {
		if errors.Is(err, ErrSessionNotFound) {
			return AccessClaims{}, ErrUnauthorized
		}
		return AccessClaims{}, fmt.Errorf("get session: %w", err)
	}
	if session.FID != claims.FID || s.now().After(session.ExpiresAt) {
		return AccessClaims{}, ErrUnauthorized
	}

	return claims, nil
}

func (s *Service) issueForUser(ctx context.Context, fid int64) (AuthResult, error) {
	sessionID, err := newOpaqueToken(20)
	if err != nil {
		return AuthResult{}, fmt.Errorf("generate session id: %w", err)
	}
	refreshToken, err := newOpaqueToken(32)
	if err != nil {
		return AuthResult{}, fmt.Errorf("generate refresh token: %w", err)
	}

	session := SessionRecord{
		SID:       sessionID,
		FID:       fid,
		ExpiresAt: s.now().Add(s.refreshTTL),
	}
	if err := s.sessions.Create(ctx, session, refreshToken); err != nil {
		return AuthResult{}, fmt.Errorf("create session: %w", err)
	}

	accessToken, accessExpires, err := s.jwt.GenerateAccessToken(fid, sessionID)
	if err != nil {
		return AuthResult{}, fmt.Errorf("generate access token: %w", err)
	}

	return AuthResult{
		AccessToken:   accessToken,
		RefreshToken:  refreshToken,
		AccessExpires: accessExpires,
	}, nil
}
