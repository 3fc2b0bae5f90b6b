package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"

	authsvc "github.com/Maliot100X/CastLaunchEarn/backend/internal/services/auth"
)

// A session is one hash holding the fid, its expiry and the refresh token
// currently bound to it. Each refresh token points back at its session id.
const (
	sessionPrefix = "session:"
	refreshPrefix = "refresh:"

	fieldFID     = "fid"
	fieldExpires = "expires_at"
	fieldRefresh = "refresh"
)

type SessionRepo struct {
	client *goredis.Client
}

func NewSessionRepo(client *goredis.Client) *SessionRepo {
	return &SessionRepo{client: client}
}

func (r *SessionRepo) Create(ctx context.Context, session authsvc.SessionRecord, refreshToken string) error {
	if r.client == nil {
		return fmt.Errorf("redis client is nil")
	}
	if strings.TrimSpace(session.SID) == "" || strings.TrimSpace(refreshToken) == "" || session.FID <= 0 {
		return authsvc.ErrInvalidInput
	}

	ttl := ttlFor(session.ExpiresAt)
	_, err := r.client.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
		pipe.HSet(ctx, sessionKey(session.SID),
			fieldFID, session.FID,
			fieldExpires, session.ExpiresAt.Unix(),
			fieldRefresh, refreshToken,
		)
		pipe.Expire(ctx, sessionKey(session.SID), ttl)
		pipe.Set(ctx, refreshKey(refreshToken), session.SID, ttl)
		return nil
	})
	if err != nil {
		return fmt.Errorf("create session: %w", err)
	}
	return nil
}

func (r *SessionRepo) GetSession(ctx context.Context, sid string) (authsvc.SessionRecord, error) {
	if r.client == nil {
		return authsvc.SessionRecord{}, fmt.Errorf("redis client is nil")
	}
	session, _, err := loadSession(ctx, r.client, sid)
	return session, err
}

// GetByRefreshToken resolves a refresh token to its session. A token that
// was rotated away is unknown even if its pointer has not expired yet.
func (r *SessionRepo) GetByRefreshToken(ctx context.Context, refreshToken string) (authsvc.SessionRecord, error) {
	if r.client == nil {
		return authsvc.SessionRecord{}, fmt.Errorf("redis client is nil")
	}

	sid, err := r.client.Get(ctx, refreshKey(refreshToken)).Result()
	if errors.Is(err, goredis.Nil) {
		return authsvc.SessionRecord{}, authsvc.ErrRefreshNotFound
	}
	if err != nil {
		return authsvc.SessionRecord{}, fmt.Errorf("get refresh pointer: %w", err)
	}

	session, current, err := loadSession(ctx, r.client, sid)
	if errors.Is(err, authsvc.ErrSessionNotFound) || (err == nil && current != refreshToken) {
		return authsvc.SessionRecord{}, authsvc.ErrRefreshNotFound
	}
	return session, err
}

// RotateRefresh swaps the session's refresh token under WATCH, so two
// concurrent refreshes with the same token cannot both win.
func (r *SessionRepo) RotateRefresh(ctx context.Context, sid, oldRefreshToken, newRefreshToken string, expiresAt time.Time) error {
	if r.client == nil {
		return fmt.Errorf("redis client is nil")
	}
	if strings.TrimSpace(newRefreshToken) == "" {
		return authsvc.ErrInvalidInput
	}

	rotate := func(tx *goredis.Tx) error {
		owner, err := tx.Get(ctx, refreshKey(oldRefreshToken)).Result()
		if errors.Is(err, goredis.Nil) || (err == nil && sid != "" && owner != sid) {
			return authsvc.ErrRefreshNotFound
		}
		if err != nil {
			return fmt.Errorf("get refresh pointer: %w", err)
		}

		session, current, err := loadSession(ctx, tx, owner)
		if errors.Is(err, authsvc.ErrSessionNotFound) || (err == nil && current != oldRefreshToken) {
			return authsvc.ErrRefreshNotFound
		}
		if err != nil {
			return err
		}

		ttl := ttlFor(expiresAt)
		_, err = tx.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
			pipe.Del(ctx, refreshKey(oldRefreshToken))
			pipe.Set(ctx, refreshKey(newRefreshToken), owner, ttl)
			pipe.HSet(ctx, sessionKey(owner),
				fieldFID, session.FID,
				fieldExpires, expiresAt.Unix(),
				fieldRefresh, newRefreshToken,
			)
			pipe.Expire(ctx, sessionKey(owner), ttl)
			return nil
		})
		return err
	}

	err := r.client.Watch(ctx, rotate, refreshKey(oldRefreshToken))
	if errors.Is(err, goredis.TxFailedErr) {
		return authsvc.ErrRefreshNotFound
	}
	if err != nil && !errors.Is(err, authsvc.ErrRefreshNotFound) {
		return fmt.Errorf("rotate refresh token: %w", err)
	}
	return err
}

func (r *SessionRepo) DeleteSession(ctx context.Context, sid string) error {
	if r.client == nil {
		return fmt.Errorf("redis client is nil")
	}
	if strings.TrimSpace(sid) == "" {
		return nil
	}

	current, err := r.client.HGet(ctx, sessionKey(sid), fieldRefresh).Result()
	if err != nil && !errors.Is(err, goredis.Nil) {
		return fmt.Errorf("load session refresh token: %w", err)
	}

	keys := []string{sessionKey(sid)}
	if current != "" {
		keys = append(keys, refreshKey(current))
	}
	if err := r.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// loadSession reads a session hash and returns it with its bound refresh token.
func loadSession(ctx context.Context, c goredis.Cmdable, sid string) (authsvc.SessionRecord, string, error) {
	values, err := c.HGetAll(ctx, sessionKey(sid)).Result()
	if err != nil {
		return authsvc.SessionRecord{}, "", fmt.Errorf("get session: %w", err)
	}
	if len(values) == 0 {
		return authsvc.SessionRecord{}, "", authsvc.ErrSessionNotFound
	}

	fid, err := strconv.ParseInt(values[fieldFID], 10, 64)
	if err != nil || fid <= 0 {
		return authsvc.SessionRecord{}, "", authsvc.ErrUnauthorized
	}
	expiresUnix, err := strconv.ParseInt(values[fieldExpires], 10, 64)
	if err != nil {
		return authsvc.SessionRecord{}, "", authsvc.ErrUnauthorized
	}

	return authsvc.SessionRecord{
		SID:       sid,
		FID:       fid,
		ExpiresAt: time.Unix(expiresUnix, 0).UTC(),
	}, values[fieldRefresh], nil
}

func ttlFor(expiresAt time.Time) time.Duration {
	ttl := time.Until(expiresAt)
	if ttl <= 0 {
		return time.Second
	}
	return ttl
}

func sessionKey(sid string) string {
	return sessionPrefix + sid
}

func refreshKey(token string) string {
	return refreshPrefix + token
}
