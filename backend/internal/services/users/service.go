package users

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/Maliot100X/CastLaunchEarn/backend/internal/domain/model"
)

const (
	DefaultLeaderboardLimit = 50
	MaxLeaderboardLimit     = 200
)

var (
	ErrValidation = errors.New("validation error")
	ErrNotFound   = errors.New("user not found")
)

type Store interface {
	UpsertUser(ctx context.Context, profile model.UserProfile) (model.User, error)
	GetUser(ctx context.Context, fid int64) (model.User, error)
	ListTopUsers(ctx context.Context, limit int) ([]model.User, error)
	SetNotifications(ctx context.Context, fid int64, enabled bool) error
	RankOf(ctx context.Context, fid int64) (int, error)
}

// Cache holds short-lived copies of the ranked user list.
type Cache interface {
	GetJSON(ctx context.Context, key string, target any) (bool, error)
	SetJSON(ctx context.Context, key string, value any, ttl time.Duration) error
}

type Service struct {
	store    Store
	cache    Cache
	cacheTTL time.Duration
	now      func() time.Time
}

type Leaderboard struct {
	Entries     []model.LeaderboardEntry
	Period      string
	GeneratedAt time.Time
}

func NewService(store Store) *Service {
	return &Service{
		store: store,
		now:   time.Now,
	}
}

// AttachCache lets Leaderboard serve repeated reads from cache for ttl.
// Score changes become visible once the entry expires.
func (s *Service) AttachCache(cache Cache, ttl time.Duration) {
	s.cache = cache
	s.cacheTTL = ttl
}

// SignIn creates the user on first sight and refreshes profile fields after.
// Empty profile fields never overwrite stored ones.
func (s *Service) SignIn(ctx context.Context, profile model.UserProfile) (model.User, error) {
	if s.store == nil {
		return model.User{}, fmt.Errorf("user store is nil")
	}
	if profile.FID <= 0 {
		return model.User{}, ErrValidation
	}

	profile.Username = strings.TrimSpace(profile.Username)
	profile.DisplayName = strings.TrimSpace(profile.DisplayName)
	profile.PfpURL = strings.TrimSpace(profile.PfpURL)
	profile.WalletAddress = strings.ToLower(strings.TrimSpace(profile.WalletAddress))

	user, err := s.store.UpsertUser(ctx, profile)
	if err != nil {
		return model.User{}, fmt.Errorf("upsert user: %w", err)
	}
	return user, nil
}

func (s *Service) Get(ctx context.Context, fid int64) (model.User, error) {
	if s.store == nil {
		return model.User{}, fmt.Errorf("user store is nil")
	}
	if fid <= 0 {
		return model.User{}, ErrValidation
	}

	user, err := s.store.GetUser(ctx, fid)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return model.User{}, ErrNotFound
		}
		return model.User{}, fmt.Errorf("get user: %w", err)
	}
	return user, nil
}

// Leaderboard ranks users by score. The period is echoed back; scores are
// all-time counters.
func (s *Service) Leaderboard(ctx context.Context, period string, limit int) (Leaderboard, error) {
	if s.store == nil {
		return Leaderboard{}, fmt.Errorf("user store is nil")
	}

	period = strings.TrimSpace(period)
	if period == "" {
		period = "weekly"
	}
	if limit <= 0 {
		limit = DefaultLeaderboardLimit
	}
	if limit > MaxLeaderboardLimit {
		limit = MaxLeaderboardLimit
	}

	users, err := s.topUsers(ctx, limit)
	if err != nil {
		return Leaderboard{}, err
	}

	entries := make([]model.LeaderboardEntry, 0, len(users))
	for i, user := range users {
		entries = append(entries, model.LeaderboardEntry{Rank: i + 1, User: user})
	}

	return Leaderboard{
		Entries:     entries,
		Period:      period,
		GeneratedAt: s.now().UTC(),
	}, nil
}

func (s *Service) topUsers(ctx context.Context, limit int) ([]model.User, error) {
	key := "leaderboard:" + strconv.Itoa(limit)
	if s.cache != nil && s.cacheTTL > 0 {
		var cached []model.User
		if hit, err := s.cache.GetJSON(ctx, key, &cached); err == nil && hit {
			return cached, nil
		}
	}

	users, err := s.store.ListTopUsers(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("list top users: %w", err)
	}

	if s.cache != nil && s.cacheTTL > 0 {
		_ = s.cache.SetJSON(ctx, key, users, s.cacheTTL)
	}
	return users, nil
}

// Rank is the user's 1-based leaderboard position. Users tied on score share
// a rank.
func (s *Service) Rank(ctx context.Context, fid int64) (int, error) {
	if s.store == nil {
		return 0, fmt.Errorf("user store is nil")
	}
	if fid <= 0 {
		return 0, ErrValidation
	}

	rank, err := s.store.RankOf(ctx, fid)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return 0, ErrNotFound
		}
		return 0, fmt.Errorf("rank user: %w", err)
	}
	return rank, nil
}

func (s *Service) SetNotifications(ctx context.Context, fid int64, enabled bool) error {
	if s.store == nil {
		return fmt.Errorf("user store is nil")
	}
	if fid <= 0 {
		return ErrValidation
	}
	if err := s.store.SetNotifications(ctx, fid, enabled); err != nil {
		return fmt.Errorf("set notifications: %w", err)
	}
	return nil
}
