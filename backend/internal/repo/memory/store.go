package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/Maliot100X/CastLaunchEarn/backend/internal/domain/enums"
	"github.com/Maliot100X/CastLaunchEarn/backend/internal/domain/model"
	coinssvc "github.com/Maliot100X/CastLaunchEarn/backend/internal/services/coins"
	userssvc "github.com/Maliot100X/CastLaunchEarn/backend/internal/services/users"
)

// Store is a process-local ledger used for tests and single-node dev runs.
// A single mutex guards all tables, so every method is atomic.
type Store struct {
	mu sync.Mutex

	seq          int64
	entitlements []model.Entitlement
	users        map[int64]model.User
	coins        map[string]model.Coin
	coinAddrs    map[string]string
	now          func() time.Time
}

func NewStore() *Store {
	return &Store{
		users:     make(map[int64]model.User),
		coins:     make(map[string]model.Coin),
		coinAddrs: make(map[string]string),
		now:       time.Now,
	}
}

func (s *Store) InsertEntitlement(_ context.Context, rec model.Entitlement) (model.Entitlement, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if rec.PaymentRef != "" {
		for _, existing := range s.entitlements {
			if existing.PaymentRef == rec.PaymentRef {
				return existing, false, nil
			}
		}
	}

	s.seq++
	rec.Seq = s.seq
	s.entitlements = append(s.entitlements, rec)
	return rec, true, nil
}

func (s *Store) ListActiveEntitlements(_ context.Context, now time.Time, filter model.EntitlementFilter) ([]model.Entitlement, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]model.Entitlement, 0)
	for _, rec := range s.entitlements {
		if !rec.ActiveAt(now) {
			continue
		}
		if filter.Scope != "" && rec.Kind.Scope() != filter.Scope {
			continue
		}
		if filter.SubjectType != "" && rec.SubjectType != filter.SubjectType {
			continue
		}
		if filter.SubjectID != "" && rec.SubjectID != filter.SubjectID {
			continue
		}
		out = append(out, rec)
	}

	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].ExpiresAt.Equal(out[j].ExpiresAt) {
			return out[i].ExpiresAt.After(out[j].ExpiresAt)
		}
		return out[i].Seq < out[j].Seq
	})

	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

func (s *Store) CountActiveEntitlements(_ context.Context, now time.Time, scope enums.Scope) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var n int64
	for _, rec := range s.entitlements {
		if rec.ActiveAt(now) && rec.Kind.Scope() == scope {
			n++
		}
	}
	return n, nil
}

func (s *Store) FindEntitlementsByPaymentRef(_ context.Context, paymentRef string) ([]model.Entitlement, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]model.Entitlement, 0)
	for _, rec := range s.entitlements {
		if rec.PaymentRef == paymentRef {
			out = append(out, rec)
		}
	}
	return out, nil
}

// AllEntitlements returns every stored row in insertion order, expired included.
func (s *Store) AllEntitlements() []model.Entitlement {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]model.Entitlement, len(s.entitlements))
	copy(out, s.entitlements)
	return out
}

func (s *Store) UpsertUser(_ context.Context, profile model.UserProfile) (model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now().UTC()
	user, ok := s.users[profile.FID]
	if !ok {
		user = model.User{FID: profile.FID, CreatedAt: now}
	}
	if profile.Username != "" {
		user.Username = profile.Username
	}
	if profile.DisplayName != "" {
		user.DisplayName = profile.DisplayName
	}
	if profile.PfpURL != "" {
		user.PfpURL = profile.PfpURL
	}
	if profile.WalletAddress != "" {
		user.WalletAddress = profile.WalletAddress
	}
	user.UpdatedAt = now
	s.users[profile.FID] = user
	return user, nil
}

func (s *Store) GetUser(_ context.Context, fid int64) (model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[fid]
	if !ok {
		return model.User{}, userssvc.ErrNotFound
	}
	return user, nil
}

func (s *Store) ListTopUsers(_ context.Context, limit int) ([]model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]model.User, 0, len(s.users))
	for _, user := range s.users {
		out = append(out, user)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].FID < out[j].FID
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *Store) RankOf(_ context.Context, fid int64) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[fid]
	if !ok {
		return 0, userssvc.ErrNotFound
	}
	rank := 1
	for _, other := range s.users {
		if other.Score > user.Score {
			rank++
		}
	}
	return rank, nil
}

func (s *Store) SetNotifications(_ context.Context, fid int64, enabled bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now().UTC()
	user, ok := s.users[fid]
	if !ok {
		user = model.User{FID: fid, CreatedAt: now}
	}
	user.NotificationsEnabled = enabled
	user.UpdatedAt = now
	s.users[fid] = user
	return nil
}

// AdjustScore creates the user row on first credit, mirroring the SQL upsert.
func (s *Store) AdjustScore(_ context.Context, fid int64, delta int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now().UTC()
	user, ok := s.users[fid]
	if !ok {
		user = model.User{FID: fid, CreatedAt: now}
	}
	user.Score += delta
	user.UpdatedAt = now
	s.users[fid] = user
	return user.Score, nil
}

func (s *Store) CreateCoin(_ context.Context, coin model.Coin) (model.Coin, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	addr := strings.ToLower(coin.CoinAddress)
	if _, exists := s.coinAddrs[addr]; exists {
		return model.Coin{}, coinssvc.ErrAlreadyExist
	}
	if _, exists := s.coins[coin.ID]; exists {
		return model.Coin{}, coinssvc.ErrAlreadyExist
	}
	s.coins[coin.ID] = coin
	s.coinAddrs[addr] = coin.ID
	return coin, nil
}

func (s *Store) GetCoin(_ context.Context, id string) (model.Coin, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	coin, ok := s.coins[id]
	if !ok {
		return model.Coin{}, coinssvc.ErrNotFound
	}
	return coin, nil
}

func (s *Store) ListCoins(_ context.Context, filter model.CoinFilter) ([]model.Coin, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]model.Coin, 0, len(s.coins))
	for _, coin := range s.coins {
		if filter.CreatorFID > 0 && coin.CreatorFID != filter.CreatorFID {
			continue
		}
		out = append(out, coin)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

func (s *Store) GetCoinsByIDs(_ context.Context, ids []string) (map[string]model.Coin, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make(map[string]model.Coin, len(ids))
	for _, id := range ids {
		if coin, ok := s.coins[id]; ok {
			out[id] = coin
		}
	}
	return out, nil
}

func (s *Store) CountCoinsByCreator(_ context.Context, fid int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var n int64
	for _, coin := range s.coins {
		if coin.CreatorFID == fid {
			n++
		}
	}
	return n, nil
}
