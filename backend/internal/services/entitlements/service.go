package entitlements

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Maliot100X/CastLaunchEarn/backend/internal/domain/enums"
	"github.com/Maliot100X/CastLaunchEarn/backend/internal/domain/model"
	"github.com/Maliot100X/CastLaunchEarn/backend/internal/domain/rules"
	"github.com/Maliot100X/CastLaunchEarn/backend/internal/infra/metrics"
)

const (
	DefaultListLimit = 50
	MaxListLimit     = 200
)

var (
	ErrValidation    = errors.New("validation error")
	ErrNoActiveBoost = errors.New("no active boost")
	// ErrPaymentRefConflict means the reference already paid for a different
	// subject or kind.
	ErrPaymentRefConflict = errors.New("payment reference bound to another grant")
)

// Store is the ledger. Inserts are append-only and a payment reference is
// stored at most once: inserting a known reference must return the stored row
// with created=false, whatever subject it belongs to.
type Store interface {
	InsertEntitlement(ctx context.Context, rec model.Entitlement) (model.Entitlement, bool, error)
	ListActiveEntitlements(ctx context.Context, now time.Time, filter model.EntitlementFilter) ([]model.Entitlement, error)
	FindEntitlementsByPaymentRef(ctx context.Context, paymentRef string) ([]model.Entitlement, error)
}

type CoinLookup interface {
	GetCoinsByIDs(ctx context.Context, ids []string) (map[string]model.Coin, error)
}

type Service struct {
	store Store
	coins CoinLookup
	now   func() time.Time
}

type GrantInput struct {
	SubjectType    enums.SubjectType
	SubjectID      string
	Kind           enums.EntitlementKind
	PaymentRef     string
	PricePaidCents int64
}

type GrantResult struct {
	Entitlement model.Entitlement
	Created     bool
}

type SubscriptionStatus struct {
	Active       bool
	Subscription *model.Entitlement
}

func NewService(store Store, coins CoinLookup) *Service {
	return &Service{
		store: store,
		coins: coins,
		now:   time.Now,
	}
}

// Grant writes a new time-boxed entitlement starting now. It never touches
// other rows; a retry with the same payment reference returns the original,
// and a reference already spent on another subject or kind is refused.
func (s *Service) Grant(ctx context.Context, in GrantInput) (GrantResult, error) {
	if s.store == nil {
		return GrantResult{}, fmt.Errorf("entitlement store is nil")
	}

	in.SubjectID = strings.TrimSpace(in.SubjectID)
	in.PaymentRef = NormalizePaymentRef(in.PaymentRef)
	if !in.Kind.Valid() || in.SubjectID == "" || in.SubjectType != in.Kind.SubjectType() {
		return GrantResult{}, ErrValidation
	}

	pkg, ok := rules.Lookup(in.Kind)
	if !ok {
		return GrantResult{}, ErrValidation
	}
	if in.PricePaidCents < 0 {
		return GrantResult{}, ErrValidation
	}
	if in.PricePaidCents == 0 {
		in.PricePaidCents = pkg.PriceCents
	}

	startedAt := s.now().UTC()
	rec := model.Entitlement{
		ID:             uuid.NewString(),
		SubjectType:    in.SubjectType,
		SubjectID:      in.SubjectID,
		Kind:           in.Kind,
		PricePaidCents: in.PricePaidCents,
		StartedAt:      startedAt,
		ExpiresAt:      startedAt.Add(pkg.Duration),
		PaymentRef:     in.PaymentRef,
	}

	stored, created, err := s.store.InsertEntitlement(ctx, rec)
	if err != nil {
		metrics.RecordEntitlementGrant(string(in.Kind), "error")
		return GrantResult{}, fmt.Errorf("insert entitlement: %w", err)
	}

	outcome := "created"
	if !created {
		if stored.SubjectType != in.SubjectType || stored.SubjectID != in.SubjectID || stored.Kind != in.Kind {
			metrics.RecordEntitlementGrant(string(in.Kind), "conflict")
			return GrantResult{}, ErrPaymentRefConflict
		}
		outcome = "duplicate"
	}
	metrics.RecordEntitlementGrant(string(in.Kind), outcome)

	return GrantResult{Entitlement: stored, Created: created}, nil
}

// ListActive returns entitlements with expires_at strictly after now, latest
// expiry first and earliest insertion first among equal expiries.
func (s *Service) ListActive(ctx context.Context, now time.Time, filter model.EntitlementFilter) ([]model.Entitlement, error) {
	if s.store == nil {
		return nil, fmt.Errorf("entitlement store is nil")
	}
	if now.IsZero() {
		now = s.now()
	}
	if filter.SubjectType != "" && !filter.SubjectType.Valid() {
		return nil, ErrValidation
	}
	filter.Limit = NormalizeLimit(filter.Limit)

	items, err := s.store.ListActiveEntitlements(ctx, now.UTC(), filter)
	if err != nil {
		return nil, fmt.Errorf("list active entitlements: %w", err)
	}
	return items, nil
}

// ActiveBoosts lists active boosts together with the coins they feature.
func (s *Service) ActiveBoosts(ctx context.Context, now time.Time, limit int) ([]model.Boost, error) {
	items, err := s.ListActive(ctx, now, model.EntitlementFilter{
		Scope: enums.ScopeBoost,
		Limit: limit,
	})
	if err != nil {
		return nil, err
	}

	coins := map[string]model.Coin{}
	if s.coins != nil && len(items) > 0 {
		ids := make([]string, 0, len(items))
		for _, item := range items {
			ids = append(ids, item.SubjectID)
		}
		coins, err = s.coins.GetCoinsByIDs(ctx, ids)
		if err != nil {
			return nil, fmt.Errorf("load boosted coins: %w", err)
		}
	}

	out := make([]model.Boost, 0, len(items))
	for _, item := range items {
		boost := model.Boost{Entitlement: item}
		if coin, ok := coins[item.SubjectID]; ok {
			c := coin
			boost.Coin = &c
		}
		out = append(out, boost)
	}
	return out, nil
}

// CurrentKing is the first active boost in listing order.
func (s *Service) CurrentKing(ctx context.Context, now time.Time) (model.Boost, error) {
	boosts, err := s.ActiveBoosts(ctx, now, 1)
	if err != nil {
		return model.Boost{}, err
	}
	if len(boosts) == 0 {
		return model.Boost{}, ErrNoActiveBoost
	}
	return boosts[0], nil
}

// SubscriptionStatus derives subscriber state from the ledger on every call.
func (s *Service) SubscriptionStatus(ctx context.Context, fid int64, now time.Time) (SubscriptionStatus, error) {
	if fid <= 0 {
		return SubscriptionStatus{}, ErrValidation
	}

	items, err := s.ListActive(ctx, now, model.EntitlementFilter{
		Scope:       enums.ScopeSubscription,
		SubjectType: enums.SubjectUser,
		SubjectID:   strconv.FormatInt(fid, 10),
		Limit:       1,
	})
	if err != nil {
		return SubscriptionStatus{}, err
	}
	if len(items) == 0 {
		return SubscriptionStatus{}, nil
	}

	sub := items[0]
	return SubscriptionStatus{Active: true, Subscription: &sub}, nil
}

func (s *Service) IsSubscriber(ctx context.Context, fid int64, now time.Time) (bool, error) {
	status, err := s.SubscriptionStatus(ctx, fid, now)
	if err != nil {
		return false, err
	}
	return status.Active, nil
}

// FindByPaymentReference is the reconciliation read for a confirmed payment.
func (s *Service) FindByPaymentReference(ctx context.Context, paymentRef string) ([]model.Entitlement, error) {
	if s.store == nil {
		return nil, fmt.Errorf("entitlement store is nil")
	}
	paymentRef = NormalizePaymentRef(paymentRef)
	if paymentRef == "" {
		return nil, ErrValidation
	}

	items, err := s.store.FindEntitlementsByPaymentRef(ctx, paymentRef)
	if err != nil {
		return nil, fmt.Errorf("find entitlements by payment reference: %w", err)
	}
	return items, nil
}

func NormalizePaymentRef(ref string) string {
	return strings.ToLower(strings.TrimSpace(ref))
}

func NormalizeLimit(limit int) int {
	if limit <= 0 {
		return DefaultListLimit
	}
	if limit > MaxListLimit {
		return MaxListLimit
	}
	return limit
}
