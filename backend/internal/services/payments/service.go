package payments

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/Maliot100X/CastLaunchEarn/backend/internal/domain/enums"
	"github.com/Maliot100X/CastLaunchEarn/backend/internal/domain/model"
	"github.com/Maliot100X/CastLaunchEarn/backend/internal/domain/rules"
	"github.com/Maliot100X/CastLaunchEarn/backend/internal/pkg/validate"
	coinssvc "github.com/Maliot100X/CastLaunchEarn/backend/internal/services/coins"
	entsvc "github.com/Maliot100X/CastLaunchEarn/backend/internal/services/entitlements"
)

const DefaultETHUSD = 2500.0

var (
	ErrValidation             = errors.New("validation error")
	ErrCoinNotFound           = errors.New("coin not found")
	ErrPaymentReferenceReused = errors.New("payment reference already used")
	ErrRateLimited            = errors.New("too many purchase attempts")
)

// RateLimitError carries the retry hint for a blocked purchase attempt.
type RateLimitError struct {
	RetryAfterSec int64
}

func (e *RateLimitError) Error() string {
	return "too many purchase attempts, retry in " + strconv.FormatInt(e.RetryAfterSec, 10) + "s"
}

func (e *RateLimitError) Is(target error) bool {
	return target == ErrRateLimited
}

type Ledger interface {
	Grant(ctx context.Context, in entsvc.GrantInput) (entsvc.GrantResult, error)
	FindByPaymentReference(ctx context.Context, paymentRef string) ([]model.Entitlement, error)
}

type PaymentVerifier interface {
	Verify(ctx context.Context, txHash string, requiredWei *big.Int) (model.Payment, error)
}

type CoinReader interface {
	Get(ctx context.Context, id string) (model.Coin, error)
}

type AttemptLimiter interface {
	Allow(ctx context.Context, fid int64) (int64, bool, error)
}

type Config struct {
	Recipient string
	ETHUSD    float64
}

type Dependencies struct {
	Ledger   Ledger
	Verifier PaymentVerifier
	Coins    CoinReader
	Limiter  AttemptLimiter
	Logger   *zap.Logger
}

// Service runs the verify-then-grant purchase flow for boosts and
// subscriptions. A confirmed payment whose grant fails can be recovered by
// retrying with the same transaction hash.
type Service struct {
	ledger   Ledger
	verifier PaymentVerifier
	coins    CoinReader
	limiter  AttemptLimiter
	cfg      Config
	log      *zap.Logger
}

type Quote struct {
	Kind       enums.EntitlementKind
	Label      string
	PriceCents int64
	PriceWei   *big.Int
	Duration   time.Duration
	Recipient  string
}

type PurchaseResult struct {
	Entitlement model.Entitlement
	Created     bool
	Payment     *model.Payment
	Coin        *model.Coin
}

func NewService(deps Dependencies, cfg Config) *Service {
	cfg.Recipient = strings.ToLower(strings.TrimSpace(cfg.Recipient))
	if cfg.ETHUSD <= 0 {
		cfg.ETHUSD = DefaultETHUSD
	}
	log := deps.Logger
	if log == nil {
		log = zap.NewNop()
	}

	return &Service{
		ledger:   deps.Ledger,
		verifier: deps.Verifier,
		coins:    deps.Coins,
		limiter:  deps.Limiter,
		cfg:      cfg,
		log:      log,
	}
}

// Quote prices a package in wei at the configured static rate.
func (s *Service) Quote(kind enums.EntitlementKind) (Quote, error) {
	pkg, ok := rules.Lookup(kind)
	if !ok {
		return Quote{}, ErrValidation
	}
	wei, err := rules.USDCentsToWei(pkg.PriceCents, s.cfg.ETHUSD)
	if err != nil {
		return Quote{}, fmt.Errorf("convert price: %w", err)
	}

	return Quote{
		Kind:       pkg.Kind,
		Label:      pkg.Label,
		PriceCents: pkg.PriceCents,
		PriceWei:   wei,
		Duration:   pkg.Duration,
		Recipient:  s.cfg.Recipient,
	}, nil
}

func (s *Service) Quotes(scope enums.Scope) ([]Quote, error) {
	pkgs := rules.Packages(scope)
	out := make([]Quote, 0, len(pkgs))
	for _, pkg := range pkgs {
		q, err := s.Quote(pkg.Kind)
		if err != nil {
			return nil, err
		}
		out = append(out, q)
	}
	return out, nil
}

func (s *Service) PurchaseBoost(ctx context.Context, fid int64, coinID string, kind enums.EntitlementKind, txHash string) (PurchaseResult, error) {
	if fid <= 0 || !kind.IsBoost() {
		return PurchaseResult{}, ErrValidation
	}
	if s.coins == nil {
		return PurchaseResult{}, fmt.Errorf("coin reader is nil")
	}

	coin, err := s.coins.Get(ctx, strings.TrimSpace(coinID))
	if err != nil {
		if errors.Is(err, coinssvc.ErrNotFound) {
			return PurchaseResult{}, ErrCoinNotFound
		}
		if errors.Is(err, coinssvc.ErrValidation) {
			return PurchaseResult{}, ErrValidation
		}
		return PurchaseResult{}, fmt.Errorf("load coin: %w", err)
	}

	res, err := s.purchase(ctx, fid, enums.SubjectCoin, coin.ID, kind, txHash)
	if err != nil {
		return PurchaseResult{}, err
	}
	res.Coin = &coin
	return res, nil
}

func (s *Service) PurchaseSubscription(ctx context.Context, fid int64, plan enums.EntitlementKind, txHash string) (PurchaseResult, error) {
	if fid <= 0 || !plan.IsSubscription() {
		return PurchaseResult{}, ErrValidation
	}
	return s.purchase(ctx, fid, enums.SubjectUser, strconv.FormatInt(fid, 10), plan, txHash)
}

func (s *Service) purchase(
	ctx context.Context,
	fid int64,
	subjectType enums.SubjectType,
	subjectID string,
	kind enums.EntitlementKind,
	txHash string,
) (PurchaseResult, error) {
	if s.ledger == nil || s.verifier == nil {
		return PurchaseResult{}, fmt.Errorf("payment dependencies are not configured")
	}

	ref := entsvc.NormalizePaymentRef(txHash)
	if !validate.TxHash(ref) {
		return PurchaseResult{}, ErrValidation
	}

	if s.limiter != nil {
		retryAfter, allowed, err := s.limiter.Allow(ctx, fid)
		if err != nil {
			s.log.Warn("purchase rate limiter failed", zap.Int64("fid", fid), zap.Error(err))
		} else if !allowed {
			return PurchaseResult{}, &RateLimitError{RetryAfterSec: retryAfter}
		}
	}

	// A retried request for an already granted payment returns the stored
	// record without touching the chain.
	existing, err := s.ledger.FindByPaymentReference(ctx, ref)
	if err != nil {
		return PurchaseResult{}, fmt.Errorf("lookup payment reference: %w", err)
	}
	for _, rec := range existing {
		if rec.SubjectType == subjectType && rec.SubjectID == subjectID && rec.Kind == kind {
			return PurchaseResult{Entitlement: rec}, nil
		}
	}
	if len(existing) > 0 {
		return PurchaseResult{}, ErrPaymentReferenceReused
	}

	quote, err := s.Quote(kind)
	if err != nil {
		return PurchaseResult{}, err
	}

	payment, err := s.verifier.Verify(ctx, ref, quote.PriceWei)
	if err != nil {
		return PurchaseResult{}, err
	}

	granted, err := s.ledger.Grant(ctx, entsvc.GrantInput{
		SubjectType:    subjectType,
		SubjectID:      subjectID,
		Kind:           kind,
		PaymentRef:     ref,
		PricePaidCents: quote.PriceCents,
	})
	if errors.Is(err, entsvc.ErrPaymentRefConflict) {
		// A concurrent purchase claimed the reference between lookup and insert.
		return PurchaseResult{}, ErrPaymentReferenceReused
	}
	if err != nil {
		s.log.Error("grant after confirmed payment failed",
			zap.Int64("fid", fid),
			zap.String("tx_hash", ref),
			zap.String("kind", string(kind)),
			zap.String("subject_id", subjectID),
			zap.Error(err),
		)
		return PurchaseResult{}, fmt.Errorf("grant entitlement: %w", err)
	}

	s.log.Info("entitlement purchased",
		zap.Int64("fid", fid),
		zap.String("kind", string(kind)),
		zap.String("subject_id", subjectID),
		zap.String("tx_hash", ref),
		zap.String("value_wei", payment.ValueWei.String()),
		zap.Bool("created", granted.Created),
	)

	return PurchaseResult{
		Entitlement: granted.Entitlement,
		Created:     granted.Created,
		Payment:     &payment,
	}, nil
}
