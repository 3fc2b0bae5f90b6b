package ledgerstats

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/Maliot100X/CastLaunchEarn/backend/internal/domain/enums"
	"github.com/Maliot100X/CastLaunchEarn/backend/internal/infra/metrics"
)

const DefaultInterval = time.Minute

// ActiveCounter counts open entitlement windows without touching expired rows.
type ActiveCounter interface {
	CountActiveEntitlements(ctx context.Context, now time.Time, scope enums.Scope) (int64, error)
}

// Job publishes how many boosts and subscriptions are currently running.
// It only reads the ledger.
type Job struct {
	counter  ActiveCounter
	interval time.Duration
	publish  func(scope string, n int64)
	now      func() time.Time
	logger   *zap.Logger
}

type Snapshot struct {
	Boosts        int64
	Subscriptions int64
}

func New(counter ActiveCounter, interval time.Duration, logger *zap.Logger) *Job {
	if interval <= 0 {
		interval = DefaultInterval
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Job{
		counter:  counter,
		interval: interval,
		publish:  metrics.SetActiveEntitlements,
		now:      time.Now,
		logger:   logger,
	}
}

func (j *Job) Run(ctx context.Context) (Snapshot, error) {
	if j.counter == nil {
		return Snapshot{}, fmt.Errorf("active counter is nil")
	}

	now := j.now()
	boosts, err := j.counter.CountActiveEntitlements(ctx, now, enums.ScopeBoost)
	if err != nil {
		return Snapshot{}, fmt.Errorf("count active boosts: %w", err)
	}
	subs, err := j.counter.CountActiveEntitlements(ctx, now, enums.ScopeSubscription)
	if err != nil {
		return Snapshot{}, fmt.Errorf("count active subscriptions: %w", err)
	}

	j.publish(string(enums.ScopeBoost), boosts)
	j.publish(string(enums.ScopeSubscription), subs)
	return Snapshot{Boosts: boosts, Subscriptions: subs}, nil
}

// Start runs the job every interval until ctx is done.
func (j *Job) Start(ctx context.Context) {
	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		if _, err := j.Run(ctx); err != nil && ctx.Err() == nil {
			j.logger.Warn("ledger stats refresh failed", zap.Error(err))
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
