package scoring

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Maliot100X/CastLaunchEarn/backend/internal/domain/enums"
	"github.com/Maliot100X/CastLaunchEarn/backend/internal/domain/rules"
	"github.com/Maliot100X/CastLaunchEarn/backend/internal/infra/metrics"
)

const activeDayTTL = 48 * time.Hour

var ErrValidation = errors.New("validation error")

// Store must apply the delta as a single atomic increment.
type Store interface {
	AdjustScore(ctx context.Context, fid int64, delta int64) (int64, error)
}

// ActiveDayStore remembers which users were already credited for a day.
type ActiveDayStore interface {
	MarkActiveDay(ctx context.Context, fid int64, day string, ttl time.Duration) (bool, error)
	UnmarkActiveDay(ctx context.Context, fid int64, day string) error
}

type Service struct {
	store Store
	days  ActiveDayStore
	now   func() time.Time
}

type AwardResult struct {
	Delta int64
	Score int64
}

func NewService(store Store, days ActiveDayStore) *Service {
	return &Service{
		store: store,
		days:  days,
		now:   time.Now,
	}
}

// Adjust adds delta to the user's score and returns the new total.
func (s *Service) Adjust(ctx context.Context, fid int64, delta int64) (int64, error) {
	return s.adjust(ctx, fid, delta, "manual")
}

func (s *Service) Award(ctx context.Context, fid int64, event enums.ScoreEvent, quantity int64) (AwardResult, error) {
	if fid <= 0 {
		return AwardResult{}, ErrValidation
	}
	delta, ok := rules.ScoreDelta(event, quantity)
	if !ok {
		return AwardResult{}, ErrValidation
	}
	if delta == 0 {
		return AwardResult{}, nil
	}

	score, err := s.adjust(ctx, fid, delta, string(event))
	if err != nil {
		return AwardResult{}, err
	}
	return AwardResult{Delta: delta, Score: score}, nil
}

// RecordActiveDay awards the daily activity point at most once per UTC day.
func (s *Service) RecordActiveDay(ctx context.Context, fid int64) (bool, error) {
	if fid <= 0 {
		return false, ErrValidation
	}
	if s.days == nil {
		return false, nil
	}

	day := rules.DayKey(s.now(), time.UTC)
	first, err := s.days.MarkActiveDay(ctx, fid, day, activeDayTTL)
	if err != nil {
		return false, fmt.Errorf("mark active day: %w", err)
	}
	if !first {
		return false, nil
	}

	if _, err := s.Award(ctx, fid, enums.ScoreEventActiveDay, 1); err != nil {
		// Without the point the day must stay claimable for a retry.
		if uerr := s.days.UnmarkActiveDay(ctx, fid, day); uerr != nil {
			return false, errors.Join(err, fmt.Errorf("unmark active day: %w", uerr))
		}
		return false, err
	}
	return true, nil
}

func (s *Service) adjust(ctx context.Context, fid int64, delta int64, reason string) (int64, error) {
	if s.store == nil {
		return 0, fmt.Errorf("score store is nil")
	}
	if fid <= 0 || delta == 0 {
		return 0, ErrValidation
	}

	score, err := s.store.AdjustScore(ctx, fid, delta)
	if err != nil {
		return 0, fmt.Errorf("adjust score: %w", err)
	}
	metrics.RecordScoreAdjustment(reason)
	return score, nil
}
