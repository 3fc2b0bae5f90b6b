package scoring_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"

	"github.com/Maliot100X/CastLaunchEarn/backend/internal/domain/enums"
	"github.com/Maliot100X/CastLaunchEarn/backend/internal/domain/model"
	"github.com/Maliot100X/CastLaunchEarn/backend/internal/domain/rules"
	"github.com/Maliot100X/CastLaunchEarn/backend/internal/repo/memory"
	redrepo "github.com/Maliot100X/CastLaunchEarn/backend/internal/repo/redis"
	scoringsvc "github.com/Maliot100X/CastLaunchEarn/backend/internal/services/scoring"
)

func TestAdjustAppliesConcurrentDeltas(t *testing.T) {
	store := memory.NewStore()
	svc := scoringsvc.NewService(store, nil)
	ctx := context.Background()

	if _, err := store.UpsertUser(ctx, model.UserProfile{FID: 7}); err != nil {
		t.Fatalf("seed user: %v", err)
	}
	if _, err := svc.Adjust(ctx, 7, 100); err != nil {
		t.Fatalf("seed score: %v", err)
	}

	var wg sync.WaitGroup
	for _, delta := range []int64{10, 5} {
		wg.Add(1)
		go func(d int64) {
			defer wg.Done()
			if _, err := svc.Adjust(ctx, 7, d); err != nil {
				t.Errorf("adjust %d: %v", d, err)
			}
		}(delta)
	}
	wg.Wait()

	user, err := store.GetUser(ctx, 7)
	if err != nil {
		t.Fatalf("get user: %v", err)
	}
	if user.Score != 115 {
		t.Fatalf("score = %d, want 115", user.Score)
	}
}

func TestAdjustSequenceReturnsRunningTotal(t *testing.T) {
	svc := scoringsvc.NewService(memory.NewStore(), nil)
	ctx := context.Background()

	var last int64
	for _, delta := range []int64{10, 5, 2} {
		score, err := svc.Adjust(ctx, 9, delta)
		if err != nil {
			t.Fatalf("adjust %d: %v", delta, err)
		}
		last = score
	}
	if last != 17 {
		t.Fatalf("final score = %d, want 17", last)
	}
}

func TestAdjustAllowsNegativeDelta(t *testing.T) {
	svc := scoringsvc.NewService(memory.NewStore(), nil)
	ctx := context.Background()

	if _, err := svc.Adjust(ctx, 3, 10); err != nil {
		t.Fatalf("adjust: %v", err)
	}
	score, err := svc.Adjust(ctx, 3, -4)
	if err != nil {
		t.Fatalf("adjust negative: %v", err)
	}
	if score != 6 {
		t.Fatalf("score = %d, want 6", score)
	}
}

func TestAdjustRejectsInvalidInput(t *testing.T) {
	svc := scoringsvc.NewService(memory.NewStore(), nil)

	if _, err := svc.Adjust(context.Background(), 0, 5); !errors.Is(err, scoringsvc.ErrValidation) {
		t.Fatalf("expected validation error for fid 0, got %v", err)
	}
	if _, err := svc.Adjust(context.Background(), 1, 0); !errors.Is(err, scoringsvc.ErrValidation) {
		t.Fatalf("expected validation error for zero delta, got %v", err)
	}
}

func TestAwardUsesPointTable(t *testing.T) {
	svc := scoringsvc.NewService(memory.NewStore(), nil)
	ctx := context.Background()

	cases := []struct {
		event enums.ScoreEvent
		qty   int64
		delta int64
	}{
		{enums.ScoreEventCoinCreated, 1, 10},
		{enums.ScoreEventTradingVolume, 250, 25},
		{enums.ScoreEventHolder, 3, 6},
		{enums.ScoreEventShare, 1, 5},
	}

	var total int64
	for _, tc := range cases {
		res, err := svc.Award(ctx, 11, tc.event, tc.qty)
		if err != nil {
			t.Fatalf("award %s: %v", tc.event, err)
		}
		if res.Delta != tc.delta {
			t.Fatalf("award %s delta = %d, want %d", tc.event, res.Delta, tc.delta)
		}
		total += tc.delta
		if res.Score != total {
			t.Fatalf("award %s score = %d, want %d", tc.event, res.Score, total)
		}
	}

	if _, err := svc.Award(ctx, 11, enums.ScoreEvent("bogus"), 1); !errors.Is(err, scoringsvc.ErrValidation) {
		t.Fatalf("expected validation error for unknown event, got %v", err)
	}
	if _, err := svc.Award(ctx, 11, enums.ScoreEventShare, rules.MaxScoreQuantity+1); !errors.Is(err, scoringsvc.ErrValidation) {
		t.Fatalf("expected validation error for an oversized quantity, got %v", err)
	}
}

func TestRecordActiveDayOncePerDay(t *testing.T) {
	mini, err := miniredis.Run()
	if err != nil {
		t.Fatalf("start miniredis: %v", err)
	}
	defer mini.Close()

	client := goredis.NewClient(&goredis.Options{Addr: mini.Addr()})
	defer client.Close()

	store := memory.NewStore()
	svc := scoringsvc.NewService(store, redrepo.NewActivityRepo(client))
	ctx := context.Background()

	first, err := svc.RecordActiveDay(ctx, 5)
	if err != nil {
		t.Fatalf("record active day: %v", err)
	}
	second, err := svc.RecordActiveDay(ctx, 5)
	if err != nil {
		t.Fatalf("record active day again: %v", err)
	}
	if !first || second {
		t.Fatalf("first=%v second=%v, want true/false", first, second)
	}

	user, err := store.GetUser(ctx, 5)
	if err != nil {
		t.Fatalf("get user: %v", err)
	}
	if user.Score != 1 {
		t.Fatalf("score = %d, want 1", user.Score)
	}
}

type failingScoreStore struct {
	calls int
}

func (s *failingScoreStore) AdjustScore(context.Context, int64, int64) (int64, error) {
	s.calls++
	if s.calls == 1 {
		return 0, errors.New("score table locked")
	}
	return int64(s.calls), nil
}

func TestRecordActiveDayReleasesDayWhenAwardFails(t *testing.T) {
	mini, err := miniredis.Run()
	if err != nil {
		t.Fatalf("start miniredis: %v", err)
	}
	defer mini.Close()

	client := goredis.NewClient(&goredis.Options{Addr: mini.Addr()})
	defer client.Close()

	store := &failingScoreStore{}
	svc := scoringsvc.NewService(store, redrepo.NewActivityRepo(client))
	ctx := context.Background()

	if _, err := svc.RecordActiveDay(ctx, 5); err == nil {
		t.Fatalf("expected the failed award to surface")
	}
	key := "active_day:5:" + time.Now().UTC().Format("2006-01-02")
	if mini.Exists(key) {
		t.Fatalf("day marker %s must be cleared after a failed award", key)
	}

	credited, err := svc.RecordActiveDay(ctx, 5)
	if err != nil {
		t.Fatalf("retry active day: %v", err)
	}
	if !credited || store.calls != 2 {
		t.Fatalf("retry credited=%v calls=%d, want true/2", credited, store.calls)
	}
	if !mini.Exists(key) {
		t.Fatalf("day marker %s must be set after a successful award", key)
	}
}
