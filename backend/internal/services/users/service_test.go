package users_test

import (
	"context"
	"errors"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"

	"github.com/Maliot100X/CastLaunchEarn/backend/internal/domain/model"
	"github.com/Maliot100X/CastLaunchEarn/backend/internal/repo/memory"
	redrepo "github.com/Maliot100X/CastLaunchEarn/backend/internal/repo/redis"
	userssvc "github.com/Maliot100X/CastLaunchEarn/backend/internal/services/users"
)

func TestSignInKeepsStoredFieldsWhenEmpty(t *testing.T) {
	store := memory.NewStore()
	svc := userssvc.NewService(store)
	ctx := context.Background()

	if _, err := svc.SignIn(ctx, model.UserProfile{
		FID:           10,
		Username:      " alice ",
		DisplayName:   "Alice",
		WalletAddress: "0xABCDEF0000000000000000000000000000000001",
	}); err != nil {
		t.Fatalf("first sign in: %v", err)
	}

	user, err := svc.SignIn(ctx, model.UserProfile{FID: 10, PfpURL: "https://example.com/p.png"})
	if err != nil {
		t.Fatalf("second sign in: %v", err)
	}
	if user.Username != "alice" || user.DisplayName != "Alice" {
		t.Fatalf("stored fields were overwritten: %+v", user)
	}
	if user.PfpURL != "https://example.com/p.png" {
		t.Fatalf("pfp not updated: %+v", user)
	}
	if user.WalletAddress != "0xabcdef0000000000000000000000000000000001" {
		t.Fatalf("wallet must be lowercased, got %q", user.WalletAddress)
	}
}

func TestSignInRejectsMissingFID(t *testing.T) {
	svc := userssvc.NewService(memory.NewStore())
	if _, err := svc.SignIn(context.Background(), model.UserProfile{Username: "x"}); !errors.Is(err, userssvc.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestGetUnknownUser(t *testing.T) {
	svc := userssvc.NewService(memory.NewStore())
	if _, err := svc.Get(context.Background(), 404); !errors.Is(err, userssvc.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestLeaderboardRanksByScore(t *testing.T) {
	store := memory.NewStore()
	svc := userssvc.NewService(store)
	ctx := context.Background()

	for fid, score := range map[int64]int64{1: 5, 2: 50, 3: 20, 4: 20} {
		if _, err := store.AdjustScore(ctx, fid, score); err != nil {
			t.Fatalf("seed score: %v", err)
		}
	}

	board, err := svc.Leaderboard(ctx, "", 3)
	if err != nil {
		t.Fatalf("leaderboard: %v", err)
	}
	if board.Period != "weekly" {
		t.Fatalf("period = %q, want weekly", board.Period)
	}
	if len(board.Entries) != 3 {
		t.Fatalf("entries = %d, want 3", len(board.Entries))
	}

	wantFIDs := []int64{2, 3, 4}
	for i, entry := range board.Entries {
		if entry.Rank != i+1 || entry.User.FID != wantFIDs[i] {
			t.Fatalf("entry %d = rank %d fid %d, want rank %d fid %d", i, entry.Rank, entry.User.FID, i+1, wantFIDs[i])
		}
	}

	monthly, err := svc.Leaderboard(ctx, "monthly", 0)
	if err != nil {
		t.Fatalf("monthly leaderboard: %v", err)
	}
	if monthly.Period != "monthly" || len(monthly.Entries) != 4 {
		t.Fatalf("unexpected monthly board: period=%q entries=%d", monthly.Period, len(monthly.Entries))
	}
}

func TestSetNotifications(t *testing.T) {
	store := memory.NewStore()
	svc := userssvc.NewService(store)
	ctx := context.Background()

	if _, err := svc.SignIn(ctx, model.UserProfile{FID: 8}); err != nil {
		t.Fatalf("sign in: %v", err)
	}
	if err := svc.SetNotifications(ctx, 8, true); err != nil {
		t.Fatalf("enable notifications: %v", err)
	}

	user, err := svc.Get(ctx, 8)
	if err != nil {
		t.Fatalf("get user: %v", err)
	}
	if !user.NotificationsEnabled {
		t.Fatalf("notifications flag was not set")
	}
}

func TestLeaderboardServedFromCacheUntilExpiry(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	defer func() { _ = client.Close() }()

	store := memory.NewStore()
	svc := userssvc.NewService(store)
	svc.AttachCache(redrepo.NewCacheRepo(client), 30*time.Second)
	ctx := context.Background()

	if _, err := store.AdjustScore(ctx, 1, 5); err != nil {
		t.Fatalf("seed score: %v", err)
	}
	first, err := svc.Leaderboard(ctx, "", 10)
	if err != nil {
		t.Fatalf("leaderboard: %v", err)
	}
	if len(first.Entries) != 1 {
		t.Fatalf("expected one entry, got %d", len(first.Entries))
	}

	if _, err := store.AdjustScore(ctx, 2, 50); err != nil {
		t.Fatalf("seed score: %v", err)
	}
	cached, err := svc.Leaderboard(ctx, "", 10)
	if err != nil {
		t.Fatalf("cached leaderboard: %v", err)
	}
	if len(cached.Entries) != 1 {
		t.Fatalf("cached read must not see the new user, got %d entries", len(cached.Entries))
	}

	mr.FastForward(31 * time.Second)
	fresh, err := svc.Leaderboard(ctx, "", 10)
	if err != nil {
		t.Fatalf("fresh leaderboard: %v", err)
	}
	if len(fresh.Entries) != 2 || fresh.Entries[0].User.FID != 2 {
		t.Fatalf("expired cache must be refilled: %+v", fresh.Entries)
	}
}
