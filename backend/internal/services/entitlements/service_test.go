package entitlements

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/Maliot100X/CastLaunchEarn/backend/internal/domain/enums"
	"github.com/Maliot100X/CastLaunchEarn/backend/internal/domain/model"
	"github.com/Maliot100X/CastLaunchEarn/backend/internal/repo/memory"
)

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

func newTestService(t *testing.T) (*Service, *memory.Store, *clock) {
	t.Helper()
	store := memory.NewStore()
	svc := NewService(store, store)
	clk := &clock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	svc.now = clk.Now
	return svc, store, clk
}

func TestGrantComputesExpiryFromDurationTable(t *testing.T) {
	svc, _, clk := newTestService(t)
	ctx := context.Background()
	t0 := clk.Now()

	cases := []struct {
		subject enums.SubjectType
		kind    enums.EntitlementKind
		want    time.Duration
	}{
		{enums.SubjectCoin, enums.KindBoostBasic, 10 * time.Minute},
		{enums.SubjectCoin, enums.KindBoostSuper, 25 * time.Minute},
		{enums.SubjectCoin, enums.KindBoostHyper, 60 * time.Minute},
		{enums.SubjectUser, enums.KindSubscriptionTrial, 7 * 24 * time.Hour},
		{enums.SubjectUser, enums.KindSubscriptionMonthly, 30 * 24 * time.Hour},
	}

	for _, tc := range cases {
		res, err := svc.Grant(ctx, GrantInput{SubjectType: tc.subject, SubjectID: "s-1", Kind: tc.kind})
		if err != nil {
			t.Fatalf("grant %s: %v", tc.kind, err)
		}
		got := res.Entitlement
		if !got.StartedAt.Equal(t0) {
			t.Fatalf("unexpected started_at for %s: %s", tc.kind, got.StartedAt)
		}
		if got.ExpiresAt.Sub(got.StartedAt) != tc.want {
			t.Fatalf("unexpected duration for %s: got %s want %s", tc.kind, got.ExpiresAt.Sub(got.StartedAt), tc.want)
		}
		if got.ID == "" || got.PricePaidCents <= 0 {
			t.Fatalf("expected id and catalog price for %s: %+v", tc.kind, got)
		}
	}
}

func TestGrantRejectsInvalidInput(t *testing.T) {
	svc, store, _ := newTestService(t)
	ctx := context.Background()

	inputs := []GrantInput{
		{SubjectType: enums.SubjectUser, SubjectID: "1", Kind: enums.KindBoostBasic},
		{SubjectType: enums.SubjectCoin, SubjectID: "c1", Kind: enums.KindSubscriptionMonthly},
		{SubjectType: enums.SubjectCoin, SubjectID: " ", Kind: enums.KindBoostBasic},
		{SubjectType: enums.SubjectCoin, SubjectID: "c1", Kind: enums.EntitlementKind("mega")},
		{SubjectType: enums.SubjectCoin, SubjectID: "c1", Kind: enums.KindBoostBasic, PricePaidCents: -1},
	}
	for i, in := range inputs {
		if _, err := svc.Grant(ctx, in); !errors.Is(err, ErrValidation) {
			t.Fatalf("input #%d: expected validation error, got %v", i, err)
		}
	}
	if n := len(store.AllEntitlements()); n != 0 {
		t.Fatalf("validation failures must not write, got %d rows", n)
	}
}

func TestListActiveExcludesRowExpiringExactlyNow(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	res, err := svc.Grant(ctx, GrantInput{SubjectType: enums.SubjectCoin, SubjectID: "c1", Kind: enums.KindBoostBasic})
	if err != nil {
		t.Fatalf("grant: %v", err)
	}
	expiresAt := res.Entitlement.ExpiresAt

	items, err := svc.ListActive(ctx, expiresAt.Add(-time.Nanosecond), model.EntitlementFilter{})
	if err != nil {
		t.Fatalf("list before expiry: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("expected row active just before expiry, got %d", len(items))
	}

	items, err = svc.ListActive(ctx, expiresAt, model.EntitlementFilter{})
	if err != nil {
		t.Fatalf("list at expiry: %v", err)
	}
	if len(items) != 0 {
		t.Fatalf("expected row excluded at expires_at == now, got %d", len(items))
	}
}

func TestListActiveOrdersByExpiryThenInsertion(t *testing.T) {
	svc, _, clk := newTestService(t)
	ctx := context.Background()
	t0 := clk.Now()

	mustGrant(t, svc, enums.SubjectCoin, "short", enums.KindBoostBasic, "")
	mustGrant(t, svc, enums.SubjectCoin, "long", enums.KindBoostHyper, "")
	mustGrant(t, svc, enums.SubjectCoin, "mid", enums.KindBoostSuper, "")

	items, err := svc.ListActive(ctx, t0, model.EntitlementFilter{Scope: enums.ScopeBoost})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	got := subjects(items)
	want := []string{"long", "mid", "short"}
	if !equalStrings(got, want) {
		t.Fatalf("unexpected order: got %v want %v", got, want)
	}
}

func TestGrantIsAppendOnly(t *testing.T) {
	svc, store, clk := newTestService(t)

	first := mustGrant(t, svc, enums.SubjectCoin, "c1", enums.KindBoostBasic, "0xaaa")
	other := mustGrant(t, svc, enums.SubjectCoin, "c2", enums.KindBoostSuper, "")
	before := store.AllEntitlements()

	clk.Set(clk.Now().Add(5 * time.Minute))
	mustGrant(t, svc, enums.SubjectCoin, "c1", enums.KindBoostHyper, "0xbbb")
	mustGrant(t, svc, enums.SubjectCoin, "c2", enums.KindBoostBasic, "")

	after := store.AllEntitlements()
	if len(after) != len(before)+2 {
		t.Fatalf("expected two new rows, got %d -> %d", len(before), len(after))
	}
	for i := range before {
		if before[i] != after[i] {
			t.Fatalf("row %d mutated: before %+v after %+v", i, before[i], after[i])
		}
	}
	if after[0].ID != first.ID || after[1].ID != other.ID {
		t.Fatalf("existing rows reordered")
	}
}

func TestGrantWithSamePaymentReferenceIsNoop(t *testing.T) {
	svc, store, clk := newTestService(t)
	ctx := context.Background()

	in := GrantInput{
		SubjectType: enums.SubjectCoin,
		SubjectID:   "c1",
		Kind:        enums.KindBoostBasic,
		PaymentRef:  "0xABCDEF",
	}
	first, err := svc.Grant(ctx, in)
	if err != nil {
		t.Fatalf("first grant: %v", err)
	}
	if !first.Created {
		t.Fatalf("first grant must create a row")
	}

	clk.Set(clk.Now().Add(time.Minute))
	in.PaymentRef = " 0xabcdef "
	second, err := svc.Grant(ctx, in)
	if err != nil {
		t.Fatalf("second grant: %v", err)
	}
	if second.Created {
		t.Fatalf("retry with same payment reference must not create a row")
	}
	if second.Entitlement.ID != first.Entitlement.ID || !second.Entitlement.ExpiresAt.Equal(first.Entitlement.ExpiresAt) {
		t.Fatalf("retry must return the original record: first %+v second %+v", first.Entitlement, second.Entitlement)
	}
	if n := len(store.AllEntitlements()); n != 1 {
		t.Fatalf("expected exactly one row, got %d", n)
	}
}

func TestGrantRefusesReferenceSpentElsewhere(t *testing.T) {
	svc, store, _ := newTestService(t)
	ctx := context.Background()

	mustGrant(t, svc, enums.SubjectCoin, "c1", enums.KindBoostBasic, "0xbeef")

	cases := []GrantInput{
		{SubjectType: enums.SubjectCoin, SubjectID: "c2", Kind: enums.KindBoostBasic, PaymentRef: "0xbeef"},
		{SubjectType: enums.SubjectCoin, SubjectID: "c1", Kind: enums.KindBoostHyper, PaymentRef: "0xbeef"},
		{SubjectType: enums.SubjectUser, SubjectID: "42", Kind: enums.KindSubscriptionTrial, PaymentRef: "0xBEEF"},
	}
	for _, in := range cases {
		if _, err := svc.Grant(ctx, in); !errors.Is(err, ErrPaymentRefConflict) {
			t.Fatalf("grant %+v: expected ErrPaymentRefConflict, got %v", in, err)
		}
	}
	if n := len(store.AllEntitlements()); n != 1 {
		t.Fatalf("expected one stored row, got %d", n)
	}
}

func TestConcurrentGrantsOnDifferentSubjectsShareOneReference(t *testing.T) {
	svc, store, _ := newTestService(t)
	ctx := context.Background()

	const workers = 8
	var wg sync.WaitGroup
	var mu sync.Mutex
	created, conflicts := 0, 0

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			res, err := svc.Grant(ctx, GrantInput{
				SubjectType: enums.SubjectCoin,
				SubjectID:   "coin-" + strconv.Itoa(i),
				Kind:        enums.KindBoostHyper,
				PaymentRef:  "0xcafe",
			})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case errors.Is(err, ErrPaymentRefConflict):
				conflicts++
			case err != nil:
				t.Errorf("grant: %v", err)
			case res.Created:
				created++
			}
		}(i)
	}
	wg.Wait()

	if created != 1 || conflicts != workers-1 {
		t.Fatalf("created=%d conflicts=%d, want 1 and %d", created, conflicts, workers-1)
	}
	if n := len(store.AllEntitlements()); n != 1 {
		t.Fatalf("expected one stored row, got %d", n)
	}
}

func TestGrantWithoutPaymentReferenceAlwaysInserts(t *testing.T) {
	svc, store, _ := newTestService(t)

	mustGrant(t, svc, enums.SubjectCoin, "c1", enums.KindBoostBasic, "")
	mustGrant(t, svc, enums.SubjectCoin, "c1", enums.KindBoostBasic, "")

	if n := len(store.AllEntitlements()); n != 2 {
		t.Fatalf("expected overlapping rows without a reference, got %d", n)
	}
}

func TestConcurrentGrantsWithSameReferenceCreateOneRow(t *testing.T) {
	svc, store, _ := newTestService(t)
	ctx := context.Background()

	const workers = 16
	var wg sync.WaitGroup
	var mu sync.Mutex
	created := 0
	ids := map[string]struct{}{}

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := svc.Grant(ctx, GrantInput{
				SubjectType: enums.SubjectUser,
				SubjectID:   "42",
				Kind:        enums.KindSubscriptionMonthly,
				PaymentRef:  "0xfeed",
			})
			if err != nil {
				t.Errorf("grant: %v", err)
				return
			}
			mu.Lock()
			defer mu.Unlock()
			if res.Created {
				created++
			}
			ids[res.Entitlement.ID] = struct{}{}
		}()
	}
	wg.Wait()

	if created != 1 || len(ids) != 1 {
		t.Fatalf("expected one created row shared by all callers, created=%d ids=%d", created, len(ids))
	}
	if n := len(store.AllEntitlements()); n != 1 {
		t.Fatalf("expected one stored row, got %d", n)
	}
}

func TestBasicBoostIsActiveForTenMinutes(t *testing.T) {
	svc, _, clk := newTestService(t)
	ctx := context.Background()
	t0 := clk.Now()

	mustGrant(t, svc, enums.SubjectCoin, "C1", enums.KindBoostBasic, "0x01")

	items, err := svc.ListActive(ctx, t0.Add(9*time.Minute), model.EntitlementFilter{Scope: enums.ScopeBoost})
	if err != nil {
		t.Fatalf("list at t0+9m: %v", err)
	}
	if !equalStrings(subjects(items), []string{"C1"}) {
		t.Fatalf("expected C1 active at t0+9m, got %v", subjects(items))
	}

	items, err = svc.ListActive(ctx, t0.Add(11*time.Minute), model.EntitlementFilter{Scope: enums.ScopeBoost})
	if err != nil {
		t.Fatalf("list at t0+11m: %v", err)
	}
	if len(items) != 0 {
		t.Fatalf("expected C1 expired at t0+11m, got %v", subjects(items))
	}
}

func TestCurrentKingTieBreaksByInsertionOrder(t *testing.T) {
	svc, _, clk := newTestService(t)
	ctx := context.Background()
	t0 := clk.Now()

	mustGrant(t, svc, enums.SubjectCoin, "C1", enums.KindBoostSuper, "0x01")
	mustGrant(t, svc, enums.SubjectCoin, "C2", enums.KindBoostSuper, "0x02")

	items, err := svc.ListActive(ctx, t0.Add(time.Minute), model.EntitlementFilter{Scope: enums.ScopeBoost})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if !equalStrings(subjects(items), []string{"C1", "C2"}) {
		t.Fatalf("expected both boosts in insertion order, got %v", subjects(items))
	}

	for i := 0; i < 5; i++ {
		king, err := svc.CurrentKing(ctx, t0.Add(time.Minute))
		if err != nil {
			t.Fatalf("current king: %v", err)
		}
		if king.Entitlement.SubjectID != "C1" {
			t.Fatalf("expected C1 as king on tie, got %s", king.Entitlement.SubjectID)
		}
	}
}

func TestCurrentKingWithoutBoosts(t *testing.T) {
	svc, _, clk := newTestService(t)

	mustGrant(t, svc, enums.SubjectUser, "7", enums.KindSubscriptionTrial, "")

	if _, err := svc.CurrentKing(context.Background(), clk.Now()); !errors.Is(err, ErrNoActiveBoost) {
		t.Fatalf("expected ErrNoActiveBoost, got %v", err)
	}
}

func TestActiveBoostsJoinsCoins(t *testing.T) {
	svc, store, clk := newTestService(t)
	ctx := context.Background()

	coin, err := store.CreateCoin(ctx, model.Coin{
		ID:          "8f14e45f-ceea-4e6a-9bd4-2a1f5d4c3b2a",
		CreatorFID:  1,
		CoinAddress: "0x0000000000000000000000000000000000000001",
		Name:        "Moon Rocket",
		Symbol:      "MOON",
		CreatedAt:   clk.Now(),
	})
	if err != nil {
		t.Fatalf("create coin: %v", err)
	}
	mustGrant(t, svc, enums.SubjectCoin, coin.ID, enums.KindBoostHyper, "")
	mustGrant(t, svc, enums.SubjectCoin, "missing-coin", enums.KindBoostBasic, "")

	boosts, err := svc.ActiveBoosts(ctx, clk.Now(), 0)
	if err != nil {
		t.Fatalf("active boosts: %v", err)
	}
	if len(boosts) != 2 {
		t.Fatalf("expected two boosts, got %d", len(boosts))
	}
	if boosts[0].Coin == nil || boosts[0].Coin.Symbol != "MOON" {
		t.Fatalf("expected hyper boost joined with its coin, got %+v", boosts[0])
	}
	if boosts[1].Coin != nil {
		t.Fatalf("expected unknown coin to stay nil")
	}
}

func TestSubscriptionStatusIsDerivedFromLedger(t *testing.T) {
	svc, _, clk := newTestService(t)
	ctx := context.Background()
	t0 := clk.Now()

	ok, err := svc.IsSubscriber(ctx, 42, t0)
	if err != nil {
		t.Fatalf("is subscriber: %v", err)
	}
	if ok {
		t.Fatalf("expected no subscription before purchase")
	}

	mustGrant(t, svc, enums.SubjectUser, "42", enums.KindSubscriptionTrial, "0x42")

	status, err := svc.SubscriptionStatus(ctx, 42, t0.Add(24*time.Hour))
	if err != nil {
		t.Fatalf("subscription status: %v", err)
	}
	if !status.Active || status.Subscription == nil || status.Subscription.Kind != enums.KindSubscriptionTrial {
		t.Fatalf("expected active trial, got %+v", status)
	}

	ok, err = svc.IsSubscriber(ctx, 42, t0.Add(7*24*time.Hour))
	if err != nil {
		t.Fatalf("is subscriber after trial: %v", err)
	}
	if ok {
		t.Fatalf("expected trial to lapse exactly at expiry")
	}

	ok, err = svc.IsSubscriber(ctx, 43, t0.Add(time.Hour))
	if err != nil {
		t.Fatalf("is subscriber other user: %v", err)
	}
	if ok {
		t.Fatalf("subscription must not leak to other users")
	}
}

func TestFindByPaymentReference(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	granted := mustGrant(t, svc, enums.SubjectCoin, "c1", enums.KindBoostBasic, "0xAbC")

	items, err := svc.FindByPaymentReference(ctx, "0xabc")
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if len(items) != 1 || items[0].ID != granted.ID {
		t.Fatalf("unexpected reconciliation result: %+v", items)
	}

	if _, err := svc.FindByPaymentReference(ctx, "  "); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected validation error for empty reference, got %v", err)
	}
}

func TestNormalizeLimit(t *testing.T) {
	if NormalizeLimit(0) != DefaultListLimit || NormalizeLimit(-3) != DefaultListLimit {
		t.Fatalf("expected default limit for non-positive input")
	}
	if NormalizeLimit(1000) != MaxListLimit {
		t.Fatalf("expected limit clamp")
	}
	if NormalizeLimit(7) != 7 {
		t.Fatalf("expected limit passthrough")
	}
}

func mustGrant(t *testing.T, svc *Service, subject enums.SubjectType, id string, kind enums.EntitlementKind, ref string) model.Entitlement {
	t.Helper()
	res, err := svc.Grant(context.Background(), GrantInput{
		SubjectType: subject,
		SubjectID:   id,
		Kind:        kind,
		PaymentRef:  ref,
	})
	if err != nil {
		t.Fatalf("grant %s to %s: %v", kind, id, err)
	}
	return res.Entitlement
}

func subjects(items []model.Entitlement) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		out = append(out, item.SubjectID)
	}
	return out
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
