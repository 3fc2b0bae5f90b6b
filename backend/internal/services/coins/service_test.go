package coins_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/Maliot100X/CastLaunchEarn/backend/internal/domain/enums"
	"github.com/Maliot100X/CastLaunchEarn/backend/internal/domain/model"
	"github.com/Maliot100X/CastLaunchEarn/backend/internal/repo/memory"
	coinssvc "github.com/Maliot100X/CastLaunchEarn/backend/internal/services/coins"
	scoringsvc "github.com/Maliot100X/CastLaunchEarn/backend/internal/services/scoring"
)

const (
	testCoinAddress = "0x1111111111111111111111111111111111111111"
	testPayout      = "0x2222222222222222222222222222222222222222"
	testReferrer    = "0xccd1e099590bfedf279e239558772bbb50902ef6"
	testImage       = "ipfs://default-image"
)

type recordingPinner struct {
	name    string
	content any
	err     error
}

func (p *recordingPinner) PinJSON(_ context.Context, name string, content any) (string, error) {
	p.name = name
	p.content = content
	if p.err != nil {
		return "", p.err
	}
	return "ipfs://bafytestcid", nil
}

func newCoinService(store *memory.Store, pinner coinssvc.Pinner) *coinssvc.Service {
	return coinssvc.NewService(coinssvc.Dependencies{
		Store:  store,
		Scorer: scoringsvc.NewService(store, nil),
		Pinner: pinner,
	}, coinssvc.Config{
		PlatformReferrer: testReferrer,
		DefaultImageURI:  testImage,
	})
}

func TestCreateCoinAwardsCreator(t *testing.T) {
	store := memory.NewStore()
	svc := newCoinService(store, nil)
	ctx := context.Background()

	res, err := svc.Create(ctx, 42, coinssvc.CreateInput{
		CoinAddress: strings.ToUpper(testCoinAddress[:2]) + testCoinAddress[2:],
		Name:        "Moon Rocket",
		Symbol:      "moon",
	})
	if err != nil {
		t.Fatalf("create coin: %v", err)
	}
	if res.Coin.Symbol != "MOON" || res.Coin.ChainID != int64(enums.ChainBase) {
		t.Fatalf("unexpected coin: %+v", res.Coin)
	}
	if res.ScoreAwarded != 10 {
		t.Fatalf("score awarded = %d, want 10", res.ScoreAwarded)
	}

	user, err := store.GetUser(ctx, 42)
	if err != nil {
		t.Fatalf("get creator: %v", err)
	}
	if user.Score != 10 {
		t.Fatalf("creator score = %d, want 10", user.Score)
	}

	got, err := svc.Get(ctx, res.Coin.ID)
	if err != nil {
		t.Fatalf("get coin: %v", err)
	}
	if got.CoinAddress != testCoinAddress {
		t.Fatalf("coin address = %q", got.CoinAddress)
	}
}

func TestCreateCoinRejectsDuplicateAddress(t *testing.T) {
	store := memory.NewStore()
	svc := newCoinService(store, nil)
	ctx := context.Background()

	in := coinssvc.CreateInput{CoinAddress: testCoinAddress, Name: "One", Symbol: "ONE"}
	if _, err := svc.Create(ctx, 1, in); err != nil {
		t.Fatalf("first create: %v", err)
	}
	if _, err := svc.Create(ctx, 2, in); !errors.Is(err, coinssvc.ErrAlreadyExist) {
		t.Fatalf("expected already exists, got %v", err)
	}
}

func TestCreateCoinValidation(t *testing.T) {
	svc := newCoinService(memory.NewStore(), nil)
	ctx := context.Background()

	cases := []struct {
		name string
		fid  int64
		in   coinssvc.CreateInput
	}{
		{"no creator", 0, coinssvc.CreateInput{CoinAddress: testCoinAddress, Name: "A", Symbol: "A"}},
		{"bad address", 1, coinssvc.CreateInput{CoinAddress: "0x123", Name: "A", Symbol: "A"}},
		{"empty name", 1, coinssvc.CreateInput{CoinAddress: testCoinAddress, Name: " ", Symbol: "A"}},
		{"long symbol", 1, coinssvc.CreateInput{CoinAddress: testCoinAddress, Name: "A", Symbol: "ABCDEFGHIJKL"}},
		{"unsupported chain", 1, coinssvc.CreateInput{CoinAddress: testCoinAddress, Name: "A", Symbol: "A", ChainID: 1}},
		{"bad tx hash", 1, coinssvc.CreateInput{CoinAddress: testCoinAddress, Name: "A", Symbol: "A", TxHash: "0xdead"}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := svc.Create(ctx, tc.fid, tc.in); !errors.Is(err, coinssvc.ErrValidation) {
				t.Fatalf("expected validation error, got %v", err)
			}
		})
	}
}

func TestGetCoinRequiresUUID(t *testing.T) {
	svc := newCoinService(memory.NewStore(), nil)

	if _, err := svc.Get(context.Background(), "not-a-uuid"); !errors.Is(err, coinssvc.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if _, err := svc.Get(context.Background(), "6f1d2c7e-3b7a-4d5e-9f00-0a1b2c3d4e5f"); !errors.Is(err, coinssvc.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestPrepareLaunchPinsMetadata(t *testing.T) {
	pinner := &recordingPinner{}
	svc := newCoinService(memory.NewStore(), pinner)

	params, err := svc.PrepareLaunch(context.Background(), coinssvc.PrepareInput{
		Name:            "Moon Rocket",
		Symbol:          "moon",
		PayoutRecipient: testPayout,
	})
	if err != nil {
		t.Fatalf("prepare launch: %v", err)
	}

	if params.MetadataURI != "ipfs://bafytestcid" {
		t.Fatalf("metadata uri = %q", params.MetadataURI)
	}
	if params.PlatformReferrer != testReferrer || params.PayoutRecipient != testPayout {
		t.Fatalf("unexpected launch params: %+v", params)
	}
	if pinner.name != "Moon Rocket metadata" {
		t.Fatalf("pin name = %q", pinner.name)
	}

	meta, ok := pinner.content.(coinssvc.Metadata)
	if !ok {
		t.Fatalf("pinned content type = %T", pinner.content)
	}
	if meta.Description != "Moon Rocket - Created on CastLaunchEarn" {
		t.Fatalf("default description = %q", meta.Description)
	}
	if meta.Image != testImage {
		t.Fatalf("default image = %q", meta.Image)
	}
	if len(meta.Attributes) != 3 || meta.Attributes[0].Value != "MOON" {
		t.Fatalf("unexpected attributes: %+v", meta.Attributes)
	}
}

func TestPrepareLaunchWrapsPinningFailure(t *testing.T) {
	svc := newCoinService(memory.NewStore(), &recordingPinner{err: errors.New("pinata down")})

	_, err := svc.PrepareLaunch(context.Background(), coinssvc.PrepareInput{
		Name:            "Moon",
		Symbol:          "MOON",
		PayoutRecipient: testPayout,
	})
	if !errors.Is(err, coinssvc.ErrPinning) {
		t.Fatalf("expected pinning error, got %v", err)
	}
}

func TestListCoinsFiltersByCreator(t *testing.T) {
	store := memory.NewStore()
	svc := newCoinService(store, nil)
	ctx := context.Background()

	addrs := []string{
		"0x1111111111111111111111111111111111111111",
		"0x2222222222222222222222222222222222222222",
		"0x3333333333333333333333333333333333333333",
	}
	for i, addr := range addrs {
		fid := int64(1)
		if i == 2 {
			fid = 2
		}
		if _, err := svc.Create(ctx, fid, coinssvc.CreateInput{CoinAddress: addr, Name: "C", Symbol: "C"}); err != nil {
			t.Fatalf("create %d: %v", i, err)
		}
	}

	mine, err := svc.List(ctx, model.CoinFilter{CreatorFID: 1})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(mine) != 2 {
		t.Fatalf("coins for creator 1 = %d, want 2", len(mine))
	}
}
