package coins

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Maliot100X/CastLaunchEarn/backend/internal/domain/enums"
	"github.com/Maliot100X/CastLaunchEarn/backend/internal/domain/model"
	"github.com/Maliot100X/CastLaunchEarn/backend/internal/pkg/validate"
	scoringsvc "github.com/Maliot100X/CastLaunchEarn/backend/internal/services/scoring"
)

const (
	DefaultListLimit = 50
	MaxListLimit     = 200

	maxNameLen        = 64
	maxDescriptionLen = 1000
)

var (
	ErrValidation   = errors.New("validation error")
	ErrNotFound     = errors.New("coin not found")
	ErrAlreadyExist = errors.New("coin already exists")
	ErrPinning      = errors.New("metadata pinning failed")
)

type Store interface {
	CreateCoin(ctx context.Context, coin model.Coin) (model.Coin, error)
	GetCoin(ctx context.Context, id string) (model.Coin, error)
	ListCoins(ctx context.Context, filter model.CoinFilter) ([]model.Coin, error)
	GetCoinsByIDs(ctx context.Context, ids []string) (map[string]model.Coin, error)
	CountCoinsByCreator(ctx context.Context, fid int64) (int64, error)
}

type Scorer interface {
	Award(ctx context.Context, fid int64, event enums.ScoreEvent, quantity int64) (scoringsvc.AwardResult, error)
}

// Pinner stores a JSON document on IPFS and returns its ipfs:// URI.
type Pinner interface {
	PinJSON(ctx context.Context, name string, content any) (string, error)
}

type Config struct {
	PlatformName     string
	PlatformReferrer string
	DefaultImageURI  string
	DefaultChainID   int64
}

type Service struct {
	store  Store
	scorer Scorer
	pinner Pinner
	cfg    Config
	log    *zap.Logger
	now    func() time.Time
}

type Dependencies struct {
	Store  Store
	Scorer Scorer
	Pinner Pinner
	Logger *zap.Logger
}

type CreateInput struct {
	CoinAddress string
	Name        string
	Symbol      string
	Description string
	ImageURL    string
	MetadataURI string
	ChainID     int64
	TxHash      string
}

type CreateResult struct {
	Coin         model.Coin
	ScoreAwarded int64
}

type PrepareInput struct {
	Name            string
	Symbol          string
	Description     string
	ImageURL        string
	ChainID         int64
	PayoutRecipient string
}

type MetadataAttribute struct {
	TraitType string `json:"trait_type"`
	Value     string `json:"value"`
}

type Metadata struct {
	Name        string              `json:"name"`
	Description string              `json:"description"`
	Image       string              `json:"image"`
	Attributes  []MetadataAttribute `json:"attributes,omitempty"`
}

// LaunchParams is what the client hands to the token-creation SDK.
type LaunchParams struct {
	Name             string
	Symbol           string
	MetadataURI      string
	Metadata         Metadata
	PayoutRecipient  string
	PlatformReferrer string
	ChainID          int64
}

func NewService(deps Dependencies, cfg Config) *Service {
	if cfg.PlatformName == "" {
		cfg.PlatformName = "CastLaunchEarn"
	}
	if cfg.DefaultChainID == 0 {
		cfg.DefaultChainID = int64(enums.ChainBase)
	}
	log := deps.Logger
	if log == nil {
		log = zap.NewNop()
	}

	return &Service{
		store:  deps.Store,
		scorer: deps.Scorer,
		pinner: deps.Pinner,
		cfg:    cfg,
		log:    log,
		now:    time.Now,
	}
}

// Create records a deployed coin and credits its creator. A failed score
// award is logged and does not undo the coin.
func (s *Service) Create(ctx context.Context, creatorFID int64, in CreateInput) (CreateResult, error) {
	if s.store == nil {
		return CreateResult{}, fmt.Errorf("coin store is nil")
	}
	if creatorFID <= 0 {
		return CreateResult{}, ErrValidation
	}

	in.Name = strings.TrimSpace(in.Name)
	in.Symbol = strings.ToUpper(strings.TrimSpace(in.Symbol))
	in.CoinAddress = strings.ToLower(strings.TrimSpace(in.CoinAddress))
	in.TxHash = strings.ToLower(strings.TrimSpace(in.TxHash))
	if in.ChainID == 0 {
		in.ChainID = s.cfg.DefaultChainID
	}

	if !validate.Required(in.Name) || !validate.MaxLen(in.Name, maxNameLen) ||
		!validate.Symbol(in.Symbol) || !validate.Address(in.CoinAddress) ||
		!validate.MaxLen(in.Description, maxDescriptionLen) ||
		!enums.ChainID(in.ChainID).Supported() {
		return CreateResult{}, ErrValidation
	}
	if in.TxHash != "" && !validate.TxHash(in.TxHash) {
		return CreateResult{}, ErrValidation
	}

	coin, err := s.store.CreateCoin(ctx, model.Coin{
		ID:          uuid.NewString(),
		CreatorFID:  creatorFID,
		CoinAddress: in.CoinAddress,
		Name:        in.Name,
		Symbol:      in.Symbol,
		Description: strings.TrimSpace(in.Description),
		ImageURL:    strings.TrimSpace(in.ImageURL),
		MetadataURI: strings.TrimSpace(in.MetadataURI),
		ChainID:     in.ChainID,
		TxHash:      in.TxHash,
		CreatedAt:   s.now().UTC(),
	})
	if err != nil {
		if errors.Is(err, ErrAlreadyExist) {
			return CreateResult{}, ErrAlreadyExist
		}
		return CreateResult{}, fmt.Errorf("create coin: %w", err)
	}

	result := CreateResult{Coin: coin}
	if s.scorer != nil {
		award, err := s.scorer.Award(ctx, creatorFID, enums.ScoreEventCoinCreated, 1)
		if err != nil {
			s.log.Warn("award coin creation score failed",
				zap.Int64("fid", creatorFID),
				zap.String("coin_id", coin.ID),
				zap.Error(err),
			)
		} else {
			result.ScoreAwarded = award.Delta
		}
	}

	return result, nil
}

func (s *Service) Get(ctx context.Context, id string) (model.Coin, error) {
	if s.store == nil {
		return model.Coin{}, fmt.Errorf("coin store is nil")
	}
	id = strings.TrimSpace(id)
	if _, err := uuid.Parse(id); err != nil {
		return model.Coin{}, ErrValidation
	}

	coin, err := s.store.GetCoin(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return model.Coin{}, ErrNotFound
		}
		return model.Coin{}, fmt.Errorf("get coin: %w", err)
	}
	return coin, nil
}

// List returns the newest coins first.
func (s *Service) List(ctx context.Context, filter model.CoinFilter) ([]model.Coin, error) {
	if s.store == nil {
		return nil, fmt.Errorf("coin store is nil")
	}
	if filter.CreatorFID < 0 {
		return nil, ErrValidation
	}
	if filter.Limit <= 0 {
		filter.Limit = DefaultListLimit
	}
	if filter.Limit > MaxListLimit {
		filter.Limit = MaxListLimit
	}

	items, err := s.store.ListCoins(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list coins: %w", err)
	}
	return items, nil
}

func (s *Service) CountByCreator(ctx context.Context, fid int64) (int64, error) {
	if s.store == nil {
		return 0, fmt.Errorf("coin store is nil")
	}
	if fid <= 0 {
		return 0, ErrValidation
	}

	n, err := s.store.CountCoinsByCreator(ctx, fid)
	if err != nil {
		return 0, fmt.Errorf("count coins: %w", err)
	}
	return n, nil
}

// PrepareLaunch builds and pins the token metadata and returns the
// parameters the client needs to deploy.
func (s *Service) PrepareLaunch(ctx context.Context, in PrepareInput) (LaunchParams, error) {
	if s.pinner == nil {
		return LaunchParams{}, fmt.Errorf("metadata pinner is nil")
	}

	in.Name = strings.TrimSpace(in.Name)
	in.Symbol = strings.ToUpper(strings.TrimSpace(in.Symbol))
	in.PayoutRecipient = strings.ToLower(strings.TrimSpace(in.PayoutRecipient))
	if in.ChainID == 0 {
		in.ChainID = s.cfg.DefaultChainID
	}
	if !validate.Required(in.Name) || !validate.MaxLen(in.Name, maxNameLen) ||
		!validate.Symbol(in.Symbol) || !validate.Address(in.PayoutRecipient) ||
		!validate.MaxLen(in.Description, maxDescriptionLen) ||
		!enums.ChainID(in.ChainID).Supported() {
		return LaunchParams{}, ErrValidation
	}

	metadata := s.BuildMetadata(in.Name, in.Symbol, in.Description, in.ImageURL)
	uri, err := s.pinner.PinJSON(ctx, in.Name+" metadata", metadata)
	if err != nil {
		s.log.Warn("pin coin metadata failed", zap.String("name", in.Name), zap.Error(err))
		return LaunchParams{}, fmt.Errorf("%w: %v", ErrPinning, err)
	}

	return LaunchParams{
		Name:             in.Name,
		Symbol:           in.Symbol,
		MetadataURI:      uri,
		Metadata:         metadata,
		PayoutRecipient:  in.PayoutRecipient,
		PlatformReferrer: s.cfg.PlatformReferrer,
		ChainID:          in.ChainID,
	}, nil
}

func (s *Service) BuildMetadata(name, symbol, description, imageURL string) Metadata {
	description = strings.TrimSpace(description)
	if description == "" {
		description = name + " - Created on " + s.cfg.PlatformName
	}
	imageURL = strings.TrimSpace(imageURL)
	if imageURL == "" {
		imageURL = s.cfg.DefaultImageURI
	}

	return Metadata{
		Name:        name,
		Description: description,
		Image:       imageURL,
		Attributes: []MetadataAttribute{
			{TraitType: "Symbol", Value: symbol},
			{TraitType: "Platform", Value: s.cfg.PlatformName},
			{TraitType: "Created", Value: s.now().UTC().Format(time.RFC3339)},
		},
	}
}
