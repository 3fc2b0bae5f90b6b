package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Maliot100X/CastLaunchEarn/backend/internal/domain/model"
	coinssvc "github.com/Maliot100X/CastLaunchEarn/backend/internal/services/coins"
)

const coinColumns = `id::text, creator_fid, coin_address, name, symbol, description, image_url, metadata_uri, chain_id, tx_hash, created_at`

type CoinRepo struct {
	pool *pgxpool.Pool
}

func NewCoinRepo(pool *pgxpool.Pool) *CoinRepo {
	return &CoinRepo{pool: pool}
}

func (r *CoinRepo) CreateCoin(ctx context.Context, coin model.Coin) (model.Coin, error) {
	if r.pool == nil {
		return model.Coin{}, fmt.Errorf("postgres pool is nil")
	}

	created, err := scanCoin(r.pool.QueryRow(ctx, `
INSERT INTO coins (id, creator_fid, coin_address, name, symbol, description, image_url, metadata_uri, chain_id, tx_hash, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
RETURNING `+coinColumns,
		coin.ID,
		coin.CreatorFID,
		coin.CoinAddress,
		coin.Name,
		coin.Symbol,
		coin.Description,
		coin.ImageURL,
		coin.MetadataURI,
		coin.ChainID,
		coin.TxHash,
		coin.CreatedAt,
	))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return model.Coin{}, coinssvc.ErrAlreadyExist
		}
		return model.Coin{}, fmt.Errorf("insert coin: %w", err)
	}
	return created, nil
}

func (r *CoinRepo) GetCoin(ctx context.Context, id string) (model.Coin, error) {
	if r.pool == nil {
		return model.Coin{}, fmt.Errorf("postgres pool is nil")
	}

	coin, err := scanCoin(r.pool.QueryRow(ctx, `SELECT `+coinColumns+` FROM coins WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Coin{}, coinssvc.ErrNotFound
		}
		return model.Coin{}, fmt.Errorf("get coin: %w", err)
	}
	return coin, nil
}

func (r *CoinRepo) ListCoins(ctx context.Context, filter model.CoinFilter) ([]model.Coin, error) {
	if r.pool == nil {
		return nil, fmt.Errorf("postgres pool is nil")
	}

	rows, err := r.pool.Query(ctx, `
SELECT `+coinColumns+`
FROM coins
WHERE ($1::bigint = 0 OR creator_fid = $1)
ORDER BY created_at DESC, id ASC
LIMIT $2
`, filter.CreatorFID, filter.Limit)
	if err != nil {
		return nil, fmt.Errorf("list coins: %w", err)
	}
	return collectCoins(rows)
}

func (r *CoinRepo) GetCoinsByIDs(ctx context.Context, ids []string) (map[string]model.Coin, error) {
	if r.pool == nil {
		return nil, fmt.Errorf("postgres pool is nil")
	}
	out := make(map[string]model.Coin, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	rows, err := r.pool.Query(ctx, `SELECT `+coinColumns+` FROM coins WHERE id = ANY($1::uuid[])`, ids)
	if err != nil {
		return nil, fmt.Errorf("get coins by ids: %w", err)
	}
	coins, err := collectCoins(rows)
	if err != nil {
		return nil, err
	}
	for _, coin := range coins {
		out[coin.ID] = coin
	}
	return out, nil
}

func (r *CoinRepo) CountCoinsByCreator(ctx context.Context, fid int64) (int64, error) {
	if r.pool == nil {
		return 0, fmt.Errorf("postgres pool is nil")
	}

	var n int64
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM coins WHERE creator_fid = $1`, fid).Scan(&n); err != nil {
		return 0, fmt.Errorf("count coins: %w", err)
	}
	return n, nil
}

func collectCoins(rows pgx.Rows) ([]model.Coin, error) {
	defer rows.Close()

	coins := make([]model.Coin, 0)
	for rows.Next() {
		coin, err := scanCoin(rows)
		if err != nil {
			return nil, fmt.Errorf("scan coin: %w", err)
		}
		coins = append(coins, coin)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate coins: %w", err)
	}
	return coins, nil
}

func scanCoin(row pgx.Row) (model.Coin, error) {
	var coin model.Coin
	err := row.Scan(
		&coin.ID,
		&coin.CreatorFID,
		&coin.CoinAddress,
		&coin.Name,
		&coin.Symbol,
		&coin.Description,
		&coin.ImageURL,
		&coin.MetadataURI,
		&coin.ChainID,
		&coin.TxHash,
		&coin.CreatedAt,
	)
	return coin, err
}
