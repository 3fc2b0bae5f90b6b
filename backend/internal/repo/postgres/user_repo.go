package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Maliot100X/CastLaunchEarn/backend/internal/domain/model"
	userssvc "github.com/Maliot100X/CastLaunchEarn/backend/internal/services/users"
)

const userColumns = `fid, username, display_name, pfp_url, wallet_address, score, notifications_enabled, created_at, updated_at`

type UserRepo struct {
	pool *pgxpool.Pool
}

func NewUserRepo(pool *pgxpool.Pool) *UserRepo {
	return &UserRepo{pool: pool}
}

// UpsertUser creates the user or refreshes profile fields. Empty values keep
// what is stored.
func (r *UserRepo) UpsertUser(ctx context.Context, profile model.UserProfile) (model.User, error) {
	if r.pool == nil {
		return model.User{}, fmt.Errorf("postgres pool is nil")
	}
	if profile.FID <= 0 {
		return model.User{}, fmt.Errorf("invalid fid")
	}

	row := r.pool.QueryRow(ctx, `
INSERT INTO users (fid, username, display_name, pfp_url, wallet_address, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, NOW(), NOW())
ON CONFLICT (fid) DO UPDATE SET
	username = COALESCE(NULLIF(EXCLUDED.username, ''), users.username),
	display_name = COALESCE(NULLIF(EXCLUDED.display_name, ''), users.display_name),
	pfp_url = COALESCE(NULLIF(EXCLUDED.pfp_url, ''), users.pfp_url),
	wallet_address = COALESCE(NULLIF(EXCLUDED.wallet_address, ''), users.wallet_address),
	updated_at = NOW()
RETURNING `+userColumns, profile.FID, profile.Username, profile.DisplayName, profile.PfpURL, profile.WalletAddress)

	user, err := scanUser(row)
	if err != nil {
		return model.User{}, fmt.Errorf("upsert user: %w", err)
	}
	return user, nil
}

func (r *UserRepo) GetUser(ctx context.Context, fid int64) (model.User, error) {
	if r.pool == nil {
		return model.User{}, fmt.Errorf("postgres pool is nil")
	}

	user, err := scanUser(r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE fid = $1`, fid))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.User{}, userssvc.ErrNotFound
		}
		return model.User{}, fmt.Errorf("get user: %w", err)
	}
	return user, nil
}

func (r *UserRepo) ListTopUsers(ctx context.Context, limit int) ([]model.User, error) {
	if r.pool == nil {
		return nil, fmt.Errorf("postgres pool is nil")
	}

	rows, err := r.pool.Query(ctx, `
SELECT `+userColumns+`
FROM users
ORDER BY score DESC, fid ASC
LIMIT $1
`, limit)
	if err != nil {
		return nil, fmt.Errorf("list top users: %w", err)
	}
	defer rows.Close()

	users := make([]model.User, 0, limit)
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan top user: %w", err)
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate top users: %w", err)
	}
	return users, nil
}

func (r *UserRepo) RankOf(ctx context.Context, fid int64) (int, error) {
	if r.pool == nil {
		return 0, fmt.Errorf("postgres pool is nil")
	}

	var rank int
	err := r.pool.QueryRow(ctx, `
SELECT 1 + COUNT(*) FILTER (WHERE u.score > me.score)
FROM users me
CROSS JOIN users u
WHERE me.fid = $1
GROUP BY me.fid
`, fid).Scan(&rank)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, userssvc.ErrNotFound
		}
		return 0, fmt.Errorf("rank user: %w", err)
	}
	return rank, nil
}

func (r *UserRepo) SetNotifications(ctx context.Context, fid int64, enabled bool) error {
	if r.pool == nil {
		return fmt.Errorf("postgres pool is nil")
	}

	if _, err := r.pool.Exec(ctx, `
INSERT INTO users (fid, notifications_enabled, created_at, updated_at)
VALUES ($1, $2, NOW(), NOW())
ON CONFLICT (fid) DO UPDATE SET
	notifications_enabled = EXCLUDED.notifications_enabled,
	updated_at = NOW()
`, fid, enabled); err != nil {
		return fmt.Errorf("set notifications: %w", err)
	}
	return nil
}

// AdjustScore applies delta in one statement so concurrent credits never
// overwrite each other. Unknown users are created with the delta as score.
func (r *UserRepo) AdjustScore(ctx context.Context, fid int64, delta int64) (int64, error) {
	if r.pool == nil {
		return 0, fmt.Errorf("postgres pool is nil")
	}

	var score int64
	err := r.pool.QueryRow(ctx, `
INSERT INTO users (fid, score, created_at, updated_at)
VALUES ($1, $2, NOW(), NOW())
ON CONFLICT (fid) DO UPDATE SET
	score = users.score + EXCLUDED.score,
	updated_at = NOW()
RETURNING score
`, fid, delta).Scan(&score)
	if err != nil {
		return 0, fmt.Errorf("adjust score: %w", err)
	}
	return score, nil
}

func scanUser(row pgx.Row) (model.User, error) {
	var user model.User
	err := row.Scan(
		&user.FID,
		&user.Username,
		&user.DisplayName,
		&user.PfpURL,
		&user.WalletAddress,
		&user.Score,
		&user.NotificationsEnabled,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	return user, err
}
