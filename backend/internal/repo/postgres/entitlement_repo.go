package postgres

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Maliot100X/CastLaunchEarn/backend/internal/domain/enums"
	"github.com/Maliot100X/CastLaunchEarn/backend/internal/domain/model"
)

const entitlementColumns = `seq, id::text, subject_type, subject_id, kind, price_paid_cents, started_at, expires_at, COALESCE(payment_reference, '')`

// EntitlementRepo is the append-only boost and subscription ledger.
type EntitlementRepo struct {
	pool *pgxpool.Pool
}

func NewEntitlementRepo(pool *pgxpool.Pool) *EntitlementRepo {
	return &EntitlementRepo{pool: pool}
}

// InsertEntitlement appends rec. A payment reference pays for one row only:
// when it is already recorded, that row is returned with created=false even
// if it belongs to another subject.
func (r *EntitlementRepo) InsertEntitlement(ctx context.Context, rec model.Entitlement) (model.Entitlement, bool, error) {
	if r.pool == nil {
		return model.Entitlement{}, false, fmt.Errorf("postgres pool is nil")
	}

	var (
		stored  model.Entitlement
		created bool
	)
	err := WithTx(ctx, r.pool, pgx.TxOptions{}, func(tx pgx.Tx) error {
		row := tx.QueryRow(ctx, `
INSERT INTO entitlements (id, subject_type, subject_id, kind, price_paid_cents, started_at, expires_at, payment_reference)
VALUES ($1, $2, $3, $4, $5, $6, $7, NULLIF($8, ''))
ON CONFLICT (payment_reference) WHERE payment_reference IS NOT NULL DO NOTHING
RETURNING `+entitlementColumns,
			rec.ID,
			string(rec.SubjectType),
			rec.SubjectID,
			string(rec.Kind),
			rec.PricePaidCents,
			rec.StartedAt,
			rec.ExpiresAt,
			rec.PaymentRef,
		)

		var err error
		stored, err = scanEntitlement(row)
		if err == nil {
			created = true
			return nil
		}
		if !errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("insert entitlement: %w", err)
		}

		// The conflicting row is committed, so it is visible to this statement.
		stored, err = scanEntitlement(tx.QueryRow(ctx, `
SELECT `+entitlementColumns+`
FROM entitlements
WHERE payment_reference = $1
`, rec.PaymentRef))
		if err != nil {
			return fmt.Errorf("load entitlement for payment reference: %w", err)
		}
		return nil
	})
	if err != nil {
		return model.Entitlement{}, false, err
	}
	return stored, created, nil
}

func (r *EntitlementRepo) ListActiveEntitlements(ctx context.Context, now time.Time, filter model.EntitlementFilter) ([]model.Entitlement, error) {
	if r.pool == nil {
		return nil, fmt.Errorf("postgres pool is nil")
	}

	args := []any{now.UTC()}
	where := []string{"expires_at > $1"}
	if filter.Scope != "" {
		args = append(args, kindsForScope(filter.Scope))
		where = append(where, "kind = ANY($"+strconv.Itoa(len(args))+")")
	}
	if filter.SubjectType != "" {
		args = append(args, string(filter.SubjectType))
		where = append(where, "subject_type = $"+strconv.Itoa(len(args)))
	}
	if filter.SubjectID != "" {
		args = append(args, filter.SubjectID)
		where = append(where, "subject_id = $"+strconv.Itoa(len(args)))
	}

	query := `SELECT ` + entitlementColumns + ` FROM entitlements WHERE ` + strings.Join(where, " AND ") +
		` ORDER BY expires_at DESC, seq ASC`
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += " LIMIT $" + strconv.Itoa(len(args))
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list active entitlements: %w", err)
	}
	return collectEntitlements(rows)
}

func (r *EntitlementRepo) CountActiveEntitlements(ctx context.Context, now time.Time, scope enums.Scope) (int64, error) {
	if r.pool == nil {
		return 0, fmt.Errorf("postgres pool is nil")
	}

	var n int64
	err := r.pool.QueryRow(ctx, `
SELECT count(*)
FROM entitlements
WHERE expires_at > $1 AND kind = ANY($2)
`, now.UTC(), kindsForScope(scope)).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count active entitlements: %w", err)
	}
	return n, nil
}

func (r *EntitlementRepo) FindEntitlementsByPaymentRef(ctx context.Context, paymentRef string) ([]model.Entitlement, error) {
	if r.pool == nil {
		return nil, fmt.Errorf("postgres pool is nil")
	}

	rows, err := r.pool.Query(ctx, `
SELECT `+entitlementColumns+`
FROM entitlements
WHERE payment_reference = $1
ORDER BY seq ASC
`, paymentRef)
	if err != nil {
		return nil, fmt.Errorf("find entitlements by payment reference: %w", err)
	}
	return collectEntitlements(rows)
}

func kindsForScope(scope enums.Scope) []string {
	var kinds []enums.EntitlementKind
	switch scope {
	case enums.ScopeBoost:
		kinds = enums.BoostKinds
	case enums.ScopeSubscription:
		kinds = enums.SubscriptionKinds
	}

	out := make([]string, 0, len(kinds))
	for _, k := range kinds {
		out = append(out, string(k))
	}
	return out
}

func collectEntitlements(rows pgx.Rows) ([]model.Entitlement, error) {
	defer rows.Close()

	out := make([]model.Entitlement, 0)
	for rows.Next() {
		rec, err := scanEntitlement(rows)
		if err != nil {
			return nil, fmt.Errorf("scan entitlement: %w", err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate entitlements: %w", err)
	}
	return out, nil
}

func scanEntitlement(row pgx.Row) (model.Entitlement, error) {
	var (
		rec         model.Entitlement
		subjectType string
		kind        string
	)
	err := row.Scan(
		&rec.Seq,
		&rec.ID,
		&subjectType,
		&rec.SubjectID,
		&kind,
		&rec.PricePaidCents,
		&rec.StartedAt,
		&rec.ExpiresAt,
		&rec.PaymentRef,
	)
	rec.SubjectType = enums.SubjectType(subjectType)
	rec.Kind = enums.EntitlementKind(kind)
	return rec, err
}
