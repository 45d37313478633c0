package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"

	"dreams-membership/internal/domain/model"
	"dreams-membership/internal/domain/ports/repository"
)

var _ repository.AdminGrantRepository = (*PostgresAdminGrantRepo)(nil)

type PostgresAdminGrantRepo struct {
	pool *pgxpool.Pool
}

func NewPostgresAdminGrantRepo(pool *pgxpool.Pool) *PostgresAdminGrantRepo {
	return &PostgresAdminGrantRepo{pool: pool}
}

func (r *PostgresAdminGrantRepo) FindByUserID(ctx context.Context, tx repository.Tx, userID string) (*model.AdminGrant, error) {
	const q = `
SELECT id, user_id, active, expires_at, notes, created_at
  FROM admin_grants WHERE user_id = $1;`
	row, err := pickRow(ctx, r.pool, tx, q, userID)
	if err != nil {
		return nil, err
	}
	var g model.AdminGrant
	if err := row.Scan(&g.ID, &g.UserID, &g.Active, &g.ExpiresAt, &g.Notes, &g.CreatedAt); err != nil {
		return nil, mapErr(err)
	}
	return &g, nil
}

func (r *PostgresAdminGrantRepo) ListUsersExpiredBetween(ctx context.Context, tx repository.Tx, from, to time.Time) ([]string, error) {
	const q = `
SELECT user_id
  FROM admin_grants
 WHERE active AND expires_at >= $1::date AND expires_at < $2::date
 ORDER BY user_id;`
	rows, err := queryRows(ctx, r.pool, tx, q, from.UTC(), to.UTC())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, mapErr(err)
		}
		out = append(out, id)
	}
	return out, mapErr(rows.Err())
}
