package postgres

import (
	"context"

	"github.com/jackc/pgx/v4/pgxpool"

	"dreams-membership/internal/domain"
	"dreams-membership/internal/domain/model"
	"dreams-membership/internal/domain/ports/repository"
)

var _ repository.ProfileRepository = (*PostgresProfileRepo)(nil)

type PostgresProfileRepo struct {
	pool *pgxpool.Pool
}

func NewPostgresProfileRepo(pool *pgxpool.Pool) *PostgresProfileRepo {
	return &PostgresProfileRepo{pool: pool}
}

func (r *PostgresProfileRepo) FindByUserID(ctx context.Context, tx repository.Tx, userID string) (*model.UserProfile, error) {
	const q = `SELECT user_id, is_patron, updated_at FROM user_profiles WHERE user_id = $1;`
	row, err := pickRow(ctx, r.pool, tx, q, userID)
	if err != nil {
		return nil, err
	}
	var p model.UserProfile
	if err := row.Scan(&p.UserID, &p.IsPatron, &p.UpdatedAt); err != nil {
		return nil, mapErr(err)
	}
	return &p, nil
}

func (r *PostgresProfileRepo) Create(ctx context.Context, tx repository.Tx, p *model.UserProfile) (bool, error) {
	if p == nil || p.UserID == "" {
		return false, domain.ErrInvalidArgument
	}
	const q = `
INSERT INTO user_profiles (user_id, is_patron, updated_at)
VALUES ($1, $2, $3)
ON CONFLICT (user_id) DO NOTHING;`
	tag, err := execSQL(ctx, r.pool, tx, q, p.UserID, p.IsPatron, p.UpdatedAt)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (r *PostgresProfileRepo) SetPatron(ctx context.Context, tx repository.Tx, userID string, isPatron bool) error {
	if userID == "" {
		return domain.ErrInvalidArgument
	}
	const q = `
INSERT INTO user_profiles (user_id, is_patron, updated_at)
VALUES ($1, $2, NOW())
ON CONFLICT (user_id) DO UPDATE SET is_patron = EXCLUDED.is_patron, updated_at = NOW();`
	_, err := execSQL(ctx, r.pool, tx, q, userID, isPatron)
	return err
}

func (r *PostgresProfileRepo) ListUserIDs(ctx context.Context, tx repository.Tx, afterUserID string, limit int) ([]string, error) {
	if limit <= 0 {
		limit = 100
	}
	const q = `
SELECT user_id FROM user_profiles
 WHERE user_id > $1
 ORDER BY user_id
 LIMIT $2;`
	rows, err := queryRows(ctx, r.pool, tx, q, afterUserID, limit)
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
