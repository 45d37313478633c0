package postgres

import (
	"context"

	"github.com/jackc/pgx/v4/pgxpool"

	"dreams-membership/internal/domain"
	"dreams-membership/internal/domain/model"
	"dreams-membership/internal/domain/ports/repository"
)

var _ repository.UserRepository = (*PostgresUserRepo)(nil)

// PostgresUserRepo reads accounts owned by the site's auth system.
type PostgresUserRepo struct {
	pool *pgxpool.Pool
}

func NewPostgresUserRepo(pool *pgxpool.Pool) *PostgresUserRepo {
	return &PostgresUserRepo{pool: pool}
}

func (r *PostgresUserRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.User, error) {
	if id == "" {
		return nil, domain.ErrInvalidArgument
	}
	const q = `SELECT id, username, email, joined_at FROM users WHERE id = $1;`
	row, err := pickRow(ctx, r.pool, tx, q, id)
	if err != nil {
		return nil, err
	}
	var u model.User
	if err := row.Scan(&u.ID, &u.Username, &u.Email, &u.JoinedAt); err != nil {
		return nil, mapErr(err)
	}
	return &u, nil
}
