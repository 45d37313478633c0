package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"dreams-membership/internal/domain"
	"dreams-membership/internal/domain/model"
	"dreams-membership/internal/domain/ports/repository"
)

var _ repository.CustomerRepository = (*PostgresCustomerRepo)(nil)

type PostgresCustomerRepo struct {
	pool *pgxpool.Pool
}

func NewPostgresCustomerRepo(pool *pgxpool.Pool) *PostgresCustomerRepo {
	return &PostgresCustomerRepo{pool: pool}
}

const customerColumns = `id, user_id, external_customer_id, external_subscription_id, status, current_period_end, created_at, updated_at`

// GetOrCreate relies on the unique user_id constraint: the no-op DO UPDATE
// makes RETURNING yield the existing row when another caller won the insert.
func (r *PostgresCustomerRepo) GetOrCreate(ctx context.Context, tx repository.Tx, userID string) (*model.CustomerRecord, error) {
	if userID == "" {
		return nil, domain.ErrInvalidArgument
	}
	const q = `
INSERT INTO customer_records (id, user_id, status, created_at, updated_at)
VALUES ($1, $2, 'inactive', NOW(), NOW())
ON CONFLICT (user_id) DO UPDATE SET user_id = EXCLUDED.user_id
RETURNING ` + customerColumns + `;`
	row, err := pickRow(ctx, r.pool, tx, q, uuid.NewString(), userID)
	if err != nil {
		return nil, err
	}
	return scanCustomer(row)
}

func (r *PostgresCustomerRepo) FindByUserID(ctx context.Context, tx repository.Tx, userID string) (*model.CustomerRecord, error) {
	const q = `SELECT ` + customerColumns + ` FROM customer_records WHERE user_id = $1;`
	row, err := pickRow(ctx, r.pool, tx, q, userID)
	if err != nil {
		return nil, err
	}
	return scanCustomer(row)
}

func (r *PostgresCustomerRepo) FindByExternalCustomerID(ctx context.Context, tx repository.Tx, customerID string) (*model.CustomerRecord, error) {
	if customerID == "" {
		return nil, domain.ErrNotFound
	}
	const q = `SELECT ` + customerColumns + ` FROM customer_records WHERE external_customer_id = $1;`
	row, err := pickRow(ctx, r.pool, tx, q, customerID)
	if err != nil {
		return nil, err
	}
	return scanCustomer(row)
}

func (r *PostgresCustomerRepo) AssignExternalCustomerID(ctx context.Context, tx repository.Tx, userID, customerID string) (string, error) {
	if userID == "" || customerID == "" {
		return "", domain.ErrInvalidArgument
	}
	const upd = `
UPDATE customer_records
   SET external_customer_id = $2, updated_at = NOW()
 WHERE user_id = $1 AND external_customer_id = '';`
	if _, err := execSQL(ctx, r.pool, tx, upd, userID, customerID); err != nil {
		return "", err
	}

	const sel = `SELECT external_customer_id FROM customer_records WHERE user_id = $1;`
	row, err := pickRow(ctx, r.pool, tx, sel, userID)
	if err != nil {
		return "", err
	}
	var stored string
	if err := row.Scan(&stored); err != nil {
		return "", mapErr(err)
	}
	return stored, nil
}

func (r *PostgresCustomerRepo) UpdateStatus(ctx context.Context, tx repository.Tx, userID string, status model.SubscriptionStatus, subscriptionID *string, periodEnd *time.Time) error {
	const q = `
UPDATE customer_records
   SET status = $2,
       external_subscription_id = COALESCE($3, external_subscription_id),
       current_period_end = COALESCE($4, current_period_end),
       updated_at = NOW()
 WHERE user_id = $1;`
	tag, err := execSQL(ctx, r.pool, tx, q, userID, string(status), subscriptionID, periodEnd)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func scanCustomer(row pgx.Row) (*model.CustomerRecord, error) {
	var (
		c      model.CustomerRecord
		status string
	)
	if err := row.Scan(&c.ID, &c.UserID, &c.ExternalCustomerID, &c.ExternalSubscriptionID, &status, &c.CurrentPeriodEnd, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return nil, mapErr(err)
	}
	c.Status = model.SubscriptionStatus(status)
	return &c, nil
}
