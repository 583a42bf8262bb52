package customers

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresRepository stores customers in the relational database.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository initializes a repo backed by pgxpool.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	if pool == nil {
		panic("customers: pgx pool required")
	}
	return &PostgresRepository{pool: pool}
}

// GetOrCreateByPhone upserts on the normalized phone. COALESCE keeps existing
// identity fields when the new profile has blanks.
func (r *PostgresRepository) GetOrCreateByPhone(ctx context.Context, phone string, profile Profile) (*Customer, error) {
	key := NormalizePhone(phone)
	id := uuid.New()
	query := `
		INSERT INTO customers (id, name, phone, email, address, source)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (phone) DO UPDATE SET
			name = COALESCE(NULLIF(customers.name, ''), EXCLUDED.name),
			email = COALESCE(NULLIF(customers.email, ''), EXCLUDED.email),
			address = COALESCE(NULLIF(customers.address, ''), EXCLUDED.address),
			updated_at = now()
		RETURNING id, name, phone, email, address, source, created_at, updated_at
	`
	row := r.pool.QueryRow(ctx, query, id, profile.Name, key, profile.Email, profile.Address, profile.Source)
	return scanCustomer(row)
}

// GetByID fetches a customer by ID.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*Customer, error) {
	query := `
		SELECT id, name, phone, email, address, source, created_at, updated_at
		FROM customers
		WHERE id = $1
	`
	row := r.pool.QueryRow(ctx, query, id)
	customer, err := scanCustomer(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrCustomerNotFound
		}
		return nil, err
	}
	return customer, nil
}

func scanCustomer(row pgx.Row) (*Customer, error) {
	var c Customer
	if err := row.Scan(
		&c.ID,
		&c.Name,
		&c.Phone,
		&c.Email,
		&c.Address,
		&c.Source,
		&c.CreatedAt,
		&c.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("customers: scan failed: %w", err)
	}
	return &c, nil
}
