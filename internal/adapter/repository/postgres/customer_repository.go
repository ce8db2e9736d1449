package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/api-sage/retail-bank-ledger/internal/domain"
)

type CustomerRepository struct {
	db *sql.DB
}

func NewCustomerRepository(db *sql.DB) *CustomerRepository {
	return &CustomerRepository{db: db}
}

func (r *CustomerRepository) Create(ctx context.Context, customer domain.Customer) (domain.Customer, error) {
	const query = `
INSERT INTO customers (
	customer_id, customer_name, contact_number, email_address, post_code, transaction_pin_hash
) VALUES ($1, $2, $3, $4, $5, $6)
RETURNING created_at`

	var createdAt time.Time
	if err := r.db.QueryRowContext(
		ctx,
		query,
		customer.CustomerID,
		customer.CustomerName,
		customer.ContactNumber,
		customer.EmailAddress,
		customer.PostCode,
		customer.TransactionPinHash,
	).Scan(&createdAt); err != nil {
		return domain.Customer{}, fmt.Errorf("create customer: %w", err)
	}

	customer.CreatedAt = createdAt
	return customer, nil
}

func (r *CustomerRepository) GetByCustomerID(ctx context.Context, customerID uuid.UUID) (domain.Customer, error) {
	const query = `
SELECT customer_id, customer_name, contact_number, email_address, post_code, transaction_pin_hash, created_at
FROM customers WHERE customer_id = $1`

	var customer domain.Customer
	if err := r.db.QueryRowContext(ctx, query, customerID).Scan(
		&customer.CustomerID,
		&customer.CustomerName,
		&customer.ContactNumber,
		&customer.EmailAddress,
		&customer.PostCode,
		&customer.TransactionPinHash,
		&customer.CreatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Customer{}, fmt.Errorf("customer %s: %w", customerID, domain.ErrRecordNotFound)
		}
		return domain.Customer{}, fmt.Errorf("get customer: %w", err)
	}

	return customer, nil
}
