package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type Customer struct {
	CustomerID         uuid.UUID
	CustomerName       string
	ContactNumber      string
	EmailAddress       string
	PostCode           string
	TransactionPinHash string
	CreatedAt          time.Time
}

type CustomerRepository interface {
	Create(ctx context.Context, customer Customer) (Customer, error)
	GetByCustomerID(ctx context.Context, customerID uuid.UUID) (Customer, error)
}
