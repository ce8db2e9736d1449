package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/api-sage/retail-bank-ledger/internal/limits"
)

// TransactionLogEntry is one committed debit, logged for daily-limit
// aggregation and statements.
type TransactionLogEntry struct {
	TxID        uuid.UUID
	AccountID   uuid.UUID
	DebitType   limits.DebitType
	AmountCents int64
	Currency    string
	CreatedAt   time.Time
}

// TransactionLogRepository records committed debits. It implements
// limits.TransactionLog for the advisory daily-limit checks.
type TransactionLogRepository struct {
	db *sql.DB
}

func NewTransactionLogRepository(db *sql.DB) *TransactionLogRepository {
	return &TransactionLogRepository{db: db}
}

func (r *TransactionLogRepository) Record(ctx context.Context, entry TransactionLogEntry) error {
	const query = `
INSERT INTO transaction_log (tx_id, account_id, debit_type, amount_cents, currency, created_at)
VALUES ($1, $2, $3, $4, $5, $6)`

	if _, err := r.db.ExecContext(
		ctx,
		query,
		entry.TxID,
		entry.AccountID,
		entry.DebitType,
		entry.AmountCents,
		entry.Currency,
		entry.CreatedAt,
	); err != nil {
		return fmt.Errorf("record transaction log entry: %w", err)
	}

	return nil
}

// SumDebitsForDay totals same-day debits of one kind for an account. The day
// boundary is UTC midnight.
func (r *TransactionLogRepository) SumDebitsForDay(ctx context.Context, accountID uuid.UUID, debitType limits.DebitType, day time.Time) (int64, error) {
	dayStart := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC)
	dayEnd := dayStart.AddDate(0, 0, 1)

	const query = `
SELECT COALESCE(SUM(amount_cents), 0)
FROM transaction_log
WHERE account_id = $1 AND debit_type = $2 AND created_at >= $3 AND created_at < $4`

	var sum int64
	if err := r.db.QueryRowContext(ctx, query, accountID, debitType, dayStart, dayEnd).Scan(&sum); err != nil {
		return 0, fmt.Errorf("sum %s debits: %w", debitType, err)
	}
	return sum, nil
}
