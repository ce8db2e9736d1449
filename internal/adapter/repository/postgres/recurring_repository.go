package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/api-sage/retail-bank-ledger/internal/domain"
	"github.com/api-sage/retail-bank-ledger/internal/money"
)

// RecurringPaymentRepository projects committed recurring payment states for
// reporting. Rows are upserted on create/execute and removed on cancel.
type RecurringPaymentRepository struct {
	db *sql.DB
}

func NewRecurringPaymentRepository(db *sql.DB) *RecurringPaymentRepository {
	return &RecurringPaymentRepository{db: db}
}

var recurringSortFields = map[string]struct{}{
	"account_from": {},
	"account_to":   {},
	"amount":       {},
	"date_start":   {},
}

func (r *RecurringPaymentRepository) Save(ctx context.Context, payment domain.RecurringPaymentState) error {
	const query = `
INSERT INTO recurring_payments (
	linear_id, account_from, account_to, amount, currency, date_start,
	period_seconds, iteration_num, owner_name, owner_key
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
ON CONFLICT (linear_id) DO UPDATE SET
	date_start = EXCLUDED.date_start,
	iteration_num = EXCLUDED.iteration_num,
	updated_at = NOW()`

	if _, err := r.db.ExecContext(
		ctx,
		query,
		payment.LinearID,
		payment.AccountFrom,
		payment.AccountTo,
		payment.Amount.Quantity.String(),
		payment.Amount.Currency,
		payment.DateStart,
		int64(payment.Period.Seconds()),
		payment.IterationNum,
		payment.OwningParty.Name,
		payment.OwningParty.Key,
	); err != nil {
		return fmt.Errorf("save recurring payment: %w", err)
	}

	return nil
}

func (r *RecurringPaymentRepository) Delete(ctx context.Context, linearID uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM recurring_payments WHERE linear_id = $1`, linearID)
	if err != nil {
		return fmt.Errorf("delete recurring payment: %w", err)
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return fmt.Errorf("recurring payment %s: %w", linearID, domain.ErrRecordNotFound)
	}
	return nil
}

func (r *RecurringPaymentRepository) GetByLinearID(ctx context.Context, linearID uuid.UUID) (domain.RecurringPaymentState, error) {
	const query = `
SELECT linear_id, account_from, account_to, amount, currency, date_start,
	period_seconds, iteration_num, owner_name, owner_key
FROM recurring_payments WHERE linear_id = $1`

	payment, err := scanRecurringPayment(r.db.QueryRowContext(ctx, query, linearID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.RecurringPaymentState{}, fmt.Errorf("recurring payment %s: %w", linearID, domain.ErrRecordNotFound)
		}
		return domain.RecurringPaymentState{}, fmt.Errorf("get recurring payment: %w", err)
	}
	return payment, nil
}

func (r *RecurringPaymentRepository) GetPaginated(ctx context.Context, params RepositoryQueryParams) (PaginatedResponse[domain.RecurringPaymentState], error) {
	params = params.normalized()

	order, err := params.orderClause(recurringSortFields, "date_start")
	if err != nil {
		return PaginatedResponse[domain.RecurringPaymentState]{}, err
	}

	where := ""
	args := []any{}
	if params.SearchTerm != "" {
		where = `WHERE account_from::text ILIKE $1 OR account_to::text ILIKE $1`
		args = append(args, "%"+params.SearchTerm+"%")
	}

	var total int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM recurring_payments `+where, args...).Scan(&total); err != nil {
		return PaginatedResponse[domain.RecurringPaymentState]{}, fmt.Errorf("count recurring payments: %w", err)
	}

	query := fmt.Sprintf(`
SELECT linear_id, account_from, account_to, amount, currency, date_start,
	period_seconds, iteration_num, owner_name, owner_key
FROM recurring_payments %s %s LIMIT $%d OFFSET $%d`, where, order, len(args)+1, len(args)+2)
	args = append(args, params.PageSize, (params.StartPage-1)*params.PageSize)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return PaginatedResponse[domain.RecurringPaymentState]{}, fmt.Errorf("query recurring payments: %w", err)
	}
	defer rows.Close()

	result := make([]domain.RecurringPaymentState, 0, params.PageSize)
	for rows.Next() {
		payment, err := scanRecurringPayment(rows)
		if err != nil {
			return PaginatedResponse[domain.RecurringPaymentState]{}, fmt.Errorf("scan recurring payment: %w", err)
		}
		result = append(result, payment)
	}
	if err := rows.Err(); err != nil {
		return PaginatedResponse[domain.RecurringPaymentState]{}, fmt.Errorf("iterate recurring payments: %w", err)
	}

	return PaginatedResponse[domain.RecurringPaymentState]{
		Result:       result,
		TotalResults: total,
		PageSize:     params.PageSize,
		PageNumber:   params.StartPage,
		TotalPages:   totalPages(total, params.PageSize),
	}, nil
}

func scanRecurringPayment(row rowScanner) (domain.RecurringPaymentState, error) {
	var (
		payment       domain.RecurringPaymentState
		amount        string
		currency      string
		periodSeconds int64
	)

	if err := row.Scan(
		&payment.LinearID,
		&payment.AccountFrom,
		&payment.AccountTo,
		&amount,
		&currency,
		&payment.DateStart,
		&periodSeconds,
		&payment.IterationNum,
		&payment.OwningParty.Name,
		&payment.OwningParty.Key,
	); err != nil {
		return domain.RecurringPaymentState{}, err
	}

	qty, err := decimal.NewFromString(amount)
	if err != nil {
		return domain.RecurringPaymentState{}, fmt.Errorf("parse amount %q: %w", amount, err)
	}
	payment.Amount = money.Amount{Quantity: qty, Currency: money.Currency(currency)}
	payment.Period = time.Duration(periodSeconds) * time.Second

	return payment, nil
}
