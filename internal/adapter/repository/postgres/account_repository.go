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

// AccountRepository is the read-side projection of committed account states:
// one row per linear id, holding the latest version. It serves lookups and
// reporting queries; the ledger remains the source of truth.
type AccountRepository struct {
	db *sql.DB
}

func NewAccountRepository(db *sql.DB) *AccountRepository {
	return &AccountRepository{db: db}
}

var accountSortFields = map[string]struct{}{
	"account_id":  {},
	"customer_id": {},
	"balance":     {},
	"tx_date":     {},
	"status":      {},
}

const accountColumns = `
	linear_id, account_id, account_type, owner_name, owner_key, bank_name, bank_key,
	customer_id, currency, balance, tx_date, status,
	withdrawal_daily_limit, transfer_daily_limit, overdraft_balance, approved_overdraft_limit,
	savings_end_date, period_months`

func (r *AccountRepository) Save(ctx context.Context, account domain.Account) error {
	const query = `
INSERT INTO account_states (
	linear_id, account_id, account_type, owner_name, owner_key, bank_name, bank_key,
	customer_id, currency, balance, tx_date, status,
	withdrawal_daily_limit, transfer_daily_limit, overdraft_balance, approved_overdraft_limit,
	savings_end_date, period_months
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
ON CONFLICT (linear_id) DO UPDATE SET
	balance = EXCLUDED.balance,
	tx_date = EXCLUDED.tx_date,
	status = EXCLUDED.status,
	withdrawal_daily_limit = EXCLUDED.withdrawal_daily_limit,
	transfer_daily_limit = EXCLUDED.transfer_daily_limit,
	overdraft_balance = EXCLUDED.overdraft_balance,
	approved_overdraft_limit = EXCLUDED.approved_overdraft_limit,
	updated_at = NOW()`

	var savingsEnd *time.Time
	if account.Type == domain.AccountTypeSavings {
		end := account.SavingsEndDate
		savingsEnd = &end
	}
	var approvedOverdraft *string
	if account.ApprovedOverdraftLimit != nil {
		v := account.ApprovedOverdraftLimit.Quantity.String()
		approvedOverdraft = &v
	}

	if _, err := r.db.ExecContext(
		ctx,
		query,
		account.LinearID,
		account.Data.AccountID,
		account.Type,
		account.Data.Owner.Name,
		account.Data.Owner.Key,
		account.Data.Bank.Name,
		account.Data.Bank.Key,
		account.Data.CustomerID,
		account.Data.Balance.Currency,
		account.Data.Balance.Quantity.String(),
		account.Data.TxDate,
		account.Data.Status,
		account.WithdrawalDailyLimit,
		account.TransferDailyLimit,
		account.OverdraftBalance.Quantity.String(),
		approvedOverdraft,
		savingsEnd,
		account.PeriodMonths,
	); err != nil {
		return fmt.Errorf("save account state: %w", err)
	}

	return nil
}

func (r *AccountRepository) GetByAccountID(ctx context.Context, accountID uuid.UUID) (domain.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM account_states WHERE account_id = $1`

	account, err := scanAccount(r.db.QueryRowContext(ctx, query, accountID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Account{}, fmt.Errorf("account %s: %w", accountID, domain.ErrRecordNotFound)
		}
		return domain.Account{}, fmt.Errorf("get account by id: %w", err)
	}
	return account, nil
}

func (r *AccountRepository) GetByCustomerID(ctx context.Context, customerID uuid.UUID) ([]domain.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM account_states WHERE customer_id = $1 ORDER BY tx_date DESC`

	rows, err := r.db.QueryContext(ctx, query, customerID)
	if err != nil {
		return nil, fmt.Errorf("get accounts by customer: %w", err)
	}
	defer rows.Close()

	var accounts []domain.Account
	for rows.Next() {
		account, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("get accounts by customer: %w", err)
		}
		accounts = append(accounts, account)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("get accounts by customer: %w", err)
	}
	return accounts, nil
}

// GetPaginated serves the reporting query contract. SearchTerm matches the
// account id, customer id or status.
func (r *AccountRepository) GetPaginated(ctx context.Context, params RepositoryQueryParams) (PaginatedResponse[domain.Account], error) {
	params = params.normalized()

	order, err := params.orderClause(accountSortFields, "tx_date")
	if err != nil {
		return PaginatedResponse[domain.Account]{}, err
	}

	where := ""
	args := []any{}
	if params.SearchTerm != "" {
		where = `WHERE account_id::text ILIKE $1 OR customer_id::text ILIKE $1 OR status ILIKE $1`
		args = append(args, "%"+params.SearchTerm+"%")
	}

	var total int64
	countQuery := `SELECT COUNT(1) FROM account_states ` + where
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return PaginatedResponse[domain.Account]{}, fmt.Errorf("count account states: %w", err)
	}

	query := fmt.Sprintf(`SELECT %s FROM account_states %s %s LIMIT $%d OFFSET $%d`,
		accountColumns, where, order, len(args)+1, len(args)+2)
	args = append(args, params.PageSize, (params.StartPage-1)*params.PageSize)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return PaginatedResponse[domain.Account]{}, fmt.Errorf("query account states: %w", err)
	}
	defer rows.Close()

	result := make([]domain.Account, 0, params.PageSize)
	for rows.Next() {
		account, err := scanAccount(rows)
		if err != nil {
			return PaginatedResponse[domain.Account]{}, fmt.Errorf("scan account state: %w", err)
		}
		result = append(result, account)
	}
	if err := rows.Err(); err != nil {
		return PaginatedResponse[domain.Account]{}, fmt.Errorf("iterate account states: %w", err)
	}

	return PaginatedResponse[domain.Account]{
		Result:       result,
		TotalResults: total,
		PageSize:     params.PageSize,
		PageNumber:   params.StartPage,
		TotalPages:   totalPages(total, params.PageSize),
	}, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAccount(row rowScanner) (domain.Account, error) {
	var (
		account           domain.Account
		currency          string
		balance           string
		overdraftBalance  string
		approvedOverdraft *string
		savingsEnd        *time.Time
	)

	if err := row.Scan(
		&account.LinearID,
		&account.Data.AccountID,
		&account.Type,
		&account.Data.Owner.Name,
		&account.Data.Owner.Key,
		&account.Data.Bank.Name,
		&account.Data.Bank.Key,
		&account.Data.CustomerID,
		&currency,
		&balance,
		&account.Data.TxDate,
		&account.Data.Status,
		&account.WithdrawalDailyLimit,
		&account.TransferDailyLimit,
		&overdraftBalance,
		&approvedOverdraft,
		&savingsEnd,
		&account.PeriodMonths,
	); err != nil {
		return domain.Account{}, err
	}

	cur := money.Currency(currency)
	balanceQty, err := decimal.NewFromString(balance)
	if err != nil {
		return domain.Account{}, fmt.Errorf("parse balance %q: %w", balance, err)
	}
	account.Data.Balance = money.Amount{Quantity: balanceQty, Currency: cur}

	overdraftQty, err := decimal.NewFromString(overdraftBalance)
	if err != nil {
		return domain.Account{}, fmt.Errorf("parse overdraft balance %q: %w", overdraftBalance, err)
	}
	account.OverdraftBalance = money.Amount{Quantity: overdraftQty, Currency: cur}

	if approvedOverdraft != nil {
		limitQty, err := decimal.NewFromString(*approvedOverdraft)
		if err != nil {
			return domain.Account{}, fmt.Errorf("parse approved overdraft limit %q: %w", *approvedOverdraft, err)
		}
		limit := money.Amount{Quantity: limitQty, Currency: cur}
		account.ApprovedOverdraftLimit = &limit
	}
	if savingsEnd != nil {
		account.SavingsEndDate = *savingsEnd
	}

	return account, nil
}
