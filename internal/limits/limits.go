// Package limits implements the advisory daily-limit checks consulted by the
// flows before a transaction is built. These checks are not part of contract
// verification, so concurrent transactions can independently pass them.
package limits

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/api-sage/retail-bank-ledger/internal/domain"
	"github.com/api-sage/retail-bank-ledger/internal/money"
)

type DebitType string

const (
	DebitTypeWithdrawal DebitType = "WITHDRAWAL"
	DebitTypeTransfer   DebitType = "TRANSFER"
)

// TransactionLog aggregates committed debits of one kind for one account
// within a calendar day (UTC).
type TransactionLog interface {
	SumDebitsForDay(ctx context.Context, accountID uuid.UUID, debitType DebitType, day time.Time) (int64, error)
}

type DailyLimitExceededError struct {
	Type       DebitType
	SpentToday money.Amount
	Proposed   money.Amount
	Limit      money.Amount
}

func (e *DailyLimitExceededError) Error() string {
	return fmt.Sprintf("daily %s limit exceeded: %s already spent today plus proposed %s exceeds the limit of %s",
		e.Type, e.SpentToday, e.Proposed, e.Limit)
}

// CheckWithdrawalDailyLimit verifies the proposed withdrawal against the
// account's configured daily cap. A nil cap means unlimited.
func CheckWithdrawalDailyLimit(ctx context.Context, log TransactionLog, account domain.Account, proposed money.Amount, now time.Time) error {
	return checkDailyLimit(ctx, log, account, account.WithdrawalDailyLimit, DebitTypeWithdrawal, proposed, now)
}

// CheckTransferDailyLimit verifies the proposed transfer against the
// account's configured daily cap. A nil cap means unlimited.
func CheckTransferDailyLimit(ctx context.Context, log TransactionLog, account domain.Account, proposed money.Amount, now time.Time) error {
	return checkDailyLimit(ctx, log, account, account.TransferDailyLimit, DebitTypeTransfer, proposed, now)
}

func checkDailyLimit(ctx context.Context, log TransactionLog, account domain.Account, limit *int64, debitType DebitType, proposed money.Amount, now time.Time) error {
	if limit == nil {
		return nil
	}

	spent, err := log.SumDebitsForDay(ctx, account.Data.AccountID, debitType, now.UTC())
	if err != nil {
		return fmt.Errorf("aggregate %s debits: %w", debitType, err)
	}

	currency := account.Data.Balance.Currency
	if spent+proposed.MinorUnits() > *limit {
		return &DailyLimitExceededError{
			Type:       debitType,
			SpentToday: money.FromMinorUnits(spent, currency),
			Proposed:   proposed,
			Limit:      money.FromMinorUnits(*limit, currency),
		}
	}
	return nil
}
