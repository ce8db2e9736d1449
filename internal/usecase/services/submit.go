package services

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/sethvargo/go-retry"
	"github.com/shopspring/decimal"

	"github.com/api-sage/retail-bank-ledger/internal/domain"
	"github.com/api-sage/retail-bank-ledger/internal/ledger"
	"github.com/api-sage/retail-bank-ledger/internal/money"
)

// transaction time-window length claimed by time-sensitive flows.
const txWindowDuration = 5 * time.Minute

// Submitter is the ledger surface the flows depend on.
type Submitter interface {
	Commit(ctx context.Context, tx *ledger.Transaction) ([]ledger.StateAndRef, error)
	Head(linearID uuid.UUID) (ledger.StateAndRef, bool)
}

// submitWithRetry rebuilds and resubmits the transaction when it loses a
// double-spend race: the build callback re-reads the latest unconsumed heads
// on every attempt. Contract rejections are not retried.
func submitWithRetry(ctx context.Context, l Submitter, build func(ctx context.Context) (*ledger.Transaction, error)) ([]ledger.StateAndRef, error) {
	var created []ledger.StateAndRef

	backoff := retry.WithMaxRetries(3, retry.NewExponential(50*time.Millisecond))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		tx, err := build(ctx)
		if err != nil {
			return err
		}

		created, err = l.Commit(ctx, tx)
		if err != nil {
			if errors.Is(err, ledger.ErrInputStateConsumed) {
				return retry.RetryableError(err)
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// headAccount resolves the latest unconsumed version of an account by its
// account id, using the read-side projection to find the linear id.
func headAccount(ctx context.Context, l Submitter, accounts AccountReader, accountID uuid.UUID) (ledger.StateAndRef, domain.Account, error) {
	projected, err := accounts.GetByAccountID(ctx, accountID)
	if err != nil {
		return ledger.StateAndRef{}, domain.Account{}, err
	}

	head, ok := l.Head(projected.LinearID)
	if !ok {
		return ledger.StateAndRef{}, domain.Account{}, domain.ErrRecordNotFound
	}
	account, ok := head.State.(domain.Account)
	if !ok {
		return ledger.StateAndRef{}, domain.Account{}, domain.ErrRecordNotFound
	}
	return head, account, nil
}

func parseAmount(quantity decimal.Decimal, currencyCode string) (money.Amount, error) {
	currency, err := money.ParseCurrency(currencyCode)
	if err != nil {
		return money.Amount{}, err
	}
	return money.New(quantity, currency)
}
