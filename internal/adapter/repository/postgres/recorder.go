package postgres

import (
	"context"
	"time"

	"github.com/api-sage/retail-bank-ledger/internal/contract"
	"github.com/api-sage/retail-bank-ledger/internal/domain"
	"github.com/api-sage/retail-bank-ledger/internal/ledger"
	"github.com/api-sage/retail-bank-ledger/internal/limits"
)

// LedgerRecorder projects every committed transaction into the read-side
// tables: latest account and recurring-payment snapshots plus the debit log
// that feeds the daily-limit checks.
type LedgerRecorder struct {
	accounts  *AccountRepository
	recurring *RecurringPaymentRepository
	txLog     *TransactionLogRepository
	now       func() time.Time
}

func NewLedgerRecorder(accounts *AccountRepository, recurring *RecurringPaymentRepository, txLog *TransactionLogRepository) *LedgerRecorder {
	return &LedgerRecorder{
		accounts:  accounts,
		recurring: recurring,
		txLog:     txLog,
		now:       time.Now,
	}
}

func (r *LedgerRecorder) RecordTransaction(ctx context.Context, tx *ledger.Transaction) error {
	for _, out := range tx.Outputs {
		switch state := out.(type) {
		case domain.Account:
			if err := r.accounts.Save(ctx, state); err != nil {
				return err
			}
		case domain.RecurringPaymentState:
			if err := r.recurring.Save(ctx, state); err != nil {
				return err
			}
		}
	}

	// A recurring payment consumed without a successor was cancelled.
	produced := make(map[string]struct{})
	for _, out := range tx.Outputs {
		produced[out.StateLinearID().String()] = struct{}{}
	}
	for _, in := range tx.Inputs {
		payment, ok := in.State.(domain.RecurringPaymentState)
		if !ok {
			continue
		}
		if _, stillPresent := produced[payment.LinearID.String()]; !stillPresent {
			if err := r.recurring.Delete(ctx, payment.LinearID); err != nil {
				return err
			}
		}
	}

	return r.recordDebits(ctx, tx)
}

func (r *LedgerRecorder) recordDebits(ctx context.Context, tx *ledger.Transaction) error {
	for _, cmd := range tx.Commands {
		var (
			entry TransactionLogEntry
			found bool
		)

		switch c := cmd.(type) {
		case contract.WithdrawFunds:
			for _, in := range tx.Inputs {
				if acc, ok := in.State.(domain.Account); ok {
					entry = TransactionLogEntry{
						AccountID:   acc.Data.AccountID,
						DebitType:   limits.DebitTypeWithdrawal,
						AmountCents: c.Amount.MinorUnits(),
						Currency:    string(c.Amount.Currency),
					}
					found = true
					break
				}
			}
		case contract.CreateIntrabankPayment:
			entry = TransactionLogEntry{
				AccountID:   c.AccountFrom,
				DebitType:   limits.DebitTypeTransfer,
				AmountCents: c.Amount.MinorUnits(),
				Currency:    string(c.Amount.Currency),
			}
			found = true
		}

		if !found {
			continue
		}
		entry.TxID = tx.ID
		entry.CreatedAt = r.now()
		if err := r.txLog.Record(ctx, entry); err != nil {
			return err
		}
	}
	return nil
}
