package contract_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/api-sage/retail-bank-ledger/internal/contract"
	"github.com/api-sage/retail-bank-ledger/internal/domain"
	"github.com/api-sage/retail-bank-ledger/internal/ledger"
	"github.com/api-sage/retail-bank-ledger/internal/money"
)

func recurringPayment(from, to domain.Account, iterations *int, dateStart time.Time) domain.RecurringPaymentState {
	return domain.RecurringPaymentState{
		AccountFrom:  from.Data.AccountID,
		AccountTo:    to.Data.AccountID,
		Amount:       money.FromMinorUnits(10_000, money.EUR),
		DateStart:    dateStart,
		Period:       30 * 24 * time.Hour,
		IterationNum: iterations,
		OwningParty:  from.Data.Owner,
		LinearID:     uuid.New(),
	}
}

func asRecurringInput(payment domain.RecurringPaymentState) []ledger.StateAndRef {
	return []ledger.StateAndRef{{Ref: ledger.StateRef{TxID: uuid.New(), Index: 0}, State: payment}}
}

func TestCreateRecurringPaymentAccepted(t *testing.T) {
	now := time.Date(2026, 7, 1, 9, 0, 0, 0, time.UTC)
	from := activeCurrent(owner, 100_000)
	to := activeCurrent(payee, 0)
	payment := recurringPayment(from, to, nil, now.Add(time.Hour))

	err := verify(&ledger.Transaction{
		Commands: []ledger.Command{contract.CreateRecurringPayment{
			AccountFromKey: owner.Key,
			AccountToKey:   payee.Key,
		}},
		Outputs:    []ledger.State{payment},
		Signers:    []string{owner.Key, payee.Key},
		TimeWindow: &ledger.TimeWindow{From: now, Until: now.Add(5 * time.Minute)},
	})
	assert.NoError(t, err)
}

func TestCreateRecurringPaymentRejectsPastStartDate(t *testing.T) {
	now := time.Date(2026, 7, 1, 9, 0, 0, 0, time.UTC)
	from := activeCurrent(owner, 100_000)
	to := activeCurrent(payee, 0)
	payment := recurringPayment(from, to, nil, now.Add(-time.Hour))

	err := verify(&ledger.Transaction{
		Commands: []ledger.Command{contract.CreateRecurringPayment{
			AccountFromKey: owner.Key,
			AccountToKey:   payee.Key,
		}},
		Outputs:    []ledger.State{payment},
		Signers:    []string{owner.Key, payee.Key},
		TimeWindow: &ledger.TimeWindow{From: now, Until: now.Add(5 * time.Minute)},
	})
	assert.EqualError(t, err, "Recurring payment cannot be scheduled in the past")
}

func TestCreateRecurringPaymentRequiresTimeWindow(t *testing.T) {
	from := activeCurrent(owner, 100_000)
	to := activeCurrent(payee, 0)
	payment := recurringPayment(from, to, nil, time.Now().Add(time.Hour))

	err := verify(&ledger.Transaction{
		Commands: []ledger.Command{contract.CreateRecurringPayment{
			AccountFromKey: owner.Key,
			AccountToKey:   payee.Key,
		}},
		Outputs: []ledger.State{payment},
		Signers: []string{owner.Key, payee.Key},
	})
	assert.EqualError(t, err, "Recurring payment creation must have a time window with a start time")
}

func TestExecuteRecurringPaymentAccepted(t *testing.T) {
	from := activeCurrent(owner, 100_000)
	to := activeCurrent(payee, 0)
	three := 3
	payment := recurringPayment(from, to, &three, time.Now())

	err := verify(&ledger.Transaction{
		Commands: []ledger.Command{contract.ExecuteRecurringPayment{
			AccountFromKey: owner.Key,
			AccountToKey:   payee.Key,
		}},
		Inputs:  asRecurringInput(payment),
		Outputs: []ledger.State{payment.Advance()},
		Signers: []string{owner.Key, payee.Key},
	})
	assert.NoError(t, err)
}

func TestExecuteRecurringPaymentRejectsWrongAdvance(t *testing.T) {
	from := activeCurrent(owner, 100_000)
	to := activeCurrent(payee, 0)
	three := 3
	payment := recurringPayment(from, to, &three, time.Now())

	skipped := payment.Advance().Advance()
	err := verify(&ledger.Transaction{
		Commands: []ledger.Command{contract.ExecuteRecurringPayment{
			AccountFromKey: owner.Key,
			AccountToKey:   payee.Key,
		}},
		Inputs:  asRecurringInput(payment),
		Outputs: []ledger.State{skipped},
		Signers: []string{owner.Key, payee.Key},
	})
	assert.EqualError(t, err, "Execution must advance the start date by exactly one period and decrement a finite iteration count by exactly 1")
}

func TestExecuteRecurringPaymentRejectsDormantEntry(t *testing.T) {
	from := activeCurrent(owner, 100_000)
	to := activeCurrent(payee, 0)
	zero := 0
	payment := recurringPayment(from, to, &zero, time.Now())

	err := verify(&ledger.Transaction{
		Commands: []ledger.Command{contract.ExecuteRecurringPayment{
			AccountFromKey: owner.Key,
			AccountToKey:   payee.Key,
		}},
		Inputs:  asRecurringInput(payment),
		Outputs: []ledger.State{payment.Advance()},
		Signers: []string{owner.Key, payee.Key},
	})
	assert.EqualError(t, err, "Recurring payment has no remaining iterations")
}

func cancelTransaction(payment domain.RecurringPaymentState, destination domain.Account, tw *ledger.TimeWindow) *ledger.Transaction {
	return &ledger.Transaction{
		Commands:   []ledger.Command{contract.CancelRecurringPayment{}},
		Inputs:     asRecurringInput(payment),
		References: []ledger.StateAndRef{{Ref: ledger.StateRef{TxID: uuid.New(), Index: 0}, State: destination}},
		Signers:    []string{payment.OwningParty.Key},
		TimeWindow: tw,
	}
}

func TestCancelRecurringPaymentToCurrentAccountAccepted(t *testing.T) {
	from := activeCurrent(owner, 100_000)
	to := activeCurrent(payee, 0)
	payment := recurringPayment(from, to, nil, time.Now())

	assert.NoError(t, verify(cancelTransaction(payment, to, nil)))
}

func TestCancelRecurringPaymentToLoanForbidden(t *testing.T) {
	from := activeCurrent(owner, 100_000)
	loan := domain.NewLoanAccount(owner, bank, uuid.New(), money.FromMinorUnits(500_000, money.EUR), time.Now())
	payment := recurringPayment(from, loan, nil, time.Now())

	err := verify(cancelTransaction(payment, loan, nil))
	assert.EqualError(t, err, "Recurring payments towards loan repayment cannot be cancelled")
}

func TestCancelRecurringPaymentToSavingsLockedDuringPeriod(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	from := activeCurrent(owner, 100_000)
	savings := domain.NewSavingsAccount(payee, bank, uuid.New(), money.EUR, start, 12, start)
	payment := recurringPayment(from, savings, nil, start.AddDate(0, 1, 0))

	during := start.AddDate(0, 6, 0)
	err := verify(cancelTransaction(payment, savings, &ledger.TimeWindow{From: during, Until: during.Add(5 * time.Minute)}))
	assert.EqualError(t, err, "Recurring payments into a savings account cannot be cancelled during the savings period")

	after := start.AddDate(0, 12, 0)
	err = verify(cancelTransaction(payment, savings, &ledger.TimeWindow{From: after, Until: after.Add(5 * time.Minute)}))
	assert.NoError(t, err)
}

func TestCancelRecurringPaymentRequiresDestinationReference(t *testing.T) {
	from := activeCurrent(owner, 100_000)
	to := activeCurrent(payee, 0)
	payment := recurringPayment(from, to, nil, time.Now())

	tx := cancelTransaction(payment, to, nil)
	tx.References = nil
	err := verify(tx)
	assert.EqualError(t, err, "Cancellation must reference the destination account of the recurring payment")
}

func TestCancelRecurringPaymentRequiresOwnerSignature(t *testing.T) {
	from := activeCurrent(owner, 100_000)
	to := activeCurrent(payee, 0)
	payment := recurringPayment(from, to, nil, time.Now())

	tx := cancelTransaction(payment, to, nil)
	tx.Signers = []string{payee.Key}
	err := verify(tx)
	assert.EqualError(t, err, "Transaction must be signed by the recurring payment owner")
}

func TestCreateRecurringPaymentRequiresBothKeys(t *testing.T) {
	require.NotEqual(t, owner.Key, payee.Key)

	now := time.Now()
	from := activeCurrent(owner, 100_000)
	to := activeCurrent(payee, 0)
	payment := recurringPayment(from, to, nil, now.Add(time.Hour))

	err := verify(&ledger.Transaction{
		Commands: []ledger.Command{contract.CreateRecurringPayment{
			AccountFromKey: owner.Key,
			AccountToKey:   payee.Key,
		}},
		Outputs:    []ledger.State{payment},
		Signers:    []string{owner.Key},
		TimeWindow: &ledger.TimeWindow{From: now, Until: now.Add(5 * time.Minute)},
	})
	assert.EqualError(t, err, "Transaction must be signed by the to account owner")
}
