package domain

import (
	"time"

	"github.com/google/uuid"

	"github.com/api-sage/retail-bank-ledger/internal/money"
)

// NewCurrentAccount builds the initial PENDING version of a current account
// with a zero balance.
func NewCurrentAccount(owner, bank Party, customerID uuid.UUID, currency money.Currency, now time.Time) Account {
	return Account{
		Data:             newAccountData(owner, bank, customerID, currency, now),
		LinearID:         uuid.New(),
		Type:             AccountTypeCurrent,
		OverdraftBalance: money.Zero(currency),
	}
}

// NewSavingsAccount builds the initial PENDING version of a savings account.
// The savings end date is derived from the start date plus the period in
// months.
func NewSavingsAccount(owner, bank Party, customerID uuid.UUID, currency money.Currency, start time.Time, periodMonths int, now time.Time) Account {
	return Account{
		Data:           newAccountData(owner, bank, customerID, currency, now),
		LinearID:       uuid.New(),
		Type:           AccountTypeSavings,
		SavingsEndDate: start.AddDate(0, periodMonths, 0),
		PeriodMonths:   periodMonths,
	}
}

// NewLoanAccount builds an active loan account whose balance is the
// outstanding principal.
func NewLoanAccount(owner, bank Party, customerID uuid.UUID, principal money.Amount, now time.Time) Account {
	data := newAccountData(owner, bank, customerID, principal.Currency, now)
	data.Balance = principal
	data.Status = AccountStatusActive
	return Account{
		Data:     data,
		LinearID: uuid.New(),
		Type:     AccountTypeLoan,
	}
}

func newAccountData(owner, bank Party, customerID uuid.UUID, currency money.Currency, now time.Time) AccountData {
	return AccountData{
		AccountID:  uuid.New(),
		Owner:      owner,
		Bank:       bank,
		CustomerID: customerID,
		Balance:    money.Zero(currency),
		TxDate:     now,
		Status:     AccountStatusPending,
	}
}
