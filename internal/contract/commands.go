// Package contract implements the transaction validators for account and
// recurring-payment states. Every verifier is a pure predicate over the
// proposed transaction: it never consults external mutable state, so any
// party re-verifying the same proposal reaches the same verdict.
package contract

import (
	"time"

	"github.com/google/uuid"

	"github.com/api-sage/retail-bank-ledger/internal/domain"
	"github.com/api-sage/retail-bank-ledger/internal/money"
	"github.com/api-sage/retail-bank-ledger/internal/oracle"
)

type CreateCurrentAccount struct{}

type CreateSavingsAccount struct {
	StartDate    time.Time
	PeriodMonths int
}

type IssueLoan struct {
	Amount money.Amount
}

// VerifyCreditRating carries the oracle-signed rating fact plus the
// parameters the contract checks it against.
type VerifyCreditRating struct {
	Rating    oracle.CreditRatingInfo
	Threshold int
	Validity  time.Duration
	OracleKey string
}

type CreateIntrabankPayment struct {
	Amount      money.Amount
	AccountFrom uuid.UUID
	AccountTo   uuid.UUID
}

type DepositFunds struct {
	Amount money.Amount
}

type WithdrawFunds struct {
	Amount money.Amount
}

type ApproveOverdraft struct {
	Limit money.Amount
}

type SetAccountStatus struct {
	Status domain.AccountStatus
}

type SetLimits struct {
	WithdrawalDailyLimit *int64
	TransferDailyLimit   *int64
}

type CreateRecurringPayment struct {
	AccountFromKey string
	AccountToKey   string
}

type ExecuteRecurringPayment struct {
	AccountFromKey string
	AccountToKey   string
}

type CancelRecurringPayment struct{}
