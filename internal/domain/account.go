package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/api-sage/retail-bank-ledger/internal/money"
)

// Party identifies a participant of the ledger by name and public key.
type Party struct {
	Name string
	Key  string
}

func (p Party) Equal(other Party) bool {
	return p.Name == other.Name && p.Key == other.Key
}

type AccountType string

const (
	AccountTypeCurrent AccountType = "CURRENT"
	AccountTypeSavings AccountType = "SAVINGS"
	AccountTypeLoan    AccountType = "LOAN"
)

// AccountData holds the fields shared by every account variant. Balance
// currency never changes across the account's lifetime.
type AccountData struct {
	AccountID  uuid.UUID
	Owner      Party
	Bank       Party
	CustomerID uuid.UUID
	Balance    money.Amount
	TxDate     time.Time
	Status     AccountStatus
}

// ClearLimit is the caller-supplied sentinel that removes a daily limit.
const ClearLimit int64 = -1

// Account is a closed union over the three account variants. Type selects the
// variant; the variant-specific fields below are meaningful only for that
// type. Accounts are immutable on the ledger: every operation returns a new
// value that supersedes the previous version under the same LinearID.
type Account struct {
	Data     AccountData
	LinearID uuid.UUID
	Type     AccountType

	// CURRENT only. Limits are in minor units; nil means unlimited.
	WithdrawalDailyLimit   *int64
	TransferDailyLimit     *int64
	OverdraftBalance       money.Amount
	ApprovedOverdraftLimit *money.Amount

	// SAVINGS only. Withdrawals are locked until SavingsEndDate.
	SavingsEndDate time.Time
	PeriodMonths   int
}

func (a Account) StateLinearID() uuid.UUID {
	return a.LinearID
}

// IsCreditAccount reports whether the account supports direct withdrawals.
// Loan accounts do not; they are only repaid via deposits.
func (a Account) IsCreditAccount() bool {
	return a.Type == AccountTypeCurrent || a.Type == AccountTypeSavings
}

func (a Account) VerifyIsActive() error {
	if a.Data.Status != AccountStatusActive {
		return &AccountNotActiveError{Status: a.Data.Status}
	}
	return nil
}

// OverdraftHeadroom is the amount still available to borrow before hitting
// the approved overdraft cap. Zero for non-current accounts and for current
// accounts without an approved overdraft.
func (a Account) OverdraftHeadroom() money.Amount {
	if a.Type != AccountTypeCurrent || a.ApprovedOverdraftLimit == nil {
		return money.Zero(a.Data.Balance.Currency)
	}
	headroom, err := a.ApprovedOverdraftLimit.Sub(a.OverdraftBalance)
	if err != nil {
		return money.Zero(a.Data.Balance.Currency)
	}
	return headroom
}

// VerifyHasSufficientFunds checks the free balance plus any available
// overdraft headroom against the requested amount.
func (a Account) VerifyHasSufficientFunds(amount money.Amount) error {
	funds, err := a.Data.Balance.Add(a.OverdraftHeadroom())
	if err != nil {
		return err
	}
	if funds.LessThan(amount) {
		shortfall, err := amount.Sub(funds)
		if err != nil {
			return err
		}
		return &InsufficientBalanceError{Shortfall: shortfall}
	}
	return nil
}

// Deposit credits the account. For current accounts any outstanding overdraft
// is repaid before the free balance is credited. For loan accounts a deposit
// is a repayment: the outstanding principal decreases and must not go below
// zero. TxDate is refreshed for current and savings deposits; loan repayments
// leave it unchanged.
func (a Account) Deposit(amount money.Amount, now time.Time) (Account, error) {
	if err := a.verifyCurrencyMatches(amount); err != nil {
		return Account{}, err
	}
	if err := a.VerifyIsActive(); err != nil {
		return Account{}, err
	}

	out := a
	switch a.Type {
	case AccountTypeLoan:
		if a.Data.Balance.LessThan(amount) {
			shortfall, err := amount.Sub(a.Data.Balance)
			if err != nil {
				return Account{}, err
			}
			return Account{}, &InsufficientBalanceError{Shortfall: shortfall}
		}
		balance, err := a.Data.Balance.Sub(amount)
		if err != nil {
			return Account{}, err
		}
		out.Data.Balance = balance
		return out, nil

	case AccountTypeCurrent:
		remaining := amount
		if a.OverdraftBalance.IsPositive() {
			repaid := a.OverdraftBalance
			if remaining.LessThan(repaid) {
				repaid = remaining
			}
			overdraft, err := a.OverdraftBalance.Sub(repaid)
			if err != nil {
				return Account{}, err
			}
			out.OverdraftBalance = overdraft
			remaining, err = remaining.Sub(repaid)
			if err != nil {
				return Account{}, err
			}
		}
		balance, err := a.Data.Balance.Add(remaining)
		if err != nil {
			return Account{}, err
		}
		out.Data.Balance = balance
		out.Data.TxDate = now
		return out, nil

	default:
		balance, err := a.Data.Balance.Add(amount)
		if err != nil {
			return Account{}, err
		}
		out.Data.Balance = balance
		out.Data.TxDate = now
		return out, nil
	}
}

// Withdraw debits a credit account. The free balance is drained first; any
// shortfall is drawn against the approved overdraft. Savings accounts refuse
// withdrawals until the savings period has ended.
func (a Account) Withdraw(amount money.Amount, now time.Time) (Account, error) {
	if !a.IsCreditAccount() {
		return Account{}, fmt.Errorf("%s accounts do not support withdrawals", a.Type)
	}
	if err := a.verifyCurrencyMatches(amount); err != nil {
		return Account{}, err
	}
	if err := a.VerifyIsActive(); err != nil {
		return Account{}, err
	}
	if a.Type == AccountTypeSavings && now.Before(a.SavingsEndDate) {
		return Account{}, fmt.Errorf("withdrawals not allowed during savings period, savings end date is %s", a.SavingsEndDate.Format(time.RFC3339))
	}
	if err := a.VerifyHasSufficientFunds(amount); err != nil {
		return Account{}, err
	}

	out := a
	if a.Data.Balance.LessThan(amount) {
		shortfall, err := amount.Sub(a.Data.Balance)
		if err != nil {
			return Account{}, err
		}
		overdraft, err := a.OverdraftBalance.Add(shortfall)
		if err != nil {
			return Account{}, err
		}
		out.OverdraftBalance = overdraft
		out.Data.Balance = money.Zero(a.Data.Balance.Currency)
	} else {
		balance, err := a.Data.Balance.Sub(amount)
		if err != nil {
			return Account{}, err
		}
		out.Data.Balance = balance
	}
	out.Data.TxDate = now
	return out, nil
}

// WithStatus returns a copy with the status replaced. Legality of the
// transition is enforced by the contract, not here.
func (a Account) WithStatus(status AccountStatus) Account {
	out := a
	out.Data.Status = status
	return out
}

// WithLimits returns a copy with the daily limits replaced. A nil pointer
// leaves the corresponding limit untouched; the ClearLimit sentinel removes
// it; any other value becomes the new cap in minor units.
func (a Account) WithLimits(withdrawalDailyLimit, transferDailyLimit *int64) (Account, error) {
	if a.Type != AccountTypeCurrent {
		return Account{}, fmt.Errorf("daily limits only apply to current accounts, got %s", a.Type)
	}

	out := a
	if withdrawalDailyLimit != nil {
		if *withdrawalDailyLimit == ClearLimit {
			out.WithdrawalDailyLimit = nil
		} else {
			v := *withdrawalDailyLimit
			out.WithdrawalDailyLimit = &v
		}
	}
	if transferDailyLimit != nil {
		if *transferDailyLimit == ClearLimit {
			out.TransferDailyLimit = nil
		} else {
			v := *transferDailyLimit
			out.TransferDailyLimit = &v
		}
	}
	return out, nil
}

// Equal compares every field of both accounts, including variant fields.
func (a Account) Equal(b Account) bool {
	return a.LinearID == b.LinearID &&
		a.Type == b.Type &&
		a.Data.Equal(b.Data) &&
		equalLimit(a.WithdrawalDailyLimit, b.WithdrawalDailyLimit) &&
		equalLimit(a.TransferDailyLimit, b.TransferDailyLimit) &&
		a.OverdraftBalance.Equal(b.OverdraftBalance) &&
		equalOverdraftLimit(a.ApprovedOverdraftLimit, b.ApprovedOverdraftLimit) &&
		a.SavingsEndDate.Equal(b.SavingsEndDate) &&
		a.PeriodMonths == b.PeriodMonths
}

func (d AccountData) Equal(other AccountData) bool {
	return d.AccountID == other.AccountID &&
		d.Owner.Equal(other.Owner) &&
		d.Bank.Equal(other.Bank) &&
		d.CustomerID == other.CustomerID &&
		d.Balance.Equal(other.Balance) &&
		d.TxDate.Equal(other.TxDate) &&
		d.Status == other.Status
}

func (a Account) verifyCurrencyMatches(amount money.Amount) error {
	if amount.Currency != a.Data.Balance.Currency {
		return fmt.Errorf("currency mismatch: account holds %s, amount is %s", a.Data.Balance.Currency, amount.Currency)
	}
	return nil
}

func equalLimit(a, b *int64) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func equalOverdraftLimit(a, b *money.Amount) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Equal(*b)
}
