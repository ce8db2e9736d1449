package domain_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/api-sage/retail-bank-ledger/internal/domain"
	"github.com/api-sage/retail-bank-ledger/internal/money"
)

var (
	testOwner = domain.Party{Name: "Alice", Key: "alice-key"}
	testBank  = domain.Party{Name: "RetailBank", Key: "bank-key"}
)

func activeCurrentAccount(t *testing.T, balanceCents int64) domain.Account {
	t.Helper()
	account := domain.NewCurrentAccount(testOwner, testBank, uuid.New(), money.EUR, time.Now())
	account = account.WithStatus(domain.AccountStatusActive)
	if balanceCents > 0 {
		funded, err := account.Deposit(money.FromMinorUnits(balanceCents, money.EUR), time.Now())
		require.NoError(t, err)
		return funded
	}
	return account
}

func TestNewAccountsStartInExpectedState(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	current := domain.NewCurrentAccount(testOwner, testBank, uuid.New(), money.EUR, now)
	assert.Equal(t, domain.AccountStatusPending, current.Data.Status)
	assert.True(t, current.Data.Balance.IsZero())

	savings := domain.NewSavingsAccount(testOwner, testBank, uuid.New(), money.EUR, now, 12, now)
	assert.Equal(t, domain.AccountStatusPending, savings.Data.Status)
	assert.Equal(t, now.AddDate(0, 12, 0), savings.SavingsEndDate)

	principal := money.FromMinorUnits(100_000, money.EUR)
	loan := domain.NewLoanAccount(testOwner, testBank, uuid.New(), principal, now)
	assert.Equal(t, domain.AccountStatusActive, loan.Data.Status)
	assert.True(t, loan.Data.Balance.Equal(principal))
}

func TestDepositRequiresActiveAccount(t *testing.T) {
	account := domain.NewCurrentAccount(testOwner, testBank, uuid.New(), money.EUR, time.Now())

	_, err := account.Deposit(money.FromMinorUnits(100, money.EUR), time.Now())
	var notActive *domain.AccountNotActiveError
	require.ErrorAs(t, err, &notActive)
	assert.Equal(t, domain.AccountStatusPending, notActive.Status)
}

func TestDepositRejectsCurrencyMismatch(t *testing.T) {
	account := activeCurrentAccount(t, 0)

	_, err := account.Deposit(money.FromMinorUnits(100, money.GBP), time.Now())
	assert.EqualError(t, err, "currency mismatch: account holds EUR, amount is GBP")
}

func TestWithdrawSpillsIntoApprovedOverdraft(t *testing.T) {
	account := activeCurrentAccount(t, 10_000)
	limit := money.FromMinorUnits(5_000, money.EUR)
	account.ApprovedOverdraftLimit = &limit

	out, err := account.Withdraw(money.FromMinorUnits(12_000, money.EUR), time.Now())
	require.NoError(t, err)
	assert.True(t, out.Data.Balance.IsZero())
	assert.True(t, out.OverdraftBalance.Equal(money.FromMinorUnits(2_000, money.EUR)))
}

func TestWithdrawBeyondOverdraftHeadroomFails(t *testing.T) {
	account := activeCurrentAccount(t, 10_000)
	limit := money.FromMinorUnits(5_000, money.EUR)
	account.ApprovedOverdraftLimit = &limit

	_, err := account.Withdraw(money.FromMinorUnits(16_000, money.EUR), time.Now())
	var insufficient *domain.InsufficientBalanceError
	require.ErrorAs(t, err, &insufficient)
	assert.Equal(t, "Insufficient balance, missing 10.00 EUR", insufficient.Error())
}

func TestWithdrawWithoutOverdraftFailsOnShortfall(t *testing.T) {
	account := activeCurrentAccount(t, 1_000)

	_, err := account.Withdraw(money.FromMinorUnits(2_500, money.EUR), time.Now())
	var insufficient *domain.InsufficientBalanceError
	require.ErrorAs(t, err, &insufficient)
	assert.True(t, insufficient.Shortfall.Equal(money.FromMinorUnits(1_500, money.EUR)))
}

func TestDepositRepaysOverdraftBeforeCreditingBalance(t *testing.T) {
	account := activeCurrentAccount(t, 0)
	limit := money.FromMinorUnits(5_000, money.EUR)
	account.ApprovedOverdraftLimit = &limit
	account.OverdraftBalance = money.FromMinorUnits(3_000, money.EUR)

	out, err := account.Deposit(money.FromMinorUnits(4_000, money.EUR), time.Now())
	require.NoError(t, err)
	assert.True(t, out.OverdraftBalance.IsZero())
	assert.True(t, out.Data.Balance.Equal(money.FromMinorUnits(1_000, money.EUR)))
}

func TestPartialDepositOnlyRepaysOverdraft(t *testing.T) {
	account := activeCurrentAccount(t, 0)
	limit := money.FromMinorUnits(5_000, money.EUR)
	account.ApprovedOverdraftLimit = &limit
	account.OverdraftBalance = money.FromMinorUnits(3_000, money.EUR)

	out, err := account.Deposit(money.FromMinorUnits(2_000, money.EUR), time.Now())
	require.NoError(t, err)
	assert.True(t, out.OverdraftBalance.Equal(money.FromMinorUnits(1_000, money.EUR)))
	assert.True(t, out.Data.Balance.IsZero())
}

func TestSavingsWithdrawalLockedDuringSavingsPeriod(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	account := domain.NewSavingsAccount(testOwner, testBank, uuid.New(), money.EUR, start, 6, start)
	account = account.WithStatus(domain.AccountStatusActive)
	account, err := account.Deposit(money.FromMinorUnits(10_000, money.EUR), start)
	require.NoError(t, err)

	_, err = account.Withdraw(money.FromMinorUnits(100, money.EUR), start.AddDate(0, 3, 0))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "withdrawals not allowed during savings period")

	out, err := account.Withdraw(money.FromMinorUnits(100, money.EUR), start.AddDate(0, 6, 0))
	require.NoError(t, err)
	assert.True(t, out.Data.Balance.Equal(money.FromMinorUnits(9_900, money.EUR)))
}

func TestLoanAccountRejectsWithdrawals(t *testing.T) {
	loan := domain.NewLoanAccount(testOwner, testBank, uuid.New(), money.FromMinorUnits(100_000, money.EUR), time.Now())

	_, err := loan.Withdraw(money.FromMinorUnits(100, money.EUR), time.Now())
	assert.EqualError(t, err, "LOAN accounts do not support withdrawals")
}

func TestLoanRepaymentReducesPrincipalAndKeepsTxDate(t *testing.T) {
	opened := time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC)
	loan := domain.NewLoanAccount(testOwner, testBank, uuid.New(), money.FromMinorUnits(100_000, money.EUR), opened)

	out, err := loan.Deposit(money.FromMinorUnits(40_000, money.EUR), opened.AddDate(0, 1, 0))
	require.NoError(t, err)
	assert.True(t, out.Data.Balance.Equal(money.FromMinorUnits(60_000, money.EUR)))
	assert.True(t, out.Data.TxDate.Equal(opened))
}

func TestLoanOverRepaymentFails(t *testing.T) {
	loan := domain.NewLoanAccount(testOwner, testBank, uuid.New(), money.FromMinorUnits(1_000, money.EUR), time.Now())

	_, err := loan.Deposit(money.FromMinorUnits(1_500, money.EUR), time.Now())
	var insufficient *domain.InsufficientBalanceError
	require.ErrorAs(t, err, &insufficient)
	assert.True(t, insufficient.Shortfall.Equal(money.FromMinorUnits(500, money.EUR)))
}

func TestWithLimitsSetKeepAndClear(t *testing.T) {
	account := activeCurrentAccount(t, 0)

	w := int64(50_000)
	out, err := account.WithLimits(&w, nil)
	require.NoError(t, err)
	require.NotNil(t, out.WithdrawalDailyLimit)
	assert.Equal(t, int64(50_000), *out.WithdrawalDailyLimit)
	assert.Nil(t, out.TransferDailyLimit)

	tr := int64(20_000)
	out, err = out.WithLimits(nil, &tr)
	require.NoError(t, err)
	require.NotNil(t, out.WithdrawalDailyLimit)
	assert.Equal(t, int64(50_000), *out.WithdrawalDailyLimit)
	require.NotNil(t, out.TransferDailyLimit)
	assert.Equal(t, int64(20_000), *out.TransferDailyLimit)

	clear := domain.ClearLimit
	out, err = out.WithLimits(&clear, nil)
	require.NoError(t, err)
	assert.Nil(t, out.WithdrawalDailyLimit)
	require.NotNil(t, out.TransferDailyLimit)
}

func TestWithLimitsRejectsNonCurrentAccounts(t *testing.T) {
	savings := domain.NewSavingsAccount(testOwner, testBank, uuid.New(), money.EUR, time.Now(), 6, time.Now())

	w := int64(1_000)
	_, err := savings.WithLimits(&w, nil)
	assert.EqualError(t, err, "daily limits only apply to current accounts, got SAVINGS")
}

func TestAccountEqualDetectsDifferences(t *testing.T) {
	account := activeCurrentAccount(t, 5_000)
	assert.True(t, account.Equal(account))

	modified := account
	modified.Data.Balance = money.FromMinorUnits(4_999, money.EUR)
	assert.False(t, account.Equal(modified))

	relabeled := account
	relabeled.Data.Owner = domain.Party{Name: "Mallory", Key: "mallory-key"}
	assert.False(t, account.Equal(relabeled))
}
