package limits_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/api-sage/retail-bank-ledger/internal/domain"
	"github.com/api-sage/retail-bank-ledger/internal/limits"
	"github.com/api-sage/retail-bank-ledger/internal/money"
)

type stubTransactionLog struct {
	spent int64
	err   error

	accountID uuid.UUID
	debitType limits.DebitType
	day       time.Time
}

func (s *stubTransactionLog) SumDebitsForDay(_ context.Context, accountID uuid.UUID, debitType limits.DebitType, day time.Time) (int64, error) {
	s.accountID = accountID
	s.debitType = debitType
	s.day = day
	return s.spent, s.err
}

func limitedAccount(t *testing.T, withdrawalCents, transferCents int64) domain.Account {
	t.Helper()
	account := domain.NewCurrentAccount(
		domain.Party{Name: "Alice", Key: "alice-key"},
		domain.Party{Name: "RetailBank", Key: "bank-key"},
		uuid.New(), money.EUR, time.Now(),
	)
	account, err := account.WithLimits(&withdrawalCents, &transferCents)
	require.NoError(t, err)
	return account
}

func TestNilLimitIsUnlimited(t *testing.T) {
	account := domain.NewCurrentAccount(
		domain.Party{Name: "Alice", Key: "alice-key"},
		domain.Party{Name: "RetailBank", Key: "bank-key"},
		uuid.New(), money.EUR, time.Now(),
	)

	log := &stubTransactionLog{spent: 1 << 40}
	err := limits.CheckWithdrawalDailyLimit(context.Background(), log, account, money.FromMinorUnits(1_000_000, money.EUR), time.Now())
	assert.NoError(t, err)
	assert.Equal(t, uuid.Nil, log.accountID)
}

func TestWithdrawalWithinLimitPasses(t *testing.T) {
	account := limitedAccount(t, 50_000, 20_000)
	log := &stubTransactionLog{spent: 30_000}

	err := limits.CheckWithdrawalDailyLimit(context.Background(), log, account, money.FromMinorUnits(20_000, money.EUR), time.Now())
	assert.NoError(t, err)
	assert.Equal(t, limits.DebitTypeWithdrawal, log.debitType)
	assert.Equal(t, account.Data.AccountID, log.accountID)
}

func TestWithdrawalOverLimitReportsBothFigures(t *testing.T) {
	account := limitedAccount(t, 50_000, 20_000)
	log := &stubTransactionLog{spent: 30_000}

	err := limits.CheckWithdrawalDailyLimit(context.Background(), log, account, money.FromMinorUnits(25_000, money.EUR), time.Now())
	var exceeded *limits.DailyLimitExceededError
	require.ErrorAs(t, err, &exceeded)
	assert.Equal(t,
		"daily WITHDRAWAL limit exceeded: 300.00 EUR already spent today plus proposed 250.00 EUR exceeds the limit of 500.00 EUR",
		exceeded.Error())
}

func TestTransferLimitUsesTransferDebits(t *testing.T) {
	account := limitedAccount(t, 50_000, 20_000)
	log := &stubTransactionLog{spent: 15_000}

	err := limits.CheckTransferDailyLimit(context.Background(), log, account, money.FromMinorUnits(10_000, money.EUR), time.Now())
	var exceeded *limits.DailyLimitExceededError
	require.ErrorAs(t, err, &exceeded)
	assert.Equal(t, limits.DebitTypeTransfer, exceeded.Type)
}

func TestAggregationFailurePropagates(t *testing.T) {
	account := limitedAccount(t, 50_000, 20_000)
	log := &stubTransactionLog{err: errors.New("database unavailable")}

	err := limits.CheckWithdrawalDailyLimit(context.Background(), log, account, money.FromMinorUnits(100, money.EUR), time.Now())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "aggregate WITHDRAWAL debits")
}
