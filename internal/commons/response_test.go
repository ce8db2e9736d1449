package commons_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/api-sage/retail-bank-ledger/internal/commons"
	"github.com/api-sage/retail-bank-ledger/internal/domain"
	"github.com/api-sage/retail-bank-ledger/internal/ledger"
	"github.com/api-sage/retail-bank-ledger/internal/limits"
	"github.com/api-sage/retail-bank-ledger/internal/money"
)

func TestKindForError(t *testing.T) {
	cases := []struct {
		name string
		err  error
		kind commons.ErrorKind
	}{
		{"record not found", domain.ErrRecordNotFound, commons.ErrorKindNotFound},
		{"wrapped not found", fmt.Errorf("account lookup: %w", domain.ErrRecordNotFound), commons.ErrorKindNotFound},
		{"double spend", fmt.Errorf("notary rejected: %w", ledger.ErrInputStateConsumed), commons.ErrorKindConflict},
		{"insufficient balance", &domain.InsufficientBalanceError{Shortfall: money.Zero(money.EUR)}, commons.ErrorKindInsufficientFunds},
		{"daily limit", &limits.DailyLimitExceededError{}, commons.ErrorKindDailyLimit},
		{"illegal transition", &domain.IllegalStatusTransitionError{}, commons.ErrorKindValidation},
		{"not active", &domain.AccountNotActiveError{}, commons.ErrorKindValidation},
		{"unknown", errors.New("boom"), commons.ErrorKindInternal},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.kind, commons.KindForError(tc.err))
		})
	}
}

func TestKindForRejectionDefaultsToValidation(t *testing.T) {
	assert.Equal(t, commons.ErrorKindValidation, commons.KindForRejection(errors.New("Amount should be greater than 0")))
	assert.Equal(t, commons.ErrorKindConflict, commons.KindForRejection(fmt.Errorf("notary rejected: %w", ledger.ErrInputStateConsumed)))
}

func TestResponseEnvelopes(t *testing.T) {
	ok := commons.SuccessResponse("created", 42)
	assert.True(t, ok.Success)
	assert.Equal(t, 42, *ok.Data)

	bad := commons.ErrorResponse[int](commons.ErrorKindValidation, "validation failed", "amount is required")
	assert.False(t, bad.Success)
	assert.Equal(t, commons.ErrorKindValidation, bad.Kind)
	assert.Nil(t, bad.Data)
	assert.Equal(t, []string{"amount is required"}, bad.Errors)
}
