package domain

import (
	"errors"
	"fmt"

	"github.com/api-sage/retail-bank-ledger/internal/money"
)

var ErrRecordNotFound = errors.New("Record not found")

// InsufficientBalanceError carries the shortfall so callers can tell the user
// exactly how much is missing.
type InsufficientBalanceError struct {
	Shortfall money.Amount
}

func (e *InsufficientBalanceError) Error() string {
	return fmt.Sprintf("Insufficient balance, missing %s", e.Shortfall)
}

type IllegalStatusTransitionError struct {
	From AccountStatus
	To   AccountStatus
}

func (e *IllegalStatusTransitionError) Error() string {
	return fmt.Sprintf("Illegal account status transition from %s to %s", e.From, e.To)
}

type AccountNotActiveError struct {
	Status AccountStatus
}

func (e *AccountNotActiveError) Error() string {
	return fmt.Sprintf("Account is not active, current status is %s", e.Status)
}
