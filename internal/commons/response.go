package commons

import (
	"errors"

	"github.com/api-sage/retail-bank-ledger/internal/domain"
	"github.com/api-sage/retail-bank-ledger/internal/ledger"
	"github.com/api-sage/retail-bank-ledger/internal/limits"
)

// ErrorKind classifies a failure for callers: user input versus missing
// records versus deployment defects.
type ErrorKind string

const (
	ErrorKindValidation        ErrorKind = "VALIDATION"
	ErrorKindInsufficientFunds ErrorKind = "INSUFFICIENT_FUNDS"
	ErrorKindNotFound          ErrorKind = "NOT_FOUND"
	ErrorKindDailyLimit        ErrorKind = "DAILY_LIMIT"
	ErrorKindConflict          ErrorKind = "CONFLICT"
	ErrorKindConfiguration     ErrorKind = "CONFIGURATION"
	ErrorKindInternal          ErrorKind = "INTERNAL"
)

type Response[T any] struct {
	Success bool      `json:"success"`
	Message string    `json:"message"`
	Kind    ErrorKind `json:"kind,omitempty"`
	Data    *T        `json:"data,omitempty"`
	Errors  []string  `json:"errors,omitempty"`
}

func SuccessResponse[T any](message string, data T) Response[T] {
	return Response[T]{
		Success: true,
		Message: message,
		Data:    &data,
	}
}

func ErrorResponse[T any](kind ErrorKind, message string, errs ...string) Response[T] {
	return Response[T]{
		Success: false,
		Message: message,
		Kind:    kind,
		Errors:  errs,
	}
}

// KindForRejection classifies an error returned by transaction submission,
// where an error not otherwise recognized is a contract predicate failure.
func KindForRejection(err error) ErrorKind {
	if k := KindForError(err); k != ErrorKindInternal {
		return k
	}
	return ErrorKindValidation
}

// KindForError maps an error to its kind for the response envelope.
func KindForError(err error) ErrorKind {
	var insufficient *domain.InsufficientBalanceError
	var illegalStatus *domain.IllegalStatusTransitionError
	var notActive *domain.AccountNotActiveError
	var dailyLimit *limits.DailyLimitExceededError

	switch {
	case errors.Is(err, domain.ErrRecordNotFound):
		return ErrorKindNotFound
	case errors.Is(err, ledger.ErrInputStateConsumed):
		return ErrorKindConflict
	case errors.As(err, &insufficient):
		return ErrorKindInsufficientFunds
	case errors.As(err, &dailyLimit):
		return ErrorKindDailyLimit
	case errors.As(err, &illegalStatus), errors.As(err, &notActive):
		return ErrorKindValidation
	default:
		return ErrorKindInternal
	}
}
