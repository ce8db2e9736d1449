package services

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/api-sage/retail-bank-ledger/internal/adapter/repository/postgres"
	"github.com/api-sage/retail-bank-ledger/internal/commons"
	"github.com/api-sage/retail-bank-ledger/internal/contract"
	"github.com/api-sage/retail-bank-ledger/internal/domain"
	"github.com/api-sage/retail-bank-ledger/internal/ledger"
	"github.com/api-sage/retail-bank-ledger/internal/limits"
	"github.com/api-sage/retail-bank-ledger/internal/logger"
	"github.com/api-sage/retail-bank-ledger/internal/money"
)

// monthlyPeriod approximates one calendar month for standing orders, which
// are stored as fixed durations.
const monthlyPeriod = 30 * 24 * time.Hour

// RecurringPaymentReader is the read-side projection surface for recurring
// payment entries.
type RecurringPaymentReader interface {
	GetByLinearID(ctx context.Context, linearID uuid.UUID) (domain.RecurringPaymentState, error)
	GetPaginated(ctx context.Context, params postgres.RepositoryQueryParams) (postgres.PaginatedResponse[domain.RecurringPaymentState], error)
}

type PaymentService struct {
	ledger        Submitter
	accountRepo   AccountReader
	recurringRepo RecurringPaymentReader
	pins          PinVerifier
	txLog         limits.TransactionLog
	now           func() time.Time
}

func NewPaymentService(
	l Submitter,
	accountRepo AccountReader,
	recurringRepo RecurringPaymentReader,
	pins PinVerifier,
	txLog limits.TransactionLog,
) *PaymentService {
	return &PaymentService{
		ledger:        l,
		accountRepo:   accountRepo,
		recurringRepo: recurringRepo,
		pins:          pins,
		txLog:         txLog,
		now:           time.Now,
	}
}

func (s *PaymentService) CreateIntrabankPayment(ctx context.Context, req IntrabankPaymentRequest) (commons.Response[PaymentResponse], error) {
	logger.Info("payment service intrabank payment request", logger.Fields{
		"payload": logger.SanitizePayload(req),
	})

	if err := req.Validate(); err != nil {
		logger.Error("payment service intrabank payment validation failed", err, nil)
		return commons.ErrorResponse[PaymentResponse](commons.ErrorKindValidation, "validation failed", err.Error()), err
	}

	amount, err := parseAmount(req.Amount, req.Currency)
	if err != nil {
		return commons.ErrorResponse[PaymentResponse](commons.ErrorKindValidation, "validation failed", err.Error()), err
	}

	projected, err := s.accountRepo.GetByAccountID(ctx, req.AccountFrom)
	if err != nil {
		if errors.Is(err, domain.ErrRecordNotFound) {
			return commons.ErrorResponse[PaymentResponse](commons.ErrorKindNotFound, "Account not found"), err
		}
		return commons.ErrorResponse[PaymentResponse](commons.ErrorKindInternal, "failed to make payment", "Unable to make payment right now"), err
	}

	if err := s.pins.VerifyTransactionPin(ctx, projected.Data.CustomerID, req.TransactionPin); err != nil {
		logger.Error("payment service intrabank payment pin verification failed", err, logger.Fields{
			"accountFrom": req.AccountFrom,
		})
		return commons.ErrorResponse[PaymentResponse](commons.ErrorKindValidation, "validation failed", "invalid transaction pin"), err
	}

	if err := limits.CheckTransferDailyLimit(ctx, s.txLog, projected, amount, s.now()); err != nil {
		logger.Error("payment service intrabank payment daily limit exceeded", err, logger.Fields{
			"accountFrom": req.AccountFrom,
		})
		return commons.ErrorResponse[PaymentResponse](commons.ErrorKindDailyLimit, "daily limit exceeded", err.Error()), err
	}

	response, err := s.transfer(ctx, req.AccountFrom, req.AccountTo, amount)
	if err != nil {
		logger.Error("payment service intrabank payment failed", err, logger.Fields{
			"accountFrom": req.AccountFrom,
			"accountTo":   req.AccountTo,
		})
		if errors.Is(err, domain.ErrRecordNotFound) {
			return commons.ErrorResponse[PaymentResponse](commons.ErrorKindNotFound, "Account not found"), err
		}
		return commons.ErrorResponse[PaymentResponse](commons.KindForRejection(err), "failed to make payment", err.Error()), err
	}

	logger.Info("payment service intrabank payment success", logger.Fields{
		"accountFrom": response.AccountFrom,
		"accountTo":   response.AccountTo,
		"amount":      response.Amount,
	})
	return commons.SuccessResponse("payment completed successfully", response), nil
}

// transfer debits the source free balance and credits the destination with
// deposit semantics in a single atomic ledger transaction.
func (s *PaymentService) transfer(ctx context.Context, accountFrom, accountTo uuid.UUID, amount money.Amount) (PaymentResponse, error) {
	var response PaymentResponse
	_, err := submitWithRetry(ctx, s.ledger, func(ctx context.Context) (*ledger.Transaction, error) {
		headFrom, from, err := headAccount(ctx, s.ledger, s.accountRepo, accountFrom)
		if err != nil {
			return nil, err
		}
		headTo, to, err := headAccount(ctx, s.ledger, s.accountRepo, accountTo)
		if err != nil {
			return nil, err
		}

		if from.Data.Balance.LessThan(amount) {
			shortfall, serr := amount.Sub(from.Data.Balance)
			if serr != nil {
				return nil, serr
			}
			return nil, &domain.InsufficientBalanceError{Shortfall: shortfall}
		}

		now := s.now()
		outFrom := from
		outFrom.Data.Balance, err = from.Data.Balance.Sub(amount)
		if err != nil {
			return nil, err
		}
		outFrom.Data.TxDate = now

		// Deposit semantics on the credit side, so a payment into a
		// loan account repays the outstanding principal.
		outTo, err := to.Deposit(amount, now)
		if err != nil {
			return nil, err
		}

		response = PaymentResponse{
			AccountFrom: from.Data.AccountID,
			AccountTo:   to.Data.AccountID,
			Amount:      amount.String(),
			FromBalance: outFrom.Data.Balance.String(),
			ToBalance:   outTo.Data.Balance.String(),
		}
		return &ledger.Transaction{
			Commands: []ledger.Command{contract.CreateIntrabankPayment{
				Amount:      amount,
				AccountFrom: from.Data.AccountID,
				AccountTo:   to.Data.AccountID,
			}},
			Inputs:  []ledger.StateAndRef{headFrom, headTo},
			Outputs: []ledger.State{outFrom, outTo},
			Signers: []string{from.Data.Owner.Key, to.Data.Owner.Key},
		}, nil
	})
	if err != nil {
		return PaymentResponse{}, err
	}
	return response, nil
}

func (s *PaymentService) CreateRecurringPayment(ctx context.Context, req CreateRecurringPaymentRequest) (commons.Response[RecurringPaymentResponse], error) {
	logger.Info("payment service create recurring payment request", logger.Fields{
		"payload": logger.SanitizePayload(req),
	})

	if err := req.Validate(); err != nil {
		logger.Error("payment service create recurring payment validation failed", err, nil)
		return commons.ErrorResponse[RecurringPaymentResponse](commons.ErrorKindValidation, "validation failed", err.Error()), err
	}

	amount, err := parseAmount(req.Amount, req.Currency)
	if err != nil {
		return commons.ErrorResponse[RecurringPaymentResponse](commons.ErrorKindValidation, "validation failed", err.Error()), err
	}

	from, err := s.accountRepo.GetByAccountID(ctx, req.AccountFrom)
	if err != nil {
		if errors.Is(err, domain.ErrRecordNotFound) {
			return commons.ErrorResponse[RecurringPaymentResponse](commons.ErrorKindNotFound, "Account not found"), err
		}
		return commons.ErrorResponse[RecurringPaymentResponse](commons.ErrorKindInternal, "failed to create recurring payment", "Unable to create recurring payment right now"), err
	}

	if err := s.pins.VerifyTransactionPin(ctx, from.Data.CustomerID, req.TransactionPin); err != nil {
		logger.Error("payment service create recurring payment pin verification failed", err, logger.Fields{
			"accountFrom": req.AccountFrom,
		})
		return commons.ErrorResponse[RecurringPaymentResponse](commons.ErrorKindValidation, "validation failed", "invalid transaction pin"), err
	}

	payment, err := s.createRecurringPayment(ctx, recurringPaymentSpec{
		accountFrom:  req.AccountFrom,
		accountTo:    req.AccountTo,
		amount:       amount,
		dateStart:    req.DateStart,
		period:       req.Period,
		iterationNum: req.IterationNum,
	})
	if err != nil {
		logger.Error("payment service create recurring payment failed", err, logger.Fields{
			"accountFrom": req.AccountFrom,
			"accountTo":   req.AccountTo,
		})
		if errors.Is(err, domain.ErrRecordNotFound) {
			return commons.ErrorResponse[RecurringPaymentResponse](commons.ErrorKindNotFound, "Account not found"), err
		}
		return commons.ErrorResponse[RecurringPaymentResponse](commons.KindForRejection(err), "failed to create recurring payment", err.Error()), err
	}

	response := recurringPaymentResponse(payment)
	logger.Info("payment service create recurring payment success", logger.Fields{
		"linearId":    response.LinearID,
		"accountFrom": response.AccountFrom,
		"accountTo":   response.AccountTo,
	})
	return commons.SuccessResponse("recurring payment created successfully", response), nil
}

type recurringPaymentSpec struct {
	accountFrom  uuid.UUID
	accountTo    uuid.UUID
	amount       money.Amount
	dateStart    time.Time
	period       time.Duration
	iterationNum *int
}

func (s *PaymentService) createRecurringPayment(ctx context.Context, spec recurringPaymentSpec) (domain.RecurringPaymentState, error) {
	var payment domain.RecurringPaymentState
	_, err := submitWithRetry(ctx, s.ledger, func(ctx context.Context) (*ledger.Transaction, error) {
		_, from, err := headAccount(ctx, s.ledger, s.accountRepo, spec.accountFrom)
		if err != nil {
			return nil, err
		}
		_, to, err := headAccount(ctx, s.ledger, s.accountRepo, spec.accountTo)
		if err != nil {
			return nil, err
		}

		now := s.now()
		payment = domain.RecurringPaymentState{
			AccountFrom:  spec.accountFrom,
			AccountTo:    spec.accountTo,
			Amount:       spec.amount,
			DateStart:    spec.dateStart,
			Period:       spec.period,
			IterationNum: spec.iterationNum,
			OwningParty:  from.Data.Owner,
			LinearID:     uuid.New(),
		}
		return &ledger.Transaction{
			Commands: []ledger.Command{contract.CreateRecurringPayment{
				AccountFromKey: from.Data.Owner.Key,
				AccountToKey:   to.Data.Owner.Key,
			}},
			Outputs:    []ledger.State{payment},
			Signers:    []string{from.Data.Owner.Key, to.Data.Owner.Key},
			TimeWindow: &ledger.TimeWindow{From: now, Until: now.Add(txWindowDuration)},
		}, nil
	})
	if err != nil {
		return domain.RecurringPaymentState{}, err
	}
	return payment, nil
}

// ExecuteRecurringPayment performs one due iteration: the transfer between
// the two accounts, then the schedule advancement. The advancement is
// committed even when the transfer is rejected, so a failing iteration is
// skipped rather than retried on every scheduler tick.
func (s *PaymentService) ExecuteRecurringPayment(ctx context.Context, payment domain.RecurringPaymentState) error {
	logger.Info("payment service execute recurring payment", logger.Fields{
		"linearId":    payment.LinearID,
		"accountFrom": payment.AccountFrom,
		"accountTo":   payment.AccountTo,
	})

	_, transferErr := s.transfer(ctx, payment.AccountFrom, payment.AccountTo, payment.Amount)
	if transferErr != nil {
		logger.Error("payment service recurring transfer failed", transferErr, logger.Fields{
			"linearId": payment.LinearID,
		})
	}

	if err := s.advanceRecurringPayment(ctx, payment.LinearID); err != nil {
		logger.Error("payment service recurring advancement failed", err, logger.Fields{
			"linearId": payment.LinearID,
		})
		return err
	}
	return transferErr
}

func (s *PaymentService) advanceRecurringPayment(ctx context.Context, linearID uuid.UUID) error {
	_, err := submitWithRetry(ctx, s.ledger, func(ctx context.Context) (*ledger.Transaction, error) {
		head, payment, err := s.headRecurringPayment(linearID)
		if err != nil {
			return nil, err
		}
		_, from, err := headAccount(ctx, s.ledger, s.accountRepo, payment.AccountFrom)
		if err != nil {
			return nil, err
		}
		_, to, err := headAccount(ctx, s.ledger, s.accountRepo, payment.AccountTo)
		if err != nil {
			return nil, err
		}

		return &ledger.Transaction{
			Commands: []ledger.Command{contract.ExecuteRecurringPayment{
				AccountFromKey: from.Data.Owner.Key,
				AccountToKey:   to.Data.Owner.Key,
			}},
			Inputs:  []ledger.StateAndRef{head},
			Outputs: []ledger.State{payment.Advance()},
			Signers: []string{from.Data.Owner.Key, to.Data.Owner.Key},
		}, nil
	})
	return err
}

func (s *PaymentService) CancelRecurringPayment(ctx context.Context, linearID uuid.UUID) (commons.Response[RecurringPaymentResponse], error) {
	logger.Info("payment service cancel recurring payment request", logger.Fields{
		"linearId": linearID,
	})

	var cancelled domain.RecurringPaymentState
	_, err := submitWithRetry(ctx, s.ledger, func(ctx context.Context) (*ledger.Transaction, error) {
		head, payment, err := s.headRecurringPayment(linearID)
		if err != nil {
			return nil, err
		}
		toHead, _, err := headAccount(ctx, s.ledger, s.accountRepo, payment.AccountTo)
		if err != nil {
			return nil, err
		}

		now := s.now()
		cancelled = payment
		return &ledger.Transaction{
			Commands:   []ledger.Command{contract.CancelRecurringPayment{}},
			Inputs:     []ledger.StateAndRef{head},
			References: []ledger.StateAndRef{toHead},
			Signers:    []string{payment.OwningParty.Key},
			TimeWindow: &ledger.TimeWindow{From: now, Until: now.Add(txWindowDuration)},
		}, nil
	})
	if err != nil {
		logger.Error("payment service cancel recurring payment failed", err, logger.Fields{
			"linearId": linearID,
		})
		if errors.Is(err, domain.ErrRecordNotFound) {
			return commons.ErrorResponse[RecurringPaymentResponse](commons.ErrorKindNotFound, "Recurring payment not found"), err
		}
		return commons.ErrorResponse[RecurringPaymentResponse](commons.KindForRejection(err), "failed to cancel recurring payment", err.Error()), err
	}

	response := recurringPaymentResponse(cancelled)
	logger.Info("payment service cancel recurring payment success", logger.Fields{
		"linearId": linearID,
	})
	return commons.SuccessResponse("recurring payment cancelled successfully", response), nil
}

func (s *PaymentService) GetRecurringPayment(ctx context.Context, linearID uuid.UUID) (commons.Response[RecurringPaymentResponse], error) {
	payment, err := s.recurringRepo.GetByLinearID(ctx, linearID)
	if err != nil {
		if errors.Is(err, domain.ErrRecordNotFound) {
			return commons.ErrorResponse[RecurringPaymentResponse](commons.ErrorKindNotFound, "Recurring payment not found"), err
		}
		return commons.ErrorResponse[RecurringPaymentResponse](commons.ErrorKindInternal, "failed to get recurring payment", "Unable to fetch recurring payment right now"), err
	}
	return commons.SuccessResponse("recurring payment fetched successfully", recurringPaymentResponse(payment)), nil
}

func (s *PaymentService) GetRecurringPaymentsPaginated(ctx context.Context, params postgres.RepositoryQueryParams) (commons.Response[postgres.PaginatedResponse[domain.RecurringPaymentState]], error) {
	page, err := s.recurringRepo.GetPaginated(ctx, params)
	if err != nil {
		logger.Error("payment service paginated query failed", err, logger.Fields{
			"sortField": params.SortField,
		})
		return commons.ErrorResponse[postgres.PaginatedResponse[domain.RecurringPaymentState]](commons.ErrorKindValidation, "failed to query recurring payments", err.Error()), err
	}
	return commons.SuccessResponse("recurring payments fetched successfully", page), nil
}

func (s *PaymentService) headRecurringPayment(linearID uuid.UUID) (ledger.StateAndRef, domain.RecurringPaymentState, error) {
	head, ok := s.ledger.Head(linearID)
	if !ok {
		return ledger.StateAndRef{}, domain.RecurringPaymentState{}, domain.ErrRecordNotFound
	}
	payment, ok := head.State.(domain.RecurringPaymentState)
	if !ok {
		return ledger.StateAndRef{}, domain.RecurringPaymentState{}, domain.ErrRecordNotFound
	}
	return head, payment, nil
}

func recurringPaymentResponse(payment domain.RecurringPaymentState) RecurringPaymentResponse {
	return RecurringPaymentResponse{
		LinearID:     payment.LinearID,
		AccountFrom:  payment.AccountFrom,
		AccountTo:    payment.AccountTo,
		Amount:       payment.Amount.String(),
		DateStart:    payment.DateStart.Format(time.RFC3339),
		Period:       payment.Period.String(),
		IterationNum: payment.IterationNum,
	}
}
