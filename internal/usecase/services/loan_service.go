package services

import (
	"context"
	"crypto/ed25519"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/api-sage/retail-bank-ledger/internal/commons"
	"github.com/api-sage/retail-bank-ledger/internal/contract"
	"github.com/api-sage/retail-bank-ledger/internal/domain"
	"github.com/api-sage/retail-bank-ledger/internal/ledger"
	"github.com/api-sage/retail-bank-ledger/internal/logger"
	"github.com/api-sage/retail-bank-ledger/internal/money"
	"github.com/api-sage/retail-bank-ledger/internal/oracle"
)

// OracleClient obtains signed credit-rating facts for a customer.
type OracleClient interface {
	GetCreditRating(ctx context.Context, customerID uuid.UUID) (*oracle.SignedCreditRating, error)
}

// LoanTerms carries the bank-level loan policy the flows apply.
type LoanTerms struct {
	// Minimum rating (exclusive) required to issue a loan.
	CreditRatingThreshold int
	// How long an oracle-signed rating may be relied upon after issuance.
	CreditRatingValidity time.Duration
	// Interval between repayment installments.
	RepaymentPeriod time.Duration
}

type LoanService struct {
	ledger      Submitter
	accountRepo AccountReader
	oracle      OracleClient
	// Oracle signing identity: the public key verifies rating facts and its
	// hex form names the oracle in the transaction signer list.
	oraclePub ed25519.PublicKey
	oracleKey string
	terms     LoanTerms
	payments  *PaymentService
	now       func() time.Time
}

func NewLoanService(
	l Submitter,
	accountRepo AccountReader,
	oracleClient OracleClient,
	oraclePub ed25519.PublicKey,
	oracleKey string,
	terms LoanTerms,
	payments *PaymentService,
) *LoanService {
	return &LoanService{
		ledger:      l,
		accountRepo: accountRepo,
		oracle:      oracleClient,
		oraclePub:   oraclePub,
		oracleKey:   oracleKey,
		terms:       terms,
		payments:    payments,
		now:         time.Now,
	}
}

func (s *LoanService) IssueLoan(ctx context.Context, req IssueLoanRequest) (commons.Response[IssueLoanResponse], error) {
	logger.Info("loan service issue loan request", logger.Fields{
		"payload": logger.SanitizePayload(req),
	})

	if err := req.Validate(); err != nil {
		logger.Error("loan service issue loan validation failed", err, nil)
		return commons.ErrorResponse[IssueLoanResponse](commons.ErrorKindValidation, "validation failed", err.Error()), err
	}

	amount, err := parseAmount(req.Amount, req.Currency)
	if err != nil {
		return commons.ErrorResponse[IssueLoanResponse](commons.ErrorKindValidation, "validation failed", err.Error()), err
	}

	projected, err := s.accountRepo.GetByAccountID(ctx, req.AccountID)
	if err != nil {
		if errors.Is(err, domain.ErrRecordNotFound) {
			return commons.ErrorResponse[IssueLoanResponse](commons.ErrorKindNotFound, "Account not found"), err
		}
		return commons.ErrorResponse[IssueLoanResponse](commons.ErrorKindInternal, "failed to issue loan", "Unable to issue loan right now"), err
	}

	rating, err := s.oracle.GetCreditRating(ctx, projected.Data.CustomerID)
	if err != nil {
		logger.Error("loan service credit rating fetch failed", err, logger.Fields{
			"customerId": projected.Data.CustomerID,
		})
		if errors.Is(err, domain.ErrRecordNotFound) {
			return commons.ErrorResponse[IssueLoanResponse](commons.ErrorKindNotFound, "Credit rating not found for customer"), err
		}
		return commons.ErrorResponse[IssueLoanResponse](commons.ErrorKindInternal, "failed to issue loan", "Unable to obtain a credit rating right now"), err
	}
	if err := rating.Verify(s.oraclePub); err != nil {
		logger.Error("loan service credit rating signature invalid", err, logger.Fields{
			"customerId": projected.Data.CustomerID,
		})
		return commons.ErrorResponse[IssueLoanResponse](commons.ErrorKindValidation, "failed to issue loan", err.Error()), err
	}

	var (
		loan           domain.Account
		updatedCurrent domain.Account
	)
	_, err = submitWithRetry(ctx, s.ledger, func(ctx context.Context) (*ledger.Transaction, error) {
		head, current, err := headAccount(ctx, s.ledger, s.accountRepo, req.AccountID)
		if err != nil {
			return nil, err
		}
		if err := current.VerifyIsActive(); err != nil {
			return nil, err
		}

		now := s.now()
		loan = domain.NewLoanAccount(current.Data.Owner, current.Data.Bank, current.Data.CustomerID, amount, now)

		updatedCurrent = current
		updatedCurrent.Data.Balance, err = current.Data.Balance.Add(amount)
		if err != nil {
			return nil, err
		}
		updatedCurrent.Data.TxDate = now

		return &ledger.Transaction{
			Commands: []ledger.Command{
				contract.IssueLoan{Amount: amount},
				contract.VerifyCreditRating{
					Rating:    rating.Info,
					Threshold: s.terms.CreditRatingThreshold,
					Validity:  s.terms.CreditRatingValidity,
					OracleKey: s.oracleKey,
				},
			},
			Inputs:     []ledger.StateAndRef{head},
			Outputs:    []ledger.State{updatedCurrent, loan},
			Signers:    []string{current.Data.Bank.Key, s.oracleKey},
			TimeWindow: &ledger.TimeWindow{From: now, Until: now.Add(txWindowDuration)},
		}, nil
	})
	if err != nil {
		logger.Error("loan service issue loan failed", err, logger.Fields{
			"accountId": req.AccountID,
		})
		if errors.Is(err, domain.ErrRecordNotFound) {
			return commons.ErrorResponse[IssueLoanResponse](commons.ErrorKindNotFound, "Account not found"), err
		}
		return commons.ErrorResponse[IssueLoanResponse](commons.KindForRejection(err), "failed to issue loan", err.Error()), err
	}

	response := IssueLoanResponse{
		LoanAccountID:    loan.Data.AccountID,
		CurrentAccountID: updatedCurrent.Data.AccountID,
		LoanBalance:      loan.Data.Balance.String(),
		CurrentBalance:   updatedCurrent.Data.Balance.String(),
	}

	// Repayment standing order: equal installments from the current account
	// into the loan account, one per repayment period. Rounding drift on the
	// per-installment amount is absorbed by the final repayment deposit.
	installment, err := money.New(
		req.Amount.Div(decimal.NewFromInt(int64(req.Installments))),
		amount.Currency,
	)
	if err == nil && installment.IsPositive() && s.payments != nil {
		iterations := req.Installments
		schedule, scheduleErr := s.payments.createRecurringPayment(ctx, recurringPaymentSpec{
			accountFrom:  updatedCurrent.Data.AccountID,
			accountTo:    loan.Data.AccountID,
			amount:       installment,
			dateStart:    s.now().Add(s.terms.RepaymentPeriod),
			period:       s.terms.RepaymentPeriod,
			iterationNum: &iterations,
		})
		if scheduleErr != nil {
			logger.Error("loan service repayment schedule failed", scheduleErr, logger.Fields{
				"loanAccountId": loan.Data.AccountID,
			})
			return commons.ErrorResponse[IssueLoanResponse](commons.KindForRejection(scheduleErr), "failed to schedule loan repayment", scheduleErr.Error()), scheduleErr
		}
		response.RepaymentScheduleID = &schedule.LinearID
	}

	logger.Info("loan service issue loan success", logger.Fields{
		"loanAccountId":    response.LoanAccountID,
		"currentAccountId": response.CurrentAccountID,
		"amount":           amount.String(),
	})
	return commons.SuccessResponse("loan issued successfully", response), nil
}
