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

// AccountReader is the read-side projection surface used to resolve accounts
// before a transaction is built against the ledger heads.
type AccountReader interface {
	GetByAccountID(ctx context.Context, accountID uuid.UUID) (domain.Account, error)
	GetByCustomerID(ctx context.Context, customerID uuid.UUID) ([]domain.Account, error)
	GetPaginated(ctx context.Context, params postgres.RepositoryQueryParams) (postgres.PaginatedResponse[domain.Account], error)
}

// PinVerifier authorizes debit-side operations with the customer's
// transaction PIN.
type PinVerifier interface {
	VerifyTransactionPin(ctx context.Context, customerID uuid.UUID, pin string) error
}

type AccountService struct {
	ledger       Submitter
	accountRepo  AccountReader
	customerRepo domain.CustomerRepository
	pins         PinVerifier
	txLog        limits.TransactionLog
	payments     *PaymentService
	bank         domain.Party
	now          func() time.Time
}

func NewAccountService(
	l Submitter,
	accountRepo AccountReader,
	customerRepo domain.CustomerRepository,
	pins PinVerifier,
	txLog limits.TransactionLog,
	payments *PaymentService,
	bank domain.Party,
) *AccountService {
	return &AccountService{
		ledger:       l,
		accountRepo:  accountRepo,
		customerRepo: customerRepo,
		pins:         pins,
		txLog:        txLog,
		payments:     payments,
		bank:         bank,
		now:          time.Now,
	}
}

func (s *AccountService) CreateCurrentAccount(ctx context.Context, req CreateCurrentAccountRequest) (commons.Response[AccountResponse], error) {
	logger.Info("account service create current account request", logger.Fields{
		"payload": logger.SanitizePayload(req),
	})

	if err := req.Validate(); err != nil {
		logger.Error("account service create current account validation failed", err, nil)
		return commons.ErrorResponse[AccountResponse](commons.ErrorKindValidation, "validation failed", err.Error()), err
	}

	currency, err := money.ParseCurrency(req.Currency)
	if err != nil {
		return commons.ErrorResponse[AccountResponse](commons.ErrorKindValidation, "validation failed", err.Error()), err
	}

	customer, err := s.customerRepo.GetByCustomerID(ctx, req.CustomerID)
	if err != nil {
		logger.Error("account service create current account customer lookup failed", err, logger.Fields{
			"customerId": req.CustomerID,
		})
		if errors.Is(err, domain.ErrRecordNotFound) {
			return commons.ErrorResponse[AccountResponse](commons.ErrorKindNotFound, "Customer not found"), err
		}
		return commons.ErrorResponse[AccountResponse](commons.ErrorKindInternal, "failed to create account", "Unable to create account right now"), err
	}

	owner := domain.Party{Name: customer.CustomerName, Key: uuid.NewString()}
	account := domain.NewCurrentAccount(owner, s.bank, customer.CustomerID, currency, s.now())
	if req.WithdrawalDailyLimit != nil || req.TransferDailyLimit != nil {
		account, err = account.WithLimits(req.WithdrawalDailyLimit, req.TransferDailyLimit)
		if err != nil {
			return commons.ErrorResponse[AccountResponse](commons.ErrorKindValidation, "validation failed", err.Error()), err
		}
	}

	tx := &ledger.Transaction{
		Commands: []ledger.Command{contract.CreateCurrentAccount{}},
		Outputs:  []ledger.State{account},
		Signers:  []string{owner.Key, s.bank.Key},
	}
	if _, err := s.ledger.Commit(ctx, tx); err != nil {
		logger.Error("account service create current account commit failed", err, logger.Fields{
			"customerId": customer.CustomerID,
		})
		return commons.ErrorResponse[AccountResponse](commons.KindForRejection(err), "failed to create account", err.Error()), err
	}

	response := accountResponse(account)
	logger.Info("account service create current account success", logger.Fields{
		"accountId":  response.AccountID,
		"customerId": response.CustomerID,
	})
	return commons.SuccessResponse("account created successfully", response), nil
}

func (s *AccountService) CreateSavingsAccount(ctx context.Context, req CreateSavingsAccountRequest) (commons.Response[AccountResponse], error) {
	logger.Info("account service create savings account request", logger.Fields{
		"payload": logger.SanitizePayload(req),
	})

	if err := req.Validate(); err != nil {
		logger.Error("account service create savings account validation failed", err, nil)
		return commons.ErrorResponse[AccountResponse](commons.ErrorKindValidation, "validation failed", err.Error()), err
	}

	currency, err := money.ParseCurrency(req.Currency)
	if err != nil {
		return commons.ErrorResponse[AccountResponse](commons.ErrorKindValidation, "validation failed", err.Error()), err
	}

	customer, err := s.customerRepo.GetByCustomerID(ctx, req.CustomerID)
	if err != nil {
		if errors.Is(err, domain.ErrRecordNotFound) {
			return commons.ErrorResponse[AccountResponse](commons.ErrorKindNotFound, "Customer not found"), err
		}
		return commons.ErrorResponse[AccountResponse](commons.ErrorKindInternal, "failed to create account", "Unable to create account right now"), err
	}

	start := s.now()
	owner := domain.Party{Name: customer.CustomerName, Key: uuid.NewString()}
	account := domain.NewSavingsAccount(owner, s.bank, customer.CustomerID, currency, start, req.PeriodMonths, start)

	tx := &ledger.Transaction{
		Commands: []ledger.Command{contract.CreateSavingsAccount{StartDate: start, PeriodMonths: req.PeriodMonths}},
		Outputs:  []ledger.State{account},
		Signers:  []string{owner.Key, s.bank.Key},
	}
	if _, err := s.ledger.Commit(ctx, tx); err != nil {
		logger.Error("account service create savings account commit failed", err, logger.Fields{
			"customerId": customer.CustomerID,
		})
		return commons.ErrorResponse[AccountResponse](commons.KindForRejection(err), "failed to create account", err.Error()), err
	}

	// Standing order funding the savings plan, one deposit per month for the
	// whole savings period.
	if req.FundingAccountID != nil && s.payments != nil {
		iterations := req.PeriodMonths
		if _, err := s.payments.createRecurringPayment(ctx, recurringPaymentSpec{
			accountFrom:  *req.FundingAccountID,
			accountTo:    account.Data.AccountID,
			amount:       money.Amount{Quantity: req.MonthlyDeposit.Round(2), Currency: currency},
			dateStart:    start.AddDate(0, 1, 0),
			period:       monthlyPeriod,
			iterationNum: &iterations,
		}); err != nil {
			logger.Error("account service create savings funding schedule failed", err, logger.Fields{
				"accountId":        account.Data.AccountID,
				"fundingAccountId": *req.FundingAccountID,
			})
			return commons.ErrorResponse[AccountResponse](commons.KindForRejection(err), "failed to schedule savings funding", err.Error()), err
		}
	}

	response := accountResponse(account)
	logger.Info("account service create savings account success", logger.Fields{
		"accountId":  response.AccountID,
		"customerId": response.CustomerID,
	})
	return commons.SuccessResponse("account created successfully", response), nil
}

func (s *AccountService) Deposit(ctx context.Context, req DepositRequest) (commons.Response[AccountResponse], error) {
	logger.Info("account service deposit request", logger.Fields{
		"payload": logger.SanitizePayload(req),
	})

	if err := req.Validate(); err != nil {
		logger.Error("account service deposit validation failed", err, nil)
		return commons.ErrorResponse[AccountResponse](commons.ErrorKindValidation, "validation failed", err.Error()), err
	}

	amount, err := parseAmount(req.Amount, req.Currency)
	if err != nil {
		return commons.ErrorResponse[AccountResponse](commons.ErrorKindValidation, "validation failed", err.Error()), err
	}

	var updated domain.Account
	_, err = submitWithRetry(ctx, s.ledger, func(ctx context.Context) (*ledger.Transaction, error) {
		head, account, err := headAccount(ctx, s.ledger, s.accountRepo, req.AccountID)
		if err != nil {
			return nil, err
		}

		updated, err = account.Deposit(amount, s.now())
		if err != nil {
			return nil, err
		}

		return &ledger.Transaction{
			Commands: []ledger.Command{contract.DepositFunds{Amount: amount}},
			Inputs:   []ledger.StateAndRef{head},
			Outputs:  []ledger.State{updated},
			Signers:  []string{account.Data.Bank.Key},
		}, nil
	})
	if err != nil {
		logger.Error("account service deposit failed", err, logger.Fields{
			"accountId": req.AccountID,
		})
		if errors.Is(err, domain.ErrRecordNotFound) {
			return commons.ErrorResponse[AccountResponse](commons.ErrorKindNotFound, "Account not found"), err
		}
		return commons.ErrorResponse[AccountResponse](commons.KindForRejection(err), "failed to deposit funds", err.Error()), err
	}

	response := accountResponse(updated)
	logger.Info("account service deposit success", logger.Fields{
		"accountId": response.AccountID,
		"balance":   response.Balance,
	})
	return commons.SuccessResponse("funds deposited successfully", response), nil
}

func (s *AccountService) Withdraw(ctx context.Context, req WithdrawRequest) (commons.Response[AccountResponse], error) {
	logger.Info("account service withdraw request", logger.Fields{
		"payload": logger.SanitizePayload(req),
	})

	if err := req.Validate(); err != nil {
		logger.Error("account service withdraw validation failed", err, nil)
		return commons.ErrorResponse[AccountResponse](commons.ErrorKindValidation, "validation failed", err.Error()), err
	}

	amount, err := parseAmount(req.Amount, req.Currency)
	if err != nil {
		return commons.ErrorResponse[AccountResponse](commons.ErrorKindValidation, "validation failed", err.Error()), err
	}

	projected, err := s.accountRepo.GetByAccountID(ctx, req.AccountID)
	if err != nil {
		if errors.Is(err, domain.ErrRecordNotFound) {
			return commons.ErrorResponse[AccountResponse](commons.ErrorKindNotFound, "Account not found"), err
		}
		return commons.ErrorResponse[AccountResponse](commons.ErrorKindInternal, "failed to withdraw funds", "Unable to withdraw funds right now"), err
	}

	if err := s.pins.VerifyTransactionPin(ctx, projected.Data.CustomerID, req.TransactionPin); err != nil {
		logger.Error("account service withdraw pin verification failed", err, logger.Fields{
			"accountId": req.AccountID,
		})
		return commons.ErrorResponse[AccountResponse](commons.ErrorKindValidation, "validation failed", "invalid transaction pin"), err
	}

	// Advisory business-rule check, evaluated before the transaction is
	// built. Not part of contract verification.
	if err := limits.CheckWithdrawalDailyLimit(ctx, s.txLog, projected, amount, s.now()); err != nil {
		logger.Error("account service withdraw daily limit exceeded", err, logger.Fields{
			"accountId": req.AccountID,
		})
		return commons.ErrorResponse[AccountResponse](commons.ErrorKindDailyLimit, "daily limit exceeded", err.Error()), err
	}

	var updated domain.Account
	_, err = submitWithRetry(ctx, s.ledger, func(ctx context.Context) (*ledger.Transaction, error) {
		head, account, err := headAccount(ctx, s.ledger, s.accountRepo, req.AccountID)
		if err != nil {
			return nil, err
		}

		updated, err = account.Withdraw(amount, s.now())
		if err != nil {
			return nil, err
		}

		return &ledger.Transaction{
			Commands: []ledger.Command{contract.WithdrawFunds{Amount: amount}},
			Inputs:   []ledger.StateAndRef{head},
			Outputs:  []ledger.State{updated},
			Signers:  []string{account.Data.Bank.Key},
		}, nil
	})
	if err != nil {
		logger.Error("account service withdraw failed", err, logger.Fields{
			"accountId": req.AccountID,
		})
		return commons.ErrorResponse[AccountResponse](commons.KindForRejection(err), "failed to withdraw funds", err.Error()), err
	}

	response := accountResponse(updated)
	logger.Info("account service withdraw success", logger.Fields{
		"accountId": response.AccountID,
		"balance":   response.Balance,
	})
	return commons.SuccessResponse("funds withdrawn successfully", response), nil
}

func (s *AccountService) SetAccountStatus(ctx context.Context, req SetAccountStatusRequest) (commons.Response[AccountResponse], error) {
	logger.Info("account service set status request", logger.Fields{
		"payload": logger.SanitizePayload(req),
	})

	if err := req.Validate(); err != nil {
		return commons.ErrorResponse[AccountResponse](commons.ErrorKindValidation, "validation failed", err.Error()), err
	}
	status := domain.AccountStatus(req.Status)

	var updated domain.Account
	_, err := submitWithRetry(ctx, s.ledger, func(ctx context.Context) (*ledger.Transaction, error) {
		head, account, err := headAccount(ctx, s.ledger, s.accountRepo, req.AccountID)
		if err != nil {
			return nil, err
		}

		updated = account.WithStatus(status)
		return &ledger.Transaction{
			Commands: []ledger.Command{contract.SetAccountStatus{Status: status}},
			Inputs:   []ledger.StateAndRef{head},
			Outputs:  []ledger.State{updated},
			Signers:  []string{account.Data.Bank.Key},
		}, nil
	})
	if err != nil {
		logger.Error("account service set status failed", err, logger.Fields{
			"accountId": req.AccountID,
			"status":    req.Status,
		})
		if errors.Is(err, domain.ErrRecordNotFound) {
			return commons.ErrorResponse[AccountResponse](commons.ErrorKindNotFound, "Account not found"), err
		}
		return commons.ErrorResponse[AccountResponse](commons.KindForRejection(err), "failed to set account status", err.Error()), err
	}

	response := accountResponse(updated)
	logger.Info("account service set status success", logger.Fields{
		"accountId": response.AccountID,
		"status":    response.Status,
	})
	return commons.SuccessResponse("account status updated successfully", response), nil
}

func (s *AccountService) ApproveOverdraft(ctx context.Context, req ApproveOverdraftRequest) (commons.Response[AccountResponse], error) {
	logger.Info("account service approve overdraft request", logger.Fields{
		"payload": logger.SanitizePayload(req),
	})

	if err := req.Validate(); err != nil {
		return commons.ErrorResponse[AccountResponse](commons.ErrorKindValidation, "validation failed", err.Error()), err
	}

	var updated domain.Account
	_, err := submitWithRetry(ctx, s.ledger, func(ctx context.Context) (*ledger.Transaction, error) {
		head, account, err := headAccount(ctx, s.ledger, s.accountRepo, req.AccountID)
		if err != nil {
			return nil, err
		}

		limit := money.FromMinorUnits(req.LimitCents, account.Data.Balance.Currency)
		updated = account
		updated.OverdraftBalance = money.Zero(account.Data.Balance.Currency)
		updated.ApprovedOverdraftLimit = &limit

		return &ledger.Transaction{
			Commands: []ledger.Command{contract.ApproveOverdraft{Limit: limit}},
			Inputs:   []ledger.StateAndRef{head},
			Outputs:  []ledger.State{updated},
			Signers:  []string{account.Data.Bank.Key},
		}, nil
	})
	if err != nil {
		logger.Error("account service approve overdraft failed", err, logger.Fields{
			"accountId": req.AccountID,
		})
		if errors.Is(err, domain.ErrRecordNotFound) {
			return commons.ErrorResponse[AccountResponse](commons.ErrorKindNotFound, "Account not found"), err
		}
		return commons.ErrorResponse[AccountResponse](commons.KindForRejection(err), "failed to approve overdraft", err.Error()), err
	}

	response := accountResponse(updated)
	logger.Info("account service approve overdraft success", logger.Fields{
		"accountId": response.AccountID,
	})
	return commons.SuccessResponse("overdraft approved successfully", response), nil
}

func (s *AccountService) SetAccountLimits(ctx context.Context, req SetAccountLimitsRequest) (commons.Response[AccountResponse], error) {
	logger.Info("account service set limits request", logger.Fields{
		"payload": logger.SanitizePayload(req),
	})

	if err := req.Validate(); err != nil {
		return commons.ErrorResponse[AccountResponse](commons.ErrorKindValidation, "validation failed", err.Error()), err
	}

	var updated domain.Account
	_, err := submitWithRetry(ctx, s.ledger, func(ctx context.Context) (*ledger.Transaction, error) {
		head, account, err := headAccount(ctx, s.ledger, s.accountRepo, req.AccountID)
		if err != nil {
			return nil, err
		}

		updated, err = account.WithLimits(req.WithdrawalDailyLimit, req.TransferDailyLimit)
		if err != nil {
			return nil, err
		}

		return &ledger.Transaction{
			Commands: []ledger.Command{contract.SetLimits{
				WithdrawalDailyLimit: req.WithdrawalDailyLimit,
				TransferDailyLimit:   req.TransferDailyLimit,
			}},
			Inputs:  []ledger.StateAndRef{head},
			Outputs: []ledger.State{updated},
			Signers: []string{account.Data.Bank.Key},
		}, nil
	})
	if err != nil {
		logger.Error("account service set limits failed", err, logger.Fields{
			"accountId": req.AccountID,
		})
		if errors.Is(err, domain.ErrRecordNotFound) {
			return commons.ErrorResponse[AccountResponse](commons.ErrorKindNotFound, "Account not found"), err
		}
		return commons.ErrorResponse[AccountResponse](commons.KindForRejection(err), "failed to set account limits", err.Error()), err
	}

	response := accountResponse(updated)
	logger.Info("account service set limits success", logger.Fields{
		"accountId": response.AccountID,
	})
	return commons.SuccessResponse("account limits updated successfully", response), nil
}

func (s *AccountService) GetAccount(ctx context.Context, accountID uuid.UUID) (commons.Response[AccountResponse], error) {
	account, err := s.accountRepo.GetByAccountID(ctx, accountID)
	if err != nil {
		if errors.Is(err, domain.ErrRecordNotFound) {
			return commons.ErrorResponse[AccountResponse](commons.ErrorKindNotFound, "Account not found"), err
		}
		return commons.ErrorResponse[AccountResponse](commons.ErrorKindInternal, "failed to get account", "Unable to fetch account right now"), err
	}
	return commons.SuccessResponse("account fetched successfully", accountResponse(account)), nil
}

// GetAccountsPaginated serves the reporting query contract.
func (s *AccountService) GetAccountsPaginated(ctx context.Context, params postgres.RepositoryQueryParams) (commons.Response[postgres.PaginatedResponse[domain.Account]], error) {
	page, err := s.accountRepo.GetPaginated(ctx, params)
	if err != nil {
		logger.Error("account service paginated query failed", err, logger.Fields{
			"sortField": params.SortField,
		})
		return commons.ErrorResponse[postgres.PaginatedResponse[domain.Account]](commons.ErrorKindValidation, "failed to query accounts", err.Error()), err
	}
	return commons.SuccessResponse("accounts fetched successfully", page), nil
}

func accountResponse(account domain.Account) AccountResponse {
	response := AccountResponse{
		AccountID:            account.Data.AccountID,
		CustomerID:           account.Data.CustomerID,
		AccountType:          string(account.Type),
		Currency:             string(account.Data.Balance.Currency),
		Balance:              account.Data.Balance.String(),
		Status:               string(account.Data.Status),
		TxDate:               account.Data.TxDate.Format(time.RFC3339),
		WithdrawalDailyLimit: account.WithdrawalDailyLimit,
		TransferDailyLimit:   account.TransferDailyLimit,
	}
	if account.Type == domain.AccountTypeCurrent {
		response.OverdraftBalance = account.OverdraftBalance.String()
	}
	if account.Type == domain.AccountTypeSavings {
		response.SavingsEndDate = account.SavingsEndDate.Format(time.RFC3339)
	}
	return response
}
