// Package services contains the flows: they assemble candidate transactions,
// consult the advisory business-rule checks, and submit the result to the
// ledger for contract verification and atomic commit.
package services

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type CreateCustomerRequest struct {
	CustomerName   string `json:"customerName"`
	ContactNumber  string `json:"contactNumber"`
	EmailAddress   string `json:"emailAddress"`
	PostCode       string `json:"postCode"`
	TransactionPin string `json:"transactionPin"`
}

func (r CreateCustomerRequest) Validate() error {
	if strings.TrimSpace(r.CustomerName) == "" {
		return fmt.Errorf("customerName is required")
	}
	if strings.TrimSpace(r.ContactNumber) == "" {
		return fmt.Errorf("contactNumber is required")
	}
	pin := strings.TrimSpace(r.TransactionPin)
	if len(pin) < 4 || len(pin) > 6 {
		return fmt.Errorf("transactionPin must be 4 to 6 digits")
	}
	for _, ch := range pin {
		if ch < '0' || ch > '9' {
			return fmt.Errorf("transactionPin must be 4 to 6 digits")
		}
	}
	return nil
}

type CustomerResponse struct {
	CustomerID   uuid.UUID `json:"customerId"`
	CustomerName string    `json:"customerName"`
	CreatedAt    string    `json:"createdAt"`
}

type CreateCurrentAccountRequest struct {
	CustomerID           uuid.UUID `json:"customerId"`
	Currency             string    `json:"currency"`
	WithdrawalDailyLimit *int64    `json:"withdrawalDailyLimit,omitempty"`
	TransferDailyLimit   *int64    `json:"transferDailyLimit,omitempty"`
}

func (r CreateCurrentAccountRequest) Validate() error {
	if r.CustomerID == uuid.Nil {
		return fmt.Errorf("customerId is required")
	}
	if strings.TrimSpace(r.Currency) == "" {
		return fmt.Errorf("currency is required")
	}
	return nil
}

type CreateSavingsAccountRequest struct {
	CustomerID   uuid.UUID `json:"customerId"`
	Currency     string    `json:"currency"`
	PeriodMonths int       `json:"periodMonths"`

	// Optional standing order funding the savings plan from a current
	// account for the duration of the savings period.
	FundingAccountID *uuid.UUID       `json:"fundingAccountId,omitempty"`
	MonthlyDeposit   *decimal.Decimal `json:"monthlyDeposit,omitempty"`
}

func (r CreateSavingsAccountRequest) Validate() error {
	if r.CustomerID == uuid.Nil {
		return fmt.Errorf("customerId is required")
	}
	if strings.TrimSpace(r.Currency) == "" {
		return fmt.Errorf("currency is required")
	}
	if r.PeriodMonths <= 0 {
		return fmt.Errorf("periodMonths must be greater than 0")
	}
	if (r.FundingAccountID == nil) != (r.MonthlyDeposit == nil) {
		return fmt.Errorf("fundingAccountId and monthlyDeposit must be supplied together")
	}
	if r.MonthlyDeposit != nil && !r.MonthlyDeposit.IsPositive() {
		return fmt.Errorf("monthlyDeposit must be greater than 0")
	}
	return nil
}

type DepositRequest struct {
	AccountID uuid.UUID       `json:"accountId"`
	Amount    decimal.Decimal `json:"amount"`
	Currency  string          `json:"currency"`
}

func (r DepositRequest) Validate() error {
	if r.AccountID == uuid.Nil {
		return fmt.Errorf("accountId is required")
	}
	if !r.Amount.IsPositive() {
		return fmt.Errorf("amount must be greater than 0")
	}
	if strings.TrimSpace(r.Currency) == "" {
		return fmt.Errorf("currency is required")
	}
	return nil
}

type WithdrawRequest struct {
	AccountID      uuid.UUID       `json:"accountId"`
	Amount         decimal.Decimal `json:"amount"`
	Currency       string          `json:"currency"`
	TransactionPin string          `json:"transactionPin"`
}

func (r WithdrawRequest) Validate() error {
	if r.AccountID == uuid.Nil {
		return fmt.Errorf("accountId is required")
	}
	if !r.Amount.IsPositive() {
		return fmt.Errorf("amount must be greater than 0")
	}
	if strings.TrimSpace(r.Currency) == "" {
		return fmt.Errorf("currency is required")
	}
	if strings.TrimSpace(r.TransactionPin) == "" {
		return fmt.Errorf("transactionPin is required")
	}
	return nil
}

type SetAccountStatusRequest struct {
	AccountID uuid.UUID `json:"accountId"`
	Status    string    `json:"status"`
}

func (r SetAccountStatusRequest) Validate() error {
	if r.AccountID == uuid.Nil {
		return fmt.Errorf("accountId is required")
	}
	if strings.TrimSpace(r.Status) == "" {
		return fmt.Errorf("status is required")
	}
	return nil
}

type ApproveOverdraftRequest struct {
	AccountID  uuid.UUID `json:"accountId"`
	LimitCents int64     `json:"limitCents"`
}

func (r ApproveOverdraftRequest) Validate() error {
	if r.AccountID == uuid.Nil {
		return fmt.Errorf("accountId is required")
	}
	if r.LimitCents <= 0 {
		return fmt.Errorf("limitCents must be greater than 0")
	}
	return nil
}

type SetAccountLimitsRequest struct {
	AccountID            uuid.UUID `json:"accountId"`
	WithdrawalDailyLimit *int64    `json:"withdrawalDailyLimit,omitempty"`
	TransferDailyLimit   *int64    `json:"transferDailyLimit,omitempty"`
}

func (r SetAccountLimitsRequest) Validate() error {
	if r.AccountID == uuid.Nil {
		return fmt.Errorf("accountId is required")
	}
	if r.WithdrawalDailyLimit == nil && r.TransferDailyLimit == nil {
		return fmt.Errorf("at least one limit must be supplied")
	}
	return nil
}

type AccountResponse struct {
	AccountID            uuid.UUID `json:"accountId"`
	CustomerID           uuid.UUID `json:"customerId"`
	AccountType          string    `json:"accountType"`
	Currency             string    `json:"currency"`
	Balance              string    `json:"balance"`
	Status               string    `json:"status"`
	TxDate               string    `json:"txDate"`
	WithdrawalDailyLimit *int64    `json:"withdrawalDailyLimit,omitempty"`
	TransferDailyLimit   *int64    `json:"transferDailyLimit,omitempty"`
	OverdraftBalance     string    `json:"overdraftBalance,omitempty"`
	SavingsEndDate       string    `json:"savingsEndDate,omitempty"`
}

type IntrabankPaymentRequest struct {
	AccountFrom    uuid.UUID       `json:"accountFrom"`
	AccountTo      uuid.UUID       `json:"accountTo"`
	Amount         decimal.Decimal `json:"amount"`
	Currency       string          `json:"currency"`
	TransactionPin string          `json:"transactionPin"`
}

func (r IntrabankPaymentRequest) Validate() error {
	if r.AccountFrom == uuid.Nil {
		return fmt.Errorf("accountFrom is required")
	}
	if r.AccountTo == uuid.Nil {
		return fmt.Errorf("accountTo is required")
	}
	if r.AccountFrom == r.AccountTo {
		return fmt.Errorf("From and to accounts should be different")
	}
	if !r.Amount.IsPositive() {
		return fmt.Errorf("amount must be greater than 0")
	}
	if strings.TrimSpace(r.Currency) == "" {
		return fmt.Errorf("currency is required")
	}
	if strings.TrimSpace(r.TransactionPin) == "" {
		return fmt.Errorf("transactionPin is required")
	}
	return nil
}

type PaymentResponse struct {
	AccountFrom uuid.UUID `json:"accountFrom"`
	AccountTo   uuid.UUID `json:"accountTo"`
	Amount      string    `json:"amount"`
	FromBalance string    `json:"fromBalance"`
	ToBalance   string    `json:"toBalance"`
}

type CreateRecurringPaymentRequest struct {
	AccountFrom    uuid.UUID       `json:"accountFrom"`
	AccountTo      uuid.UUID       `json:"accountTo"`
	Amount         decimal.Decimal `json:"amount"`
	Currency       string          `json:"currency"`
	DateStart      time.Time       `json:"dateStart"`
	Period         time.Duration   `json:"period"`
	IterationNum   *int            `json:"iterationNum,omitempty"`
	TransactionPin string          `json:"transactionPin"`
}

func (r CreateRecurringPaymentRequest) Validate() error {
	if r.AccountFrom == uuid.Nil {
		return fmt.Errorf("accountFrom is required")
	}
	if r.AccountTo == uuid.Nil {
		return fmt.Errorf("accountTo is required")
	}
	if r.AccountFrom == r.AccountTo {
		return fmt.Errorf("From and to accounts should be different")
	}
	if !r.Amount.IsPositive() {
		return fmt.Errorf("amount must be greater than 0")
	}
	if strings.TrimSpace(r.Currency) == "" {
		return fmt.Errorf("currency is required")
	}
	if r.Period <= 0 {
		return fmt.Errorf("period must be a positive duration")
	}
	if r.IterationNum != nil && *r.IterationNum <= 0 {
		return fmt.Errorf("iterationNum must be greater than 0 when set")
	}
	return nil
}

type RecurringPaymentResponse struct {
	LinearID     uuid.UUID `json:"linearId"`
	AccountFrom  uuid.UUID `json:"accountFrom"`
	AccountTo    uuid.UUID `json:"accountTo"`
	Amount       string    `json:"amount"`
	DateStart    string    `json:"dateStart"`
	Period       string    `json:"period"`
	IterationNum *int      `json:"iterationNum,omitempty"`
}

type IssueLoanRequest struct {
	AccountID    uuid.UUID       `json:"accountId"`
	Amount       decimal.Decimal `json:"amount"`
	Currency     string          `json:"currency"`
	Installments int             `json:"installments"`
}

func (r IssueLoanRequest) Validate() error {
	if r.AccountID == uuid.Nil {
		return fmt.Errorf("accountId is required")
	}
	if !r.Amount.IsPositive() {
		return fmt.Errorf("amount must be greater than 0")
	}
	if strings.TrimSpace(r.Currency) == "" {
		return fmt.Errorf("currency is required")
	}
	if r.Installments <= 0 {
		return fmt.Errorf("installments must be greater than 0")
	}
	return nil
}

type IssueLoanResponse struct {
	LoanAccountID       uuid.UUID  `json:"loanAccountId"`
	CurrentAccountID    uuid.UUID  `json:"currentAccountId"`
	LoanBalance         string     `json:"loanBalance"`
	CurrentBalance      string     `json:"currentBalance"`
	RepaymentScheduleID *uuid.UUID `json:"repaymentScheduleId,omitempty"`
}
