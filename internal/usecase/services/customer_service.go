package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/api-sage/retail-bank-ledger/internal/commons"
	"github.com/api-sage/retail-bank-ledger/internal/domain"
	"github.com/api-sage/retail-bank-ledger/internal/logger"
)

var errInvalidTransactionPin = errors.New("invalid transaction pin")

type CustomerService struct {
	customerRepo domain.CustomerRepository
}

func NewCustomerService(customerRepo domain.CustomerRepository) *CustomerService {
	return &CustomerService{customerRepo: customerRepo}
}

func (s *CustomerService) CreateCustomer(ctx context.Context, req CreateCustomerRequest) (commons.Response[CustomerResponse], error) {
	logger.Info("customer service create customer request", logger.Fields{
		"payload": logger.SanitizePayload(req),
	})

	if err := req.Validate(); err != nil {
		logger.Error("customer service create customer validation failed", err, nil)
		return commons.ErrorResponse[CustomerResponse](commons.ErrorKindValidation, "validation failed", err.Error()), err
	}

	hashedPin, err := hashTransactionPin(strings.TrimSpace(req.TransactionPin))
	if err != nil {
		logger.Error("customer service create customer hash pin failed", err, nil)
		return commons.ErrorResponse[CustomerResponse](commons.ErrorKindInternal, "failed to create customer", "failed to hash transaction pin"), err
	}

	customer := domain.Customer{
		CustomerID:         uuid.New(),
		CustomerName:       strings.TrimSpace(req.CustomerName),
		ContactNumber:      strings.TrimSpace(req.ContactNumber),
		EmailAddress:       strings.TrimSpace(req.EmailAddress),
		PostCode:           strings.TrimSpace(req.PostCode),
		TransactionPinHash: hashedPin,
	}

	created, err := s.customerRepo.Create(ctx, customer)
	if err != nil {
		logger.Error("customer service create customer repository failed", err, logger.Fields{
			"customerId": customer.CustomerID,
		})
		return commons.ErrorResponse[CustomerResponse](commons.ErrorKindInternal, "failed to create customer", "Unable to create customer right now"), err
	}

	response := CustomerResponse{
		CustomerID:   created.CustomerID,
		CustomerName: created.CustomerName,
		CreatedAt:    created.CreatedAt.Format(time.RFC3339),
	}

	logger.Info("customer service create customer success", logger.Fields{
		"customerId":   response.CustomerID,
		"customerName": response.CustomerName,
	})

	return commons.SuccessResponse("customer created successfully", response), nil
}

func (s *CustomerService) GetCustomer(ctx context.Context, customerID uuid.UUID) (commons.Response[CustomerResponse], error) {
	customer, err := s.customerRepo.GetByCustomerID(ctx, customerID)
	if err != nil {
		logger.Error("customer service get customer failed", err, logger.Fields{
			"customerId": customerID,
		})
		if errors.Is(err, domain.ErrRecordNotFound) {
			return commons.ErrorResponse[CustomerResponse](commons.ErrorKindNotFound, "Customer not found"), err
		}
		return commons.ErrorResponse[CustomerResponse](commons.ErrorKindInternal, "failed to get customer", "Unable to fetch customer right now"), err
	}

	return commons.SuccessResponse("customer fetched successfully", CustomerResponse{
		CustomerID:   customer.CustomerID,
		CustomerName: customer.CustomerName,
		CreatedAt:    customer.CreatedAt.Format(time.RFC3339),
	}), nil
}

// VerifyTransactionPin authorizes a debit-side operation with the customer's
// transaction PIN.
func (s *CustomerService) VerifyTransactionPin(ctx context.Context, customerID uuid.UUID, pin string) error {
	customer, err := s.customerRepo.GetByCustomerID(ctx, customerID)
	if err != nil {
		return err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(customer.TransactionPinHash), []byte(strings.TrimSpace(pin))); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return errInvalidTransactionPin
		}
		return fmt.Errorf("compare transaction pin: %w", err)
	}
	return nil
}

func hashTransactionPin(pin string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(pin), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash transaction pin: %w", err)
	}
	return string(hashed), nil
}
