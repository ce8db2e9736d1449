package services_test

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"encoding/hex"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/api-sage/retail-bank-ledger/internal/adapter/repository/postgres"
	"github.com/api-sage/retail-bank-ledger/internal/contract"
	"github.com/api-sage/retail-bank-ledger/internal/domain"
	"github.com/api-sage/retail-bank-ledger/internal/ledger"
	"github.com/api-sage/retail-bank-ledger/internal/limits"
	"github.com/api-sage/retail-bank-ledger/internal/oracle"
	"github.com/api-sage/retail-bank-ledger/internal/usecase/services"
)

// memoryStore is an in-memory stand-in for the postgres projections: it is
// both the ledger recorder and the read-side the flows resolve accounts
// through, mirroring how LedgerRecorder feeds the repositories.
type memoryStore struct {
	mu        sync.Mutex
	accounts  map[uuid.UUID]domain.Account
	recurring map[uuid.UUID]domain.RecurringPaymentState
	debits    []debitEntry
}

type debitEntry struct {
	accountID uuid.UUID
	debitType limits.DebitType
	cents     int64
	day       time.Time
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		accounts:  make(map[uuid.UUID]domain.Account),
		recurring: make(map[uuid.UUID]domain.RecurringPaymentState),
	}
}

func (m *memoryStore) RecordTransaction(_ context.Context, tx *ledger.Transaction) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	produced := make(map[uuid.UUID]struct{})
	for _, out := range tx.Outputs {
		produced[out.StateLinearID()] = struct{}{}
		switch state := out.(type) {
		case domain.Account:
			m.accounts[state.Data.AccountID] = state
		case domain.RecurringPaymentState:
			m.recurring[state.LinearID] = state
		}
	}
	for _, in := range tx.Inputs {
		if payment, ok := in.State.(domain.RecurringPaymentState); ok {
			if _, stillPresent := produced[payment.LinearID]; !stillPresent {
				delete(m.recurring, payment.LinearID)
			}
		}
	}

	for _, cmd := range tx.Commands {
		switch c := cmd.(type) {
		case contract.WithdrawFunds:
			for _, in := range tx.Inputs {
				if acc, ok := in.State.(domain.Account); ok {
					m.debits = append(m.debits, debitEntry{
						accountID: acc.Data.AccountID,
						debitType: limits.DebitTypeWithdrawal,
						cents:     c.Amount.MinorUnits(),
						day:       time.Now().UTC(),
					})
					break
				}
			}
		case contract.CreateIntrabankPayment:
			m.debits = append(m.debits, debitEntry{
				accountID: c.AccountFrom,
				debitType: limits.DebitTypeTransfer,
				cents:     c.Amount.MinorUnits(),
				day:       time.Now().UTC(),
			})
		}
	}
	return nil
}

func (m *memoryStore) GetByAccountID(_ context.Context, accountID uuid.UUID) (domain.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	account, ok := m.accounts[accountID]
	if !ok {
		return domain.Account{}, domain.ErrRecordNotFound
	}
	return account, nil
}

func (m *memoryStore) GetByCustomerID(_ context.Context, customerID uuid.UUID) ([]domain.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []domain.Account
	for _, account := range m.accounts {
		if account.Data.CustomerID == customerID {
			out = append(out, account)
		}
	}
	return out, nil
}

func (m *memoryStore) GetPaginated(_ context.Context, params postgres.RepositoryQueryParams) (postgres.PaginatedResponse[domain.Account], error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	result := make([]domain.Account, 0, len(m.accounts))
	for _, account := range m.accounts {
		result = append(result, account)
	}
	return postgres.PaginatedResponse[domain.Account]{
		Result:       result,
		TotalResults: int64(len(result)),
		PageSize:     len(result),
		PageNumber:   1,
		TotalPages:   1,
	}, nil
}

func (m *memoryStore) GetByLinearID(_ context.Context, linearID uuid.UUID) (domain.RecurringPaymentState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	payment, ok := m.recurring[linearID]
	if !ok {
		return domain.RecurringPaymentState{}, domain.ErrRecordNotFound
	}
	return payment, nil
}

func (m *memoryStore) SumDebitsForDay(_ context.Context, accountID uuid.UUID, debitType limits.DebitType, day time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var sum int64
	dy, dm, dd := day.UTC().Date()
	for _, d := range m.debits {
		y, mo, da := d.day.Date()
		if d.accountID == accountID && d.debitType == debitType && y == dy && mo == dm && da == dd {
			sum += d.cents
		}
	}
	return sum, nil
}

type recurringReader struct {
	store *memoryStore
}

func (r recurringReader) GetByLinearID(ctx context.Context, linearID uuid.UUID) (domain.RecurringPaymentState, error) {
	return r.store.GetByLinearID(ctx, linearID)
}

func (r recurringReader) GetPaginated(_ context.Context, params postgres.RepositoryQueryParams) (postgres.PaginatedResponse[domain.RecurringPaymentState], error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	result := make([]domain.RecurringPaymentState, 0, len(r.store.recurring))
	for _, payment := range r.store.recurring {
		result = append(result, payment)
	}
	return postgres.PaginatedResponse[domain.RecurringPaymentState]{
		Result:       result,
		TotalResults: int64(len(result)),
		PageSize:     len(result),
		PageNumber:   1,
		TotalPages:   1,
	}, nil
}

type memoryCustomerRepository struct {
	mu        sync.Mutex
	customers map[uuid.UUID]domain.Customer
}

func newMemoryCustomerRepository() *memoryCustomerRepository {
	return &memoryCustomerRepository{customers: make(map[uuid.UUID]domain.Customer)}
}

func (r *memoryCustomerRepository) Create(_ context.Context, customer domain.Customer) (domain.Customer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	customer.CreatedAt = time.Now().UTC()
	r.customers[customer.CustomerID] = customer
	return customer, nil
}

func (r *memoryCustomerRepository) GetByCustomerID(_ context.Context, customerID uuid.UUID) (domain.Customer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	customer, ok := r.customers[customerID]
	if !ok {
		return domain.Customer{}, domain.ErrRecordNotFound
	}
	return customer, nil
}

type stubOracleClient struct {
	rating *oracle.SignedCreditRating
	err    error
}

func (c stubOracleClient) GetCreditRating(context.Context, uuid.UUID) (*oracle.SignedCreditRating, error) {
	return c.rating, c.err
}

const testPin = "4321"

func paginationDefaults() postgres.RepositoryQueryParams {
	return postgres.RepositoryQueryParams{StartPage: 1, PageSize: 50}
}

type fixture struct {
	store     *memoryStore
	ledger    *ledger.Ledger
	customers *services.CustomerService
	accounts  *services.AccountService
	payments  *services.PaymentService
	bank      domain.Party
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	store := newMemoryStore()
	customerRepo := newMemoryCustomerRepository()
	l := ledger.New(contract.NewTransactionVerifier(), store, ledger.Party{Name: "Notary", Key: "notary-key"})
	bank := domain.Party{Name: "RetailBank", Key: "bank-key"}

	customers := services.NewCustomerService(customerRepo)
	payments := services.NewPaymentService(l, store, recurringReader{store: store}, customers, store)
	accounts := services.NewAccountService(l, store, customerRepo, customers, store, payments, bank)

	return &fixture{
		store:     store,
		ledger:    l,
		customers: customers,
		accounts:  accounts,
		payments:  payments,
		bank:      bank,
	}
}

func (f *fixture) createCustomer(t *testing.T, name string) uuid.UUID {
	t.Helper()

	resp, err := f.customers.CreateCustomer(context.Background(), services.CreateCustomerRequest{
		CustomerName:   name,
		ContactNumber:  "07700900000",
		EmailAddress:   name + "@example.com",
		PostCode:       "EC1A 1BB",
		TransactionPin: testPin,
	})
	require.NoError(t, err)
	return resp.Data.CustomerID
}

func (f *fixture) createActiveCurrentAccount(t *testing.T, customerID uuid.UUID) uuid.UUID {
	t.Helper()

	created, err := f.accounts.CreateCurrentAccount(context.Background(), services.CreateCurrentAccountRequest{
		CustomerID: customerID,
		Currency:   "EUR",
	})
	require.NoError(t, err)

	accountID := created.Data.AccountID
	_, err = f.accounts.SetAccountStatus(context.Background(), services.SetAccountStatusRequest{
		AccountID: accountID,
		Status:    string(domain.AccountStatusActive),
	})
	require.NoError(t, err)
	return accountID
}

func newLoanService(t *testing.T, f *fixture, rating int, issuedAt time.Time) *services.LoanService {
	t.Helper()

	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)

	signRating := func(customerID uuid.UUID) *oracle.SignedCreditRating {
		signed, err := oracle.Sign(priv, oracle.CreditRatingInfo{
			CustomerName: "Alice",
			CustomerID:   customerID,
			Rating:       rating,
			Time:         issuedAt,
		})
		require.NoError(t, err)
		return &signed
	}

	// One fixed rating is enough; the stub ignores the requested customer.
	signed := signRating(uuid.New())
	return services.NewLoanService(
		f.ledger,
		f.store,
		stubOracleClient{rating: signed},
		pub,
		hex.EncodeToString(pub),
		services.LoanTerms{
			CreditRatingThreshold: 5,
			CreditRatingValidity:  time.Hour,
			RepaymentPeriod:       30 * 24 * time.Hour,
		},
		f.payments,
	)
}
