package contract

import (
	"fmt"

	"github.com/api-sage/retail-bank-ledger/internal/domain"
	"github.com/api-sage/retail-bank-ledger/internal/ledger"
)

// requiredSigner pairs a human-readable role with the public key expected in
// the transaction's signer set.
type requiredSigner struct {
	role string
	key  string
}

func verifySigners(tx *ledger.Transaction, required []requiredSigner) error {
	for _, r := range required {
		if !tx.HasSigner(r.key) {
			return fmt.Errorf("Transaction must be signed by the %s", r.role)
		}
	}
	return nil
}

func inputAccounts(tx *ledger.Transaction) []domain.Account {
	out := make([]domain.Account, 0, len(tx.Inputs))
	for _, in := range tx.Inputs {
		if acc, ok := in.State.(domain.Account); ok {
			out = append(out, acc)
		}
	}
	return out
}

func outputAccounts(tx *ledger.Transaction) []domain.Account {
	out := make([]domain.Account, 0, len(tx.Outputs))
	for _, o := range tx.Outputs {
		if acc, ok := o.(domain.Account); ok {
			out = append(out, acc)
		}
	}
	return out
}

func accountsOfType(accounts []domain.Account, t domain.AccountType) []domain.Account {
	out := make([]domain.Account, 0, len(accounts))
	for _, acc := range accounts {
		if acc.Type == t {
			out = append(out, acc)
		}
	}
	return out
}

// singleAccountPair extracts the one input and one output account of a simple
// single-account transaction and checks they describe the same account.
func singleAccountPair(tx *ledger.Transaction) (in, out domain.Account, err error) {
	inputs := inputAccounts(tx)
	outputs := outputAccounts(tx)
	if len(inputs) != 1 {
		return in, out, fmt.Errorf("Transaction should consume exactly one account state, got %d", len(inputs))
	}
	if len(outputs) != 1 {
		return in, out, fmt.Errorf("Transaction should create exactly one account state, got %d", len(outputs))
	}
	in, out = inputs[0], outputs[0]
	if in.Data.AccountID != out.Data.AccountID {
		return in, out, fmt.Errorf("Input and output must describe the same account")
	}
	if in.LinearID != out.LinearID {
		return in, out, fmt.Errorf("Input and output must share the same linear id")
	}
	return in, out, nil
}

func verifyBankUnchanged(in, out domain.Account) error {
	if !in.Data.Bank.Equal(out.Data.Bank) {
		return fmt.Errorf("Account bank cannot change")
	}
	return nil
}

func inputRecurringPayments(tx *ledger.Transaction) []domain.RecurringPaymentState {
	out := make([]domain.RecurringPaymentState, 0, len(tx.Inputs))
	for _, in := range tx.Inputs {
		if p, ok := in.State.(domain.RecurringPaymentState); ok {
			out = append(out, p)
		}
	}
	return out
}

func outputRecurringPayments(tx *ledger.Transaction) []domain.RecurringPaymentState {
	out := make([]domain.RecurringPaymentState, 0, len(tx.Outputs))
	for _, o := range tx.Outputs {
		if p, ok := o.(domain.RecurringPaymentState); ok {
			out = append(out, p)
		}
	}
	return out
}
