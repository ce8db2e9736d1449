package contract

import (
	"fmt"

	"github.com/api-sage/retail-bank-ledger/internal/ledger"
)

// TransactionVerifier is the single entry point the ledger substrate calls.
// It dispatches every command to the contract that owns it; a transaction
// with no commands or with an unrecognized command is rejected.
type TransactionVerifier struct {
	accounts  FinancialAccountContract
	recurring RecurringPaymentContract
}

func NewTransactionVerifier() *TransactionVerifier {
	return &TransactionVerifier{}
}

func (v *TransactionVerifier) VerifyTransaction(tx *ledger.Transaction) error {
	if len(tx.Commands) == 0 {
		return fmt.Errorf("Transaction must contain at least one command")
	}

	for _, cmd := range tx.Commands {
		handled, err := v.accounts.verifyCommand(tx, cmd)
		if err != nil {
			return err
		}
		if handled {
			continue
		}

		handled, err = v.recurring.verifyCommand(tx, cmd)
		if err != nil {
			return err
		}
		if !handled {
			return fmt.Errorf("Unrecognized command %T", cmd)
		}
	}
	return nil
}
