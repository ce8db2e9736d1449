package contract

import (
	"fmt"

	"github.com/api-sage/retail-bank-ledger/internal/domain"
	"github.com/api-sage/retail-bank-ledger/internal/ledger"
)

// RecurringPaymentContract validates the lifecycle of recurring payment
// entries: creation, periodic self-advancement and cancellation.
type RecurringPaymentContract struct{}

func (c RecurringPaymentContract) verifyCommand(tx *ledger.Transaction, cmd ledger.Command) (bool, error) {
	switch v := cmd.(type) {
	case CreateRecurringPayment:
		return true, c.verifyCreate(tx, v)
	case ExecuteRecurringPayment:
		return true, c.verifyExecute(tx, v)
	case CancelRecurringPayment:
		return true, c.verifyCancel(tx)
	default:
		return false, nil
	}
}

func (c RecurringPaymentContract) verifyCreate(tx *ledger.Transaction, cmd CreateRecurringPayment) error {
	if len(inputRecurringPayments(tx)) != 0 {
		return fmt.Errorf("Recurring payment creation cannot consume an existing recurring payment")
	}
	outputs := outputRecurringPayments(tx)
	if len(outputs) != 1 {
		return fmt.Errorf("Recurring payment creation must produce exactly one recurring payment, got %d", len(outputs))
	}
	out := outputs[0]

	if tx.TimeWindow == nil {
		return fmt.Errorf("Recurring payment creation must have a time window with a start time")
	}
	if !out.DateStart.After(tx.TimeWindow.From) {
		return fmt.Errorf("Recurring payment cannot be scheduled in the past")
	}
	if !out.Amount.IsPositive() {
		return fmt.Errorf("Amount should be greater than 0")
	}
	if out.AccountFrom == out.AccountTo {
		return fmt.Errorf("From and to accounts should be different")
	}
	if out.Period <= 0 {
		return fmt.Errorf("Recurring payment period must be positive")
	}
	if out.IterationNum != nil && *out.IterationNum <= 0 {
		return fmt.Errorf("Iteration number must be positive when set")
	}

	return verifySigners(tx, []requiredSigner{
		{role: "from account owner", key: cmd.AccountFromKey},
		{role: "to account owner", key: cmd.AccountToKey},
	})
}

func (c RecurringPaymentContract) verifyExecute(tx *ledger.Transaction, cmd ExecuteRecurringPayment) error {
	inputs := inputRecurringPayments(tx)
	outputs := outputRecurringPayments(tx)
	if len(inputs) != 1 || len(outputs) != 1 {
		return fmt.Errorf("Recurring payment execution must consume and produce exactly one recurring payment")
	}
	in, out := inputs[0], outputs[0]

	if in.LinearID != out.LinearID {
		return fmt.Errorf("Input and output must share the same linear id")
	}
	if !in.HasRemainingIterations() {
		return fmt.Errorf("Recurring payment has no remaining iterations")
	}
	if !out.Equal(in.Advance()) {
		return fmt.Errorf("Execution must advance the start date by exactly one period and decrement a finite iteration count by exactly 1")
	}

	return verifySigners(tx, []requiredSigner{
		{role: "from account owner", key: cmd.AccountFromKey},
		{role: "to account owner", key: cmd.AccountToKey},
	})
}

func (c RecurringPaymentContract) verifyCancel(tx *ledger.Transaction) error {
	inputs := inputRecurringPayments(tx)
	if len(inputs) != 1 {
		return fmt.Errorf("Recurring payment cancellation must consume exactly one recurring payment")
	}
	if len(outputRecurringPayments(tx)) != 0 {
		return fmt.Errorf("Recurring payment cancellation cannot produce outputs")
	}
	payment := inputs[0]

	var toAccount *domain.Account
	for _, ref := range tx.References {
		if acc, ok := ref.State.(domain.Account); ok && acc.Data.AccountID == payment.AccountTo {
			toAccount = &acc
			break
		}
	}
	if toAccount == nil {
		return fmt.Errorf("Cancellation must reference the destination account of the recurring payment")
	}

	switch toAccount.Type {
	case domain.AccountTypeLoan:
		return fmt.Errorf("Recurring payments towards loan repayment cannot be cancelled")
	case domain.AccountTypeSavings:
		if tx.TimeWindow == nil {
			return fmt.Errorf("Cancellation of a savings repayment must have a time window")
		}
		if tx.TimeWindow.From.Before(toAccount.SavingsEndDate) {
			return fmt.Errorf("Recurring payments into a savings account cannot be cancelled during the savings period")
		}
	}

	return verifySigners(tx, []requiredSigner{
		{role: "recurring payment owner", key: payment.OwningParty.Key},
	})
}
