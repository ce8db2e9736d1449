package contract

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/api-sage/retail-bank-ledger/internal/domain"
	"github.com/api-sage/retail-bank-ledger/internal/ledger"
	"github.com/api-sage/retail-bank-ledger/internal/money"
)

// FinancialAccountContract validates every transaction that touches account
// states. Each command kind has its own verifier; all of a verifier's checks
// must hold for the transaction to be accepted.
type FinancialAccountContract struct{}

// verifyCommand dispatches to the verifier for the command kind. It reports
// false when the command does not belong to this contract.
func (c FinancialAccountContract) verifyCommand(tx *ledger.Transaction, cmd ledger.Command) (bool, error) {
	switch v := cmd.(type) {
	case CreateCurrentAccount:
		return true, c.verifyCreateAccount(tx, domain.AccountTypeCurrent, nil)
	case CreateSavingsAccount:
		return true, c.verifyCreateAccount(tx, domain.AccountTypeSavings, &v)
	case IssueLoan:
		return true, c.verifyIssueLoan(tx, v)
	case VerifyCreditRating:
		return true, c.verifyCreditRating(tx, v)
	case CreateIntrabankPayment:
		return true, c.verifyCreateIntrabankPayment(tx, v)
	case DepositFunds:
		return true, c.verifyDepositFunds(tx, v)
	case WithdrawFunds:
		return true, c.verifyWithdrawFunds(tx, v)
	case ApproveOverdraft:
		return true, c.verifyApproveOverdraft(tx, v)
	case SetAccountStatus:
		return true, c.verifySetAccountStatus(tx, v)
	case SetLimits:
		return true, c.verifySetLimits(tx, v)
	default:
		return false, nil
	}
}

func (c FinancialAccountContract) verifyCreateAccount(tx *ledger.Transaction, accountType domain.AccountType, savings *CreateSavingsAccount) error {
	if len(accountsOfType(inputAccounts(tx), accountType)) != 0 {
		return fmt.Errorf("Account creation cannot consume an existing %s account", accountType)
	}
	outputs := accountsOfType(outputAccounts(tx), accountType)
	if len(outputs) != 1 {
		return fmt.Errorf("Account creation must produce exactly one %s account, got %d", accountType, len(outputs))
	}

	out := outputs[0]
	if !out.Data.Balance.IsZero() {
		return fmt.Errorf("Account balance when created must be zero, got %s", out.Data.Balance)
	}
	if out.Data.Status != domain.AccountStatusPending {
		return fmt.Errorf("Account status when created must be PENDING, got %s", out.Data.Status)
	}

	if savings != nil {
		if out.PeriodMonths != savings.PeriodMonths {
			return fmt.Errorf("Savings period must equal the commanded period of %d months", savings.PeriodMonths)
		}
		expectedEnd := savings.StartDate.AddDate(0, savings.PeriodMonths, 0)
		if !out.SavingsEndDate.Equal(expectedEnd) {
			return fmt.Errorf("Savings end date must equal the start date plus the savings period")
		}
	}

	return verifySigners(tx, []requiredSigner{
		{role: "account owner", key: out.Data.Owner.Key},
		{role: "account bank", key: out.Data.Bank.Key},
	})
}

func (c FinancialAccountContract) verifyIssueLoan(tx *ledger.Transaction, cmd IssueLoan) error {
	if tx.TimeWindow == nil {
		return fmt.Errorf("Loan issuance transaction must have a time window")
	}
	if !cmd.Amount.IsPositive() {
		return fmt.Errorf("Loan amount should be greater than 0")
	}

	var ratings []VerifyCreditRating
	for _, command := range tx.Commands {
		if r, ok := command.(VerifyCreditRating); ok {
			ratings = append(ratings, r)
		}
	}
	if len(ratings) != 1 {
		return fmt.Errorf("Loan issuance must carry exactly one VerifyCreditRating command, got %d", len(ratings))
	}
	rating := ratings[0]
	if rating.Rating.Rating <= rating.Threshold {
		return fmt.Errorf("Credit rating of %d must be greater than the threshold of %d", rating.Rating.Rating, rating.Threshold)
	}
	if !rating.Rating.Covers(rating.Validity, *tx.TimeWindow) {
		return fmt.Errorf("Credit rating validity period must cover the whole transaction time window")
	}

	currentInputs := accountsOfType(inputAccounts(tx), domain.AccountTypeCurrent)
	if len(currentInputs) != 1 {
		return fmt.Errorf("Loan issuance must consume exactly one current account, got %d", len(currentInputs))
	}
	currentOutputs := accountsOfType(outputAccounts(tx), domain.AccountTypeCurrent)
	if len(currentOutputs) != 1 {
		return fmt.Errorf("Loan issuance must produce exactly one current account, got %d", len(currentOutputs))
	}
	loanOutputs := accountsOfType(outputAccounts(tx), domain.AccountTypeLoan)
	if len(loanOutputs) != 1 {
		return fmt.Errorf("Loan issuance must produce exactly one loan account, got %d", len(loanOutputs))
	}

	in, out, loan := currentInputs[0], currentOutputs[0], loanOutputs[0]
	if in.Data.AccountID != out.Data.AccountID {
		return fmt.Errorf("Input and output must describe the same current account")
	}
	if err := verifyBankUnchanged(in, out); err != nil {
		return err
	}
	if !loan.Data.Bank.Equal(in.Data.Bank) {
		return fmt.Errorf("Loan account must be hosted by the same bank as the current account")
	}
	if loan.Data.CustomerID != in.Data.CustomerID {
		return fmt.Errorf("Loan must be issued to the owner of the current account")
	}

	if !loan.Data.Balance.Equal(cmd.Amount) {
		return fmt.Errorf("Issued loan balance must equal the loan amount")
	}
	expectedBalance, err := in.Data.Balance.Add(cmd.Amount)
	if err != nil {
		return err
	}
	if !out.Data.Balance.Equal(expectedBalance) {
		return fmt.Errorf("Current account balance must increase by exactly the loan amount")
	}

	for _, acc := range []domain.Account{in, out, loan} {
		if acc.Data.Status != domain.AccountStatusActive {
			return fmt.Errorf("All accounts in a loan issuance must be active")
		}
	}

	return verifySigners(tx, []requiredSigner{
		{role: "account bank", key: in.Data.Bank.Key},
		{role: "oracle", key: rating.OracleKey},
	})
}

func (c FinancialAccountContract) verifyCreditRating(tx *ledger.Transaction, cmd VerifyCreditRating) error {
	return verifySigners(tx, []requiredSigner{
		{role: "oracle", key: cmd.OracleKey},
	})
}

func (c FinancialAccountContract) verifyCreateIntrabankPayment(tx *ledger.Transaction, cmd CreateIntrabankPayment) error {
	if !cmd.Amount.IsPositive() {
		return fmt.Errorf("Amount should be greater than 0")
	}
	if cmd.AccountFrom == cmd.AccountTo {
		return fmt.Errorf("From and to accounts should be different")
	}

	inputs := inputAccounts(tx)
	outputs := outputAccounts(tx)
	if len(inputs) != 2 || len(outputs) != 2 {
		return fmt.Errorf("Intrabank payment must consume and produce exactly two accounts")
	}

	inFrom, ok := accountByID(inputs, cmd.AccountFrom)
	if !ok {
		return fmt.Errorf("From account missing from transaction inputs")
	}
	inTo, ok := accountByID(inputs, cmd.AccountTo)
	if !ok {
		return fmt.Errorf("To account missing from transaction inputs")
	}
	outFrom, ok := accountByID(outputs, cmd.AccountFrom)
	if !ok {
		return fmt.Errorf("From account missing from transaction outputs")
	}
	outTo, ok := accountByID(outputs, cmd.AccountTo)
	if !ok {
		return fmt.Errorf("To account missing from transaction outputs")
	}

	if inFrom.Type != domain.AccountTypeCurrent {
		return fmt.Errorf("From account must be a current account")
	}
	if inFrom.Data.Status != domain.AccountStatusActive || inTo.Data.Status != domain.AccountStatusActive {
		return fmt.Errorf("Both accounts in a payment must be active")
	}
	if err := inFrom.VerifyHasSufficientFunds(cmd.Amount); err != nil {
		return err
	}
	// Payments debit the free balance only; overdraft headroom backs
	// withdrawals, not transfers.
	if inFrom.Data.Balance.LessThan(cmd.Amount) {
		return fmt.Errorf("From account free balance must cover the payment amount")
	}

	expectedFrom, err := inFrom.Data.Balance.Sub(cmd.Amount)
	if err != nil {
		return err
	}
	if !outFrom.Data.Balance.Equal(expectedFrom) {
		return fmt.Errorf("From account balance must decrease by exactly the payment amount")
	}

	// Crediting follows deposit semantics, so a payment into a loan account
	// is a repayment that reduces the outstanding principal.
	expectedTo, err := inTo.Deposit(cmd.Amount, outTo.Data.TxDate)
	if err != nil {
		return err
	}
	if !outTo.Equal(expectedTo) {
		return fmt.Errorf("Payment must be credited exactly to the to account state")
	}

	if err := verifyBankUnchanged(inFrom, outFrom); err != nil {
		return err
	}
	if err := verifyBankUnchanged(inTo, outTo); err != nil {
		return err
	}
	if !inFrom.Data.Bank.Equal(inTo.Data.Bank) {
		return fmt.Errorf("Both accounts must be hosted by the same bank")
	}

	return verifySigners(tx, []requiredSigner{
		{role: "from account owner", key: inFrom.Data.Owner.Key},
		{role: "to account owner", key: inTo.Data.Owner.Key},
	})
}

func (c FinancialAccountContract) verifyDepositFunds(tx *ledger.Transaction, cmd DepositFunds) error {
	if !cmd.Amount.IsPositive() {
		return fmt.Errorf("Amount should be greater than 0")
	}
	in, out, err := singleAccountPair(tx)
	if err != nil {
		return err
	}
	if err := verifyBankUnchanged(in, out); err != nil {
		return err
	}

	expected, err := in.Deposit(cmd.Amount, out.Data.TxDate)
	if err != nil {
		return err
	}
	if !out.Equal(expected) {
		return fmt.Errorf("Deposit must be applied exactly to the account state")
	}

	return verifySigners(tx, []requiredSigner{
		{role: "account bank", key: in.Data.Bank.Key},
	})
}

func (c FinancialAccountContract) verifyWithdrawFunds(tx *ledger.Transaction, cmd WithdrawFunds) error {
	if !cmd.Amount.IsPositive() {
		return fmt.Errorf("Amount should be greater than 0")
	}
	in, out, err := singleAccountPair(tx)
	if err != nil {
		return err
	}
	if !in.IsCreditAccount() {
		return fmt.Errorf("Only current and savings accounts support withdrawals")
	}
	if err := verifyBankUnchanged(in, out); err != nil {
		return err
	}

	expected, err := in.Withdraw(cmd.Amount, out.Data.TxDate)
	if err != nil {
		return err
	}
	if !out.Equal(expected) {
		return fmt.Errorf("Withdrawal must be applied exactly to the account state")
	}

	return verifySigners(tx, []requiredSigner{
		{role: "account bank", key: in.Data.Bank.Key},
	})
}

func (c FinancialAccountContract) verifyApproveOverdraft(tx *ledger.Transaction, cmd ApproveOverdraft) error {
	in, out, err := singleAccountPair(tx)
	if err != nil {
		return err
	}
	if in.Type != domain.AccountTypeCurrent {
		return fmt.Errorf("Overdraft can only be approved on current accounts")
	}
	if !out.OverdraftBalance.IsZero() {
		return fmt.Errorf("Approved overdraft must start with a zero overdraft balance")
	}
	if out.ApprovedOverdraftLimit == nil || !out.ApprovedOverdraftLimit.Equal(cmd.Limit) {
		return fmt.Errorf("Approved overdraft limit must equal the commanded limit of %s", cmd.Limit)
	}

	expected := in
	expected.OverdraftBalance = money.Zero(in.Data.Balance.Currency)
	limit := cmd.Limit
	expected.ApprovedOverdraftLimit = &limit
	if !out.Equal(expected) {
		return fmt.Errorf("Only overdraft fields can change when approving an overdraft")
	}

	return verifySigners(tx, []requiredSigner{
		{role: "account bank", key: in.Data.Bank.Key},
	})
}

func (c FinancialAccountContract) verifySetAccountStatus(tx *ledger.Transaction, cmd SetAccountStatus) error {
	in, out, err := singleAccountPair(tx)
	if err != nil {
		return err
	}
	if !out.Equal(in.WithStatus(cmd.Status)) {
		return fmt.Errorf("Only the account status can change")
	}
	if !in.Data.Status.CanProgressTo(cmd.Status) {
		return &domain.IllegalStatusTransitionError{From: in.Data.Status, To: cmd.Status}
	}

	return verifySigners(tx, []requiredSigner{
		{role: "account bank", key: in.Data.Bank.Key},
	})
}

func (c FinancialAccountContract) verifySetLimits(tx *ledger.Transaction, cmd SetLimits) error {
	in, out, err := singleAccountPair(tx)
	if err != nil {
		return err
	}

	expected, err := in.WithLimits(cmd.WithdrawalDailyLimit, cmd.TransferDailyLimit)
	if err != nil {
		return err
	}
	if !out.Equal(expected) {
		return fmt.Errorf("Only daily limits can change")
	}

	return verifySigners(tx, []requiredSigner{
		{role: "account bank", key: in.Data.Bank.Key},
	})
}

func accountByID(accounts []domain.Account, id uuid.UUID) (domain.Account, bool) {
	for _, acc := range accounts {
		if acc.Data.AccountID == id {
			return acc, true
		}
	}
	return domain.Account{}, false
}
