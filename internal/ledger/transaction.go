// Package ledger provides the transactional substrate the contracts run
// against: immutable state versions keyed by a stable linear id, atomic
// commit, and single-spend enforcement on input states.
package ledger

import (
	"time"

	"github.com/google/uuid"
)

// State is a ledger entry. A logical entity is a chain of immutable State
// values sharing one linear id; only the latest unconsumed version can be
// spent.
type State interface {
	StateLinearID() uuid.UUID
}

// StateRef points at one output of a committed transaction.
type StateRef struct {
	TxID  uuid.UUID
	Index int
}

type StateAndRef struct {
	Ref   StateRef
	State State
}

// TimeWindow is the validity interval a transaction claims for itself, used
// by time-sensitive contract checks.
type TimeWindow struct {
	From  time.Time
	Until time.Time
}

func (w TimeWindow) Contains(t time.Time) bool {
	return !t.Before(w.From) && !t.After(w.Until)
}

// Command is the typed intent attached to a transaction; contracts dispatch
// on its concrete type.
type Command any

// Transaction is a proposal to consume the input states and create the output
// states, authorized by the listed signer keys. References are read-only
// states consulted during verification but not consumed.
type Transaction struct {
	ID         uuid.UUID
	Commands   []Command
	Inputs     []StateAndRef
	Outputs    []State
	References []StateAndRef
	Signers    []string
	TimeWindow *TimeWindow
}

func (tx *Transaction) HasSigner(key string) bool {
	for _, s := range tx.Signers {
		if s == key {
			return true
		}
	}
	return false
}

// Verifier decides whether a proposed transaction is valid. It must be a pure
// predicate over the transaction so that every party re-verifying the same
// proposal reaches the same verdict.
type Verifier interface {
	VerifyTransaction(tx *Transaction) error
}
