package ledger

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/api-sage/retail-bank-ledger/internal/logger"
)

// ErrInputStateConsumed is returned to the loser of a double-spend race: one
// of the transaction's inputs was already consumed by a committed transaction.
var ErrInputStateConsumed = errors.New("input state already consumed")

// Recorder receives every committed transaction, e.g. to maintain read-side
// projections. Recording happens after the commit is applied; a recorder
// failure is logged and the commit still succeeds for the caller, leaving
// the projection stale until it is rebuilt.
type Recorder interface {
	RecordTransaction(ctx context.Context, tx *Transaction) error
}

// Ledger is an in-process substrate with the guarantees the contracts assume:
// a transaction applies atomically or not at all, and an input state can be
// consumed by at most one committed transaction.
type Ledger struct {
	verifier Verifier
	recorder Recorder
	notary   Party

	mu         sync.Mutex
	unconsumed map[StateRef]State
	heads      map[uuid.UUID]StateRef
}

// Party mirrors the notary identity without importing the domain package.
type Party struct {
	Name string
	Key  string
}

func New(verifier Verifier, recorder Recorder, notary Party) *Ledger {
	return &Ledger{
		verifier:   verifier,
		recorder:   recorder,
		notary:     notary,
		unconsumed: make(map[StateRef]State),
		heads:      make(map[uuid.UUID]StateRef),
	}
}

// Commit verifies the transaction, consumes its inputs and creates its
// outputs atomically. Verification failures and double spends leave the
// ledger untouched.
func (l *Ledger) Commit(ctx context.Context, tx *Transaction) ([]StateAndRef, error) {
	if tx.ID == uuid.Nil {
		tx.ID = uuid.New()
	}

	if err := l.verifier.VerifyTransaction(tx); err != nil {
		return nil, err
	}

	l.mu.Lock()
	for _, in := range tx.Inputs {
		if _, ok := l.unconsumed[in.Ref]; !ok {
			l.mu.Unlock()
			return nil, fmt.Errorf("notary %s rejected transaction %s: %w", l.notary.Name, tx.ID, ErrInputStateConsumed)
		}
	}
	for _, ref := range tx.References {
		if _, ok := l.unconsumed[ref.Ref]; !ok {
			l.mu.Unlock()
			return nil, fmt.Errorf("notary %s rejected transaction %s: reference %w", l.notary.Name, tx.ID, ErrInputStateConsumed)
		}
	}

	for _, in := range tx.Inputs {
		delete(l.unconsumed, in.Ref)
		delete(l.heads, in.State.StateLinearID())
	}

	created := make([]StateAndRef, 0, len(tx.Outputs))
	for i, out := range tx.Outputs {
		ref := StateRef{TxID: tx.ID, Index: i}
		l.unconsumed[ref] = out
		l.heads[out.StateLinearID()] = ref
		created = append(created, StateAndRef{Ref: ref, State: out})
	}
	l.mu.Unlock()

	if l.recorder != nil {
		if err := l.recorder.RecordTransaction(ctx, tx); err != nil {
			logger.Error("transaction committed but recording failed", err, logger.Fields{
				"txId": tx.ID,
			})
		}
	}

	return created, nil
}

// Head returns the latest unconsumed version of the entity with the given
// linear id.
func (l *Ledger) Head(linearID uuid.UUID) (StateAndRef, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	ref, ok := l.heads[linearID]
	if !ok {
		return StateAndRef{}, false
	}
	return StateAndRef{Ref: ref, State: l.unconsumed[ref]}, true
}

// Unconsumed returns a snapshot of every unconsumed state.
func (l *Ledger) Unconsumed() []StateAndRef {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]StateAndRef, 0, len(l.unconsumed))
	for ref, state := range l.unconsumed {
		out = append(out, StateAndRef{Ref: ref, State: state})
	}
	return out
}
