package domain

import (
	"time"

	"github.com/google/uuid"

	"github.com/api-sage/retail-bank-ledger/internal/money"
)

// RecurringPaymentState is a schedulable ledger entry describing a repeating
// transfer between two accounts. It only carries the data needed to compute
// due-ness; the scheduler decides when to act on it.
type RecurringPaymentState struct {
	AccountFrom  uuid.UUID
	AccountTo    uuid.UUID
	Amount       money.Amount
	DateStart    time.Time
	Period       time.Duration
	IterationNum *int
	OwningParty  Party
	LinearID     uuid.UUID
}

func (r RecurringPaymentState) StateLinearID() uuid.UUID {
	return r.LinearID
}

// HasRemainingIterations reports whether the entry still schedules activity.
// A nil IterationNum means the payment repeats indefinitely; once the counter
// reaches zero the entry is dormant.
func (r RecurringPaymentState) HasRemainingIterations() bool {
	return r.IterationNum == nil || *r.IterationNum > 0
}

// NextExecution returns the next scheduled execution instant, or false when
// the entry is dormant.
func (r RecurringPaymentState) NextExecution() (time.Time, bool) {
	if !r.HasRemainingIterations() {
		return time.Time{}, false
	}
	return r.DateStart, true
}

// Advance returns the successor version: the start date moves forward by one
// period and a finite iteration counter is decremented.
func (r RecurringPaymentState) Advance() RecurringPaymentState {
	out := r
	out.DateStart = r.DateStart.Add(r.Period)
	if r.IterationNum != nil {
		n := *r.IterationNum - 1
		out.IterationNum = &n
	}
	return out
}

func (r RecurringPaymentState) Equal(other RecurringPaymentState) bool {
	return r.AccountFrom == other.AccountFrom &&
		r.AccountTo == other.AccountTo &&
		r.Amount.Equal(other.Amount) &&
		r.DateStart.Equal(other.DateStart) &&
		r.Period == other.Period &&
		equalIterations(r.IterationNum, other.IterationNum) &&
		r.OwningParty.Equal(other.OwningParty) &&
		r.LinearID == other.LinearID
}

func equalIterations(a, b *int) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
