package domain

type AccountStatus string

const (
	AccountStatusPending   AccountStatus = "PENDING"
	AccountStatusActive    AccountStatus = "ACTIVE"
	AccountStatusSuspended AccountStatus = "SUSPENDED"
)

// CanProgressTo reports whether the status transition is legal. Accounts are
// created PENDING; they can be activated or suspended from there, and flip
// between ACTIVE and SUSPENDED afterwards. Self-transitions are illegal.
func (s AccountStatus) CanProgressTo(next AccountStatus) bool {
	switch s {
	case AccountStatusPending:
		return next == AccountStatusActive || next == AccountStatusSuspended
	case AccountStatusActive:
		return next == AccountStatusSuspended
	case AccountStatusSuspended:
		return next == AccountStatusActive
	default:
		return false
	}
}
