package domain_test

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/api-sage/retail-bank-ledger/internal/domain"
)

func TestAccountStatusTransitions(t *testing.T) {
	cases := []struct {
		from    domain.AccountStatus
		to      domain.AccountStatus
		allowed bool
	}{
		{domain.AccountStatusPending, domain.AccountStatusPending, false},
		{domain.AccountStatusPending, domain.AccountStatusActive, true},
		{domain.AccountStatusPending, domain.AccountStatusSuspended, true},
		{domain.AccountStatusActive, domain.AccountStatusPending, false},
		{domain.AccountStatusActive, domain.AccountStatusActive, false},
		{domain.AccountStatusActive, domain.AccountStatusSuspended, true},
		{domain.AccountStatusSuspended, domain.AccountStatusPending, false},
		{domain.AccountStatusSuspended, domain.AccountStatusActive, true},
		{domain.AccountStatusSuspended, domain.AccountStatusSuspended, false},
	}

	for _, tc := range cases {
		t.Run(fmt.Sprintf("%s_to_%s", tc.from, tc.to), func(t *testing.T) {
			assert.Equal(t, tc.allowed, tc.from.CanProgressTo(tc.to))
		})
	}
}
