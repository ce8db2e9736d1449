// Package oracle models the credit-rating facts signed by the external
// rating oracle and the client used to obtain them.
package oracle

import (
	"crypto/ed25519"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/api-sage/retail-bank-ledger/internal/ledger"
)

// CreditRatingInfo is an externally-signed fact consumed transiently inside a
// loan-issuance transaction. It is never stored as ledger state.
type CreditRatingInfo struct {
	CustomerName string    `json:"customerName"`
	CustomerID   uuid.UUID `json:"customerId"`
	Rating       int       `json:"rating"`
	Time         time.Time `json:"time"`
}

// ValidityWindow is the interval during which the rating may be relied upon.
func (i CreditRatingInfo) ValidityWindow(validity time.Duration) ledger.TimeWindow {
	return ledger.TimeWindow{From: i.Time, Until: i.Time.Add(validity)}
}

// Covers reports whether the rating's validity interval spans the whole
// transaction time-window.
func (i CreditRatingInfo) Covers(validity time.Duration, tw ledger.TimeWindow) bool {
	w := i.ValidityWindow(validity)
	return w.Contains(tw.From) && w.Contains(tw.Until)
}

// SignedCreditRating is a rating fact together with the oracle's detached
// ed25519 signature over its canonical encoding.
type SignedCreditRating struct {
	Info      CreditRatingInfo `json:"info"`
	Signature []byte           `json:"signature"`
}

var ErrInvalidSignature = errors.New("credit rating signature verification failed")

func Sign(priv ed25519.PrivateKey, info CreditRatingInfo) (SignedCreditRating, error) {
	payload, err := canonicalBytes(info)
	if err != nil {
		return SignedCreditRating{}, err
	}
	return SignedCreditRating{Info: info, Signature: ed25519.Sign(priv, payload)}, nil
}

func (s SignedCreditRating) Verify(pub ed25519.PublicKey) error {
	payload, err := canonicalBytes(s.Info)
	if err != nil {
		return err
	}
	if !ed25519.Verify(pub, payload, s.Signature) {
		return ErrInvalidSignature
	}
	return nil
}

func canonicalBytes(info CreditRatingInfo) ([]byte, error) {
	normalized := info
	normalized.Time = info.Time.UTC().Truncate(time.Second)
	payload, err := json.Marshal(normalized)
	if err != nil {
		return nil, fmt.Errorf("encode credit rating: %w", err)
	}
	return payload, nil
}
