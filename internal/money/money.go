package money

import (
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

type Currency string

const (
	EUR Currency = "EUR"
	GBP Currency = "GBP"
	USD Currency = "USD"
	AUD Currency = "AUD"
	CHF Currency = "CHF"
)

var supportedCurrencies = map[Currency]struct{}{
	EUR: {},
	GBP: {},
	USD: {},
	AUD: {},
	CHF: {},
}

func ParseCurrency(code string) (Currency, error) {
	c := Currency(strings.ToUpper(strings.TrimSpace(code)))
	if _, ok := supportedCurrencies[c]; !ok {
		return "", fmt.Errorf("Invalid currency code '%s', available currencies are: %s", code, availableCurrencies())
	}
	return c, nil
}

func availableCurrencies() string {
	codes := make([]string, 0, len(supportedCurrencies))
	for c := range supportedCurrencies {
		codes = append(codes, string(c))
	}
	sort.Strings(codes)
	return "[" + strings.Join(codes, ", ") + "]"
}

// Amount is a non-negative quantity of a single currency. The zero value is
// not usable; construct amounts through New, FromMinorUnits or Zero.
type Amount struct {
	Quantity decimal.Decimal
	Currency Currency
}

func New(quantity decimal.Decimal, currency Currency) (Amount, error) {
	if _, ok := supportedCurrencies[currency]; !ok {
		return Amount{}, fmt.Errorf("Invalid currency code '%s', available currencies are: %s", currency, availableCurrencies())
	}
	if quantity.IsNegative() {
		return Amount{}, fmt.Errorf("amount cannot be negative: %s", quantity)
	}
	return Amount{Quantity: quantity.Round(2), Currency: currency}, nil
}

// FromMinorUnits builds an amount from a quantity expressed in cents.
func FromMinorUnits(units int64, currency Currency) Amount {
	return Amount{Quantity: decimal.New(units, -2), Currency: currency}
}

func Zero(currency Currency) Amount {
	return Amount{Quantity: decimal.Zero, Currency: currency}
}

func (a Amount) Add(b Amount) (Amount, error) {
	if err := a.sameCurrency(b); err != nil {
		return Amount{}, err
	}
	return Amount{Quantity: a.Quantity.Add(b.Quantity), Currency: a.Currency}, nil
}

// Sub fails when the result would be negative.
func (a Amount) Sub(b Amount) (Amount, error) {
	if err := a.sameCurrency(b); err != nil {
		return Amount{}, err
	}
	result := a.Quantity.Sub(b.Quantity)
	if result.IsNegative() {
		return Amount{}, fmt.Errorf("amount cannot be negative: %s", result)
	}
	return Amount{Quantity: result, Currency: a.Currency}, nil
}

func (a Amount) Equal(b Amount) bool {
	return a.Currency == b.Currency && a.Quantity.Equal(b.Quantity)
}

func (a Amount) LessThan(b Amount) bool {
	return a.Quantity.LessThan(b.Quantity)
}

func (a Amount) GreaterThan(b Amount) bool {
	return a.Quantity.GreaterThan(b.Quantity)
}

func (a Amount) IsZero() bool {
	return a.Quantity.IsZero()
}

func (a Amount) IsPositive() bool {
	return a.Quantity.IsPositive()
}

func (a Amount) MinorUnits() int64 {
	return a.Quantity.Mul(decimal.New(100, 0)).IntPart()
}

func (a Amount) String() string {
	return a.Quantity.StringFixed(2) + " " + string(a.Currency)
}

func (a Amount) sameCurrency(b Amount) error {
	if a.Currency != b.Currency {
		return fmt.Errorf("currency mismatch: %s and %s", a.Currency, b.Currency)
	}
	return nil
}
