package kernel

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"deliveryhub/internal/pkg/errs"
	"deliveryhub/internal/pkg/guard"

	"github.com/shopspring/decimal"
)

var (
	// ErrMoneyIsNotConstructed is returned when a zero-value Money is validated.
	ErrMoneyIsNotConstructed = errs.NewValueIsRequiredError("money must be created via NewMoney")

	// ErrCurrencyMismatch is returned when combining amounts in different currencies.
	ErrCurrencyMismatch = errors.New("currency mismatch")

	reCurrency = regexp.MustCompile(`^[A-Z]{3}$`)
)

// Money is a non-negative amount in a single currency.
type Money struct {
	amount   decimal.Decimal
	currency string
	guard    guard.ConstructorGuard
}

// NewMoney validates the amount and normalizes the currency code to upper case.
func NewMoney(amount decimal.Decimal, currency string) (Money, error) {
	currency = strings.ToUpper(strings.TrimSpace(currency))

	var amountErr, currencyErr error
	if amount.IsNegative() {
		amountErr = errs.NewValueIsInvalidErrorWithCause("amount", fmt.Errorf("%s is negative", amount))
	}
	if !reCurrency.MatchString(currency) {
		currencyErr = errs.NewValueIsInvalidErrorWithCause("currency", fmt.Errorf("%q is not an ISO 4217 code", currency))
	}
	if err := errors.Join(amountErr, currencyErr); err != nil {
		return Money{}, err
	}

	return Money{amount: amount, currency: currency, guard: guard.NewConstructorGuard()}, nil
}

// MoneyFromString parses a decimal string such as "12.50".
func MoneyFromString(amount, currency string) (Money, error) {
	d, err := decimal.NewFromString(amount)
	if err != nil {
		return Money{}, errs.NewValueIsInvalidErrorWithCause("amount", err)
	}
	return NewMoney(d, currency)
}

// MoneyFromMinorUnits builds Money from an integer count of cents, as several providers report fees.
func MoneyFromMinorUnits(minor int64, currency string) (Money, error) {
	return NewMoney(decimal.New(minor, -2), currency)
}

func (m Money) Validate() error {
	return m.guard.Validate(ErrMoneyIsNotConstructed)
}

func (m Money) Amount() decimal.Decimal {
	return m.amount
}

func (m Money) Currency() string {
	return m.currency
}

func (m Money) IsZero() bool {
	return m.amount.IsZero()
}

// MinorUnits returns the amount in cents, rounded half away from zero.
func (m Money) MinorUnits() int64 {
	return m.amount.Shift(2).Round(0).IntPart()
}

func (m Money) Equal(other Money) bool {
	return m.currency == other.currency && m.amount.Equal(other.amount)
}

// Add returns the sum of two amounts in the same currency.
func (m Money) Add(other Money) (Money, error) {
	if err := errors.Join(m.Validate(), other.Validate()); err != nil {
		return Money{}, err
	}
	if m.currency != other.currency {
		return Money{}, fmt.Errorf("%w: %s and %s", ErrCurrencyMismatch, m.currency, other.currency)
	}
	return NewMoney(m.amount.Add(other.amount), m.currency)
}

// GreaterThan reports whether m exceeds other; both must share a currency.
func (m Money) GreaterThan(other Money) (bool, error) {
	if m.currency != other.currency {
		return false, fmt.Errorf("%w: %s and %s", ErrCurrencyMismatch, m.currency, other.currency)
	}
	return m.amount.GreaterThan(other.amount), nil
}

func (m Money) String() string {
	return m.amount.StringFixed(2) + " " + m.currency
}
