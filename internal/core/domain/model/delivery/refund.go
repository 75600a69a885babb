package delivery

import (
	"errors"
	"strings"
	"time"

	"deliveryhub/internal/core/domain/model/kernel"
	"deliveryhub/internal/pkg/errs"
	"deliveryhub/internal/pkg/guard"
)

// ErrRefundIsNotConstructed is returned when a zero-value Refund is validated.
var ErrRefundIsNotConstructed = errs.NewValueIsRequiredError("refund must be created via NewRefund")

// Refund records money returned after a failed or cancelled delivery.
type Refund struct {
	amount    kernel.Money
	reason    string
	createdAt time.Time
	guard     guard.ConstructorGuard
}

func NewRefund(amount kernel.Money, reason string, createdAt time.Time) (Refund, error) {
	var amountErr, reasonErr error
	if err := amount.Validate(); err != nil {
		amountErr = err
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		reasonErr = errs.NewValueIsRequiredError("refund.reason")
	}
	if err := errors.Join(amountErr, reasonErr); err != nil {
		return Refund{}, err
	}
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	return Refund{amount: amount, reason: reason, createdAt: createdAt.UTC(), guard: guard.NewConstructorGuard()}, nil
}

func (r Refund) Validate() error {
	return r.guard.Validate(ErrRefundIsNotConstructed)
}

func (r Refund) Amount() kernel.Money { return r.amount }
func (r Refund) Reason() string { return r.reason }
func (r Refund) CreatedAt() time.Time { return r.createdAt }
