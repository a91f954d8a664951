package order

import "errors"

var (
	// Precondition failures, checked before any storage work.
	ErrNoProducts         = errors.New("order has no products")
	ErrPaymentsIncomplete = errors.New("payments do not cover the order total")
	ErrInvalidClient      = errors.New("client info is incomplete or invalid")
	ErrNoBranch           = errors.New("cashier has no branch assigned")
	ErrUserNotFound       = errors.New("user not found")

	// ErrOrderNumberConflict signals a retryable unique-constraint clash on
	// the generated order number. The caller may retry with the same draft.
	ErrOrderNumberConflict = errors.New("order number already taken")
)
