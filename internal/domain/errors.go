package domain

import "errors"

var (
	// ErrNotFound indicates the requested entity was not found.
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists indicates a uniqueness conflict.
	ErrAlreadyExists = errors.New("already exists")
	// ErrInvalidInput marks caller errors; never retried.
	ErrInvalidInput = errors.New("invalid input")
	// ErrUpstream marks cache, commerce backend or payment processor failures.
	ErrUpstream = errors.New("upstream failure")
	// ErrAmountMismatch is returned when recomputed totals disagree with the charged amount.
	ErrAmountMismatch = errors.New("amount mismatch")
	// ErrPaymentNotConfirmed is returned when an order is submitted for an unpaid intent.
	ErrPaymentNotConfirmed = errors.New("payment not confirmed")
	// ErrPaymentCompleted is returned when an intent for the cart has already been paid.
	ErrPaymentCompleted = errors.New("payment already completed")
	// ErrSessionMismatch indicates a missing session or one that does not own the resource.
	ErrSessionMismatch = errors.New("session mismatch")
	// ErrInvalidTransition indicates a checkout stage was skipped.
	ErrInvalidTransition = errors.New("invalid checkout transition")
)
