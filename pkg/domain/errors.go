package domain

import (
	"errors"
	"fmt"
)

// Common domain errors
var (
	// ErrNotFound is returned when a requested resource is not found
	ErrNotFound = errors.New("resource not found")
	// ErrAlreadyExists is returned when trying to create a resource that already exists
	ErrAlreadyExists = errors.New("resource already exists")
	// ErrValidation is returned when input validation fails
	ErrValidation = errors.New("validation error")
	// ErrUnauthorized is returned when a user is not authorized to perform an action
	ErrUnauthorized = errors.New("unauthorized")
	// ErrForbidden is returned when a user is not allowed to perform an action
	ErrForbidden = errors.New("forbidden")
	// ErrInvalidState is returned when a state transition is not allowed
	ErrInvalidState = errors.New("invalid state transition")
	// ErrInsufficientBalance is returned when a wallet cannot cover a debit
	ErrInsufficientBalance = errors.New("insufficient wallet balance")
	// ErrProvider is returned when a top-up provider call fails
	ErrProvider = errors.New("provider error")
	// ErrGateway is returned when a payment gateway call fails
	ErrGateway = errors.New("payment gateway error")
	// ErrInvalidSignature is returned for webhooks that fail authentication
	ErrInvalidSignature = errors.New("invalid webhook signature")
)

var (
	ErrMissingField      = fmt.Errorf("%w: missing required field", ErrValidation)
	ErrAmountMismatch    = fmt.Errorf("%w: amount does not match pack price", ErrValidation)
	ErrInvalidAmount     = fmt.Errorf("%w: amount must be positive", ErrValidation)
	ErrInvalidContact    = fmt.Errorf("%w: contact number is missing or not allowed", ErrValidation)
	ErrUnknownProvider   = fmt.Errorf("%w: unknown provider", ErrValidation)
	ErrInactiveCatalog   = fmt.Errorf("%w: game or pack is not available", ErrValidation)
	ErrDepositTooSmall   = fmt.Errorf("%w: deposit below minimum", ErrValidation)
	ErrRefundExceedsPaid = fmt.Errorf("%w: refund amount exceeds original amount", ErrValidation)

	ErrUserNotFound        = fmt.Errorf("%w: user", ErrNotFound)
	ErrOrderNotFound       = fmt.Errorf("%w: order", ErrNotFound)
	ErrGameNotFound        = fmt.Errorf("%w: game", ErrNotFound)
	ErrPackNotFound        = fmt.Errorf("%w: pack", ErrNotFound)
	ErrTransactionNotFound = fmt.Errorf("%w: wallet transaction", ErrNotFound)

	ErrAlreadyRefunded   = fmt.Errorf("%w: order already refunded", ErrInvalidState)
	ErrNothingToRefund   = fmt.Errorf("%w: order was never charged", ErrInvalidState)
	ErrStaleState        = fmt.Errorf("%w: record changed concurrently", ErrInvalidState)
	ErrNotOrderOwner     = fmt.Errorf("%w: order belongs to another user", ErrUnauthorized)
	ErrInvalidCredential = fmt.Errorf("%w: invalid credentials", ErrUnauthorized)
)
