package services

import "errors"

// Sentinel errors. Services wrap them with context via fmt.Errorf("%w: ...");
// controllers map them to HTTP statuses with errors.Is.
var (
	ErrNotFound        = errors.New("not found")
	ErrForbidden       = errors.New("forbidden")
	ErrInvalidState    = errors.New("invalid state")
	ErrInvalidArgument = errors.New("invalid argument")
	ErrEmptyCart       = errors.New("cart is empty")
	ErrConflict        = errors.New("conflict")
	ErrUnauthorized    = errors.New("invalid credentials")
)
