package domain

import "errors"

var (
	// Common domain errors
	ErrNotFound           = errors.New("entity not found")
	ErrAlreadyExists      = errors.New("entity already exists")
	ErrInvalidArgument    = errors.New("invalid argument")
	ErrForbidden          = errors.New("actor is not allowed to perform this action")
	ErrOutOfStock         = errors.New("product is out of stock")
	ErrOrderExpired       = errors.New("order has expired")
	ErrNotProcessing      = errors.New("order line is not awaiting fulfillment")
	ErrLocked             = errors.New("resource is locked")
	ErrInvalidExecContext = errors.New("invalid execution context")
	ErrOperationFailed    = errors.New("operation failed")
	ErrReadDatabaseRow    = errors.New("failed to read database row")
)
