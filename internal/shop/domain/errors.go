package domain

import "errors"

var (
	ErrNotEnoughStock   = errors.New("not enough stock")
	ErrInvalidCount     = errors.New("order count must be positive")
	ErrEmptyOrder       = errors.New("order needs at least one order item")
	ErrAlreadyCancelled = errors.New("order is already cancelled")
	ErrAlreadyDelivered = errors.New("order is already delivered and cannot be cancelled")
	ErrNotHydrated      = errors.New("related entity is not loaded")
)
