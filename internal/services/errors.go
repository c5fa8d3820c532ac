package services

import "errors"

// Business-rule errors surfaced by services. Repository-level
// ErrNotFound passes through unchanged so handlers can match on it
// with errors.Is.
var (
	// ErrCartEmpty rejects a checkout on a cart with no items.
	ErrCartEmpty = errors.New("cart is empty")

	// ErrInvalidQuantity rejects non-positive cart quantities.
	ErrInvalidQuantity = errors.New("quantity must be greater than zero")
)
