package vend

import "errors"

var (
	// ErrPermissionDenied occurs when a non-buyer attempts a buyer-only
	// operation such as depositing coins or purchasing a product.
	ErrPermissionDenied = errors.New("permission denied")

	// ErrInvalidDenomination indicates the coin value is not part of the
	// accepted denomination set.
	ErrInvalidDenomination = errors.New("invalid coin denomination")

	// ErrInvalidQuantity indicates a non-positive purchase quantity.
	ErrInvalidQuantity = errors.New("quantity must be positive")

	// ErrAccountNotFound indicates the account does not exist.
	ErrAccountNotFound = errors.New("account not found")

	// ErrProductNotFound indicates the product does not exist.
	ErrProductNotFound = errors.New("product not found")

	// ErrOutOfStock indicates the product has zero units available.
	ErrOutOfStock = errors.New("product is out of stock")

	// ErrInsufficientStock indicates the product has some stock but fewer
	// units than requested.
	ErrInsufficientStock = errors.New("insufficient stock")

	// ErrInsufficientFunds indicates the account balance does not cover the
	// total purchase cost.
	ErrInsufficientFunds = errors.New("insufficient funds")

	// ErrConflict indicates a record changed between read and write. The
	// operation applied nothing and may be retried by the caller.
	ErrConflict = errors.New("concurrent modification")
)
