package vend

import "context"

// AccountStore persists account balances. SaveAccount is conditional: it
// succeeds only when the stored version still matches the version carried by
// the account, and bumps the version on success. A mismatch yields
// ErrConflict and applies nothing.
type AccountStore interface {
	// EnsureAccount makes the account visible to the engine, creating it
	// with a zero balance when the backend does not already hold it.
	EnsureAccount(ctx context.Context, id string, role Role) error
	Account(ctx context.Context, id string) (Account, error)
	SaveAccount(ctx context.Context, account Account) error
	// SetAccountRole changes the stored role unconditionally. It keeps the
	// engine's view of an account in step with the identity layer when a user
	// switches between buyer and seller.
	SetAccountRole(ctx context.Context, id string, role Role) error
}

// ProductStore persists products. SaveProduct follows the same conditional
// write contract as AccountStore.SaveAccount.
type ProductStore interface {
	CreateProduct(ctx context.Context, product Product) error
	Product(ctx context.Context, id string) (Product, error)
	Products(ctx context.Context) ([]Product, error)
	ProductsBySeller(ctx context.Context, sellerID string) ([]Product, error)
	SaveProduct(ctx context.Context, product Product) error
	DeleteProduct(ctx context.Context, id string) error
}

// SaleLedger reads the append-only record of completed purchases. Records
// are appended only through Store.CommitPurchase.
type SaleLedger interface {
	SalesByBuyer(ctx context.Context, buyerID string) ([]SaleRecord, error)
}

// Store is the persistence contract consumed by the engine and the catalog.
//
// CommitPurchase applies the balance debit, the stock decrement and the sale
// record as one atomic unit: either all three become visible or none do.
// Both the account and the product are written conditionally on the versions
// they carry; any mismatch aborts the whole commit with ErrConflict.
type Store interface {
	AccountStore
	ProductStore
	SaleLedger

	CommitPurchase(ctx context.Context, account Account, product Product, sale SaleRecord) error
}
