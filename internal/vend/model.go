package vend

import "time"

// Role determines which marketplace operations an account may perform.
type Role string

const (
	// RoleBuyer accounts deposit coins and purchase products.
	RoleBuyer Role = "buyer"
	// RoleSeller accounts list products; they never hold a deposit balance.
	RoleSeller Role = "seller"
)

// Valid reports whether the role is one of the known marketplace roles.
func (r Role) Valid() bool {
	return r == RoleBuyer || r == RoleSeller
}

// Account is the engine's view of a user: identity, role and coin balance.
// Version is the optimistic concurrency stamp checked by conditional saves.
type Account struct {
	ID      string
	Role    Role
	Balance int64
	Version int64
}

// Product is a listed item with its owning seller, unit price and available
// stock. Version is the optimistic concurrency stamp.
type Product struct {
	ID       string
	SellerID string
	Name     string
	Price    int64
	Stock    int64
	Version  int64
}

// SaleRecord is an immutable ledger entry appended once per successful
// purchase. UnitPrice captures the product price at the time of sale.
type SaleRecord struct {
	ID        string
	ProductID string
	BuyerID   string
	Quantity  int64
	UnitPrice int64
	CreatedAt time.Time
}

// Total returns the revenue of this sale line.
func (s SaleRecord) Total() int64 {
	return s.Quantity * s.UnitPrice
}

// PurchasedProduct summarizes the product side of a receipt.
type PurchasedProduct struct {
	ID       string
	SellerID string
	Name     string

	// Remaining is the stock left after the purchase.
	Remaining int64
	Quantity  int64
}

// Receipt is the outcome of a successful purchase. Change reports how the
// remaining balance could be returned in coins; the balance itself stays on
// the account for future purchases unless explicitly reset.
type Receipt struct {
	TotalSpent int64
	Balance    int64
	Product    PurchasedProduct
	Change     Change
}
