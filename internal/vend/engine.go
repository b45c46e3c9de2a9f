package vend

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Engine executes deposits, resets and purchases against a Store. All
// validation happens before any write; the commit of a purchase is atomic
// across balance, stock and the sale record. The engine never retries on
// ErrConflict, that choice belongs to the caller.
type Engine struct {
	store Store
	coins CoinSet
	locks keyedLocks
	now   func() time.Time
}

// NewEngine builds a purchase engine over the given store and coin set.
func NewEngine(store Store, coins CoinSet) *Engine {
	return &Engine{store: store, coins: coins, now: time.Now}
}

// Coins exposes the accepted denomination set.
func (e *Engine) Coins() CoinSet {
	return e.coins
}

func accountKey(id string) string { return "account:" + id }
func productKey(id string) string { return "product:" + id }

// Deposit adds a single coin to a buyer's balance and returns the new
// balance. The coin must be one of the accepted denominations.
func (e *Engine) Deposit(ctx context.Context, accountID string, coin int64) (int64, error) {
	unlock := e.locks.lock(accountKey(accountID))
	defer unlock()

	account, err := e.store.Account(ctx, accountID)
	if err != nil {
		return 0, err
	}
	if account.Role != RoleBuyer {
		return 0, ErrPermissionDenied
	}
	if err := e.coins.Validate(coin); err != nil {
		return 0, err
	}
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	account.Balance += coin
	if err := e.store.SaveAccount(ctx, account); err != nil {
		return 0, err
	}
	return account.Balance, nil
}

// ResetDeposit zeroes a buyer's balance and returns the resulting balance.
func (e *Engine) ResetDeposit(ctx context.Context, accountID string) (int64, error) {
	unlock := e.locks.lock(accountKey(accountID))
	defer unlock()

	account, err := e.store.Account(ctx, accountID)
	if err != nil {
		return 0, err
	}
	if account.Role != RoleBuyer {
		return 0, ErrPermissionDenied
	}
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	account.Balance = 0
	if err := e.store.SaveAccount(ctx, account); err != nil {
		return 0, err
	}
	return 0, nil
}

// Buy purchases quantity units of a product for the given buyer. On success
// the balance debit, stock decrement and sale record are committed as one
// atomic unit and the receipt reports the post-purchase balance broken into
// coins. Failures before the commit leave every record untouched.
func (e *Engine) Buy(ctx context.Context, accountID, productID string, quantity int64) (Receipt, error) {
	if quantity <= 0 {
		return Receipt{}, ErrInvalidQuantity
	}

	unlock := e.locks.lock(accountKey(accountID), productKey(productID))
	defer unlock()

	account, err := e.store.Account(ctx, accountID)
	if err != nil {
		return Receipt{}, err
	}
	if account.Role != RoleBuyer {
		return Receipt{}, ErrPermissionDenied
	}

	product, err := e.store.Product(ctx, productID)
	if err != nil {
		return Receipt{}, err
	}
	if product.Stock == 0 {
		return Receipt{}, ErrOutOfStock
	}
	if product.Stock < quantity {
		return Receipt{}, ErrInsufficientStock
	}

	totalCost := product.Price * quantity
	if account.Balance < totalCost {
		return Receipt{}, ErrInsufficientFunds
	}
	if err := ctx.Err(); err != nil {
		return Receipt{}, err
	}

	account.Balance -= totalCost
	product.Stock -= quantity
	sale := SaleRecord{
		ID:        uuid.NewString(),
		ProductID: product.ID,
		BuyerID:   account.ID,
		Quantity:  quantity,
		UnitPrice: product.Price,
		CreatedAt: e.now().UTC(),
	}

	if err := e.store.CommitPurchase(ctx, account, product, sale); err != nil {
		return Receipt{}, err
	}

	return Receipt{
		TotalSpent: totalCost,
		Balance:    account.Balance,
		Product: PurchasedProduct{
			ID:        product.ID,
			SellerID:  product.SellerID,
			Name:      product.Name,
			Remaining: product.Stock,
			Quantity:  quantity,
		},
		Change: e.coins.Breakdown(account.Balance),
	}, nil
}
