package vend

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"
)

func newTestEngine(t *testing.T) (*Engine, *MemoryStore) {
	t.Helper()
	store := NewMemoryStore()
	return NewEngine(store, DefaultCoinSet()), store
}

func seedBuyer(store Store, balance int64) string {
	id := uuid.NewString()
	SeedAccount(store, Account{ID: id, Role: RoleBuyer, Balance: balance})
	return id
}

func seedSeller(store Store) string {
	id := uuid.NewString()
	SeedAccount(store, Account{ID: id, Role: RoleSeller})
	return id
}

func seedProduct(store Store, sellerID string, price, stock int64) string {
	id := uuid.NewString()
	SeedProduct(store, Product{ID: id, SellerID: sellerID, Name: "Cola", Price: price, Stock: stock})
	return id
}

func TestDepositAccumulates(t *testing.T) {
	engine, store := newTestEngine(t)
	ctx := context.Background()
	buyer := seedBuyer(store, 0)

	var balance int64
	var err error
	for _, coin := range []int64{5, 10, 20} {
		balance, err = engine.Deposit(ctx, buyer, coin)
		if err != nil {
			t.Fatalf("deposit %d: %v", coin, err)
		}
	}
	if balance != 35 {
		t.Fatalf("expected balance 35, got %d", balance)
	}
}

func TestDepositRejectsInvalidCoin(t *testing.T) {
	engine, store := newTestEngine(t)
	ctx := context.Background()
	buyer := seedBuyer(store, 50)

	if _, err := engine.Deposit(ctx, buyer, 3); !errors.Is(err, ErrInvalidDenomination) {
		t.Fatalf("expected ErrInvalidDenomination, got %v", err)
	}

	account, err := store.Account(ctx, buyer)
	if err != nil {
		t.Fatalf("account: %v", err)
	}
	if account.Balance != 50 {
		t.Fatalf("balance changed on rejected deposit: %d", account.Balance)
	}
}

func TestDepositRejectsSeller(t *testing.T) {
	engine, store := newTestEngine(t)
	seller := seedSeller(store)

	if _, err := engine.Deposit(context.Background(), seller, 10); !errors.Is(err, ErrPermissionDenied) {
		t.Fatalf("expected ErrPermissionDenied, got %v", err)
	}
}

func TestResetDeposit(t *testing.T) {
	engine, store := newTestEngine(t)
	ctx := context.Background()
	buyer := seedBuyer(store, 85)

	balance, err := engine.ResetDeposit(ctx, buyer)
	if err != nil {
		t.Fatalf("reset: %v", err)
	}
	if balance != 0 {
		t.Fatalf("expected balance 0, got %d", balance)
	}

	account, _ := store.Account(ctx, buyer)
	if account.Balance != 0 {
		t.Fatalf("stored balance not zeroed: %d", account.Balance)
	}
}

func TestResetRejectsSeller(t *testing.T) {
	engine, store := newTestEngine(t)
	seller := seedSeller(store)

	if _, err := engine.ResetDeposit(context.Background(), seller); !errors.Is(err, ErrPermissionDenied) {
		t.Fatalf("expected ErrPermissionDenied, got %v", err)
	}
}

func TestBuySuccess(t *testing.T) {
	engine, store := newTestEngine(t)
	ctx := context.Background()
	buyer := seedBuyer(store, 100)
	seller := seedSeller(store)
	product := seedProduct(store, seller, 10, 10)

	receipt, err := engine.Buy(ctx, buyer, product, 1)
	if err != nil {
		t.Fatalf("buy: %v", err)
	}

	if receipt.TotalSpent != 10 {
		t.Fatalf("expected total spent 10, got %d", receipt.TotalSpent)
	}
	if receipt.Balance != 90 {
		t.Fatalf("expected balance 90, got %d", receipt.Balance)
	}
	if receipt.Product.Remaining != 9 {
		t.Fatalf("expected remaining stock 9, got %d", receipt.Product.Remaining)
	}
	if receipt.Product.Quantity != 1 {
		t.Fatalf("expected quantity 1, got %d", receipt.Product.Quantity)
	}
	// 90 breaks into one 50 and two 20s.
	if receipt.Change[50] != 1 || receipt.Change[20] != 2 || len(receipt.Change) != 2 {
		t.Fatalf("unexpected change: %v", receipt.Change)
	}

	account, _ := store.Account(ctx, buyer)
	if account.Balance != 90 {
		t.Fatalf("stored balance %d, want 90", account.Balance)
	}
	stored, _ := store.Product(ctx, product)
	if stored.Stock != 9 {
		t.Fatalf("stored stock %d, want 9", stored.Stock)
	}

	sales, err := store.SalesByBuyer(ctx, buyer)
	if err != nil {
		t.Fatalf("sales: %v", err)
	}
	if len(sales) != 1 {
		t.Fatalf("expected one sale record, got %d", len(sales))
	}
	if sales[0].Quantity != 1 || sales[0].UnitPrice != 10 {
		t.Fatalf("unexpected sale record: %+v", sales[0])
	}
}

func TestBuyInsufficientFunds(t *testing.T) {
	engine, store := newTestEngine(t)
	ctx := context.Background()
	buyer := seedBuyer(store, 30)
	product := seedProduct(store, seedSeller(store), 10, 20)

	if _, err := engine.Buy(ctx, buyer, product, 11); !errors.Is(err, ErrInsufficientFunds) {
		t.Fatalf("expected ErrInsufficientFunds, got %v", err)
	}

	account, _ := store.Account(ctx, buyer)
	stored, _ := store.Product(ctx, product)
	if account.Balance != 30 || stored.Stock != 20 {
		t.Fatalf("state changed on failed buy: balance=%d stock=%d", account.Balance, stored.Stock)
	}
	if sales, _ := store.SalesByBuyer(ctx, buyer); len(sales) != 0 {
		t.Fatalf("sale recorded on failed buy")
	}
}

func TestBuyOutOfStock(t *testing.T) {
	engine, store := newTestEngine(t)
	ctx := context.Background()
	buyer := seedBuyer(store, 100)
	product := seedProduct(store, seedSeller(store), 10, 0)

	if _, err := engine.Buy(ctx, buyer, product, 1); !errors.Is(err, ErrOutOfStock) {
		t.Fatalf("expected ErrOutOfStock, got %v", err)
	}

	account, _ := store.Account(ctx, buyer)
	if account.Balance != 100 {
		t.Fatalf("balance changed on out-of-stock buy: %d", account.Balance)
	}
}

func TestBuyInsufficientStock(t *testing.T) {
	engine, store := newTestEngine(t)
	buyer := seedBuyer(store, 1000)
	product := seedProduct(store, seedSeller(store), 10, 3)

	if _, err := engine.Buy(context.Background(), buyer, product, 5); !errors.Is(err, ErrInsufficientStock) {
		t.Fatalf("expected ErrInsufficientStock, got %v", err)
	}
}

func TestBuyProductNotFound(t *testing.T) {
	engine, store := newTestEngine(t)
	buyer := seedBuyer(store, 100)

	if _, err := engine.Buy(context.Background(), buyer, uuid.NewString(), 1); !errors.Is(err, ErrProductNotFound) {
		t.Fatalf("expected ErrProductNotFound, got %v", err)
	}
}

func TestBuyRejectsSeller(t *testing.T) {
	engine, store := newTestEngine(t)
	seller := seedSeller(store)
	product := seedProduct(store, seller, 10, 5)

	if _, err := engine.Buy(context.Background(), seller, product, 1); !errors.Is(err, ErrPermissionDenied) {
		t.Fatalf("expected ErrPermissionDenied, got %v", err)
	}
}

func TestBuyRejectsNonPositiveQuantity(t *testing.T) {
	engine, store := newTestEngine(t)
	buyer := seedBuyer(store, 100)
	product := seedProduct(store, seedSeller(store), 10, 5)

	for _, qty := range []int64{0, -1} {
		if _, err := engine.Buy(context.Background(), buyer, product, qty); !errors.Is(err, ErrInvalidQuantity) {
			t.Fatalf("quantity %d: expected ErrInvalidQuantity, got %v", qty, err)
		}
	}
}

func TestBuyRetainsBalanceReportedAsChange(t *testing.T) {
	engine, store := newTestEngine(t)
	ctx := context.Background()
	buyer := seedBuyer(store, 100)
	product := seedProduct(store, seedSeller(store), 10, 10)

	first, err := engine.Buy(ctx, buyer, product, 1)
	if err != nil {
		t.Fatalf("first buy: %v", err)
	}
	if first.Balance != 90 {
		t.Fatalf("expected 90 retained, got %d", first.Balance)
	}

	// The change is informational; the balance stays spendable.
	second, err := engine.Buy(ctx, buyer, product, 1)
	if err != nil {
		t.Fatalf("second buy: %v", err)
	}
	if second.Balance != 80 {
		t.Fatalf("expected 80 after second buy, got %d", second.Balance)
	}
}

func TestConcurrentBuysSingleUnit(t *testing.T) {
	engine, store := newTestEngine(t)
	ctx := context.Background()
	product := seedProduct(store, seedSeller(store), 10, 1)

	buyerA := seedBuyer(store, 100)
	buyerB := seedBuyer(store, 100)

	var wg sync.WaitGroup
	results := make([]error, 2)
	for i, buyer := range []string{buyerA, buyerB} {
		wg.Add(1)
		go func(i int, buyer string) {
			defer wg.Done()
			_, results[i] = engine.Buy(ctx, buyer, product, 1)
		}(i, buyer)
	}
	wg.Wait()

	var successes, stockFailures int
	for _, err := range results {
		switch {
		case err == nil:
			successes++
		case errors.Is(err, ErrOutOfStock), errors.Is(err, ErrInsufficientStock):
			stockFailures++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if successes != 1 || stockFailures != 1 {
		t.Fatalf("expected exactly one success and one stock failure, got %d/%d", successes, stockFailures)
	}

	stored, _ := store.Product(ctx, product)
	if stored.Stock != 0 {
		t.Fatalf("stock went to %d, want 0", stored.Stock)
	}
}

func TestConcurrentBuysNeverOversell(t *testing.T) {
	engine, store := newTestEngine(t)
	ctx := context.Background()
	product := seedProduct(store, seedSeller(store), 5, 10)

	const workers = 25
	var wg sync.WaitGroup
	var successes int64
	var mu sync.Mutex
	for i := 0; i < workers; i++ {
		buyer := seedBuyer(store, 5)
		wg.Add(1)
		go func(buyer string) {
			defer wg.Done()
			if _, err := engine.Buy(ctx, buyer, product, 1); err == nil {
				mu.Lock()
				successes++
				mu.Unlock()
			}
		}(buyer)
	}
	wg.Wait()

	if successes != 10 {
		t.Fatalf("expected exactly 10 successful purchases, got %d", successes)
	}
	stored, _ := store.Product(ctx, product)
	if stored.Stock != 0 {
		t.Fatalf("stock %d after selling out, want 0", stored.Stock)
	}
	if stored.Stock < 0 {
		t.Fatalf("stock went negative: %d", stored.Stock)
	}
}

func TestConcurrentDepositsAndBuys(t *testing.T) {
	engine, store := newTestEngine(t)
	ctx := context.Background()
	buyer := seedBuyer(store, 0)
	product := seedProduct(store, seedSeller(store), 20, 1000)

	const rounds = 20
	var wg sync.WaitGroup
	for i := 0; i < rounds; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			if _, err := engine.Deposit(ctx, buyer, 20); err != nil {
				t.Errorf("deposit: %v", err)
			}
		}()
		go func() {
			defer wg.Done()
			// Funds may not have arrived yet; only real failures matter.
			if _, err := engine.Buy(ctx, buyer, product, 1); err != nil && !errors.Is(err, ErrInsufficientFunds) {
				t.Errorf("buy: %v", err)
			}
		}()
	}
	wg.Wait()

	account, _ := store.Account(ctx, buyer)
	if account.Balance < 0 {
		t.Fatalf("balance went negative: %d", account.Balance)
	}

	// Deposits minus committed purchases must reconcile exactly.
	sales, _ := store.SalesByBuyer(ctx, buyer)
	var spent int64
	for _, sale := range sales {
		spent += sale.Total()
	}
	if account.Balance != rounds*20-spent {
		t.Fatalf("balance %d does not reconcile with %d deposited and %d spent", account.Balance, rounds*20, spent)
	}
}

func TestBuyConflictOnStaleVersion(t *testing.T) {
	engine, store := newTestEngine(t)
	ctx := context.Background()
	buyer := seedBuyer(store, 100)
	product := seedProduct(store, seedSeller(store), 10, 5)

	// Simulate an out-of-band writer bumping the product version between the
	// engine's read and its commit.
	stale, _ := store.Product(ctx, product)
	current := stale
	if err := store.SaveProduct(ctx, current); err != nil {
		t.Fatalf("bump version: %v", err)
	}

	account, _ := store.Account(ctx, buyer)
	account.Balance -= 10
	stale.Stock--
	sale := SaleRecord{ID: uuid.NewString(), ProductID: product, BuyerID: buyer, Quantity: 1, UnitPrice: 10}
	if err := store.CommitPurchase(ctx, account, stale, sale); !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}

	// Nothing was applied.
	fresh, _ := store.Account(ctx, buyer)
	if fresh.Balance != 100 {
		t.Fatalf("balance changed on conflicted commit: %d", fresh.Balance)
	}
	if sales, _ := store.SalesByBuyer(ctx, buyer); len(sales) != 0 {
		t.Fatalf("sale recorded on conflicted commit")
	}

	// A fresh attempt through the engine succeeds.
	if _, err := engine.Buy(ctx, buyer, product, 1); err != nil {
		t.Fatalf("retry after conflict: %v", err)
	}
}

func TestBuyCancelledContext(t *testing.T) {
	engine, store := newTestEngine(t)
	buyer := seedBuyer(store, 100)
	product := seedProduct(store, seedSeller(store), 10, 5)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := engine.Buy(ctx, buyer, product, 1); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}

	account, _ := store.Account(context.Background(), buyer)
	if account.Balance != 100 {
		t.Fatalf("balance changed on cancelled buy: %d", account.Balance)
	}
}
