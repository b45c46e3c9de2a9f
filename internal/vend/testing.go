package vend

// Test helpers for seeding the in-memory store without going through the
// engine's validation path.

// SeedAccount inserts or replaces an account when the store is the in-memory
// implementation.
func SeedAccount(store Store, account Account) {
	if mem, ok := store.(*MemoryStore); ok {
		mem.mu.Lock()
		defer mem.mu.Unlock()
		if account.Version == 0 {
			account.Version = 1
		}
		mem.accounts[account.ID] = account
	}
}

// SeedProduct inserts or replaces a product when the store is the in-memory
// implementation.
func SeedProduct(store Store, product Product) {
	if mem, ok := store.(*MemoryStore); ok {
		mem.mu.Lock()
		defer mem.mu.Unlock()
		if product.Version == 0 {
			product.Version = 1
		}
		mem.products[product.ID] = product
	}
}
