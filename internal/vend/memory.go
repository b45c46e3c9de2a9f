package vend

import (
	"context"
	"sync"
)

// MemoryStore keeps accounts, products and sales in process memory. It backs
// unit tests and the DB-less development mode. Versions start at 1 and bump
// on every conditional write, matching the Postgres store.
type MemoryStore struct {
	mu       sync.RWMutex
	accounts map[string]Account
	products map[string]Product
	sales    []SaleRecord
}

// NewMemoryStore constructs an empty concurrency-safe in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		accounts: make(map[string]Account),
		products: make(map[string]Product),
	}
}

func (s *MemoryStore) EnsureAccount(_ context.Context, id string, role Role) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.accounts[id]; !exists {
		s.accounts[id] = Account{ID: id, Role: role, Version: 1}
	}
	return nil
}

func (s *MemoryStore) Account(_ context.Context, id string) (Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	account, ok := s.accounts[id]
	if !ok {
		return Account{}, ErrAccountNotFound
	}
	return account, nil
}

func (s *MemoryStore) SaveAccount(_ context.Context, account Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saveAccountLocked(account)
}

func (s *MemoryStore) saveAccountLocked(account Account) error {
	current, ok := s.accounts[account.ID]
	if !ok {
		return ErrAccountNotFound
	}
	if current.Version != account.Version {
		return ErrConflict
	}
	account.Version++
	s.accounts[account.ID] = account
	return nil
}

// SetAccountRole is a versioned write so an in-flight conditional save that
// read the old role loses with ErrConflict instead of restoring it.
func (s *MemoryStore) SetAccountRole(_ context.Context, id string, role Role) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	account, ok := s.accounts[id]
	if !ok {
		return ErrAccountNotFound
	}
	account.Role = role
	account.Version++
	s.accounts[id] = account
	return nil
}

func (s *MemoryStore) CreateProduct(_ context.Context, product Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	product.Version = 1
	s.products[product.ID] = product
	return nil
}

func (s *MemoryStore) Product(_ context.Context, id string) (Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	product, ok := s.products[id]
	if !ok {
		return Product{}, ErrProductNotFound
	}
	return product, nil
}

func (s *MemoryStore) Products(_ context.Context) ([]Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Product, 0, len(s.products))
	for _, p := range s.products {
		out = append(out, p)
	}
	return out, nil
}

func (s *MemoryStore) ProductsBySeller(_ context.Context, sellerID string) ([]Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Product
	for _, p := range s.products {
		if p.SellerID == sellerID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (s *MemoryStore) SaveProduct(_ context.Context, product Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saveProductLocked(product)
}

func (s *MemoryStore) saveProductLocked(product Product) error {
	current, ok := s.products[product.ID]
	if !ok {
		return ErrProductNotFound
	}
	if current.Version != product.Version {
		return ErrConflict
	}
	product.Version++
	s.products[product.ID] = product
	return nil
}

func (s *MemoryStore) DeleteProduct(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.products[id]; !ok {
		return ErrProductNotFound
	}
	delete(s.products, id)
	return nil
}

// CommitPurchase validates both versions before touching anything, so the
// tri-write is all-or-nothing under the single store lock.
func (s *MemoryStore) CommitPurchase(_ context.Context, account Account, product Product, sale SaleRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	currentAccount, ok := s.accounts[account.ID]
	if !ok {
		return ErrAccountNotFound
	}
	currentProduct, ok := s.products[product.ID]
	if !ok {
		return ErrProductNotFound
	}
	if currentAccount.Version != account.Version || currentProduct.Version != product.Version {
		return ErrConflict
	}

	if err := s.saveAccountLocked(account); err != nil {
		return err
	}
	if err := s.saveProductLocked(product); err != nil {
		return err
	}
	s.sales = append(s.sales, sale)
	return nil
}

func (s *MemoryStore) SalesByBuyer(_ context.Context, buyerID string) ([]SaleRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []SaleRecord
	for _, sale := range s.sales {
		if sale.BuyerID == buyerID {
			out = append(out, sale)
		}
	}
	return out, nil
}
