package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/vendmart/vendmart/internal/vend"
)

const maxNameLength = 50

var (
	// ErrNotOwner indicates the caller does not own the product.
	ErrNotOwner = errors.New("not the owner of this product")
	// ErrInvalidProduct indicates the product fields failed validation.
	ErrInvalidProduct = errors.New("invalid product")
)

// Service exposes seller-facing product management and the buyer's purchase
// history. Stock and balances are mutated only by the vending engine; this
// service owns everything else about a product.
type Service struct {
	products vend.ProductStore
	sales    vend.SaleLedger
}

// NewService builds a catalog service.
func NewService(products vend.ProductStore, sales vend.SaleLedger) *Service {
	return &Service{products: products, sales: sales}
}

// Input captures the caller-supplied fields of a product.
type Input struct {
	Name  string
	Price int64
	Stock int64
}

func (in Input) validate() error {
	if in.Name == "" || len(in.Name) > maxNameLength {
		return fmt.Errorf("%w: name must be 1-%d characters", ErrInvalidProduct, maxNameLength)
	}
	if in.Price < 1 {
		return fmt.Errorf("%w: price must be at least 1", ErrInvalidProduct)
	}
	if in.Stock < 1 {
		return fmt.Errorf("%w: stock must be at least 1", ErrInvalidProduct)
	}
	return nil
}

// Create lists a new product owned by the given seller.
func (s *Service) Create(ctx context.Context, sellerID string, in Input) (vend.Product, error) {
	if err := in.validate(); err != nil {
		return vend.Product{}, err
	}
	product := vend.Product{
		ID:       uuid.NewString(),
		SellerID: sellerID,
		Name:     in.Name,
		Price:    in.Price,
		Stock:    in.Stock,
		Version:  1,
	}
	if err := s.products.CreateProduct(ctx, product); err != nil {
		return vend.Product{}, err
	}
	return product, nil
}

// Get fetches a single product.
func (s *Service) Get(ctx context.Context, id string) (vend.Product, error) {
	return s.products.Product(ctx, id)
}

// List returns the catalog visible to the caller: sellers see their own
// listings, buyers see everything.
func (s *Service) List(ctx context.Context, callerID string, role vend.Role) ([]vend.Product, error) {
	if role == vend.RoleSeller {
		return s.products.ProductsBySeller(ctx, callerID)
	}
	return s.products.Products(ctx)
}

// Update replaces the mutable fields of a product owned by the caller. The
// save is conditional on the version read here, so a concurrent purchase
// surfaces as vend.ErrConflict and the caller may retry.
func (s *Service) Update(ctx context.Context, callerID, productID string, in Input) (vend.Product, error) {
	if err := in.validate(); err != nil {
		return vend.Product{}, err
	}
	product, err := s.products.Product(ctx, productID)
	if err != nil {
		return vend.Product{}, err
	}
	if product.SellerID != callerID {
		return vend.Product{}, ErrNotOwner
	}
	product.Name = in.Name
	product.Price = in.Price
	product.Stock = in.Stock
	if err := s.products.SaveProduct(ctx, product); err != nil {
		return vend.Product{}, err
	}
	product.Version++
	return product, nil
}

// Delete removes a product owned by the caller.
func (s *Service) Delete(ctx context.Context, callerID, productID string) error {
	product, err := s.products.Product(ctx, productID)
	if err != nil {
		return err
	}
	if product.SellerID != callerID {
		return ErrNotOwner
	}
	return s.products.DeleteProduct(ctx, productID)
}

// PurchasedLine is one row of a buyer's purchase history.
type PurchasedLine struct {
	ProductID   string
	ProductName string
	Quantity    int64
	UnitPrice   int64
	TotalCost   int64
}

// Purchased lists the buyer's sale records with product names attached.
// Products deleted since the sale keep an empty name; the ledger line itself
// is immutable.
func (s *Service) Purchased(ctx context.Context, buyerID string) ([]PurchasedLine, error) {
	sales, err := s.sales.SalesByBuyer(ctx, buyerID)
	if err != nil {
		return nil, err
	}
	lines := make([]PurchasedLine, 0, len(sales))
	for _, sale := range sales {
		line := PurchasedLine{
			ProductID: sale.ProductID,
			Quantity:  sale.Quantity,
			UnitPrice: sale.UnitPrice,
			TotalCost: sale.Total(),
		}
		if product, err := s.products.Product(ctx, sale.ProductID); err == nil {
			line.ProductName = product.Name
		}
		lines = append(lines, line)
	}
	return lines, nil
}
