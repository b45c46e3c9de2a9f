package vend

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore persists the marketplace state in PostgreSQL. Accounts live
// on the users table, so the engine and the identity layer see the same
// records. Conditional writes use the version column; the purchase commit
// runs in a single transaction.
type PostgresStore struct {
	db *pgxpool.Pool
}

// NewPostgresStore constructs a Postgres-backed store.
func NewPostgresStore(db *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{db: db}
}

// EnsureAccount verifies the backing user row exists. Rows are created by
// registration, never by the engine.
func (s *PostgresStore) EnsureAccount(ctx context.Context, id string, _ Role) error {
	userID, err := uuid.Parse(id)
	if err != nil {
		return err
	}
	var one int
	if err := s.db.QueryRow(ctx, `SELECT 1 FROM users WHERE id = $1`, userID).Scan(&one); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrAccountNotFound
		}
		return err
	}
	return nil
}

func (s *PostgresStore) Account(ctx context.Context, id string) (Account, error) {
	userID, err := uuid.Parse(id)
	if err != nil {
		return Account{}, ErrAccountNotFound
	}
	row := s.db.QueryRow(ctx, `SELECT id, role, balance, version FROM users WHERE id = $1`, userID)
	return scanAccount(row)
}

func scanAccount(row pgx.Row) (Account, error) {
	var (
		id      uuid.UUID
		role    string
		account Account
	)
	if err := row.Scan(&id, &role, &account.Balance, &account.Version); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Account{}, ErrAccountNotFound
		}
		return Account{}, err
	}
	account.ID = id.String()
	account.Role = Role(role)
	return account, nil
}

func (s *PostgresStore) SaveAccount(ctx context.Context, account Account) error {
	userID, err := uuid.Parse(account.ID)
	if err != nil {
		return ErrAccountNotFound
	}
	cmd, err := s.db.Exec(ctx, `UPDATE users SET balance = $1, version = version + 1
        WHERE id = $2 AND version = $3`, account.Balance, userID, account.Version)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return s.saveMiss(ctx, `SELECT 1 FROM users WHERE id = $1`, userID, ErrAccountNotFound)
	}
	return nil
}

// SetAccountRole writes the role and bumps the version so concurrent
// conditional saves against the old row fail with ErrConflict.
func (s *PostgresStore) SetAccountRole(ctx context.Context, id string, role Role) error {
	userID, err := uuid.Parse(id)
	if err != nil {
		return ErrAccountNotFound
	}
	cmd, err := s.db.Exec(ctx, `UPDATE users SET role = $1, version = version + 1
        WHERE id = $2`, string(role), userID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrAccountNotFound
	}
	return nil
}

// saveMiss distinguishes a stale version from a missing row after a
// conditional update matched nothing.
func (s *PostgresStore) saveMiss(ctx context.Context, existsQuery string, id uuid.UUID, notFound error) error {
	var one int
	if err := s.db.QueryRow(ctx, existsQuery, id).Scan(&one); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return notFound
		}
		return err
	}
	return ErrConflict
}

func (s *PostgresStore) CreateProduct(ctx context.Context, product Product) error {
	productID, err := uuid.Parse(product.ID)
	if err != nil {
		return err
	}
	sellerID, err := uuid.Parse(product.SellerID)
	if err != nil {
		return err
	}
	_, err = s.db.Exec(ctx, `INSERT INTO products (id, seller_id, name, price, stock, version, created_at)
        VALUES ($1, $2, $3, $4, $5, 1, $6)`,
		productID, sellerID, product.Name, product.Price, product.Stock, time.Now().UTC())
	return err
}

func (s *PostgresStore) Product(ctx context.Context, id string) (Product, error) {
	productID, err := uuid.Parse(id)
	if err != nil {
		return Product{}, ErrProductNotFound
	}
	row := s.db.QueryRow(ctx, `SELECT id, seller_id, name, price, stock, version
        FROM products WHERE id = $1`, productID)
	return scanProduct(row)
}

func scanProduct(row pgx.Row) (Product, error) {
	var (
		id       uuid.UUID
		sellerID uuid.UUID
		product  Product
	)
	if err := row.Scan(&id, &sellerID, &product.Name, &product.Price, &product.Stock, &product.Version); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Product{}, ErrProductNotFound
		}
		return Product{}, err
	}
	product.ID = id.String()
	product.SellerID = sellerID.String()
	return product, nil
}

func (s *PostgresStore) Products(ctx context.Context) ([]Product, error) {
	rows, err := s.db.Query(ctx, `SELECT id, seller_id, name, price, stock, version
        FROM products ORDER BY created_at`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectProducts(rows)
}

func (s *PostgresStore) ProductsBySeller(ctx context.Context, sellerID string) ([]Product, error) {
	seller, err := uuid.Parse(sellerID)
	if err != nil {
		return nil, fmt.Errorf("parse seller id: %w", err)
	}
	rows, err := s.db.Query(ctx, `SELECT id, seller_id, name, price, stock, version
        FROM products WHERE seller_id = $1 ORDER BY created_at`, seller)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectProducts(rows)
}

func collectProducts(rows pgx.Rows) ([]Product, error) {
	var out []Product
	for rows.Next() {
		product, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, product)
	}
	return out, rows.Err()
}

func (s *PostgresStore) SaveProduct(ctx context.Context, product Product) error {
	productID, err := uuid.Parse(product.ID)
	if err != nil {
		return ErrProductNotFound
	}
	cmd, err := s.db.Exec(ctx, `UPDATE products SET name = $1, price = $2, stock = $3, version = version + 1
        WHERE id = $4 AND version = $5`,
		product.Name, product.Price, product.Stock, productID, product.Version)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return s.saveMiss(ctx, `SELECT 1 FROM products WHERE id = $1`, productID, ErrProductNotFound)
	}
	return nil
}

func (s *PostgresStore) DeleteProduct(ctx context.Context, id string) error {
	productID, err := uuid.Parse(id)
	if err != nil {
		return ErrProductNotFound
	}
	cmd, err := s.db.Exec(ctx, `DELETE FROM products WHERE id = $1`, productID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrProductNotFound
	}
	return nil
}

// CommitPurchase applies the debit, the stock decrement and the sale record
// in one transaction. Both conditional updates must match their version or
// the transaction rolls back with ErrConflict.
func (s *PostgresStore) CommitPurchase(ctx context.Context, account Account, product Product, sale SaleRecord) error {
	accountID, err := uuid.Parse(account.ID)
	if err != nil {
		return ErrAccountNotFound
	}
	productID, err := uuid.Parse(product.ID)
	if err != nil {
		return ErrProductNotFound
	}
	saleID, err := uuid.Parse(sale.ID)
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx) // nolint:errcheck

	cmd, err := tx.Exec(ctx, `UPDATE users SET balance = $1, version = version + 1
        WHERE id = $2 AND version = $3`, account.Balance, accountID, account.Version)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrConflict
	}

	cmd, err = tx.Exec(ctx, `UPDATE products SET stock = $1, version = version + 1
        WHERE id = $2 AND version = $3`, product.Stock, productID, product.Version)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrConflict
	}

	if _, err := tx.Exec(ctx, `INSERT INTO sold_products (id, product_id, buyer_id, quantity, unit_price, created_at)
        VALUES ($1, $2, $3, $4, $5, $6)`,
		saleID, productID, accountID, sale.Quantity, sale.UnitPrice, sale.CreatedAt.UTC()); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

func (s *PostgresStore) SalesByBuyer(ctx context.Context, buyerID string) ([]SaleRecord, error) {
	buyer, err := uuid.Parse(buyerID)
	if err != nil {
		return nil, fmt.Errorf("parse buyer id: %w", err)
	}
	rows, err := s.db.Query(ctx, `SELECT id, product_id, buyer_id, quantity, unit_price, created_at
        FROM sold_products WHERE buyer_id = $1 ORDER BY created_at`, buyer)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []SaleRecord
	for rows.Next() {
		var (
			id        uuid.UUID
			productID uuid.UUID
			buyerUUID uuid.UUID
			createdAt time.Time
			sale      SaleRecord
		)
		if err := rows.Scan(&id, &productID, &buyerUUID, &sale.Quantity, &sale.UnitPrice, &createdAt); err != nil {
			return nil, err
		}
		sale.ID = id.String()
		sale.ProductID = productID.String()
		sale.BuyerID = buyerUUID.String()
		sale.CreatedAt = createdAt.UTC()
		out = append(out, sale)
	}
	return out, rows.Err()
}
