/*
catalog.go - Product catalog, the source of truth for current stock

PURPOSE:
  The Catalog creates, edits, deletes and lists products, and is the only
  component allowed to change a product's quantity. The Ledger decrements
  stock exclusively through DecrementStock (or its in-transaction form).

CRITICAL INVARIANTS:
  1. quantity >= 0 after every committed operation
  2. A rejected operation writes nothing
  3. Deleting a product never touches the sales record

SINGLE WRITER:
  Every mutation, catalog or ledger, runs under one writer lock and inside
  one TxKV transaction. The products record is a single JSON array, so two
  edits of different products would still race on the whole array; the
  lock is therefore store-wide rather than per product. A sale's read,
  stock check, decrement and append all happen while holding it, so a
  second sale always validates against the first one's result.

  Reads (List, Get) take no lock: each Get of a record is atomic in every
  backend.

SEE ALSO:
  - ledger.go: RegisterSale uses mutate + decrementIn
  - kv.go: Storage interface
*/
package stock

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// =============================================================================
// CATALOG
// =============================================================================

// Catalog owns the products record. Its writer lock is shared with the
// Ledger built on it, so a sale and a catalog edit never interleave.
type Catalog struct {
	Store  TxKV
	NewID  IDGenerator
	Logger *zap.Logger

	writer sync.Mutex
}

// NewCatalog creates a catalog over the given store. logger may be nil.
func NewCatalog(store TxKV, logger *zap.Logger) *Catalog {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Catalog{
		Store:  store,
		NewID:  NewUUID,
		Logger: logger,
	}
}

// AddProduct validates and appends a new product with a fresh id.
func (c *Catalog) AddProduct(ctx context.Context, name string, quantity int, price decimal.Decimal) (Product, error) {
	p := Product{
		Name:     strings.TrimSpace(name),
		Quantity: quantity,
		Price:    price,
	}
	if err := validateProduct(p); err != nil {
		return Product{}, err
	}

	err := c.mutate(ctx, func(kv KV) error {
		products, err := loadProducts(ctx, kv)
		if err != nil {
			return err
		}
		p.ID = ProductID(c.NewID())
		return saveProducts(ctx, kv, append(products, p))
	})
	if err != nil {
		return Product{}, err
	}

	c.Logger.Info("product added",
		zap.String("product_id", string(p.ID)),
		zap.String("name", p.Name),
		zap.Int("quantity", p.Quantity),
		zap.String("price", p.Price.StringFixed(2)),
	)
	return p, nil
}

// EditProduct applies the non-nil fields of patch to the product.
func (c *Catalog) EditProduct(ctx context.Context, id ProductID, patch ProductPatch) (Product, error) {
	var updated Product
	err := c.mutate(ctx, func(kv KV) error {
		products, err := loadProducts(ctx, kv)
		if err != nil {
			return err
		}
		i := indexOf(products, id)
		if i < 0 {
			return &NotFoundError{ProductID: id}
		}

		p := products[i]
		if patch.Name != nil {
			p.Name = strings.TrimSpace(*patch.Name)
		}
		if patch.Quantity != nil {
			p.Quantity = *patch.Quantity
		}
		if patch.Price != nil {
			p.Price = *patch.Price
		}
		if err := validateProduct(p); err != nil {
			return err
		}

		products[i] = p
		updated = p
		return saveProducts(ctx, kv, products)
	})
	if err != nil {
		return Product{}, err
	}

	c.Logger.Info("product edited",
		zap.String("product_id", string(updated.ID)),
		zap.String("name", updated.Name),
		zap.Int("quantity", updated.Quantity),
	)
	return updated, nil
}

// DeleteProduct removes a product. Sale records that reference it stay.
func (c *Catalog) DeleteProduct(ctx context.Context, id ProductID) error {
	err := c.mutate(ctx, func(kv KV) error {
		products, err := loadProducts(ctx, kv)
		if err != nil {
			return err
		}
		i := indexOf(products, id)
		if i < 0 {
			return &NotFoundError{ProductID: id}
		}
		products = append(products[:i], products[i+1:]...)
		return saveProducts(ctx, kv, products)
	})
	if err != nil {
		return err
	}

	c.Logger.Info("product deleted", zap.String("product_id", string(id)))
	return nil
}

// DecrementStock reduces a product's quantity by amount.
func (c *Catalog) DecrementStock(ctx context.Context, id ProductID, amount int) (Product, error) {
	var updated Product
	err := c.mutate(ctx, func(kv KV) error {
		p, err := c.decrementIn(ctx, kv, id, amount)
		updated = p
		return err
	})
	if err != nil {
		return Product{}, err
	}
	return updated, nil
}

// List returns a snapshot of all products in insertion order.
func (c *Catalog) List(ctx context.Context) ([]Product, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	products, err := loadProducts(ctx, c.Store)
	if err != nil {
		return nil, err
	}
	if products == nil {
		products = []Product{}
	}
	return products, nil
}

// Get returns a single product.
func (c *Catalog) Get(ctx context.Context, id ProductID) (Product, error) {
	products, err := c.List(ctx)
	if err != nil {
		return Product{}, err
	}
	i := indexOf(products, id)
	if i < 0 {
		return Product{}, &NotFoundError{ProductID: id}
	}
	return products[i], nil
}

// =============================================================================
// INTERNALS
// =============================================================================

// decrementIn performs the stock check and write on a transactional view.
// Callers must hold the writer lock.
func (c *Catalog) decrementIn(ctx context.Context, kv KV, id ProductID, amount int) (Product, error) {
	if amount <= 0 {
		return Product{}, invalid("quantity", "must be greater than zero")
	}
	products, err := loadProducts(ctx, kv)
	if err != nil {
		return Product{}, err
	}
	i := indexOf(products, id)
	if i < 0 {
		return Product{}, &NotFoundError{ProductID: id}
	}

	p := products[i]
	if amount > p.Quantity {
		return Product{}, &InsufficientStockError{
			ProductID: p.ID,
			Name:      p.Name,
			Available: p.Quantity,
			Requested: amount,
			Shortfall: amount - p.Quantity,
		}
	}

	p.Quantity -= amount
	products[i] = p
	if err := saveProducts(ctx, kv, products); err != nil {
		return Product{}, err
	}
	return p, nil
}

// mutate serializes fn against every other mutation and runs it in one
// storage transaction.
//
// Errors from fn that are already typed pass through unchanged. A cancelled
// or expired ctx returns context.Canceled or context.DeadlineExceeded as is,
// with nothing written; callers test for it with errors.Is. Any other
// failure is wrapped in a PersistenceError.
func (c *Catalog) mutate(ctx context.Context, fn func(kv KV) error) error {
	c.writer.Lock()
	defer c.writer.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}
	err := c.Store.WithTx(ctx, fn)
	if err == nil || isDomainError(err) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return persistence("commit", "", err)
}

func isDomainError(err error) bool {
	return errors.Is(err, ErrValidation) ||
		errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrInsufficientStock) ||
		errors.Is(err, ErrPersistence)
}

func validateProduct(p Product) error {
	if p.Name == "" {
		return invalid("name", "must not be empty")
	}
	if p.Quantity < 0 {
		return invalid("quantity", "must not be negative")
	}
	if p.Price.IsNegative() {
		return invalid("price", "must not be negative")
	}
	return nil
}

func indexOf(products []Product, id ProductID) int {
	for i, p := range products {
		if p.ID == id {
			return i
		}
	}
	return -1
}
