/*
ledger.go - Append-only sales log

PURPOSE:
  The Ledger is the immutable source of truth for every sale. Reports are
  always computed by folding the full sale history; there is no separate
  running total that can drift.

CRITICAL INVARIANTS:
  1. APPEND-ONLY: No Update, No Delete.
  2. SNAPSHOTS: name and unit price are copied at sale time.
  3. ALL OR NOTHING: the stock decrement and the appended record are
     written in the same transaction.

REGISTER SALE FLOW:
  1. Validate input (product id present, quantity > 0)
  2. Take the catalog writer lock, open a transaction
  3. Decrement through the catalog (not found / insufficient stock abort)
  4. Append the snapshot record
  5. Commit

SEE ALSO:
  - catalog.go: decrementIn and the writer lock
  - aggregate.go: Folds over ListSales
*/
package stock

import (
	"context"
	"errors"

	"go.uber.org/zap"
)

// =============================================================================
// LEDGER
// =============================================================================

// Ledger appends sale records. It has no lock of its own and writes
// through its Catalog's mutate, so stock and history commit together.
type Ledger struct {
	Catalog *Catalog
	NewID   IDGenerator
	Now     Clock
	Logger  *zap.Logger
}

// NewLedger creates a ledger that shares the catalog's store and writer lock.
func NewLedger(catalog *Catalog, logger *zap.Logger) *Ledger {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Ledger{
		Catalog: catalog,
		NewID:   NewUUID,
		Now:     UTCNow,
		Logger:  logger,
	}
}

// RegisterSale checks stock, decrements it and appends a sale record.
func (l *Ledger) RegisterSale(ctx context.Context, productID ProductID, quantity int) (SaleRecord, error) {
	sale, _, err := l.Sell(ctx, productID, quantity)
	return sale, err
}

// Sell is RegisterSale that also returns the product as it was committed by
// the same transaction, so its Quantity is the stock left by this sale.
func (l *Ledger) Sell(ctx context.Context, productID ProductID, quantity int) (SaleRecord, Product, error) {
	if productID == "" {
		return SaleRecord{}, Product{}, invalid("product_id", "a product must be selected")
	}
	if quantity <= 0 {
		return SaleRecord{}, Product{}, invalid("quantity", "must be greater than zero")
	}

	var (
		sale SaleRecord
		left Product
	)
	err := l.Catalog.mutate(ctx, func(kv KV) error {
		p, err := l.Catalog.decrementIn(ctx, kv, productID, quantity)
		if err != nil {
			return err
		}
		left = p

		sales, err := loadSales(ctx, kv)
		if err != nil {
			return err
		}
		sale = newSaleRecord(SaleID(l.NewID()), p, quantity, l.Now())
		return saveSales(ctx, kv, append(sales, sale))
	})
	if err != nil {
		if errors.Is(err, ErrInsufficientStock) || errors.Is(err, ErrNotFound) {
			l.Logger.Debug("sale rejected",
				zap.String("product_id", string(productID)),
				zap.Int("quantity", quantity),
				zap.Error(err),
			)
		}
		return SaleRecord{}, Product{}, err
	}

	l.Logger.Info("sale registered",
		zap.String("sale_id", string(sale.ID)),
		zap.String("product_id", string(sale.ProductID)),
		zap.Int("quantity", sale.Quantity),
		zap.String("total", sale.Total.StringFixed(2)),
		zap.Int("remaining", left.Quantity),
	)
	return sale, left, nil
}

// ListSales returns all sale records in creation order. Read-only.
func (l *Ledger) ListSales(ctx context.Context) ([]SaleRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	sales, err := loadSales(ctx, l.Catalog.Store)
	if err != nil {
		return nil, err
	}
	if sales == nil {
		sales = []SaleRecord{}
	}
	return sales, nil
}

// SalesForProduct returns the records that reference productID, including
// records of products that have since been deleted.
func (l *Ledger) SalesForProduct(ctx context.Context, productID ProductID) ([]SaleRecord, error) {
	sales, err := l.ListSales(ctx)
	if err != nil {
		return nil, err
	}
	result := []SaleRecord{}
	for _, s := range sales {
		if s.ProductID == productID {
			result = append(result, s)
		}
	}
	return result, nil
}
