/*
kv.go - Persistence interface for the catalog and the ledger

PURPOSE:
  Defines the interface between the stock core and local storage.
  State lives in two named records of a key-value store:

    products  JSON array of Product
    sales     JSON array of SaleRecord

  Writes always follow the same pattern: read the full array, modify or
  append in memory, write the full array back.

KEY INTERFACES:
  KV:   Get / Set of a single record
  TxKV: KV plus WithTx for atomic multi-key writes

ATOMIC WRITES:
  A sale touches both records. WithTx guarantees that either both the
  decremented products array and the extended sales array are stored,
  or neither is.

IMPLEMENTATIONS:
  - stock/store/memory.go: In-memory for tests and dev
  - store/bolt/bolt.go:    bbolt file (default)
  - store/sqlite/sqlite.go: SQLite table

SEE ALSO:
  - catalog.go: Uses load/save helpers under the writer lock
*/
package stock

import (
	"context"
	"encoding/json"
)

// Record keys.
const (
	KeyProducts = "products"
	KeySales    = "sales"
)

// =============================================================================
// KV - Interface for record persistence
// =============================================================================

// KV stores opaque text blobs under string keys.
type KV interface {
	// Get returns the stored value. found is false if the key was never set.
	Get(ctx context.Context, key string) (value []byte, found bool, err error)

	// Set replaces the value stored under key.
	Set(ctx context.Context, key string, value []byte) error
}

// TxKV wraps KV with transaction support.
type TxKV interface {
	KV

	// WithTx executes fn within a transaction.
	// If fn returns error, every Set made through the view is rolled back.
	// If fn returns nil, the transaction is committed.
	WithTx(ctx context.Context, fn func(kv KV) error) error
}

// =============================================================================
// RECORD CODEC
// =============================================================================

func loadProducts(ctx context.Context, kv KV) ([]Product, error) {
	var products []Product
	if err := loadJSON(ctx, kv, KeyProducts, &products); err != nil {
		return nil, err
	}
	return products, nil
}

func saveProducts(ctx context.Context, kv KV, products []Product) error {
	if products == nil {
		products = []Product{}
	}
	return saveJSON(ctx, kv, KeyProducts, products)
}

func loadSales(ctx context.Context, kv KV) ([]SaleRecord, error) {
	var sales []SaleRecord
	if err := loadJSON(ctx, kv, KeySales, &sales); err != nil {
		return nil, err
	}
	return sales, nil
}

func saveSales(ctx context.Context, kv KV, sales []SaleRecord) error {
	if sales == nil {
		sales = []SaleRecord{}
	}
	return saveJSON(ctx, kv, KeySales, sales)
}

func loadJSON(ctx context.Context, kv KV, key string, dst any) error {
	raw, found, err := kv.Get(ctx, key)
	if err != nil {
		return persistence("get", key, err)
	}
	if !found || len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return persistence("decode", key, err)
	}
	return nil
}

func saveJSON(ctx context.Context, kv KV, key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return persistence("encode", key, err)
	}
	if err := kv.Set(ctx, key, raw); err != nil {
		return persistence("set", key, err)
	}
	return nil
}
