/*
Package stock provides the inventory-and-sales core.

PURPOSE:
  This package owns the product catalog, the append-only sales ledger and
  the pure report folds computed from it. Whether the caller is the HTTP
  API, a seed scenario or a test, every stock change goes through the same
  Catalog and Ledger operations.

KEY CONCEPTS IN THIS FILE (types.go):
  - Product: a catalog entry with current stock and unit price
  - SaleRecord: an immutable ledger entry with snapshot fields
  - ProductPatch: partial update for EditProduct
  - Clock / IDGenerator: injectable time and identity sources

DESIGN PRINCIPLES:
  1. Immutability: Sale records are never modified or deleted
  2. Precision: Prices and totals use decimal.Decimal
  3. Snapshots: A sale copies the product name and price at sale time, so
     later edits or deletes never change history
  4. Single writer: every mutation is serialized and runs in one store
     transaction (see catalog.go)

USAGE:
  kv := store.NewMemory()
  catalog := stock.NewCatalog(kv, nil)
  ledger := stock.NewLedger(catalog, nil)

  p, _ := catalog.AddProduct(ctx, "Widget", 10, decimal.RequireFromString("5.00"))
  sale, _ := ledger.RegisterSale(ctx, p.ID, 3)

SEE ALSO:
  - catalog.go: Product operations
  - ledger.go: Sale registration
  - aggregate.go: Report folds
  - kv.go: Persistence interface
*/
package stock

import (
	"bytes"
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// =============================================================================
// IDENTIFIERS
// =============================================================================

type ProductID string
type SaleID string

// UnmarshalJSON accepts the id as a JSON string or number. Older clients
// stored product ids as millisecond timestamps.
func (id *ProductID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = ProductID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*id = ProductID(n.String())
	return nil
}

// IDGenerator returns a fresh opaque identifier.
type IDGenerator func() string

// NewUUID is the default IDGenerator.
func NewUUID() string { return uuid.NewString() }

// Clock returns the current time. Tests replace it to get stable dates.
type Clock func() time.Time

// UTCNow is the default Clock.
func UTCNow() time.Time { return time.Now().UTC() }

// =============================================================================
// PRODUCT - Catalog entry, source of truth for stock
// =============================================================================

type Product struct {
	ID       ProductID       `json:"id"`
	Name     string          `json:"name"`
	Quantity int             `json:"quantity"`
	Price    decimal.Decimal `json:"price"`
}

// ParsePrice parses a decimal amount, accepting a comma as the decimal
// separator ("5,90").
func ParsePrice(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(strings.Replace(strings.TrimSpace(s), ",", ".", 1))
	if err != nil {
		return decimal.Zero, invalid("price", "must be a decimal number")
	}
	return d, nil
}

// ProductPatch carries the fields to change in EditProduct.
// Nil fields are left untouched.
type ProductPatch struct {
	Name     *string
	Quantity *int
	Price    *decimal.Decimal
}

// IsEmpty reports whether the patch changes nothing.
func (p ProductPatch) IsEmpty() bool {
	return p.Name == nil && p.Quantity == nil && p.Price == nil
}

// =============================================================================
// SALE RECORD - Immutable ledger entry
// =============================================================================

// SaleRecord is written exactly once by Ledger.RegisterSale.
//
// ProductID is a weak reference: the product may be deleted later.
// Name and UnitPrice are snapshots and are authoritative for reports.
type SaleRecord struct {
	ID        SaleID          `json:"id"`
	ProductID ProductID       `json:"productId"`
	Name      string          `json:"name"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
	Quantity  int             `json:"quantity"`
	Total     decimal.Decimal `json:"total"`
	Date      time.Time       `json:"date"`
}

func newSaleRecord(id SaleID, p Product, quantity int, at time.Time) SaleRecord {
	return SaleRecord{
		ID:        id,
		ProductID: p.ID,
		Name:      p.Name,
		UnitPrice: p.Price,
		Quantity:  quantity,
		Total:     p.Price.Mul(decimal.NewFromInt(int64(quantity))),
		Date:      at,
	}
}
