/*
aggregate.go - Report folds over the sales ledger

PURPOSE:
  Computes every report from a slice of sale records (normally the result
  of Ledger.ListSales). Nothing here reads storage or keeps state between
  calls: the same input always yields the same output, and the functions
  are safe to call concurrently.

GROUPING RULES:
  - Products are grouped by the snapshotted Name, not by ProductID. A
    product deleted and re-created under the same name merges with its
    old sales.
  - Periods are grouped by a pluggable BucketFunc (see period.go).

SEE ALSO:
  - ledger.go: Source of the sale records
  - api/handlers.go: Report endpoints
*/
package stock

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// CORE FOLDS
// =============================================================================

// TotalRevenue sums Total over sales. Zero for an empty slice.
func TotalRevenue(sales []SaleRecord) decimal.Decimal {
	total := decimal.Zero
	for _, s := range sales {
		total = total.Add(s.Total)
	}
	return total
}

// QuantityByProduct sums the quantity sold per snapshotted product name.
func QuantityByProduct(sales []SaleRecord) map[string]int {
	result := make(map[string]int)
	for _, s := range sales {
		result[s.Name] += s.Quantity
	}
	return result
}

// RevenueByPeriod sums Total per bucket key.
func RevenueByPeriod(sales []SaleRecord, bucket BucketFunc) map[string]decimal.Decimal {
	result := make(map[string]decimal.Decimal)
	for _, s := range sales {
		k := bucket(s.Date)
		result[k] = result[k].Add(s.Total)
	}
	return result
}

// UnitsSold sums Quantity over sales.
func UnitsSold(sales []SaleRecord) int {
	n := 0
	for _, s := range sales {
		n += s.Quantity
	}
	return n
}

// =============================================================================
// ORDERED VIEWS - For charts and dashboards
// =============================================================================

type ProductQuantity struct {
	Name     string `json:"name"`
	Quantity int    `json:"quantity"`
}

type PeriodRevenue struct {
	Period  string          `json:"period"`
	Revenue decimal.Decimal `json:"revenue"`
}

type StockLevel struct {
	ProductID ProductID `json:"product_id"`
	Name      string    `json:"name"`
	Quantity  int       `json:"quantity"`
}

// RevenueSeries returns revenue per bucket ordered by the earliest sale
// in each bucket.
func RevenueSeries(sales []SaleRecord, bucket BucketFunc) []PeriodRevenue {
	first := make(map[string]time.Time)
	revenue := RevenueByPeriod(sales, bucket)
	for _, s := range sales {
		k := bucket(s.Date)
		if t, ok := first[k]; !ok || s.Date.Before(t) {
			first[k] = s.Date
		}
	}

	series := make([]PeriodRevenue, 0, len(revenue))
	for k, v := range revenue {
		series = append(series, PeriodRevenue{Period: k, Revenue: v})
	}
	sort.Slice(series, func(i, j int) bool {
		ti, tj := first[series[i].Period], first[series[j].Period]
		if ti.Equal(tj) {
			return series[i].Period < series[j].Period
		}
		return ti.Before(tj)
	})
	return series
}

// TopProducts returns the n best-selling names by quantity, ties broken by
// name. n <= 0 returns all.
func TopProducts(sales []SaleRecord, n int) []ProductQuantity {
	byName := QuantityByProduct(sales)
	ranked := make([]ProductQuantity, 0, len(byName))
	for name, qty := range byName {
		ranked = append(ranked, ProductQuantity{Name: name, Quantity: qty})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Quantity != ranked[j].Quantity {
			return ranked[i].Quantity > ranked[j].Quantity
		}
		return ranked[i].Name < ranked[j].Name
	})
	return limit(ranked, n)
}

// TopPeriods returns the n buckets with the highest revenue. Ties keep
// chronological order. n <= 0 returns all.
func TopPeriods(sales []SaleRecord, bucket BucketFunc, n int) []PeriodRevenue {
	ranked := RevenueSeries(sales, bucket)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Revenue.GreaterThan(ranked[j].Revenue)
	})
	return limit(ranked, n)
}

// StockLevels lists current quantity per product in catalog order.
func StockLevels(products []Product) []StockLevel {
	levels := make([]StockLevel, len(products))
	for i, p := range products {
		levels[i] = StockLevel{ProductID: p.ID, Name: p.Name, Quantity: p.Quantity}
	}
	return levels
}

// =============================================================================
// SUMMARY - Dashboard view
// =============================================================================

type Summary struct {
	TotalRevenue decimal.Decimal   `json:"total_revenue"`
	SaleCount    int               `json:"sale_count"`
	UnitsSold    int               `json:"units_sold"`
	TopProducts  []ProductQuantity `json:"top_products"`
	TopPeriods   []PeriodRevenue   `json:"top_periods"`
}

// Summarize builds the dashboard view with the top n products and periods.
func Summarize(sales []SaleRecord, bucket BucketFunc, n int) Summary {
	return Summary{
		TotalRevenue: TotalRevenue(sales),
		SaleCount:    len(sales),
		UnitsSold:    UnitsSold(sales),
		TopProducts:  TopProducts(sales, n),
		TopPeriods:   TopPeriods(sales, bucket, n),
	}
}

func limit[T any](s []T, n int) []T {
	if n > 0 && len(s) > n {
		return s[:n]
	}
	return s
}
