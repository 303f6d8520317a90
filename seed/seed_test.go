package seed

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrDieggo/controleEstoque-app/stock"
	"github.com/MrDieggo/controleEstoque-app/stock/store"
)

func newTestStock(t *testing.T) (*stock.Catalog, *stock.Ledger) {
	t.Helper()
	catalog := stock.NewCatalog(store.NewMemory(), nil)
	return catalog, stock.NewLedger(catalog, nil)
}

func TestBuiltin_AllParse(t *testing.T) {
	all, err := Builtin()
	require.NoError(t, err)

	var names []string
	for _, sc := range all {
		names = append(names, sc.Name)
		assert.NotEmpty(t, sc.Description, sc.Name)
	}
	assert.Equal(t, []string{"demo", "empty", "papelaria"}, names)
}

func TestApply_Demo(t *testing.T) {
	// GIVEN: An empty store
	// WHEN: The demo scenario is applied
	// THEN: Stock and revenue reflect every seeded sale
	catalog, ledger := newTestStock(t)
	ctx := context.Background()

	sc, err := Lookup("demo")
	require.NoError(t, err)

	res, err := Apply(ctx, sc, catalog, ledger)
	require.NoError(t, err)
	assert.Equal(t, Result{Scenario: "demo", Products: 3, Sales: 4}, res)

	products, err := catalog.List(ctx)
	require.NoError(t, err)
	levels := stock.StockLevels(products)
	require.Len(t, levels, 3)
	assert.Equal(t, 5, levels[0].Quantity)
	assert.Equal(t, 20, levels[1].Quantity)
	assert.Equal(t, 3, levels[2].Quantity)

	sales, err := ledger.ListSales(ctx)
	require.NoError(t, err)
	summary := stock.Summarize(sales, stock.MonthKey, 2)
	assert.Equal(t, "187.40", summary.TotalRevenue.StringFixed(2))
	assert.Equal(t, 4, summary.SaleCount)
	assert.Equal(t, 11, summary.UnitsSold)
	assert.Equal(t, []stock.ProductQuantity{
		{Name: "Gadget", Quantity: 5},
		{Name: "Widget", Quantity: 5},
	}, summary.TopProducts)
}

func TestApply_CommaDecimalPrices(t *testing.T) {
	catalog, ledger := newTestStock(t)
	ctx := context.Background()

	sc, err := Lookup("papelaria")
	require.NoError(t, err)
	_, err = Apply(ctx, sc, catalog, ledger)
	require.NoError(t, err)

	sales, err := ledger.ListSales(ctx)
	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("141.70").Equal(stock.TotalRevenue(sales)))
}

func TestApply_StopsAtRejectedSale(t *testing.T) {
	// GIVEN: A scenario selling more than it stocks
	// THEN: The oversell is rejected and earlier work stays committed
	sc, err := Parse([]byte(`
name: oversell
products:
  - name: Widget
    quantity: 2
    price: "1.00"
sales:
  - product: Widget
    quantity: 1
  - product: Widget
    quantity: 5
`))
	require.NoError(t, err)

	catalog, ledger := newTestStock(t)
	res, err := Apply(context.Background(), sc, catalog, ledger)

	assert.ErrorIs(t, err, stock.ErrInsufficientStock)
	assert.Equal(t, 1, res.Products)
	assert.Equal(t, 1, res.Sales)
}

func TestApply_InvalidPrice(t *testing.T) {
	sc, err := Parse([]byte(`
name: bad
products:
  - name: Widget
    quantity: 2
    price: "cheap"
`))
	require.NoError(t, err)

	catalog, ledger := newTestStock(t)
	_, err = Apply(context.Background(), sc, catalog, ledger)
	assert.ErrorIs(t, err, stock.ErrValidation)
}

func TestParse_Errors(t *testing.T) {
	cases := map[string]string{
		"malformed":       "name: [",
		"no name":         "products: []",
		"unknown product": "name: x\nsales:\n  - product: Ghost\n    quantity: 1\n",
		"duplicate":       "name: x\nproducts:\n  - name: A\n  - name: A\n",
	}
	for desc, doc := range cases {
		t.Run(desc, func(t *testing.T) {
			_, err := Parse([]byte(doc))
			assert.Error(t, err)
		})
	}
}

func TestResolve(t *testing.T) {
	sc, err := Resolve("demo")
	require.NoError(t, err)
	assert.Equal(t, "demo", sc.Name)

	file := filepath.Join(t.TempDir(), "custom.yaml")
	require.NoError(t, os.WriteFile(file, []byte("name: custom\n"), 0o600))
	sc, err = Resolve(file)
	require.NoError(t, err)
	assert.Equal(t, "custom", sc.Name)

	_, err = Resolve("nope")
	assert.Error(t, err)
}
