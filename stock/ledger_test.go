package stock_test

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/MrDieggo/controleEstoque-app/stock"
	"github.com/MrDieggo/controleEstoque-app/stock/store"
)

// =============================================================================
// TEST SETUP
// =============================================================================

type testEnv struct {
	kv      *store.Memory
	catalog *stock.Catalog
	ledger  *stock.Ledger
	now     time.Time
}

func newTestLedger(t *testing.T) *testEnv {
	t.Helper()
	env := &testEnv{
		kv:  store.NewMemory(),
		now: time.Date(2024, time.March, 15, 10, 0, 0, 0, time.UTC),
	}
	env.catalog = stock.NewCatalog(env.kv, nil)
	env.ledger = stock.NewLedger(env.catalog, nil)
	env.ledger.Now = func() time.Time { return env.now }

	var seq atomic.Int64
	env.ledger.NewID = func() string { return fmt.Sprintf("sale-%03d", seq.Add(1)) }
	return env
}

func (e *testEnv) addProduct(t *testing.T, name string, qty int, unitPrice string) stock.Product {
	t.Helper()
	p, err := e.catalog.AddProduct(context.Background(), name, qty, price(unitPrice))
	require.NoError(t, err)
	return p
}

// =============================================================================
// REGISTER SALE
// =============================================================================

func TestLedger_RegisterSale_DecrementsAndSnapshots(t *testing.T) {
	// GIVEN: Widget, 10 units at 5.00
	// WHEN: 3 units are sold
	// THEN: Stock is 7 and the record carries a total of 15.00
	env := newTestLedger(t)
	ctx := context.Background()
	p := env.addProduct(t, "Widget", 10, "5.00")

	sale, err := env.ledger.RegisterSale(ctx, p.ID, 3)
	require.NoError(t, err)

	assert.Equal(t, stock.SaleID("sale-001"), sale.ID)
	assert.Equal(t, p.ID, sale.ProductID)
	assert.Equal(t, "Widget", sale.Name)
	assert.True(t, price("5.00").Equal(sale.UnitPrice))
	assert.Equal(t, 3, sale.Quantity)
	assert.True(t, price("15.00").Equal(sale.Total))
	assert.Equal(t, env.now, sale.Date)

	got, err := env.catalog.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 7, got.Quantity)

	sales, err := env.ledger.ListSales(ctx)
	require.NoError(t, err)
	require.Len(t, sales, 1)
	assert.Equal(t, sale.ID, sales[0].ID)
	assert.Equal(t, sale.ProductID, sales[0].ProductID)
	assert.Equal(t, sale.Quantity, sales[0].Quantity)
	assert.True(t, sale.UnitPrice.Equal(sales[0].UnitPrice))
	assert.True(t, sale.Total.Equal(sales[0].Total))
	assert.True(t, sale.Date.Equal(sales[0].Date))
}

func TestLedger_Sell_ReturnsCommittedStock(t *testing.T) {
	// GIVEN: A product with 10 units
	// WHEN: 10 goroutines each sell 1 unit through Sell
	// THEN: Every call sees a distinct remaining stock, 9 down to 0
	env := newTestLedger(t)
	ctx := context.Background()
	p := env.addProduct(t, "Widget", 10, "1.00")

	remaining := make([]int, 10)
	var g errgroup.Group
	for i := range remaining {
		i := i
		g.Go(func() error {
			sale, left, err := env.ledger.Sell(ctx, p.ID, 1)
			if err != nil {
				return err
			}
			if sale.ProductID != left.ID {
				return fmt.Errorf("sale for %s returned product %s", sale.ProductID, left.ID)
			}
			remaining[i] = left.Quantity
			return nil
		})
	}
	require.NoError(t, g.Wait())

	assert.ElementsMatch(t, []int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}, remaining)
}

func TestLedger_RegisterSale_CancelledContext(t *testing.T) {
	// GIVEN: A product with 5 units and a cancelled context
	// WHEN: A sale is registered
	// THEN: context.Canceled comes back unwrapped and nothing is written
	env := newTestLedger(t)
	p := env.addProduct(t, "Widget", 5, "1.00")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := env.ledger.RegisterSale(ctx, p.ID, 1)

	require.ErrorIs(t, err, context.Canceled)
	assert.NotErrorIs(t, err, stock.ErrPersistence)
	assert.False(t, stock.IsClientError(err))

	got, err := env.catalog.Get(context.Background(), p.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, got.Quantity)
	sales, err := env.ledger.ListSales(context.Background())
	require.NoError(t, err)
	assert.Empty(t, sales)
}

func TestLedger_RegisterSale_InsufficientStock_NoChange(t *testing.T) {
	// GIVEN: A product with 5 units
	// WHEN: 6 units are requested
	// THEN: InsufficientStockError, stock stays 5, no record appended
	env := newTestLedger(t)
	ctx := context.Background()
	p := env.addProduct(t, "Widget", 5, "2.00")

	_, err := env.ledger.RegisterSale(ctx, p.ID, 6)

	var short *stock.InsufficientStockError
	require.ErrorAs(t, err, &short)
	assert.Equal(t, 5, short.Available)
	assert.Equal(t, 6, short.Requested)
	assert.Equal(t, 1, short.Shortfall)
	assert.True(t, stock.IsClientError(err))

	got, err := env.catalog.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, got.Quantity)

	sales, err := env.ledger.ListSales(ctx)
	require.NoError(t, err)
	assert.Empty(t, sales)
}

func TestLedger_RegisterSale_SequentialSecondFails(t *testing.T) {
	// GIVEN: A product with 5 units
	// WHEN: Two sales of 4 are registered one after the other
	// THEN: Only the first succeeds and stock ends at 1
	env := newTestLedger(t)
	ctx := context.Background()
	p := env.addProduct(t, "Widget", 5, "1.00")

	_, err := env.ledger.RegisterSale(ctx, p.ID, 4)
	require.NoError(t, err)
	_, err = env.ledger.RegisterSale(ctx, p.ID, 4)
	assert.ErrorIs(t, err, stock.ErrInsufficientStock)

	got, _ := env.catalog.Get(ctx, p.ID)
	assert.Equal(t, 1, got.Quantity)

	sales, _ := env.ledger.ListSales(ctx)
	assert.Len(t, sales, 1)
}

func TestLedger_RegisterSale_ValidationErrors(t *testing.T) {
	env := newTestLedger(t)
	ctx := context.Background()
	p := env.addProduct(t, "Widget", 5, "1.00")

	cases := []struct {
		desc  string
		id    stock.ProductID
		qty   int
		field string
	}{
		{"no product selected", "", 1, "product_id"},
		{"zero quantity", p.ID, 0, "quantity"},
		{"negative quantity", p.ID, -2, "quantity"},
	}
	for _, c := range cases {
		t.Run(c.desc, func(t *testing.T) {
			_, err := env.ledger.RegisterSale(ctx, c.id, c.qty)
			var vErr *stock.ValidationError
			require.ErrorAs(t, err, &vErr)
			assert.Equal(t, c.field, vErr.Field)
		})
	}

	sales, _ := env.ledger.ListSales(ctx)
	assert.Empty(t, sales)
}

func TestLedger_RegisterSale_UnknownProduct(t *testing.T) {
	env := newTestLedger(t)
	_, err := env.ledger.RegisterSale(context.Background(), "ghost", 1)
	assert.True(t, stock.IsNotFound(err))
}

func TestLedger_RegisterSale_FailedAppendRollsBackDecrement(t *testing.T) {
	// GIVEN: A store where writing the sales record fails
	// WHEN: A valid sale is registered
	// THEN: PersistenceError and the stock decrement is not kept
	kv := &failingKV{Memory: store.NewMemory(), failKey: stock.KeySales}
	catalog := stock.NewCatalog(kv, nil)
	ledger := stock.NewLedger(catalog, nil)
	ctx := context.Background()

	p, err := catalog.AddProduct(ctx, "Widget", 10, price("5.00"))
	require.NoError(t, err)

	_, err = ledger.RegisterSale(ctx, p.ID, 3)
	assert.ErrorIs(t, err, stock.ErrPersistence)
	assert.ErrorIs(t, err, errDisk)

	got, err := catalog.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 10, got.Quantity)
}

// =============================================================================
// SNAPSHOT SEMANTICS
// =============================================================================

func TestLedger_EditAfterSale_RecordUnchanged(t *testing.T) {
	env := newTestLedger(t)
	ctx := context.Background()
	p := env.addProduct(t, "Widget", 10, "5.00")

	_, err := env.ledger.RegisterSale(ctx, p.ID, 2)
	require.NoError(t, err)

	name := "Gadget"
	newPrice := price("9.99")
	_, err = env.catalog.EditProduct(ctx, p.ID, stock.ProductPatch{Name: &name, Price: &newPrice})
	require.NoError(t, err)

	sales, err := env.ledger.ListSales(ctx)
	require.NoError(t, err)
	require.Len(t, sales, 1)
	assert.Equal(t, "Widget", sales[0].Name)
	assert.True(t, price("5.00").Equal(sales[0].UnitPrice))
	assert.True(t, price("10.00").Equal(sales[0].Total))
}

func TestLedger_DeleteAfterSale_RecordAndRevenueKept(t *testing.T) {
	// GIVEN: A sale of Widget
	// WHEN: Widget is deleted from the catalog
	// THEN: The record and total revenue are unchanged
	env := newTestLedger(t)
	ctx := context.Background()
	p := env.addProduct(t, "Widget", 10, "5.00")
	_, err := env.ledger.RegisterSale(ctx, p.ID, 3)
	require.NoError(t, err)

	require.NoError(t, env.catalog.DeleteProduct(ctx, p.ID))

	sales, err := env.ledger.ListSales(ctx)
	require.NoError(t, err)
	require.Len(t, sales, 1)
	assert.Equal(t, p.ID, sales[0].ProductID)
	assert.True(t, price("15").Equal(stock.TotalRevenue(sales)))

	forProduct, err := env.ledger.SalesForProduct(ctx, p.ID)
	require.NoError(t, err)
	assert.Len(t, forProduct, 1)
}

func TestLedger_ListSales_CreationOrder(t *testing.T) {
	env := newTestLedger(t)
	ctx := context.Background()
	a := env.addProduct(t, "A", 10, "1")
	b := env.addProduct(t, "B", 10, "1")

	for i, id := range []stock.ProductID{a.ID, b.ID, a.ID} {
		env.now = env.now.Add(time.Hour)
		_, err := env.ledger.RegisterSale(ctx, id, i+1)
		require.NoError(t, err)
	}

	sales, err := env.ledger.ListSales(ctx)
	require.NoError(t, err)
	require.Len(t, sales, 3)
	assert.Equal(t, []stock.SaleID{"sale-001", "sale-002", "sale-003"},
		[]stock.SaleID{sales[0].ID, sales[1].ID, sales[2].ID})

	forA, err := env.ledger.SalesForProduct(ctx, a.ID)
	require.NoError(t, err)
	require.Len(t, forA, 2)
	assert.Equal(t, 1, forA[0].Quantity)
	assert.Equal(t, 3, forA[1].Quantity)
}

func TestLedger_EmptyStore(t *testing.T) {
	env := newTestLedger(t)
	sales, err := env.ledger.ListSales(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, sales)
	assert.Empty(t, sales)
}

// =============================================================================
// CONCURRENCY
// =============================================================================

func TestLedger_ConcurrentSales_NoOversell(t *testing.T) {
	// GIVEN: A product with 10 units
	// WHEN: 25 goroutines each try to sell 1 unit
	// THEN: Exactly 10 succeed, stock is 0, 10 records exist
	env := newTestLedger(t)
	ctx := context.Background()
	p := env.addProduct(t, "Widget", 10, "1.00")

	var ok, short atomic.Int32
	var g errgroup.Group
	for i := 0; i < 25; i++ {
		g.Go(func() error {
			_, err := env.ledger.RegisterSale(ctx, p.ID, 1)
			switch {
			case err == nil:
				ok.Add(1)
			case stock.IsClientError(err):
				short.Add(1)
			default:
				return err
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())

	assert.Equal(t, int32(10), ok.Load())
	assert.Equal(t, int32(15), short.Load())

	got, err := env.catalog.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, got.Quantity)

	sales, err := env.ledger.ListSales(ctx)
	require.NoError(t, err)
	assert.Len(t, sales, 10)
}

func TestLedger_ConcurrentSalesAndEdits_NoLostUpdates(t *testing.T) {
	// Sales of one product must not be lost while another product is
	// being edited concurrently.
	env := newTestLedger(t)
	ctx := context.Background()
	sold := env.addProduct(t, "Sold", 100, "1.00")
	edited := env.addProduct(t, "Edited", 0, "1.00")

	var g errgroup.Group
	for i := 0; i < 20; i++ {
		g.Go(func() error {
			_, err := env.ledger.RegisterSale(ctx, sold.ID, 2)
			return err
		})
		n := i
		g.Go(func() error {
			_, err := env.catalog.EditProduct(ctx, edited.ID, stock.ProductPatch{Quantity: &n})
			return err
		})
	}
	require.NoError(t, g.Wait())

	got, err := env.catalog.Get(ctx, sold.ID)
	require.NoError(t, err)
	assert.Equal(t, 60, got.Quantity)

	sales, err := env.ledger.ListSales(ctx)
	require.NoError(t, err)
	assert.Len(t, sales, 20)
	assert.True(t, price("40").Equal(stock.TotalRevenue(sales)))
}
