// Package storetest holds the behaviour every stock.TxKV backend must share.
package storetest

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/MrDieggo/controleEstoque-app/stock"
)

// Run exercises a backend created fresh by newKV for every subtest.
func Run(t *testing.T, newKV func(t *testing.T) stock.TxKV) {
	t.Run("missing key", func(t *testing.T) {
		kv := newKV(t)
		value, found, err := kv.Get(context.Background(), "nothing")
		require.NoError(t, err)
		assert.False(t, found)
		assert.Nil(t, value)
	})

	t.Run("set then get", func(t *testing.T) {
		kv := newKV(t)
		ctx := context.Background()
		require.NoError(t, kv.Set(ctx, stock.KeyProducts, []byte(`[]`)))
		require.NoError(t, kv.Set(ctx, stock.KeyProducts, []byte(`[{"id":"a"}]`)))

		value, found, err := kv.Get(ctx, stock.KeyProducts)
		require.NoError(t, err)
		assert.True(t, found)
		assert.JSONEq(t, `[{"id":"a"}]`, string(value))
	})

	t.Run("tx commit", func(t *testing.T) {
		kv := newKV(t)
		ctx := context.Background()
		err := kv.WithTx(ctx, func(tx stock.KV) error {
			if err := tx.Set(ctx, stock.KeyProducts, []byte(`["p"]`)); err != nil {
				return err
			}
			value, found, err := tx.Get(ctx, stock.KeyProducts)
			require.NoError(t, err)
			require.True(t, found, "writes are visible inside the transaction")
			assert.Equal(t, `["p"]`, string(value))
			return tx.Set(ctx, stock.KeySales, []byte(`["s"]`))
		})
		require.NoError(t, err)

		p, _, _ := kv.Get(ctx, stock.KeyProducts)
		s, _, _ := kv.Get(ctx, stock.KeySales)
		assert.Equal(t, `["p"]`, string(p))
		assert.Equal(t, `["s"]`, string(s))
	})

	t.Run("tx rollback", func(t *testing.T) {
		kv := newKV(t)
		ctx := context.Background()
		require.NoError(t, kv.Set(ctx, stock.KeyProducts, []byte(`["before"]`)))

		boom := errors.New("boom")
		err := kv.WithTx(ctx, func(tx stock.KV) error {
			require.NoError(t, tx.Set(ctx, stock.KeyProducts, []byte(`["after"]`)))
			require.NoError(t, tx.Set(ctx, stock.KeySales, []byte(`["after"]`)))
			return boom
		})
		assert.ErrorIs(t, err, boom)

		p, _, err := kv.Get(ctx, stock.KeyProducts)
		require.NoError(t, err)
		assert.Equal(t, `["before"]`, string(p))
		_, found, err := kv.Get(ctx, stock.KeySales)
		require.NoError(t, err)
		assert.False(t, found)
	})

	t.Run("catalog and ledger round trip", func(t *testing.T) {
		kv := newKV(t)
		ctx := context.Background()
		catalog := stock.NewCatalog(kv, nil)
		ledger := stock.NewLedger(catalog, nil)

		p, err := catalog.AddProduct(ctx, "Widget", 10, decimal.RequireFromString("5.00"))
		require.NoError(t, err)
		_, err = ledger.RegisterSale(ctx, p.ID, 3)
		require.NoError(t, err)
		_, err = ledger.RegisterSale(ctx, p.ID, 8)
		assert.ErrorIs(t, err, stock.ErrInsufficientStock)

		got, err := catalog.Get(ctx, p.ID)
		require.NoError(t, err)
		assert.Equal(t, 7, got.Quantity)

		sales, err := ledger.ListSales(ctx)
		require.NoError(t, err)
		require.Len(t, sales, 1)
		assert.True(t, sales[0].Total.Equal(decimal.NewFromInt(15)))
	})
	t.Run("concurrent sales never oversell", func(t *testing.T) {
		kv := newKV(t)
		ctx := context.Background()
		catalog := stock.NewCatalog(kv, nil)
		ledger := stock.NewLedger(catalog, nil)

		p, err := catalog.AddProduct(ctx, "Widget", 8, decimal.RequireFromString("2.00"))
		require.NoError(t, err)

		var sold, short atomic.Int32
		var g errgroup.Group
		for i := 0; i < 20; i++ {
			g.Go(func() error {
				_, err := ledger.RegisterSale(ctx, p.ID, 1)
				switch {
				case err == nil:
					sold.Add(1)
				case errors.Is(err, stock.ErrInsufficientStock):
					short.Add(1)
				default:
					return err
				}
				return nil
			})
		}
		require.NoError(t, g.Wait())

		assert.Equal(t, int32(8), sold.Load())
		assert.Equal(t, int32(12), short.Load())

		got, err := catalog.Get(ctx, p.ID)
		require.NoError(t, err)
		assert.Equal(t, 0, got.Quantity)

		sales, err := ledger.ListSales(ctx)
		require.NoError(t, err)
		assert.Len(t, sales, 8)
		assert.True(t, stock.TotalRevenue(sales).Equal(decimal.NewFromInt(16)))
	})
}
