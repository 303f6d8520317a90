/*
Package bolt provides a bbolt-backed implementation of stock.TxKV.

PURPOSE:
  The default on-device store. bbolt keeps the products and sales records
  in a single file, one bucket, one key per record. It is the closest
  match to a mobile key-value store: local, embedded, no server.

TRANSACTIONS:
  WithTx maps to db.Update. bbolt allows a single writer at a time and
  rolls the whole transaction back when the callback returns an error, so
  a sale either stores both records or neither.

USAGE:
  kv, err := bolt.Open("./data/stock.db")
  if err != nil {
      log.Fatal(err)
  }
  defer kv.Close()
  catalog := stock.NewCatalog(kv, logger)

SEE ALSO:
  - stock/kv.go: Interface definitions
  - store/sqlite/sqlite.go: SQLite alternative
*/
package bolt

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	bbolt "go.etcd.io/bbolt"

	"github.com/MrDieggo/controleEstoque-app/stock"
)

const defaultBucket = "stock"

// Store implements stock.TxKV on a bbolt file.
type Store struct {
	db     *bbolt.DB
	bucket []byte
}

// Open creates or opens the bbolt file and ensures the bucket exists.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	db, err := bbolt.Open(path, 0o600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open bolt database: %w", err)
	}

	bucket := []byte(defaultBucket)
	if err := db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucket)
		return err
	}); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create bucket: %w", err)
	}

	return &Store{db: db, bucket: bucket}, nil
}

// Close closes the bolt database.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Get returns a copy of the stored value.
func (s *Store) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}
	var (
		value []byte
		found bool
	)
	err := s.db.View(func(tx *bbolt.Tx) error {
		value, found = get(tx.Bucket(s.bucket), key)
		return nil
	})
	return value, found, err
}

// Set replaces the value under key in its own transaction.
func (s *Store) Set(ctx context.Context, key string, value []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(s.bucket).Put([]byte(key), value)
	})
}

// WithTx executes fn within a read-write bolt transaction.
func (s *Store) WithTx(ctx context.Context, fn func(stock.KV) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.db.Update(func(tx *bbolt.Tx) error {
		return fn(&txView{bucket: tx.Bucket(s.bucket)})
	})
}

type txView struct {
	bucket *bbolt.Bucket
}

func (v *txView) Get(_ context.Context, key string) ([]byte, bool, error) {
	value, found := get(v.bucket, key)
	return value, found, nil
}

func (v *txView) Set(_ context.Context, key string, value []byte) error {
	return v.bucket.Put([]byte(key), value)
}

// get copies the value out; bolt memory is only valid inside the tx.
func get(b *bbolt.Bucket, key string) ([]byte, bool) {
	raw := b.Get([]byte(key))
	if raw == nil {
		return nil, false
	}
	return append([]byte{}, raw...), true
}
