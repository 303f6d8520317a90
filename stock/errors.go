/*
errors.go - Centralized error types for the stock core

PURPOSE:
  All error types in one place for consistency and discoverability.
  Every Catalog and Ledger failure is one of four kinds, and each
  structured error unwraps to a sentinel so callers can use errors.Is.

ERROR CATEGORIES:
  1. Validation - malformed input, nothing was written
  2. Not found - unknown product id (usually a stale client reference)
  3. Insufficient stock - sale larger than available quantity
  4. Persistence - the key-value store failed to read or write

  A cancelled or expired context is not a fifth kind: operations return
  context.Canceled or context.DeadlineExceeded unwrapped, and nothing is
  written.

USAGE:
  _, err := ledger.RegisterSale(ctx, id, 6)
  var short *stock.InsufficientStockError
  if errors.As(err, &short) {
      fmt.Printf("missing %d units\n", short.Shortfall)
  }

SEE ALSO:
  - api/handlers.go: Maps these errors to HTTP status codes
*/
package stock

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrValidation is returned for malformed or out-of-range input.
	ErrValidation = errors.New("validation failed")

	// ErrNotFound is returned when a product id is not in the catalog.
	ErrNotFound = errors.New("product not found")

	// ErrInsufficientStock is returned when a sale exceeds current stock.
	ErrInsufficientStock = errors.New("insufficient stock")

	// ErrPersistence is returned when the key-value store fails.
	ErrPersistence = errors.New("persistence failure")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// ValidationError names the offending field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

func invalid(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// NotFoundError identifies the missing product.
type NotFoundError struct {
	ProductID ProductID
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("product not found: %s", e.ProductID)
}

func (e *NotFoundError) Unwrap() error {
	return ErrNotFound
}

// InsufficientStockError provides details about a stock shortage.
type InsufficientStockError struct {
	ProductID ProductID
	Name      string
	Available int
	Requested int
	Shortfall int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for %q: available %d, requested %d, shortfall %d",
		e.Name, e.Available, e.Requested, e.Shortfall)
}

func (e *InsufficientStockError) Unwrap() error {
	return ErrInsufficientStock
}

// PersistenceError wraps a storage failure with the operation and key.
type PersistenceError struct {
	Op  string
	Key string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Key, e.Err)
}

// Unwrap exposes both the sentinel and the underlying cause.
func (e *PersistenceError) Unwrap() []error {
	return []error{ErrPersistence, e.Err}
}

func persistence(op, key string, err error) error {
	var pe *PersistenceError
	if errors.As(err, &pe) {
		return err
	}
	return &PersistenceError{Op: op, Key: key, Err: err}
}

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsClientError returns true if the error is due to invalid client input.
func IsClientError(err error) bool {
	return errors.Is(err, ErrValidation) ||
		errors.Is(err, ErrInsufficientStock)
}

// IsNotFound returns true if the error indicates a missing product.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
