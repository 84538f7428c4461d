/*
store.go - Persistence contract for orders

PURPOSE:
  The ledger never talks to a database directly; it loads an Order, mutates
  the copy, and hands it back through Save. Save is CONDITIONAL: it succeeds
  only if the stored version still matches the version the copy was loaded
  with. Two concurrent payment requests against the same order cannot both
  land - the loser gets ErrConcurrentModification and retries against fresh
  state. Last-writer-wins is explicitly not acceptable here: it would let
  the payment count overshoot the tenor or a maturity date be computed
  twice.

IMPLEMENTATIONS:
  - store/memory: in-memory, for tests and development
  - store/sqlite: production store, version column guarded by the update's
    WHERE clause
*/
package ledger

import "context"

// OrderStore persists orders. Save is a compare-and-swap on Order.Version:
// implementations must reject the write with ErrConcurrentModification when
// the stored version differs, and bump the version on success (reflecting
// the new version back onto the passed order).
type OrderStore interface {
	// Get returns the order or ErrOrderNotFound.
	Get(ctx context.Context, id string) (*Order, error)

	// Create persists a new order at version 1.
	Create(ctx context.Context, o *Order) error

	// Save conditionally overwrites the order (see interface comment).
	Save(ctx context.Context, o *Order) error

	// List returns all orders, newest first.
	List(ctx context.Context) ([]*Order, error)

	// ListByUser returns a consumer's own orders, newest first.
	ListByUser(ctx context.Context, userID string) ([]*Order, error)

	// ListByCollector returns orders assigned to a collector, newest first.
	ListByCollector(ctx context.Context, collectorUID string) ([]*Order, error)
}
