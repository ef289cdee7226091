package invoice

import (
	"context"

	"github.com/ignite/invoice-admin/internal/domain"
)

// Repository defines the data access contract for invoices.
// Every write is a single atomic statement. Implementations must be safe
// for concurrent use.
type Repository interface {
	// Insert creates a row and returns the store-generated id.
	Insert(ctx context.Context, inv domain.NewInvoice) (string, error)

	// Update overwrites customer, amount and status. The date is never
	// touched. Returns ErrNotFound if no row matches id.
	Update(ctx context.Context, id string, u UpdateFields) error

	// Delete removes exactly the row matching id. Returns ErrNotFound if
	// no row matches.
	Delete(ctx context.Context, id string) error

	// Get returns a single invoice. Returns ErrNotFound if it doesn't exist.
	Get(ctx context.Context, id string) (*domain.Invoice, error)

	// Customers returns all customers ordered by name.
	Customers(ctx context.Context) ([]domain.Customer, error)

	// Search returns invoices whose customer name, email, amount, date or
	// status match query, newest first.
	Search(ctx context.Context, query string, limit, offset int) ([]domain.InvoiceRow, error)

	// Count returns the number of invoices Search would match without paging.
	Count(ctx context.Context, query string) (int, error)
}

// UpdateFields holds the mutable fields of an invoice.
type UpdateFields struct {
	CustomerID  string
	AmountCents int64
	Status      domain.InvoiceStatus
}

// ListCache stores rendered list-view data keyed by path and variant.
//
// Get reports the path's current generation alongside the entry; Set must be
// given that generation so data read before an Invalidate is never stored
// under the generation that follows it. Invalidate drops every variant
// cached under path.
type ListCache interface {
	Get(ctx context.Context, path, variant string) (data []byte, gen int64, hit bool, err error)
	Set(ctx context.Context, path, variant string, gen int64, data []byte) error
	Invalidate(ctx context.Context, path string) error
}
