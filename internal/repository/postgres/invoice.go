package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/ignite/invoice-admin/internal/domain"
	"github.com/ignite/invoice-admin/internal/service/invoice"
)

// InvoiceRepo implements invoice.Repository against PostgreSQL.
// Each write is exactly one statement, so no partial row is ever visible.
type InvoiceRepo struct{ db *sql.DB }

// NewInvoiceRepo creates a Postgres-backed invoice repository.
func NewInvoiceRepo(db *sql.DB) *InvoiceRepo { return &InvoiceRepo{db: db} }

func (r *InvoiceRepo) Insert(ctx context.Context, inv domain.NewInvoice) (string, error) {
	var id string
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO invoices (customer_id, amount, status, date)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`, inv.CustomerID, inv.AmountCents, string(inv.Status), inv.Date).Scan(&id)
	if err != nil {
		return "", wrapErr("insert invoice", err)
	}
	return id, nil
}

func (r *InvoiceRepo) Update(ctx context.Context, id string, u invoice.UpdateFields) error {
	if !validID(id) {
		return invoice.ErrNotFound
	}
	res, err := r.db.ExecContext(ctx, `
		UPDATE invoices
		SET customer_id = $1, amount = $2, status = $3
		WHERE id = $4
	`, u.CustomerID, u.AmountCents, string(u.Status), id)
	if err != nil {
		return wrapErr("update invoice", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return wrapErr("update invoice", err)
	}
	if n == 0 {
		return invoice.ErrNotFound
	}
	return nil
}

func (r *InvoiceRepo) Delete(ctx context.Context, id string) error {
	if !validID(id) {
		return invoice.ErrNotFound
	}
	res, err := r.db.ExecContext(ctx, `DELETE FROM invoices WHERE id = $1`, id)
	if err != nil {
		return wrapErr("delete invoice", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return wrapErr("delete invoice", err)
	}
	if n == 0 {
		return invoice.ErrNotFound
	}
	return nil
}

func (r *InvoiceRepo) Get(ctx context.Context, id string) (*domain.Invoice, error) {
	if !validID(id) {
		return nil, invoice.ErrNotFound
	}
	inv := &domain.Invoice{}
	err := r.db.QueryRowContext(ctx, `
		SELECT id, customer_id, amount, status, date::text
		FROM invoices
		WHERE id = $1
	`, id).Scan(&inv.ID, &inv.CustomerID, &inv.AmountCents, &inv.Status, &inv.Date)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, invoice.ErrNotFound
	}
	if err != nil {
		return nil, wrapErr("get invoice", err)
	}
	return inv, nil
}

func (r *InvoiceRepo) Customers(ctx context.Context) ([]domain.Customer, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, email, COALESCE(image_url, '')
		FROM customers
		ORDER BY name ASC
	`)
	if err != nil {
		return nil, wrapErr("list customers", err)
	}
	defer rows.Close()

	var out []domain.Customer
	for rows.Next() {
		var c domain.Customer
		if err := rows.Scan(&c.ID, &c.Name, &c.Email, &c.ImageURL); err != nil {
			return nil, fmt.Errorf("scan customer: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

const searchWhere = `
		FROM invoices
		JOIN customers ON invoices.customer_id = customers.id
		WHERE customers.name ILIKE $1
		   OR customers.email ILIKE $1
		   OR invoices.amount::text ILIKE $1
		   OR invoices.date::text ILIKE $1
		   OR invoices.status ILIKE $1`

func (r *InvoiceRepo) Search(ctx context.Context, query string, limit, offset int) ([]domain.InvoiceRow, error) {
	if limit <= 0 {
		limit = invoice.PageSize
	}
	rows, err := r.db.QueryContext(ctx, `
		SELECT invoices.id, invoices.customer_id, invoices.amount, invoices.status,
		       invoices.date::text, customers.name, customers.email,
		       COALESCE(customers.image_url, '')`+searchWhere+`
		ORDER BY invoices.date DESC, invoices.id
		LIMIT $2 OFFSET $3
	`, "%"+query+"%", limit, offset)
	if err != nil {
		return nil, wrapErr("search invoices", err)
	}
	defer rows.Close()

	var out []domain.InvoiceRow
	for rows.Next() {
		var row domain.InvoiceRow
		if err := rows.Scan(
			&row.ID, &row.CustomerID, &row.AmountCents, &row.Status,
			&row.Date, &row.Name, &row.Email, &row.ImageURL,
		); err != nil {
			return nil, fmt.Errorf("scan invoice row: %w", err)
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

func (r *InvoiceRepo) Count(ctx context.Context, query string) (int, error) {
	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*)`+searchWhere, "%"+query+"%").Scan(&total); err != nil {
		return 0, wrapErr("count invoices", err)
	}
	return total, nil
}

// validID reports whether id can name a row. Anything that is not a UUID
// cannot, so lookups short-circuit instead of surfacing a cast error.
func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

// wrapErr annotates err with the Postgres condition name when there is one,
// e.g. foreign_key_violation when the customer does not exist.
func wrapErr(op string, err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return fmt.Errorf("%s (%s %s): %w", op, pqErr.Code, pqErr.Code.Name(), err)
	}
	return fmt.Errorf("%s: %w", op, err)
}
