package domain

// InvoiceStatus enumerates the payment states of an invoice.
type InvoiceStatus string

const (
	InvoicePending InvoiceStatus = "pending"
	InvoicePaid    InvoiceStatus = "paid"
)

// Valid reports whether s is one of the known statuses.
func (s InvoiceStatus) Valid() bool {
	return s == InvoicePending || s == InvoicePaid
}

// DateLayout is the calendar-date format stored in invoices.date.
const DateLayout = "2006-01-02"

// Invoice is a persisted record of an amount owed by a customer.
// AmountCents is the minor-unit amount; Date never changes after creation.
type Invoice struct {
	ID          string        `json:"id" db:"id"`
	CustomerID  string        `json:"customer_id" db:"customer_id"`
	AmountCents int64         `json:"amount" db:"amount"`
	Status      InvoiceStatus `json:"status" db:"status"`
	Date        string        `json:"date" db:"date"`
}

// NewInvoice holds the fields written by an insert. The ID is assigned by
// the store.
type NewInvoice struct {
	CustomerID  string
	AmountCents int64
	Status      InvoiceStatus
	Date        string
}

// InvoiceRow is an invoice joined with its customer, as shown in the list view.
type InvoiceRow struct {
	ID          string        `json:"id"`
	CustomerID  string        `json:"customer_id"`
	Name        string        `json:"name"`
	Email       string        `json:"email"`
	ImageURL    string        `json:"image_url"`
	AmountCents int64         `json:"amount"`
	Amount      string        `json:"amount_display"`
	Status      InvoiceStatus `json:"status"`
	Date        string        `json:"date"`
}

// Customer is the owner of invoices. Only the fields needed by forms are loaded.
type Customer struct {
	ID       string `json:"id" db:"id"`
	Name     string `json:"name" db:"name"`
	Email    string `json:"email" db:"email"`
	ImageURL string `json:"image_url" db:"image_url"`
}
