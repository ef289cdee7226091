package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"golang.org/x/sync/errgroup"

	"github.com/ignite/invoice-admin/internal/domain"
	"github.com/ignite/invoice-admin/internal/pkg/httputil"
	"github.com/ignite/invoice-admin/internal/pkg/logger"
	"github.com/ignite/invoice-admin/internal/service/invoice"
)

// InvoiceService is the subset of invoice.Service the handlers call.
type InvoiceService interface {
	CreateInvoice(ctx context.Context, prev domain.ActionResult, form invoice.Form) domain.ActionResult
	UpdateInvoice(ctx context.Context, id string, prev domain.ActionResult, form invoice.Form) domain.ActionResult
	DeleteInvoice(ctx context.Context, id string) domain.ActionResult
	Invoice(ctx context.Context, id string) (*domain.Invoice, error)
	Customers(ctx context.Context) ([]domain.Customer, error)
	Search(ctx context.Context, query string, page int) (*invoice.Page, error)
}

// InvoiceHandlers serves the /dashboard/invoices endpoints.
type InvoiceHandlers struct {
	svc InvoiceService
}

// NewInvoiceHandlers creates handlers backed by svc.
func NewInvoiceHandlers(svc InvoiceService) *InvoiceHandlers {
	return &InvoiceHandlers{svc: svc}
}

// EditForm is the data needed to render the edit page.
type EditForm struct {
	Invoice   *domain.Invoice   `json:"invoice"`
	Customers []domain.Customer `json:"customers"`
}

// List returns one page of invoices matching ?query=, paged by ?page=.
//
//	GET /dashboard/invoices
func (h *InvoiceHandlers) List(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("query"))
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))

	p, err := h.svc.Search(r.Context(), query, page)
	if err != nil {
		respondSafeError(w, r, err, "Failed to fetch invoices.")
		return
	}
	httputil.OK(w, p)
}

// CreateForm returns the customers for the create page.
//
//	GET /dashboard/invoices/create
func (h *InvoiceHandlers) CreateForm(w http.ResponseWriter, r *http.Request) {
	customers, err := h.svc.Customers(r.Context())
	if err != nil {
		respondSafeError(w, r, err, "Failed to fetch customers.")
		return
	}
	httputil.OK(w, map[string]any{"customers": customers})
}

// EditFormData fetches the invoice and the customer list concurrently.
// If either read fails the page is reported as not found.
//
//	GET /dashboard/invoices/{id}/edit
func (h *InvoiceHandlers) EditFormData(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var form EditForm
	g, ctx := errgroup.WithContext(r.Context())
	g.Go(func() error {
		inv, err := h.svc.Invoice(ctx, id)
		form.Invoice = inv
		return err
	})
	g.Go(func() error {
		customers, err := h.svc.Customers(ctx)
		form.Customers = customers
		return err
	})
	if err := g.Wait(); err != nil {
		if !errors.Is(err, invoice.ErrNotFound) {
			logger.Warn("edit form load failed", "id", id, "error", err)
		}
		httputil.NotFound(w, "invoice not found")
		return
	}
	httputil.OK(w, form)
}

// Create runs the create action.
//
//	POST /dashboard/invoices
func (h *InvoiceHandlers) Create(w http.ResponseWriter, r *http.Request) {
	prev, form, ok := decodeSubmission(w, r)
	if !ok {
		return
	}
	respondAction(w, r, h.svc.CreateInvoice(r.Context(), prev, form))
}

// Update runs the update action against the invoice named in the route.
//
//	POST|PUT /dashboard/invoices/{id}
func (h *InvoiceHandlers) Update(w http.ResponseWriter, r *http.Request) {
	prev, form, ok := decodeSubmission(w, r)
	if !ok {
		return
	}
	respondAction(w, r, h.svc.UpdateInvoice(r.Context(), chi.URLParam(r, "id"), prev, form))
}

// Delete runs the delete action. It reports in place and never redirects.
//
//	DELETE /dashboard/invoices/{id}
//	POST   /dashboard/invoices/{id}/delete
func (h *InvoiceHandlers) Delete(w http.ResponseWriter, r *http.Request) {
	respondAction(w, r, h.svc.DeleteInvoice(r.Context(), chi.URLParam(r, "id")))
}

// respondAction maps an ActionResult onto HTTP. A success that carries a
// redirect navigates browsers with 303 See Other; JSON clients receive the
// result and follow Redirect themselves.
func respondAction(w http.ResponseWriter, r *http.Request, res domain.ActionResult) {
	switch res.Kind {
	case domain.ResultSuccess:
		if res.Redirect != "" && !httputil.WantsJSON(r) {
			http.Redirect(w, r, res.Redirect, http.StatusSeeOther)
			return
		}
		httputil.OK(w, res)
	case domain.ResultValidationFailure:
		httputil.JSON(w, http.StatusUnprocessableEntity, res)
	default:
		httputil.JSON(w, http.StatusInternalServerError, res)
	}
}
