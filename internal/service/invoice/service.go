package invoice

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/ignite/invoice-admin/internal/domain"
	"github.com/ignite/invoice-admin/internal/pkg/logger"
)

const (
	// ListPath is the list view invalidated after every successful write
	// and the navigation target after create/update.
	ListPath = "/dashboard/invoices"

	// PageSize is the number of rows per list page.
	PageSize = 6
)

// Service implements the invoice actions. It owns the sequence
// validate → persist → invalidate; navigation is left to the caller.
// All public methods are safe for concurrent use if the repository and
// cache are.
type Service struct {
	repo  Repository
	cache ListCache
	now   func() time.Time
}

// NewService creates an invoice service backed by the given repository and
// list cache.
func NewService(repo Repository, cache ListCache) *Service {
	return &Service{repo: repo, cache: cache, now: time.Now}
}

// WithClock overrides the clock used to stamp new invoices.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// CreateInvoice validates form and inserts a new invoice dated today (UTC).
// prev is the result the form last rendered; it is not consulted.
func (s *Service) CreateInvoice(ctx context.Context, prev domain.ActionResult, form Form) domain.ActionResult {
	sub, ferrs := Validate(form)
	if ferrs != nil {
		return s.record("create", invalid(ferrs, MsgCreateInvalid))
	}

	inv := domain.NewInvoice{
		CustomerID:  sub.CustomerID,
		AmountCents: ToCents(sub.Amount),
		Status:      sub.Status,
		Date:        s.now().UTC().Format(domain.DateLayout),
	}

	start := time.Now()
	id, err := s.repo.Insert(ctx, inv)
	storeLatencySeconds.WithLabelValues("insert").Observe(time.Since(start).Seconds())
	if err != nil {
		logger.Error("invoice insert failed", "customer_id", inv.CustomerID, "error", err)
		return s.record("create", storeFailure(MsgCreateFailed))
	}

	logger.Info("invoice created", "id", id, "customer_id", inv.CustomerID, "amount_cents", inv.AmountCents)
	s.invalidate(ctx)
	return s.record("create", domain.ActionResult{Kind: domain.ResultSuccess, Redirect: ListPath})
}

// UpdateInvoice validates form and overwrites customer, amount and status of
// invoice id. An id that matches no row is reported as a store failure.
func (s *Service) UpdateInvoice(ctx context.Context, id string, prev domain.ActionResult, form Form) domain.ActionResult {
	sub, ferrs := Validate(form)
	if ferrs != nil {
		return s.record("update", invalid(ferrs, MsgUpdateInvalid))
	}

	u := UpdateFields{
		CustomerID:  sub.CustomerID,
		AmountCents: ToCents(sub.Amount),
		Status:      sub.Status,
	}

	start := time.Now()
	err := s.repo.Update(ctx, id, u)
	storeLatencySeconds.WithLabelValues("update").Observe(time.Since(start).Seconds())
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			logger.Warn("invoice update matched no row", "id", id)
		} else {
			logger.Error("invoice update failed", "id", id, "error", err)
		}
		return s.record("update", storeFailure(MsgUpdateFailed))
	}

	logger.Info("invoice updated", "id", id, "amount_cents", u.AmountCents, "status", u.Status)
	s.invalidate(ctx)
	return s.record("update", domain.ActionResult{Kind: domain.ResultSuccess, Redirect: ListPath})
}

// DeleteInvoice removes invoice id. It invalidates the list on success but
// never asks the caller to navigate.
func (s *Service) DeleteInvoice(ctx context.Context, id string) domain.ActionResult {
	start := time.Now()
	err := s.repo.Delete(ctx, id)
	storeLatencySeconds.WithLabelValues("delete").Observe(time.Since(start).Seconds())
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			logger.Warn("invoice delete matched no row", "id", id)
		} else {
			logger.Error("invoice delete failed", "id", id, "error", err)
		}
		return s.record("delete", storeFailure(MsgDeleteFailed))
	}

	logger.Info("invoice deleted", "id", id)
	s.invalidate(ctx)
	return s.record("delete", domain.ActionResult{Kind: domain.ResultSuccess, Message: MsgDeleted})
}

// Invoice returns invoice id for the edit form.
func (s *Service) Invoice(ctx context.Context, id string) (*domain.Invoice, error) {
	return s.repo.Get(ctx, id)
}

// Customers returns every customer for the invoice form selects.
func (s *Service) Customers(ctx context.Context) ([]domain.Customer, error) {
	return s.repo.Customers(ctx)
}

// Page is one page of the invoice list view.
type Page struct {
	Query      string              `json:"query"`
	Page       int                 `json:"page"`
	TotalPages int                 `json:"total_pages"`
	Total      int                 `json:"total"`
	Invoices   []domain.InvoiceRow `json:"invoices"`
}

// Search returns page n (1-based) of invoices matching query. Results are
// served from the list cache when present.
func (s *Service) Search(ctx context.Context, query string, page int) (*Page, error) {
	if page < 1 {
		page = 1
	}
	variant := fmt.Sprintf("q=%s&page=%d", query, page)

	data, gen, hit, cacheErr := s.cache.Get(ctx, ListPath, variant)
	if cacheErr != nil {
		listCacheLookups.WithLabelValues("error").Inc()
		logger.Warn("invoice list cache read failed", "variant", variant, "error", cacheErr)
	} else if hit {
		var p Page
		if err := json.Unmarshal(data, &p); err == nil {
			listCacheLookups.WithLabelValues("hit").Inc()
			return &p, nil
		}
	} else {
		listCacheLookups.WithLabelValues("miss").Inc()
	}

	total, err := s.repo.Count(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("count invoices: %w", err)
	}
	rows, err := s.repo.Search(ctx, query, PageSize, (page-1)*PageSize)
	if err != nil {
		return nil, fmt.Errorf("search invoices: %w", err)
	}
	for i := range rows {
		rows[i].Amount = FormatCents(rows[i].AmountCents)
	}

	p := &Page{
		Query:      query,
		Page:       page,
		TotalPages: totalPages(total),
		Total:      total,
		Invoices:   rows,
	}
	// Without a generation from a successful read, skip the write.
	if cacheErr == nil {
		if data, err := json.Marshal(p); err == nil {
			if err := s.cache.Set(ctx, ListPath, variant, gen, data); err != nil {
				logger.Warn("invoice list cache write failed", "variant", variant, "error", err)
			}
		}
	}
	return p, nil
}

func totalPages(total int) int {
	n := int(math.Ceil(float64(total) / float64(PageSize)))
	if n < 1 {
		n = 1
	}
	return n
}

// invalidate drops the cached list view. The write has already committed,
// so a cache failure is logged and does not change the action's result.
func (s *Service) invalidate(ctx context.Context) {
	if err := s.cache.Invalidate(ctx, ListPath); err != nil {
		logger.Error("invoice list invalidation failed", "path", ListPath, "error", err)
	}
}

func (s *Service) record(action string, r domain.ActionResult) domain.ActionResult {
	actionsTotal.WithLabelValues(action, string(r.Kind)).Inc()
	return r
}

func invalid(errs FieldErrors, msg string) domain.ActionResult {
	return domain.ActionResult{
		Kind:    domain.ResultValidationFailure,
		Errors:  errs,
		Message: msg,
	}
}

func storeFailure(msg string) domain.ActionResult {
	return domain.ActionResult{Kind: domain.ResultStoreFailure, Message: msg}
}
