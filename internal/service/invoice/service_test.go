package invoice_test

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignite/invoice-admin/internal/domain"
	"github.com/ignite/invoice-admin/internal/service/invoice"
)

// memRepo is an in-memory invoice repository for unit testing. Every call
// is appended to events so tests can assert ordering against the cache.
type memRepo struct {
	mu       sync.Mutex
	seq      int
	invoices map[string]*domain.Invoice // keyed by id
	failWith error
	events   *[]string
}

func newMemRepo(events *[]string) *memRepo {
	return &memRepo{invoices: make(map[string]*domain.Invoice), events: events}
}

func (m *memRepo) Insert(_ context.Context, inv domain.NewInvoice) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	*m.events = append(*m.events, "insert")
	if m.failWith != nil {
		return "", m.failWith
	}
	m.seq++
	id := fmt.Sprintf("inv-%d", m.seq)
	m.invoices[id] = &domain.Invoice{
		ID: id, CustomerID: inv.CustomerID, AmountCents: inv.AmountCents,
		Status: inv.Status, Date: inv.Date,
	}
	return id, nil
}

func (m *memRepo) Update(_ context.Context, id string, u invoice.UpdateFields) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	*m.events = append(*m.events, "update")
	if m.failWith != nil {
		return m.failWith
	}
	inv, ok := m.invoices[id]
	if !ok {
		return invoice.ErrNotFound
	}
	inv.CustomerID = u.CustomerID
	inv.AmountCents = u.AmountCents
	inv.Status = u.Status
	return nil
}

func (m *memRepo) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	*m.events = append(*m.events, "delete")
	if m.failWith != nil {
		return m.failWith
	}
	if _, ok := m.invoices[id]; !ok {
		return invoice.ErrNotFound
	}
	delete(m.invoices, id)
	return nil
}

func (m *memRepo) Get(_ context.Context, id string) (*domain.Invoice, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	inv, ok := m.invoices[id]
	if !ok {
		return nil, invoice.ErrNotFound
	}
	cp := *inv
	return &cp, nil
}

func (m *memRepo) Customers(_ context.Context) ([]domain.Customer, error) {
	return []domain.Customer{{ID: "cust_1", Name: "Ada"}}, nil
}

func (m *memRepo) matching(query string) []domain.InvoiceRow {
	var out []domain.InvoiceRow
	for _, inv := range m.invoices {
		if query != "" && !strings.Contains(string(inv.Status), query) {
			continue
		}
		out = append(out, domain.InvoiceRow{
			ID: inv.ID, CustomerID: inv.CustomerID, AmountCents: inv.AmountCents,
			Status: inv.Status, Date: inv.Date,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (m *memRepo) Search(_ context.Context, query string, limit, offset int) ([]domain.InvoiceRow, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	*m.events = append(*m.events, "search")
	rows := m.matching(query)
	if offset >= len(rows) {
		return nil, nil
	}
	end := offset + limit
	if end > len(rows) {
		end = len(rows)
	}
	return rows[offset:end], nil
}

func (m *memRepo) Count(_ context.Context, query string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.matching(query)), nil
}

// recordingCache is a map-backed ListCache that logs invalidations.
type recordingCache struct {
	mu      sync.Mutex
	gen     int64
	entries map[string][]byte
	events  *[]string
}

func (c *recordingCache) Get(_ context.Context, path, variant string) ([]byte, int64, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	d, ok := c.entries[path+"|"+variant]
	return d, c.gen, ok, nil
}

func (c *recordingCache) Set(_ context.Context, path, variant string, gen int64, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.gen {
		return nil
	}
	c.entries[path+"|"+variant] = data
	return nil
}

func (c *recordingCache) Invalidate(_ context.Context, path string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	*c.events = append(*c.events, "invalidate:"+path)
	c.gen++
	for k := range c.entries {
		if strings.HasPrefix(k, path+"|") {
			delete(c.entries, k)
		}
	}
	return nil
}

type fixture struct {
	svc    *invoice.Service
	repo   *memRepo
	cache  *recordingCache
	events *[]string
}

var fixedNow = time.Date(2026, 10, 16, 23, 30, 0, 0, time.FixedZone("PDT", -7*3600))

func newFixture() *fixture {
	events := &[]string{}
	repo := newMemRepo(events)
	cache := &recordingCache{entries: map[string][]byte{}, events: events}
	svc := invoice.NewService(repo, cache).WithClock(func() time.Time { return fixedNow })
	return &fixture{svc: svc, repo: repo, cache: cache, events: events}
}

func form(customerID, amount, status string) invoice.Form {
	return invoice.FormFromValues(url.Values{
		"customerId": {customerID},
		"amount":     {amount},
		"status":     {status},
	})
}

var ctx = context.Background()

func TestCreateInvoice(t *testing.T) {
	f := newFixture()

	res := f.svc.CreateInvoice(ctx, domain.ActionResult{}, form("cust_1", "10.50", "pending"))
	require.True(t, res.OK(), "result: %+v", res)
	assert.Empty(t, res.Errors)
	assert.Equal(t, invoice.ListPath, res.Redirect)

	require.Len(t, f.repo.invoices, 1)
	inv := f.repo.invoices["inv-1"]
	assert.Equal(t, "cust_1", inv.CustomerID)
	assert.Equal(t, int64(1050), inv.AmountCents)
	assert.Equal(t, domain.InvoicePending, inv.Status)
	// 23:30 PDT is already the 17th in UTC
	assert.Equal(t, "2026-10-17", inv.Date)

	assert.Equal(t, []string{"insert", "invalidate:/dashboard/invoices"}, *f.events)
}

func TestCreateInvoice_ValidationFailureSkipsStore(t *testing.T) {
	f := newFixture()

	res := f.svc.CreateInvoice(ctx, domain.ActionResult{}, form("", "5", "paid"))
	assert.Equal(t, domain.ResultValidationFailure, res.Kind)
	assert.Equal(t, map[string][]string{"customerId": {invoice.MsgCustomerRequired}}, res.Errors)
	assert.Equal(t, invoice.MsgCreateInvalid, res.Message)
	assert.Empty(t, res.Redirect)
	assert.Empty(t, *f.events, "no store or cache call on invalid input")
}

func TestCreateInvoice_StoreFailure(t *testing.T) {
	f := newFixture()
	f.repo.failWith = errors.New("connection refused")

	res := f.svc.CreateInvoice(ctx, domain.ActionResult{}, form("cust_1", "3", "paid"))
	assert.Equal(t, domain.ResultStoreFailure, res.Kind)
	assert.Equal(t, invoice.MsgCreateFailed, res.Message)
	assert.NotContains(t, res.Message, "connection refused")
	assert.Empty(t, res.Redirect)
	assert.Equal(t, []string{"insert"}, *f.events, "no invalidation on failure")
}

func TestCreateInvoice_FreshIDs(t *testing.T) {
	f := newFixture()
	for i := 0; i < 5; i++ {
		require.True(t, f.svc.CreateInvoice(ctx, domain.ActionResult{}, form("cust_1", "1", "paid")).OK())
	}
	assert.Len(t, f.repo.invoices, 5)
}

func TestUpdateInvoice_KeepsDate(t *testing.T) {
	f := newFixture()
	f.repo.invoices["inv-9"] = &domain.Invoice{
		ID: "inv-9", CustomerID: "cust_1", AmountCents: 100, Status: domain.InvoicePending, Date: "2024-01-02",
	}

	res := f.svc.UpdateInvoice(ctx, "inv-9", domain.ActionResult{}, form("cust_2", "19.99", "paid"))
	require.True(t, res.OK())
	assert.Equal(t, invoice.ListPath, res.Redirect)

	inv := f.repo.invoices["inv-9"]
	assert.Equal(t, "cust_2", inv.CustomerID)
	assert.Equal(t, int64(1999), inv.AmountCents)
	assert.Equal(t, domain.InvoicePaid, inv.Status)
	assert.Equal(t, "2024-01-02", inv.Date)
	assert.Equal(t, []string{"update", "invalidate:/dashboard/invoices"}, *f.events)
}

func TestUpdateInvoice_MissingRowIsStoreFailure(t *testing.T) {
	f := newFixture()

	res := f.svc.UpdateInvoice(ctx, "nope", domain.ActionResult{}, form("cust_1", "1", "paid"))
	assert.Equal(t, domain.ResultStoreFailure, res.Kind)
	assert.Equal(t, invoice.MsgUpdateFailed, res.Message)
	assert.Equal(t, []string{"update"}, *f.events)
}

func TestUpdateInvoice_StoreFailure(t *testing.T) {
	f := newFixture()
	f.repo.invoices["inv-1"] = &domain.Invoice{ID: "inv-1", CustomerID: "cust_1", AmountCents: 100, Status: domain.InvoicePending}
	f.repo.failWith = errors.New("connection refused")

	res := f.svc.UpdateInvoice(ctx, "inv-1", domain.ActionResult{}, form("cust_1", "3", "paid"))
	assert.Equal(t, domain.ResultStoreFailure, res.Kind)
	assert.Equal(t, invoice.MsgUpdateFailed, res.Message)
	assert.NotContains(t, res.Message, "connection refused")
	assert.Empty(t, res.Redirect)
	assert.Equal(t, []string{"update"}, *f.events, "no invalidation on failure")
	assert.Equal(t, int64(100), f.repo.invoices["inv-1"].AmountCents)
}

func TestUpdateInvoice_CollectsAllErrors(t *testing.T) {
	f := newFixture()

	res := f.svc.UpdateInvoice(ctx, "inv-1", domain.ActionResult{}, invoice.Form{})
	assert.Equal(t, domain.ResultValidationFailure, res.Kind)
	assert.Equal(t, invoice.MsgUpdateInvalid, res.Message)
	assert.Len(t, res.Errors, 3)
	assert.Empty(t, *f.events)
}

func TestDeleteInvoice_Twice(t *testing.T) {
	f := newFixture()
	f.repo.invoices["a"] = &domain.Invoice{ID: "a"}
	f.repo.invoices["b"] = &domain.Invoice{ID: "b"}

	first := f.svc.DeleteInvoice(ctx, "a")
	assert.True(t, first.OK())
	assert.Equal(t, invoice.MsgDeleted, first.Message)
	assert.Empty(t, first.Redirect, "delete never navigates")

	second := f.svc.DeleteInvoice(ctx, "a")
	assert.Equal(t, domain.ResultStoreFailure, second.Kind)
	assert.Equal(t, invoice.MsgDeleteFailed, second.Message)

	assert.Contains(t, f.repo.invoices, "b", "only the matching row is removed")
	assert.Equal(t, []string{"delete", "invalidate:/dashboard/invoices", "delete"}, *f.events)
}

func TestDeleteInvoice_StoreFailure(t *testing.T) {
	f := newFixture()
	f.repo.invoices["a"] = &domain.Invoice{ID: "a"}
	f.repo.failWith = errors.New("connection refused")

	res := f.svc.DeleteInvoice(ctx, "a")
	assert.Equal(t, domain.ResultStoreFailure, res.Kind)
	assert.Equal(t, invoice.MsgDeleteFailed, res.Message)
	assert.NotContains(t, res.Message, "connection refused")
	assert.Equal(t, []string{"delete"}, *f.events, "no invalidation on failure")
	assert.Contains(t, f.repo.invoices, "a")
}

func TestSearch_CachesUntilInvalidated(t *testing.T) {
	f := newFixture()
	for i := 0; i < 8; i++ {
		require.True(t, f.svc.CreateInvoice(ctx, domain.ActionResult{}, form("cust_1", "2.5", "pending")).OK())
	}
	*f.events = nil

	p, err := f.svc.Search(ctx, "", 2)
	require.NoError(t, err)
	assert.Equal(t, 2, p.Page)
	assert.Equal(t, 2, p.TotalPages)
	assert.Equal(t, 8, p.Total)
	require.Len(t, p.Invoices, 2)
	assert.Equal(t, "$2.50", p.Invoices[0].Amount)

	_, err = f.svc.Search(ctx, "", 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"search"}, *f.events, "second read served from cache")

	require.True(t, f.svc.DeleteInvoice(ctx, p.Invoices[0].ID).OK())
	p, err = f.svc.Search(ctx, "", 2)
	require.NoError(t, err)
	assert.Equal(t, 7, p.Total)
}

func TestSearch_ClampsPage(t *testing.T) {
	f := newFixture()
	p, err := f.svc.Search(ctx, "paid", 0)
	require.NoError(t, err)
	assert.Equal(t, 1, p.Page)
	assert.Equal(t, 1, p.TotalPages)
	assert.Empty(t, p.Invoices)
}
