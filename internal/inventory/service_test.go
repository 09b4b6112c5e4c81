package inventory

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/heytrack/heytrack/internal/platform/cache"
	"github.com/heytrack/heytrack/internal/shared"
)

type memoryRepo struct {
	mu        sync.Mutex
	items     map[string]StockItem
	listCalls int
}

type memoryTx struct {
	repo *memoryRepo
}

func newMemoryRepo(items ...StockItem) *memoryRepo {
	repo := &memoryRepo{items: make(map[string]StockItem)}
	for _, item := range items {
		repo.items[item.ID] = item
	}
	return repo
}

func (r *memoryRepo) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	snapshot := make(map[string]StockItem, len(r.items))
	for k, v := range r.items {
		snapshot[k] = v
	}
	if err := fn(ctx, &memoryTx{repo: r}); err != nil {
		r.items = snapshot
		return err
	}
	return nil
}

func (r *memoryRepo) List(context.Context) ([]StockItem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.listCalls++
	out := make([]StockItem, 0, len(r.items))
	for _, item := range r.items {
		out = append(out, item)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *memoryRepo) Get(_ context.Context, id string) (StockItem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	item, ok := r.items[id]
	if !ok {
		return StockItem{}, ErrItemNotFound
	}
	return item, nil
}

func (r *memoryRepo) Upsert(_ context.Context, item StockItem) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items[item.ID] = item
	return nil
}

func (t *memoryTx) GetForUpdate(_ context.Context, id string) (StockItem, error) {
	item, ok := t.repo.items[id]
	if !ok {
		return StockItem{}, ErrItemNotFound
	}
	return item, nil
}

func (t *memoryTx) Insert(_ context.Context, item StockItem) error {
	if _, ok := t.repo.items[item.ID]; ok {
		return ErrItemExists
	}
	t.repo.items[item.ID] = item
	return nil
}

func (t *memoryTx) Update(_ context.Context, id string, update StockUpdate) error {
	item, ok := t.repo.items[id]
	if !ok {
		return ErrItemNotFound
	}
	if update.QuantityOnHand != nil {
		item.QuantityOnHand = *update.QuantityOnHand
	}
	if update.WeightedAverageCost != nil {
		wac := *update.WeightedAverageCost
		item.WeightedAverageCost = &wac
	}
	if update.BasePrice != nil {
		item.BasePrice = *update.BasePrice
	}
	t.repo.items[id] = item
	return nil
}

type memoryAudit struct {
	logs []shared.AuditLog
}

func (a *memoryAudit) Record(_ context.Context, log shared.AuditLog) error {
	a.logs = append(a.logs, log)
	return nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newRedisStore(t *testing.T) *cache.Store {
	t.Helper()
	srv := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return cache.NewStore(client, "inventory", time.Minute)
}

func sampleItems() []StockItem {
	return []StockItem{
		{ID: "a", Name: "Coklat", Category: "Bahan", Supplier: "Toko A", Unit: "kg", QuantityOnHand: 2, MinimumThreshold: 5, WeightedAverageCost: ptr(1100)},
		{ID: "b", Name: "Susu", Category: "Bahan", Supplier: "Toko B", Unit: "liter", QuantityOnHand: 50, MinimumThreshold: 10, BasePrice: 500},
	}
}

func TestServiceReportCachedUntilBump(t *testing.T) {
	ctx := context.Background()
	repo := newMemoryRepo(sampleItems()...)
	svc := NewService(repo, newRedisStore(t), nil, discardLogger(), ServiceConfig{})

	report, err := svc.Report(ctx)
	require.NoError(t, err)
	require.Equal(t, 27200.0, report.Summary.TotalValue)
	require.Equal(t, 1, report.Summary.LowStockCount)

	_, err = svc.Report(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, repo.listCalls)

	svc.InvalidateReports(ctx)
	_, err = svc.Report(ctx)
	require.NoError(t, err)
	require.Equal(t, 2, repo.listCalls)
}

func TestServiceReportWithoutCache(t *testing.T) {
	svc := NewService(newMemoryRepo(sampleItems()...), nil, nil, discardLogger(), ServiceConfig{ExpiryWindowDays: 7})
	report, err := svc.Report(context.Background())
	require.NoError(t, err)
	require.Equal(t, 2, report.Summary.TotalItems)
}

func TestServiceImportValidatesRows(t *testing.T) {
	ctx := context.Background()
	repo := newMemoryRepo()
	audit := &memoryAudit{}
	svc := NewService(repo, nil, audit, discardLogger(), ServiceConfig{})

	res, err := svc.Import(ctx, "owner", []StockItem{
		{Name: "Tepung", Category: "Bahan", Supplier: "Toko A", Unit: " KG ", QuantityOnHand: 1, MinimumThreshold: 3, BasePrice: 12000},
		{Name: "", Category: "Bahan", Supplier: "Toko A", Unit: "kg"},
	})
	require.NoError(t, err)
	require.Len(t, res.Imported, 1)
	require.Len(t, res.Rejected, 1)
	require.Equal(t, 2, res.Rejected[0].Row)
	require.Len(t, res.Warnings, 1)

	stored, err := repo.Get(ctx, res.Imported[0])
	require.NoError(t, err)
	require.Equal(t, "kg", stored.Unit)
	require.Len(t, audit.logs, 1)
	require.Equal(t, "inventory:import", audit.logs[0].Action)
}

func TestServicePostAdjustmentBlendsWAC(t *testing.T) {
	ctx := context.Background()
	repo := newMemoryRepo(StockItem{ID: "x", Name: "Gula", QuantityOnHand: 10, WeightedAverageCost: ptr(1200)})
	svc := NewService(repo, nil, nil, discardLogger(), ServiceConfig{})

	item, err := svc.PostAdjustment(ctx, AdjustmentInput{ItemID: "x", Qty: 5, UnitCost: 1600})
	require.NoError(t, err)
	require.Equal(t, 15.0, item.QuantityOnHand)
	require.InDelta(t, 1333.33, item.WAC(), 0.01)

	item, err = svc.PostAdjustment(ctx, AdjustmentInput{ItemID: "x", Qty: -15})
	require.NoError(t, err)
	require.Zero(t, item.QuantityOnHand)
	require.InDelta(t, 1333.33, item.WAC(), 0.01)

	_, err = svc.PostAdjustment(ctx, AdjustmentInput{ItemID: "x", Qty: -1})
	require.ErrorIs(t, err, ErrNegativeStock)
	_, err = svc.PostAdjustment(ctx, AdjustmentInput{ItemID: "missing", Qty: 1})
	require.ErrorIs(t, err, shared.ErrNotFound)
	_, err = svc.PostAdjustment(ctx, AdjustmentInput{ItemID: "x", Qty: 0})
	require.ErrorIs(t, err, ErrInvalidQuantity)
}

func TestServiceListItemsPaginates(t *testing.T) {
	svc := NewService(newMemoryRepo(sampleItems()...), nil, nil, discardLogger(), ServiceConfig{})
	page, err := svc.ListItems(context.Background(), 2, 1)
	require.NoError(t, err)
	require.Equal(t, 2, page.TotalPages)
	require.Len(t, page.Items, 1)
	require.Equal(t, "b", page.Items[0].ID)
	require.Equal(t, PricingMethodBase, page.Items[0].PricingMethod)
	require.Equal(t, 25000.0, page.Items[0].StockValue)
}

func TestHandlerRoutes(t *testing.T) {
	svc := NewService(newMemoryRepo(sampleItems()...), nil, nil, discardLogger(), ServiceConfig{})
	r := chi.NewRouter()
	r.Route("/inventory", NewHandler(discardLogger(), svc).MountRoutes)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/inventory/items/a/level", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var view ItemView
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&view))
	require.Equal(t, StockLevelLow, view.Level.Level)
	require.Equal(t, 1100.0, view.EffectivePrice)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/inventory/items/zzz/level", nil))
	require.Equal(t, http.StatusNotFound, rec.Code)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/inventory/items/import", strings.NewReader(`{"items":[{"name":"x","quantity_on_hand":"abc"}]}`)))
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/inventory/report", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var report StockReport
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&report))
	require.Equal(t, 27200.0, report.Summary.TotalValue)
}
