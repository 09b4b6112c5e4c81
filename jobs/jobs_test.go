package jobs

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/hibiken/asynq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/heytrack/heytrack/internal/inventory"
	jobmetrics "github.com/heytrack/heytrack/internal/jobs"
)

type staticStock struct {
	items []inventory.StockItem
	err   error
}

func (s staticStock) Snapshot(ctx context.Context) ([]inventory.StockItem, error) {
	return s.items, s.err
}

type notifierSpy struct {
	calls  int
	alerts inventory.StockAlerts
}

func (n *notifierSpy) Notify(ctx context.Context, alerts inventory.StockAlerts, at time.Time) error {
	n.calls++
	n.alerts = alerts
	return nil
}

type bumpCounter struct {
	version int64
	err     error
}

func (b *bumpCounter) Bump(ctx context.Context) (int64, error) {
	if b.err != nil {
		return 0, b.err
	}
	b.version++
	return b.version, nil
}

func counterValue(t *testing.T, reg *prometheus.Registry, name string, labels map[string]string) float64 {
	t.Helper()
	families, err := reg.Gather()
	require.NoError(t, err)
	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}
	metric:
		for _, m := range mf.GetMetric() {
			for _, lp := range m.GetLabel() {
				if labels[lp.GetName()] != lp.GetValue() {
					continue metric
				}
			}
			return m.GetCounter().GetValue()
		}
	}
	return 0
}

func TestStockAlertsJobNotifies(t *testing.T) {
	now := time.Date(2024, 3, 1, 6, 0, 0, 0, time.UTC)
	soon := now.AddDate(0, 0, 3)
	source := staticStock{items: []inventory.StockItem{
		{ID: "a", Name: "Tepung", QuantityOnHand: 0, MinimumThreshold: 5},
		{ID: "b", Name: "Gula", QuantityOnHand: 2, MinimumThreshold: 5},
		{ID: "c", Name: "Susu", QuantityOnHand: 20, MinimumThreshold: 5, ExpiryDate: &soon},
		{ID: "d", Name: "Garam", QuantityOnHand: 50, MinimumThreshold: 5},
	}}
	reg := prometheus.NewRegistry()
	spy := &notifierSpy{}
	job := NewStockAlertsJob(source, spy, slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil)), jobmetrics.NewMetrics(reg), 0)
	job.clock = func() time.Time { return now }

	task, err := NewStockAlertsTask(now, 7)
	require.NoError(t, err)
	require.NoError(t, job.Handle(context.Background(), task))

	assert.Equal(t, 1, spy.calls)
	require.Len(t, spy.alerts.OutOfStock, 1)
	assert.Equal(t, "a", spy.alerts.OutOfStock[0].ID)
	require.Len(t, spy.alerts.Expiring, 1)
	assert.Equal(t, "c", spy.alerts.Expiring[0].ID)
	assert.Equal(t, 1.0, counterValue(t, reg, "heytrack_stock_alerts_total", map[string]string{"kind": "expiring"}))
	assert.Equal(t, 1.0, counterValue(t, reg, "heytrack_jobs_total", map[string]string{"job": TaskStockAlerts, "status": "success"}))
}

func TestStockAlertsJobQuietWhenHealthy(t *testing.T) {
	spy := &notifierSpy{}
	job := NewStockAlertsJob(staticStock{items: []inventory.StockItem{{ID: "x", QuantityOnHand: 100, MinimumThreshold: 1}}}, spy, nil, nil, 7)
	require.NoError(t, job.Handle(context.Background(), asynq.NewTask(TaskStockAlerts, nil)))
	assert.Zero(t, spy.calls)
}

func TestStockAlertsJobErrors(t *testing.T) {
	reg := prometheus.NewRegistry()
	job := NewStockAlertsJob(staticStock{err: errors.New("db down")}, nil, nil, jobmetrics.NewMetrics(reg), 7)
	err := job.Handle(context.Background(), asynq.NewTask(TaskStockAlerts, []byte(`{}`)))
	assert.EqualError(t, err, "db down")
	assert.Equal(t, 1.0, counterValue(t, reg, "heytrack_jobs_failures_total", map[string]string{"job": TaskStockAlerts}))

	err = job.Handle(context.Background(), asynq.NewTask(TaskStockAlerts, []byte(`{bad`)))
	assert.ErrorIs(t, err, asynq.SkipRetry)

	var missing *StockAlertsJob
	assert.Error(t, missing.Handle(context.Background(), asynq.NewTask(TaskStockAlerts, nil)))
}

func TestSlogNotifierWritesOneLinePerItem(t *testing.T) {
	var buf bytes.Buffer
	n := SlogNotifier{Logger: slog.New(slog.NewJSONHandler(&buf, nil))}
	alerts := inventory.StockAlerts{
		LowStock:   []inventory.StockItem{{ID: "b", Name: "Gula"}},
		OutOfStock: []inventory.StockItem{{ID: "a", Name: "Tepung"}},
	}
	require.NoError(t, n.Notify(context.Background(), alerts, time.Now()))

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	require.Len(t, lines, 2)
	var first map[string]any
	require.NoError(t, json.Unmarshal(lines[0], &first))
	assert.Equal(t, "out", first["kind"])
	assert.Equal(t, "Tepung", first["name"])
}

func TestReportCacheBumpJob(t *testing.T) {
	cache := &bumpCounter{}
	job := NewReportCacheBumpJob(cache, nil, nil)
	task, err := NewReportCacheBumpTask("purchase completed")
	require.NoError(t, err)
	require.NoError(t, job.Handle(context.Background(), task))
	assert.Equal(t, int64(1), cache.version)

	cache.err = errors.New("redis gone")
	assert.Error(t, job.Handle(context.Background(), task))
	assert.ErrorIs(t, job.Handle(context.Background(), asynq.NewTask(TaskReportCacheBump, []byte(`[`))), asynq.SkipRetry)
}

func TestNewWorkerRequiresHandlers(t *testing.T) {
	_, err := NewWorker(WorkerConfig{RedisOpts: asynq.RedisClientOpt{Addr: "127.0.0.1:0"}})
	assert.Error(t, err)
}

func TestHealthWithoutInspector(t *testing.T) {
	r := chi.NewRouter()
	NewHandler(nil, slog.Default()).MountRoutes(r)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"queue":"default","pending":0,"active":0,"failed":0}`, rec.Body.String())
}
