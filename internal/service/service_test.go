package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/tobihealthops/requiva-go/internal/analytics"
	"github.com/tobihealthops/requiva-go/internal/config"
	"github.com/tobihealthops/requiva-go/internal/domain"
	"github.com/tobihealthops/requiva-go/internal/store"
)

// memStore is an in-memory store.OrderStore for service tests.
type memStore struct {
	mu   sync.Mutex
	recs []domain.OrderRecord
}

func (m *memStore) List(ctx context.Context, filter domain.OrderFilter) ([]domain.OrderRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.OrderRecord
	for _, rec := range m.recs {
		if filter.Matches(rec) {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (m *memStore) Get(ctx context.Context, reqID string) (domain.OrderRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, rec := range m.recs {
		if rec.ReqID == reqID {
			return rec, nil
		}
	}
	return domain.OrderRecord{}, store.ErrNotFound
}

func (m *memStore) Insert(ctx context.Context, rec domain.OrderRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.recs = append(m.recs, rec)
	return nil
}

func (m *memStore) BulkUpsert(ctx context.Context, recs []domain.OrderRecord) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, rec := range recs {
		replaced := false
		for i := range m.recs {
			if m.recs[i].ReqID == rec.ReqID {
				m.recs[i] = rec
				replaced = true
				break
			}
		}
		if !replaced {
			m.recs = append(m.recs, rec)
		}
	}
	return len(recs), nil
}

func (m *memStore) MarkReceived(ctx context.Context, reqID, date, receivedBy, location string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.recs {
		if m.recs[i].ReqID == reqID {
			m.recs[i].DateReceived = date
			m.recs[i].ReceivedBy = receivedBy
			m.recs[i].Location = location
			return nil
		}
	}
	return store.ErrNotFound
}

func (m *memStore) RequisitionIDs(ctx context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := make([]string, len(m.recs))
	for i, rec := range m.recs {
		ids[i] = rec.ReqID
	}
	return ids, nil
}

func (m *memStore) Count(ctx context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.recs), nil
}

func (m *memStore) Ping(ctx context.Context) error { return nil }

// memCache records cache traffic so tests can assert hit behavior.
type memCache struct {
	mu      sync.Mutex
	entries map[string][]byte
	sets    int
	hits    int
}

func newMemCache() *memCache {
	return &memCache{entries: make(map[string][]byte)}
}

func (c *memCache) key(component, hash, params string) string {
	return component + "|" + hash + "|" + params
}

func (c *memCache) Get(ctx context.Context, component, hash, params string, dest interface{}) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	payload, ok := c.entries[c.key(component, hash, params)]
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(payload, dest); err != nil {
		return false, err
	}
	c.hits++
	return true, nil
}

func (c *memCache) Set(ctx context.Context, component, hash, params string, value interface{}) error {
	payload, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[c.key(component, hash, params)] = payload
	c.sets++
	return nil
}

func (c *memCache) InvalidateAll(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string][]byte)
	return nil
}

func testAnalyticsConfig() config.AnalyticsConfig {
	return config.AnalyticsConfig{
		ForecastMonths:       3,
		DemandDaysAhead:      30,
		AnomalyWarnThreshold: 0.7,
	}
}

func TestCreateAssignsIDAndTotal(t *testing.T) {
	st := &memStore{}
	svc := NewOrderService(st)
	ctx := context.Background()

	created, err := svc.Create(ctx, domain.OrderRecord{Item: "Gloves", Vendor: "VWR", Quantity: 3, UnitPrice: 19.99})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	year := time.Now().UTC().Year()
	if want := fmt.Sprintf("REQ-%d-0001", year); created.ReqID != want {
		t.Errorf("req id = %s, want %s", created.ReqID, want)
	}
	if created.Total != 59.97 {
		t.Errorf("total = %v, want 59.97", created.Total)
	}
	if created.DateOrdered == "" {
		t.Error("date_ordered not defaulted")
	}

	second, err := svc.Create(ctx, domain.OrderRecord{Item: "Tips", Vendor: "Fisher", Quantity: 1, UnitPrice: 5})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if want := fmt.Sprintf("REQ-%d-0002", year); second.ReqID != want {
		t.Errorf("second req id = %s, want %s", second.ReqID, want)
	}
}

func TestCreateRejectsInvalid(t *testing.T) {
	st := &memStore{}
	svc := NewOrderService(st)
	_, err := svc.Create(context.Background(), domain.OrderRecord{Vendor: "VWR", Quantity: 1, UnitPrice: 1})
	if err == nil || !strings.Contains(err.Error(), "item is required") {
		t.Errorf("expected item validation error, got %v", err)
	}
	if n, _ := st.Count(context.Background()); n != 0 {
		t.Errorf("rejected order reached the store")
	}
}

func TestMarkReceivedDefaultsToToday(t *testing.T) {
	st := &memStore{recs: []domain.OrderRecord{{ReqID: "REQ-2025-0001", Item: "Gloves", Vendor: "VWR"}}}
	svc := NewOrderService(st)
	ctx := context.Background()

	if err := svc.MarkReceived(ctx, "REQ-2025-0001", "", "jls", "Shelf 4"); err != nil {
		t.Fatalf("MarkReceived: %v", err)
	}
	got, err := svc.Get(ctx, "REQ-2025-0001")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if want := time.Now().UTC().Format("2006-01-02"); got.DateReceived != want {
		t.Errorf("date_received = %s, want %s", got.DateReceived, want)
	}
}

func TestPendingReceiptOrder(t *testing.T) {
	st := &memStore{recs: []domain.OrderRecord{
		{ReqID: "a", Item: "A", Vendor: "V", DateOrdered: "2025-03-01"},
		{ReqID: "b", Item: "B", Vendor: "V", DateOrdered: "garbled"},
		{ReqID: "c", Item: "C", Vendor: "V", DateOrdered: "2025-01-15"},
		{ReqID: "d", Item: "D", Vendor: "V", DateOrdered: "2025-02-01", DateReceived: "2025-02-10"},
	}}
	svc := NewOrderService(st)

	pending, err := svc.PendingReceipt(context.Background())
	if err != nil {
		t.Fatalf("PendingReceipt: %v", err)
	}
	var ids []string
	for _, rec := range pending {
		ids = append(ids, rec.ReqID)
	}
	if got := strings.Join(ids, ","); got != "c,a,b" {
		t.Errorf("pending order = %s, want c,a,b (oldest first, undated last)", got)
	}
}

func TestBulkUpsertAssignsMissingIDs(t *testing.T) {
	st := &memStore{recs: []domain.OrderRecord{{ReqID: fmt.Sprintf("REQ-%d-0005", time.Now().UTC().Year()), Item: "Gloves", Vendor: "V"}}}
	svc := NewOrderService(st)

	n, err := svc.BulkUpsert(context.Background(), []domain.OrderRecord{
		{Item: "Tips", Vendor: "Fisher"},
		{ReqID: "REQ-2020-0001", Item: "Ethanol", Vendor: "Sigma"},
		{Item: "Beakers", Vendor: "Corning"},
	})
	if err != nil {
		t.Fatalf("BulkUpsert: %v", err)
	}
	if n != 3 {
		t.Errorf("upserted %d, want 3", n)
	}

	ids, _ := st.RequisitionIDs(context.Background())
	year := time.Now().UTC().Year()
	want := map[string]bool{
		fmt.Sprintf("REQ-%d-0006", year): true,
		fmt.Sprintf("REQ-%d-0007", year): true,
	}
	found := 0
	for _, id := range ids {
		if want[id] {
			found++
		}
	}
	if found != 2 {
		t.Errorf("assigned ids = %v, want both %v present", ids, want)
	}
}

func seededStore(n int) *memStore {
	st := &memStore{}
	base := time.Date(2025, 1, 6, 0, 0, 0, 0, time.UTC)
	for i := 0; i < n; i++ {
		qty := float64(10 + i%3)
		price := 9.0 + 0.5*float64(i%4)
		st.recs = append(st.recs, domain.OrderRecord{
			ReqID:       fmt.Sprintf("REQ-2025-%04d", i+1),
			Item:        "Gloves",
			Vendor:      "VWR",
			Quantity:    qty,
			UnitPrice:   price,
			Total:       qty * price,
			DateOrdered: base.AddDate(0, 0, i*7).Format("2006-01-02"),
		})
	}
	return st
}

func TestInsightComponentsServeFromCache(t *testing.T) {
	st := seededStore(12)
	c := newMemCache()
	svc := NewInsightService(st, c, testAnalyticsConfig())
	svc.clock = func() time.Time { return time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC) }
	ctx := context.Background()

	ds, err := svc.Snapshot(ctx)
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}

	first := svc.Reorders(ctx, ds)
	if len(first) == 0 {
		t.Fatal("expected reorder predictions for seeded history")
	}
	if c.sets != 1 {
		t.Fatalf("cache sets = %d, want 1", c.sets)
	}

	second := svc.Reorders(ctx, ds)
	if c.hits != 1 {
		t.Errorf("cache hits = %d, want 1", c.hits)
	}
	if c.sets != 1 {
		t.Errorf("cache sets after replay = %d, want still 1", c.sets)
	}
	if len(second) != len(first) || second[0].Item != first[0].Item {
		t.Errorf("cached result differs: %+v vs %+v", second, first)
	}
}

func TestInsightCacheKeyedByDatasetHash(t *testing.T) {
	st := seededStore(12)
	c := newMemCache()
	svc := NewInsightService(st, c, testAnalyticsConfig())
	svc.clock = func() time.Time { return time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC) }
	ctx := context.Background()

	ds, _ := svc.Snapshot(ctx)
	svc.Reorders(ctx, ds)

	// New order, new content hash, so the cache must miss and refit.
	if err := st.Insert(ctx, domain.OrderRecord{
		ReqID: "REQ-2025-0099", Item: "Gloves", Vendor: "VWR",
		Quantity: 11, UnitPrice: 9.5, Total: 104.5, DateOrdered: "2025-05-30",
	}); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	ds2, _ := svc.Snapshot(ctx)
	if ds.Hash() == ds2.Hash() {
		t.Fatal("snapshot hash did not change after insert")
	}
	svc.Reorders(ctx, ds2)
	if c.sets != 2 {
		t.Errorf("cache sets = %d, want 2 (one per snapshot)", c.sets)
	}
}

func TestScoreOrderThinHistory(t *testing.T) {
	svc := NewInsightService(seededStore(5), newMemCache(), testAnalyticsConfig())

	score, err := svc.ScoreOrder(context.Background(), domain.OrderRecord{
		Item: "Gloves", Vendor: "VWR", Quantity: 10, UnitPrice: 9.5, Total: 95,
	})
	if err != nil {
		t.Fatalf("ScoreOrder: %v", err)
	}
	if score.Available {
		t.Errorf("score available with only 5 orders of history: %+v", score)
	}
}

func TestDashboardAssembly(t *testing.T) {
	st := seededStore(12)
	svc := NewInsightService(st, newMemCache(), testAnalyticsConfig())
	svc.clock = func() time.Time { return time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC) }

	dash, err := svc.Dashboard(context.Background())
	if err != nil {
		t.Fatalf("Dashboard: %v", err)
	}
	if dash.OrderCount != 12 {
		t.Errorf("order count = %d, want 12", dash.OrderCount)
	}
	if len(dash.Reorders) == 0 {
		t.Error("dashboard missing reorder predictions")
	}
	if len(dash.TopItems) == 0 || dash.TopItems[0].Item != "Gloves" {
		t.Errorf("top items = %+v", dash.TopItems)
	}
	if dash.Demand == nil {
		t.Error("dashboard missing demand forecast (12 weeks of history)")
	}
}

func TestDashboardZeroVarianceHistory(t *testing.T) {
	// Identical rows give every feature zero variance; the detector
	// cannot fit and the hard failure surfaces from Dashboard so the
	// API can report it instead of serving a silently empty panel.
	st := &memStore{}
	for i := 0; i < 12; i++ {
		st.recs = append(st.recs, domain.OrderRecord{
			ReqID:       fmt.Sprintf("REQ-2025-%04d", i+1),
			Item:        "Gloves",
			Vendor:      "VWR",
			Quantity:    10,
			UnitPrice:   9.5,
			Total:       95,
			DateOrdered: "2025-01-06",
		})
	}
	svc := NewInsightService(st, newMemCache(), testAnalyticsConfig())

	_, err := svc.Dashboard(context.Background())
	if !errors.Is(err, analytics.ErrModelFit) {
		t.Fatalf("Dashboard error = %v, want ErrModelFit", err)
	}
}

func TestDashboardEmptyStore(t *testing.T) {
	svc := NewInsightService(&memStore{}, newMemCache(), testAnalyticsConfig())

	dash, err := svc.Dashboard(context.Background())
	if err != nil {
		t.Fatalf("Dashboard: %v", err)
	}
	if dash.OrderCount != 0 || len(dash.Reorders) != 0 || dash.Spending != nil {
		t.Errorf("empty dashboard = %+v", dash)
	}
}
