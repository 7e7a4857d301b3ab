// internal/service/insight_service.go
package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/tobihealthops/requiva-go/internal/analytics"
	"github.com/tobihealthops/requiva-go/internal/cache"
	"github.com/tobihealthops/requiva-go/internal/config"
	"github.com/tobihealthops/requiva-go/internal/domain"
	"github.com/tobihealthops/requiva-go/internal/store"
)

// Cache key components.
const (
	componentReorders  = "reorders"
	componentSpending  = "spending"
	componentAnomalies = "anomalies"
	componentVendors   = "vendors"
	componentBulk      = "bulk"
	componentDemand    = "demand"
	componentTopItems  = "top_items"
)

// Dashboard bundles every component's output for the overview page.
type Dashboard struct {
	Reorders      []analytics.ReorderPrediction `json:"reorders"`
	Spending      *analytics.SpendingForecast   `json:"spending"`
	Anomalies     []analytics.Anomaly           `json:"anomalies"`
	Vendors       map[string][]string           `json:"vendors"`
	Bulk          []analytics.BulkOpportunity   `json:"bulk_opportunities"`
	Demand        *analytics.DemandForecast     `json:"demand"`
	TopItems      []analytics.ItemFrequency     `json:"top_items"`
	OrderCount    int                           `json:"order_count"`
	UrgentReorder int                           `json:"urgent_reorder_count"`
}

// OrderScore is the anomaly check run on a candidate order before it
// is saved. Available is false when history is too thin to fit a
// model.
type OrderScore struct {
	Available bool    `json:"available"`
	Score     float64 `json:"score,omitempty"`
	Warn      bool    `json:"warn,omitempty"`
}

// InsightService runs the analytics engine over the full order
// snapshot, caching component results per dataset content hash. The
// engine refits on every distinct snapshot; the cache only avoids
// refitting for a snapshot it has already seen.
type InsightService struct {
	store store.OrderStore
	cache cache.InsightCache
	cfg   config.AnalyticsConfig
	clock func() time.Time

	mu           sync.Mutex
	detectorHash string
	detector     *analytics.AnomalyDetector
}

func NewInsightService(st store.OrderStore, cacheImpl cache.InsightCache, cfg config.AnalyticsConfig) *InsightService {
	if cacheImpl == nil {
		cacheImpl = cache.NewNoopInsightCache()
	}
	return &InsightService{
		store: st,
		cache: cacheImpl,
		cfg:   cfg,
		clock: time.Now,
	}
}

// Snapshot loads the full order table and normalizes it. Every insight
// endpoint re-reads the store so a fresh import shows up immediately.
func (s *InsightService) Snapshot(ctx context.Context) (*analytics.Dataset, error) {
	recs, err := s.store.List(ctx, domain.OrderFilter{})
	if err != nil {
		return nil, fmt.Errorf("load order snapshot: %w", err)
	}
	return analytics.NewDataset(recs), nil
}

func (s *InsightService) Reorders(ctx context.Context, ds *analytics.Dataset) []analytics.ReorderPrediction {
	var cached []analytics.ReorderPrediction
	if ok := s.cacheGet(ctx, componentReorders, ds.Hash(), "", &cached); ok {
		return cached
	}
	preds := analytics.PredictReorders(ds, s.clock().UTC())
	s.cacheSet(ctx, componentReorders, ds.Hash(), "", preds)
	return preds
}

func (s *InsightService) Spending(ctx context.Context, ds *analytics.Dataset, months int) *analytics.SpendingForecast {
	if months < 1 {
		months = s.cfg.ForecastMonths
	}
	params := fmt.Sprintf("m=%d", months)
	var cached *analytics.SpendingForecast
	if ok := s.cacheGet(ctx, componentSpending, ds.Hash(), params, &cached); ok {
		return cached
	}
	fc := analytics.ForecastSpending(ds, months)
	s.cacheSet(ctx, componentSpending, ds.Hash(), params, fc)
	return fc
}

func (s *InsightService) Anomalies(ctx context.Context, ds *analytics.Dataset) ([]analytics.Anomaly, error) {
	var cached []analytics.Anomaly
	if ok := s.cacheGet(ctx, componentAnomalies, ds.Hash(), "", &cached); ok {
		return cached, nil
	}
	d, err := s.detectorFor(ds)
	if err != nil {
		return nil, err
	}
	if d == nil {
		return nil, nil
	}
	anomalies := d.Anomalies()
	s.cacheSet(ctx, componentAnomalies, ds.Hash(), "", anomalies)
	return anomalies, nil
}

func (s *InsightService) Vendors(ctx context.Context, ds *analytics.Dataset) map[string][]string {
	var cached map[string][]string
	if ok := s.cacheGet(ctx, componentVendors, ds.Hash(), "", &cached); ok {
		return cached
	}
	recs := analytics.RecommendVendors(ds)
	s.cacheSet(ctx, componentVendors, ds.Hash(), "", recs)
	return recs
}

func (s *InsightService) Bulk(ctx context.Context, ds *analytics.Dataset) []analytics.BulkOpportunity {
	var cached []analytics.BulkOpportunity
	if ok := s.cacheGet(ctx, componentBulk, ds.Hash(), "", &cached); ok {
		return cached
	}
	opps := analytics.FindBulkOpportunities(ds)
	s.cacheSet(ctx, componentBulk, ds.Hash(), "", opps)
	return opps
}

func (s *InsightService) Demand(ctx context.Context, ds *analytics.Dataset, item string, daysAhead int) *analytics.DemandForecast {
	if daysAhead < 1 {
		daysAhead = s.cfg.DemandDaysAhead
	}
	params := fmt.Sprintf("i=%s:d=%d", item, daysAhead)
	var cached *analytics.DemandForecast
	if ok := s.cacheGet(ctx, componentDemand, ds.Hash(), params, &cached); ok {
		return cached
	}
	fc := analytics.ForecastDemand(ds, item, daysAhead)
	s.cacheSet(ctx, componentDemand, ds.Hash(), params, fc)
	return fc
}

func (s *InsightService) TopItems(ctx context.Context, ds *analytics.Dataset, limit int) []analytics.ItemFrequency {
	params := fmt.Sprintf("l=%d", limit)
	var cached []analytics.ItemFrequency
	if ok := s.cacheGet(ctx, componentTopItems, ds.Hash(), params, &cached); ok {
		return cached
	}
	items := analytics.TopItems(ds, limit)
	s.cacheSet(ctx, componentTopItems, ds.Hash(), params, items)
	return items
}

// ScoreOrder checks one candidate order against the fitted detector.
// Warn trips above the configured threshold (0.7 by default).
func (s *InsightService) ScoreOrder(ctx context.Context, rec domain.OrderRecord) (OrderScore, error) {
	ds, err := s.Snapshot(ctx)
	if err != nil {
		return OrderScore{}, err
	}
	d, err := s.detectorFor(ds)
	if err != nil {
		return OrderScore{}, err
	}
	if d == nil {
		return OrderScore{Available: false}, nil
	}
	score := d.ScoreOrder(rec)
	return OrderScore{
		Available: true,
		Score:     score,
		Warn:      score > s.cfg.AnomalyWarnThreshold,
	}, nil
}

// Dashboard assembles every component concurrently. The dataset is
// immutable, so the goroutines share it without locking.
func (s *InsightService) Dashboard(ctx context.Context) (*Dashboard, error) {
	ds, err := s.Snapshot(ctx)
	if err != nil {
		return nil, err
	}

	dash := &Dashboard{OrderCount: ds.Len()}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		dash.Reorders = s.Reorders(gctx, ds)
		return nil
	})
	g.Go(func() error {
		dash.Spending = s.Spending(gctx, ds, s.cfg.ForecastMonths)
		return nil
	})
	g.Go(func() error {
		var err error
		dash.Anomalies, err = s.Anomalies(gctx, ds)
		return err
	})
	g.Go(func() error {
		dash.Vendors = s.Vendors(gctx, ds)
		return nil
	})
	g.Go(func() error {
		dash.Bulk = s.Bulk(gctx, ds)
		return nil
	})
	g.Go(func() error {
		dash.Demand = s.Demand(gctx, ds, "", s.cfg.DemandDaysAhead)
		return nil
	})
	g.Go(func() error {
		dash.TopItems = s.TopItems(gctx, ds, 10)
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	for _, p := range dash.Reorders {
		if p.Urgency == analytics.UrgencyUrgent {
			dash.UrgentReorder++
		}
	}
	return dash, nil
}

// Refresh recomputes everything for the current snapshot, warming the
// cache. The scheduler calls this off-peak.
func (s *InsightService) Refresh(ctx context.Context) (*Dashboard, error) {
	if err := s.cache.InvalidateAll(ctx); err != nil {
		log.Warn().Err(err).Msg("insights: cache invalidate failed")
	}
	return s.Dashboard(ctx)
}

// detectorFor returns the fitted anomaly detector for the snapshot,
// refitting only when the content hash changed. Detectors hold live
// tree structures, so they stay in process memory rather than redis.
func (s *InsightService) detectorFor(ds *analytics.Dataset) (*analytics.AnomalyDetector, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.detectorHash == ds.Hash() {
		return s.detector, nil
	}
	d, err := analytics.FitAnomalyDetector(ds)
	if err != nil {
		return nil, err
	}
	s.detectorHash = ds.Hash()
	s.detector = d
	return d, nil
}

func (s *InsightService) cacheGet(ctx context.Context, component, hash, params string, dest interface{}) bool {
	ok, err := s.cache.Get(ctx, component, hash, params, dest)
	if err != nil {
		log.Warn().Err(err).Str("component", component).Msg("insights: cache get failed")
		return false
	}
	return ok
}

func (s *InsightService) cacheSet(ctx context.Context, component, hash, params string, value interface{}) {
	if err := s.cache.Set(ctx, component, hash, params, value); err != nil {
		log.Warn().Err(err).Str("component", component).Msg("insights: cache set failed")
	}
}
