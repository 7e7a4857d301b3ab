// internal/service/order_service.go
package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/tobihealthops/requiva-go/internal/domain"
	"github.com/tobihealthops/requiva-go/internal/store"
)

// OrderService owns order intake: validation, total computation,
// requisition id assignment and receipt marking. It is a thin layer
// over the store; all analytics live in InsightService.
type OrderService struct {
	store store.OrderStore
}

func NewOrderService(st store.OrderStore) *OrderService {
	return &OrderService{store: st}
}

func (s *OrderService) List(ctx context.Context, filter domain.OrderFilter) ([]domain.OrderRecord, error) {
	return s.store.List(ctx, filter)
}

func (s *OrderService) Get(ctx context.Context, reqID string) (domain.OrderRecord, error) {
	return s.store.Get(ctx, reqID)
}

func (s *OrderService) Count(ctx context.Context) (int, error) {
	return s.store.Count(ctx)
}

func (s *OrderService) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}

// Create validates and stores a new order. An empty req_id gets the
// next REQ-YYYY-NNNN for the current year; an empty total is computed
// from quantity and unit price.
func (s *OrderService) Create(ctx context.Context, rec domain.OrderRecord) (domain.OrderRecord, error) {
	if err := rec.Validate(); err != nil {
		return domain.OrderRecord{}, err
	}

	if strings.TrimSpace(rec.ReqID) == "" {
		id, err := s.NextRequisitionID(ctx)
		if err != nil {
			return domain.OrderRecord{}, err
		}
		rec.ReqID = id
	}
	if !domain.IsFiniteNumber(rec.Total) || rec.Total == 0 {
		rec.Total = domain.ComputeTotal(rec.Quantity, rec.UnitPrice)
	}
	if strings.TrimSpace(rec.DateOrdered) == "" {
		rec.DateOrdered = time.Now().UTC().Format("2006-01-02")
	}

	if err := s.store.Insert(ctx, rec); err != nil {
		return domain.OrderRecord{}, fmt.Errorf("create order: %w", err)
	}
	return rec, nil
}

// NextRequisitionID scans existing ids for the current year's highest
// suffix. Concurrent creators can race to the same id; the store's
// primary key turns that into an upsert, which the single-lab usage
// this serves has never hit.
func (s *OrderService) NextRequisitionID(ctx context.Context) (string, error) {
	ids, err := s.store.RequisitionIDs(ctx)
	if err != nil {
		return "", fmt.Errorf("next requisition id: %w", err)
	}
	return domain.NextRequisitionID(ids, time.Now().UTC().Year()), nil
}

// MarkReceived stamps the receipt date, receiver and storage location.
// An empty date means today.
func (s *OrderService) MarkReceived(ctx context.Context, reqID, date, receivedBy, location string) error {
	if strings.TrimSpace(date) == "" {
		date = time.Now().UTC().Format("2006-01-02")
	}
	return s.store.MarkReceived(ctx, reqID, date, receivedBy, location)
}

// PendingReceipt lists unreceived orders, oldest order date first so
// the longest-outstanding ones top the alert list. Orders without a
// parseable order date sort last.
func (s *OrderService) PendingReceipt(ctx context.Context) ([]domain.OrderRecord, error) {
	pending := false
	recs, err := s.store.List(ctx, domain.OrderFilter{Received: &pending})
	if err != nil {
		return nil, err
	}

	type dated struct {
		rec domain.OrderRecord
		at  time.Time
		ok  bool
	}
	ds := make([]dated, len(recs))
	for i, rec := range recs {
		at, ok := domain.ParseOrderDate(rec.DateOrdered)
		ds[i] = dated{rec, at, ok}
	}
	sort.SliceStable(ds, func(i, j int) bool {
		if ds[i].ok != ds[j].ok {
			return ds[i].ok
		}
		return ds[i].at.Before(ds[j].at)
	})
	for i, d := range ds {
		recs[i] = d.rec
	}
	return recs, nil
}

// BulkUpsert loads imported records, assigning requisition ids to rows
// that arrived without one.
func (s *OrderService) BulkUpsert(ctx context.Context, recs []domain.OrderRecord) (int, error) {
	ids, err := s.store.RequisitionIDs(ctx)
	if err != nil {
		return 0, fmt.Errorf("bulk upsert: %w", err)
	}
	year := time.Now().UTC().Year()
	for i := range recs {
		if strings.TrimSpace(recs[i].ReqID) == "" {
			id := domain.NextRequisitionID(ids, year)
			recs[i].ReqID = id
			ids = append(ids, id)
		}
	}
	return s.store.BulkUpsert(ctx, recs)
}
