package csvfile

import (
	"context"
	"errors"
	"math"
	"path/filepath"
	"testing"

	"github.com/tobihealthops/requiva-go/internal/domain"
	"github.com/tobihealthops/requiva-go/internal/store"
)

func newTestStore(t *testing.T) *OrderStore {
	t.Helper()
	s, err := NewOrderStore(filepath.Join(t.TempDir(), "orders.csv"))
	if err != nil {
		t.Fatalf("NewOrderStore: %v", err)
	}
	return s
}

func order(reqID, item, vendor string) domain.OrderRecord {
	return domain.OrderRecord{
		ReqID:       reqID,
		Item:        item,
		Vendor:      vendor,
		Quantity:    2,
		UnitPrice:   9.5,
		Total:       19,
		DateOrdered: "2025-03-01",
	}
}

func TestInsertAndGetRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	want := order("REQ-2025-0001", "Gloves", "VWR")
	if err := s.Insert(ctx, want); err != nil {
		t.Fatalf("Insert: %v", err)
	}

	got, err := s.Get(ctx, "REQ-2025-0001")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got != want {
		t.Errorf("round trip mismatch:\n got  %+v\n want %+v", got, want)
	}

	if _, err := s.Get(ctx, "REQ-2025-9999"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("Get of missing id = %v, want ErrNotFound", err)
	}
}

func TestMissingNumericsSurviveRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	rec := order("REQ-2025-0001", "Gloves", "VWR")
	rec.UnitPrice = math.NaN()
	rec.Total = math.NaN()
	if err := s.Insert(ctx, rec); err != nil {
		t.Fatalf("Insert: %v", err)
	}

	got, err := s.Get(ctx, "REQ-2025-0001")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !math.IsNaN(got.UnitPrice) || !math.IsNaN(got.Total) {
		t.Errorf("missing numerics came back as %v / %v, want NaN", got.UnitPrice, got.Total)
	}
	if got.Quantity != 2 {
		t.Errorf("quantity = %v, want 2", got.Quantity)
	}
}

func TestBulkUpsertReplacesByReqID(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if _, err := s.BulkUpsert(ctx, []domain.OrderRecord{
		order("REQ-2025-0001", "Gloves", "VWR"),
		order("REQ-2025-0002", "Tips", "Fisher"),
	}); err != nil {
		t.Fatalf("BulkUpsert: %v", err)
	}

	updated := order("REQ-2025-0001", "Nitrile gloves", "VWR")
	n, err := s.BulkUpsert(ctx, []domain.OrderRecord{
		updated,
		order("REQ-2025-0003", "Ethanol", "Sigma"),
	})
	if err != nil {
		t.Fatalf("BulkUpsert: %v", err)
	}
	if n != 2 {
		t.Errorf("upserted %d, want 2", n)
	}

	if count, _ := s.Count(ctx); count != 3 {
		t.Errorf("count = %d, want 3", count)
	}
	got, err := s.Get(ctx, "REQ-2025-0001")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Item != "Nitrile gloves" {
		t.Errorf("item = %s, want replacement to win", got.Item)
	}
}

func TestListFilters(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	a := order("REQ-2025-0001", "Gloves", "VWR")
	b := order("REQ-2025-0002", "Tips", "Fisher Scientific")
	b.GrantCode = "NIH-R01"
	c := order("REQ-2025-0003", "Ethanol", "Sigma")
	c.DateReceived = "2025-03-05"
	if _, err := s.BulkUpsert(ctx, []domain.OrderRecord{a, b, c}); err != nil {
		t.Fatalf("BulkUpsert: %v", err)
	}

	got, err := s.List(ctx, domain.OrderFilter{Vendor: "fisher"})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(got) != 1 || got[0].ReqID != "REQ-2025-0002" {
		t.Errorf("vendor filter = %+v, want just REQ-2025-0002", got)
	}

	received := false
	got, err = s.List(ctx, domain.OrderFilter{Received: &received})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(got) != 2 {
		t.Errorf("received=false filter returned %d rows, want 2", len(got))
	}

	got, err = s.List(ctx, domain.OrderFilter{})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("unfiltered list = %d rows, want 3", len(got))
	}
	for i := 1; i < len(got); i++ {
		if got[i-1].ReqID > got[i].ReqID {
			t.Errorf("list not sorted by req id: %s before %s", got[i-1].ReqID, got[i].ReqID)
		}
	}
}

func TestMarkReceived(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.Insert(ctx, order("REQ-2025-0001", "Gloves", "VWR")); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if err := s.MarkReceived(ctx, "REQ-2025-0001", "2025-03-10", "jls", "Cold room"); err != nil {
		t.Fatalf("MarkReceived: %v", err)
	}

	got, err := s.Get(ctx, "REQ-2025-0001")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.DateReceived != "2025-03-10" || got.ReceivedBy != "jls" || got.Location != "Cold room" {
		t.Errorf("receipt fields = %+v", got)
	}
	if !got.Received() {
		t.Error("order should report received")
	}

	if err := s.MarkReceived(ctx, "REQ-2025-9999", "2025-03-10", "jls", ""); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("MarkReceived on missing id = %v, want ErrNotFound", err)
	}
}

func TestRequisitionIDs(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if _, err := s.BulkUpsert(ctx, []domain.OrderRecord{
		order("REQ-2025-0002", "Tips", "Fisher"),
		order("REQ-2025-0001", "Gloves", "VWR"),
	}); err != nil {
		t.Fatalf("BulkUpsert: %v", err)
	}

	ids, err := s.RequisitionIDs(ctx)
	if err != nil {
		t.Fatalf("RequisitionIDs: %v", err)
	}
	if len(ids) != 2 {
		t.Fatalf("got %d ids, want 2", len(ids))
	}
}
