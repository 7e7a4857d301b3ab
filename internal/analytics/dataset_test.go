package analytics

import (
	"math"
	"strings"
	"testing"

	"github.com/tobihealthops/requiva-go/internal/domain"
)

func rec(item, vendor, ordered string, qty, price, total float64) domain.OrderRecord {
	return domain.OrderRecord{
		Item:        item,
		Vendor:      vendor,
		DateOrdered: ordered,
		Quantity:    qty,
		UnitPrice:   price,
		Total:       total,
	}
}

func TestNewDatasetParsesDates(t *testing.T) {
	ds := NewDataset([]domain.OrderRecord{
		rec("Gloves", "VWR", "2025-01-02", 1, 10, 10),
		rec("Gloves", "VWR", "01/15/2025", 1, 10, 10),
		rec("Gloves", "VWR", "not a date", 1, 10, 10),
		rec("Gloves", "VWR", "", 1, 10, 10),
	})

	rows := ds.Rows()
	if len(rows) != 4 {
		t.Fatalf("expected 4 rows, got %d", len(rows))
	}
	for i, wantDate := range []bool{true, true, false, false} {
		if rows[i].HasDate != wantDate {
			t.Errorf("row %d: HasDate = %v, want %v", i, rows[i].HasDate, wantDate)
		}
	}
	if got := rows[1].OrderedAt.Format("2006-01-02"); got != "2025-01-15" {
		t.Errorf("row 1 parsed as %s, want 2025-01-15", got)
	}
}

func TestDatasetItemsFirstAppearanceOrder(t *testing.T) {
	ds := NewDataset([]domain.OrderRecord{
		rec("Tips", "VWR", "2025-01-01", 1, 1, 1),
		rec("Gloves", "VWR", "2025-01-02", 1, 1, 1),
		rec("Tips", "Fisher", "2025-01-03", 1, 1, 1),
	})

	items := ds.Items()
	if len(items) != 2 || items[0] != "Tips" || items[1] != "Gloves" {
		t.Fatalf("items = %v, want [Tips Gloves]", items)
	}
	if got := len(ds.RowsForItem("Tips")); got != 2 {
		t.Errorf("RowsForItem(Tips) = %d rows, want 2", got)
	}
}

func TestDatasetKeyNormalizer(t *testing.T) {
	records := []domain.OrderRecord{
		rec("Gloves", "VWR", "2025-01-01", 1, 1, 1),
		rec("GLOVES", "VWR", "2025-01-02", 1, 1, 1),
	}

	exact := NewDataset(records)
	if got := len(exact.Items()); got != 2 {
		t.Errorf("exact grouping: %d items, want 2", got)
	}

	folded := NewDataset(records, WithKeyNormalizer(strings.ToLower))
	if got := len(folded.Items()); got != 1 {
		t.Errorf("casefolded grouping: %d items, want 1", got)
	}
	if got := len(folded.RowsForItem("gloves")); got != 2 {
		t.Errorf("casefolded RowsForItem = %d rows, want 2", got)
	}
}

func TestDatasetHashStable(t *testing.T) {
	records := []domain.OrderRecord{
		rec("Gloves", "VWR", "2025-01-01", 2, 5, 10),
		rec("Tips", "Fisher", "2025-01-02", 1, 3, 3),
	}

	a := NewDataset(records)
	b := NewDataset(records)
	if a.Hash() != b.Hash() {
		t.Errorf("same records hash differently: %s vs %s", a.Hash(), b.Hash())
	}

	changed := NewDataset([]domain.OrderRecord{
		rec("Gloves", "VWR", "2025-01-01", 2, 5, 10),
		rec("Tips", "Fisher", "2025-01-02", 1, 3, 4),
	})
	if a.Hash() == changed.Hash() {
		t.Error("different records share a hash")
	}
}

func TestMeanOfEmptyIsNaN(t *testing.T) {
	if v := meanOf(nil); !math.IsNaN(v) {
		t.Errorf("meanOf(nil) = %v, want NaN", v)
	}
}
