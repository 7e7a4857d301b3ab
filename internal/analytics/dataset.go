// internal/analytics/dataset.go
package analytics

import (
	"crypto/sha1"
	"encoding/hex"
	"math"
	"strings"
	"time"

	"github.com/montanaflynn/stats"

	"github.com/tobihealthops/requiva-go/internal/domain"
)

// Row is one order record with its order date parsed. HasDate is false
// when date_ordered was empty or unrecognized; such rows stay in the
// dataset but drop out of date-based groupings.
type Row struct {
	Rec       domain.OrderRecord
	OrderedAt time.Time
	HasDate   bool
}

// Dataset is the normalized, immutable snapshot every analytics
// component consumes. Grouping keys keep first-appearance order so
// results never depend on map iteration.
type Dataset struct {
	rows   []Row
	items  []string
	byItem map[string][]int
	norm   func(string) string
	hash   string
}

// Option configures dataset normalization.
type Option func(*Dataset)

// WithKeyNormalizer installs a normalization hook for grouping keys
// (item and vendor). The default is the identity: exact-string
// grouping, two differently-spelled names are distinct groups.
func WithKeyNormalizer(fn func(string) string) Option {
	return func(d *Dataset) { d.norm = fn }
}

// NewDataset parses dates and indexes items for the given records. The
// records themselves are never mutated.
func NewDataset(records []domain.OrderRecord, opts ...Option) *Dataset {
	d := &Dataset{
		rows:   make([]Row, 0, len(records)),
		byItem: make(map[string][]int),
		norm:   func(s string) string { return s },
	}
	for _, opt := range opts {
		opt(d)
	}

	h := sha1.New()
	for _, rec := range records {
		orderedAt, ok := domain.ParseOrderDate(rec.DateOrdered)
		d.rows = append(d.rows, Row{Rec: rec, OrderedAt: orderedAt, HasDate: ok})

		key := d.norm(rec.Item)
		if _, seen := d.byItem[key]; !seen {
			d.items = append(d.items, key)
		}
		d.byItem[key] = append(d.byItem[key], len(d.rows)-1)

		h.Write([]byte(strings.Join(rec.Row(), "\x1f")))
		h.Write([]byte{'\n'})
	}
	d.hash = hex.EncodeToString(h.Sum(nil))
	return d
}

// Len returns the number of rows in the snapshot.
func (d *Dataset) Len() int { return len(d.rows) }

// Rows returns the normalized rows. Callers must not mutate them.
func (d *Dataset) Rows() []Row { return d.rows }

// Items returns the distinct item keys in first-appearance order.
func (d *Dataset) Items() []string { return d.items }

// RowsForItem returns the rows for one item key, in record order.
func (d *Dataset) RowsForItem(item string) []Row {
	idx := d.byItem[item]
	rows := make([]Row, len(idx))
	for i, j := range idx {
		rows[i] = d.rows[j]
	}
	return rows
}

// Key applies the dataset's normalization hook to a grouping key.
func (d *Dataset) Key(s string) string { return d.norm(s) }

// Hash is a stable content hash of the snapshot, suitable as a cache
// key for fitted models and component results.
func (d *Dataset) Hash() string { return d.hash }

// mean over values, NaN when none. montanaflynn errors on empty input,
// which downstream treats as a missing marker.
func meanOf(vals []float64) float64 {
	m, err := stats.Mean(vals)
	if err != nil {
		return math.NaN()
	}
	return m
}

func round1(v float64) float64 {
	r, err := stats.Round(v, 1)
	if err != nil {
		return v
	}
	return r
}

func round2(v float64) float64 {
	r, err := stats.Round(v, 2)
	if err != nil {
		return v
	}
	return r
}
