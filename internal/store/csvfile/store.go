// internal/store/csvfile/store.go
package csvfile

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/tobihealthops/requiva-go/internal/domain"
	"github.com/tobihealthops/requiva-go/internal/store"
)

// OrderStore keeps the whole order book in one CSV file with the
// canonical header, the sheet the lab used before the server existed.
// Every write rewrites the file; a mutex serializes access within the
// process. This is the dev and single-user backend.
type OrderStore struct {
	mu   sync.Mutex
	path string
}

// NewOrderStore ensures the file exists with a header row.
func NewOrderStore(path string) (*OrderStore, error) {
	s := &OrderStore{path: path}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("failed to create store dir: %w", err)
		}
		if err := s.writeAll(nil); err != nil {
			return nil, err
		}
	} else if err != nil {
		return nil, fmt.Errorf("failed to stat %s: %w", path, err)
	}
	return s, nil
}

func (s *OrderStore) List(ctx context.Context, filter domain.OrderFilter) ([]domain.OrderRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	recs, err := s.readAll()
	if err != nil {
		return nil, err
	}

	out := recs[:0]
	for _, rec := range recs {
		if filter.Matches(rec) {
			out = append(out, rec)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].ReqID < out[j].ReqID })
	return out, nil
}

func (s *OrderStore) Get(ctx context.Context, reqID string) (domain.OrderRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	recs, err := s.readAll()
	if err != nil {
		return domain.OrderRecord{}, err
	}
	for _, rec := range recs {
		if rec.ReqID == reqID {
			return rec, nil
		}
	}
	return domain.OrderRecord{}, store.ErrNotFound
}

func (s *OrderStore) Insert(ctx context.Context, rec domain.OrderRecord) error {
	_, err := s.BulkUpsert(ctx, []domain.OrderRecord{rec})
	return err
}

func (s *OrderStore) BulkUpsert(ctx context.Context, recs []domain.OrderRecord) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, err := s.readAll()
	if err != nil {
		return 0, err
	}

	index := make(map[string]int, len(existing))
	for i, rec := range existing {
		index[rec.ReqID] = i
	}
	for _, rec := range recs {
		if i, ok := index[rec.ReqID]; ok {
			existing[i] = rec
			continue
		}
		index[rec.ReqID] = len(existing)
		existing = append(existing, rec)
	}
	if err := s.writeAll(existing); err != nil {
		return 0, err
	}
	return len(recs), nil
}

func (s *OrderStore) MarkReceived(ctx context.Context, reqID, date, receivedBy, location string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	recs, err := s.readAll()
	if err != nil {
		return err
	}
	for i := range recs {
		if recs[i].ReqID != reqID {
			continue
		}
		recs[i].DateReceived = date
		recs[i].ReceivedBy = receivedBy
		recs[i].Location = location
		return s.writeAll(recs)
	}
	return store.ErrNotFound
}

func (s *OrderStore) RequisitionIDs(ctx context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	recs, err := s.readAll()
	if err != nil {
		return nil, err
	}
	ids := make([]string, len(recs))
	for i, rec := range recs {
		ids[i] = rec.ReqID
	}
	return ids, nil
}

func (s *OrderStore) Count(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	recs, err := s.readAll()
	if err != nil {
		return 0, err
	}
	return len(recs), nil
}

func (s *OrderStore) Ping(ctx context.Context) error {
	_, err := os.Stat(s.path)
	return err
}

func (s *OrderStore) readAll() ([]domain.OrderRecord, error) {
	f, err := os.Open(s.path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", s.path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", s.path, err)
	}
	if len(rows) == 0 {
		return nil, nil
	}

	header := rows[0]
	var recs []domain.OrderRecord
	for _, row := range rows[1:] {
		cells := make(map[string]string, len(header))
		for i, col := range header {
			if i < len(row) {
				cells[col] = row[i]
			}
		}
		recs = append(recs, domain.RecordFromCells(cells))
	}
	return recs, nil
}

func (s *OrderStore) writeAll(recs []domain.OrderRecord) error {
	tmp := s.path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", tmp, err)
	}

	w := csv.NewWriter(f)
	if err := w.Write(domain.Columns()); err != nil {
		f.Close()
		return fmt.Errorf("failed to write header: %w", err)
	}
	for _, rec := range recs {
		if err := w.Write(rec.Row()); err != nil {
			f.Close()
			return fmt.Errorf("failed to write order %s: %w", rec.ReqID, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		f.Close()
		return fmt.Errorf("failed to flush %s: %w", tmp, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("failed to replace %s: %w", s.path, err)
	}
	return nil
}
