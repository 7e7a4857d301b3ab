// internal/store/postgres/order_store.go
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/tobihealthops/requiva-go/internal/domain"
	"github.com/tobihealthops/requiva-go/internal/store"
)

// orderRow is the table-facing shape. Numeric NaN markers are stored
// as NULL so the columns stay usable in SQL aggregates.
type orderRow struct {
	ReqID        string          `db:"req_id"`
	Item         string          `db:"item"`
	Quantity     sql.NullFloat64 `db:"quantity"`
	UnitPrice    sql.NullFloat64 `db:"unit_price"`
	Total        sql.NullFloat64 `db:"total"`
	Vendor       string          `db:"vendor"`
	CatalogNo    string          `db:"catalog_no"`
	GrantCode    string          `db:"grant_code"`
	POSource     string          `db:"po_source"`
	PONumber     string          `db:"po_number"`
	Notes        string          `db:"notes"`
	OrderedBy    string          `db:"ordered_by"`
	DateOrdered  string          `db:"date_ordered"`
	DateReceived string          `db:"date_received"`
	ReceivedBy   string          `db:"received_by"`
	Location     string          `db:"location"`
}

type orderStore struct {
	db *DB
}

// NewOrderStore returns the Postgres-backed order store.
func NewOrderStore(db *DB) store.OrderStore {
	return &orderStore{db: db}
}

// EnsureSchema creates the orders table if it does not exist yet. Run
// by the migrate CLI command, not at server start.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS orders (
			req_id        TEXT PRIMARY KEY,
			item          TEXT NOT NULL,
			quantity      DOUBLE PRECISION,
			unit_price    DOUBLE PRECISION,
			total         DOUBLE PRECISION,
			vendor        TEXT NOT NULL DEFAULT '',
			catalog_no    TEXT NOT NULL DEFAULT '',
			grant_code    TEXT NOT NULL DEFAULT '',
			po_source     TEXT NOT NULL DEFAULT '',
			po_number     TEXT NOT NULL DEFAULT '',
			notes         TEXT NOT NULL DEFAULT '',
			ordered_by    TEXT NOT NULL DEFAULT '',
			date_ordered  TEXT NOT NULL DEFAULT '',
			date_received TEXT NOT NULL DEFAULT '',
			received_by   TEXT NOT NULL DEFAULT '',
			location      TEXT NOT NULL DEFAULT '',
			created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create orders table: %w", err)
	}
	return nil
}

const orderColumns = `req_id, item, quantity, unit_price, total, vendor, catalog_no,
	grant_code, po_source, po_number, notes, ordered_by, date_ordered,
	date_received, received_by, location`

func (s *orderStore) List(ctx context.Context, filter domain.OrderFilter) ([]domain.OrderRecord, error) {
	query := fmt.Sprintf("SELECT %s FROM orders", orderColumns)

	var (
		conds []string
		args  []interface{}
	)
	if filter.Vendor != "" {
		args = append(args, "%"+filter.Vendor+"%")
		conds = append(conds, fmt.Sprintf("vendor ILIKE $%d", len(args)))
	}
	if filter.Grant != "" {
		args = append(args, "%"+filter.Grant+"%")
		conds = append(conds, fmt.Sprintf("grant_code ILIKE $%d", len(args)))
	}
	if filter.POSource != "" {
		args = append(args, filter.POSource)
		conds = append(conds, fmt.Sprintf("po_source = $%d", len(args)))
	}
	if filter.Received != nil {
		if *filter.Received {
			conds = append(conds, "TRIM(date_received) <> ''")
		} else {
			conds = append(conds, "TRIM(date_received) = ''")
		}
	}
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY req_id"

	var rows []orderRow
	if err := sqlx.SelectContext(ctx, s.db, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}

	recs := make([]domain.OrderRecord, len(rows))
	for i, r := range rows {
		recs[i] = r.toRecord()
	}
	return recs, nil
}

func (s *orderStore) Get(ctx context.Context, reqID string) (domain.OrderRecord, error) {
	query := fmt.Sprintf("SELECT %s FROM orders WHERE req_id = $1", orderColumns)

	var row orderRow
	err := sqlx.GetContext(ctx, s.db, &row, query, reqID)
	if err == sql.ErrNoRows {
		return domain.OrderRecord{}, store.ErrNotFound
	}
	if err != nil {
		return domain.OrderRecord{}, fmt.Errorf("failed to get order %s: %w", reqID, err)
	}
	return row.toRecord(), nil
}

func (s *orderStore) Insert(ctx context.Context, rec domain.OrderRecord) error {
	return s.db.WithTx(ctx, func(tx *sql.Tx) error {
		return upsertOne(ctx, tx, rec)
	})
}

func (s *orderStore) BulkUpsert(ctx context.Context, recs []domain.OrderRecord) (int, error) {
	var n int
	err := s.db.WithTx(ctx, func(tx *sql.Tx) error {
		for _, rec := range recs {
			if err := upsertOne(ctx, tx, rec); err != nil {
				return err
			}
			n++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return n, nil
}

func upsertOne(ctx context.Context, tx *sql.Tx, rec domain.OrderRecord) error {
	query := `
		INSERT INTO orders (
			req_id, item, quantity, unit_price, total, vendor, catalog_no,
			grant_code, po_source, po_number, notes, ordered_by,
			date_ordered, date_received, received_by, location
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
		ON CONFLICT (req_id)
		DO UPDATE SET
			item = EXCLUDED.item,
			quantity = EXCLUDED.quantity,
			unit_price = EXCLUDED.unit_price,
			total = EXCLUDED.total,
			vendor = EXCLUDED.vendor,
			catalog_no = EXCLUDED.catalog_no,
			grant_code = EXCLUDED.grant_code,
			po_source = EXCLUDED.po_source,
			po_number = EXCLUDED.po_number,
			notes = EXCLUDED.notes,
			ordered_by = EXCLUDED.ordered_by,
			date_ordered = EXCLUDED.date_ordered,
			date_received = EXCLUDED.date_received,
			received_by = EXCLUDED.received_by,
			location = EXCLUDED.location,
			updated_at = NOW()
	`
	_, err := tx.ExecContext(ctx, query,
		rec.ReqID, rec.Item,
		nullFloat(rec.Quantity), nullFloat(rec.UnitPrice), nullFloat(rec.Total),
		rec.Vendor, rec.CatalogNo, rec.GrantCode, rec.POSource, rec.PONumber,
		rec.Notes, rec.OrderedBy, rec.DateOrdered, rec.DateReceived,
		rec.ReceivedBy, rec.Location,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert order %s: %w", rec.ReqID, err)
	}
	return nil
}

func (s *orderStore) MarkReceived(ctx context.Context, reqID, date, receivedBy, location string) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE orders
		SET date_received = $2, received_by = $3, location = $4, updated_at = NOW()
		WHERE req_id = $1
	`, reqID, date, receivedBy, location)
	if err != nil {
		return fmt.Errorf("failed to mark order %s received: %w", reqID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to mark order %s received: %w", reqID, err)
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *orderStore) RequisitionIDs(ctx context.Context) ([]string, error) {
	var ids []string
	if err := sqlx.SelectContext(ctx, s.db, &ids, "SELECT req_id FROM orders"); err != nil {
		return nil, fmt.Errorf("failed to list requisition ids: %w", err)
	}
	return ids, nil
}

func (s *orderStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := sqlx.GetContext(ctx, s.db, &n, "SELECT COUNT(*) FROM orders"); err != nil {
		return 0, fmt.Errorf("failed to count orders: %w", err)
	}
	return n, nil
}

func (s *orderStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (r orderRow) toRecord() domain.OrderRecord {
	return domain.OrderRecord{
		ReqID:        r.ReqID,
		Item:         r.Item,
		Quantity:     floatOrNaN(r.Quantity),
		UnitPrice:    floatOrNaN(r.UnitPrice),
		Total:        floatOrNaN(r.Total),
		Vendor:       r.Vendor,
		CatalogNo:    r.CatalogNo,
		GrantCode:    r.GrantCode,
		POSource:     r.POSource,
		PONumber:     r.PONumber,
		Notes:        r.Notes,
		OrderedBy:    r.OrderedBy,
		DateOrdered:  r.DateOrdered,
		DateReceived: r.DateReceived,
		ReceivedBy:   r.ReceivedBy,
		Location:     r.Location,
	}
}

func nullFloat(v float64) sql.NullFloat64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: v, Valid: true}
}

func floatOrNaN(v sql.NullFloat64) float64 {
	if !v.Valid {
		return math.NaN()
	}
	return v.Float64
}
