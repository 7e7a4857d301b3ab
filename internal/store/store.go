// internal/store/store.go
package store

import (
	"context"
	"errors"

	"github.com/tobihealthops/requiva-go/internal/domain"
)

// ErrNotFound is returned when a requisition id has no record.
var ErrNotFound = errors.New("order not found")

// OrderStore is the persistence boundary for order records. The
// analytics engine never touches it; services load full snapshots via
// List and hand them over.
type OrderStore interface {
	List(ctx context.Context, filter domain.OrderFilter) ([]domain.OrderRecord, error)
	Get(ctx context.Context, reqID string) (domain.OrderRecord, error)
	Insert(ctx context.Context, rec domain.OrderRecord) error
	BulkUpsert(ctx context.Context, recs []domain.OrderRecord) (int, error)
	MarkReceived(ctx context.Context, reqID, date, receivedBy, location string) error
	RequisitionIDs(ctx context.Context) ([]string, error)
	Count(ctx context.Context) (int, error)
	Ping(ctx context.Context) error
}
