// internal/store/mongo/store.go
package mongo

import (
	"context"
	"fmt"
	"math"
	"regexp"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/tobihealthops/requiva-go/internal/domain"
	"github.com/tobihealthops/requiva-go/internal/store"
)

const ordersCollection = "orders"

// OrderStore keeps order records in a MongoDB collection keyed by
// req_id. NaN numeric markers round-trip natively, BSON doubles carry
// them.
type OrderStore struct {
	client *mongo.Client
	dbName string
}

// NewOrderStore connects and verifies the deployment is reachable.
func NewOrderStore(ctx context.Context, uri, dbName string) (*OrderStore, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}
	return &OrderStore{client: client, dbName: dbName}, nil
}

// Close disconnects the underlying client.
func (s *OrderStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

func (s *OrderStore) collection() *mongo.Collection {
	return s.client.Database(s.dbName).Collection(ordersCollection)
}

func (s *OrderStore) List(ctx context.Context, filter domain.OrderFilter) ([]domain.OrderRecord, error) {
	query := bson.M{}
	if filter.Vendor != "" {
		query["vendor"] = bson.M{"$regex": regexp.QuoteMeta(filter.Vendor), "$options": "i"}
	}
	if filter.Grant != "" {
		query["grant_code"] = bson.M{"$regex": regexp.QuoteMeta(filter.Grant), "$options": "i"}
	}
	if filter.POSource != "" {
		query["po_source"] = filter.POSource
	}
	if filter.Received != nil {
		if *filter.Received {
			query["date_received"] = bson.M{"$nin": bson.A{"", nil}}
		} else {
			query["date_received"] = bson.M{"$in": bson.A{"", nil}}
		}
	}

	cur, err := s.collection().Find(ctx, query, options.Find().SetSort(bson.D{{Key: "req_id", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	defer cur.Close(ctx)

	var recs []domain.OrderRecord
	for cur.Next(ctx) {
		var rec domain.OrderRecord
		if err := cur.Decode(&rec); err != nil {
			return nil, fmt.Errorf("failed to decode order: %w", err)
		}
		recs = append(recs, rec)
	}
	if err := cur.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate orders: %w", err)
	}
	return recs, nil
}

func (s *OrderStore) Get(ctx context.Context, reqID string) (domain.OrderRecord, error) {
	var rec domain.OrderRecord
	err := s.collection().FindOne(ctx, bson.M{"req_id": reqID}).Decode(&rec)
	if err == mongo.ErrNoDocuments {
		return domain.OrderRecord{}, store.ErrNotFound
	}
	if err != nil {
		return domain.OrderRecord{}, fmt.Errorf("failed to get order %s: %w", reqID, err)
	}
	return rec, nil
}

func (s *OrderStore) Insert(ctx context.Context, rec domain.OrderRecord) error {
	return s.upsert(ctx, rec)
}

func (s *OrderStore) BulkUpsert(ctx context.Context, recs []domain.OrderRecord) (int, error) {
	var n int
	for _, rec := range recs {
		if err := s.upsert(ctx, rec); err != nil {
			return n, err
		}
		n++
	}
	return n, nil
}

func (s *OrderStore) upsert(ctx context.Context, rec domain.OrderRecord) error {
	sanitizeInf(&rec)
	_, err := s.collection().ReplaceOne(ctx,
		bson.M{"req_id": rec.ReqID},
		rec,
		options.Replace().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert order %s: %w", rec.ReqID, err)
	}
	return nil
}

func (s *OrderStore) MarkReceived(ctx context.Context, reqID, date, receivedBy, location string) error {
	res, err := s.collection().UpdateOne(ctx,
		bson.M{"req_id": reqID},
		bson.M{"$set": bson.M{
			"date_received": date,
			"received_by":   receivedBy,
			"location":      location,
		}},
	)
	if err != nil {
		return fmt.Errorf("failed to mark order %s received: %w", reqID, err)
	}
	if res.MatchedCount == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *OrderStore) RequisitionIDs(ctx context.Context) ([]string, error) {
	cur, err := s.collection().Find(ctx, bson.M{},
		options.Find().SetProjection(bson.M{"req_id": 1}))
	if err != nil {
		return nil, fmt.Errorf("failed to list requisition ids: %w", err)
	}
	defer cur.Close(ctx)

	var ids []string
	for cur.Next(ctx) {
		var doc struct {
			ReqID string `bson:"req_id"`
		}
		if err := cur.Decode(&doc); err != nil {
			return nil, fmt.Errorf("failed to decode requisition id: %w", err)
		}
		ids = append(ids, doc.ReqID)
	}
	return ids, cur.Err()
}

func (s *OrderStore) Count(ctx context.Context) (int, error) {
	n, err := s.collection().CountDocuments(ctx, bson.M{})
	if err != nil {
		return 0, fmt.Errorf("failed to count orders: %w", err)
	}
	return int(n), nil
}

func (s *OrderStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, nil)
}

// sanitizeInf maps infinite numerics to the NaN missing marker before
// writing; infinities only arise from corrupt imports.
func sanitizeInf(rec *domain.OrderRecord) {
	for _, v := range []*float64{&rec.Quantity, &rec.UnitPrice, &rec.Total} {
		if math.IsInf(*v, 0) {
			*v = math.NaN()
		}
	}
}
