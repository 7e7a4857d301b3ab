// internal/service/store_open.go
package service

import (
	"context"
	"fmt"

	"github.com/tobihealthops/requiva-go/internal/config"
	"github.com/tobihealthops/requiva-go/internal/store"
	"github.com/tobihealthops/requiva-go/internal/store/csvfile"
	"github.com/tobihealthops/requiva-go/internal/store/mongo"
	"github.com/tobihealthops/requiva-go/internal/store/postgres"
)

// OpenOrderStore builds the order store named by STORE_DRIVER. The
// returned close func releases driver resources; it is a no-op for
// backends without a connection to tear down.
func OpenOrderStore(ctx context.Context, cfg config.StoreConfig) (store.OrderStore, func(context.Context) error, error) {
	noClose := func(context.Context) error { return nil }

	switch cfg.Driver {
	case "postgres":
		db, err := postgres.NewDB(&cfg.Postgres)
		if err != nil {
			return nil, nil, fmt.Errorf("open postgres store: %w", err)
		}
		return postgres.NewOrderStore(db), func(context.Context) error { return db.Close() }, nil
	case "mongo":
		st, err := mongo.NewOrderStore(ctx, cfg.MongoURI, cfg.MongoDB)
		if err != nil {
			return nil, nil, fmt.Errorf("open mongo store: %w", err)
		}
		return st, st.Close, nil
	case "csv":
		st, err := csvfile.NewOrderStore(cfg.CSVPath)
		if err != nil {
			return nil, nil, fmt.Errorf("open csv store: %w", err)
		}
		return st, noClose, nil
	default:
		return nil, nil, fmt.Errorf("unknown store driver %q", cfg.Driver)
	}
}
