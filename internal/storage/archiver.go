// internal/storage/archiver.go
package storage

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/tobihealthops/requiva-go/internal/domain"
	"github.com/tobihealthops/requiva-go/internal/export"
)

// Archiver uploads dated order exports to the object store so the lab
// keeps an off-box history of the order book.
type Archiver struct {
	storage ObjectStorage
}

func NewArchiver(storage ObjectStorage) *Archiver {
	return &Archiver{storage: storage}
}

// Archive uploads a CSV and an XLSX export under exports/, named by
// date. Returns the uploaded keys.
func (a *Archiver) Archive(ctx context.Context, recs []domain.OrderRecord, now time.Time) ([]string, error) {
	stamp := now.UTC().Format("20060102")

	var csvBuf bytes.Buffer
	if err := export.WriteCSV(&csvBuf, recs); err != nil {
		return nil, fmt.Errorf("archive csv: %w", err)
	}
	var xlsxBuf bytes.Buffer
	if err := export.WriteXLSX(&xlsxBuf, recs); err != nil {
		return nil, fmt.Errorf("archive xlsx: %w", err)
	}

	uploads := []struct {
		key  string
		data []byte
	}{
		{fmt.Sprintf("exports/Requiva_Orders_%s.csv", stamp), csvBuf.Bytes()},
		{fmt.Sprintf("exports/Requiva_Orders_%s.xlsx", stamp), xlsxBuf.Bytes()},
	}

	keys := make([]string, 0, len(uploads))
	for _, u := range uploads {
		if err := a.storage.UploadObject(ctx, u.key, u.data); err != nil {
			return keys, err
		}
		log.Info().Str("key", u.key).Int("bytes", len(u.data)).Msg("archived export")
		keys = append(keys, u.key)
	}
	return keys, nil
}
