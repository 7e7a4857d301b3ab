// internal/drive/watcher.go
package drive

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/tobihealthops/requiva-go/internal/config"
	"github.com/tobihealthops/requiva-go/internal/domain"
	"github.com/tobihealthops/requiva-go/internal/importer"
	"github.com/tobihealthops/requiva-go/internal/service"
	"github.com/tobihealthops/requiva-go/pkg/logger"
)

// Watcher polls the shared Drive folder for order sheets and imports
// them. Files already seen (same id + modified time) are skipped, so
// re-polls are cheap and re-uploads of a corrected sheet re-import.
type Watcher struct {
	service  *Service
	importer *importer.Importer
	orders   *service.OrderService
	cfg      config.DriveConfig
	dir      string
	seen     map[string]string // file id -> modified time
	log      zerolog.Logger
}

func NewWatcher(svc *Service, im *importer.Importer, orders *service.OrderService, cfg config.DriveConfig, downloadDir string) *Watcher {
	return &Watcher{
		service:  svc,
		importer: im,
		orders:   orders,
		cfg:      cfg,
		dir:      downloadDir,
		seen:     make(map[string]string),
		log:      logger.Component("drive-watcher"),
	}
}

// Run polls until the context is cancelled.
func (w *Watcher) Run(ctx context.Context) {
	interval := time.Duration(w.cfg.PollSeconds) * time.Second
	if interval <= 0 {
		interval = 5 * time.Minute
	}

	w.log.Info().Str("folder", w.cfg.FolderID).Dur("interval", interval).Msg("watching drive folder")
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if n, err := w.SyncOnce(ctx); err != nil {
			w.log.Error().Err(err).Msg("drive sync failed")
		} else if n > 0 {
			w.log.Info().Int("imported", n).Msg("drive sync complete")
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// SyncOnce downloads and imports new or changed order sheets, returning
// how many records were loaded.
func (w *Watcher) SyncOnce(ctx context.Context) (int, error) {
	if err := os.MkdirAll(w.dir, 0755); err != nil {
		return 0, fmt.Errorf("failed to create download dir: %w", err)
	}

	files, err := w.service.ListFiles(w.cfg.FolderID)
	if err != nil {
		return 0, err
	}

	var imported int
	for _, f := range files {
		select {
		case <-ctx.Done():
			return imported, ctx.Err()
		default:
		}

		ext := strings.ToLower(filepath.Ext(f.Name))
		if ext != ".csv" && ext != ".xlsx" {
			continue
		}
		if w.seen[f.ID] == f.ModifiedTime {
			continue
		}

		localPath := filepath.Join(w.dir, f.Name)
		if err := w.download(f.ID, localPath); err != nil {
			return imported, fmt.Errorf("failed to download %s: %w", f.Name, err)
		}

		recs, summary, err := w.importer.ImportFile(localPath)
		if err != nil {
			w.log.Error().Err(err).Str("file", f.Name).Msg("import failed, file skipped")
			continue
		}
		n, err := w.loadRecords(ctx, recs)
		if err != nil {
			return imported, fmt.Errorf("failed to load %s: %w", f.Name, err)
		}
		imported += n
		w.seen[f.ID] = f.ModifiedTime
		w.log.Info().Str("file", f.Name).Str("batch_id", summary.BatchID).Int("records", n).Msg("imported drive file")
	}

	return imported, nil
}

func (w *Watcher) download(fileID, localPath string) error {
	out, err := os.Create(localPath)
	if err != nil {
		return err
	}
	if err := w.service.DownloadFile(fileID, out); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

func (w *Watcher) loadRecords(ctx context.Context, recs []domain.OrderRecord) (int, error) {
	if len(recs) == 0 {
		return 0, nil
	}
	return w.orders.BulkUpsert(ctx, recs)
}
