// internal/importer/importer.go
package importer

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/xuri/excelize/v2"
	"gopkg.in/yaml.v3"

	"github.com/tobihealthops/requiva-go/internal/domain"
)

// Mapping renames source spreadsheet headers to canonical columns,
// keyed by canonical name. Loaded from a YAML profile for labs whose
// sheets predate the canonical header set; unmapped columns fall back
// to a case-insensitive match against the canonical names.
type Mapping map[string]string

// Summary describes one import batch.
type Summary struct {
	BatchID  string `json:"batch_id"`
	File     string `json:"file"`
	RowsRead int    `json:"rows_read"`
	Imported int    `json:"imported"`
	Skipped  int    `json:"skipped"`
}

// Importer turns order spreadsheets (CSV or XLSX) into OrderRecords.
type Importer struct {
	mapping Mapping
}

func New(mapping Mapping) *Importer {
	return &Importer{mapping: mapping}
}

// LoadMapping reads a YAML header-mapping profile. An empty path means
// no overrides.
func LoadMapping(path string) (Mapping, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read mapping profile %s: %w", path, err)
	}
	var m Mapping
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse mapping profile %s: %w", path, err)
	}
	return m, nil
}

// ImportFile reads one spreadsheet into records. Rows without an item
// are skipped; everything else is kept, with failed numeric cells
// carried as NaN markers for the engine's per-aggregation exclusion.
func (im *Importer) ImportFile(path string) ([]domain.OrderRecord, Summary, error) {
	var (
		rows [][]string
		err  error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		rows, err = readCSV(path)
	case ".xlsx":
		rows, err = readXLSX(path)
	default:
		return nil, Summary{}, fmt.Errorf("unsupported import format %q", filepath.Ext(path))
	}
	if err != nil {
		return nil, Summary{}, err
	}

	summary := Summary{
		BatchID: uuid.NewString(),
		File:    filepath.Base(path),
	}
	if len(rows) == 0 {
		return nil, summary, nil
	}

	resolved := im.resolveHeader(rows[0])
	var recs []domain.OrderRecord
	for _, row := range rows[1:] {
		summary.RowsRead++
		cells := make(map[string]string, len(resolved))
		for i, canonical := range resolved {
			if canonical == "" || i >= len(row) {
				continue
			}
			cells[canonical] = strings.TrimSpace(row[i])
		}
		rec := domain.RecordFromCells(cells)
		if strings.TrimSpace(rec.Item) == "" {
			summary.Skipped++
			continue
		}
		recs = append(recs, rec)
		summary.Imported++
	}

	log.Info().
		Str("batch_id", summary.BatchID).
		Str("file", summary.File).
		Int("rows_read", summary.RowsRead).
		Int("imported", summary.Imported).
		Int("skipped", summary.Skipped).
		Msg("import complete")
	return recs, summary, nil
}

// resolveHeader maps each source column index to a canonical column
// name, or "" for columns nobody recognizes.
func (im *Importer) resolveHeader(header []string) []string {
	// source header -> canonical, from the profile first, then the
	// canonical names themselves.
	bySource := make(map[string]string)
	for _, canonical := range domain.Columns() {
		bySource[normalizeHeader(canonical)] = canonical
	}
	for canonical, source := range im.mapping {
		bySource[normalizeHeader(source)] = canonical
	}

	resolved := make([]string, len(header))
	for i, h := range header {
		resolved[i] = bySource[normalizeHeader(h)]
	}
	return resolved
}

func normalizeHeader(h string) string {
	return strings.ToUpper(strings.Join(strings.Fields(h), " "))
}

func readCSV(path string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return rows, nil
}

// readXLSX reads the first sheet.
func readXLSX(path string) ([][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("xlsx file %s has no sheets", path)
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read sheet %s of %s: %w", sheets[0], path, err)
	}
	return rows, nil
}
