// internal/export/export.go
package export

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/tobihealthops/requiva-go/internal/domain"
)

const xlsxSheet = "Orders"

// WriteCSV emits the canonical header row followed by one row per
// record.
func WriteCSV(w io.Writer, recs []domain.OrderRecord) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(domain.Columns()); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, rec := range recs {
		if err := cw.Write(rec.Row()); err != nil {
			return fmt.Errorf("write order %s: %w", rec.ReqID, err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	return nil
}

// WriteXLSX emits an Orders sheet with the same shape as the CSV.
func WriteXLSX(w io.Writer, recs []domain.OrderRecord) error {
	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(xlsxSheet)
	if err != nil {
		return fmt.Errorf("create sheet: %w", err)
	}
	f.SetActiveSheet(index)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return fmt.Errorf("drop default sheet: %w", err)
	}

	writeRow := func(rowIdx int, cells []string) error {
		addr, err := excelize.CoordinatesToCellName(1, rowIdx)
		if err != nil {
			return err
		}
		row := make([]interface{}, len(cells))
		for i, c := range cells {
			row[i] = c
		}
		return f.SetSheetRow(xlsxSheet, addr, &row)
	}

	if err := writeRow(1, domain.Columns()); err != nil {
		return fmt.Errorf("write xlsx header: %w", err)
	}
	for i, rec := range recs {
		if err := writeRow(i+2, rec.Row()); err != nil {
			return fmt.Errorf("write order %s: %w", rec.ReqID, err)
		}
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write xlsx: %w", err)
	}
	return nil
}
