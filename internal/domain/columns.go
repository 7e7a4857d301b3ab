// internal/domain/columns.go
package domain

import (
	"math"
	"strconv"
)

// Canonical spreadsheet headers, in the order the lab's order sheet
// uses them. Import, export and the CSV store all speak this shape.
const (
	ColReqID        = "REQ#"
	ColItem         = "ITEM"
	ColQuantity     = "NUMBER OF ITEM"
	ColUnitPrice    = "AMOUNT PER ITEM"
	ColTotal        = "TOTAL"
	ColVendor       = "VENDOR"
	ColCatalogNo    = "CAT #"
	ColGrantCode    = "GRANT USED"
	ColPOSource     = "PO SOURCE"
	ColPONumber     = "PO #"
	ColNotes        = "NOTES"
	ColOrderedBy    = "ORDERED BY"
	ColDateOrdered  = "DATE ORDERED"
	ColDateReceived = "DATE RECEIVED"
	ColReceivedBy   = "RECEIVED BY"
	ColLocation     = "ITEM LOCATION"
)

// Columns returns the canonical header row.
func Columns() []string {
	return []string{
		ColReqID, ColItem, ColQuantity, ColUnitPrice, ColTotal,
		ColVendor, ColCatalogNo, ColGrantCode, ColPOSource, ColPONumber,
		ColNotes, ColOrderedBy, ColDateOrdered, ColDateReceived,
		ColReceivedBy, ColLocation,
	}
}

// Row renders the record as cells in canonical column order. NaN
// numerics render as empty cells.
func (r OrderRecord) Row() []string {
	return []string{
		r.ReqID, r.Item,
		numberCell(r.Quantity), numberCell(r.UnitPrice), numberCell(r.Total),
		r.Vendor, r.CatalogNo, r.GrantCode, r.POSource, r.PONumber,
		r.Notes, r.OrderedBy, r.DateOrdered, r.DateReceived,
		r.ReceivedBy, r.Location,
	}
}

// RecordFromCells builds an OrderRecord from cells keyed by canonical
// column name. Missing keys become zero values; numeric cells that fail
// coercion become NaN markers.
func RecordFromCells(cells map[string]string) OrderRecord {
	return OrderRecord{
		ReqID:        cells[ColReqID],
		Item:         cells[ColItem],
		Quantity:     CoerceNumber(cells[ColQuantity]),
		UnitPrice:    CoerceNumber(cells[ColUnitPrice]),
		Total:        CoerceNumber(cells[ColTotal]),
		Vendor:       cells[ColVendor],
		CatalogNo:    cells[ColCatalogNo],
		GrantCode:    cells[ColGrantCode],
		POSource:     cells[ColPOSource],
		PONumber:     cells[ColPONumber],
		Notes:        cells[ColNotes],
		OrderedBy:    cells[ColOrderedBy],
		DateOrdered:  cells[ColDateOrdered],
		DateReceived: cells[ColDateReceived],
		ReceivedBy:   cells[ColReceivedBy],
		Location:     cells[ColLocation],
	}
}

func numberCell(v float64) string {
	if math.IsNaN(v) {
		return ""
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}
