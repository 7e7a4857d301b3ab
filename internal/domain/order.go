// internal/domain/order.go
package domain

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// PO source values accepted by the intake form.
const (
	POSourceShopBlue       = "ShopBlue"
	POSourceStockRoom      = "Stock Room"
	POSourceExternalVendor = "External Vendor"
)

// OrderRecord represents a single purchase order line item. Numeric
// fields use NaN to mark values that failed coercion on intake, so a
// bad cell never drops the whole row. Dates are carried raw; consumers
// parse them on demand.
type OrderRecord struct {
	ReqID        string  `json:"req_id" db:"req_id" bson:"req_id"`
	Item         string  `json:"item" db:"item" bson:"item"`
	Quantity     float64 `json:"quantity" db:"quantity" bson:"quantity"`
	UnitPrice    float64 `json:"unit_price" db:"unit_price" bson:"unit_price"`
	Total        float64 `json:"total" db:"total" bson:"total"`
	Vendor       string  `json:"vendor" db:"vendor" bson:"vendor"`
	CatalogNo    string  `json:"catalog_no" db:"catalog_no" bson:"catalog_no"`
	GrantCode    string  `json:"grant_code" db:"grant_code" bson:"grant_code"`
	POSource     string  `json:"po_source" db:"po_source" bson:"po_source"`
	PONumber     string  `json:"po_number" db:"po_number" bson:"po_number"`
	Notes        string  `json:"notes" db:"notes" bson:"notes"`
	OrderedBy    string  `json:"ordered_by" db:"ordered_by" bson:"ordered_by"`
	DateOrdered  string  `json:"date_ordered" db:"date_ordered" bson:"date_ordered"`
	DateReceived string  `json:"date_received" db:"date_received" bson:"date_received"`
	ReceivedBy   string  `json:"received_by" db:"received_by" bson:"received_by"`
	Location     string  `json:"location" db:"location" bson:"location"`
}

// Received reports whether the order has been marked received. Presence
// of a date is the signal; the value is never parsed for this check.
func (r OrderRecord) Received() bool {
	return strings.TrimSpace(r.DateReceived) != ""
}

// ComputeTotal returns quantity * unit price rounded to cents. Either
// operand being NaN yields 0, matching how intake treats unpriced rows.
func ComputeTotal(quantity, unitPrice float64) float64 {
	if math.IsNaN(quantity) || math.IsNaN(unitPrice) {
		return 0
	}
	return math.Round(quantity*unitPrice*100) / 100
}

// Validate checks the fields a new order must carry before it is
// accepted. Errors name the offending field.
func (r OrderRecord) Validate() error {
	if strings.TrimSpace(r.Item) == "" {
		return fmt.Errorf("order %s: item is required", r.ReqID)
	}
	if strings.TrimSpace(r.Vendor) == "" {
		return fmt.Errorf("order %s: vendor is required", r.ReqID)
	}
	if math.IsNaN(r.Quantity) || math.IsInf(r.Quantity, 0) || r.Quantity < 0 {
		return fmt.Errorf("order %s: quantity must be a non-negative number", r.ReqID)
	}
	if math.IsNaN(r.UnitPrice) || math.IsInf(r.UnitPrice, 0) || r.UnitPrice < 0 {
		return fmt.Errorf("order %s: unit price must be a non-negative number", r.ReqID)
	}
	return nil
}

// CoerceNumber parses a free-form cell into a float64, returning NaN
// when the cell is empty or not numeric. Currency symbols, thousands
// separators and surrounding whitespace are tolerated.
func CoerceNumber(cell string) float64 {
	s := strings.TrimSpace(cell)
	s = strings.TrimPrefix(s, "$")
	s = strings.ReplaceAll(s, ",", "")
	if s == "" {
		return math.NaN()
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return math.NaN()
	}
	return v
}

// IsFiniteNumber reports whether v is usable in arithmetic, i.e. not a
// NaN coercion marker and not infinite.
func IsFiniteNumber(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
