// internal/domain/filter.go
package domain

import "strings"

// OrderFilter narrows a store listing. Zero value matches everything.
// Vendor and Grant are case-insensitive substring matches (the search
// boxes on the orders page); POSource is an exact match; Received nil
// means both received and pending orders.
type OrderFilter struct {
	Vendor   string
	Grant    string
	POSource string
	Received *bool
}

// Matches reports whether the record passes the filter. Store drivers
// without native query support (the CSV backend) filter in memory with
// this; the SQL and Mongo drivers translate the same semantics into
// their query languages.
func (f OrderFilter) Matches(r OrderRecord) bool {
	if f.Vendor != "" && !strings.Contains(strings.ToLower(r.Vendor), strings.ToLower(f.Vendor)) {
		return false
	}
	if f.Grant != "" && !strings.Contains(strings.ToLower(r.GrantCode), strings.ToLower(f.Grant)) {
		return false
	}
	if f.POSource != "" && r.POSource != f.POSource {
		return false
	}
	if f.Received != nil && r.Received() != *f.Received {
		return false
	}
	return true
}
