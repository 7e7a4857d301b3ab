// internal/domain/reqid.go
package domain

import (
	"fmt"
	"strconv"
	"strings"
)

// NextRequisitionID returns the next REQ-YYYY-NNNN id for the given
// year, scanning existing ids for the year's highest numeric suffix.
// Ids from other years and malformed ids are ignored.
func NextRequisitionID(existing []string, year int) string {
	prefix := fmt.Sprintf("REQ-%d-", year)
	max := 0
	for _, id := range existing {
		if !strings.HasPrefix(id, prefix) {
			continue
		}
		n, err := strconv.Atoi(strings.TrimPrefix(id, prefix))
		if err != nil {
			continue
		}
		if n > max {
			max = n
		}
	}
	return fmt.Sprintf("%s%04d", prefix, max+1)
}
