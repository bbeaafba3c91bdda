package dedup

import (
	"strings"

	"inmo_dedup/models"
)

// SimilarPrices holds when either listing hides its price behind the
// on-request marker, or both amounts lie inside the open window of span.
func SimilarPrices(p1, p2 *models.PropertyRecord, span float64, marker string) bool {
	if marker != "" && (strings.Contains(p1.Price, marker) || strings.Contains(p2.Price, marker)) {
		return true
	}
	return within(p1.Amount, p2.Amount, span)
}

func SimilarTotalArea(p1, p2 *models.PropertyRecord, span float64) bool {
	return within(p1.TotalAreaFixed, p2.TotalAreaFixed, span)
}

func SimilarFloorArea(p1, p2 *models.PropertyRecord, span float64) bool {
	return within(p1.FloorAreaFixed, p2.FloorAreaFixed, span)
}

// within reports b-span < a < b+span. A missing operand is never similar.
func within(a, b *float64, span float64) bool {
	if a == nil || b == nil {
		return false
	}
	return *b-span < *a && *a < *b+span
}

func sameFlag(a, b *bool) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
