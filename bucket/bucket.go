// Package bucket coarse-grains continuous values (prices, areas) into ranges
// for grouping and reports.
package bucket

import (
	"math"
	"sort"
	"strconv"

	"github.com/rotisserie/eris"
)

var ErrInvalidLimits = eris.New("bucket: limits must be non-empty and ascending")

// Bucketize assigns each value the lower bound of the range it falls in,
// given ascending limits [L0 .. Lk]:
//
//	v <= L0          -> 0     "0..L0"
//	Lprev < v <= Li  -> Lprev "Lprev..Li"
//	v > Lk           -> Lk    "Lk.."
//
// Labels are returned in bucket order. NaN values stay NaN. values is not
// modified.
func Bucketize(values, limits []float64) ([]float64, []string, error) {
	if err := ValidateLimits(limits); err != nil {
		return nil, nil, err
	}

	labels := Labels(limits)
	out := make([]float64, len(values))
	for i, v := range values {
		out[i] = Assign(v, limits)
	}
	return out, labels, nil
}

// ValidateLimits reports ErrInvalidLimits unless limits is non-empty and
// ascending.
func ValidateLimits(limits []float64) error {
	if len(limits) == 0 || !sort.Float64sAreSorted(limits) {
		return ErrInvalidLimits
	}
	return nil
}

// Assign returns the bucket of a single value. limits must be ascending.
func Assign(v float64, limits []float64) float64 {
	switch i := Index(v, limits); {
	case i < 0:
		return math.NaN()
	case i == 0:
		return 0
	default:
		return limits[i-1]
	}
}

// Index returns the position in Labels(limits) of the range holding v, or -1
// for NaN. limits must be ascending.
func Index(v float64, limits []float64) int {
	if math.IsNaN(v) {
		return -1
	}
	for i, l := range limits {
		if v <= l {
			return i
		}
	}
	return len(limits)
}

// Labels renders the display range of every bucket.
func Labels(limits []float64) []string {
	if len(limits) == 0 {
		return nil
	}
	labels := make([]string, 0, len(limits)+1)
	labels = append(labels, "0.."+format(limits[0]))
	for i := 1; i < len(limits); i++ {
		labels = append(labels, format(limits[i-1])+".."+format(limits[i]))
	}
	return append(labels, format(limits[len(limits)-1])+"..")
}

// Label returns the display range for a bucket value produced by Assign. A
// zero limit makes bucket 0 ambiguous; use Index with Labels in that case.
func Label(bucket float64, limits []float64) string {
	labels := Labels(limits)
	if bucket == 0 {
		return labels[0]
	}
	for i, l := range limits {
		if l == bucket {
			return labels[i+1]
		}
	}
	return ""
}

func format(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
