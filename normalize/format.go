// Package normalize turns the portal's locale-formatted numbers into float64.
package normalize

import (
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
)

// NumberFormat is the separator pair a source uses when printing numbers.
type NumberFormat struct {
	Decimal   rune
	Thousands rune
}

// SpanishFormat is the es_ES convention the portal prints with: "1.234,5".
var SpanishFormat = NumberFormat{Decimal: ',', Thousands: '.'}

// NewNumberFormat builds a format from configuration strings, falling back to
// SpanishFormat for empty values.
func NewNumberFormat(decimal, thousands string) (NumberFormat, error) {
	f := SpanishFormat
	if decimal != "" {
		r := []rune(decimal)
		if len(r) != 1 {
			return f, eris.Errorf("normalize: decimal separator %q must be one character", decimal)
		}
		f.Decimal = r[0]
	}
	if thousands != "" {
		r := []rune(thousands)
		if len(r) != 1 {
			return f, eris.Errorf("normalize: thousands separator %q must be one character", thousands)
		}
		f.Thousands = r[0]
	}
	if f.Decimal == f.Thousands {
		return f, eris.Errorf("normalize: decimal and thousands separators are both %q", string(f.Decimal))
	}
	return f, nil
}

// ParseFloat parses s strictly in this format: thousands separators are
// dropped and the decimal separator becomes '.'.
func (f NumberFormat) ParseFloat(s string) (float64, error) {
	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, string(f.Thousands), "")
	s = strings.ReplaceAll(s, string(f.Decimal), ".")
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, eris.Wrapf(err, "normalize: parse %q", s)
	}
	return v, nil
}
