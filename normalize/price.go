package normalize

import (
	"strings"
)

// OnRequestToken is how the portal prints a price that is only given on
// request ("Consultar precio").
const OnRequestToken = "consultar"

// Price is a listing price split into its parts.
type Price struct {
	Text     string
	Currency string
	Amount   *float64
}

// ParsePrice splits a display price such as "U$S 120.000" into currency and
// amount. On-request prices and unparsable amounts keep only the text.
func ParsePrice(text string, f NumberFormat) Price {
	text = strings.TrimSpace(text)
	p := Price{Text: text}
	if text == "" || strings.Contains(strings.ToLower(text), OnRequestToken) {
		return p
	}

	parts := strings.Fields(text)
	if len(parts) < 2 {
		return p
	}
	p.Currency = parts[0]
	if v, err := f.ParseFloat(parts[1]); err == nil {
		p.Amount = &v
	}
	return p
}
