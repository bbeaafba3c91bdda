package normalize

import (
	"strings"

	"inmo_dedup/models"
)

// DisabledSentinel marks an area the listing type does not have.
const DisabledSentinel = "disable"

var areaUnits = []string{"mts2", "m2", "m"}

// NormalizeArea parses an area such as "1.234 m2" or "350,5 mts2". The portal
// sometimes prints a real decimal point, so a thousands separator exactly
// three characters from the end is read as the decimal separator. Anything
// that still fails to parse yields nil.
func NormalizeArea(raw string, f NumberFormat) *float64 {
	s := raw
	for _, unit := range areaUnits {
		s = strings.ReplaceAll(s, unit, "")
	}
	s = strings.TrimSpace(s)

	r := []rune(s)
	if len(r) >= 3 && r[len(r)-3] == f.Thousands {
		r[len(r)-3] = f.Decimal
		s = string(r)
	}

	v, err := f.ParseFloat(s)
	if err != nil {
		return nil
	}
	return &v
}

// CleanTotalArea returns copies of records with TotalAreaFixed set. Rows
// whose raw total area is the "disable" sentinel are left out.
func CleanTotalArea(records []*models.PropertyRecord, f NumberFormat) []*models.PropertyRecord {
	return cleanArea(records, f,
		func(p *models.PropertyRecord) string { return p.TotalArea },
		func(p *models.PropertyRecord, v *float64) { p.TotalAreaFixed = v },
	)
}

// CleanFloorArea is CleanTotalArea for the covered area.
func CleanFloorArea(records []*models.PropertyRecord, f NumberFormat) []*models.PropertyRecord {
	return cleanArea(records, f,
		func(p *models.PropertyRecord) string { return p.FloorArea },
		func(p *models.PropertyRecord, v *float64) { p.FloorAreaFixed = v },
	)
}

// CleanAreas runs both passes.
func CleanAreas(records []*models.PropertyRecord, f NumberFormat) []*models.PropertyRecord {
	return CleanFloorArea(CleanTotalArea(records, f), f)
}

func cleanArea(
	records []*models.PropertyRecord,
	f NumberFormat,
	raw func(*models.PropertyRecord) string,
	set func(*models.PropertyRecord, *float64),
) []*models.PropertyRecord {
	out := make([]*models.PropertyRecord, 0, len(records))
	for _, p := range records {
		value := raw(p)
		if value == DisabledSentinel {
			continue
		}
		c := p.Clone()
		set(c, NormalizeArea(value, f))
		out = append(out, c)
	}
	return out
}
