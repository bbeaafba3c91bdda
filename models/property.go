package models

import (
	"strings"
	"time"

	"github.com/rotisserie/eris"
)

var (
	ErrMissingField = eris.New("missing mandatory field")
	ErrInvalidField = eris.New("invalid field value")
)

type Category string

const (
	CategoryLand      Category = "land"
	CategoryApartment Category = "apartment"
	CategoryHouse     Category = "house"
)

// Categories lists the categories the portal publishes, in scrape order.
func Categories() []Category {
	return []Category{CategoryLand, CategoryApartment, CategoryHouse}
}

// ParseCategory accepts the plain value ("house"), the upper-case name
// ("HOUSE") and the qualified form older exports carry ("PropertyType.HOUSE").
func ParseCategory(s string) (Category, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.TrimPrefix(s, "propertytype.")
	switch c := Category(s); c {
	case CategoryLand, CategoryApartment, CategoryHouse:
		return c, nil
	}
	return "", eris.Wrapf(ErrInvalidField, "category %q", s)
}

func (c Category) Valid() bool {
	switch c {
	case CategoryLand, CategoryApartment, CategoryHouse:
		return true
	}
	return false
}

// Built reports whether the category describes a built structure, where room
// counts and covered area apply.
func (c Category) Built() bool {
	return c == CategoryApartment || c == CategoryHouse
}

// Raw field names as produced by the scraping adapter.
const (
	FieldRefID          = "ref_id"
	FieldNeighborhood   = "neighborhood"
	FieldDistrict       = "district"
	FieldProvince       = "province"
	FieldCurrency       = "currency"
	FieldAmount         = "amount"
	FieldPrice          = "price"
	FieldURL            = "url"
	FieldDescription    = "description"
	FieldPropertyType   = "property_type"
	FieldAgency         = "agency"
	FieldSourceWeb      = "source_web"
	FieldRecentID       = "recent_id"
	FieldScrapedDate    = "scrapped_date"
	FieldTotalArea      = "totalArea"
	FieldFloorArea      = "floorArea"
	FieldBedrooms       = "bedrooms"
	FieldBathrooms      = "bathrooms"
	FieldGarage         = "garage"
	FieldHasGas         = "has_gas"
	FieldHasWater       = "has_water"
	FieldHasElectricity = "has_electricity"
)

// AttributeOrder is the column order used for exports and Values.
func AttributeOrder() []string {
	return []string{
		FieldRefID,
		FieldNeighborhood,
		FieldDistrict,
		FieldProvince,
		FieldCurrency,
		FieldAmount,
		FieldPrice,
		FieldURL,
		FieldDescription,
		FieldPropertyType,
		FieldAgency,
		FieldSourceWeb,
		FieldRecentID,
		FieldScrapedDate,
		FieldTotalArea,
		FieldFloorArea, // covered area
		FieldBedrooms,
		FieldBathrooms,
		FieldGarage,
		FieldHasGas,
		FieldHasWater,
		FieldHasElectricity,
	}
}

func mandatoryFields() []string {
	return []string{FieldSourceWeb, FieldRecentID, FieldScrapedDate, FieldURL, FieldTotalArea, FieldDistrict}
}

// Fields is one listing as scraped: attribute name to raw value.
type Fields map[string]any

// PropertyRecord is one normalized listing.
type PropertyRecord struct {
	ID             string    `json:"id" db:"id"`
	RefID          string    `json:"ref_id" db:"ref_id"`
	Neighborhood   string    `json:"neighborhood" db:"neighborhood"`
	District       string    `json:"district" db:"district"`
	Province       string    `json:"province" db:"province"`
	Currency       string    `json:"currency" db:"currency"`
	Amount         *float64  `json:"amount" db:"amount"`
	Price          string    `json:"price" db:"price"`
	URL            string    `json:"url" db:"url"`
	Description    string    `json:"description" db:"description"`
	Category       Category  `json:"property_type" db:"property_type"`
	Agency         string    `json:"agency" db:"agency"`
	SourceWeb      string    `json:"source_web" db:"source_web"`
	RecentID       string    `json:"recent_id" db:"recent_id"`
	ScrapedAt      time.Time `json:"scrapped_date" db:"scraped_at"`
	TotalArea      string    `json:"total_area" db:"total_area"`
	TotalAreaFixed *float64  `json:"total_area_fixed" db:"total_area_fixed"`
	FloorArea      string    `json:"floor_area" db:"floor_area"`
	FloorAreaFixed *float64  `json:"floor_area_fixed" db:"floor_area_fixed"`
	Bedrooms       string    `json:"bedrooms" db:"bedrooms"`
	Bathrooms      string    `json:"bathrooms" db:"bathrooms"`
	Garage         string    `json:"garage" db:"garage"`
	HasGas         *bool     `json:"has_gas" db:"has_gas"`
	HasWater       *bool     `json:"has_water" db:"has_water"`
	HasElectricity *bool     `json:"has_electricity" db:"has_electricity"`
}

// NewPropertyRecord builds a record from scraped fields. Every declared
// attribute starts empty; unknown keys are ignored. The scrape date defaults
// to now. A missing mandatory attribute is an error wrapping ErrMissingField.
func NewPropertyRecord(fields Fields) (*PropertyRecord, error) {
	p := &PropertyRecord{ScrapedAt: time.Now()}

	strs := map[string]*string{
		FieldRefID:        &p.RefID,
		FieldNeighborhood: &p.Neighborhood,
		FieldDistrict:     &p.District,
		FieldProvince:     &p.Province,
		FieldCurrency:     &p.Currency,
		FieldPrice:        &p.Price,
		FieldURL:          &p.URL,
		FieldDescription:  &p.Description,
		FieldAgency:       &p.Agency,
		FieldSourceWeb:    &p.SourceWeb,
		FieldRecentID:     &p.RecentID,
		FieldTotalArea:    &p.TotalArea,
		FieldFloorArea:    &p.FloorArea,
		FieldBedrooms:     &p.Bedrooms,
		FieldBathrooms:    &p.Bathrooms,
		FieldGarage:       &p.Garage,
	}
	bools := map[string]**bool{
		FieldHasGas:         &p.HasGas,
		FieldHasWater:       &p.HasWater,
		FieldHasElectricity: &p.HasElectricity,
	}

	// Applied in AttributeOrder; the first bad attribute is the one reported.
	for _, name := range AttributeOrder() {
		v, ok := fields[name]
		if !ok {
			continue
		}
		if err := p.set(name, v, strs, bools); err != nil {
			return nil, err
		}
	}

	for _, name := range mandatoryFields() {
		if p.empty(name) {
			return nil, eris.Wrapf(ErrMissingField, "creating property: %s is needed", name)
		}
	}

	return p, nil
}

func (p *PropertyRecord) set(name string, v any, strs map[string]*string, bools map[string]**bool) error {
	if dst, ok := strs[name]; ok {
		if v == nil {
			return nil
		}
		s, ok := v.(string)
		if !ok {
			return eris.Wrapf(ErrInvalidField, "%s: want string, got %T", name, v)
		}
		*dst = s
		return nil
	}

	if dst, ok := bools[name]; ok {
		switch b := v.(type) {
		case nil:
		case bool:
			*dst = &b
		case *bool:
			*dst = b
		default:
			return eris.Wrapf(ErrInvalidField, "%s: want bool, got %T", name, v)
		}
		return nil
	}

	switch name {
	case FieldAmount:
		switch a := v.(type) {
		case nil:
		case float64:
			p.Amount = &a
		case *float64:
			p.Amount = a
		case int:
			f := float64(a)
			p.Amount = &f
		default:
			return eris.Wrapf(ErrInvalidField, "%s: want number, got %T", FieldAmount, v)
		}
	case FieldPropertyType:
		switch c := v.(type) {
		case nil:
		case Category:
			p.Category = c
		case string:
			parsed, err := ParseCategory(c)
			if err != nil {
				return err
			}
			p.Category = parsed
		default:
			return eris.Wrapf(ErrInvalidField, "%s: want category, got %T", FieldPropertyType, v)
		}
	case FieldScrapedDate:
		switch t := v.(type) {
		case time.Time:
			p.ScrapedAt = t
		case nil:
			p.ScrapedAt = time.Time{}
		default:
			return eris.Wrapf(ErrInvalidField, "%s: want time, got %T", FieldScrapedDate, v)
		}
	}
	return nil
}

func (p *PropertyRecord) empty(name string) bool {
	switch name {
	case FieldSourceWeb:
		return p.SourceWeb == ""
	case FieldRecentID:
		return p.RecentID == ""
	case FieldScrapedDate:
		return p.ScrapedAt.IsZero()
	case FieldURL:
		return p.URL == ""
	case FieldTotalArea:
		return p.TotalArea == ""
	case FieldDistrict:
		return p.District == ""
	}
	return false
}

// Clone returns a shallow copy; normalization passes replace pointer fields
// on the copy rather than writing through them.
func (p *PropertyRecord) Clone() *PropertyRecord {
	c := *p
	return &c
}

// Values returns the attribute values in AttributeOrder. Absent optional
// values are nil.
func (p *PropertyRecord) Values() []any {
	return []any{
		p.RefID,
		p.Neighborhood,
		p.District,
		p.Province,
		p.Currency,
		floatOrNil(p.Amount),
		p.Price,
		p.URL,
		p.Description,
		p.Category,
		p.Agency,
		p.SourceWeb,
		p.RecentID,
		p.ScrapedAt,
		p.TotalArea,
		p.FloorArea,
		p.Bedrooms,
		p.Bathrooms,
		p.Garage,
		boolOrNil(p.HasGas),
		boolOrNil(p.HasWater),
		boolOrNil(p.HasElectricity),
	}
}

func floatOrNil(f *float64) any {
	if f == nil {
		return nil
	}
	return *f
}

func boolOrNil(b *bool) any {
	if b == nil {
		return nil
	}
	return *b
}
