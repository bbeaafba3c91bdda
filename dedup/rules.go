package dedup

import (
	"os"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"inmo_dedup/models"
)

// DefaultOnRequestMarker is the case-sensitive token the portal prints in
// place of a price.
const DefaultOnRequestMarker = "Consultar"

// Tolerance holds the open-window widths used for one category.
type Tolerance struct {
	FloorArea float64 `yaml:"floor_area"`
	TotalArea float64 `yaml:"total_area"`
	Price     float64 `yaml:"price"`
}

type Rules struct {
	OnRequestMarker string                        `yaml:"on_request_marker"`
	Categories      map[models.Category]Tolerance `yaml:"categories"`
}

func DefaultRules() Rules {
	built := Tolerance{FloorArea: 10, TotalArea: 20, Price: 40000}
	return Rules{
		OnRequestMarker: DefaultOnRequestMarker,
		Categories: map[models.Category]Tolerance{
			models.CategoryApartment: built,
			models.CategoryHouse:     built,
			models.CategoryLand:      {TotalArea: 20, Price: 40000},
		},
	}
}

// LoadRules reads overrides from a YAML file on top of DefaultRules. A missing
// file yields the defaults.
func LoadRules(path string) (Rules, error) {
	rules := DefaultRules()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return rules, nil
		}
		return rules, eris.Wrapf(err, "dedup: read rules %s", path)
	}

	var override Rules
	if err := yaml.Unmarshal(data, &override); err != nil {
		return rules, eris.Wrapf(err, "dedup: parse rules %s", path)
	}
	return rules.Merge(override)
}

// Merge applies non-zero values of o over r.
func (r Rules) Merge(o Rules) (Rules, error) {
	merged := Rules{
		OnRequestMarker: r.OnRequestMarker,
		Categories:      make(map[models.Category]Tolerance, len(r.Categories)),
	}
	for c, t := range r.Categories {
		merged.Categories[c] = t
	}
	if o.OnRequestMarker != "" {
		merged.OnRequestMarker = o.OnRequestMarker
	}
	for c, t := range o.Categories {
		if !c.Valid() {
			return r, eris.Wrapf(ErrUnsupportedCategory, "dedup: rules for %q", c)
		}
		base := merged.Categories[c]
		if t.FloorArea != 0 {
			base.FloorArea = t.FloorArea
		}
		if t.TotalArea != 0 {
			base.TotalArea = t.TotalArea
		}
		if t.Price != 0 {
			base.Price = t.Price
		}
		merged.Categories[c] = base
	}
	return merged, nil
}
