// Package dedup decides whether two listings describe the same property.
package dedup

import (
	"github.com/rotisserie/eris"

	"inmo_dedup/models"
)

var ErrUnsupportedCategory = eris.New("dedup: unsupported property category")

// Check names, also persisted as match reasons.
const (
	CheckCategory    = "same_category"
	CheckDistrict    = "same_district"
	CheckBedrooms    = "same_bedrooms"
	CheckBathrooms   = "same_bathrooms"
	CheckWater       = "same_water"
	CheckElectricity = "same_electricity"
	CheckGas         = "same_gas"
	CheckFloorArea   = "similar_floor_area"
	CheckTotalArea   = "similar_total_area"
	CheckPrice       = "similar_price"
)

// Decision is the verdict for one pair with the checks behind it.
type Decision struct {
	Duplicate bool
	Matched   []string
	Failed    []string
}

type check struct {
	name string
	ok   bool
}

// Engine applies Rules. It holds no mutable state and is safe for concurrent
// use.
type Engine struct {
	rules Rules
}

func NewEngine(rules Rules) *Engine {
	return &Engine{rules: rules}
}

func (e *Engine) Rules() Rules {
	return e.rules
}

var defaultEngine = NewEngine(DefaultRules())

// AreDuplicates uses DefaultRules.
func AreDuplicates(p1, p2 *models.PropertyRecord) (bool, error) {
	return defaultEngine.AreDuplicates(p1, p2)
}

func (e *Engine) AreDuplicates(p1, p2 *models.PropertyRecord) (bool, error) {
	d, err := e.Compare(p1, p2)
	if err != nil {
		return false, err
	}
	return d.Duplicate, nil
}

// Compare evaluates every rule of the shared category. Listings of different
// categories are never duplicates; a shared category without rules is an
// upstream data error and returns ErrUnsupportedCategory.
func (e *Engine) Compare(p1, p2 *models.PropertyRecord) (Decision, error) {
	if p1.Category != p2.Category {
		return Decision{Failed: []string{CheckCategory}}, nil
	}

	tol, ok := e.rules.Categories[p1.Category]
	if !ok {
		return Decision{}, eris.Wrapf(ErrUnsupportedCategory, "category %q", p1.Category)
	}

	var checks []check
	switch p1.Category {
	case models.CategoryApartment, models.CategoryHouse:
		checks = []check{
			{CheckBedrooms, p1.Bedrooms == p2.Bedrooms},
			{CheckDistrict, p1.District == p2.District},
			{CheckBathrooms, p1.Bathrooms == p2.Bathrooms},
			{CheckFloorArea, SimilarFloorArea(p1, p2, tol.FloorArea)},
			{CheckTotalArea, SimilarTotalArea(p1, p2, tol.TotalArea)},
			{CheckPrice, SimilarPrices(p1, p2, tol.Price, e.rules.OnRequestMarker)},
		}
	case models.CategoryLand:
		checks = []check{
			{CheckDistrict, p1.District == p2.District},
			{CheckWater, sameFlag(p1.HasWater, p2.HasWater)},
			{CheckElectricity, sameFlag(p1.HasElectricity, p2.HasElectricity)},
			{CheckGas, sameFlag(p1.HasGas, p2.HasGas)},
			{CheckTotalArea, SimilarTotalArea(p1, p2, tol.TotalArea)},
			{CheckPrice, SimilarPrices(p1, p2, tol.Price, e.rules.OnRequestMarker)},
		}
	default:
		return Decision{}, eris.Wrapf(ErrUnsupportedCategory, "category %q", p1.Category)
	}

	d := Decision{Duplicate: true, Matched: []string{CheckCategory}}
	for _, c := range checks {
		if c.ok {
			d.Matched = append(d.Matched, c.name)
		} else {
			d.Failed = append(d.Failed, c.name)
			d.Duplicate = false
		}
	}
	return d, nil
}
