package dedup

import (
	"errors"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"inmo_dedup/models"
)

func f(v float64) *float64 { return &v }
func b(v bool) *bool        { return &v }

func apartment() *models.PropertyRecord {
	return &models.PropertyRecord{
		ID:             "apt-1",
		Category:       models.CategoryApartment,
		District:       "Ciudad",
		Bedrooms:       "2",
		Bathrooms:      "1",
		FloorAreaFixed: f(70),
		TotalAreaFixed: f(80),
		Price:          "U$S 95.000",
		Amount:         f(95000),
	}
}

func land() *models.PropertyRecord {
	return &models.PropertyRecord{
		ID:             "land-1",
		Category:       models.CategoryLand,
		District:       "Lujan de Cuyo",
		HasWater:       b(true),
		HasElectricity: b(true),
		HasGas:         b(false),
		TotalAreaFixed: f(1000),
		Price:          "U$S 30.000",
		Amount:         f(30000),
	}
}

func TestAreDuplicates_IdenticalApartments(t *testing.T) {
	ok, err := AreDuplicates(apartment(), apartment())
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestAreDuplicates_HouseBranchReachable(t *testing.T) {
	p1, p2 := apartment(), apartment()
	p1.Category, p2.Category = models.CategoryHouse, models.CategoryHouse
	ok, err := AreDuplicates(p1, p2)
	require.NoError(t, err)
	assert.True(t, ok)

	p2.Bathrooms = "2"
	ok, err = AreDuplicates(p1, p2)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestAreDuplicates_LandBranchReachable(t *testing.T) {
	ok, err := AreDuplicates(land(), land())
	require.NoError(t, err)
	assert.True(t, ok)

	p2 := land()
	p2.HasGas = b(true)
	ok, err = AreDuplicates(land(), p2)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestAreDuplicates_BuiltTolerances(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(p *models.PropertyRecord)
		want   bool
	}{
		{"floor area inside window", func(p *models.PropertyRecord) { p.FloorAreaFixed = f(79.9) }, true},
		{"floor area on boundary", func(p *models.PropertyRecord) { p.FloorAreaFixed = f(80) }, false},
		{"total area inside window", func(p *models.PropertyRecord) { p.TotalAreaFixed = f(60.5) }, true},
		{"total area on boundary", func(p *models.PropertyRecord) { p.TotalAreaFixed = f(100) }, false},
		{"price inside window", func(p *models.PropertyRecord) { p.Amount = f(134999) }, true},
		{"price on boundary", func(p *models.PropertyRecord) { p.Amount = f(135000) }, false},
		{"different bedrooms", func(p *models.PropertyRecord) { p.Bedrooms = "3" }, false},
		{"different district", func(p *models.PropertyRecord) { p.District = "Godoy Cruz" }, false},
		{"missing floor area", func(p *models.PropertyRecord) { p.FloorAreaFixed = nil }, false},
		{"missing amount", func(p *models.PropertyRecord) { p.Amount = nil }, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p2 := apartment()
			tt.mutate(p2)
			ok, err := AreDuplicates(apartment(), p2)
			require.NoError(t, err)
			assert.Equal(t, tt.want, ok)
		})
	}
}

func TestAreDuplicates_OnRequestPriceEscapes(t *testing.T) {
	p1, p2 := apartment(), apartment()
	p2.Price = "Consultar precio"
	p2.Amount = nil
	p1.Amount = f(1)

	ok, err := AreDuplicates(p1, p2)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = AreDuplicates(p2, p1)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestAreDuplicates_OnRequestMarkerIsCaseSensitive(t *testing.T) {
	p1, p2 := apartment(), apartment()
	p2.Price = "consultar"
	p2.Amount = f(500000)

	ok, err := AreDuplicates(p1, p2)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestAreDuplicates_LandTotalAreaBoundary(t *testing.T) {
	p2 := land()
	p2.TotalAreaFixed = f(1020)

	ok, err := AreDuplicates(land(), p2)
	require.NoError(t, err)
	assert.False(t, ok)

	p2.TotalAreaFixed = f(1019.99)
	ok, err = AreDuplicates(land(), p2)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestAreDuplicates_CategoryMismatch(t *testing.T) {
	house := land()
	house.Category = models.CategoryHouse

	ok, err := AreDuplicates(house, land())
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestAreDuplicates_CategoryMismatchWinsOverUnknown(t *testing.T) {
	odd := land()
	odd.Category = "office"

	ok, err := AreDuplicates(odd, land())
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestAreDuplicates_UnsupportedCategory(t *testing.T) {
	p1, p2 := land(), land()
	p1.Category, p2.Category = "office", "office"

	_, err := AreDuplicates(p1, p2)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnsupportedCategory))
}

func TestCompare_Reasons(t *testing.T) {
	p2 := apartment()
	p2.Bedrooms = "3"

	d, err := defaultEngine.Compare(apartment(), p2)
	require.NoError(t, err)
	assert.False(t, d.Duplicate)
	assert.Equal(t, []string{CheckBedrooms}, d.Failed)
	assert.Contains(t, d.Matched, CheckCategory)
	assert.Contains(t, d.Matched, CheckPrice)
}

func TestEngine_CustomRules(t *testing.T) {
	rules, err := DefaultRules().Merge(Rules{
		Categories: map[models.Category]Tolerance{models.CategoryLand: {TotalArea: 100}},
	})
	require.NoError(t, err)
	e := NewEngine(rules)

	p2 := land()
	p2.TotalAreaFixed = f(1050)
	ok, err := e.AreDuplicates(land(), p2)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 40000.0, e.Rules().Categories[models.CategoryLand].Price)
}

func randomize(r *rand.Rand, p *models.PropertyRecord) {
	pick := func(opts ...string) string { return opts[r.Intn(len(opts))] }
	p.District = pick("Ciudad", "Godoy Cruz")
	p.Bedrooms = pick("1", "2")
	p.Bathrooms = pick("1", "2")
	p.FloorAreaFixed = f(60 + float64(r.Intn(30)))
	p.TotalAreaFixed = f(70 + float64(r.Intn(50)))
	p.Amount = f(80000 + float64(r.Intn(8))*10000)
	p.Price = pick("U$S", "Consultar precio", "U$S")
	p.HasGas = b(r.Intn(2) == 0)
	p.HasWater = b(r.Intn(2) == 0)
	p.HasElectricity = b(r.Intn(2) == 0)
	if r.Intn(10) == 0 {
		p.TotalAreaFixed = nil
	}
}

func TestAreDuplicates_Symmetric(t *testing.T) {
	r := rand.New(rand.NewSource(42))
	categories := models.Categories()

	for i := 0; i < 2000; i++ {
		p1, p2 := &models.PropertyRecord{}, &models.PropertyRecord{}
		randomize(r, p1)
		randomize(r, p2)
		p1.Category = categories[r.Intn(len(categories))]
		p2.Category = p1.Category
		if r.Intn(5) == 0 {
			p2.Category = categories[r.Intn(len(categories))]
		}

		forward, err := AreDuplicates(p1, p2)
		require.NoError(t, err)
		backward, err := AreDuplicates(p2, p1)
		require.NoError(t, err)
		require.Equal(t, forward, backward, "pair %d: %+v vs %+v", i, p1, p2)
	}
}
