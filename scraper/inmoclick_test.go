package scraper

import (
	"net/url"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"inmo_dedup/config"
	"inmo_dedup/models"
	"inmo_dedup/normalize"
)

func loadPage(t *testing.T, file string, category models.Category) *SearchPage {
	t.Helper()
	f, err := os.Open("testdata/" + file)
	require.NoError(t, err)
	defer f.Close()

	base, _ := url.Parse("https://www.inmoclick.com.ar")
	page, err := ParseSearchPage(f, category, normalize.SpanishFormat, base)
	require.NoError(t, err)
	return page
}

func TestSearchPage_MaxPageNumber(t *testing.T) {
	page := loadPage(t, "search_land.html", models.CategoryLand)
	n, err := page.MaxPageNumber()
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

func TestSearchPage_MaxPageNumberWithoutPagination(t *testing.T) {
	page := loadPage(t, "search_house.html", models.CategoryHouse)
	n, err := page.MaxPageNumber()
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestSearchPage_MaxPageNumberBadLink(t *testing.T) {
	html := `<span class="last"><a href="/terrenos?orden=1">x</a></span>`
	page, err := ParseSearchPage(strings.NewReader(html), models.CategoryLand, normalize.SpanishFormat, nil)
	require.NoError(t, err)
	_, err = page.MaxPageNumber()
	assert.Error(t, err)
}

func TestInmoclickHandler_MaxPageNumberUsesPageParam(t *testing.T) {
	h, err := NewInmoclickHandler(&config.SiteConfig{
		ID:        "inmoclick",
		BaseURL:   "https://www.inmoclick.com.ar",
		PageParam: "pagina",
	}, normalize.SpanishFormat)
	require.NoError(t, err)

	html := `<span class="last"><a href="/terrenos?page=2&pagina=7">x</a></span>`
	page, err := h.Parse(strings.NewReader(html), models.CategoryLand)
	require.NoError(t, err)
	n, err := page.MaxPageNumber()
	require.NoError(t, err)
	assert.Equal(t, 7, n)
}

func TestSearchItem_LandFields(t *testing.T) {
	page := loadPage(t, "search_land.html", models.CategoryLand)
	items := page.Items()
	require.Len(t, items, 3)

	f := items[0].Fields()
	assert.Equal(t, "1001", f[models.FieldRefID])
	assert.Equal(t, "1001", f[models.FieldRecentID])
	assert.Equal(t, "inmoclick", f[models.FieldSourceWeb])
	assert.Equal(t, "Maipu", f[models.FieldDistrict])
	assert.Equal(t, "Barrio Los Olivos", f[models.FieldNeighborhood])
	assert.Equal(t, "Mendoza", f[models.FieldProvince])
	assert.Equal(t, "https://www.inmoclick.com.ar/inmueble/1001-terreno-en-maipu", f[models.FieldURL])
	assert.Equal(t, "Terreno con todos los servicios", f[models.FieldDescription])
	assert.Equal(t, "1.200 m2", f[models.FieldTotalArea])
	assert.Equal(t, "Inmobiliaria Andes", f[models.FieldAgency])
	assert.Equal(t, "U$S 45.000", f[models.FieldPrice])
	assert.Equal(t, "U$S", f[models.FieldCurrency])
	assert.Equal(t, 45000.0, f[models.FieldAmount])
	assert.Equal(t, false, f[models.FieldHasGas])
	assert.Equal(t, true, f[models.FieldHasWater])
	assert.Equal(t, true, f[models.FieldHasElectricity])
	assert.Equal(t, models.CategoryLand, f[models.FieldPropertyType])

	assert.NotContains(t, f, models.FieldBedrooms)
	assert.NotContains(t, f, models.FieldFloorArea)
}

func TestSearchItem_OnRequestPrice(t *testing.T) {
	page := loadPage(t, "search_land.html", models.CategoryLand)
	f := page.Items()[1].Fields()

	assert.Equal(t, "Consultar precio", f[models.FieldPrice])
	assert.NotContains(t, f, models.FieldCurrency)
	assert.NotContains(t, f, models.FieldAmount)
	assert.Equal(t, "Dueño directo", f[models.FieldAgency])
	assert.Equal(t, "https://www.inmoclick.com.ar/inmueble/1002", f[models.FieldURL])
	assert.Equal(t, false, f[models.FieldHasWater])
}

func TestSearchItem_MissingAmenitiesOmitted(t *testing.T) {
	page := loadPage(t, "search_land.html", models.CategoryLand)
	f := page.Items()[2].Fields()

	assert.NotContains(t, f, models.FieldHasGas)
	assert.Equal(t, "", f[models.FieldDistrict])
}

func TestSearchItem_HouseFields(t *testing.T) {
	page := loadPage(t, "search_house.html", models.CategoryHouse)
	items := page.Items()
	require.Len(t, items, 1)

	f := items[0].Fields()
	assert.Equal(t, "3", f[models.FieldBedrooms])
	assert.Equal(t, "2", f[models.FieldBathrooms])
	assert.Equal(t, "180 m2", f[models.FieldFloorArea])
	assert.Equal(t, 95000000.0, f[models.FieldAmount])
	assert.NotContains(t, f, models.FieldHasGas)

	p, err := models.NewPropertyRecord(f)
	require.NoError(t, err)
	assert.Equal(t, models.CategoryHouse, p.Category)
	assert.Equal(t, "Godoy Cruz", p.District)
}
