package scraper

import (
	"io"
	"net/url"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/rotisserie/eris"

	"inmo_dedup/models"
	"inmo_dedup/normalize"
)

// SearchPage is one page of Inmoclick search results.
type SearchPage struct {
	doc       *goquery.Document
	category  models.Category
	format    normalize.NumberFormat
	base      *url.URL
	source    string
	pageParam string
}

// ParseSearchPage parses a search results page. base resolves relative
// listing links; it may be nil.
func ParseSearchPage(r io.Reader, category models.Category, format normalize.NumberFormat, base *url.URL) (*SearchPage, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, eris.Wrap(err, "scraper: parse html")
	}
	return &SearchPage{
		doc:       doc,
		category:  category,
		format:    format,
		base:      base,
		source:    "inmoclick",
		pageParam: "page",
	}, nil
}

// MaxPageNumber reads the page parameter of the "last page" link. A page
// without pagination is the only page.
func (p *SearchPage) MaxPageNumber() (int, error) {
	href, ok := p.doc.Find("span.last a").First().Attr("href")
	if !ok {
		return 1, nil
	}
	u, err := url.Parse(strings.TrimSpace(href))
	if err != nil {
		return 0, eris.Wrapf(err, "scraper: last page link %q", href)
	}
	n, err := strconv.Atoi(u.Query().Get(p.pageParam))
	if err != nil || n < 1 {
		return 0, eris.Errorf("scraper: last page link %q has no page number", href)
	}
	return n, nil
}

func (p *SearchPage) Items() []*SearchItem {
	var items []*SearchItem
	p.doc.Find("div.cont-articles article").Each(func(_ int, s *goquery.Selection) {
		items = append(items, &SearchItem{sel: s, page: p})
	})
	return items
}

// Listings returns the raw field map of every item on the page.
func (p *SearchPage) Listings() []models.Fields {
	items := p.Items()
	listings := make([]models.Fields, 0, len(items))
	for _, item := range items {
		listings = append(listings, item.Fields())
	}
	return listings
}

// SearchItem is one <article> of the results list.
type SearchItem struct {
	sel  *goquery.Selection
	page *SearchPage
}

func text(s *goquery.Selection) string {
	return strings.TrimSpace(s.First().Text())
}

func attr(s *goquery.Selection, name string) string {
	v, _ := s.Attr(name)
	return strings.TrimSpace(v)
}

func (i *SearchItem) RefID() string {
	return attr(i.sel.Find("a[name]").First(), "name")
}

func (i *SearchItem) District() string {
	return text(i.sel.Find("span[itemprop=addressLocality]"))
}

func (i *SearchItem) Neighborhood() string {
	return text(i.sel.Find("p[itemprop=streetAddress]"))
}

func (i *SearchItem) Province() string {
	return text(i.sel.Find("span[itemprop=addressRegion]"))
}

func (i *SearchItem) Price() normalize.Price {
	return normalize.ParsePrice(attr(i.sel, "precio"), i.page.format)
}

func (i *SearchItem) Description() string {
	return text(i.sel.Find("div.description-hover p"))
}

// Link is the href of the anchor following the first anchor of the hover
// box; the first one only opens the gallery.
func (i *SearchItem) Link() string {
	first := i.sel.Find("div.description-hover a").First()
	href := attr(first.NextFiltered("a"), "href")
	if href == "" {
		href = attr(first, "href")
	}
	if href == "" || i.page.base == nil {
		return href
	}
	ref, err := url.Parse(href)
	if err != nil {
		return href
	}
	return i.page.base.ResolveReference(ref).String()
}

func (i *SearchItem) TotalArea() string {
	return attr(i.sel, "sup_t")
}

func (i *SearchItem) CoveredArea() string {
	return attr(i.sel, "sup_c")
}

func (i *SearchItem) Bedrooms() string {
	return text(i.sel.Find("span.label-dormitorio"))
}

func (i *SearchItem) Bathrooms() string {
	return text(i.sel.Find("span.label-banio"))
}

// amenity reports whether the icon is present and not greyed out.
func (i *SearchItem) amenity(class string) (bool, bool) {
	icon := i.sel.Find("div." + class).First()
	if icon.Length() == 0 {
		return false, false
	}
	return !icon.HasClass("disable"), true
}

func (i *SearchItem) HasGas() (bool, bool)         { return i.amenity("icon-gas") }
func (i *SearchItem) HasWater() (bool, bool)       { return i.amenity("icon-agua") }
func (i *SearchItem) HasElectricity() (bool, bool) { return i.amenity("icon-luz") }

// Agency prefers the logo title over the plain text name.
func (i *SearchItem) Agency() string {
	brand := i.sel.Find("div.property-brand").First()
	if title := attr(brand.Find("img").First(), "title"); title != "" {
		return title
	}
	return text(brand.Find("p"))
}

// Fields assembles the raw attribute map. Room counts and covered area are
// only read for built categories, amenity flags only for land.
func (i *SearchItem) Fields() models.Fields {
	refID := i.RefID()
	f := models.Fields{
		models.FieldRefID:        refID,
		models.FieldRecentID:     refID,
		models.FieldSourceWeb:    i.page.source,
		models.FieldNeighborhood: i.Neighborhood(),
		models.FieldDistrict:     i.District(),
		models.FieldProvince:     i.Province(),
		models.FieldURL:          i.Link(),
		models.FieldDescription:  i.Description(),
		models.FieldTotalArea:    i.TotalArea(),
		models.FieldAgency:       i.Agency(),
		models.FieldPropertyType: i.page.category,
	}

	price := i.Price()
	f[models.FieldPrice] = price.Text
	if price.Currency != "" {
		f[models.FieldCurrency] = price.Currency
	}
	if price.Amount != nil {
		f[models.FieldAmount] = *price.Amount
	}

	if i.page.category.Built() {
		f[models.FieldBedrooms] = i.Bedrooms()
		f[models.FieldBathrooms] = i.Bathrooms()
		f[models.FieldFloorArea] = i.CoveredArea()
	}

	if i.page.category == models.CategoryLand {
		if v, ok := i.HasWater(); ok {
			f[models.FieldHasWater] = v
		}
		if v, ok := i.HasElectricity(); ok {
			f[models.FieldHasElectricity] = v
		}
		if v, ok := i.HasGas(); ok {
			f[models.FieldHasGas] = v
		}
	}

	return f
}
