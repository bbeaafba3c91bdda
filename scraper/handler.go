package scraper

import (
	"io"
	"net/url"

	"github.com/rotisserie/eris"

	"inmo_dedup/config"
	"inmo_dedup/models"
	"inmo_dedup/normalize"
)

// Page is a parsed search results page.
type Page interface {
	MaxPageNumber() (int, error)
	Listings() []models.Fields
}

// Handler turns a portal's search page markup into raw listings.
type Handler interface {
	ID() string
	Parse(r io.Reader, category models.Category) (Page, error)
}

func NewHandler(siteCfg *config.SiteConfig, format normalize.NumberFormat) (Handler, error) {
	switch siteCfg.Handler {
	case "inmoclick", "":
		return NewInmoclickHandler(siteCfg, format)
	default:
		return nil, eris.Errorf("scraper: unknown handler %q for site %s", siteCfg.Handler, siteCfg.ID)
	}
}

type InmoclickHandler struct {
	cfg    *config.SiteConfig
	format normalize.NumberFormat
	base   *url.URL
}

func NewInmoclickHandler(siteCfg *config.SiteConfig, format normalize.NumberFormat) (*InmoclickHandler, error) {
	base, err := url.Parse(siteCfg.BaseURL)
	if err != nil {
		return nil, eris.Wrapf(err, "scraper: base url for %s", siteCfg.ID)
	}
	return &InmoclickHandler{cfg: siteCfg, format: format, base: base}, nil
}

func (h *InmoclickHandler) ID() string {
	return h.cfg.ID
}

func (h *InmoclickHandler) Parse(r io.Reader, category models.Category) (Page, error) {
	page, err := ParseSearchPage(r, category, h.format, h.base)
	if err != nil {
		return nil, err
	}
	page.source = h.cfg.ID
	if h.cfg.PageParam != "" {
		page.pageParam = h.cfg.PageParam
	}
	return page, nil
}
