package scraper

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
)

// maxPageBytes bounds a single search page download.
const maxPageBytes = 8 << 20

type Fetcher struct {
	client    *http.Client
	userAgent string
	maxBytes  int64
}

func NewFetcher(client *http.Client, userAgent string) *Fetcher {
	return &Fetcher{client: client, userAgent: userAgent, maxBytes: maxPageBytes}
}

func (f *Fetcher) Fetch(ctx context.Context, pageURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, eris.Wrap(err, "scraper: create request")
	}

	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")
	req.Header.Set("Accept-Language", "es-AR,es;q=0.9")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, eris.Wrapf(err, "scraper: fetch %s", pageURL)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, eris.Errorf("scraper: %s: unexpected status %d", pageURL, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBytes+1))
	if err != nil {
		return nil, eris.Wrapf(err, "scraper: read %s", pageURL)
	}
	if int64(len(body)) > f.maxBytes {
		return nil, eris.Errorf("scraper: %s: page larger than %d bytes", pageURL, f.maxBytes)
	}
	return body, nil
}

// PageURL joins a search path onto the base URL and sets the page parameter.
func PageURL(base, search, pageParam string, page int) (string, error) {
	b, err := url.Parse(base)
	if err != nil {
		return "", eris.Wrapf(err, "scraper: base url %q", base)
	}
	ref, err := url.Parse(strings.TrimSpace(search))
	if err != nil {
		return "", eris.Wrapf(err, "scraper: search path %q", search)
	}
	u := b.ResolveReference(ref)
	q := u.Query()
	q.Set(pageParam, strconv.Itoa(page))
	u.RawQuery = q.Encode()
	return u.String(), nil
}
