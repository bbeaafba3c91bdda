package httputil

import (
	"crypto/tls"
	"net/http"
	"net/url"

	"github.com/rotisserie/eris"

	"inmo_dedup/config"
)

type Clients struct {
	Scraping *http.Client // proxied when PROXY_URL is set, for the portal
}

func NewClients(cfg config.ScraperConfig) (*Clients, error) {
	transport := &http.Transport{
		Proxy:             http.ProxyFromEnvironment,
		ForceAttemptHTTP2: false,
		TLSNextProto:      make(map[string]func(string, *tls.Conn) http.RoundTripper),
	}

	if cfg.ProxyURL != "" {
		proxyURL, err := url.Parse(cfg.ProxyURL)
		if err != nil {
			return nil, eris.Wrap(err, "httputil: parse proxy url")
		}
		transport.Proxy = http.ProxyURL(proxyURL)
	}

	scraping := &http.Client{
		Timeout:   cfg.Timeout,
		Transport: transport,
	}

	return &Clients{Scraping: scraping}, nil
}
