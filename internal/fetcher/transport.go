package fetcher

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"time"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	"github.com/go-resty/resty/v2"
	"golang.org/x/net/proxy"
)

const (
	dialTimeout         = 10 * time.Second
	dialKeepAlive       = 30 * time.Second
	tlsHandshakeTimeout = 10 * time.Second
	idleConnTimeout     = 90 * time.Second
	maxIdleConns        = 64
	maxIdleConnsPerHost = 8
	maxRedirects        = 10
)

var browserHeaders = map[string]string{
	"Accept":                    "text/html,application/xhtml+xml,application/xml;q=0.9,image/webp,*/*;q=0.8",
	"Accept-Language":           "en-US,en;q=0.9",
	"Accept-Encoding":           "gzip, deflate, br",
	"Upgrade-Insecure-Requests": "1",
}

type clientKey struct {
	proxy  string
	bypass bool
}

// newTransport builds a keep-alive transport, optionally dialing through a
// SOCKS5 or HTTP proxy. Compression is handled by Decompress.
func newTransport(proxyURL string) (*http.Transport, error) {
	dialer := &net.Dialer{Timeout: dialTimeout, KeepAlive: dialKeepAlive}

	t := &http.Transport{
		DialContext:           dialer.DialContext,
		MaxIdleConns:          maxIdleConns,
		MaxIdleConnsPerHost:   maxIdleConnsPerHost,
		IdleConnTimeout:       idleConnTimeout,
		TLSHandshakeTimeout:   tlsHandshakeTimeout,
		ExpectContinueTimeout: time.Second,
		DisableCompression:    true,
	}

	if proxyURL == "" {
		return t, nil
	}

	u, err := url.Parse(proxyURL)
	if err != nil {
		return nil, fmt.Errorf("parse proxy %q: %w", proxyURL, err)
	}

	switch u.Scheme {
	case "socks5", "socks5h":
		d, err := proxy.FromURL(u, dialer)
		if err != nil {
			return nil, fmt.Errorf("socks proxy %q: %w", u.Host, err)
		}
		if cd, ok := d.(proxy.ContextDialer); ok {
			t.DialContext = cd.DialContext
		} else {
			t.DialContext = func(_ context.Context, network, addr string) (net.Conn, error) {
				return d.Dial(network, addr)
			}
		}
	case "http", "https":
		t.Proxy = http.ProxyURL(u)
	default:
		return nil, fmt.Errorf("unsupported proxy scheme %q", u.Scheme)
	}

	return t, nil
}

// newClient wraps a transport in a resty client. bypass adds the anti-bot
// TLS fingerprint and header set.
func newClient(proxyURL string, bypass bool) (*resty.Client, error) {
	transport, err := newTransport(proxyURL)
	if err != nil {
		return nil, err
	}

	var rt http.RoundTripper = transport
	if bypass {
		rt = cloudflarebp.AddCloudFlareByPass(transport)
	}

	client := resty.NewWithClient(&http.Client{Transport: rt})
	client.SetRedirectPolicy(resty.FlexibleRedirectPolicy(maxRedirects))
	client.SetHeaders(browserHeaders)

	return client, nil
}

// client returns the shared resty client for a proxy and bypass combination.
func (f *Fetcher) client(proxyURL string, bypass bool) (*resty.Client, error) {
	key := clientKey{proxy: proxyURL, bypass: bypass}

	f.clientsMu.Lock()
	defer f.clientsMu.Unlock()

	if c, ok := f.clients[key]; ok {
		return c, nil
	}
	c, err := newClient(proxyURL, bypass)
	if err != nil {
		return nil, err
	}
	f.clients[key] = c
	return c, nil
}
