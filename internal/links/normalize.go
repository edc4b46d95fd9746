// Package links canonicalizes URLs and reduces download-link lists to one
// entry per URL and per host.
package links

import (
	"errors"
	"net/url"
	"strings"
)

// ErrUnsupportedURL is returned for URLs that are not absolute http(s) URLs.
var ErrUnsupportedURL = errors.New("unsupported url")

// trackingParams are dropped from canonical URLs.
var trackingParams = []string{
	"utm_source",
	"utm_medium",
	"utm_campaign",
	"utm_term",
	"utm_content",
	"fbclid",
	"gclid",
}

// Canonical resolves raw against base (which may be empty), lowercases the
// host, strips tracking parameters and the fragment, and sorts the query.
func Canonical(base, raw string) (string, error) {
	u, err := resolve(base, strings.TrimSpace(raw))
	if err != nil {
		return "", err
	}
	return u.String(), nil
}

func resolve(base, raw string) (*url.URL, error) {
	if raw == "" {
		return nil, ErrUnsupportedURL
	}

	ref, err := url.Parse(raw)
	if err != nil {
		return nil, err
	}

	if base != "" {
		b, baseErr := url.Parse(base)
		if baseErr != nil {
			return nil, baseErr
		}
		ref = b.ResolveReference(ref)
	}

	if ref.Scheme != "http" && ref.Scheme != "https" {
		return nil, ErrUnsupportedURL
	}
	if ref.Hostname() == "" {
		return nil, ErrUnsupportedURL
	}

	ref.Host = strings.ToLower(ref.Host)
	ref.Fragment = ""
	ref.RawFragment = ""

	if ref.RawQuery != "" {
		query := ref.Query()
		for _, param := range trackingParams {
			query.Del(param)
		}
		ref.RawQuery = query.Encode()
	}

	return ref, nil
}

// Host returns the lowercase hostname of u without a leading "www.", or ""
// when u does not parse.
func Host(u string) string {
	parsed, err := url.Parse(u)
	if err != nil {
		return ""
	}
	return strings.TrimPrefix(strings.ToLower(parsed.Hostname()), "www.")
}

// Absolute resolves href against base, returning href unchanged when either
// fails to parse. Protocol-relative hrefs get https.
func Absolute(base, href string) string {
	href = strings.TrimSpace(href)
	if href == "" {
		return ""
	}
	if strings.HasPrefix(href, "//") {
		return "https:" + href
	}
	b, err := url.Parse(base)
	if err != nil {
		return href
	}
	ref, err := url.Parse(href)
	if err != nil {
		return href
	}
	return b.ResolveReference(ref).String()
}
