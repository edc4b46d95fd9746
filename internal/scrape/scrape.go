// Package scrape holds the selector and text helpers shared by the source
// adapters.
package scrape

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

var whitespace = regexp.MustCompile(`\s+`)

// Parse builds a document from an HTML body. An empty body gives an empty
// document, so selectors simply match nothing.
func Parse(body string) (*goquery.Document, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	return doc, nil
}

// Clean replaces non-breaking spaces, collapses whitespace runs and trims.
func Clean(s string) string {
	s = strings.ReplaceAll(s, "\u00a0", " ")
	return strings.TrimSpace(whitespace.ReplaceAllString(s, " "))
}

// Text is the cleaned text of sel.
func Text(sel *goquery.Selection) string {
	return Clean(sel.Text())
}

// Attr returns the first non-empty attribute of the first element in sel,
// trying names in order.
func Attr(sel *goquery.Selection, names ...string) string {
	first := sel.First()
	for _, name := range names {
		if v := strings.TrimSpace(first.AttrOr(name, "")); v != "" {
			return v
		}
	}
	return ""
}

// FirstText returns the cleaned text of the first selector that yields any.
func FirstText(root *goquery.Selection, selectors ...string) string {
	for _, s := range selectors {
		if v := Text(root.Find(s).First()); v != "" {
			return v
		}
	}
	return ""
}

// Submatch returns the cleaned first capture group of re in text.
func Submatch(re *regexp.Regexp, text string) string {
	m := re.FindStringSubmatch(text)
	if len(m) < 2 {
		return ""
	}
	return Clean(m[1])
}

var srcsetWidth = regexp.MustCompile(`(?i)^(\S+)\s+(\d+)w$`)

// BestFromSrcset picks the widest candidate of a srcset attribute. Entries
// without a width descriptor only count when nothing else matched.
func BestFromSrcset(srcset string) string {
	best, bestW := "", -1
	for _, part := range strings.Split(srcset, ",") {
		seg := strings.TrimSpace(part)
		if seg == "" {
			continue
		}
		if m := srcsetWidth.FindStringSubmatch(seg); m != nil {
			w, err := strconv.Atoi(m[2])
			if err == nil && w > bestW {
				best, bestW = m[1], w
			}
			continue
		}
		if best == "" && (strings.HasPrefix(seg, "http://") || strings.HasPrefix(seg, "https://")) {
			best = strings.Fields(seg)[0]
		}
	}
	return best
}

// BestImage returns the best URL for an img element, looking at lazy-load
// srcsets first, then the plain source attributes.
func BestImage(img *goquery.Selection) string {
	if img.Length() == 0 {
		return ""
	}
	if u := BestFromSrcset(Attr(img, "data-lazy-srcset", "data-srcset", "srcset")); u != "" {
		return FixScheme(u)
	}
	return FixScheme(Attr(img, "data-lazy-src", "data-src", "src"))
}

// FixScheme turns protocol-relative URLs into https ones.
func FixScheme(u string) string {
	if strings.HasPrefix(u, "//") {
		return "https:" + u
	}
	return u
}

var steamStorePattern = regexp.MustCompile(`(?i)https?://store\.steampowered\.com/[\w\-/?&=%#]+`)

// SteamLink returns the Steam store link of a page, falling back to a raw
// text search of html.
func SteamLink(doc *goquery.Document, html string) string {
	if href := Attr(doc.Find(`a[href*="store.steampowered.com"]`), "href"); href != "" {
		return FixScheme(href)
	}
	return steamStorePattern.FindString(html)
}

// Split breaks a comma separated list into cleaned, non-empty parts.
func Split(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if v := Clean(part); v != "" {
			out = append(out, v)
		}
	}
	return out
}
