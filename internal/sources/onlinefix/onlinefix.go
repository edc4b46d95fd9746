// Package onlinefix scrapes online-fix.me. Pages are served in windows-1251
// and carry the update metadata the correlation index is built from.
package onlinefix

import (
	"context"
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/rockaxx/freegames/internal/fetcher"
	"github.com/rockaxx/freegames/internal/game"
	"github.com/rockaxx/freegames/internal/links"
	"github.com/rockaxx/freegames/internal/logger"
	"github.com/rockaxx/freegames/internal/scrape"
	"github.com/rockaxx/freegames/internal/sources"
)

const (
	homepage = "https://online-fix.me/"
	charset  = "windows-1251"
)

var releasePattern = regexp.MustCompile(`(?i)Релиз игры:\s*([0-9.]+)`)

// Tried in order against each text block; the bare four-part number is the
// last resort for pages that only print the build.
var versionPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\bupdated\b[^.]*?\bto\b[^.]*?\bversion\b\s*([0-9][\w.\-]+)`),
	regexp.MustCompile(`(?i)\bversion[:\s-]*([0-9][\w.\-]+)`),
	regexp.MustCompile(`(?i)обновлен\p{L}*[^.]*?\sдо\s[^.]*?верси[ия]?\s*([0-9][\w.\-]+)`),
	regexp.MustCompile(`(?i)версия[:\s-]*([0-9][\w.\-]+)`),
	regexp.MustCompile(`\b(\d+\.\d+\.\d+\.\d+)\b`),
}

// Adapter scrapes OnlineFix.
type Adapter struct {
	sources.Base
}

var _ sources.Adapter = (*Adapter)(nil)

// New creates the adapter.
func New(f sources.PageFetcher, s sources.Settings, log logger.Logger) *Adapter {
	return &Adapter{Base: sources.NewBase(game.OnlineFix, f, fetcher.Options{Charset: charset}, s, log)}
}

func (a *Adapter) Source() game.Source { return game.OnlineFix }
func (a *Adapter) Hosts() []string     { return []string{"online-fix.me"} }
func (a *Adapter) Homepage() string    { return homepage }

// SearchURL is the site search page for query.
func SearchURL(query string) string {
	return homepage + "index.php?do=search&subaction=search&story=" + url.QueryEscape(query)
}

// Search reads the search result articles.
func (a *Adapter) Search(ctx context.Context, query string) ([]game.Stub, error) {
	pageURL := SearchURL(query)
	doc, _, err := a.Document(ctx, pageURL)
	if err != nil {
		return nil, err
	}
	return parseArticles(doc.Find(".news-search .article"), pageURL), nil
}

// Listing reads the news articles of a listing page.
func (a *Adapter) Listing(ctx context.Context, pageURL string) ([]game.Stub, error) {
	doc, _, err := a.Document(ctx, pageURL)
	if err != nil {
		return nil, err
	}
	return parseArticles(doc.Find(".article"), pageURL), nil
}

func parseArticles(articles *goquery.Selection, pageURL string) []game.Stub {
	var stubs []game.Stub
	articles.Each(func(_ int, art *goquery.Selection) {
		link := art.Find("a.big-link").First()
		href := link.AttrOr("href", "")
		title := scrape.Text(art.Find("h2.title").First())
		if title == "" {
			title = scrape.Text(link)
		}
		if href == "" || title == "" {
			return
		}

		img := scrape.Attr(art.Find("div.image img[data-src]"), "data-src")
		if img == "" {
			img = scrape.Attr(art.Find("div.image img"), "src")
		}

		stubs = append(stubs, game.Stub{
			Source:    game.OnlineFix,
			Title:     title,
			URL:       links.Absolute(pageURL, href),
			Thumbnail: links.Absolute(pageURL, img),
		})
	})
	return sources.Dedupe(stubs)
}

// Detail reads the news page.
func (a *Adapter) Detail(ctx context.Context, stub game.Stub) (game.Record, error) {
	doc, body, err := a.Document(ctx, stub.URL)
	if err != nil {
		return game.Record{}, err
	}
	return parseDetail(doc, body, stub), nil
}

func parseDetail(doc *goquery.Document, body string, stub game.Stub) game.Record {
	var ex scrape.Extraction
	rec := game.Record{Stub: stub}

	rec.Title = ex.Field(scrape.FieldTitle, scrape.FirstText(doc.Selection, "#news-title", "h1.title, h2.title"))

	poster := scrape.Attr(doc.Find("div.image img[data-src]"), "data-src")
	if poster == "" {
		poster = scrape.Attr(doc.Find("div.image img"), "src")
	}
	rec.Poster = ex.Field(scrape.FieldPoster, links.Absolute(stub.URL, poster))
	rec.Description = ex.Field(scrape.FieldDescription, scrape.Text(doc.Find("div.preview-text")))

	article := doc.Find(`[itemprop="articleBody"]`)
	releaseText := article.Text()
	if strings.TrimSpace(releaseText) == "" {
		releaseText = doc.Find("body").Text()
	}
	rec.ReleaseDate = ex.Field(scrape.FieldReleaseDate, scrape.Submatch(releasePattern, releaseText))

	var shots []string
	doc.Find(`[itemprop="articleBody"] img, .entry-content img, figure img`).Each(func(_ int, img *goquery.Selection) {
		if src := img.AttrOr("src", ""); src != "" {
			shots = append(shots, links.Absolute(stub.URL, src))
		}
	})
	rec.Screenshots = ex.List(scrape.FieldScreenshots, shots)

	rec.Trailer = ex.Field(scrape.FieldTrailer,
		scrape.FixScheme(scrape.Attr(doc.Find(`iframe[src*="youtube"], iframe[src*="streamable"]`), "src")))

	rec.Version = ex.Field(scrape.FieldVersion, ExtractVersion(doc, body))

	return sources.Finish(stub, rec, &ex)
}

// ExtractVersion searches the edit note, the article body, the content
// area, the whole body and finally the raw HTML for a version number.
func ExtractVersion(doc *goquery.Document, body string) string {
	blocks := []string{
		doc.Find(".edited-block, .edit").Text(),
		doc.Find(`[itemprop="articleBody"]`).Text(),
		doc.Find(".single-content, .entry-content, article").Text(),
		doc.Find("body").Text(),
		body,
	}

	for _, block := range blocks {
		text := scrape.Clean(block)
		if text == "" {
			continue
		}
		for _, re := range versionPatterns {
			if m := re.FindStringSubmatch(text); m != nil {
				return strings.TrimRight(m[1], ".-")
			}
		}
	}
	return ""
}
