// Package repackgames scrapes repack-games.com, which sits behind an anti-bot
// wall and needs the bypass transport.
package repackgames

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
	host     = "repack-games.com"
	homepage = "https://repack-games.com/"
)

var (
	publishedPrefix = regexp.MustCompile(`(?i)^PUBLISHED\s*On\s*-?\s*`)
	storagePrefix   = regexp.MustCompile(`(?i)^Storage\s*:\s*`)
	httpLink        = regexp.MustCompile(`(?i)^https?://`)
)

// Adapter scrapes RepackGames.
type Adapter struct {
	sources.Base
}

var _ sources.Adapter = (*Adapter)(nil)

// New creates the adapter.
func New(f sources.PageFetcher, s sources.Settings, log logger.Logger) *Adapter {
	return &Adapter{Base: sources.NewBase(game.RepackGames, f, fetcher.Options{Bypass: true}, s, log)}
}

func (a *Adapter) Source() game.Source { return game.RepackGames }
func (a *Adapter) Hosts() []string     { return []string{host} }
func (a *Adapter) Homepage() string    { return homepage }

// SearchURL is the search page for query.
func SearchURL(query string) string {
	return homepage + "?s=" + url.QueryEscape(query)
}

// Search reads every list item that links back into the site. The search
// template has no stable post class, so any li counts.
func (a *Adapter) Search(ctx context.Context, query string) ([]game.Stub, error) {
	doc, _, err := a.Document(ctx, SearchURL(query))
	if err != nil {
		return nil, err
	}

	var stubs []game.Stub
	doc.Find("li").Each(func(_ int, li *goquery.Selection) {
		href := scrape.Attr(li.Find("a"), "href")
		if !strings.Contains(href, host) {
			return
		}
		title := scrape.Text(li.Find("h2"))
		if title == "" {
			title = scrape.Attr(li.Find("img"), "alt")
		}
		if stub, ok := newStub(li, href, title); ok {
			stubs = append(stubs, stub)
		}
	})

	return sources.Dedupe(stubs), nil
}

// Listing reads li.post entries of the homepage or a category page.
func (a *Adapter) Listing(ctx context.Context, pageURL string) ([]game.Stub, error) {
	doc, _, err := a.Document(ctx, pageURL)
	if err != nil {
		return nil, err
	}

	var stubs []game.Stub
	doc.Find("li.post").Each(func(_ int, li *goquery.Selection) {
		href := links.Absolute(pageURL, scrape.Attr(li.Find("a"), "href"))
		title := scrape.Text(li.Find("h2"))
		if title == "" {
			title = scrape.Attr(li.Find("img"), "title")
		}
		if title == "" {
			title = li.AttrOr("id", "")
		}
		if stub, ok := newStub(li, href, title); ok {
			stubs = append(stubs, stub)
		}
	})

	return sources.Dedupe(stubs), nil
}

func newStub(li *goquery.Selection, href, title string) (game.Stub, bool) {
	if href == "" || title == "" {
		return game.Stub{}, false
	}

	img := scrape.Attr(li.Find("img[data-src]"), "data-src")
	if img == "" {
		img = scrape.Attr(li.Find("img"), "src")
	}

	var tags []string
	for _, sel := range []string{".artbtn-category a", ".link-author a", ".time-article a"} {
		if v := scrape.Text(li.Find(sel)); v != "" {
			tags = append(tags, v)
		}
	}

	return game.Stub{
		Source:    game.RepackGames,
		Title:     title,
		URL:       href,
		Thumbnail: scrape.FixScheme(img),
		Tags:      tags,
	}, true
}

// Detail reads the article page.
func (a *Adapter) Detail(ctx context.Context, stub game.Stub) (game.Record, error) {
	doc, _, err := a.Document(ctx, stub.URL)
	if err != nil {
		return game.Record{}, err
	}
	return parseDetail(doc, stub), nil
}

func parseDetail(doc *goquery.Document, stub game.Stub) game.Record {
	var ex scrape.Extraction
	rec := game.Record{Stub: stub}

	rec.Title = ex.Field(scrape.FieldTitle, scrape.Text(doc.Find("h1.article-title, h1.entry-title").First()))
	rec.Poster = ex.Field(scrape.FieldPoster,
		links.Absolute(stub.URL, scrape.Attr(doc.Find(".media-single-content img"), "src")))
	rec.Description = ex.Field(scrape.FieldDescription, scrape.Text(doc.Find(".entry p").First()))

	published := scrape.Text(doc.Find(`div.game-info h3:contains("PUBLISHED")`).First())
	rec.ReleaseDate = ex.Field(scrape.FieldReleaseDate, publishedPrefix.ReplaceAllString(published, ""))

	storage := scrape.Text(doc.Find(`li:contains("Storage")`).Last())
	rec.Size = ex.Field(scrape.FieldSize, storagePrefix.ReplaceAllString(storage, ""))

	var shots []string
	doc.Find("#gallery-1 img").Each(func(_ int, img *goquery.Selection) {
		if src := scrape.Attr(img, "data-src", "src"); src != "" {
			shots = append(shots, links.Absolute(stub.URL, src))
		}
	})
	rec.Screenshots = ex.List(scrape.FieldScreenshots, shots)

	rec.Trailer = ex.Field(scrape.FieldTrailer, scrape.FixScheme(scrape.Attr(doc.Find(`iframe[src*="youtube"]`), "src")))

	// Button labels are decorative; the deduper labels links by host.
	var downloads []game.DownloadLink
	doc.Find("a.enjoy-css").Each(func(_ int, a *goquery.Selection) {
		if href := strings.TrimSpace(a.AttrOr("href", "")); httpLink.MatchString(href) {
			downloads = append(downloads, game.DownloadLink{URL: href})
		}
	})
	if len(downloads) == 0 {
		ex.Miss(scrape.FieldDownloads)
	}
	rec.DownloadLinks = downloads

	return sources.Finish(stub, rec, &ex)
}
