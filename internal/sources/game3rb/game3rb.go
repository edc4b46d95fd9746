// Package game3rb scrapes game3rb.com.
package game3rb

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

const homepage = "https://game3rb.com/"

// The summary box is flattened to one line; each value runs until the next
// known label.
var (
	sizePattern      = regexp.MustCompile(`(?i)Size:\s*([0-9.]+\s*(?:GB|MB))`)
	genrePattern     = regexp.MustCompile(`(?is)Genre:\s*(.+?)\s*(?:Developer|Publisher|Release|ALL|$)`)
	developerPattern = regexp.MustCompile(`(?i)Developer:\s*(.+?)\s*(?:Publisher|Release|ALL|$)`)
	publisherPattern = regexp.MustCompile(`(?i)Publisher:\s*(.+?)\s*(?:Release|ALL|$)`)
	releasePattern   = regexp.MustCompile(`(?i)Release Date:\s*([0-9]{1,2}\s+\w+,\s*[0-9]{4})`)
)

// Adapter scrapes Game3RB.
type Adapter struct {
	sources.Base
}

var _ sources.Adapter = (*Adapter)(nil)

// New creates the adapter.
func New(f sources.PageFetcher, s sources.Settings, log logger.Logger) *Adapter {
	return &Adapter{Base: sources.NewBase(game.Game3RB, f, fetcher.Options{}, s, log)}
}

func (a *Adapter) Source() game.Source { return game.Game3RB }
func (a *Adapter) Hosts() []string     { return []string{"game3rb.com"} }
func (a *Adapter) Homepage() string    { return homepage }

// SearchURL is the search page for query.
func SearchURL(query string) string {
	return homepage + "?s=" + url.QueryEscape(query)
}

// Search reads the search result posts.
func (a *Adapter) Search(ctx context.Context, query string) ([]game.Stub, error) {
	return a.Listing(ctx, SearchURL(query))
}

// Listing reads article cards. Articles with more than one title are
// aggregate widgets, not games, and are skipped.
func (a *Adapter) Listing(ctx context.Context, pageURL string) ([]game.Stub, error) {
	doc, _, err := a.Document(ctx, pageURL)
	if err != nil {
		return nil, err
	}

	var stubs []game.Stub
	doc.Find("article.post-hentry").Each(func(_ int, art *goquery.Selection) {
		if art.Find("h3.entry-title").Length() != 1 {
			return
		}
		link := art.Find("h3.entry-title a").First()
		title := scrape.Text(link)
		href := link.AttrOr("href", "")
		if title == "" || href == "" {
			return
		}

		img := scrape.Attr(art.Find("img.entry-image"), "src")
		if img == "" {
			img = scrape.Attr(art.Find("img.lazyload"), "data-src")
		}

		stubs = append(stubs, game.Stub{
			Source:    game.Game3RB,
			Title:     title,
			URL:       links.Absolute(pageURL, href),
			Thumbnail: links.Absolute(pageURL, img),
		})
	})

	return sources.Dedupe(stubs), nil
}

// Detail reads the post page.
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

	rec.Title = ex.Field(scrape.FieldTitle, scrape.FirstText(doc.Selection, "h1.post-title", "h3.entry-title"))

	poster := scrape.Attr(doc.Find("img.entry-image"), "src")
	if poster == "" {
		poster = scrape.Attr(doc.Find(`img[fetchpriority="high"]`), "src")
	}
	rec.Poster = ex.Field(scrape.FieldPoster, links.Absolute(stub.URL, poster))

	summary := scrape.Text(doc.Find("div.summaryy"))
	rec.Size = ex.Field(scrape.FieldSize, scrape.Submatch(sizePattern, summary))
	rec.Genre = ex.Field(scrape.FieldGenre, strings.Join(scrape.Split(scrape.Submatch(genrePattern, summary)), ", "))
	rec.Developer = ex.Field(scrape.FieldDeveloper, scrape.Submatch(developerPattern, summary))
	rec.Publisher = ex.Field(scrape.FieldPublisher, scrape.Submatch(publisherPattern, summary))
	rec.ReleaseDate = ex.Field(scrape.FieldReleaseDate, scrape.Submatch(releasePattern, summary))

	rec.Description = ex.Field(scrape.FieldDescription,
		scrape.Text(doc.Find(`h3:contains("About This Game")`).First().NextAll().Filter("p").First()))

	var shots []string
	doc.Find("div.slideshow-container img").Each(func(_ int, img *goquery.Selection) {
		if src := img.AttrOr("src", ""); src != "" {
			shots = append(shots, links.Absolute(stub.URL, src))
		}
	})
	rec.Screenshots = ex.List(scrape.FieldScreenshots, shots)

	trailer := scrape.Attr(doc.Find("video source"), "src")
	if trailer == "" {
		trailer = scrape.Attr(doc.Find(`iframe[src*="streamable"], iframe[src*="youtube"]`), "src")
	}
	rec.Trailer = ex.Field(scrape.FieldTrailer, scrape.FixScheme(trailer))

	var downloads []game.DownloadLink
	doc.Find("a#download-link").Each(func(_ int, a *goquery.Selection) {
		href := a.AttrOr("href", "")
		if !strings.HasPrefix(href, "http") {
			return
		}
		downloads = append(downloads, game.DownloadLink{
			Label: scrape.Text(a.Closest("div")),
			URL:   href,
		})
	})
	if len(downloads) == 0 {
		ex.Miss(scrape.FieldDownloads)
	}
	rec.DownloadLinks = downloads

	rec.SteamURL = ex.Field(scrape.FieldSteam, scrape.FixScheme(scrape.Attr(doc.Find(`a[href*="store.steampowered.com"]`), "href")))

	return sources.Finish(stub, rec, &ex)
}
