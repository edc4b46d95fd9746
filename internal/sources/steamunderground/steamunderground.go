// Package steamunderground scrapes steamunderground.net. The site is behind an
// anti-bot wall and its detail pages vary by uploader, so attribution fields
// are scanned from several layouts.
package steamunderground

import (
	"context"
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/rockaxx/freegames/internal/fetcher"
	"github.com/rockaxx/freegames/internal/game"
	"github.com/rockaxx/freegames/internal/logger"
	"github.com/rockaxx/freegames/internal/scrape"
	"github.com/rockaxx/freegames/internal/sources"
)

const (
	homepage        = "https://steamunderground.net/"
	defaultLinkText = "Download"
	uncategorized   = "uncategorized"
)

var (
	sizePattern      = regexp.MustCompile(`(?i)Size:\s*([0-9.]+\s*(?:GB|MB))`)
	storagePattern   = regexp.MustCompile(`(?i)Storage\s*:\s*([^\n<]+)`)
	genrePattern     = regexp.MustCompile(`(?i)Genre:\s*([A-Za-z ,]+)`)
	developerPattern = regexp.MustCompile(`(?i)Developer:\s*([^<\n]+)`)
	publisherPattern = regexp.MustCompile(`(?i)Publisher:\s*([^<\n]+)`)
	releasePattern   = regexp.MustCompile(`(?i)Release Date:\s*([^<\n]+)`)
	versionPattern   = regexp.MustCompile(`(?i)Game\s*Version:\s*([^<\n]+)`)
	versionPrefix    = regexp.MustCompile(`(?i)^\s*Game Version:\s*`)

	groupPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)Game\s*Source\s*/\s*Scene\s*Group:\s*([^<\n]+)`),
		regexp.MustCompile(`(?i)Release\s*Group:\s*([^<\n]+)`),
		regexp.MustCompile(`(?i)Crack\s*:\s*([^<\n]+)`),
	}
)

// Adapter scrapes SteamUnderground.
type Adapter struct {
	sources.Base
}

var _ sources.Adapter = (*Adapter)(nil)

// New creates the adapter.
func New(f sources.PageFetcher, s sources.Settings, log logger.Logger) *Adapter {
	return &Adapter{Base: sources.NewBase(game.SteamUnderground, f, fetcher.Options{Bypass: true}, s, log)}
}

func (a *Adapter) Source() game.Source { return game.SteamUnderground }
func (a *Adapter) Hosts() []string     { return []string{"steamunderground.net"} }
func (a *Adapter) Homepage() string    { return homepage }

// SearchURL is the search page for query.
func SearchURL(query string) string {
	return homepage + "?s=" + url.QueryEscape(query)
}

// Search reads the result rows.
func (a *Adapter) Search(ctx context.Context, query string) ([]game.Stub, error) {
	return a.Listing(ctx, SearchURL(query))
}

// Listing reads li.row-type rows, which both the homepage and search use.
func (a *Adapter) Listing(ctx context.Context, pageURL string) ([]game.Stub, error) {
	doc, _, err := a.Document(ctx, pageURL)
	if err != nil {
		return nil, err
	}

	var stubs []game.Stub
	doc.Find("li.row-type").Each(func(_ int, row *goquery.Selection) {
		link := row.Find(".post-c-wrap a").First()
		href := scrape.FixScheme(link.AttrOr("href", ""))
		title := scrape.Text(link)
		if href == "" || title == "" {
			return
		}

		var tags []string
		row.Find(".post-category a").Each(func(_ int, a *goquery.Selection) {
			if tag := scrape.Text(a); tag != "" && !strings.EqualFold(tag, uncategorized) {
				tags = append(tags, tag)
			}
		})

		stubs = append(stubs, game.Stub{
			Source:    game.SteamUnderground,
			Title:     title,
			URL:       href,
			Thumbnail: scrape.BestImage(row.Find(".thumb img").First()),
			Tags:      tags,
		})
	})

	return sources.Dedupe(stubs), nil
}

// Detail reads the post page.
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
	labels := scrape.ScanLabels(doc.Selection)

	rec.Title = ex.Field(scrape.FieldTitle, scrape.Text(doc.Find("h1.entry-title, h1.post-title").First()))
	rec.Poster = ex.Field(scrape.FieldPoster, poster(doc))
	rec.Description = ex.Field(scrape.FieldDescription, scrape.Text(doc.Find("div.entry-content p").First()))
	rec.Uploaded = scrape.FirstText(doc.Selection, ".post-date", "time.entry-date", ".post-meta time")

	rec.Size = ex.Field(scrape.FieldSize, size(labels, body))
	rec.Genre = ex.Field(scrape.FieldGenre, attribute(labels, genrePattern, body, "Genre", "Genres"))
	rec.Developer = ex.Field(scrape.FieldDeveloper, attribute(labels, developerPattern, body, "Developer", "Developers"))
	rec.Publisher = ex.Field(scrape.FieldPublisher, attribute(labels, publisherPattern, body, "Publisher", "Publishers"))
	rec.ReleaseDate = ex.Field(scrape.FieldReleaseDate, attribute(labels, releasePattern, body, "Release Date", "Released"))
	rec.Version = ex.Field(scrape.FieldVersion, GameVersion(doc, body))
	rec.ReleaseGroup = ReleaseGroup(doc, body)

	var shots []string
	doc.Find(".gallery img, .wp-block-gallery img").Each(func(_ int, img *goquery.Selection) {
		if u := scrape.BestImage(img); u != "" {
			shots = append(shots, u)
		}
	})
	rec.Screenshots = ex.List(scrape.FieldScreenshots, shots)

	if labels.Len() > 0 {
		rec.SysReq = labels.Map()
	}

	rec.Trailer = ex.Field(scrape.FieldTrailer,
		scrape.FixScheme(scrape.Attr(doc.Find(`iframe[src*="youtube"], iframe[src*="streamable"]`), "src")))
	rec.SteamURL = ex.Field(scrape.FieldSteam, scrape.SteamLink(doc, body))

	rec.DownloadLinks = downloadLinks(doc)
	if len(rec.DownloadLinks) == 0 {
		ex.Miss(scrape.FieldDownloads)
	}

	return sources.Finish(stub, rec, &ex)
}

func poster(doc *goquery.Document) string {
	for _, sel := range []string{"img.aligncenter", "img.wp-post-image", "div.entry-content img"} {
		if u := scrape.BestImage(doc.Find(sel).First()); u != "" {
			return u
		}
	}
	return ""
}

// size prefers an explicit "Size:" figure, then the storage requirement.
func size(labels scrape.Labels, body string) string {
	if v := scrape.Submatch(sizePattern, body); v != "" {
		return v
	}
	if v, ok := labels.Lookup("Storage", "Hard Drive", "Hard Disk Space"); ok {
		return v
	}
	return scrape.Submatch(storagePattern, body)
}

// attribute reads an inline "Label: value" first, then the scanned label
// pairs, where near-miss labels are accepted by similarity.
func attribute(labels scrape.Labels, re *regexp.Regexp, body string, names ...string) string {
	if v := scrape.Submatch(re, body); v != "" {
		return v
	}
	v, _ := labels.Lookup(names...)
	return v
}

// GameVersion reads the version widget, then the inline label.
func GameVersion(doc *goquery.Document, body string) string {
	if v := scrape.Text(doc.Find("div.gameVersion .gameVersionValue")); v != "" {
		return v
	}
	if v := scrape.Text(doc.Find(".gameVersionValue")); v != "" {
		return v
	}
	if v := scrape.Clean(versionPrefix.ReplaceAllString(doc.Find(".gameVersion").Text(), "")); v != "" {
		return v
	}
	return scrape.Submatch(versionPattern, body)
}

// ReleaseGroup reads the release group widget, then the scene group, release
// group and crack labels in that order.
func ReleaseGroup(doc *goquery.Document, body string) string {
	if v := scrape.Text(doc.Find("div.releaseGroup .releaseGroupValue")); v != "" {
		return v
	}
	for _, re := range groupPatterns {
		if v := scrape.Submatch(re, body); v != "" {
			return v
		}
	}
	return ""
}

// downloadLinks keeps the site's own download gateways, one per URL.
func downloadLinks(doc *goquery.Document) []game.DownloadLink {
	var out []game.DownloadLink
	seen := make(map[string]struct{})

	doc.Find(`a[href*="steamunderground.net/download"]`).Each(func(_ int, a *goquery.Selection) {
		href := scrape.FixScheme(strings.TrimSpace(a.AttrOr("href", "")))
		if !strings.HasPrefix(href, "http") {
			return
		}
		key := strings.ToLower(href)
		if _, dup := seen[key]; dup {
			return
		}
		seen[key] = struct{}{}

		label := scrape.Text(a)
		if label == "" {
			label = defaultLinkText
		}
		out = append(out, game.DownloadLink{Label: label, URL: href})
	})

	return out
}
