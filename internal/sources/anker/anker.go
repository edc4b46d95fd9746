// Package anker scrapes ankergames.net.
package anker

import (
	"context"
	"fmt"
	"net/url"
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
	baseURL      = "https://ankergames.net"
	homepage     = baseURL + "/"
	detailMarker = "/game/"
	labelSuffix  = " - View details"
)

// Adapter scrapes AnkerGames search, listing and detail pages.
type Adapter struct {
	sources.Base
}

var _ sources.Adapter = (*Adapter)(nil)

// New creates the adapter.
func New(f sources.PageFetcher, s sources.Settings, log logger.Logger) *Adapter {
	return &Adapter{Base: sources.NewBase(game.AnkerGames, f, fetcher.Options{}, s, log)}
}

func (a *Adapter) Source() game.Source { return game.AnkerGames }
func (a *Adapter) Hosts() []string     { return []string{"ankergames.net"} }
func (a *Adapter) Homepage() string    { return homepage }

// SearchURL is the search page for query.
func SearchURL(query string) string {
	return fmt.Sprintf("%s/search/%s", baseURL, url.PathEscape(query))
}

// Search reads the result cards. Only links to game pages count.
func (a *Adapter) Search(ctx context.Context, query string) ([]game.Stub, error) {
	pageURL := SearchURL(query)
	doc, _, err := a.Document(ctx, pageURL)
	if err != nil {
		return nil, err
	}

	var stubs []game.Stub
	doc.Find("a[aria-label]").Each(func(_ int, s *goquery.Selection) {
		title := strings.TrimSpace(strings.Replace(s.AttrOr("aria-label", ""), labelSuffix, "", 1))
		href := s.AttrOr("href", "")
		if title == "" || !strings.Contains(href, detailMarker) {
			return
		}
		stubs = append(stubs, game.Stub{
			Source:    game.AnkerGames,
			Title:     title,
			URL:       links.Absolute(pageURL, href),
			Thumbnail: links.Absolute(pageURL, cardImage(s)),
		})
	})

	return sources.Dedupe(stubs), nil
}

// Listing reads the poster tiles of a listing page.
func (a *Adapter) Listing(ctx context.Context, pageURL string) ([]game.Stub, error) {
	doc, _, err := a.Document(ctx, pageURL)
	if err != nil {
		return nil, err
	}

	var stubs []game.Stub
	doc.Find("div.relative.group.cursor-pointer").Each(func(_ int, tile *goquery.Selection) {
		link := tile.Find("a[aria-label]").First()
		title := strings.TrimSpace(strings.Replace(link.AttrOr("aria-label", ""), labelSuffix, "", 1))
		if title == "" {
			return
		}

		var tags []string
		if genre := scrape.Text(tile.Find("span[title]").Last()); genre != "" {
			tags = append(tags, genre)
		}
		if size := scrape.Attr(tile.Find(`span[title$="GB"]`), "title"); size != "" {
			tags = append(tags, size)
		}

		stubs = append(stubs, game.Stub{
			Source:    game.AnkerGames,
			Title:     title,
			URL:       links.Absolute(pageURL, link.AttrOr("href", "")),
			Thumbnail: links.Absolute(pageURL, tileImage(tile)),
			Tags:      tags,
		})
	})

	return sources.Dedupe(stubs), nil
}

// Detail reads the game page.
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

	rec.Title = ex.Field(scrape.FieldTitle, scrape.Text(doc.Find("h1").First()))
	rec.Poster = ex.Field(scrape.FieldPoster, links.Absolute(stub.URL, poster(doc)))
	rec.Description = ex.Field(scrape.FieldDescription, scrape.Text(doc.Find("div.flex-1 p").First()))
	rec.Version = ex.Field(scrape.FieldVersion, scrape.Text(doc.Find("span.animate-glow")))

	facts := doc.Find(`div.hidden.lg\:flex span`)
	rec.Size = ex.Field(scrape.FieldSize, scrape.Text(facts.Eq(1)))
	rec.ReleaseDate = ex.Field(scrape.FieldReleaseDate, scrape.Text(facts.Eq(2)))

	rec.Publisher = ex.Field(scrape.FieldPublisher,
		scrape.Text(doc.Find(`div.text-gray-600:contains("Publisher")`).First().Next()))

	var genres []string
	doc.Find(`div.text-gray-600:contains("Genre")`).First().Next().Find("a").Each(func(_ int, s *goquery.Selection) {
		if g := scrape.Text(s); g != "" {
			genres = append(genres, g)
		}
	})
	rec.Genre = ex.Field(scrape.FieldGenre, strings.Join(genres, ", "))

	rec.ReleaseGroup = scrape.Text(doc.Find(`div.flex.items-center div.font-medium a[href*="/scene/"]`).First())
	rec.SteamURL = ex.Field(scrape.FieldSteam, scrape.FixScheme(scrape.Attr(doc.Find(`a[href*="store.steampowered.com"]`), "href")))

	return sources.Finish(stub, rec, &ex)
}

// poster prefers the picture source set, then the poster img.
func poster(doc *goquery.Document) string {
	frame := doc.Find(`div.max-w-\[16rem\] picture`)
	if srcset := scrape.Attr(frame.Find("source"), "data-srcset", "srcset"); srcset != "" {
		return firstCandidate(srcset)
	}
	return scrape.Attr(frame.Find(`img[alt$="poster"]`), "src")
}

func cardImage(card *goquery.Selection) string {
	return scrape.BestImage(card.Find("img").First())
}

func tileImage(tile *goquery.Selection) string {
	if src := scrape.Attr(tile.Find(`picture img[alt$="poster"]`), "src"); src != "" {
		return src
	}
	if src := scrape.Attr(tile.Find("picture img"), "data-src"); src != "" {
		return src
	}
	return firstCandidate(scrape.Attr(tile.Find("picture source"), "data-srcset"))
}

// firstCandidate resolves a srcset to its widest entry, or its first URL when
// the set has no width descriptors.
func firstCandidate(srcset string) string {
	if best := scrape.BestFromSrcset(srcset); best != "" {
		return best
	}
	fields := strings.Fields(strings.Split(srcset, ",")[0])
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}
