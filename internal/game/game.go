// Package game defines the listing data carried through the aggregation pipeline.
package game

import (
	"errors"
	"strings"
)

// Source identifies one of the supported listing sites.
type Source string

// Supported sources. The string value is what clients see in the "src" field.
const (
	AnkerGames       Source = "AnkerGames"
	Game3RB          Source = "Game3RB"
	RepackGames      Source = "RepackGames"
	OnlineFix        Source = "OnlineFix"
	SteamUnderground Source = "SteamUnderground"
)

// ErrUnknownSource is returned when a name or host maps to no supported source.
var ErrUnknownSource = errors.New("unknown source")

var allSources = []Source{AnkerGames, Game3RB, RepackGames, OnlineFix, SteamUnderground}

// Sources returns every supported source in a stable order.
func Sources() []Source {
	out := make([]Source, len(allSources))
	copy(out, allSources)
	return out
}

// Key is the lowercase form used in configuration and metrics labels.
func (s Source) Key() string {
	return strings.ToLower(string(s))
}

// Valid reports whether s is one of the supported sources.
func (s Source) Valid() bool {
	for _, known := range allSources {
		if s == known {
			return true
		}
	}
	return false
}

// ParseSource matches name case-insensitively against the supported sources.
func ParseSource(name string) (Source, error) {
	for _, known := range allSources {
		if strings.EqualFold(name, string(known)) {
			return known, nil
		}
	}
	return "", ErrUnknownSource
}

// Stub is a listing entry before detail enrichment.
type Stub struct {
	Source    Source   `json:"src"`
	Title     string   `json:"title"`
	URL       string   `json:"href"`
	Thumbnail string   `json:"thumb,omitempty"`
	Tags      []string `json:"tags,omitempty"`
}

// DownloadLink is one mirror or download button found on a detail page.
type DownloadLink struct {
	Label string `json:"label"`
	URL   string `json:"link"`
}

// Correlation is update metadata borrowed from the correlation source.
type Correlation struct {
	URL     string `json:"url"`
	Title   string `json:"title"`
	Version string `json:"version,omitempty"`
	// Kind names the rule that matched: version, build, title_build or title_version.
	Kind string `json:"kind"`
}

// Record is a fully enriched listing.
type Record struct {
	Stub

	Poster        string         `json:"poster"`
	Description   string         `json:"desc"`
	Size          string         `json:"size"`
	Genre         string         `json:"genre"`
	Developer     string         `json:"developer"`
	Publisher     string         `json:"publisher"`
	ReleaseDate   string         `json:"releaseDate"`
	Version       string         `json:"version"`
	Build         string         `json:"build"`
	Screenshots   []string       `json:"screenshots"`
	Trailer       string         `json:"trailer"`
	DownloadLinks []DownloadLink `json:"downloadLinks"`
	SteamURL      string         `json:"steam"`

	ReleaseGroup string            `json:"releaseGroup,omitempty"`
	Uploaded     string            `json:"uploaded,omitempty"`
	SysReq       map[string]string `json:"sysreq,omitempty"`

	Correlation *Correlation `json:"of,omitempty"`
	// Missing lists fields the adapter looked for and could not find.
	Missing []string `json:"missing,omitempty"`
}

// FromStub builds the stub-only record used when detail enrichment fails.
func FromStub(s Stub) Record {
	r := Record{Stub: s, Poster: s.Thumbnail}
	r.Normalize()
	return r
}

// Normalize replaces nil slices with empty ones so the wire shape always
// carries arrays.
func (r *Record) Normalize() {
	if r.Screenshots == nil {
		r.Screenshots = []string{}
	}
	if r.DownloadLinks == nil {
		r.DownloadLinks = []DownloadLink{}
	}
}
