package correlation

import (
	"strings"
	"sync"

	"github.com/rockaxx/freegames/internal/game"
)

// Match kinds, in lookup priority order.
const (
	KindVersion      = "version"
	KindBuild        = "build"
	KindTitleBuild   = "title_build"
	KindTitleVersion = "title_version"
)

// Entry is what the index remembers about one correlation-source record.
type Entry struct {
	URL     string
	Title   string
	Version string
	Record  game.Record
}

// Retag is a record delivered earlier without correlation that a later
// registration now matches.
type Retag struct {
	Source      game.Source
	URL         string
	Title       string
	Correlation game.Correlation
}

// Index holds the version and build tables for one aggregation. It is safe
// for concurrent use.
//
// When two records share a key the lookup returns whichever entry currently
// owns it: a later registration replaces the value but keeps the key's
// original position in the title scan.
type Index struct {
	designated game.Source

	mu          sync.Mutex
	byVersion   map[string]Entry
	versionKeys []string
	byBuild     map[string]Entry
	pending     []game.Record
}

// NewIndex creates an empty index fed by records from designated.
func NewIndex(designated game.Source) *Index {
	return &Index{
		designated: designated,
		byVersion:  make(map[string]Entry),
		byBuild:    make(map[string]Entry),
	}
}

// Process feeds one record through the index.
//
// A record from the designated source is registered and the returned slice
// lists earlier records it now matches. Any other record gets
// rec.Correlation set when a match exists, or is remembered so a later
// registration can retag it.
func (x *Index) Process(rec *game.Record) []Retag {
	x.mu.Lock()
	defer x.mu.Unlock()

	if rec.Source == x.designated {
		if !x.register(*rec) {
			return nil
		}
		return x.retagPending()
	}

	if c, ok := x.find(*rec); ok {
		rec.Correlation = &c
		return nil
	}
	if rec.URL != "" {
		x.pending = append(x.pending, *rec)
	}
	return nil
}

// Register adds a designated-source record. It reports false when the record
// is from another source, has no URL, or carries no version or build.
func (x *Index) Register(rec game.Record) bool {
	x.mu.Lock()
	defer x.mu.Unlock()
	return x.register(rec)
}

func (x *Index) register(rec game.Record) bool {
	if rec.Source != x.designated || rec.URL == "" {
		return false
	}

	sv := strings.ToLower(ShortVersion(rec.Version))
	build := NormalizeBuild(rec.Build)
	if build == "" {
		build = NormalizeBuild(rec.Version)
	}
	if build == "" {
		build = NormalizeBuild(rec.Title)
	}
	if sv == "" && build == "" {
		return false
	}

	entry := Entry{URL: rec.URL, Title: rec.Title, Version: rec.Version, Record: rec}
	if sv != "" {
		if _, exists := x.byVersion[sv]; !exists {
			x.versionKeys = append(x.versionKeys, sv)
		}
		x.byVersion[sv] = entry
	}
	if build != "" {
		x.byBuild[build] = entry
	}
	return true
}

// Find looks up a correlation for a record from another source.
func (x *Index) Find(rec game.Record) (game.Correlation, bool) {
	x.mu.Lock()
	defer x.mu.Unlock()
	return x.find(rec)
}

func (x *Index) find(rec game.Record) (game.Correlation, bool) {
	if rec.Source == x.designated {
		return game.Correlation{}, false
	}

	if sv := strings.ToLower(ShortVersion(rec.Version)); sv != "" {
		if e, ok := x.byVersion[sv]; ok {
			return correlationFor(e, KindVersion), true
		}
	}

	if b := NormalizeBuild(rec.Build); b != "" {
		if e, ok := x.byBuild[b]; ok {
			return correlationFor(e, KindBuild), true
		}
	}

	if b := BuildFromText(rec.Title); b != "" {
		if e, ok := x.byBuild[b]; ok {
			return correlationFor(e, KindTitleBuild), true
		}
	}

	title := strings.ToLower(rec.Title)
	for _, key := range x.versionKeys {
		if strings.Contains(title, key) {
			return correlationFor(x.byVersion[key], KindTitleVersion), true
		}
	}

	return game.Correlation{}, false
}

func (x *Index) retagPending() []Retag {
	if len(x.pending) == 0 {
		return nil
	}

	var retags []Retag
	kept := x.pending[:0]
	for _, rec := range x.pending {
		c, ok := x.find(rec)
		if !ok {
			kept = append(kept, rec)
			continue
		}
		retags = append(retags, Retag{
			Source:      rec.Source,
			URL:         rec.URL,
			Title:       rec.Title,
			Correlation: c,
		})
	}
	x.pending = kept
	return retags
}

// Len returns the number of version and build keys.
func (x *Index) Len() (versions, builds int) {
	x.mu.Lock()
	defer x.mu.Unlock()
	return len(x.byVersion), len(x.byBuild)
}

func correlationFor(e Entry, kind string) game.Correlation {
	return game.Correlation{URL: e.URL, Title: e.Title, Version: e.Version, Kind: kind}
}
