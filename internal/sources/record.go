package sources

import (
	"github.com/rockaxx/freegames/internal/game"
	"github.com/rockaxx/freegames/internal/scrape"
)

// Finish completes a record parsed from the detail page of stub. Title and
// poster fall back to the stub values, and the extraction report is copied
// onto the record.
func Finish(stub game.Stub, rec game.Record, ex *scrape.Extraction) game.Record {
	rec.Source = stub.Source
	rec.URL = stub.URL
	if rec.Thumbnail == "" {
		rec.Thumbnail = stub.Thumbnail
	}
	if rec.Tags == nil {
		rec.Tags = stub.Tags
	}
	if rec.Title == "" && stub.Title != "" {
		rec.Title = stub.Title
		ex.Found(scrape.FieldTitle)
	}
	if rec.Poster == "" && stub.Thumbnail != "" {
		rec.Poster = stub.Thumbnail
		ex.Found(scrape.FieldPoster)
	}
	rec.Missing = ex.Missing()
	rec.Normalize()
	return rec
}

// Dedupe drops stubs whose URL was already seen, keeping the first.
func Dedupe(stubs []game.Stub) []game.Stub {
	seen := make(map[string]struct{}, len(stubs))
	out := stubs[:0]
	for _, s := range stubs {
		if _, ok := seen[s.URL]; ok {
			continue
		}
		seen[s.URL] = struct{}{}
		out = append(out, s)
	}
	return out
}
