package links

import (
	"strings"

	"github.com/rockaxx/freegames/internal/game"
)

// Dedupe is DedupeFrom without a base URL.
func Dedupe(in []game.DownloadLink) []game.DownloadLink {
	return DedupeFrom("", in)
}

// DedupeFrom canonicalizes every link against base and keeps the first entry
// per canonical URL and per host. Malformed and non-http links are dropped.
// Empty labels become the host. Applying it twice gives the same result.
func DedupeFrom(base string, in []game.DownloadLink) []game.DownloadLink {
	out := make([]game.DownloadLink, 0, len(in))
	seenURL := make(map[string]struct{}, len(in))
	seenHost := make(map[string]struct{}, len(in))

	for _, link := range in {
		u, err := resolve(base, link.URL)
		if err != nil {
			continue
		}

		canonical := u.String()
		host := strings.TrimPrefix(u.Hostname(), "www.")

		if _, dup := seenURL[canonical]; dup {
			continue
		}
		if _, dup := seenHost[host]; dup {
			continue
		}
		seenURL[canonical] = struct{}{}
		seenHost[host] = struct{}{}

		label := strings.TrimSpace(link.Label)
		if label == "" {
			label = host
		}
		out = append(out, game.DownloadLink{Label: label, URL: canonical})
	}

	return out
}
