package scrape

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/antzucaro/matchr"
)

// DefaultLabelScore is the Jaro-Winkler similarity a label must reach to be
// accepted by Lookup when no exact match exists.
const DefaultLabelScore = 0.9

// Labels is an ordered set of "Label: value" pairs scanned from a page.
type Labels struct {
	keys   []string
	values map[string]string
}

// ScanLabels collects <li><strong>Key:</strong> value</li> and
// <dt>Key</dt><dd>value</dd> pairs under root. Later pairs overwrite the
// value of an earlier identical label.
func ScanLabels(root *goquery.Selection) Labels {
	l := Labels{values: make(map[string]string)}

	root.Find("li strong").Each(func(_ int, s *goquery.Selection) {
		raw := s.Text()
		key := strings.TrimSuffix(Clean(raw), ":")
		full := Clean(s.Parent().Text())
		val := Clean(strings.TrimPrefix(strings.Replace(full, Clean(raw), "", 1), ":"))
		l.add(key, val)
	})

	root.Find("dt").Each(func(_ int, s *goquery.Selection) {
		key := strings.TrimSuffix(Text(s), ":")
		l.add(key, Text(s.NextFiltered("dd")))
	})

	return l
}

func (l *Labels) add(key, val string) {
	key = strings.TrimSpace(key)
	if key == "" || val == "" {
		return
	}
	if _, ok := l.values[key]; !ok {
		l.keys = append(l.keys, key)
	}
	l.values[key] = val
}

// Len is the number of distinct labels.
func (l Labels) Len() int {
	return len(l.keys)
}

// Get matches a label exactly, ignoring case.
func (l Labels) Get(label string) (string, bool) {
	for _, k := range l.keys {
		if strings.EqualFold(k, label) {
			return l.values[k], true
		}
	}
	return "", false
}

// Lookup tries each candidate label exactly, then falls back to the most
// similar scanned label scoring at least DefaultLabelScore.
func (l Labels) Lookup(candidates ...string) (string, bool) {
	for _, c := range candidates {
		if v, ok := l.Get(c); ok {
			return v, true
		}
	}

	best, bestScore := "", 0.0
	for _, c := range candidates {
		want := strings.ToLower(c)
		for _, k := range l.keys {
			score := matchr.JaroWinkler(want, strings.ToLower(k), false)
			if score > bestScore {
				best, bestScore = k, score
			}
		}
	}
	if best == "" || bestScore < DefaultLabelScore {
		return "", false
	}
	return l.values[best], true
}

// Map copies the pairs into a plain map.
func (l Labels) Map() map[string]string {
	out := make(map[string]string, len(l.keys))
	for _, k := range l.keys {
		out[k] = l.values[k]
	}
	return out
}
