// Package correlation cross-references update metadata from the correlation
// source onto listings from the other sources by version and build number.
package correlation

import (
	"regexp"
	"strings"
)

const maxShortSegments = 3

var (
	versionRe     = regexp.MustCompile(`[0-9]+(?:\.[0-9]+){0,5}`)
	buildRe       = regexp.MustCompile(`\b(\d{3,})\b`)
	buildLabelRe  = regexp.MustCompile(`(?i)\bbuild[:\s-]*([0-9]{3,})\b`)
	buildParenRe  = regexp.MustCompile(`(?i)\((?:build|b)\s*([0-9]{3,})\)`)
	bareIntegerRe = regexp.MustCompile(`\b([0-9]{5,})\b`)
)

// ShortVersion returns the first dotted number in v cut to three segments,
// so "1.32.0.18733" becomes "1.32.0". It returns "" when v has no digits.
func ShortVersion(v string) string {
	m := versionRe.FindString(v)
	if m == "" {
		return ""
	}
	parts := strings.Split(m, ".")
	if len(parts) > maxShortSegments {
		parts = parts[:maxShortSegments]
	}
	return strings.Join(parts, ".")
}

// NormalizeBuild returns the first standalone run of three or more digits.
func NormalizeBuild(b string) string {
	if m := buildRe.FindStringSubmatch(b); m != nil {
		return m[1]
	}
	return ""
}

// BuildFromText recovers a build number from free text. "Build: 18733" and
// "(b 18733)" are preferred; a bare integer of five or more digits is the
// last resort.
func BuildFromText(t string) string {
	for _, re := range []*regexp.Regexp{buildLabelRe, buildParenRe, bareIntegerRe} {
		if m := re.FindStringSubmatch(t); m != nil {
			return m[1]
		}
	}
	return ""
}
