package fetcher

import (
	"regexp"
	"strings"
)

var (
	challengeMarkers = []string{
		"Just a moment",
		"Checking your browser",
	}
	challengePattern = regexp.MustCompile(`(?i)cf-browser-verification`)
)

// IsChallenge reports whether the decoded page text is an anti-bot
// interstitial rather than the requested page.
func IsChallenge(text string) bool {
	for _, marker := range challengeMarkers {
		if strings.Contains(text, marker) {
			return true
		}
	}
	return challengePattern.MatchString(text)
}

// textual reports whether a response with contentType is a page worth
// decoding. A missing Content-Type counts as text.
func textual(contentType string) bool {
	ct := strings.ToLower(contentType)
	if ct == "" {
		return true
	}
	for _, kind := range []string{"text/", "html", "xml", "json", "javascript"} {
		if strings.Contains(ct, kind) {
			return true
		}
	}
	return false
}
