package urldetector

import (
	"net/url"
	"strings"
)

// Sanitize trims whitespace and trailing sentence punctuation from a shared
// link and repairs double-question-mark query strings. Share sheets often
// paste "https://youtube.com/watch?v=ID?si=XYZ" which breaks query parsing.
func Sanitize(rawURL string) string {
	rawURL = strings.TrimSpace(rawURL)
	rawURL = cleanTrailingPunctuation(rawURL)
	return fixMalformedQueryString(rawURL)
}

// IsHTTPURL reports whether rawURL is an absolute http or https URL.
func IsHTTPURL(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// fixMalformedQueryString replaces every '?' after the first with '&'.
// The fragment is left untouched.
func fixMalformedQueryString(rawURL string) string {
	fragment := ""
	if i := strings.Index(rawURL, "#"); i >= 0 {
		rawURL, fragment = rawURL[:i], rawURL[i:]
	}

	first := strings.Index(rawURL, "?")
	if first < 0 {
		return rawURL + fragment
	}

	head, query := rawURL[:first+1], rawURL[first+1:]
	return head + strings.ReplaceAll(query, "?", "&") + fragment
}

// cleanTrailingPunctuation removes trailing punctuation from a URL intelligently.
// It preserves closing parentheses if they're balanced (for Wikipedia-style URLs).
func cleanTrailingPunctuation(urlStr string) string {
	if strings.Contains(urlStr, "(") && strings.HasSuffix(urlStr, ")") {
		if strings.Count(urlStr, "(") >= strings.Count(urlStr, ")") {
			return urlStr
		}
	}

	return strings.TrimRight(urlStr, ".,!?;:\"'")
}
