package sanitizer

import (
	"strings"
)

// NormalizeImageURL trims, lowercases the host and forces https so the same
// CDN asset always lands in the document identically.
func NormalizeImageURL(url string) string {
	url = strings.TrimSpace(url)
	if url == "" {
		return ""
	}
	url = strings.TrimPrefix(url, "http://")
	url = strings.TrimPrefix(url, "https://")
	parts := strings.SplitN(url, "/", 2)
	host := strings.ToLower(parts[0])
	var path string
	if len(parts) > 1 {
		path = "/" + parts[1]
	}
	result := "https://" + host + path
	return strings.TrimSuffix(result, "/")
}
