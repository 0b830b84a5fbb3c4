package transport

import (
	"net/http"
	"regexp"
	"strings"
)

var linkNextPattern = regexp.MustCompile(`<([^>]+)>\s*;\s*rel="?next"?`)

// NextPage extracts the follow-up URL from a Link response header. It returns
// the empty string when there is no next page, and also when the advertised
// next page equals the current URL, which guards against remotes that link a
// page to itself.
func NextPage(currentURL string, header http.Header) string {
	if header == nil {
		return ""
	}
	for _, link := range header.Values("Link") {
		for _, part := range strings.Split(link, ",") {
			match := linkNextPattern.FindStringSubmatch(part)
			if match == nil {
				continue
			}
			next := strings.TrimSpace(match[1])
			if next == "" || next == currentURL {
				return ""
			}
			return next
		}
	}
	return ""
}
