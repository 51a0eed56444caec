package fallback

import (
	"net/url"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var titleCaser = cases.Title(language.English)

// TitleFromURL synthesizes a title from the URL's domain. Pure function of
// the URL string; never fails and never returns empty for any input.
// "https://example.com/x" → "Example".
func TitleFromURL(rawURL string) string {
	host := hostOf(rawURL)
	if host == "" {
		return "Untitled Page"
	}

	host = strings.TrimPrefix(host, "www.")
	// Drop the TLD and any port; title-case the remaining labels.
	if idx := strings.Index(host, ":"); idx > 0 {
		host = host[:idx]
	}
	labels := strings.Split(host, ".")
	if len(labels) > 1 {
		labels = labels[:len(labels)-1]
	}

	var parts []string
	for _, label := range labels {
		label = strings.NewReplacer("-", " ", "_", " ").Replace(label)
		label = strings.TrimSpace(label)
		if label != "" {
			parts = append(parts, titleCaser.String(label))
		}
	}
	if len(parts) == 0 {
		return "Untitled Page"
	}
	return strings.Join(parts, " ")
}

// DescriptionFromURL synthesizes a short description from the URL's path
// segments. Returns a generic line for bare domains.
func DescriptionFromURL(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "A page on the web."
	}

	host := strings.TrimPrefix(u.Hostname(), "www.")
	path := strings.Trim(u.Path, "/")
	if path == "" {
		if host == "" {
			return "A page on the web."
		}
		return "A page on " + host + "."
	}

	segs := strings.Split(path, "/")
	var words []string
	for _, seg := range segs {
		seg = strings.NewReplacer("-", " ", "_", " ").Replace(seg)
		seg = strings.TrimSpace(seg)
		if seg != "" {
			words = append(words, seg)
		}
	}
	if len(words) == 0 {
		return "A page on " + host + "."
	}
	return titleCaser.String(strings.Join(words, " ")) + " on " + host + "."
}

func hostOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err == nil && u.Hostname() != "" {
		return u.Hostname()
	}
	// Tolerate scheme-less input.
	u, err = url.Parse("https://" + rawURL)
	if err != nil {
		return ""
	}
	return u.Hostname()
}
