package blogservice

import "regexp"

var scriptTagPattern = regexp.MustCompile(`(?i)<\s*script[^>]*>(.*?)<\s*/\s*script\s*>`)

// sanitizeText strips script tags from user supplied text before it is
// stored in a blog's comment list.
func sanitizeText(s string) string {
	return scriptTagPattern.ReplaceAllString(s, "")
}
