package content

import (
	"regexp"
	"strings"
)

// maxSlugLength mirrors the slug length cap enforced by the studio schema.
const maxSlugLength = 96

var nonSlugChars = regexp.MustCompile(`[^a-z0-9]+`)

// Slugify converts arbitrary input into a URL-safe slug: lowercase ASCII
// letters, digits and single hyphens, no leading or trailing hyphen, at most
// 96 characters. The function is idempotent.
func Slugify(input string) string {
	slug := strings.ToLower(strings.TrimSpace(input))
	slug = nonSlugChars.ReplaceAllString(slug, "-")
	slug = strings.Trim(slug, "-")

	if len(slug) > maxSlugLength {
		slug = slug[:maxSlugLength]
		slug = strings.TrimRight(slug, "-")
	}

	return slug
}
