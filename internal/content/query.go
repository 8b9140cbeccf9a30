package content

import (
	"strings"

	"github.com/rotisserie/eris"
	"gorm.io/gorm"
)

// PageSize is the fixed listing window width for paginated post queries.
const PageSize = 9

// effectiveDateOrder sorts by publish date (falling back to the last
// modification time) descending, tie-broken by modification time descending.
const effectiveDateOrder = "COALESCE(publish_date, updated_at) DESC, updated_at DESC"

// PostQuery describes the optional filters applied to public post listings.
// A nil pointer is the explicit "no constraint" sentinel: a nil Tag matches
// every post and a nil Featured matches featured and non-featured posts alike.
type PostQuery struct {
	Tag      *string
	Featured *bool
}

// Normalize canonicalises caller input before dispatch: tag values are
// trimmed and blank tags collapse to the nil sentinel.
func (q PostQuery) Normalize() PostQuery {
	if q.Tag != nil {
		trimmed := strings.TrimSpace(*q.Tag)
		if trimmed == "" {
			q.Tag = nil
		} else {
			q.Tag = &trimmed
		}
	}
	return q
}

// Window is a half-open pagination interval over the ordered result set.
type Window struct {
	Start int
	End   int
}

// WindowForPage computes the listing window for a 1-based page number.
func WindowForPage(page int) (Window, error) {
	if page < 1 {
		return Window{}, eris.Errorf("page number must be >= 1, got %d", page)
	}
	start := (page - 1) * PageSize
	return Window{Start: start, End: start + PageSize}, nil
}

// Size returns the window width.
func (w Window) Size() int {
	return w.End - w.Start
}

// MoreQuery selects related posts while excluding the post being viewed.
type MoreQuery struct {
	ExcludeDocID string
	Limit        int
}

// TagFilter wraps a tag value in the optional-filter representation.
func TagFilter(tag string) *string {
	return &tag
}

// FeaturedFilter wraps a featured flag in the optional-filter representation.
func FeaturedFilter(featured bool) *bool {
	return &featured
}

// publishedScope restricts a query to publicly listable posts: documents
// outside the draft namespace that carry a slug.
func publishedScope(tx *gorm.DB) *gorm.DB {
	return tx.Where("doc_id NOT LIKE ?", DraftPrefix+"%").Where("slug <> ''")
}

// filterScope applies the optional tag and featured constraints. Tag
// filtering is set membership over the JSON-encoded tag column: the
// quote-delimited pattern matches whole tags only, never substrings of a
// longer tag.
func filterScope(q PostQuery) func(*gorm.DB) *gorm.DB {
	return func(tx *gorm.DB) *gorm.DB {
		if q.Tag != nil {
			tx = tx.Where("tags LIKE ? ESCAPE '\\'", tagMembershipPattern(*q.Tag))
		}
		if q.Featured != nil {
			tx = tx.Where("featured = ?", *q.Featured)
		}
		return tx
	}
}

// windowScope applies the pagination interval.
func windowScope(w Window) func(*gorm.DB) *gorm.DB {
	return func(tx *gorm.DB) *gorm.DB {
		return tx.Offset(w.Start).Limit(w.Size())
	}
}

// tagMembershipPattern builds a LIKE pattern that matches the JSON encoding
// of the tag, including its delimiting quotes.
func tagMembershipPattern(tag string) string {
	encoded := jsonEncodeString(tag)
	return "%" + escapeLikePattern(encoded) + "%"
}

// searchPattern wraps a search term with wildcard markers on both sides for
// contains-semantics matching.
func searchPattern(term string) string {
	return "%" + escapeLikePattern(term) + "%"
}

func escapeLikePattern(value string) string {
	replacer := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return replacer.Replace(value)
}

func jsonEncodeString(value string) string {
	var builder strings.Builder
	builder.WriteByte('"')
	for _, r := range value {
		switch r {
		case '"':
			builder.WriteString(`\"`)
		case '\\':
			builder.WriteString(`\\`)
		default:
			builder.WriteRune(r)
		}
	}
	builder.WriteByte('"')
	return builder.String()
}
