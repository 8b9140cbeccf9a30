package content

import (
	"bytes"
	"database/sql/driver"
	"encoding/json"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"gorm.io/gorm"

	"pressroom/app/internal/blocks"
)

// DraftPrefix is the reserved identifier namespace for unpublished documents.
const DraftPrefix = "drafts."

// Post statuses derived from the document identifier namespace.
const (
	StatusDraft     = "draft"
	StatusPublished = "published"
)

// Post represents a blog post document.
type Post struct {
	gorm.Model
	DocID       string `gorm:"size:128;uniqueIndex:idx_posts_doc_id;not null"`
	Title       string `gorm:"size:255;not null"`
	Slug        string `gorm:"size:96;index:idx_posts_slug"`
	Excerpt     string `gorm:"type:text"`
	Body        string `gorm:"type:text"`
	PublishDate *time.Time
	AuthorID    string `gorm:"size:128;index:idx_posts_author"`
	Tags        TagSet `gorm:"type:text"`
	Featured    bool
	CoverImage  string `gorm:"size:512"`
}

// TableName defines the table name for the Post model.
func (Post) TableName() string {
	return "posts"
}

// Status derives the editorial status from the document identifier namespace.
func (p *Post) Status() string {
	if strings.HasPrefix(p.DocID, DraftPrefix) {
		return StatusDraft
	}
	return StatusPublished
}

// EffectiveDate returns the publish date, falling back to the last modification time.
func (p *Post) EffectiveDate() time.Time {
	if p.PublishDate != nil {
		return *p.PublishDate
	}
	return p.UpdatedAt
}

// Person represents an author document.
type Person struct {
	gorm.Model
	DocID     string `gorm:"size:128;uniqueIndex:idx_persons_doc_id;not null"`
	Username  string `gorm:"size:255;not null"`
	Slug      string `gorm:"size:96;uniqueIndex:idx_persons_slug;not null"`
	FirstName string `gorm:"size:255"`
	LastName  string `gorm:"size:255"`
	Headshot  string `gorm:"size:512"`
}

// TableName defines the table name for the Person model.
func (Person) TableName() string {
	return "persons"
}

// Page represents a page-builder document composed of an ordered block sequence.
type Page struct {
	gorm.Model
	DocID      string    `gorm:"size:128;uniqueIndex:idx_pages_doc_id;not null"`
	Slug       string    `gorm:"size:96;uniqueIndex:idx_pages_slug;not null"`
	Heading    string    `gorm:"size:255"`
	Subheading string    `gorm:"size:512"`
	Blocks     BlockList `gorm:"type:text"`
}

// TableName defines the table name for the Page model.
func (Page) TableName() string {
	return "pages"
}

// TagSet stores an unordered set of tags as a JSON-encoded column.
type TagSet []string

// Contains reports whether the tag is a member of the set.
func (t TagSet) Contains(tag string) bool {
	for _, candidate := range t {
		if candidate == tag {
			return true
		}
	}
	return false
}

// Value serialises the tag set for storage. HTML escaping is disabled so the
// stored form matches the membership patterns built by the query layer.
func (t TagSet) Value() (driver.Value, error) {
	if t == nil {
		return "[]", nil
	}

	var buf bytes.Buffer
	encoder := json.NewEncoder(&buf)
	encoder.SetEscapeHTML(false)
	if err := encoder.Encode([]string(t)); err != nil {
		return nil, eris.Wrap(err, "encoding tag set")
	}
	return strings.TrimSpace(buf.String()), nil
}

// Scan deserialises the tag set from its stored representation.
func (t *TagSet) Scan(src any) error {
	raw, err := columnBytes(src)
	if err != nil {
		return eris.Wrap(err, "reading tag set column")
	}
	if len(raw) == 0 {
		*t = nil
		return nil
	}

	var decoded []string
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return eris.Wrap(err, "decoding tag set")
	}
	*t = decoded
	return nil
}

// BlockList stores an ordered block sequence as a JSON-encoded column.
type BlockList struct {
	Sequence blocks.Sequence
}

// Value serialises the block sequence for storage.
func (b BlockList) Value() (driver.Value, error) {
	if b.Sequence == nil {
		return "[]", nil
	}
	encoded, err := json.Marshal(b.Sequence)
	if err != nil {
		return nil, eris.Wrap(err, "encoding block sequence")
	}
	return string(encoded), nil
}

// Scan deserialises the block sequence from its stored representation.
func (b *BlockList) Scan(src any) error {
	raw, err := columnBytes(src)
	if err != nil {
		return eris.Wrap(err, "reading block sequence column")
	}
	if len(raw) == 0 {
		b.Sequence = nil
		return nil
	}

	var decoded blocks.Sequence
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return eris.Wrap(err, "decoding block sequence")
	}
	b.Sequence = decoded
	return nil
}

func columnBytes(src any) ([]byte, error) {
	switch value := src.(type) {
	case nil:
		return nil, nil
	case []byte:
		return value, nil
	case string:
		return []byte(value), nil
	default:
		return nil, eris.Errorf("unsupported column type %T", src)
	}
}
