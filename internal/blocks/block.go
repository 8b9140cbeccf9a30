// Package blocks implements the page-builder block model: a sealed tagged
// union of content blocks, an exhaustive dispatch renderer with a placeholder
// fallback, and the optimistic overlay used during live editing.
package blocks

import (
	"encoding/json"

	"github.com/rotisserie/eris"
)

// Discriminant tags carried by block records.
const (
	TypeCallToAction = "callToAction"
	TypeInfoSection  = "infoSection"
	TypeFeaturesGrid = "featuresGrid"
	TypeImageText    = "imageText"
)

// Image positions for the image-text block.
const (
	ImageLeft  = "left"
	ImageRight = "right"
)

// Block is the sealed interface over the page-builder block variants. Every
// block carries a stable key, unique within its containing sequence, used for
// reconciliation during optimistic updates.
type Block interface {
	Key() string
	Type() string
	sealed()
}

// Meta holds the discriminant tag and reconciliation key shared by all
// variants.
type Meta struct {
	BlockKey  string `json:"_key"`
	BlockType string `json:"_type"`
}

// Key returns the block's reconciliation key.
func (m Meta) Key() string { return m.BlockKey }

// Type returns the block's discriminant tag.
func (m Meta) Type() string { return m.BlockType }

func (m Meta) sealed() {}

// Link is a polymorphic reference to an external URL, a page, or a post.
type Link struct {
	LinkType string `json:"linkType"`
	Href     string `json:"href,omitempty"`
	Page     string `json:"page,omitempty"`
	Post     string `json:"post,omitempty"`
}

// Resolve maps the link to a site-relative or absolute URL, returning an
// empty string when the reference cannot be resolved.
func (l Link) Resolve() string {
	linkType := l.LinkType
	if linkType == "" && l.Href != "" {
		linkType = "href"
	}

	switch linkType {
	case "href":
		return l.Href
	case "page":
		if l.Page != "" {
			return "/" + l.Page
		}
	case "post":
		if l.Post != "" {
			return "/posts/" + l.Post
		}
	}
	return ""
}

// CallToAction renders a heading, supporting text and a single button.
type CallToAction struct {
	Meta
	Heading    string `json:"heading"`
	Text       string `json:"text,omitempty"`
	ButtonText string `json:"buttonText,omitempty"`
	Link       Link   `json:"link"`
}

// InfoSection carries rich text content. Embedded anchors may reference pages
// or posts through data-link-type/data-link-ref attributes, resolved at render
// time.
type InfoSection struct {
	Meta
	Heading    string `json:"heading,omitempty"`
	Subheading string `json:"subheading,omitempty"`
	Content    string `json:"content"`
}

// Feature is a single entry in a features grid.
type Feature struct {
	Icon        string `json:"icon"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
}

// FeaturesGrid renders an ordered list of iconed feature entries.
type FeaturesGrid struct {
	Meta
	Heading    string    `json:"heading,omitempty"`
	Subheading string    `json:"subheading,omitempty"`
	Features   []Feature `json:"features"`
}

// ImageText pairs rich content with an image placed left or right, plus an
// optional button.
type ImageText struct {
	Meta
	Heading       string `json:"heading,omitempty"`
	Subheading    string `json:"subheading,omitempty"`
	Content       string `json:"content,omitempty"`
	Image         string `json:"image,omitempty"`
	ImagePosition string `json:"imagePosition,omitempty"`
	ButtonText    string `json:"buttonText,omitempty"`
	Link          *Link  `json:"link,omitempty"`
}

// Unknown preserves a block whose discriminant tag has no registered variant.
// It keeps its position and key in the sequence so reconciliation still works,
// and renders as a placeholder.
type Unknown struct {
	Meta
	Raw json.RawMessage
}

// MarshalJSON writes back the original record untouched.
func (u Unknown) MarshalJSON() ([]byte, error) {
	if len(u.Raw) > 0 {
		return u.Raw, nil
	}
	return json.Marshal(u.Meta)
}

// Sequence is an ordered list of blocks. Elements are pointers so object
// identity survives overlay merges.
type Sequence []Block

// Keys returns the reconciliation keys in sequence order.
func (s Sequence) Keys() []string {
	keys := make([]string, len(s))
	for i, block := range s {
		keys[i] = block.Key()
	}
	return keys
}

// FindByKey returns the block with the given key or nil.
func (s Sequence) FindByKey(key string) Block {
	for _, block := range s {
		if block.Key() == key {
			return block
		}
	}
	return nil
}

// UnmarshalJSON decodes a heterogeneous block array, dispatching on the
// discriminant tag. Unrecognized tags decode to Unknown rather than failing.
func (s *Sequence) UnmarshalJSON(data []byte) error {
	var items []json.RawMessage
	if err := json.Unmarshal(data, &items); err != nil {
		return eris.Wrap(err, "decoding block array")
	}

	decoded := make(Sequence, 0, len(items))
	for i, item := range items {
		block, err := decodeBlock(item)
		if err != nil {
			return eris.Wrapf(err, "decoding block at index %d", i)
		}
		decoded = append(decoded, block)
	}

	*s = decoded
	return nil
}

func decodeBlock(item json.RawMessage) (Block, error) {
	var meta Meta
	if err := json.Unmarshal(item, &meta); err != nil {
		return nil, eris.Wrap(err, "decoding block envelope")
	}

	switch meta.BlockType {
	case TypeCallToAction:
		var block CallToAction
		if err := json.Unmarshal(item, &block); err != nil {
			return nil, eris.Wrap(err, "decoding call-to-action block")
		}
		return &block, nil
	case TypeInfoSection:
		var block InfoSection
		if err := json.Unmarshal(item, &block); err != nil {
			return nil, eris.Wrap(err, "decoding info-section block")
		}
		return &block, nil
	case TypeFeaturesGrid:
		var block FeaturesGrid
		if err := json.Unmarshal(item, &block); err != nil {
			return nil, eris.Wrap(err, "decoding features-grid block")
		}
		return &block, nil
	case TypeImageText:
		var block ImageText
		if err := json.Unmarshal(item, &block); err != nil {
			return nil, eris.Wrap(err, "decoding image-text block")
		}
		return &block, nil
	default:
		raw := make(json.RawMessage, len(item))
		copy(raw, item)
		return &Unknown{Meta: meta, Raw: raw}, nil
	}
}
