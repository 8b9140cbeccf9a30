package blocks

import (
	"bytes"
	"context"
	"fmt"
	"html"
	"io"

	"github.com/a-h/templ"
	"github.com/rotisserie/eris"
	"github.com/sirupsen/logrus"
)

// EditLocator identifies a block's position inside its owning document for
// round-trip editing hooks. It is side-channel metadata and never part of the
// rendered content itself.
type EditLocator struct {
	PageID   string `json:"pageId"`
	PageType string `json:"pageType"`
	Path     string `json:"path"`
}

func locatorFor(pageID, pageType, key string) EditLocator {
	return EditLocator{
		PageID:   pageID,
		PageType: pageType,
		Path:     fmt.Sprintf(`pageBuilder[_key=="%s"]`, key),
	}
}

// Rendered is a single block resolved to its renderable form.
type Rendered struct {
	Key     string      `json:"key"`
	Type    string      `json:"type"`
	HTML    string      `json:"html"`
	Locator EditLocator `json:"locator"`
}

// Renderer resolves block sequences to rendered output by discriminant tag.
type Renderer struct {
	logger *logrus.Logger
}

// NewRenderer constructs the block dispatch renderer.
func NewRenderer(logger *logrus.Logger) *Renderer {
	return &Renderer{logger: logger}
}

// RenderSequence resolves each block in order. Unrecognized tags render as a
// placeholder naming the tag; they are never dropped and never abort the
// sequence, so output length and key order always match the input.
func (r *Renderer) RenderSequence(ctx context.Context, pageID, pageType string, seq Sequence) ([]Rendered, error) {
	rendered := make([]Rendered, 0, len(seq))

	for _, block := range seq {
		component := r.componentFor(block)

		var buf bytes.Buffer
		if err := component.Render(ctx, &buf); err != nil {
			return nil, eris.Wrapf(err, "rendering block %s", block.Key())
		}

		rendered = append(rendered, Rendered{
			Key:     block.Key(),
			Type:    block.Type(),
			HTML:    buf.String(),
			Locator: locatorFor(pageID, pageType, block.Key()),
		})
	}

	return rendered, nil
}

// componentFor dispatches exhaustively over the sealed block union.
func (r *Renderer) componentFor(block Block) templ.Component {
	switch b := block.(type) {
	case *CallToAction:
		return callToActionComponent(b)
	case *InfoSection:
		return r.infoSectionComponent(b)
	case *FeaturesGrid:
		return featuresGridComponent(b)
	case *ImageText:
		return imageTextComponent(b)
	case *Unknown:
		return placeholderComponent(b.Type())
	default:
		return placeholderComponent(block.Type())
	}
}

func callToActionComponent(b *CallToAction) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		writeOpenSection(w, "block-cta")
		writeHeading(w, "h2", b.Heading)
		writeParagraph(w, b.Text)
		if b.ButtonText != "" {
			if href := b.Link.Resolve(); href != "" {
				fmt.Fprintf(w, `<a class="button" href="%s">%s</a>`, html.EscapeString(href), html.EscapeString(b.ButtonText))
			}
		}
		_, err := io.WriteString(w, "</section>")
		return err
	})
}

func (r *Renderer) infoSectionComponent(b *InfoSection) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		writeOpenSection(w, "block-info")
		writeHeading(w, "h2", b.Heading)
		writeHeading(w, "h3", b.Subheading)

		content, err := ResolveLinks(b.Content)
		if err != nil {
			// Unresolvable rich text still renders, with its links untouched.
			if r.logger != nil {
				r.logger.WithField("error", err.Error()).WithField("key", b.Key()).Warn("resolving rich text links failed")
			}
			content = b.Content
		}
		if _, err := io.WriteString(w, content); err != nil {
			return err
		}

		_, err = io.WriteString(w, "</section>")
		return err
	})
}

func featuresGridComponent(b *FeaturesGrid) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		writeOpenSection(w, "block-features")
		writeHeading(w, "h2", b.Heading)
		writeHeading(w, "h3", b.Subheading)
		if _, err := io.WriteString(w, "<ul>"); err != nil {
			return err
		}
		for _, feature := range b.Features {
			fmt.Fprintf(w, `<li data-icon="%s"><strong>%s</strong>`, html.EscapeString(feature.Icon), html.EscapeString(feature.Title))
			if feature.Description != "" {
				fmt.Fprintf(w, "<p>%s</p>", html.EscapeString(feature.Description))
			}
			if _, err := io.WriteString(w, "</li>"); err != nil {
				return err
			}
		}
		_, err := io.WriteString(w, "</ul></section>")
		return err
	})
}

func imageTextComponent(b *ImageText) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		position := b.ImagePosition
		if position != ImageLeft {
			position = ImageRight
		}

		fmt.Fprintf(w, `<section class="block-image-text image-%s">`, position)
		writeHeading(w, "h2", b.Heading)
		writeHeading(w, "h3", b.Subheading)
		if b.Image != "" {
			fmt.Fprintf(w, `<img src="%s" alt="">`, html.EscapeString(b.Image))
		}
		writeParagraph(w, b.Content)
		if b.ButtonText != "" && b.Link != nil {
			if href := b.Link.Resolve(); href != "" {
				fmt.Fprintf(w, `<a class="button" href="%s">%s</a>`, html.EscapeString(href), html.EscapeString(b.ButtonText))
			}
		}
		_, err := io.WriteString(w, "</section>")
		return err
	})
}

func placeholderComponent(blockType string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		_, err := fmt.Fprintf(w, `<div class="block-placeholder">A %q block hasn&#39;t been created</div>`, html.EscapeString(blockType))
		return err
	})
}

func writeOpenSection(w io.Writer, class string) {
	fmt.Fprintf(w, `<section class="%s">`, class)
}

func writeHeading(w io.Writer, tag, text string) {
	if text == "" {
		return
	}
	fmt.Fprintf(w, "<%s>%s</%s>", tag, html.EscapeString(text), tag)
}

func writeParagraph(w io.Writer, text string) {
	if text == "" {
		return
	}
	fmt.Fprintf(w, "<p>%s</p>", html.EscapeString(text))
}
