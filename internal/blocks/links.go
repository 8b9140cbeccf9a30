package blocks

import (
	"bytes"
	"strings"

	"github.com/rotisserie/eris"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

const (
	linkTypeAttr = "data-link-type"
	linkRefAttr  = "data-link-ref"
)

// ResolveLinks rewrites anchors in a rich text fragment that carry
// data-link-type and data-link-ref attributes into concrete hrefs:
// page references become "/<slug>" and post references "/posts/<slug>".
// Anchors without the attributes pass through untouched.
func ResolveLinks(fragment string) (string, error) {
	if strings.TrimSpace(fragment) == "" {
		return fragment, nil
	}

	container := &html.Node{Type: html.ElementNode, Data: "div", DataAtom: atom.Div}
	nodes, err := html.ParseFragment(strings.NewReader(fragment), container)
	if err != nil {
		return "", eris.Wrap(err, "parsing rich text fragment")
	}

	var buf bytes.Buffer
	for _, node := range nodes {
		resolveNodeLinks(node)
		if err := html.Render(&buf, node); err != nil {
			return "", eris.Wrap(err, "rendering rich text fragment")
		}
	}

	return buf.String(), nil
}

func resolveNodeLinks(node *html.Node) {
	if node.Type == html.ElementNode && node.DataAtom == atom.A {
		rewriteAnchor(node)
	}
	for child := node.FirstChild; child != nil; child = child.NextSibling {
		resolveNodeLinks(child)
	}
}

func rewriteAnchor(node *html.Node) {
	var linkType, ref string
	for _, attr := range node.Attr {
		switch attr.Key {
		case linkTypeAttr:
			linkType = attr.Val
		case linkRefAttr:
			ref = attr.Val
		}
	}

	if linkType == "" {
		return
	}

	href := Link{LinkType: linkType, Href: ref, Page: ref, Post: ref}.Resolve()
	if href == "" {
		return
	}

	kept := node.Attr[:0]
	for _, attr := range node.Attr {
		if attr.Key == "href" || attr.Key == linkTypeAttr || attr.Key == linkRefAttr {
			continue
		}
		kept = append(kept, attr)
	}
	node.Attr = append(kept, html.Attribute{Key: "href", Val: href})
}
