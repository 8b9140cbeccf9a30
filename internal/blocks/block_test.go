package blocks

import (
	"encoding/json"
	"testing"
)

const mixedSequenceJSON = `[
	{"_key":"k1","_type":"callToAction","heading":"Join","buttonText":"Go","link":{"linkType":"href","href":"https://example.com"}},
	{"_key":"k2","_type":"infoSection","content":"<p>Hello</p>"},
	{"_key":"k3","_type":"banner","imageUrl":"/banner.png"},
	{"_key":"k4","_type":"featuresGrid","features":[{"icon":"star","title":"Fast"}]},
	{"_key":"k5","_type":"imageText","image":"/img.png","imagePosition":"left"}
]`

func TestSequenceDecodesMixedBlockTypes(t *testing.T) {
	t.Parallel()

	var seq Sequence
	if err := json.Unmarshal([]byte(mixedSequenceJSON), &seq); err != nil {
		t.Fatalf("decoding sequence failed: %v", err)
	}

	if len(seq) != 5 {
		t.Fatalf("expected 5 blocks, got %d", len(seq))
	}

	expectedKeys := []string{"k1", "k2", "k3", "k4", "k5"}
	for idx, key := range seq.Keys() {
		if key != expectedKeys[idx] {
			t.Fatalf("expected key %q at index %d, got %q", expectedKeys[idx], idx, key)
		}
	}

	if _, ok := seq[0].(*CallToAction); !ok {
		t.Fatalf("expected CallToAction at index 0, got %T", seq[0])
	}
	if _, ok := seq[1].(*InfoSection); !ok {
		t.Fatalf("expected InfoSection at index 1, got %T", seq[1])
	}
	if _, ok := seq[3].(*FeaturesGrid); !ok {
		t.Fatalf("expected FeaturesGrid at index 3, got %T", seq[3])
	}
	if _, ok := seq[4].(*ImageText); !ok {
		t.Fatalf("expected ImageText at index 4, got %T", seq[4])
	}
}

func TestUnknownTagDecodesInPlace(t *testing.T) {
	t.Parallel()

	var seq Sequence
	if err := json.Unmarshal([]byte(mixedSequenceJSON), &seq); err != nil {
		t.Fatalf("decoding sequence failed: %v", err)
	}

	unknown, ok := seq[2].(*Unknown)
	if !ok {
		t.Fatalf("expected Unknown at index 2, got %T", seq[2])
	}
	if unknown.Key() != "k3" {
		t.Fatalf("expected key k3, got %q", unknown.Key())
	}
	if unknown.Type() != "banner" {
		t.Fatalf("expected type banner, got %q", unknown.Type())
	}

	// The original record survives a round trip untouched.
	raw, err := json.Marshal(unknown)
	if err != nil {
		t.Fatalf("marshalling unknown block failed: %v", err)
	}

	var fields map[string]any
	if err := json.Unmarshal(raw, &fields); err != nil {
		t.Fatalf("re-decoding unknown block failed: %v", err)
	}
	if fields["imageUrl"] != "/banner.png" {
		t.Fatalf("expected unrecognized fields preserved, got %v", fields)
	}
}

func TestSequenceFindByKey(t *testing.T) {
	t.Parallel()

	var seq Sequence
	if err := json.Unmarshal([]byte(mixedSequenceJSON), &seq); err != nil {
		t.Fatalf("decoding sequence failed: %v", err)
	}

	if block := seq.FindByKey("k4"); block == nil || block.Type() != TypeFeaturesGrid {
		t.Fatalf("expected features grid for k4, got %v", block)
	}
	if block := seq.FindByKey("missing"); block != nil {
		t.Fatalf("expected nil for missing key, got %v", block)
	}
}

func TestLinkResolve(t *testing.T) {
	t.Parallel()

	cases := []struct {
		link     Link
		expected string
	}{
		{Link{LinkType: "href", Href: "https://example.com"}, "https://example.com"},
		{Link{Href: "https://implicit.example"}, "https://implicit.example"},
		{Link{LinkType: "page", Page: "about"}, "/about"},
		{Link{LinkType: "post", Post: "hello-world"}, "/posts/hello-world"},
		{Link{LinkType: "page"}, ""},
		{Link{}, ""},
	}

	for _, tc := range cases {
		if got := tc.link.Resolve(); got != tc.expected {
			t.Fatalf("Resolve(%+v) = %q, expected %q", tc.link, got, tc.expected)
		}
	}
}
