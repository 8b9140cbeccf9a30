package content

import (
	"strings"
	"testing"
)

func TestSlugifyLowercasesAndReplacesSeparators(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"Hello World":          "hello-world",
		"  padded  ":           "padded",
		"Already-Fine":         "already-fine",
		"multiple   spaces":    "multiple-spaces",
		"symbols!@#here":       "symbols-here",
		"Ünicode dröps":        "nicode-dr-ps",
		"--leading-trailing--": "leading-trailing",
		"":                     "",
		"!!!":                  "",
	}

	for input, expected := range cases {
		if got := Slugify(input); got != expected {
			t.Fatalf("Slugify(%q) = %q, expected %q", input, got, expected)
		}
	}
}

func TestSlugifyTruncatesLongInput(t *testing.T) {
	t.Parallel()

	long := strings.Repeat("a", 200)
	slug := Slugify(long)
	if len(slug) != maxSlugLength {
		t.Fatalf("expected slug capped at %d characters, got %d", maxSlugLength, len(slug))
	}
}

func TestSlugifyTruncationNeverLeavesTrailingHyphen(t *testing.T) {
	t.Parallel()

	// Word boundary lands exactly on the cap.
	input := strings.Repeat("a", 95) + " " + strings.Repeat("b", 20)
	slug := Slugify(input)
	if strings.HasSuffix(slug, "-") {
		t.Fatalf("expected no trailing hyphen after truncation, got %q", slug)
	}
}

func TestSlugifyIsIdempotent(t *testing.T) {
	t.Parallel()

	inputs := []string{"Hello World", "  padded  ", strings.Repeat("x", 150), "a!b@c"}
	for _, input := range inputs {
		once := Slugify(input)
		twice := Slugify(once)
		if once != twice {
			t.Fatalf("Slugify not idempotent for %q: %q != %q", input, once, twice)
		}
	}
}
