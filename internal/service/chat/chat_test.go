package chat

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestBuildSeedShortTextKeptVerbatim(t *testing.T) {
	seed := buildSeed("short document")
	if !strings.HasPrefix(seed, seedFraming) {
		t.Fatalf("seed missing framing instruction: %q", seed)
	}
	if got := strings.TrimPrefix(seed, seedFraming); got != "short document" {
		t.Fatalf("document portion = %q, want %q", got, "short document")
	}
}

func TestBuildSeedTruncatesAtLimit(t *testing.T) {
	long := strings.Repeat("a", seedLimit+500)
	seed := buildSeed(long)
	doc := strings.TrimPrefix(seed, seedFraming)
	if utf8.RuneCountInString(doc) != seedLimit {
		t.Fatalf("document portion has %d chars, want %d", utf8.RuneCountInString(doc), seedLimit)
	}
	if doc != long[:seedLimit] {
		t.Fatalf("document portion is not the exact prefix of the input")
	}
}

func TestBuildSeedTruncatesByCharactersNotBytes(t *testing.T) {
	// Multi-byte runes: a byte-indexed slice would split one in half.
	long := strings.Repeat("日", seedLimit+10)
	doc := strings.TrimPrefix(buildSeed(long), seedFraming)
	if !utf8.ValidString(doc) {
		t.Fatalf("truncation split a multi-byte character")
	}
	if utf8.RuneCountInString(doc) != seedLimit {
		t.Fatalf("document portion has %d chars, want %d", utf8.RuneCountInString(doc), seedLimit)
	}
}
