// Package lang pattern-matches user utterances for two post-processing
// hints: a requested translation target and a spoken-reply request. Both
// are deliberate heuristics, not language detection; unrecognized phrasing
// silently means "no".
package lang

import (
	"regexp"
	"strings"
)

type language struct {
	name string
	code string
	re   *regexp.Regexp
}

// Mapping order decides which language wins when a prompt somehow names
// more than one.
var languages = buildLanguages([]struct{ name, code string }{
	{"telugu", "te"},
	{"hindi", "hi"},
	{"tamil", "ta"},
	{"french", "fr"},
	{"spanish", "es"},
})

func buildLanguages(entries []struct{ name, code string }) []language {
	out := make([]language, 0, len(entries))
	for _, e := range entries {
		out = append(out, language{
			name: e.name,
			code: e.code,
			re:   regexp.MustCompile(`translate.*` + e.name + `|in ` + e.name + `|give.*in ` + e.name),
		})
	}
	return out
}

var speechRequest = regexp.MustCompile(`read it aloud|speak|audio|voice|say this|speak this|read this`)

// DetectTranslation returns the target language code requested by the
// prompt, or "" when no translation was asked for. Matching is
// case-insensitive; the first language in mapping order wins.
func DetectTranslation(prompt string) string {
	lower := strings.ToLower(prompt)
	for _, l := range languages {
		if l.re.MatchString(lower) {
			return l.code
		}
	}
	return ""
}

// WantsSpeech reports whether the prompt asks for the reply to be read
// out loud.
func WantsSpeech(prompt string) bool {
	return speechRequest.MatchString(strings.ToLower(prompt))
}
