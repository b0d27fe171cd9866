// Package language detects a query's language and normalizes it to a
// BCP-47 tag. No pack example ships a statistical language-ID library, so
// detection is a compact stopword-overlap heuristic over the languages
// the corpus actually serves (the EU's official languages);
// golang.org/x/text/language handles canonical BCP-47 tag construction
// and matching against that supported set, which a hand-rolled string
// comparison would get wrong for tags like "pt-BR" vs "pt".
package language

import (
	"strings"
	"unicode"

	"golang.org/x/text/language"
)

// Detect guesses the BCP-47 language tag of text, matching against the
// configured supported set. Falls back to fallback if no stopword overlap
// clears the confidence threshold (e.g. very short queries).
func Detect(text string, supported []string, fallback string) string {
	words := tokenize(text)
	if len(words) == 0 {
		return normalize(fallback, supported, fallback)
	}

	best := fallback
	bestScore := 0
	for _, tag := range supported {
		score := overlapScore(words, stopwords[tag])
		if score > bestScore {
			bestScore = score
			best = tag
		}
	}

	if bestScore == 0 {
		return normalize(fallback, supported, fallback)
	}
	return normalize(best, supported, fallback)
}

// normalize canonicalizes tag to BCP-47 and resolves it against the
// supported matcher, falling back to fallback if tag isn't recognized.
func normalize(tag string, supported []string, fallback string) string {
	tags := make([]language.Tag, 0, len(supported))
	for _, s := range supported {
		parsed, err := language.Parse(s)
		if err != nil {
			continue
		}
		tags = append(tags, parsed)
	}
	if len(tags) == 0 {
		return fallback
	}

	matcher := language.NewMatcher(tags)
	parsed, err := language.Parse(tag)
	if err != nil {
		return fallback
	}

	_, index, _ := matcher.Match(parsed)
	return tags[index].String()
}

func tokenize(text string) []string {
	var words []string
	var b strings.Builder
	for _, r := range strings.ToLower(text) {
		if unicode.IsLetter(r) {
			b.WriteRune(r)
			continue
		}
		if b.Len() > 0 {
			words = append(words, b.String())
			b.Reset()
		}
	}
	if b.Len() > 0 {
		words = append(words, b.String())
	}
	return words
}

func overlapScore(words []string, stop map[string]struct{}) int {
	score := 0
	for _, w := range words {
		if _, ok := stop[w]; ok {
			score++
		}
	}
	return score
}
