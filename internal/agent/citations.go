package agent

import (
	"regexp"
	"strconv"
)

var citationPattern = regexp.MustCompile(`\[(\d+)\]`)

// VerifyCitations checks every inline [n] citation in text against the
// evidence count, dropping ones that reference an index outside [1, n]
// so a reply never cites evidence that wasn't actually provided.
func VerifyCitations(text string, evidenceCount int) string {
	return citationPattern.ReplaceAllStringFunc(text, func(match string) string {
		sub := citationPattern.FindStringSubmatch(match)
		n, err := strconv.Atoi(sub[1])
		if err != nil || n < 1 || n > evidenceCount {
			return ""
		}
		return match
	})
}
