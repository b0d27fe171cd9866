package extract

import (
	"regexp"
	"strings"
)

var (
	horizontalWhitespace = regexp.MustCompile(`[ \t]+`)
	threeOrMoreNewlines  = regexp.MustCompile(`\n{3,}`)
	formFeed             = regexp.MustCompile("\f")
)

// normalize applies the extraction-wide normalization policy: unify line
// endings, collapse runs of horizontal whitespace within a line while
// preserving paragraph breaks (blank lines), strip form feeds, and drop a
// running header/footer line repeated across most pages.
func normalize(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	text = formFeed.ReplaceAllString(text, "\n")

	lines := strings.Split(text, "\n")
	lines = dropRepeatedHeaderFooter(lines)

	for i, line := range lines {
		lines[i] = strings.TrimRight(horizontalWhitespace.ReplaceAllString(line, " "), " ")
	}

	joined := strings.Join(lines, "\n")
	joined = threeOrMoreNewlines.ReplaceAllString(joined, "\n\n")
	return strings.TrimSpace(joined)
}

// dropRepeatedHeaderFooter removes a non-blank line that recurs verbatim on
// at least 60% of the "pages" implied by blank-line-delimited blocks,
// keeping only its first occurrence. This targets running headers/footers
// PDF extraction otherwise repeats once per page.
func dropRepeatedHeaderFooter(lines []string) []string {
	counts := make(map[string]int)
	nonBlank := 0
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		nonBlank++
		counts[trimmed]++
	}
	if nonBlank == 0 {
		return lines
	}

	threshold := int(0.6 * float64(countBlockBreaks(lines)+1))
	if threshold < 3 {
		// Not enough structure to confidently call anything a running
		// header; leave short documents untouched.
		return lines
	}

	repeated := make(map[string]bool)
	for text, n := range counts {
		if n >= threshold {
			repeated[text] = true
		}
	}
	if len(repeated) == 0 {
		return lines
	}

	seen := make(map[string]bool)
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if repeated[trimmed] {
			if seen[trimmed] {
				continue
			}
			seen[trimmed] = true
		}
		out = append(out, line)
	}
	return out
}

func countBlockBreaks(lines []string) int {
	count := 0
	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			count++
		}
	}
	return count
}
