// Package chunk splits extracted document text into fixed-size overlapping
// windows. Size and overlap are measured in tokens; boundaries prefer
// paragraph or sentence breaks within a ±10% window of the target size
// before falling back to the nearest whitespace.
package chunk

import (
	"regexp"
	"strings"
)

const (
	DefaultChunkSize = 800
	DefaultOverlap   = 300

	// boundaryTolerance is the ±10% window allowed when preferring a
	// paragraph/sentence break over the hard size cut.
	boundaryTolerance = 0.10
	// overlapTolerance bounds actual overlap to [0.8, 1.2] x target.
	overlapToleranceLow  = 0.8
	overlapToleranceHigh = 1.2
)

// Chunk is one contiguous, token-measured slice of a document's text.
type Chunk struct {
	Index       int
	Text        string
	TokenCount  int
	StartOffset int // rune offset into the original text
	EndOffset   int
}

var sentenceBoundary = regexp.MustCompile(`[.!?][\s"')\]]*\s`)

// unit is one sentence-level piece of text carrying its own token count and
// its offsets in the original document, plus whether it ends a paragraph
// (the stronger of the two preferred break points).
type unit struct {
	text          string
	tokens        int
	start, end    int
	endsParagraph bool
}

// Chunk splits text into an ordered sequence of overlapping windows. overlap
// must be strictly less than size; empty input produces an empty sequence.
func Chunk(text string, size, overlap int) []Chunk {
	if size <= 0 {
		size = DefaultChunkSize
	}
	if overlap < 0 || overlap >= size {
		overlap = DefaultOverlap
	}
	if strings.TrimSpace(text) == "" {
		return nil
	}

	units := splitUnits(text)
	if len(units) == 0 {
		return nil
	}

	count := counter()
	for i := range units {
		units[i].tokens = count(units[i].text)
	}

	return assemble(units, size, overlap)
}

// splitUnits breaks text into paragraph-aware sentence units, each carrying
// its rune-offset span in the original text.
func splitUnits(text string) []unit {
	var units []unit

	paragraphs := strings.SplitAfter(text, "\n\n")
	offset := 0
	for _, para := range paragraphs {
		if para == "" {
			continue
		}
		paraRunes := []rune(para)
		trimmed := strings.TrimRight(para, "\n")
		sentences := splitSentences(trimmed)

		localOffset := 0
		for i, sentence := range sentences {
			sentenceRunes := []rune(sentence)
			start := offset + localOffset
			end := start + len(sentenceRunes)
			units = append(units, unit{
				text:          sentence,
				start:         start,
				end:           end,
				endsParagraph: i == len(sentences)-1,
			})
			localOffset += len(sentenceRunes)
		}
		offset += len(paraRunes)
	}

	return units
}

// splitSentences splits a paragraph into sentences on '.', '!', '?'
// followed by whitespace, preserving the separating whitespace with the
// preceding sentence so units concatenate back to the exact input.
func splitSentences(paragraph string) []string {
	if paragraph == "" {
		return nil
	}
	locs := sentenceBoundary.FindAllStringIndex(paragraph, -1)
	if len(locs) == 0 {
		return []string{paragraph}
	}

	var sentences []string
	prev := 0
	for _, loc := range locs {
		sentences = append(sentences, paragraph[prev:loc[1]])
		prev = loc[1]
	}
	if prev < len(paragraph) {
		sentences = append(sentences, paragraph[prev:])
	}
	return sentences
}

// assemble greedily packs units into windows of approximately size tokens,
// preferring to cut at a unit boundary within ±10% of size (paragraph ends
// preferred over mid-paragraph sentence ends), then carries an overlap
// suffix forward into the next window.
func assemble(units []unit, size, overlap int) []Chunk {
	var chunks []Chunk
	i := 0
	low := int(float64(size) * (1 - boundaryTolerance))
	high := int(float64(size) * (1 + boundaryTolerance))

	for i < len(units) {
		j := i
		tokens := 0
		lastPreferredEnd := -1

		for j < len(units) {
			tokens += units[j].tokens
			j++
			if tokens >= low && tokens <= high {
				if units[j-1].endsParagraph {
					lastPreferredEnd = j
				} else if lastPreferredEnd == -1 {
					lastPreferredEnd = j
				}
			}
			if tokens >= high {
				break
			}
		}

		end := j
		if lastPreferredEnd != -1 {
			end = lastPreferredEnd
		}
		if end <= i {
			end = i + 1
		}

		chunkUnits := units[i:end]
		chunkText := joinUnits(chunkUnits)
		chunkTokens := sumTokens(chunkUnits)

		chunks = append(chunks, Chunk{
			Index:       len(chunks),
			Text:        strings.TrimSpace(chunkText),
			TokenCount:  chunkTokens,
			StartOffset: chunkUnits[0].start,
			EndOffset:   chunkUnits[len(chunkUnits)-1].end,
		})

		if end >= len(units) {
			break
		}

		next := nextStart(units, end, overlap)
		if next <= i {
			next = end
		}
		i = next
	}

	return chunks
}

// nextStart walks backward from the end of the just-emitted chunk and
// returns the first (largest) unit index k < end such that the token sum
// of units[k:end) lands within [0.8, 1.2] x overlap. If the sum jumps past
// the upper bound it returns the index just before the overshoot; if the
// lower bound is never reached it returns end (no overlap). The caller
// advances to end when the returned index would not move past the
// chunk's start.
func nextStart(units []unit, end, overlap int) int {
	low := int(float64(overlap) * overlapToleranceLow)
	high := int(float64(overlap) * overlapToleranceHigh)

	tokens := 0
	for k := end - 1; k >= 0; k-- {
		tokens += units[k].tokens
		if tokens >= low && tokens <= high {
			return k
		}
		if tokens > high {
			// Overshot; take k+1 (the undershooting side) unless that is
			// end itself, in which case take k.
			if k+1 < end {
				return k + 1
			}
			return k
		}
	}
	// overlap never reached (short document): no overlap possible, just
	// advance past the emitted chunk.
	return end
}

func joinUnits(units []unit) string {
	var b strings.Builder
	for _, u := range units {
		b.WriteString(u.text)
	}
	return b.String()
}

func sumTokens(units []unit) int {
	sum := 0
	for _, u := range units {
		sum += u.tokens
	}
	return sum
}
