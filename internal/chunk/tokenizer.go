package chunk

import (
	"log"
	"strings"
	"sync"

	"github.com/pkoukk/tiktoken-go"
)

// tokenCounter measures a string's length in tokens. Chunk sizes and
// overlap are defined in tokens of the same tokenizer family as the
// embedder; tiktoken-go's cl100k_base BPE encoding is the only
// token-accounting library anywhere in the corpus, so it stands in for
// that family. If it fails to initialize we fall back to a
// whitespace-field count, logged once, never silently.
type tokenCounter func(text string) int

var (
	once        sync.Once
	counterImpl tokenCounter
)

func counter() tokenCounter {
	once.Do(func() {
		enc, err := tiktoken.GetEncoding("cl100k_base")
		if err != nil {
			log.Printf("chunk: tiktoken-go unavailable (%v), falling back to whitespace token estimate", err)
			counterImpl = whitespaceTokenCount
			return
		}
		counterImpl = func(text string) int {
			return len(enc.Encode(text, nil, nil))
		}
	})
	return counterImpl
}

func whitespaceTokenCount(text string) int {
	return len(strings.Fields(text))
}
