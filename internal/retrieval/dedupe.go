package retrieval

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/verdana-eu/verdana-agent/internal/source"
)

// dedupe removes SourceRefs sharing a canonicalized URL, or for
// knowledge_base refs, a (document_id, chunk_index) pair. First occurrence
// wins.
func dedupe(refs []source.Ref) []source.Ref {
	seenKeys := map[string]struct{}{}
	out := make([]source.Ref, 0, len(refs))

	for _, r := range refs {
		key := dedupeKey(r)
		if key == "" {
			out = append(out, r)
			continue
		}
		if _, ok := seenKeys[key]; ok {
			continue
		}
		seenKeys[key] = struct{}{}
		out = append(out, r)
	}

	return out
}

func dedupeKey(r source.Ref) string {
	if r.Type == source.TypeKnowledgeBase && r.DocumentID != "" {
		return fmt.Sprintf("kb:%s:%d", r.DocumentID, r.ChunkIndex)
	}
	// A verification ref legitimately shares its URL with the web_verification
	// ref it corroborates; keying it the same way would have plain URL dedup
	// silently discard the corroboration marker it was built from.
	if r.Type == source.TypeVerification {
		return "verify:" + strings.ToLower(r.Title)
	}
	if r.URL != nil {
		return "url:" + canonicalizeURL(*r.URL)
	}
	return ""
}

// canonicalizeURL strips scheme-irrelevant noise so the same resource
// reached via http/https, a trailing slash, or an explicit default port
// dedupes to one key.
func canonicalizeURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}

	host := strings.ToLower(u.Hostname())
	port := u.Port()
	if (u.Scheme == "http" && port == "80") || (u.Scheme == "https" && port == "443") {
		port = ""
	}
	if port != "" {
		host += ":" + port
	}

	path := strings.TrimSuffix(u.Path, "/")
	return host + path
}
