// Package websearch performs live web lookups to verify or augment
// knowledge-base answers. It talks to a SearXNG instance, grounded on
// manifold's internal/tools/web search tool (JSON API first,
// HTML-link-scrape fallback), but drops that tool's bespoke retry loop in
// favor of the shared internal/retry policy and bounds concurrency with a
// per-Searcher semaphore.Weighted instead of a token-bucket rate limiter,
// since every caller in this agent already runs under a context deadline.
package websearch

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/net/html"
	"golang.org/x/sync/semaphore"

	"github.com/verdana-eu/verdana-agent/internal/apperr"
	"github.com/verdana-eu/verdana-agent/internal/retry"
	"github.com/verdana-eu/verdana-agent/internal/source"
)

// Mode selects how a search is scoped.
type Mode int

const (
	// ModeBroad runs an unrestricted web search.
	ModeBroad Mode = iota
	// ModeEURestricted limits results to a configured allowlist of EU
	// institutional domains.
	ModeEURestricted
)

// Searcher queries SearXNG for web results and converts them to source.Ref
// values. It never returns an error to the retrieval coordinator: a failed
// search degrades to an empty result set, which the caller records in its
// Degraded map.
type Searcher struct {
	baseURL    string
	httpClient *http.Client
	sem        *semaphore.Weighted
	policy     retry.Policy
	euDomains  []string
}

const defaultMaxParallel = 4

// New constructs a Searcher against a SearXNG instance at baseURL, bounding
// concurrent outbound requests to maxParallel (default 4) and restricting
// ModeEURestricted results to euDomains.
func New(baseURL string, timeout time.Duration, maxParallel int, euDomains []string) *Searcher {
	if maxParallel <= 0 {
		maxParallel = defaultMaxParallel
	}
	return &Searcher{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		sem:        semaphore.NewWeighted(int64(maxParallel)),
		policy:     retry.Policy{MaxAttempts: 2, InitialInterval: 200 * time.Millisecond, MaxInterval: 2 * time.Second},
		euDomains:  euDomains,
	}
}

// Search returns up to maxResults web sources for query in the given mode.
// Never returns an error; a nil/empty slice means the search degraded.
func (s *Searcher) Search(ctx context.Context, query string, mode Mode, maxResults int) []source.Ref {
	if err := s.sem.Acquire(ctx, 1); err != nil {
		return nil
	}
	defer s.sem.Release(1)

	q := query
	if mode == ModeEURestricted && len(s.euDomains) > 0 {
		q = restrictToDomains(query, s.euDomains)
	}

	var results []searchResult
	err := retry.Do(ctx, s.policy, func() error {
		out, err := s.searchJSON(ctx, q, maxResults)
		if err != nil || len(out) == 0 {
			out, err = s.searchHTML(ctx, q, maxResults)
		}
		if err != nil {
			return err
		}
		results = out
		return nil
	})
	if err != nil {
		return nil
	}

	refs := make([]source.Ref, 0, len(results))
	for i, r := range results {
		score := scoreForRank(i, len(results))
		if mode == ModeEURestricted {
			refs = append(refs, source.FromWebVerification(r.Title, r.URL, score))
		} else {
			refs = append(refs, source.FromWebSearch(r.Title, r.URL, score))
		}
	}
	return refs
}

// scoreForRank assigns a descending pseudo-relevance score by rank, since
// SearXNG's JSON API does not expose a numeric score itself.
func scoreForRank(rank, total int) float64 {
	if total <= 1 {
		return 1.0
	}
	return 1.0 - float64(rank)/float64(total)
}

func restrictToDomains(query string, domains []string) string {
	var b strings.Builder
	b.WriteString(query)
	for _, d := range domains {
		b.WriteString(" site:")
		b.WriteString(d)
	}
	return b.String()
}

type searchResult struct {
	Title string
	URL   string
}

func (s *Searcher) searchJSON(ctx context.Context, query string, max int) ([]searchResult, error) {
	v := url.Values{}
	v.Set("q", query)
	v.Set("format", "json")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"/search?"+v.Encode(), nil)
	if err != nil {
		return nil, apperr.New(apperr.KindWebSearch, "build search request", err)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, apperr.New(apperr.KindWebSearch, "call searxng", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 {
		return nil, apperr.New(apperr.KindWebSearch, fmt.Sprintf("searxng transient status %d", resp.StatusCode), nil)
	}
	if resp.StatusCode >= 400 {
		return nil, retry.Permanent(apperr.New(apperr.KindWebSearch, fmt.Sprintf("searxng status %d", resp.StatusCode), nil))
	}

	var parsed struct {
		Results []struct {
			Title string `json:"title"`
			URL   string `json:"url"`
		} `json:"results"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, apperr.New(apperr.KindWebSearch, "decode searxng response", err)
	}

	out := make([]searchResult, 0, max)
	for i, r := range parsed.Results {
		if i >= max {
			break
		}
		out = append(out, searchResult{Title: strings.TrimSpace(r.Title), URL: r.URL})
	}
	return out, nil
}

// searchHTML falls back to scraping SearXNG's HTML result page when the
// JSON API is disabled or returns nothing.
func (s *Searcher) searchHTML(ctx context.Context, query string, max int) ([]searchResult, error) {
	v := url.Values{}
	v.Set("q", query)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"/search?"+v.Encode(), nil)
	if err != nil {
		return nil, apperr.New(apperr.KindWebSearch, "build search request", err)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, apperr.New(apperr.KindWebSearch, "call searxng html", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, apperr.New(apperr.KindWebSearch, fmt.Sprintf("searxng html status %d", resp.StatusCode), nil)
	}

	root, err := html.Parse(resp.Body)
	if err != nil {
		return nil, apperr.New(apperr.KindWebSearch, "parse searxng html", err)
	}

	urls := extractLinks(root)
	out := make([]searchResult, 0, max)
	seen := map[string]struct{}{}
	for _, u := range urls {
		if _, ok := seen[u]; ok {
			continue
		}
		seen[u] = struct{}{}

		title := u
		if parsed, err := url.Parse(u); err == nil && parsed.Host != "" {
			title = parsed.Host + parsed.Path
		}
		out = append(out, searchResult{Title: title, URL: u})
		if len(out) >= max {
			break
		}
	}
	return out, nil
}

func extractLinks(doc *html.Node) []string {
	var urls []string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "a" {
			for _, attr := range n.Attr {
				if attr.Key == "href" && strings.Contains(attr.Val, "http") {
					urls = append(urls, attr.Val)
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return urls
}
