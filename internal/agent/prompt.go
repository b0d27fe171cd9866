package agent

import (
	"fmt"
	"strings"

	"github.com/verdana-eu/verdana-agent/internal/llmclient"
	"github.com/verdana-eu/verdana-agent/internal/memory"
	"github.com/verdana-eu/verdana-agent/internal/source"
)

const systemPreambleTemplate = `You are Verdana, an assistant answering questions about EU Green Deal policy.

Rules:
- Cite evidence by its bracketed index, e.g. [1], [2]. Never invent a URL or a citation index that is not in the evidence list below.
- If the evidence does not support an answer, say so plainly instead of guessing.
- Reply entirely in %s.
- Keep the answer focused and factual; this is not legal advice.

Evidence:
%s`

// BuildPrompt assembles the grounded-prompt messages for a policy-class
// turn: system preamble (role, citation rule, honesty rule, pinned
// language), recent history, and the user question. Grounded on the
// teacher's server.buildPrompt, generalized from document dumps to
// numbered evidence blocks.
func BuildPrompt(language string, history []memory.Turn, evidence []source.Ref, question string) []llmclient.Message {
	messages := make([]llmclient.Message, 0, len(history)+2)

	messages = append(messages, llmclient.Message{
		Role:    llmclient.RoleSystem,
		Content: fmt.Sprintf(systemPreambleTemplate, language, renderEvidence(evidence)),
	})

	for _, turn := range history {
		role := llmclient.RoleUser
		if turn.Role == "assistant" {
			role = llmclient.RoleAssistant
		}
		messages = append(messages, llmclient.Message{Role: role, Content: turn.Content})
	}

	messages = append(messages, llmclient.Message{Role: llmclient.RoleUser, Content: question})
	return messages
}

// renderEvidence numbers each SourceRef with title + URL (+ similarity/score
// for context) so the LLM can cite it by index.
func renderEvidence(refs []source.Ref) string {
	if len(refs) == 0 {
		return "(none)"
	}

	var b strings.Builder
	for i, r := range refs {
		url := "(no url)"
		if r.URL != nil {
			url = *r.URL
		}
		fmt.Fprintf(&b, "[%d] %s — %s (relevance: %.2f)\n", i+1, r.Title, url, r.EffectiveScore())
	}
	return b.String()
}
