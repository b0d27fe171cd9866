package classify

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/verdana-eu/verdana-agent/internal/llmclient"
)

// llmClassifyBudget bounds one LLM classification call, retries included.
const llmClassifyBudget = 1500 * time.Millisecond

// LLMClassifier asks a chat model to pick a QueryClass when the pattern
// rules don't recognize the query, grounded on Aman-CERP's LLMClassifier
// prompt-and-parse shape but using the shared llmclient.Client abstraction
// instead of a bespoke Ollama call.
type LLMClassifier struct {
	client llmclient.Client
	model  string
}

// NewLLMClassifier wraps client for classification use.
func NewLLMClassifier(client llmclient.Client) *LLMClassifier {
	return &LLMClassifier{client: client}
}

const classificationPrompt = `Classify the user's message into exactly one category and answer with only that word.

SMALL_TALK - greetings, thanks, pleasantries with no information request.
IDENTITY - questions about who or what the assistant is.
META - questions about the assistant's capabilities, sources, or knowledge base.
POLICY - any question that requires looking up EU Green Deal policy information.

Message: %s

Category:`

func (l *LLMClassifier) Classify(ctx context.Context, query string, history []string) (QueryClass, error) {
	prompt := fmt.Sprintf(classificationPrompt, query)
	messages := []llmclient.Message{
		{Role: llmclient.RoleUser, Content: prompt},
	}

	ctx, cancel := context.WithTimeout(ctx, llmClassifyBudget)
	defer cancel()

	out, err := l.client.Complete(ctx, messages, llmclient.Options{Temperature: 0, MaxOutputTokens: 10})
	if err != nil {
		return "", err
	}

	return parseClassification(out), nil
}

func parseClassification(response string) QueryClass {
	upper := strings.ToUpper(strings.TrimSpace(response))
	switch {
	case strings.Contains(upper, "SMALL_TALK"):
		return ClassSmallTalk
	case strings.Contains(upper, "IDENTITY"):
		return ClassIdentity
	case strings.Contains(upper, "META"):
		return ClassMeta
	default:
		return ClassPolicy
	}
}
