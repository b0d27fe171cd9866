// Package llmclient provides a provider-agnostic chat-completion interface
// used by the classifier's LLM fallback and the agent orchestrator.
// Grounded on fbrzx-airplane-chat's internal/ollama client for the Ollama
// backend's shape, and on manifold's internal/llm/openai client for the
// OpenAI-compatible backend.
package llmclient

import "context"

// Role identifies the speaker of a Message in a chat-completion request.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one turn in a chat-completion request.
type Message struct {
	Role    Role
	Content string
}

// Options tunes a single completion call.
type Options struct {
	Temperature     float64
	MaxOutputTokens int
}

// Client generates a chat completion from a sequence of messages. Every
// concrete provider and the shared retry wrapper implement it.
type Client interface {
	Complete(ctx context.Context, messages []Message, opts Options) (string, error)
}
