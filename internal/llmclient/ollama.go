package llmclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/verdana-eu/verdana-agent/internal/apperr"
)

// OllamaClient talks to a local Ollama server's /api/chat endpoint,
// grounded directly on fbrzx-airplane-chat's internal/ollama.client.
type OllamaClient struct {
	host   string
	model  string
	client *http.Client
}

// NewOllamaClient constructs an Ollama-backed chat client.
func NewOllamaClient(host, model string, timeout time.Duration) *OllamaClient {
	return &OllamaClient{
		host:   strings.TrimRight(host, "/"),
		model:  model,
		client: &http.Client{Timeout: timeout},
	}
}

type ollamaChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ollamaChatRequest struct {
	Model    string              `json:"model"`
	Messages []ollamaChatMessage `json:"messages"`
	Stream   bool                `json:"stream"`
	Options  ollamaChatOptions   `json:"options"`
}

type ollamaChatOptions struct {
	Temperature float64 `json:"temperature"`
	NumPredict  int     `json:"num_predict"`
}

type ollamaChatResponse struct {
	Message ollamaChatMessage `json:"message"`
	Error   string            `json:"error"`
	Done    bool              `json:"done"`
}

func (c *OllamaClient) Complete(ctx context.Context, messages []Message, opts Options) (string, error) {
	if c.host == "" || c.model == "" {
		return "", apperr.New(apperr.KindLLM, "ollama host and model must be configured", nil)
	}

	payload := ollamaChatRequest{
		Model:   c.model,
		Stream:  false,
		Options: ollamaChatOptions{Temperature: opts.Temperature, NumPredict: opts.MaxOutputTokens},
	}
	for _, m := range messages {
		payload.Messages = append(payload.Messages, ollamaChatMessage{Role: string(m.Role), Content: m.Content})
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", apperr.New(apperr.KindLLM, "marshal ollama chat request", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.host+"/api/chat", bytes.NewReader(body))
	if err != nil {
		return "", apperr.New(apperr.KindLLM, "create ollama chat request", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", apperr.New(apperr.KindLLM, "call ollama chat api", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		data, _ := io.ReadAll(resp.Body)
		return "", apperr.New(apperr.KindLLM, fmt.Sprintf("ollama chat api status %d: %s", resp.StatusCode, string(data)), nil)
	}

	var parsed ollamaChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", apperr.New(apperr.KindLLM, "decode ollama chat response", err)
	}
	if parsed.Error != "" {
		return "", apperr.New(apperr.KindLLM, parsed.Error, nil)
	}

	return parsed.Message.Content, nil
}
