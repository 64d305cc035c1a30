// Package provider adapts chat backends that have no eino-ext component to
// eino's model interfaces.
package provider

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/ollama/ollama/api"
)

// ErrToolsUnsupported is returned by WithTools on backends that run the
// reduced, tool-less research path.
var ErrToolsUnsupported = errors.New("provider: tool calling is not supported by this backend")

type ollamaChatter interface {
	Chat(ctx context.Context, req *api.ChatRequest, fn api.ChatResponseFunc) error
}

// OllamaChatModel is a model.ToolCallingChatModel backed by an Ollama server.
type OllamaChatModel struct {
	client ollamaChatter
	model  string
}

var _ model.ToolCallingChatModel = (*OllamaChatModel)(nil)

// NewOllamaChatModel connects to the Ollama server at baseURL.
func NewOllamaChatModel(baseURL, modelName string, httpClient *http.Client) (*OllamaChatModel, error) {
	modelName = strings.TrimSpace(modelName)
	if modelName == "" {
		return nil, errors.New("provider: ollama model must not be empty")
	}
	base, err := url.Parse(strings.TrimSpace(baseURL))
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("provider: invalid ollama base url %q", baseURL)
	}
	// api.Client adds the /api prefix itself.
	base.Path = strings.TrimSuffix(strings.TrimRight(base.Path, "/"), "/api")
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &OllamaChatModel{client: api.NewClient(base, httpClient), model: modelName}, nil
}

// Generate runs a non-streaming chat completion.
func (m *OllamaChatModel) Generate(ctx context.Context, input []*schema.Message, _ ...model.Option) (*schema.Message, error) {
	stream := false
	req := &api.ChatRequest{
		Model:    m.model,
		Messages: toOllamaMessages(input),
		Stream:   &stream,
	}

	var (
		content strings.Builder
		last    api.ChatResponse
	)
	err := m.client.Chat(ctx, req, func(resp api.ChatResponse) error {
		content.WriteString(resp.Message.Content)
		last = resp
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("provider: ollama chat: %w", err)
	}

	return &schema.Message{
		Role:         schema.Assistant,
		Content:      content.String(),
		ResponseMeta: responseMeta(last),
	}, nil
}

// Stream pipes Ollama chunks into an eino stream reader.
func (m *OllamaChatModel) Stream(ctx context.Context, input []*schema.Message, _ ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	stream := true
	req := &api.ChatRequest{
		Model:    m.model,
		Messages: toOllamaMessages(input),
		Stream:   &stream,
	}

	sr, sw := schema.Pipe[*schema.Message](8)
	go func() {
		defer sw.Close()
		err := m.client.Chat(ctx, req, func(resp api.ChatResponse) error {
			chunk := &schema.Message{Role: schema.Assistant, Content: resp.Message.Content}
			if resp.Done {
				chunk.ResponseMeta = responseMeta(resp)
			}
			if closed := sw.Send(chunk, nil); closed {
				return context.Canceled
			}
			return nil
		})
		if err != nil && !errors.Is(err, context.Canceled) {
			sw.Send(nil, fmt.Errorf("provider: ollama chat stream: %w", err))
		}
	}()
	return sr, nil
}

// WithTools always fails: the Ollama path answers without tools.
func (m *OllamaChatModel) WithTools(_ []*schema.ToolInfo) (model.ToolCallingChatModel, error) {
	return nil, ErrToolsUnsupported
}

func toOllamaMessages(input []*schema.Message) []api.Message {
	out := make([]api.Message, 0, len(input))
	for _, msg := range input {
		if msg == nil {
			continue
		}
		role := string(msg.Role)
		content := msg.Content
		// Tool results are replayed as assistant notes.
		if msg.Role == schema.Tool {
			role = string(schema.Assistant)
		}
		if content == "" && len(msg.ToolCalls) > 0 {
			continue
		}
		out = append(out, api.Message{Role: role, Content: content})
	}
	return out
}

func responseMeta(resp api.ChatResponse) *schema.ResponseMeta {
	reason := resp.DoneReason
	if reason == "" && resp.Done {
		reason = "stop"
	}
	return &schema.ResponseMeta{
		FinishReason: reason,
		Usage: &schema.TokenUsage{
			PromptTokens:     resp.PromptEvalCount,
			CompletionTokens: resp.EvalCount,
			TotalTokens:      resp.PromptEvalCount + resp.EvalCount,
		},
	}
}
