package agents

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/cloudwego/eino/schema"
	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"github.com/zhouzirui/z-research/backend/internal/config"
)

// Writer drafts the final answer with an OpenAI-compatible "specific API"
// model, in a single shot and without tools.
type Writer struct {
	client openai.Client
	model  string
}

// NewWriter creates a writer for cfg. Extra request options are applied after
// the configured base URL and key.
func NewWriter(cfg config.WriterConfig, opts ...option.RequestOption) (*Writer, error) {
	if !cfg.Enabled() {
		return nil, errors.New("agents: writer requires SPECIFIC_API_BASE and SPECIFIC_API_MODEL")
	}

	reqOpts := []option.RequestOption{
		option.WithBaseURL(strings.TrimSpace(cfg.BaseURL)),
		option.WithAPIKey(strings.TrimSpace(cfg.APIKey)),
	}
	reqOpts = append(reqOpts, opts...)

	return &Writer{
		client: openai.NewClient(reqOpts...),
		model:  strings.TrimSpace(cfg.Model),
	}, nil
}

// Write answers from the given conversation, which is expected to carry the
// search results as flattened assistant turns.
func (w *Writer) Write(ctx context.Context, conversation []*schema.Message) (string, error) {
	messages := make([]openai.ChatCompletionMessageParamUnion, 0, len(conversation)+1)
	messages = append(messages, openai.SystemMessage(writerPrompt))
	for _, msg := range conversation {
		if msg == nil || msg.Content == "" {
			continue
		}
		switch msg.Role {
		case schema.User:
			messages = append(messages, openai.UserMessage(msg.Content))
		case schema.System:
			messages = append(messages, openai.SystemMessage(msg.Content))
		default:
			messages = append(messages, openai.AssistantMessage(msg.Content))
		}
	}

	resp, err := w.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(w.model),
		Messages: messages,
	})
	if err != nil {
		return "", fmt.Errorf("agents: writer completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("agents: writer returned no choices")
	}

	answer := resp.Choices[0].Message.Content
	log.Printf("[writer] drafted answer with model=%s, length=%d", w.model, len(answer))
	return answer, nil
}
