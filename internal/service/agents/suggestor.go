package agents

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"
	"github.com/invopop/jsonschema"

	"github.com/zhouzirui/z-research/backend/internal/model/chat"
)

const relatedQueryCount = 3

// QuerySuggestor proposes follow-up queries for a finished conversation.
type QuerySuggestor struct {
	chain  compose.Runnable[map[string]any, *schema.Message]
	format string
}

// NewQuerySuggestor compiles the suggestor chain on top of chatModel.
func NewQuerySuggestor(ctx context.Context, chatModel model.BaseChatModel) (*QuerySuggestor, error) {
	if chatModel == nil {
		return nil, errors.New("agents: chat model must not be nil")
	}

	format, err := relatedQueriesSchema()
	if err != nil {
		return nil, err
	}

	promptTemplate := prompt.FromMessages(
		schema.FString,
		schema.SystemMessage(suggestorPrompt),
		schema.MessagesPlaceholder("history", false),
	)

	chain := compose.NewChain[map[string]any, *schema.Message]()
	chain.AppendChatTemplate(promptTemplate)
	chain.AppendChatModel(chatModel)

	runnable, err := chain.Compile(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to compile query suggestor chain: %w", err)
	}

	return &QuerySuggestor{chain: runnable, format: format}, nil
}

// Suggest returns up to three related queries. Failures are logged and yield
// an empty list; suggestions are never worth failing a request over.
func (s *QuerySuggestor) Suggest(ctx context.Context, conversation []*schema.Message) chat.RelatedQueries {
	empty := chat.RelatedQueries{Items: []chat.RelatedQuery{}}

	msg, err := s.chain.Invoke(ctx, map[string]any{
		"format":  s.format,
		"history": conversation,
	})
	if err != nil {
		log.Printf("[suggestor] invoke failed: %v", err)
		return empty
	}
	if msg == nil || strings.TrimSpace(msg.Content) == "" {
		return empty
	}

	related, err := parseRelatedQueries(msg.Content)
	if err != nil {
		log.Printf("[suggestor] output parse failed: %v", err)
		return empty
	}
	return related
}

// parseRelatedQueries extracts the JSON object from the model reply, which
// may be wrapped in prose or a code fence.
func parseRelatedQueries(content string) (chat.RelatedQueries, error) {
	trimmed := strings.TrimSpace(content)
	start := strings.Index(trimmed, "{")
	end := strings.LastIndex(trimmed, "}")
	if start == -1 || end == -1 || end <= start {
		return chat.RelatedQueries{}, fmt.Errorf("missing json object")
	}

	var payload chat.RelatedQueries
	if err := json.Unmarshal([]byte(trimmed[start:end+1]), &payload); err != nil {
		return chat.RelatedQueries{}, err
	}

	out := chat.RelatedQueries{Items: make([]chat.RelatedQuery, 0, relatedQueryCount)}
	for _, item := range payload.Items {
		q := strings.TrimSpace(item.Query)
		if q == "" {
			continue
		}
		out.Items = append(out.Items, chat.RelatedQuery{Query: q})
		if len(out.Items) == relatedQueryCount {
			break
		}
	}
	return out, nil
}

func relatedQueriesSchema() (string, error) {
	reflector := jsonschema.Reflector{DoNotReference: true, ExpandedStruct: true}
	s := reflector.Reflect(&chat.RelatedQueries{})
	data, err := json.Marshal(s)
	if err != nil {
		return "", fmt.Errorf("agents: encode related queries schema: %w", err)
	}
	return string(data), nil
}
