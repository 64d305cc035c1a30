package agents

import (
	"encoding/json"

	"github.com/cloudwego/eino/schema"
)

type flattenedToolResult struct {
	Tool   string          `json:"tool,omitempty"`
	Result json.RawMessage `json:"result"`
}

// FlattenToolMessages rewrites a conversation for models that only accept
// user/assistant/system turns. Tool turns become assistant turns carrying
// {"tool": name, "result": content}; assistant turns drop their tool calls and
// vanish when nothing else is left. The input slice is not modified.
func FlattenToolMessages(conversation []*schema.Message) []*schema.Message {
	callNames := make(map[string]string)
	out := make([]*schema.Message, 0, len(conversation))

	for _, msg := range conversation {
		if msg == nil {
			continue
		}
		switch {
		case msg.Role == schema.Tool:
			out = append(out, schema.AssistantMessage(flattenToolResult(callNames[msg.ToolCallID], msg.Content), nil))
		case len(msg.ToolCalls) > 0:
			for _, call := range msg.ToolCalls {
				callNames[call.ID] = call.Function.Name
			}
			if msg.Content == "" {
				continue
			}
			out = append(out, &schema.Message{Role: msg.Role, Content: msg.Content})
		default:
			out = append(out, msg)
		}
	}
	return out
}

func flattenToolResult(name, content string) string {
	result := json.RawMessage(content)
	if !json.Valid(result) {
		quoted, _ := json.Marshal(content)
		result = quoted
	}
	data, err := json.Marshal(flattenedToolResult{Tool: name, Result: result})
	if err != nil {
		return content
	}
	return string(data)
}
