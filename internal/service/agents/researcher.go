package agents

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/tool"
	"github.com/cloudwego/eino/schema"

	"github.com/zhouzirui/z-research/backend/internal/provider"
)

// FinishReasonStop is the finish reason of a turn that produced a final answer.
const FinishReasonStop = "stop"

var ErrUnknownTool = errors.New("agents: unknown tool")

// ToolResult is one executed tool call.
type ToolResult struct {
	CallID    string
	Name      string
	Arguments string
	Content   string
	Failed    bool
}

// ResearchResult is the outcome of a single researcher round.
type ResearchResult struct {
	Text         string
	FinishReason string
	ToolResults  []ToolResult
	// Messages are the turns to append to the conversation: the assistant
	// turn, then one tool turn per call.
	Messages []*schema.Message
}

// Researcher drives one model round with tools and executes the calls it asks for.
type Researcher struct {
	model      model.BaseChatModel
	tools      map[string]tool.InvokableTool
	toolsBound bool
	now        func() time.Time
}

// NewResearcher binds tools to chatModel. Backends that cannot bind tools
// (provider.ErrToolsUnsupported) get a tool-less researcher.
func NewResearcher(ctx context.Context, chatModel model.ToolCallingChatModel, tools []tool.InvokableTool) (*Researcher, error) {
	if chatModel == nil {
		return nil, errors.New("agents: chat model must not be nil")
	}

	r := &Researcher{
		model: chatModel,
		tools: make(map[string]tool.InvokableTool, len(tools)),
		now:   time.Now,
	}
	if len(tools) == 0 {
		return r, nil
	}

	infos := make([]*schema.ToolInfo, 0, len(tools))
	for _, t := range tools {
		info, err := t.Info(ctx)
		if err != nil {
			return nil, fmt.Errorf("agents: describe tool: %w", err)
		}
		infos = append(infos, info)
		r.tools[info.Name] = t
	}

	bound, err := chatModel.WithTools(infos)
	if errors.Is(err, provider.ErrToolsUnsupported) {
		log.Printf("[researcher] backend cannot call tools, researching without them")
		r.tools = map[string]tool.InvokableTool{}
		return r, nil
	}
	if err != nil {
		return nil, fmt.Errorf("agents: bind tools: %w", err)
	}

	r.model = bound
	r.toolsBound = true
	return r, nil
}

// ToolsEnabled reports whether the model was given tools.
func (r *Researcher) ToolsEnabled() bool {
	return r.toolsBound
}

// Research runs one round over conversation. With toolsOnly the model is
// forced to call a tool instead of answering: tool_choice is set and the
// system prompt says so, since not every provider honours tool_choice.
func (r *Researcher) Research(ctx context.Context, conversation []*schema.Message, toolsOnly bool) (*ResearchResult, error) {
	forced := toolsOnly && r.toolsBound

	system := researcherPrompt(r.now())
	if forced {
		system += "\n" + toolsOnlyInstruction
	}
	input := make([]*schema.Message, 0, len(conversation)+1)
	input = append(input, schema.SystemMessage(system))
	input = append(input, conversation...)

	var opts []model.Option
	if forced {
		opts = append(opts, model.WithToolChoice(schema.ToolChoiceForced))
	}

	msg, err := r.model.Generate(ctx, input, opts...)
	if err != nil {
		return nil, fmt.Errorf("agents: researcher generate: %w", err)
	}
	if msg == nil {
		return nil, errors.New("agents: researcher returned no message")
	}

	result := &ResearchResult{
		Text:         msg.Content,
		FinishReason: finishReason(msg),
	}
	if msg.Content != "" || len(msg.ToolCalls) > 0 {
		result.Messages = append(result.Messages, msg)
	}

	for _, call := range msg.ToolCalls {
		tr := r.execTool(ctx, call)
		result.ToolResults = append(result.ToolResults, tr)
		result.Messages = append(result.Messages, schema.ToolMessage(tr.Content, call.ID))
	}

	log.Printf("[researcher] round finished: reason=%s tools=%d answer_len=%d", result.FinishReason, len(result.ToolResults), len(result.Text))
	return result, nil
}

// execTool never fails the round: errors are reported to the model as the
// tool result so it can try something else.
func (r *Researcher) execTool(ctx context.Context, call schema.ToolCall) ToolResult {
	tr := ToolResult{
		CallID:    call.ID,
		Name:      call.Function.Name,
		Arguments: call.Function.Arguments,
	}

	t, ok := r.tools[call.Function.Name]
	if !ok {
		tr.Failed = true
		tr.Content = errorResult(fmt.Errorf("%w: %s", ErrUnknownTool, call.Function.Name))
		return tr
	}

	start := time.Now()
	out, err := t.InvokableRun(ctx, call.Function.Arguments)
	if err != nil {
		log.Printf("[researcher] tool %s failed after %s: %v", tr.Name, time.Since(start), err)
		tr.Failed = true
		tr.Content = errorResult(err)
		return tr
	}

	log.Printf("[researcher] tool %s ok in %s, output=%dB", tr.Name, time.Since(start), len(out))
	tr.Content = out
	return tr
}

func errorResult(err error) string {
	data, _ := json.Marshal(map[string]string{"error": err.Error()})
	return string(data)
}

func finishReason(msg *schema.Message) string {
	if msg.ResponseMeta != nil && msg.ResponseMeta.FinishReason != "" {
		return msg.ResponseMeta.FinishReason
	}
	if len(msg.ToolCalls) == 0 && msg.Content != "" {
		return FinishReasonStop
	}
	return ""
}
