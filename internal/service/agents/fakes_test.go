package agents

import (
	"context"
	"errors"
	"sync"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/tool"
	"github.com/cloudwego/eino/schema"
)

// scriptedModel replays canned replies, one per Generate call.
type scriptedModel struct {
	mu       sync.Mutex
	replies  []*schema.Message
	err      error
	inputs   [][]*schema.Message
	bound    []*schema.ToolInfo
	bindErr  error
	optsSeen int
}

func (m *scriptedModel) Generate(_ context.Context, input []*schema.Message, opts ...model.Option) (*schema.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.inputs = append(m.inputs, input)
	m.optsSeen += len(opts)
	if m.err != nil {
		return nil, m.err
	}
	if len(m.replies) == 0 {
		return nil, errors.New("scriptedModel: no reply left")
	}
	reply := m.replies[0]
	m.replies = m.replies[1:]
	return reply, nil
}

func (m *scriptedModel) Stream(_ context.Context, _ []*schema.Message, _ ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	return nil, errors.New("scriptedModel: stream not supported")
}

func (m *scriptedModel) WithTools(tools []*schema.ToolInfo) (model.ToolCallingChatModel, error) {
	if m.bindErr != nil {
		return nil, m.bindErr
	}
	m.bound = tools
	return m, nil
}

// stubTool returns a fixed output or error and records its arguments.
type stubTool struct {
	name string
	out  string
	err  error
	args []string
}

var _ tool.InvokableTool = (*stubTool)(nil)

func (t *stubTool) Info(_ context.Context) (*schema.ToolInfo, error) {
	return &schema.ToolInfo{
		Name: t.name,
		Desc: "stub " + t.name,
		ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
			"query": {Type: schema.String, Required: true},
		}),
	}, nil
}

func (t *stubTool) InvokableRun(_ context.Context, argumentsInJSON string, _ ...tool.Option) (string, error) {
	t.args = append(t.args, argumentsInJSON)
	if t.err != nil {
		return "", t.err
	}
	return t.out, nil
}

func toolCall(id, name, args string) schema.ToolCall {
	return schema.ToolCall{ID: id, Type: "function", Function: schema.FunctionCall{Name: name, Arguments: args}}
}
