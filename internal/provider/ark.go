package provider

import (
	"context"
	"errors"
	"fmt"

	"github.com/cloudwego/eino-ext/components/model/ark"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
)

// ArkChatModel exposes the Ark component as a model.ToolCallingChatModel.
//
// The Ark component binds tools in place with BindTools and ignores per-call
// tool options, so WithTools builds a fresh client and binds the tools to it.
// The model it was derived from stays tool-less. Ark drops tool_choice, so
// model.WithToolChoice has no effect on this backend.
type ArkChatModel struct {
	cfg   ark.ChatModelConfig
	inner *ark.ChatModel
	tools []*schema.ToolInfo
}

var _ model.ToolCallingChatModel = (*ArkChatModel)(nil)

// NewArkChatModel creates a tool-less Ark model from cfg.
func NewArkChatModel(ctx context.Context, cfg *ark.ChatModelConfig) (*ArkChatModel, error) {
	if cfg == nil {
		return nil, errors.New("provider: ark config must not be nil")
	}
	if cfg.Model == "" {
		return nil, errors.New("provider: ark model must not be empty")
	}

	// ark.NewChatModel fills defaults into the config it is given.
	own := *cfg
	inner, err := ark.NewChatModel(ctx, &own)
	if err != nil {
		return nil, fmt.Errorf("provider: create ark model: %w", err)
	}
	return &ArkChatModel{cfg: *cfg, inner: inner}, nil
}

// Generate runs a non-streaming chat completion.
func (m *ArkChatModel) Generate(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.Message, error) {
	return m.inner.Generate(ctx, input, opts...)
}

// Stream runs a streaming chat completion.
func (m *ArkChatModel) Stream(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	return m.inner.Stream(ctx, input, opts...)
}

// WithTools returns a new model with tools bound.
func (m *ArkChatModel) WithTools(tools []*schema.ToolInfo) (model.ToolCallingChatModel, error) {
	bound, err := NewArkChatModel(context.Background(), &m.cfg)
	if err != nil {
		return nil, err
	}
	if err := bound.inner.BindTools(tools); err != nil {
		return nil, fmt.Errorf("provider: bind ark tools: %w", err)
	}
	bound.tools = tools
	return bound, nil
}

// Tools reports the tools bound to this model.
func (m *ArkChatModel) Tools() []*schema.ToolInfo {
	return m.tools
}

// GetType and IsCallbacksEnabled forward to the Ark component so eino does not
// wrap a second set of callbacks around it.
func (m *ArkChatModel) GetType() string {
	return m.inner.GetType()
}

func (m *ArkChatModel) IsCallbacksEnabled() bool {
	return m.inner.IsCallbacksEnabled()
}
