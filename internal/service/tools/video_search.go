package tools

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/cloudwego/eino/components/tool"
	"github.com/cloudwego/eino/schema"
	"github.com/tidwall/gjson"
)

const (
	VideoSearchToolName = "videoSearch"

	serperVideosEndpoint = "https://google.serper.dev/videos"
)

type VideoSearchInput struct {
	Query string `json:"query" validate:"required"`
}

// VideoSearchTool searches YouTube videos through Serper.
type VideoSearchTool struct {
	apiKey string
	transport
}

var _ tool.InvokableTool = (*VideoSearchTool)(nil)

func NewVideoSearchTool(apiKey string, opts ...Option) (*VideoSearchTool, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, errors.New("tools: serper api key must not be empty")
	}
	return &VideoSearchTool{apiKey: apiKey, transport: newTransport(serperVideosEndpoint, opts)}, nil
}

func (t *VideoSearchTool) Info(_ context.Context) (*schema.ToolInfo, error) {
	return &schema.ToolInfo{
		Name: VideoSearchToolName,
		Desc: "Search for videos from YouTube",
		ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
			"query": {
				Type:     schema.String,
				Desc:     "The query to search for",
				Required: true,
			},
		}),
	}, nil
}

// InvokableRun passes Serper's JSON through untouched.
func (t *VideoSearchTool) InvokableRun(ctx context.Context, argumentsInJSON string, _ ...tool.Option) (string, error) {
	var in VideoSearchInput
	if err := decodeArgs(argumentsInJSON, &in); err != nil {
		return "", err
	}

	header := http.Header{}
	header.Set("X-API-KEY", t.apiKey)
	raw, err := t.postJSON(ctx, t.endpoint, map[string]string{"q": in.Query}, header)
	if err != nil {
		return "", err
	}
	if !gjson.ValidBytes(raw) {
		return "", fmt.Errorf("tools: video search returned invalid json")
	}
	return strings.TrimSpace(string(raw)), nil
}
