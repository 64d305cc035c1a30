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
	RetrieveToolName = "retrieve"

	jinaReaderEndpoint = "https://r.jina.ai/"
	// contentCharacterLimit bounds the page text handed to the model.
	contentCharacterLimit = 10000
)

var ErrEmptyPage = errors.New("tools: retrieved page has no content")

type RetrieveInput struct {
	URL string `json:"url" validate:"required,url"`
}

// RetrieveTool fetches a page through the Jina reader and returns its text.
type RetrieveTool struct {
	apiKey string
	transport
}

var _ tool.InvokableTool = (*RetrieveTool)(nil)

// NewRetrieveTool creates the page retrieval tool. apiKey is optional.
func NewRetrieveTool(apiKey string, opts ...Option) *RetrieveTool {
	return &RetrieveTool{apiKey: strings.TrimSpace(apiKey), transport: newTransport(jinaReaderEndpoint, opts)}
}

func (t *RetrieveTool) Info(_ context.Context) (*schema.ToolInfo, error) {
	return &schema.ToolInfo{
		Name: RetrieveToolName,
		Desc: "Retrieve content from the web",
		ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
			"url": {
				Type:     schema.String,
				Desc:     "The url to retrieve",
				Required: true,
			},
		}),
	}, nil
}

func (t *RetrieveTool) InvokableRun(ctx context.Context, argumentsInJSON string, _ ...tool.Option) (string, error) {
	var in RetrieveInput
	if err := decodeArgs(argumentsInJSON, &in); err != nil {
		return "", err
	}

	results, err := t.Retrieve(ctx, in.URL)
	if err != nil {
		return "", err
	}
	return encodeResult(results)
}

// Retrieve reads one page. The result reuses the search result shape so the
// UI can render both the same way.
func (t *RetrieveTool) Retrieve(ctx context.Context, pageURL string) (*SearchResults, error) {
	endpoint := strings.TrimRight(t.endpoint, "/") + "/" + pageURL
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("tools: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-With-Generated-Alt", "true")
	if t.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+t.apiKey)
	}

	raw, err := t.do(req)
	if err != nil {
		return nil, err
	}
	if !gjson.ValidBytes(raw) {
		return nil, fmt.Errorf("tools: retrieve returned invalid json")
	}

	data := gjson.GetBytes(raw, "data")
	content := data.Get("content").String()
	if strings.TrimSpace(content) == "" {
		return nil, ErrEmptyPage
	}
	if runes := []rune(content); len(runes) > contentCharacterLimit {
		content = string(runes[:contentCharacterLimit])
	}

	resolvedURL := data.Get("url").String()
	if resolvedURL == "" {
		resolvedURL = pageURL
	}

	return &SearchResults{
		Query:  "",
		Images: []SearchImage{},
		Results: []SearchResult{{
			Title:   data.Get("title").String(),
			URL:     resolvedURL,
			Content: content,
		}},
	}, nil
}
