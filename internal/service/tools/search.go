package tools

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/components/tool"
	"github.com/cloudwego/eino/schema"
	"github.com/samber/lo"
	"github.com/tidwall/gjson"
)

const (
	SearchToolName = "search"

	tavilyEndpoint = "https://api.tavily.com/search"
	// Tavily rejects queries shorter than this.
	minQueryLength = 5
	minMaxResults  = 5
	maxMaxResults  = 20
)

// SearchInput are the arguments the model passes to the search tool.
type SearchInput struct {
	Query          string   `json:"query" validate:"required"`
	MaxResults     int      `json:"max_results,omitempty"`
	SearchDepth    string   `json:"search_depth,omitempty" validate:"omitempty,oneof=basic advanced"`
	IncludeDomains []string `json:"include_domains,omitempty"`
	ExcludeDomains []string `json:"exclude_domains,omitempty"`
}

// SearchResults is the normalized search answer returned to the model.
type SearchResults struct {
	Query   string         `json:"query"`
	Answer  string         `json:"answer,omitempty"`
	Images  []SearchImage  `json:"images"`
	Results []SearchResult `json:"results"`
}

type SearchImage struct {
	URL         string `json:"url"`
	Description string `json:"description,omitempty"`
}

type SearchResult struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Content string `json:"content"`
}

type tavilyRequest struct {
	APIKey                   string   `json:"api_key"`
	Query                    string   `json:"query"`
	MaxResults               int      `json:"max_results"`
	SearchDepth              string   `json:"search_depth"`
	IncludeImages            bool     `json:"include_images"`
	IncludeImageDescriptions bool     `json:"include_image_descriptions"`
	IncludeAnswer            bool     `json:"include_answer"`
	IncludeDomains           []string `json:"include_domains,omitempty"`
	ExcludeDomains           []string `json:"exclude_domains,omitempty"`
}

// SearchTool queries the Tavily search API.
type SearchTool struct {
	apiKey string
	transport
}

var _ tool.InvokableTool = (*SearchTool)(nil)

// NewSearchTool creates the web search tool.
func NewSearchTool(apiKey string, opts ...Option) (*SearchTool, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, errors.New("tools: tavily api key must not be empty")
	}
	return &SearchTool{apiKey: apiKey, transport: newTransport(tavilyEndpoint, opts)}, nil
}

func (t *SearchTool) Info(_ context.Context) (*schema.ToolInfo, error) {
	return &schema.ToolInfo{
		Name: SearchToolName,
		Desc: "Search the web for information",
		ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
			"query": {
				Type:     schema.String,
				Desc:     "The query to search for",
				Required: true,
			},
			"max_results": {
				Type: schema.Integer,
				Desc: "The maximum number of results to return (5 to 20)",
			},
			"search_depth": {
				Type: schema.String,
				Desc: "The depth of the search",
				Enum: []string{"basic", "advanced"},
			},
			"include_domains": {
				Type:     schema.Array,
				Desc:     "A list of domains to specifically include in the search results",
				ElemInfo: &schema.ParameterInfo{Type: schema.String},
			},
			"exclude_domains": {
				Type:     schema.Array,
				Desc:     "A list of domains to specifically exclude from the search results",
				ElemInfo: &schema.ParameterInfo{Type: schema.String},
			},
		}),
	}, nil
}

func (t *SearchTool) InvokableRun(ctx context.Context, argumentsInJSON string, _ ...tool.Option) (string, error) {
	var in SearchInput
	if err := decodeArgs(argumentsInJSON, &in); err != nil {
		return "", err
	}

	results, err := t.Search(ctx, in)
	if err != nil {
		return "", err
	}
	return encodeResult(results)
}

// Search runs one Tavily query.
func (t *SearchTool) Search(ctx context.Context, in SearchInput) (*SearchResults, error) {
	query := in.Query
	if n := len([]rune(query)); n < minQueryLength {
		query += strings.Repeat(" ", minQueryLength-n)
	}
	// 超出范围的数量直接收敛，不报错给模型。
	maxResults := lo.Clamp(in.MaxResults, minMaxResults, maxMaxResults)
	depth := in.SearchDepth
	if depth == "" {
		depth = "basic"
	}

	raw, err := t.postJSON(ctx, t.endpoint, tavilyRequest{
		APIKey:                   t.apiKey,
		Query:                    query,
		MaxResults:               maxResults,
		SearchDepth:              depth,
		IncludeImages:            true,
		IncludeImageDescriptions: true,
		IncludeAnswer:            true,
		IncludeDomains:           in.IncludeDomains,
		ExcludeDomains:           in.ExcludeDomains,
	}, nil)
	if err != nil {
		return nil, err
	}
	if !gjson.ValidBytes(raw) {
		return nil, fmt.Errorf("tools: search returned invalid json")
	}

	body := gjson.ParseBytes(raw)
	out := &SearchResults{
		Query:   in.Query,
		Answer:  body.Get("answer").String(),
		Images:  []SearchImage{},
		Results: []SearchResult{},
	}
	body.Get("images").ForEach(func(_, img gjson.Result) bool {
		// Plain URLs unless image descriptions were honoured.
		if img.Type == gjson.String {
			out.Images = append(out.Images, SearchImage{URL: img.String()})
			return true
		}
		if u := img.Get("url").String(); u != "" {
			out.Images = append(out.Images, SearchImage{URL: u, Description: img.Get("description").String()})
		}
		return true
	})
	body.Get("results").ForEach(func(_, r gjson.Result) bool {
		out.Results = append(out.Results, SearchResult{
			Title:   r.Get("title").String(),
			URL:     r.Get("url").String(),
			Content: r.Get("content").String(),
		})
		return true
	})
	return out, nil
}
