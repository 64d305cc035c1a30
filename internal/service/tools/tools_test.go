package tools

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/zhouzirui/z-research/backend/internal/config"
)

func TestSearchToolNormalizesTavilyResponse(t *testing.T) {
	var got tavilyRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{
			"query": "go  ",
			"answer": "Go is a language.",
			"images": ["https://img/1.png", {"url": "https://img/2.png", "description": "gopher"}],
			"results": [{"title": "The Go Programming Language", "url": "https://go.dev", "content": "Build simple, secure, scalable systems", "score": 0.9}]
		}`)
	}))
	defer srv.Close()

	search, err := NewSearchTool("tvly-key", WithEndpoint(srv.URL))
	require.NoError(t, err)

	out, err := search.InvokableRun(context.Background(), `{"query":"go","max_results":2,"include_domains":["go.dev"]}`)
	require.NoError(t, err)

	require.Equal(t, "tvly-key", got.APIKey)
	require.Equal(t, "go   ", got.Query, "short queries are padded to five characters")
	require.Equal(t, 5, got.MaxResults)
	require.Equal(t, "basic", got.SearchDepth)
	require.True(t, got.IncludeImages)
	require.True(t, got.IncludeAnswer)
	require.Equal(t, []string{"go.dev"}, got.IncludeDomains)

	var results SearchResults
	require.NoError(t, json.Unmarshal([]byte(out), &results))
	require.Equal(t, "go", results.Query)
	require.Equal(t, "Go is a language.", results.Answer)
	require.Equal(t, []SearchImage{
		{URL: "https://img/1.png"},
		{URL: "https://img/2.png", Description: "gopher"},
	}, results.Images)
	require.Len(t, results.Results, 1)
	require.Equal(t, "https://go.dev", results.Results[0].URL)
}

func TestSearchToolRejectsInvalidArguments(t *testing.T) {
	search, err := NewSearchTool("k", WithEndpoint("http://127.0.0.1:0"))
	require.NoError(t, err)

	cases := []string{
		`{}`,
		`{"query": ""}`,
		`{"query": "golang", "search_depth": "deep"}`,
		`not json`,
	}
	for _, args := range cases {
		_, err := search.InvokableRun(context.Background(), args)
		require.ErrorContains(t, err, "invalid arguments", "args=%s", args)
	}
}

func TestSearchToolClampsMaxResults(t *testing.T) {
	var got []tavilyRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req tavilyRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		got = append(got, req)
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"results": []}`)
	}))
	defer srv.Close()

	search, err := NewSearchTool("k", WithEndpoint(srv.URL))
	require.NoError(t, err)

	for _, args := range []string{
		`{"query":"golang generics","max_results":50}`,
		`{"query":"golang generics","max_results":-3}`,
		`{"query":"golang generics","max_results":12}`,
	} {
		_, err := search.InvokableRun(context.Background(), args)
		require.NoError(t, err, args)
	}

	require.Len(t, got, 3)
	require.Equal(t, 20, got[0].MaxResults)
	require.Equal(t, 5, got[1].MaxResults)
	require.Equal(t, 12, got[2].MaxResults)
}

func TestSearchToolUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "quota exceeded", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	search, err := NewSearchTool("k", WithEndpoint(srv.URL))
	require.NoError(t, err)

	_, err = search.InvokableRun(context.Background(), `{"query":"golang generics"}`)
	var statusErr *HTTPStatusError
	require.True(t, errors.As(err, &statusErr))
	require.Equal(t, http.StatusTooManyRequests, statusErr.StatusCode)
	require.Contains(t, statusErr.Body, "quota exceeded")
}

func TestNewSearchToolRequiresKey(t *testing.T) {
	_, err := NewSearchTool("  ")
	require.Error(t, err)
}

func TestRetrieveToolReadsPage(t *testing.T) {
	long := make([]rune, contentCharacterLimit+50)
	for i := range long {
		long[i] = 'a'
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/https://go.dev/blog", r.URL.Path)
		require.Equal(t, "application/json", r.Header.Get("Accept"))
		require.Equal(t, "true", r.Header.Get("X-With-Generated-Alt"))
		require.Equal(t, "Bearer jina-key", r.Header.Get("Authorization"))
		payload, _ := json.Marshal(map[string]any{
			"code": 200,
			"data": map[string]string{"title": "Go Blog", "url": "https://go.dev/blog/", "content": string(long)},
		})
		_, _ = w.Write(payload)
	}))
	defer srv.Close()

	retrieve := NewRetrieveTool("jina-key", WithEndpoint(srv.URL))
	out, err := retrieve.InvokableRun(context.Background(), `{"url":"https://go.dev/blog"}`)
	require.NoError(t, err)

	var results SearchResults
	require.NoError(t, json.Unmarshal([]byte(out), &results))
	require.Empty(t, results.Query)
	require.Empty(t, results.Images)
	require.Len(t, results.Results, 1)
	require.Equal(t, "Go Blog", results.Results[0].Title)
	require.Equal(t, "https://go.dev/blog/", results.Results[0].URL)
	require.Len(t, []rune(results.Results[0].Content), contentCharacterLimit)
}

func TestRetrieveToolEmptyPage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, `{"data":{"title":"blank","content":"  "}}`)
	}))
	defer srv.Close()

	retrieve := NewRetrieveTool("", WithEndpoint(srv.URL))
	_, err := retrieve.Retrieve(context.Background(), "https://example.com")
	require.ErrorIs(t, err, ErrEmptyPage)
}

func TestRetrieveToolRejectsNonURL(t *testing.T) {
	retrieve := NewRetrieveTool("")
	_, err := retrieve.InvokableRun(context.Background(), `{"url":"not a url"}`)
	require.ErrorContains(t, err, "invalid arguments")
}

func TestVideoSearchToolPassesThrough(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "serper-key", r.Header.Get("X-API-KEY"))
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Equal(t, "gopher con", body["q"])
		_, _ = io.WriteString(w, `{"videos":[{"title":"GopherCon","link":"https://youtube.com/watch?v=1"}]}`+"\n")
	}))
	defer srv.Close()

	video, err := NewVideoSearchTool("serper-key", WithEndpoint(srv.URL))
	require.NoError(t, err)

	out, err := video.InvokableRun(context.Background(), `{"query":"gopher con"}`)
	require.NoError(t, err)
	require.JSONEq(t, `{"videos":[{"title":"GopherCon","link":"https://youtube.com/watch?v=1"}]}`, out)
}

func TestToolInfoNames(t *testing.T) {
	search, err := NewSearchTool("k")
	require.NoError(t, err)
	video, err := NewVideoSearchTool("k")
	require.NoError(t, err)

	ctx := context.Background()
	info, err := search.Info(ctx)
	require.NoError(t, err)
	require.Equal(t, SearchToolName, info.Name)
	info, err = NewRetrieveTool("").Info(ctx)
	require.NoError(t, err)
	require.Equal(t, RetrieveToolName, info.Name)
	info, err = video.Info(ctx)
	require.NoError(t, err)
	require.Equal(t, VideoSearchToolName, info.Name)
}

func TestRegistry(t *testing.T) {
	ctx := context.Background()
	names := func(cfg config.SearchConfig) []string {
		var out []string
		for _, tl := range Registry(cfg) {
			info, err := tl.Info(ctx)
			require.NoError(t, err)
			out = append(out, info.Name)
		}
		return out
	}

	require.Equal(t, []string{RetrieveToolName}, names(config.SearchConfig{Timeout: time.Second}))
	require.Equal(t, []string{SearchToolName, RetrieveToolName}, names(config.SearchConfig{TavilyAPIKey: "t", Timeout: time.Second}))
	require.Equal(t,
		[]string{SearchToolName, RetrieveToolName, VideoSearchToolName},
		names(config.SearchConfig{TavilyAPIKey: "t", SerperAPIKey: "s", Timeout: time.Second}),
	)
}
