package agents

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/cloudwego/eino/schema"
	"github.com/openai/openai-go/v3/option"
	"github.com/stretchr/testify/require"

	"github.com/zhouzirui/z-research/backend/internal/config"
)

type completionRequest struct {
	Model    string `json:"model"`
	Messages []struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"messages"`
}

func newCompletionServer(t *testing.T, status int, body string, seen *completionRequest) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/chat/completions") {
			http.NotFound(w, r)
			return
		}
		if seen != nil {
			require.NoError(t, json.NewDecoder(r.Body).Decode(seen))
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestWriterWrite(t *testing.T) {
	var seen completionRequest
	srv := newCompletionServer(t, http.StatusOK, `{
		"id": "chatcmpl-1",
		"object": "chat.completion",
		"created": 1722500000,
		"model": "writer-small",
		"choices": [{
			"index": 0,
			"finish_reason": "stop",
			"message": {"role": "assistant", "content": "Go 1.23 shipped in August."}
		}]
	}`, &seen)

	w, err := NewWriter(config.WriterConfig{
		UseSpecificAPI: true,
		BaseURL:        srv.URL + "/v1/",
		APIKey:         "sk-test",
		Model:          "writer-small",
	}, option.WithMaxRetries(0))
	require.NoError(t, err)

	answer, err := w.Write(context.Background(), []*schema.Message{
		schema.UserMessage("when did go 1.23 ship?"),
		schema.AssistantMessage(`{"tool":"search","result":{}}`, nil),
		schema.AssistantMessage("", nil),
	})
	require.NoError(t, err)
	require.Equal(t, "Go 1.23 shipped in August.", answer)

	require.Equal(t, "writer-small", seen.Model)
	require.Len(t, seen.Messages, 3)
	require.Equal(t, "system", seen.Messages[0].Role)
	require.Equal(t, "user", seen.Messages[1].Role)
	require.Equal(t, "assistant", seen.Messages[2].Role)
}

func TestWriterNoChoices(t *testing.T) {
	srv := newCompletionServer(t, http.StatusOK, `{"id":"x","object":"chat.completion","created":1,"model":"m","choices":[]}`, nil)

	w, err := NewWriter(config.WriterConfig{BaseURL: srv.URL + "/v1/", Model: "m"}, option.WithMaxRetries(0))
	require.NoError(t, err)

	_, err = w.Write(context.Background(), []*schema.Message{schema.UserMessage("q")})
	require.ErrorContains(t, err, "no choices")
}

func TestWriterUpstreamError(t *testing.T) {
	srv := newCompletionServer(t, http.StatusBadRequest, `{"error":{"message":"bad model","type":"invalid_request_error"}}`, nil)

	w, err := NewWriter(config.WriterConfig{BaseURL: srv.URL + "/v1/", Model: "m"}, option.WithMaxRetries(0))
	require.NoError(t, err)

	_, err = w.Write(context.Background(), []*schema.Message{schema.UserMessage("q")})
	require.ErrorContains(t, err, "writer completion")
}

func TestNewWriterRequiresConfig(t *testing.T) {
	_, err := NewWriter(config.WriterConfig{UseSpecificAPI: true})
	require.Error(t, err)
}
