package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/zhouzirui/z-research/backend/internal/config"
	"github.com/zhouzirui/z-research/backend/internal/service/chat"
)

func baseConfig() *config.Config {
	return &config.Config{
		AI:     config.AIConfig{MaxRounds: 5},
		Search: config.SearchConfig{Timeout: time.Second},
	}
}

func TestNewChatServiceOllama(t *testing.T) {
	cfg := baseConfig()
	cfg.AI.OllamaModel = "llama3.1"
	cfg.AI.OllamaBaseURL = "http://localhost:11434/api"

	svc, err := NewChatService(context.Background(), cfg)
	require.NoError(t, err)
	require.Equal(t, chat.ModeOllama, svc.Mode())
}

func TestNewChatServiceSpecificNeedsWriter(t *testing.T) {
	cfg := baseConfig()
	cfg.AI.OllamaModel = "llama3.1"
	cfg.AI.OllamaBaseURL = "http://localhost:11434"
	cfg.Writer = config.WriterConfig{UseSpecificAPI: true, BaseURL: "http://localhost:9999/v1/", Model: "writer"}

	svc, err := NewChatService(context.Background(), cfg)
	require.NoError(t, err)
	require.Equal(t, chat.ModeSpecific, svc.Mode())

	cfg.Writer.Model = ""
	_, err = NewChatService(context.Background(), cfg)
	require.Error(t, err)
}

func TestNewChatServiceWithoutModel(t *testing.T) {
	_, err := NewChatService(context.Background(), baseConfig())
	require.ErrorIs(t, err, ErrModelNotConfigured)
}

func TestNewHandlerDegradesWithoutModel(t *testing.T) {
	h := NewHandler(context.Background(), baseConfig())

	resp := httptest.NewRecorder()
	h.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.JSONEq(t, `{"status":"degraded","mode":"unavailable"}`, resp.Body.String())
}
