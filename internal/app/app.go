// Package app assembles the research service from configuration. It is shared
// by the HTTP server and the Lambda entrypoint.
package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awsssm "github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/cloudwego/eino/components/model"

	"github.com/zhouzirui/z-research/backend/internal/config"
	"github.com/zhouzirui/z-research/backend/internal/handler"
	"github.com/zhouzirui/z-research/backend/internal/integrations/paramstore"
	"github.com/zhouzirui/z-research/backend/internal/provider"
	"github.com/zhouzirui/z-research/backend/internal/service/agents"
	"github.com/zhouzirui/z-research/backend/internal/service/chat"
	"github.com/zhouzirui/z-research/backend/internal/service/tools"
)

var ErrModelNotConfigured = errors.New("no chat model configured: set ARK_MODEL with credentials, or OLLAMA_MODEL and OLLAMA_BASE_URL")

// LoadConfig reads the environment and, when PARAM_PREFIX is set, fills the
// missing secrets from SSM Parameter Store.
func LoadConfig(ctx context.Context) (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if !cfg.ParamStore.Enabled() {
		return cfg, nil
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	store, err := paramstore.New(awsssm.NewFromConfig(awsCfg))
	if err != nil {
		return nil, err
	}
	if err := cfg.ApplySecrets(ctx, store); err != nil {
		return nil, fmt.Errorf("failed to resolve secrets from parameter store: %w", err)
	}
	log.Printf("secrets resolved from parameter store prefix %s", cfg.ParamStore.Prefix)
	return cfg, nil
}

// NewChatService wires researcher, suggestor and, in specific mode, the writer.
func NewChatService(ctx context.Context, cfg *config.Config) (*chat.Service, error) {
	mode := chat.ResolveMode(cfg.Writer.UseSpecificAPI, cfg.AI.OllamaEnabled())

	chatModel, err := newChatModel(ctx, cfg.AI, mode)
	if err != nil {
		return nil, err
	}

	researcher, err := agents.NewResearcher(ctx, chatModel, tools.Registry(cfg.Search))
	if err != nil {
		return nil, fmt.Errorf("failed to create researcher: %w", err)
	}
	suggestor, err := agents.NewQuerySuggestor(ctx, chatModel)
	if err != nil {
		return nil, fmt.Errorf("failed to create query suggestor: %w", err)
	}

	var writer chat.Writer
	if mode == chat.ModeSpecific {
		w, err := agents.NewWriter(cfg.Writer)
		if err != nil {
			return nil, err
		}
		writer = w
	}

	svc, err := chat.NewService(researcher, suggestor, writer, chat.Options{
		Mode:                mode,
		FlattenToolMessages: cfg.AI.FlattenToolMessages,
		MaxRounds:           cfg.AI.MaxRounds,
	})
	if err != nil {
		return nil, err
	}
	log.Printf("research service ready: mode=%s tools=%t max_rounds=%d", mode, researcher.ToolsEnabled(), cfg.AI.MaxRounds)
	return svc, nil
}

// newChatModel prefers Ark. The Ollama path is used for ollama mode, or when
// Ark is missing.
func newChatModel(ctx context.Context, cfg config.AIConfig, mode chat.Mode) (model.ToolCallingChatModel, error) {
	useOllama := cfg.OllamaEnabled() && (mode == chat.ModeOllama || !cfg.Enabled())
	switch {
	case useOllama:
		m, err := provider.NewOllamaChatModel(cfg.OllamaBaseURL, cfg.OllamaModel, http.DefaultClient)
		if err != nil {
			return nil, fmt.Errorf("failed to create ollama model: %w", err)
		}
		return m, nil
	case cfg.Enabled():
		m, err := cfg.NewChatModel(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to create ark model: %w", err)
		}
		return m, nil
	default:
		return nil, ErrModelNotConfigured
	}
}

// NewHandler builds the router. A service that cannot be built is logged and
// the completion endpoint then answers 503, so health checks keep working.
func NewHandler(ctx context.Context, cfg *config.Config) http.Handler {
	svc, err := NewChatService(ctx, cfg)
	if err != nil {
		log.Printf("warning: research service unavailable: %v", err)
		log.Println("continuing without AI functionality - 请检查模型相关环境变量")
		svc = nil
	}
	if !cfg.Server.AuthEnabled() {
		log.Println("warning: RESEARCH_API_KEY is empty, /api/chat/completions accepts unauthenticated requests")
	}
	return handler.NewRouter(svc, cfg.Server.APIKey)
}
