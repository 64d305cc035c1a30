package config

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cloudwego/eino-ext/components/model/ark"
	"github.com/cloudwego/eino/components/model"
	"github.com/kelseyhightower/envconfig"

	"github.com/zhouzirui/z-research/backend/internal/provider"
)

// Config 聚合整个服务的配置项。
type Config struct {
	Server     ServerConfig
	AI         AIConfig
	Writer     WriterConfig
	Search     SearchConfig
	ParamStore ParamStoreConfig
}

// Load 从环境变量加载配置。
func Load() (*Config, error) {
	var cfg Config
	sections := []struct {
		name   string
		target any
	}{
		{"server", &cfg.Server},
		{"ai", &cfg.AI},
		{"writer", &cfg.Writer},
		{"search", &cfg.Search},
		{"param store", &cfg.ParamStore},
	}
	for _, s := range sections {
		if err := envconfig.Process("", s.target); err != nil {
			return nil, fmt.Errorf("invalid %s configuration: %w", s.name, err)
		}
	}

	addr, err := normalizeAddr(cfg.Server.Port)
	if err != nil {
		return nil, err
	}
	cfg.Server.Addr = addr

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate 检查跨字段约束。
func (c *Config) Validate() error {
	if c.AI.MaxRounds < 1 {
		return fmt.Errorf("invalid RESEARCHER_MAX_ROUNDS value %d: must be at least 1", c.AI.MaxRounds)
	}
	if c.Writer.UseSpecificAPI && !c.Writer.Enabled() {
		return errors.New("USE_SPECIFIC_API_FOR_WRITER requires SPECIFIC_API_BASE and SPECIFIC_API_MODEL")
	}
	if c.Search.Timeout <= 0 {
		return fmt.Errorf("invalid SEARCH_TIMEOUT value %s", c.Search.Timeout)
	}
	return nil
}

// ServerConfig 描述 HTTP 服务配置。
type ServerConfig struct {
	Port   string `envconfig:"PORT" default:"8080"`
	APIKey string `envconfig:"RESEARCH_API_KEY"`
	Addr   string `ignored:"true"`
}

// AuthEnabled 表示是否要求 Bearer 鉴权。
func (c ServerConfig) AuthEnabled() bool {
	return c.APIKey != ""
}

// normalizeAddr 解析服务器监听地址。
func normalizeAddr(port string) (string, error) {
	port = strings.TrimSpace(port)
	if port == "" {
		port = "8080"
	}

	if strings.Contains(port, " ") {
		return "", fmt.Errorf("invalid PORT value: %q", port)
	}

	if strings.Contains(port, ":") {
		// 允许用户直接传入 ":8080" 或 "127.0.0.1:8080"。
		return port, nil
	}

	return ":" + port, nil
}

// AIConfig 描述研究员与追问建议使用的大模型配置。
type AIConfig struct {
	APIKey      string   `envconfig:"ARK_API_KEY"`
	AccessKey   string   `envconfig:"ARK_ACCESS_KEY"`
	SecretKey   string   `envconfig:"ARK_SECRET_KEY"`
	Model       string   `envconfig:"ARK_MODEL"`
	BaseURL     string   `envconfig:"ARK_BASE_URL" default:"https://ark.cn-beijing.volces.com/api/v3"`
	Region      string   `envconfig:"ARK_REGION" default:"cn-beijing"`
	Temperature *float64 `envconfig:"ARK_TEMPERATURE"`
	TopP        *float64 `envconfig:"ARK_TOP_P"`
	MaxTokens   *int     `envconfig:"ARK_MAX_TOKENS"`

	OllamaModel   string `envconfig:"OLLAMA_MODEL"`
	OllamaBaseURL string `envconfig:"OLLAMA_BASE_URL"`

	// FlattenToolMessages rewrites tool turns as assistant text before the
	// suggestor sees them, for providers that reject the tool role.
	FlattenToolMessages bool `envconfig:"FLATTEN_TOOL_MESSAGES" default:"false"`
	MaxRounds           int  `envconfig:"RESEARCHER_MAX_ROUNDS" default:"5"`
}

// Enabled 表示是否提供了 Ark 必需的密钥。
func (c AIConfig) Enabled() bool {
	return c.Model != "" && (c.APIKey != "" || (c.AccessKey != "" && c.SecretKey != ""))
}

// OllamaEnabled 表示是否走 Ollama 兼容的精简路径。
func (c AIConfig) OllamaEnabled() bool {
	return strings.TrimSpace(c.OllamaModel) != "" && strings.TrimSpace(c.OllamaBaseURL) != ""
}

// NewChatModel 使用配置创建一个 Ark 模型实例，工具通过 WithTools 绑定到新实例上。
func (c AIConfig) NewChatModel(ctx context.Context) (model.ToolCallingChatModel, error) {
	if !c.Enabled() {
		return nil, fmt.Errorf("ark credentials or model missing: provide ARK_API_KEY + ARK_MODEL or an AK/SK pair")
	}

	var temperature *float32
	if c.Temperature != nil {
		val := float32(*c.Temperature)
		temperature = &val
	}

	var topP *float32
	if c.TopP != nil {
		val := float32(*c.TopP)
		topP = &val
	}

	var maxTokens *int
	if c.MaxTokens != nil {
		val := *c.MaxTokens
		maxTokens = &val
	}

	cfg := &ark.ChatModelConfig{
		BaseURL:     c.BaseURL,
		Region:      c.Region,
		APIKey:      c.APIKey,
		AccessKey:   c.AccessKey,
		SecretKey:   c.SecretKey,
		Model:       c.Model,
		MaxTokens:   maxTokens,
		Temperature: temperature,
		TopP:        topP,
	}

	chatModel, err := provider.NewArkChatModel(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return chatModel, nil
}

// WriterConfig 描述 "specific API" 写作模型（OpenAI 兼容接口）。
type WriterConfig struct {
	UseSpecificAPI bool   `envconfig:"USE_SPECIFIC_API_FOR_WRITER" default:"false"`
	BaseURL        string `envconfig:"SPECIFIC_API_BASE"`
	APIKey         string `envconfig:"SPECIFIC_API_KEY"`
	Model          string `envconfig:"SPECIFIC_API_MODEL"`
}

// Enabled 表示写作模型的连接信息是否完整。
func (c WriterConfig) Enabled() bool {
	return strings.TrimSpace(c.BaseURL) != "" && strings.TrimSpace(c.Model) != ""
}

// SearchConfig 描述搜索类工具的凭证。
type SearchConfig struct {
	TavilyAPIKey string        `envconfig:"TAVILY_API_KEY"`
	SerperAPIKey string        `envconfig:"SERPER_API_KEY"`
	JinaAPIKey   string        `envconfig:"JINA_API_KEY"`
	Timeout      time.Duration `envconfig:"SEARCH_TIMEOUT" default:"20s"`
}

// ParamStoreConfig 描述可选的 SSM Parameter Store 密钥来源。
type ParamStoreConfig struct {
	Prefix string `envconfig:"PARAM_PREFIX"`
}

// Enabled 表示是否需要从 SSM 读取密钥。
func (c ParamStoreConfig) Enabled() bool {
	return strings.Trim(strings.TrimSpace(c.Prefix), "/") != ""
}
