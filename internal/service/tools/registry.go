package tools

import (
	"log"

	"github.com/cloudwego/eino/components/tool"

	"github.com/zhouzirui/z-research/backend/internal/config"
)

// Registry returns every tool the configuration allows. search needs a Tavily
// key; videoSearch is only offered when a Serper key is present.
func Registry(cfg config.SearchConfig) []tool.InvokableTool {
	opts := []Option{WithTimeout(cfg.Timeout)}
	out := make([]tool.InvokableTool, 0, 3)

	if search, err := NewSearchTool(cfg.TavilyAPIKey, opts...); err != nil {
		log.Printf("[tools] search disabled: %v", err)
	} else {
		out = append(out, search)
	}

	out = append(out, NewRetrieveTool(cfg.JinaAPIKey, opts...))

	if cfg.SerperAPIKey != "" {
		video, err := NewVideoSearchTool(cfg.SerperAPIKey, opts...)
		if err != nil {
			log.Printf("[tools] video search disabled: %v", err)
		} else {
			out = append(out, video)
		}
	}
	return out
}
