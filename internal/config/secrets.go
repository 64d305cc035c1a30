package config

import (
	"context"
	"fmt"
	"strings"
)

// SecretGetter resolves a named secret, e.g. an SSM parameter. ok is false
// when the secret does not exist.
type SecretGetter interface {
	LookupParameter(ctx context.Context, name string) (value string, ok bool, err error)
}

// ApplySecrets fills credentials that are still empty from <prefix>/<name>.
// Values already present in the environment win.
func (c *Config) ApplySecrets(ctx context.Context, getter SecretGetter) error {
	if !c.ParamStore.Enabled() || getter == nil {
		return nil
	}
	prefix := "/" + strings.Trim(strings.TrimSpace(c.ParamStore.Prefix), "/")

	targets := []struct {
		name  string
		value *string
	}{
		{"research-api-key", &c.Server.APIKey},
		{"ark-api-key", &c.AI.APIKey},
		{"tavily-api-key", &c.Search.TavilyAPIKey},
		{"serper-api-key", &c.Search.SerperAPIKey},
		{"jina-api-key", &c.Search.JinaAPIKey},
		{"specific-api-key", &c.Writer.APIKey},
	}

	for _, t := range targets {
		if *t.value != "" {
			continue
		}
		val, ok, err := getter.LookupParameter(ctx, prefix+"/"+t.name)
		if err != nil {
			return fmt.Errorf("resolve %s: %w", t.name, err)
		}
		if ok {
			*t.value = strings.TrimSpace(val)
		}
	}
	return c.Validate()
}
