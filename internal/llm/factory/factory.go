// internal/llm/factory/factory.go
package factory

import (
	"fmt"

	"github.com/newthinker/folio/internal/config"
	"github.com/newthinker/folio/internal/llm"
	"github.com/newthinker/folio/internal/llm/claude"
	"github.com/newthinker/folio/internal/llm/openai"
)

// New creates an LLM provider based on configuration. It returns nil and
// no error when no provider is configured.
func New(cfg config.LLMConfig) (llm.Provider, error) {
	switch cfg.Provider {
	case "":
		return nil, nil
	case "claude":
		return claude.New(cfg.Claude.APIKey, cfg.Claude.Model)
	case "openai":
		return openai.New(cfg.OpenAI.APIKey, cfg.OpenAI.Model)
	default:
		return nil, fmt.Errorf("unknown LLM provider: %s", cfg.Provider)
	}
}
