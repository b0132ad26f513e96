package llm

import (
	"fmt"

	"github.com/opensource-safety/decoy/internal/domain"
)

// NewProvider builds a Provider from configuration.
func NewProvider(cfg domain.GeneratorConfig) (Provider, error) {
	switch cfg.Provider {
	case "openai":
		return NewOpenAIProvider(cfg.APIKey, cfg.BaseURL, cfg.Model)
	case "mock":
		return NewMockProvider(), nil
	default:
		return nil, fmt.Errorf("unknown generator provider: %s", cfg.Provider)
	}
}
