package cmd

import (
	"fmt"

	"github.com/vinfotechlanceai/smartstep/internal/analysis"
	"github.com/vinfotechlanceai/smartstep/internal/config"
	"github.com/vinfotechlanceai/smartstep/internal/gemini"
	"github.com/vinfotechlanceai/smartstep/internal/openai"
)

// newProvider builds the configured vision provider.
func newProvider(cfg *config.Config, override string) (analysis.Provider, error) {
	name := cfg.Provider
	if override != "" {
		name = override
	}

	switch name {
	case "gemini":
		return gemini.New(cfg.GeminiModel), nil
	case "openai":
		return openai.New(cfg.OpenAIModel), nil
	}
	return nil, fmt.Errorf("unknown analysis provider %q (must be gemini or openai)", name)
}
