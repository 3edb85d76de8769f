package provider

import (
	"context"
	"errors"

	"github.com/quarrylabs/quarry/config"
	openai_provider "github.com/quarrylabs/quarry/provider/openai"
)

// Client identifies a planning-service backend.
type Client string

const (
	OpenAI Client = "openai"
	None   Client = "none"
)

// ErrNoProvider is returned when the configuration selects no planning service.
// Callers fall back to deterministic query templates in that case.
var ErrNoProvider = errors.New("no planning provider configured")

// Provider is the planning-service capability the agent consumes. A single
// completion call, no internal retry; any failure is recoverable for callers.
type Provider interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// NewProvider creates a planning provider from configuration. Returns
// ErrNoProvider when the provider is "none" or no API key is available, so the
// caller can run on fallback heuristics alone.
func NewProvider(cfg config.LLMConfig) (Provider, error) {
	switch Client(cfg.Provider) {
	case OpenAI:
		if cfg.APIKey == "" {
			return nil, ErrNoProvider
		}
		return openai_provider.NewClient(cfg.APIKey, cfg.Model, cfg.Temperature, cfg.MaxTokens, cfg.Timeout), nil
	case None:
		return nil, ErrNoProvider
	default:
		return nil, errors.New("unsupported LLM provider")
	}
}
