// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package extract

import (
	"fmt"
	"net/http"

	"github.com/pdiddy/citaciones/pkg/types"
)

const (
	defaultGeminiModel = "gemini-2.5-flash"
	defaultClaudeModel = "claude-sonnet-4-5-20250929"
)

// NewBackend builds the AIBackend selected by cfg. A missing API key is
// reported as types.ErrMissingAPIKey. When client is nil one is created
// with cfg.Timeout.
func NewBackend(cfg types.AIConfig, client *http.Client) (AIBackend, error) {
	if cfg.APIKey == "" {
		return nil, types.ErrMissingAPIKey
	}
	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout}
	}

	switch cfg.Provider {
	case types.ProviderGemini, "":
		model := cfg.Model
		if model == "" {
			model = defaultGeminiModel
		}
		return &GeminiBackend{APIKey: cfg.APIKey, Model: model, Client: client}, nil
	case types.ProviderClaude:
		model := cfg.Model
		if model == "" {
			model = defaultClaudeModel
		}
		return &ClaudeBackend{APIKey: cfg.APIKey, Model: model, Client: client}, nil
	default:
		return nil, fmt.Errorf("unsupported AI provider %q: use gemini or claude", cfg.Provider)
	}
}
