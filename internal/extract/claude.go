// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package extract

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"strings"

	"github.com/pdiddy/citaciones/internal/httputil"
	"github.com/pdiddy/citaciones/pkg/types"
)

// claudeAPIURL is the Claude API endpoint. Package-level var for test substitution.
var claudeAPIURL = "https://api.anthropic.com/v1/messages"

// ClaudeBackend sends the documents to the Claude Messages API as base64
// document blocks. The response schema is appended to the prompt.
type ClaudeBackend struct {
	APIKey string
	Model  string
	Client *http.Client
}

type claudeRequest struct {
	Model     string          `json:"model"`
	MaxTokens int             `json:"max_tokens"`
	Messages  []claudeMessage `json:"messages"`
}

type claudeMessage struct {
	Role    string        `json:"role"`
	Content []claudeBlock `json:"content"`
}

type claudeBlock struct {
	Type   string        `json:"type"`
	Text   string        `json:"text,omitempty"`
	Source *claudeSource `json:"source,omitempty"`
}

type claudeSource struct {
	Type      string `json:"type"`
	MediaType string `json:"media_type"`
	Data      string `json:"data"`
}

type claudeResponse struct {
	Content    []claudeBlock `json:"content"`
	StopReason string        `json:"stop_reason"`
}

// Generate calls the Messages API and returns the concatenated text blocks.
func (c *ClaudeBackend) Generate(ctx context.Context, req Request) (string, error) {
	prompt, err := renderSchemaPrompt(req)
	if err != nil {
		return "", fmt.Errorf("rendering prompt: %w", err)
	}

	blocks := make([]claudeBlock, 0, len(req.Documents)+1)
	for _, d := range req.Documents {
		blocks = append(blocks, claudeBlock{
			Type: "document",
			Source: &claudeSource{
				Type:      "base64",
				MediaType: mimeOrPDF(d.MIMEType),
				Data:      base64.StdEncoding.EncodeToString(d.Data),
			},
		})
	}
	blocks = append(blocks, claudeBlock{Type: "text", Text: prompt})

	body := claudeRequest{
		Model:     c.Model,
		MaxTokens: 16384,
		Messages:  []claudeMessage{{Role: "user", Content: blocks}},
	}
	headers := map[string]string{
		"x-api-key":         c.APIKey,
		"anthropic-version": "2023-06-01",
	}

	var resp claudeResponse
	if err := httputil.PostJSON(ctx, c.Client, claudeAPIURL, headers, body, &resp); err != nil {
		return "", fmt.Errorf("calling Claude API: %w", err)
	}

	if resp.StopReason == "refusal" {
		return "", fmt.Errorf("Claude API refused the request: %w", types.ErrProviderPolicyBlocked)
	}

	var b strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			b.WriteString(block.Text)
		}
	}
	return b.String(), nil
}

func mimeOrPDF(m string) string {
	if m == "" {
		return "application/pdf"
	}
	return m
}
