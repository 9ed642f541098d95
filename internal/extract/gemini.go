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

// geminiAPIBase is the Generative Language API root. Package-level var for
// test substitution.
var geminiAPIBase = "https://generativelanguage.googleapis.com/v1beta"

// GeminiBackend sends the documents inline to the Gemini generateContent
// endpoint with a JSON response schema.
type GeminiBackend struct {
	APIKey string
	Model  string
	Client *http.Client
}

type geminiRequest struct {
	Contents         []geminiContent        `json:"contents"`
	GenerationConfig geminiGenerationConfig `json:"generationConfig"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text       string            `json:"text,omitempty"`
	InlineData *geminiInlineData `json:"inlineData,omitempty"`
}

type geminiInlineData struct {
	MimeType string `json:"mimeType"`
	Data     string `json:"data"`
}

type geminiGenerationConfig struct {
	ResponseMimeType string `json:"responseMimeType"`
	ResponseSchema   Schema `json:"responseSchema,omitempty"`
}

type geminiResponse struct {
	Candidates []struct {
		Content      geminiContent `json:"content"`
		FinishReason string        `json:"finishReason"`
	} `json:"candidates"`
	PromptFeedback struct {
		BlockReason string `json:"blockReason"`
	} `json:"promptFeedback"`
}

// Generate calls generateContent and returns the text of the first candidate.
func (g *GeminiBackend) Generate(ctx context.Context, req Request) (string, error) {
	parts := make([]geminiPart, 0, len(req.Documents)+1)
	parts = append(parts, geminiPart{Text: req.Prompt})
	for _, d := range req.Documents {
		parts = append(parts, geminiPart{InlineData: &geminiInlineData{
			MimeType: mimeOrPDF(d.MIMEType),
			Data:     base64.StdEncoding.EncodeToString(d.Data),
		}})
	}

	body := geminiRequest{
		Contents: []geminiContent{{Parts: parts}},
		GenerationConfig: geminiGenerationConfig{
			ResponseMimeType: "application/json",
			ResponseSchema:   req.Schema,
		},
	}
	url := fmt.Sprintf("%s/models/%s:generateContent", geminiAPIBase, g.Model)
	headers := map[string]string{"x-goog-api-key": g.APIKey}

	var resp geminiResponse
	if err := httputil.PostJSON(ctx, g.Client, url, headers, body, &resp); err != nil {
		return "", fmt.Errorf("calling Gemini API: %w", err)
	}

	if r := resp.PromptFeedback.BlockReason; r != "" {
		return "", fmt.Errorf("prompt blocked (%s): %w", r, types.ErrProviderPolicyBlocked)
	}
	if len(resp.Candidates) == 0 {
		return "", nil
	}

	cand := resp.Candidates[0]
	if cand.FinishReason == "SAFETY" {
		return "", fmt.Errorf("candidate blocked (SAFETY): %w", types.ErrProviderPolicyBlocked)
	}

	var b strings.Builder
	for _, p := range cand.Content.Parts {
		b.WriteString(p.Text)
	}
	return b.String(), nil
}
