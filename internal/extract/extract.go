// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package extract sends the complaint and certificate documents to a
// Generative AI backend and parses the paired records it returns.
package extract

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/pdiddy/citaciones/pkg/types"
)

// Document is one uploaded source file.
type Document struct {
	Name     string
	MIMEType string
	Data     []byte
}

// Schema is a response schema in the provider's OpenAPI subset.
type Schema map[string]any

// Request is one prompt with its documents and expected response schema.
type Request struct {
	Prompt    string
	Schema    Schema
	Documents []Document
}

// AIBackend abstracts the Generative AI API so tests can supply a fake.
// Generate returns the provider's raw text answer.
type AIBackend interface {
	Generate(ctx context.Context, req Request) (string, error)
}

// ExtractionError is returned by Extract. Kind is one of the provider
// sentinels in pkg/types, or nil for an unclassified failure.
type ExtractionError struct {
	Kind error
	Err  error
}

func (e *ExtractionError) Error() string {
	switch {
	case e.Kind != nil && e.Err != nil:
		return fmt.Sprintf("extraction failed: %v: %v", e.Kind, e.Err)
	case e.Kind != nil:
		return fmt.Sprintf("extraction failed: %v", e.Kind)
	default:
		return fmt.Sprintf("extraction failed: %v", e.Err)
	}
}

func (e *ExtractionError) Unwrap() []error {
	var errs []error
	if e.Kind != nil {
		errs = append(errs, e.Kind)
	}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}

// UserMessage is the message shown to the clerk for this failure.
func (e *ExtractionError) UserMessage() string {
	if errors.Is(e.Kind, types.ErrProviderPolicyBlocked) {
		return types.MsgPolicyBlocked
	}
	return types.MsgExtractionFailed
}

// Gateway runs the count and extraction requests against an AIBackend.
type Gateway struct {
	backend AIBackend
}

// NewGateway creates a gateway over backend.
func NewGateway(backend AIBackend) *Gateway {
	return &Gateway{backend: backend}
}

// CountEntries asks the backend how many complaints the documents contain.
// Any failure yields 0: a provider error and a genuinely empty upload look
// the same to the caller.
func (g *Gateway) CountEntries(ctx context.Context, complaints, certificates Document) int {
	text, err := g.backend.Generate(ctx, Request{
		Prompt:    countPrompt,
		Schema:    countSchema,
		Documents: []Document{complaints, certificates},
	})
	if err != nil {
		slog.Warn("counting entries failed", "error", err)
		return 0
	}

	cleaned := cleanJSON(text)
	if cleaned == "" {
		return 0
	}

	var parsed map[string]any
	if err := json.Unmarshal([]byte(cleaned), &parsed); err != nil {
		slog.Warn("count response is not JSON", "error", err)
		return 0
	}
	n, ok := parsed["count"].(float64)
	if !ok || n < 0 {
		return 0
	}
	return int(n)
}

// Extract asks the backend to pair every complaint with its certificate by
// plate and returns the records in the order the backend produced them.
func (g *Gateway) Extract(ctx context.Context, complaints, certificates Document) ([]types.ExtractedRecord, error) {
	text, err := g.backend.Generate(ctx, Request{
		Prompt:    extractionPrompt,
		Schema:    citationListSchema,
		Documents: []Document{complaints, certificates},
	})
	if err != nil {
		slog.Error("extraction request failed", "error", err)
		if errors.Is(err, types.ErrProviderPolicyBlocked) || strings.Contains(err.Error(), "SAFETY") {
			return nil, &ExtractionError{Kind: types.ErrProviderPolicyBlocked, Err: err}
		}
		return nil, &ExtractionError{Err: err}
	}

	records, err := parseRecords(text)
	if err != nil {
		slog.Error("extraction response rejected", "error", err)
		return nil, err
	}
	return records, nil
}

// parseRecords decodes the backend's array of records.
func parseRecords(text string) ([]types.ExtractedRecord, error) {
	cleaned := cleanJSON(text)
	if cleaned == "" {
		return nil, &ExtractionError{Kind: types.ErrProviderEmptyResponse}
	}

	var raw any
	if err := json.Unmarshal([]byte(cleaned), &raw); err != nil {
		return nil, &ExtractionError{Kind: types.ErrProviderMalformedResponse, Err: err}
	}
	if _, ok := raw.([]any); !ok {
		return nil, &ExtractionError{
			Kind: types.ErrProviderMalformedResponse,
			Err:  fmt.Errorf("expected a JSON array, got %T", raw),
		}
	}

	var records []types.ExtractedRecord
	if err := json.Unmarshal([]byte(cleaned), &records); err != nil {
		return nil, &ExtractionError{Kind: types.ErrProviderMalformedResponse, Err: err}
	}
	return records, nil
}

// cleanJSON trims whitespace and a surrounding ```json fence.
func cleanJSON(text string) string {
	s := strings.TrimSpace(text)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}
