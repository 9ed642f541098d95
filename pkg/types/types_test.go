// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type messaged struct{ msg string }

func (m messaged) Error() string       { return "wrapped" }
func (m messaged) UserMessage() string { return m.msg }

func TestUserMessage(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, ""},
		{"sentinel", ErrNoEntries, MsgNoEntries},
		{"wrapped sentinel", fmt.Errorf("reading: %w", ErrTemplateSheetNotFound), MsgSheetNotFound},
		{"own message wins", fmt.Errorf("x: %w", messaged{"propio"}), "propio"},
		{"empty provider answer", ErrProviderEmptyResponse, MsgExtractionFailed},
		{"malformed provider answer", fmt.Errorf("parse: %w", ErrProviderMalformedResponse), MsgExtractionFailed},
		{"policy block", ErrProviderPolicyBlocked, MsgPolicyBlocked},
		{"unknown", errors.New("disk full"), MsgUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, UserMessage(tt.err))
		})
	}
}

func TestTemplateHearing(t *testing.T) {
	now := time.Date(2025, 3, 2, 10, 0, 0, 0, time.UTC)
	tmpl := DefaultTemplate(now)
	assert.Equal(t, "2025-04-01", tmpl.HearingDate)

	h, err := tmpl.Hearing()
	require.NoError(t, err)
	assert.Equal(t, 2025, h.Year())

	tmpl.HearingDate = "01/04/2025"
	_, err = tmpl.Hearing()
	assert.Error(t, err)
}

func TestOutcomeDocs(t *testing.T) {
	outcomes := []Outcome{
		Success{Record: CitationRecord{OficioNumber: "100"}},
		Failure{Message: "falló", Files: SourceFiles{Complaints: "d.pdf"}},
	}
	docs := ToDocs(outcomes)
	require.Len(t, docs, 2)
	assert.Equal(t, OutcomeSuccess, docs[0].Kind)
	assert.Equal(t, OutcomeFailure, docs[1].Kind)
	assert.Equal(t, "falló", docs[1].Error)

	back, err := FromDocs(docs)
	require.NoError(t, err)
	assert.Equal(t, outcomes, back)
	assert.Len(t, Successes(back), 1)

	_, err = FromDocs([]OutcomeDoc{{Kind: OutcomeSuccess}})
	assert.Error(t, err)
	_, err = FromDocs([]OutcomeDoc{{Kind: "other"}})
	assert.Error(t, err)
}
