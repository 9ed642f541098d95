// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package pipeline sequences one extraction run: count the complaints,
// extract the records, then number them and derive correspondence rows.
package pipeline

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/pdiddy/citaciones/internal/citation"
	"github.com/pdiddy/citaciones/internal/extract"
	"github.com/pdiddy/citaciones/pkg/types"
)

// Extractor is the AI collaborator seen by the pipeline. *extract.Gateway
// implements it.
type Extractor interface {
	CountEntries(ctx context.Context, complaints, certificates extract.Document) int
	Extract(ctx context.Context, complaints, certificates extract.Document) ([]types.ExtractedRecord, error)
}

// Result is the output of one run.
type Result struct {
	// Total is the complaint count reported before extraction.
	Total          int
	Outcomes       []types.Outcome
	Correspondence []types.CorrespondenceRow
	Files          types.SourceFiles
}

// Generate runs Count, Extract and Normalize. Progress lines go to w.
//
// A zero count stops with types.ErrNoEntries and an empty result. An
// extraction error yields a single Failure outcome alongside the error. An
// empty extraction yields types.ErrNothingExtracted.
func Generate(ctx context.Context, ex Extractor, complaints, certificates extract.Document, tmpl types.TemplateConfig, w io.Writer) (Result, error) {
	files := types.SourceFiles{Complaints: complaints.Name, Certificates: certificates.Name}
	res := Result{Files: files}

	if len(complaints.Data) == 0 || len(certificates.Data) == 0 {
		return res, types.ErrMissingDocuments
	}
	hearing, err := tmpl.Hearing()
	if err != nil {
		return res, err
	}

	fmt.Fprintln(w, "Contando denuncias en los documentos...")
	res.Total = ex.CountEntries(ctx, complaints, certificates)
	if res.Total == 0 {
		return res, types.ErrNoEntries
	}

	fmt.Fprintf(w, "Se encontraron %d denuncias. La IA está extrayendo los datos...\n", res.Total)
	records, err := ex.Extract(ctx, complaints, certificates)
	if err != nil {
		slog.Warn("extraction failed", "complaints", files.Complaints, "certificates", files.Certificates, "error", err)
		res.Outcomes = []types.Outcome{types.Failure{Message: types.UserMessage(err), Files: files}}
		return res, err
	}
	if len(records) == 0 {
		return res, types.ErrNothingExtracted
	}
	if len(records) != res.Total {
		slog.Info("extracted count differs from reported count", "reported", res.Total, "extracted", len(records))
	}

	citations, rows := citation.Normalize(records, tmpl.StartOficioNumber, hearing)
	res.Outcomes = make([]types.Outcome, len(citations))
	for i, c := range citations {
		res.Outcomes[i] = types.Success{Record: c}
	}
	res.Correspondence = rows
	return res, nil
}

// Run builds the persisted form of res.
func (res Result) Run(tmpl types.TemplateConfig, now time.Time) types.Run {
	return types.Run{
		ID:             uuid.NewString(),
		CreatedAt:      now,
		Files:          res.Files,
		Template:       tmpl,
		Outcomes:       types.ToDocs(res.Outcomes),
		Correspondence: res.Correspondence,
	}
}
