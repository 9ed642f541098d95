// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// Run is the persisted result of one extraction run. The extract command
// writes it as YAML; the export commands read it back.
type Run struct {
	// ID is a uuid assigned when the run is created.
	ID string `json:"id" yaml:"id"`

	CreatedAt time.Time      `json:"created_at" yaml:"created_at"`
	Files     SourceFiles    `json:"files" yaml:"files"`
	Template  TemplateConfig `json:"template" yaml:"template"`

	// Outcomes are in provider order; numbering depends on it.
	Outcomes       []OutcomeDoc        `json:"outcomes" yaml:"outcomes"`
	Correspondence []CorrespondenceRow `json:"correspondence" yaml:"correspondence"`
}
