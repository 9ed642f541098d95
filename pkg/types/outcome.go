// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "fmt"

// Outcome is the result of processing one position of an extraction run.
// Exactly two variants exist, Success and Failure; handle them with a type
// switch.
type Outcome interface {
	outcome()
}

// Success carries a displayable citation.
type Success struct {
	Record CitationRecord
}

// Failure records an error at the position it occurred.
type Failure struct {
	Message string
	Files   SourceFiles
}

func (Success) outcome() {}
func (Failure) outcome() {}

// Successes returns the citation records of the successful outcomes in order.
func Successes(outcomes []Outcome) []CitationRecord {
	var recs []CitationRecord
	for _, o := range outcomes {
		if s, ok := o.(Success); ok {
			recs = append(recs, s.Record)
		}
	}
	return recs
}

// OutcomeKind tags the persisted form of an Outcome.
type OutcomeKind string

const (
	OutcomeSuccess OutcomeKind = "success"
	OutcomeFailure OutcomeKind = "failure"
)

// OutcomeDoc is the serializable form of an Outcome used in run files and
// API responses.
type OutcomeDoc struct {
	Kind   OutcomeKind     `json:"kind" yaml:"kind"`
	Record *CitationRecord `json:"data,omitempty" yaml:"record,omitempty"`
	Error  string          `json:"error,omitempty" yaml:"error,omitempty"`
	Files  *SourceFiles    `json:"files,omitempty" yaml:"files,omitempty"`
}

// ToDocs converts outcomes to their serializable form.
func ToDocs(outcomes []Outcome) []OutcomeDoc {
	docs := make([]OutcomeDoc, 0, len(outcomes))
	for _, o := range outcomes {
		switch v := o.(type) {
		case Success:
			rec := v.Record
			docs = append(docs, OutcomeDoc{Kind: OutcomeSuccess, Record: &rec})
		case Failure:
			files := v.Files
			docs = append(docs, OutcomeDoc{Kind: OutcomeFailure, Error: v.Message, Files: &files})
		}
	}
	return docs
}

// FromDocs rebuilds outcomes from their serializable form.
func FromDocs(docs []OutcomeDoc) ([]Outcome, error) {
	outcomes := make([]Outcome, 0, len(docs))
	for i, d := range docs {
		switch d.Kind {
		case OutcomeSuccess:
			if d.Record == nil {
				return nil, fmt.Errorf("outcome %d: success without record", i)
			}
			outcomes = append(outcomes, Success{Record: *d.Record})
		case OutcomeFailure:
			f := Failure{Message: d.Error}
			if d.Files != nil {
				f.Files = *d.Files
			}
			outcomes = append(outcomes, f)
		default:
			return nil, fmt.Errorf("outcome %d: unknown kind %q", i, d.Kind)
		}
	}
	return outcomes, nil
}
