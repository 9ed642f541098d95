// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package citation turns extracted records into numbered citations and their
// correspondence rows, and formats the strings shown on a citation.
package citation

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/pdiddy/citaciones/pkg/types"
)

// ParseStart parses the configured starting oficio number. Anything that is
// not a positive integer yields 1.
func ParseStart(s string) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n <= 0 {
		return 1
	}
	return n
}

// Normalize numbers records from startNumber in input order and derives one
// correspondence row per record. It is a pure function of its inputs.
func Normalize(records []types.ExtractedRecord, startNumber string, hearingDate time.Time) ([]types.CitationRecord, []types.CorrespondenceRow) {
	start := ParseStart(startNumber)

	citations := make([]types.CitationRecord, len(records))
	for i, r := range records {
		citations[i] = types.CitationRecord{
			ExtractedRecord: r,
			OficioNumber:    strconv.Itoa(start + i),
		}
	}

	return citations, CorrespondenceFor(citations, hearingDate.Year())
}

// CorrespondenceFor regenerates the correspondence rows for citations. Rows
// are numbered from 1.
func CorrespondenceFor(citations []types.CitationRecord, hearingYear int) []types.CorrespondenceRow {
	rows := make([]types.CorrespondenceRow, len(citations))
	for i, c := range citations {
		rows[i] = types.CorrespondenceRow{
			Seq:           i + 1,
			TrackingGuide: "",
			Cert:          types.CorrespondenceCert,
			Department:    types.CorrespondenceDepartment,
			DocType:       types.CorrespondenceDocType,
			DocCode:       DocCode(c.ProcessNumber, hearingYear),
			Addressee:     strings.ToUpper(c.OwnerName),
			Address:       strings.ToUpper(c.Street + " " + c.StreetNumber),
			Municipality:  strings.ToUpper(c.Municipality),
		}
	}
	return rows
}

// DocCode builds the correspondence document code "{process}-{year}".
func DocCode(processNumber string, hearingYear int) string {
	return fmt.Sprintf("%s-%d", processNumber, hearingYear)
}

// NormalizeOutcomes numbers the successes of outcomes and returns them with
// failures left in place. It is used when a run file is renumbered.
func NormalizeOutcomes(outcomes []types.Outcome, startNumber string, hearingDate time.Time) ([]types.Outcome, []types.CorrespondenceRow) {
	var extracted []types.ExtractedRecord
	for _, o := range outcomes {
		if s, ok := o.(types.Success); ok {
			extracted = append(extracted, s.Record.ExtractedRecord)
		}
	}
	citations, rows := Normalize(extracted, startNumber, hearingDate)

	out := make([]types.Outcome, len(outcomes))
	next := 0
	for i, o := range outcomes {
		switch o.(type) {
		case types.Success:
			out[i] = types.Success{Record: citations[next]}
			next++
		case types.Failure:
			out[i] = o
		}
	}
	return out, rows
}
