// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package citation

import (
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/citaciones/pkg/types"
)

func record(process string) types.ExtractedRecord {
	return types.ExtractedRecord{
		Plate:         "rhpt14",
		ProcessNumber: process,
		OwnerName:     "Juan Pérez",
		Street:        "Los Aromos",
		StreetNumber:  "123",
		Municipality:  "El Quisco",
	}
}

func hearing(t *testing.T, iso string) time.Time {
	t.Helper()
	d, err := time.Parse(types.HearingDateLayout, iso)
	require.NoError(t, err)
	return d
}

// --- Normalize ---

func TestNormalize_Scenario(t *testing.T) {
	records := []types.ExtractedRecord{record("10"), record("11"), record("12")}

	citations, rows := Normalize(records, "100", hearing(t, "2025-03-01"))

	require.Len(t, citations, 3)
	require.Len(t, rows, 3)
	for i, want := range []string{"100", "101", "102"} {
		assert.Equal(t, want, citations[i].OficioNumber)
	}
	for i, want := range []string{"10-2025", "11-2025", "12-2025"} {
		assert.Equal(t, want, rows[i].DocCode)
		assert.Equal(t, i+1, rows[i].Seq)
	}
}

func TestNormalize_SequentialNumbers(t *testing.T) {
	for _, n := range []int{0, 1, 5, 40} {
		for _, start := range []int{1, 7, 100, 9999} {
			records := make([]types.ExtractedRecord, n)
			for i := range records {
				records[i] = record(strconv.Itoa(i))
			}

			citations, rows := Normalize(records, strconv.Itoa(start), hearing(t, "2024-12-31"))

			require.Len(t, citations, n)
			require.Len(t, rows, n)
			for i, c := range citations {
				assert.Equal(t, strconv.Itoa(start+i), c.OficioNumber)
				assert.Equal(t, strconv.Itoa(i), c.ProcessNumber, "input order must be kept")
			}
		}
	}
}

func TestNormalize_Pure(t *testing.T) {
	records := []types.ExtractedRecord{record("1"), record("2")}
	c1, r1 := Normalize(records, "5", hearing(t, "2025-01-01"))
	c2, r2 := Normalize(records, "5", hearing(t, "2025-01-01"))
	assert.Equal(t, c1, c2)
	assert.Equal(t, r1, r2)
}

func TestNormalize_InvalidStartDefaultsToOne(t *testing.T) {
	for _, start := range []string{"", "abc", "0", "-4", "1.5"} {
		t.Run(start, func(t *testing.T) {
			citations, _ := Normalize([]types.ExtractedRecord{record("1")}, start, hearing(t, "2025-01-01"))
			assert.Equal(t, "1", citations[0].OficioNumber)
		})
	}
}

func TestNormalize_HearingYearOnlyChangesYear(t *testing.T) {
	records := []types.ExtractedRecord{record("77")}

	_, before := Normalize(records, "1", hearing(t, "2025-06-01"))
	_, after := Normalize(records, "1", hearing(t, "2026-01-15"))

	assert.Equal(t, "77-2025", before[0].DocCode)
	assert.Equal(t, "77-2026", after[0].DocCode)
}

func TestCorrespondenceRowColumns(t *testing.T) {
	citations, rows := Normalize([]types.ExtractedRecord{record("9")}, "1", hearing(t, "2025-03-01"))
	require.Len(t, citations, 1)

	row := rows[0]
	assert.Equal(t, "", row.TrackingGuide)
	assert.Equal(t, "CERT", row.Cert)
	assert.Equal(t, "JPL", row.Department)
	assert.Equal(t, "2º CITACIÓN-ROL", row.DocType)
	assert.Equal(t, "JUAN PÉREZ", row.Addressee)
	assert.Equal(t, "LOS AROMOS 123", row.Address)
	assert.Equal(t, "EL QUISCO", row.Municipality)
	assert.Len(t, row.Values(), len(types.CorrespondenceHeaders))
}

func TestNormalizeOutcomes_KeepsFailuresInPlace(t *testing.T) {
	outcomes := []types.Outcome{
		types.Success{Record: types.CitationRecord{ExtractedRecord: record("1")}},
		types.Failure{Message: "boom"},
		types.Success{Record: types.CitationRecord{ExtractedRecord: record("2")}},
	}

	out, rows := NormalizeOutcomes(outcomes, "50", hearing(t, "2025-03-01"))

	require.Len(t, out, 3)
	require.Len(t, rows, 2)
	assert.Equal(t, "50", out[0].(types.Success).Record.OficioNumber)
	assert.IsType(t, types.Failure{}, out[1])
	assert.Equal(t, "51", out[2].(types.Success).Record.OficioNumber)
	assert.Equal(t, "2-2025", rows[1].DocCode)
}

// --- formatting ---

func TestFormatPlate(t *testing.T) {
	tests := []struct{ in, want string }{
		{"rhpt14", "RHPT-14"},
		{"RHPT-14", "RHPT-14"},
		{"AB-12", "AB-12"},
		{"ab-12", "AB-12"},
		{"", ""},
		{"ABCDE1", "ABCDE1"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatPlate(tt.in))
		})
	}
}

func TestFormatInfractionDate(t *testing.T) {
	assert.Equal(t, "5 DE MARZO DEL 2025", FormatInfractionDate("05-03-2025"))
	assert.Equal(t, "31 DE DICIEMBRE DEL 2024", FormatInfractionDate("31-12-2024"))
	assert.Equal(t, "2025/03/05", FormatInfractionDate("2025/03/05"))
	assert.Equal(t, "99-99-2025", FormatInfractionDate("99-99-2025"))
}

func TestFormatTimeAmPm(t *testing.T) {
	assert.Equal(t, "09:15 A.M", FormatTimeAmPm("09:15"))
	assert.Equal(t, "12:00 P.M", FormatTimeAmPm("12:00"))
	assert.Equal(t, "23:59 P.M", FormatTimeAmPm("23:59"))
	assert.Equal(t, "9:15", FormatTimeAmPm("9:15"))
}

func TestFormatHearingDate(t *testing.T) {
	assert.Equal(t, "1 de marzo de 2025", FormatHearingDate("2025-03-01"))
	assert.Equal(t, "not-a-date", FormatHearingDate("not-a-date"))
}

func TestDateLine(t *testing.T) {
	d := time.Date(2025, time.March, 5, 10, 0, 0, 0, time.UTC)
	assert.Equal(t, "a 05 de marzo de 2025.", DateLine(d))
}

func TestYearSuffixedAndFileName(t *testing.T) {
	assert.Equal(t, "100/2025", YearSuffixed("100", 2025))
	assert.Equal(t, "", YearSuffixed("", 2025))
	assert.Equal(t, "citacion-oficio-100-2025.pdf", PDFFileName("100/2025"))
}
