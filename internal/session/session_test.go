// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package session

import (
	"bytes"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/citaciones/internal/citation"
	"github.com/pdiddy/citaciones/internal/spreadsheet"
	"github.com/pdiddy/citaciones/pkg/types"
)

var fixedNow = time.Date(2025, time.March, 5, 10, 0, 0, 0, time.UTC)

func newTestSession(t *testing.T) *Session {
	t.Helper()
	cfg := types.DefaultTemplate(fixedNow)
	cfg.HearingDate = "2025-04-01"
	s := New(cfg, t.TempDir())
	s.now = func() time.Time { return fixedNow }
	t.Cleanup(func() { s.Close() })
	return s
}

func loaded(t *testing.T) *Session {
	t.Helper()
	s := newTestSession(t)
	records := []types.ExtractedRecord{
		{ProcessNumber: "10", OwnerName: "Juan Pérez", Street: "Los Aromos", StreetNumber: "123", Municipality: "El Quisco"},
		{ProcessNumber: "11", OwnerName: "Ana Soto", Street: "Pinos", StreetNumber: "9", Municipality: "Algarrobo"},
	}
	citations, rows := citation.Normalize(records, "100", time.Date(2025, time.April, 1, 0, 0, 0, 0, time.UTC))
	outcomes := []types.Outcome{
		types.Success{Record: citations[0]},
		types.Failure{Message: types.MsgExtractionFailed},
		types.Success{Record: citations[1]},
	}
	s.Replace(outcomes, rows, types.SourceFiles{Complaints: "d.pdf", Certificates: "c.pdf"})
	return s
}

func TestSelect(t *testing.T) {
	s := loaded(t)

	rec, err := s.Select(0)
	require.NoError(t, err)
	assert.Equal(t, "100", rec.OficioNumber)

	v, ok := s.View()
	require.True(t, ok)
	assert.Equal(t, "100/2025", v.Edits.Oficio)
	assert.Equal(t, "10/2025", v.Edits.Process)
	assert.Equal(t, "a 05 de marzo de 2025.", v.Edits.DateLine)

	_, err = s.Select(1)
	assert.ErrorIs(t, err, ErrNotCitation, "failure has no record")
	assert.Equal(t, 1, s.Selected())
	_, ok = s.View()
	assert.False(t, ok)

	_, err = s.Select(7)
	assert.ErrorIs(t, err, ErrNotCitation)
	assert.Equal(t, -1, s.Selected())
}

func TestEditIsDisplayOnly(t *testing.T) {
	s := loaded(t)
	s.Select(0)

	require.NoError(t, s.Edit(EditOficio, "999/2025"))
	require.NoError(t, s.Edit(EditDateLine, "a 1 de enero."))
	assert.Error(t, s.Edit("rut", "x"))

	v, _ := s.View()
	assert.Equal(t, "999/2025", v.Edits.Oficio)
	assert.Equal(t, "100", v.Record.OficioNumber)
	assert.Equal(t, "10-2025", s.Correspondence()[0].DocCode)

	// Reselecting another record resets edits.
	s.Select(2)
	v, _ = s.View()
	assert.Equal(t, "101/2025", v.Edits.Oficio)
}

func TestEditWithoutSelection(t *testing.T) {
	s := loaded(t)
	assert.Error(t, s.Edit(EditOficio, "1"))
}

func TestSetTemplate_HearingYearChange(t *testing.T) {
	s := loaded(t)
	s.Select(0)
	require.NoError(t, s.Edit(EditOficio, "custom"))

	cfg := s.Template()
	cfg.HearingDate = "2026-01-15"
	require.NoError(t, s.SetTemplate(cfg))

	rows := s.Correspondence()
	require.Len(t, rows, 2)
	assert.Equal(t, "10-2026", rows[0].DocCode)
	assert.Equal(t, "11-2026", rows[1].DocCode)

	v, _ := s.View()
	assert.Equal(t, "100/2026", v.Edits.Oficio)
	assert.Equal(t, "10/2026", v.Edits.Process)
}

func TestSetTemplate_SameYearKeepsEdits(t *testing.T) {
	s := loaded(t)
	s.Select(0)
	require.NoError(t, s.Edit(EditOficio, "custom"))

	cfg := s.Template()
	cfg.HearingDate = "2025-05-20"
	cfg.Court = "OTRO JUZGADO"
	require.NoError(t, s.SetTemplate(cfg))

	v, _ := s.View()
	assert.Equal(t, "custom", v.Edits.Oficio)
	assert.Equal(t, "OTRO JUZGADO", v.Template.Court)
}

func TestSetTemplate_InvalidDate(t *testing.T) {
	s := loaded(t)
	before := s.Template()

	cfg := before
	cfg.HearingDate = "01/04/2025"
	assert.Error(t, s.SetTemplate(cfg))
	assert.Equal(t, before, s.Template())
}

func TestAcquireBatch(t *testing.T) {
	s := loaded(t)
	s.Select(2)
	require.NoError(t, s.Edit(EditDateLine, "hoy"))

	b, err := s.AcquireBatch()
	require.NoError(t, err)

	_, err = s.AcquireBatch()
	assert.ErrorIs(t, err, types.ErrBatchInProgress)

	cur, ok := b.Current()
	require.True(t, ok)
	assert.Equal(t, 2, cur.Index)

	v, err := b.SelectView(0)
	require.NoError(t, err)
	assert.Equal(t, "100", v.Record.OficioNumber)
	assert.Equal(t, 0, s.Selected())

	_, err = b.SelectView(1)
	assert.ErrorIs(t, err, ErrNotCitation)

	b.Release()
	b.Release()
	assert.Equal(t, 2, s.Selected())
	v, _ = s.View()
	assert.Equal(t, "hoy", v.Edits.DateLine)

	b2, err := s.AcquireBatch()
	require.NoError(t, err)
	b2.Release()
}

func TestAcquireBatch_RefusesInteractiveChanges(t *testing.T) {
	s := loaded(t)
	s.Select(0)

	b, err := s.AcquireBatch()
	require.NoError(t, err)
	_, err = b.SelectView(2)
	require.NoError(t, err)

	_, err = s.Select(2)
	assert.ErrorIs(t, err, types.ErrBatchInProgress)
	assert.ErrorIs(t, s.Edit(EditOficio, "x"), types.ErrBatchInProgress)
	cfg := s.Template()
	cfg.HearingDate = "2026-01-15"
	assert.ErrorIs(t, s.SetTemplate(cfg), types.ErrBatchInProgress)
	assert.Equal(t, "2025-04-01", s.Template().HearingDate)

	b.Release()
	assert.Equal(t, 0, s.Selected(), "clerk's selection comes back")
	_, err = s.Select(2)
	assert.NoError(t, err)
}

func TestAcquireBatch_ReleaseAfterReplace(t *testing.T) {
	s := loaded(t)
	s.Select(2)
	b, err := s.AcquireBatch()
	require.NoError(t, err)

	s.Replace([]types.Outcome{types.Failure{Message: "x"}}, nil, types.SourceFiles{})
	b.Release()
	assert.Equal(t, -1, s.Selected())
}

func TestReset(t *testing.T) {
	s := loaded(t)
	s.Select(0)
	_, err := s.Assets().Replace("logo", "logo.png", []byte("png"))
	require.NoError(t, err)

	s.Reset()

	assert.Empty(t, s.Outcomes())
	assert.Empty(t, s.Correspondence())
	assert.Equal(t, -1, s.Selected())
	_, ok := s.Workbook()
	assert.False(t, ok)

	_, ok = s.Assets().Get("logo")
	assert.True(t, ok, "images survive reset")
}

func TestAppendCorrespondence(t *testing.T) {
	s := loaded(t)
	_, _, err := s.AppendCorrespondence("")
	assert.ErrorIs(t, err, ErrNoWorkbook)

	wb, err := spreadsheet.ExportNew(nil)
	require.NoError(t, err)
	s.SetWorkbook(wb)

	const appends = 4
	var wg sync.WaitGroup
	errs := make([]error, appends)
	for i := 0; i < appends; i++ {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _, errs[i] = s.AppendCorrespondence("")
		}()
	}
	wg.Wait()
	for _, err := range errs {
		require.NoError(t, err)
	}

	cur, ok := s.Workbook()
	require.True(t, ok)
	rows, err := cur.Rows(cur.DefaultSheet())
	require.NoError(t, err)
	require.Len(t, rows, 1+appends*2)
	for i, row := range rows[1:] {
		assert.Equal(t, strconv.Itoa(i+1), row[0], "row %d", i+1)
	}

	name, data, err := s.AppendCorrespondence("")
	require.NoError(t, err)
	assert.Equal(t, spreadsheet.DefaultExportName, name)
	reopened, err := spreadsheet.Open(name, bytes.NewReader(data))
	require.NoError(t, err)
	defer reopened.Close()
	rows, err = reopened.Rows(reopened.DefaultSheet())
	require.NoError(t, err)
	assert.Len(t, rows, 1+(appends+1)*2)
}

func TestAppendCorrespondence_NoRows(t *testing.T) {
	s := newTestSession(t)
	wb, err := spreadsheet.ExportNew(nil)
	require.NoError(t, err)
	s.SetWorkbook(wb)

	_, _, err = s.AppendCorrespondence("")
	assert.ErrorIs(t, err, types.ErrNoCitations)
}

func TestResetClosesWorkbook(t *testing.T) {
	s := loaded(t)
	wb, err := spreadsheet.ExportNew(s.Correspondence())
	require.NoError(t, err)
	s.SetWorkbook(wb)

	s.Reset()
	_, ok := s.Workbook()
	assert.False(t, ok)
	_, _, err = s.AppendCorrespondence("")
	assert.ErrorIs(t, err, ErrNoWorkbook)
}
