// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package ledger

import (
	"context"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/citaciones/pkg/types"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "db", "ledger.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func testRun(id, hearingDate string, created time.Time, oficios ...int) types.Run {
	run := types.Run{
		ID:        id,
		CreatedAt: created,
		Files:     types.SourceFiles{Complaints: "d.pdf", Certificates: "c.pdf"},
		Template:  types.TemplateConfig{HearingDate: hearingDate},
	}
	for _, n := range oficios {
		rec := types.CitationRecord{OficioNumber: strconv.Itoa(n)}
		rec.ProcessNumber = "P" + strconv.Itoa(n)
		run.Outcomes = append(run.Outcomes, types.OutcomeDoc{Kind: types.OutcomeSuccess, Record: &rec})
	}
	run.Outcomes = append(run.Outcomes, types.OutcomeDoc{Kind: types.OutcomeFailure, Error: "x"})
	return run
}

func TestNextOnEmptyLedger(t *testing.T) {
	s := testStore(t)
	n, err := s.Next(context.Background(), 2025)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestRecordAndNext(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()
	now := time.Date(2025, 3, 5, 10, 0, 0, 0, time.UTC)

	n, err := s.Record(ctx, testRun("a", "2025-04-01", now, 100, 101, 102))
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	_, err = s.Record(ctx, testRun("b", "2026-01-10", now.Add(time.Hour), 5))
	require.NoError(t, err)

	next, err := s.Next(ctx, 2025)
	require.NoError(t, err)
	assert.Equal(t, 103, next)

	next, err = s.Next(ctx, 2026)
	require.NoError(t, err)
	assert.Equal(t, 6, next)
}

func TestRecordSameRunReplaces(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()
	now := time.Now()

	_, err := s.Record(ctx, testRun("a", "2025-04-01", now, 100, 101))
	require.NoError(t, err)
	_, err = s.Record(ctx, testRun("a", "2025-04-01", now, 100))
	require.NoError(t, err)

	next, err := s.Next(ctx, 2025)
	require.NoError(t, err)
	assert.Equal(t, 101, next)

	entries, err := s.List(ctx, 0)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, 1, entries[0].Citations)
}

func TestIssued(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()
	now := time.Now()

	_, err := s.Record(ctx, testRun("a", "2025-04-01", now, 100))
	require.NoError(t, err)
	_, err = s.Record(ctx, testRun("b", "2025-04-02", now.Add(time.Minute), 100))
	require.NoError(t, err)

	ids, err := s.Issued(ctx, 2025, 100)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, ids)

	ids, err = s.Issued(ctx, 2025, 999)
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestList(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()
	t0 := time.Date(2025, 3, 5, 10, 0, 0, 0, time.UTC)

	_, err := s.Record(ctx, testRun("old", "2025-04-01", t0, 1, 2))
	require.NoError(t, err)
	_, err = s.Record(ctx, testRun("new", "2025-04-01", t0.Add(24*time.Hour), 3, 4, 5))
	require.NoError(t, err)

	entries, err := s.List(ctx, 0)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	assert.Equal(t, "new", entries[0].RunID)
	assert.Equal(t, 3, entries[0].First)
	assert.Equal(t, 5, entries[0].Last)
	assert.Equal(t, 3, entries[0].Citations)
	assert.Equal(t, 2025, entries[0].HearingYear)
	assert.True(t, t0.Add(24*time.Hour).Equal(entries[0].CreatedAt))
	assert.Equal(t, "d.pdf", entries[0].Files.Complaints)

	entries, err = s.List(ctx, 1)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "new", entries[0].RunID)
}

func TestRecordRejectsInvalidHearingDate(t *testing.T) {
	s := testStore(t)
	_, err := s.Record(context.Background(), testRun("a", "", time.Now(), 1))
	assert.Error(t, err)
}
