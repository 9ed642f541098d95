// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package session holds the interactive state of one clerk session: the
// outcome list, the selected citation, transient edits to the displayed
// citation, the template configuration and its images.
package session

import (
	"bytes"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/pdiddy/citaciones/internal/assets"
	"github.com/pdiddy/citaciones/internal/citation"
	"github.com/pdiddy/citaciones/internal/spreadsheet"
	"github.com/pdiddy/citaciones/pkg/types"
)

// Selection errors.
var (
	ErrNotCitation = errors.New("no citation at index")
	ErrNoWorkbook  = errors.New("no correspondence template uploaded")
)

// EditField names a display-only field of the citation view.
type EditField string

const (
	EditOficio   EditField = "oficio"
	EditProcess  EditField = "proceso"
	EditDateLine EditField = "fecha"
)

// Edits are the clerk's changes to display-only text. They never reach the
// underlying CitationRecord or CorrespondenceRow.
type Edits struct {
	Oficio   string `json:"oficio"`
	Process  string `json:"proceso"`
	DateLine string `json:"fecha"`
}

// View is what the citation surface displays.
type View struct {
	Index     int                  `json:"index"`
	Record    types.CitationRecord `json:"data"`
	Template  types.TemplateConfig `json:"config"`
	Edits     Edits                `json:"edits"`
	LogoPath  string               `json:"-"`
	SignaPath string               `json:"-"`
}

// Session is safe for concurrent use.
type Session struct {
	ID string

	mu       sync.Mutex
	outcomes []types.Outcome
	rows     []types.CorrespondenceRow
	files    types.SourceFiles
	selected int
	edits    Edits
	template types.TemplateConfig
	assets   *assets.Registry
	lastUsed time.Time
	inBatch  bool
	now      func() time.Time

	// wbMu serializes workbook changes. It is taken before mu.
	wbMu     sync.Mutex
	workbook *spreadsheet.Workbook
}

// New creates a session with template cfg. Images are stored under
// assetDir.
func New(cfg types.TemplateConfig, assetDir string) *Session {
	return &Session{
		ID:       uuid.NewString(),
		selected: -1,
		template: cfg,
		assets:   assets.NewRegistry(assetDir),
		lastUsed: time.Now(),
		now:      time.Now,
	}
}

// Touch records activity; LastUsed reports it.
func (s *Session) Touch() {
	s.mu.Lock()
	s.lastUsed = s.now()
	s.mu.Unlock()
}

func (s *Session) LastUsed() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastUsed
}

// Replace installs a new record set and clears the selection.
func (s *Session) Replace(outcomes []types.Outcome, rows []types.CorrespondenceRow, files types.SourceFiles) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.outcomes = outcomes
	s.rows = rows
	s.files = files
	s.selected = -1
	s.edits = Edits{}
}

// Reset clears records, selection and the uploaded workbook. Template and
// images are kept.
func (s *Session) Reset() {
	s.wbMu.Lock()
	defer s.wbMu.Unlock()
	s.closeWorkbookLocked()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.outcomes = nil
	s.rows = nil
	s.files = types.SourceFiles{}
	s.selected = -1
	s.edits = Edits{}
}

// Outcomes returns a copy of the outcome list.
func (s *Session) Outcomes() []types.Outcome {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]types.Outcome(nil), s.outcomes...)
}

// Correspondence returns a copy of the correspondence rows.
func (s *Session) Correspondence() []types.CorrespondenceRow {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]types.CorrespondenceRow(nil), s.rows...)
}

// Files returns the source file names of the current record set.
func (s *Session) Files() types.SourceFiles {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.files
}

// Select makes index the displayed position and returns its record. A
// Failure index stays selected and yields ErrNotCitation; an out-of-range
// index clears the selection and yields ErrNotCitation. While a batch holds
// the session, Select fails with types.ErrBatchInProgress.
func (s *Session) Select(index int) (types.CitationRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.inBatch {
		return types.CitationRecord{}, types.ErrBatchInProgress
	}
	return s.selectLocked(index)
}

// Selected returns the selected index, or -1.
func (s *Session) Selected() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selected
}

// View returns the displayed citation, if the selection holds a Success.
func (s *Session) View() (View, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.viewLocked()
}

// Edit changes one display-only field of the current view.
func (s *Session) Edit(field EditField, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.inBatch {
		return types.ErrBatchInProgress
	}
	if _, ok := s.recordLocked(); !ok {
		return fmt.Errorf("no citation selected")
	}
	switch field {
	case EditOficio:
		s.edits.Oficio = value
	case EditProcess:
		s.edits.Process = value
	case EditDateLine:
		s.edits.DateLine = value
	default:
		return fmt.Errorf("unknown field %q", field)
	}
	return nil
}

// Template returns the template configuration.
func (s *Session) Template() types.TemplateConfig {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.template
}

// SetTemplate replaces the template. A change of hearing year regenerates
// the correspondence rows and resets the year-suffixed edits. It is refused
// while a batch holds the session.
func (s *Session) SetTemplate(cfg types.TemplateConfig) error {
	hearing, err := cfg.Hearing()
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.inBatch {
		return types.ErrBatchInProgress
	}

	prevYear := 0
	if prev, err := s.template.Hearing(); err == nil {
		prevYear = prev.Year()
	}
	s.template = cfg

	if hearing.Year() != prevYear {
		s.rows = citation.CorrespondenceFor(types.Successes(s.outcomes), hearing.Year())
		if rec, ok := s.recordLocked(); ok {
			s.edits.Oficio = citation.YearSuffixed(rec.OficioNumber, hearing.Year())
			s.edits.Process = citation.YearSuffixed(rec.ProcessNumber, hearing.Year())
		}
	}
	return nil
}

// Assets returns the image registry of the template.
func (s *Session) Assets() *assets.Registry {
	return s.assets
}

// SetWorkbook keeps an uploaded correspondence template, closing the one it
// replaces.
func (s *Session) SetWorkbook(wb *spreadsheet.Workbook) {
	s.wbMu.Lock()
	defer s.wbMu.Unlock()
	s.closeWorkbookLocked()
	s.workbook = wb
}

// Workbook returns the uploaded correspondence template, if any. Changes to
// it go through AppendCorrespondence.
func (s *Session) Workbook() (*spreadsheet.Workbook, bool) {
	s.wbMu.Lock()
	defer s.wbMu.Unlock()
	return s.workbook, s.workbook != nil
}

// AppendCorrespondence appends the session's correspondence rows to the
// uploaded template and returns the download name and the updated file.
// Appends are serialized, so each continues the numbering of the last.
func (s *Session) AppendCorrespondence(sheet string) (string, []byte, error) {
	s.wbMu.Lock()
	defer s.wbMu.Unlock()

	if s.workbook == nil {
		return "", nil, ErrNoWorkbook
	}
	rows := s.Correspondence()
	if len(rows) == 0 {
		return "", nil, types.ErrNoCitations
	}
	name, err := spreadsheet.AppendToTemplate(s.workbook, sheet, rows)
	if err != nil {
		return "", nil, err
	}
	var buf bytes.Buffer
	if _, err := s.workbook.WriteTo(&buf); err != nil {
		return "", nil, fmt.Errorf("writing %s: %w", name, err)
	}
	return name, buf.Bytes(), nil
}

func (s *Session) closeWorkbookLocked() {
	if s.workbook != nil {
		s.workbook.Close()
		s.workbook = nil
	}
}

// Batch holds the selection slot of a session. While it is held, interactive
// Select, Edit and SetTemplate fail with types.ErrBatchInProgress.
type Batch struct {
	s        *Session
	selected int
	edits    Edits
	once     sync.Once
}

// AcquireBatch reserves the selection slot for a batch operation. Only one
// batch may hold a session at a time. Callers defer Release, which restores
// the prior selection and edits.
func (s *Session) AcquireBatch() (*Batch, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.inBatch {
		return nil, types.ErrBatchInProgress
	}
	s.inBatch = true
	return &Batch{s: s, selected: s.selected, edits: s.edits}, nil
}

// Current returns the view displayed when the batch started.
func (b *Batch) Current() (View, bool) {
	b.s.mu.Lock()
	defer b.s.mu.Unlock()
	return b.s.viewLocked()
}

// SelectView selects index and returns its view in one step.
func (b *Batch) SelectView(index int) (View, error) {
	b.s.mu.Lock()
	defer b.s.mu.Unlock()
	if _, err := b.s.selectLocked(index); err != nil {
		return View{}, fmt.Errorf("citation %d: %w", index, err)
	}
	v, _ := b.s.viewLocked()
	return v, nil
}

// Release restores the selection and frees the slot. Extra calls do nothing.
func (b *Batch) Release() {
	b.once.Do(func() {
		s := b.s
		s.mu.Lock()
		defer s.mu.Unlock()
		s.selected, s.edits = b.selected, b.edits
		if s.selected >= len(s.outcomes) {
			s.selected, s.edits = -1, Edits{}
		}
		s.inBatch = false
	})
}

// Close releases the session's images and uploaded workbook.
func (s *Session) Close() error {
	s.wbMu.Lock()
	s.closeWorkbookLocked()
	s.wbMu.Unlock()
	return s.assets.Close()
}

func (s *Session) selectLocked(index int) (types.CitationRecord, error) {
	if index < 0 || index >= len(s.outcomes) {
		s.selected = -1
		s.edits = Edits{}
		return types.CitationRecord{}, ErrNotCitation
	}
	if index != s.selected {
		s.selected = index
		s.edits = s.defaultEditsLocked()
	}
	rec, ok := s.recordLocked()
	if !ok {
		return types.CitationRecord{}, ErrNotCitation
	}
	return rec, nil
}

func (s *Session) viewLocked() (View, bool) {
	rec, ok := s.recordLocked()
	if !ok {
		return View{}, false
	}
	v := View{
		Index:    s.selected,
		Record:   rec,
		Template: s.template,
		Edits:    s.edits,
	}
	if h, ok := s.assets.Get(assets.Logo); ok {
		v.LogoPath = h.Path
	}
	if h, ok := s.assets.Get(assets.Signature); ok {
		v.SignaPath = h.Path
	}
	return v, true
}

func (s *Session) recordLocked() (types.CitationRecord, bool) {
	if s.selected < 0 || s.selected >= len(s.outcomes) {
		return types.CitationRecord{}, false
	}
	succ, ok := s.outcomes[s.selected].(types.Success)
	if !ok {
		return types.CitationRecord{}, false
	}
	return succ.Record, true
}

func (s *Session) defaultEditsLocked() Edits {
	rec, ok := s.recordLocked()
	if !ok {
		return Edits{}
	}
	year := s.now().Year()
	if h, err := s.template.Hearing(); err == nil {
		year = h.Year()
	}
	return Edits{
		Oficio:   citation.YearSuffixed(rec.OficioNumber, year),
		Process:  citation.YearSuffixed(rec.ProcessNumber, year),
		DateLine: citation.DateLine(s.now()),
	}
}
