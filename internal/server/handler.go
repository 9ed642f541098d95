// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package server

import (
	"bytes"
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/pdiddy/citaciones/internal/assets"
	"github.com/pdiddy/citaciones/internal/extract"
	"github.com/pdiddy/citaciones/internal/pipeline"
	"github.com/pdiddy/citaciones/internal/render"
	"github.com/pdiddy/citaciones/internal/session"
	"github.com/pdiddy/citaciones/internal/spreadsheet"
	"github.com/pdiddy/citaciones/pkg/types"
)

const (
	msgBadAccessCode   = "Código de acceso incorrecto."
	msgSessionExpired  = "La sesión expiró. Ingresa nuevamente."
	msgNoSuchCitation  = "La citación seleccionada no existe."
	msgNoSelection     = "Selecciona una citación antes de editarla."
	msgInvalidTemplate = "La configuración de la plantilla no es válida. Revisa la fecha de audiencia."
	msgNoWorkbook      = "Primero sube una planilla de correspondencia."
	msgBadRequest      = "La solicitud no es válida."
)

const (
	sessionKey = "session"
	xlsxType   = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// Recorder persists finished runs. *ledger.Store implements it.
type Recorder interface {
	Record(ctx context.Context, run types.Run) (int, error)
}

// Handler serves the clerk API.
type Handler struct {
	Sessions *Registry
	// Extractor is nil when no AI key is configured; extraction then fails
	// with types.ErrMissingAPIKey.
	Extractor  pipeline.Extractor
	Ledger     Recorder
	AccessCode string
	Render     types.RenderConfig
	// NewSurface builds the surface of one render request. Nil uses a
	// CanvasSurface at Render.Scale.
	NewSurface func() (render.Surface, error)

	now func() time.Time
}

func (h *Handler) clock() time.Time {
	if h.now != nil {
		return h.now()
	}
	return time.Now()
}

func (h *Handler) surface() (render.Surface, error) {
	if h.NewSurface != nil {
		return h.NewSurface()
	}
	return render.NewCanvasSurface(h.Render.Scale)
}

type loginRequest struct {
	Code string `json:"code"`
}

type loginResponse struct {
	SessionID string               `json:"session_id"`
	Config    types.TemplateConfig `json:"config"`
}

// Login checks the access code and opens a session.
func (h *Handler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Fail(c, http.StatusBadRequest, msgBadRequest)
		return
	}
	if h.AccessCode != "" && subtle.ConstantTimeCompare([]byte(req.Code), []byte(h.AccessCode)) != 1 {
		slog.Warn("login rejected", "remote", c.ClientIP())
		Fail(c, http.StatusUnauthorized, msgBadAccessCode)
		return
	}
	s := h.Sessions.Create()
	Success(c, loginResponse{SessionID: s.ID, Config: s.Template()})
}

// Health reports liveness.
func (h *Handler) Health(c *gin.Context) {
	Success(c, gin.H{"status": "ok", "sessions": h.Sessions.Len()})
}

// loadSession resolves the :id path parameter.
func (h *Handler) loadSession(c *gin.Context) {
	s, ok := h.Sessions.Get(c.Param("id"))
	if !ok {
		Fail(c, http.StatusUnauthorized, msgSessionExpired)
		return
	}
	c.Set(sessionKey, s)
	c.Next()
}

func sessionFrom(c *gin.Context) *session.Session {
	return c.MustGet(sessionKey).(*session.Session)
}

type citationsResponse struct {
	Outcomes       []types.OutcomeDoc        `json:"outcomes"`
	Correspondence []types.CorrespondenceRow `json:"correspondence"`
	Files          types.SourceFiles         `json:"files"`
	Selected       int                       `json:"selected"`
	Total          int                       `json:"total,omitempty"`
	Progress       []string                  `json:"progress,omitempty"`
}

func citationsOf(s *session.Session) citationsResponse {
	return citationsResponse{
		Outcomes:       types.ToDocs(s.Outcomes()),
		Correspondence: s.Correspondence(),
		Files:          s.Files(),
		Selected:       s.Selected(),
	}
}

// Generate runs extraction over the uploaded "denuncias" and "ciav" files
// and replaces the session's outcomes.
func (h *Handler) Generate(c *gin.Context) {
	s := sessionFrom(c)
	if h.Extractor == nil {
		FailErr(c, types.ErrMissingAPIKey)
		return
	}

	complaints, err := formDocument(c, "denuncias")
	if err != nil {
		FailErr(c, err)
		return
	}
	certificates, err := formDocument(c, "ciav")
	if err != nil {
		FailErr(c, err)
		return
	}

	tmpl := s.Template()
	var progress bytes.Buffer
	res, err := pipeline.Generate(c.Request.Context(), h.Extractor, complaints, certificates, tmpl, &progress)
	if err != nil {
		switch {
		case len(res.Outcomes) > 0:
			s.Replace(res.Outcomes, nil, res.Files)
			out := citationsOf(s)
			out.Progress = lines(progress.String())
			_ = c.Error(err)
			FailWithData(c, statusFor(err), types.UserMessage(err), out)
		case errors.Is(err, types.ErrNoEntries), errors.Is(err, types.ErrNothingExtracted):
			s.Replace(nil, nil, res.Files)
			FailErr(c, err)
		default:
			FailErr(c, err)
		}
		return
	}

	s.Replace(res.Outcomes, res.Correspondence, res.Files)
	if h.Ledger != nil {
		if _, err := h.Ledger.Record(c.Request.Context(), res.Run(tmpl, h.clock())); err != nil {
			slog.Warn("recording run in ledger", "session", s.ID, "error", err)
		}
	}

	out := citationsOf(s)
	out.Total = res.Total
	out.Progress = lines(progress.String())
	Success(c, out)
}

// Citations returns the session's current outcomes.
func (h *Handler) Citations(c *gin.Context) {
	Success(c, citationsOf(sessionFrom(c)))
}

type viewResponse struct {
	session.View
	Logo      string `json:"logo,omitempty"`
	Signature string `json:"signature,omitempty"`
}

func viewOf(s *session.Session, v session.View) viewResponse {
	out := viewResponse{View: v}
	if h, ok := s.Assets().Get(assets.Logo); ok {
		out.Logo = h.Name
	}
	if h, ok := s.Assets().Get(assets.Signature); ok {
		out.Signature = h.Name
	}
	return out
}

// Select makes the citation at :index current. A failure entry is reported
// with its message instead of a view.
func (h *Handler) Select(c *gin.Context) {
	s := sessionFrom(c)
	idx, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		Fail(c, http.StatusBadRequest, msgBadRequest)
		return
	}
	outcomes := s.Outcomes()
	if _, err := s.Select(idx); err != nil {
		switch {
		case !errors.Is(err, session.ErrNotCitation):
			FailErr(c, err)
		case idx < 0 || idx >= len(outcomes):
			Fail(c, http.StatusNotFound, msgNoSuchCitation)
		default:
			Success(c, gin.H{"index": idx, "failure": types.ToDocs(outcomes[idx : idx+1])[0]})
		}
		return
	}
	v, _ := s.View()
	Success(c, viewOf(s, v))
}

// View returns the current citation view.
func (h *Handler) View(c *gin.Context) {
	s := sessionFrom(c)
	v, ok := s.View()
	if !ok {
		Fail(c, http.StatusNotFound, msgNoSelection)
		return
	}
	Success(c, viewOf(s, v))
}

type editRequest struct {
	Oficio   *string `json:"oficio"`
	Process  *string `json:"proceso"`
	DateLine *string `json:"fecha"`
}

// EditView applies display-only edits to the current citation.
func (h *Handler) EditView(c *gin.Context) {
	s := sessionFrom(c)
	var req editRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Fail(c, http.StatusBadRequest, msgBadRequest)
		return
	}
	edits := []struct {
		field session.EditField
		value *string
	}{
		{session.EditOficio, req.Oficio},
		{session.EditProcess, req.Process},
		{session.EditDateLine, req.DateLine},
	}
	for _, e := range edits {
		if e.value == nil {
			continue
		}
		if err := s.Edit(e.field, *e.value); err != nil {
			if errors.Is(err, types.ErrBatchInProgress) {
				FailErr(c, err)
				return
			}
			_ = c.Error(err)
			Fail(c, http.StatusConflict, msgNoSelection)
			return
		}
	}
	v, _ := s.View()
	Success(c, viewOf(s, v))
}

// Config returns the template configuration.
func (h *Handler) Config(c *gin.Context) {
	Success(c, sessionFrom(c).Template())
}

// SetConfig replaces the template configuration.
func (h *Handler) SetConfig(c *gin.Context) {
	s := sessionFrom(c)
	var cfg types.TemplateConfig
	if err := c.ShouldBindJSON(&cfg); err != nil {
		Fail(c, http.StatusBadRequest, msgBadRequest)
		return
	}
	if err := s.SetTemplate(cfg); err != nil {
		if errors.Is(err, types.ErrBatchInProgress) {
			FailErr(c, err)
			return
		}
		_ = c.Error(err)
		Fail(c, http.StatusBadRequest, msgInvalidTemplate)
		return
	}
	Success(c, s.Template())
}

// SetAsset replaces the logo or signature image with the uploaded "file".
// A request without a file removes the image.
func (h *Handler) SetAsset(c *gin.Context) {
	s := sessionFrom(c)
	kind, err := assets.ParseKind(c.Param("kind"))
	if err != nil {
		Fail(c, http.StatusNotFound, msgBadRequest)
		return
	}

	fh, err := c.FormFile("file")
	if err != nil {
		s.Assets().Release(kind)
		Success(c, gin.H{"kind": kind})
		return
	}
	data, err := readFormFile(fh)
	if err != nil {
		FailErr(c, err)
		return
	}
	handle, err := s.Assets().Replace(kind, fh.Filename, data)
	if err != nil {
		FailErr(c, err)
		return
	}
	Success(c, gin.H{"kind": kind, "name": handle.Name})
}

// Correspondence returns the correspondence rows.
func (h *Handler) Correspondence(c *gin.Context) {
	Success(c, gin.H{
		"headers": types.CorrespondenceHeaders,
		"rows":    sessionFrom(c).Correspondence(),
	})
}

func (h *Handler) renderer(s *session.Session) (*render.Renderer, error) {
	surface, err := h.surface()
	if err != nil {
		return nil, err
	}
	return &render.Renderer{Surface: surface, Session: s, Settle: h.Render.Settle}, nil
}

// ExportPDF renders every successful citation into one PDF.
func (h *Handler) ExportPDF(c *gin.Context) {
	s := sessionFrom(c)
	r, err := h.renderer(s)
	if err != nil {
		FailErr(c, err)
		return
	}
	var buf bytes.Buffer
	if _, err := r.RenderAllToPDF(c.Request.Context(), &buf); err != nil {
		FailErr(c, err)
		return
	}
	attachment(c, render.BatchPDFName, "application/pdf", buf.Bytes())
}

// ExportPrint returns one printable HTML document with every successful
// citation.
func (h *Handler) ExportPrint(c *gin.Context) {
	s := sessionFrom(c)
	r, err := h.renderer(s)
	if err != nil {
		FailErr(c, err)
		return
	}
	doc, err := r.RenderAllToPrint(c.Request.Context())
	if err != nil {
		FailErr(c, err)
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", doc.HTML)
}

// ExportCitationPDF renders the selected citation.
func (h *Handler) ExportCitationPDF(c *gin.Context) {
	s := sessionFrom(c)
	r, err := h.renderer(s)
	if err != nil {
		FailErr(c, err)
		return
	}
	var buf bytes.Buffer
	name, err := r.RenderOneToPDF(c.Request.Context(), &buf)
	if err != nil {
		FailErr(c, err)
		return
	}
	attachment(c, name, "application/pdf", buf.Bytes())
}

// ExportCitationPrint returns the selected citation as printable HTML.
func (h *Handler) ExportCitationPrint(c *gin.Context) {
	s := sessionFrom(c)
	r, err := h.renderer(s)
	if err != nil {
		FailErr(c, err)
		return
	}
	doc, err := r.RenderOneToPrint(c.Request.Context())
	if err != nil {
		FailErr(c, err)
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", doc.HTML)
}

// ExportXLSX writes the correspondence rows into a new workbook.
func (h *Handler) ExportXLSX(c *gin.Context) {
	rows := sessionFrom(c).Correspondence()
	if len(rows) == 0 {
		FailErr(c, types.ErrNoCitations)
		return
	}
	wb, err := spreadsheet.ExportNew(rows)
	if err != nil {
		FailErr(c, err)
		return
	}
	defer wb.Close()
	sendWorkbook(c, wb.Name, wb)
}

// UploadTemplate keeps the uploaded "file" as the session's correspondence
// template and lists its sheets.
func (h *Handler) UploadTemplate(c *gin.Context) {
	s := sessionFrom(c)
	fh, err := c.FormFile("file")
	if err != nil {
		Fail(c, http.StatusBadRequest, msgNoWorkbook)
		return
	}
	f, err := fh.Open()
	if err != nil {
		FailErr(c, fmt.Errorf("%w: %v", types.ErrTemplateFileUnreadable, err))
		return
	}
	defer f.Close()

	wb, err := spreadsheet.Open(fh.Filename, f)
	if err != nil {
		FailErr(c, err)
		return
	}
	info := gin.H{"name": wb.Name, "sheets": wb.Sheets(), "default_sheet": wb.DefaultSheet()}
	s.SetWorkbook(wb)
	Success(c, info)
}

// AppendTemplate appends the correspondence rows to the uploaded template
// and returns the updated workbook. ?sheet= selects the target sheet.
func (h *Handler) AppendTemplate(c *gin.Context) {
	name, data, err := sessionFrom(c).AppendCorrespondence(c.Query("sheet"))
	switch {
	case errors.Is(err, session.ErrNoWorkbook):
		Fail(c, http.StatusBadRequest, msgNoWorkbook)
	case err != nil:
		FailErr(c, err)
	default:
		attachment(c, name, xlsxType, data)
	}
}

// Reset clears the session's outcomes and uploaded template.
func (h *Handler) Reset(c *gin.Context) {
	s := sessionFrom(c)
	s.Reset()
	Success(c, citationsOf(s))
}

func sendWorkbook(c *gin.Context, name string, wb *spreadsheet.Workbook) {
	var buf bytes.Buffer
	if _, err := wb.WriteTo(&buf); err != nil {
		FailErr(c, err)
		return
	}
	attachment(c, name, xlsxType, buf.Bytes())
}

// formDocument reads one uploaded source file. A missing or empty file is
// types.ErrMissingDocuments.
func formDocument(c *gin.Context, field string) (extract.Document, error) {
	fh, err := c.FormFile(field)
	if err != nil {
		return extract.Document{}, types.ErrMissingDocuments
	}
	data, err := readFormFile(fh)
	if err != nil {
		return extract.Document{}, err
	}
	if len(data) == 0 {
		return extract.Document{}, types.ErrMissingDocuments
	}
	mimeType := fh.Header.Get("Content-Type")
	if mimeType == "" || mimeType == "application/octet-stream" {
		mimeType = http.DetectContentType(data)
	}
	return extract.Document{Name: fh.Filename, MIMEType: mimeType, Data: data}, nil
}

func readFormFile(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("opening upload %s: %w", fh.Filename, err)
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("reading upload %s: %w", fh.Filename, err)
	}
	return data, nil
}

func lines(s string) []string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return strings.Split(s, "\n")
}
