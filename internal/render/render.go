// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package render turns session citations into print-ready output. A batch
// walks every successful record through a single shared Surface, either
// rasterizing each page into one PDF or collecting each page's markup into
// one print document.
package render

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"io"
	"log/slog"
	"strconv"
	"time"

	"github.com/go-pdf/fpdf"

	"github.com/pdiddy/citaciones/internal/citation"
	"github.com/pdiddy/citaciones/internal/session"
	"github.com/pdiddy/citaciones/pkg/types"
)

// Surface is the view a citation is displayed on before capture.
type Surface interface {
	// Show displays v and returns once the layout is committed.
	Show(ctx context.Context, v session.View) error
	// Capture rasterizes the displayed citation.
	Capture(ctx context.Context) (image.Image, error)
	// Markup returns the HTML of the displayed citation.
	Markup() (string, error)
	// SetDecorated toggles on-screen decoration (shadow and border).
	SetDecorated(on bool)
}

// Batch operations.
const (
	OpPDF   = "pdf"
	OpPrint = "print"
)

// Default output names.
const (
	BatchPDFName   = "todas-las-citaciones.pdf"
	BatchPrintName = "citaciones.html"
)

// BatchError reports the citation a batch stopped at. It matches
// types.ErrBatchCaptureFailure with errors.Is.
type BatchError struct {
	Op    string
	Index int
	Err   error
}

func (e *BatchError) Error() string {
	return fmt.Sprintf("%s batch stopped at citation %d: %v", e.Op, e.Index, e.Err)
}

func (e *BatchError) Unwrap() []error {
	return []error{types.ErrBatchCaptureFailure, e.Err}
}

// UserMessage returns the message shown to the clerk.
func (e *BatchError) UserMessage() string {
	if e.Op == OpPrint {
		return types.MsgBatchPrint
	}
	return types.MsgBatchPDF
}

// Renderer drives a Surface through the citations of a session.
type Renderer struct {
	Surface Surface
	Session *session.Session
	// Settle is an optional wait between Show and capture. Zero relies on
	// Show returning after commit.
	Settle time.Duration
}

// RenderAllToPDF writes one page per successful citation, in order, to w
// and returns the page count. On failure nothing is written to w. The
// session's selection is restored either way.
func (r *Renderer) RenderAllToPDF(ctx context.Context, w io.Writer) (int, error) {
	b, err := r.Session.AcquireBatch()
	if err != nil {
		return 0, err
	}
	defer b.Release()

	indices := successIndices(r.Session.Outcomes())
	if len(indices) == 0 {
		return 0, types.ErrNoCitations
	}

	pdf := newPDF()
	for n, idx := range indices {
		img, err := r.capture(ctx, b, idx)
		if err != nil {
			return 0, &BatchError{Op: OpPDF, Index: idx, Err: err}
		}
		if err := addImagePage(pdf, "citacion-"+strconv.Itoa(n), img); err != nil {
			return 0, &BatchError{Op: OpPDF, Index: idx, Err: err}
		}
		slog.Debug("captured citation", "index", idx, "page", n+1)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return 0, &BatchError{Op: OpPDF, Index: indices[len(indices)-1], Err: err}
	}
	if _, err := buf.WriteTo(w); err != nil {
		return 0, fmt.Errorf("writing pdf: %w", err)
	}

	slog.Info("batch pdf rendered", "session", r.Session.ID, "pages", len(indices))
	return len(indices), nil
}

// RenderAllToPrint collects the markup of every successful citation into
// one print document with a page break between citations.
func (r *Renderer) RenderAllToPrint(ctx context.Context) (PrintDocument, error) {
	b, err := r.Session.AcquireBatch()
	if err != nil {
		return PrintDocument{}, err
	}
	defer b.Release()

	indices := successIndices(r.Session.Outcomes())
	if len(indices) == 0 {
		return PrintDocument{}, types.ErrNoCitations
	}

	fragments := make([]string, 0, len(indices))
	for _, idx := range indices {
		frag, err := r.markup(ctx, b, idx)
		if err != nil {
			return PrintDocument{}, &BatchError{Op: OpPrint, Index: idx, Err: err}
		}
		fragments = append(fragments, frag)
	}

	doc, err := newPrintDocument("Imprimir Todas las Citaciones", fragments)
	if err != nil {
		return PrintDocument{}, &BatchError{Op: OpPrint, Index: indices[len(indices)-1], Err: err}
	}
	slog.Info("batch print rendered", "session", r.Session.ID, "pages", doc.Pages)
	return doc, nil
}

// RenderOneToPDF writes the displayed citation, with the clerk's edits, as
// a single-page PDF and returns its download name.
func (r *Renderer) RenderOneToPDF(ctx context.Context, w io.Writer) (string, error) {
	b, v, err := r.holdView()
	if err != nil {
		return "", err
	}
	defer b.Release()

	img, err := r.showAndCapture(ctx, v)
	if err != nil {
		return "", &BatchError{Op: OpPDF, Index: v.Index, Err: err}
	}
	pdf := newPDF()
	if err := addImagePage(pdf, "citacion", img); err != nil {
		return "", &BatchError{Op: OpPDF, Index: v.Index, Err: err}
	}
	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return "", &BatchError{Op: OpPDF, Index: v.Index, Err: err}
	}
	if _, err := buf.WriteTo(w); err != nil {
		return "", fmt.Errorf("writing pdf: %w", err)
	}
	return citation.PDFFileName(v.Edits.Oficio), nil
}

// RenderOneToPrint returns a print document for the displayed citation.
func (r *Renderer) RenderOneToPrint(ctx context.Context) (PrintDocument, error) {
	b, v, err := r.holdView()
	if err != nil {
		return PrintDocument{}, err
	}
	defer b.Release()

	if err := r.Surface.Show(ctx, v); err != nil {
		return PrintDocument{}, &BatchError{Op: OpPrint, Index: v.Index, Err: err}
	}
	frag, err := r.undecorated(r.Surface.Markup)
	if err != nil {
		return PrintDocument{}, &BatchError{Op: OpPrint, Index: v.Index, Err: err}
	}
	return newPrintDocument("Imprimir Citación "+v.Edits.Oficio, []string{frag})
}

func (r *Renderer) holdView() (*session.Batch, session.View, error) {
	b, err := r.Session.AcquireBatch()
	if err != nil {
		return nil, session.View{}, err
	}
	v, ok := b.Current()
	if !ok {
		b.Release()
		return nil, session.View{}, types.ErrNoCitations
	}
	return b, v, nil
}

// capture selects idx and rasterizes it without decoration.
func (r *Renderer) capture(ctx context.Context, b *session.Batch, idx int) (image.Image, error) {
	v, err := b.SelectView(idx)
	if err != nil {
		return nil, err
	}
	return r.showAndCapture(ctx, v)
}

func (r *Renderer) markup(ctx context.Context, b *session.Batch, idx int) (string, error) {
	v, err := b.SelectView(idx)
	if err != nil {
		return "", err
	}
	if err := r.Surface.Show(ctx, v); err != nil {
		return "", err
	}
	if err := r.settle(ctx); err != nil {
		return "", err
	}
	return r.undecorated(r.Surface.Markup)
}

func (r *Renderer) showAndCapture(ctx context.Context, v session.View) (image.Image, error) {
	if err := r.Surface.Show(ctx, v); err != nil {
		return nil, err
	}
	if err := r.settle(ctx); err != nil {
		return nil, err
	}
	var img image.Image
	_, err := r.undecorated(func() (string, error) {
		var err error
		img, err = r.Surface.Capture(ctx)
		return "", err
	})
	return img, err
}

// undecorated runs fn with decoration stripped and restores it afterwards.
func (r *Renderer) undecorated(fn func() (string, error)) (string, error) {
	r.Surface.SetDecorated(false)
	defer r.Surface.SetDecorated(true)
	return fn()
}

func (r *Renderer) settle(ctx context.Context) error {
	if r.Settle <= 0 {
		return nil
	}
	t := time.NewTimer(r.Settle)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func successIndices(outcomes []types.Outcome) []int {
	var out []int
	for i, o := range outcomes {
		if _, ok := o.(types.Success); ok {
			out = append(out, i)
		}
	}
	return out
}

func newPDF() *fpdf.Fpdf {
	pdf := fpdf.NewCustom(&fpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "pt",
		Size:           fpdf.SizeType{Wd: PageWidthPt, Ht: PageHeightPt},
	})
	pdf.SetMargins(0, 0, 0)
	pdf.SetAutoPageBreak(false, 0)
	return pdf
}

// addImagePage appends a page filled edge to edge with img.
func addImagePage(pdf *fpdf.Fpdf, name string, img image.Image) error {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return fmt.Errorf("encoding page: %w", err)
	}
	opts := fpdf.ImageOptions{ImageType: "PNG"}
	pdf.AddPage()
	pdf.RegisterImageOptionsReader(name, opts, &buf)
	pdf.ImageOptions(name, 0, 0, PageWidthPt, PageHeightPt, false, opts, 0, "")
	return pdf.Error()
}
