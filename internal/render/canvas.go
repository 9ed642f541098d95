// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package render

import (
	"context"
	"errors"
	"fmt"
	"image"
	"strings"
	"sync"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"

	"github.com/pdiddy/citaciones/internal/session"
)

// DefaultScale is the raster resolution in pixels per point.
const DefaultScale = 2.0

// Layout in points.
const (
	marginX     = 24.0
	headerTop   = 18.0
	logoSize    = 72.0
	bodySize    = 13.0
	headerSize  = 12.0
	footerSize  = 10.0
	lineGap     = 1.45
	columnGap   = 36.0
	sigBoxW     = 240.0
	sigBoxH     = 72.0
	sigLineW    = 288.0
	bottomSpace = 48.0
)

var errNothingShown = errors.New("surface has no citation to capture")

var (
	fontsOnce           sync.Once
	regularTTF, boldTTF *truetype.Font
	fontsErr            error
)

func loadFonts() (*truetype.Font, *truetype.Font, error) {
	fontsOnce.Do(func() {
		regularTTF, fontsErr = truetype.Parse(goregular.TTF)
		if fontsErr != nil {
			return
		}
		boldTTF, fontsErr = truetype.Parse(gobold.TTF)
	})
	return regularTTF, boldTTF, fontsErr
}

// CanvasSurface draws citations onto an in-memory raster. A CanvasSurface
// shows one citation at a time and is not shared between sessions.
type CanvasSurface struct {
	scale float64

	mu        sync.Mutex
	page      *Page
	logo      image.Image
	signature image.Image
	decorated bool
	faces     map[faceKey]font.Face
	regular   *truetype.Font
	bold      *truetype.Font
}

type faceKey struct {
	bold bool
	size float64
}

// NewCanvasSurface returns a decorated surface. scale <= 0 uses
// DefaultScale.
func NewCanvasSurface(scale float64) (*CanvasSurface, error) {
	if scale <= 0 {
		scale = DefaultScale
	}
	regular, bold, err := loadFonts()
	if err != nil {
		return nil, fmt.Errorf("loading fonts: %w", err)
	}
	return &CanvasSurface{
		scale:     scale,
		decorated: true,
		faces:     make(map[faceKey]font.Face),
		regular:   regular,
		bold:      bold,
	}, nil
}

// Show lays out v. It returns once the citation and its images are loaded,
// so a following Capture or Markup reflects v.
func (s *CanvasSurface) Show(ctx context.Context, v session.View) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	page := NewPage(v)

	logo, err := loadOptionalImage(page.LogoPath)
	if err != nil {
		return fmt.Errorf("loading logo: %w", err)
	}
	signature, err := loadOptionalImage(page.SignaturePath)
	if err != nil {
		return fmt.Errorf("loading signature: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.page = &page
	s.logo = logo
	s.signature = signature
	return nil
}

// SetDecorated toggles the on-screen border and shadow.
func (s *CanvasSurface) SetDecorated(on bool) {
	s.mu.Lock()
	s.decorated = on
	s.mu.Unlock()
}

// Markup returns the HTML fragment of the shown citation.
func (s *CanvasSurface) Markup() (string, error) {
	s.mu.Lock()
	page, decorated := s.page, s.decorated
	s.mu.Unlock()
	if page == nil {
		return "", errNothingShown
	}
	return pageMarkup(*page, decorated)
}

// Capture rasterizes the shown citation at the surface scale.
func (s *CanvasSurface) Capture(ctx context.Context) (image.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.page == nil {
		return nil, errNothingShown
	}

	c := &canvas{
		dc:    gg.NewContext(int(PageWidthPt*s.scale), int(PageHeightPt*s.scale)),
		scale: s.scale,
		face:  s.face,
	}
	c.dc.SetRGB(1, 1, 1)
	c.dc.Clear()
	c.drawPage(*s.page, s.logo, s.signature)
	if s.decorated {
		c.drawDecoration()
	}
	return c.dc.Image(), nil
}

func (s *CanvasSurface) face(bold bool, size float64) font.Face {
	k := faceKey{bold, size}
	if f, ok := s.faces[k]; ok {
		return f
	}
	ttf := s.regular
	if bold {
		ttf = s.bold
	}
	f := truetype.NewFace(ttf, &truetype.Options{Size: size * s.scale, DPI: 72, Hinting: font.HintingFull})
	s.faces[k] = f
	return f
}

func loadOptionalImage(path string) (image.Image, error) {
	if path == "" {
		return nil, nil
	}
	return gg.LoadImage(path)
}

// canvas draws in points; every coordinate is multiplied by scale.
type canvas struct {
	dc    *gg.Context
	scale float64
	face  func(bold bool, size float64) font.Face
}

func (c *canvas) px(pt float64) float64 { return pt * c.scale }

func (c *canvas) use(bold bool, size float64) {
	c.dc.SetFontFace(c.face(bold, size))
}

func (c *canvas) width(s string, bold bool, size float64) float64 {
	c.use(bold, size)
	w, _ := c.dc.MeasureString(s)
	return w / c.scale
}

// text draws s with its baseline at y and returns the advance in points.
func (c *canvas) text(s string, x, y float64, bold bool, size float64) float64 {
	c.use(bold, size)
	c.dc.SetRGB(0, 0, 0)
	c.dc.DrawString(s, c.px(x), c.px(y))
	return c.width(s, bold, size)
}

func (c *canvas) underline(x, y, w float64) {
	c.dc.SetRGB(0, 0, 0)
	c.dc.SetLineWidth(c.px(0.75))
	c.dc.DrawLine(c.px(x), c.px(y+2), c.px(x+w), c.px(y+2))
	c.dc.Stroke()
}

func (c *canvas) centered(s string, y float64, bold, underline bool, size float64) {
	w := c.width(s, bold, size)
	x := (PageWidthPt - w) / 2
	c.text(s, x, y, bold, size)
	if underline {
		c.underline(x, y, w)
	}
}

// item draws "Label value" and returns the next baseline.
func (c *canvas) item(it Item, x, y float64) float64 {
	adv := c.text(it.Label, x, y, true, bodySize)
	c.text(" "+it.Value, x+adv, y, false, bodySize)
	return y + bodySize*lineGap
}

func (c *canvas) drawPage(p Page, logo, signature image.Image) {
	lh := bodySize * lineGap

	// Header: logo on the left, oficio block on the right.
	if logo != nil {
		c.fitImage(logo, marginX, headerTop, logoSize, logoSize)
	}
	header := []struct{ label, value string }{
		{"OFICIO N°:", p.Oficio},
		{"PROCESO N°:", p.Process},
		{p.City + ",", " " + p.DateLine},
	}
	blockW := 0.0
	for _, h := range header {
		blockW = max(blockW, c.width(h.label, true, headerSize)+c.width(h.value, false, headerSize))
	}
	bx := PageWidthPt - marginX - blockW
	y := headerTop + headerSize
	for i, h := range header {
		if i == 2 {
			y += 6
		}
		adv := c.text(h.label, bx, y, true, headerSize)
		c.text(h.value, bx+adv, y, false, headerSize)
		y += headerSize * lineGap
	}

	// Titles.
	y = max(y, headerTop+logoSize) + 24
	c.centered(p.Municipality, y, false, false, bodySize)
	y += lh
	c.centered(p.Court, y, true, false, bodySize)
	y += lh + 6
	c.centered(p.Title, y, true, true, bodySize)
	y += lh + 18

	// Owner and vehicle, two columns.
	contentW := PageWidthPt - 2*marginX
	c.text(p.OwnerHeading, marginX, y, true, bodySize)
	c.underline(marginX, y, c.width(p.OwnerHeading, true, bodySize))
	y += lh + 4
	ly, ry := y, y
	rightX := marginX + (contentW+columnGap)/2
	for _, it := range p.OwnerLeft {
		ly = c.item(it, marginX, ly)
	}
	for _, it := range p.OwnerRight {
		ry = c.item(it, rightX, ry)
	}
	y = max(ly, ry) + 12

	// Infraction.
	c.text(p.InfractionHeading, marginX, y, true, bodySize)
	c.underline(marginX, y, c.width(p.InfractionHeading, true, bodySize))
	y += lh + 4
	for _, it := range p.Infraction {
		y = c.item(it, marginX, y)
	}
	y += 18

	// Legal text.
	y = c.paragraph([]run{
		{text: p.HearingIntro},
		{text: p.HearingWhen, bold: true, underline: true},
		{text: p.HearingAddress, glue: true},
	}, marginX, y, contentW)
	y += 9
	y = c.paragraph([]run{{text: p.LegalBasis}}, marginX, y, contentW)
	y += 9
	c.paragraph([]run{{text: p.LegalWarning}}, marginX, y, contentW)

	// Signature block and footer are anchored to the bottom of the page.
	footerLines := c.wrap([]run{{text: p.Footer}}, footerSize, contentW)
	footerY := PageHeightPt - 18 - float64(len(footerLines)-1)*footerSize*lineGap
	sy := footerY - bottomSpace - 2*lh - sigBoxH - 8
	if signature != nil {
		c.fitImage(signature, (PageWidthPt-sigBoxW)/2, sy, sigBoxW, sigBoxH)
	}
	ly = sy + sigBoxH + 4
	c.dc.SetRGB255(203, 213, 225)
	c.dc.SetLineWidth(c.px(0.75))
	c.dc.DrawLine(c.px((PageWidthPt-sigLineW)/2), c.px(ly), c.px((PageWidthPt+sigLineW)/2), c.px(ly))
	c.dc.Stroke()
	ly += 6 + bodySize
	c.centered(p.SecretaryName, ly, false, false, bodySize)
	c.centered(p.SecretaryTitle, ly+lh, true, false, bodySize)

	for i, line := range footerLines {
		w := 0.0
		for _, wd := range line {
			w += wd.w
		}
		c.drawLine(line, (PageWidthPt-w)/2, footerY+float64(i)*footerSize*lineGap, footerSize)
	}
}

// fitImage draws img scaled to fit inside the box, centered.
func (c *canvas) fitImage(img image.Image, x, y, w, h float64) {
	b := img.Bounds()
	if b.Dx() == 0 || b.Dy() == 0 {
		return
	}
	k := min(w/float64(b.Dx()), h/float64(b.Dy()))
	dw, dh := float64(b.Dx())*k, float64(b.Dy())*k
	dst := image.NewRGBA(image.Rect(0, 0, int(c.px(dw)), int(c.px(dh))))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, b, draw.Over, nil)
	c.dc.DrawImage(dst, int(c.px(x+(w-dw)/2)), int(c.px(y+(h-dh)/2)))
}

func (c *canvas) drawDecoration() {
	w, h := PageWidthPt, PageHeightPt
	for i := 1; i <= 4; i++ {
		c.dc.SetRGBA(0, 0, 0, 0.04)
		c.dc.SetLineWidth(c.px(1))
		c.dc.DrawRectangle(c.px(float64(i)), c.px(float64(i)), c.px(w-2*float64(i)), c.px(h-2*float64(i)))
		c.dc.Stroke()
	}
	c.dc.SetRGB255(226, 232, 240)
	c.dc.SetLineWidth(c.px(1))
	c.dc.DrawRectangle(0, 0, c.px(w), c.px(h))
	c.dc.Stroke()
}

// run is a styled stretch of paragraph text. A glued run starts without a
// space after the previous word.
type run struct {
	text      string
	bold      bool
	underline bool
	glue      bool
}

type word struct {
	run
	w float64
}

// wrap splits runs into lines no wider than width.
func (c *canvas) wrap(runs []run, size, width float64) [][]word {
	var (
		lines [][]word
		line  []word
		lineW float64
	)
	space := c.width(" ", false, size)
	for _, r := range runs {
		for i, f := range strings.Fields(r.text) {
			wd := word{run: run{text: f, bold: r.bold, underline: r.underline, glue: r.glue && i == 0}}
			wd.w = c.width(f, r.bold, size)
			gap := space
			if wd.glue {
				gap = 0
			}
			if len(line) > 0 && lineW+gap+wd.w > width {
				lines = append(lines, line)
				line, lineW = nil, 0
			}
			if len(line) > 0 {
				lineW += gap
			}
			line = append(line, wd)
			lineW += wd.w
		}
	}
	if len(line) > 0 {
		lines = append(lines, line)
	}
	return lines
}

func (c *canvas) drawLine(line []word, x, y, size float64) {
	space := c.width(" ", false, size)
	for i, wd := range line {
		if i > 0 && !wd.glue {
			if wd.underline && line[i-1].underline {
				c.underline(x, y, space)
			}
			x += space
		}
		c.text(wd.text, x, y, wd.bold, size)
		if wd.underline {
			c.underline(x, y, wd.w)
		}
		x += wd.w
	}
}

// paragraph draws wrapped runs and returns the baseline after the last line.
func (c *canvas) paragraph(runs []run, x, y, width float64) float64 {
	for _, line := range c.wrap(runs, bodySize, width) {
		c.drawLine(line, x, y, bodySize)
		y += bodySize * lineGap
	}
	return y
}
