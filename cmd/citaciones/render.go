// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/pdiddy/citaciones/internal/assets"
	"github.com/pdiddy/citaciones/internal/printer"
	"github.com/pdiddy/citaciones/internal/render"
	"github.com/pdiddy/citaciones/internal/session"
)

var pdfCmd = &cobra.Command{
	Use:   "pdf",
	Short: "Render the citations of a run file as PDF",
	Long: `Pdf renders one page per successful citation of a run file into a
single PDF. With --index only the citation at that position is rendered.
--spool sends the finished file to the system print spooler.`,
	RunE: runPDF,
}

var printCmd = &cobra.Command{
	Use:   "print",
	Short: "Write a printable HTML document for a run file",
	Long: `Print writes every successful citation of a run file into one HTML
document with a page break between citations. --open hands it to the
platform's document opener, whose print dialog the clerk uses.`,
	RunE: runPrint,
}

func init() {
	for _, c := range []*cobra.Command{pdfCmd, printCmd} {
		c.Flags().String("run", "", "run file written by extract")
		c.Flags().String("out", "", "output file")
		c.Flags().Int("index", -1, "render only the citation at this position")
		c.Flags().String("logo", "", "logo image shown on each citation")
		c.Flags().String("signature", "", "signature image shown on each citation")
		_ = c.MarkFlagRequired("run")
		rootCmd.AddCommand(c)
	}
	pdfCmd.Flags().Bool("spool", false, "send the PDF to the print spooler")
	printCmd.Flags().Bool("open", false, "open the document with the platform opener")
}

// runSession loads a run file into a session the renderer can drive. The
// returned cleanup closes the session and removes its images.
func runSession(cmd *cobra.Command) (*session.Session, func(), error) {
	path, _ := cmd.Flags().GetString("run")
	run, outcomes, err := loadRunFile(path)
	if err != nil {
		return nil, nil, err
	}

	dir, err := os.MkdirTemp("", "citaciones-assets-")
	if err != nil {
		return nil, nil, fmt.Errorf("creating asset directory: %w", err)
	}
	s := session.New(run.Template, dir)
	s.Replace(outcomes, run.Correspondence, run.Files)
	cleanup := func() {
		s.Close()
		os.RemoveAll(dir)
	}

	for kind, flag := range map[assets.Kind]string{assets.Logo: "logo", assets.Signature: "signature"} {
		p, _ := cmd.Flags().GetString(flag)
		if p == "" {
			continue
		}
		data, err := os.ReadFile(p)
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("reading %s: %w", flag, err)
		}
		if _, err := s.Assets().Replace(kind, filepath.Base(p), data); err != nil {
			cleanup()
			return nil, nil, err
		}
	}

	if idx, _ := cmd.Flags().GetInt("index"); idx >= 0 {
		if _, err := s.Select(idx); err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("no successful citation at index %d: %w", idx, err)
		}
	}
	return s, cleanup, nil
}

func newRenderer(s *session.Session) (*render.Renderer, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	surface, err := render.NewCanvasSurface(cfg.Render.Scale)
	if err != nil {
		return nil, err
	}
	return &render.Renderer{Surface: surface, Session: s, Settle: cfg.Render.Settle}, nil
}

func runPDF(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	s, cleanup, err := runSession(cmd)
	if err != nil {
		return err
	}
	defer cleanup()
	r, err := newRenderer(s)
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	name, pages := render.BatchPDFName, 1
	if idx, _ := cmd.Flags().GetInt("index"); idx >= 0 {
		name, err = r.RenderOneToPDF(ctx, &buf)
	} else {
		pages, err = r.RenderAllToPDF(ctx, &buf)
	}
	if err != nil {
		return userError(err)
	}

	out, _ := cmd.Flags().GetString("out")
	if out == "" {
		out = filepath.Join("out", name)
	}
	if err := writeOutput(out, buf.Bytes()); err != nil {
		return err
	}
	fmt.Fprintf(os.Stdout, "%s  %s (%d páginas)\n", okWord, out, pages)

	if spool, _ := cmd.Flags().GetBool("spool"); spool {
		dev, err := printer.DetectSpooler()
		if err != nil {
			return err
		}
		if err := dev.Send(out); err != nil {
			return err
		}
		fmt.Fprintf(os.Stdout, "%s  enviado a %s\n", okWord, dev.Name())
	}
	return nil
}

func runPrint(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	s, cleanup, err := runSession(cmd)
	if err != nil {
		return err
	}
	defer cleanup()
	r, err := newRenderer(s)
	if err != nil {
		return err
	}

	var doc render.PrintDocument
	if idx, _ := cmd.Flags().GetInt("index"); idx >= 0 {
		doc, err = r.RenderOneToPrint(ctx)
	} else {
		doc, err = r.RenderAllToPrint(ctx)
	}
	if err != nil {
		return userError(err)
	}

	out, _ := cmd.Flags().GetString("out")
	if out == "" {
		out = filepath.Join("out", render.BatchPrintName)
	}
	if err := writeOutput(out, doc.HTML); err != nil {
		return err
	}
	fmt.Fprintf(os.Stdout, "%s  %s (%d citaciones)\n", okWord, out, doc.Pages)

	if open, _ := cmd.Flags().GetBool("open"); open {
		dev, err := printer.DetectOpener()
		if err != nil {
			return err
		}
		abs, err := filepath.Abs(out)
		if err != nil {
			return err
		}
		if err := dev.Send(abs); err != nil {
			return err
		}
	}
	return nil
}

func writeOutput(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}
