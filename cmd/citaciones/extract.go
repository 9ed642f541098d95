// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"log/slog"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/pdiddy/citaciones/internal/extract"
	"github.com/pdiddy/citaciones/internal/ledger"
	"github.com/pdiddy/citaciones/internal/pipeline"
	"github.com/pdiddy/citaciones/pkg/types"
)

const startAuto = "auto"

var extractCmd = &cobra.Command{
	Use:   "extract",
	Short: "Extract citation records from a complaints batch",
	Long: `Extract sends the complaints document and the vehicle registration
certificates to the configured AI service, numbers the records from the start
oficio number, and writes a run file that pdf, print and correspondence read.

--start auto continues from the highest oficio number recorded in the ledger
for the hearing year.`,
	RunE: runExtract,
}

func init() {
	extractCmd.Flags().String("denuncias", "", "complaints document (PDF or image)")
	extractCmd.Flags().String("ciav", "", "registration certificates document (PDF or image)")
	extractCmd.Flags().String("out", "", "run file to write (default runs/<run-id>.yaml)")
	extractCmd.Flags().String("start", "", `first oficio number, or "auto" to continue from the ledger`)
	extractCmd.Flags().String("hearing-date", "", "hearing date YYYY-MM-DD (default: template.hearing_date or 30 days from today)")
	_ = extractCmd.MarkFlagRequired("denuncias")
	_ = extractCmd.MarkFlagRequired("ciav")

	rootCmd.AddCommand(extractCmd)
}

func runExtract(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	tmpl := templateAt(cfg.Template, time.Now())
	if d, _ := cmd.Flags().GetString("hearing-date"); d != "" {
		tmpl.HearingDate = d
	}
	hearing, err := tmpl.Hearing()
	if err != nil {
		return err
	}

	var store *ledger.Store
	if cfg.Ledger.Path != "" {
		store, err = ledger.Open(cfg.Ledger.Path)
		if err != nil {
			return err
		}
		defer store.Close()
	}

	start, _ := cmd.Flags().GetString("start")
	switch {
	case start == startAuto:
		if store == nil {
			return fmt.Errorf("--start auto needs ledger.path to be configured")
		}
		next, err := store.Next(ctx, hearing.Year())
		if err != nil {
			return err
		}
		tmpl.StartOficioNumber = fmt.Sprint(next)
	case start != "":
		tmpl.StartOficioNumber = start
	}

	backend, err := extract.NewBackend(cfg.AI, nil)
	if err != nil {
		return userError(err)
	}
	gateway := extract.NewGateway(backend)

	complaintsPath, _ := cmd.Flags().GetString("denuncias")
	certificatesPath, _ := cmd.Flags().GetString("ciav")
	complaints, err := readDocument(complaintsPath)
	if err != nil {
		return err
	}
	certificates, err := readDocument(certificatesPath)
	if err != nil {
		return err
	}

	res, err := pipeline.Generate(ctx, gateway, complaints, certificates, tmpl, os.Stdout)
	if err != nil {
		printOutcomes(os.Stdout, res.Outcomes)
		return userError(err)
	}

	run := res.Run(tmpl, time.Now())
	out, _ := cmd.Flags().GetString("out")
	if out == "" {
		out = filepath.Join("runs", run.ID+".yaml")
	}
	if err := os.MkdirAll(filepath.Dir(out), 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", filepath.Dir(out), err)
	}
	if err := pipeline.WriteRun(out, run); err != nil {
		return err
	}

	printOutcomes(os.Stdout, res.Outcomes)
	fmt.Fprintf(os.Stdout, "%s  %d citaciones escritas en %s\n", okWord, len(res.Outcomes), out)

	if store != nil {
		n, err := store.Record(ctx, run)
		if err != nil {
			fmt.Fprintf(os.Stdout, "%s  no se pudo registrar en el libro de oficios: %v\n", warnWord, err)
		} else {
			slog.Info("run recorded in ledger", "run", run.ID, "oficios", n)
		}
	}
	return nil
}

// readDocument loads a source file. The MIME type comes from the extension
// and falls back to content sniffing.
func readDocument(path string) (extract.Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return extract.Document{}, fmt.Errorf("reading %s: %w", path, err)
	}
	mimeType := mime.TypeByExtension(filepath.Ext(path))
	if mimeType == "" {
		mimeType = http.DetectContentType(data)
	}
	return extract.Document{Name: filepath.Base(path), MIMEType: mimeType, Data: data}, nil
}

// loadRunFile reads a run file and reports its outcomes.
func loadRunFile(path string) (*types.Run, []types.Outcome, error) {
	run, outcomes, err := pipeline.ReadRun(path)
	if err != nil {
		return nil, nil, err
	}
	slog.Debug("loaded run", "run", run.ID, "outcomes", len(outcomes))
	return run, outcomes, nil
}
