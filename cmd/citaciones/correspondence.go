// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/pdiddy/citaciones/internal/spreadsheet"
	"github.com/pdiddy/citaciones/pkg/types"
)

var correspondenceCmd = &cobra.Command{
	Use:   "correspondence",
	Short: "Write the correspondence rows of a run to a spreadsheet",
	Long: `Correspondence turns the rows of a run file into the court's outgoing
correspondence log, either as a new workbook (export) or appended to an
existing one (append).`,
}

var correspondenceExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write the rows into a new workbook",
	RunE:  runCorrespondenceExport,
}

var correspondenceAppendCmd = &cobra.Command{
	Use:   "append",
	Short: "Append the rows to an existing workbook",
	Long: `Append continues the numbering of the chosen sheet (the first sheet by
default) from the number in the first column of its last row and writes the
rows below it. The template file itself is not modified.`,
	RunE: runCorrespondenceAppend,
}

func runCorrespondenceExport(cmd *cobra.Command, args []string) error {
	rows, err := runRows(cmd)
	if err != nil {
		return err
	}
	wb, err := spreadsheet.ExportNew(rows)
	if err != nil {
		return err
	}
	defer wb.Close()

	out, _ := cmd.Flags().GetString("out")
	if out == "" {
		out = filepath.Join("out", wb.Name)
	}
	return saveWorkbook(out, wb, len(rows))
}

func runCorrespondenceAppend(cmd *cobra.Command, args []string) error {
	rows, err := runRows(cmd)
	if err != nil {
		return err
	}

	templatePath, _ := cmd.Flags().GetString("template")
	f, err := os.Open(templatePath)
	if err != nil {
		return userError(fmt.Errorf("%w: %v", types.ErrTemplateFileUnreadable, err))
	}
	defer f.Close()

	wb, err := spreadsheet.Open(filepath.Base(templatePath), f)
	if err != nil {
		return userError(err)
	}
	defer wb.Close()

	sheet, _ := cmd.Flags().GetString("sheet")
	name, err := spreadsheet.AppendToTemplate(wb, sheet, rows)
	if err != nil {
		return userError(err)
	}

	out, _ := cmd.Flags().GetString("out")
	if out == "" {
		out = filepath.Join("out", name)
	}
	return saveWorkbook(out, wb, len(rows))
}

func runRows(cmd *cobra.Command) ([]types.CorrespondenceRow, error) {
	path, _ := cmd.Flags().GetString("run")
	run, _, err := loadRunFile(path)
	if err != nil {
		return nil, err
	}
	if len(run.Correspondence) == 0 {
		return nil, userError(types.ErrNoCitations)
	}
	return run.Correspondence, nil
}

func saveWorkbook(path string, wb *spreadsheet.Workbook, n int) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", filepath.Dir(path), err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	if _, err := wb.WriteTo(f); err != nil {
		f.Close()
		return fmt.Errorf("writing %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("closing %s: %w", path, err)
	}
	fmt.Fprintf(os.Stdout, "%s  %d filas escritas en %s\n", okWord, n, path)
	return nil
}

func init() {
	correspondenceCmd.PersistentFlags().String("run", "", "run file written by extract")
	correspondenceCmd.PersistentFlags().String("out", "", "output workbook")
	_ = correspondenceCmd.MarkPersistentFlagRequired("run")

	correspondenceAppendCmd.Flags().String("template", "", "existing correspondence workbook")
	correspondenceAppendCmd.Flags().String("sheet", "", "sheet to append to (default: first sheet)")
	_ = correspondenceAppendCmd.MarkFlagRequired("template")

	correspondenceCmd.AddCommand(correspondenceExportCmd)
	correspondenceCmd.AddCommand(correspondenceAppendCmd)
	rootCmd.AddCommand(correspondenceCmd)
}
