// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"io"

	"github.com/fatih/color"

	"github.com/pdiddy/citaciones/pkg/types"
)

var (
	okWord   = color.New(color.FgGreen).Sprint("OK")
	failWord = color.New(color.FgRed).Sprint("FALLÓ")
	warnWord = color.New(color.FgYellow).Sprint("AVISO")
)

// userError attaches the clerk-facing message to err.
func userError(err error) error {
	return fmt.Errorf("%s (%w)", types.UserMessage(err), err)
}

// printOutcomes lists each outcome with its oficio and owner.
func printOutcomes(w io.Writer, outcomes []types.Outcome) {
	for i, o := range outcomes {
		switch v := o.(type) {
		case types.Success:
			fmt.Fprintf(w, "  %s  %3d  oficio %-6s  proceso %-8s  %s\n",
				okWord, i, v.Record.OficioNumber, v.Record.ProcessNumber, v.Record.OwnerName)
		case types.Failure:
			fmt.Fprintf(w, "  %s  %3d  %s\n", failWord, i, v.Message)
		}
	}
}
