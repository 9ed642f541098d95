//go:build mage

package main

import (
	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

// Serve builds the CLI and starts the interactive API on the configured address.
func Serve() error {
	mg.Deps(Build, Init)
	return sh.RunV(binPath, "serve")
}

// Ledger builds the CLI and lists the most recent recorded runs.
func Ledger() error {
	mg.Deps(Build)
	return sh.RunV(binPath, "ledger", "list")
}
