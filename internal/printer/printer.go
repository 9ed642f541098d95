// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package printer hands rendered citations to the host: print documents go
// to the desktop opener (which shows the print dialog) and PDFs can be
// spooled straight to the default CUPS printer.
package printer

import (
	"fmt"
	"os/exec"
)

const (
	binXdgOpen = "xdg-open"
	binOpen    = "open"
	binLp      = "lp"
	binLpr     = "lpr"
	binLpstat  = "lpstat"

	// mediaOficio is the 8.5in x 13in sheet citations are laid out on.
	mediaOficio = "media=Custom.8.5x13in"
)

// Device delivers a file to the host for printing.
type Device interface {
	// Name returns the binary used ("xdg-open", "lp", ...).
	Name() string

	// Available reports whether the binary exists on PATH and is usable.
	Available() bool

	// Send hands the file at path to the device.
	Send(path string) error
}

// executor abstracts command execution for testing.
type executor interface {
	LookPath(file string) (string, error)
	RunSilent(name string, args ...string) error
}

// osExecutor is the production executor backed by os/exec.
type osExecutor struct{}

func (o *osExecutor) LookPath(file string) (string, error) {
	return exec.LookPath(file)
}

func (o *osExecutor) RunSilent(name string, args ...string) error {
	return exec.Command(name, args...).Run()
}

// device implements Device for one binary. Openers and spoolers share the
// logic; they differ in the arguments placed before the path and in how
// availability is probed.
type device struct {
	bin   string
	args  []string
	probe []string // command that must succeed for Available; nil skips
	exec  executor
}

func (d *device) Name() string { return d.bin }

func (d *device) Available() bool {
	if _, err := d.exec.LookPath(d.bin); err != nil {
		return false
	}
	if len(d.probe) == 0 {
		return true
	}
	return d.exec.RunSilent(d.probe[0], d.probe[1:]...) == nil
}

func (d *device) Send(path string) error {
	args := make([]string, 0, len(d.args)+1)
	args = append(args, d.args...)
	args = append(args, path)
	if err := d.exec.RunSilent(d.bin, args...); err != nil {
		return fmt.Errorf("sending %s to %s: %w", path, d.bin, err)
	}
	return nil
}

func newOpener(bin string, exec executor) *device {
	return &device{bin: bin, exec: exec}
}

func newSpooler(bin string, exec executor) *device {
	return &device{
		bin:   bin,
		args:  []string{"-o", mediaOficio},
		probe: []string{binLpstat, "-r"},
		exec:  exec,
	}
}

var defaultExec = &osExecutor{}

// DetectOpener tries xdg-open first, falls back to open (macOS).
func DetectOpener() (Device, error) {
	return detectOpener(defaultExec)
}

func detectOpener(exec executor) (Device, error) {
	for _, bin := range []string{binXdgOpen, binOpen} {
		if d := newOpener(bin, exec); d.Available() {
			return d, nil
		}
	}
	return nil, fmt.Errorf("no document opener available: neither %s nor %s found", binXdgOpen, binOpen)
}

// DetectSpooler tries lp first, falls back to lpr. Both require a running
// CUPS scheduler.
func DetectSpooler() (Device, error) {
	return detectSpooler(defaultExec)
}

func detectSpooler(exec executor) (Device, error) {
	for _, bin := range []string{binLp, binLpr} {
		if d := newSpooler(bin, exec); d.Available() {
			return d, nil
		}
	}
	return nil, fmt.Errorf("no print spooler available: neither %s nor %s found or scheduler not running", binLp, binLpr)
}
