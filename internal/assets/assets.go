// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package assets holds the logo and signature images uploaded for the
// citation template. Each image lives in a temporary file behind a uuid
// handle; replacing an image releases the previous file first, and Close
// releases everything.
package assets

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"
)

// Kind identifies an asset slot.
type Kind string

const (
	Logo      Kind = "logo"
	Signature Kind = "signature"
)

// ParseKind validates an asset slot name.
func ParseKind(s string) (Kind, error) {
	switch Kind(s) {
	case Logo, Signature:
		return Kind(s), nil
	}
	return "", fmt.Errorf("unknown asset kind %q: use logo or signature", s)
}

// ErrClosed is returned when the registry has been closed.
var ErrClosed = errors.New("asset registry closed")

// Handle references one stored image.
type Handle struct {
	ID   string
	Name string
	Path string
}

// Registry owns the image files of one template configuration.
type Registry struct {
	mu     sync.Mutex
	dir    string
	slots  map[Kind]Handle
	closed bool
}

// NewRegistry creates a registry storing files under dir (os.TempDir when
// empty).
func NewRegistry(dir string) *Registry {
	if dir == "" {
		dir = os.TempDir()
	}
	return &Registry{dir: dir, slots: make(map[Kind]Handle)}
}

// Replace stores data as the image for kind, releasing the previous image
// first. Empty data only releases.
func (r *Registry) Replace(kind Kind, name string, data []byte) (Handle, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return Handle{}, ErrClosed
	}
	r.releaseLocked(kind)
	if len(data) == 0 {
		return Handle{}, nil
	}

	id := uuid.NewString()
	path := filepath.Join(r.dir, "citaciones-"+string(kind)+"-"+id+filepath.Ext(name))
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return Handle{}, fmt.Errorf("storing %s: %w", kind, err)
	}

	h := Handle{ID: id, Name: name, Path: path}
	r.slots[kind] = h
	slog.Debug("asset stored", "kind", kind, "id", id)
	return h, nil
}

// Get returns the current image for kind.
func (r *Registry) Get(kind Kind) (Handle, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	h, ok := r.slots[kind]
	return h, ok
}

// Release frees the image for kind, if any.
func (r *Registry) Release(kind Kind) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.releaseLocked(kind)
}

// Close releases all images. The registry cannot be used afterwards.
func (r *Registry) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for kind := range r.slots {
		r.releaseLocked(kind)
	}
	r.closed = true
	return nil
}

func (r *Registry) releaseLocked(kind Kind) {
	h, ok := r.slots[kind]
	if !ok {
		return
	}
	delete(r.slots, kind)
	if err := os.Remove(h.Path); err != nil && !os.IsNotExist(err) {
		slog.Warn("releasing asset", "kind", kind, "path", h.Path, "error", err)
	}
}
