// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/pdiddy/citaciones/internal/extract"
	"github.com/pdiddy/citaciones/internal/ledger"
	"github.com/pdiddy/citaciones/internal/server"
	"github.com/pdiddy/citaciones/pkg/types"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the interactive citation API",
	Long: `Serve starts the HTTP API the clerk's browser talks to. Each login opens a
session holding its own citations, selection, template and images. Idle
sessions are closed on a schedule.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().String("addr", "", "listen address (default: server.addr)")
	serveCmd.Flags().String("assets-dir", "", "directory for uploaded images (default: a temporary directory)")

	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
		cfg.Server.Addr = addr
	}

	assetDir, _ := cmd.Flags().GetString("assets-dir")
	if assetDir == "" {
		assetDir, err = os.MkdirTemp("", "citaciones-assets-")
		if err != nil {
			return err
		}
		defer os.RemoveAll(assetDir)
	} else if err := os.MkdirAll(assetDir, 0o755); err != nil {
		return err
	}

	h := &server.Handler{
		AccessCode: cfg.Server.AccessCode,
		Render:     cfg.Render,
	}

	backend, err := extract.NewBackend(cfg.AI, nil)
	switch {
	case errors.Is(err, types.ErrMissingAPIKey):
		slog.Warn("no AI API key configured; extraction is disabled", "provider", cfg.AI.Provider)
	case err != nil:
		return err
	default:
		h.Extractor = extract.NewGateway(backend)
	}

	if cfg.Ledger.Path != "" {
		store, err := ledger.Open(cfg.Ledger.Path)
		if err != nil {
			return err
		}
		defer store.Close()
		h.Ledger = store
	}
	if cfg.Server.AccessCode == "" {
		slog.Warn("no access code configured; login is open")
	}

	tmpl := cfg.Template
	h.Sessions = server.NewRegistry(func() types.TemplateConfig {
		return templateAt(tmpl, time.Now())
	}, cfg.Server.SessionTTL, assetDir)
	if err := h.Sessions.Start(cfg.Server.ReapSchedule); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return server.Serve(ctx, cfg.Server.Addr, h)
}
