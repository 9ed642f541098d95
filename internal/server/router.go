// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package server exposes the clerk workflow over HTTP: login, extraction,
// citation selection and edits, template settings, and the PDF, print and
// spreadsheet exports.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

const shutdownTimeout = 10 * time.Second

// NewRouter wires the API routes onto a gin engine.
func NewRouter(h *Handler) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger())

	r.GET("/healthz", h.Health)

	api := r.Group("/api/v1")
	api.POST("/login", h.Login)

	s := api.Group("/sessions/:id", h.loadSession)
	{
		s.POST("/citations", h.Generate)
		s.GET("/citations", h.Citations)
		s.POST("/select/:index", h.Select)
		s.GET("/view", h.View)
		s.PATCH("/view", h.EditView)
		s.GET("/config", h.Config)
		s.PUT("/config", h.SetConfig)
		s.PUT("/assets/:kind", h.SetAsset)
		s.GET("/correspondence", h.Correspondence)
		s.GET("/export/pdf", h.ExportPDF)
		s.GET("/export/print", h.ExportPrint)
		s.GET("/export/citation.pdf", h.ExportCitationPDF)
		s.GET("/export/citation.html", h.ExportCitationPrint)
		s.GET("/export/xlsx", h.ExportXLSX)
		s.POST("/template", h.UploadTemplate)
		s.POST("/template/append", h.AppendTemplate)
		s.POST("/reset", h.Reset)
	}
	return r
}

// requestLogger logs one line per request.
func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		attrs := []any{
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"duration", time.Since(start),
		}
		if len(c.Errors) > 0 {
			attrs = append(attrs, "error", c.Errors.String())
		}
		switch {
		case c.Writer.Status() >= http.StatusInternalServerError:
			slog.Error("request", attrs...)
		case c.Writer.Status() >= http.StatusBadRequest:
			slog.Warn("request", attrs...)
		default:
			slog.Debug("request", attrs...)
		}
	}
}

// Serve listens on addr until ctx is cancelled, then shuts down gracefully
// and closes every session.
func Serve(ctx context.Context, addr string, h *Handler) error {
	srv := &http.Server{Addr: addr, Handler: NewRouter(h)}

	errc := make(chan error, 1)
	go func() {
		slog.Info("listening", "addr", addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		h.Sessions.Close()
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serving %s: %w", addr, err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	err := srv.Shutdown(shutdownCtx)
	h.Sessions.Close()
	if err != nil {
		return fmt.Errorf("shutting down: %w", err)
	}
	slog.Info("server stopped")
	return nil
}
