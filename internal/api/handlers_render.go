package api

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/dgallion1/guides/internal/doctree"
	"github.com/dgallion1/guides/internal/parser"
	"github.com/dgallion1/guides/internal/render"
)

var contentTypes = map[string]string{
	"html":  "text/html; charset=utf-8",
	"latex": "application/x-latex; charset=utf-8",
	"docx":  "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
}

// handleRender renders one request body as a standalone document.
func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxRenderBytes+1)

	format := strings.ToLower(r.URL.Query().Get("format"))
	if format == "" {
		format = "html"
	}
	filename := sanitizeFilename(r.URL.Query().Get("filename"))
	if filename == "unnamed" {
		filename = "document.rst"
	}
	if !parser.IsSupportedExtension(filename) {
		jsonError(w, fmt.Sprintf("unsupported file type: %s", filepath.Ext(filename)), http.StatusBadRequest)
		return
	}

	data, err := io.ReadAll(io.LimitReader(r.Body, s.cfg.MaxRenderBytes+1))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			jsonError(w, fmt.Sprintf("body exceeds max size (%d bytes)", s.cfg.MaxRenderBytes), http.StatusRequestEntityTooLarge)
			return
		}
		jsonError(w, "failed to read body", http.StatusBadRequest)
		return
	}
	if int64(len(data)) > s.cfg.MaxRenderBytes {
		jsonError(w, fmt.Sprintf("body exceeds max size (%d bytes)", s.cfg.MaxRenderBytes), http.StatusRequestEntityTooLarge)
		return
	}

	out, invalid, err := s.orchestrator.Builder().RenderSingle(filename, data, format)
	if err != nil {
		switch {
		case errors.Is(err, render.ErrUnknownFormat), errors.Is(err, parser.ErrUnsupportedFormat):
			jsonError(w, err.Error(), http.StatusBadRequest)
		case errors.Is(err, doctree.ErrInvalidStructure):
			jsonError(w, err.Error(), http.StatusUnprocessableEntity)
		default:
			s.log.Error("render failed", "filename", filename, "format", format, "error", err)
			jsonError(w, "render failed", http.StatusInternalServerError)
		}
		return
	}

	w.Header().Set("Content-Type", contentTypes[format])
	w.Header().Set("X-Invalid-References", strconv.Itoa(invalid))
	w.WriteHeader(http.StatusOK)
	w.Write(out)
}

func sanitizeFilename(name string) string {
	// Strip path components, keep only the base name.
	name = filepath.Base(name)
	name = strings.ReplaceAll(name, "/", "_")
	name = strings.ReplaceAll(name, "\\", "_")
	name = strings.ReplaceAll(name, "..", "_")
	if name == "" || name == "." {
		name = "unnamed"
	}
	return name
}
