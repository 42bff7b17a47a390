package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/dgallion1/guides/internal/doctree"
	"github.com/go-chi/chi/v5"
)

type documentSummary struct {
	File    string    `json:"file"`
	Title   string    `json:"title"`
	URL     string    `json:"url"`
	Parent  string    `json:"parent,omitempty"`
	ModTime time.Time `json:"mtime"`
}

// handleListDocuments lists the metas index of the last build.
func (s *Server) handleListDocuments(w http.ResponseWriter, r *http.Request) {
	metas := s.orchestrator.Builder().Index(r.Context())

	docs := []documentSummary{}
	for _, e := range metas.All() {
		docs = append(docs, documentSummary{
			File:    e.File,
			Title:   e.Title,
			URL:     e.URL,
			Parent:  e.Parent,
			ModTime: e.ModTime,
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"documents": docs})
}

// handleGetDocument returns one Entry with its breadcrumb of parents.
func (s *Server) handleGetDocument(w http.ResponseWriter, r *http.Request) {
	file := doctree.StripExtension(strings.Trim(chi.URLParam(r, "*"), "/"))
	if file == "" {
		jsonError(w, "document path is required", http.StatusBadRequest)
		return
	}

	metas := s.orchestrator.Builder().Index(r.Context())
	e, ok := metas.Get(file)
	if !ok {
		jsonError(w, "document not found", http.StatusNotFound)
		return
	}

	parents := []string{}
	for _, p := range metas.Parents(file) {
		parents = append(parents, p.File)
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"entry":   e,
		"parents": parents,
	})
}
