package api

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/dgallion1/guides/internal/pipeline"
	"github.com/go-chi/chi/v5"
)

type buildRequest struct {
	Formats []string `json:"formats"`
	Force   bool     `json:"force"`
}

func (s *Server) handleStartBuild(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 64*1024)

	var req buildRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		jsonError(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	if r.URL.Query().Get("force") == "true" {
		req.Force = true
	}

	formats := s.orchestrator.Builder().Formats()
	for _, name := range req.Formats {
		if _, err := formats.Get(name); err != nil {
			jsonError(w, err.Error(), http.StatusBadRequest)
			return
		}
	}

	job := pipeline.NewJob(req.Formats, req.Force)
	if err := s.orchestrator.Submit(job); err != nil {
		jsonError(w, err.Error(), http.StatusServiceUnavailable)
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]any{
		"job_id":   job.ID,
		"status":   job.Snapshot().Status,
		"poll_url": fmt.Sprintf("/api/builds/%s", job.ID),
	})
}

func (s *Server) handleBuildStatus(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobID")
	job := s.orchestrator.GetJob(jobID)
	if job == nil {
		jsonError(w, "job not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, job.Snapshot())
}
