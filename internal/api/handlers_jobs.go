package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/dgallion1/nexthydra/hydration"
	"github.com/dgallion1/nexthydra/internal/pipeline"
	"github.com/dgallion1/nexthydra/internal/search"
	"github.com/go-chi/chi/v5"
)

type createJobRequest struct {
	URL string `json:"url"`
}

func (s *Server) handleCreateJob(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 64*1024)

	var req createJobRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	u, err := url.Parse(req.URL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		jsonError(w, "url must be an absolute http(s) URL", http.StatusBadRequest)
		return
	}

	job := pipeline.NewJob(u.String())
	if err := s.orchestrator.Submit(job); err != nil {
		jsonError(w, err.Error(), http.StatusServiceUnavailable)
		return
	}

	snap := job.Snapshot()
	writeJSON(w, http.StatusAccepted, map[string]any{
		"job_id":   snap.ID,
		"status":   snap.Status,
		"poll_url": fmt.Sprintf("/api/jobs/%s", snap.ID),
	})
}

func (s *Server) handleJobStatus(w http.ResponseWriter, r *http.Request) {
	job := s.lookupJob(w, r)
	if job == nil {
		return
	}
	writeJSON(w, http.StatusOK, job.Snapshot())
}

func (s *Server) handleJobRecords(w http.ResponseWriter, r *http.Request) {
	records, ok := s.jobRecords(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"records": records,
		"summary": hydration.Summarize(records),
	})
}

func (s *Server) handleJobSearch(w http.ResponseWriter, r *http.Request) {
	records, ok := s.jobRecords(w, r)
	if !ok {
		return
	}
	q := r.URL.Query()
	pattern := q.Get("pattern")
	if pattern == "" {
		jsonError(w, "pattern is required", http.StatusBadRequest)
		return
	}
	caseSensitive := q.Get("case_sensitive") == "true"

	matches := search.FindByPattern(records, pattern, caseSensitive)
	if matches == nil {
		matches = []hydration.PatternMatch{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"pattern": pattern,
		"count":   len(matches),
		"matches": matches,
	})
}

func (s *Server) handleJobKeys(w http.ResponseWriter, r *http.Request) {
	records, ok := s.jobRecords(w, r)
	if !ok {
		return
	}
	depth := s.cfg.DefaultKeyDepth
	if v := r.URL.Query().Get("max_depth"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			jsonError(w, "max_depth must be a non-negative integer", http.StatusBadRequest)
			return
		}
		depth = n
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"max_depth": depth,
		"keys":      search.CollectKeys(records, depth),
	})
}

func (s *Server) lookupJob(w http.ResponseWriter, r *http.Request) *pipeline.Job {
	job := s.orchestrator.GetJob(chi.URLParam(r, "jobID"))
	if job == nil {
		jsonError(w, "job not found", http.StatusNotFound)
	}
	return job
}

// jobRecords writes an error response unless the job has finished
// extracting.
func (s *Server) jobRecords(w http.ResponseWriter, r *http.Request) ([]hydration.ChunkRecord, bool) {
	job := s.lookupJob(w, r)
	if job == nil {
		return nil, false
	}
	switch job.Snapshot().Status {
	case pipeline.StatusCompleted, pipeline.StatusPartial:
		return job.Records(), true
	case pipeline.StatusFailed:
		jsonError(w, "job failed", http.StatusUnprocessableEntity)
	default:
		jsonError(w, "job not finished", http.StatusConflict)
	}
	return nil, false
}
