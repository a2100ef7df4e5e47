package pipeline

import (
	"crypto/sha256"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/dgallion1/nexthydra/hydration"
	"github.com/dgallion1/nexthydra/internal/page"
)

// JobStatus represents the state of an extraction job.
type JobStatus string

const (
	StatusQueued    JobStatus = "queued"
	StatusFetching  JobStatus = "fetching"
	StatusParsing   JobStatus = "parsing"
	StatusCompleted JobStatus = "completed"
	StatusFailed    JobStatus = "failed"
	StatusPartial   JobStatus = "partial"
)

// Job tracks the state of a single page extraction.
type Job struct {
	mu sync.Mutex

	ID  string `json:"job_id"`
	URL string `json:"url"`

	Status JobStatus `json:"status"`
	Phase  string    `json:"phase"`

	Progress Progress `json:"progress"`

	ContentHash string    `json:"content_hash,omitempty"`
	FinalURL    string    `json:"final_url,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	// Internal: not serialized.
	records []hydration.ChunkRecord
	summary *hydration.Summary
	info    *page.Info
	errors  []string
}

// Progress tracks processing progress.
type Progress struct {
	FetchAttempts int      `json:"fetch_attempts"`
	BytesFetched  int      `json:"bytes_fetched"`
	Errors        []string `json:"errors"`
}

// NewJob creates a queued job for url.
func NewJob(url string) *Job {
	now := time.Now()
	return &Job{
		ID:        generateULID(),
		URL:       url,
		Status:    StatusQueued,
		Phase:     "queued",
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// JobStore is a thread-safe in-memory job registry. Finished jobs are
// evicted once they have been idle for the TTL.
type JobStore struct {
	mu   sync.Mutex
	jobs map[string]*Job
	ttl  time.Duration
}

func NewJobStore(ttl time.Duration) *JobStore {
	return &JobStore{jobs: make(map[string]*Job), ttl: ttl}
}

func (s *JobStore) Put(job *Job) {
	s.mu.Lock()
	s.jobs[job.ID] = job
	s.mu.Unlock()
}

func (s *JobStore) Get(id string) *Job {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.jobs[id]
}

// Len returns the number of tracked jobs.
func (s *JobStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.jobs)
}

// Cleanup evicts finished jobs idle for longer than the TTL and returns how
// many were removed. Queued and running jobs are kept regardless of age.
func (s *JobStore) Cleanup() int {
	cutoff := time.Now().Add(-s.ttl)
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for id, job := range s.jobs {
		if job.expired(cutoff) {
			delete(s.jobs, id)
			n++
		}
	}
	return n
}

// Done reports whether the job reached a terminal status.
func (j *Job) Done() bool {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.Status.terminal()
}

func (j *Job) expired(cutoff time.Time) bool {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.Status.terminal() && j.UpdatedAt.Before(cutoff)
}

func (s JobStatus) terminal() bool {
	return s == StatusCompleted || s == StatusPartial || s == StatusFailed
}

// SetStatus updates job status atomically.
func (j *Job) SetStatus(status JobStatus, phase string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Status = status
	j.Phase = phase
	j.UpdatedAt = time.Now()
}

// AddError records an error.
func (j *Job) AddError(err string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.errors = append(j.errors, err)
	j.Progress.Errors = j.errors
	j.UpdatedAt = time.Now()
}

// IncrFetchAttempts atomically increments the fetch attempt counter.
func (j *Job) IncrFetchAttempts() {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Progress.FetchAttempts++
	j.UpdatedAt = time.Now()
}

// SetFetched records the downloaded page.
func (j *Job) SetFetched(finalURL string, body []byte) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.FinalURL = finalURL
	j.ContentHash = ContentHashHex(body)
	j.Progress.BytesFetched = len(body)
	j.UpdatedAt = time.Now()
}

// SetResult stores the extraction output.
func (j *Job) SetResult(records []hydration.ChunkRecord, info page.Info) {
	summary := hydration.Summarize(records)
	j.mu.Lock()
	defer j.mu.Unlock()
	j.records = records
	j.summary = &summary
	j.info = &info
	j.UpdatedAt = time.Now()
}

// Records returns the extracted records, or nil before extraction finished.
func (j *Job) Records() []hydration.ChunkRecord {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.records
}

// JobSnapshot is a read-only, JSON-safe copy of job state.
type JobSnapshot struct {
	ID          string             `json:"job_id"`
	URL         string             `json:"url"`
	FinalURL    string             `json:"final_url,omitempty"`
	Status      JobStatus          `json:"status"`
	Phase       string             `json:"phase"`
	ContentHash string             `json:"content_hash,omitempty"`
	Progress    Progress           `json:"progress"`
	Summary     *hydration.Summary `json:"summary,omitempty"`
	Page        *page.Info         `json:"page,omitempty"`
	CreatedAt   time.Time          `json:"created_at"`
	UpdatedAt   time.Time          `json:"updated_at"`
}

// Snapshot returns a JSON-safe copy of the job state, without the page's
// __NEXT_DATA__ tree.
func (j *Job) Snapshot() JobSnapshot {
	j.mu.Lock()
	defer j.mu.Unlock()
	errs := j.Progress.Errors
	if errs == nil {
		errs = []string{}
	}
	var info *page.Info
	if j.info != nil {
		cp := *j.info
		cp.NextData = nil
		info = &cp
	}
	return JobSnapshot{
		ID:          j.ID,
		URL:         j.URL,
		FinalURL:    j.FinalURL,
		Status:      j.Status,
		Phase:       j.Phase,
		ContentHash: j.ContentHash,
		Progress: Progress{
			FetchAttempts: j.Progress.FetchAttempts,
			BytesFetched:  j.Progress.BytesFetched,
			Errors:        slices.Clone(errs),
		},
		Summary:   j.summary,
		Page:      info,
		CreatedAt: j.CreatedAt,
		UpdatedAt: j.UpdatedAt,
	}
}

// ContentHashHex computes SHA-256 of content and returns hex string.
func ContentHashHex(data []byte) string {
	h := sha256.Sum256(data)
	return fmt.Sprintf("%x", h[:])
}
