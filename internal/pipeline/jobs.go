package pipeline

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// JobStatus represents the state of a build job.
type JobStatus string

const (
	StatusQueued     JobStatus = "queued"
	StatusCollecting JobStatus = "collecting"
	StatusParsing    JobStatus = "parsing"
	StatusResolving  JobStatus = "resolving"
	StatusRendering  JobStatus = "rendering"
	StatusCompleted  JobStatus = "completed"
	StatusFailed     JobStatus = "failed"
	StatusPartial    JobStatus = "partial"
)

// Job tracks the state of one asynchronous build.
type Job struct {
	mu sync.Mutex

	ID      string    `json:"job_id"`
	Status  JobStatus `json:"status"`
	Phase   string    `json:"phase"`
	Formats []string  `json:"formats"`
	Force   bool      `json:"force"`

	Progress Progress `json:"progress"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	errors []string
}

// Progress counts what a build has done so far.
type Progress struct {
	Collected         int      `json:"collected"`
	Parsed            int      `json:"parsed"`
	Reused            int      `json:"reused"`
	Rendered          int      `json:"rendered"`
	InvalidReferences int      `json:"invalid_references"`
	Errors            []string `json:"errors"`
}

// NewJob creates a queued build job with a fresh id.
func NewJob(formats []string, force bool) *Job {
	now := time.Now()
	return &Job{
		ID:        uuid.NewString(),
		Status:    StatusQueued,
		Phase:     "queued",
		Formats:   formats,
		Force:     force,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// JobStore is a thread-safe in-memory job registry with TTL eviction.
type JobStore struct {
	mu   sync.Mutex
	jobs map[string]*Job
	ttl  time.Duration
}

func NewJobStore(ttl time.Duration) *JobStore {
	return &JobStore{
		jobs: make(map[string]*Job),
		ttl:  ttl,
	}
}

func (s *JobStore) Put(job *Job) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs[job.ID] = job
}

func (s *JobStore) Get(id string) *Job {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.jobs[id]
}

// Cleanup removes expired jobs.
func (s *JobStore) Cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	for id, job := range s.jobs {
		job.mu.Lock()
		updated := job.UpdatedAt
		job.mu.Unlock()
		if now.Sub(updated) > s.ttl {
			delete(s.jobs, id)
		}
	}
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

// SetCollected records how many source files the build found.
func (j *Job) SetCollected(n int) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Progress.Collected = n
	j.UpdatedAt = time.Now()
}

// Finish copies the counters of a finished build.
func (j *Job) Finish(res *Result) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Progress.Parsed = res.Parsed
	j.Progress.Reused = res.Reused
	j.Progress.Rendered = res.Rendered
	j.Progress.InvalidReferences = res.InvalidReferences
	j.UpdatedAt = time.Now()
}

// JobSnapshot is a read-only, JSON-safe copy of job state.
type JobSnapshot struct {
	ID        string    `json:"job_id"`
	Status    JobStatus `json:"status"`
	Phase     string    `json:"phase"`
	Formats   []string  `json:"formats"`
	Force     bool      `json:"force"`
	Progress  Progress  `json:"progress"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Snapshot returns a JSON-safe copy of the job state.
func (j *Job) Snapshot() JobSnapshot {
	j.mu.Lock()
	defer j.mu.Unlock()
	errs := append([]string{}, j.Progress.Errors...)
	formats := append([]string{}, j.Formats...)
	p := j.Progress
	p.Errors = errs
	return JobSnapshot{
		ID:        j.ID,
		Status:    j.Status,
		Phase:     j.Phase,
		Formats:   formats,
		Force:     j.Force,
		Progress:  p,
		CreatedAt: j.CreatedAt,
		UpdatedAt: j.UpdatedAt,
	}
}
