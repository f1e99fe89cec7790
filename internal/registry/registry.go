// Package registry is the process-wide table of ingestion jobs and their
// lifecycle state, the state machine behind the dashboard polling
// endpoint.
package registry

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jonesrussell/tool-ingestor/internal/logger"
	"github.com/jonesrussell/tool-ingestor/internal/models"
)

var (
	// ErrJobAlreadyRunning rejects a submission while another job is
	// active. Concurrent jobs would race on the website_url uniqueness
	// check, so only one job runs at a time.
	ErrJobAlreadyRunning = errors.New("another scraping job is already running")
	// ErrJobNotFound marks an unknown job id.
	ErrJobNotFound = errors.New("job not found")
	// ErrInvalidTransition marks an illegal lifecycle transition.
	ErrInvalidTransition = errors.New("invalid job state transition")
)

// Registry tracks jobs in memory. All mutation goes through the mutex;
// reads hand out copies so pollers never observe a job mid-update.
type Registry struct {
	mu      sync.Mutex
	jobs    map[string]*models.Job
	order   []string
	current string
	logger  logger.Logger
	clock   func() time.Time
}

// New creates an empty registry.
func New(log logger.Logger) *Registry {
	return &Registry{
		jobs:   make(map[string]*models.Job),
		logger: log,
		clock:  time.Now,
	}
}

// Create registers a new pending job. It fails with ErrJobAlreadyRunning
// when the current job has not reached a terminal state.
func (r *Registry) Create(spiderName string, maxItems int) (models.Job, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.current != "" {
		if active := r.jobs[r.current]; active != nil && !active.State.Terminal() {
			return models.Job{}, ErrJobAlreadyRunning
		}
	}

	job := &models.Job{
		ID:         uuid.New().String(),
		SpiderName: spiderName,
		MaxItems:   maxItems,
		State:      models.JobPending,
	}
	r.jobs[job.ID] = job
	r.order = append(r.order, job.ID)
	r.current = job.ID

	r.logger.Info("Job created",
		logger.String("job_id", job.ID),
		logger.String("spider", spiderName),
		logger.Int("max_items", maxItems),
	)
	return *job, nil
}

// Get returns a copy of the job with the given id.
func (r *Registry) Get(id string) (models.Job, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	job, ok := r.jobs[id]
	if !ok {
		return models.Job{}, fmt.Errorf("%w: %s", ErrJobNotFound, id)
	}
	return *job, nil
}

// List returns copies of all jobs in creation order.
func (r *Registry) List() []models.Job {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]models.Job, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, *r.jobs[id])
	}
	return out
}

// Transition moves a job to a new lifecycle state, stamping started/ended
// times. Illegal transitions (terminal states are final) fail with
// ErrInvalidTransition.
func (r *Registry) Transition(id string, next models.JobState) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.transitionLocked(id, next, "")
}

// Fail moves a job to the failed state and records the fatal error.
func (r *Registry) Fail(id string, cause error) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	msg := ""
	if cause != nil {
		msg = cause.Error()
	}
	return r.transitionLocked(id, models.JobFailed, msg)
}

func (r *Registry) transitionLocked(id string, next models.JobState, errMsg string) error {
	job, ok := r.jobs[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrJobNotFound, id)
	}
	if !job.State.CanTransitionTo(next) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, job.State, next)
	}

	now := r.clock()
	job.State = next
	switch {
	case next == models.JobRunning:
		job.StartedAt = &now
	case next.Terminal():
		job.EndedAt = &now
	}
	if errMsg != "" {
		job.Error = errMsg
	}

	r.logger.Info("Job state changed",
		logger.String("job_id", id),
		logger.String("state", string(next)),
	)
	return nil
}

// AddStats applies counter increments to a job's statistics. Increments
// are monotonic; pollers observe them eventually via Snapshot.
func (r *Registry) AddStats(id string, delta models.JobStats) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	job, ok := r.jobs[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrJobNotFound, id)
	}

	job.Stats.TotalProcessed += delta.TotalProcessed
	job.Stats.SuccessfulSubmissions += delta.SuccessfulSubmissions
	job.Stats.FailedSubmissions += delta.FailedSubmissions
	job.Stats.DuplicatesSkipped += delta.DuplicatesSkipped
	return nil
}

// Status is the dashboard view of the registry.
type Status struct {
	IsRunning  bool            `json:"is_running"`
	CurrentJob *models.Job     `json:"current_job,omitempty"`
	Stats      models.JobStats `json:"stats"`
}

// Snapshot returns the current job (the most recently created one, which
// may already be terminal) and whether it is still running.
func (r *Registry) Snapshot() Status {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.current == "" {
		return Status{}
	}

	job := *r.jobs[r.current]
	return Status{
		IsRunning:  !job.State.Terminal(),
		CurrentJob: &job,
		Stats:      job.Stats,
	}
}
