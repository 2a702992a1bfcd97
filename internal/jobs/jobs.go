// Package jobs runs background work with a handle the caller can query and
// cancel, instead of fire-and-forget goroutines.
package jobs

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound is returned when looking up an unknown job id.
var ErrNotFound = errors.New("job not found")

// Status is the lifecycle state of a job.
type Status string

const (
	StatusPending   Status = "pending"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
	StatusCancelled Status = "cancelled"
)

// Job is one tracked unit of background work.
type Job struct {
	ID string

	mu         sync.Mutex
	status     Status
	result     any
	err        error
	startedAt  time.Time
	finishedAt time.Time

	cancel context.CancelFunc
	done   chan struct{}
}

// Snapshot is the JSON-friendly view of a job.
type Snapshot struct {
	ID         string     `json:"job_id"`
	Status     Status     `json:"status"`
	StartedAt  time.Time  `json:"started_at"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
	Result     any        `json:"result,omitempty"`
	Error      string     `json:"error,omitempty"`
}

// Status returns the current lifecycle state.
func (j *Job) Status() Status {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.status
}

// Cancel requests cancellation. Completed jobs are unaffected.
func (j *Job) Cancel() { j.cancel() }

// Done closes when the job has finished, whatever the outcome.
func (j *Job) Done() <-chan struct{} { return j.done }

// Snapshot captures the job's current state.
func (j *Job) Snapshot() Snapshot {
	j.mu.Lock()
	defer j.mu.Unlock()
	snap := Snapshot{
		ID:        j.ID,
		Status:    j.status,
		StartedAt: j.startedAt,
		Result:    j.result,
	}
	if !j.finishedAt.IsZero() {
		t := j.finishedAt
		snap.FinishedAt = &t
	}
	if j.err != nil {
		snap.Error = j.err.Error()
	}
	return snap
}

func (j *Job) setRunning() {
	j.mu.Lock()
	j.status = StatusRunning
	j.mu.Unlock()
}

func (j *Job) finish(result any, err error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.finishedAt = time.Now()
	switch {
	case errors.Is(err, context.Canceled):
		j.status = StatusCancelled
		j.err = err
	case err != nil:
		j.status = StatusFailed
		j.err = err
	default:
		j.status = StatusCompleted
		j.result = result
	}
	close(j.done)
}

// Manager tracks spawned jobs by id.
type Manager struct {
	mu     sync.Mutex
	jobs   map[string]*Job
	logger *log.Logger
}

// NewManager returns an empty job manager.
func NewManager() *Manager {
	return &Manager{
		jobs:   make(map[string]*Job),
		logger: log.New(log.Writer(), "[JOBS] ", log.LstdFlags),
	}
}

// Start launches run on its own goroutine, detached from the caller's
// context so the job survives the originating request. The returned Job is
// already registered and queryable; it stays pending until its goroutine is
// scheduled.
func (m *Manager) Start(run func(ctx context.Context) (any, error)) *Job {
	ctx, cancel := context.WithCancel(context.Background())
	job := &Job{
		ID:        uuid.NewString(),
		status:    StatusPending,
		startedAt: time.Now(),
		cancel:    cancel,
		done:      make(chan struct{}),
	}

	m.mu.Lock()
	m.jobs[job.ID] = job
	m.mu.Unlock()

	m.logger.Printf("job %s started", job.ID)
	go func() {
		defer cancel()
		job.setRunning()
		result, err := run(ctx)
		if err == nil && ctx.Err() != nil {
			err = ctx.Err()
		}
		job.finish(result, err)
		m.logger.Printf("job %s finished: %s", job.ID, job.Status())
	}()
	return job
}

// Get looks up a job by id.
func (m *Manager) Get(id string) (*Job, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	job, ok := m.jobs[id]
	if !ok {
		return nil, ErrNotFound
	}
	return job, nil
}
