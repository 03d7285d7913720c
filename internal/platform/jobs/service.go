package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

const JobPayrollBatch = "payroll_batch"

type Status string

const (
	StatusQueued    Status = "queued"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

var (
	ErrQueueFull   = errors.New("job queue full")
	ErrRunNotFound = errors.New("job run not found")
)

type Run struct {
	ID          string     `json:"id"`
	Type        string     `json:"type"`
	Status      Status     `json:"status"`
	Details     any        `json:"details,omitempty"`
	Error       string     `json:"error,omitempty"`
	SubmittedAt time.Time  `json:"submittedAt"`
	StartedAt   *time.Time `json:"startedAt,omitempty"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
}

// Service runs jobs on a single background worker. Run state is kept in
// memory and mirrored to payroll_runs when DB is set.
type Service struct {
	DB    *pgxpool.Pool
	queue chan job

	mu   sync.RWMutex
	runs map[string]Run
}

type job struct {
	RunID string
	Type  string
	Run   func(context.Context) (any, error)
}

func New(db *pgxpool.Pool, queueSize int) *Service {
	if queueSize < 1 {
		queueSize = 1
	}
	return &Service{
		DB:    db,
		queue: make(chan job, queueSize),
		runs:  make(map[string]Run),
	}
}

func (s *Service) Start(ctx context.Context) {
	go s.worker(ctx)
}

// Enqueue records a queued run and hands it to the worker. It does not
// block; a full queue is reported as ErrQueueFull.
func (s *Service) Enqueue(jobType string, run func(context.Context) (any, error)) (Run, error) {
	r := s.newRun(jobType)
	select {
	case s.queue <- job{RunID: r.ID, Type: jobType, Run: run}:
		return r, nil
	default:
		s.mu.Lock()
		delete(s.runs, r.ID)
		s.mu.Unlock()
		slog.Warn("job queue full", "jobType", jobType)
		return Run{}, ErrQueueFull
	}
}

// RunNow executes the job on the caller's goroutine.
func (s *Service) RunNow(ctx context.Context, jobType string, run func(context.Context) (any, error)) (Run, error) {
	r := s.newRun(jobType)
	return s.runJob(ctx, job{RunID: r.ID, Type: jobType, Run: run})
}

func (s *Service) Get(id string) (Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.runs[id]
	if !ok {
		return Run{}, ErrRunNotFound
	}
	return r, nil
}

func (s *Service) newRun(jobType string) Run {
	r := Run{
		ID:          uuid.NewString(),
		Type:        jobType,
		Status:      StatusQueued,
		SubmittedAt: time.Now().UTC(),
	}
	s.mu.Lock()
	s.runs[r.ID] = r
	s.mu.Unlock()
	return r
}

func (s *Service) update(id string, fn func(*Run)) Run {
	s.mu.Lock()
	defer s.mu.Unlock()
	r := s.runs[id]
	fn(&r)
	s.runs[id] = r
	return r
}

func (s *Service) worker(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case j := <-s.queue:
			if _, err := s.runJob(ctx, j); err != nil {
				slog.Warn("job run failed", "jobType", j.Type, "runId", j.RunID, "err", err)
			}
		}
	}
}

func (s *Service) runJob(ctx context.Context, j job) (Run, error) {
	started := s.update(j.RunID, func(r *Run) {
		now := time.Now().UTC()
		r.Status = StatusRunning
		r.StartedAt = &now
	})
	s.persistStart(ctx, started)

	details, err := j.Run(ctx)
	finished := s.update(j.RunID, func(r *Run) {
		now := time.Now().UTC()
		r.CompletedAt = &now
		r.Details = details
		r.Status = StatusCompleted
		if err != nil {
			r.Status = StatusFailed
			r.Error = err.Error()
		}
	})
	s.persistFinish(ctx, finished)
	return finished, err
}

func (s *Service) persistStart(ctx context.Context, r Run) {
	if s.DB == nil {
		return
	}
	if _, err := s.DB.Exec(ctx, `
    INSERT INTO payroll_runs (id, job_type, status, submitted_at)
    VALUES ($1,$2,$3,$4)
    ON CONFLICT (id) DO UPDATE SET status = EXCLUDED.status
  `, r.ID, r.Type, string(r.Status), r.SubmittedAt); err != nil {
		slog.Warn("job run insert failed", "runId", r.ID, "err", err)
	}
}

func (s *Service) persistFinish(ctx context.Context, r Run) {
	if s.DB == nil {
		return
	}
	detailsJSON, err := json.Marshal(r.Details)
	if err != nil || r.Details == nil {
		if err != nil {
			slog.Warn("job details marshal failed", "err", err)
		}
		detailsJSON = []byte("{}")
	}
	if _, err := s.DB.Exec(ctx, `
    UPDATE payroll_runs
    SET status = $1, details_json = $2, error = $3, completed_at = $4
    WHERE id = $5
  `, string(r.Status), detailsJSON, r.Error, r.CompletedAt, r.ID); err != nil {
		slog.Warn("job run update failed", "runId", r.ID, "err", err)
	}
}
