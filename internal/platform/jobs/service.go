package jobs

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

const JobSessionCleanup = "session_cleanup"

const maxRecentRuns = 20

// SessionCleaner is the part of the session store the cleanup job needs.
type SessionCleaner interface {
	DeleteExpired(ctx context.Context, before time.Time) (int64, error)
}

type Run struct {
	Type        string    `json:"type"`
	Status      string    `json:"status"`
	Details     any       `json:"details,omitempty"`
	Error       string    `json:"error,omitempty"`
	StartedAt   time.Time `json:"startedAt"`
	CompletedAt time.Time `json:"completedAt"`
}

type Service struct {
	Sessions        SessionCleaner
	CleanupInterval time.Duration
	queue           chan job
	now             func() time.Time

	mu     sync.Mutex
	recent []Run
}

type job struct {
	Type string
	Run  func(context.Context) (any, error)
}

func New(sessions SessionCleaner, cleanupInterval time.Duration) *Service {
	return &Service{
		Sessions:        sessions,
		CleanupInterval: cleanupInterval,
		queue:           make(chan job, 128),
		now:             time.Now,
	}
}

// Start runs the worker and the schedulers until ctx ends.
func (s *Service) Start(ctx context.Context) {
	go s.worker(ctx)
	if s.CleanupInterval > 0 && s.Sessions != nil {
		go s.scheduleCleanup(ctx, s.CleanupInterval)
	}
}

func (s *Service) Enqueue(jobType string, run func(context.Context) (any, error)) {
	select {
	case s.queue <- job{Type: jobType, Run: run}:
	default:
		slog.Warn("job queue full", "jobType", jobType)
	}
}

func (s *Service) RunNow(ctx context.Context, jobType string, run func(context.Context) (any, error)) (any, error) {
	return s.runJob(ctx, job{Type: jobType, Run: run})
}

// CleanupSessions deletes sessions that expired or were revoked before now.
func (s *Service) CleanupSessions(ctx context.Context) (any, error) {
	deleted, err := s.Sessions.DeleteExpired(ctx, s.now())
	return map[string]any{"deleted": deleted}, err
}

// Recent returns the latest runs, newest last.
func (s *Service) Recent() []Run {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Run, len(s.recent))
	copy(out, s.recent)
	return out
}

func (s *Service) worker(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case j := <-s.queue:
			if _, err := s.runJob(ctx, j); err != nil {
				slog.Warn("job run failed", "jobType", j.Type, "err", err)
			}
		}
	}
}

func (s *Service) runJob(ctx context.Context, j job) (any, error) {
	run := Run{Type: j.Type, Status: "running", StartedAt: s.now()}

	details, err := j.Run(ctx)
	run.Status = "completed"
	if err != nil {
		run.Status = "failed"
		run.Error = err.Error()
	}
	run.Details = details
	run.CompletedAt = s.now()
	s.remember(run)
	return details, err
}

func (s *Service) remember(run Run) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.recent = append(s.recent, run)
	if len(s.recent) > maxRecentRuns {
		s.recent = s.recent[len(s.recent)-maxRecentRuns:]
	}
}

func (s *Service) scheduleCleanup(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Enqueue(JobSessionCleanup, s.CleanupSessions)
		}
	}
}
