package jobs

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/sync/errgroup"

	"perftrack/internal/domain/performance"
)

const JobProgressResync = "progress_resync"

const (
	runStatusRunning   = "running"
	runStatusCompleted = "completed"
	runStatusFailed    = "failed"
)

type TenantLister interface {
	ListTenantIDs(ctx context.Context) ([]string, error)
}

type ProgressResyncer interface {
	ResyncTenant(ctx context.Context, tenantID string) (performance.ResyncResult, error)
}

// Service runs background jobs one at a time. Runs are recorded in job_runs
// when a Postgres pool is attached; without one they are only logged.
type Service struct {
	DB       *pgxpool.Pool
	Tenants  TenantLister
	Resync   ProgressResyncer
	Interval time.Duration
	queue    chan job
}

type job struct {
	Type     string
	TenantID string
	Run      func(context.Context) (any, error)
}

func New(db *pgxpool.Pool, tenants TenantLister, resync ProgressResyncer, interval time.Duration) *Service {
	return &Service{
		DB:       db,
		Tenants:  tenants,
		Resync:   resync,
		Interval: interval,
		queue:    make(chan job, 128),
	}
}

// Run blocks until ctx is cancelled.
func (s *Service) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s.worker(ctx)
		return nil
	})
	if s.Interval > 0 {
		g.Go(func() error {
			s.scheduleResync(ctx, s.Interval)
			return nil
		})
	}
	return g.Wait()
}

func (s *Service) Enqueue(jobType, tenantID string, run func(context.Context) (any, error)) bool {
	select {
	case s.queue <- job{Type: jobType, TenantID: tenantID, Run: run}:
		return true
	default:
		slog.Warn("job queue full", "jobType", jobType, "tenantId", tenantID)
		return false
	}
}

func (s *Service) RunNow(ctx context.Context, jobType, tenantID string, run func(context.Context) (any, error)) (any, error) {
	return s.runJob(ctx, job{Type: jobType, TenantID: tenantID, Run: run})
}

// ResyncTenantNow recomputes the tenant's auto-calculated goals inline.
func (s *Service) ResyncTenantNow(ctx context.Context, tenantID string) (performance.ResyncResult, error) {
	details, err := s.RunNow(ctx, JobProgressResync, tenantID, s.resyncJob(tenantID))
	result, _ := details.(performance.ResyncResult)
	return result, err
}

// EnqueueResync schedules a tenant resync on the worker.
func (s *Service) EnqueueResync(tenantID string) bool {
	return s.Enqueue(JobProgressResync, tenantID, s.resyncJob(tenantID))
}

func (s *Service) resyncJob(tenantID string) func(context.Context) (any, error) {
	return func(ctx context.Context) (any, error) {
		return s.Resync.ResyncTenant(ctx, tenantID)
	}
}

func (s *Service) worker(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case j := <-s.queue:
			if _, err := s.runJob(ctx, j); err != nil {
				slog.Warn("job run failed", "jobType", j.Type, "tenantId", j.TenantID, "err", err)
			}
		}
	}
}

func (s *Service) runJob(ctx context.Context, j job) (any, error) {
	started := time.Now()
	runID := s.startRun(ctx, j)

	details, err := j.Run(ctx)
	status := runStatusCompleted
	if err != nil {
		status = runStatusFailed
	}
	s.finishRun(ctx, runID, status, details)
	slog.Info("job run finished", "jobType", j.Type, "tenantId", j.TenantID, "status", status, "duration_ms", time.Since(started).Milliseconds())
	return details, err
}

func (s *Service) startRun(ctx context.Context, j job) string {
	if s.DB == nil {
		return ""
	}
	var runID string
	if err := s.DB.QueryRow(ctx, `
    INSERT INTO job_runs (tenant_id, job_type, status)
    VALUES ($1,$2,$3)
    RETURNING id
  `, j.TenantID, j.Type, runStatusRunning).Scan(&runID); err != nil {
		slog.Warn("job run insert failed", "err", err)
	}
	return runID
}

func (s *Service) finishRun(ctx context.Context, runID, status string, details any) {
	if s.DB == nil || runID == "" {
		return
	}
	detailsJSON, err := json.Marshal(details)
	if err != nil {
		slog.Warn("job details marshal failed", "err", err)
		detailsJSON = []byte("{}")
	}
	if _, err := s.DB.Exec(ctx, `
    UPDATE job_runs
    SET status = $1, details_json = $2, completed_at = now()
    WHERE id = $3
  `, status, detailsJSON, runID); err != nil {
		slog.Warn("job run update failed", "err", err)
	}
}

func (s *Service) scheduleResync(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			tenants, err := s.Tenants.ListTenantIDs(ctx)
			if err != nil {
				slog.Warn("resync scheduler tenant lookup failed", "err", err)
				continue
			}
			for _, tenantID := range tenants {
				s.EnqueueResync(tenantID)
			}
		}
	}
}
