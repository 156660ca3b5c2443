package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/coachhub/coachhub/internal/domain/job"
	"github.com/coachhub/coachhub/internal/jobs"
	"github.com/coachhub/coachhub/internal/notifications"
	"github.com/coachhub/coachhub/internal/observability"
)

type JobsRepository interface {
	ClaimNext(ctx context.Context, workerID string) (job.Job, error)
	MarkDone(ctx context.Context, id string) error
	MarkFailed(ctx context.Context, id, errMsg string) error
	Reschedule(ctx context.Context, id string, runAt time.Time, errMsg string) error
	RequeueStaleProcessing(ctx context.Context, lockTTL time.Duration) (int64, error)
}

type Heartbeater interface {
	Heartbeat(ctx context.Context, workerID string, ttl time.Duration) error
}

type Config struct {
	WorkerID     string
	PollInterval time.Duration
	LockTTL      time.Duration
}

type Worker struct {
	cfg       Config
	repo      JobsRepository
	notifier  notifications.Notifier
	heartbeat Heartbeater
	prom      *observability.Prom
	logger    *slog.Logger
}

func New(cfg Config, repo JobsRepository, notifier notifications.Notifier, heartbeat Heartbeater, prom *observability.Prom, logger *slog.Logger) *Worker {
	if cfg.WorkerID == "" {
		host, _ := os.Hostname()
		cfg.WorkerID = fmt.Sprintf("%s-%d", host, os.Getpid())
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = time.Second
	}
	if cfg.LockTTL <= 0 {
		cfg.LockTTL = 30 * time.Second
	}

	return &Worker{
		cfg:       cfg,
		repo:      repo,
		notifier:  notifier,
		heartbeat: heartbeat,
		prom:      prom,
		logger:    logger,
	}
}

// Run polls for jobs until ctx is cancelled. Each tick drains the queue
// (claim until empty), requeues stale locks, and refreshes the heartbeat.
func (w *Worker) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.cfg.PollInterval)
	defer ticker.Stop()

	w.logger.Info("worker started", "worker_id", w.cfg.WorkerID, "poll_interval", w.cfg.PollInterval.String())

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("worker received shutdown signal", "worker_id", w.cfg.WorkerID)
			return nil

		case <-ticker.C:
			if w.heartbeat != nil {
				if err := w.heartbeat.Heartbeat(ctx, w.cfg.WorkerID, 3*w.cfg.PollInterval); err != nil {
					w.logger.Warn("heartbeat failed", "error", err)
				}
			}

			if n, err := w.repo.RequeueStaleProcessing(ctx, w.cfg.LockTTL); err != nil {
				w.logger.Error("requeue stale failed", "error", err)
			} else if n > 0 {
				w.logger.Warn("requeued stale jobs", "count", n)
			}

			for {
				processed, err := w.ProcessOne(ctx)

				if err != nil {
					w.logger.Error("claim error", "error", err)
					break
				}

				if !processed {
					break
				}
			}
		}
	}
}

// ProcessOne claims and executes at most one job. It reports (false, nil)
// when the queue is empty.
func (w *Worker) ProcessOne(ctx context.Context) (bool, error) {
	claimCtx, cancel := context.WithTimeout(ctx, 2*time.Second)

	j, err := w.repo.ClaimNext(claimCtx, w.cfg.WorkerID)
	cancel()

	if err != nil {
		if errors.Is(err, job.ErrJobNotFound) {
			return false, nil
		}
		return false, err
	}

	w.logger.Info("claimed job", "job_id", j.ID, "job_type", j.Type, "attempt", j.Attempts)

	err = w.execute(ctx, j)

	if err != nil {
		w.handleFailure(ctx, j, err)
		return true, nil
	}

	if err := w.repo.MarkDone(ctx, j.ID); err != nil {
		_ = w.repo.MarkFailed(ctx, j.ID, "mark_done_failed: "+err.Error())
		return true, err
	}

	return true, nil
}

func (w *Worker) execute(ctx context.Context, j job.Job) error {
	run := func() error {
		switch j.Type {
		case jobs.TypeBookingConfirmation:
			p, err := jobs.DecodeBookingConfirmation(j.Payload)

			if err != nil {
				return err
			}

			return w.notifier.SendBookingConfirmation(ctx, notifications.SendBookingConfirmationInput{
				Email:      p.Email,
				Name:       p.Name,
				CourseID:   p.CourseID,
				CourseName: p.CourseName,
				BookingID:  p.BookingID,
			})
		default:
			return jobs.ErrUnknownJobType
		}
	}

	if w.prom != nil {
		return w.prom.ObserveJob(j.Type, func() (string, error) {
			err := run()

			switch {
			case err == nil:
				return "done", nil
			case isPermanent(err, j):
				return "failed", err
			default:
				return "retry", err
			}
		})
	}

	return run()
}

// isPermanent decides whether a failure is worth retrying. Malformed payloads
// and unknown types never heal on retry.
func isPermanent(err error, j job.Job) bool {
	if errors.Is(err, jobs.ErrInvalidJobPayload) || errors.Is(err, jobs.ErrUnknownJobType) {
		return true
	}
	return j.Attempts+1 >= j.MaxAttempts
}

func (w *Worker) handleFailure(ctx context.Context, j job.Job, execErr error) {
	if isPermanent(execErr, j) {
		w.logger.Error("job failed permanently", "job_id", j.ID, "job_type", j.Type, "error", execErr)

		if err := w.repo.MarkFailed(ctx, j.ID, execErr.Error()); err != nil {
			w.logger.Error("mark failed error", "job_id", j.ID, "error", err)
		}
		return
	}

	delay := ExponentialBackoff(j.Attempts)

	w.logger.Warn("job failed, rescheduling", "job_id", j.ID, "job_type", j.Type,
		"attempt", j.Attempts, "retry_in", delay.String(), "error", execErr)

	if err := w.repo.Reschedule(ctx, j.ID, time.Now().UTC().Add(delay), execErr.Error()); err != nil {
		w.logger.Error("reschedule error", "job_id", j.ID, "error", err)
	}
}
