package orchestrator

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"perseo/internal/db"
	"perseo/internal/metrics"
	"perseo/internal/model"
	"perseo/internal/repository"
)

var (
	ErrJobRunning = errors.New("el proceso ya está en ejecución")
	ErrJobDone    = errors.New("el proceso ya terminó para esta quincena")
)

// A RUNNING lock older than this belongs to a dead process.
const staleJobAfter = time.Hour

// AcquireJob takes the job_runs lock of job and quincena for processID.
// A live RUNNING lock fails with ErrJobRunning. With once set a DONE lock
// fails with ErrJobDone.
func (s *Service) AcquireJob(ctx context.Context, job, quincena, processID string, once bool) error {
	return s.DB.WithTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable}, func(tx *db.Tx) error {
		store := repository.New(&tx.Conn)
		now := s.now()

		run, err := store.JobRun(ctx, job, quincena)
		if errors.Is(err, repository.ErrNotFound) {
			_, err = store.InsertJobRun(ctx, model.JobRun{
				ProcessID: processID,
				Job:       job,
				Quincena:  quincena,
				Status:    model.JobRunning,
				StartedAt: now,
			})
			return err
		}
		if err != nil {
			return err
		}

		switch run.Status {
		case model.JobRunning:
			if now.Sub(run.StartedAt) < staleJobAfter {
				return fmt.Errorf("%s %s: %w (proceso %s)", job, quincena, ErrJobRunning, run.ProcessID)
			}
			s.Log.Warn("taking over stale job", zap.String("job", job), zap.String("quincena", quincena),
				zap.String("previous", run.ProcessID))
		case model.JobDone:
			if once {
				return fmt.Errorf("%s %s: %w", job, quincena, ErrJobDone)
			}
		}
		return store.RestartJobRun(ctx, run.ID, processID, now)
	})
}

// FinishJob marks the lock DONE, or FAILED with the error message.
func (s *Service) FinishJob(ctx context.Context, job, quincena, processID string, runErr error) error {
	status, msg := model.JobDone, ""
	if runErr != nil {
		status, msg = model.JobFailed, runErr.Error()
	}
	return repository.New(&s.DB.Conn).FinishJobRun(ctx, job, quincena, processID, status, msg, s.now())
}

// runJob wraps fn with the job lock and the duration histogram.
func (s *Service) runJob(ctx context.Context, job, quincena string, once bool, fn func(ctx context.Context) error) error {
	processID := uuid.New().String()
	log := s.Log.With(zap.String("job", job), zap.String("quincena", quincena), zap.String("process_id", processID))

	if err := s.AcquireJob(ctx, job, quincena, processID, once); err != nil {
		return err
	}

	start := time.Now()
	log.Info("job started")

	runErr := fn(ctx)
	metrics.ObserveJob(job, start)

	if err := s.FinishJob(context.WithoutCancel(ctx), job, quincena, processID, runErr); err != nil {
		log.Error("job lock not released", zap.Error(err))
	}
	if runErr != nil {
		log.Error("job failed", zap.Error(runErr))
		return runErr
	}
	log.Info("job done", zap.Duration("elapsed", time.Since(start)))
	return nil
}
