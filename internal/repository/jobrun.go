package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"perseo/internal/model"
)

const jobRunSelect = "SELECT id, process_id, job, quincena, status, started_at, finished_at, error_message FROM job_runs"

// JobRun returns the lock row of a job and period.
func (s *Store) JobRun(ctx context.Context, job, quincena string) (model.JobRun, error) {
	var (
		r        model.JobRun
		finished sql.NullTime
		msg      sql.NullString
	)
	err := s.c.QueryRow(ctx, jobRunSelect+" WHERE job = @job AND quincena = @quincena",
		sql.Named("job", job), sql.Named("quincena", quincena),
	).Scan(&r.ID, &r.ProcessID, &r.Job, &r.Quincena, &r.Status, &r.StartedAt, &finished, &msg)
	if err != nil {
		return r, notFound(err, "job "+job+" "+quincena)
	}
	if finished.Valid {
		t := finished.Time
		r.FinishedAt = &t
	}
	r.ErrorMessage = msg.String
	return r, nil
}

func (s *Store) InsertJobRun(ctx context.Context, r model.JobRun) (int64, error) {
	return s.c.InsertID(ctx, "job_runs",
		[]string{"process_id", "job", "quincena", "status", "started_at"},
		sql.Named("process_id", r.ProcessID),
		sql.Named("job", r.Job),
		sql.Named("quincena", r.Quincena),
		sql.Named("status", r.Status),
		sql.Named("started_at", r.StartedAt),
	)
}

// RestartJobRun marks an existing lock row RUNNING for a new process.
func (s *Store) RestartJobRun(ctx context.Context, id int64, processID string, started time.Time) error {
	res, err := s.c.Exec(ctx, `UPDATE job_runs SET process_id = @pid, status = @status,
		started_at = @started, finished_at = NULL, error_message = NULL WHERE id = @id`,
		sql.Named("pid", processID), sql.Named("status", model.JobRunning),
		sql.Named("started", started), sql.Named("id", id))
	if err != nil {
		return fmt.Errorf("restart job %d: %w", id, err)
	}
	return expectOne(res, "job_runs", id)
}

// FinishJobRun closes the lock row owned by processID.
func (s *Store) FinishJobRun(ctx context.Context, job, quincena, processID, status, message string, finished time.Time) error {
	var msg any
	if message != "" {
		msg = message
	}
	_, err := s.c.Exec(ctx, `UPDATE job_runs SET status = @status, finished_at = @finished, error_message = @msg
		WHERE job = @job AND quincena = @quincena AND process_id = @pid`,
		sql.Named("status", status), sql.Named("finished", finished), sql.Named("msg", msg),
		sql.Named("job", job), sql.Named("quincena", quincena), sql.Named("pid", processID))
	if err != nil {
		return fmt.Errorf("finish job %s %s: %w", job, quincena, err)
	}
	return nil
}
