package worker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"perseo/internal/importer"
	"perseo/internal/metrics"
)

// RowJob is the half-open row range [Start, End) of a sheet.
type RowJob struct {
	Job   string
	Sheet importer.Sheet
	Start int
	End   int
}

func (j RowJob) Name() string {
	return fmt.Sprintf("filas %d-%d", j.Start, j.End-1)
}

type RowError struct {
	Line int
	Err  error
}

// SplitRows cuts the rows from first up to the end of the sheet in chunks of size.
func SplitRows(job string, sheet importer.Sheet, first, size int) []RowJob {
	if size <= 0 {
		size = 500
	}
	var out []RowJob
	for start := first; start < sheet.Rows(); start += size {
		out = append(out, RowJob{Job: job, Sheet: sheet, Start: start, End: min(start+size, sheet.Rows())})
	}
	return out
}

func ParseWorker(
	ctx context.Context,
	wg *sync.WaitGroup,
	jobs <-chan RowJob,
	rows chan<- importer.PayrollRow,
	rowErrors chan<- RowError,
	fileMetrics chan<- metrics.FileMetric,
	log *zap.Logger,
) {
	defer wg.Done()

	for job := range jobs {
		if err := parseRange(ctx, job, rows, rowErrors, fileMetrics); err != nil {
			log.Warn("parse aborted", zap.String("range", job.Name()), zap.Error(err))
			return
		}
	}
}

func parseRange(
	ctx context.Context,
	job RowJob,
	rows chan<- importer.PayrollRow,
	rowErrors chan<- RowError,
	fileMetrics chan<- metrics.FileMetric,
) error {
	start := time.Now()

	var parsed, errCount int64

	for line := job.Start; line < job.End; line++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		metrics.IncProcessed(1)

		row, err := importer.ParseRow(job.Sheet, line)
		if err != nil {
			errCount++
			rowErrors <- RowError{Line: line, Err: err}
			continue
		}

		rows <- row
		parsed++
	}

	status := metrics.StatusSuccess
	if errCount > 0 {
		status = metrics.StatusFailed
	}

	fileMetrics <- metrics.FileMetric{
		Job:        job.Job,
		Name:       job.Name(),
		StartTime:  start,
		EndTime:    time.Now(),
		Duration:   time.Since(start),
		TotalRows:  int64(job.End - job.Start),
		ParsedRows: parsed,
		ErrorCount: errCount,
		Status:     status,
	}

	return nil
}
