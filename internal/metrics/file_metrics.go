package metrics

import "time"

const (
	StatusSuccess = "SUCCESS"
	StatusFailed  = "FAILED"
)

// FileMetric summarizes one unit of batch work: a row range of the payroll
// sheet or one stamped receipt.
type FileMetric struct {
	Job        string
	Name       string
	StartTime  time.Time
	EndTime    time.Time
	Duration   time.Duration
	TotalRows  int64
	ParsedRows int64
	ErrorCount int64
	Status     string
}
