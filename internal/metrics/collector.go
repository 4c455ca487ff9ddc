package metrics

import "go.uber.org/zap"

// CollectFileMetrics logs every metric and feeds the prometheus counters
// until in is closed.
func CollectFileMetrics(log *zap.Logger, in <-chan FileMetric, done chan<- struct{}) {
	for m := range in {
		FilesProcessed.WithLabelValues(m.Job, m.Status).Inc()
		RowsProcessed.WithLabelValues(m.Job).Add(float64(m.ParsedRows))

		log.Debug("file metrics",
			zap.String("job", m.Job),
			zap.String("name", m.Name),
			zap.String("status", m.Status),
			zap.Int64("rows", m.TotalRows),
			zap.Int64("parsed", m.ParsedRows),
			zap.Int64("errors", m.ErrorCount),
			zap.Duration("duration", m.Duration),
		)
	}
	close(done)
}
