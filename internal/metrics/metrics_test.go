package metrics

import (
	"bytes"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestCollectFileMetrics(t *testing.T) {
	in := make(chan FileMetric, 2)
	done := make(chan struct{})

	before := testutil.ToFloat64(FilesProcessed.WithLabelValues("test-collect", StatusSuccess))
	go CollectFileMetrics(zap.NewNop(), in, done)

	in <- FileMetric{Job: "test-collect", Name: "rows 1-100", ParsedRows: 100, Status: StatusSuccess}
	in <- FileMetric{Job: "test-collect", Name: "rows 101-150", ParsedRows: 48, ErrorCount: 2, Status: StatusSuccess}
	close(in)
	<-done

	assert.Equal(t, before+2, testutil.ToFloat64(FilesProcessed.WithLabelValues("test-collect", StatusSuccess)))
	assert.Equal(t, float64(148), testutil.ToFloat64(RowsProcessed.WithLabelValues("test-collect")))
}

func TestProgressBar(t *testing.T) {
	Reset(10)
	IncProcessed(5)
	IncInserted(3)
	assert.Equal(t, int64(3), atomic.LoadInt64(&InsertedRows))

	var buf bytes.Buffer
	done := make(chan struct{})
	close(done)
	StartProgressBar(&buf, 10, done)
	assert.Contains(t, buf.String(), "5/10 filas")
	assert.Contains(t, buf.String(), " 50.00%")

	render(&buf, 1, 0, time.Now())
}
