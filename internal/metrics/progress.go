package metrics

import (
	"fmt"
	"io"
	"strings"
	"sync/atomic"
	"time"
)

var (
	TotalRows     int64
	ProcessedRows int64
	InsertedRows  int64
)

// Reset zeroes the batch counters before a job starts.
func Reset(total int64) {
	atomic.StoreInt64(&TotalRows, total)
	atomic.StoreInt64(&ProcessedRows, 0)
	atomic.StoreInt64(&InsertedRows, 0)
}

func IncProcessed(n int64) {
	atomic.AddInt64(&ProcessedRows, n)
}

func IncInserted(n int64) {
	atomic.AddInt64(&InsertedRows, n)
}

// StartProgressBar redraws the bar on w until done is closed.
func StartProgressBar(w io.Writer, total int64, done <-chan struct{}) {
	start := time.Now()
	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			render(w, atomic.LoadInt64(&ProcessedRows), total, start)
			fmt.Fprintln(w)
			return
		case <-ticker.C:
			render(w, atomic.LoadInt64(&ProcessedRows), total, start)
		}
	}
}

func render(w io.Writer, current, total int64, start time.Time) {
	if total <= 0 {
		return
	}
	if current > total {
		current = total
	}

	percent := float64(current) / float64(total)

	barWidth := 30
	filled := min(int(percent*float64(barWidth)), barWidth)

	bar := strings.Repeat("#", filled) +
		strings.Repeat("-", barWidth-filled)

	elapsed := time.Since(start).Seconds()
	speed := 0.0
	if elapsed > 0 {
		speed = float64(current) / elapsed
	}

	fmt.Fprintf(w,
		"\r[%s] %6.2f%% | %d/%d filas | %.0f filas/s | %s",
		bar,
		percent*100,
		current,
		total,
		speed,
		time.Since(start).Truncate(time.Second),
	)
}
