package logger

import (
	"os"
	"path/filepath"
	"sync"
	"time"
)

// DailyWriter appends to {dir}/{name}-{YYYY-MM-DD}.log and switches files
// when the day changes.
type DailyWriter struct {
	dir  string
	name string
	now  func() time.Time

	mu   sync.Mutex
	date string
	file *os.File
}

func NewDailyWriter(dir, name string) (*DailyWriter, error) {
	w := &DailyWriter{dir: dir, name: name, now: time.Now}
	if err := w.rotateIfNeeded(); err != nil {
		return nil, err
	}
	return w, nil
}

func (w *DailyWriter) rotateIfNeeded() error {
	today := w.now().Format("2006-01-02")

	if w.file != nil && w.date == today {
		return nil
	}

	if err := os.MkdirAll(w.dir, 0755); err != nil {
		return err
	}

	if w.file != nil {
		_ = w.file.Close()
	}

	f, err := os.OpenFile(
		w.Path(today),
		os.O_CREATE|os.O_WRONLY|os.O_APPEND,
		0644,
	)
	if err != nil {
		return err
	}

	w.file = f
	w.date = today
	return nil
}

// Path is the file used for the given day.
func (w *DailyWriter) Path(day string) string {
	return filepath.Join(w.dir, w.name+"-"+day+".log")
}

func (w *DailyWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.rotateIfNeeded(); err != nil {
		return 0, err
	}
	return w.file.Write(p)
}

func (w *DailyWriter) Sync() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.file == nil {
		return nil
	}
	return w.file.Sync()
}

func (w *DailyWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.file == nil {
		return nil
	}
	err := w.file.Close()
	w.file = nil
	return err
}
