package worker

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"sync"

	"perseo/internal/cfdi"
)

type StampJob struct {
	Path   string
	Issuer cfdi.Issuer
}

// StampResult is one parsed receipt. Err is set when the file could not be
// read or parsed; Problem when it failed validation.
type StampResult struct {
	Path        string
	FileRFC     string
	Comprobante *cfdi.Comprobante
	Raw         []byte
	Problem     cfdi.Problem
	Err         error
}

func StampWorker(ctx context.Context, wg *sync.WaitGroup, jobs <-chan StampJob, out chan<- StampResult) {
	defer wg.Done()

	for job := range jobs {
		select {
		case <-ctx.Done():
			return
		case out <- readStamp(job):
		}
	}
}

func readStamp(job StampJob) StampResult {
	res := StampResult{Path: job.Path, FileRFC: cfdi.RFCFromFilename(filepath.Base(job.Path))}

	raw, err := os.ReadFile(job.Path)
	if err != nil {
		res.Err = err
		return res
	}
	res.Raw = raw

	c, err := cfdi.Parse(bytes.NewReader(raw))
	if err != nil {
		res.Err = err
		return res
	}
	res.Comprobante = c
	res.Problem = cfdi.Check(c, res.FileRFC, job.Issuer)
	return res
}
