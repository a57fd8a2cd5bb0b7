package pipeline

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/cjeanneret/TurnGo/internal/debug"
)

// ExportJob asks for one captured original to be copied into an output
// directory under its canonical name.
type ExportJob struct {
	SourcePath string
	Seq        uint32
	OutputDir  string
}

// RunExportPool consumes export jobs until the channel closes, copying
// each concurrently. Failures are logged per job; one failing export
// does not abort the others.
func RunExportPool(jobs <-chan ExportJob) {
	var wg sync.WaitGroup
	for job := range jobs {
		wg.Add(1)
		go func(j ExportJob) {
			defer wg.Done()
			if err := exportOne(j); err != nil {
				debug.Error(fmt.Errorf("export seq=%d: %w", j.Seq, err))
			}
		}(job)
	}
	wg.Wait()
}

func exportOne(job ExportJob) error {
	if err := os.MkdirAll(job.OutputDir, 0o755); err != nil {
		return fmt.Errorf("create output dir %s: %w", job.OutputDir, err)
	}
	dest := filepath.Join(job.OutputDir, fmt.Sprintf("image_%d.jpg", job.Seq))

	src, err := os.Open(job.SourcePath)
	if err != nil {
		return fmt.Errorf("open %s: %w", job.SourcePath, err)
	}
	defer src.Close()

	dst, err := os.Create(dest)
	if err != nil {
		return fmt.Errorf("create %s: %w", dest, err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		return fmt.Errorf("copy %s to %s: %w", job.SourcePath, dest, err)
	}
	debug.Verbose("exported seq=%d -> %s", job.Seq, dest)
	return nil
}
