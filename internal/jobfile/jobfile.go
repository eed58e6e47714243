package jobfile

import (
	"fmt"
	"os"
	"path/filepath"
)

// JobFile is a transient descriptor tying one file on disk to the job it
// belongs to. It is recomputed from folder layout and file content whenever
// needed and never persisted.
type JobFile struct {
	// JobID is the owning job, or 0 when no association could be determined.
	// Real job ids are positive.
	JobID int64
	Path  string
}

// HasJob reports whether the file could be associated with a job.
func (f JobFile) HasJob() bool {
	return f.JobID > 0
}

// Name returns the file name component of the path.
func (f JobFile) Name() string {
	return filepath.Base(f.Path)
}

// Exists reports whether the file is currently present on disk.
func (f JobFile) Exists() bool {
	_, err := os.Lstat(f.Path)
	return err == nil
}

func (f JobFile) String() string {
	if !f.HasJob() {
		return fmt.Sprintf("file for unknown job at %q", f.Path)
	}
	return fmt.Sprintf("file for job %d at %q", f.JobID, f.Path)
}
