package jobfile

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/google/uuid"
)

// UnknownJobFolderName is the subfolder holding files that could not be
// associated with any job.
const UnknownJobFolderName = "UNKNOWN"

// ErrJobUnknown signals that a job id has no directory in a folder. Callers
// that query many folders for the same id are expected to catch it per
// folder.
var ErrJobUnknown = errors.New("job id not known in this folder")

// ErrJobNotEmpty signals that a job directory still holds entries when it was
// expected to be empty. This means a concurrent writer raced a data move and
// must be investigated rather than retried.
var ErrJobNotEmpty = errors.New("job directory not empty")

// Destination allocates collision-free paths for incoming job files. The
// returned path never exists; its parent directory may not exist yet.
type Destination interface {
	AvailablePath(JobFile) string
}

// SafeFolder is a flat folder that renames incoming files to avoid clashes.
type SafeFolder struct {
	Path string
}

// NewSafeFolder returns a SafeFolder rooted at path. The directory is created
// lazily by transfer operations, not here.
func NewSafeFolder(path string) *SafeFolder {
	return &SafeFolder{Path: path}
}

// AvailablePath returns an unused path inside the folder, preferring the
// file's own name and falling back to random names on collision.
func (s *SafeFolder) AvailablePath(file JobFile) string {
	return availableName(filepath.Join(s.Path, file.Name()))
}

// availableName substitutes random names until the candidate does not exist.
// A collision on a fresh uuid is astronomically unlikely, so the loop is not
// a practical failure mode.
func availableName(candidate string) string {
	for {
		if _, err := os.Lstat(candidate); err != nil {
			return candidate
		}
		candidate = filepath.Join(filepath.Dir(candidate), uuid.NewString())
	}
}

// JobFolder partitions files into one subfolder per job id. Files without a
// job id live under UNKNOWN.
type JobFolder struct {
	Path string
}

// NewJobFolder returns a JobFolder rooted at path.
func NewJobFolder(path string) *JobFolder {
	return &JobFolder{Path: path}
}

// AvailablePath returns an unused path under the subfolder for the file's
// job id (or the UNKNOWN bucket).
func (j *JobFolder) AvailablePath(file JobFile) string {
	return availableName(filepath.Join(j.JobPath(file.JobID), file.Name()))
}

// JobPath returns the directory holding files for the given job id. The
// directory may not exist.
func (j *JobFolder) JobPath(jobID int64) string {
	if jobID > 0 {
		return filepath.Join(j.Path, strconv.FormatInt(jobID, 10))
	}
	return filepath.Join(j.Path, UnknownJobFolderName)
}

// JobIDs returns the id of each job that has files in this folder.
// Subfolders whose names do not parse as integers are tolerated as foreign
// directories and silently skipped.
func (j *JobFolder) JobIDs() ([]int64, error) {
	entries, err := os.ReadDir(j.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("list job folder %s: %w", j.Path, err)
	}
	var ids []int64
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		id, err := strconv.ParseInt(entry.Name(), 10, 64)
		if err != nil || id <= 0 {
			continue
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// Files returns every file currently stored for the given job id. An unknown
// job id yields an empty result, not an error.
func (j *JobFolder) Files(jobID int64) ([]JobFile, error) {
	return j.filesIn(j.JobPath(jobID), jobID)
}

// FileCount returns the number of files stored for the given job id, 0 for
// unknown jobs.
func (j *JobFolder) FileCount(jobID int64) (int, error) {
	files, err := j.Files(jobID)
	if err != nil {
		return 0, err
	}
	return len(files), nil
}

// UnknownJobFiles returns the files that could not be associated with any
// job. Their JobID is 0.
func (j *JobFolder) UnknownJobFiles() ([]JobFile, error) {
	return j.filesIn(filepath.Join(j.Path, UnknownJobFolderName), 0)
}

func (j *JobFolder) filesIn(dir string, jobID int64) ([]JobFile, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("list %s: %w", dir, err)
	}
	var files []JobFile
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		files = append(files, JobFile{JobID: jobID, Path: filepath.Join(dir, entry.Name())})
	}
	return files, nil
}

// RemoveEmptyJobID removes the directory for a job id after its files have
// been moved out. The id no longer shows up in JobIDs afterwards. Fails with
// ErrJobUnknown when the id has no directory and ErrJobNotEmpty when stray
// entries remain, which would indicate silent data loss risk if ignored.
func (j *JobFolder) RemoveEmptyJobID(jobID int64) error {
	path := j.JobPath(jobID)
	err := os.Remove(path)
	switch {
	case err == nil:
		return nil
	case os.IsNotExist(err):
		return fmt.Errorf("remove job %d from %s: %w", jobID, j.Path, ErrJobUnknown)
	default:
		return fmt.Errorf("remove job %d from %s: %w: %v", jobID, j.Path, ErrJobNotEmpty, err)
	}
}
