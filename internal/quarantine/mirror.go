package quarantine

import (
	"fmt"
	"os"

	"anonpipe/internal/jobfile"
)

// QuarantinedJobFile is a job file annotated with the mirror it was found
// in. The folder reference is for reporting only; the file is not owned by
// it in any transactional sense.
type QuarantinedJobFile struct {
	jobfile.JobFile
	Folder *MirrorFolder
}

// MirrorFolder is a job-partitioned internal mirror of one external
// quarantine folder.
type MirrorFolder struct {
	jobfile.JobFolder
	Description string
}

// NewMirrorFolder returns a mirror rooted at path carrying the origin
// folder's description.
func NewMirrorFolder(path, description string) *MirrorFolder {
	return &MirrorFolder{JobFolder: jobfile.JobFolder{Path: path}, Description: description}
}

func (m *MirrorFolder) String() string {
	return fmt.Sprintf("quarantine mirror at %s", m.Path)
}

// Files returns the files stored for the given job id, each tied back to
// this mirror. Unlike the base JobFolder contract it fails with
// jobfile.ErrJobUnknown when the id has no directory here: the same job
// legitimately exists in some mirrors and not others, and callers decide per
// mirror whether that matters.
func (m *MirrorFolder) Files(jobID int64) ([]QuarantinedJobFile, error) {
	if _, err := os.Stat(m.JobPath(jobID)); err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("job %d in %s: %w", jobID, m.Path, jobfile.ErrJobUnknown)
		}
		return nil, fmt.Errorf("stat job %d in %s: %w", jobID, m.Path, err)
	}
	files, err := m.JobFolder.Files(jobID)
	if err != nil {
		return nil, err
	}
	return m.wrap(files), nil
}

// UnknownJobFiles returns the mirror's unknown-job bucket tied back to this
// mirror.
func (m *MirrorFolder) UnknownJobFiles() ([]QuarantinedJobFile, error) {
	files, err := m.JobFolder.UnknownJobFiles()
	if err != nil {
		return nil, err
	}
	return m.wrap(files), nil
}

func (m *MirrorFolder) wrap(files []jobfile.JobFile) []QuarantinedJobFile {
	wrapped := make([]QuarantinedJobFile, 0, len(files))
	for _, file := range files {
		wrapped = append(wrapped, QuarantinedJobFile{JobFile: file, Folder: m})
	}
	return wrapped
}
