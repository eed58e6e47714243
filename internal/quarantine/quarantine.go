package quarantine

import (
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"slices"

	"anonpipe/internal/jobfile"
	"anonpipe/internal/logging"
)

// Quarantine orchestrates all quarantine folders of the external engine and
// their internal mirrors. It answers questions such as "how many files are
// quarantined for job X" that the engine itself cannot, because it is
// unaware of jobs.
//
// Three sets of folders per external quarantine:
//
//   - the engine's own folder, which it fills and this system drains;
//   - base/active/<name>, the job-partitioned mirror most queries run over;
//   - base/archived/<name>, files moved out of the way but kept.
//
// The folder mapping is built once at construction and never changes.
type Quarantine struct {
	BaseDir string

	mirrors []mirrorPair
	logger  *slog.Logger
}

type mirrorPair struct {
	ctp     CTPFolder
	active  *MirrorFolder
	archive *MirrorFolder
}

// New builds a quarantine rooted at baseDir mirroring the given external
// folders.
func New(baseDir string, ctpFolders []CTPFolder, logger *slog.Logger) *Quarantine {
	q := &Quarantine{
		BaseDir: baseDir,
		logger:  logging.NewComponentLogger(logger, "quarantine"),
	}
	for _, ctp := range ctpFolders {
		q.mirrors = append(q.mirrors, mirrorPair{
			ctp:     ctp,
			active:  NewMirrorFolder(filepath.Join(baseDir, "active", ctp.Name()), ctp.Description),
			archive: NewMirrorFolder(filepath.Join(baseDir, "archived", ctp.Name()), "Archive for "+ctp.Description),
		})
	}
	return q
}

func (q *Quarantine) String() string {
	return fmt.Sprintf("quarantine at %s", q.BaseDir)
}

// ActiveMirrors returns the active mirror folders in configuration order.
func (q *Quarantine) ActiveMirrors() []*MirrorFolder {
	mirrors := make([]*MirrorFolder, 0, len(q.mirrors))
	for _, pair := range q.mirrors {
		mirrors = append(mirrors, pair.active)
	}
	return mirrors
}

// Scrape drains every external quarantine folder into its active mirror,
// sorting files per job by their embedded metadata. Repeated calls with no
// new external files are no-ops. A source vanishing mid-move surfaces as an
// I/O error; the next scrape re-derives state from what is on disk.
func (q *Quarantine) Scrape() error {
	for _, pair := range q.mirrors {
		files, err := pair.ctp.JobFiles()
		if err != nil {
			return err
		}
		for _, file := range files {
			if err := jobfile.Move(file, &pair.active.JobFolder); err != nil {
				return err
			}
		}
		if len(files) > 0 {
			q.logger.Info("scraped quarantine folder",
				logging.String(logging.FieldQuarantine, pair.ctp.Name()),
				logging.Int("files", len(files)),
			)
		}
	}
	return nil
}

// Archive moves all files for the given job from every active mirror to its
// archive counterpart. Mirrors that do not know the job are skipped.
func (q *Quarantine) Archive(jobID int64) error {
	for _, pair := range q.mirrors {
		if err := jobfile.MoveJobData(jobID, &pair.active.JobFolder, &pair.archive.JobFolder); err != nil {
			return err
		}
	}
	return nil
}

// Files returns every active-mirror file belonging to the given job, tied to
// the mirror it was found in. A job absent from all mirrors yields an empty
// result, not an error.
func (q *Quarantine) Files(jobID int64) ([]QuarantinedJobFile, error) {
	var files []QuarantinedJobFile
	for _, pair := range q.mirrors {
		mirrorFiles, err := pair.active.Files(jobID)
		if err != nil {
			if errors.Is(err, jobfile.ErrJobUnknown) {
				continue
			}
			return nil, err
		}
		files = append(files, mirrorFiles...)
	}
	return files, nil
}

// FileCount returns the number of files in quarantine for the given job
// across all active mirrors, 0 when the job is not quarantined at all.
func (q *Quarantine) FileCount(jobID int64) (int, error) {
	count := 0
	for _, pair := range q.mirrors {
		n, err := pair.active.FileCount(jobID)
		if err != nil {
			return 0, err
		}
		count += n
	}
	return count, nil
}

// UnknownJobFiles returns every active-mirror file that could not be mapped
// to a job.
func (q *Quarantine) UnknownJobFiles() ([]QuarantinedJobFile, error) {
	var files []QuarantinedJobFile
	for _, pair := range q.mirrors {
		unknown, err := pair.active.UnknownJobFiles()
		if err != nil {
			return nil, err
		}
		files = append(files, unknown...)
	}
	return files, nil
}

// JobIDs returns the deduplicated, sorted ids of all jobs that have files in
// any active mirror.
func (q *Quarantine) JobIDs() ([]int64, error) {
	seen := map[int64]struct{}{}
	for _, pair := range q.mirrors {
		ids, err := pair.active.JobIDs()
		if err != nil {
			return nil, err
		}
		for _, id := range ids {
			seen[id] = struct{}{}
		}
	}
	ids := make([]int64, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids, nil
}
