package quarantine_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"anonpipe/internal/jobfile"
	"anonpipe/internal/logging"
	"anonpipe/internal/quarantine"
	"anonpipe/internal/testsupport"
)

// newQuarantine builds a quarantine over two external folders seeded the way
// the engine leaves them: one folder with well-formed files for jobs 1 and 2,
// one with a mix of a good file and unreadable ones.
func newQuarantine(t *testing.T) (*quarantine.Quarantine, []quarantine.CTPFolder) {
	t.Helper()
	ctpBase := t.TempDir()

	fullDates := filepath.Join(ctpBase, "DicomAnonymizerFullDates")
	testsupport.WriteDICOM(t, filepath.Join(fullDates, "file1"), 1)
	testsupport.WriteDICOM(t, filepath.Join(fullDates, "file2"), 2)

	faulty := filepath.Join(ctpBase, "DicomAnonymizerFaultyFiles")
	testsupport.WriteDICOM(t, filepath.Join(faulty, "file3"), 1)
	testsupport.WriteDICOMWithoutJobID(t, filepath.Join(faulty, "file4_no_job_id"))
	testsupport.WriteFile(t, filepath.Join(faulty, "file5_no_dicom"), []byte("garbage"))

	folders := []quarantine.CTPFolder{
		quarantine.NewCTPFolder(fullDates, "Something went wrong setting dates"),
		quarantine.NewCTPFolder(faulty, "Things went really wrong"),
	}
	return quarantine.New(t.TempDir(), folders, logging.NewNop()), folders
}

func TestCTPFolderFiles(t *testing.T) {
	_, folders := newQuarantine(t)

	paths, err := folders[0].Files()
	if err != nil {
		t.Fatal(err)
	}
	names := map[string]bool{}
	for _, path := range paths {
		names[filepath.Base(path)] = true
	}
	if len(names) != 2 || !names["file1"] || !names["file2"] {
		t.Fatalf("files = %v, want file1 and file2", names)
	}
}

func TestCTPFolderJobFiles(t *testing.T) {
	_, folders := newQuarantine(t)

	files, err := folders[0].JobFiles()
	if err != nil {
		t.Fatal(err)
	}
	ids := map[int64]bool{}
	for _, file := range files {
		ids[file.JobID] = true
	}
	if len(ids) != 2 || !ids[1] || !ids[2] {
		t.Fatalf("job ids = %v, want {1, 2}", ids)
	}
}

func TestCTPFolderJobFilesMessyInput(t *testing.T) {
	_, folders := newQuarantine(t)

	// One good file and two unreadable ones must not fail the scan.
	files, err := folders[1].JobFiles()
	if err != nil {
		t.Fatal(err)
	}
	if len(files) != 3 {
		t.Fatalf("got %d job files, want 3", len(files))
	}
	known := 0
	for _, file := range files {
		if file.HasJob() {
			known++
		}
	}
	if known != 1 {
		t.Fatalf("got %d files with a job id, want 1", known)
	}
}

func TestScrape(t *testing.T) {
	q, folders := newQuarantine(t)

	if ids, err := q.JobIDs(); err != nil || len(ids) != 0 {
		t.Fatalf("expected empty quarantine before scrape, got ids=%v err=%v", ids, err)
	}

	if err := q.Scrape(); err != nil {
		t.Fatal(err)
	}

	ids, err := q.JobIDs()
	if err != nil {
		t.Fatal(err)
	}
	if len(ids) != 2 || ids[0] != 1 || ids[1] != 2 {
		t.Fatalf("job ids = %v, want [1 2]", ids)
	}

	// Job 1 has a file in both quarantine folders.
	files, err := q.Files(1)
	if err != nil {
		t.Fatal(err)
	}
	if len(files) != 2 {
		t.Fatalf("got %d files for job 1, want 2", len(files))
	}
	for _, file := range files {
		if file.Folder == nil {
			t.Fatal("quarantined file lost its mirror back-reference")
		}
	}

	count, err := q.FileCount(2)
	if err != nil {
		t.Fatal(err)
	}
	if count != 1 {
		t.Fatalf("file count for job 2 = %d, want 1", count)
	}

	unknown, err := q.UnknownJobFiles()
	if err != nil {
		t.Fatal(err)
	}
	if len(unknown) != 2 {
		t.Fatalf("got %d unknown job files, want 2", len(unknown))
	}

	// The external folders must be empty afterwards.
	for _, folder := range folders {
		paths, err := folder.Files()
		if err != nil {
			t.Fatal(err)
		}
		if len(paths) != 0 {
			t.Fatalf("%s still holds %d files after scrape", folder.Name(), len(paths))
		}
	}

	// Scraping again with nothing new is a no-op.
	if err := q.Scrape(); err != nil {
		t.Fatal(err)
	}
}

func TestUnknownJobAtQuarantineLevel(t *testing.T) {
	q, _ := newQuarantine(t)
	if err := q.Scrape(); err != nil {
		t.Fatal(err)
	}

	files, err := q.Files(100)
	if err != nil {
		t.Fatal(err)
	}
	if len(files) != 0 {
		t.Fatalf("got %d files for absent job, want 0", len(files))
	}

	count, err := q.FileCount(100)
	if err != nil {
		t.Fatal(err)
	}
	if count != 0 {
		t.Fatalf("file count = %d, want 0", count)
	}
}

func TestMirrorFolderUnknownJob(t *testing.T) {
	q, _ := newQuarantine(t)
	if err := q.Scrape(); err != nil {
		t.Fatal(err)
	}

	// At the single-mirror level an absent job id is a real condition the
	// caller has to handle.
	for _, mirror := range q.ActiveMirrors() {
		_, err := mirror.Files(100)
		if !errors.Is(err, jobfile.ErrJobUnknown) {
			t.Fatalf("mirror %s: error = %v, want ErrJobUnknown", mirror.Path, err)
		}
	}
}

func TestArchive(t *testing.T) {
	q, _ := newQuarantine(t)
	if err := q.Scrape(); err != nil {
		t.Fatal(err)
	}

	before, err := q.Files(1)
	if err != nil {
		t.Fatal(err)
	}
	if len(before) == 0 {
		t.Fatal("expected files for job 1 before archiving")
	}

	if err := q.Archive(1); err != nil {
		t.Fatal(err)
	}

	ids, err := q.JobIDs()
	if err != nil {
		t.Fatal(err)
	}
	if len(ids) != 1 || ids[0] != 2 {
		t.Fatalf("job ids after archive = %v, want [2]", ids)
	}

	files, err := q.Files(1)
	if err != nil {
		t.Fatal(err)
	}
	if len(files) != 0 {
		t.Fatalf("job 1 still has %d active files", len(files))
	}

	archived := 0
	err = filepath.Walk(filepath.Join(q.BaseDir, "archived"), func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() {
			archived++
		}
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	if archived != len(before) {
		t.Fatalf("archived %d files, want %d", archived, len(before))
	}

	// Archiving an absent job stays a no-op.
	if err := q.Archive(1); err != nil {
		t.Fatal(err)
	}
}
