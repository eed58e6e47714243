package jobfile

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, path string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("dicom bytes"), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestJobFolderPartitionsByJob(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src", "scan.dcm")
	writeFile(t, src)

	folder := NewJobFolder(filepath.Join(dir, "jobs"))
	if err := Copy(JobFile{JobID: 3, Path: src}, folder); err != nil {
		t.Fatal(err)
	}

	ids, err := folder.JobIDs()
	if err != nil {
		t.Fatal(err)
	}
	if len(ids) != 1 || ids[0] != 3 {
		t.Fatalf("job ids = %v, want [3]", ids)
	}

	files, err := folder.Files(3)
	if err != nil {
		t.Fatal(err)
	}
	if len(files) != 1 {
		t.Fatalf("got %d files for job 3, want 1", len(files))
	}
	if files[0].JobID != 3 {
		t.Fatalf("file job id = %d, want 3", files[0].JobID)
	}
}

func TestJobFolderNeverOverwrites(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src", "scan.dcm")
	writeFile(t, src)

	folder := NewJobFolder(filepath.Join(dir, "jobs"))
	file := JobFile{JobID: 7, Path: src}
	if err := Copy(file, folder); err != nil {
		t.Fatal(err)
	}
	if err := Copy(file, folder); err != nil {
		t.Fatal(err)
	}

	count, err := folder.FileCount(7)
	if err != nil {
		t.Fatal(err)
	}
	if count != 2 {
		t.Fatalf("file count = %d, want 2", count)
	}
}

func TestSafeFolderNeverOverwrites(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src", "scan.dcm")
	writeFile(t, src)

	folder := NewSafeFolder(filepath.Join(dir, "safe"))
	file := JobFile{Path: src}
	if err := Copy(file, folder); err != nil {
		t.Fatal(err)
	}
	if err := Copy(file, folder); err != nil {
		t.Fatal(err)
	}

	entries, err := os.ReadDir(folder.Path)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 2 {
		t.Fatalf("got %d entries, want 2", len(entries))
	}
}

func TestJobIDsSkipsForeignDirectories(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src", "scan.dcm")
	writeFile(t, src)

	folder := NewJobFolder(filepath.Join(dir, "jobs"))
	if err := Copy(JobFile{JobID: 3, Path: src}, folder); err != nil {
		t.Fatal(err)
	}
	if err := os.MkdirAll(filepath.Join(folder.Path, "not_a_job"), 0o755); err != nil {
		t.Fatal(err)
	}

	ids, err := folder.JobIDs()
	if err != nil {
		t.Fatal(err)
	}
	if len(ids) != 1 || ids[0] != 3 {
		t.Fatalf("job ids = %v, want [3]", ids)
	}
}

func TestUnknownJobBucket(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src", "mystery.dcm")
	writeFile(t, src)

	folder := NewJobFolder(filepath.Join(dir, "jobs"))
	if err := Copy(JobFile{Path: src}, folder); err != nil {
		t.Fatal(err)
	}

	ids, err := folder.JobIDs()
	if err != nil {
		t.Fatal(err)
	}
	if len(ids) != 0 {
		t.Fatalf("job ids = %v, want none", ids)
	}

	unknown, err := folder.UnknownJobFiles()
	if err != nil {
		t.Fatal(err)
	}
	if len(unknown) != 1 {
		t.Fatalf("got %d unknown files, want 1", len(unknown))
	}
	if unknown[0].HasJob() {
		t.Fatalf("unknown file reports job id %d", unknown[0].JobID)
	}
}

func TestMoveRemovesSource(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src", "scan.dcm")
	writeFile(t, src)

	folder := NewJobFolder(filepath.Join(dir, "jobs"))
	file := JobFile{JobID: 1, Path: src}
	if err := Move(file, folder); err != nil {
		t.Fatal(err)
	}
	if file.Exists() {
		t.Fatal("source file still exists after move")
	}
	count, err := folder.FileCount(1)
	if err != nil {
		t.Fatal(err)
	}
	if count != 1 {
		t.Fatalf("file count = %d, want 1", count)
	}
}

func TestMoveJobData(t *testing.T) {
	dir := t.TempDir()
	source := NewJobFolder(filepath.Join(dir, "active"))
	destination := NewJobFolder(filepath.Join(dir, "archived"))

	writeFile(t, filepath.Join(source.JobPath(5), "a.dcm"))
	writeFile(t, filepath.Join(source.JobPath(5), "b.dcm"))

	if err := MoveJobData(5, source, destination); err != nil {
		t.Fatal(err)
	}

	ids, err := source.JobIDs()
	if err != nil {
		t.Fatal(err)
	}
	if len(ids) != 0 {
		t.Fatalf("source still lists jobs %v", ids)
	}
	count, err := destination.FileCount(5)
	if err != nil {
		t.Fatal(err)
	}
	if count != 2 {
		t.Fatalf("destination count = %d, want 2", count)
	}
}

func TestMoveJobDataUnknownJobIsNoop(t *testing.T) {
	dir := t.TempDir()
	source := NewJobFolder(filepath.Join(dir, "active"))
	destination := NewJobFolder(filepath.Join(dir, "archived"))

	if err := MoveJobData(99, source, destination); err != nil {
		t.Fatalf("unexpected error for unknown job: %v", err)
	}
}

func TestRemoveEmptyJobID(t *testing.T) {
	dir := t.TempDir()
	folder := NewJobFolder(filepath.Join(dir, "jobs"))

	if err := folder.RemoveEmptyJobID(4); !errors.Is(err, ErrJobUnknown) {
		t.Fatalf("error = %v, want ErrJobUnknown", err)
	}

	// A stray entry left by a concurrent writer must fail loudly.
	writeFile(t, filepath.Join(folder.JobPath(4), "straggler.dcm"))
	if err := folder.RemoveEmptyJobID(4); !errors.Is(err, ErrJobNotEmpty) {
		t.Fatalf("error = %v, want ErrJobNotEmpty", err)
	}
}

func TestFilesUnknownJobReturnsEmpty(t *testing.T) {
	folder := NewJobFolder(filepath.Join(t.TempDir(), "jobs"))
	files, err := folder.Files(123)
	if err != nil {
		t.Fatal(err)
	}
	if len(files) != 0 {
		t.Fatalf("got %d files, want 0", len(files))
	}
}
