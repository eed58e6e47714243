package dicomid_test

import (
	"path/filepath"
	"testing"

	"anonpipe/internal/dicomid"
	"anonpipe/internal/testsupport"
)

func TestJobIDFromPrivateTag(t *testing.T) {
	path := filepath.Join(t.TempDir(), "file1")
	testsupport.WriteDICOM(t, path, 42)

	id, ok := dicomid.JobID(path)
	if !ok {
		t.Fatal("expected a job id")
	}
	if id != 42 {
		t.Fatalf("job id = %d, want 42", id)
	}
}

func TestJobIDMissingTag(t *testing.T) {
	path := filepath.Join(t.TempDir(), "file_no_job_id")
	testsupport.WriteDICOMWithoutJobID(t, path)

	if id, ok := dicomid.JobID(path); ok {
		t.Fatalf("expected no job id, got %d", id)
	}
}

func TestJobIDNonDICOM(t *testing.T) {
	path := filepath.Join(t.TempDir(), "file_no_dicom")
	testsupport.WriteFile(t, path, []byte("this is not a dicom file"))

	if id, ok := dicomid.JobID(path); ok {
		t.Fatalf("expected no job id for non-dicom file, got %d", id)
	}
}

func TestJobIDMissingFile(t *testing.T) {
	if id, ok := dicomid.JobID(filepath.Join(t.TempDir(), "absent")); ok {
		t.Fatalf("expected no job id for missing file, got %d", id)
	}
}
