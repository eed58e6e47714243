package quarantine

import (
	"fmt"
	"os"
	"path/filepath"

	"anonpipe/internal/dicomid"
	"anonpipe/internal/jobfile"
)

// CTPFolder is a read-only view of one quarantine folder managed by the
// external engine. Files are listed flat, never recursively.
type CTPFolder struct {
	Path        string
	Description string
}

// NewCTPFolder describes a quarantine folder. An empty description falls
// back to the folder name.
func NewCTPFolder(path, description string) CTPFolder {
	name := filepath.Base(path)
	if description != "" {
		description = fmt.Sprintf("Quarantine folder %s (%s)", name, description)
	} else {
		description = fmt.Sprintf("Quarantine folder %s", name)
	}
	return CTPFolder{Path: path, Description: description}
}

// Name returns the folder's base name, which also names its mirrors.
func (f CTPFolder) Name() string {
	return filepath.Base(f.Path)
}

func (f CTPFolder) String() string {
	return fmt.Sprintf("CTP quarantine folder at %s", f.Path)
}

// Files returns the paths of all regular files directly in the folder, in
// whatever order the filesystem yields. A missing folder is treated as
// empty: the engine creates quarantines lazily.
func (f CTPFolder) Files() ([]string, error) {
	entries, err := os.ReadDir(f.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("list quarantine folder %s: %w", f.Path, err)
	}
	var paths []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		paths = append(paths, filepath.Join(f.Path, entry.Name()))
	}
	return paths, nil
}

// JobFiles lists the folder and recovers the owning job per file from its
// embedded metadata. Malformed or foreign files are expected traffic: they
// come back with job id 0 instead of failing the scan.
func (f CTPFolder) JobFiles() ([]jobfile.JobFile, error) {
	paths, err := f.Files()
	if err != nil {
		return nil, err
	}
	files := make([]jobfile.JobFile, 0, len(paths))
	for _, path := range paths {
		id, _ := dicomid.JobID(path)
		files = append(files, jobfile.JobFile{JobID: id, Path: path})
	}
	return files, nil
}
