package pipeline

import (
	"fmt"
	"os"
	"path/filepath"

	"anonpipe/internal/jobfile"
)

// Stage folder names under the stages root.
const (
	StageIncoming = "incoming"
	StagePending  = "pending"
	StageFinished = "finished"
	StageErrored  = "errored"
	StageTrash    = "trash"
)

// File is one file sitting in a stage, tagged with the stream it belongs to.
type File struct {
	Stream string
	Path   string
}

// Stage is one station in the flow. It holds a subfolder per stream so that
// files from different streams never mix.
type Stage struct {
	Name    string
	Path    string
	Streams []string
}

// NewStage returns a stage rooted under the stages directory.
func NewStage(name, stagesRoot string, streams []string) *Stage {
	return &Stage{
		Name:    name,
		Path:    filepath.Join(stagesRoot, name),
		Streams: streams,
	}
}

// StreamPath returns the directory holding this stage's files for one stream.
func (s *Stage) StreamPath(stream string) string {
	return filepath.Join(s.Path, stream)
}

// EnsurePaths creates the stage's stream subfolders. Users drop files
// directly into these directories, so they must exist before any file shows
// up, not lazily.
func (s *Stage) EnsurePaths() error {
	for _, stream := range s.Streams {
		if err := os.MkdirAll(s.StreamPath(stream), 0o755); err != nil {
			return fmt.Errorf("create stage folder %s/%s: %w", s.Name, stream, err)
		}
	}
	return nil
}

// Files returns the files currently in this stage for one stream. A missing
// stream folder yields an empty result.
func (s *Stage) Files(stream string) ([]File, error) {
	entries, err := os.ReadDir(s.StreamPath(stream))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("list stage %s/%s: %w", s.Name, stream, err)
	}
	var files []File
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		files = append(files, File{Stream: stream, Path: filepath.Join(s.StreamPath(stream), entry.Name())})
	}
	return files, nil
}

// AllFiles returns the files currently in this stage across all streams.
func (s *Stage) AllFiles() ([]File, error) {
	var all []File
	for _, stream := range s.Streams {
		files, err := s.Files(stream)
		if err != nil {
			return nil, err
		}
		all = append(all, files...)
	}
	return all, nil
}

// Accept moves a file into this stage, keeping it inside its stream's
// subfolder and never overwriting what is already there.
func (s *Stage) Accept(file File) error {
	destination := jobfile.NewSafeFolder(s.StreamPath(file.Stream))
	return jobfile.Move(jobfile.JobFile{Path: file.Path}, destination)
}
