package jobfile

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// Move relocates a job file into the destination, creating missing parent
// directories and never overwriting an existing file. The rename is atomic
// within a single volume.
func Move(file JobFile, destination Destination) error {
	target, err := prepare(file, destination)
	if err != nil {
		return err
	}
	if err := os.Rename(file.Path, target); err != nil {
		return fmt.Errorf("move %s: %w", file, err)
	}
	return nil
}

// Copy duplicates a job file into the destination, creating missing parent
// directories and never overwriting an existing file. A copy across volumes
// is not atomic.
func Copy(file JobFile, destination Destination) error {
	target, err := prepare(file, destination)
	if err != nil {
		return err
	}
	if err := copyFile(file.Path, target); err != nil {
		return fmt.Errorf("copy %s: %w", file, err)
	}
	return nil
}

// prepare resolves the destination path and makes sure its parent exists.
// MkdirAll is safe against the directory appearing concurrently.
func prepare(file JobFile, destination Destination) (string, error) {
	target := destination.AvailablePath(file)
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return "", fmt.Errorf("create destination directory for %s: %w", file, err)
	}
	return target, nil
}

// MoveJobData moves every file for the given job id out of source and removes
// the then-empty job directory. A job id unknown to source is a no-op so that
// repeated archive sweeps stay idempotent. If entries remain after the move a
// concurrent writer raced in; the removal fails with ErrJobNotEmpty rather
// than leaving orphaned files silently.
func MoveJobData(jobID int64, source *JobFolder, destination Destination) error {
	files, err := source.Files(jobID)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return nil
	}
	for _, file := range files {
		if err := Move(file, destination); err != nil {
			return err
		}
	}
	return source.RemoveEmptyJobID(jobID)
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_EXCL, 0o644)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return err
	}
	return out.Close()
}
