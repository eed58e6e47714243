package pipeline

import (
	"fmt"
	"os"
)

// Trash is the terminal stage. Its content is deleted on every tick; moving
// a file here is the commitment to destroy it.
type Trash struct {
	*Stage
}

// NewTrash returns the trash stage.
func NewTrash(stage *Stage) *Trash {
	return &Trash{Stage: stage}
}

// Empty deletes every file currently in the trash. The stream subfolders
// themselves stay in place.
func (t *Trash) Empty() (int, error) {
	files, err := t.AllFiles()
	if err != nil {
		return 0, err
	}
	removed := 0
	for _, file := range files {
		if err := os.Remove(file.Path); err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return removed, fmt.Errorf("empty trash: %w", err)
		}
		removed++
	}
	return removed, nil
}
