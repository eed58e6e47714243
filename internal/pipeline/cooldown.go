package pipeline

import (
	"fmt"
	"os"
	"time"
)

// CoolDown wraps a stage whose files must dwell for a minimum time before
// they move on. Dwell is measured from the file's modification time, which
// survives restarts without any bookkeeping.
type CoolDown struct {
	*Stage
	Dwell time.Duration

	now func() time.Time
}

// NewCoolDown returns a cool-down stage with the given minimum dwell time.
func NewCoolDown(stage *Stage, dwell time.Duration) *CoolDown {
	return &CoolDown{Stage: stage, Dwell: dwell, now: time.Now}
}

// CooledFiles returns the files that have dwelled long enough to move on.
// A file that vanishes between listing and stat was taken by someone else
// and is skipped.
func (c *CoolDown) CooledFiles() ([]File, error) {
	all, err := c.AllFiles()
	if err != nil {
		return nil, err
	}
	cutoff := c.now().Add(-c.Dwell)
	var cooled []File
	for _, file := range all {
		info, err := os.Stat(file.Path)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, fmt.Errorf("stat %s: %w", file.Path, err)
		}
		if !info.ModTime().After(cutoff) {
			cooled = append(cooled, file)
		}
	}
	return cooled, nil
}
