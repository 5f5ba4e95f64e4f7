// Package progress persists how far a long-running producer got, so a
// restarted process resumes instead of starting over.
package progress

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/tensorplex-labs/clevr-action/internal/dataset"
)

// Cursor records the last index that was fully written.
type Cursor struct {
	LastCompleted int       `json:"last_completed"`
	UpdatedAt     time.Time `json:"updated_at"`

	path string
}

// Load reads the cursor at path. A missing file is a fresh cursor with
// nothing completed.
func Load(path string) (*Cursor, error) {
	if path == "" {
		return nil, fmt.Errorf("progress file path cannot be empty")
	}
	c := &Cursor{LastCompleted: -1, path: path}
	err := dataset.ReadJSON(path, c)
	if errors.Is(err, fs.ErrNotExist) {
		return c, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load progress: %w", err)
	}
	return c, nil
}

// Next returns the first index still to do, never below start. The cursor
// holds one index for every window; callers confirm earlier indices exist.
func (c *Cursor) Next(start int) int {
	return max(start, c.LastCompleted+1)
}

// Complete marks index i done and saves the cursor.
func (c *Cursor) Complete(i int) error {
	c.LastCompleted = i
	c.UpdatedAt = time.Now().UTC()
	if err := dataset.WriteJSON(c.path, c); err != nil {
		return fmt.Errorf("save progress: %w", err)
	}
	return nil
}

func (c *Cursor) Path() string {
	return c.path
}
