// Package workspace manages the per-rank directories that hold a run's
// intermediate images.
package workspace

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// Artifact file names inside a rank directory.
const (
	CaptureFile = "capture.png"
	EmblemFile  = "emblem.jpg"
	GhostFile   = "ghost.jpg"
	CardFile    = "card.png"
)

// Workspace roots the guardian<rank> directories.
type Workspace struct {
	root string
}

// New returns a workspace rooted at root. Nothing is created until Create.
func New(root string) *Workspace {
	return &Workspace{root: root}
}

// Root returns the workspace root directory.
func (w *Workspace) Root() string {
	return w.root
}

// Dir returns the directory of a rank.
func (w *Workspace) Dir(rank int) string {
	return filepath.Join(w.root, fmt.Sprintf("guardian%d", rank))
}

// CapturePath is where the cropped screenshot of rank is stored.
func (w *Workspace) CapturePath(rank int) string {
	return filepath.Join(w.Dir(rank), CaptureFile)
}

// EmblemPath is where the labelled emblem of rank is stored.
func (w *Workspace) EmblemPath(rank int) string {
	return filepath.Join(w.Dir(rank), EmblemFile)
}

// GhostPath is where the ghost icon of rank is stored.
func (w *Workspace) GhostPath(rank int) string {
	return filepath.Join(w.Dir(rank), GhostFile)
}

// CardPath is where the assembled card of rank is stored.
func (w *Workspace) CardPath(rank int) string {
	return filepath.Join(w.Dir(rank), CardFile)
}

// Create makes the directories for ranks 1..n.
func (w *Workspace) Create(n int) error {
	for rank := 1; rank <= n; rank++ {
		if err := os.MkdirAll(w.Dir(rank), 0755); err != nil {
			return fmt.Errorf("creating workspace for rank %d: %w", rank, err)
		}
	}
	return nil
}

// Remove deletes the directories of ranks 1..n and everything in them.
func (w *Workspace) Remove(n int) error {
	var errs []error
	for rank := 1; rank <= n; rank++ {
		if err := os.RemoveAll(w.Dir(rank)); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Exists reports whether path is an existing regular file.
func Exists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}
