package filesystem

import (
	"os"

	"audiocut/domain/audio"
)

// Checker implements audio.FileChecker using the os package
type Checker struct{}

// NewChecker creates a new filesystem checker
func NewChecker() *Checker {
	return &Checker{}
}

// Exists returns true if path names an existing regular file
func (c *Checker) Exists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// Ensure Checker implements audio.FileChecker
var _ audio.FileChecker = (*Checker)(nil)
