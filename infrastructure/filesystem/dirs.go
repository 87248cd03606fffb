package filesystem

import (
	"os"
	"path/filepath"
)

// IsDir reports whether path is an existing directory
func IsDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

// IsWritableDir reports whether a file can be created in dir
func IsWritableDir(dir string) bool {
	if !IsDir(dir) {
		return false
	}
	f, err := os.CreateTemp(dir, ".audiocut-probe-*")
	if err != nil {
		return false
	}
	name := f.Name()
	f.Close()
	os.Remove(name)
	return true
}

// DefaultOutputDir picks where a cut lands when no target was given:
// the downloads directory if it exists and is writable, else the source's directory.
func DefaultOutputDir(downloadDir, sourcePath string) string {
	if downloadDir != "" && IsWritableDir(downloadDir) {
		return downloadDir
	}
	return filepath.Dir(sourcePath)
}

// UserDownloadDir returns ~/Downloads, or "" when the home directory is unknown
func UserDownloadDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, "Downloads")
}
