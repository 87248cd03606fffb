package filesystem

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"audiocut/domain/audio"
)

// OpenSource opens a source file for reading and returns its size.
// A missing file maps to audio.ErrFileNotFound, anything else to audio.ErrIO.
func OpenSource(path string) (*os.File, int64, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, 0, fmt.Errorf("%w: %s", audio.ErrFileNotFound, path)
		}
		return nil, 0, audio.IOErrorf(err, "opening %s", path)
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, 0, audio.IOErrorf(err, "stat %s", path)
	}
	if info.IsDir() {
		f.Close()
		return nil, 0, fmt.Errorf("%w: %s is a directory", audio.ErrFileNotFound, path)
	}

	return f, info.Size(), nil
}
