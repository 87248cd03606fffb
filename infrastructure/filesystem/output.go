package filesystem

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"syscall"

	"audiocut/domain/audio"

	"github.com/google/uuid"
)

// renameFunc is swapped in tests to simulate EXDEV
var renameFunc = os.Rename

// CrossDeviceError is returned when the temporary file cannot be renamed
// onto the destination because they live on different filesystems.
type CrossDeviceError struct {
	Src string
	Dst string
	Err error
}

func (e *CrossDeviceError) Error() string {
	return fmt.Sprintf("cannot move %q to %q across filesystems: %v", e.Src, e.Dst, e.Err)
}

func (e *CrossDeviceError) Unwrap() error { return e.Err }

// IsCrossDevice reports whether err is a CrossDeviceError
func IsCrossDevice(err error) bool {
	var e *CrossDeviceError
	return errors.As(err, &e)
}

// Rename wraps os.Rename and marks EXDEV failures as CrossDeviceError
func Rename(src, dst string) error {
	if err := renameFunc(src, dst); err != nil {
		if errors.Is(err, syscall.EXDEV) {
			return &CrossDeviceError{Src: src, Dst: dst, Err: err}
		}
		return err
	}
	return nil
}

// OutputWriter creates output files, either in place or through a temporary
// sibling that is renamed over the destination on commit. Only the atomic
// mode replaces an existing destination.
type OutputWriter struct {
	atomic bool
	perm   os.FileMode
}

// OutputOption configures an OutputWriter
type OutputOption func(*OutputWriter)

// WithAtomic selects temp-file-and-rename output
func WithAtomic(atomic bool) OutputOption {
	return func(w *OutputWriter) {
		w.atomic = atomic
	}
}

// WithPerm sets the permission bits of created files
func WithPerm(perm os.FileMode) OutputOption {
	return func(w *OutputWriter) {
		w.perm = perm
	}
}

// NewOutputWriter creates an OutputWriter. Atomic output is the default.
func NewOutputWriter(opts ...OutputOption) *OutputWriter {
	w := &OutputWriter{atomic: true, perm: 0o644}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Create implements audio.OutputCreator
func (w *OutputWriter) Create(path string) (audio.OutputFile, error) {
	dir := filepath.Dir(path)
	if info, err := os.Stat(path); err == nil && info.IsDir() {
		return nil, audio.IOErrorf(os.ErrExist, "output %s is a directory", path)
	}

	// direct mode never opens an existing file, so Abort cannot destroy one
	name, flags := path, os.O_WRONLY|os.O_CREATE|os.O_EXCL
	if w.atomic {
		name = filepath.Join(dir, "."+filepath.Base(path)+".tmp-"+uuid.NewString())
	}

	f, err := os.OpenFile(name, flags, w.perm)
	if err != nil {
		if !w.atomic && errors.Is(err, os.ErrExist) {
			return nil, audio.IOErrorf(err, "%s already exists; enable output.atomic to replace it", path)
		}
		return nil, audio.IOErrorf(err, "creating %s", name)
	}

	return &outputFile{File: f, dst: path, atomic: w.atomic}, nil
}

type outputFile struct {
	*os.File
	dst    string
	atomic bool
	done   bool
}

func (o *outputFile) Commit() error {
	if o.done {
		return nil
	}
	o.done = true

	if err := o.File.Sync(); err != nil {
		o.discard()
		return audio.IOErrorf(err, "syncing %s", o.File.Name())
	}
	if err := o.File.Close(); err != nil {
		o.remove()
		return audio.IOErrorf(err, "closing %s", o.File.Name())
	}
	if !o.atomic {
		return nil
	}

	if err := Rename(o.File.Name(), o.dst); err != nil {
		o.remove()
		return audio.IOErrorf(err, "moving output into place")
	}
	return nil
}

// Abort closes and removes whatever was written, leaving no partial output
func (o *outputFile) Abort() error {
	if o.done {
		return nil
	}
	o.done = true
	return o.discard()
}

func (o *outputFile) discard() error {
	_ = o.File.Close()
	return o.remove()
}

func (o *outputFile) remove() error {
	if err := os.Remove(o.File.Name()); err != nil && !errors.Is(err, os.ErrNotExist) {
		return audio.IOErrorf(err, "removing %s", o.File.Name())
	}
	return nil
}

// Ensure OutputWriter implements audio.OutputCreator
var _ audio.OutputCreator = (*OutputWriter)(nil)
