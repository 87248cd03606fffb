package container

import (
	"errors"
	"fmt"

	"audiocut/infrastructure/filesystem"

	"github.com/dhowden/tag"
)

// Tags holds the descriptive metadata embedded in a source file
type Tags struct {
	Format string
	Title  string
	Artist string
	Album  string
	Year   int
}

// Empty reports whether no descriptive field is set
func (t Tags) Empty() bool {
	return t.Title == "" && t.Artist == "" && t.Album == "" && t.Year == 0
}

// ReadTags reads ID3, Vorbis or MP4 tags from path.
// A file without tags yields empty Tags and no error.
func ReadTags(path string) (Tags, error) {
	f, _, err := filesystem.OpenSource(path)
	if err != nil {
		return Tags{}, err
	}
	defer f.Close()

	m, err := tag.ReadFrom(f)
	if err != nil {
		if errors.Is(err, tag.ErrNoTagsFound) {
			return Tags{}, nil
		}
		return Tags{}, fmt.Errorf("could not read tags: %w", err)
	}

	return Tags{
		Format: string(m.Format()),
		Title:  m.Title(),
		Artist: m.Artist(),
		Album:  m.Album(),
		Year:   m.Year(),
	}, nil
}
