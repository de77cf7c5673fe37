package op

import (
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"
)

// File describes one path emitted by ls.
type File struct {
	Path    string      `msgpack:"path"`
	Base    string      `msgpack:"base,omitempty"`
	Size    int64       `msgpack:"size"`
	Mode    fs.FileMode `msgpack:"mode"`
	ModTime time.Time   `msgpack:"mtime"`
}

func newFile(path, base string) (*File, error) {
	info, err := os.Lstat(path)
	if err != nil {
		return nil, errors.Wrapf(err, "unable to stat %s", path)
	}

	return &File{
		Path:    path,
		Base:    base,
		Size:    info.Size(),
		Mode:    info.Mode(),
		ModTime: info.ModTime(),
	}, nil
}

// IsDir reports whether the file is a directory.
func (f *File) IsDir() bool {
	return f.Mode.IsDir()
}

// IsSymlink reports whether the file is a symbolic link.
func (f *File) IsSymlink() bool {
	return f.Mode&fs.ModeSymlink != 0
}

// String returns the path relative to the base of the listing.
func (f *File) String() string {
	if f.Base == "" {
		return f.Path
	}

	rel, err := filepath.Rel(f.Base, f.Path)
	if err != nil {
		return f.Path
	}

	return rel
}
