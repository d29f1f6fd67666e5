package vos

import (
	"errors"
	"io/fs"
	"os"
	"time"

	"github.com/spf13/afero"
)

// VFS is the filesystem commands read and write.
type VFS = afero.Fs

// NewOsFs returns the host filesystem.
func NewOsFs() VFS {
	return afero.NewOsFs()
}

// NewMemFs returns an empty in-memory filesystem containing only "/".
func NewMemFs() VFS {
	fs := afero.NewMemMapFs()
	_ = fs.MkdirAll("/", 0755)
	return fs
}

// PathMapper rewrites a path before it reaches the base filesystem.
type PathMapper func(name string) string

// RelativeFs resolves every path through a PathMapper, typically one that
// makes paths absolute against the session working directory.
type RelativeFs struct {
	BaseFs afero.Fs
	Mapper PathMapper
}

var _ afero.Lstater = (*RelativeFs)(nil)

// NewRelativeFs wraps base so relative paths resolve through mapper.
func NewRelativeFs(base afero.Fs, mapper PathMapper) afero.Fs {
	return &RelativeFs{BaseFs: base, Mapper: mapper}
}

// relativeFile keeps the name the caller used so error messages and listings
// show what the user typed.
type relativeFile struct {
	afero.File
	name string
}

func (f *relativeFile) Name() string {
	return f.name
}

func (b *RelativeFs) Name() string {
	return "RelativeFs"
}

func (b *RelativeFs) Chtimes(name string, atime, mtime time.Time) error {
	return b.BaseFs.Chtimes(b.Mapper(name), atime, mtime)
}

func (b *RelativeFs) Chmod(name string, mode os.FileMode) error {
	return b.BaseFs.Chmod(b.Mapper(name), mode)
}

func (b *RelativeFs) Chown(name string, uid, gid int) error {
	return b.BaseFs.Chown(b.Mapper(name), uid, gid)
}

func (b *RelativeFs) Stat(name string) (os.FileInfo, error) {
	fi, err := b.BaseFs.Stat(b.Mapper(name))
	return fi, typedPathError(name, err)
}

func (b *RelativeFs) Rename(oldname, newname string) error {
	return b.BaseFs.Rename(b.Mapper(oldname), b.Mapper(newname))
}

func (b *RelativeFs) RemoveAll(name string) error {
	return b.BaseFs.RemoveAll(b.Mapper(name))
}

func (b *RelativeFs) Remove(name string) error {
	return b.BaseFs.Remove(b.Mapper(name))
}

func (b *RelativeFs) OpenFile(name string, flag int, mode os.FileMode) (afero.File, error) {
	f, err := b.BaseFs.OpenFile(b.Mapper(name), flag, mode)
	if err != nil {
		return nil, typedPathError(name, err)
	}
	return &relativeFile{File: f, name: name}, nil
}

func (b *RelativeFs) Open(name string) (afero.File, error) {
	f, err := b.BaseFs.Open(b.Mapper(name))
	if err != nil {
		return nil, typedPathError(name, err)
	}
	return &relativeFile{File: f, name: name}, nil
}

func (b *RelativeFs) Mkdir(name string, mode os.FileMode) error {
	return b.BaseFs.Mkdir(b.Mapper(name), mode)
}

func (b *RelativeFs) MkdirAll(name string, mode os.FileMode) error {
	return b.BaseFs.MkdirAll(b.Mapper(name), mode)
}

func (b *RelativeFs) Create(name string) (afero.File, error) {
	f, err := b.BaseFs.Create(b.Mapper(name))
	if err != nil {
		return nil, typedPathError(name, err)
	}
	return &relativeFile{File: f, name: name}, nil
}

func (b *RelativeFs) LstatIfPossible(name string) (os.FileInfo, bool, error) {
	mapped := b.Mapper(name)
	if lstater, ok := b.BaseFs.(afero.Lstater); ok {
		fi, ok, err := lstater.LstatIfPossible(mapped)
		return fi, ok, typedPathError(name, err)
	}
	fi, err := b.BaseFs.Stat(mapped)
	return fi, false, typedPathError(name, err)
}

// typedPathError reports a failed operation against the name the caller
// used rather than the mapped path.
func typedPathError(name string, err error) error {
	var pathErr *fs.PathError
	if err == nil || !errors.As(err, &pathErr) {
		return err
	}
	return &fs.PathError{Op: pathErr.Op, Path: name, Err: pathErr.Err}
}
