package grep

import (
	"errors"
	"fmt"
	"io"
	"io/fs"

	"github.com/spf13/afero"
)

// FileHeader is printed before the output of each file when several files
// are searched.
func FileHeader(name string) string {
	return fmt.Sprintf("-- %s --", name)
}

// FileError describes a file that couldn't be searched.
type FileError struct {
	Name string
	Err  error
}

func (e *FileError) Error() string {
	switch {
	case errors.Is(e.Err, fs.ErrNotExist):
		return fmt.Sprintf("grep can't read from file %s. Does it exist?", e.Name)
	case errors.Is(e.Err, fs.ErrPermission):
		return fmt.Sprintf("permission denied reading file %s", e.Name)
	default:
		return fmt.Sprintf("IO error with file %s: %v", e.Name, e.Err)
	}
}

func (e *FileError) Unwrap() error {
	return e.Err
}

// GrepFile searches a single file. Failures to open or read it are returned
// as a *FileError; failures writing to w are returned unwrapped.
func (g *Grepper) GrepFile(fsys afero.Fs, name string, w io.Writer) error {
	fd, err := fsys.Open(name)
	if err != nil {
		return &FileError{Name: name, Err: err}
	}
	defer fd.Close()

	if stat, err := fd.Stat(); err == nil && stat.IsDir() {
		return &FileError{Name: name, Err: fmt.Errorf("is a directory")}
	}

	seq, errFn := g.Scan(fd)
	for line := range seq {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	if err := errFn(); err != nil {
		return &FileError{Name: name, Err: err}
	}
	return nil
}

// GrepFiles searches each file in turn, printing a header before each
// one when there is more than one. A file that can't be read is passed to
// report and the remaining files are still searched. The returned error is
// only set if writing to w failed.
func (g *Grepper) GrepFiles(fsys afero.Fs, names []string, w io.Writer, report func(error)) error {
	showHeaders := len(names) > 1
	for _, name := range names {
		if showHeaders {
			if _, err := fmt.Fprintln(w, g.header(name)); err != nil {
				return err
			}
		}

		err := g.GrepFile(fsys, name, w)
		var fileErr *FileError
		switch {
		case errors.As(err, &fileErr):
			report(fileErr)
		case err != nil:
			return err
		}
	}
	return nil
}
