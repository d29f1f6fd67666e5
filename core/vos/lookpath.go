package vos

import (
	"errors"
	"io/fs"
	"os/exec"
	"path/filepath"
	"strings"
)

// ErrNotFound is the error resulting if a path search failed to find an executable file.
var ErrNotFound = exec.ErrNotFound

func findExecutable(vfs VFS, file string) error {
	d, err := vfs.Stat(file)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return ErrNotFound
	case err != nil:
		return err
	}
	if m := d.Mode(); !m.IsDir() && m&0111 != 0 {
		return nil
	}
	return fs.ErrPermission
}

// LookPath searches for an executable named file in the directories named by
// the session's PATH variable. If file contains a slash, it is resolved
// against the working directory and the PATH is not consulted. The result is
// always absolute.
func LookPath(env *Environment, file string) (string, error) {
	if strings.Contains(file, "/") {
		abs := env.ExpandPath(file)
		if err := findExecutable(env.Fs(), abs); err != nil {
			return "", err
		}
		return abs, nil
	}

	for _, dir := range filepath.SplitList(env.Vars().Getenv(EnvPath)) {
		if dir == "" {
			// Unix shell semantics: path element "" means "."
			dir = "."
		}
		candidate := env.ExpandPath(filepath.Join(dir, file))
		if err := findExecutable(env.Fs(), candidate); err == nil {
			return candidate, nil
		}
	}
	return "", ErrNotFound
}
