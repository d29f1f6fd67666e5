package vos

import (
	"path/filepath"
	"strings"
)

const (
	EnvHome = "HOME"
	EnvPWD  = "PWD"
	EnvPath = "PATH"

	// EnvColor holds the default for builtins' --color flag.
	EnvColor = "NESH_COLOR"

	// EnvGrepSeparator overrides the line grep prints between groups of
	// context lines.
	EnvGrepSeparator = "GREP_SEPARATOR"
)

// ExpandPath resolves p against the working directory wd, replacing a leading
// "~" with home. The result is absolute and cleaned; it is not checked for
// existence.
func ExpandPath(p, wd, home string) string {
	switch {
	case p == "~":
		p = home
	case strings.HasPrefix(p, "~"+string(filepath.Separator)):
		p = filepath.Join(home, p[2:])
	}

	if !filepath.IsAbs(p) {
		p = filepath.Join(wd, p)
	}

	return filepath.Clean(p)
}
