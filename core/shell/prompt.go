package shell

import (
	"path/filepath"
	"strings"
)

const (
	EnvPrompt   = "PS1"
	EnvHostname = "HOSTNAME"
	EnvUser     = "USER"

	DefaultColorPrompt = `\033[01;32m\u@\h\033[00m:\033[01;34m\w\033[00m\$ `
	DefaultPrompt      = `\u@\h:\w\$ `
)

// Prompt expands $PS1, or DefaultPrompt if it's unset. Supported escapes are
// \u (user), \h (host), \w (working directory, $HOME shown as ~), \W (last
// element of the working directory), \$ (# for root), \n, \\, \e and \033.
// \[ and \] are dropped.
func (s *Shell) Prompt() string {
	vars := s.env().Vars()

	prompt := vars.Getenv(EnvPrompt)
	if prompt == "" {
		prompt = DefaultPrompt
	}

	user := vars.Getenv(EnvUser)
	wd := s.env().Getwd()
	short := wd
	if home := s.env().Home(); home != "" && home != "/" {
		if wd == home || strings.HasPrefix(wd, home+"/") {
			short = "~" + strings.TrimPrefix(wd, home)
		}
	}

	sign := "$"
	if user == "root" {
		sign = "#"
	}

	return strings.NewReplacer(
		`\u`, user,
		`\h`, vars.Getenv(EnvHostname),
		`\w`, short,
		`\W`, filepath.Base(wd),
		`\$`, sign,
		`\n`, "\n",
		`\\`, `\`,
		`\e`, "\033",
		`\033`, "\033",
		`\[`, "",
		`\]`, "",
	).Replace(prompt)
}
