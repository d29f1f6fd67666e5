// Package vos is the view of the operating system that shell commands run
// against: a filesystem, standard streams, environment variables and the
// session state shared between every command.
package vos

// ProcessFunc is a builtin "process" that can be run, it returns an exit
// status.
type ProcessFunc func(VOS) int

// VOS is the interface a single running command sees.
type VOS interface {
	VEnv
	VIO
	VFS

	// Args holds command line arguments, including the command as Args[0].
	Args() []string

	// Getwd returns the session working directory.
	Getwd() string

	// Chdir changes the session working directory. On failure the working
	// directory is left untouched.
	Chdir(dir string) error

	// ExpandPath resolves a possibly relative or ~ prefixed path into an
	// absolute, cleaned path.
	ExpandPath(path string) string

	// RequestExit asks the session to terminate with the given code once the
	// current pipeline completes.
	RequestExit(code int)

	// LogInvalidInvocation records that the command was called with
	// arguments it could not understand.
	LogInvalidInvocation(err error)
}
