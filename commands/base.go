package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"runtime/debug"
	"sort"

	"github.com/fatih/color"
	"github.com/josephlewis42/nesh/core/command"
	"github.com/josephlewis42/nesh/core/logger"
	"github.com/josephlewis42/nesh/core/vos"
	getopt "github.com/pborman/getopt/v2"
	"golang.org/x/term"
)

const (
	// ExitPanic is the status of a builtin that panicked.
	ExitPanic = 2
)

// allBuiltins holds every registered builtin keyed by name.
var allBuiltins = make(map[string]vos.ProcessFunc)

// mustAddBuiltin registers a builtin, registering a name twice is a
// programming error.
func mustAddBuiltin(name string, cmd vos.ProcessFunc) {
	if _, ok := allBuiltins[name]; ok {
		panic(fmt.Sprintf("builtin %q registered twice", name))
	}
	allBuiltins[name] = cmd
}

// BuiltinEntry is a registered builtin.
type BuiltinEntry struct {
	Name string
	Proc vos.ProcessFunc
}

// ListBuiltinCommands returns every registered builtin sorted by name.
func ListBuiltinCommands() []BuiltinEntry {
	var out []BuiltinEntry
	for name, proc := range allBuiltins {
		out = append(out, BuiltinEntry{Name: name, Proc: proc})
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Name < out[j].Name
	})
	return out
}

// BuiltinResolver resolves names from the builtin registry. It never
// consults the filesystem, so a builtin can't be shadowed by a program with
// the same name.
type BuiltinResolver struct{}

var _ command.Resolver = BuiltinResolver{}
var _ command.Lister = BuiltinResolver{}

// Resolve implements command.Resolver.
func (BuiltinResolver) Resolve(inv command.Invocation, files vos.VIO, env *vos.Environment) (command.Command, bool) {
	proc, ok := allBuiltins[inv.Name]
	if !ok {
		return nil, false
	}

	return &builtinCommand{proc: proc, inv: inv, files: files, env: env}, true
}

// Names implements command.Lister.
func (BuiltinResolver) Names() []string {
	var out []string
	for _, entry := range ListBuiltinCommands() {
		out = append(out, entry.Name)
	}
	return out
}

type builtinCommand struct {
	proc  vos.ProcessFunc
	inv   command.Invocation
	files vos.VIO
	env   *vos.Environment
}

func (b *builtinCommand) Run(ctx context.Context) (status int) {
	proc, err := b.env.StartProcess(b.inv.Argv(), b.inv.Assignments, b.files)
	if err != nil {
		fmt.Fprintf(b.files.Stderr(), "%s: %v\n", b.inv.Name, err)
		return 1
	}

	defer func() {
		if r := recover(); r != nil {
			logger.L(ctx).Error("builtin panicked", "name", b.inv.Name, "panic", r, "stack", string(debug.Stack()))
			fmt.Fprintf(b.files.Stderr(), "%s: internal error: %v\n", b.inv.Name, r)
			status = ExitPanic
		}
	}()

	return b.proc(proc)
}

// SimpleCommand parses flags for a builtin and prints consistent help and
// errors.
type SimpleCommand struct {
	// Use holds a one line usage string
	Use string
	// Short holds a one line description of the command.
	Short string
	// ShowHelp sets whether help is displayed or not.
	// If this is non-nil when Run() is called, then the default help flag isn't
	// added.
	ShowHelp *bool

	flags *getopt.Set
}

// Flags gets the command's flag set.
func (s *SimpleCommand) Flags() *getopt.Set {
	if s.flags == nil {
		s.flags = getopt.New()
	}

	return s.flags
}

// PrintHelp writes help for the command to the given writer.
func (s *SimpleCommand) PrintHelp(w io.Writer) {
	fmt.Fprint(w, "usage: ")
	fmt.Fprintln(w, s.Use)
	fmt.Fprintln(w, s.Short)
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Flags:")
	s.Flags().PrintOptions(w)
}

// Run the command, if flag parsing was succcessful call the callback.
func (s *SimpleCommand) Run(virtOS vos.VOS, callback func() int) int {
	opts := s.Flags()

	// Add help flag if not overridden.
	if s.ShowHelp == nil {
		s.ShowHelp = opts.BoolLong("help", 'h', "show this help and exit")
	}

	if err := opts.Getopt(virtOS.Args(), nil); err != nil {
		virtOS.LogInvalidInvocation(err)
		fmt.Fprintf(virtOS.Stderr(), "error: %s\n\n", err)

		s.PrintHelp(virtOS.Stderr())
		return 1
	}

	if *s.ShowHelp {
		s.PrintHelp(virtOS.Stdout())
		return 0
	}

	return callback()
}

// RunE is like Run but the callback returns an error which is printed with
// the program name and turned into exit status 1.
func (s *SimpleCommand) RunE(virtOS vos.VOS, callback func() error) int {
	return s.Run(virtOS, func() int {
		if err := callback(); err != nil {
			s.LogProgramError(virtOS, err)
			return 1
		}
		return 0
	})
}

// RunEachFileOrStdin calls callback with each named file, or with stdin if
// there are none. A file that can't be opened is reported and skipped, the
// status is 1 if anything failed.
func (s *SimpleCommand) RunEachFileOrStdin(virtOS vos.VOS, files []string, callback func(name string, fd io.Reader) error) int {
	if len(files) == 0 {
		if err := callback("-", virtOS.Stdin()); err != nil {
			s.LogProgramError(virtOS, err)
			return 1
		}
		return 0
	}

	status := 0
	for _, name := range files {
		err := func() error {
			fd, err := virtOS.Open(name)
			if err != nil {
				return err
			}
			defer fd.Close()

			if stat, err := fd.Stat(); err == nil && stat.IsDir() {
				return &os.PathError{Op: "read", Path: name, Err: errors.New("is a directory")}
			}

			return callback(name, fd)
		}()
		if err != nil {
			s.LogProgramError(virtOS, err)
			status = 1
		}
	}
	return status
}

// LogProgramError writes an error prefixed with the program name to stderr.
func (s *SimpleCommand) LogProgramError(virtOS vos.VOS, err error) {
	fmt.Fprintf(virtOS.Stderr(), "%s: %v\n", virtOS.Args()[0], err)
}

// BytesToHuman formats a size using the largest fitting SI suffix.
func BytesToHuman(bytes int64) string {
	for _, e := range []struct {
		unit  string
		power int64
	}{
		{"P", 1e15},
		{"T", 1e12},
		{"G", 1e9},
		{"M", 1e6},
		{"K", 1e3},
	} {
		quotient := bytes / e.power
		switch {
		case quotient == 0:
			continue
		case quotient > 10:
			return fmt.Sprintf("%d%s", quotient, e.unit)
		default:
			return fmt.Sprintf("%0.1f%s", float64(bytes)/float64(e.power), e.unit)
		}
	}

	return fmt.Sprintf("%d", bytes)
}

const (
	colorAlways = "always"
	colorAuto   = "auto"
	colorNever  = "never"
)

var (
	ColorBoldBlue  = color.New(color.FgBlue, color.Bold)
	ColorBoldGreen = color.New(color.FgGreen, color.Bold)
	ColorBoldCyan  = color.New(color.FgCyan, color.Bold)
	ColorBoldRed   = color.New(color.FgRed, color.Bold)
)

// ColorPrinter decides whether output gets colored from a --color flag
// which defaults to the session's $NESH_COLOR setting.
type ColorPrinter struct {
	value  *string
	virtOS vos.VOS
}

// Init sets up the flag and virtual OS to determine the color output.
func (c *ColorPrinter) Init(flags *getopt.Set, virtOS vos.VOS) {
	c.virtOS = virtOS

	def := virtOS.Getenv(vos.EnvColor)
	switch def {
	case colorAlways, colorAuto, colorNever:
	default:
		def = colorAuto
	}

	c.value = flags.EnumLong(
		"color",
		rune(0), // No short flag.
		[]string{colorAlways, colorAuto, colorNever},
		def,
		"colorize the output (always|auto|never)")
}

// ShouldColor reports whether escape codes should be written to stdout.
func (c *ColorPrinter) ShouldColor() bool {
	switch {
	case *c.value == colorNever:
		return false
	case *c.value == colorAlways:
		return true
	default:
		if _, ok := c.virtOS.LookupEnv("NO_COLOR"); ok {
			return false
		}
		f, ok := vos.OSFile(c.virtOS.Stdout())
		return ok && term.IsTerminal(int(f.Fd()))
	}
}

// Sprintf formats with color if ShouldColor is true.
func (c *ColorPrinter) Sprintf(clr *color.Color, format string, a ...interface{}) string {
	if c.ShouldColor() {
		// fatih/color disables itself when the host stdout isn't a terminal,
		// the builtin's stdout may still be one.
		forced := *clr
		forced.EnableColor()
		return forced.Sprintf(format, a...)
	}
	return fmt.Sprintf(format, a...)
}
