package commands

import (
	"fmt"
	"io"
	"unicode"

	"github.com/josephlewis42/nesh/core/vos"
)

type wcCount struct {
	bytes int
	lines int
	chars int
	words int
	name  string

	inSpace bool
}

func (w *wcCount) Write(data []byte) (int, error) {
	for _, c := range data {
		isFirstByte := w.bytes == 0
		w.bytes++

		// Assume UTF-8 characters. Bytes following the leading byte always
		// have MSB of 0b10 indicating they're part of a previous character.
		if c < 0b10000000 || c > 0b10111111 {
			w.chars++
		}

		if c == '\n' {
			w.lines++
		}

		if unicode.IsSpace(rune(c)) {
			w.inSpace = true
		} else {
			if w.inSpace || isFirstByte {
				w.words++
			}
			w.inSpace = false
		}
	}

	return len(data), nil
}

func newWcCount(name string, fd io.Reader) (*wcCount, error) {
	out := &wcCount{name: name}
	if _, err := io.Copy(out, fd); err != nil {
		return nil, err
	}

	return out, nil
}

func (w *wcCount) Increment(other *wcCount) {
	w.bytes += other.bytes
	w.chars += other.chars
	w.lines += other.lines
	w.words += other.words
}

// Wc implements the POSIX command by the same name.
// https://pubs.opengroup.org/onlinepubs/009695399/utilities/wc.html
func Wc(virtOS vos.VOS) int {
	cmd := &SimpleCommand{
		Use:   "wc [-c|-m] [-lw] [FILE...]",
		Short: "Write the number of newlines, words, and bytes contained in each input file to the standard output.",
	}

	opts := cmd.Flags()
	writeLines := opts.Bool('l', "write the number of newlines")
	writeWords := opts.Bool('w', "write the number of words")
	writeBytes := opts.Bool('c', "write the number of bytes")
	writeChars := opts.Bool('m', "write the number of characters")

	return cmd.Run(virtOS, func() int {
		args := opts.Args()
		nonePicked := !(*writeLines || *writeWords || *writeBytes || *writeChars)

		var cols []func(*wcCount) string
		if *writeLines || nonePicked {
			cols = append(cols, func(w *wcCount) string { return fmt.Sprint(w.lines) })
		}
		if *writeWords || nonePicked {
			cols = append(cols, func(w *wcCount) string { return fmt.Sprint(w.words) })
		}
		if *writeBytes || nonePicked {
			cols = append(cols, func(w *wcCount) string { return fmt.Sprint(w.bytes) })
		}
		if *writeChars {
			cols = append(cols, func(w *wcCount) string { return fmt.Sprint(w.chars) })
		}
		if len(args) > 0 {
			cols = append(cols, func(w *wcCount) string { return w.name })
		}

		displayCount := func(count *wcCount) {
			for i, col := range cols {
				if i != 0 {
					fmt.Fprint(virtOS.Stdout(), " ")
				}
				fmt.Fprint(virtOS.Stdout(), col(count))
			}
			fmt.Fprintln(virtOS.Stdout())
		}

		total := &wcCount{name: "total"}
		counted := 0
		status := cmd.RunEachFileOrStdin(virtOS, args, func(name string, fd io.Reader) error {
			count, err := newWcCount(name, fd)
			if err != nil {
				return err
			}
			total.Increment(count)
			counted++
			displayCount(count)
			return nil
		})

		if len(args) > 1 && counted > 0 {
			displayCount(total)
		}

		return status
	})
}

var _ vos.ProcessFunc = Wc

func init() {
	mustAddBuiltin("wc", Wc)
}
