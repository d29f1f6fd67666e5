package grep

import (
	"bytes"
	"errors"
	"io"
	"slices"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/josephlewis42/nesh/core/vos"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var contextInput = []string{"a", "MATCH", "b", "c", "d", "MATCH2", "e"}

func collect(t *testing.T, g *Grepper, lines []string) []string {
	t.Helper()
	out := slices.Collect(g.Lines(slices.Values(lines)))
	if out == nil {
		out = []string{}
	}
	return out
}

func TestGrepper_Lines(t *testing.T) {
	cases := map[string]struct {
		pattern  string
		opts     Options
		input    []string
		expected []string
	}{
		"no-context": {
			pattern:  "MATCH",
			input:    contextInput,
			expected: []string{"MATCH", "MATCH2"},
		},
		// Two lines are skipped between the context line "b" and
		// "MATCH2", so the groups aren't contiguous and get a separator.
		"context-gap-inserts-separator": {
			pattern:  "MATCH",
			opts:     Options{AfterContext: 1},
			input:    contextInput,
			expected: []string{"MATCH", "b", "--", "MATCH2", "e"},
		},
		"context-adjacent-groups": {
			pattern:  "MATCH",
			opts:     Options{AfterContext: 1},
			input:    []string{"a", "MATCH", "b", "MATCH2", "e"},
			expected: []string{"MATCH", "b", "MATCH2", "e"},
		},
		"context-boundary-no-skipped-lines": {
			pattern:  "MATCH",
			opts:     Options{AfterContext: 2},
			input:    []string{"MATCH", "b", "c", "MATCH2", "e", "f", "g"},
			expected: []string{"MATCH", "b", "c", "MATCH2", "e", "f"},
		},
		"context-overlapping-matches": {
			pattern:  "M",
			opts:     Options{AfterContext: 3},
			input:    []string{"M1", "M2", "x", "y", "z", "w"},
			expected: []string{"M1", "M2", "x", "y", "z"},
		},
		"context-no-leading-lines": {
			pattern:  "MATCH",
			opts:     Options{AfterContext: 5},
			input:    []string{"a", "b", "MATCH"},
			expected: []string{"MATCH"},
		},
		"custom-separator": {
			pattern:  "MATCH",
			opts:     Options{AfterContext: 1, GroupSeparator: "=="},
			input:    contextInput,
			expected: []string{"MATCH", "b", "==", "MATCH2", "e"},
		},
		"case-sensitive-default": {
			pattern:  "match",
			input:    contextInput,
			expected: []string{},
		},
		"ignore-case": {
			pattern:  "match",
			opts:     Options{IgnoreCase: true},
			input:    contextInput,
			expected: []string{"MATCH", "MATCH2"},
		},
		"whole-word": {
			pattern:  "cat",
			opts:     Options{WholeWord: true},
			input:    []string{"cat", "concatenate", "the cat sat", "cat_food", "(cat)", "bobcat"},
			expected: []string{"cat", "the cat sat", "(cat)"},
		},
		"whole-word-alternation": {
			pattern:  "foo|bar",
			opts:     Options{WholeWord: true},
			input:    []string{"foobar", "a bar", "food", "foo."},
			expected: []string{"a bar", "foo."},
		},
		"whole-word-ignore-case": {
			pattern:  "Cat",
			opts:     Options{WholeWord: true, IgnoreCase: true},
			input:    []string{"CAT!", "cats"},
			expected: []string{"CAT!"},
		},
		"regex": {
			pattern:  "^[0-9]+$",
			input:    []string{"123", "12a", ""},
			expected: []string{"123"},
		},
	}

	for tn, tc := range cases {
		t.Run(tn, func(t *testing.T) {
			g, err := New(tc.pattern, tc.opts)
			require.NoError(t, err)

			if diff := cmp.Diff(tc.expected, collect(t, g, tc.input)); diff != "" {
				t.Errorf("Lines() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestNew_invalid(t *testing.T) {
	_, err := New("(unclosed", Options{})
	assert.True(t, errors.Is(err, ErrInvalidPattern), "got %v", err)

	// The fragment compiles once wrapped, but not on its own.
	_, err = New(`a)|(b`, Options{WholeWord: true})
	assert.True(t, errors.Is(err, ErrInvalidPattern), "got %v", err)

	_, err = New("a", Options{AfterContext: -1})
	assert.True(t, errors.Is(err, vos.ErrInvalidArgument), "got %v", err)
}

func TestGrepper_Scan_repeatable(t *testing.T) {
	g, err := New("MATCH", Options{AfterContext: 1})
	require.NoError(t, err)

	input := strings.Join(contextInput, "\n") + "\n"
	run := func() []string {
		seq, errFn := g.Scan(strings.NewReader(input))
		out := slices.Collect(seq)
		require.NoError(t, errFn())
		return out
	}

	first := run()
	second := run()
	assert.Equal(t, first, second)
	assert.Equal(t, []string{"MATCH", "b", "--", "MATCH2", "e"}, first)
}

func TestGrepper_Scan_earlyStop(t *testing.T) {
	g, err := New("x", Options{})
	require.NoError(t, err)

	seq, errFn := g.Scan(strings.NewReader("x1\nx2\nx3\n"))
	var got []string
	for line := range seq {
		got = append(got, line)
		if len(got) == 2 {
			break
		}
	}
	assert.Equal(t, []string{"x1", "x2"}, got)
	assert.NoError(t, errFn())
}

func TestGrepper_GrepFiles(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/a.txt", []byte("one\ntwo\nthree\n"), 0644))
	require.NoError(t, afero.WriteFile(fs, "/b.txt", []byte("two times\n"), 0644))
	require.NoError(t, fs.MkdirAll("/dir", 0755))

	g, err := New("two", Options{})
	require.NoError(t, err)

	t.Run("single", func(t *testing.T) {
		out := &bytes.Buffer{}
		require.NoError(t, g.GrepFiles(fs, []string{"/a.txt"}, out, func(err error) {
			t.Fatalf("unexpected error: %v", err)
		}))
		assert.Equal(t, "two\n", out.String())
	})

	t.Run("multiple with failures", func(t *testing.T) {
		out := &bytes.Buffer{}
		var reported []string
		require.NoError(t, g.GrepFiles(fs, []string{"/a.txt", "/missing.txt", "/dir", "/b.txt"}, out, func(err error) {
			reported = append(reported, err.Error())
		}))

		assert.Equal(t, strings.Join([]string{
			"-- /a.txt --",
			"two",
			"-- /missing.txt --",
			"-- /dir --",
			"-- /b.txt --",
			"two times",
		}, "\n")+"\n", out.String())
		require.Len(t, reported, 2)
		assert.Equal(t, "grep can't read from file /missing.txt. Does it exist?", reported[0])
	})

	t.Run("custom header", func(t *testing.T) {
		custom, err := New("two", Options{Header: func(name string) string {
			return "==> " + name + " <=="
		}})
		require.NoError(t, err)

		out := &bytes.Buffer{}
		require.NoError(t, custom.GrepFiles(fs, []string{"/a.txt", "/b.txt"}, out, func(err error) {
			t.Fatalf("unexpected error: %v", err)
		}))
		assert.Equal(t, "==> /a.txt <==\ntwo\n==> /b.txt <==\ntwo times\n", out.String())
	})
}

func TestGrepper_Grep_closedOutput(t *testing.T) {
	g, err := New("a", Options{})
	require.NoError(t, err)

	pr, pw := io.Pipe()
	require.NoError(t, pr.Close())

	err = g.Grep(strings.NewReader("a\n"), pw)
	assert.ErrorIs(t, err, vos.ErrIOFailure)
	assert.ErrorIs(t, err, io.ErrClosedPipe)
	assert.True(t, vos.IsClosedPipe(err))
}
