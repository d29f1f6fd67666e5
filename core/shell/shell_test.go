package shell

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"

	"github.com/josephlewis42/nesh/commands"
	"github.com/josephlewis42/nesh/core/command"
	"github.com/josephlewis42/nesh/core/pipeline"
	"github.com/josephlewis42/nesh/core/vos"
	"github.com/josephlewis42/nesh/core/vos/vostest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestShell(t *testing.T, stdin string) (*Shell, *bytes.Buffer, *bytes.Buffer) {
	t.Helper()

	stdout := &bytes.Buffer{}
	stderr := &bytes.Buffer{}
	executor := &pipeline.Executor{
		Resolver: command.Chain{commands.BuiltinResolver{}},
		Env:      vostest.NewTestEnvironment(),
	}
	return New(executor, vos.NewVIOAdapter(strings.NewReader(stdin), stdout, stderr)), stdout, stderr
}

func TestShell_RunLine(t *testing.T) {
	cases := map[string]struct {
		line       string
		wantStdout string
		wantStatus int
		// wantStderr must be contained in stderr, empty means stderr is empty.
		wantStderr string
	}{
		"empty": {
			line: "",
		},
		"comment": {
			line: "# nothing to see",
		},
		"pipeline": {
			line:       "echo hello | cat | cat",
			wantStdout: "hello\n",
		},
		"sequence": {
			line:       "echo a; echo b",
			wantStdout: "a\nb\n",
		},
		"assignment-persists": {
			line:       "A=B AA=$A$A; echo $AA",
			wantStdout: "BB\n",
		},
		"assignment-is-local-to-command": {
			line:       "A=B AA=$A$A echo $AA; echo $A",
			wantStdout: "\n\n",
		},
		"last-status": {
			line:       "cat /missing; echo $?",
			wantStdout: "1\n",
			wantStderr: "cat: open /missing: file does not exist",
		},
		"and-or": {
			line:       "cd /nope && echo yes || echo no",
			wantStdout: "no\n",
			wantStderr: "cd: /nope: No such file or directory",
		},
		"cd-visible-to-next-statement": {
			line:       "cd /tmp; pwd",
			wantStdout: "/tmp\n",
		},
		"cd-inside-pipeline": {
			line:       "cd /tmp | echo; pwd",
			wantStdout: "\n/tmp\n",
		},
		"redirect-out-append-in": {
			line:       "echo hi > out.txt; echo there >> out.txt; cat < out.txt",
			wantStdout: "hi\nthere\n",
		},
		"redirect-pipeline-output": {
			line:       "echo a | cat > out.txt; cat out.txt",
			wantStdout: "a\n",
		},
		"redirect-missing-input": {
			line:       "cat < nope.txt",
			wantStatus: 1,
			wantStderr: "nesh: open nope.txt: file does not exist",
		},
		"redirect-stderr-to-file": {
			line:       "cat /missing 2> err.txt; cat err.txt",
			wantStdout: "cat: open /missing: file does not exist\n",
		},
		"redirect-stderr-to-stdout": {
			line:       "cat /missing 2>&1",
			wantStdout: "cat: open /missing: file does not exist\n",
			wantStatus: 1,
		},
		"redirect-mid-pipeline": {
			line:       "echo a > out.txt | cat",
			wantStatus: ExitSyntaxError,
			wantStderr: "is not supported",
		},
		"command-not-found": {
			line:       "ech hi",
			wantStatus: pipeline.ExitCommandNotFound,
			wantStderr: "nesh: ech: command not found\nnesh: did you mean: echo?",
		},
		"not-found-aborts-pipeline": {
			line:       "echo hi | nosuch",
			wantStatus: pipeline.ExitCommandNotFound,
			wantStderr: "nesh: nosuch: command not found",
		},
		"syntax-error": {
			line:       `echo "unterminated`,
			wantStatus: ExitSyntaxError,
			wantStderr: "nesh: syntax error:",
		},
		"command-substitution": {
			line:       "echo $(pwd)",
			wantStatus: ExitSyntaxError,
			wantStderr: "command substitution is not supported",
		},
		"compound-command": {
			line:       "for i in a; do echo $i; done",
			wantStatus: ExitSyntaxError,
			wantStderr: "compound command is not supported",
		},
		"background": {
			line:       "echo a &",
			wantStatus: ExitSyntaxError,
			wantStderr: "background job is not supported",
		},
		"tilde": {
			line:       `echo ~ ~/x '~' "~"`,
			wantStdout: "/home/user /home/user/x ~ ~\n",
		},
		"quoting": {
			line:       `echo a\ b "c\$d" 'e\f' "$HOME"`,
			wantStdout: "a b c$d e\\f /home/user\n",
		},
		"length": {
			line:       "echo ${#HOME}",
			wantStdout: "10\n",
		},
		"exit-skips-rest": {
			line:       "exit 3; echo after",
			wantStatus: 3,
		},
	}

	for tn, tc := range cases {
		t.Run(tn, func(t *testing.T) {
			sh, stdout, stderr := newTestShell(t, "")

			status := sh.RunLine(context.Background(), tc.line)

			assert.Equal(t, tc.wantStatus, status)
			assert.Equal(t, tc.wantStdout, stdout.String())
			if tc.wantStderr == "" {
				assert.Empty(t, stderr.String())
			} else {
				assert.Contains(t, stderr.String(), tc.wantStderr)
			}
		})
	}
}

func TestShell_exit(t *testing.T) {
	sh, _, _ := newTestShell(t, "")

	sh.RunLine(context.Background(), "exit 3 && echo unreachable")

	assert.True(t, sh.env().ExitRequested())
	assert.Equal(t, 3, sh.Status())
}

func TestShell_stdin(t *testing.T) {
	sh, stdout, _ := newTestShell(t, "from the terminal\n")

	sh.RunLine(context.Background(), "cat | cat")

	assert.Equal(t, "from the terminal\n", stdout.String())
}

func TestShell_RunReader(t *testing.T) {
	sh, stdout, _ := newTestShell(t, "")

	status, err := sh.RunReader(context.Background(), strings.NewReader("echo a\nX=1\necho $X\nexit 4\necho b\n"))

	require.NoError(t, err)
	assert.Equal(t, 4, status)
	assert.Equal(t, "a\n1\n", stdout.String())
}

func TestShell_RunReader_eof(t *testing.T) {
	sh, _, _ := newTestShell(t, "")

	status, err := sh.RunReader(context.Background(), strings.NewReader("cat /missing\n"))

	require.NoError(t, err)
	assert.Equal(t, 1, status)
	assert.False(t, sh.env().ExitRequested())
}

func TestShell_RunReader_sharedInput(t *testing.T) {
	input := strings.NewReader("echo start\ncat\nhello\nworld\n")
	stdout := &bytes.Buffer{}
	executor := &pipeline.Executor{
		Resolver: command.Chain{commands.BuiltinResolver{}},
		Env:      vostest.NewTestEnvironment(),
	}
	sh := New(executor, vos.NewVIOAdapter(input, stdout, nil))

	status, err := sh.RunReader(context.Background(), input)

	require.NoError(t, err)
	assert.Equal(t, 0, status)
	assert.Equal(t, "start\nhello\nworld\n", stdout.String())
}

func TestReadLine(t *testing.T) {
	r := strings.NewReader("a\r\n\nlast")

	var lines []string
	for {
		line, err := readLine(r)
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		lines = append(lines, line)
	}

	assert.Equal(t, []string{"a", "", "last"}, lines)
}

func TestShell_Prompt(t *testing.T) {
	sh, _, _ := newTestShell(t, "")
	vars := sh.env().Vars()
	require.NoError(t, vars.Setenv(EnvHostname, "box"))

	assert.Equal(t, "user@box:~$ ", sh.Prompt())

	require.NoError(t, sh.env().Chdir("/tmp"))
	assert.Equal(t, "user@box:/tmp$ ", sh.Prompt())

	require.NoError(t, vars.Setenv(EnvPrompt, `\[\e[1m\]\W\n\\\$ `))
	require.NoError(t, vars.Setenv(EnvUser, "root"))
	assert.Equal(t, "\033[1mtmp\n\\# ", sh.Prompt())
}

func TestShell_completer(t *testing.T) {
	sh, _, _ := newTestShell(t, "")

	candidates, offset := sh.completer().Do([]rune("ec"), 2)

	require.Len(t, candidates, 1)
	assert.Equal(t, "ho ", string(candidates[0]))
	assert.Equal(t, 2, offset)
}

func TestUnescapeLit(t *testing.T) {
	cases := map[string]struct {
		lit    string
		quoted bool
		want   string
	}{
		"plain":              {lit: "abc", want: "abc"},
		"escaped-space":      {lit: `a\ b`, want: "a b"},
		"continuation":       {lit: "a\\\nb", want: "ab"},
		"trailing-backslash": {lit: `a\`, want: `a\`},
		"quoted-dollar":      {lit: `\$x`, quoted: true, want: "$x"},
		"quoted-other":       {lit: `\n`, quoted: true, want: `\n`},
		"unquoted-other":     {lit: `\n`, want: "n"},
	}

	for tn, tc := range cases {
		t.Run(tn, func(t *testing.T) {
			assert.Equal(t, tc.want, unescapeLit(tc.lit, tc.quoted))
		})
	}
}
