package cmd

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/josephlewis42/nesh/core/grep"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()

	cfgPath, verbosity, commandLine, recordPath = "", 0, "", ""
	grepOpts = grep.Options{}

	out := &bytes.Buffer{}
	rootCmd.SetOut(out)
	rootCmd.SetErr(out)
	rootCmd.SetIn(strings.NewReader(""))
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetArgs(nil)
	})

	_, err := rootCmd.ExecuteContextC(context.Background())
	return out.String(), err
}

func initConfig(t *testing.T) string {
	t.Helper()

	dir := filepath.Join(t.TempDir(), "nesh")
	_, err := execute(t, "init", dir)
	require.NoError(t, err)
	require.FileExists(t, filepath.Join(dir, "config.yaml"))
	return dir
}

func TestCommands(t *testing.T) {
	dir := initConfig(t)

	out, err := execute(t, "--config", dir, "-c", "echo hello world | grep -w world")
	require.NoError(t, err)
	assert.Equal(t, "hello world\n", out)

	_, err = execute(t, "--config", dir, "-c", "exit 3")
	assert.Equal(t, exitStatus(3), err)

	out, err = execute(t, "--config", dir, "report")
	require.NoError(t, err)
	assert.Contains(t, out, "sessions: 2")
	assert.Contains(t, out, "grep: 1")

	out, err = execute(t, "--config", dir, "builtins")
	require.NoError(t, err)
	assert.Contains(t, strings.Fields(out), "cd")
}

func TestGrep(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.txt")
	require.NoError(t, os.WriteFile(a, []byte("one\ntwo\nthree\n"), 0600))

	cfg := initConfig(t)

	out, err := execute(t, "--config", cfg, "grep", "-A", "1", "^one$", a)
	require.NoError(t, err)
	assert.Equal(t, "one\ntwo\n", out)

	out, err = execute(t, "--config", cfg, "grep", "two", a, filepath.Join(dir, "missing.txt"))
	assert.Equal(t, exitStatus(2), err)
	assert.Contains(t, out, "-- "+a+" --\ntwo\n")
	assert.Contains(t, out, "Does it exist?")
}

func TestWriteReport(t *testing.T) {
	log := `{"session_id":"a","run_pipeline":{"stages":[["cat","f"],["wc"]],"status":0}}
{"session_id":"a","unknown_command":{"command":["nope"]}}
{"session_id":"b","run_pipeline":{"stages":[["false"]],"status":1}}
`
	out := &bytes.Buffer{}
	require.NoError(t, writeReport(strings.NewReader(log), out))

	assert.Contains(t, out.String(), "log_entries: 3")
	assert.Contains(t, out.String(), "sessions: 2")
	assert.Contains(t, out.String(), "failures: 1")
	assert.Contains(t, out.String(), "nope: 1")
}
