package command

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/josephlewis42/nesh/core/vos"
	"github.com/josephlewis42/nesh/core/vos/vostest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mapResolver recognizes a fixed set of names, each returning its status.
type mapResolver map[string]int

func (m mapResolver) Resolve(inv Invocation, files vos.VIO, env *vos.Environment) (Command, bool) {
	status, ok := m[inv.Name]
	if !ok {
		return nil, false
	}
	return Func(func(context.Context) int {
		files.Stdout().Write([]byte("builtin " + inv.Name + "\n"))
		return status
	}), true
}

func (m mapResolver) Names() []string {
	var out []string
	for k := range m {
		out = append(out, k)
	}
	return out
}

func TestChain_Resolve_order(t *testing.T) {
	env := vostest.NewTestEnvironment()
	chain := Chain{mapResolver{"echo": 0}, mapResolver{"echo": 3, "other": 4}}

	cmd, err := chain.Resolve(Invocation{Name: "echo"}, vos.NewNullIO(), env)
	require.NoError(t, err)
	assert.Equal(t, 0, cmd.Run(context.Background()), "first resolver wins")

	cmd, err = chain.Resolve(Invocation{Name: "other"}, vos.NewNullIO(), env)
	require.NoError(t, err)
	assert.Equal(t, 4, cmd.Run(context.Background()), "falls through to the next resolver")
}

func TestChain_Resolve_notFound(t *testing.T) {
	env := vostest.NewTestEnvironment()
	chain := Chain{mapResolver{"cat": 0, "cd": 0, "echo": 0}}

	_, err := chain.Resolve(Invocation{Name: "cst"}, vos.NewNullIO(), env)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrCommandNotFound))
	assert.Equal(t, "cst: command not found", err.Error())

	var notFound *NotFoundError
	require.True(t, errors.As(err, &notFound))
	assert.Contains(t, notFound.Suggestions, "cat")
}

func TestChain_Names(t *testing.T) {
	chain := Chain{mapResolver{"b": 0, "a": 0}, ExternalResolver{}, mapResolver{"a": 1, "c": 0}}
	assert.Equal(t, []string{"a", "b", "c"}, chain.Names())
}

func hostEnvironment(t *testing.T) (*vos.Environment, string) {
	t.Helper()

	if _, err := os.Stat("/bin/sh"); err != nil {
		t.Skip("no /bin/sh on this host")
	}

	binDir := t.TempDir()
	script := []byte("#!/bin/sh\necho \"external $@ in $(pwd) with $GREETING\"\nexit 5\n")
	require.NoError(t, os.WriteFile(filepath.Join(binDir, "echo"), script, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(binDir, "notexec"), script, 0644))

	workDir := t.TempDir()
	env, err := vos.NewEnvironment(vos.NewOsFs(), workDir, vos.WithVariables([]string{
		"PATH=" + binDir,
	}))
	require.NoError(t, err)
	return env, workDir
}

func TestExternalResolver(t *testing.T) {
	env, workDir := hostEnvironment(t)

	stdout := &bytes.Buffer{}
	files := vos.NewVIOAdapter(nil, stdout, stdout)

	cmd, ok := ExternalResolver{}.Resolve(Invocation{
		Name:        "echo",
		Args:        []string{"a", "b"},
		Assignments: []string{"GREETING=hi"},
	}, files, env)
	require.True(t, ok)

	assert.Equal(t, 5, cmd.Run(context.Background()))
	resolvedWd, err := filepath.EvalSymlinks(workDir)
	require.NoError(t, err)
	assert.Contains(t, []string{
		"external a b in " + workDir + " with hi\n",
		"external a b in " + resolvedWd + " with hi\n",
	}, stdout.String())

	_, ok = ExternalResolver{}.Resolve(Invocation{Name: "notexec"}, files, env)
	assert.False(t, ok, "files without the executable bit are skipped")

	_, ok = ExternalResolver{}.Resolve(Invocation{Name: "missing"}, files, env)
	assert.False(t, ok)
}

func TestChain_builtinShadowsExternal(t *testing.T) {
	env, _ := hostEnvironment(t)

	stdout := &bytes.Buffer{}
	chain := Chain{mapResolver{"echo": 0}, ExternalResolver{}}
	cmd, err := chain.Resolve(Invocation{Name: "echo"}, vos.NewVIOAdapter(nil, stdout, nil), env)
	require.NoError(t, err)

	assert.Equal(t, 0, cmd.Run(context.Background()))
	assert.Equal(t, "builtin echo\n", stdout.String())
}

func TestExternalResolver_readerGoesAway(t *testing.T) {
	env, _ := hostEnvironment(t)
	binDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(binDir, "hello"), []byte("#!/bin/sh\necho hello\n"), 0755))
	require.NoError(t, env.Vars().Setenv(vos.EnvPath, binDir))

	source, sink := vos.NewPipe(0)
	require.NoError(t, source.Close())

	stderr := &bytes.Buffer{}
	cmd, ok := ExternalResolver{}.Resolve(Invocation{Name: "hello"}, vos.NewVIOAdapter(nil, sink, stderr), env)
	require.True(t, ok)

	assert.Equal(t, 0, cmd.Run(context.Background()))
	assert.Empty(t, stderr.String())
}
