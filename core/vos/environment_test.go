package vos_test

import (
	"errors"
	"sync"
	"testing"

	"github.com/josephlewis42/nesh/core/vos"
	"github.com/josephlewis42/nesh/core/vos/vostest"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEnvironment_requiresDirectory(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/file", []byte("x"), 0644))

	_, err := vos.NewEnvironment(fs, "/missing")
	assert.True(t, errors.Is(err, vos.ErrPathNotFound), "got %v", err)

	_, err = vos.NewEnvironment(fs, "/file")
	assert.True(t, errors.Is(err, vos.ErrNotADirectory), "got %v", err)
}

func TestEnvironment_Chdir(t *testing.T) {
	env := vostest.NewTestEnvironment()
	require.NoError(t, env.Fs().MkdirAll("/home/user/projects/nesh", 0755))
	require.NoError(t, afero.WriteFile(env.Fs(), "/home/user/notes.txt", []byte("notes"), 0644))

	t.Run("relative", func(t *testing.T) {
		require.NoError(t, env.Chdir("projects"))
		assert.Equal(t, "/home/user/projects", env.Getwd())
		assert.Equal(t, "/home/user/projects", env.Vars().Getenv(vos.EnvPWD))
	})

	t.Run("parent", func(t *testing.T) {
		require.NoError(t, env.Chdir(".."))
		assert.Equal(t, "/home/user", env.Getwd())
	})

	t.Run("home", func(t *testing.T) {
		require.NoError(t, env.Chdir("/tmp"))
		require.NoError(t, env.Chdir("~/projects/nesh"))
		assert.Equal(t, "/home/user/projects/nesh", env.Getwd())
	})

	t.Run("missing leaves wd", func(t *testing.T) {
		before := env.Getwd()
		err := env.Chdir("/does/not/exist")
		assert.True(t, errors.Is(err, vos.ErrPathNotFound), "got %v", err)
		assert.Equal(t, before, env.Getwd())
	})

	t.Run("file leaves wd", func(t *testing.T) {
		before := env.Getwd()
		err := env.Chdir("/home/user/notes.txt")
		assert.True(t, errors.Is(err, vos.ErrNotADirectory), "got %v", err)
		assert.Equal(t, before, env.Getwd())
	})
}

func TestEnvironment_RequestExit(t *testing.T) {
	env := vostest.NewTestEnvironment()
	assert.False(t, env.ExitRequested())

	env.RequestExit(7)
	assert.True(t, env.ExitRequested())
	assert.Equal(t, 7, env.ExitCode())
}

func TestEnvironment_StartProcess(t *testing.T) {
	env := vostest.NewTestEnvironment()
	require.NoError(t, env.Vars().Setenv("SHARED", "session"))

	proc, err := env.StartProcess([]string{"env"}, []string{"LOCAL=only-here"}, nil)
	require.NoError(t, err)

	assert.Equal(t, "session", proc.Getenv("SHARED"))
	assert.Equal(t, "only-here", proc.Getenv("LOCAL"))

	require.NoError(t, proc.Setenv("SHARED", "changed"))
	assert.Equal(t, "session", env.Vars().Getenv("SHARED"), "process variables must not leak")

	require.NoError(t, env.Fs().MkdirAll("/tmp/x", 0755))
	require.NoError(t, proc.Chdir("/tmp/x"))
	assert.Equal(t, "/tmp/x", env.Getwd(), "working directory is shared")

	require.NoError(t, afero.WriteFile(proc, "rel.txt", []byte("hi"), 0644))
	contents, err := afero.ReadFile(env.Fs(), "/tmp/x/rel.txt")
	require.NoError(t, err)
	assert.Equal(t, "hi", string(contents))

	_, err = env.StartProcess(nil, nil, nil)
	assert.True(t, errors.Is(err, vos.ErrInvalidArgument))
}

func TestEnvironment_concurrentAccess(t *testing.T) {
	env := vostest.NewTestEnvironment()

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if i%2 == 0 {
				_ = env.Chdir("/tmp")
			} else {
				_ = env.Chdir(vostest.Home)
			}
			_ = env.Getwd()
		}(i)
	}
	wg.Wait()

	assert.Contains(t, []string{"/tmp", vostest.Home}, env.Getwd())
}
