package vos

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExpandPath(t *testing.T) {
	cases := map[string]struct {
		path     string
		expected string
	}{
		"absolute":       {"/etc/passwd", "/etc/passwd"},
		"relative":       {"docs/a.txt", "/work/docs/a.txt"},
		"dot":            {".", "/work"},
		"parent":         {"..", "/"},
		"parent-of-root": {"../../..", "/"},
		"home":           {"~", "/home/user"},
		"home-child":     {"~/notes", "/home/user/notes"},
		"tilde-mid-path": {"a/~/b", "/work/a/~/b"},
		"tilde-username": {"~other", "/work/~other"},
		"unclean":        {"/a//b/./c/../d", "/a/b/d"},
		"empty":          {"", "/work"},
	}

	for tn, tc := range cases {
		t.Run(tn, func(t *testing.T) {
			assert.Equal(t, tc.expected, ExpandPath(tc.path, "/work", "/home/user"))
		})
	}
}
