package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{"--env-file", filepath.Join(t.TempDir(), "none.env")}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func TestVersionCommand(t *testing.T) {
	out, err := run(t, "version")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "bookshelf "), out)
	assert.Contains(t, out, "go=")
}

func TestSeedCommandBuiltIn(t *testing.T) {
	t.Setenv("BOOKSHELF_SEED_FILE", "")
	out, err := run(t, "seed")
	require.NoError(t, err)
	assert.Contains(t, out, "7 books from built-in")
	assert.Contains(t, out, "Dracula")
}

func TestSeedCommandFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "seed.yaml")
	yaml := "books:\n  - title: Dune\n    author: Frank Herbert\n    read: true\n  - author: Anonymous\n"
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o644))

	out, err := run(t, "seed", "--file", path)
	require.NoError(t, err)
	assert.Contains(t, out, "2 books from "+path)
	assert.Contains(t, out, "Dune")
	assert.Contains(t, out, "–")
}

func TestSeedCommandMissingFile(t *testing.T) {
	_, err := run(t, "seed", "-f", filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}
