package ecs

import (
	"io/fs"
	"testing"
	"testing/fstest"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIOFS(t *testing.T) {
	f, _ := newMemFS(t, 20)
	writeFile(t, f, "hello.txt", []byte("hello, world\n"))
	writeFile(t, f, "big", data(3*BlockSize+5, 1))
	require.NoError(t, f.Create("empty"))
	// Not expressible as an io/fs path; hidden from the view.
	require.NoError(t, f.Create("a/b"))

	fsys := f.IOFS()
	if err := fstest.TestFS(fsys, "hello.txt", "big", "empty"); err != nil {
		t.Fatal(err)
	}

	got, err := fs.ReadFile(fsys, "hello.txt")
	require.NoError(t, err)
	assert.Equal(t, "hello, world\n", string(got))

	entries, err := fs.ReadDir(fsys, ".")
	require.NoError(t, err)
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	assert.Equal(t, []string{"big", "empty", "hello.txt"}, names)

	_, err = fsys.Open("missing")
	assert.True(t, errors.Is(err, fs.ErrNotExist))

	// Every descriptor opened through the view was released.
	assert.Equal(t, 0, f.openCount())

	require.NoError(t, f.Unmount())
	_, err = fsys.Open(".")
	assert.True(t, errors.Is(err, fs.ErrClosed))
}
