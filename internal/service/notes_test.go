package service

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileNoteReader(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeNote(t, dir, "note.md", "# Title\nbody")
	reader := NewFileNoteReader(dir)

	text, err := reader.ReadNote(context.Background(), "note.md")
	require.NoError(t, err)
	assert.Equal(t, "# Title\nbody", text)
}

func TestFileNoteReaderAbsolutePath(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeNote(t, dir, "abs.md", "absolute content")

	// Absolute references bypass the base directory
	reader := NewFileNoteReader(t.TempDir())
	text, err := reader.ReadNote(context.Background(), filepath.Join(dir, "abs.md"))
	require.NoError(t, err)
	assert.Equal(t, "absolute content", text)
}

func TestFileNoteReaderMissingFile(t *testing.T) {
	t.Parallel()

	reader := NewFileNoteReader(t.TempDir())
	_, err := reader.ReadNote(context.Background(), "nope.md")
	assert.ErrorIs(t, err, ErrNoteNotFound)
}
