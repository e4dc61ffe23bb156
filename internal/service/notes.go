package service

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// NoteReader loads the text of a source note by reference. The engine
// treats note management as an external concern; this is the only point
// where it touches note content.
type NoteReader interface {
	ReadNote(ctx context.Context, ref string) (string, error)
}

// FileNoteReader reads notes from the filesystem, resolving references
// relative to a base directory.
type FileNoteReader struct {
	baseDir string
}

// NewFileNoteReader creates a filesystem-backed note reader.
func NewFileNoteReader(baseDir string) *FileNoteReader {
	return &FileNoteReader{baseDir: baseDir}
}

// ReadNote implements NoteReader.
func (r *FileNoteReader) ReadNote(ctx context.Context, ref string) (string, error) {
	path := ref
	if r.baseDir != "" && !filepath.IsAbs(ref) {
		path = filepath.Join(r.baseDir, ref)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("%w: %s", ErrNoteNotFound, ref)
		}
		return "", fmt.Errorf("failed to read note %s: %w", ref, err)
	}

	return string(data), nil
}

// interface guard
var _ NoteReader = (*FileNoteReader)(nil)
