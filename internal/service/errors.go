package service

import "errors"

// Common service-level errors
var (
	// ErrNoteNotFound indicates the requested source note could not be read.
	ErrNoteNotFound = errors.New("source note not found")

	// ErrNoDecksToMerge indicates none of the requested decks could be
	// loaded, so no merged deck was created.
	ErrNoDecksToMerge = errors.New("no loadable decks to merge")

	// ErrNoFiles indicates a learning-path generation request named no files.
	ErrNoFiles = errors.New("learning path contains no files")
)
