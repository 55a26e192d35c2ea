// Package errors provides sentinel errors for source tree discovery.
package errors

import "errors"

var (
	// ErrSourceNotFound indicates the source directory does not exist.
	ErrSourceNotFound = errors.New("source directory not found")

	// ErrSourceNotDir indicates the source path is not a directory.
	ErrSourceNotDir = errors.New("source path is not a directory")

	// ErrDirWalkFailed indicates filesystem traversal of the source tree failed.
	ErrDirWalkFailed = errors.New("source directory walk failed")

	// ErrFileReadFailed indicates reading a discovered file failed.
	ErrFileReadFailed = errors.New("source file read failed")
)
