package vos

import "errors"

var (
	// ErrPathNotFound is returned when a path doesn't exist.
	ErrPathNotFound = errors.New("No such file or directory")
	// ErrNotADirectory is returned when a directory was expected.
	ErrNotADirectory = errors.New("Not a directory")
	// ErrInvalidArgument is returned for malformed numeric or flag arguments.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrIOFailure wraps read or write errors on a stream or file.
	ErrIOFailure = errors.New("I/O error")
)
