package repository

import "errors"

var (
	// ErrNotFound is wrapped by every lookup that matches no row.
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists is returned when a unique column already holds the value.
	ErrAlreadyExists = errors.New("already exists")
)
