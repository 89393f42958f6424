package repository

import "errors"

// Sentinel errors returned by the repositories. Controllers map these to HTTP
// semantics at the request boundary.
var (
	ErrNotFound        = errors.New("record not found")
	ErrEmptyText       = errors.New("text must not be empty")
	ErrSelfFollow      = errors.New("cannot follow yourself")
	ErrDuplicateFollow = errors.New("already following this author")
)
