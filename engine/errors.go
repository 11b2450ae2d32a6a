package engine

import "errors"

var (
	ErrPostNotFound    = errors.New("post not found")
	ErrCommentNotFound = errors.New("comment not found")
	ErrUserNotFound    = errors.New("user not found")

	// ErrConflict is returned when a replace loses the revision
	// compare-and-swap, meaning another writer persisted first.
	ErrConflict = errors.New("post was modified concurrently")

	ErrEmptyComment   = errors.New("comment text is empty")
	ErrCommentTooLong = errors.New("comment text exceeds maximum length")
)
