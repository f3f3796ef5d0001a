package common

import "errors"

var (
	// ErrRecordNotFound is returned when a resource lookup matches nothing,
	// including a page of an owned listing that is empty.
	ErrRecordNotFound = errors.New("record not found")

	// ErrNotOwner is returned when an authenticated caller touches a
	// resource owned by somebody else.
	ErrNotOwner = errors.New("not the resource owner")
)
