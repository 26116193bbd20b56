package service

import "errors"

var (
	// ErrNotFound means the item, or the photo it refers to, does not exist.
	ErrNotFound = errors.New("not found")
	// ErrValidation wraps every rejected input; the wrapping message says why.
	ErrValidation = errors.New("validation failed")
)
