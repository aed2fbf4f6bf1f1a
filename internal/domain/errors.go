package domain

import "errors"

var (
	ErrNotFound       = errors.New("not found")
	ErrEmptyCatalog   = errors.New("catalog has no products")
	ErrLoadFailed     = errors.New("catalog load failed")
	ErrUnknownSession = errors.New("unknown session")
)
